package gen

import (
	"fmt"
	"math"

	"codeberg.org/saruga/wgsl-fuzzgen/internal/ast"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/builtins"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/genscope"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/lexer"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/types"
)

// production identifies one of the kinds GenExpr can pick from.
type production int

const (
	prodLiteral production = iota
	prodVariable
	prodTypeCons
	prodUnaryOp
	prodBinaryOp
	prodFnCall
	prodPostfix
)

// GenExpr synthesizes an expression whose statically inferred type is
// exactly target, recursing at most depthBudget levels. As depthBudget
// approaches zero the distribution collapses to leaf productions
// (literal, variable lookup), guaranteeing termination without relying
// on host stack depth.
func (g *Generator) GenExpr(scope *genscope.Scope, target types.Type, depthBudget int) ast.Expr {
	if depthBudget <= 0 {
		return g.genLeaf(scope, target)
	}

	candidates := g.candidateProductions(scope, target)
	pick := candidates[g.rng.Intn(len(candidates))]

	switch pick {
	case prodLiteral:
		return g.genLiteral(target)
	case prodVariable:
		return g.genVariable(scope, target)
	case prodTypeCons:
		return g.genTypeCons(scope, target, depthBudget)
	case prodUnaryOp:
		return g.genUnaryOp(scope, target, depthBudget)
	case prodBinaryOp:
		return g.genBinaryOp(scope, target, depthBudget)
	case prodFnCall:
		return g.genFnCall(scope, target, depthBudget)
	case prodPostfix:
		return g.genPostfix(scope, target, depthBudget)
	default:
		return g.genLeaf(scope, target)
	}
}

// genLeaf is the terminal production set used once depthBudget is
// exhausted: always a literal, unless a matching variable exists in
// scope, in which case it is an even toss between the two so leaf
// expressions aren't biased entirely toward constants.
func (g *Generator) genLeaf(scope *genscope.Scope, target types.Type) ast.Expr {
	if scope == nil {
		return g.genLiteral(target)
	}
	if entries := scope.ByType(target.String()); len(entries) > 0 && g.rng.Intn(2) == 0 {
		return g.genVariable(scope, target)
	}
	return g.genLiteral(target)
}

// candidateProductions returns the productions legal for target given
// the current scope and remaining depth, weighted by simple repetition
// (a production listed twice is twice as likely).
func (g *Generator) candidateProductions(scope *genscope.Scope, target types.Type) []production {
	var out []production
	out = append(out, prodLiteral, prodLiteral)

	if entries := scope.ByType(target.String()); len(entries) > 0 {
		out = append(out, prodVariable, prodVariable)
	}

	switch target.(type) {
	case *types.Vector, *types.Array, *types.Struct:
		out = append(out, prodTypeCons)
	}

	if g.unaryOpFor(target) != nil {
		out = append(out, prodUnaryOp)
	}
	if len(g.binaryOpsFor(target)) > 0 {
		out = append(out, prodBinaryOp)
	}
	if len(g.builtinCallsFor(target))+len(g.userCallsFor(target)) > 0 {
		out = append(out, prodFnCall)
	}
	if g.postfixSourceExists(scope, target) {
		out = append(out, prodPostfix)
	}
	return out
}

// ----------------------------------------------------------------------------
// Leaf productions
// ----------------------------------------------------------------------------

// literalFor renders v as a suffixed WGSL literal of scalar, so typeinfer
// concretizes it to exactly that type instead of an abstract one.
// Negative magnitudes are expressed as UnaryExpr(Neg, literal) because
// WGSL number tokens never carry a sign themselves.
func literalFor(scalar *types.Scalar, v float64) ast.Expr {
	neg := v < 0
	mag := math.Abs(v)

	var lit *ast.LiteralExpr
	switch scalar.Kind {
	case types.ScalarBool:
		if v != 0 {
			return &ast.LiteralExpr{Kind: lexer.TokTrue, Value: "true"}
		}
		return &ast.LiteralExpr{Kind: lexer.TokFalse, Value: "false"}
	case types.ScalarI32:
		lit = &ast.LiteralExpr{Kind: lexer.TokIntLiteral, Value: fmt.Sprintf("%di", int64(mag))}
	case types.ScalarU32:
		neg = false
		lit = &ast.LiteralExpr{Kind: lexer.TokIntLiteral, Value: fmt.Sprintf("%du", uint64(mag))}
	case types.ScalarF32:
		lit = &ast.LiteralExpr{Kind: lexer.TokFloatLiteral, Value: fmt.Sprintf("%gf", mag)}
	default:
		lit = &ast.LiteralExpr{Kind: lexer.TokFloatLiteral, Value: fmt.Sprintf("%g", mag)}
	}
	if neg {
		return &ast.UnaryExpr{Op: ast.UnaryOpNeg, Operand: lit}
	}
	return lit
}

// genLiteral produces a random, in-range literal of target. Vectors and
// matrices are built componentwise through a type constructor so every
// leaf expression still satisfies ExprNode's "data_type is target_type"
// invariant even for non-scalar leaves.
func (g *Generator) genLiteral(target types.Type) ast.Expr {
	switch t := target.(type) {
	case *types.Scalar:
		return literalFor(t, g.randomScalarValue(t))
	case *types.Vector:
		args := make([]ast.Expr, t.Width)
		for i := range args {
			args[i] = literalFor(t.Element, g.randomScalarValue(t.Element))
		}
		return &ast.CallExpr{TemplateType: g.astType(t), Args: args}
	default:
		// Structs/arrays/matrices fall back to their type constructor;
		// reuse genTypeCons with no remaining depth so every argument
		// bottoms out at a literal.
		return g.genTypeCons(nil, target, 0)
	}
}

// randomScalarValue picks a value in a deliberately small, human-legible
// range: fuzzing undefined behavior needs occasional extremes (handled
// by the edge-case literals in genBinaryOp's divisor pool), but most
// leaves should be ordinary numbers so reconditioned output stays
// readable.
func (g *Generator) randomScalarValue(s *types.Scalar) float64 {
	switch s.Kind {
	case types.ScalarBool:
		return float64(g.rng.Intn(2))
	case types.ScalarF32:
		return (g.rng.Float64() - 0.5) * 20
	default:
		return float64(g.rng.Intn(21) - 10)
	}
}

func (g *Generator) genVariable(scope *genscope.Scope, target types.Type) ast.Expr {
	entries := scope.ByType(target.String())
	if len(entries) == 0 {
		return g.genLiteral(target)
	}
	e := entries[g.rng.Intn(len(entries))]
	return &ast.IdentExpr{Name: e.Name, Ref: e.Ref}
}

// ----------------------------------------------------------------------------
// Type constructor production
// ----------------------------------------------------------------------------

func (g *Generator) genTypeCons(scope *genscope.Scope, target types.Type, depthBudget int) ast.Expr {
	switch t := target.(type) {
	case *types.Vector:
		// Either one argument per component, or a single scalar that
		// gets broadcast — both are legal WGSL vector constructors.
		if g.rng.Intn(2) == 0 {
			return &ast.CallExpr{TemplateType: g.astType(t), Args: []ast.Expr{g.GenExpr(scope, t.Element, depthBudget-1)}}
		}
		args := make([]ast.Expr, t.Width)
		for i := range args {
			args[i] = g.GenExpr(scope, t.Element, depthBudget-1)
		}
		return &ast.CallExpr{TemplateType: g.astType(t), Args: args}
	case *types.Matrix:
		args := make([]ast.Expr, t.Cols)
		colType := &types.Vector{Width: t.Rows, Element: t.Element}
		for i := range args {
			args[i] = g.GenExpr(scope, colType, depthBudget-1)
		}
		return &ast.CallExpr{TemplateType: g.astType(t), Args: args}
	case *types.Array:
		if t.Count <= 0 {
			return g.genLiteral(&types.Scalar{Kind: types.ScalarI32})
		}
		args := make([]ast.Expr, t.Count)
		for i := range args {
			args[i] = g.GenExpr(scope, t.Element, depthBudget-1)
		}
		return &ast.CallExpr{TemplateType: g.astType(t), Args: args}
	case *types.Struct:
		args := make([]ast.Expr, len(t.Fields))
		for i, f := range t.Fields {
			args[i] = g.GenExpr(scope, f.Type, depthBudget-1)
		}
		return &ast.CallExpr{Func: &ast.IdentExpr{Name: t.Name, Ref: g.structRefs[t]}, Args: args}
	default:
		return g.genLiteral(target)
	}
}

// ----------------------------------------------------------------------------
// Unary operator production
// ----------------------------------------------------------------------------

// unaryOpFor returns the unary operator whose result type is target, or
// nil if none applies.
func (g *Generator) unaryOpFor(target types.Type) *ast.UnaryOp {
	op := ast.UnaryOpNeg
	switch elem := elementScalar(target); {
	case elem == nil:
		return nil
	case elem.Kind == types.ScalarBool:
		op = ast.UnaryOpNot
		return &op
	case elem.Kind == types.ScalarI32:
		if g.rng.Intn(2) == 0 {
			op = ast.UnaryOpBitNot
		} else {
			op = ast.UnaryOpNeg
		}
		return &op
	case elem.Kind == types.ScalarU32:
		// WGSL defines no negation for unsigned integers.
		op = ast.UnaryOpBitNot
		return &op
	case elem.Kind == types.ScalarF32:
		return &op // UnaryOpNeg
	}
	return nil
}

func (g *Generator) genUnaryOp(scope *genscope.Scope, target types.Type, depthBudget int) ast.Expr {
	op := g.unaryOpFor(target)
	if op == nil {
		return g.genLeaf(scope, target)
	}
	return &ast.UnaryExpr{Op: *op, Operand: parenOperand(g.GenExpr(scope, target, depthBudget-1))}
}

// parenOperand wraps compound operands in explicit parentheses. The
// writer prints the tree structurally, without re-deriving precedence,
// so an unparenthesized nested binary operand would print as a
// different (flatter) expression than the tree it came from — and a
// negation applied to another negation would print as the `--` token.
func parenOperand(e ast.Expr) ast.Expr {
	switch e.(type) {
	case *ast.BinaryExpr, *ast.UnaryExpr:
		return &ast.ParenExpr{Expr: e}
	default:
		return e
	}
}

// elementScalar returns the scalar a type is built from: itself for a
// scalar, its element for a vector, nil otherwise.
func elementScalar(t types.Type) *types.Scalar {
	switch tt := t.(type) {
	case *types.Scalar:
		return tt
	case *types.Vector:
		return tt.Element
	default:
		return nil
	}
}

// ----------------------------------------------------------------------------
// Binary operator production
// ----------------------------------------------------------------------------

type binOpChoice struct {
	op          ast.BinaryOp
	operandType types.Type
}

// binaryOpsFor lists every binary operator that can produce target,
// paired with the operand type both sides must share. Operands are
// always generated at the same type (never mixed abstract/concrete) so
// type soundness never depends on WGSL's implicit-conversion rules.
func (g *Generator) binaryOpsFor(target types.Type) []binOpChoice {
	elem := elementScalar(target)
	var out []binOpChoice

	if elem != nil {
		switch elem.Kind {
		case types.ScalarBool:
			// Short-circuit && and || are scalar-only; & and | have
			// bool overloads at both scalar and vector shape. ^ is
			// integer-only.
			if _, isScalar := target.(*types.Scalar); isScalar {
				out = append(out, binOpChoice{ast.BinOpLogicalAnd, target}, binOpChoice{ast.BinOpLogicalOr, target})
			}
			out = append(out, binOpChoice{ast.BinOpAnd, target}, binOpChoice{ast.BinOpOr, target})
		case types.ScalarI32, types.ScalarU32:
			out = append(out,
				binOpChoice{ast.BinOpAdd, target}, binOpChoice{ast.BinOpSub, target}, binOpChoice{ast.BinOpMul, target},
				binOpChoice{ast.BinOpDiv, target}, binOpChoice{ast.BinOpMod, target},
				binOpChoice{ast.BinOpAnd, target}, binOpChoice{ast.BinOpOr, target}, binOpChoice{ast.BinOpXor, target},
				binOpChoice{ast.BinOpShl, target}, binOpChoice{ast.BinOpShr, target},
			)
		case types.ScalarF32:
			out = append(out,
				binOpChoice{ast.BinOpAdd, target}, binOpChoice{ast.BinOpSub, target}, binOpChoice{ast.BinOpMul, target},
				binOpChoice{ast.BinOpDiv, target},
			)
		}
	}

	// Comparisons: target must be bool (or a bool vector of matching
	// width for componentwise compares — WGSL's scalar comparisons
	// return scalar bool only, so only handle the scalar case here).
	if s, ok := target.(*types.Scalar); ok && s.Kind == types.ScalarBool {
		for _, numeric := range []types.Type{types.I32, types.U32, types.F32} {
			out = append(out,
				binOpChoice{ast.BinOpEq, numeric}, binOpChoice{ast.BinOpNe, numeric},
				binOpChoice{ast.BinOpLt, numeric}, binOpChoice{ast.BinOpLe, numeric},
				binOpChoice{ast.BinOpGt, numeric}, binOpChoice{ast.BinOpGe, numeric},
			)
		}
	}
	return out
}

func (g *Generator) genBinaryOp(scope *genscope.Scope, target types.Type, depthBudget int) ast.Expr {
	choices := g.binaryOpsFor(target)
	if len(choices) == 0 {
		return g.genLeaf(scope, target)
	}
	c := choices[g.rng.Intn(len(choices))]
	left := g.GenExpr(scope, c.operandType, depthBudget-1)
	rightType := c.operandType
	if c.op == ast.BinOpShl || c.op == ast.BinOpShr {
		// The shift amount is always u32-typed, whatever the value
		// being shifted is.
		rightType = shiftAmountType(c.operandType)
	}
	right := g.genDivisorAware(scope, c.op, rightType, depthBudget-1)
	return &ast.BinaryExpr{Op: c.op, Left: parenOperand(left), Right: parenOperand(right)}
}

// shiftAmountType returns u32 with the same shape (scalar or vector
// width) as the shifted operand.
func shiftAmountType(operand types.Type) types.Type {
	if v, ok := operand.(*types.Vector); ok {
		return &types.Vector{Width: v.Width, Element: types.U32}
	}
	return types.U32
}

// genDivisorAware generates the right-hand operand of a binary op,
// occasionally choosing a literal zero (or -1, for signed division) so
// generated programs actually exercise the reconditioner's undefined-
// behavior guards instead of only ever dividing by well-behaved values.
// The generator itself makes no attempt to avoid UB — that is exactly
// what internal/recondition exists to mask afterward.
func (g *Generator) genDivisorAware(scope *genscope.Scope, op ast.BinaryOp, operandType types.Type, depthBudget int) ast.Expr {
	if (op == ast.BinOpDiv || op == ast.BinOpMod) && g.rng.Intn(4) == 0 {
		if elem := elementScalar(operandType); elem != nil && elem.Kind != types.ScalarF32 {
			v := 0.0
			if op == ast.BinOpDiv && elem.Kind == types.ScalarI32 && g.rng.Intn(2) == 0 {
				v = -1
			}
			lit := literalFor(elem, v)
			if _, isVec := operandType.(*types.Vector); isVec {
				// Splat so the divisor has the operand type, not its element.
				return &ast.CallExpr{TemplateType: g.astType(operandType), Args: []ast.Expr{lit}}
			}
			return lit
		}
	}
	return g.GenExpr(scope, operandType, depthBudget)
}

// ----------------------------------------------------------------------------
// Builtin function call production
// ----------------------------------------------------------------------------

// builtinCall describes one concretely-instantiated builtin overload:
// its name and the operand types GenExpr should recurse on to build an
// argument list builtins.ResolveOverload accepts for this target.
type builtinCall struct {
	name     string
	argTypes []types.Type
}

// builtinCallsFor returns every builtin invocation the generator knows
// how to instantiate for target, verified against internal/builtins'
// overload table so a generated call always resolves to target.
func (g *Generator) builtinCallsFor(target types.Type) []builtinCall {
	var out []builtinCall
	tryAdd := func(name string, args []types.Type) {
		b := builtins.Lookup(name)
		if b == nil {
			return
		}
		if ret, ok := builtins.ResolveOverload(b, args); ok && ret != nil && ret.Equals(target) {
			out = append(out, builtinCall{name: name, argTypes: args})
		}
	}

	if elementScalar(target) != nil {
		tryAdd("abs", []types.Type{target})
		tryAdd("min", []types.Type{target, target})
		tryAdd("max", []types.Type{target, target})
		tryAdd("clamp", []types.Type{target, target, target})
	}
	if elem := elementScalar(target); elem != nil && elem.Kind != types.ScalarF32 {
		tryAdd("extractBits", []types.Type{target, types.U32, types.U32})
		tryAdd("insertBits", []types.Type{target, target, types.U32, types.U32})
	}
	if s, ok := target.(*types.Scalar); ok && s.IsNumeric() {
		for _, n := range []int{2, 3, 4} {
			vec := &types.Vector{Width: n, Element: s}
			tryAdd("dot", []types.Type{vec, vec})
		}
	}
	return out
}

// userCallsFor returns every previously generated helper function whose
// return type is exactly target, so calling it satisfies the same
// "data_type is target_type" invariant builtin calls have to meet.
func (g *Generator) userCallsFor(target types.Type) []helperFn {
	var out []helperFn
	for _, h := range g.helpers {
		if h.returnType != nil && h.returnType.Equals(target) {
			out = append(out, h)
		}
	}
	return out
}

func (g *Generator) genFnCall(scope *genscope.Scope, target types.Type, depthBudget int) ast.Expr {
	userChoices := g.userCallsFor(target)
	builtinChoices := g.builtinCallsFor(target)
	total := len(userChoices) + len(builtinChoices)
	if total == 0 {
		return g.genLeaf(scope, target)
	}

	pick := g.rng.Intn(total)
	if pick < len(userChoices) {
		h := userChoices[pick]
		args := make([]ast.Expr, len(h.paramTypes))
		for i, pt := range h.paramTypes {
			args[i] = g.GenExpr(scope, pt, depthBudget-1)
		}
		return &ast.CallExpr{Func: &ast.IdentExpr{Name: h.name, Ref: h.ref}, Args: args}
	}

	c := builtinChoices[pick-len(userChoices)]
	args := make([]ast.Expr, len(c.argTypes))
	for i, at := range c.argTypes {
		args[i] = g.GenExpr(scope, at, depthBudget-1)
	}
	return &ast.CallExpr{Func: &ast.IdentExpr{Name: c.name, Ref: ast.InvalidRef()}, Args: args}
}

// ----------------------------------------------------------------------------
// Postfix production (member / index / swizzle)
// ----------------------------------------------------------------------------

// postfixSourceExists reports whether any visible binding yields target
// through a member, index, or swizzle access, so candidateProductions
// can decide whether prodPostfix is viable without building the
// expression twice.
func (g *Generator) postfixSourceExists(scope *genscope.Scope, target types.Type) bool {
	for _, source := range g.accessibleSourceTypes(target) {
		if len(scope.ByType(source.String())) > 0 {
			return true
		}
	}
	return false
}

// accessibleSourceTypes enumerates types that, via one postfix step,
// yield target: structs with a target-typed field, arrays/vectors of
// target, or (for scalar target) vectors target could be swizzled from.
// Structs are taken from the Context registry, never from the
// structRefs map, so enumeration order is stable across runs.
func (g *Generator) accessibleSourceTypes(target types.Type) []types.Type {
	var out []types.Type
	for _, st := range g.ctx.Structs {
		for _, f := range st.Fields {
			if f.Type.Equals(target) {
				out = append(out, st)
				break
			}
		}
	}
	out = append(out, &types.Array{Element: target, Count: 0})
	for n := 1; n <= 8; n++ {
		out = append(out, &types.Array{Element: target, Count: n})
	}
	if s, ok := target.(*types.Scalar); ok {
		for _, n := range []int{2, 3, 4} {
			out = append(out, &types.Vector{Width: n, Element: s})
		}
	}
	return out
}

func (g *Generator) genPostfix(scope *genscope.Scope, target types.Type, depthBudget int) ast.Expr {
	var matching []struct {
		source types.Type
		entry  genscope.Entry
	}
	for _, source := range g.accessibleSourceTypes(target) {
		for _, e := range scope.ByType(source.String()) {
			matching = append(matching, struct {
				source types.Type
				entry  genscope.Entry
			}{source, e})
		}
	}
	if len(matching) == 0 {
		return g.genLeaf(scope, target)
	}
	pick := matching[g.rng.Intn(len(matching))]
	base := ast.Expr(&ast.IdentExpr{Name: pick.entry.Name, Ref: pick.entry.Ref})

	switch src := pick.source.(type) {
	case *types.Struct:
		for _, f := range src.Fields {
			if f.Type.Equals(target) {
				return &ast.MemberExpr{Base: base, Member: f.Name}
			}
		}
	case *types.Array:
		idx := literalFor(types.U32, float64(g.rng.Intn(maxInt(src.Count, 1))))
		return &ast.IndexExpr{Base: base, Index: idx}
	case *types.Vector:
		components := "xyzw"[:src.Width]
		member := string(components[g.rng.Intn(len(components))])
		return &ast.MemberExpr{Base: base, Member: member}
	}
	return g.genLiteral(target)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
