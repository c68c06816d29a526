// Package recondition rewrites a type-checked WGSL module so every
// operation it contains is free of undefined behavior: integer
// division/modulo by zero or signed overflow, out-of-range indexing,
// out-of-range bit-range builtins, and unbounded loops.
//
// Recondition runs in a single depth-first pass per function body.
// Each division, modulo, index, clamp, or bit-range call is classified
// on the way back up from its children (children are rewritten first,
// so a wrapper call's own arguments are already safe): a statically
// provable-safe operand pair is left untouched, and everything else is
// replaced with a call to a synthesized SAFE_* wrapper. Wrapper
// functions are collected in a side table keyed by (kind, operand
// type) as rewriting discovers the need for them, then emitted ahead
// of the module's own declarations — "wrappers first" is simply the
// order Rewriter.wrapperDecls is appended in, read out before
// Rewriter.module.Declarations is rebuilt.
package recondition

import (
	"codeberg.org/saruga/wgsl-fuzzgen/internal/ast"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/builtins"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/concretize"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/config"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/typeinfer"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/types"
)

// Rewriter carries the state threaded through one Recondition call.
type Rewriter struct {
	module *ast.Module
	info   *typeinfer.Info
	opts   config.Options

	wrappers     map[wrapperKey]ast.Ref
	wrapperDecls []*ast.FunctionDecl

	loopSlots            int
	loopCountersRef      ast.Ref
	loopCountersDeclared bool
}

// Result is what Recondition returns alongside the rewritten module.
type Result struct {
	Module *ast.Module
	// LoopCount is the number of LOOP_COUNTERS slots the loop-limiter
	// pass allocated, so a host driving the shader knows how large an
	// array to bind. Zero when loop limiting was disabled or the module
	// had no loops.
	LoopCount int
}

// Recondition type-checks module, rejects it if CheckAliasing finds a
// potential aliasing hazard, and otherwise returns a rewritten module
// with every UB-prone operation replaced by a safe wrapper call. The
// returned module is module itself, mutated in place; the caller
// should not keep using the pre-rewrite tree.
//
// A rewrite rule that meets an expression form it cannot handle panics
// with *InternalInvariantError rather than passing the construct
// through unexamined; the deferred recover here converts that into the
// returned error so a fuzzing driver sees the gap instead of running a
// shader the rewrite silently missed.
func Recondition(module *ast.Module, opts config.Options) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case *InternalInvariantError, *UnsupportedTypeError:
				result, err = nil, e.(error)
			default:
				panic(r)
			}
		}
	}()

	if err := CheckAliasing(module); err != nil {
		return nil, err
	}

	info := typeinfer.Infer(module)
	r := &Rewriter{
		module:   module,
		info:     info,
		opts:     opts,
		wrappers: make(map[wrapperKey]ast.Ref),
	}

	for _, decl := range module.Declarations {
		fn, ok := decl.(*ast.FunctionDecl)
		if !ok || fn.Body == nil {
			continue
		}
		fn.Body = r.rewriteStmt(fn.Body).(*ast.CompoundStmt)
	}

	if opts.LoopLimit > 0 {
		r.injectLoopLimiters()
	}

	if len(r.wrapperDecls) > 0 {
		out := make([]ast.Decl, 0, len(module.Declarations)+len(r.wrapperDecls))
		for _, d := range r.wrapperDecls {
			out = append(out, d)
		}
		out = append(out, module.Declarations...)
		module.Declarations = out
	}

	return &Result{Module: module, LoopCount: r.loopSlots}, nil
}

func (r *Rewriter) declare(name string, kind ast.SymbolKind) ast.Ref {
	ref := ast.Ref{InnerIndex: uint32(len(r.module.Symbols))}
	r.module.Symbols = append(r.module.Symbols, ast.Symbol{OriginalName: name, Kind: kind})
	return ref
}

// callRef builds a call to an already-declared function by Ref,
// looking its name up from the module's symbol table the same way
// internal/writer resolves names.
func (r *Rewriter) callRef(ref ast.Ref, args ...ast.Expr) ast.Expr {
	name := r.module.Symbols[ref.InnerIndex].OriginalName
	return &ast.CallExpr{Func: &ast.IdentExpr{Name: name, Ref: ref}, Args: args}
}

// ----------------------------------------------------------------------------
// Statement-level rewriting
// ----------------------------------------------------------------------------

func (r *Rewriter) rewriteStmt(s ast.Stmt) ast.Stmt {
	switch x := s.(type) {
	case nil:
		return nil
	case *ast.CompoundStmt:
		for i, st := range x.Stmts {
			x.Stmts[i] = r.rewriteStmt(st)
		}
		return x
	case *ast.IfStmt:
		x.Condition = r.rewriteExpr(x.Condition)
		x.Body = r.rewriteStmt(x.Body).(*ast.CompoundStmt)
		x.Else = r.rewriteStmt(x.Else)
		return x
	case *ast.SwitchStmt:
		x.Expr = r.rewriteExpr(x.Expr)
		for i := range x.Cases {
			for j := range x.Cases[i].Selectors {
				x.Cases[i].Selectors[j] = r.rewriteExpr(x.Cases[i].Selectors[j])
			}
			x.Cases[i].Body = r.rewriteStmt(x.Cases[i].Body).(*ast.CompoundStmt)
		}
		return x
	case *ast.ForStmt:
		x.Init = r.rewriteStmt(x.Init)
		x.Condition = r.rewriteExpr(x.Condition)
		x.Update = r.rewriteStmt(x.Update)
		x.Body = r.rewriteStmt(x.Body).(*ast.CompoundStmt)
		return x
	case *ast.WhileStmt:
		x.Condition = r.rewriteExpr(x.Condition)
		x.Body = r.rewriteStmt(x.Body).(*ast.CompoundStmt)
		return x
	case *ast.LoopStmt:
		x.Body = r.rewriteStmt(x.Body).(*ast.CompoundStmt)
		if x.Continuing != nil {
			x.Continuing = r.rewriteStmt(x.Continuing).(*ast.CompoundStmt)
		}
		return x
	case *ast.ReturnStmt:
		x.Value = r.rewriteExpr(x.Value)
		return x
	case *ast.AssignStmt:
		x.Left = r.rewriteExpr(x.Left)
		x.Right = r.rewriteExpr(x.Right)
		return x
	case *ast.IncrDecrStmt:
		x.Expr = r.rewriteExpr(x.Expr)
		return x
	case *ast.CallStmt:
		x.Call = r.rewriteExpr(x.Call).(*ast.CallExpr)
		return x
	case *ast.DeclStmt:
		r.rewriteLocalDecl(x.Decl)
		return x
	default:
		return s
	}
}

func (r *Rewriter) rewriteLocalDecl(d ast.Decl) {
	switch x := d.(type) {
	case *ast.LetDecl:
		x.Initializer = r.rewriteExpr(x.Initializer)
	case *ast.VarDecl:
		x.Initializer = r.rewriteExpr(x.Initializer)
	case *ast.ConstDecl:
		x.Initializer = r.rewriteExpr(x.Initializer)
	}
}

// ----------------------------------------------------------------------------
// Expression-level rewriting
// ----------------------------------------------------------------------------

// rewriteExpr rewrites expr's children first, then classifies expr
// itself. Every Expr case that can embed a child must be listed here,
// or a UB-prone operation nested inside it (e.g. a division inside a
// function-call argument) would be missed entirely.
func (r *Rewriter) rewriteExpr(e ast.Expr) ast.Expr {
	switch x := e.(type) {
	case nil:
		return nil
	case *ast.ParenExpr:
		x.Expr = r.rewriteExpr(x.Expr)
		return x
	case *ast.UnaryExpr:
		x.Operand = r.rewriteExpr(x.Operand)
		return x
	case *ast.BinaryExpr:
		x.Left = r.rewriteExpr(x.Left)
		x.Right = r.rewriteExpr(x.Right)
		if x.Op == ast.BinOpDiv || x.Op == ast.BinOpMod {
			return r.rewriteDivMod(x)
		}
		return x
	case *ast.IndexExpr:
		x.Base = r.rewriteExpr(x.Base)
		x.Index = r.rewriteExpr(x.Index)
		return r.rewriteIndex(x)
	case *ast.MemberExpr:
		x.Base = r.rewriteExpr(x.Base)
		return x
	case *ast.CallExpr:
		for i := range x.Args {
			x.Args[i] = r.rewriteExpr(x.Args[i])
		}
		return r.rewriteCall(x)
	default:
		return e
	}
}

// rewriteDivMod folds both operands; a division or modulo that is
// already statically provable safe (nonzero divisor, and for signed
// division not also i32::MIN / -1) is left as-is, everything else
// becomes a SAFE_DIV_*/SAFE_MOD_* call.
func (r *Rewriter) rewriteDivMod(x *ast.BinaryExpr) ast.Expr {
	operandType := typeinfer.InferExprType(r.info, r.module, x.Left)
	if operandType == nil {
		operandType = typeinfer.InferExprType(r.info, r.module, x.Right)
	}
	operandType = concreteOperandType(operandType)
	elem, _ := elementShape(operandType)
	if elem == nil {
		// Not a numeric scalar/vector operand; typeinfer should never
		// let this reach a division, and guessing would mean emitting a
		// shader with a UB site left unguarded.
		panic(&InternalInvariantError{Context: "division operand with no resolvable numeric type"})
	}

	left, leftOK := concretize.Eval(x.Left)
	right, rightOK := concretize.Eval(x.Right)

	if elem.Kind == types.ScalarF32 || elem.Kind == types.ScalarF16 {
		if x.Op == ast.BinOpMod {
			// WGSL has no float modulo; nothing to recondition.
			return x
		}
		if _, ok := concretize.Eval(x); ok {
			// The whole division folds to a concrete, in-range value.
			return x
		}
		ref := r.getWrapper(wrapSafeFDiv, operandType)
		return r.callRef(ref, x.Left, x.Right)
	}

	signed := elem.Kind == types.ScalarI32

	if x.Op == ast.BinOpDiv {
		if rightOK && !concretize.IsZero(right) {
			if !signed {
				return x
			}
			if !concretize.IsMinAndNegOne(left, right) && (leftOK || !isNegOneAnywhere(right)) {
				return x
			}
		}
		kind := wrapSafeDivI
		if !signed {
			kind = wrapSafeDivU
		}
		ref := r.getWrapper(kind, operandType)
		return r.callRef(ref, x.Left, x.Right)
	}

	// Modulo.
	if signed {
		if leftOK && rightOK && !concretize.IsNegative(left) && !concretize.IsNegative(right) {
			return x
		}
	} else if rightOK && !concretize.IsZero(right) {
		return x
	}
	kind := wrapSafeModI
	if !signed {
		kind = wrapSafeModU
	}
	ref := r.getWrapper(kind, operandType)
	return r.callRef(ref, x.Left, x.Right)
}

// isNegOneAnywhere reports whether v is exactly -1 (scalar) or has a -1
// lane (vector); used when the dividend is not statically known but
// the divisor is, to decide whether a nonzero divisor is still enough
// to prove the division safe.
func isNegOneAnywhere(v concretize.Value) bool {
	if v.IsVector() {
		for _, e := range v.Elems {
			if isNegOneAnywhere(e) {
				return true
			}
		}
		return false
	}
	return v.Kind == concretize.KindI32 && v.I == -1
}

// rewriteIndex leaves a literal index statically within the base's
// known length untouched; anything else is wrapped in SAFE_IDX_I/
// SAFE_IDX_U with the base's static length as the second argument.
func (r *Rewriter) rewriteIndex(x *ast.IndexExpr) ast.Expr {
	baseType := typeinfer.InferExprType(r.info, r.module, x.Base)
	length, ok := staticLength(baseType)
	if !ok {
		// Runtime-sized array, or a type typeinfer couldn't resolve;
		// there is no static bound to wrap against.
		return x
	}

	idxType := typeinfer.InferExprType(r.info, r.module, x.Index)
	idxElem, _ := elementShape(idxType)
	if idxElem == nil || (idxElem.Kind != types.ScalarI32 && idxElem.Kind != types.ScalarU32) {
		return x
	}

	if idxVal, ok := concretize.Eval(x.Index); ok {
		switch idxElem.Kind {
		case types.ScalarU32:
			if idxVal.U < uint32(length) {
				return x
			}
		case types.ScalarI32:
			if idxVal.I >= 0 && int(idxVal.I) < length {
				return x
			}
		}
	}

	kind := wrapSafeIdxU
	if idxElem.Kind == types.ScalarI32 {
		kind = wrapSafeIdxI
	}
	ref := r.getWrapper(kind, idxType)
	sizeExpr := litForScalar(idxElem.Kind, float64(length))
	x.Index = r.callRef(ref, x.Index, sizeExpr)
	return x
}

// concreteOperandType maps an abstract-typed operand (a literal-only
// expression typeinfer has not materialized) to the concrete type WGSL
// would materialize it to, so a synthesized wrapper never carries an
// abstract type in its signature.
func concreteOperandType(t types.Type) types.Type {
	switch tt := t.(type) {
	case *types.Scalar:
		switch tt.Kind {
		case types.ScalarAbstractInt:
			return types.I32
		case types.ScalarAbstractFloat:
			return types.F32
		}
		return tt
	case *types.Vector:
		elem := concreteOperandType(tt.Element)
		if elem != tt.Element {
			return &types.Vector{Width: tt.Width, Element: elem.(*types.Scalar)}
		}
		return tt
	default:
		return t
	}
}

func staticLength(t types.Type) (int, bool) {
	switch tt := t.(type) {
	case *types.Array:
		if tt.IsRuntimeSized() {
			return 0, false
		}
		return tt.Count, true
	case *types.Vector:
		return tt.Width, true
	case *types.Pointer:
		return staticLength(tt.Element)
	case *types.Reference:
		return staticLength(tt.Element)
	default:
		return 0, false
	}
}

// bitsRangeArgPositions gives the (offset, count) argument indices for
// the builtins internal/builtins tags SafetyBitsRange. The table entry
// says *that* a bits-range check applies; which argument positions
// hold offset and count is part of each builtin's own signature, not
// something a single flat field can encode, so it stays here next to
// the rewrite that uses it.
var bitsRangeArgPositions = map[string][2]int{
	"extractBits": {1, 2},
	"insertBits":  {2, 3},
}

// rewriteCall handles the clamp and extractBits/insertBits
// rules, dispatching on internal/builtins' SafetyClass tag rather than
// a name switch, so a builtin's UB shape is declared once in the
// builtin table and read here, not duplicated.
// Everything else (builtin or user calls) passes through unchanged;
// their arguments were already rewritten by the caller.
func (r *Rewriter) rewriteCall(x *ast.CallExpr) ast.Expr {
	if x.Func == nil {
		return x
	}
	ident, ok := x.Func.(*ast.IdentExpr)
	if !ok {
		return x
	}
	b := builtins.Lookup(ident.Name)
	if b == nil || !b.NeedsSafetyCheck() {
		return x
	}
	switch b.Safety {
	case builtins.SafetyClampBounds:
		return r.rewriteClamp(x)
	case builtins.SafetyBitsRange:
		pos, ok := bitsRangeArgPositions[ident.Name]
		if !ok {
			return x
		}
		return r.rewriteBitsCall(x, pos[0], pos[1])
	case builtins.SafetyFloatOverflow:
		return r.rewriteDot(x)
	default:
		return x
	}
}

// rewriteDot routes a float-vector dot through its SAFE_DOT wrapper;
// the sum of products can overflow for finite operands, so the call
// site gets one interposition point per operand type. Integer dot
// wraps modularly and stays untouched.
func (r *Rewriter) rewriteDot(x *ast.CallExpr) ast.Expr {
	if len(x.Args) != 2 {
		return x
	}
	operandType := typeinfer.InferExprType(r.info, r.module, x.Args[0])
	operandType = concreteOperandType(operandType)
	elem, width := elementShape(operandType)
	if elem == nil || width == 0 || !elem.IsFloat() {
		return x
	}
	ref := r.getWrapper(wrapSafeDot, operandType)
	return r.callRef(ref, x.Args[0], x.Args[1])
}

// rewriteClamp swaps clamp's low/high arguments when they are both
// statically known and low > high, the one clamp fix the original
// crate's reconditioner applies (there is no SAFE_CLAMP wrapper — an
// inverted static bound is simply not a valid call to begin with).
func (r *Rewriter) rewriteClamp(x *ast.CallExpr) ast.Expr {
	if len(x.Args) != 3 {
		return x
	}
	low, lowOK := concretize.Eval(x.Args[1])
	high, highOK := concretize.Eval(x.Args[2])
	if lowOK && highOK && concretize.IsInvalidClampBounds(low, high) {
		x.Args[1], x.Args[2] = x.Args[2], x.Args[1]
	}
	return x
}

// rewriteBitsCall implements the extractBits/insertBits rule: when
// offset and count are both statically known and offset+count <= 32,
// leave the call untouched; otherwise clamp count down to
// min(count, 32u - offset) in place, guaranteeing the range never runs
// past the value's bit width.
func (r *Rewriter) rewriteBitsCall(x *ast.CallExpr, offsetIdx, countIdx int) ast.Expr {
	if len(x.Args) <= countIdx {
		return x
	}
	offset, offOK := concretize.Eval(x.Args[offsetIdx])
	count, cntOK := concretize.Eval(x.Args[countIdx])
	if offOK && cntOK && !concretize.IsInvalidBitsCall(offset, count) {
		return x
	}
	thirtyTwo := litForScalar(types.ScalarU32, 32)
	sub := &ast.BinaryExpr{Op: ast.BinOpSub, Left: thirtyTwo, Right: parenIfCompound(x.Args[offsetIdx])}
	x.Args[countIdx] = callBuiltin("min", x.Args[countIdx], sub)
	return x
}

// parenIfCompound keeps a rewritten subtraction's right operand from
// reassociating when it is itself a binary or unary expression; leaf
// operands (identifiers, literals, calls) print unambiguously as-is.
func parenIfCompound(e ast.Expr) ast.Expr {
	switch e.(type) {
	case *ast.BinaryExpr, *ast.UnaryExpr:
		return &ast.ParenExpr{Expr: e}
	default:
		return e
	}
}
