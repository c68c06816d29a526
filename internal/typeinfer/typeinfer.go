// Package typeinfer resolves the type of every expression and declared
// symbol in a parsed module. It does not perform full semantic validation
// (control flow, entry point attributes, uniformity) — callers that need
// that belong to internal/analysis instead. typeinfer exists because the
// generator and reconditioner both need to know the type of an arbitrary
// expression, including expressions they did not themselves construct (a
// shader handed to `recondition` on stdin), without re-running a full
// WGSL validator over it.
package typeinfer

import (
	"fmt"
	"strings"

	"codeberg.org/saruga/wgsl-fuzzgen/internal/ast"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/builtins"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/types"
)

// Info carries the resolved type information for a module.
type Info struct {
	// ExprTypes maps expression source locations to their resolved type.
	ExprTypes map[int]types.Type
	// SymbolTypes maps symbol references (globals, params, locals) to type.
	SymbolTypes map[ast.Ref]types.Type
	// Structs maps struct names to their resolved, laid-out type.
	Structs map[string]*types.Struct
	// Errors collects types that could not be resolved. Infer does not
	// fail the whole pass on one unresolved symbol; it records the miss
	// and returns nil for that expression so callers can decide whether
	// to abort.
	Errors []string
}

type inferer struct {
	module      *ast.Module
	symbolTypes map[ast.Ref]types.Type
	structTypes map[string]*types.Struct
	aliasTypes  map[string]types.Type
	exprTypes   map[int]types.Type
	errors      []string
}

// Infer walks module, resolving struct layouts, global/parameter/local
// symbol types, and the type of every expression reachable from a
// function body or global initializer.
func Infer(module *ast.Module) *Info {
	inf := &inferer{
		module:      module,
		symbolTypes: make(map[ast.Ref]types.Type),
		structTypes: make(map[string]*types.Struct),
		aliasTypes:  make(map[string]types.Type),
		exprTypes:   make(map[int]types.Type),
	}

	inf.collectTypeDeclarations()
	inf.resolveStructLayouts()
	inf.declareGlobals()
	inf.declareFunctionSignatures()
	inf.inferFunctions()

	return &Info{
		ExprTypes:   inf.exprTypes,
		SymbolTypes: inf.symbolTypes,
		Structs:     inf.structTypes,
		Errors:      inf.errors,
	}
}

func (v *inferer) fail(format string, args ...interface{}) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

// ----------------------------------------------------------------------------
// Struct and alias declarations
// ----------------------------------------------------------------------------

func (v *inferer) collectTypeDeclarations() {
	for _, decl := range v.module.Declarations {
		switch d := decl.(type) {
		case *ast.StructDecl:
			name := v.symbolName(d.Name)
			if name == "" {
				continue
			}
			v.structTypes[name] = &types.Struct{Name: name}
		case *ast.AliasDecl:
			name := v.symbolName(d.Name)
			if name == "" {
				continue
			}
			v.aliasTypes[name] = nil
		}
	}
}

func (v *inferer) resolveStructLayouts() {
	for _, decl := range v.module.Declarations {
		switch d := decl.(type) {
		case *ast.StructDecl:
			name := v.symbolName(d.Name)
			st := v.structTypes[name]
			if st == nil {
				continue
			}
			for _, member := range d.Members {
				memberName := v.symbolName(member.Name)
				memberType := v.resolveType(member.Type)
				if memberType == nil {
					v.fail("cannot resolve type for struct member %q of %q", memberName, name)
					continue
				}
				st.Fields = append(st.Fields, types.StructField{Name: memberName, Type: memberType})
			}
			st.ComputeLayout()

		case *ast.AliasDecl:
			name := v.symbolName(d.Name)
			v.aliasTypes[name] = v.resolveType(d.Type)
		}
	}
}

// declareGlobals resolves the type of every const/override/var/let at
// module scope, the way a struct field's type must be known before its
// declaring expressions can be typed.
func (v *inferer) declareGlobals() {
	for _, decl := range v.module.Declarations {
		switch d := decl.(type) {
		case *ast.ConstDecl:
			v.declareGlobalLike(d.Name, d.Type, d.Initializer, true)
		case *ast.OverrideDecl:
			v.declareGlobalLike(d.Name, d.Type, d.Initializer, false)
		case *ast.VarDecl:
			v.declareGlobalLike(d.Name, d.Type, d.Initializer, false)
		case *ast.LetDecl:
			v.declareGlobalLike(d.Name, d.Type, d.Initializer, true)
		}
	}
}

func (v *inferer) declareGlobalLike(name ast.Ref, declaredType ast.Type, init ast.Expr, concretize bool) {
	var t types.Type
	if declaredType != nil {
		t = v.resolveType(declaredType)
	}
	var initType types.Type
	if init != nil {
		initType = v.checkExpr(init)
	}
	if t == nil {
		t = initType
	}
	if t == nil {
		v.fail("cannot determine type for %q", v.symbolName(name))
		return
	}
	if concretize && declaredType == nil {
		t = types.ConcreteType(t)
	}
	v.symbolTypes[name] = t
}

// ----------------------------------------------------------------------------
// Functions
// ----------------------------------------------------------------------------

// declareFunctionSignatures registers every function's own symbol as a
// *types.Function before any body is walked, so a call to a function
// declared later in the module (or one that calls itself) still
// resolves during checkCall's Ref lookup.
func (v *inferer) declareFunctionSignatures() {
	for _, decl := range v.module.Declarations {
		fn, ok := decl.(*ast.FunctionDecl)
		if !ok {
			continue
		}
		sig := &types.Function{}
		for _, param := range fn.Parameters {
			sig.Parameters = append(sig.Parameters, v.resolveType(param.Type))
		}
		if fn.ReturnType != nil {
			sig.ReturnType = v.resolveType(fn.ReturnType)
		}
		v.symbolTypes[fn.Name] = sig
	}
}

func (v *inferer) inferFunctions() {
	for _, decl := range v.module.Declarations {
		if fn, ok := decl.(*ast.FunctionDecl); ok {
			v.inferFunction(fn)
		}
	}
}

func (v *inferer) inferFunction(fn *ast.FunctionDecl) {
	for _, param := range fn.Parameters {
		if t := v.resolveType(param.Type); t != nil {
			v.symbolTypes[param.Name] = t
		}
	}
	if fn.Body != nil {
		v.walkCompound(fn.Body)
	}
}

func (v *inferer) walkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.CompoundStmt:
		v.walkCompound(s)
	case *ast.ReturnStmt:
		if s.Value != nil {
			v.checkExpr(s.Value)
		}
	case *ast.IfStmt:
		v.checkExpr(s.Condition)
		v.walkCompound(s.Body)
		if s.Else != nil {
			v.walkStmt(s.Else)
		}
	case *ast.SwitchStmt:
		v.checkExpr(s.Expr)
		for _, c := range s.Cases {
			for _, sel := range c.Selectors {
				v.checkExpr(sel)
			}
			v.walkCompound(c.Body)
		}
	case *ast.ForStmt:
		if s.Init != nil {
			v.walkStmt(s.Init)
		}
		if s.Condition != nil {
			v.checkExpr(s.Condition)
		}
		if s.Update != nil {
			v.walkStmt(s.Update)
		}
		v.walkCompound(s.Body)
	case *ast.WhileStmt:
		v.checkExpr(s.Condition)
		v.walkCompound(s.Body)
	case *ast.LoopStmt:
		v.walkCompound(s.Body)
		if s.Continuing != nil {
			v.walkCompound(s.Continuing)
		}
	case *ast.AssignStmt:
		v.checkExpr(s.Left)
		v.checkExpr(s.Right)
	case *ast.IncrDecrStmt:
		v.checkExpr(s.Expr)
	case *ast.CallStmt:
		v.checkExpr(s.Call)
	case *ast.DeclStmt:
		v.walkDecl(s.Decl)
	}
}

func (v *inferer) walkCompound(c *ast.CompoundStmt) {
	if c == nil {
		return
	}
	for _, s := range c.Stmts {
		v.walkStmt(s)
	}
}

func (v *inferer) walkDecl(decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.ConstDecl:
		v.declareGlobalLike(d.Name, d.Type, d.Initializer, true)
	case *ast.LetDecl:
		v.declareGlobalLike(d.Name, d.Type, d.Initializer, true)
	case *ast.VarDecl:
		v.declareGlobalLike(d.Name, d.Type, d.Initializer, false)
	}
}

// ----------------------------------------------------------------------------
// Expression typing
// ----------------------------------------------------------------------------

func (v *inferer) checkExpr(expr ast.Expr) types.Type {
	if expr == nil {
		return nil
	}

	var t types.Type
	var loc int

	switch e := expr.(type) {
	case *ast.LiteralExpr:
		t, loc = v.checkLiteral(e), int(e.Loc.Start)
	case *ast.IdentExpr:
		t, loc = v.checkIdent(e), int(e.Loc.Start)
	case *ast.BinaryExpr:
		t, loc = v.checkBinary(e), int(e.Loc.Start)
	case *ast.UnaryExpr:
		t, loc = v.checkUnary(e), int(e.Loc.Start)
	case *ast.CallExpr:
		t, loc = v.checkCall(e), int(e.Loc.Start)
	case *ast.IndexExpr:
		t, loc = v.checkIndex(e), int(e.Loc.Start)
	case *ast.MemberExpr:
		t, loc = v.checkMember(e), int(e.Loc.Start)
	case *ast.ParenExpr:
		return v.checkExpr(e.Expr)
	default:
		return nil
	}

	if t != nil {
		v.exprTypes[loc] = t
	}
	return t
}

func (v *inferer) checkLiteral(e *ast.LiteralExpr) types.Type {
	switch {
	case e.Value == "true" || e.Value == "false":
		return types.Bool
	case strings.ContainsAny(e.Value, ".eE") || strings.HasSuffix(e.Value, "f") || strings.HasSuffix(e.Value, "h"):
		if strings.HasSuffix(e.Value, "h") {
			return types.F16
		}
		if strings.HasSuffix(e.Value, "f") {
			return types.F32
		}
		return types.AbstractFloat
	case strings.HasPrefix(e.Value, "0x") || strings.HasPrefix(e.Value, "0X"):
		if strings.HasSuffix(e.Value, "u") {
			return types.U32
		}
		if strings.HasSuffix(e.Value, "i") {
			return types.I32
		}
		return types.AbstractInt
	default:
		if strings.HasSuffix(e.Value, "u") {
			return types.U32
		}
		if strings.HasSuffix(e.Value, "i") {
			return types.I32
		}
		return types.AbstractInt
	}
}

func (v *inferer) checkIdent(e *ast.IdentExpr) types.Type {
	if t := v.lookupType(e.Name); t != nil {
		return t
	}
	if e.Ref.IsValid() {
		if t, ok := v.symbolTypes[e.Ref]; ok {
			return t
		}
	}
	if builtins.IsBuiltin(e.Name) {
		return nil
	}
	v.fail("undefined identifier %q", e.Name)
	return nil
}

func (v *inferer) checkBinary(e *ast.BinaryExpr) types.Type {
	leftType := v.checkExpr(e.Left)
	rightType := v.checkExpr(e.Right)
	if leftType == nil || rightType == nil {
		return nil
	}

	switch e.Op {
	case ast.BinOpLogicalAnd, ast.BinOpLogicalOr:
		if !leftType.Equals(types.Bool) || !rightType.Equals(types.Bool) {
			return nil
		}
		return types.Bool
	case ast.BinOpEq, ast.BinOpNe:
		if !leftType.Equals(rightType) && !types.CanConvertTo(leftType, rightType) && !types.CanConvertTo(rightType, leftType) {
			return nil
		}
		return types.Bool
	case ast.BinOpLt, ast.BinOpLe, ast.BinOpGt, ast.BinOpGe:
		if !types.IsNumeric(leftType) || !types.IsNumeric(rightType) {
			return nil
		}
		return types.Bool
	case ast.BinOpAdd, ast.BinOpSub:
		return types.AddSubResultType(leftType, rightType)
	case ast.BinOpMul:
		return types.MultiplyResultType(leftType, rightType)
	case ast.BinOpDiv:
		return types.DivResultType(leftType, rightType)
	case ast.BinOpMod:
		if !types.IsInteger(leftType) || !types.IsInteger(rightType) {
			return nil
		}
		return types.CommonType(leftType, rightType)
	case ast.BinOpAnd, ast.BinOpOr, ast.BinOpXor:
		if leftType.Equals(types.Bool) && rightType.Equals(types.Bool) {
			return types.Bool
		}
		if types.IsInteger(leftType) && types.IsInteger(rightType) {
			return types.CommonType(leftType, rightType)
		}
		return nil
	case ast.BinOpShl, ast.BinOpShr:
		if !types.IsInteger(leftType) {
			return nil
		}
		return leftType
	}
	return nil
}

func (v *inferer) checkUnary(e *ast.UnaryExpr) types.Type {
	operandType := v.checkExpr(e.Operand)
	if operandType == nil {
		return nil
	}
	switch e.Op {
	case ast.UnaryOpNeg:
		if !types.IsNumeric(operandType) {
			return nil
		}
		return operandType
	case ast.UnaryOpNot:
		if operandType.Equals(types.Bool) {
			return types.Bool
		}
		if vec, ok := operandType.(*types.Vector); ok && vec.Element.Kind == types.ScalarBool {
			return operandType
		}
		return nil
	case ast.UnaryOpBitNot:
		if !types.IsInteger(operandType) {
			return nil
		}
		return operandType
	case ast.UnaryOpDeref:
		if ptr, ok := operandType.(*types.Pointer); ok {
			return ptr.Element
		}
		if ref, ok := operandType.(*types.Reference); ok {
			return ref.Element
		}
		return nil
	case ast.UnaryOpAddr:
		return types.Ptr(types.AddressSpaceFunction, operandType, types.AccessModeReadWrite)
	}
	return nil
}

func (v *inferer) checkCall(e *ast.CallExpr) types.Type {
	if e.TemplateType != nil {
		return v.resolveType(e.TemplateType)
	}

	var calleeName string
	switch c := e.Func.(type) {
	case *ast.IdentExpr:
		calleeName = c.Name
	case *ast.MemberExpr:
		calleeName = v.memberExprToString(c)
	default:
		v.fail("expression is not callable")
		return nil
	}

	var argTypes []types.Type
	for _, arg := range e.Args {
		argTypes = append(argTypes, v.checkExpr(arg))
	}

	// An untemplated array(...) constructor takes its element type from
	// its first argument and its length from the argument count.
	if calleeName == "array" && len(argTypes) > 0 && argTypes[0] != nil {
		return &types.Array{Element: argTypes[0], Count: len(argTypes)}
	}

	if builtin := builtins.Lookup(calleeName); builtin != nil {
		retType, ok := builtins.ResolveOverload(builtin, argTypes)
		if !ok {
			v.fail("no matching overload for %q", calleeName)
			return nil
		}
		return retType
	}

	if t := v.lookupType(calleeName); t != nil {
		return v.checkTypeConstructor(t, argTypes)
	}

	if ident, ok := e.Func.(*ast.IdentExpr); ok && ident.Ref.IsValid() {
		if funcType, ok := v.symbolTypes[ident.Ref]; ok {
			if fn, ok := funcType.(*types.Function); ok {
				return fn.ReturnType
			}
		}
	}

	v.fail("%q is not a function or type constructor", calleeName)
	return nil
}

func (v *inferer) checkTypeConstructor(t types.Type, argTypes []types.Type) types.Type {
	switch ty := t.(type) {
	case *types.Scalar:
		if len(argTypes) != 1 || (argTypes[0] != nil && !types.CanConvertTo(argTypes[0], t)) {
			return nil
		}
		return t
	case *types.Struct:
		if len(argTypes) != len(ty.Fields) {
			return nil
		}
		return t
	default:
		return t
	}
}

func (v *inferer) checkIndex(e *ast.IndexExpr) types.Type {
	baseType := v.checkExpr(e.Base)
	v.checkExpr(e.Index)
	if baseType == nil {
		return nil
	}
	switch t := baseType.(type) {
	case *types.Array:
		return t.Element
	case *types.Vector:
		return t.Element
	case *types.Matrix:
		return &types.Vector{Width: t.Rows, Element: t.Element}
	case *types.Pointer:
		if arr, ok := t.Element.(*types.Array); ok {
			return arr.Element
		}
	case *types.Reference:
		if arr, ok := t.Element.(*types.Array); ok {
			return arr.Element
		}
	}
	v.fail("type %q is not indexable", baseType.String())
	return nil
}

func (v *inferer) checkMember(e *ast.MemberExpr) types.Type {
	baseType := v.checkExpr(e.Base)
	if baseType == nil {
		return nil
	}
	for {
		if ptr, ok := baseType.(*types.Pointer); ok {
			baseType = ptr.Element
			continue
		}
		if ref, ok := baseType.(*types.Reference); ok {
			baseType = ref.Element
			continue
		}
		break
	}
	switch t := baseType.(type) {
	case *types.Struct:
		field := t.GetField(e.Member)
		if field == nil {
			v.fail("struct %q has no member %q", t.Name, e.Member)
			return nil
		}
		return field.Type
	case *types.Vector:
		if len(e.Member) == 1 {
			return t.Element
		}
		if len(e.Member) <= 4 {
			return &types.Vector{Width: len(e.Member), Element: t.Element}
		}
		v.fail("invalid swizzle %q", e.Member)
		return nil
	}
	v.fail("type %q has no member %q", baseType.String(), e.Member)
	return nil
}

// ----------------------------------------------------------------------------
// Types
// ----------------------------------------------------------------------------

func (v *inferer) resolveType(t ast.Type) types.Type {
	if t == nil {
		return nil
	}

	switch ty := t.(type) {
	case *ast.IdentType:
		return v.lookupType(ty.Name)

	case *ast.VecType:
		var elemType *types.Scalar
		if ty.ElemType != nil {
			if s, ok := v.resolveType(ty.ElemType).(*types.Scalar); ok {
				elemType = s
			}
		} else if ty.Shorthand != "" {
			elemType = v.shorthandElement(ty.Shorthand)
		}
		if elemType == nil {
			elemType = types.F32
		}
		return &types.Vector{Width: int(ty.Size), Element: elemType}

	case *ast.MatType:
		var elemType *types.Scalar
		if ty.ElemType != nil {
			if s, ok := v.resolveType(ty.ElemType).(*types.Scalar); ok {
				elemType = s
			}
		} else if ty.Shorthand != "" {
			elemType = v.shorthandElement(ty.Shorthand)
		}
		if elemType == nil {
			elemType = types.F32
		}
		return &types.Matrix{Cols: int(ty.Cols), Rows: int(ty.Rows), Element: elemType}

	case *ast.ArrayType:
		elemType := v.resolveType(ty.ElemType)
		if elemType == nil {
			return nil
		}
		count := 0
		if ty.Size != nil {
			if lit, ok := ty.Size.(*ast.LiteralExpr); ok {
				fmt.Sscanf(lit.Value, "%d", &count)
			}
		}
		return &types.Array{Element: elemType, Count: count}

	case *ast.PtrType:
		elemType := v.resolveType(ty.ElemType)
		if elemType == nil {
			return nil
		}
		return &types.Pointer{
			AddressSpace: types.AddressSpace(ty.AddressSpace),
			Element:      elemType,
			AccessMode:   types.AccessMode(ty.AccessMode),
		}

	case *ast.AtomicType:
		if s, ok := v.resolveType(ty.ElemType).(*types.Scalar); ok {
			return &types.Atomic{Element: s}
		}
		return nil

	case *ast.SamplerType:
		return &types.Sampler{Comparison: ty.Comparison}

	case *ast.TextureType:
		var sampledType *types.Scalar
		if ty.SampledType != nil {
			if s, ok := v.resolveType(ty.SampledType).(*types.Scalar); ok {
				sampledType = s
			}
		}
		return &types.Texture{
			Kind:        types.TextureKind(ty.Kind),
			Dimension:   types.TextureDimension(ty.Dimension),
			SampledType: sampledType,
			TexelFormat: ty.TexelFormat,
			AccessMode:  types.AccessMode(ty.AccessMode),
		}
	}

	return nil
}

func (v *inferer) lookupType(name string) types.Type {
	switch name {
	case "bool":
		return types.Bool
	case "i32":
		return types.I32
	case "u32":
		return types.U32
	case "f32":
		return types.F32
	case "f16":
		return types.F16
	case "sampler":
		return &types.Sampler{Comparison: false}
	case "sampler_comparison":
		return &types.Sampler{Comparison: true}
	}
	if strings.HasPrefix(name, "vec") {
		return v.parseVectorShorthand(name)
	}
	if strings.HasPrefix(name, "mat") {
		return v.parseMatrixShorthand(name)
	}
	if st, ok := v.structTypes[name]; ok {
		return st
	}
	if t, ok := v.aliasTypes[name]; ok {
		return t
	}
	return nil
}

func (v *inferer) parseVectorShorthand(name string) types.Type {
	if len(name) < 4 {
		return nil
	}
	var size int
	switch name[3] {
	case '2':
		size = 2
	case '3':
		size = 3
	case '4':
		size = 4
	default:
		return nil
	}
	if len(name) == 4 {
		return &types.Vector{Width: size, Element: types.F32}
	}
	var elem *types.Scalar
	switch name[4] {
	case 'i':
		elem = types.I32
	case 'u':
		elem = types.U32
	case 'f':
		elem = types.F32
	case 'h':
		elem = types.F16
	default:
		return nil
	}
	return &types.Vector{Width: size, Element: elem}
}

func (v *inferer) parseMatrixShorthand(name string) types.Type {
	if len(name) < 6 {
		return nil
	}
	cols := int(name[3] - '0')
	rows := int(name[5] - '0')
	if cols < 2 || cols > 4 || rows < 2 || rows > 4 {
		return nil
	}
	elem := types.F32
	if len(name) > 6 {
		switch name[6] {
		case 'f':
			elem = types.F32
		case 'h':
			elem = types.F16
		}
	}
	return &types.Matrix{Cols: cols, Rows: rows, Element: elem}
}

func (v *inferer) shorthandElement(shorthand string) *types.Scalar {
	if len(shorthand) == 0 {
		return types.F32
	}
	switch shorthand[len(shorthand)-1] {
	case 'i':
		return types.I32
	case 'u':
		return types.U32
	case 'f':
		return types.F32
	case 'h':
		return types.F16
	default:
		return types.F32
	}
}

func (v *inferer) symbolName(ref ast.Ref) string {
	if !ref.IsValid() {
		return ""
	}
	if int(ref.InnerIndex) < len(v.module.Symbols) {
		return v.module.Symbols[ref.InnerIndex].OriginalName
	}
	return ""
}

func (v *inferer) memberExprToString(e *ast.MemberExpr) string {
	var parts []string
	var current ast.Expr = e
	for current != nil {
		switch c := current.(type) {
		case *ast.MemberExpr:
			parts = append([]string{c.Member}, parts...)
			current = c.Base
		case *ast.IdentExpr:
			parts = append([]string{c.Name}, parts...)
			current = nil
		default:
			current = nil
		}
	}
	return strings.Join(parts, ".")
}

// InferExprType resolves the type of a single expression using the
// symbol and struct tables already computed by Infer, without rerunning
// Infer over the whole module. The reconditioner needs this: it builds
// or rewrites expressions that were never assigned a source location
// (Loc.Start defaults to 0 on every generator-built node), so Info's own
// ExprTypes cache — keyed by Loc.Start — cannot be trusted for them.
// SymbolTypes and Structs are keyed by ast.Ref and struct name instead,
// which stay correct regardless of how a node was constructed, so this
// walks the expression fresh against those two tables every time.
func InferExprType(info *Info, module *ast.Module, expr ast.Expr) types.Type {
	inf := &inferer{
		module:      module,
		symbolTypes: info.SymbolTypes,
		structTypes: info.Structs,
		aliasTypes:  map[string]types.Type{},
		exprTypes:   map[int]types.Type{},
	}
	for _, decl := range module.Declarations {
		if d, ok := decl.(*ast.AliasDecl); ok {
			name := inf.symbolName(d.Name)
			if name != "" {
				inf.aliasTypes[name] = inf.resolveType(d.Type)
			}
		}
	}
	return inf.checkExpr(expr)
}
