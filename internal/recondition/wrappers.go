package recondition

import (
	"fmt"
	"math"
	"strings"

	"codeberg.org/saruga/wgsl-fuzzgen/internal/ast"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/lexer"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/types"
)

// wrapperKind identifies which safe operation a wrapper function
// implements.
type wrapperKind int

const (
	wrapSafeDivI wrapperKind = iota
	wrapSafeDivU
	wrapSafeModI
	wrapSafeModU
	wrapSafeIdxI
	wrapSafeIdxU
	wrapSafeFDiv
	wrapSafeDot
)

func (k wrapperKind) baseName() string {
	switch k {
	case wrapSafeDivI:
		return "SAFE_DIV_I"
	case wrapSafeDivU:
		return "SAFE_DIV_U"
	case wrapSafeModI:
		return "SAFE_MOD_I"
	case wrapSafeModU:
		return "SAFE_MOD_U"
	case wrapSafeIdxI:
		return "SAFE_IDX_I"
	case wrapSafeIdxU:
		return "SAFE_IDX_U"
	case wrapSafeFDiv:
		return "SAFE_FDIV"
	case wrapSafeDot:
		return "SAFE_DOT"
	default:
		return "SAFE_UNKNOWN"
	}
}

// wrapperKey dedups wrapper synthesis: the same (kind, operand type)
// pair always resolves to the same already-declared function, the way
// the reconditioner must emit exactly one SAFE_DIV_I per distinct
// operand shape no matter how many division sites need it.
type wrapperKey struct {
	kind    wrapperKind
	typeKey string
}

// getWrapper returns the Ref of the wrapper function for (kind, operand),
// synthesizing and registering its FunctionDecl the first time this
// (kind, operand) pair is requested.
func (r *Rewriter) getWrapper(kind wrapperKind, operand types.Type) ast.Ref {
	if elem, _ := elementShape(operand); elem == nil {
		panic(&UnsupportedTypeError{Type: operand.String()})
	}
	key := wrapperKey{kind: kind, typeKey: operand.String()}
	if ref, ok := r.wrappers[key]; ok {
		return ref
	}
	// The base name already pins down the element kind (DIV_I vs DIV_U
	// vs FDIV) for the canonical 32-bit scalars, so those need no extra
	// qualifier; vectors and f16 append their shape to keep one wrapper
	// name per operand type.
	name := kind.baseName()
	if s, ok := operand.(*types.Scalar); !ok || s.Kind == types.ScalarF16 {
		name = fmt.Sprintf("%s_%s", name, typeSuffix(operand))
	}
	ref := r.declare(name, ast.SymbolFunction)
	r.wrappers[key] = ref
	// Record the wrapper's result type so InferExprType can type an
	// enclosing expression that now has this call as an operand.
	var ret types.Type = operand
	if kind == wrapSafeDot {
		elem, _ := elementShape(operand)
		ret = elem
	}
	r.info.SymbolTypes[ref] = &types.Function{ReturnType: ret}
	decl := r.buildWrapper(kind, operand, ref, name)
	r.wrapperDecls = append(r.wrapperDecls, decl)
	return ref
}

func typeSuffix(t types.Type) string {
	s := t.String()
	s = strings.ReplaceAll(s, "<", "_")
	s = strings.ReplaceAll(s, ">", "")
	return s
}

func elementShape(t types.Type) (*types.Scalar, int) {
	switch tt := t.(type) {
	case *types.Scalar:
		return tt, 0
	case *types.Vector:
		return tt.Element, tt.Width
	default:
		return nil, 0
	}
}

func astTypeOf(t types.Type) ast.Type {
	switch tt := t.(type) {
	case *types.Vector:
		return &ast.VecType{Size: uint8(tt.Width), ElemType: astTypeOf(tt.Element)}
	default:
		return &ast.IdentType{Name: t.String(), Ref: ast.InvalidRef()}
	}
}

func litForScalar(kind types.ScalarKind, v float64) ast.Expr {
	neg := v < 0
	mag := math.Abs(v)
	var lit *ast.LiteralExpr
	switch kind {
	case types.ScalarI32:
		if int64(mag) > math.MaxInt32 {
			// 2147483648i would overflow i32 before the enclosing
			// negation applies; the unsuffixed abstract-int form is the
			// only way to spell i32::MIN as a literal.
			lit = &ast.LiteralExpr{Kind: lexer.TokIntLiteral, Value: fmt.Sprintf("%d", int64(mag))}
		} else {
			lit = &ast.LiteralExpr{Kind: lexer.TokIntLiteral, Value: fmt.Sprintf("%di", int64(mag))}
		}
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

// wrapConst builds a safe replacement constant of operand's shape: a
// bare scalar literal for a scalar operand, or a type-constructor call
// broadcasting the same literal across every component for a vector
// operand (vecN<T>(v) broadcasts its single argument, the same
// shorthand internal/gen's genLiteral relies on).
func wrapConst(operand types.Type, elem *types.Scalar, width int, v float64) ast.Expr {
	lit := litForScalar(elem.Kind, v)
	if width == 0 {
		return lit
	}
	return &ast.CallExpr{TemplateType: astTypeOf(operand), Args: []ast.Expr{lit}}
}

func callBuiltin(name string, args ...ast.Expr) ast.Expr {
	return &ast.CallExpr{Func: &ast.IdentExpr{Name: name, Ref: ast.InvalidRef()}, Args: args}
}

func selectCall(happy, safe, cond ast.Expr) ast.Expr {
	return callBuiltin("select", happy, safe, cond)
}

// componentwiseCond folds a per-lane boolean condition across a
// vector's components with logical-or: any unsafe lane taints the
// whole select, so the wrapper's single scalar condition can drive a
// select over the full vector. width == 0 means a and b are scalars;
// f is called once directly.
func componentwiseCond(width int, a, b ast.Expr, f func(ae, be ast.Expr) ast.Expr) ast.Expr {
	if width == 0 {
		return f(a, b)
	}
	var acc ast.Expr
	for i := 0; i < width; i++ {
		idx := litForScalar(types.ScalarU32, float64(i))
		ae := &ast.IndexExpr{Base: a, Index: idx}
		be := &ast.IndexExpr{Base: b, Index: idx}
		c := f(ae, be)
		if acc == nil {
			acc = c
			continue
		}
		acc = &ast.BinaryExpr{Op: ast.BinOpLogicalOr, Left: acc, Right: c}
	}
	return acc
}

// buildWrapper synthesizes the FunctionDecl for one (kind, operand)
// pair. Every wrapper but SAFE_IDX_U and SAFE_DOT has the shape
// `return select(happy_path, safe_result, condition);`.
func (r *Rewriter) buildWrapper(kind wrapperKind, operand types.Type, self ast.Ref, name string) *ast.FunctionDecl {
	elem, width := elementShape(operand)
	astOperand := astTypeOf(operand)

	decl := &ast.FunctionDecl{Name: self, ReturnType: astOperand}

	switch kind {
	case wrapSafeDot:
		aRef := r.declare("a", ast.SymbolParameter)
		bRef := r.declare("b", ast.SymbolParameter)
		aIdent := &ast.IdentExpr{Name: "a", Ref: aRef}
		bIdent := &ast.IdentExpr{Name: "b", Ref: bRef}
		decl.Parameters = []ast.Parameter{{Name: aRef, Type: astOperand}, {Name: bRef, Type: astOperand}}
		decl.ReturnType = astTypeOf(elem)
		// TODO: concretize dot products so statically finite ones
		// skip this wrapper.
		decl.Body = &ast.CompoundStmt{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: callBuiltin("dot", aIdent, bIdent)},
		}}
		return decl

	case wrapSafeIdxI, wrapSafeIdxU:
		idxRef := r.declare("index", ast.SymbolParameter)
		sizeRef := r.declare("size", ast.SymbolParameter)
		idxIdent := &ast.IdentExpr{Name: "index", Ref: idxRef}
		sizeIdent := &ast.IdentExpr{Name: "size", Ref: sizeRef}
		decl.Parameters = []ast.Parameter{{Name: idxRef, Type: astOperand}, {Name: sizeRef, Type: astOperand}}

		if kind == wrapSafeIdxU {
			// The unsigned wrapper has no unsafe input at all:
			// index % size is always in range.
			decl.Body = &ast.CompoundStmt{Stmts: []ast.Stmt{
				&ast.ReturnStmt{Value: &ast.BinaryExpr{Op: ast.BinOpMod, Left: idxIdent, Right: sizeIdent}},
			}}
			return decl
		}

		cond := &ast.BinaryExpr{Op: ast.BinOpEq, Left: idxIdent, Right: litForScalar(elem.Kind, math.MinInt32)}
		happy := &ast.BinaryExpr{Op: ast.BinOpMod, Left: callBuiltin("abs", idxIdent), Right: sizeIdent}
		safe := litForScalar(elem.Kind, 0)
		decl.Body = &ast.CompoundStmt{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: selectCall(happy, safe, cond)},
		}}
		return decl

	case wrapSafeFDiv:
		aRef := r.declare("a", ast.SymbolParameter)
		bRef := r.declare("b", ast.SymbolParameter)
		aIdent := &ast.IdentExpr{Name: "a", Ref: aRef}
		bIdent := &ast.IdentExpr{Name: "b", Ref: bRef}
		decl.Parameters = []ast.Parameter{{Name: aRef, Type: astOperand}, {Name: bRef, Type: astOperand}}

		happy := &ast.BinaryExpr{Op: ast.BinOpDiv, Left: aIdent, Right: bIdent}
		absDiv := callBuiltin("abs", &ast.BinaryExpr{Op: ast.BinOpDiv, Left: aIdent, Right: bIdent})
		absA := callBuiltin("abs", aIdent)
		var cond ast.Expr = &ast.BinaryExpr{Op: ast.BinOpGt, Left: absDiv, Right: absA}
		if width > 0 {
			cond = callBuiltin("any", cond)
		}
		safe := wrapConst(operand, elem, width, 42.0)
		decl.Body = &ast.CompoundStmt{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: selectCall(happy, safe, cond)},
		}}
		return decl

	default: // wrapSafeDivI, wrapSafeDivU, wrapSafeModI, wrapSafeModU
		aRef := r.declare("a", ast.SymbolParameter)
		bRef := r.declare("b", ast.SymbolParameter)
		aIdent := &ast.IdentExpr{Name: "a", Ref: aRef}
		bIdent := &ast.IdentExpr{Name: "b", Ref: bRef}
		decl.Parameters = []ast.Parameter{{Name: aRef, Type: astOperand}, {Name: bRef, Type: astOperand}}

		var cond, happy, safe ast.Expr
		switch kind {
		case wrapSafeDivI:
			cond = componentwiseCond(width, aIdent, bIdent, func(ae, be ast.Expr) ast.Expr {
				// WGSL forbids mixing && and || without parentheses, so
				// the overflow conjunct carries an explicit ParenExpr.
				minCheck := &ast.ParenExpr{Expr: &ast.BinaryExpr{Op: ast.BinOpLogicalAnd,
					Left:  &ast.BinaryExpr{Op: ast.BinOpEq, Left: ae, Right: litForScalar(elem.Kind, math.MinInt32)},
					Right: &ast.BinaryExpr{Op: ast.BinOpEq, Left: be, Right: litForScalar(elem.Kind, -1)},
				}}
				zeroCheck := &ast.BinaryExpr{Op: ast.BinOpEq, Left: be, Right: litForScalar(elem.Kind, 0)}
				return &ast.BinaryExpr{Op: ast.BinOpLogicalOr, Left: minCheck, Right: zeroCheck}
			})
			happy = &ast.BinaryExpr{Op: ast.BinOpDiv, Left: aIdent, Right: bIdent}
			safe = &ast.BinaryExpr{Op: ast.BinOpDiv, Left: aIdent, Right: wrapConst(operand, elem, width, 2)}
		case wrapSafeDivU:
			cond = componentwiseCond(width, aIdent, bIdent, func(_, be ast.Expr) ast.Expr {
				return &ast.BinaryExpr{Op: ast.BinOpEq, Left: be, Right: litForScalar(elem.Kind, 0)}
			})
			happy = &ast.BinaryExpr{Op: ast.BinOpDiv, Left: aIdent, Right: bIdent}
			safe = &ast.BinaryExpr{Op: ast.BinOpDiv, Left: aIdent, Right: wrapConst(operand, elem, width, 2)}
		case wrapSafeModI:
			cond = componentwiseCond(width, aIdent, bIdent, func(ae, be ast.Expr) ast.Expr {
				negA := &ast.BinaryExpr{Op: ast.BinOpLt, Left: ae, Right: litForScalar(elem.Kind, 0)}
				negB := &ast.BinaryExpr{Op: ast.BinOpLt, Left: be, Right: litForScalar(elem.Kind, 0)}
				return &ast.BinaryExpr{Op: ast.BinOpLogicalOr, Left: negA, Right: negB}
			})
			happy = &ast.BinaryExpr{Op: ast.BinOpMod, Left: aIdent, Right: bIdent}
			safe = aIdent
		case wrapSafeModU:
			cond = componentwiseCond(width, aIdent, bIdent, func(_, be ast.Expr) ast.Expr {
				return &ast.BinaryExpr{Op: ast.BinOpEq, Left: be, Right: litForScalar(elem.Kind, 0)}
			})
			happy = &ast.BinaryExpr{Op: ast.BinOpMod, Left: aIdent, Right: bIdent}
			safe = aIdent
		}
		decl.Body = &ast.CompoundStmt{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: selectCall(happy, safe, cond)},
		}}
		return decl
	}
}
