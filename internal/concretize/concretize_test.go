package concretize_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"codeberg.org/saruga/wgsl-fuzzgen/internal/ast"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/concretize"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/parser"
)

// evalExpr parses a single const declaration's initializer and folds it,
// the simplest way to hand concretize.Eval a real parsed ast.Expr without
// hand-building AST nodes for every case.
func evalExpr(t *testing.T, expr string) (concretize.Value, bool) {
	t.Helper()
	p := parser.New("const x = " + expr + ";")
	module, errs := p.Parse()
	require.Empty(t, errs, "parse error for %q", expr)
	require.Len(t, module.Declarations, 1)
	decl, ok := module.Declarations[0].(*ast.ConstDecl)
	require.True(t, ok)
	return concretize.Eval(decl.Initializer)
}

func TestEvalLiterals(t *testing.T) {
	v, ok := evalExpr(t, "42i")
	require.True(t, ok)
	require.Equal(t, int32(42), v.I)

	v, ok = evalExpr(t, "7u")
	require.True(t, ok)
	require.Equal(t, uint32(7), v.U)

	v, ok = evalExpr(t, "true")
	require.True(t, ok)
	require.True(t, v.B)
}

func TestEvalArithmetic(t *testing.T) {
	v, ok := evalExpr(t, "10i/5i")
	require.True(t, ok)
	require.Equal(t, int32(2), v.I)

	v, ok = evalExpr(t, "2i+3i*4i")
	require.True(t, ok)
	require.Equal(t, int32(14), v.I)
}

// Division/modulo by a static zero must fold to unknown, not a value,
// so the reconditioner still wraps it.
func TestEvalDivisionByZeroIsUnknown(t *testing.T) {
	_, ok := evalExpr(t, "10i/0i")
	require.False(t, ok)

	_, ok = evalExpr(t, "10u%0u")
	require.False(t, ok)
}

func TestEvalUnresolvedIdentifierIsUnknown(t *testing.T) {
	p := parser.New("fn f(a:i32)->i32{return a+1i;}")
	module, errs := p.Parse()
	require.Empty(t, errs)
	fn := module.Declarations[0].(*ast.FunctionDecl)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	_, ok := concretize.Eval(ret.Value)
	require.False(t, ok)
}

func TestIsZero(t *testing.T) {
	v, ok := evalExpr(t, "0i")
	require.True(t, ok)
	require.True(t, concretize.IsZero(v))

	v, ok = evalExpr(t, "1i")
	require.True(t, ok)
	require.False(t, concretize.IsZero(v))
}

func TestIsInvalidClampBounds(t *testing.T) {
	low, ok := evalExpr(t, "10i")
	require.True(t, ok)
	high, ok := evalExpr(t, "1i")
	require.True(t, ok)
	require.True(t, concretize.IsInvalidClampBounds(low, high))

	low, ok = evalExpr(t, "1i")
	require.True(t, ok)
	high, ok = evalExpr(t, "10i")
	require.True(t, ok)
	require.False(t, concretize.IsInvalidClampBounds(low, high))
}

func TestIsInvalidBitsCall(t *testing.T) {
	offset, ok := evalExpr(t, "10u")
	require.True(t, ok)
	count, ok := evalExpr(t, "30u")
	require.True(t, ok)
	require.True(t, concretize.IsInvalidBitsCall(offset, count))

	offset, ok = evalExpr(t, "10u")
	require.True(t, ok)
	count, ok = evalExpr(t, "20u")
	require.True(t, ok)
	require.False(t, concretize.IsInvalidBitsCall(offset, count))
}

func TestIsMinAndNegOne(t *testing.T) {
	a, ok := evalExpr(t, "-2147483648i")
	require.True(t, ok)
	b, ok := evalExpr(t, "-1i")
	require.True(t, ok)
	require.True(t, concretize.IsMinAndNegOne(a, b))

	a, ok = evalExpr(t, "5i")
	require.True(t, ok)
	require.False(t, concretize.IsMinAndNegOne(a, b))
}
