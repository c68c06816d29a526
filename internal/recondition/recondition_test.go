package recondition_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"codeberg.org/saruga/wgsl-fuzzgen/internal/config"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/parser"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/recondition"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/writer"
)

// recondition reparses source, runs Recondition over it, and prints the
// rewritten module back to text, mirroring the `fuzzgen recondition`
// subcommand's parse -> rewrite -> write pipeline.
func runRecondition(t *testing.T, source string, opts config.Options) string {
	t.Helper()
	p := parser.New(source)
	module, errs := p.Parse()
	require.Empty(t, errs, "parse errors for %q", source)

	result, err := recondition.Recondition(module, opts)
	require.NoError(t, err)

	w := writer.New(result.Module.Symbols)
	return w.Print(result.Module)
}

// S1: signed division by a non-statically-safe divisor is wrapped in
// SAFE_DIV_I, with both the happy-path and INT_MIN/-1-guarded select.
func TestScenarioS1SignedDivisionWrapped(t *testing.T) {
	out := runRecondition(t, "fn f(a:i32,b:i32)->i32{return a/b;}", config.DefaultOptions())

	require.Contains(t, out, "SAFE_DIV_I")
	require.Contains(t, out, "fn f(")
	require.Contains(t, out, "SAFE_DIV_I(a, b)")
	require.Contains(t, out, "select(a / b, a / 2i, (a == -2147483648 && b == -1i) || b == 0i)")
}

// S2: division by a nonzero unsigned literal is already statically
// safe and must pass through unchanged.
func TestScenarioS2NonzeroLiteralDivisorUnchanged(t *testing.T) {
	out := runRecondition(t, "fn f(a:u32)->u32{return a/2u;}", config.DefaultOptions())

	require.NotContains(t, out, "SAFE_DIV_U")
	require.Contains(t, out, "a / 2u")
}

// S3: an inverted static clamp range has its bounds swapped in place.
func TestScenarioS3ClampBoundsSwapped(t *testing.T) {
	out := runRecondition(t, "fn f()->i32{return clamp(5,10,1);}", config.DefaultOptions())

	require.Contains(t, out, "clamp(5, 1, 10)")
}

// S4: extractBits with offset+count > 32 gets its count clamped to
// 32-offset.
func TestScenarioS4ExtractBitsCountClamped(t *testing.T) {
	out := runRecondition(t, "fn f(a:u32)->u32{return extractBits(a,10u,30u);}", config.DefaultOptions())

	require.Contains(t, out, "extractBits(a, 10u, min(30u, 32u - 10u))")
}

// Property 6 (semantic preservation): a division whose operands are
// both literal and provably nonzero never calls a wrapper, whatever
// its scalar type.
func TestLiteralOnlyDivisionsEmitNoWrapper(t *testing.T) {
	cases := []string{
		"fn f()->i32{return 10/5;}",
		"fn f()->u32{return 10u/5u;}",
		"fn f()->f32{return 10.0/5.0;}",
	}
	for _, src := range cases {
		out := runRecondition(t, src, config.DefaultOptions())
		require.False(t, strings.Contains(out, "SAFE_"), "unexpected wrapper for %q:\n%s", src, out)
	}
}

// Property 7 (defensiveness): a modulo whose divisor is not statically
// provable nonzero always calls SAFE_MOD_U.
func TestRuntimeModuloWrapped(t *testing.T) {
	out := runRecondition(t, "fn f(a:u32,b:u32)->u32{return a%b;}", config.DefaultOptions())
	require.Contains(t, out, "SAFE_MOD_U(a, b)")
}

// A statically in-range array index is left untouched.
func TestStaticallySafeArrayIndexUnchanged(t *testing.T) {
	out := runRecondition(t, "fn f()->i32{var a=array(1,2,3);return a[1];}", config.DefaultOptions())
	require.NotContains(t, out, "SAFE_IDX")
}

// A runtime index into a fixed-size array is wrapped against the
// array's static length.
func TestRuntimeArrayIndexWrapped(t *testing.T) {
	out := runRecondition(t, "fn f(i:u32)->i32{var a=array(1,2,3);return a[i];}", config.DefaultOptions())
	require.Contains(t, out, "SAFE_IDX_U")
}

// A float-vector dot is routed through its SAFE_DOT wrapper; integer
// dot wraps modularly and passes through untouched.
func TestFloatDotWrapped(t *testing.T) {
	out := runRecondition(t, "fn f(a:vec2<f32>,b:vec2<f32>)->f32{return dot(a,b);}", config.DefaultOptions())
	require.Contains(t, out, "fn SAFE_DOT_vec2_f32(")
	require.Contains(t, out, "SAFE_DOT_vec2_f32(a, b)")

	out = runRecondition(t, "fn f(a:vec2<i32>,b:vec2<i32>)->i32{return dot(a,b);}", config.DefaultOptions())
	require.NotContains(t, out, "SAFE_DOT")
}

// Wrapper deduplication: two division sites over the same operand
// type synthesize exactly one SAFE_DIV_I function.
func TestWrapperDeduplicatedAcrossCallSites(t *testing.T) {
	out := runRecondition(t, "fn f(a:i32,b:i32,c:i32,d:i32)->i32{return (a/b)+(c/d);}", config.DefaultOptions())
	require.Equal(t, 1, strings.Count(out, "fn SAFE_DIV_I"))
	// One declaration plus two call sites.
	require.Equal(t, 3, strings.Count(out, "SAFE_DIV_I("))
}

// Loop limiters: enabling the feature on a module with a loop injects
// a LOOP_COUNTERS global and reports a nonzero loop count.
func TestLoopLimiterInjectsCounterArray(t *testing.T) {
	opts := config.DefaultOptions()
	opts.LoopLimit = 1

	p := parser.New("fn f(){loop{break;}}")
	module, errs := p.Parse()
	require.Empty(t, errs)

	result, err := recondition.Recondition(module, opts)
	require.NoError(t, err)
	require.Equal(t, 1, result.LoopCount)

	w := writer.New(result.Module.Symbols)
	out := w.Print(result.Module)
	require.Contains(t, out, "LOOP_COUNTERS")
	require.Contains(t, out, "array<u32, 1>")
}

// Aliasing rejection: two address-of arguments into the same callee
// rooted at the same variable is rejected rather than rewritten.
func TestAliasingHazardRejected(t *testing.T) {
	p := parser.New("fn g(a:ptr<function,i32>,b:ptr<function,i32>){} fn f(){var x=1;g(&x,&x);}")
	module, errs := p.Parse()
	require.Empty(t, errs)

	_, err := recondition.Recondition(module, config.DefaultOptions())
	require.ErrorIs(t, err, recondition.ErrAliasingRejected)
}
