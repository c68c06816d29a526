// Package api provides the public, programmatic surface of the fuzzing
// toolchain: generating a random WGSL module, reconditioning one to
// replace undefined-behavior-prone operations with safe wrapper calls,
// and reflecting its storage/uniform buffer layout. For CLI usage, see
// cmd/fuzzgen.
package api

import (
	"codeberg.org/saruga/wgsl-fuzzgen/internal/config"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/gen"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/parser"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/pipeline"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/recondition"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/reflect"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/writer"
)

// Options mirrors internal/config.Options with the knobs a caller of
// the programmatic API is expected to set directly.
type Options struct {
	FnMinStmts         int
	FnMaxStmts         int
	MinStructMembers   int
	MaxStructMembers   int
	MaxExpressionDepth int
	MaxBlockDepth      int
	Recondition        bool
	LoopLimit          int
	ConciseStageAttrs  bool
}

func (o Options) toInternal() config.Options {
	base := config.DefaultOptions()
	if o == (Options{}) {
		return base
	}
	return config.Options{
		FnMinStmts:         o.FnMinStmts,
		FnMaxStmts:         o.FnMaxStmts,
		MinStructMembers:   o.MinStructMembers,
		MaxStructMembers:   o.MaxStructMembers,
		MaxExpressionDepth: o.MaxExpressionDepth,
		MaxBlockDepth:      o.MaxBlockDepth,
		Recondition:        o.Recondition,
		LoopLimit:          o.LoopLimit,
		ConciseStageAttrs:  o.ConciseStageAttrs,
	}
}

// DefaultOptions returns the options a bare Generate call uses.
func DefaultOptions() Options {
	d := config.DefaultOptions()
	return Options{
		FnMinStmts:         d.FnMinStmts,
		FnMaxStmts:         d.FnMaxStmts,
		MinStructMembers:   d.MinStructMembers,
		MaxStructMembers:   d.MaxStructMembers,
		MaxExpressionDepth: d.MaxExpressionDepth,
		MaxBlockDepth:      d.MaxBlockDepth,
		Recondition:        d.Recondition,
		LoopLimit:          d.LoopLimit,
		ConciseStageAttrs:  d.ConciseStageAttrs,
	}
}

// GenerateResult is what Generate returns.
type GenerateResult struct {
	// Source is the generated (and, if requested, reconditioned) WGSL
	// module printed back to text.
	Source string

	// LoopCounters is the number of LOOP_COUNTERS slots the
	// loop-limiter pass allocated; zero unless Options.LoopLimit > 0
	// and Options.Recondition is set.
	LoopCounters int
}

// Generate builds a random, well-typed WGSL module from seed and opts.
// The same (seed, opts) pair always produces the same Source.
func Generate(seed uint64, opts Options) (GenerateResult, error) {
	internalOpts := opts.toInternal()
	module, err := gen.Generate(seed, internalOpts)
	if err != nil {
		return GenerateResult{}, err
	}

	loopCounters := 0
	if internalOpts.Recondition {
		result, err := recondition.Recondition(module, internalOpts)
		if err != nil {
			return GenerateResult{}, err
		}
		module = result.Module
		loopCounters = result.LoopCount
	}

	w := writer.New(module.Symbols)
	w.ConciseStageAttrs = internalOpts.ConciseStageAttrs
	return GenerateResult{Source: w.Print(module), LoopCounters: loopCounters}, nil
}

// ReconditionResult is what Recondition returns.
type ReconditionResult struct {
	// Source is the rewritten WGSL module printed back to text.
	Source string
	// LoopCounters is the number of LOOP_COUNTERS slots the
	// loop-limiter pass allocated; zero when disabled or unused.
	LoopCounters int
}

// Recondition parses source, rejects it if CheckAliasing finds a
// potential aliasing hazard, and otherwise rewrites every undefined-
// behavior-prone operation into a safe wrapper call.
func Recondition(source string, opts Options) (ReconditionResult, error) {
	p := parser.New(source)
	module, errs := p.Parse()
	if len(errs) > 0 {
		return ReconditionResult{}, &ParseError{Errors: errs}
	}

	internalOpts := opts.toInternal()
	result, err := recondition.Recondition(module, internalOpts)
	if err != nil {
		return ReconditionResult{}, err
	}

	w := writer.New(result.Module.Symbols)
	w.ConciseStageAttrs = internalOpts.ConciseStageAttrs
	return ReconditionResult{Source: w.Print(result.Module), LoopCounters: result.LoopCount}, nil
}

// Reflect parses source and derives its storage/uniform buffer
// pipeline description: one entry per @group/@binding storage or
// uniform buffer, sized by the module's type layout. Buffers with no
// fixed size (runtime-sized arrays) and handle bindings are omitted.
func Reflect(source string) (pipeline.Description, error) {
	p := parser.New(source)
	module, errs := p.Parse()
	if len(errs) > 0 {
		return pipeline.Description{}, &ParseError{Errors: errs}
	}
	return pipeline.Build(module)
}

// ReflectFull parses source and returns the full module introspection
// reflect.ReflectModule derives: every @group/@binding resource's
// address space and struct layout, plus every entry point's stage and
// workgroup size. Reflect returns only the fixed pipeline-description
// subset of this a harness needs to bind buffers; ReflectFull is for
// callers that want the richer picture (debugging a generated module,
// or driving a UI over its bindings).
func ReflectFull(source string) (reflect.ReflectResult, error) {
	p := parser.New(source)
	module, errs := p.Parse()
	if len(errs) > 0 {
		return reflect.ReflectResult{}, &ParseError{Errors: errs}
	}
	return reflect.ReflectModule(module), nil
}

// ParseError wraps the parser's error list so callers of the
// programmatic API get a single error value.
type ParseError struct {
	Errors []parser.ParseError
}

func (e *ParseError) Error() string {
	if len(e.Errors) == 0 {
		return "parse error"
	}
	msg := e.Errors[0].Message
	if len(e.Errors) > 1 {
		msg += " (and more)"
	}
	return msg
}
