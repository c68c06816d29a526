// Package gen generates random, well-typed WGSL modules. A single PRNG
// stream walks a depth-bounded grammar of struct/global/function/
// statement/expression productions, threading internal/genscope.Scope and
// internal/genscope.Context so every identifier it emits is declared
// before use and every expression's inferred type matches the type it
// was asked to produce.
//
// The generator builds an *ast.Module directly rather than going
// through internal/parser: it owns the module's flat symbol table and
// allocates an ast.Ref for every name it declares, the same bookkeeping
// internal/parser's declareSymbolAt does during its first pass.
package gen

import (
	"math/rand"

	"codeberg.org/saruga/wgsl-fuzzgen/internal/ast"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/config"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/genscope"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/types"
)

// Generator holds everything threaded through one module build: the
// single PRNG stream,
// the run's Options, the process-wide Context (struct registry + name
// pools), and the flat symbol table the finished ast.Module publishes.
type Generator struct {
	rng  *rand.Rand
	opts config.Options
	ctx  *genscope.Context

	symbols    []ast.Symbol
	structRefs map[*types.Struct]ast.Ref

	// helpers lists every previously generated helper function, in
	// generation order, so later functions and the entry point can call
	// them. genHelperFn only ever sees the prefix generated before it,
	// which is what keeps call order acyclic.
	helpers []helperFn

	// exprDepth is the starting budget every GenExpr call receives; the
	// depthBudget argument GenExpr passes down shrinks as expressions
	// recurse. blockDepth is decremented by withBlockDepth around each
	// nested block. Both keep nesting bounded by a counter, never by host
	// stack depth (Design Notes: "this must be testable").
	exprDepth  int
	blockDepth int
}

// Generate runs one full module build for (seed, opts) and returns the
// resulting AST. Given the same seed and opts, Generate returns a
// byte-identical tree every time: the only source
// of randomness is rand.New(rand.NewSource(seed)), and every
// nondeterministic Go construct (map iteration order) is avoided in the
// productions below.
func Generate(seed uint64, opts config.Options) (*ast.Module, error) {
	g := &Generator{
		rng:        rand.New(rand.NewSource(int64(seed))),
		opts:       opts,
		ctx:        genscope.NewContext(),
		structRefs: make(map[*types.Struct]ast.Ref),
		exprDepth:  opts.MaxExpressionDepth,
		blockDepth: opts.MaxBlockDepth,
	}
	return g.buildModule()
}

// declare appends a fresh symbol and returns the ast.Ref every later
// node refers to it by, mirroring internal/parser's declareSymbolAt.
func (g *Generator) declare(name string, kind ast.SymbolKind) ast.Ref {
	ref := ast.Ref{InnerIndex: uint32(len(g.symbols))}
	g.symbols = append(g.symbols, ast.Symbol{
		OriginalName: name,
		Kind:         kind,
	})
	return ref
}

// rootScope returns an empty genscope.Scope to start a new function or
// entry-point body from.
func (g *Generator) rootScope() *genscope.Scope {
	return genscope.New()
}

// typeSelector builds a fresh weighted type table from the struct
// registry as it stands right now. Rebuilt per call (rather than cached
// once) because buildModule registers new structs as it goes, and later
// declarations should be able to pick earlier ones as field/local types.
func (g *Generator) typeSelector() *genscope.TypeSelector {
	return genscope.NewTypeSelector(g.ctx)
}

// astType converts a resolved semantic types.Type into the syntax-level
// ast.Type a declaration node carries, recording struct names through
// structRefs so a later reference to the same *types.Struct reuses the
// identifier the struct was declared under.
func (g *Generator) astType(t types.Type) ast.Type {
	switch tt := t.(type) {
	case *types.Scalar:
		return &ast.IdentType{Name: tt.String(), Ref: ast.InvalidRef()}
	case *types.Vector:
		return &ast.VecType{Size: uint8(tt.Width), ElemType: g.astType(tt.Element)}
	case *types.Matrix:
		return &ast.MatType{Cols: uint8(tt.Cols), Rows: uint8(tt.Rows), ElemType: g.astType(tt.Element)}
	case *types.Array:
		at := &ast.ArrayType{ElemType: g.astType(tt.Element)}
		if tt.Count > 0 {
			at.Size = g.intLiteral32(tt.Count, types.U32)
		}
		return at
	case *types.Struct:
		if ref, ok := g.structRefs[tt]; ok {
			return &ast.IdentType{Name: tt.Name, Ref: ref}
		}
		return &ast.IdentType{Name: tt.Name, Ref: ast.InvalidRef()}
	case *types.Pointer:
		return &ast.PtrType{AddressSpace: astAddressSpace(tt.AddressSpace), ElemType: g.astType(tt.Element), AccessMode: astAccessMode(tt.AccessMode)}
	case *types.Reference:
		// References have no surface syntax of their own in WGSL; the
		// parser only ever produces one by dereferencing a pointer
		// parameter, so the declared type a reference is backed by is
		// always the pointee's plain type.
		return g.astType(tt.Element)
	default:
		return &ast.IdentType{Name: t.String(), Ref: ast.InvalidRef()}
	}
}

func astAddressSpace(a types.AddressSpace) ast.AddressSpace {
	switch a {
	case types.AddressSpaceFunction:
		return ast.AddressSpaceFunction
	case types.AddressSpacePrivate:
		return ast.AddressSpacePrivate
	case types.AddressSpaceWorkgroup:
		return ast.AddressSpaceWorkgroup
	case types.AddressSpaceUniform:
		return ast.AddressSpaceUniform
	case types.AddressSpaceStorage:
		return ast.AddressSpaceStorage
	default:
		return ast.AddressSpaceNone
	}
}

func astAccessMode(a types.AccessMode) ast.AccessMode {
	switch a {
	case types.AccessModeRead:
		return ast.AccessModeRead
	case types.AccessModeWrite:
		return ast.AccessModeWrite
	case types.AccessModeReadWrite:
		return ast.AccessModeReadWrite
	default:
		return ast.AccessModeNone
	}
}

// intLiteral32 builds a literal expression node for a non-negative
// constant of the given scalar type, suffixed so typeinfer resolves it
// to exactly that concrete type rather than an abstract one.
func (g *Generator) intLiteral32(v int, scalar *types.Scalar) ast.Expr {
	return literalFor(scalar, float64(v))
}
