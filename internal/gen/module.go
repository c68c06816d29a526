package gen

import (
	"fmt"

	"codeberg.org/saruga/wgsl-fuzzgen/internal/ast"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/genscope"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/types"
)

// Module-shape constants. These are deliberately not config.Options
// fields: they size the module's top-level skeleton (struct/buffer/
// function count), a different knob from the per-body FnMinStmts/
// FnMaxStmts/MaxExpressionDepth shape Options already exposes.
const (
	minStructs   = 1
	maxStructs   = 3
	minBuffers   = 1
	maxBuffers   = 3
	minHelperFns = 1
	maxHelperFns = 4
)

// buildModule assembles struct decls, storage/uniform buffers, helper
// functions in dependency order, and a single compute entry point, in
// that order, so every name is declared before anything references it.
func (g *Generator) buildModule() (*ast.Module, error) {
	m := &ast.Module{}

	nStructs := minStructs + g.rng.Intn(maxStructs-minStructs+1)
	for i := 0; i < nStructs; i++ {
		m.Declarations = append(m.Declarations, g.genStruct(i))
	}

	nBuffers := minBuffers + g.rng.Intn(maxBuffers-minBuffers+1)
	var buffers []bufferInfo
	for i := 0; i < nBuffers; i++ {
		decl, info := g.genBuffer(i)
		m.Declarations = append(m.Declarations, decl)
		buffers = append(buffers, info)
	}

	nFns := minHelperFns + g.rng.Intn(maxHelperFns-minHelperFns+1)
	for i := 0; i < nFns; i++ {
		fn, info := g.genHelperFn()
		m.Declarations = append(m.Declarations, fn)
		g.helpers = append(g.helpers, info)
	}

	m.Declarations = append(m.Declarations, g.genEntryPoint(buffers))
	m.Symbols = g.symbols

	// genEntryPoint only ever appends one function carrying IsEntryPoint,
	// but confirm the invariant here rather than trusting it silently:
	// a future struct/buffer/helper-fn generator bug that flags the
	// wrong symbol should fail module assembly, not surface as a
	// mysterious reflection error downstream.
	if _, err := m.EntryPoint(); err != nil {
		return nil, fmt.Errorf("generated module violates entry point invariant: %w", err)
	}
	return m, nil
}

// genStruct emits one struct decl whose fields are drawn from the type
// selector, all host-shareable so the struct is safe to reuse later as
// a storage/uniform buffer's element type.
func (g *Generator) genStruct(index int) *ast.StructDecl {
	name := fmt.Sprintf("Struct_%d", index)
	ref := g.declare(name, ast.SymbolStruct)
	nFields := g.opts.MinStructMembers + g.rng.Intn(g.opts.MaxStructMembers-g.opts.MinStructMembers+1)

	st := &types.Struct{Name: name}
	decl := &ast.StructDecl{Name: ref}
	for i := 0; i < nFields; i++ {
		ft := g.typeSelector().Select(g.rng, genscope.HostShareable)
		if ft == nil {
			ft = types.I32
		}
		fieldName := fmt.Sprintf("field_%d", i)
		st.Fields = append(st.Fields, types.StructField{Name: fieldName, Type: ft})
		fieldRef := g.declare(fieldName, ast.SymbolMember)

		member := ast.StructMember{Name: fieldRef, Type: g.astType(ft)}
		if _, ok := ft.(*types.Struct); ok {
			member.Attributes = append(member.Attributes, ast.Attribute{Name: "align", Args: []ast.Expr{literalFor(types.U32, 16)}})
		}
		decl.Members = append(decl.Members, member)
	}

	g.ctx.RegisterStruct(st)
	g.structRefs[st] = ref
	return decl
}

// bufferInfo records enough about a generated global buffer for the
// entry point generator to pick a write target from.
type bufferInfo struct {
	ref     ast.Ref
	name    string
	typ     types.Type
	uniform bool
}

// genBuffer emits one `var<storage, read_write>` or `var<uniform>`
// global, host-shareable and @group/@binding-qualified.
func (g *Generator) genBuffer(index int) (*ast.VarDecl, bufferInfo) {
	name := fmt.Sprintf("buffer_%d", index)
	ref := g.declare(name, ast.SymbolVar)

	// buffer_0 is always storage so the entry point has a write
	// target; uniform buffers are read-only.
	isUniform := index > 0 && g.rng.Intn(3) == 0

	// A uniform buffer's type obeys the stricter Uniform filter (no
	// runtime-sized arrays, no atomics); storage only needs
	// host-shareability. Every candidate the TypeSelector currently
	// draws satisfies both, but the filter keeps that true if the
	// candidate pool ever grows runtime-sized arrays.
	filter := genscope.HostShareable
	if isUniform {
		filter = genscope.Uniform
	}
	t := g.typeSelector().Select(g.rng, filter)
	if t == nil {
		t = types.I32
	}

	space := ast.AddressSpaceStorage
	access := ast.AccessModeReadWrite
	if isUniform {
		space = ast.AddressSpaceUniform
		access = ast.AccessModeNone
	}

	decl := &ast.VarDecl{
		Name:         ref,
		AddressSpace: space,
		AccessMode:   access,
		Type:         g.astType(t),
		Attributes: []ast.Attribute{
			{Name: "group", Args: []ast.Expr{literalFor(types.I32, 0)}},
			{Name: "binding", Args: []ast.Expr{literalFor(types.I32, float64(index))}},
		},
	}
	return decl, bufferInfo{ref: ref, name: name, typ: t, uniform: isUniform}
}

// helperFn records a generated function's signature so later functions
// (and the entry point) can call it.
type helperFn struct {
	ref        ast.Ref
	name       string
	paramTypes []types.Type
	returnType types.Type
}

// genHelperFn emits one ordinary function whose body may call any
// previously generated helper (via g.helpers, not yet extended with
// this one), guaranteeing dependency order.
func (g *Generator) genHelperFn() (*ast.FunctionDecl, helperFn) {
	name := g.ctx.FreshFunctionName()
	ref := g.declare(name, ast.SymbolFunction)

	nParams := g.rng.Intn(3)
	scope := g.rootScope()
	info := helperFn{ref: ref, name: name}

	decl := &ast.FunctionDecl{Name: ref}
	for i := 0; i < nParams; i++ {
		pt := g.pickLocalType()
		pname := fmt.Sprintf("p_%d", i)
		pref := g.declare(pname, ast.SymbolParameter)
		decl.Parameters = append(decl.Parameters, ast.Parameter{Name: pref, Type: g.astType(pt)})
		scope = scope.Bind(genscope.Entry{Ref: pref, Name: pname, Type: pt, Mutable: false})
		info.paramTypes = append(info.paramTypes, pt)
	}

	retType := g.pickLocalType()
	info.returnType = retType
	decl.ReturnType = g.astType(retType)

	stmtCount := g.opts.FnMinStmts + g.rng.Intn(g.opts.FnMaxStmts-g.opts.FnMinStmts+1)
	decl.Body = g.GenBlockWithReturn(scope, stmtCount, retType)
	return decl, info
}

// genEntryPoint emits the module's single @compute entry function,
// whose body ends by writing to one of the storage buffers.
func (g *Generator) genEntryPoint(buffers []bufferInfo) *ast.FunctionDecl {
	name := "main"
	ref := g.declare(name, ast.SymbolFunction)
	g.symbols[ref.InnerIndex].Flags |= ast.IsEntryPoint | ast.MustNotBeRenamed

	decl := &ast.FunctionDecl{
		Name: ref,
		Attributes: []ast.Attribute{
			{Name: "compute"},
			{Name: "workgroup_size", Args: []ast.Expr{literalFor(types.I32, 1)}},
		},
	}

	scope := g.rootScope()
	var writable []bufferInfo
	for _, b := range buffers {
		if !b.uniform {
			writable = append(writable, b)
		}
	}
	target := writable[g.rng.Intn(len(writable))]

	stmtCount := g.opts.FnMinStmts + g.rng.Intn(g.opts.FnMaxStmts-g.opts.FnMinStmts+1)
	body := g.GenBlockWithReturn(scope, stmtCount, nil)
	rhs := g.GenExpr(scope, target.typ, g.exprDepth)
	body.Stmts = append(body.Stmts, &ast.AssignStmt{
		Op:    ast.AssignOpSimple,
		Left:  &ast.IdentExpr{Name: target.name, Ref: target.ref},
		Right: rhs,
	})
	decl.Body = body
	return decl
}
