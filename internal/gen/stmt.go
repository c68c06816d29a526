package gen

import (
	"codeberg.org/saruga/wgsl-fuzzgen/internal/ast"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/genscope"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/types"
)

// stmtKind identifies one of the statement productions GenStmt can pick
// from.
type stmtKind int

const (
	stmtLetDecl stmtKind = iota
	stmtVarDecl
	stmtAssign
	stmtIf
	stmtLoop
	stmtFor
	stmtSwitch
	stmtCall
)

// GenBlockWithReturn produces count statements in scope, appending a
// final Return of targetReturn when targetReturn is non-nil. Each
// statement that introduces a binding (let/var) returns a scope
// extended with that binding for the statements that follow it — the
// persistent-scope threading the whole generator relies on.
func (g *Generator) GenBlockWithReturn(scope *genscope.Scope, count int, targetReturn types.Type) *ast.CompoundStmt {
	block := &ast.CompoundStmt{}
	terminated := false

	for i := 0; i < count && !terminated; i++ {
		stmt, nextScope := g.genStmt(scope)
		scope = nextScope
		block.Stmts = append(block.Stmts, stmt)
		terminated = isTerminalStmt(stmt)
	}

	if targetReturn != nil && !terminated {
		block.Stmts = append(block.Stmts, &ast.ReturnStmt{Value: g.GenExpr(scope, targetReturn, g.exprDepth)})
	}
	return block
}

// isTerminalStmt reports whether stmt unconditionally transfers control
// out of the current block, so dead statements after it are suppressed.
func isTerminalStmt(stmt ast.Stmt) bool {
	switch stmt.(type) {
	case *ast.ReturnStmt, *ast.BreakStmt, *ast.ContinueStmt, *ast.DiscardStmt:
		return true
	default:
		return false
	}
}

// genStmt picks one statement production and returns it along with the
// scope visible to the statements that follow (unchanged unless this
// statement declared a new binding).
func (g *Generator) genStmt(scope *genscope.Scope) (ast.Stmt, *genscope.Scope) {
	choices := []stmtKind{stmtLetDecl, stmtVarDecl, stmtCall}
	if len(scope.Mutables()) > 0 {
		choices = append(choices, stmtAssign)
	}
	if g.blockDepth > 0 {
		choices = append(choices, stmtIf, stmtLoop, stmtFor, stmtSwitch)
	}

	switch choices[g.rng.Intn(len(choices))] {
	case stmtLetDecl:
		return g.genLetDecl(scope)
	case stmtVarDecl:
		return g.genVarDecl(scope)
	case stmtAssign:
		return g.genAssign(scope), scope
	case stmtIf:
		return g.genIf(scope), scope
	case stmtLoop:
		return g.genLoop(scope), scope
	case stmtFor:
		return g.genFor(scope), scope
	case stmtSwitch:
		return g.genSwitch(scope), scope
	default:
		return g.genCallStmt(scope), scope
	}
}

func (g *Generator) pickLocalType() types.Type {
	return g.typeSelector().Select(g.rng, genscope.Any)
}

// genLetDecl introduces an immutable `let` binding of a freshly chosen
// local type.
func (g *Generator) genLetDecl(scope *genscope.Scope) (ast.Stmt, *genscope.Scope) {
	t := g.pickLocalType()
	name := scope.FreshName()
	ref := g.declare(name, ast.SymbolLet)
	init := g.GenExpr(scope, t, g.exprDepth)
	decl := &ast.LetDecl{Name: ref, Initializer: init}
	next := scope.Bind(genscope.Entry{Ref: ref, Name: name, Type: t, Mutable: false})
	return &ast.DeclStmt{Decl: decl}, next
}

// genVarDecl introduces a mutable `var` binding, registering it in
// scope.mutables so later assignment statements can pick it as an
// lvalue.
func (g *Generator) genVarDecl(scope *genscope.Scope) (ast.Stmt, *genscope.Scope) {
	t := g.pickLocalType()
	name := scope.FreshName()
	ref := g.declare(name, ast.SymbolVar)
	init := g.GenExpr(scope, t, g.exprDepth)
	decl := &ast.VarDecl{Name: ref, Initializer: init}
	next := scope.Bind(genscope.Entry{Ref: ref, Name: name, Type: t, Mutable: true})
	return &ast.DeclStmt{Decl: decl}, next
}

// genAssign assigns to an existing mutable binding, always picked from
// scope.Mutables() so every lvalue generated was declared with `var`.
func (g *Generator) genAssign(scope *genscope.Scope) ast.Stmt {
	mutables := scope.Mutables()
	m := mutables[g.rng.Intn(len(mutables))]
	rhs := g.GenExpr(scope, m.Type, g.exprDepth)
	return &ast.AssignStmt{Op: ast.AssignOpSimple, Left: &ast.IdentExpr{Name: m.Name, Ref: m.Ref}, Right: rhs}
}

func (g *Generator) genCallStmt(scope *genscope.Scope) ast.Stmt {
	name := scope.FreshName()
	ref := g.declare(name, ast.SymbolLet)
	call := g.genFnCall(scope, types.I32, g.exprDepth)
	// A call used purely for its (possible) side effects must still be
	// a statement, not an expression; wrap it as an unused let so the
	// body stays syntactically valid whether genFnCall picked a builtin
	// or an earlier helper function.
	return &ast.DeclStmt{Decl: &ast.LetDecl{Name: ref, Initializer: call}}
}

func (g *Generator) withBlockDepth(f func() *ast.CompoundStmt) *ast.CompoundStmt {
	g.blockDepth--
	defer func() { g.blockDepth++ }()
	return f()
}

func (g *Generator) genIf(scope *genscope.Scope) ast.Stmt {
	cond := g.GenExpr(scope, types.Bool, g.exprDepth)
	stmt := &ast.IfStmt{Condition: cond}
	stmt.Body = g.withBlockDepth(func() *ast.CompoundStmt {
		return g.GenBlockWithReturn(scope.Clone(), g.stmtCountForBlock(), nil)
	})
	if g.rng.Intn(2) == 0 {
		stmt.Else = g.withBlockDepth(func() *ast.CompoundStmt {
			return g.GenBlockWithReturn(scope.Clone(), g.stmtCountForBlock(), nil)
		})
	}
	return stmt
}

// genLoop generates `loop { ... if (cond) { break; } ... }`: every loop
// the generator emits carries exactly one static break path,
// guaranteeing syntactic termination even before the
// reconditioner's loop limiters run.
func (g *Generator) genLoop(scope *genscope.Scope) ast.Stmt {
	body := g.withBlockDepth(func() *ast.CompoundStmt {
		inner := scope.Clone()
		block := g.GenBlockWithReturn(inner, g.stmtCountForBlock(), nil)
		breakStmt := &ast.IfStmt{
			Condition: g.GenExpr(inner, types.Bool, g.exprDepth),
			Body:      &ast.CompoundStmt{Stmts: []ast.Stmt{&ast.BreakStmt{}}},
		}
		block.Stmts = append(block.Stmts, breakStmt)
		return block
	})
	return &ast.LoopStmt{Body: body}
}

// genFor generates a counted `for` loop over a fresh i32 induction
// variable, bounded by a small literal so the loop terminates on its
// own even without the reconditioner's counters.
func (g *Generator) genFor(scope *genscope.Scope) ast.Stmt {
	name := scope.FreshName()
	ref := g.declare(name, ast.SymbolVar)
	bound := 4 + g.rng.Intn(8)

	init := &ast.DeclStmt{Decl: &ast.VarDecl{Name: ref, Initializer: literalFor(types.I32, 0)}}
	cond := &ast.BinaryExpr{Op: ast.BinOpLt, Left: &ast.IdentExpr{Name: name, Ref: ref}, Right: literalFor(types.I32, float64(bound))}
	update := &ast.IncrDecrStmt{Expr: &ast.IdentExpr{Name: name, Ref: ref}, Increment: true}

	// Bound as non-Mutable although it is a var, so genAssign never picks
	// it as an lvalue and only the update statement moves it toward bound.
	inner := scope.Bind(genscope.Entry{Ref: ref, Name: name, Type: types.I32, Mutable: false})
	body := g.withBlockDepth(func() *ast.CompoundStmt {
		return g.GenBlockWithReturn(inner.Clone(), g.stmtCountForBlock(), nil)
	})
	return &ast.ForStmt{Init: init, Condition: cond, Update: update, Body: body}
}

// genSwitch generates a switch over a small i32 selector with 2-3 case
// arms; the last arm before the end of the case list never carries a
// Fallthrough statement (fallthrough discipline: only non-final cases
// may fall through, and this generator chooses not to emit any, so
// every case is self-contained).
func (g *Generator) genSwitch(scope *genscope.Scope) ast.Stmt {
	selector := g.GenExpr(scope, types.I32, g.exprDepth)
	n := 2 + g.rng.Intn(2)
	stmt := &ast.SwitchStmt{Expr: selector}
	for i := 0; i < n; i++ {
		body := g.withBlockDepth(func() *ast.CompoundStmt {
			return g.GenBlockWithReturn(scope.Clone(), g.stmtCountForBlock(), nil)
		})
		stmt.Cases = append(stmt.Cases, ast.SwitchCase{
			Selectors: []ast.Expr{literalFor(types.I32, float64(i))},
			Body:      body,
		})
	}
	stmt.Cases = append(stmt.Cases, ast.SwitchCase{Body: g.withBlockDepth(func() *ast.CompoundStmt {
		return g.GenBlockWithReturn(scope.Clone(), g.stmtCountForBlock(), nil)
	})})
	return stmt
}

// stmtCountForBlock picks a small nested-block statement count,
// independent of the function-level Options.FnMinStmts/FnMaxStmts range
// so nested blocks stay short even when a function body is long.
func (g *Generator) stmtCountForBlock() int {
	return 1 + g.rng.Intn(3)
}
