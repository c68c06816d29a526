package recondition

import (
	"strconv"

	"codeberg.org/saruga/wgsl-fuzzgen/internal/ast"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/lexer"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/types"
)

const loopCountersName = "LOOP_COUNTERS"

// injectLoopLimiters walks every function body for loop/for/while
// statements and gives each one its own slot in a module-level
// LOOP_COUNTERS: array<u32, K> global, breaking once the slot reaches
// opts.LoopLimit. The check runs at the top of every iteration, so each
// loop runs at most opts.LoopLimit iterations per counter slot; a loop
// that would have finished on its own after more iterations than that
// is cut short as well.
// Enabled by config.Options.LoopLimit > 0, set from the repeatable
// `--enable loop-limiters` CLI flag.
func (r *Rewriter) injectLoopLimiters() {
	for _, decl := range r.module.Declarations {
		fn, ok := decl.(*ast.FunctionDecl)
		if !ok || fn.Body == nil {
			continue
		}
		r.limitStmt(fn.Body)
	}
	if r.loopSlots == 0 {
		return
	}
	r.declareLoopCounters()
}

func (r *Rewriter) limitStmt(s ast.Stmt) {
	switch x := s.(type) {
	case *ast.CompoundStmt:
		for _, st := range x.Stmts {
			r.limitStmt(st)
		}
	case *ast.IfStmt:
		r.limitStmt(x.Body)
		r.limitStmt(x.Else)
	case *ast.SwitchStmt:
		for _, c := range x.Cases {
			r.limitStmt(c.Body)
		}
	case *ast.ForStmt:
		r.limitStmt(x.Body)
		r.wrapLoopBody(x.Body)
	case *ast.WhileStmt:
		r.limitStmt(x.Body)
		r.wrapLoopBody(x.Body)
	case *ast.LoopStmt:
		r.limitStmt(x.Body)
		r.wrapLoopBody(x.Body)
	}
}

// wrapLoopBody prepends a limit-check-and-break followed by a
// counter increment to body, claiming the next free counter slot.
func (r *Rewriter) wrapLoopBody(body *ast.CompoundStmt) {
	slot := r.loopSlots
	r.loopSlots++

	ref := r.loopCounterRef()
	idx := litForScalar(types.ScalarU32, float64(slot))
	counterCell := func() *ast.IndexExpr {
		return &ast.IndexExpr{Base: &ast.IdentExpr{Name: loopCountersName, Ref: ref}, Index: idx}
	}

	limitCheck := &ast.IfStmt{
		Condition: &ast.BinaryExpr{
			Op:    ast.BinOpGe,
			Left:  counterCell(),
			Right: litForScalar(types.ScalarU32, float64(r.opts.LoopLimit)),
		},
		Body: &ast.CompoundStmt{Stmts: []ast.Stmt{&ast.BreakStmt{}}},
	}
	increment := &ast.AssignStmt{
		Op:    ast.AssignOpAdd,
		Left:  counterCell(),
		Right: litForScalar(types.ScalarU32, 1),
	}
	body.Stmts = append([]ast.Stmt{limitCheck, increment}, body.Stmts...)
}

func (r *Rewriter) loopCounterRef() ast.Ref {
	if !r.loopCountersDeclared {
		r.loopCountersRef = r.declare(loopCountersName, ast.SymbolVar)
		r.loopCountersDeclared = true
	}
	return r.loopCountersRef
}

func (r *Rewriter) declareLoopCounters() {
	// No initializer: private variables zero-initialize, which is
	// exactly the counter start value every slot needs.
	decl := &ast.VarDecl{
		Name:         r.loopCountersRef,
		AddressSpace: ast.AddressSpacePrivate,
		Type: &ast.ArrayType{
			ElemType: &ast.IdentType{Name: "u32", Ref: ast.InvalidRef()},
			Size:     &ast.LiteralExpr{Kind: lexer.TokIntLiteral, Value: strconv.Itoa(r.loopSlots)},
		},
	}
	r.module.Declarations = append([]ast.Decl{decl}, r.module.Declarations...)
}
