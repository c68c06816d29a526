package recondition

import "codeberg.org/saruga/wgsl-fuzzgen/internal/ast"

// CheckAliasing looks for function calls that pass two or more
// address-of arguments rooted at the same variable — two mutable
// references that would be simultaneously live inside the same callee
// and observably alias each other, which WGSL's pointer aliasing rules
// forbid. "Derived from the same root" is read literally: two `&expr`
// arguments of one call whose innermost identifier is the same symbol.
// No repair is attempted; a flagged module is rejected outright.
//
// The module's generator never produces pointer parameters or
// address-of expressions itself (internal/gen has no Pointer-typed
// production), so this only ever fires on hand-authored or externally
// generated input handed to the `recondition` subcommand.
func CheckAliasing(module *ast.Module) error {
	for _, decl := range module.Declarations {
		fn, ok := decl.(*ast.FunctionDecl)
		if !ok || fn.Body == nil {
			continue
		}
		if stmtHasAliasingCall(fn.Body) {
			return ErrAliasingRejected
		}
	}
	return nil
}

func stmtHasAliasingCall(s ast.Stmt) bool {
	found := false
	var walkStmt func(ast.Stmt)
	var walkExpr func(ast.Expr)

	walkExpr = func(e ast.Expr) {
		if e == nil || found {
			return
		}
		switch x := e.(type) {
		case *ast.CallExpr:
			roots := map[ast.Ref]int{}
			for _, a := range x.Args {
				if addr, ok := a.(*ast.UnaryExpr); ok && addr.Op == ast.UnaryOpAddr {
					if root, ok := rootRef(addr.Operand); ok {
						roots[root]++
						if roots[root] > 1 {
							found = true
						}
					}
				}
				walkExpr(a)
			}
		case *ast.BinaryExpr:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *ast.UnaryExpr:
			walkExpr(x.Operand)
		case *ast.ParenExpr:
			walkExpr(x.Expr)
		case *ast.IndexExpr:
			walkExpr(x.Base)
			walkExpr(x.Index)
		case *ast.MemberExpr:
			walkExpr(x.Base)
		}
	}

	walkStmt = func(s ast.Stmt) {
		if s == nil || found {
			return
		}
		switch x := s.(type) {
		case *ast.CompoundStmt:
			for _, st := range x.Stmts {
				walkStmt(st)
			}
		case *ast.IfStmt:
			walkExpr(x.Condition)
			walkStmt(x.Body)
			walkStmt(x.Else)
		case *ast.ForStmt:
			walkStmt(x.Init)
			walkExpr(x.Condition)
			walkStmt(x.Update)
			walkStmt(x.Body)
		case *ast.WhileStmt:
			walkExpr(x.Condition)
			walkStmt(x.Body)
		case *ast.LoopStmt:
			walkStmt(x.Body)
			if x.Continuing != nil {
				walkStmt(x.Continuing)
			}
		case *ast.SwitchStmt:
			walkExpr(x.Expr)
			for _, c := range x.Cases {
				walkStmt(c.Body)
			}
		case *ast.ReturnStmt:
			walkExpr(x.Value)
		case *ast.AssignStmt:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *ast.IncrDecrStmt:
			walkExpr(x.Expr)
		case *ast.CallStmt:
			walkExpr(x.Call)
		case *ast.DeclStmt:
			switch d := x.Decl.(type) {
			case *ast.LetDecl:
				walkExpr(d.Initializer)
			case *ast.VarDecl:
				walkExpr(d.Initializer)
			case *ast.ConstDecl:
				walkExpr(d.Initializer)
			}
		}
	}

	walkStmt(s)
	return found
}

// rootRef walks through index/member/paren wrappers to find the
// identifier an lvalue expression ultimately names.
func rootRef(e ast.Expr) (ast.Ref, bool) {
	for {
		switch x := e.(type) {
		case *ast.IdentExpr:
			return x.Ref, x.Ref.IsValid()
		case *ast.IndexExpr:
			e = x.Base
		case *ast.MemberExpr:
			e = x.Base
		case *ast.ParenExpr:
			e = x.Expr
		default:
			return ast.Ref{}, false
		}
	}
}
