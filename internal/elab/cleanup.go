package elab

import (
	"context"

	"github.com/ynivin/verilator/internal/ast"
	"github.com/ynivin/verilator/internal/ctxlog"
)

// cleanup is the second full traversal: template statements that were
// never relocated into a scope are deleted, and cross-module links whose
// resolution belongs to the downstream linking stage are severed. The
// inScope flag carried down the walk is the single source of truth for the
// delete-vs-recurse decision.
func (p *pass) cleanup(ctx context.Context, nl *ast.Netlist) error {
	for _, mod := range nl.Modules {
		if err := p.cleanBody(&mod.Body, false); err != nil {
			return err
		}
	}
	ctxlog.FromContext(ctx).Debug("elab: dead template code removed")
	return nil
}

func (p *pass) cleanBody(body *[]ast.Stmt, inScope bool) error {
	kept := (*body)[:0]
	for _, st := range *body {
		keep, err := p.cleanStmt(st, inScope)
		if err != nil {
			return err
		}
		if keep {
			kept = append(kept, st)
		}
	}
	*body = kept
	return nil
}

// cleanStmt returns whether the statement survives in its parent body.
func (p *pass) cleanStmt(st ast.Stmt, inScope bool) (bool, error) {
	switch n := st.(type) {
	case *ast.TopScope:
		return true, p.cleanScope(n.Scope)

	case *ast.Scope:
		return true, p.cleanScope(n)

	case *ast.Process, *ast.AssignW, *ast.AssignAlias, *ast.AssignVarScope,
		*ast.AlwaysPublic, *ast.CoverToggle, *ast.TaskDef:
		if !inScope {
			// Template code never relocated under a scope; it can never
			// execute, and keeping it would leak references into
			// superseded nodes.
			return false, nil
		}
		return true, p.severStmt(st)

	case *ast.Module:
		// Nested class container: its own scope (if any) sits in its body.
		return true, p.cleanBody(&n.Body, false)

	default:
		// Declarations, cells, and markers stay; their references are
		// still severed where applicable.
		return true, p.severStmt(st)
	}
}

// cleanScope walks the statements a scope owns. They are all live; the
// recursion exists so the severing rules reach every nested reference. The
// scope itself is a boundary created by elaboration and is never entered a
// second time.
func (p *pass) cleanScope(s *ast.Scope) error {
	for _, st := range s.Stmts {
		if _, err := p.cleanStmt(st, true); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) severStmts(list []ast.Stmt) error {
	for _, st := range list {
		if err := p.severStmt(st); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) severStmt(st ast.Stmt) error {
	switch n := st.(type) {
	case *ast.Process:
		return p.severStmts(n.Body)
	case *ast.TaskDef:
		return p.severStmts(n.Body)
	case *ast.AlwaysPublic:
		return p.severStmts(n.Body)
	case *ast.AssignW:
		return p.severExprs(n.LHS, n.RHS)
	case *ast.AssignAlias:
		return p.severExprs(n.LHS, n.RHS)
	case *ast.AssignVarScope:
		return p.severExprs(n.LHS, n.RHS)
	case *ast.Assign:
		return p.severExprs(n.LHS, n.RHS)
	case *ast.CoverToggle:
		return p.severExprs(n.Ref)
	case *ast.ExprStmt:
		return p.severExprs(n.X)
	case *ast.Display:
		return p.severExprs(n.Args...)
	case *ast.Scope:
		// Boundary; handled by cleanScope exactly once.
		return nil
	default:
		return nil
	}
}

func (p *pass) severExprs(list ...ast.Expr) error {
	for _, e := range list {
		if err := p.severExpr(e); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) severExpr(e ast.Expr) error {
	switch n := e.(type) {
	case nil:
		return nil

	case *ast.VarXRef:
		// Rebound by the linking stage against the flattened tree.
		n.Var = nil
		return nil

	case *ast.TaskRef:
		if n.Pkg != nil {
			// Package tasks were relocated; point at the copy the scope
			// owns instead of the template.
			if n.Task == nil {
				return internalf(n, "unlinked task reference %q", n.Name)
			}
			moved, ok := p.relocated[n.Task].(*ast.TaskDef)
			if !ok {
				return internalf(n, "no relocated copy for package task %q", n.Name)
			}
			n.Task = moved
		} else if !n.Method {
			n.Task = nil
		}
		return p.severExprs(n.Args...)

	case *ast.ModportTaskRef:
		n.Task = nil
		return nil

	default:
		return nil
	}
}
