package ast

import "fmt"

// CloneStmt returns a structurally independent deep copy of a statement
// subtree. Links to declarations (Var, Module, TaskDef targets inside
// references) are shared with the original: they identify which template
// entity is meant, and per-instance storage is keyed on that identity by
// the elaboration memo. Variable declaration statements are therefore
// returned as-is rather than duplicated.
//
// Scope and TopScope statements are products of elaboration, never
// templates, and must not be cloned.
func CloneStmt(s Stmt) Stmt {
	switch n := s.(type) {
	case *Var:
		return n
	case *Cell:
		c := *n
		return &c
	case *CellInline:
		c := *n
		return &c
	case *Module:
		return &Module{Loc: n.Loc, Name: n.Name, Kind: n.Kind, Top: n.Top, Body: CloneStmts(n.Body)}
	case *TaskDef:
		return &TaskDef{Loc: n.Loc, Name: n.Name, ClassMethod: n.ClassMethod, Body: CloneStmts(n.Body)}
	case *Process:
		return &Process{Loc: n.Loc, Name: n.Name, Kind: n.Kind, Body: CloneStmts(n.Body)}
	case *AssignW:
		return &AssignW{Loc: n.Loc, LHS: CloneExpr(n.LHS), RHS: CloneExpr(n.RHS)}
	case *AssignAlias:
		return &AssignAlias{Loc: n.Loc, LHS: CloneExpr(n.LHS), RHS: CloneExpr(n.RHS)}
	case *AssignVarScope:
		return &AssignVarScope{Loc: n.Loc, LHS: CloneExpr(n.LHS), RHS: CloneExpr(n.RHS)}
	case *AlwaysPublic:
		return &AlwaysPublic{Loc: n.Loc, Body: CloneStmts(n.Body)}
	case *CoverToggle:
		return &CoverToggle{Loc: n.Loc, Ref: cloneVarRef(n.Ref)}
	case *Assign:
		return &Assign{Loc: n.Loc, LHS: CloneExpr(n.LHS), RHS: CloneExpr(n.RHS)}
	case *ExprStmt:
		return &ExprStmt{Loc: n.Loc, X: CloneExpr(n.X)}
	case *Display:
		return &Display{Loc: n.Loc, Format: n.Format, Args: cloneExprs(n.Args)}
	default:
		panic(fmt.Sprintf("ast: cannot clone %T", s))
	}
}

// CloneStmts clones a statement list.
func CloneStmts(list []Stmt) []Stmt {
	if list == nil {
		return nil
	}
	out := make([]Stmt, len(list))
	for i, s := range list {
		out[i] = CloneStmt(s)
	}
	return out
}

// CloneExpr returns a deep copy of an expression subtree, sharing
// declaration links as CloneStmt does.
func CloneExpr(e Expr) Expr {
	switch n := e.(type) {
	case nil:
		return nil
	case *VarRef:
		return cloneVarRef(n)
	case *VarXRef:
		c := *n
		return &c
	case *TaskRef:
		return &TaskRef{Loc: n.Loc, Name: n.Name, Task: n.Task, Pkg: n.Pkg, Method: n.Method, Args: cloneExprs(n.Args)}
	case *ModportTaskRef:
		c := *n
		return &c
	case *ScopeName:
		return &ScopeName{Loc: n.Loc, Attr: cloneTexts(n.Attr), Entry: cloneTexts(n.Entry)}
	case *Text:
		c := *n
		return &c
	case *Const:
		c := *n
		return &c
	default:
		panic(fmt.Sprintf("ast: cannot clone %T", e))
	}
}

func cloneExprs(list []Expr) []Expr {
	if list == nil {
		return nil
	}
	out := make([]Expr, len(list))
	for i, e := range list {
		out[i] = CloneExpr(e)
	}
	return out
}

func cloneTexts(list []*Text) []*Text {
	if list == nil {
		return nil
	}
	out := make([]*Text, len(list))
	for i, t := range list {
		c := *t
		out[i] = &c
	}
	return out
}

func cloneVarRef(n *VarRef) *VarRef {
	if n == nil {
		return nil
	}
	// Bindings are a per-instance product of elaboration; a fresh copy
	// starts unbound.
	return &VarRef{Loc: n.Loc, Name: n.Name, Var: n.Var, Pkg: n.Pkg}
}
