package elab

import (
	"context"

	"github.com/ynivin/verilator/internal/ast"
	"github.com/ynivin/verilator/internal/ctxlog"
)

// cursor is the traversal context for one level of the hierarchy. It is
// passed by value into each recursive descent, so a sibling subtree can
// never observe another's in-progress state.
type cursor struct {
	mod   *ast.Module // module being processed
	scope *ast.Scope  // scope being built
	cell  *ast.Cell   // instantiating cell, nil at the root
	above *ast.Scope  // scope of the instantiating module, nil at the root
	// trace is the effective trace-enable inherited down the cell path.
	trace bool
}

// elaborate creates the scope for one instantiation of mod and relocates
// the module's behavioral statements into it. Child cells are elaborated
// first so their scopes attach to the tree before this module's own
// statements do.
func (p *pass) elaborate(ctx context.Context, mod *ast.Module, cur cursor) error {
	logger := ctxlog.FromContext(ctx)

	name := "TOP"
	if cur.above != nil {
		name = cur.above.Name + "." + cur.cell.Name
	}

	if mod.Kind == ast.KindPackage {
		// Packages are not instanced: the first elaboration produced the
		// singleton scope, and the body must not be walked again.
		if existing := p.reg.packageScope(mod); existing != nil {
			logger.Debug("elab: package already scoped", "package", mod.Name, "scope", existing.Name)
			return nil
		}
	}

	logger.Debug("elab: module", "scope", name, "module", mod.Name)

	loc := mod.Loc
	if cur.cell != nil {
		loc = cur.cell.Loc
	}
	scope := &ast.Scope{Loc: loc, Name: name, Mod: mod, Above: cur.above, Cell: cur.cell}
	if err := p.reg.add(scope); err != nil {
		return err
	}
	if mod.Kind == ast.KindPackage {
		p.reg.addPackage(mod, scope)
	}
	cur.mod = mod
	cur.scope = scope

	for _, st := range mod.Body {
		cell, ok := st.(*ast.Cell)
		if !ok {
			continue
		}
		if cell.Mod == nil {
			return internalf(cell, "cell %q: unlinked module %q", cell.Name, cell.ModName)
		}
		child := cursor{cell: cell, above: scope, trace: cur.trace && !cell.NoTrace}
		if err := p.elaborate(ctx, cell.Mod, child); err != nil {
			return err
		}
	}

	if mod.Top {
		mod.Body = append(mod.Body, &ast.TopScope{Loc: scope.Loc, Scope: scope})
	} else {
		mod.Body = append(mod.Body, scope)
	}

	return p.relocate(ctx, cur)
}

// relocate walks the body of cur.mod, cloning or moving each relocatable
// construct into cur.scope and creating varscopes for the declarations it
// meets. Moved class methods are dropped from the template body.
func (p *pass) relocate(ctx context.Context, cur cursor) error {
	logger := ctxlog.FromContext(ctx)

	kept := make([]ast.Stmt, 0, len(cur.mod.Body))
	for _, st := range cur.mod.Body {
		switch n := st.(type) {
		case *ast.Cell:
			// Elaborated before our own scope attached.
			kept = append(kept, n)

		case *ast.Scope, *ast.TopScope:
			// Attached by this or an earlier instantiation; a scope is a
			// boundary, never walked into here.
			kept = append(kept, st)

		case *ast.CellInline:
			n.Scope = cur.scope
			kept = append(kept, n)

		case *ast.Var:
			if err := p.makeVarScope(ctx, n, cur); err != nil {
				return err
			}
			kept = append(kept, n)

		case *ast.Module:
			if n.Kind == ast.KindClass {
				if err := p.elaborateClass(ctx, n, cur); err != nil {
					return err
				}
			}
			kept = append(kept, n)

		case *ast.TaskDef:
			var moved *ast.TaskDef
			if n.ClassMethod {
				// Only one scope is ever created for a class, so cloning
				// would be pointless; take ownership instead.
				logger.Debug("elab: move task", "task", n.Name, "scope", cur.scope.Name)
				moved = n
			} else {
				logger.Debug("elab: clone task", "task", n.Name, "scope", cur.scope.Name)
				moved = ast.CloneStmt(n).(*ast.TaskDef)
				kept = append(kept, n)
			}
			p.relocated[n] = moved
			cur.scope.Stmts = append(cur.scope.Stmts, moved)
			if err := p.visitStmts(ctx, moved.Body, cur); err != nil {
				return err
			}

		case *ast.Process, *ast.AssignW, *ast.AssignAlias, *ast.AssignVarScope,
			*ast.AlwaysPublic, *ast.CoverToggle:
			clone := ast.CloneStmt(st)
			p.relocated[st] = clone
			cur.scope.Stmts = append(cur.scope.Stmts, clone)
			// Declarations and references are processed under the clone;
			// the template copy stays untouched for later instantiations.
			if err := p.visitStmt(ctx, clone, cur); err != nil {
				return err
			}
			kept = append(kept, st)

		default:
			if err := p.visitStmt(ctx, st, cur); err != nil {
				return err
			}
			kept = append(kept, st)
		}
	}
	cur.mod.Body = kept
	return nil
}

// elaborateClass builds the single scope of a class container found in the
// current module's body. Context is restored implicitly when the call
// returns, since the caller's cursor is untouched.
func (p *pass) elaborateClass(ctx context.Context, cls *ast.Module, cur cursor) error {
	name := cls.Name
	if cur.scope != nil {
		name = cur.scope.Name + "." + cls.Name
	}
	ctxlog.FromContext(ctx).Debug("elab: class", "scope", name)

	scope := &ast.Scope{Loc: cls.Loc, Name: name, Mod: cls, Above: cur.scope, Cell: cur.cell}
	if err := p.reg.add(scope); err != nil {
		return err
	}
	cls.Body = append(cls.Body, scope)

	sub := cur
	sub.mod = cls
	sub.above = cur.scope
	sub.scope = scope
	return p.relocate(ctx, sub)
}

// makeVarScope creates the per-scope storage cell for a declaration on
// first sight; later sightings of the same (variable, scope) pair are
// no-ops.
func (p *pass) makeVarScope(ctx context.Context, v *ast.Var, cur cursor) error {
	if cur.scope == nil {
		return internalf(v, "variable %q outside any scope", v.Name)
	}
	key := varScopeKey{v: v, s: cur.scope}
	if _, ok := p.vars[key]; ok {
		return nil
	}

	vs := &ast.VarScope{Loc: v.Loc, Var: v, Scope: cur.scope, Trace: cur.trace}
	full := cur.scope.Name + "." + v.Name
	if p.opts.IsClocker(full) {
		v.Clocker = ast.ClockerYes
	}
	// Applied second on purpose: when a name matches both lists, the later
	// write wins.
	if p.opts.IsNoClocker(full) {
		v.Clocker = ast.ClockerNo
	}

	p.vars[key] = vs
	cur.scope.Vars = append(cur.scope.Vars, vs)
	ctxlog.FromContext(ctx).Debug("elab: new varscope", "name", full)
	return nil
}

func (p *pass) visitStmts(ctx context.Context, list []ast.Stmt, cur cursor) error {
	for _, st := range list {
		if err := p.visitStmt(ctx, st, cur); err != nil {
			return err
		}
	}
	return nil
}

// visitStmt processes declarations and references nested inside a
// relocated statement.
func (p *pass) visitStmt(ctx context.Context, st ast.Stmt, cur cursor) error {
	switch n := st.(type) {
	case *ast.Var:
		return p.makeVarScope(ctx, n, cur)
	case *ast.Process:
		return p.visitStmts(ctx, n.Body, cur)
	case *ast.TaskDef:
		return p.visitStmts(ctx, n.Body, cur)
	case *ast.AlwaysPublic:
		return p.visitStmts(ctx, n.Body, cur)
	case *ast.AssignW:
		return p.visitExprs(ctx, cur, n.LHS, n.RHS)
	case *ast.AssignAlias:
		return p.visitExprs(ctx, cur, n.LHS, n.RHS)
	case *ast.AssignVarScope:
		return p.visitExprs(ctx, cur, n.LHS, n.RHS)
	case *ast.Assign:
		return p.visitExprs(ctx, cur, n.LHS, n.RHS)
	case *ast.CoverToggle:
		return p.visitExprs(ctx, cur, n.Ref)
	case *ast.ExprStmt:
		return p.visitExprs(ctx, cur, n.X)
	case *ast.Display:
		return p.visitExprs(ctx, cur, n.Args...)
	case *ast.CellInline:
		n.Scope = cur.scope
		return nil
	default:
		return nil
	}
}

func (p *pass) visitExprs(ctx context.Context, cur cursor, list ...ast.Expr) error {
	for _, e := range list {
		if err := p.visitExpr(ctx, e, cur); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) visitExpr(ctx context.Context, e ast.Expr, cur cursor) error {
	switch n := e.(type) {
	case nil:
		return nil

	case *ast.VarRef:
		if n.Var == nil {
			return internalf(n, "unlinked variable reference %q", n.Name)
		}
		if n.Var.IfaceRef {
			// Interface storage is owned elsewhere; record the absence
			// explicitly rather than leaving the reference dangling.
			n.VarScope = nil
			n.Bound = true
			return nil
		}
		// The true target scope may not exist yet (a package elaborated
		// later, a varscope not yet created), so binding is deferred.
		p.deferred = append(p.deferred, deferredRef{ref: n, scope: cur.scope})
		return nil

	case *ast.VarXRef:
		// Cross-module references belong to the linking stage; cleanup
		// severs them.
		return nil

	case *ast.TaskRef:
		return p.visitExprs(ctx, cur, n.Args...)

	case *ast.ModportTaskRef:
		return nil

	case *ast.ScopeName:
		p.spliceScopeName(n, cur)
		return nil

	default:
		return nil
	}
}

// spliceScopeName rewrites a %m marker with the scope's dotted path,
// keeping any pre-existing fragments in order after the new one.
func (p *pass) spliceScopeName(n *ast.ScopeName, cur cursor) {
	attr := &ast.Text{Loc: n.Loc, Text: "__DOT__" + cur.scope.Name}
	n.Attr = append([]*ast.Text{attr}, n.Attr...)
	entry := &ast.Text{Loc: n.Loc, Text: "__DOT__" + cur.scope.Name}
	n.Entry = append([]*ast.Text{entry}, n.Entry...)
}
