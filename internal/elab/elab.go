package elab

import (
	"context"

	"github.com/ynivin/verilator/internal/ast"
	"github.com/ynivin/verilator/internal/config"
	"github.com/ynivin/verilator/internal/ctxlog"
)

// pass carries the state shared by the three phases.
type pass struct {
	opts *config.Options
	reg  *registry
	vars varScopeMemo
	// deferred holds variable references queued during the walk, in
	// traversal order, for the fixup phase.
	deferred []deferredRef
	// relocated maps each template statement to the clone (or moved
	// original) now owned by a scope. Cleanup redirects package task
	// references through it.
	relocated map[ast.Stmt]ast.Stmt
}

type deferredRef struct {
	ref   *ast.VarRef
	scope *ast.Scope
}

// ScopeAll elaborates the netlist in place: one Scope per reachable
// instantiation path (the root wrapped in a TopScope), every behavioral
// statement relocated into its scope, every surviving variable reference
// bound, and dead template code removed.
//
// Returns ErrNoTopModule if the netlist has no hierarchy root, or an
// *InternalError for invariant violations left by upstream stages.
func ScopeAll(ctx context.Context, nl *ast.Netlist, opts *config.Options) error {
	logger := ctxlog.FromContext(ctx)

	top := nl.TopModule()
	if top == nil {
		return ErrNoTopModule
	}

	p := &pass{
		opts:      opts,
		reg:       newRegistry(),
		vars:      make(varScopeMemo),
		relocated: make(map[ast.Stmt]ast.Stmt),
	}

	logger.Debug("elab: building scopes", "top", top.Name)
	if err := p.elaborate(ctx, top, cursor{trace: true}); err != nil {
		return err
	}
	logger.Debug("elab: scope construction complete",
		"scopes", len(p.reg.scopes), "deferred_refs", len(p.deferred))

	if err := p.fixupRefs(ctx); err != nil {
		return err
	}

	if err := p.cleanup(ctx, nl); err != nil {
		return err
	}
	logger.Debug("elab: cleanup complete")
	return nil
}
