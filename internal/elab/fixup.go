package elab

import (
	"context"

	"github.com/ynivin/verilator/internal/ctxlog"
)

// fixupRefs drains the deferred worklist, binding every queued variable
// reference to its storage cell. By now the scope registry and varscope
// memo are complete, so any miss is a broken invariant.
func (p *pass) fixupRefs(ctx context.Context) error {
	for _, d := range p.deferred {
		ref := d.ref

		scope := d.scope
		if ref.Pkg != nil && !ref.Var.ClassMember {
			// Package variables live in the package's singleton scope, not
			// in the scope that referenced them. Class members stay local.
			ps := p.reg.packageScope(ref.Pkg)
			if ps == nil {
				return internalf(ref, "cannot locate scope of package %q", ref.Pkg.Name)
			}
			scope = ps
		}

		vs, ok := p.vars[varScopeKey{v: ref.Var, s: scope}]
		if !ok {
			return internalf(ref, "cannot locate varscope for %q in scope %q", ref.Name, scope.Name)
		}
		ref.VarScope = vs
		ref.Bound = true
	}
	ctxlog.FromContext(ctx).Debug("elab: reference fixup complete", "refs", len(p.deferred))
	return nil
}
