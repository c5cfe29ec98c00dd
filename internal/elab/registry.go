package elab

import "github.com/ynivin/verilator/internal/ast"

// registry owns the mapping from instantiation path to its Scope, plus the
// singleton scope of each package.
type registry struct {
	scopes   map[string]*ast.Scope
	packages map[*ast.Module]*ast.Scope
}

func newRegistry() *registry {
	return &registry{
		scopes:   make(map[string]*ast.Scope),
		packages: make(map[*ast.Module]*ast.Scope),
	}
}

// add registers a freshly created scope. Instantiation paths are unique by
// construction; a duplicate means the walker itself is broken.
func (r *registry) add(s *ast.Scope) error {
	if _, exists := r.scopes[s.Name]; exists {
		return internalf(s, "duplicate scope %q", s.Name)
	}
	r.scopes[s.Name] = s
	return nil
}

func (r *registry) addPackage(mod *ast.Module, s *ast.Scope) {
	r.packages[mod] = s
}

// packageScope returns the singleton scope of a package, or nil if the
// package has not been elaborated yet.
func (r *registry) packageScope(mod *ast.Module) *ast.Scope {
	return r.packages[mod]
}

// varScopeKey identifies one per-scope storage cell.
type varScopeKey struct {
	v *ast.Var
	s *ast.Scope
}

// varScopeMemo maps (variable, scope) to the unique VarScope created for
// the pair; the walker consults it before creating, so creation is
// at-most-once.
type varScopeMemo map[varScopeKey]*ast.VarScope
