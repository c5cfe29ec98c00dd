package elab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ynivin/verilator/internal/ast"
	"github.com/ynivin/verilator/internal/config"
)

// --- builders ---

func newModule(name string, body ...ast.Stmt) *ast.Module {
	return &ast.Module{Name: name, Body: body}
}

func newTop(body ...ast.Stmt) *ast.Module {
	return &ast.Module{Name: "top", Top: true, Body: body}
}

func newPackage(name string, body ...ast.Stmt) *ast.Module {
	return &ast.Module{Name: name, Kind: ast.KindPackage, Body: body}
}

func newClass(name string, body ...ast.Stmt) *ast.Module {
	return &ast.Module{Name: name, Kind: ast.KindClass, Body: body}
}

func newCell(name string, target *ast.Module) *ast.Cell {
	return &ast.Cell{Name: name, ModName: target.Name, Mod: target}
}

func ref(v *ast.Var) *ast.VarRef {
	return &ast.VarRef{Name: v.Name, Var: v}
}

func pkgRef(pkg *ast.Module, v *ast.Var) *ast.VarRef {
	return &ast.VarRef{Name: v.Name, Var: v, Pkg: pkg}
}

// assignProcess is a sequential block whose single statement references v.
func assignProcess(name string, lhs *ast.VarRef) *ast.Process {
	return &ast.Process{Name: name, Kind: ast.ProcSequential, Body: []ast.Stmt{
		&ast.Assign{LHS: lhs},
	}}
}

// collectScopes walks the elaborated tree and indexes every scope by its
// dotted path.
func collectScopes(t *testing.T, nl *ast.Netlist) map[string]*ast.Scope {
	t.Helper()
	out := make(map[string]*ast.Scope)
	var fromBody func(body []ast.Stmt)
	fromBody = func(body []ast.Stmt) {
		for _, st := range body {
			switch n := st.(type) {
			case *ast.TopScope:
				out[n.Scope.Name] = n.Scope
			case *ast.Scope:
				out[n.Name] = n
			case *ast.Module:
				fromBody(n.Body)
			}
		}
	}
	for _, m := range nl.Modules {
		fromBody(m.Body)
	}
	return out
}

func elaborate(t *testing.T, nl *ast.Netlist, opts *config.Options) map[string]*ast.Scope {
	t.Helper()
	require.NoError(t, ScopeAll(context.Background(), nl, opts))
	return collectScopes(t, nl)
}

// --- scope construction ---

func TestScopeAll_SiblingCellsGetIndependentClones(t *testing.T) {
	v := &ast.Var{Name: "v"}
	template := assignProcess("p", ref(v))
	m := newModule("M", v, template)
	top := newTop(newCell("a", m), newCell("b", m))
	nl := &ast.Netlist{Modules: []*ast.Module{top, m}}

	scopes := elaborate(t, nl, nil)

	require.Contains(t, scopes, "TOP")
	require.Contains(t, scopes, "TOP.a")
	require.Contains(t, scopes, "TOP.b")

	scopeA, scopeB := scopes["TOP.a"], scopes["TOP.b"]

	// Each instantiation owns its own storage cell for v.
	require.Len(t, scopeA.Vars, 1)
	require.Len(t, scopeB.Vars, 1)
	assert.Same(t, v, scopeA.Vars[0].Var)
	assert.Same(t, v, scopeB.Vars[0].Var)
	assert.NotSame(t, scopeA.Vars[0], scopeB.Vars[0])

	// The behavioral block was cloned into each scope, independently.
	require.Len(t, scopeA.Stmts, 1)
	require.Len(t, scopeB.Stmts, 1)
	procA := scopeA.Stmts[0].(*ast.Process)
	procB := scopeB.Stmts[0].(*ast.Process)
	assert.NotSame(t, procA, procB)
	assert.NotSame(t, template, procA)
	assert.NotSame(t, template, procB)

	// Each clone's reference is bound to its own scope's storage.
	refA := procA.Body[0].(*ast.Assign).LHS.(*ast.VarRef)
	refB := procB.Body[0].(*ast.Assign).LHS.(*ast.VarRef)
	require.True(t, refA.Bound)
	require.True(t, refB.Bound)
	assert.Same(t, scopeA.Vars[0], refA.VarScope)
	assert.Same(t, scopeB.Vars[0], refB.VarScope)
}

func TestScopeAll_TopScopeWrapsRoot(t *testing.T) {
	top := newTop()
	nl := &ast.Netlist{Modules: []*ast.Module{top}}

	scopes := elaborate(t, nl, nil)
	require.Contains(t, scopes, "TOP")

	var wrapper *ast.TopScope
	for _, st := range top.Body {
		if ts, ok := st.(*ast.TopScope); ok {
			wrapper = ts
		}
	}
	require.NotNil(t, wrapper, "root scope must be wrapped in a top-level marker")
	assert.Same(t, scopes["TOP"], wrapper.Scope)
	assert.Nil(t, wrapper.Scope.Cell)
	assert.Nil(t, wrapper.Scope.Above)
}

func TestScopeAll_VarScopeCreatedOncePerPair(t *testing.T) {
	// The same declaration reached twice in one scope: once at module
	// level and once inside a relocated block.
	v := &ast.Var{Name: "v"}
	m := newTop(v, &ast.AlwaysPublic{Body: []ast.Stmt{v}})
	nl := &ast.Netlist{Modules: []*ast.Module{m}}

	scopes := elaborate(t, nl, nil)
	require.Len(t, scopes["TOP"].Vars, 1)
}

func TestScopeAll_DeepHierarchyNames(t *testing.T) {
	v := &ast.Var{Name: "v"}
	leaf := newModule("Leaf", v)
	mid := newModule("Mid", newCell("inner", leaf))
	top := newTop(newCell("outer", mid))
	nl := &ast.Netlist{Modules: []*ast.Module{top, mid, leaf}}

	scopes := elaborate(t, nl, nil)
	require.Contains(t, scopes, "TOP.outer")
	require.Contains(t, scopes, "TOP.outer.inner")
	assert.Same(t, leaf, scopes["TOP.outer.inner"].Mod)
	assert.Equal(t, "inner", scopes["TOP.outer.inner"].Cell.Name)
	assert.Same(t, scopes["TOP.outer"], scopes["TOP.outer.inner"].Above)
}

// --- packages ---

func TestScopeAll_PackageSingleton(t *testing.T) {
	pv := &ast.Var{Name: "pv"}
	pkg := newPackage("Pkg", pv)

	// M references the package variable; M is instantiated twice, and the
	// package is also referenced through a cell at top level, so three
	// scopes see it.
	m := newModule("M", newCell("pkg", pkg), assignProcess("p", pkgRef(pkg, pv)))
	top := newTop(newCell("a", m), newCell("b", m), newCell("pkg", pkg),
		assignProcess("q", pkgRef(pkg, pv)))
	nl := &ast.Netlist{Modules: []*ast.Module{top, m, pkg}}

	scopes := elaborate(t, nl, nil)

	var pkgScopes []*ast.Scope
	for _, s := range scopes {
		if s.Mod == pkg {
			pkgScopes = append(pkgScopes, s)
		}
	}
	require.Len(t, pkgScopes, 1, "exactly one scope per package")
	pkgScope := pkgScopes[0]
	require.Len(t, pkgScope.Vars, 1)

	// Every package-qualified reference resolves into the singleton scope.
	for _, path := range []string{"TOP.a", "TOP.b"} {
		proc := scopes[path].Stmts[0].(*ast.Process)
		r := proc.Body[0].(*ast.Assign).LHS.(*ast.VarRef)
		require.True(t, r.Bound)
		assert.Same(t, pkgScope.Vars[0], r.VarScope)
	}
}

func TestScopeAll_PackageStatementsClonedOnce(t *testing.T) {
	pv := &ast.Var{Name: "pv"}
	pkg := newPackage("Pkg", pv)
	pkg.Body = append(pkg.Body, assignProcess("init", pkgRef(pkg, pv)))
	m := newModule("M", newCell("pkg", pkg))
	top := newTop(newCell("a", m), newCell("b", m))
	nl := &ast.Netlist{Modules: []*ast.Module{top, m, pkg}}

	scopes := elaborate(t, nl, nil)

	var pkgScope *ast.Scope
	for _, s := range scopes {
		if s.Mod == pkg {
			require.Nil(t, pkgScope, "package elaborated more than once")
			pkgScope = s
		}
	}
	require.NotNil(t, pkgScope)
	assert.Len(t, pkgScope.Stmts, 1)
}

// --- classes ---

func TestScopeAll_ClassMethodMovedNotCloned(t *testing.T) {
	method := &ast.TaskDef{Name: "m", ClassMethod: true}
	cls := newClass("C", method)
	pkg := newPackage("Pkg", cls)
	top := newTop(newCell("pkg", pkg))
	nl := &ast.Netlist{Modules: []*ast.Module{top, pkg}}

	scopes := elaborate(t, nl, nil)

	var clsScope *ast.Scope
	for _, s := range scopes {
		if s.Mod == cls {
			clsScope = s
		}
	}
	require.NotNil(t, clsScope, "class scope not created")
	require.Len(t, clsScope.Stmts, 1)
	// Moved, not cloned: the scope owns the original definition, and the
	// class template no longer holds it.
	assert.Same(t, method, clsScope.Stmts[0])
	for _, st := range cls.Body {
		_, isTask := st.(*ast.TaskDef)
		assert.False(t, isTask, "moved class method still in template body")
	}
}

func TestScopeAll_MethodCallKeepsTaskLink(t *testing.T) {
	method := &ast.TaskDef{Name: "m", ClassMethod: true}
	cls := newClass("C", method)
	pkg := newPackage("Pkg", cls)

	call := &ast.TaskRef{Name: "m", Task: method, Method: true}
	m := newModule("M", &ast.Process{Kind: ast.ProcInitial, Body: []ast.Stmt{
		&ast.ExprStmt{X: call},
	}})
	top := newTop(newCell("pkg", pkg), newCell("a", m))
	nl := &ast.Netlist{Modules: []*ast.Module{top, pkg, m}}

	scopes := elaborate(t, nl, nil)

	proc := scopes["TOP.a"].Stmts[0].(*ast.Process)
	cloned := proc.Body[0].(*ast.ExprStmt).X.(*ast.TaskRef)
	assert.Same(t, method, cloned.Task, "method-call reference must survive cleanup")
}

// --- trace and clock classification ---

func TestScopeAll_TraceExclusionPropagates(t *testing.T) {
	nv := &ast.Var{Name: "nv"}
	n := newModule("N", nv)
	mv := &ast.Var{Name: "mv"}
	m := newModule("M", mv, newCell("sub", n))
	tv := &ast.Var{Name: "tv"}
	quiet := newCell("quiet", m)
	quiet.NoTrace = true
	top := newTop(tv, quiet, newCell("loud", m))
	nl := &ast.Netlist{Modules: []*ast.Module{top, m, n}}

	scopes := elaborate(t, nl, nil)

	assert.True(t, scopes["TOP"].Vars[0].Trace)
	assert.False(t, scopes["TOP.quiet"].Vars[0].Trace)
	assert.False(t, scopes["TOP.quiet.sub"].Vars[0].Trace, "exclusion must reach the whole subtree")
	assert.True(t, scopes["TOP.loud"].Vars[0].Trace)
	assert.True(t, scopes["TOP.loud.sub"].Vars[0].Trace)
}

func TestScopeAll_ClockClassification(t *testing.T) {
	opts, err := config.New(
		[]string{"*.clk", "*.both"},
		[]string{"*.data", "*.both"},
	)
	require.NoError(t, err)

	clk := &ast.Var{Name: "clk"}
	data := &ast.Var{Name: "data"}
	both := &ast.Var{Name: "both"}
	other := &ast.Var{Name: "other"}
	top := newTop(clk, data, both, other)
	nl := &ast.Netlist{Modules: []*ast.Module{top}}

	elaborate(t, nl, opts)

	assert.Equal(t, ast.ClockerYes, clk.Clocker)
	assert.Equal(t, ast.ClockerNo, data.Clocker)
	// Both lists match: the later-applied no-clocker list wins.
	assert.Equal(t, ast.ClockerNo, both.Clocker)
	assert.Equal(t, ast.ClockerUnknown, other.Clocker)
}

func TestScopeAll_ClockPatternsMatchFullPath(t *testing.T) {
	opts, err := config.New([]string{"TOP.a.clk"}, nil)
	require.NoError(t, err)

	clk := &ast.Var{Name: "clk"}
	m := newModule("M", clk)
	top := newTop(newCell("a", m), newCell("b", m))
	nl := &ast.Netlist{Modules: []*ast.Module{top, m}}

	elaborate(t, nl, opts)

	// The tag lives on the shared declaration; matching under TOP.a is
	// enough to set it.
	assert.Equal(t, ast.ClockerYes, clk.Clocker)
}

// --- references ---

func TestScopeAll_IfaceRefBoundToNoStorage(t *testing.T) {
	iv := &ast.Var{Name: "bus", IfaceRef: true}
	top := newTop(iv, assignProcess("p", ref(iv)))
	nl := &ast.Netlist{Modules: []*ast.Module{top}}

	scopes := elaborate(t, nl, nil)

	proc := scopes["TOP"].Stmts[0].(*ast.Process)
	r := proc.Body[0].(*ast.Assign).LHS.(*ast.VarRef)
	require.True(t, r.Bound, "interface reference must be explicitly resolved")
	assert.Nil(t, r.VarScope, "interface storage is owned elsewhere")
}

func TestScopeAll_ScopeNameSplice(t *testing.T) {
	v := &ast.Var{Name: "v"}
	sn := &ast.ScopeName{
		Attr:  []*ast.Text{{Text: "__DOT__existing"}},
		Entry: []*ast.Text{{Text: "__DOT__existing"}},
	}
	m := newModule("M", v, &ast.Process{Kind: ast.ProcInitial, Body: []ast.Stmt{
		&ast.Display{Format: "%m: hello", Args: []ast.Expr{sn}},
	}})
	top := newTop(newCell("a", m))
	nl := &ast.Netlist{Modules: []*ast.Module{top, m}}

	scopes := elaborate(t, nl, nil)

	proc := scopes["TOP.a"].Stmts[0].(*ast.Process)
	spliced := proc.Body[0].(*ast.Display).Args[0].(*ast.ScopeName)
	require.Len(t, spliced.Attr, 2)
	assert.Equal(t, "__DOT__TOP.a", spliced.Attr[0].Text)
	assert.Equal(t, "__DOT__existing", spliced.Attr[1].Text, "pre-existing fragments keep their order")
	require.Len(t, spliced.Entry, 2)
	assert.Equal(t, "__DOT__TOP.a", spliced.Entry[0].Text)

	// The template marker is untouched.
	assert.Len(t, sn.Attr, 1)
}

func TestScopeAll_CellInlineStamped(t *testing.T) {
	inline := &ast.CellInline{Name: "flattened"}
	top := newTop(inline)
	nl := &ast.Netlist{Modules: []*ast.Module{top}}

	scopes := elaborate(t, nl, nil)
	assert.Same(t, scopes["TOP"], inline.Scope)
}

// --- cleanup ---

func TestScopeAll_UnusedModuleContributesNothing(t *testing.T) {
	uv := &ast.Var{Name: "uv"}
	unused := newModule("Unused", uv, assignProcess("dead", ref(uv)),
		&ast.AssignW{LHS: ref(uv)})
	top := newTop()
	nl := &ast.Netlist{Modules: []*ast.Module{top, unused}}

	scopes := elaborate(t, nl, nil)

	for path, s := range scopes {
		assert.NotSame(t, unused, s.Mod, "unexpected scope %s for uninstantiated module", path)
	}
	for _, st := range unused.Body {
		switch st.(type) {
		case *ast.Process, *ast.AssignW:
			t.Fatalf("dead template statement %T survived cleanup", st)
		}
	}
}

func TestScopeAll_CleanupSeversCrossModuleVarRef(t *testing.T) {
	v := &ast.Var{Name: "v"}
	far := &ast.Var{Name: "far"}
	xref := &ast.VarXRef{Name: "far", Dotted: "other.far", Var: far}
	top := newTop(v, &ast.Process{Kind: ast.ProcSequential, Body: []ast.Stmt{
		&ast.Assign{LHS: ref(v), RHS: xref},
	}})
	nl := &ast.Netlist{Modules: []*ast.Module{top}}

	scopes := elaborate(t, nl, nil)

	proc := scopes["TOP"].Stmts[0].(*ast.Process)
	severed := proc.Body[0].(*ast.Assign).RHS.(*ast.VarXRef)
	assert.Nil(t, severed.Var, "cross-module reference must be cleared for the linking stage")
}

func TestScopeAll_PackageTaskRefRedirectedToClone(t *testing.T) {
	task := &ast.TaskDef{Name: "t"}
	pkg := newPackage("Pkg", task)
	call := &ast.TaskRef{Name: "t", Task: task, Pkg: pkg}
	m := newModule("M", &ast.Process{Kind: ast.ProcInitial, Body: []ast.Stmt{
		&ast.ExprStmt{X: call},
	}})
	top := newTop(newCell("pkg", pkg), newCell("a", m))
	nl := &ast.Netlist{Modules: []*ast.Module{top, pkg, m}}

	scopes := elaborate(t, nl, nil)

	var pkgScope *ast.Scope
	for _, s := range scopes {
		if s.Mod == pkg {
			pkgScope = s
		}
	}
	require.NotNil(t, pkgScope)
	require.Len(t, pkgScope.Stmts, 1)
	relocatedTask := pkgScope.Stmts[0].(*ast.TaskDef)
	assert.NotSame(t, task, relocatedTask)

	proc := scopes["TOP.a"].Stmts[0].(*ast.Process)
	redirected := proc.Body[0].(*ast.ExprStmt).X.(*ast.TaskRef)
	assert.Same(t, relocatedTask, redirected.Task, "package task ref must point at the relocated copy")
}

func TestScopeAll_PlainTaskRefSevered(t *testing.T) {
	task := &ast.TaskDef{Name: "t"}
	call := &ast.TaskRef{Name: "t", Task: task}
	top := newTop(task, &ast.Process{Kind: ast.ProcInitial, Body: []ast.Stmt{
		&ast.ExprStmt{X: call},
	}})
	nl := &ast.Netlist{Modules: []*ast.Module{top}}

	scopes := elaborate(t, nl, nil)

	proc := findProcess(t, scopes["TOP"])
	severed := proc.Body[0].(*ast.ExprStmt).X.(*ast.TaskRef)
	assert.Nil(t, severed.Task)
}

func TestScopeAll_ModportTaskRefSevered(t *testing.T) {
	task := &ast.TaskDef{Name: "t"}
	top := newTop(task, &ast.Process{Kind: ast.ProcInitial, Body: []ast.Stmt{
		&ast.ExprStmt{X: &ast.ModportTaskRef{Name: "t", Task: task}},
	}})
	nl := &ast.Netlist{Modules: []*ast.Module{top}}

	scopes := elaborate(t, nl, nil)

	proc := findProcess(t, scopes["TOP"])
	severed := proc.Body[0].(*ast.ExprStmt).X.(*ast.ModportTaskRef)
	assert.Nil(t, severed.Task)
}

func findProcess(t *testing.T, s *ast.Scope) *ast.Process {
	t.Helper()
	for _, st := range s.Stmts {
		if p, ok := st.(*ast.Process); ok {
			return p
		}
	}
	t.Fatalf("no process in scope %s", s.Name)
	return nil
}

// --- failure semantics ---

func TestScopeAll_NoTopModule(t *testing.T) {
	nl := &ast.Netlist{Modules: []*ast.Module{newModule("M")}}
	err := ScopeAll(context.Background(), nl, nil)
	require.ErrorIs(t, err, ErrNoTopModule)

	// No output was produced.
	assert.Empty(t, collectScopes(t, nl))
}

func TestScopeAll_UnlinkedCellIsFatal(t *testing.T) {
	top := newTop(&ast.Cell{Name: "a", ModName: "Ghost"})
	nl := &ast.Netlist{Modules: []*ast.Module{top}}

	err := ScopeAll(context.Background(), nl, nil)
	var ierr *InternalError
	require.ErrorAs(t, err, &ierr)
	assert.Contains(t, ierr.Msg, "unlinked")
}

func TestScopeAll_UnlinkedVarRefIsFatal(t *testing.T) {
	top := newTop(&ast.Process{Kind: ast.ProcSequential, Body: []ast.Stmt{
		&ast.Assign{LHS: &ast.VarRef{Name: "ghost"}},
	}})
	nl := &ast.Netlist{Modules: []*ast.Module{top}}

	err := ScopeAll(context.Background(), nl, nil)
	var ierr *InternalError
	require.ErrorAs(t, err, &ierr)
}

func TestScopeAll_MissingPackageScopeIsFatal(t *testing.T) {
	// A package-qualified reference to a package no cell ever reaches.
	pv := &ast.Var{Name: "pv"}
	pkg := newPackage("Pkg", pv)
	top := newTop(assignProcess("p", pkgRef(pkg, pv)))
	// Note: pkg is in the netlist but nothing instantiates it.
	nl := &ast.Netlist{Modules: []*ast.Module{top, pkg}}

	err := ScopeAll(context.Background(), nl, nil)
	var ierr *InternalError
	require.ErrorAs(t, err, &ierr)
	assert.Contains(t, ierr.Msg, "package")
}
