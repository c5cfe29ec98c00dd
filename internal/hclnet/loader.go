// Package hclnet loads an HCL netlist description into the ast module
// graph. It is the input adapter for the CLI driver and for test
// fixtures; the production front-end that parses real source hands the
// compiler the same graph directly.
package hclnet

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/ynivin/verilator/internal/ast"
)

// LoadFile parses a netlist description from disk.
func LoadFile(path string) (*ast.Netlist, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse netlist %s: %w", path, diags)
	}

	var raw netlistFile
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode netlist %s: %w", path, diags)
	}
	return build(path, &raw)
}

// LoadSource parses a netlist description from an in-memory buffer. The
// filename is used for diagnostics only.
func LoadSource(filename string, src []byte) (*ast.Netlist, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse netlist %s: %w", filename, diags)
	}

	var raw netlistFile
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode netlist %s: %w", filename, diags)
	}
	return build(filename, &raw)
}

// builder links the translated modules together: cell targets, variable
// references, and task references all resolve by name.
type builder struct {
	loc     ast.Loc
	modules map[string]*ast.Module
	vars    map[*ast.Module]map[string]*ast.Var
	tasks   map[*ast.Module]map[string]*ast.TaskDef
}

func build(filename string, raw *netlistFile) (*ast.Netlist, error) {
	b := &builder{
		loc:     ast.Loc{File: filename},
		modules: make(map[string]*ast.Module),
		vars:    make(map[*ast.Module]map[string]*ast.Var),
		tasks:   make(map[*ast.Module]map[string]*ast.TaskDef),
	}

	nl := &ast.Netlist{Loc: b.loc}

	// First pass: create every module shell so references can link in any
	// order.
	for _, mb := range raw.Modules {
		if _, exists := b.modules[mb.Name]; exists {
			return nil, fmt.Errorf("%s: duplicate module %q", filename, mb.Name)
		}
		mod := &ast.Module{Loc: b.loc, Name: mb.Name, Top: mb.Top}
		switch mb.Kind {
		case "", "module":
		case "package":
			mod.Kind = ast.KindPackage
		default:
			return nil, fmt.Errorf("%s: module %q: unknown kind %q", filename, mb.Name, mb.Kind)
		}
		b.modules[mb.Name] = mod
		b.vars[mod] = make(map[string]*ast.Var)
		b.tasks[mod] = make(map[string]*ast.TaskDef)
		nl.Modules = append(nl.Modules, mod)
	}

	// Second pass: declarations, so cross-module references resolve
	// regardless of module order in the file.
	for _, mb := range raw.Modules {
		mod := b.modules[mb.Name]
		for _, vb := range mb.Vars {
			b.declareVar(mod, vb, false)
		}
		for _, tb := range mb.Tasks {
			b.declareTask(mod, tb)
		}
		for _, cb := range mb.Classes {
			cls := &ast.Module{Loc: b.loc, Name: cb.Name, Kind: ast.KindClass}
			b.modules[cb.Name] = cls
			b.vars[cls] = make(map[string]*ast.Var)
			b.tasks[cls] = make(map[string]*ast.TaskDef)
			for _, vb := range cb.Vars {
				b.declareVar(cls, vb, true)
			}
			for _, tb := range cb.Tasks {
				b.declareTask(cls, tb)
			}
			mod.Body = append(mod.Body, cls)
		}
	}

	// Third pass: bodies.
	for _, mb := range raw.Modules {
		if err := b.fillModule(b.modules[mb.Name], mb); err != nil {
			return nil, err
		}
	}

	return nl, nil
}

func (b *builder) declareVar(mod *ast.Module, vb *varBlock, classMember bool) {
	v := &ast.Var{
		Loc:         b.loc,
		Name:        vb.Name,
		IfaceRef:    vb.Iface,
		ClassMember: classMember || vb.ClassMember,
	}
	b.vars[mod][vb.Name] = v
	mod.Body = append(mod.Body, v)
}

func (b *builder) declareTask(mod *ast.Module, tb *taskBlock) {
	b.tasks[mod][tb.Name] = &ast.TaskDef{
		Loc:         b.loc,
		Name:        tb.Name,
		ClassMethod: tb.ClassMethod || mod.Kind == ast.KindClass,
	}
}

func (b *builder) fillModule(mod *ast.Module, mb *moduleBlock) error {
	for _, cb := range mb.Cells {
		target, ok := b.modules[cb.Module]
		if !ok {
			return fmt.Errorf("%s: module %q: cell %q references unknown module %q",
				b.loc.File, mod.Name, cb.Name, cb.Module)
		}
		cell := &ast.Cell{Loc: b.loc, Name: cb.Name, ModName: cb.Module, Mod: target}
		if cb.Trace != nil && !*cb.Trace {
			cell.NoTrace = true
		}
		mod.Body = append(mod.Body, cell)
	}

	for _, pb := range mb.Procs {
		proc, err := b.buildProcess(mod, pb)
		if err != nil {
			return err
		}
		mod.Body = append(mod.Body, proc)
	}

	for _, sb := range mb.Assigns {
		lhs, err := b.ref(mod, nil, sb.LHS)
		if err != nil {
			return err
		}
		var rhs ast.Expr
		if sb.RHS != "" {
			if rhs, err = b.ref(mod, nil, sb.RHS); err != nil {
				return err
			}
		} else if sb.Value != nil {
			rhs = &ast.Const{Loc: b.loc, Value: *sb.Value}
		}
		if sb.Alias {
			mod.Body = append(mod.Body, &ast.AssignAlias{Loc: b.loc, LHS: lhs, RHS: rhs})
		} else {
			mod.Body = append(mod.Body, &ast.AssignW{Loc: b.loc, LHS: lhs, RHS: rhs})
		}
	}

	for _, tb := range mb.Tasks {
		task, err := b.buildTask(mod, tb)
		if err != nil {
			return err
		}
		mod.Body = append(mod.Body, task)
	}

	// Class bodies, declared in the second pass.
	for _, st := range mod.Body {
		cls, ok := st.(*ast.Module)
		if !ok || cls.Kind != ast.KindClass {
			continue
		}
		if err := b.fillClass(cls, mb); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) fillClass(cls *ast.Module, mb *moduleBlock) error {
	for _, cb := range mb.Classes {
		if cb.Name != cls.Name {
			continue
		}
		for _, tb := range cb.Tasks {
			task, err := b.buildTask(cls, tb)
			if err != nil {
				return err
			}
			cls.Body = append(cls.Body, task)
		}
		for _, pb := range cb.Procs {
			proc, err := b.buildProcess(cls, pb)
			if err != nil {
				return err
			}
			cls.Body = append(cls.Body, proc)
		}
	}
	return nil
}

func (b *builder) buildProcess(mod *ast.Module, pb *processBlock) (*ast.Process, error) {
	proc := &ast.Process{Loc: b.loc, Name: pb.Name}
	switch pb.Kind {
	case "", "sequential":
		proc.Kind = ast.ProcSequential
	case "combinational":
		proc.Kind = ast.ProcCombinational
	case "initial":
		proc.Kind = ast.ProcInitial
	case "final":
		proc.Kind = ast.ProcFinal
	default:
		return nil, fmt.Errorf("%s: module %q: process %q: unknown kind %q",
			b.loc.File, mod.Name, pb.Name, pb.Kind)
	}

	body, err := b.buildBody(mod, nil, pb.Assigns, pb.Displays, pb.Calls)
	if err != nil {
		return nil, err
	}
	proc.Body = body
	return proc, nil
}

func (b *builder) buildTask(mod *ast.Module, tb *taskBlock) (*ast.TaskDef, error) {
	// The shell was created in the declaration pass so call sites in any
	// module can already link to it.
	task := b.tasks[mod][tb.Name]

	// Task locals shadow module variables inside the body.
	locals := make(map[string]*ast.Var)
	for _, vb := range tb.Vars {
		v := &ast.Var{Loc: b.loc, Name: vb.Name, IfaceRef: vb.Iface, ClassMember: vb.ClassMember}
		locals[vb.Name] = v
		task.Body = append(task.Body, v)
	}

	body, err := b.buildBody(mod, locals, tb.Assigns, tb.Displays, tb.Calls)
	if err != nil {
		return nil, err
	}
	task.Body = append(task.Body, body...)
	return task, nil
}

func (b *builder) buildBody(mod *ast.Module, locals map[string]*ast.Var,
	assigns []*stmtAssign, displays []*displayBlock, calls []*callBlock) ([]ast.Stmt, error) {

	var body []ast.Stmt
	for _, sb := range assigns {
		lhs, err := b.ref(mod, locals, sb.LHS)
		if err != nil {
			return nil, err
		}
		var rhs ast.Expr
		if sb.RHS != "" {
			if rhs, err = b.ref(mod, locals, sb.RHS); err != nil {
				return nil, err
			}
		} else if sb.Value != nil {
			rhs = &ast.Const{Loc: b.loc, Value: *sb.Value}
		}
		body = append(body, &ast.Assign{Loc: b.loc, LHS: lhs, RHS: rhs})
	}

	for _, db := range displays {
		disp := &ast.Display{Loc: b.loc, Format: db.Format}
		if strings.Contains(db.Format, "%m") {
			disp.Args = append(disp.Args, &ast.ScopeName{Loc: b.loc})
		}
		body = append(body, disp)
	}

	for _, cb := range calls {
		ref := &ast.TaskRef{Loc: b.loc, Name: cb.Task, Method: cb.Method}
		if cb.Package != "" {
			pkg, ok := b.modules[cb.Package]
			if !ok || pkg.Kind != ast.KindPackage {
				return nil, fmt.Errorf("%s: module %q: call references unknown package %q",
					b.loc.File, mod.Name, cb.Package)
			}
			task, ok := b.tasks[pkg][cb.Task]
			if !ok {
				return nil, fmt.Errorf("%s: module %q: call references unknown task %q in package %q",
					b.loc.File, mod.Name, cb.Task, cb.Package)
			}
			ref.Pkg = pkg
			ref.Task = task
		} else {
			ref.Task = b.tasks[mod][cb.Task]
		}
		body = append(body, &ast.ExprStmt{Loc: b.loc, X: ref})
	}

	return body, nil
}

// ref resolves a variable reference written as "name" or "Pkg::name".
func (b *builder) ref(mod *ast.Module, locals map[string]*ast.Var, name string) (ast.Expr, error) {
	if pkgName, varName, ok := strings.Cut(name, "::"); ok {
		pkg, found := b.modules[pkgName]
		if !found || pkg.Kind != ast.KindPackage {
			return nil, fmt.Errorf("%s: module %q: reference %q names unknown package %q",
				b.loc.File, mod.Name, name, pkgName)
		}
		v, found := b.vars[pkg][varName]
		if !found {
			return nil, fmt.Errorf("%s: module %q: reference %q: no variable %q in package %q",
				b.loc.File, mod.Name, name, varName, pkgName)
		}
		return &ast.VarRef{Loc: b.loc, Name: varName, Var: v, Pkg: pkg}, nil
	}

	if v, found := locals[name]; found {
		return &ast.VarRef{Loc: b.loc, Name: name, Var: v}, nil
	}
	if v, found := b.vars[mod][name]; found {
		return &ast.VarRef{Loc: b.loc, Name: name, Var: v}, nil
	}
	return nil, fmt.Errorf("%s: module %q: unknown variable %q", b.loc.File, mod.Name, name)
}
