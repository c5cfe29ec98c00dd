package hclnet

import "github.com/zclconf/go-cty/cty"

// The HCL schema of a netlist description. Variable references are written
// by name, package-qualified as "Pkg::name".

type netlistFile struct {
	Modules []*moduleBlock `hcl:"module,block"`
}

type moduleBlock struct {
	Name    string          `hcl:"name,label"`
	Kind    string          `hcl:"kind,optional"` // "module" (default), "package"
	Top     bool            `hcl:"top,optional"`
	Vars    []*varBlock     `hcl:"var,block"`
	Cells   []*cellBlock    `hcl:"cell,block"`
	Procs   []*processBlock `hcl:"process,block"`
	Assigns []*assignBlock  `hcl:"assign,block"`
	Tasks   []*taskBlock    `hcl:"task,block"`
	Classes []*classBlock   `hcl:"class,block"`
}

type classBlock struct {
	Name  string          `hcl:"name,label"`
	Vars  []*varBlock     `hcl:"var,block"`
	Tasks []*taskBlock    `hcl:"task,block"`
	Procs []*processBlock `hcl:"process,block"`
}

type varBlock struct {
	Name        string `hcl:"name,label"`
	Iface       bool   `hcl:"iface,optional"`
	ClassMember bool   `hcl:"class_member,optional"`
}

type cellBlock struct {
	Name   string `hcl:"name,label"`
	Module string `hcl:"module"`
	Trace  *bool  `hcl:"trace,optional"`
}

type processBlock struct {
	Name     string          `hcl:"name,label"`
	Kind     string          `hcl:"kind,optional"` // "sequential" (default), "combinational", "initial", "final"
	Assigns  []*stmtAssign   `hcl:"assign,block"`
	Displays []*displayBlock `hcl:"display,block"`
	Calls    []*callBlock    `hcl:"call,block"`
}

type taskBlock struct {
	Name        string          `hcl:"name,label"`
	ClassMethod bool            `hcl:"class_method,optional"`
	Vars        []*varBlock     `hcl:"var,block"`
	Assigns     []*stmtAssign   `hcl:"assign,block"`
	Displays    []*displayBlock `hcl:"display,block"`
	Calls       []*callBlock    `hcl:"call,block"`
}

// assignBlock is a module-level continuous assignment (or alias).
type assignBlock struct {
	LHS   string     `hcl:"lhs"`
	RHS   string     `hcl:"rhs,optional"`
	Value *cty.Value `hcl:"value,optional"`
	Alias bool       `hcl:"alias,optional"`
}

// stmtAssign is a procedural assignment inside a process or task body.
type stmtAssign struct {
	LHS   string     `hcl:"lhs"`
	RHS   string     `hcl:"rhs,optional"`
	Value *cty.Value `hcl:"value,optional"`
}

type displayBlock struct {
	Format string `hcl:"format"`
}

type callBlock struct {
	Task    string `hcl:"task"`
	Package string `hcl:"package,optional"`
	Method  bool   `hcl:"method,optional"`
}
