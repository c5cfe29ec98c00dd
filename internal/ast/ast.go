// Package ast defines the module-instantiation graph the elaboration stage
// operates on: reusable module templates, the cells that instantiate them,
// and the flattened Scope / VarScope nodes the stage produces.
package ast

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Loc identifies where a node originated, for diagnostics.
type Loc struct {
	File string
	Line int
}

func (l Loc) String() string {
	if l.File == "" {
		return "<builtin>"
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Node is implemented by every tree node.
type Node interface {
	Where() Loc
}

// Stmt is a node that can appear in a module, scope, or block body.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is a node that can appear at a use site inside a statement.
type Expr interface {
	Node
	exprNode()
}

// ModuleKind distinguishes ordinary modules from the container kinds that
// elaborate specially.
type ModuleKind int

const (
	KindModule ModuleKind = iota
	// KindPackage containers are not instanced; exactly one Scope exists
	// per package regardless of how many cells reference it.
	KindPackage
	// KindClass containers elaborate to a single Scope; their methods are
	// moved rather than cloned.
	KindClass
)

func (k ModuleKind) String() string {
	switch k {
	case KindPackage:
		return "package"
	case KindClass:
		return "class"
	default:
		return "module"
	}
}

// Clocker is the clock-classification tag applied to variables from the
// global option name lists.
type Clocker int

const (
	ClockerUnknown Clocker = iota
	ClockerYes
	ClockerNo
)

// ProcKind is the flavor of a behavioral process block.
type ProcKind int

const (
	ProcSequential ProcKind = iota
	ProcCombinational
	ProcInitial
	ProcFinal
)

// Netlist is the root of the design tree.
type Netlist struct {
	Loc     Loc
	Modules []*Module
}

// TopModule returns the module marked as the hierarchy root, or nil.
func (n *Netlist) TopModule() *Module {
	for _, m := range n.Modules {
		if m.Top {
			return m
		}
	}
	return nil
}

// Module is a reusable behavioral template. One Module may be instantiated
// by any number of cells; elaboration attaches one Scope per instantiation
// path into its body. Class containers also appear as statements nested in
// another module's body.
type Module struct {
	Loc  Loc
	Name string
	Kind ModuleKind
	Top  bool
	Body []Stmt
}

// Cell instantiates a target module inside the enclosing module's body.
// The cell does not own its target; Mod is a link resolved by an earlier
// stage and must be non-nil by elaboration time.
type Cell struct {
	Loc     Loc
	Name    string
	ModName string
	Mod     *Module
	// NoTrace excludes the instantiated subtree from waveform tracing.
	NoTrace bool
}

// CellInline marks a cell flattened away by an earlier inlining stage.
// Elaboration stamps the owning Scope on it.
type CellInline struct {
	Loc   Loc
	Name  string
	Scope *Scope
}

// Scope is the physical realization of one (module, instantiation path)
// pair. It owns relocated copies of the template's behavioral statements
// and the per-instance storage cells of its variables. Scopes are attached
// as statements into their module's body.
type Scope struct {
	Loc   Loc
	Name  string // dotted path, e.g. "TOP.a.b"
	Mod   *Module
	Above *Scope // scope of the instantiating module, nil for TOP
	Cell  *Cell  // instantiating cell, nil for TOP
	Stmts []Stmt
	Vars  []*VarScope
}

// TopScope wraps the root Scope so later stages can identify the
// elaboration root.
type TopScope struct {
	Loc   Loc
	Scope *Scope
}

// Var is a variable declaration inside a module, task, or class body.
// Declarations stay in the template; storage lives in per-scope VarScope
// cells.
type Var struct {
	Loc  Loc
	Name string
	// IfaceRef marks interface-backed variables whose storage is managed
	// by the interface subsystem, not by a VarScope.
	IfaceRef bool
	// ClassMember keeps package-qualified references to this variable
	// bound to the referencing scope instead of the package scope.
	ClassMember bool
	Clocker     Clocker
}

// VarScope is the storage instance of one variable in one scope. Exactly
// one exists per (Var, Scope) pair.
type VarScope struct {
	Loc   Loc
	Var   *Var
	Scope *Scope
	Trace bool
}

// VarRef is a use site of a variable. Before elaboration it carries only
// the Var link (and an optional package qualifier); elaboration binds it
// to a VarScope. Bound with a nil VarScope records the interface case,
// where storage is deliberately absent.
type VarRef struct {
	Loc      Loc
	Name     string
	Var      *Var
	Pkg      *Module
	VarScope *VarScope
	Bound    bool
}

// VarXRef is a dotted cross-module variable reference. Its resolution
// belongs to the downstream linking stage; cleanup severs the Var link so
// linking rebinds against the flattened tree.
type VarXRef struct {
	Loc    Loc
	Name   string
	Dotted string
	Var    *Var
}

// TaskDef is a task or function definition.
type TaskDef struct {
	Loc  Loc
	Name string
	// ClassMethod definitions are moved into their single class scope
	// instead of cloned per instantiation.
	ClassMethod bool
	Body        []Stmt
}

// TaskRef is a task or function call site.
type TaskRef struct {
	Loc  Loc
	Name string
	Task *TaskDef
	Pkg  *Module
	// Method marks a method-call form, which keeps its task link through
	// cleanup.
	Method bool
	Args   []Expr
}

// ModportTaskRef is a task reference through an interface modport; always
// resolved by the linking stage.
type ModportTaskRef struct {
	Loc  Loc
	Name string
	Task *TaskDef
}

// Process is a behavioral block (always_ff, always_comb, initial, final).
type Process struct {
	Loc  Loc
	Name string
	Kind ProcKind
	Body []Stmt
}

// AssignW is a continuous assignment.
type AssignW struct {
	Loc Loc
	LHS Expr
	RHS Expr
}

// AssignAlias aliases two signals.
type AssignAlias struct {
	Loc Loc
	LHS Expr
	RHS Expr
}

// AssignVarScope pre-binds a variable-scope connection made by an earlier
// inlining stage.
type AssignVarScope struct {
	Loc Loc
	LHS Expr
	RHS Expr
}

// AlwaysPublic marks a block kept visible for external access.
type AlwaysPublic struct {
	Loc  Loc
	Body []Stmt
}

// CoverToggle is a toggle-coverage marker on one variable.
type CoverToggle struct {
	Loc Loc
	Ref *VarRef
}

// Assign is a procedural assignment inside a process or task body.
type Assign struct {
	Loc Loc
	LHS Expr
	RHS Expr
}

// ExprStmt hosts an expression, typically a task call, in statement
// position.
type ExprStmt struct {
	Loc Loc
	X   Expr
}

// Display is a formatted output statement. ScopeName arguments splice the
// enclosing scope's dotted path into the output.
type Display struct {
	Loc    Loc
	Format string
	Args   []Expr
}

// ScopeName is the %m marker inside display text. Elaboration prepends a
// Text fragment holding the scope's path to both fragment lists,
// preserving any pre-existing fragments after it.
type ScopeName struct {
	Loc   Loc
	Attr  []*Text
	Entry []*Text
}

// Text is a literal text fragment.
type Text struct {
	Loc  Loc
	Text string
}

// Const is a literal value.
type Const struct {
	Loc   Loc
	Value cty.Value
}

func (n *Netlist) Where() Loc        { return n.Loc }
func (n *Module) Where() Loc         { return n.Loc }
func (n *Cell) Where() Loc           { return n.Loc }
func (n *CellInline) Where() Loc     { return n.Loc }
func (n *Scope) Where() Loc          { return n.Loc }
func (n *TopScope) Where() Loc       { return n.Loc }
func (n *Var) Where() Loc            { return n.Loc }
func (n *VarScope) Where() Loc       { return n.Loc }
func (n *VarRef) Where() Loc         { return n.Loc }
func (n *VarXRef) Where() Loc        { return n.Loc }
func (n *TaskDef) Where() Loc        { return n.Loc }
func (n *TaskRef) Where() Loc        { return n.Loc }
func (n *ModportTaskRef) Where() Loc { return n.Loc }
func (n *Process) Where() Loc        { return n.Loc }
func (n *AssignW) Where() Loc        { return n.Loc }
func (n *AssignAlias) Where() Loc    { return n.Loc }
func (n *AssignVarScope) Where() Loc { return n.Loc }
func (n *AlwaysPublic) Where() Loc   { return n.Loc }
func (n *CoverToggle) Where() Loc    { return n.Loc }
func (n *Assign) Where() Loc         { return n.Loc }
func (n *ExprStmt) Where() Loc       { return n.Loc }
func (n *Display) Where() Loc        { return n.Loc }
func (n *ScopeName) Where() Loc      { return n.Loc }
func (n *Text) Where() Loc           { return n.Loc }
func (n *Const) Where() Loc          { return n.Loc }

func (*Module) stmtNode()         {}
func (*Cell) stmtNode()           {}
func (*CellInline) stmtNode()     {}
func (*Scope) stmtNode()          {}
func (*TopScope) stmtNode()       {}
func (*Var) stmtNode()            {}
func (*TaskDef) stmtNode()        {}
func (*Process) stmtNode()        {}
func (*AssignW) stmtNode()        {}
func (*AssignAlias) stmtNode()    {}
func (*AssignVarScope) stmtNode() {}
func (*AlwaysPublic) stmtNode()   {}
func (*CoverToggle) stmtNode()    {}
func (*Assign) stmtNode()         {}
func (*ExprStmt) stmtNode()       {}
func (*Display) stmtNode()        {}

func (*VarRef) exprNode()         {}
func (*VarXRef) exprNode()        {}
func (*TaskRef) exprNode()        {}
func (*ModportTaskRef) exprNode() {}
func (*ScopeName) exprNode()      {}
func (*Text) exprNode()           {}
func (*Const) exprNode()          {}
