package ast

import (
	"fmt"
	"io"
)

// DumpScopes writes a human-readable listing of every scope in the design
// to w: the dotted path, the module it instantiates, its storage cells,
// and the statements it owns.
func DumpScopes(w io.Writer, nl *Netlist) {
	for _, mod := range nl.Modules {
		dumpBody(w, mod.Body)
	}
}

func dumpBody(w io.Writer, body []Stmt) {
	for _, st := range body {
		switch n := st.(type) {
		case *TopScope:
			dumpScope(w, n.Scope, true)
		case *Scope:
			dumpScope(w, n, false)
		case *Module:
			dumpBody(w, n.Body)
		}
	}
}

func dumpScope(w io.Writer, s *Scope, top bool) {
	marker := ""
	if top {
		marker = " (top)"
	}
	fmt.Fprintf(w, "scope %s%s: %s %q\n", s.Name, marker, s.Mod.Kind, s.Mod.Name)
	for _, vs := range s.Vars {
		trace := "trace"
		if !vs.Trace {
			trace = "notrace"
		}
		fmt.Fprintf(w, "  var %s.%s [%s]%s\n", s.Name, vs.Var.Name, trace, clockerSuffix(vs.Var.Clocker))
	}
	for _, st := range s.Stmts {
		fmt.Fprintf(w, "  stmt %s\n", stmtLabel(st))
	}
}

func clockerSuffix(c Clocker) string {
	switch c {
	case ClockerYes:
		return " [clocker]"
	case ClockerNo:
		return " [no-clocker]"
	default:
		return ""
	}
}

func stmtLabel(st Stmt) string {
	switch n := st.(type) {
	case *Process:
		return fmt.Sprintf("process %q", n.Name)
	case *TaskDef:
		return fmt.Sprintf("task %q", n.Name)
	case *AssignW:
		return "assignw"
	case *AssignAlias:
		return "alias"
	case *AssignVarScope:
		return "assignvarscope"
	case *AlwaysPublic:
		return "public"
	case *CoverToggle:
		return "covertoggle"
	default:
		return fmt.Sprintf("%T", st)
	}
}
