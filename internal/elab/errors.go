package elab

import (
	"errors"
	"fmt"

	"github.com/ynivin/verilator/internal/ast"
)

// ErrNoTopModule is reported when the netlist has no hierarchy root. This
// is a user-level error: the pass produces no output and the driver stops
// the pipeline.
var ErrNoTopModule = errors.New("no top level module found")

// InternalError reports a broken invariant left by an upstream stage
// (unlinked references, missing scopes or storage cells). It identifies
// the offending node and is always fatal.
type InternalError struct {
	Loc ast.Loc
	Msg string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: internal error: %s", e.Loc, e.Msg)
}

func internalf(n ast.Node, format string, args ...any) error {
	return &InternalError{Loc: n.Where(), Msg: fmt.Sprintf(format, args...)}
}
