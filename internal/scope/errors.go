package scope

import (
	"fmt"

	"monty/internal/ast"
	"monty/internal/source"
)

// UndefinedError reports a name with no binding in any visible scope.
type UndefinedError struct {
	Name source.SymbolRef
	Text string
	Node ast.NodeID
	Span source.Span
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("undefined variable %q", e.Text)
}
