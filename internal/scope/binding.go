package scope

import (
	"monty/internal/ast"
	"monty/internal/source"
)

// BindingKind classifies what introduced a name.
type BindingKind uint8

const (
	BindInvalid BindingKind = iota
	BindAssign
	BindFunc
	BindClass
	BindImport
	BindParam
	// BindRenamed proxies a builtin found by textual match; type inference
	// delegates to Builtin while diagnostics use the local Name.
	BindRenamed
)

func (k BindingKind) String() string {
	switch k {
	case BindAssign:
		return "assign"
	case BindFunc:
		return "def"
	case BindClass:
		return "class"
	case BindImport:
		return "import"
	case BindParam:
		return "param"
	case BindRenamed:
		return "renamed"
	default:
		return "invalid"
	}
}

// Binding is one candidate definition of a name.
type Binding struct {
	Kind  BindingKind
	Scope ScopeID
	// Node is the defining statement: Assign, FuncDef, ClassDef, Import or
	// ImportFrom. Params carry the owning FuncDef.
	Node ast.NodeID
	Name source.SymbolRef
	Span source.Span
	// Index selects the parameter or the imported name within Node.
	Index int
	// Builtin is the original binding behind a BindRenamed proxy.
	Builtin *Binding
}

// IsRenamed reports whether b proxies a builtin.
func (b Binding) IsRenamed() bool { return b.Kind == BindRenamed }

// Origin follows renamed proxies to the binding that owns the definition.
func (b Binding) Origin() Binding {
	for b.Kind == BindRenamed && b.Builtin != nil {
		b = *b.Builtin
	}
	return b
}

// hoisted bindings are visible before their position in flow-sensitive mode.
func (b Binding) hoisted() bool {
	return b.Kind != BindAssign
}
