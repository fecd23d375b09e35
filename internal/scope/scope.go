package scope

import (
	"monty/internal/ast"
	"monty/internal/source"
)

// Kind enumerates supported scope categories.
type Kind uint8

const (
	KindInvalid  Kind = iota
	KindModule        // top-level statements of one file
	KindFunction      // def body, parameters included
	KindClass         // class body
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	default:
		return "invalid"
	}
}

// Scope is built once per module, def and class and never changes afterwards.
// Nodes lists every node of the body in pre-order; nested defs and classes
// appear as single nodes, their bodies belong to child scopes.
type Scope struct {
	Kind   Kind
	Parent ScopeID
	Root   ast.NodeID
	Module source.FileID
	Tree   *ast.Tree
	Nodes  []ast.NodeID
	Params []ast.Param

	bindings []Binding
	byName   map[source.SymbolRef][]int
	children []ScopeID
}

// Bindings returns every binding declared directly in the scope, in source order.
func (s *Scope) Bindings() []Binding {
	return s.bindings
}

// Children returns the scopes of defs and classes nested in this scope.
func (s *Scope) Children() []ScopeID {
	return s.children
}

// ContainsAnnotations reports whether an annotated assignment in a module
// or class body declares name. Function scopes never answer true.
func (s *Scope) ContainsAnnotations(name source.SymbolRef) bool {
	if s.Kind == KindFunction {
		return false
	}
	for _, idx := range s.byName[name] {
		b := s.bindings[idx]
		if b.Kind != BindAssign {
			continue
		}
		if data, ok := s.Tree.Assign(b.Node); ok && data.Annotation.IsValid() {
			return true
		}
	}
	return false
}
