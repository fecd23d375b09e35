package scope

import (
	"monty/internal/ast"
	"monty/internal/source"
)

// Order selects how positions constrain candidate bindings.
type Order uint8

const (
	// Unordered returns every binding of the name regardless of position.
	Unordered Order = iota
	// FlowSensitive returns the single binding lexically nearest before the
	// requesting node. Defs, classes, imports and params are hoisted.
	FlowSensitive
)

func (o Order) String() string {
	if o == FlowSensitive {
		return "flow-sensitive"
	}
	return "unordered"
}

// Resolve looks target up from the scope that owns node at.
func (t *Table) Resolve(file source.FileID, at ast.NodeID, target source.SymbolRef, order Order) ([]Binding, error) {
	id := t.Enclosing(file, at)
	if !id.IsValid() {
		id = t.Module(file)
	}
	return t.Lookup(id, target, at, order)
}

// Lookup returns the candidate definitions of target visible from node at
// inside scope id. The current scope is searched first, then the enclosing
// scopes (class bodies are invisible to nested functions), then the builtins
// by textual match. No candidates yields *UndefinedError.
func (t *Table) Lookup(id ScopeID, target source.SymbolRef, at ast.NodeID, order Order) ([]Binding, error) {
	start := t.Get(id)
	if start == nil {
		return nil, t.undefined(target, nil, at)
	}
	pos := start.Tree.Span(at)
	var out []Binding
	reachedBuiltins := false
	enclosing := false
	for cur := id; cur.IsValid(); {
		s := t.Get(cur)
		if s.Kind == KindClass && enclosing {
			pos = s.Tree.Span(s.Root)
			cur = s.Parent
			continue
		}
		if cur == t.builtins {
			reachedBuiltins = true
		}
		out = s.candidates(target, pos, order, enclosing)
		if len(out) > 0 {
			break
		}
		pos = s.Tree.Span(s.Root)
		cur = s.Parent
		enclosing = true
	}
	if len(out) > 0 && order == FlowSensitive {
		return out, nil
	}
	if !reachedBuiltins {
		out = append(out, t.builtinCandidates(target)...)
	}
	if len(out) == 0 {
		return nil, t.undefined(target, start, at)
	}
	if order == FlowSensitive {
		out = out[:1]
	}
	return out, nil
}

func (s *Scope) candidates(target source.SymbolRef, pos source.Span, order Order, enclosing bool) []Binding {
	idxs := s.byName[target]
	if len(idxs) == 0 {
		return nil
	}
	if order == Unordered {
		out := make([]Binding, 0, len(idxs))
		for _, i := range idxs {
			out = append(out, s.bindings[i])
		}
		return out
	}
	best := -1
	for _, i := range idxs {
		b := s.bindings[i]
		if !b.Span.Precedes(pos) {
			continue
		}
		if best < 0 || b.Span.End > s.bindings[best].Span.End {
			best = i
		}
	}
	if best >= 0 {
		return []Binding{s.bindings[best]}
	}
	for _, i := range idxs {
		if s.bindings[i].hoisted() {
			return []Binding{s.bindings[i]}
		}
	}
	// a function body runs after the enclosing scope finished binding
	if enclosing {
		return []Binding{s.bindings[idxs[0]]}
	}
	return nil
}

func (t *Table) builtinCandidates(target source.SymbolRef) []Binding {
	s := t.Get(t.builtins)
	if s == nil {
		return nil
	}
	var out []Binding
	for i := range s.bindings {
		b := s.bindings[i]
		if !b.Name.SameText(target) {
			continue
		}
		orig := b
		out = append(out, Binding{
			Kind:    BindRenamed,
			Scope:   b.Scope,
			Node:    b.Node,
			Name:    target,
			Span:    b.Span,
			Index:   b.Index,
			Builtin: &orig,
		})
	}
	return out
}

func (t *Table) undefined(target source.SymbolRef, s *Scope, at ast.NodeID) *UndefinedError {
	err := &UndefinedError{Name: target, Node: at}
	if t.Symbols != nil {
		err.Text = t.Symbols.Text(target)
	}
	if s != nil {
		err.Span = s.Tree.Span(at)
	}
	return err
}
