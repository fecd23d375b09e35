package hlir

import (
	"monty/internal/source"
	"monty/internal/types"
)

// RibEntry is the first type bound to a variable within one sequence.
type RibEntry struct {
	Var  source.SymbolRef
	Type types.TypeID
	Span source.Span
}

// Rib maps variables to their first-bound type, in binding order.
type Rib struct {
	entries []RibEntry
	index   map[source.SymbolRef]int
}

func NewRib() *Rib {
	return &Rib{index: make(map[source.SymbolRef]int)}
}

// Bind records typ for v unless v is already bound. It returns the entry in
// effect after the call and whether this call created it. A rib never
// overwrites: deciding whether a differing type is an error is up to the caller.
func (r *Rib) Bind(v source.SymbolRef, typ types.TypeID, span source.Span) (RibEntry, bool) {
	if i, ok := r.index[v]; ok {
		return r.entries[i], false
	}
	r.index[v] = len(r.entries)
	e := RibEntry{Var: v, Type: typ, Span: span}
	r.entries = append(r.entries, e)
	return e, true
}

// Lookup returns the entry bound to v.
func (r *Rib) Lookup(v source.SymbolRef) (RibEntry, bool) {
	i, ok := r.index[v]
	if !ok {
		return RibEntry{}, false
	}
	return r.entries[i], true
}

// Has reports whether v is bound.
func (r *Rib) Has(v source.SymbolRef) bool {
	_, ok := r.index[v]
	return ok
}

// Entries returns the bindings in the order they were made.
func (r *Rib) Entries() []RibEntry { return r.entries }

// Len returns the number of bound variables.
func (r *Rib) Len() int { return len(r.entries) }
