package interp

import (
	"hash/fnv"
	"slices"

	"monty/internal/types"
)

// ValueKind classifies a node of the object graph.
type ValueKind uint8

const (
	ValueObject ValueKind = iota + 1
	ValueModule
	ValueString
	ValueInteger
	ValueFloat
	ValueBool
	ValueNone
	ValueEllipsis
	ValueTuple
	ValueDict
	ValueFunction
	ValueClass
)

var valueKindNames = [...]string{
	ValueObject:   "object",
	ValueModule:   "module",
	ValueString:   "str",
	ValueInteger:  "int",
	ValueFloat:    "float",
	ValueBool:     "bool",
	ValueNone:     "none",
	ValueEllipsis: "ellipsis",
	ValueTuple:    "tuple",
	ValueDict:     "dict",
	ValueFunction: "function",
	ValueClass:    "class",
}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) && k != 0 {
		return valueKindNames[k]
	}
	return "value(?)"
}

// Value is a node of the object graph: a compile-time object frozen into
// plain data for the backend.
type Value struct {
	Kind  ValueKind    `msgpack:"kind"`
	Type  types.TypeID `msgpack:"type"`
	Name  string       `msgpack:"name,omitempty"`
	Str   string       `msgpack:"str,omitempty"`
	Int   int64        `msgpack:"int,omitempty"`
	Float float64      `msgpack:"float,omitempty"`
	Bool  bool         `msgpack:"bool,omitempty"`
	// Native marks builtin functions and extern classes.
	Native bool `msgpack:"native,omitempty"`
}

// Edge is a labeled reference from one node to another.
type Edge struct {
	From  int    `msgpack:"from"`
	To    int    `msgpack:"to"`
	Label string `msgpack:"label"`
}

// ObjectGraph holds compile-time objects reachable from the values the
// backend needs. Each allocation enters the graph at most once; strings are
// shared by content.
type ObjectGraph struct {
	nodes   []Value
	edges   []Edge
	out     map[int][]int
	allocs  map[AllocID]int
	allocOf []AllocID
	strings map[uint64][]int
	hash    func(string) uint64
}

// NewObjectGraph returns an empty graph.
func NewObjectGraph() *ObjectGraph {
	return &ObjectGraph{
		out:     make(map[int][]int),
		allocs:  make(map[AllocID]int),
		strings: make(map[uint64][]int),
		hash:    HashString,
	}
}

// Len returns the number of nodes.
func (g *ObjectGraph) Len() int { return len(g.nodes) }

// Node returns node idx.
func (g *ObjectGraph) Node(idx int) Value { return g.nodes[idx] }

// Nodes returns every node in insertion order.
func (g *ObjectGraph) Nodes() []Value { return g.nodes }

// Edges returns every edge in insertion order.
func (g *ObjectGraph) Edges() []Edge { return g.edges }

// EdgesFrom returns the outgoing edges of idx.
func (g *ObjectGraph) EdgesFrom(idx int) []Edge {
	var out []Edge
	for _, i := range g.out[idx] {
		out = append(out, g.edges[i])
	}
	return out
}

// Member follows the edge labeled label out of idx.
func (g *ObjectGraph) Member(idx int, label string) (int, bool) {
	for _, i := range g.out[idx] {
		if g.edges[i].Label == label {
			return g.edges[i].To, true
		}
	}
	return 0, false
}

// AddNode appends a node that has no allocation behind it.
func (g *ObjectGraph) AddNode(v Value) int {
	g.nodes = append(g.nodes, v)
	g.allocOf = append(g.allocOf, 0)
	return len(g.nodes) - 1
}

// AddString returns the node holding s, adding it on first use. Strings
// whose hashes collide share a bucket.
func (g *ObjectGraph) AddString(s string, typ types.TypeID) int {
	h := g.hash(s)
	for _, idx := range g.strings[h] {
		if g.nodes[idx].Str == s {
			return idx
		}
	}
	idx := g.AddNode(Value{Kind: ValueString, Type: typ, Str: s})
	g.strings[h] = append(g.strings[h], idx)
	return idx
}

// AddEdge links from to to.
func (g *ObjectGraph) AddEdge(from, to int, label string) {
	g.out[from] = append(g.out[from], len(g.edges))
	g.edges = append(g.edges, Edge{From: from, To: to, Label: label})
}

// Insert returns the node of allocation id. On first insertion describe
// builds the node, which is registered before fill runs, so fill may
// reach id again through a cycle.
func (g *ObjectGraph) Insert(id AllocID, describe func() Value, fill func(idx int)) int {
	if idx, ok := g.allocs[id]; ok {
		return idx
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, describe())
	g.allocOf = append(g.allocOf, id)
	g.allocs[id] = idx
	if fill != nil {
		fill(idx)
	}
	return idx
}

// IndexOf returns the node of allocation id.
func (g *ObjectGraph) IndexOf(id AllocID) (int, bool) {
	idx, ok := g.allocs[id]
	return idx, ok
}

// AllocOf returns the allocation behind node idx, if any.
func (g *ObjectGraph) AllocOf(idx int) (AllocID, bool) {
	if idx < 0 || idx >= len(g.allocOf) || !g.allocOf[idx].IsValid() {
		return 0, false
	}
	return g.allocOf[idx], true
}

// ByAllocAsc returns the allocation-backed nodes ordered by allocation id.
func (g *ObjectGraph) ByAllocAsc() []int {
	ids := make([]AllocID, 0, len(g.allocs))
	for id := range g.allocs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = g.allocs[id]
	}
	return out
}

// HashString is the 64-bit FNV-1a hash of s.
func HashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
