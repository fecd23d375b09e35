package interp_test

import (
	"testing"

	"monty/internal/interp"
)

func TestGraphStringsDeduplicated(t *testing.T) {
	g := interp.NewObjectGraph()
	a := g.AddString("hello", 0)
	b := g.AddString("hello", 0)
	c := g.AddString("world", 0)
	if a != b || a == c || g.Len() != 2 {
		t.Fatalf("strings must be shared by content: %d %d %d (len %d)", a, b, c, g.Len())
	}
}

func TestGraphInsertIdempotent(t *testing.T) {
	g := interp.NewObjectGraph()
	calls := 0
	describe := func() interp.Value { calls++; return interp.Value{Kind: interp.ValueInteger, Int: 7} }
	first := g.Insert(5, describe, nil)
	second := g.Insert(5, describe, nil)
	if first != second || calls != 1 {
		t.Fatalf("insert must memoize by allocation id")
	}
	if id, ok := g.AllocOf(first); !ok || id != 5 {
		t.Fatalf("node %d must map back to allocation 5", first)
	}
	if _, ok := g.AllocOf(g.AddNode(interp.Value{Kind: interp.ValueNone})); ok {
		t.Fatalf("plain nodes carry no allocation")
	}
}

func TestIntoValueBijection(t *testing.T) {
	e := preloaded(t)
	mod := e.exec(t, "class P:\n"+
		"    def __init__(self, x: int):\n"+
		"        self.x = x\n"+
		"        self.name = 'p'\n"+
		"        self.again = 'p'\n"+
		"p = P(3)\n"+
		"q = p\n"+
		"t = (1, p)\n")
	root := e.rt.IntoValue(mod)
	if again := e.rt.IntoValue(mod); again != root {
		t.Fatalf("IntoValue must be memoized: %d vs %d", root, again)
	}
	g := e.rt.Graph()
	seen := map[interp.AllocID]int{}
	for idx := 0; idx < g.Len(); idx++ {
		id, ok := g.AllocOf(idx)
		if !ok {
			continue
		}
		if prev, dup := seen[id]; dup {
			t.Fatalf("allocation %d materialized twice (%d, %d)", id, prev, idx)
		}
		seen[id] = idx
		if back, _ := g.IndexOf(id); back != idx {
			t.Fatalf("index map disagrees for allocation %d", id)
		}
	}
	p, _ := e.rt.ModuleMember("m", e.syms.Strings.Intern("p"))
	q, _ := e.rt.ModuleMember("m", e.syms.Strings.Intern("q"))
	if p != q {
		t.Fatalf("q must alias p")
	}
	pi, _ := g.IndexOf(p)
	strs := 0
	for _, edge := range g.EdgesFrom(pi) {
		if g.Node(edge.To).Kind == interp.ValueString && g.Node(edge.To).Str == "p" {
			strs++
			if pi2 := edge.To; pi2 != g.AddString("p", e.u.Builtins().Str) {
				t.Fatalf("string edges must share one node")
			}
		}
	}
	if strs != 2 {
		t.Fatalf("expected two edges to the shared string, got %d", strs)
	}
	order := g.ByAllocAsc()
	for i := 1; i < len(order); i++ {
		a, _ := g.AllocOf(order[i-1])
		b, _ := g.AllocOf(order[i])
		if a >= b {
			t.Fatalf("ByAllocAsc out of order at %d", i)
		}
	}
}

func TestHashStringIsFNV1a(t *testing.T) {
	// FNV-1a 64 offset basis for the empty string.
	if got := interp.HashString(""); got != 0xcbf29ce484222325 {
		t.Fatalf("empty hash: %#x", got)
	}
	if got := interp.HashString("a"); got != 0xaf63dc4c8601ec8c {
		t.Fatalf("hash of a: %#x", got)
	}
}

func TestMethodTypeReadsGraph(t *testing.T) {
	e := preloaded(t)
	b := e.u.Builtins()
	g := e.rt.Graph()
	if g.Len() != 0 {
		t.Fatalf("nothing is materialized before the first lookup")
	}
	add, ok := e.rt.MethodType(b.Int, e.syms.Strings.Intern("__add__"))
	if !ok {
		t.Fatalf("int.__add__ not found")
	}
	cls, _ := e.rt.ClassOf(b.Int)
	idx, ok := g.IndexOf(cls)
	if !ok || g.Node(idx).Kind != interp.ValueClass || !g.Node(idx).Native {
		t.Fatalf("the int class must be materialized as an extern class node")
	}
	m, ok := g.Member(idx, "__add__")
	if !ok || !g.Node(m).Native || g.Node(m).Type != add {
		t.Fatalf("__add__ edge: %+v", g.Node(m))
	}
	if _, ok := g.Member(idx, "__missing__"); ok {
		t.Fatalf("unknown labels must not resolve")
	}
	before := g.Len()
	if _, ok := e.rt.MethodType(b.Int, e.syms.Strings.Intern("__sub__")); !ok || g.Len() != before {
		t.Fatalf("a materialized class is reused")
	}
}
