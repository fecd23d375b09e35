package parser

import (
	"testing"

	"monty/internal/ast"
	"monty/internal/diag"
	"monty/internal/source"
	"monty/internal/testkit"
)

func parseSource(t *testing.T, src string) (*ast.Tree, *source.Symbols, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	syms := source.NewSymbols(source.NewInterner(), fs)
	id := fs.AddVirtual("test.py", []byte(src))
	bag := diag.NewBag(0)
	res := ParseFile(fs.Get(id), syms, Options{Reporter: diag.BagReporter{Bag: bag}})
	return res.Tree, syms, bag
}

func dump(tree *ast.Tree, syms *source.Symbols) string {
	return tree.Dump(tree.Root, syms.Text)
}

func TestParseModule(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"add", "def add(a: int, b: int) -> int:\n    return a + b\n", "[(def add (a:int b:int) int [(return (+ a b))])]"},
		{"precedence", "x = 1 + 2 * 3 ** -1\n", "[(= x (+ 1 (* 2 (** 3 (- 1)))))]"},
		{"annotated", "y: str = 'a' 'b'\nz: int\n", `[(= y:str "ab") (= z:int _)]`},
		{"tuple", "t = 1, True, None\n", "[(= t (tuple [1 True None]))]"},
		{"not", "b = not a == c and d\n", "[(= b (and (not (== a c)) d))]"},
		{"ifexpr", "v = a if c else b\n", "[(= v (ifx c a b))]"},
		{"calls", "o.m(1)[0].f\n", "[(. (index (call (. o m) [1]) 0) f)]"},
		{"imports", "import a.b as c, d\nfrom x.y import (p, q as r)\n", "[(import a.b as c d) (from x.y import p q as r)]"},
		{"elif", "if a:\n    pass\nelif b:\n    x = 1\nelse:\n    x = 2\n", "[(if a [pass] [(if b [(= x 1)] [(= x 2)])])]"},
		{"while", "while x:\n    break\n    continue\n", "[(while x [break continue])]"},
		{"decorated", "@extern\nclass int:\n    def __add__(self, other: int) -> int: ...\n", "[(class int @[extern] [(def __add__ (self other:int) int [...])])]"},
		{"semicolons", "a = 1; b = 2\n", "[(= a 1) (= b 2)]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, syms, bag := parseSource(t, tt.src)
			if bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %+v", bag.Items())
			}
			if got := dump(tree, syms); got != tt.want {
				t.Fatalf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestParseErrorsRecover(t *testing.T) {
	tree, syms, bag := parseSource(t, "x = = 1\ny = 2\n1 = z\n")
	if bag.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %+v", bag.Items())
	}
	if bag.Items()[0].Code != diag.SynExpectExpression || bag.Items()[1].Code != diag.SynBadAssignTarget {
		t.Fatalf("codes: %v %v", bag.Items()[0].Code, bag.Items()[1].Code)
	}
	if got := dump(tree, syms); got != "[(= y 2)]" {
		t.Fatalf("recovered tree: %s", got)
	}
}

func TestParseMissingBlock(t *testing.T) {
	_, _, bag := parseSource(t, "def f():\nreturn 1\n")
	if bag.Len() == 0 || bag.Items()[0].Code != diag.SynExpectIndent {
		t.Fatalf("expected SynExpectIndent, got %+v", bag.Items())
	}
}

func TestSymbolsShareGroup(t *testing.T) {
	tree, _, _ := parseSource(t, "x = 1\ny = x\n")
	mod, _ := tree.Module(tree.Root)
	first, _ := tree.Assign(mod.Body[0])
	second, _ := tree.Assign(mod.Body[1])
	a, _ := tree.Name(first.Target)
	b, _ := tree.Name(second.Value)
	if a != b {
		t.Fatal("occurrences of the same name must share a symbol ref")
	}
}

func TestParseSpanInvariants(t *testing.T) {
	sources := []string{
		"x = 1\n",
		"import a.b\nfrom c import d as e\n\n@dec\ndef f(a: int, b: str) -> int:\n    if a:\n        return 1\n    elif b:\n        pass\n    else:\n        while a:\n            a = a - 1\n    return a\n",
		"class P:\n    x: int = 0\n    def m(self) -> int:\n        return self.x\n\ny = P().m() if True else (1, 2)[0]\n",
	}
	for _, src := range sources {
		fs := source.NewFileSet()
		syms := source.NewSymbols(source.NewInterner(), fs)
		id := fs.AddVirtual("spans.py", []byte(src))
		bag := diag.NewBag(0)
		res := ParseFile(fs.Get(id), syms, Options{Reporter: diag.BagReporter{Bag: bag}})
		if bag.HasErrors() {
			t.Fatalf("unexpected syntax errors in %q: %v", src, bag.Items())
		}
		if err := testkit.CheckSpanInvariants(res.Tree, fs.Get(id)); err != nil {
			t.Fatalf("%q: %v", src, err)
		}
	}
}
