package source

import (
	"strings"
	"testing"
)

func TestSymbolRefEquality(t *testing.T) {
	fs := NewFileSet()
	syms := NewSymbols(NewInterner(), fs)
	a := fs.AddVirtual("a.py", nil)
	b := fs.AddVirtual("b.py", nil)

	x1 := syms.Ref(a, "x")
	x2 := syms.Ref(a, "x")
	xb := syms.Ref(b, "x")
	if x1 != x2 {
		t.Fatal("same module, same name must be equal")
	}
	if x1 == xb {
		t.Fatal("refs from different modules must differ")
	}
	if !x1.SameText(xb) {
		t.Fatal("textual comparison must match across modules")
	}
	if syms.Text(xb) != "x" {
		t.Fatalf("Text = %q", syms.Text(xb))
	}
}

func TestMagicNames(t *testing.T) {
	fs := NewFileSet()
	syms := NewSymbols(NewInterner(), fs)
	add := syms.Magic("__add__")
	if add.File != syms.MagicFile() {
		t.Fatal("magic ref must live in the magic module")
	}
	src := string(fs.Get(syms.MagicFile()).Content)
	for _, want := range []string{"__add__\n", "__radd__\n", "__eq__\n", "c_int_p\n", "__value\n"} {
		if !strings.Contains(src, want) {
			t.Fatalf("magic module misses %q", want)
		}
	}
	if strings.Contains(src, "__req__") {
		t.Fatal("__eq__ has no reflected form")
	}
	if !IsDunder("__add__") || IsDunder("__value") {
		t.Fatal("IsDunder")
	}
}
