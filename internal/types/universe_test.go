package types

import (
	"errors"
	"testing"

	"monty/internal/source"
)

func TestUniverseBuiltins(t *testing.T) {
	u := NewUniverse(nil)
	b := u.Builtins()
	if b.Int == NoTypeID || b.Bool == NoTypeID || b.Never == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	if b.Never == b.Unknown {
		t.Fatalf("never and unknown must be distinct")
	}
	if got := u.KindOf(b.Str); got != KindStr {
		t.Fatalf("expected str kind, got %v", got)
	}
	if u.Intern(Type{Kind: KindInt}) != b.Int {
		t.Fatalf("re-interning int produced a new id")
	}
}

func TestInternIdempotentForStructuralTypes(t *testing.T) {
	u := NewUniverse(nil)
	b := u.Builtins()
	name := u.Strings().Intern("f")

	tup1 := u.Tuple(b.Int, b.Str)
	tup2 := u.Tuple(b.Int, b.Str)
	if tup1 != tup2 {
		t.Fatalf("tuple types should be deduplicated")
	}
	if u.Tuple(b.Str, b.Int) == tup1 {
		t.Fatalf("member order must affect tuple identity")
	}

	args := []TypeID{b.Int}
	f1 := u.Func(FuncSig{Name: name, Args: args, Ret: b.Int})
	args[0] = b.Str // the universe must not alias the caller's slice
	f2 := u.Func(FuncSig{Name: name, Args: []TypeID{b.Int}, Ret: b.Int})
	if f1 != f2 {
		t.Fatalf("function types should be deduplicated")
	}
	sig, _ := u.FuncSig(f1)
	if sig.Args[0] != b.Int {
		t.Fatalf("signature was mutated through caller slice")
	}
	if u.Func(FuncSig{Name: name, Args: []TypeID{b.Int}, Ret: b.Str}) == f1 {
		t.Fatalf("return type must affect function identity")
	}
	before := u.Len()
	u.Tuple(b.Int, b.Str)
	u.Func(FuncSig{Name: name, Args: []TypeID{b.Int}, Ret: b.Int})
	if u.Len() != before {
		t.Fatalf("re-interning appended descriptors: %d -> %d", before, u.Len())
	}
}

func TestClassesAreNominal(t *testing.T) {
	strs := source.NewInterner()
	u := NewUniverse(strs)
	point := strs.Intern("Point")
	modA := strs.Intern("/src/a.py")
	modB := strs.Intern("/src/b.py")

	a1 := u.Class(point, modA)
	a2 := u.Class(point, modA)
	b1 := u.Class(point, modB)
	if a1 != a2 {
		t.Fatalf("same class declared twice got different ids")
	}
	if a1 == b1 {
		t.Fatalf("classes from different modules must not collide")
	}
	if got := u.Label(a1); got != "Point" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestPropertiesKeepFirstType(t *testing.T) {
	strs := source.NewInterner()
	u := NewUniverse(strs)
	b := u.Builtins()
	add := strs.Intern("__add__")
	fn := u.Func(FuncSig{Name: add, Receiver: b.Int, Args: []TypeID{b.Int}, Ret: b.Int})

	if !u.SetProperty(b.Int, add, fn) {
		t.Fatalf("first property record rejected")
	}
	if !u.SetProperty(b.Int, add, fn) {
		t.Fatalf("identical second record rejected")
	}
	if u.SetProperty(b.Int, add, b.Str) {
		t.Fatalf("conflicting record accepted")
	}
	if got, ok := u.Property(b.Int, add); !ok || got != fn {
		t.Fatalf("property lookup = %v, %v", got, ok)
	}
	if u.SetProperty(b.None, add, fn) {
		t.Fatalf("None must not carry properties")
	}
}

func TestUnifyCall(t *testing.T) {
	strs := source.NewInterner()
	u := NewUniverse(strs)
	b := u.Builtins()
	f := u.Func(FuncSig{Name: strs.Intern("f"), Args: []TypeID{b.Int}, Ret: b.Int})

	if err := u.UnifyCall(f, []TypeID{b.Int}); err != nil {
		t.Fatalf("matching call failed: %v", err)
	}

	var mm *CallMismatch
	err := u.UnifyCall(f, []TypeID{b.Str})
	if !errors.As(err, &mm) {
		t.Fatalf("expected CallMismatch, got %v", err)
	}
	if mm.Index != 0 || mm.Expected != b.Int || mm.Actual != b.Str || mm.Arity {
		t.Fatalf("unexpected mismatch %+v", mm)
	}

	err = u.UnifyCall(f, []TypeID{b.Int, b.Int})
	if !errors.As(err, &mm) || !mm.Arity || mm.Index != 1 || mm.Expected != NoTypeID || mm.Actual != b.Int {
		t.Fatalf("unexpected arity mismatch %+v (%v)", mm, err)
	}

	err = u.UnifyCall(f, nil)
	if !errors.As(err, &mm) || !mm.Arity || mm.Index != 0 || mm.Expected != b.Int {
		t.Fatalf("unexpected missing-arg mismatch %+v (%v)", mm, err)
	}

	var nc *NotCallableError
	if err := u.UnifyCall(b.Int, nil); !errors.As(err, &nc) {
		t.Fatalf("expected NotCallableError, got %v", err)
	}
}

func TestUnifyCallReportsFirstOffendingIndex(t *testing.T) {
	u := NewUniverse(nil)
	b := u.Builtins()
	f := u.Func(FuncSig{Args: []TypeID{b.Int, b.Str, b.Bool}, Ret: b.None})
	var mm *CallMismatch
	err := u.UnifyCall(f, []TypeID{b.Int, b.Int, b.Int})
	if !errors.As(err, &mm) || mm.Index != 1 {
		t.Fatalf("expected mismatch at 1, got %v", err)
	}
}

func TestUnifyFunc(t *testing.T) {
	strs := source.NewInterner()
	u := NewUniverse(strs)
	b := u.Builtins()
	eq := strs.Intern("__eq__")
	cls := u.Class(strs.Intern("C"), strs.Intern("m"))
	cand := u.Func(FuncSig{Name: eq, Receiver: cls, Args: []TypeID{b.Int}, Ret: b.Bool})

	if !u.UnifyFunc(cand, FuncSig{Name: eq, Args: []TypeID{b.Int}}) {
		t.Fatalf("expected match")
	}
	if u.UnifyFunc(cand, FuncSig{Name: strs.Intern("__ne__"), Args: []TypeID{b.Int}}) {
		t.Fatalf("name mismatch must not unify")
	}
	if u.UnifyFunc(cand, FuncSig{Name: eq, Args: []TypeID{b.Str}}) {
		t.Fatalf("argument mismatch must not unify")
	}
}

func TestLabels(t *testing.T) {
	strs := source.NewInterner()
	u := NewUniverse(strs)
	b := u.Builtins()
	cases := []struct {
		id   TypeID
		want string
	}{
		{b.Int, "int"},
		{b.None, "None"},
		{u.Tuple(b.Int, b.Bool), "tuple[int, bool]"},
		{u.Func(FuncSig{Name: strs.Intern("add"), Args: []TypeID{b.Int, b.Int}, Ret: b.Int}), "def add(int, int) -> int"},
		{u.Module(strs.Intern("os.path")), "module os.path"},
		{NoTypeID, "?"},
	}
	for _, tc := range cases {
		if got := u.Label(tc.id); got != tc.want {
			t.Fatalf("Label(%d) = %q, want %q", tc.id, got, tc.want)
		}
	}
}
