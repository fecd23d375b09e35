package layout_test

import (
	"errors"
	"slices"
	"testing"

	"monty/internal/layout"
	"monty/internal/types"
)

func newEngine() (*layout.Engine, types.Builtins, *types.Universe) {
	u := types.NewUniverse(nil)
	return layout.New(layout.X86_64LinuxGNU(), u), u.Builtins(), u
}

func TestLayoutOfIntBoolInt(t *testing.T) {
	e, b, _ := newEngine()
	for range 3 {
		l, err := e.LayoutOf([]types.TypeID{b.Int, b.Bool, b.Int})
		if err != nil {
			t.Fatalf("LayoutOf: %v", err)
		}
		if l.Size != 24 || l.Align != 8 {
			t.Fatalf("unexpected size/align %d/%d", l.Size, l.Align)
		}
		if !slices.Equal(l.Offsets, []int{0, 8, 16}) {
			t.Fatalf("unexpected offsets %v", l.Offsets)
		}
	}
}

func TestLayoutOffsetsNonDecreasingForPermutations(t *testing.T) {
	e, b, _ := newEngine()
	prims := []types.TypeID{b.Int, b.Bool, b.Float, b.Str, b.None}
	var perms [][]types.TypeID
	var rec func(cur []types.TypeID, used []bool)
	rec = func(cur []types.TypeID, used []bool) {
		if len(cur) == len(prims) {
			perms = append(perms, slices.Clone(cur))
			return
		}
		for i, p := range prims {
			if used[i] {
				continue
			}
			used[i] = true
			rec(append(cur, p), used)
			used[i] = false
		}
	}
	rec(nil, make([]bool, len(prims)))

	for _, members := range perms {
		l1, err := e.LayoutOf(members)
		if err != nil {
			t.Fatalf("LayoutOf(%v): %v", members, err)
		}
		l2, _ := e.LayoutOf(members)
		if !slices.Equal(l1.Offsets, l2.Offsets) || l1.Size != l2.Size {
			t.Fatalf("layout not deterministic for %v", members)
		}
		end := 0
		for i, m := range members {
			if l1.Offsets[i] < end {
				t.Fatalf("member %d of %v overlaps previous: %v", i, members, l1.Offsets)
			}
			size, _ := e.SizeOf(m)
			align, _ := e.AlignOf(m)
			if l1.Offsets[i]%align != 0 {
				t.Fatalf("member %d misaligned in %v", i, l1.Offsets)
			}
			end = l1.Offsets[i] + size
		}
		if l1.Size < end || l1.Size%l1.Align != 0 {
			t.Fatalf("bad total size %d for %v", l1.Size, members)
		}
	}
}

func TestReferenceTypesArePointerSized(t *testing.T) {
	e, b, u := newEngine()
	for _, id := range []types.TypeID{b.Str, u.Tuple(b.Int, b.Int), b.Type} {
		size, err := e.SizeOf(id)
		if err != nil || size != 8 {
			t.Fatalf("SizeOf(%s) = %d, %v", u.Label(id), size, err)
		}
	}
	tl, err := e.TupleLayout(u.Tuple(b.Bool, b.Int))
	if err != nil || tl.Size != 16 || tl.Offsets[1] != 8 {
		t.Fatalf("unexpected tuple body layout %+v, %v", tl, err)
	}
}

func TestUnsizedTypesFail(t *testing.T) {
	e, b, _ := newEngine()
	var lerr *layout.LayoutError
	if _, err := e.SizeOf(b.Unknown); !errors.As(err, &lerr) || lerr.Kind != layout.LayoutErrUnsized {
		t.Fatalf("expected unsized error, got %v", err)
	}
	_, err := e.LayoutOf([]types.TypeID{b.Int, b.Unknown})
	if !errors.As(err, &lerr) || lerr.Kind != layout.LayoutErrMember || lerr.Index != 1 {
		t.Fatalf("expected member error at 1, got %v", err)
	}
	if _, err := e.SizeOf(types.TypeID(9999)); !errors.As(err, &lerr) || lerr.Kind != layout.LayoutErrUnknownType {
		t.Fatalf("expected unknown type error, got %v", err)
	}
}
