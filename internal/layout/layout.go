package layout

import (
	"fortio.org/safecast"

	"monty/internal/types"
)

// TypeLayout is the ABI layout of a type for a specific Target.
type TypeLayout struct {
	Size  int
	Align int
}

// Layout describes a sequence of members placed one after another with
// natural alignment: a tuple body or a stack frame.
type Layout struct {
	Size    int
	Align   int
	Offsets []int
}

// Engine computes memory layout for types.
type Engine struct {
	Target Target
	Types  *types.Universe

	cache *cache
}

// New creates a new Engine for the specified target.
func New(target Target, universe *types.Universe) *Engine {
	return &Engine{
		Target: target,
		Types:  universe,
		cache:  newCache(),
	}
}

// TypeLayout computes and caches the layout of a value of type t.
// Tuples, strings, functions, classes and modules are heap references and
// occupy one pointer; use TupleLayout for the body of a tuple.
func (e *Engine) TypeLayout(t types.TypeID) (TypeLayout, error) {
	l, err := e.typeLayout(t)
	if err != nil {
		return l, err
	}
	return l, nil
}

func (e *Engine) typeLayout(t types.TypeID) (TypeLayout, *LayoutError) {
	if e.cache == nil {
		e.cache = newCache()
	}
	if cached, ok := e.cache.get(t); ok {
		return cached.Layout, cached.Err
	}
	l, err := e.compute(t)
	e.cache.put(t, cacheEntry{Layout: l, Err: err})
	return l, err
}

func (e *Engine) compute(t types.TypeID) (TypeLayout, *LayoutError) {
	tt, ok := e.Types.Lookup(t)
	if !ok {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnknownType, Type: t}
	}
	switch tt.Kind {
	case types.KindNone, types.KindEllipsis, types.KindNever:
		return TypeLayout{Size: 0, Align: 1}, nil
	case types.KindBool:
		return TypeLayout{Size: 1, Align: 1}, nil
	case types.KindInt, types.KindFloat:
		return TypeLayout{Size: 8, Align: 8}, nil
	case types.KindStr, types.KindFunc, types.KindClass, types.KindTuple, types.KindModule, types.KindType:
		return e.ptrLayout(), nil
	default:
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnsized, Type: t}
	}
}

func (e *Engine) ptrLayout() TypeLayout {
	return TypeLayout{Size: e.Target.PtrSize, Align: e.Target.PtrAlign}
}

// SizeOf returns the size of a type in bytes.
func (e *Engine) SizeOf(t types.TypeID) (int, error) {
	l, err := e.TypeLayout(t)
	return l.Size, err
}

// AlignOf returns the alignment requirement of a type in bytes.
func (e *Engine) AlignOf(t types.TypeID) (int, error) {
	l, err := e.TypeLayout(t)
	return l.Align, err
}

// LayoutOf places members sequentially: each offset is the running total
// rounded up to the member's alignment, and the total size is the final
// offset rounded up to the strictest alignment.
func (e *Engine) LayoutOf(members []types.TypeID) (Layout, error) {
	out := Layout{Align: 1, Offsets: make([]int, len(members))}
	off := 0
	for i, m := range members {
		ml, err := e.typeLayout(m)
		if err != nil {
			return Layout{}, &LayoutError{Kind: LayoutErrMember, Type: m, Index: i, Err: err}
		}
		off = roundUp(off, ml.Align)
		if _, err := displacement(off, m); err != nil {
			return Layout{}, err
		}
		out.Offsets[i] = off
		off += ml.Size
		out.Align = max(out.Align, ml.Align)
	}
	size, err := displacement(roundUp(off, out.Align), types.NoTypeID)
	if err != nil {
		return Layout{}, err
	}
	out.Size = int(size)
	return out, nil
}

// displacement checks that a byte offset fits the signed 32-bit
// displacement of a load or store.
func displacement(off int, t types.TypeID) (int32, *LayoutError) {
	d, err := safecast.Conv[int32](off)
	if err != nil {
		return 0, &LayoutError{Kind: LayoutErrTooLarge, Type: t, Index: off}
	}
	return d, nil
}

// TupleLayout returns the heap body layout of a tuple type.
func (e *Engine) TupleLayout(tuple types.TypeID) (Layout, error) {
	members, ok := e.Types.TupleMembers(tuple)
	if !ok {
		return Layout{}, &LayoutError{Kind: LayoutErrUnknownType, Type: tuple}
	}
	return e.LayoutOf(members)
}

// FieldOffset returns the byte offset of a tuple member.
func (e *Engine) FieldOffset(tuple types.TypeID, idx int) (int, error) {
	l, err := e.TupleLayout(tuple)
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx >= len(l.Offsets) {
		return 0, nil
	}
	return l.Offsets[idx], nil
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
