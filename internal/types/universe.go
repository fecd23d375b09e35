package types

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"monty/internal/source"
)

// Builtins stores TypeIDs for the primitive types.
type Builtins struct {
	Invalid  TypeID
	Unknown  TypeID
	Never    TypeID
	Int      TypeID
	Float    TypeID
	Str      TypeID
	Bool     TypeID
	None     TypeID
	Ellipsis TypeID
	Type     TypeID
}

// FuncSig describes a function type. Args never include the receiver:
// a method bound through attribute access is called with Args only.
type FuncSig struct {
	Name     source.StringID
	Receiver TypeID
	Args     []TypeID
	Ret      TypeID
}

// ClassInfo stores the nominal identity of a class type.
type ClassInfo struct {
	Name   source.StringID
	Module source.StringID
}

type classKey struct {
	name   source.StringID
	module source.StringID
}

// Universe interns type descriptors: structurally equal descriptors share one
// TypeID and nominal classes are keyed by (name, module).
type Universe struct {
	strings *source.Interner

	types    []Type
	index    map[typeKey]TypeID
	shapes   map[string]TypeID
	classIdx map[classKey]TypeID
	modIdx   map[source.StringID]TypeID
	builtins Builtins

	tuples  [][]TypeID
	funcs   []FuncSig
	classes []ClassInfo
	modules []source.StringID

	props map[TypeID]map[source.StringID]TypeID
}

// NewUniverse constructs a universe seeded with the primitive types.
func NewUniverse(strs *source.Interner) *Universe {
	if strs == nil {
		strs = source.NewInterner()
	}
	u := &Universe{
		strings:  strs,
		index:    make(map[typeKey]TypeID, 64),
		shapes:   make(map[string]TypeID, 32),
		classIdx: make(map[classKey]TypeID),
		modIdx:   make(map[source.StringID]TypeID),
		props:    make(map[TypeID]map[source.StringID]TypeID),
	}
	// reserve slot 0 of every side table as the invalid sentinel
	u.tuples = append(u.tuples, nil)
	u.funcs = append(u.funcs, FuncSig{})
	u.classes = append(u.classes, ClassInfo{})
	u.modules = append(u.modules, source.NoStringID)

	u.builtins.Invalid = u.internRaw(Type{Kind: KindInvalid})
	u.builtins.Unknown = u.Intern(Type{Kind: KindUnknown})
	u.builtins.Never = u.Intern(Type{Kind: KindNever})
	u.builtins.Int = u.Intern(Type{Kind: KindInt})
	u.builtins.Float = u.Intern(Type{Kind: KindFloat})
	u.builtins.Str = u.Intern(Type{Kind: KindStr})
	u.builtins.Bool = u.Intern(Type{Kind: KindBool})
	u.builtins.None = u.Intern(Type{Kind: KindNone})
	u.builtins.Ellipsis = u.Intern(Type{Kind: KindEllipsis})
	u.builtins.Type = u.Intern(Type{Kind: KindType})
	return u
}

// Builtins returns TypeIDs for primitive types.
func (u *Universe) Builtins() Builtins {
	return u.builtins
}

// Strings exposes the interner used for type and property names.
func (u *Universe) Strings() *source.Interner {
	return u.strings
}

// Len returns the number of interned types including the invalid sentinel.
func (u *Universe) Len() int {
	return len(u.types)
}

// Intern ensures the provided descriptor has a stable TypeID.
// Structural kinds must be built through Tuple, Func, Class or Module.
func (u *Universe) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := u.index[key]; ok {
		return id
	}
	if !t.Kind.IsPrimitive() {
		panic(fmt.Errorf("types: %s must be interned through its constructor", t.Kind))
	}
	return u.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (u *Universe) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(u.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	u.types = append(u.types, t)
	u.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (u *Universe) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(u.types) {
		return Type{}, false
	}
	return u.types[id], true
}

// MustLookup panics when id is invalid.
func (u *Universe) MustLookup(id TypeID) Type {
	tt, ok := u.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// KindOf returns the kind of id, KindInvalid for unknown ids.
func (u *Universe) KindOf(id TypeID) Kind {
	tt, _ := u.Lookup(id)
	return tt.Kind
}

// Tuple interns the tuple of the given members.
func (u *Universe) Tuple(members ...TypeID) TypeID {
	var b strings.Builder
	b.WriteString("t")
	writeIDs(&b, members)
	if id, ok := u.shapes[b.String()]; ok {
		return id
	}
	u.tuples = append(u.tuples, slices.Clone(members))
	id := u.internRaw(Type{Kind: KindTuple, Payload: slot(len(u.tuples)-1, "tuple")})
	u.shapes[b.String()] = id
	return id
}

// TupleMembers returns the member types of a tuple TypeID.
func (u *Universe) TupleMembers(id TypeID) ([]TypeID, bool) {
	tt, ok := u.Lookup(id)
	if !ok || tt.Kind != KindTuple || int(tt.Payload) >= len(u.tuples) {
		return nil, false
	}
	return u.tuples[tt.Payload], true
}

// Func interns a function type. Two signatures with the same name,
// receiver, arguments and return type share one TypeID.
func (u *Universe) Func(sig FuncSig) TypeID {
	var b strings.Builder
	b.WriteString("f")
	b.WriteString(strconv.FormatUint(uint64(sig.Name), 10))
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(uint64(sig.Receiver), 10))
	writeIDs(&b, sig.Args)
	b.WriteString("->")
	b.WriteString(strconv.FormatUint(uint64(sig.Ret), 10))
	if id, ok := u.shapes[b.String()]; ok {
		return id
	}
	sig.Args = slices.Clone(sig.Args)
	u.funcs = append(u.funcs, sig)
	id := u.internRaw(Type{Kind: KindFunc, Payload: slot(len(u.funcs)-1, "func")})
	u.shapes[b.String()] = id
	return id
}

// FuncSig returns the signature of a function TypeID.
func (u *Universe) FuncSig(id TypeID) (FuncSig, bool) {
	tt, ok := u.Lookup(id)
	if !ok || tt.Kind != KindFunc || int(tt.Payload) >= len(u.funcs) {
		return FuncSig{}, false
	}
	return u.funcs[tt.Payload], true
}

// Class returns the nominal class type declared as name in module.
func (u *Universe) Class(name, module source.StringID) TypeID {
	key := classKey{name: name, module: module}
	if id, ok := u.classIdx[key]; ok {
		return id
	}
	u.classes = append(u.classes, ClassInfo{Name: name, Module: module})
	id := u.internRaw(Type{Kind: KindClass, Payload: slot(len(u.classes)-1, "class")})
	u.classIdx[key] = id
	return id
}

// ClassInfo returns the nominal identity of a class TypeID.
func (u *Universe) ClassInfo(id TypeID) (ClassInfo, bool) {
	tt, ok := u.Lookup(id)
	if !ok || tt.Kind != KindClass || int(tt.Payload) >= len(u.classes) {
		return ClassInfo{}, false
	}
	return u.classes[tt.Payload], true
}

// Module returns the type of the module object registered under path.
func (u *Universe) Module(path source.StringID) TypeID {
	if id, ok := u.modIdx[path]; ok {
		return id
	}
	u.modules = append(u.modules, path)
	id := u.internRaw(Type{Kind: KindModule, Payload: slot(len(u.modules)-1, "module")})
	u.modIdx[path] = id
	return id
}

// ModulePath returns the path of a module TypeID.
func (u *Universe) ModulePath(id TypeID) (source.StringID, bool) {
	tt, ok := u.Lookup(id)
	if !ok || tt.Kind != KindModule || int(tt.Payload) >= len(u.modules) {
		return source.NoStringID, false
	}
	return u.modules[tt.Payload], true
}

// SetProperty records the type of a named property on a class or primitive
// type. A property keeps the first type recorded for it; a conflicting
// second record returns false.
func (u *Universe) SetProperty(owner TypeID, name source.StringID, typ TypeID) bool {
	if !u.KindOf(owner).HasProperties() {
		return false
	}
	table := u.props[owner]
	if table == nil {
		table = make(map[source.StringID]TypeID)
		u.props[owner] = table
	}
	if prev, ok := table[name]; ok {
		return prev == typ
	}
	table[name] = typ
	return true
}

// Property returns the type of a named property of owner.
func (u *Universe) Property(owner TypeID, name source.StringID) (TypeID, bool) {
	typ, ok := u.props[owner][name]
	return typ, ok
}

// Properties returns the property names of owner in a stable order.
func (u *Universe) Properties(owner TypeID) []source.StringID {
	names := slices.Collect(maps.Keys(u.props[owner]))
	slices.Sort(names)
	return names
}

func writeIDs(b *strings.Builder, ids []TypeID) {
	b.WriteByte('(')
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	b.WriteByte(')')
}

func slot(n int, what string) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("%s info overflow: %w", what, err))
	}
	return v
}
