package interp

import (
	"monty/internal/ast"
	"monty/internal/source"
	"monty/internal/types"
)

// AllocID identifies a compile-time allocation. IDs increase monotonically
// and are never reused within a runtime; AllocID(0) is always invalid.
type AllocID uint64

// IsValid reports whether the id names an allocation.
func (id AllocID) IsValid() bool { return id != 0 }

// ObjectKind identifies the kind of compile-time object.
type ObjectKind uint8

const (
	ObjInvalid ObjectKind = iota
	ObjInstance
	ObjModule
	ObjString
	ObjInteger
	ObjFloat
	ObjBool
	ObjNone
	ObjEllipsis
	ObjTuple
	ObjDict
	ObjFunction
	ObjNative
	ObjBound
	ObjClass
)

var objectKindNames = [...]string{
	ObjInvalid:  "invalid",
	ObjInstance: "instance",
	ObjModule:   "module",
	ObjString:   "str",
	ObjInteger:  "int",
	ObjFloat:    "float",
	ObjBool:     "bool",
	ObjNone:     "None",
	ObjEllipsis: "ellipsis",
	ObjTuple:    "tuple",
	ObjDict:     "dict",
	ObjFunction: "function",
	ObjNative:   "builtin function",
	ObjBound:    "bound method",
	ObjClass:    "class",
}

func (k ObjectKind) String() string {
	if int(k) < len(objectKindNames) {
		return objectKindNames[k]
	}
	return "object(?)"
}

// NativeFn implements a builtin method. self is the receiver.
type NativeFn func(rt *Runtime, self AllocID, args []AllocID) (AllocID, error)

// Native is a builtin method with its static signature.
type Native struct {
	Name string
	Type types.TypeID
	Fn   NativeFn
}

// Function is a def evaluated at compile time.
type Function struct {
	Name    string
	Tree    *ast.Tree
	Node    ast.NodeID
	closure *frame
}

// ClassData describes a class object.
type ClassData struct {
	Name   string
	Module string
	Tree   *ast.Tree
	Node   ast.NodeID
	Extern bool
}

type dictEntry struct {
	Text  string
	Key   AllocID
	Value AllocID
}

// Dict is keyed by the FNV-1a hash of the key's text. Keys whose hashes
// collide share a bucket and are told apart by their text.
type Dict struct {
	items   []dictEntry
	buckets map[uint64][]int
}

func (d *Dict) set(hash uint64, text string, key, value AllocID) {
	if d.buckets == nil {
		d.buckets = make(map[uint64][]int)
	}
	for _, i := range d.buckets[hash] {
		if d.items[i].Text == text {
			d.items[i].Key, d.items[i].Value = key, value
			return
		}
	}
	d.buckets[hash] = append(d.buckets[hash], len(d.items))
	d.items = append(d.items, dictEntry{Text: text, Key: key, Value: value})
}

func (d *Dict) get(hash uint64, text string) (dictEntry, bool) {
	for _, i := range d.buckets[hash] {
		if d.items[i].Text == text {
			return d.items[i], true
		}
	}
	return dictEntry{}, false
}

// Len returns the number of entries.
func (d *Dict) Len() int { return len(d.items) }

// Object is a typed compile-time object. Only the fields of its Kind are
// meaningful.
type Object struct {
	ID   AllocID
	Kind ObjectKind
	Type types.TypeID
	// Class is the class object of an instance.
	Class AllocID

	Int   int64
	Float float64
	Str   string
	Bool  bool
	Items []AllocID

	Dict   *Dict
	Func   *Function
	Native *Native
	Self   AllocID // bound receiver
	Method AllocID // bound function
	Data   *ClassData
	// Path is the dotted name of a module object.
	Path string

	attrNames []source.StringID
	attrs     map[source.StringID]AllocID
}

// Attr returns attribute name of the object itself; class attributes of
// instances are not consulted.
func (o *Object) Attr(name source.StringID) (AllocID, bool) {
	v, ok := o.attrs[name]
	return v, ok
}

// SetAttr binds name on the object, keeping first-binding order.
func (o *Object) SetAttr(name source.StringID, v AllocID) {
	if o.attrs == nil {
		o.attrs = make(map[source.StringID]AllocID)
	}
	if _, ok := o.attrs[name]; !ok {
		o.attrNames = append(o.attrNames, name)
	}
	o.attrs[name] = v
}

// AttrNames returns the attribute names in binding order.
func (o *Object) AttrNames() []source.StringID { return o.attrNames }

// heap owns every allocation of a runtime.
type heap struct {
	next AllocID
	objs map[AllocID]*Object
}

func (h *heap) alloc(kind ObjectKind, typ types.TypeID) *Object {
	if h.objs == nil {
		h.objs = make(map[AllocID]*Object, 128)
	}
	h.next++
	obj := &Object{ID: h.next, Kind: kind, Type: typ}
	h.objs[obj.ID] = obj
	return obj
}

func (h *heap) get(id AllocID) (*Object, bool) {
	obj, ok := h.objs[id]
	return obj, ok
}

func (h *heap) len() int { return len(h.objs) }
