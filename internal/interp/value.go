package interp

import (
	"strconv"
)

// IntoValue materializes an allocation and everything it references into
// the object graph and returns its node index. Repeated calls return the
// same index; strings are shared by content.
func (rt *Runtime) IntoValue(id AllocID) int {
	obj, ok := rt.heap.get(id)
	if !ok {
		return rt.graph.AddNode(Value{Kind: ValueNone, Type: rt.b.None})
	}
	if obj.Kind == ObjString {
		return rt.graph.AddString(obj.Str, obj.Type)
	}
	return rt.graph.Insert(id, func() Value { return rt.freeze(obj) }, func(idx int) {
		rt.link(obj, idx)
	})
}

// freeze describes the scalar part of an object.
func (rt *Runtime) freeze(obj *Object) Value {
	v := Value{Type: obj.Type}
	switch obj.Kind {
	case ObjInstance:
		v.Kind = ValueObject
	case ObjModule:
		v.Kind = ValueModule
		v.Name = obj.Path
	case ObjInteger:
		v.Kind = ValueInteger
		v.Int = obj.Int
	case ObjFloat:
		v.Kind = ValueFloat
		v.Float = obj.Float
	case ObjBool:
		v.Kind = ValueBool
		v.Bool = obj.Bool
	case ObjNone:
		v.Kind = ValueNone
	case ObjEllipsis:
		v.Kind = ValueEllipsis
	case ObjTuple:
		v.Kind = ValueTuple
	case ObjDict:
		v.Kind = ValueDict
	case ObjFunction:
		v.Kind = ValueFunction
		v.Name = obj.Func.Name
	case ObjNative:
		v.Kind = ValueFunction
		v.Name = obj.Native.Name
		v.Native = true
	case ObjBound:
		v.Kind = ValueFunction
		if m, ok := rt.heap.get(obj.Method); ok {
			v = rt.freeze(m)
		}
		v.Type = obj.Type
	case ObjClass:
		v.Kind = ValueClass
		if obj.Data != nil {
			v.Name = obj.Data.Name
			v.Native = obj.Data.Extern
		}
	}
	return v
}

// link adds the outgoing edges of an object.
func (rt *Runtime) link(obj *Object, idx int) {
	g := rt.graph
	for _, name := range obj.AttrNames() {
		child, _ := obj.Attr(name)
		g.AddEdge(idx, rt.IntoValue(child), rt.str(name))
	}
	switch obj.Kind {
	case ObjInstance:
		g.AddEdge(idx, rt.IntoValue(obj.Class), "__class__")
	case ObjTuple:
		for i, it := range obj.Items {
			g.AddEdge(idx, rt.IntoValue(it), strconv.Itoa(i))
		}
	case ObjDict:
		for _, e := range obj.Dict.items {
			g.AddEdge(idx, rt.IntoValue(e.Value), e.Text)
		}
	case ObjBound:
		g.AddEdge(idx, rt.IntoValue(obj.Self), "__self__")
	}
}
