package types

import "fmt"

// TypeID uniquely identifies a type inside the universe.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// IsValid reports whether the id refers to an interned type.
func (id TypeID) IsValid() bool { return id != NoTypeID }

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindUnknown is the sentinel for bindings whose type could not be resolved.
	KindUnknown
	// KindNever is the type of statements that produce no value (assignments).
	KindNever
	KindInt
	KindFloat
	KindStr
	KindBool
	KindNone
	KindEllipsis
	// KindType is the metatype carried by class objects used as values.
	KindType
	KindTuple
	KindFunc
	KindClass
	KindModule
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnknown:
		return "unknown"
	case KindNever:
		return "never"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindBool:
		return "bool"
	case KindNone:
		return "None"
	case KindEllipsis:
		return "ellipsis"
	case KindType:
		return "type"
	case KindTuple:
		return "tuple"
	case KindFunc:
		return "function"
	case KindClass:
		return "class"
	case KindModule:
		return "module"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// IsPrimitive reports whether the kind is described by its tag alone.
func (k Kind) IsPrimitive() bool {
	return k >= KindUnknown && k <= KindType
}

// HasProperties reports whether values of this kind carry a property table.
func (k Kind) HasProperties() bool {
	switch k {
	case KindInt, KindFloat, KindStr, KindBool, KindClass, KindModule:
		return true
	default:
		return false
	}
}

// Type is a compact descriptor; Payload indexes the side table of
// structural kinds (tuple members, function signatures, classes, modules).
type Type struct {
	Kind    Kind
	Payload uint32
}

type typeKey struct {
	Kind    Kind
	Payload uint32
}
