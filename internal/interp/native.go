package interp

import (
	"strings"

	"monty/internal/types"
)

// maxRepeat bounds the length of strings built by str * int.
const maxRepeat = 1 << 20

type nativeMethod struct {
	name string
	// arg is the single argument type; NoTypeID for unary methods.
	arg types.TypeID
	ret types.TypeID
	fn  NativeFn
}

func (rt *Runtime) primitive(name string) (types.TypeID, bool) {
	switch name {
	case "int":
		return rt.b.Int, true
	case "float":
		return rt.b.Float, true
	case "str":
		return rt.b.Str, true
	case "bool":
		return rt.b.Bool, true
	}
	return types.NoTypeID, false
}

// installNatives binds the native methods of a builtin class and records
// their signatures as properties of the builtin type.
func (rt *Runtime) installNatives(cls *Object) {
	typ := cls.Type
	for _, m := range rt.nativesFor(typ) {
		name := rt.syms.Strings.Intern(m.name)
		sig := types.FuncSig{Name: name, Receiver: typ, Ret: m.ret}
		if m.arg.IsValid() {
			sig.Args = []types.TypeID{m.arg}
		}
		ft := rt.u.Func(sig)
		obj := rt.heap.alloc(ObjNative, ft)
		obj.Native = &Native{Name: m.name, Type: ft, Fn: m.fn}
		cls.SetAttr(name, obj.ID)
		rt.u.SetProperty(typ, name, ft)
	}
}

func (rt *Runtime) nativesFor(typ types.TypeID) []nativeMethod {
	b := rt.b
	switch typ {
	case b.Int:
		return []nativeMethod{
			{"__add__", b.Int, b.Int, intArith(SaturatingAdd)},
			{"__sub__", b.Int, b.Int, intArith(SaturatingSub)},
			{"__mul__", b.Int, b.Int, intArith(SaturatingMul)},
			{"__pow__", b.Int, b.Int, intPow},
			{"__neg__", types.NoTypeID, b.Int, intNeg},
			{"__eq__", b.Int, b.Bool, intCmp(func(x, y int64) bool { return x == y })},
			{"__ne__", b.Int, b.Bool, intCmp(func(x, y int64) bool { return x != y })},
			{"__lt__", b.Int, b.Bool, intCmp(func(x, y int64) bool { return x < y })},
			{"__le__", b.Int, b.Bool, intCmp(func(x, y int64) bool { return x <= y })},
			{"__gt__", b.Int, b.Bool, intCmp(func(x, y int64) bool { return x > y })},
			{"__ge__", b.Int, b.Bool, intCmp(func(x, y int64) bool { return x >= y })},
		}
	case b.Float:
		return []nativeMethod{
			{"__add__", b.Float, b.Float, floatArith(func(x, y float64) float64 { return x + y })},
			{"__sub__", b.Float, b.Float, floatArith(func(x, y float64) float64 { return x - y })},
			{"__mul__", b.Float, b.Float, floatArith(func(x, y float64) float64 { return x * y })},
			{"__neg__", types.NoTypeID, b.Float, floatNeg},
			{"__eq__", b.Float, b.Bool, floatCmp(func(x, y float64) bool { return x == y })},
			{"__ne__", b.Float, b.Bool, floatCmp(func(x, y float64) bool { return x != y })},
			{"__lt__", b.Float, b.Bool, floatCmp(func(x, y float64) bool { return x < y })},
			{"__le__", b.Float, b.Bool, floatCmp(func(x, y float64) bool { return x <= y })},
			{"__gt__", b.Float, b.Bool, floatCmp(func(x, y float64) bool { return x > y })},
			{"__ge__", b.Float, b.Bool, floatCmp(func(x, y float64) bool { return x >= y })},
		}
	case b.Str:
		return []nativeMethod{
			{"__add__", b.Str, b.Str, strConcat},
			{"__mul__", b.Int, b.Str, strRepeat},
			{"__eq__", b.Str, b.Bool, strCmp(true)},
			{"__ne__", b.Str, b.Bool, strCmp(false)},
		}
	case b.Bool:
		return []nativeMethod{
			{"__eq__", b.Bool, b.Bool, boolCmp(true)},
			{"__ne__", b.Bool, b.Bool, boolCmp(false)},
		}
	}
	return nil
}

// operands fetches the receiver and the single argument, both of kind.
func (rt *Runtime) operands(self AllocID, args []AllocID, recv, arg ObjectKind) (*Object, *Object, error) {
	s, _ := rt.heap.get(self)
	if s == nil || s.Kind != recv {
		return nil, nil, &EvalError{Code: ErrOperand, Message: "receiver must be " + recv.String()}
	}
	if arg == ObjInvalid {
		if len(args) != 0 {
			return nil, nil, &EvalError{Code: ErrArity, Message: "unary method takes no arguments"}
		}
		return s, nil, nil
	}
	if len(args) != 1 {
		return nil, nil, &EvalError{Code: ErrArity, Message: "binary method takes exactly one argument"}
	}
	a, _ := rt.heap.get(args[0])
	if a == nil || a.Kind != arg {
		return nil, nil, &EvalError{Code: ErrOperand, Message: "unsupported operand " + rt.describe(args[0]) + " for " + recv.String()}
	}
	return s, a, nil
}

func intArith(op func(a, b int64) int64) NativeFn {
	return func(rt *Runtime, self AllocID, args []AllocID) (AllocID, error) {
		x, y, err := rt.operands(self, args, ObjInteger, ObjInteger)
		if err != nil {
			return 0, err
		}
		return rt.NewInt(op(x.Int, y.Int)), nil
	}
}

func intPow(rt *Runtime, self AllocID, args []AllocID) (AllocID, error) {
	x, y, err := rt.operands(self, args, ObjInteger, ObjInteger)
	if err != nil {
		return 0, err
	}
	if y.Int < 0 {
		return 0, &EvalError{Code: ErrOperand, Message: "negative exponent in integer power"}
	}
	return rt.NewInt(SaturatingPow(x.Int, uint64(y.Int))), nil
}

func intNeg(rt *Runtime, self AllocID, args []AllocID) (AllocID, error) {
	x, _, err := rt.operands(self, args, ObjInteger, ObjInvalid)
	if err != nil {
		return 0, err
	}
	return rt.NewInt(SaturatingNeg(x.Int)), nil
}

func intCmp(op func(a, b int64) bool) NativeFn {
	return func(rt *Runtime, self AllocID, args []AllocID) (AllocID, error) {
		x, y, err := rt.operands(self, args, ObjInteger, ObjInteger)
		if err != nil {
			return 0, err
		}
		return rt.Bool(op(x.Int, y.Int)), nil
	}
}

func floatArith(op func(a, b float64) float64) NativeFn {
	return func(rt *Runtime, self AllocID, args []AllocID) (AllocID, error) {
		x, y, err := rt.operands(self, args, ObjFloat, ObjFloat)
		if err != nil {
			return 0, err
		}
		return rt.NewFloat(op(x.Float, y.Float)), nil
	}
}

func floatNeg(rt *Runtime, self AllocID, args []AllocID) (AllocID, error) {
	x, _, err := rt.operands(self, args, ObjFloat, ObjInvalid)
	if err != nil {
		return 0, err
	}
	return rt.NewFloat(-x.Float), nil
}

func floatCmp(op func(a, b float64) bool) NativeFn {
	return func(rt *Runtime, self AllocID, args []AllocID) (AllocID, error) {
		x, y, err := rt.operands(self, args, ObjFloat, ObjFloat)
		if err != nil {
			return 0, err
		}
		return rt.Bool(op(x.Float, y.Float)), nil
	}
}

func strConcat(rt *Runtime, self AllocID, args []AllocID) (AllocID, error) {
	x, y, err := rt.operands(self, args, ObjString, ObjString)
	if err != nil {
		return 0, err
	}
	return rt.NewStr(x.Str + y.Str), nil
}

func strRepeat(rt *Runtime, self AllocID, args []AllocID) (AllocID, error) {
	x, y, err := rt.operands(self, args, ObjString, ObjInteger)
	if err != nil {
		return 0, err
	}
	if y.Int <= 0 || x.Str == "" {
		return rt.NewStr(""), nil
	}
	if y.Int > maxRepeat/int64(len(x.Str)) {
		return 0, &EvalError{Code: ErrBudget, Message: "repeated string is too long"}
	}
	return rt.NewStr(strings.Repeat(x.Str, int(y.Int))), nil
}

func strCmp(equal bool) NativeFn {
	return func(rt *Runtime, self AllocID, args []AllocID) (AllocID, error) {
		x, y, err := rt.operands(self, args, ObjString, ObjString)
		if err != nil {
			return 0, err
		}
		return rt.Bool((x.Str == y.Str) == equal), nil
	}
}

func boolCmp(equal bool) NativeFn {
	return func(rt *Runtime, self AllocID, args []AllocID) (AllocID, error) {
		x, y, err := rt.operands(self, args, ObjBool, ObjBool)
		if err != nil {
			return 0, err
		}
		return rt.Bool((x.Bool == y.Bool) == equal), nil
	}
}
