package hlir

import (
	"monty/internal/ast"
	"monty/internal/source"
	"monty/internal/types"
)

// ValueID is the position of an instruction inside its sequence.
type ValueID uint32

// NoValue marks an absent operand; as a branch target it means
// "fall through to the next instruction".
const NoValue ValueID = ^ValueID(0)

// IsValid reports whether the id names an instruction.
func (v ValueID) IsValid() bool { return v != NoValue }

// SeqID identifies a sequence inside Code; 0 is the module sequence.
type SeqID uint32

// ModuleSeq is the sequence holding top-level statements.
const ModuleSeq SeqID = 0

// Op enumerates instruction kinds.
type Op uint8

const (
	// OpNop does nothing; SimplifyCFG rewrites redundant branches to it.
	OpNop Op = iota
	// OpConst materializes a literal.
	OpConst
	// OpUseLocal reads a rib-bound local.
	OpUseLocal
	// OpSetVar writes Value into the local Var.
	OpSetVar
	// OpRefVal references a def, class, import, global or builtin; Def is
	// the defining statement and Var its name in the defining module.
	OpRefVal
	// OpGetAttr reads attribute Name of Base; methods come back bound.
	OpGetAttr
	// OpSetAttr writes Value into attribute Name of Base.
	OpSetAttr
	// OpCall calls Func with Args; a bound receiver is not repeated in Args.
	OpCall
	// OpAlloc allocates Size bytes on the heap for a value of Type.
	OpAlloc
	// OpStore writes Value at Base+Offset.
	OpStore
	// OpIf branches on Test; a NoValue target falls through.
	OpIf
	// OpBr jumps to To.
	OpBr
	// OpJumpTarget starts a block.
	OpJumpTarget
	// OpPhiJump jumps to the PhiRecv Recv, passing Value.
	OpPhiJump
	// OpPhiRecv starts a block and yields the value passed by the taken PhiJump.
	OpPhiRecv
	// OpReturn leaves the sequence with Value.
	OpReturn
	// OpDefn binds the function compiled into sequence Seq.
	OpDefn
	// OpClass binds the class declared at Node.
	OpClass
	// OpImport binds the names of the import at Node.
	OpImport
)

var opNames = [...]string{
	OpNop:        "nop",
	OpConst:      "const",
	OpUseLocal:   "use",
	OpSetVar:     "setvar",
	OpRefVal:     "ref",
	OpGetAttr:    "getattr",
	OpSetAttr:    "setattr",
	OpCall:       "call",
	OpAlloc:      "alloc",
	OpStore:      "store",
	OpIf:         "if",
	OpBr:         "br",
	OpJumpTarget: "target",
	OpPhiJump:    "phijump",
	OpPhiRecv:    "phirecv",
	OpReturn:     "return",
	OpDefn:       "defn",
	OpClass:      "class",
	OpImport:     "import",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "op(?)"
}

// IsBlockStart reports whether the op begins a basic block.
func (o Op) IsBlockStart() bool { return o == OpJumpTarget || o == OpPhiRecv }

// IsTerminator reports whether control never falls past the op.
func (o Op) IsTerminator() bool {
	return o == OpBr || o == OpPhiJump || o == OpReturn
}

// ConstKind distinguishes literal payloads.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstStr
	ConstBool
	ConstNone
	ConstEllipsis
)

// Const is a literal operand.
type Const struct {
	Kind  ConstKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

// Inst is one instruction. Only the operands of its Op are meaningful.
type Inst struct {
	Op   Op
	Span source.Span
	Node ast.NodeID

	Const Const
	Var   source.SymbolRef // UseLocal, SetVar, RefVal
	Name  source.SymbolRef // GetAttr, SetAttr

	Value  ValueID // SetVar, SetAttr, Store, PhiJump, Return
	Base   ValueID // GetAttr, SetAttr, Store
	Func   ValueID // Call
	Args   []ValueID
	Test   ValueID // If
	Truthy ValueID // If
	Falsey ValueID // If
	To     ValueID // Br
	Recv   ValueID // PhiJump
	Size   ValueID // Alloc

	Offset int
	Type   types.TypeID // Alloc
	Seq    SeqID        // Defn
	Def    ast.NodeID   // RefVal
}

// Operands returns the values read by the instruction, branch targets excluded.
func (in *Inst) Operands() []ValueID {
	switch in.Op {
	case OpSetVar, OpReturn, OpPhiJump:
		return []ValueID{in.Value}
	case OpGetAttr:
		return []ValueID{in.Base}
	case OpSetAttr, OpStore:
		return []ValueID{in.Base, in.Value}
	case OpCall:
		return append([]ValueID{in.Func}, in.Args...)
	case OpAlloc:
		return []ValueID{in.Size}
	case OpIf:
		return []ValueID{in.Test}
	}
	return nil
}

// Targets returns the block starts the instruction may jump to.
func (in *Inst) Targets() []ValueID {
	switch in.Op {
	case OpIf:
		var out []ValueID
		if in.Truthy.IsValid() {
			out = append(out, in.Truthy)
		}
		if in.Falsey.IsValid() {
			out = append(out, in.Falsey)
		}
		return out
	case OpBr:
		return []ValueID{in.To}
	case OpPhiJump:
		return []ValueID{in.Recv}
	}
	return nil
}
