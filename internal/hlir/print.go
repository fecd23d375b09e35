package hlir

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"monty/internal/source"
	"monty/internal/types"
)

// Dump writes a human-readable representation of the code.
func Dump(w io.Writer, c *Code) error {
	if w == nil || c == nil {
		return nil
	}
	for _, s := range c.Seqs {
		if err := dumpSeq(w, c, s); err != nil {
			return err
		}
	}
	return nil
}

// String renders the code the way Dump writes it.
func (c *Code) String() string {
	var b strings.Builder
	_ = Dump(&b, c)
	return b.String()
}

func dumpSeq(w io.Writer, c *Code, s *Seq) error {
	header := fmt.Sprintf("sequence(%d): %s", s.ID, s.Name)
	if s.Func.IsValid() && c.Types != nil {
		header += "  ; " + c.Types.Label(s.Func)
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	for _, e := range s.Rib.Entries() {
		if _, err := fmt.Fprintf(w, "  rib %s: %s\n", symText(c.Symbols, e.Var), typeStr(c.Types, e.Type)); err != nil {
			return err
		}
	}
	for i := range s.Insts {
		if _, err := fmt.Fprintf(w, "  %%%d = %s\n", i, formatInst(c, &s.Insts[i])); err != nil {
			return err
		}
	}
	return nil
}

func formatInst(c *Code, in *Inst) string {
	switch in.Op {
	case OpConst:
		return "const " + formatConst(in.Const)
	case OpUseLocal, OpSetVar, OpRefVal:
		s := in.Op.String() + " " + symText(c.Symbols, in.Var)
		if in.Op == OpSetVar {
			s += ", " + fmtValue(in.Value)
		}
		return s
	case OpGetAttr:
		return fmt.Sprintf("getattr %s.%s", fmtValue(in.Base), symText(c.Symbols, in.Name))
	case OpSetAttr:
		return fmt.Sprintf("setattr %s.%s, %s", fmtValue(in.Base), symText(c.Symbols, in.Name), fmtValue(in.Value))
	case OpCall:
		args := make([]string, 0, len(in.Args))
		for _, a := range in.Args {
			args = append(args, fmtValue(a))
		}
		return fmt.Sprintf("call %s(%s)", fmtValue(in.Func), strings.Join(args, ", "))
	case OpAlloc:
		return fmt.Sprintf("alloc %s ; %s", fmtValue(in.Size), typeStr(c.Types, in.Type))
	case OpStore:
		return fmt.Sprintf("store %s+%d, %s", fmtValue(in.Base), in.Offset, fmtValue(in.Value))
	case OpIf:
		return fmt.Sprintf("if %s then %s else %s", fmtValue(in.Test), fmtTarget(in.Truthy), fmtTarget(in.Falsey))
	case OpBr:
		return "br " + fmtValue(in.To)
	case OpPhiJump:
		return fmt.Sprintf("phijump %s, %s", fmtValue(in.Recv), fmtValue(in.Value))
	case OpReturn:
		return "return " + fmtValue(in.Value)
	case OpDefn:
		return fmt.Sprintf("defn sequence(%d)", in.Seq)
	default:
		return in.Op.String()
	}
}

func fmtTarget(v ValueID) string {
	if !v.IsValid() {
		return "next"
	}
	return fmtValue(v)
}

func formatConst(k Const) string {
	switch k.Kind {
	case ConstInt:
		return strconv.FormatInt(k.Int, 10)
	case ConstFloat:
		return strconv.FormatFloat(k.Float, 'g', -1, 64)
	case ConstStr:
		return strconv.Quote(k.Str)
	case ConstBool:
		if k.Bool {
			return "True"
		}
		return "False"
	case ConstNone:
		return "None"
	default:
		return "..."
	}
}

func symText(syms *source.Symbols, ref source.SymbolRef) string {
	if syms == nil {
		return fmt.Sprintf("sym#%d", ref.Name)
	}
	return syms.Text(ref)
}

func typeStr(u *types.Universe, id types.TypeID) string {
	if u == nil {
		return fmt.Sprintf("type#%d", id)
	}
	return u.Label(id)
}
