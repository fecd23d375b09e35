package types

import (
	"strings"

	"monty/internal/source"
)

// Label returns a user-friendly label for a TypeID.
func (u *Universe) Label(id TypeID) string {
	return u.labelDepth(id, 0)
}

func (u *Universe) labelDepth(id TypeID, depth int) string {
	if id == NoTypeID {
		return "?"
	}
	if depth > 6 {
		return "..."
	}
	tt, ok := u.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindTuple:
		members, _ := u.TupleMembers(id)
		parts := make([]string, 0, len(members))
		for _, m := range members {
			parts = append(parts, u.labelDepth(m, depth+1))
		}
		return "tuple[" + strings.Join(parts, ", ") + "]"
	case KindFunc:
		sig, _ := u.FuncSig(id)
		var b strings.Builder
		b.WriteString("def ")
		if sig.Receiver.IsValid() {
			b.WriteString(u.labelDepth(sig.Receiver, depth+1))
			b.WriteByte('.')
		}
		b.WriteString(u.text(sig.Name, "<lambda>"))
		b.WriteByte('(')
		for i, a := range sig.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(u.labelDepth(a, depth+1))
		}
		b.WriteString(") -> ")
		b.WriteString(u.labelDepth(sig.Ret, depth+1))
		return b.String()
	case KindClass:
		info, _ := u.ClassInfo(id)
		return u.text(info.Name, "<class>")
	case KindModule:
		path, _ := u.ModulePath(id)
		return "module " + u.text(path, "<module>")
	default:
		return tt.Kind.String()
	}
}

func (u *Universe) text(id source.StringID, fallback string) string {
	if s, ok := u.strings.Lookup(id); ok && s != "" {
		return s
	}
	return fallback
}
