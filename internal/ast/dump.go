package ast

import (
	"fmt"
	"strconv"
	"strings"

	"monty/internal/source"
)

// Dump renders a compact s-expression of id; name resolves symbol text.
func (t *Tree) Dump(id NodeID, name func(source.SymbolRef) string) string {
	var b strings.Builder
	t.dump(&b, id, name)
	return b.String()
}

func (t *Tree) dumpList(b *strings.Builder, ids []NodeID, name func(source.SymbolRef) string) {
	b.WriteByte('[')
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(' ')
		}
		t.dump(b, id, name)
	}
	b.WriteByte(']')
}

func (t *Tree) dump(b *strings.Builder, id NodeID, name func(source.SymbolRef) string) {
	if !id.IsValid() {
		b.WriteString("_")
		return
	}
	n := t.Get(id)
	switch n.Kind {
	case KindModule:
		m, _ := t.Module(id)
		t.dumpList(b, m.Body, name)
	case KindFuncDef:
		f, _ := t.FuncDef(id)
		fmt.Fprintf(b, "(def %s (", name(f.Name))
		for i, p := range f.Params {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(name(p.Name))
			if p.Annotation.IsValid() {
				b.WriteByte(':')
				t.dump(b, p.Annotation, name)
			}
		}
		b.WriteString(") ")
		t.dump(b, f.Returns, name)
		b.WriteByte(' ')
		t.dumpList(b, f.Body, name)
		b.WriteByte(')')
	case KindClassDef:
		c, _ := t.ClassDef(id)
		fmt.Fprintf(b, "(class %s ", name(c.Name))
		if len(c.Decorators) > 0 {
			b.WriteByte('@')
			t.dumpList(b, c.Decorators, name)
			b.WriteByte(' ')
		}
		t.dumpList(b, c.Body, name)
		b.WriteByte(')')
	case KindImport, KindImportFrom:
		var names []ImportName
		prefix := "import"
		if d, ok := t.Import(id); ok {
			names = d.Names
		} else if d, ok := t.ImportFrom(id); ok {
			names = d.Names
			prefix = "from " + joinPath(d.Module, name) + " import"
		}
		b.WriteString("(" + prefix)
		for _, in := range names {
			b.WriteString(" " + joinPath(in.Path, name))
			if in.Alias.IsValid() {
				b.WriteString(" as " + name(in.Alias))
			}
		}
		b.WriteByte(')')
	case KindIf:
		d, _ := t.If(id)
		b.WriteString("(if ")
		t.dump(b, d.Test, name)
		b.WriteByte(' ')
		t.dumpList(b, d.Body, name)
		b.WriteByte(' ')
		t.dumpList(b, d.Orelse, name)
		b.WriteByte(')')
	case KindWhile:
		d, _ := t.While(id)
		b.WriteString("(while ")
		t.dump(b, d.Test, name)
		b.WriteByte(' ')
		t.dumpList(b, d.Body, name)
		b.WriteByte(')')
	case KindReturn:
		b.WriteString("(return ")
		t.dump(b, NodeID(n.Payload), name)
		b.WriteByte(')')
	case KindAssign:
		d, _ := t.Assign(id)
		b.WriteString("(= ")
		t.dump(b, d.Target, name)
		if d.Annotation.IsValid() {
			b.WriteByte(':')
			t.dump(b, d.Annotation, name)
		}
		b.WriteByte(' ')
		t.dump(b, d.Value, name)
		b.WriteByte(')')
	case KindExprStmt:
		t.dump(b, NodeID(n.Payload), name)
	case KindPass, KindBreak, KindContinue:
		b.WriteString(strings.ToLower(n.Kind.String()))
	case KindInt:
		l, _ := t.Literal(id)
		b.WriteString(strconv.FormatInt(l.Int, 10))
	case KindFloat:
		l, _ := t.Literal(id)
		b.WriteString(strconv.FormatFloat(l.Float, 'g', -1, 64))
	case KindStr:
		l, _ := t.Literal(id)
		b.WriteString(strconv.Quote(l.Str))
	case KindBool:
		l, _ := t.Literal(id)
		if l.Bool {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case KindNone:
		b.WriteString("None")
	case KindEllipsis:
		b.WriteString("...")
	case KindName:
		sym, _ := t.Name(id)
		b.WriteString(name(sym))
	case KindTuple:
		d, _ := t.Tuple(id)
		b.WriteString("(tuple ")
		t.dumpList(b, d.Elts, name)
		b.WriteByte(')')
	case KindBinOp:
		d, _ := t.BinOp(id)
		b.WriteString("(" + d.Op.String() + " ")
		t.dump(b, d.Left, name)
		b.WriteByte(' ')
		t.dump(b, d.Right, name)
		b.WriteByte(')')
	case KindUnary:
		d, _ := t.Unary(id)
		b.WriteString("(" + d.Op.String() + " ")
		t.dump(b, d.Operand, name)
		b.WriteByte(')')
	case KindCall:
		d, _ := t.Call(id)
		b.WriteString("(call ")
		t.dump(b, d.Func, name)
		b.WriteByte(' ')
		t.dumpList(b, d.Args, name)
		b.WriteByte(')')
	case KindAttr:
		d, _ := t.Attr(id)
		b.WriteString("(. ")
		t.dump(b, d.Value, name)
		b.WriteString(" " + name(d.Attr) + ")")
	case KindSubscript:
		d, _ := t.Subscript(id)
		b.WriteString("(index ")
		t.dump(b, d.Value, name)
		b.WriteByte(' ')
		t.dump(b, d.Index, name)
		b.WriteByte(')')
	case KindIfExpr:
		d, _ := t.IfExpr(id)
		b.WriteString("(ifx ")
		t.dump(b, d.Test, name)
		b.WriteByte(' ')
		t.dump(b, d.Body, name)
		b.WriteByte(' ')
		t.dump(b, d.Orelse, name)
		b.WriteByte(')')
	default:
		b.WriteString("?")
	}
}

func joinPath(path []source.SymbolRef, name func(source.SymbolRef) string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = name(p)
	}
	return strings.Join(parts, ".")
}
