package hlir

// SimplifyCFG performs trivial control flow simplification on every sequence.
// Transformations:
// 1. A br to the instruction right after it becomes a nop
// 2. An if target naming the next instruction becomes a fall through
//
// Instructions are never removed so value ids stay dense.
func SimplifyCFG(c *Code) int {
	if c == nil {
		return 0
	}
	changed := 0
	for _, s := range c.Seqs {
		changed += SimplifySeq(s)
	}
	return changed
}

// SimplifySeq simplifies one sequence and returns the number of rewrites.
func SimplifySeq(s *Seq) int {
	if s == nil {
		return 0
	}
	changed := 0
	for i := range s.Insts {
		in := &s.Insts[i]
		next := ValueID(i + 1)
		switch in.Op {
		case OpBr:
			if in.To == next {
				*in = Inst{Op: OpNop, Span: in.Span, Node: in.Node}
				changed++
			}
		case OpIf:
			if in.Truthy == next {
				in.Truthy = NoValue
				changed++
			}
			if in.Falsey == next {
				in.Falsey = NoValue
				changed++
			}
		}
	}
	return changed
}
