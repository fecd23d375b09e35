package hlir

import (
	"fmt"

	"fortio.org/safecast"

	"monty/internal/ast"
	"monty/internal/source"
	"monty/internal/types"
)

// SeqKind tells module sequences from function sequences.
type SeqKind uint8

const (
	SeqModule SeqKind = iota
	SeqFunction
)

// Seq is a linear, index-addressed instruction list with its own rib.
type Seq struct {
	ID     SeqID
	Kind   SeqKind
	Name   string
	Node   ast.NodeID // Module root or FuncDef
	Func   types.TypeID
	Parent SeqID
	Insts  []Inst
	Rib    *Rib
}

// Len returns the number of instructions.
func (s *Seq) Len() int { return len(s.Insts) }

// At returns the instruction producing value v.
func (s *Seq) At(v ValueID) *Inst {
	if !v.IsValid() || int(v) >= len(s.Insts) {
		return nil
	}
	return &s.Insts[v]
}

// Emit appends in and returns its value id.
func (s *Seq) Emit(in Inst) ValueID {
	n, err := safecast.Conv[uint32](len(s.Insts))
	if err != nil {
		panic(fmt.Errorf("sequence length overflow: %w", err))
	}
	s.Insts = append(s.Insts, in)
	return ValueID(n)
}

// Next returns the id the next emitted instruction will get.
func (s *Seq) Next() ValueID {
	n, err := safecast.Conv[uint32](len(s.Insts))
	if err != nil {
		panic(fmt.Errorf("sequence length overflow: %w", err))
	}
	return ValueID(n)
}

// Code is the flattened form of one module: the module sequence first,
// then one sequence per function definition, methods and nested defs included.
type Code struct {
	File    source.FileID
	Seqs    []*Seq
	ByNode  map[ast.NodeID]SeqID
	Symbols *source.Symbols
	Types   *types.Universe
}

// Module returns the module sequence.
func (c *Code) Module() *Seq { return c.Seqs[ModuleSeq] }

// Seq returns the sequence with id, or nil.
func (c *Code) Seq(id SeqID) *Seq {
	if int(id) >= len(c.Seqs) {
		return nil
	}
	return c.Seqs[id]
}

// Functions returns the function sequences in definition order.
func (c *Code) Functions() []*Seq {
	if len(c.Seqs) <= 1 {
		return nil
	}
	return c.Seqs[1:]
}

func (c *Code) newSeq(kind SeqKind, name string, node ast.NodeID, parent SeqID) *Seq {
	n, err := safecast.Conv[uint32](len(c.Seqs))
	if err != nil {
		panic(fmt.Errorf("sequence count overflow: %w", err))
	}
	s := &Seq{ID: SeqID(n), Kind: kind, Name: name, Node: node, Parent: parent, Rib: NewRib()}
	c.Seqs = append(c.Seqs, s)
	c.ByNode[node] = s.ID
	return s
}
