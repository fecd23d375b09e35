package driver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"monty/internal/hlir"
	"monty/internal/interp"
	"monty/internal/source"
	"monty/internal/types"
)

// ArtifactMagic opens every artifact file.
const ArtifactMagic = "MOBJ"

// Current schema version - increment when the Artifact format changes
const artifactSchemaVersion uint16 = 1

// ErrArtifactSchema reports an artifact written by an incompatible version.
var ErrArtifactSchema = errors.New("artifact schema mismatch")

// Artifact is the compilation output consumed by the backend: flat code of
// every module with frame layouts and instruction types, the type table and
// the object graph of the evaluated program.
type Artifact struct {
	Magic   string
	Schema  uint16
	Entry   string
	Modules []ArtifactModule
	Types   []TypeEntry
	Graph   GraphSummary
}

// ArtifactModule holds the sequences of one module.
type ArtifactModule struct {
	Path      string
	File      string
	Object    int
	Functions []Function
}

// Function is one flat sequence. The module sequence is named after the
// module; defs are qualified by the module path.
type Function struct {
	Name       string
	Module     bool
	Type       types.TypeID
	Receiver   types.TypeID
	Args       []types.TypeID
	Ret        types.TypeID
	FrameSize  int
	FrameAlign int
	Slots      []Slot
	Insts      []Instruction
}

// Slot is a rib entry placed in the stack frame.
type Slot struct {
	Name   string
	Type   types.TypeID
	Offset int
}

// Instruction is the serialized form of hlir.Inst.
type Instruction struct {
	Op       string
	Type     types.TypeID
	Operands []uint32     `msgpack:",omitempty"`
	Targets  []uint32     `msgpack:",omitempty"`
	Const    *Constant    `msgpack:",omitempty"`
	Name     string       `msgpack:",omitempty"`
	Offset   int          `msgpack:",omitempty"`
	Seq      string       `msgpack:",omitempty"`
	Alloc    types.TypeID `msgpack:",omitempty"`
	Line     uint32
	Col      uint32
}

// Constant is a literal operand.
type Constant struct {
	Kind  string
	Int   int64   `msgpack:",omitempty"`
	Float float64 `msgpack:",omitempty"`
	Str   string  `msgpack:",omitempty"`
	Bool  bool    `msgpack:",omitempty"`
}

// TypeEntry describes one interned type. Sized is false for types that
// have no runtime representation (Unknown, Invalid).
type TypeEntry struct {
	ID    types.TypeID
	Kind  string
	Label string
	Sized bool
	Size  int
	Align int
}

// GraphSummary is the object graph reachable from the module objects.
type GraphSummary struct {
	Nodes []interp.Value
	Edges []interp.Edge
}

var constKinds = [...]string{
	hlir.ConstInt:      "int",
	hlir.ConstFloat:    "float",
	hlir.ConstStr:      "str",
	hlir.ConstBool:     "bool",
	hlir.ConstNone:     "none",
	hlir.ConstEllipsis: "ellipsis",
}

// BuildArtifact collects the artifact of a finished compilation.
func (c *Context) BuildArtifact(entry *Module) (*Artifact, error) {
	art := &Artifact{Magic: ArtifactMagic, Schema: artifactSchemaVersion}
	if entry != nil {
		art.Entry = entry.Ref.Path
	}
	for _, m := range c.order {
		am := ArtifactModule{
			Path:   m.Ref.Path,
			File:   m.Ref.File,
			Object: c.Runtime.IntoValue(m.Object),
		}
		for _, s := range m.Code.Seqs {
			fn, err := c.function(m, s)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", m.Ref.Path, err)
			}
			am.Functions = append(am.Functions, fn)
		}
		art.Modules = append(art.Modules, am)
	}
	// the type table goes last: flattening and graph building intern types
	for id := types.TypeID(1); int(id) < c.Types.Len(); id++ {
		te := TypeEntry{ID: id, Kind: c.Types.KindOf(id).String(), Label: c.Types.Label(id)}
		if l, err := c.Layout.TypeLayout(id); err == nil {
			te.Sized, te.Size, te.Align = true, l.Size, l.Align
		}
		art.Types = append(art.Types, te)
	}
	g := c.Runtime.Graph()
	art.Graph = GraphSummary{Nodes: g.Nodes(), Edges: g.Edges()}
	return art, nil
}

func (c *Context) function(m *Module, s *hlir.Seq) (Function, error) {
	fn := Function{Name: seqName(m, s), Module: s.Kind == hlir.SeqModule, Type: s.Func}
	if sig, ok := c.Types.FuncSig(s.Func); ok {
		fn.Receiver, fn.Args, fn.Ret = sig.Receiver, sig.Args, sig.Ret
	}
	entries := s.Rib.Entries()
	slots := make([]types.TypeID, len(entries))
	for i, e := range entries {
		slots[i] = c.slotType(e.Type)
	}
	frame, err := c.Layout.LayoutOf(slots)
	if err != nil {
		return Function{}, fmt.Errorf("frame of %s: %w", fn.Name, err)
	}
	fn.FrameSize, fn.FrameAlign = frame.Size, frame.Align
	for i, e := range entries {
		fn.Slots = append(fn.Slots, Slot{Name: c.Symbols.Text(e.Var), Type: e.Type, Offset: frame.Offsets[i]})
	}
	for i := range s.Insts {
		in := &s.Insts[i]
		out := Instruction{
			Op:       in.Op.String(),
			Type:     m.Annotations.Type(s.ID, hlir.ValueID(i)),
			Operands: values(in.Operands()),
			Targets:  values(in.Targets()),
			Offset:   in.Offset,
			Alloc:    in.Type,
		}
		out.Line, out.Col = c.position(in.Span)
		switch in.Op {
		case hlir.OpConst:
			out.Const = &Constant{Kind: constKinds[in.Const.Kind], Int: in.Const.Int, Float: in.Const.Float, Str: in.Const.Str, Bool: in.Const.Bool}
		case hlir.OpUseLocal, hlir.OpSetVar, hlir.OpRefVal:
			out.Name = c.Symbols.Text(in.Var)
		case hlir.OpGetAttr, hlir.OpSetAttr:
			out.Name = c.Symbols.Text(in.Name)
		case hlir.OpDefn:
			if target := m.Code.Seq(in.Seq); target != nil {
				out.Seq = seqName(m, target)
			}
		}
		fn.Insts = append(fn.Insts, out)
	}
	return fn, nil
}

// slotType boxes values whose type has no fixed layout.
func (c *Context) slotType(t types.TypeID) types.TypeID {
	if _, err := c.Layout.TypeLayout(t); err != nil {
		return c.Types.Builtins().Type
	}
	return t
}

func (c *Context) position(span source.Span) (line, col uint32) {
	if int(span.File) >= c.Files.Len() {
		return 0, 0
	}
	start, _ := c.Files.Resolve(span)
	return start.Line, start.Col
}

func seqName(m *Module, s *hlir.Seq) string {
	if s.Kind == hlir.SeqModule {
		return m.Ref.Path
	}
	return m.Ref.Path + "." + s.Name
}

func values(ids []hlir.ValueID) []uint32 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]uint32, len(ids))
	for i, v := range ids {
		out[i] = uint32(v)
	}
	return out
}

// Encode writes the artifact in msgpack form.
func (a *Artifact) Encode(w io.Writer) error {
	return msgpack.NewEncoder(w).Encode(a)
}

// DecodeArtifact reads an artifact and checks its header.
func DecodeArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := msgpack.NewDecoder(r).Decode(&a); err != nil {
		return nil, err
	}
	if a.Magic != ArtifactMagic || a.Schema != artifactSchemaVersion {
		return nil, fmt.Errorf("%w: %q v%d", ErrArtifactSchema, a.Magic, a.Schema)
	}
	return &a, nil
}

// WriteArtifact encodes the artifact and writes it to path atomically.
func WriteArtifact(path string, a *Artifact) error {
	var buf bytes.Buffer
	if err := a.Encode(&buf); err != nil {
		return err
	}
	return WriteFileAtomic(path, buf.Bytes())
}

// WriteFileAtomic writes data through a temporary file in the target
// directory, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".mobj-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// ReadArtifact loads an artifact file.
func ReadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeArtifact(bufio.NewReader(f))
}
