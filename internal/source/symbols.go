package source

import "strings"

// MagicModule is the path of the virtual file holding synthesized names.
const MagicModule = "__monty:magical_names"

// SymbolRef names a binding group inside one module: every occurrence of the
// same identifier in the same file yields an equal ref. Refs from different
// modules never compare equal even when their text matches; use SameText for
// cross-module aliasing.
type SymbolRef struct {
	File FileID
	Name StringID
}

// NoSymbol is the zero ref.
var NoSymbol = SymbolRef{}

func (r SymbolRef) IsValid() bool { return r.Name != NoStringID }

// SameText reports whether two refs spell the same identifier.
func (r SymbolRef) SameText(other SymbolRef) bool {
	return r.Name == other.Name
}

// Symbols resolves refs back to text and synthesizes magic names.
type Symbols struct {
	Strings *Interner
	Files   *FileSet
	magic   FileID
	hasMag  bool
}

func NewSymbols(strs *Interner, files *FileSet) *Symbols {
	return &Symbols{Strings: strs, Files: files}
}

// Ref interns text as a name of file.
func (s *Symbols) Ref(file FileID, text string) SymbolRef {
	return SymbolRef{File: file, Name: s.Strings.Intern(text)}
}

// Text resolves a ref to its identifier text.
func (s *Symbols) Text(ref SymbolRef) string {
	txt, _ := s.Strings.Lookup(ref.Name)
	return txt
}

// Magic returns a ref for a synthesized name, e.g. "__add__". The backing
// virtual file is created on first use and lists every magic name.
func (s *Symbols) Magic(text string) SymbolRef {
	return SymbolRef{File: s.MagicFile(), Name: s.Strings.Intern(text)}
}

// MagicFile returns the id of the virtual magic-names module.
func (s *Symbols) MagicFile() FileID {
	if !s.hasMag {
		s.magic = s.Files.AddVirtual(MagicModule, []byte(MagicNamesSource()))
		s.hasMag = true
	}
	return s.magic
}

var (
	builtinNames = []string{"float", "int", "str", "object", "bool", "type", "dict", "set", "list", "tuple", "isinstance", "id"}
	dunderNames  = []string{"add", "sub", "pow", "mul", "eq", "ne", "and", "or", "lshift", "rshift", "div", "getattr", "getattribute", "getitem"}
	ctypeNames   = []string{
		"char", "byte", "double", "longdouble", "float", "int", "int8", "int32", "int64",
		"long", "longlong", "size_t", "ssize_t", "ubyte", "uint", "uint8", "uint16",
		"uint32", "uint64", "ulong", "ulonglong", "ushort", "void", "wchar", "bool",
	}
)

// MagicNamesSource renders the contents of the magic-names module: builtin names,
// dunders with their reflected forms (no __req__), c_* ctypes and __value.
func MagicNamesSource() string {
	var b strings.Builder
	b.WriteString("# generated: names known to the compiler\n")
	for _, name := range builtinNames {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	for _, d := range dunderNames {
		b.WriteString("__" + d + "__\n")
		if d != "eq" {
			b.WriteString("__r" + d + "__\n")
		}
	}
	for _, c := range ctypeNames {
		b.WriteString("c_" + c + "\n")
		b.WriteString("c_" + c + "_p\n")
	}
	b.WriteString("__value\n")
	return b.String()
}

// IsDunder reports whether name has the __x__ shape.
func IsDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}
