package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual marks files added from memory (tests, embedded stubs, magic names).
	FileVirtual FileFlags = 1 << iota
	// FileHadBOM marks files whose UTF-8 BOM was stripped on load.
	FileHadBOM
	// FileNormalizedCRLF marks files whose CRLF line endings were rewritten.
	FileNormalizedCRLF
)

// File captures metadata and content for a single source module.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // смещения символов '\n'
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}

// Text returns the source text covered by span, or "" when the span is out of range.
func (f *File) Text(span Span) string {
	if span.File != f.ID || span.End < span.Start || int(span.End) > len(f.Content) {
		return ""
	}
	return string(f.Content[span.Start:span.End])
}
