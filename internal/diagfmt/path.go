package diagfmt

import (
	"path/filepath"

	"monty/internal/source"
)

func displayPath(f *source.File, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		return f.Path
	case PathModeBasename:
		return filepath.Base(f.Path)
	default:
		return f.DisplayPath()
	}
}

// located reports whether span points into a real file. Errors with no
// position carry the zero span, which falls on the virtual builtins module.
func located(span source.Span, fs *source.FileSet) bool {
	if fs == nil || int(span.File) >= fs.Len() {
		return false
	}
	if fs.Get(span.File).Flags&source.FileVirtual != 0 && span.Empty() && span.Start == 0 {
		return false
	}
	return true
}
