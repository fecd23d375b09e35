package driver

import (
	"os"
	"path/filepath"
	"strings"
)

// ModuleRef identifies a module file. File is the cleaned absolute path and
// is the key modules are cached under; Path is the dotted import path.
type ModuleRef struct {
	Path string
	File string
}

// SearchPath resolves dotted module paths against an ordered list of roots.
type SearchPath struct {
	Roots []string
}

// NewSearchPath builds the search order: the entry directory first, then the
// standard library root when one is configured.
func NewSearchPath(entryDir, libstd string) SearchPath {
	var roots []string
	for _, r := range []string{entryDir, libstd} {
		if r == "" {
			continue
		}
		if abs, err := filepath.Abs(r); err == nil {
			r = abs
		}
		roots = append(roots, filepath.Clean(r))
	}
	return SearchPath{Roots: roots}
}

// Find resolves a dotted path. Every segment is searched in each root in
// order; intermediate segments must be directories, the last one is either
// <seg>.py or <seg>/__init__.py.
func (sp SearchPath) Find(path string) (ModuleRef, error) {
	segs := strings.Split(path, ".")
	for _, seg := range segs {
		if seg == "" {
			return ModuleRef{}, &ModuleNotFoundError{Path: path}
		}
	}
	for _, root := range sp.Roots {
		if file, ok := findIn(root, segs); ok {
			return ModuleRef{Path: path, File: file}, nil
		}
	}
	return ModuleRef{}, &ModuleNotFoundError{Path: path, Searched: sp.Roots}
}

func findIn(root string, segs []string) (string, bool) {
	dir := root
	for i, seg := range segs {
		last := i == len(segs)-1
		entries, err := os.ReadDir(dir)
		if err != nil {
			return "", false
		}
		var sub string
		var file string
		for _, e := range entries {
			name := e.Name()
			switch {
			case e.IsDir() && name == seg:
				sub = filepath.Join(dir, name)
			case last && !e.IsDir() && moduleStem(name) == seg:
				file = filepath.Join(dir, name)
			}
		}
		if last {
			if file != "" {
				return file, true
			}
			if sub != "" {
				init := filepath.Join(sub, "__init__.py")
				if isFile(init) {
					return init, true
				}
			}
			return "", false
		}
		if sub == "" {
			return "", false
		}
		dir = sub
	}
	return "", false
}

// moduleStem returns the stem of a .py file name, or "" when the name is
// not a module: other extensions and stems containing dots never match.
func moduleStem(name string) string {
	stem, ok := strings.CutSuffix(name, ".py")
	if !ok || stem == "" || strings.Contains(stem, ".") {
		return ""
	}
	return stem
}

func isFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// EntryRef describes the file passed on the command line. Its dotted path is
// the file stem, or "__main__" when the name has no usable stem.
func EntryRef(file string) (ModuleRef, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return ModuleRef{}, err
	}
	abs = filepath.Clean(abs)
	stem := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	if stem == "" || strings.Contains(stem, ".") {
		stem = "__main__"
	}
	return ModuleRef{Path: stem, File: abs}, nil
}
