package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("m.py", []byte("x = 1\ny = x\n"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{4, LineCol{Line: 1, Col: 5}},
		{5, LineCol{Line: 1, Col: 6}},
		{6, LineCol{Line: 2, Col: 1}},
		{10, LineCol{Line: 2, Col: 5}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Fatalf("offset %d: got %+v, want %+v", tt.off, start, tt.want)
		}
	}
	if got := fs.Get(id).GetLine(2); got != "y = x" {
		t.Fatalf("GetLine(2) = %q", got)
	}
	if got := fs.Text(Span{File: id, Start: 6, End: 7}); got != "y" {
		t.Fatalf("Text = %q", got)
	}
}

func TestFileSetLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.py")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa = 1\r\nb = 2\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a = 1\nb = 2\n" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b", f.Flags)
	}
	if f.Stem() != "crlf" {
		t.Fatalf("stem = %q", f.Stem())
	}
	if latest, ok := fs.GetLatest(path); !ok || latest != id {
		t.Fatalf("GetLatest = %d, %v", latest, ok)
	}
}

func TestSpanOrdering(t *testing.T) {
	a := Span{File: 1, Start: 0, End: 5}
	b := Span{File: 1, Start: 6, End: 9}
	if !a.Precedes(b) || b.Precedes(a) {
		t.Fatal("Precedes is wrong")
	}
	if !a.Cover(b).Contains(b) {
		t.Fatal("cover must contain both spans")
	}
	if a.Precedes(Span{File: 2, Start: 10, End: 11}) {
		t.Fatal("spans of different files are unordered")
	}
}
