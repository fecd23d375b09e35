package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"monty/internal/diag"
	"monty/internal/source"
)

type palette struct {
	err, warn, info, code, gutter, caret, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		code:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
		note:   color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.gutter, p.caret, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	pal := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, d, fs, opts, pal)
	}
}

// PrettyDiagnostic prints a single diagnostic.
func PrettyDiagnostic(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	prettyOne(w, d, fs, opts, newPalette(opts.Color))
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	sev := pal.severity(d.Severity).Sprint(d.Severity.String())
	code := pal.code.Sprint(d.Code.ID())
	if located(d.Primary, fs) {
		fmt.Fprintf(w, "%s: %s %s: %s\n", position(d.Primary, fs, opts.PathMode), sev, code, d.Message)
		snippet(w, d.Primary, fs, int(opts.Context), pal)
	} else {
		fmt.Fprintf(w, "%s %s: %s\n", sev, code, d.Message)
	}
	if !opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		label := pal.note.Sprint("note")
		if located(n.Span, fs) {
			fmt.Fprintf(w, "  %s: %s: %s\n", label, position(n.Span, fs, opts.PathMode), n.Msg)
		} else {
			fmt.Fprintf(w, "  %s: %s\n", label, n.Msg)
		}
	}
}

func position(span source.Span, fs *source.FileSet, mode PathMode) string {
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", displayPath(fs.Get(span.File), mode), start.Line, start.Col)
}

// snippet prints the primary line with context lines around it and an
// underline below the span. Multi-line spans are underlined to line end.
func snippet(w io.Writer, span source.Span, fs *source.FileSet, context int, pal palette) {
	f := fs.Get(span.File)
	start, end := fs.Resolve(span)
	line := start.Line
	first := line
	if context > 0 && uint32(context) < line {
		first = line - uint32(context)
	} else if context > 0 {
		first = 1
	}
	last := line + uint32(max(context, 0))
	numWidth := len(fmt.Sprint(last))

	for n := first; n <= last; n++ {
		text := f.GetLine(n)
		if n > line && text == "" && n > uint32(len(f.LineIdx)) {
			break
		}
		fmt.Fprintf(w, "%s %s\n", pal.gutter.Sprintf("%*d |", numWidth, n), text)
		if n != line {
			continue
		}
		fmt.Fprintf(w, "%s %s\n", pal.gutter.Sprintf("%*s |", numWidth, ""), underline(text, start, end, pal))
	}
}

func underline(text string, start, end source.LineCol, pal palette) string {
	col := min(int(start.Col)-1, len(text))
	col = max(col, 0)
	stop := len(text)
	if end.Line == start.Line {
		stop = min(int(end.Col)-1, len(text))
	}
	stop = max(stop, col)

	var pad strings.Builder
	for _, r := range text[:col] {
		if r == '\t' {
			pad.WriteByte('\t')
			continue
		}
		pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	width := max(runewidth.StringWidth(text[col:stop]), 1)
	return pad.String() + pal.caret.Sprint("^"+strings.Repeat("~", width-1))
}
