package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type closeBuffer struct {
	bytes.Buffer
	closed bool
}

func (b *closeBuffer) Close() error {
	b.closed = true
	return nil
}

func TestLevelFiltersScopes(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)
	Begin(tr, ScopePass, "parse", 0).End("")
	Begin(tr, ScopeModule, "module:prog", 0).End("")
	Point(tr, ScopeModule, "import:helpers", 0, "", nil)
	out := buf.String()
	if !strings.Contains(out, "→ parse") || !strings.Contains(out, "← parse") {
		t.Fatalf("pass spans missing:\n%s", out)
	}
	if strings.Contains(out, "module:prog") || strings.Contains(out, "import:helpers") {
		t.Fatalf("module events must be filtered at phase level:\n%s", out)
	}
}

func TestFailurePassesErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelError, FormatNDJSON)
	Begin(tr, ScopeDriver, "build", 0).End("")
	Fail(tr, ScopePass, "check:prog", 0, errors.New("bad return"))
	Fail(tr, ScopePass, "check:prog", 0, nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("want exactly the failure, got %d lines:\n%s", len(lines), buf.String())
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatal(err)
	}
	if ev["kind"] != "failure" || ev["detail"] != "bad return" || ev["name"] != "check:prog" {
		t.Fatalf("event %v", ev)
	}
}

func TestRingDumpsOnlyAfterFailure(t *testing.T) {
	var quiet bytes.Buffer
	ring := NewRingTracer(8, LevelPhase)
	ring.DumpOnFailure(&quiet, FormatText)
	Begin(ring, ScopePass, "parse", 0).End("")
	if err := ring.Close(); err != nil {
		t.Fatal(err)
	}
	if quiet.Len() != 0 {
		t.Fatalf("clean run must not dump:\n%s", quiet.String())
	}

	var loud bytes.Buffer
	ring = NewRingTracer(2, LevelPhase)
	ring.DumpOnFailure(&loud, FormatText)
	Begin(ring, ScopePass, "parse", 0).End("")
	Begin(ring, ScopePass, "eval", 0).End("")
	Fail(ring, ScopePass, "eval:prog", 0, errors.New("boom"))
	if !ring.Failed() {
		t.Fatalf("failure not recorded")
	}
	if err := ring.Close(); err != nil {
		t.Fatal(err)
	}
	out := loud.String()
	if strings.Contains(out, "parse") || !strings.Contains(out, "✗ eval:prog (boom)") {
		t.Fatalf("ring must keep the last events only:\n%s", out)
	}
}

func TestChromeStreamIsValidJSON(t *testing.T) {
	buf := &closeBuffer{}
	tr := NewStreamTracer(buf, LevelDetail, FormatChrome)
	sp := Begin(tr, ScopeModule, "module:prog", 0).WithExtra("module", "prog")
	Point(tr, ScopeModule, "import:helpers", sp.ID(), "", map[string]string{"file": "helpers.py"})
	sp.End("")
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	if buf.closed {
		t.Fatalf("writers passed in are not closed by the tracer")
	}
	var doc struct {
		TraceEvents []struct {
			Name string            `json:"name"`
			Ph   string            `json:"ph"`
			Args map[string]string `json:"args"`
		} `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid chrome trace: %v\n%s", err, buf.String())
	}
	phases := ""
	for _, ev := range doc.TraceEvents {
		phases += ev.Ph
	}
	if phases != "BiE" {
		t.Fatalf("phases %q", phases)
	}
	if doc.TraceEvents[1].Args["file"] != "helpers.py" {
		t.Fatalf("point args %v", doc.TraceEvents[1].Args)
	}
}

func TestTextExtraSorted(t *testing.T) {
	ev := &Event{
		Time:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Kind:  KindPoint,
		Scope: ScopeModule,
		Name:  "import:pkg.mod",
		Extra: map[string]string{"z": "1", "a": "2", "m": "3"},
	}
	got := string(FormatEvent(ev, FormatText))
	if got != "03:04:05.000000 • import:pkg.mod {a=2, m=3, z=1}\n" {
		t.Fatalf("text = %q", got)
	}
}

func TestFormatFor(t *testing.T) {
	cases := map[string]Format{
		"out.ndjson": FormatNDJSON,
		"out.json":   FormatChrome,
		"-":          FormatText,
		"":           FormatText,
	}
	for path, want := range cases {
		if got := formatFor(FormatAuto, path); got != want {
			t.Fatalf("formatFor(%q) = %v, want %v", path, got, want)
		}
	}
	if got := formatFor(FormatText, "x.json"); got != FormatText {
		t.Fatalf("explicit format must win")
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("unknown format must fail")
	}
}
