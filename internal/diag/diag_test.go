package diag

import (
	"testing"

	"monty/internal/source"
)

func TestBagSortAndLimit(t *testing.T) {
	bag := NewBag(2)
	r := BagReporter{Bag: bag}
	r.Report(SemaBadReturnType, SevError, source.Span{File: 0, Start: 10, End: 12}, "late", nil)
	ReportError(r, SemaUndefinedVariable, source.Span{File: 0, Start: 1, End: 2}, "early").
		WithNote(source.Span{File: 0, Start: 0, End: 1}, "here").
		Emit()
	if bag.Add(NewError(SemaMissingReturn, source.Span{}, "dropped")) {
		t.Fatal("bag must respect its limit")
	}
	bag.Sort()
	items := bag.Items()
	if len(items) != 2 || items[0].Message != "early" || len(items[0].Notes) != 1 {
		t.Fatalf("unexpected bag contents: %+v", items)
	}
	if !bag.HasErrors() {
		t.Fatal("HasErrors")
	}
}

func TestCodeID(t *testing.T) {
	tests := map[Code]string{
		LexUnknownChar:        "LEX1001",
		SynExpectColon:        "SYN2004",
		SemaBadBinaryOp:       "SEM3009",
		ProjImportCycle:       "PRJ5002",
		CfgBootstrap:          "CFG6001",
		Code(9999):            "E0000",
	}
	for code, want := range tests {
		if got := code.ID(); got != want {
			t.Fatalf("%d: got %s want %s", code, got, want)
		}
	}
	if SemaMissingReturn.Title() != "Missing return" {
		t.Fatal(SemaMissingReturn.Title())
	}
}
