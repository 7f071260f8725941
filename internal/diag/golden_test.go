package diag

import (
	"testing"

	"dtt/internal/source"
)

func TestFormatShort(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Add("/workspace/testdata/sample.dtt", []byte("(def a\n  b)\n"), 0)

	diags := []Diagnostic{
		NewError(ElbUnknownIdentifier, source.Span{File: file, Start: 9, End: 10}, "unknown identifier b").
			WithNote(source.Span{File: file, Start: 1, End: 4}, "in declaration a"),
		New(SevWarning, KrnFuelExhausted, source.Span{File: file, Start: 0, End: 1}, "first line\nsecond"),
	}

	expected := "warning KRN4009 testdata/sample.dtt:1:1 first line second\n" +
		"note ELB5001 testdata/sample.dtt:1:2 in declaration a\n" +
		"error ELB5001 testdata/sample.dtt:2:3 unknown identifier b"

	if got := FormatShort(diags, fs, "/workspace", true); got != expected {
		t.Fatalf("unexpected short diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
	if got := FormatShort(diags[:1], fs, "", false); got != "error ELB5001 /workspace/testdata/sample.dtt:2:3 unknown identifier b" {
		t.Fatalf("unexpected output without base: %q", got)
	}
	noLoc := []Diagnostic{NewError(IOLoadFileError, source.NoSpan, "failed to load file")}
	if got := FormatShort(noLoc, fs, "", true); got != "error IO1001 -:0:0 failed to load file" {
		t.Fatalf("unexpected output for a diagnostic without location: %q", got)
	}
}

func TestBagLimitSortMerge(t *testing.T) {
	b := NewBag(3)
	sp := func(start uint32) source.Span { return source.Span{Start: start, End: start + 1} }
	b.Add(NewError(ElbTypeError, sp(5), "late"))
	b.Add(NewError(ElbTypeError, sp(1), "early"))
	b.Add(NewError(ElbTypeError, sp(1), "early again"))
	if b.Add(NewError(ElbTypeError, sp(9), "dropped")) {
		t.Fatalf("bag accepted a diagnostic past its limit")
	}
	b.Sort()
	if b.Items()[0].Message != "early" {
		t.Fatalf("unexpected order %+v", b.Items())
	}
	if b.Items()[1].Message != "early again" || !b.HasErrors() {
		t.Fatalf("sort is not stable: %+v", b.Items())
	}

	other := NewBag(5)
	other.Add(New(SevInfo, ObsTimings, sp(0), "timings"))
	b.Merge(other)
	if b.Len() != 4 {
		t.Fatalf("merge lost diagnostics: %d", b.Len())
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{Start: 2, End: 4}
	ReportError(r, ElbUnresolvedMetavariable, sp, "cannot infer placeholder").Emit()
	ReportError(r, ElbUnresolvedMetavariable, sp, "cannot infer placeholder").Emit()
	b := NewReportBuilder(r, SevInfo, ObsTimings, sp, "timings").WithNote(sp, "total")
	b.Emit()
	b.Emit()
	Emit(r, NewError(ElbUnresolvedMetavariable, source.Span{Start: 5, End: 6}, "cannot infer placeholder"))
	if bag.Len() != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", bag.Len())
	}
	if notes := bag.Items()[1].Notes; len(notes) != 1 || notes[0].Msg != "total" {
		t.Fatalf("notes = %+v", notes)
	}
}

func TestCodeIDs(t *testing.T) {
	cases := map[Code]string{
		IOLoadFileError:           "IO1001",
		RdrSyntax:                 "RDR2001",
		KrnTypeMismatch:           "KRN4003",
		ElbUnresolvedMetavariable: "ELB5006",
		ObsTimings:                "OBS6001",
		Code(3000):                "E0000",
	}
	for c, want := range cases {
		if c.ID() != want {
			t.Fatalf("%d.ID() = %q, want %q", c, c.ID(), want)
		}
	}
	if Code(4999).Title() != "Unknown error" {
		t.Fatalf("unexpected title for unknown code")
	}
}
