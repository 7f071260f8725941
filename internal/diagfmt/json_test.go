package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"dtt/internal/diag"
	"dtt/internal/source"
)

func TestJSONBasic(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("(axiom Nat Type)\n(def z (Nat.succ zero))\n")
	fileID := fs.AddVirtual("prelude.dtt", content)

	bag := diag.NewBag(10)
	d := diag.NewError(diag.ElbUnknownIdentifier, source.Span{File: fileID, Start: 34, End: 38}, "unknown identifier zero").
		WithNote(source.Span{File: fileID, Start: 17, End: 40}, "while elaborating z")
	bag.Add(d)

	var buf bytes.Buffer
	opts := JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true}
	if err := JSON(&buf, bag, fs, opts); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var output Document
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	if output.Count != 1 || len(output.Diagnostics) != 1 || output.Errors != 1 || output.Truncated {
		t.Fatalf("Expected 1 diagnostic, got %+v", output)
	}

	got := output.Diagnostics[0]
	if got.Severity != "ERROR" || got.Code != "ELB5001" || got.Title != "Unknown identifier" {
		t.Errorf("unexpected header fields %+v", got)
	}
	if got.Location.File != "prelude.dtt" || got.Location.StartByte != 34 || got.Location.EndByte != 38 {
		t.Errorf("unexpected location %+v", got.Location)
	}
	if got.Location.StartLine != 2 || got.Location.StartCol != 18 {
		t.Errorf("unexpected position %d:%d", got.Location.StartLine, got.Location.StartCol)
	}
	if len(got.Notes) != 1 || got.Notes[0].Message != "while elaborating z" {
		t.Errorf("unexpected notes %+v", got.Notes)
	}
}

func TestJSONMaxAndNotes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("a.dtt", []byte("(def a _)\n"))

	bag := diag.NewBag(10)
	for range 3 {
		bag.Add(diag.NewError(diag.ElbCannotInferHoleType, source.Span{File: fileID, Start: 7, End: 8}, "hole").
			WithNote(source.Span{File: fileID, Start: 0, End: 9}, "here"))
	}

	out := BuildDocument(bag, fs, JSONOpts{Max: 2})
	if out.Count != 2 || !out.Truncated {
		t.Fatalf("expected truncation to 2, got %d", out.Count)
	}
	if out.Diagnostics[0].Notes != nil {
		t.Fatalf("notes must be omitted unless requested")
	}
	if out.Diagnostics[0].Location.StartLine != 0 {
		t.Fatalf("positions must be omitted unless requested")
	}
}
