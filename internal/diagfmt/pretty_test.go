package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"dtt/internal/diag"
	"dtt/internal/source"
)

func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("(def x (: Nat.zero (-> Nat Nat)))\n")
	fileID := fs.AddVirtual("/home/user/project/src/test.dtt", content)

	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevError, diag.ElbTypeError, source.Span{File: fileID, Start: 10, End: 18}, "type mismatch"))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"Absolute path", PathModeAbsolute, "/home/user/project/src/test.dtt:1:11"},
		{"Relative path", PathModeRelative, "src/test.dtt:1:11"},
		{"Basename only", PathModeBasename, "test.dtt:1:11"},
		{"Auto shortens long paths", PathModeAuto, "/home/user/project/src/test.dtt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: tt.mode, BaseDir: "/home/user/project"})
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "ERROR ELB5008: type mismatch") {
				t.Errorf("Expected header in output, got:\n%s", output)
			}
		})
	}
}

func TestPrettyCaretUnderline(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("(axiom Nat Type)\n(def λx (Nat.succ ∀))\n(def y Nat.zero)\n")
	fileID := fs.AddVirtual("u.dtt", content)
	start := uint32(strings.Index(string(content), "∀"))

	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.ElbUnknownIdentifier, source.Span{File: fileID, Start: start, End: start + uint32(len("∀"))}, "unknown identifier ∀"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: PathModeBasename})
	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 5 {
		t.Fatalf("expected header, three context lines and a caret line, got:\n%s", buf.String())
	}
	if lines[1] != "1 | (axiom Nat Type)" || lines[2] != "2 | (def λx (Nat.succ ∀))" {
		t.Fatalf("unexpected context lines:\n%s", buf.String())
	}
	// "(def λx (Nat.succ " is 18 columns wide
	if lines[3] != "  | "+strings.Repeat(" ", 18)+"^" {
		t.Fatalf("unexpected caret line %q", lines[3])
	}
	if lines[4] != "3 | (def y Nat.zero)" {
		t.Fatalf("unexpected trailing context %q", lines[4])
	}
}

func TestPrettyNotes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.dtt", []byte("(def h (: _ Nat))\n"))

	bag := diag.NewBag(4)
	d := diag.New(diag.SevError, diag.ElbUnresolvedMetavariable, source.Span{File: fileID, Start: 10, End: 11}, "cannot infer placeholder").
		WithNote(source.Span{File: fileID, Start: 5, End: 6}, "in declaration h")
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true})
	output := buf.String()

	if !strings.Contains(output, "note: test.dtt:1:6: in declaration h") {
		t.Fatalf("expected note with location, got:\n%s", output)
	}
	if !strings.Contains(output, "^") {
		t.Fatalf("expected caret, got:\n%s", output)
	}

	buf.Reset()
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if strings.Contains(buf.String(), "note:") {
		t.Fatalf("notes must be hidden unless requested:\n%s", buf.String())
	}
}

func TestPrettyColorAndWidth(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("w.dtt", []byte("(def long_name_that_goes_on Nat.zero)\n"))

	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.KrnDuplicateDeclaration, source.Span{File: fileID, Start: 5, End: 27}, "duplicate declaration"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, Width: 12, Color: true})
	out := buf.String()
	if !strings.Contains(out, "\x1b[") {
		t.Fatalf("expected ANSI escapes with Color set:\n%q", out)
	}
	if !strings.Contains(out, "(def long...") {
		t.Fatalf("expected the source line clipped to 12 columns:\n%s", out)
	}
}
