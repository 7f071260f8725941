package diag

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"dtt/internal/source"
)

// shortLine is one line of FormatShort output.
type shortLine struct {
	sev       string
	code      string
	path      string
	line, col uint32
	msg       string
}

func (l shortLine) String() string {
	return fmt.Sprintf("%s %s %s:%d:%d %s", l.sev, l.code, l.path, l.line, l.col, l.msg)
}

func compareShort(a, b shortLine) int {
	return cmp.Or(
		strings.Compare(a.path, b.path),
		cmp.Compare(a.line, b.line),
		cmp.Compare(a.col, b.col),
		strings.Compare(a.sev, b.sev),
		strings.Compare(a.code, b.code),
		strings.Compare(a.msg, b.msg),
	)
}

// FormatShort renders diagnostics one per line as
// "severity CODE path:line:col message", sorted by position. Paths are made
// relative to base when they lie under it; diagnostics without a location
// print as "-:0:0". Located notes follow as "note" lines when includeNotes is
// set.
func FormatShort(diags []Diagnostic, fs *source.FileSet, base string, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}
	lines := make([]shortLine, 0, len(diags))
	for _, d := range diags {
		code := d.Code.ID()
		l := shortLine{sev: severityLabel(d.Severity), code: code, path: "-", msg: flatten(d.Message)}
		l.path, l.line, l.col, _ = locate(fs, d.Primary, base)
		lines = append(lines, l)
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			if path, line, col, ok := locate(fs, n.Span, base); ok {
				lines = append(lines, shortLine{sev: "note", code: code, path: path, line: line, col: col, msg: flatten(n.Msg)})
			}
		}
	}
	slices.SortStableFunc(lines, compareShort)

	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return strings.Join(out, "\n")
}

// locate resolves sp to a display path and 1-based position. Spans outside
// fs resolve to "-", 0, 0.
func locate(fs *source.FileSet, sp source.Span, base string) (path string, line, col uint32, ok bool) {
	if int(sp.File) >= fs.Len() {
		return "-", 0, 0, false
	}
	path = fs.Get(sp.File).Path
	if base != "" {
		if rel, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	path = filepath.ToSlash(path)
	for strings.HasPrefix(path, "./") {
		path = path[2:]
	}
	start, _ := fs.Resolve(sp)
	return path, start.Line, start.Col, true
}

func severityLabel(sev Severity) string {
	switch sev {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

// flatten puts a multi-line message on one line.
func flatten(msg string) string {
	return strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(msg))
}
