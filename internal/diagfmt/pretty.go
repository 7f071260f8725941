package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"dtt/internal/diag"
	"dtt/internal/source"
)

type palette struct {
	err, warn, info, note, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret} {
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

// Pretty renders the diagnostics of bag in order (call bag.Sort first):
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//	   3 | source line
//	     |   ^~~~
//	  note: <path>:<line>:<col>: <msg>
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		if !validSpan(fs, d.Primary) {
			fmt.Fprintf(w, "%s %s: %s\n", p.severity(d.Severity).Sprint(d.Severity), d.Code.ID(), d.Message)
			writeNotes(w, fs, d.Notes, opts, p)
			continue
		}
		f := fs.Get(d.Primary.File)
		start, end := fs.Resolve(d.Primary)
		fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
			formatPath(f, opts.PathMode, opts.BaseDir), start.Line, start.Col,
			p.severity(d.Severity).Sprint(d.Severity), d.Code.ID(), d.Message)
		writeContext(w, f, start, end, opts, p)
		writeNotes(w, fs, d.Notes, opts, p)
	}
}

func writeNotes(w io.Writer, fs *source.FileSet, notes []diag.Note, opts PrettyOpts, p palette) {
	if !opts.ShowNotes {
		return
	}
	for _, n := range notes {
		if !validSpan(fs, n.Span) {
			fmt.Fprintf(w, "  %s %s\n", p.note.Sprint("note:"), n.Msg)
			continue
		}
		start, _ := fs.Resolve(n.Span)
		f := fs.Get(n.Span.File)
		fmt.Fprintf(w, "  %s %s:%d:%d: %s\n", p.note.Sprint("note:"),
			formatPath(f, opts.PathMode, opts.BaseDir), start.Line, start.Col, n.Msg)
	}
}

func writeContext(w io.Writer, f *source.File, start, end source.LineCol, opts PrettyOpts, p palette) {
	ctx := uint32(max(opts.Context, 0)) //nolint:gosec // non-negative int8
	first := start.Line - min(ctx, start.Line-1)
	last := min(start.Line+ctx, lineCount(f))
	width := len(fmt.Sprint(last))
	for n := first; n <= last; n++ {
		text := f.Line(n)
		fmt.Fprintf(w, "%s %s\n", p.gutter.Sprintf("%*d |", width, n), clip(text, opts.Width))
		if n != start.Line {
			continue
		}
		col := min(int(start.Col)-1, len(text))
		stop := len(text)
		if end.Line == start.Line {
			stop = min(max(int(end.Col)-1, col), len(text))
		}
		fmt.Fprintf(w, "%s %s%s\n", p.gutter.Sprintf("%*s |", width, ""), indent(text[:col]), p.caret.Sprint(underline(text[col:stop])))
	}
}

// indent reproduces the display width of prefix, keeping tabs so the caret
// lines up with the source line.
func indent(prefix string) string {
	var sb strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			sb.WriteByte('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return sb.String()
}

func underline(s string) string {
	n := max(runewidth.StringWidth(s), 1)
	return "^" + strings.Repeat("~", n-1)
}

func clip(s string, width uint8) string {
	if width == 0 || runewidth.StringWidth(s) <= int(width) {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, int(width), "")
	}
	return runewidth.Truncate(s, int(width), "...")
}
