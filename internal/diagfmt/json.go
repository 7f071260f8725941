package diagfmt

import (
	"encoding/json"
	"io"

	"dtt/internal/diag"
	"dtt/internal/source"
)

// Location is a span in JSON output. Line and column fields are filled only
// with JSONOpts.IncludePositions; File is empty for spans outside the set.
type Location struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

type Note struct {
	Message  string   `json:"message"`
	Location Location `json:"location"`
}

type Entry struct {
	Severity string   `json:"severity"`
	Code     string   `json:"code"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Location Location `json:"location"`
	Notes    []Note   `json:"notes,omitempty"`
}

// Document is the root of JSON output. Errors counts the error entries that
// were kept; Truncated is set when JSONOpts.Max dropped some.
type Document struct {
	Diagnostics []Entry `json:"diagnostics"`
	Count       int     `json:"count"`
	Errors      int     `json:"errors"`
	Truncated   bool    `json:"truncated,omitempty"`
}

type locator struct {
	fs   *source.FileSet
	opts JSONOpts
}

func (l locator) at(sp source.Span) Location {
	loc := Location{StartByte: sp.Start, EndByte: sp.End}
	if !validSpan(l.fs, sp) {
		return loc
	}
	loc.File = formatPath(l.fs.Get(sp.File), l.opts.PathMode, l.opts.BaseDir)
	if l.opts.IncludePositions {
		start, end := l.fs.Resolve(sp)
		loc.StartLine, loc.StartCol = start.Line, start.Col
		loc.EndLine, loc.EndCol = end.Line, end.Col
	}
	return loc
}

// BuildDocument converts the bag without serializing it. Timing diagnostics
// always keep their notes, which carry the payload.
func BuildDocument(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) Document {
	items := bag.Items()
	doc := Document{Diagnostics: make([]Entry, 0, len(items))}
	if opts.Max > 0 && opts.Max < len(items) {
		items, doc.Truncated = items[:opts.Max], true
	}
	loc := locator{fs: fs, opts: opts}
	for _, d := range items {
		e := Entry{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Location: loc.at(d.Primary),
		}
		if opts.IncludeNotes || d.Code == diag.ObsTimings {
			for _, n := range d.Notes {
				e.Notes = append(e.Notes, Note{Message: n.Msg, Location: loc.at(n.Span)})
			}
		}
		if d.Severity >= diag.SevError {
			doc.Errors++
		}
		doc.Diagnostics = append(doc.Diagnostics, e)
	}
	doc.Count = len(doc.Diagnostics)
	return doc
}

// JSON writes the bag as one indented JSON document.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDocument(bag, fs, opts))
}
