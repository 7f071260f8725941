package driver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"fortio.org/safecast"

	"dtt/internal/diag"
	"dtt/internal/observ"
	"dtt/internal/session"
	"dtt/internal/sexpr"
	"dtt/internal/source"
	"dtt/internal/trace"
)

// Result is the outcome of checking one file.
type Result struct {
	Path    string
	FileID  source.FileID
	Bag     *diag.Bag
	Session *session.Session
	// Decls is the number of declarations read; Committed the number that
	// reached the environment.
	Decls     int
	Committed int
	Timing    *observ.Report
}

// OK reports whether the file produced no errors.
func (r *Result) OK() bool { return !r.Bag.HasErrors() }

// CheckFile loads path into a fresh FileSet and checks it.
func CheckFile(ctx context.Context, path string, opts Options) (*source.FileSet, *Result, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		bag := newBag(opts)
		bag.Add(diag.NewError(diag.IOLoadFileError, source.NoSpan, "failed to load file: "+err.Error()))
		return fs, &Result{Path: path, Bag: bag}, nil
	}
	res, err := checkLoaded(ctx, newSession(opts), fs, id, opts)
	return fs, res, err
}

// CheckSource checks in-memory content registered as a virtual file.
func CheckSource(ctx context.Context, name string, content []byte, opts Options) (*source.FileSet, *Result, error) {
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, content)
	res, err := checkLoaded(ctx, newSession(opts), fs, id, opts)
	return fs, res, err
}

// defaultMaxDiagnostics applies when Options.MaxDiagnostics is not positive.
const defaultMaxDiagnostics = 100

func newBag(opts Options) *diag.Bag {
	if opts.MaxDiagnostics <= 0 {
		return diag.NewBag(defaultMaxDiagnostics)
	}
	return diag.NewBag(opts.MaxDiagnostics)
}

func newSession(opts Options) *session.Session {
	if opts.Base != nil {
		return opts.Base.Fork()
	}
	return session.New(opts.Session)
}

// checkLoaded reads file id of fs and checks its declarations into s in
// order. A failed declaration is reported and skipped; later ones still run.
// The only error returned is ctx cancellation.
func checkLoaded(ctx context.Context, s *session.Session, fs *source.FileSet, id source.FileID, opts Options) (*Result, error) {
	file := fs.Get(id)
	res := &Result{Path: file.Path, FileID: id, Bag: newBag(opts), Session: s}

	var timer *observ.Timer
	if opts.Timings {
		timer = observ.NewTimer()
	}
	ph := phases{timer: timer, observer: opts.Observer, path: file.Path}
	defer func() { ph.done(res.OK()) }()

	tracer := trace.FromContext(ctx)
	fileSpan := trace.Begin(tracer, trace.ScopeDriver, "file:"+file.Path, trace.CurrentSpan(ctx).SpanID)
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: fileSpan.ID()})
	defer func() {
		fileSpan.WithExtra("decls", strconv.Itoa(res.Decls)).
			WithExtra("committed", strconv.Itoa(res.Committed)).
			End(fmt.Sprintf("diags=%d", res.Bag.Len()))
	}()

	if timer != nil {
		defer func() {
			report := timer.Report()
			res.Timing = &report
			appendTimingDiagnostic(res.Bag, timingPayload{Kind: "check", Path: file.Path, TotalMS: report.TotalMS, Phases: report.Phases})
		}()
	}

	sink := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})

	readPh := ph.begin("read")
	readSpan := trace.Begin(tracer, trace.ScopePass, "read", fileSpan.ID())
	if off := invalidUTF8(file.Content); off >= 0 {
		at, err := safecast.Conv[uint32](off)
		if err != nil {
			panic(err)
		}
		diag.ReportError(sink, diag.RdrInvalidUTF8, source.Span{File: id, Start: at, End: at + 1}, "invalid UTF-8 encoding").Emit()
		readSpan.End("invalid utf-8")
		ph.end(readPh, "", 0)
		return res, nil
	}
	b, err := sexpr.ReadFile(id, file.Content)
	if err != nil {
		var se *sexpr.Error
		if !errors.As(err, &se) {
			panic(fmt.Sprintf("driver: unexpected reader error %T", err))
		}
		diag.ReportError(sink, diag.RdrSyntax, se.Span, se.Msg).Emit()
		readSpan.End("syntax error")
		ph.end(readPh, "", 0)
		return res, nil
	}
	res.Decls = len(b.Order())
	readSpan.End("")
	ph.end(readPh, "", res.Decls)

	checkPh := ph.begin("check")
	checkSpan := trace.Begin(tracer, trace.ScopePass, "check", fileSpan.ID())
	dctx := trace.WithSpanContext(ctx, trace.SpanContext{SpanID: checkSpan.ID()})
	rep := newReporter(s)
	for _, did := range b.Order() {
		if err := ctx.Err(); err != nil {
			checkSpan.End("cancelled")
			ph.end(checkPh, "cancelled", res.Committed)
			return res, err
		}
		d := b.Decl(did)
		if _, err := s.Check(dctx, b.Exprs, d); err != nil {
			diag.Emit(sink, rep.describe(d, err))
			continue
		}
		res.Committed++
	}
	checkSpan.End(fmt.Sprintf("committed=%d", res.Committed))
	ph.end(checkPh, fmt.Sprintf("failed=%d", res.Decls-res.Committed), res.Committed)

	return res, nil
}

func invalidUTF8(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}

// phases fans phase boundaries out to an optional timer and observer.
type phases struct {
	timer    *observ.Timer
	observer PhaseObserver
	path     string
}

type phase struct {
	idx   int
	name  string
	start time.Time
}

func (p *phases) begin(name string) phase {
	ph := phase{idx: -1, name: name, start: time.Now()}
	if p.timer != nil {
		ph.idx = p.timer.Begin(name)
	}
	if p.observer != nil {
		p.observer(PhaseEvent{Path: p.path, Name: name, Status: PhaseStart})
	}
	return ph
}

func (p *phases) end(ph phase, note string, items int) {
	if p.timer != nil {
		p.timer.End(ph.idx, note, items)
	}
	if p.observer != nil {
		p.observer(PhaseEvent{Path: p.path, Name: ph.name, Status: PhaseEnd, Elapsed: time.Since(ph.start)})
	}
}

func (p *phases) done(ok bool) {
	if p.observer != nil {
		p.observer(PhaseEvent{Path: p.path, Name: "file", Status: FileDone, OK: ok})
	}
}
