package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"dtt/internal/diag"
	"dtt/internal/session"
	"dtt/internal/source"
	"dtt/internal/trace"
)

// SourceExt is the extension ExpandPaths collects from directories.
const SourceExt = ".dtt"

// ExpandPaths replaces every directory argument with the sorted list of
// *.dtt files below it. Plain files are kept as given.
func ExpandPaths(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil || !st.IsDir() {
			// load errors are reported per file
			out = append(out, arg)
			continue
		}
		var files []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, SourceExt) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(files)
		out = append(out, files...)
	}
	return out, nil
}

// CheckFiles checks every path in its own session, up to opts.Jobs at a
// time. All files are loaded into one FileSet before checking starts, so
// FileIDs follow the order of paths. Results are in the order of paths.
func CheckFiles(ctx context.Context, paths []string, opts Options) (*source.FileSet, []*Result, error) {
	fileSet := source.NewFileSet()
	if len(paths) == 0 {
		return fileSet, nil, nil
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "check_files", trace.CurrentSpan(ctx).SpanID)
	defer span.End("")
	ctx = trace.WithSpanContext(ctx, trace.SpanContext{SpanID: span.ID()})

	fileIDs := make([]source.FileID, len(paths))
	loadErrors := make(map[int]error)
	for i, path := range paths {
		id, err := fileSet.Load(path)
		if err != nil {
			loadErrors[i] = err
			continue
		}
		fileIDs[i] = id
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// each goroutine writes only its own index
	results := make([]*Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if loadErr, failed := loadErrors[i]; failed {
				bag := newBag(opts)
				bag.Add(diag.NewError(diag.IOLoadFileError, source.NoSpan, "failed to load file: "+loadErr.Error()))
				results[i] = &Result{Path: path, Bag: bag}
				if opts.Observer != nil {
					opts.Observer(PhaseEvent{Path: path, Name: "file", Status: FileDone})
				}
				return nil
			}
			res, err := checkLoaded(gctx, newSession(opts), fileSet, fileIDs[i], opts)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}

// CheckInto checks paths one after another into the same session, so later
// files see the declarations of earlier ones. It stops at the first file with
// errors.
func CheckInto(ctx context.Context, s *session.Session, paths []string, opts Options) (*source.FileSet, []*Result, error) {
	fileSet := source.NewFileSet()
	var results []*Result
	for _, path := range paths {
		id, err := fileSet.Load(path)
		if err != nil {
			bag := newBag(opts)
			bag.Add(diag.NewError(diag.IOLoadFileError, source.NoSpan, "failed to load file: "+err.Error()))
			results = append(results, &Result{Path: path, Bag: bag, Session: s})
			return fileSet, results, nil
		}
		res, err := checkLoaded(ctx, s, fileSet, id, opts)
		results = append(results, res)
		if err != nil || !res.OK() {
			return fileSet, results, err
		}
	}
	return fileSet, results, nil
}
