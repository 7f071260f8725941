package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"dtt/internal/diag"
	"dtt/internal/diagfmt"
	"dtt/internal/driver"
	"dtt/internal/source"
)

type outputFlags struct {
	format    string
	withNotes bool
	fullPath  bool
}

func addOutputFlags(cmd *cobra.Command, f *outputFlags) {
	cmd.Flags().StringVar(&f.format, "format", "pretty", "diagnostic format (pretty|json|short)")
	cmd.Flags().BoolVar(&f.withNotes, "with-notes", true, "include diagnostic notes")
	cmd.Flags().BoolVar(&f.fullPath, "fullpath", false, "emit absolute file paths")
}

func (f *outputFlags) validate() error {
	switch f.format {
	case "pretty", "json", "short":
		return nil
	}
	return fmt.Errorf("unknown format %q (expected pretty|json|short)", f.format)
}

// collect merges the bags of results, in file order, into one bag.
func collect(results []*driver.Result) *diag.Bag {
	total := 0
	for _, r := range results {
		if r != nil {
			total += r.Bag.Len()
		}
	}
	out := diag.NewBag(max(total, 1))
	for _, r := range results {
		if r != nil {
			out.Merge(r.Bag)
		}
	}
	out.Sort()
	return out
}

func printDiagnostics(cmd *cobra.Command, w io.Writer, fs *source.FileSet, bag *diag.Bag, f *outputFlags) error {
	pathMode := diagfmt.PathModeAuto
	if f.fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	switch f.format {
	case "pretty":
		diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
			Color:     useColor(cmd, os.Stdout),
			Context:   1,
			PathMode:  pathMode,
			ShowNotes: f.withNotes,
		})
	case "short":
		base := ""
		if !f.fullPath {
			if wd, err := os.Getwd(); err == nil {
				base = filepath.ToSlash(wd)
			}
		}
		if out := diag.FormatShort(bag.Items(), fs, base, f.withNotes); out != "" {
			fmt.Fprintln(w, out)
		}
	case "json":
		return diagfmt.JSON(w, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     f.withNotes,
		})
	}
	return nil
}
