package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"dtt/internal/driver"
	"dtt/internal/source"
)

var (
	checkOutput   outputFlags
	checkBase     string
	checkProgress bool
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.dtt|directory>...",
	Short: "Elaborate and kernel-check declaration files",
	Long: `Check every file in its own session. Directories are searched for *.dtt
files. With --base the files start from the declarations of a snapshot.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	addOutputFlags(checkCmd, &checkOutput)
	checkCmd.Flags().StringVar(&checkBase, "base", "", "snapshot whose declarations every file starts from")
	checkCmd.Flags().BoolVar(&checkProgress, "progress", false, "show progress on stderr (a live view on terminals)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()
	if err := checkOutput.validate(); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	opts, err := driverOptions(cmd, cfg)
	if err != nil {
		return err
	}
	if checkBase != "" {
		base, err := driver.LoadSnapshot(checkBase, opts.Session)
		if err != nil {
			return err
		}
		opts.Base = base
	}
	live := checkProgress && isTerminal(os.Stderr)
	if checkProgress && !live {
		stderr := cmd.ErrOrStderr()
		var mu sync.Mutex
		opts.Observer = func(ev driver.PhaseEvent) {
			mu.Lock()
			defer mu.Unlock()
			switch ev.Status {
			case driver.PhaseEnd:
				fmt.Fprintf(stderr, "%s: %s %.1f ms\n", ev.Path, ev.Name, float64(ev.Elapsed.Microseconds())/1000)
			case driver.FileDone:
				status := "ok"
				if !ev.OK {
					status = "failed"
				}
				fmt.Fprintf(stderr, "%s: %s\n", ev.Path, status)
			}
		}
	}

	paths, err := driver.ExpandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no %s files found", driver.SourceExt)
	}
	var (
		fs      *source.FileSet
		results []*driver.Result
	)
	if live {
		fs, results, err = runCheckWithUI(cmd.Context(), "checking", paths, opts)
	} else {
		fs, results, err = driver.CheckFiles(cmd.Context(), paths, opts)
	}
	if err != nil {
		return err
	}

	bag := collect(results)
	if err := printDiagnostics(cmd, cmd.OutOrStdout(), fs, bag, &checkOutput); err != nil {
		return err
	}
	if !quiet(cmd) && checkOutput.format == "pretty" {
		if opts.Timings {
			printTimings(cmd, results)
		}
		printCheckSummary(cmd, results)
	}
	if bag.HasErrors() {
		return errChecksFailed
	}
	return nil
}

func quiet(cmd *cobra.Command) bool {
	q, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	return q
}

func printCheckSummary(cmd *cobra.Command, results []*driver.Result) {
	files, failed, decls, committed := len(results), 0, 0, 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
		decls += r.Decls
		committed += r.Committed
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "checked %d files (%d failed), %d of %d declarations accepted\n",
		files, failed, committed, decls)
}

func printTimings(cmd *cobra.Command, results []*driver.Result) {
	for _, r := range results {
		if r.Timing != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "timings for %s:\n%s", r.Path, r.Timing.Summary())
		}
	}
}
