package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dtt/internal/driver"
	"dtt/internal/session"
)

var (
	snapshotOutput outputFlags
	snapshotOut    string
	snapshotBase   string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot -o <out> [flags] <file.dtt|directory>...",
	Short: "Check files in order into one environment and save it",
	Long: `Check the files one after another in a single session, so later files
may use the declarations of earlier ones, and write the resulting environment
to a snapshot. Nothing is written if any file has errors.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSnapshot,
}

func init() {
	addOutputFlags(snapshotCmd, &snapshotOutput)
	snapshotCmd.Flags().StringVarP(&snapshotOut, "output", "o", "", "snapshot file to write")
	snapshotCmd.Flags().StringVar(&snapshotBase, "base", "", "snapshot to extend instead of starting empty")
	_ = snapshotCmd.MarkFlagRequired("output")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()
	if err := snapshotOutput.validate(); err != nil {
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
	var s *session.Session
	if snapshotBase != "" {
		s, err = driver.LoadSnapshot(snapshotBase, opts.Session)
		if err != nil {
			return err
		}
	} else {
		s = session.New(opts.Session)
	}

	paths, err := driver.ExpandPaths(args)
	if err != nil {
		return err
	}
	fs, results, err := driver.CheckInto(cmd.Context(), s, paths, opts)
	if err != nil {
		return err
	}
	bag := collect(results)
	if err := printDiagnostics(cmd, cmd.OutOrStdout(), fs, bag, &snapshotOutput); err != nil {
		return err
	}
	if bag.HasErrors() {
		return errChecksFailed
	}
	if err := driver.SaveSnapshot(snapshotOut, s); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if !quiet(cmd) {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d declarations to %s\n", s.Env().Len(), snapshotOut)
	}
	return nil
}
