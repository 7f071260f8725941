package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dtt/internal/version"
)

// errChecksFailed is returned when diagnostics with errors were printed; main
// exits with status 1 without repeating them.
var errChecksFailed = errors.New("checks failed")

var rootCmd = &cobra.Command{
	Use:           "dtt",
	Short:         "Kernel and elaborator for a dependent type theory",
	Long:          `dtt elaborates and kernel-checks declarations written as s-expressions`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		mode, err := cmd.Root().PersistentFlags().GetString("color")
		if err != nil {
			return err
		}
		switch mode {
		case "auto", "on", "off":
		default:
			return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
		}
		color.NoColor = !useColor(cmd, os.Stdout)
		return nil
	},
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "report per-file phase timings")
	pf.String("config", "", "path to dtt.toml (default: nearest one above the working directory)")
	pf.Int("max-diagnostics", 0, "maximum diagnostics per file (0 = from config)")
	pf.Int("jobs", 0, "files checked in parallel (0 = from config)")
	pf.Uint64("fuel", 0, "reduction budget per conversion query (0 = from config)")
	pf.Uint64("max-nat-literal", 0, "largest numeral that elaborates (0 = from config)")
	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	pf.Int("trace-ring-size", 4096, "ring buffer capacity for --trace-mode ring")
	pf.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 = off)")
	pf.String("cpu-profile", "", "write a CPU profile to this file")
	pf.String("mem-profile", "", "write a heap profile to this file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to this file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

func useColor(cmd *cobra.Command, f *os.File) bool {
	mode, _ := cmd.Root().PersistentFlags().GetString("color")
	return mode == "on" || (mode == "auto" && isTerminal(f))
}
