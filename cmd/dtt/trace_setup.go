package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dtt/internal/config"
	"dtt/internal/trace"
)

// activeRing is the ring buffer dumped when a command panics. In ring mode it
// is also dumped when the command ends.
var activeRing *trace.RingTracer

// setupTracing creates the tracer described by cfg and the trace flags and
// attaches it to the command context. The returned cleanup flushes it.
func setupTracing(cmd *cobra.Command, cfg config.Config) (func(), error) {
	pf := cmd.Root().PersistentFlags()
	modeStr, err := pf.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := pf.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := pf.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(cfg.Trace.Level)
	if err != nil {
		return nil, err
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: cfg.Trace.Output,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	activeRing = trace.RingOf(tracer)
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval)
	}

	return func() {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if mode == trace.ModeRing {
			if err := dumpRing(cfg.Trace.Output); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}

func dumpRing(path string) error {
	format := trace.FormatText
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if trace.FormatForPath(path) == trace.FormatNDJSON {
			format = trace.FormatNDJSON
		}
		return activeRing.Dump(f, format)
	}
	return activeRing.Dump(os.Stderr, format)
}

// dumpTraceOnPanic writes the ring buffer to stderr before re-panicking.
func dumpTraceOnPanic() {
	if r := recover(); r != nil {
		if activeRing != nil {
			_ = activeRing.Dump(os.Stderr, trace.FormatText)
		}
		panic(r)
	}
}
