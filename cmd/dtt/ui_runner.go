package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"dtt/internal/driver"
	"dtt/internal/source"
	"dtt/internal/ui"
)

type checkOutcome struct {
	fs      *source.FileSet
	results []*driver.Result
	err     error
}

// runCheckWithUI checks paths while a progress view draws on stderr.
func runCheckWithUI(ctx context.Context, title string, paths []string, opts driver.Options) (*source.FileSet, []*driver.Result, error) {
	events := make(chan driver.PhaseEvent, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Observer = func(ev driver.PhaseEvent) { events <- ev }
		fs, results, err := driver.CheckFiles(ctx, paths, optsCopy)
		outcomeCh <- checkOutcome{fs: fs, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, paths, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithInput(nil))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep draining so the checker never blocks on a full channel
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.fs, outcome.results, uiErr
	}
	return outcome.fs, outcome.results, outcome.err
}
