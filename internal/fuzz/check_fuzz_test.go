package fuzztests

import (
	"context"
	"testing"
	"time"

	"dtt/internal/driver"
	"dtt/internal/sexpr"
	"dtt/internal/source"
	"dtt/internal/testkit"
)

// checkTimeout bounds one input. Reduction is fuel limited, so running past
// it means a loop that does not consume fuel.
const checkTimeout = 5 * time.Second

func FuzzReader(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		fs := source.NewFileSet()
		id := fs.AddVirtual("fuzz.dtt", input)
		b, err := sexpr.ReadFile(id, input)
		if err != nil {
			return
		}
		if err := testkit.CheckSpanInvariants(b, fs.Get(id)); err != nil {
			t.Fatalf("span invariants: %v\ninput: %q", err, truncateForLog(input, 200))
		}
	})
}

func FuzzCheckSource(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		opts := driver.Options{Session: sessionOptions()}

		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _, _ = driver.CheckSource(ctx, "fuzz.dtt", input, opts)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			t.Fatalf("check hang detected: took longer than %v\ninput (%d bytes): %q",
				checkTimeout, len(input), truncateForLog(input, 200))
		}
	})
}
