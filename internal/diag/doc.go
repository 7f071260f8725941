// Package diag defines the diagnostic model shared by the reader, the
// elaborator and the driver.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning or Error (severity.go).
//   - Code: compact numeric identifier with a stable string form (codes.go).
//     1xxx are I/O problems, 2xxx reader errors, 4xxx kernel rejections,
//     5xxx elaboration errors and 6xxx observability output.
//   - Message: short human text.
//   - Primary: the source.Span the problem is located at.
//   - Notes: optional secondary spans, e.g. the declaration being checked.
//
// # Emitting diagnostics
//
// Producers go through a Reporter so that emission is decoupled from storage.
// ReportError returns a ReportBuilder that collects notes before Emit, and
// Emit forwards an already built Diagnostic. BagReporter stores into a Bag,
// which supports a size limit, sorting and merging. DedupReporter filters
// repeats on the way in.
//
// Rendering lives in internal/diagfmt; FormatShort here produces the stable
// one-line-per-entry form used by tests and `dtt check --format short`.
package diag
