// Package fuzztests houses Go fuzz harnesses for the front of the checking
// pipeline (bytes -> s-expression reader -> elaborator -> kernel). They guard
// against panics and runaway reduction on arbitrary inputs.
//
// The harnesses load inputs through the driver the same way the CLI does;
// they never write files.
package fuzztests
