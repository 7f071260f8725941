package driver

import "time"

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a check phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
	// FileDone is sent once per file after its last phase; OK reports whether
	// the file produced no errors.
	FileDone
)

// PhaseEvent describes a timing phase boundary of one file.
type PhaseEvent struct {
	Path    string
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
	OK      bool
}

// PhaseObserver receives phase events emitted while a file is checked. It may
// be called from several goroutines at once.
type PhaseObserver func(PhaseEvent)
