package unify

import (
	"fmt"

	"dtt/internal/kernel"
	"dtt/internal/level"
	"dtt/internal/term"
)

// ErrorKind classifies unification failures.
type ErrorKind uint8

const (
	Mismatch ErrorKind = iota + 1
	OccursCheck
	ScopeEscape
	LevelMismatch
	Stuck
)

func (k ErrorKind) String() string {
	switch k {
	case Mismatch:
		return "mismatch"
	case OccursCheck:
		return "occurs check failure"
	case ScopeEscape:
		return "scope escape"
	case LevelMismatch:
		return "universe level mismatch"
	case Stuck:
		return "stuck constraint"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Error reports a failed or unsolvable constraint.
type Error struct {
	Kind        ErrorKind
	Left, Right term.ID
	U, V        level.ID
	// Meta is the metavariable an OccursCheck or ScopeEscape was about.
	Meta term.MetaID
	Ctx  kernel.Context
}

func (e *Error) Error() string {
	switch e.Kind {
	case LevelMismatch:
		return fmt.Sprintf("%s: level %d =?= %d", e.Kind, e.U, e.V)
	case OccursCheck, ScopeEscape:
		return fmt.Sprintf("%s: ?m.%d := #%d", e.Kind, e.Meta, e.Right)
	default:
		return fmt.Sprintf("%s: #%d =?= #%d", e.Kind, e.Left, e.Right)
	}
}
