package elab

import (
	"fmt"

	"dtt/internal/source"
	"dtt/internal/symbols"
	"dtt/internal/term"
)

// ErrorKind classifies elaboration failures.
type ErrorKind uint8

const (
	UnknownIdentifier ErrorKind = iota + 1
	UnknownUniverse
	UniverseArity
	CannotInferHoleType
	LiteralTooLarge
	UnresolvedMetavariable
	InvalidDecl
	// TypeError wraps a unification or kernel failure; Cause holds it.
	TypeError
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownIdentifier:
		return "unknown identifier"
	case UnknownUniverse:
		return "unknown universe parameter"
	case UniverseArity:
		return "wrong number of universe levels"
	case CannotInferHoleType:
		return "cannot infer the type of this hole"
	case LiteralTooLarge:
		return "literal too large"
	case UnresolvedMetavariable:
		return "unresolved metavariable"
	case InvalidDecl:
		return "invalid declaration"
	case TypeError:
		return "type error"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Error is an elaboration failure located at Span.
type Error struct {
	Kind ErrorKind
	Span source.Span
	// Name is the identifier, universe, or literal text involved.
	Name string
	Msg  string
	// Expected and Found are set by failed checks against an expected type.
	// Ctx names their free variables, outermost first.
	Expected, Found term.ID
	Ctx             []symbols.ID
	Cause           error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Name != "" {
		msg += " " + e.Name
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }
