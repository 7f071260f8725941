package kernel

import (
	"errors"
	"fmt"

	"dtt/internal/symbols"
	"dtt/internal/term"
)

// ErrFuelExhausted is returned when reduction runs out of fuel on a term that
// could still reduce. Callers may retry with a larger budget.
var ErrFuelExhausted = errors.New("fuel exhausted")

// ErrorKind classifies type errors.
type ErrorKind uint8

const (
	UnboundVariable ErrorKind = iota + 1
	UnknownConstant
	TypeMismatch
	NotAFunction
	NotASort
	UniverseArityMismatch
	UnknownUniverseParam
	UnresolvedMetavariable
)

func (k ErrorKind) String() string {
	switch k {
	case UnboundVariable:
		return "unbound variable"
	case UnknownConstant:
		return "unknown constant"
	case TypeMismatch:
		return "type mismatch"
	case NotAFunction:
		return "not a function"
	case NotASort:
		return "not a sort"
	case UniverseArityMismatch:
		return "universe arity mismatch"
	case UnknownUniverseParam:
		return "unknown universe parameter"
	case UnresolvedMetavariable:
		return "unresolved metavariable"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Error is a structured type error. Only the fields relevant to Kind are set.
type Error struct {
	Kind ErrorKind
	// Term is the offending subterm.
	Term term.ID
	// Expected and Found are set for TypeMismatch; Found alone for
	// NotAFunction and NotASort.
	Expected term.ID
	Found    term.ID
	// Name is the constant or universe parameter involved.
	Name symbols.ID
	Meta term.MetaID
	// Want and Got are the arities of an UniverseArityMismatch.
	Want, Got int
	// Ctx is the local context the terms above live in.
	Ctx Context
}

func (e *Error) Error() string {
	switch e.Kind {
	case TypeMismatch:
		return fmt.Sprintf("%s: expected #%d, found #%d", e.Kind, e.Expected, e.Found)
	case UniverseArityMismatch:
		return fmt.Sprintf("%s: constant %d expects %d universe levels, got %d", e.Kind, e.Name, e.Want, e.Got)
	case UnknownConstant, UnknownUniverseParam:
		return fmt.Sprintf("%s (symbol %d)", e.Kind, e.Name)
	case UnresolvedMetavariable:
		return fmt.Sprintf("%s ?m.%d", e.Kind, e.Meta)
	default:
		return fmt.Sprintf("%s: #%d", e.Kind, e.Term)
	}
}

// IsKind reports whether err is a kernel *Error of kind k.
func IsKind(err error, k ErrorKind) bool {
	var ke *Error
	return errors.As(err, &ke) && ke.Kind == k
}
