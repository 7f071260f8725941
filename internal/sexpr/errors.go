package sexpr

import (
	"fmt"

	"dtt/internal/source"
)

// Error is a syntax error at Span.
type Error struct {
	Span source.Span
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Span, e.Msg) }

func errorf(sp source.Span, format string, args ...any) *Error {
	return &Error{Span: sp, Msg: fmt.Sprintf(format, args...)}
}
