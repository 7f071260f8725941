// Package sexpr reads the s-expression interchange form of declarations.
//
// Reading happens in two stages: Parse turns bytes into a tree of lists and
// symbols with spans, and Translate maps that tree onto the ast package.
package sexpr

import (
	"strings"

	"dtt/internal/source"
)

// SExp is a node of the generic tree: *List or *Symbol.
type SExp interface {
	Span() source.Span
	String() string
}

// Bracket distinguishes (..) from {..}.
type Bracket uint8

const (
	Paren Bracket = iota
	Brace
)

type List struct {
	Bracket  Bracket
	Elements []SExp
	span     source.Span
}

type Symbol struct {
	Value string
	span  source.Span
}

func (l *List) Span() source.Span   { return l.span }
func (s *Symbol) Span() source.Span { return s.span }

func (s *Symbol) String() string { return s.Value }

func (l *List) String() string {
	var sb strings.Builder
	open, closing := "(", ")"
	if l.Bracket == Brace {
		open, closing = "{", "}"
	}
	sb.WriteString(open)
	for i, e := range l.Elements {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(e.String())
	}
	sb.WriteString(closing)
	return sb.String()
}

func (l *List) Len() int { return len(l.Elements) }

// Head returns the leading symbol of a parenthesized list, if any.
func (l *List) Head() (string, bool) {
	if l.Bracket != Paren || len(l.Elements) == 0 {
		return "", false
	}
	s, ok := l.Elements[0].(*Symbol)
	if !ok {
		return "", false
	}
	return s.Value, true
}
