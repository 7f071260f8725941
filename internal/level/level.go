package level

import (
	"fmt"

	"dtt/internal/symbols"
)

// ID uniquely identifies a normalized universe level inside an Arena.
type ID uint32

// NoID marks the absence of a level.
const NoID ID = 0

// Kind enumerates level constructors.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindZero
	KindSucc
	KindMax
	KindIMax
	KindParam
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindZero:
		return "zero"
	case KindSucc:
		return "succ"
	case KindMax:
		return "max"
	case KindIMax:
		return "imax"
	case KindParam:
		return "param"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Level is a compact descriptor of one level node.
type Level struct {
	Kind  Kind
	A     ID         // succ operand, max/imax left
	B     ID         // max/imax right
	Param symbols.ID // for KindParam
}

// Assignment supplies values for level parameters (e.g. solved level metavariables).
// A nil Assignment leaves every parameter in place.
type Assignment interface {
	Level(param symbols.ID) (ID, bool)
}

// MapAssignment is an Assignment backed by a map.
type MapAssignment map[symbols.ID]ID

// Level implements Assignment.
func (m MapAssignment) Level(p symbols.ID) (ID, bool) {
	l, ok := m[p]
	return l, ok
}

// SeqID identifies an interned ordered sequence of levels (Const universe arguments).
type SeqID uint32

// EmptySeq is the sequence of length zero.
const EmptySeq SeqID = 0
