package level

import (
	"fmt"
	"slices"

	"dtt/internal/symbols"
)

// Snapshot returns the interned levels (without the sentinel) and sequences
// (without EmptySeq) in ID order.
func (a *Arena) Snapshot() ([]Level, [][]ID) {
	seqs := make([][]ID, 0, len(a.seqs)-1)
	for _, s := range a.seqs[1:] {
		seqs = append(seqs, slices.Clone(s))
	}
	return slices.Clone(a.levels[1:]), seqs
}

// Restore rebuilds an arena from a Snapshot so that every ID keeps its number.
// Children must reference earlier entries, no entry may repeat, and every entry
// must already be in canonical form: it is rebuilt through the normalizing
// constructors and rejected unless that yields its recorded ID.
func Restore(levels []Level, seqs [][]ID) (*Arena, error) {
	if len(levels) == 0 || levels[0] != (Level{Kind: KindZero}) {
		return nil, fmt.Errorf("level snapshot must start with zero")
	}
	a := &Arena{
		levels:   make([]Level, 1, len(levels)+1),
		hasParam: make([]bool, 1, len(levels)+1),
		index:    make(map[Level]ID, len(levels)),
		seqs:     [][]ID{nil},
		seqIndex: map[string]SeqID{"": EmptySeq},
	}
	a.zero = 1
	for i, lv := range levels {
		want := ID(i + 1)
		switch lv.Kind {
		case KindZero:
		case KindParam:
			if lv.Param == symbols.NoID {
				return nil, fmt.Errorf("level %d: anonymous parameter", want)
			}
		case KindSucc:
			if lv.A == NoID || lv.A >= want {
				return nil, fmt.Errorf("level %d: succ operand %d out of order", want, lv.A)
			}
		case KindMax, KindIMax:
			if lv.A == NoID || lv.A >= want || lv.B == NoID || lv.B >= want {
				return nil, fmt.Errorf("level %d: operands %d, %d out of order", want, lv.A, lv.B)
			}
		default:
			return nil, fmt.Errorf("level %d: invalid kind %v", want, lv.Kind)
		}
		if _, dup := a.index[lv]; dup {
			return nil, fmt.Errorf("level %d: duplicate entry", want)
		}
		if got := a.rebuild(lv); got != want || a.levels[want] != lv {
			return nil, fmt.Errorf("level %d: %v is not in canonical form", want, lv.Kind)
		}
	}
	for i, s := range seqs {
		for _, l := range s {
			if l == NoID || int(l) >= len(a.levels) {
				return nil, fmt.Errorf("level sequence %d: unknown level %d", i+1, l)
			}
		}
		if got := a.Seq(s); got != SeqID(i+1) {
			return nil, fmt.Errorf("level sequence %d: restored as %d", i+1, got)
		}
	}
	return a, nil
}

// rebuild constructs lv through the constructor of its kind.
func (a *Arena) rebuild(lv Level) ID {
	switch lv.Kind {
	case KindParam:
		return a.Param(lv.Param)
	case KindSucc:
		return a.Succ(lv.A)
	case KindMax:
		return a.Max(lv.A, lv.B)
	case KindIMax:
		return a.IMax(lv.A, lv.B)
	}
	return a.raw(lv)
}
