package term

import (
	"fmt"
	"slices"

	"dtt/internal/level"
)

// Snapshot returns every interned node in ID order, without the sentinel.
func (a *Arena) Snapshot() []Node {
	return slices.Clone(a.nodes[1:])
}

// Restore rebuilds an arena from a Snapshot over an already restored level
// arena. IDs are preserved; children must precede their parents.
func Restore(levels *level.Arena, nodes []Node) (*Arena, error) {
	a := &Arena{
		levels: levels,
		nodes:  make([]Node, 1, len(nodes)+1),
		infos:  make([]info, 1, len(nodes)+1),
		index:  make(map[Node]ID, len(nodes)),
	}
	for i, n := range nodes {
		want := ID(i + 1)
		if err := a.validate(n, want); err != nil {
			return nil, err
		}
		if _, dup := a.index[n.key()]; dup {
			return nil, fmt.Errorf("term %d: duplicate entry", want)
		}
		if got := a.intern(n); got != want {
			return nil, fmt.Errorf("term %d: restored as %d", want, got)
		}
	}
	return a, nil
}

func (a *Arena) validate(n Node, id ID) error {
	child := func(c ID) error {
		if c == NoID || c >= id {
			return fmt.Errorf("term %d: child %d out of order", id, c)
		}
		return nil
	}
	switch n.Kind {
	case KindVar, KindMVar:
	case KindSort:
		if _, ok := a.levels.Lookup(n.Level); !ok {
			return fmt.Errorf("term %d: unknown level %d", id, n.Level)
		}
	case KindConst:
		if int(n.Levels) >= a.levels.SeqLen() {
			return fmt.Errorf("term %d: unknown level sequence %d", id, n.Levels)
		}
	case KindApp, KindLam, KindPi:
		if err := child(n.A); err != nil {
			return err
		}
		return child(n.B)
	case KindLet:
		for _, c := range []ID{n.A, n.B, n.C} {
			if err := child(c); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("term %d: invalid kind %v", id, n.Kind)
	}
	return nil
}
