package unify

import (
	"dtt/internal/level"
	"dtt/internal/symbols"
)

// UnifyLevels solves u = v. Only three shapes are decided: both sides
// normalize to the same level (or are provably equivalent), or one side is an
// unassigned level metavariable not occurring in the other. Common successor
// offsets are stripped first. Anything else that still mentions a level
// metavariable is postponed; the rest fails with LevelMismatch.
func (un *Unifier) UnifyLevels(u, v level.ID) error {
	ls := un.levels
	u, v = un.store.InstantiateLevel(u), un.store.InstantiateLevel(v)
	for ls.Get(u).Kind == level.KindSucc && ls.Get(v).Kind == level.KindSucc {
		u, v = ls.Get(u).A, ls.Get(v).A
	}
	if u == v || ls.Equiv(u, v, nil) {
		return nil
	}
	if p, ok := un.levelMeta(u); ok && !ls.Occurs(p, v) {
		un.store.AssignLevel(p, v)
		return nil
	}
	if p, ok := un.levelMeta(v); ok && !ls.Occurs(p, u) {
		un.store.AssignLevel(p, u)
		return nil
	}
	if un.hasLevelMeta(u) || un.hasLevelMeta(v) {
		un.queue = append(un.queue, Constraint{Levels: true, U: u, V: v})
		return nil
	}
	return &Error{Kind: LevelMismatch, U: u, V: v}
}

func (un *Unifier) levelMeta(l level.ID) (symbols.ID, bool) {
	lv := un.levels.Get(l)
	if lv.Kind != level.KindParam || !un.store.IsLevelMeta(lv.Param) {
		return symbols.NoID, false
	}
	return lv.Param, true
}

func (un *Unifier) hasLevelMeta(l level.ID) bool {
	for _, p := range un.levels.ParamsOf(l, nil) {
		if un.store.IsLevelMeta(p) {
			return true
		}
	}
	return false
}

// Solve retries postponed constraints until no more progress is made. In
// final mode flex-flex pairs are then solved by assigning one side to the
// other, non-pattern spines get a first-order approximation, and any
// constraint left over is reported as Stuck.
func (un *Unifier) Solve(final bool) error {
	if err := un.drain(); err != nil {
		return err
	}
	if !final {
		return nil
	}
	for len(un.queue) > 0 {
		before := un.store.Mark()
		un.approx = true
		err := un.drain()
		un.approx = false
		if err != nil {
			return err
		}
		if err := un.drain(); err != nil {
			return err
		}
		if un.store.Mark() == before {
			break
		}
	}
	if len(un.queue) > 0 {
		c := un.queue[0]
		if c.Levels {
			return &Error{Kind: LevelMismatch, U: c.U, V: c.V}
		}
		return &Error{Kind: Stuck, Left: c.Left, Right: c.Right, Ctx: c.Ctx}
	}
	return nil
}

// drain processes the queue to a fixed point.
func (un *Unifier) drain() error {
	for len(un.queue) > 0 {
		before, n := un.store.Mark(), len(un.queue)
		q := un.queue
		un.queue = nil
		for i, c := range q {
			var err error
			if c.Levels {
				err = un.UnifyLevels(c.U, c.V)
			} else {
				err = un.unify(c.Left, c.Right, c.Ctx)
			}
			if err != nil {
				un.queue = append(un.queue, q[i+1:]...)
				return err
			}
		}
		if un.store.Mark() == before && len(un.queue) == n {
			return nil
		}
	}
	return nil
}
