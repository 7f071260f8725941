package kernel

import (
	"dtt/internal/term"
)

// IsDefEq reports whether a and b are definitionally equal under ctx.
// Binder implicitness is ignored. Only FuelExhausted is returned as an error.
func (e *Engine) IsDefEq(a, b term.ID, ctx Context) (bool, error) {
	defer e.enter(e.budget)()
	return e.isDefEq(a, b, ctx)
}

func (e *Engine) isDefEq(a, b term.ID, ctx Context) (bool, error) {
	if a == b {
		return true, nil
	}
	cacheable := e.cacheable(a) && e.cacheable(b)
	if cacheable && e.cache.knownEq(a, b) {
		return true, nil
	}
	ok, err := e.isDefEqCore(a, b, ctx)
	if err != nil {
		return false, err
	}
	if ok && cacheable {
		e.cache.defeq[pair(a, b)] = struct{}{}
	}
	return ok, nil
}

func (e *Engine) isDefEqCore(a, b term.ID, ctx Context) (bool, error) {
	ts := e.terms
	if ts.Kind(a) == term.KindSort && ts.Kind(b) == term.KindSort {
		return e.LevelEq(ts.Node(a).Level, ts.Node(b).Level), nil
	}
	var err error
	if a, err = e.whnfCore(a, ctx); err != nil {
		return false, err
	}
	if b, err = e.whnfCore(b, ctx); err != nil {
		return false, err
	}
	if a == b {
		return true, nil
	}
	a, b, done, ok, err := e.lazyDelta(a, b, ctx)
	if err != nil || done {
		return ok, err
	}
	return e.isDefEqWHNF(a, b, ctx)
}

// lazyDelta unfolds the side with the greater definition height until both
// heads are stuck, comparing arguments first when both heads are the same
// constant. done is set when the comparison was decided on the way.
func (e *Engine) lazyDelta(a, b term.ID, ctx Context) (term.ID, term.ID, bool, bool, error) {
	ts := e.terms
	for {
		da, okA := e.unfoldable(a)
		db, okB := e.unfoldable(b)
		var err error
		switch {
		case !okA && !okB:
			ra, progA, errA := e.unfold(a, ctx)
			if errA != nil {
				return a, b, true, false, errA
			}
			rb, progB, errB := e.unfold(b, ctx)
			if errB != nil {
				return a, b, true, false, errB
			}
			if !progA && !progB {
				return a, b, false, false, nil
			}
			a, b = ra, rb
		case okA && !okB:
			a, _, err = e.unfold(a, ctx)
		case !okA && okB:
			b, _, err = e.unfold(b, ctx)
		default:
			if da.Name == db.Name {
				same, err := e.sameConstApp(a, b, ctx)
				if err != nil {
					return a, b, true, false, err
				}
				if same {
					return a, b, true, true, nil
				}
			}
			switch {
			case da.Height > db.Height:
				a, _, err = e.unfold(a, ctx)
			case da.Height < db.Height:
				b, _, err = e.unfold(b, ctx)
			default:
				if a, _, err = e.unfold(a, ctx); err == nil {
					b, _, err = e.unfold(b, ctx)
				}
			}
		}
		if err != nil {
			return a, b, true, false, err
		}
		if a, err = e.whnfCore(a, ctx); err != nil {
			return a, b, true, false, err
		}
		if b, err = e.whnfCore(b, ctx); err != nil {
			return a, b, true, false, err
		}
		if a == b {
			return a, b, true, true, nil
		}
		if ts.Kind(a) == term.KindSort && ts.Kind(b) == term.KindSort {
			return a, b, true, e.LevelEq(ts.Node(a).Level, ts.Node(b).Level), nil
		}
	}
}

// sameConstApp compares c.{us} as and c.{vs} bs argument-wise without unfolding c.
func (e *Engine) sameConstApp(a, b term.ID, ctx Context) (bool, error) {
	ts := e.terms
	ha, as := ts.Spine(a)
	hb, bs := ts.Spine(b)
	if len(as) != len(bs) || !e.sameLevels(ts.Node(ha), ts.Node(hb)) {
		return false, nil
	}
	for i := range as {
		ok, err := e.isDefEq(as[i], bs[i], ctx)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (e *Engine) sameLevels(x, y term.Node) bool {
	if x.Levels == y.Levels {
		return true
	}
	us, vs := e.terms.ConstLevels(x), e.terms.ConstLevels(y)
	if len(us) != len(vs) {
		return false
	}
	for i := range us {
		if !e.LevelEq(us[i], vs[i]) {
			return false
		}
	}
	return true
}

// isDefEqWHNF compares two terms whose heads no longer reduce.
func (e *Engine) isDefEqWHNF(a, b term.ID, ctx Context) (bool, error) {
	ts := e.terms
	na, nb := ts.Node(a), ts.Node(b)
	switch {
	case na.Kind == term.KindLam && nb.Kind != term.KindLam:
		return e.etaExpand(na, b, ctx)
	case nb.Kind == term.KindLam && na.Kind != term.KindLam:
		return e.etaExpand(nb, a, ctx)
	case na.Kind != nb.Kind:
		return false, nil
	}
	switch na.Kind {
	case term.KindSort:
		return e.LevelEq(na.Level, nb.Level), nil
	case term.KindConst:
		return na.Sym == nb.Sym && e.sameLevels(na, nb), nil
	case term.KindVar:
		return na.Index == nb.Index, nil
	case term.KindMVar:
		return na.Index == nb.Index, nil
	case term.KindLam, term.KindPi:
		ok, err := e.isDefEq(na.A, nb.A, ctx)
		if err != nil || !ok {
			return false, err
		}
		return e.isDefEq(na.B, nb.B, ctx.Push(na.Binder()))
	case term.KindApp:
		ha, as := ts.Spine(a)
		hb, bs := ts.Spine(b)
		if len(as) != len(bs) {
			return false, nil
		}
		ok, err := e.isDefEq(ha, hb, ctx)
		if err != nil || !ok {
			return false, err
		}
		for i := range as {
			if ok, err := e.isDefEq(as[i], bs[i], ctx); err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
	return false, nil
}

// etaExpand decides fun x => body =?= t by comparing body with t x.
func (e *Engine) etaExpand(lam term.Node, t term.ID, ctx Context) (bool, error) {
	ts := e.terms
	if k := ts.Kind(t); k == term.KindSort || k == term.KindPi {
		return false, nil
	}
	expanded := ts.App(ts.Lift(t, 0, 1), ts.Var(0))
	return e.isDefEq(lam.B, expanded, ctx.Push(lam.Binder()))
}
