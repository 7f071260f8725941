package kernel

import (
	"dtt/internal/env"
	"dtt/internal/term"
)

// WHNF reduces t to weak head normal form with beta, delta, zeta, and iota
// steps, spending at most fuel steps.
func (e *Engine) WHNF(t term.ID, ctx Context, fuel uint64) (term.ID, error) {
	defer e.enter(fuel)()
	return e.whnf(t, ctx)
}

// Reduce is WHNF with the engine's default budget.
func (e *Engine) Reduce(t term.ID, ctx Context) (term.ID, error) {
	defer e.enter(e.budget)()
	return e.whnf(t, ctx)
}

// WHNFCore reduces the head of t with beta, zeta, let-bound variables, and
// assigned metavariables only. Constants are never unfolded.
func (e *Engine) WHNFCore(t term.ID, ctx Context) (term.ID, error) {
	defer e.enter(e.budget)()
	return e.whnfCore(t, ctx)
}

// Unfold performs one delta or iota step at the head of t.
func (e *Engine) Unfold(t term.ID, ctx Context) (term.ID, bool, error) {
	defer e.enter(e.budget)()
	return e.unfold(t, ctx)
}

func (e *Engine) whnf(t term.ID, ctx Context) (term.ID, error) {
	cacheable := e.cacheable(t)
	if cacheable {
		if r, ok := e.cache.getWHNF(t); ok {
			return r, nil
		}
	}
	outer := e.unknown
	e.unknown = false
	start := t
	for {
		var err error
		t, err = e.whnfCore(t, ctx)
		if err != nil {
			e.unknown = e.unknown || outer
			return term.NoID, err
		}
		next, ok, err := e.unfold(t, ctx)
		if err != nil {
			e.unknown = e.unknown || outer
			return term.NoID, err
		}
		if !ok {
			break
		}
		t = next
	}
	if cacheable && !e.unknown {
		e.cache.whnf[start] = t
	}
	e.unknown = e.unknown || outer
	return t, nil
}

func (e *Engine) whnfCore(t term.ID, ctx Context) (term.ID, error) {
	a := e.terms
	for {
		n := a.Node(t)
		switch n.Kind {
		case term.KindVar:
			v, ok := ctx.Value(n.Index)
			if !ok {
				return t, nil
			}
			if err := e.step(); err != nil {
				return term.NoID, err
			}
			t = v
		case term.KindMVar:
			v, ok := e.assigned(n.Meta())
			if !ok {
				return t, nil
			}
			if err := e.step(); err != nil {
				return term.NoID, err
			}
			t = v
		case term.KindLet:
			if err := e.step(); err != nil {
				return term.NoID, err
			}
			t = a.Instantiate(n.C, n.B)
		case term.KindApp:
			head, args := a.Spine(t)
			switch a.Kind(head) {
			case term.KindLam:
				if err := e.step(); err != nil {
					return term.NoID, err
				}
				t = a.Beta(head, args)
			case term.KindVar, term.KindMVar, term.KindLet:
				h, err := e.whnfCore(head, ctx)
				if err != nil {
					return term.NoID, err
				}
				if h == head {
					return t, nil
				}
				t = a.Apps(h, args...)
			default:
				return t, nil
			}
		default:
			return t, nil
		}
	}
}

func (e *Engine) assigned(m term.MetaID) (term.ID, bool) {
	if e.metas == nil {
		return term.NoID, false
	}
	return e.metas.Assigned(m)
}

// Unfoldable returns the declaration a delta step at the head of t would use.
func (e *Engine) Unfoldable(t term.ID) (*env.Declaration, bool) { return e.unfoldable(t) }

func (e *Engine) unfoldable(t term.ID) (*env.Declaration, bool) {
	head := e.terms.Node(e.terms.Head(t))
	if head.Kind != term.KindConst {
		return nil, false
	}
	d, ok := e.env.Lookup(head.Sym)
	if !ok {
		e.unknown = true
		return nil, false
	}
	if !d.Unfoldable() || len(e.terms.ConstLevels(head)) != len(d.UniverseParams) {
		return nil, false
	}
	return d, true
}

func (e *Engine) unfold(t term.ID, ctx Context) (term.ID, bool, error) {
	a := e.terms
	head, args := a.Spine(t)
	hn := a.Node(head)
	if hn.Kind != term.KindConst {
		return t, false, nil
	}
	if d, ok := e.unfoldable(t); ok {
		if err := e.step(); err != nil {
			return term.NoID, false, err
		}
		v := a.InstantiateLevelParams(d.Value, d.UniverseParams, a.ConstLevels(hn))
		return a.Beta(v, args), true, nil
	}
	if e.iota == nil {
		return t, false, nil
	}
	r, ok, err := e.iota.Iota(e, hn, args, ctx)
	if err != nil || !ok {
		return t, false, err
	}
	if err := e.step(); err != nil {
		return term.NoID, false, err
	}
	return r, true, nil
}

// ReduceNested is the reduction entry point for iota rules: it shares the
// budget of the query in progress.
func (e *Engine) ReduceNested(t term.ID, ctx Context) (term.ID, error) {
	return e.whnf(t, ctx)
}
