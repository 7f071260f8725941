package kernel

import (
	"fmt"
	"slices"

	"dtt/internal/env"
	"dtt/internal/level"
	"dtt/internal/symbols"
	"dtt/internal/term"
)

// Checker is the bidirectional type checker. Without a metavariable view it
// is the trusted kernel and rejects every metavariable.
type Checker struct {
	eng    *Engine
	terms  *term.Arena
	levels *level.Arena
	params []symbols.ID
}

// NewChecker creates a checker over eng sharing its cache.
func NewChecker(eng *Engine) *Checker {
	return &Checker{eng: eng, terms: eng.terms, levels: eng.levels}
}

// Engine returns the conversion engine used by the checker.
func (c *Checker) Engine() *Engine { return c.eng }

// Infer synthesizes the type of t under ctx.
func (c *Checker) Infer(t term.ID, ctx Context) (term.ID, error) {
	defer c.eng.enter(c.eng.budget)()
	return c.infer(t, ctx)
}

func (c *Checker) infer(t term.ID, ctx Context) (term.ID, error) {
	cacheable := c.eng.cacheable(t)
	if cacheable {
		if ty, ok := c.eng.cache.getInfer(t); ok {
			return ty, nil
		}
	}
	ty, err := c.inferCore(t, ctx)
	if err != nil {
		return term.NoID, err
	}
	if cacheable {
		c.eng.cache.infer[t] = ty
	}
	return ty, nil
}

func (c *Checker) inferCore(t term.ID, ctx Context) (term.ID, error) {
	a := c.terms
	n := a.Node(t)
	switch n.Kind {
	case term.KindSort:
		return a.Sort(c.levels.Succ(n.Level)), nil
	case term.KindVar:
		return ctx.Type(n.Index), nil
	case term.KindConst:
		return c.inferConst(t, n, ctx)
	case term.KindApp:
		return c.inferApp(t, ctx)
	case term.KindLam:
		return c.inferLam(t, ctx)
	case term.KindPi:
		return c.inferPi(t, ctx)
	case term.KindLet:
		if _, err := c.ensureSortOf(n.A, ctx); err != nil {
			return term.NoID, err
		}
		if err := c.check(n.B, n.A, ctx); err != nil {
			return term.NoID, err
		}
		bodyTy, err := c.infer(n.C, ctx.PushLet(n.Binder(), n.B))
		if err != nil {
			return term.NoID, err
		}
		return a.Instantiate(bodyTy, n.B), nil
	case term.KindMVar:
		m := c.eng.metas
		if m == nil {
			return term.NoID, &Error{Kind: UnresolvedMetavariable, Term: t, Meta: n.Meta(), Ctx: ctx}
		}
		entry, ok := m.Lookup(n.Meta())
		if !ok {
			panic(fmt.Sprintf("kernel: unknown metavariable ?m.%d", n.Meta()))
		}
		return entry.Type, nil
	default:
		panic(fmt.Sprintf("kernel: cannot infer a term of kind %v", n.Kind))
	}
}

func (c *Checker) inferConst(t term.ID, n term.Node, ctx Context) (term.ID, error) {
	d, ok := c.eng.env.Lookup(n.Sym)
	if !ok {
		return term.NoID, &Error{Kind: UnknownConstant, Term: t, Name: n.Sym, Ctx: ctx}
	}
	ls := c.terms.ConstLevels(n)
	if len(ls) != len(d.UniverseParams) {
		return term.NoID, &Error{Kind: UniverseArityMismatch, Term: t, Name: n.Sym,
			Want: len(d.UniverseParams), Got: len(ls), Ctx: ctx}
	}
	return c.terms.InstantiateLevelParams(d.Type, d.UniverseParams, ls), nil
}

func (c *Checker) inferApp(t term.ID, ctx Context) (term.ID, error) {
	a := c.terms
	head, args := a.Spine(t)
	fty, err := c.infer(head, ctx)
	if err != nil {
		return term.NoID, err
	}
	fn := head
	for _, arg := range args {
		b, cod, err := c.ensurePi(fty, fn, ctx)
		if err != nil {
			return term.NoID, err
		}
		if err := c.check(arg, b.Type, ctx); err != nil {
			return term.NoID, err
		}
		fty = a.Instantiate(cod, arg)
		fn = a.App(fn, arg)
	}
	return fty, nil
}

// inferLam walks a telescope of lambdas iteratively.
func (c *Checker) inferLam(t term.ID, ctx Context) (term.ID, error) {
	a := c.terms
	var binders []term.Binder
	inner := ctx
	for a.Kind(t) == term.KindLam {
		n := a.Node(t)
		b := n.Binder()
		if _, err := c.ensureSortOf(b.Type, inner); err != nil {
			return term.NoID, err
		}
		binders = append(binders, b)
		inner = inner.Push(b)
		t = n.B
	}
	ty, err := c.infer(t, inner)
	if err != nil {
		return term.NoID, err
	}
	for _, b := range slices.Backward(binders) {
		ty = a.Pi(b, ty)
	}
	return ty, nil
}

// inferPi returns Sort(imax u1 (imax u2 ... v)) for a telescope of Pis.
func (c *Checker) inferPi(t term.ID, ctx Context) (term.ID, error) {
	a := c.terms
	var us []level.ID
	inner := ctx
	for a.Kind(t) == term.KindPi {
		n := a.Node(t)
		u, err := c.ensureSortOf(n.A, inner)
		if err != nil {
			return term.NoID, err
		}
		us = append(us, u)
		inner = inner.Push(n.Binder())
		t = n.B
	}
	l, err := c.ensureSortOf(t, inner)
	if err != nil {
		return term.NoID, err
	}
	for _, u := range slices.Backward(us) {
		l = c.levels.IMax(u, l)
	}
	return a.Sort(l), nil
}

// EnsureSort infers the type of t and reduces it to a Sort.
func (c *Checker) EnsureSort(t term.ID, ctx Context) (level.ID, error) {
	defer c.eng.enter(c.eng.budget)()
	return c.ensureSortOf(t, ctx)
}

func (c *Checker) ensureSortOf(t term.ID, ctx Context) (level.ID, error) {
	ty, err := c.infer(t, ctx)
	if err != nil {
		return level.NoID, err
	}
	w, err := c.eng.whnf(ty, ctx)
	if err != nil {
		return level.NoID, err
	}
	if n := c.terms.Node(w); n.Kind == term.KindSort {
		return n.Level, nil
	}
	return level.NoID, &Error{Kind: NotASort, Term: t, Found: ty, Ctx: ctx}
}

// EnsurePi reduces ty, the type of fn, to a Pi and returns its binder and
// codomain.
func (c *Checker) EnsurePi(ty, fn term.ID, ctx Context) (term.Binder, term.ID, error) {
	defer c.eng.enter(c.eng.budget)()
	return c.ensurePi(ty, fn, ctx)
}

func (c *Checker) ensurePi(ty, fn term.ID, ctx Context) (term.Binder, term.ID, error) {
	w, err := c.eng.whnf(ty, ctx)
	if err != nil {
		return term.Binder{}, term.NoID, err
	}
	if n := c.terms.Node(w); n.Kind == term.KindPi {
		return n.Binder(), n.B, nil
	}
	return term.Binder{}, term.NoID, &Error{Kind: NotAFunction, Term: fn, Found: ty, Ctx: ctx}
}

// Check verifies that t has type expected under ctx.
func (c *Checker) Check(t, expected term.ID, ctx Context) error {
	defer c.eng.enter(c.eng.budget)()
	return c.check(t, expected, ctx)
}

func (c *Checker) check(t, expected term.ID, ctx Context) error {
	a := c.terms
	if a.Kind(t) == term.KindLam {
		w, err := c.eng.whnf(expected, ctx)
		if err != nil {
			return err
		}
		if wn := a.Node(w); wn.Kind == term.KindPi {
			n := a.Node(t)
			if _, err := c.ensureSortOf(n.A, ctx); err != nil {
				return err
			}
			ok, err := c.eng.isDefEq(n.A, wn.A, ctx)
			if err != nil {
				return err
			}
			if !ok {
				return &Error{Kind: TypeMismatch, Term: n.A, Expected: wn.A, Found: n.A, Ctx: ctx}
			}
			return c.check(n.B, wn.B, ctx.Push(n.Binder()))
		}
	}
	ty, err := c.infer(t, ctx)
	if err != nil {
		return err
	}
	ok, err := c.eng.isDefEq(ty, expected, ctx)
	if err != nil {
		return err
	}
	if !ok {
		return &Error{Kind: TypeMismatch, Term: t, Expected: expected, Found: ty, Ctx: ctx}
	}
	return nil
}

// CheckDeclaration re-checks d from scratch: both terms must be closed, the
// type must be a type, the value must have that type, and only the declared
// universe parameters may occur.
func (c *Checker) CheckDeclaration(d *env.Declaration) error {
	defer c.eng.enter(c.eng.budget)()
	c.params = d.UniverseParams
	ctx := NewContext(c.terms)
	for _, t := range []term.ID{d.Type, d.Value} {
		if t == term.NoID {
			continue
		}
		if err := c.wellScoped(t, ctx); err != nil {
			return err
		}
	}
	if _, err := c.ensureSortOf(d.Type, ctx); err != nil {
		return err
	}
	if d.HasValue() {
		return c.check(d.Value, d.Type, ctx)
	}
	return nil
}

// wellScoped rejects loose variables, metavariables in kernel mode, and
// undeclared universe parameters before any rule runs.
func (c *Checker) wellScoped(t term.ID, ctx Context) error {
	a := c.terms
	if a.LooseBound(t) > ctx.Len() {
		return &Error{Kind: UnboundVariable, Term: t, Ctx: ctx}
	}
	if c.eng.metas == nil && a.HasMVar(t) {
		return &Error{Kind: UnresolvedMetavariable, Term: t, Meta: a.MVars(t)[0], Ctx: ctx}
	}
	for _, p := range a.LevelParams(t) {
		if slices.Contains(c.params, p) {
			continue
		}
		if c.eng.metas != nil && c.eng.metas.IsLevelMeta(p) {
			continue
		}
		return &Error{Kind: UnknownUniverseParam, Term: t, Name: p, Ctx: ctx}
	}
	return nil
}
