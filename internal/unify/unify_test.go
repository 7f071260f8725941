package unify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"dtt/internal/env"
	"dtt/internal/kernel"
	"dtt/internal/level"
	"dtt/internal/meta"
	"dtt/internal/symbols"
	"dtt/internal/term"
)

type fixture struct {
	syms  *symbols.Table
	terms *term.Arena
	store *meta.Store
	env   *env.Environment
	u     *Unifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	syms := symbols.NewTable()
	terms := term.NewArena(level.NewArena())
	f := &fixture{syms: syms, terms: terms, env: env.New()}
	typ := terms.Sort(terms.Levels().Numeral(1))
	f.declare(t, "Nat", env.Declaration{Type: typ})
	f.declare(t, "Bool", env.Declaration{Type: typ})
	f.declare(t, "Nat.zero", env.Declaration{Type: f.c("Nat")})
	f.declare(t, "Nat.succ", env.Declaration{Type: terms.Arrow(f.c("Nat"), f.c("Nat"))})
	f.declare(t, "Nat.add", env.Declaration{Type: terms.Arrow(f.c("Nat"), terms.Arrow(f.c("Nat"), f.c("Nat")))})
	f.declare(t, "two", env.Declaration{
		Type: f.c("Nat"), Value: terms.App(f.c("Nat.succ"), terms.App(f.c("Nat.succ"), f.c("Nat.zero"))),
		Transparency: env.Transparent, Height: 1,
	})
	f.store = meta.NewStore(syms, terms)
	eng := kernel.NewEngine(terms, f.env, kernel.Options{Metas: f.store})
	f.u = New(eng, f.store)
	return f
}

func (f *fixture) declare(t *testing.T, name string, d env.Declaration) {
	t.Helper()
	next, err := f.env.Declare(f.syms.Intern(name), d)
	require.NoError(t, err)
	f.env = next
}

func (f *fixture) c(name string) term.ID { return f.terms.Const(f.syms.Intern(name)) }

func (f *fixture) ctx() kernel.Context { return kernel.NewContext(f.terms) }

func (f *fixture) meta(occ term.ID) term.MetaID {
	return f.terms.Node(f.terms.Head(occ)).Meta()
}

func TestOccursCheck(t *testing.T) {
	f := newFixture(t)
	a := f.terms
	m := f.u.NewMVar(f.c("Nat"), f.ctx())
	err := f.u.Unify(m, a.App(f.c("f"), m), f.ctx())
	var ue *Error
	require.True(t, errors.As(err, &ue), "got %v", err)
	require.Equal(t, OccursCheck, ue.Kind)
	_, assigned := f.store.Assigned(f.meta(m))
	require.False(t, assigned)
}

func TestFlexRigidAssignsClosedSolution(t *testing.T) {
	f := newFixture(t)
	a := f.terms
	nat := f.c("Nat")
	m := f.u.NewMVar(nat, f.ctx())
	require.NoError(t, f.u.Unify(a.App(f.c("Nat.succ"), m), f.c("two"), f.ctx()))
	require.Equal(t, a.App(f.c("Nat.succ"), f.c("Nat.zero")), f.store.Instantiate(m))
}

func TestPatternUnderBinders(t *testing.T) {
	f := newFixture(t)
	a := f.terms
	nat := f.c("Nat")
	ctx := f.ctx().Push(term.Binder{Name: f.syms.Intern("x"), Type: nat}).Push(term.Binder{Name: f.syms.Intern("y"), Type: nat})
	m := f.u.NewMVar(nat, ctx)
	require.Equal(t, a.Apps(a.MVar(f.meta(m)), a.Var(1), a.Var(0)), m)

	// ?m x y =?= add y x
	rhs := a.Apps(f.c("Nat.add"), a.Var(0), a.Var(1))
	require.NoError(t, f.u.Unify(m, rhs, ctx))
	sol, ok := f.store.Assigned(f.meta(m))
	require.True(t, ok)
	require.Zero(t, a.LooseBound(sol), "assignment must be closed")
	require.Equal(t, rhs, f.store.Instantiate(m))
}

func TestScopeEscape(t *testing.T) {
	f := newFixture(t)
	a := f.terms
	nat := f.c("Nat")
	m := f.u.NewMVar(nat, f.ctx())
	inner := f.ctx().Push(term.Binder{Type: nat})
	// a hole created outside the binder cannot mention the bound variable
	err := f.u.Unify(m, a.App(f.c("Nat.succ"), a.Var(0)), inner)
	var ue *Error
	require.True(t, errors.As(err, &ue), "got %v", err)
	require.Equal(t, ScopeEscape, ue.Kind)
}

func TestRigidMismatch(t *testing.T) {
	f := newFixture(t)
	err := f.u.Unify(f.c("Nat"), f.c("Bool"), f.ctx())
	var ue *Error
	require.True(t, errors.As(err, &ue))
	require.Equal(t, Mismatch, ue.Kind)

	// decomposition reaches a hole inside a rigid spine
	a := f.terms
	m := f.u.NewMVar(f.c("Nat"), f.ctx())
	add := func(x, y term.ID) term.ID { return a.Apps(f.c("Nat.add"), x, y) }
	require.NoError(t, f.u.Unify(add(m, f.c("Nat.zero")), add(f.c("two"), f.c("Nat.zero")), f.ctx()))
	require.Equal(t, f.c("two"), f.store.Instantiate(m))
}

func TestFlexFlexIsPostponedThenSolved(t *testing.T) {
	f := newFixture(t)
	nat := f.c("Nat")
	m1 := f.u.NewMVar(nat, f.ctx())
	m2 := f.u.NewMVar(nat, f.ctx())
	require.NoError(t, f.u.Unify(m1, m2, f.ctx()))
	require.Len(t, f.u.Pending(), 1)

	require.NoError(t, f.u.Solve(false))
	require.Len(t, f.u.Pending(), 1, "non-final solving must not guess")

	require.NoError(t, f.u.Solve(true))
	require.Empty(t, f.u.Pending())
	require.Equal(t, f.store.Instantiate(m1), f.store.Instantiate(m2))
}

func TestSolutionMustHaveTheHoleType(t *testing.T) {
	f := newFixture(t)
	nat := f.c("Nat")
	m := f.u.NewMVar(nat, f.ctx())
	// Nat : Type, so it cannot fill a hole of type Nat
	err := f.u.Unify(m, nat, f.ctx())
	var ue *Error
	require.True(t, errors.As(err, &ue), "got %v", err)
	require.Equal(t, Mismatch, ue.Kind)
	_, assigned := f.store.Assigned(f.meta(m))
	require.False(t, assigned)

	require.NoError(t, f.u.Unify(m, f.c("two"), f.ctx()))
	require.Equal(t, f.c("two"), f.store.Instantiate(m))
}

func TestPostponedConstraintWakesUp(t *testing.T) {
	f := newFixture(t)
	a := f.terms
	nat := f.c("Nat")
	m1 := f.u.NewMVar(nat, f.ctx())
	m2 := f.u.NewMVar(nat, f.ctx())
	require.NoError(t, f.u.Unify(m1, m2, f.ctx()))
	require.NoError(t, f.u.Unify(m2, a.App(f.c("Nat.succ"), f.c("Nat.zero")), f.ctx()))
	require.NoError(t, f.u.Solve(false))
	require.Empty(t, f.u.Pending())
	require.Equal(t, f.store.Instantiate(m2), f.store.Instantiate(m1))
}

func TestStuckConstraintIsReported(t *testing.T) {
	f := newFixture(t)
	a := f.terms
	nat := f.c("Nat")
	ctx := f.ctx().Push(term.Binder{Type: nat})
	m := f.u.NewMVar(a.Arrow(nat, nat), f.ctx())
	// ?m (succ x) =?= x has no pattern spine and no first-order solution
	require.NoError(t, f.u.Unify(a.App(a.Lift(m, 0, 1), a.App(f.c("Nat.succ"), a.Var(0))), a.Var(0), ctx))
	err := f.u.Solve(true)
	var ue *Error
	require.True(t, errors.As(err, &ue), "got %v", err)
	require.Equal(t, Stuck, ue.Kind)
}

func TestMarkRollback(t *testing.T) {
	f := newFixture(t)
	nat := f.c("Nat")
	m := f.u.NewMVar(nat, f.ctx())
	mark := f.u.Mark()
	require.NoError(t, f.u.Unify(m, f.c("two"), f.ctx()))
	f.u.Rollback(mark)
	_, ok := f.store.Assigned(f.meta(m))
	require.False(t, ok)
}

func TestUnifyLevels(t *testing.T) {
	f := newFixture(t)
	ls := f.terms.Levels()
	u := f.store.NewLevel()
	require.NoError(t, f.u.UnifyLevels(ls.Succ(u), ls.Numeral(2)))
	require.Equal(t, ls.Numeral(1), f.store.InstantiateLevel(u))

	require.NoError(t, f.u.UnifyLevels(ls.Max(ls.Numeral(1), ls.Zero()), ls.Numeral(1)))

	err := f.u.UnifyLevels(ls.Numeral(1), ls.Zero())
	var ue *Error
	require.True(t, errors.As(err, &ue))
	require.Equal(t, LevelMismatch, ue.Kind)

	// max ?v 1 = 1 is not in the solvable shapes: postponed, then reported
	v := f.store.NewLevel()
	require.NoError(t, f.u.UnifyLevels(ls.Max(v, ls.Numeral(1)), ls.Numeral(1)))
	require.Len(t, f.u.Pending(), 1)
	require.Error(t, f.u.Solve(true))
}

func TestSortUnificationAssignsLevel(t *testing.T) {
	f := newFixture(t)
	a := f.terms
	ls := a.Levels()
	u := f.store.NewLevel()
	require.NoError(t, f.u.Unify(a.Sort(ls.Succ(u)), a.Sort(ls.Numeral(1)), f.ctx()))
	require.Equal(t, ls.Zero(), f.store.InstantiateLevel(u))
}

func TestFuelErrorsAreWrapped(t *testing.T) {
	f := newFixture(t)
	a := f.terms
	nat := f.c("Nat")
	w := a.Lam(term.Binder{Type: nat}, a.App(a.Var(0), a.Var(0)))
	omega := a.App(w, w)
	m := f.u.NewMVar(nat, f.ctx())
	err := f.u.Unify(a.App(f.c("Nat.succ"), m), omega, f.ctx())
	require.ErrorIs(t, err, kernel.ErrFuelExhausted)
}
