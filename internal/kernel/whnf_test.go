package kernel

import (
	"errors"
	"testing"

	"dtt/internal/symbols"
	"dtt/internal/term"
)

func TestWHNFBeta(t *testing.T) {
	k := newKit(t)
	a := k.terms
	foo := k.c("foo")
	redex := a.App(a.Lam(term.Binder{Type: k.typ()}, a.Var(0)), foo)
	got, err := k.engine(Options{}).WHNF(redex, k.ctx(), 10)
	if err != nil {
		t.Fatalf("WHNF: %v", err)
	}
	if got != foo {
		t.Fatalf("WHNF = %s, want foo", k.show(got))
	}
}

func omega(k *kit) term.ID {
	a := k.terms
	w := a.Lam(term.Binder{Type: k.c("Nat")}, a.App(a.Var(0), a.Var(0)))
	return a.App(w, w)
}

func TestWHNFFuelExhausted(t *testing.T) {
	k := newKit(t)
	eng := k.engine(Options{})
	_, err := eng.WHNF(omega(k), k.ctx(), 100)
	if !errors.Is(err, ErrFuelExhausted) {
		t.Fatalf("want ErrFuelExhausted, got %v", err)
	}
	if eng.Steps() != 100 {
		t.Fatalf("spent %d steps, want 100", eng.Steps())
	}
	// a normal form costs nothing, even with zero fuel
	if got, err := eng.WHNF(k.c("Nat"), k.ctx(), 0); err != nil || got != k.c("Nat") {
		t.Fatalf("WHNF(Nat, 0) = %d, %v", got, err)
	}
}

func TestWHNFDeltaAndOpacity(t *testing.T) {
	k := newKit(t)
	a := k.terms
	one := k.levels.Numeral(1)
	app := a.Apps(k.c("id", one), k.c("Nat"), k.nat(2))
	got, err := k.engine(Options{}).Reduce(app, k.ctx())
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if got != k.nat(2) {
		t.Fatalf("id Nat 2 reduced to %s", k.show(got))
	}

	k.opaque("two", k.c("Nat"), k.nat(2))
	got, err = k.engine(Options{}).Reduce(k.c("two"), k.ctx())
	if err != nil || got != k.c("two") {
		t.Fatalf("opaque constant unfolded to %s (%v)", k.show(got), err)
	}
}

func TestWHNFZetaAndLetContext(t *testing.T) {
	k := newKit(t)
	a := k.terms
	nat := k.c("Nat")
	let := a.Let(term.Binder{Type: nat}, k.nat(1), a.App(k.c("Nat.succ"), a.Var(0)))
	got, err := k.engine(Options{}).Reduce(let, k.ctx())
	if err != nil || got != k.nat(2) {
		t.Fatalf("zeta: got %s (%v)", k.show(got), err)
	}

	ctx := k.ctx().PushLet(term.Binder{Type: nat}, k.nat(3))
	got, err = k.engine(Options{}).Reduce(a.Var(0), ctx)
	if err != nil || got != k.nat(3) {
		t.Fatalf("let-bound variable: got %s (%v)", k.show(got), err)
	}
}

func TestWHNFCoreDoesNotUnfold(t *testing.T) {
	k := newKit(t)
	one := k.levels.Numeral(1)
	app := k.terms.Apps(k.c("id", one), k.c("Nat"), k.nat(0))
	got, err := k.engine(Options{}).WHNFCore(app, k.ctx())
	if err != nil || got != app {
		t.Fatalf("WHNFCore unfolded a constant: %s (%v)", k.show(got), err)
	}
	unfolded, ok, err := k.engine(Options{}).Unfold(app, k.ctx())
	if err != nil || !ok {
		t.Fatalf("Unfold: %v %v", ok, err)
	}
	if unfolded == app {
		t.Fatalf("Unfold made no progress")
	}
}

func TestWHNFCacheSkipsUnknownConstants(t *testing.T) {
	k := newKit(t)
	a := k.terms
	eng := k.engine(Options{})
	known := a.App(a.Lam(term.Binder{Type: k.typ()}, a.Var(0)), k.c("Nat"))
	if _, err := eng.Reduce(known, k.ctx()); err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if eng.Cache().Stats().WHNF != 1 {
		t.Fatalf("result over known constants was not cached")
	}
	stuck := a.App(a.Lam(term.Binder{Type: k.typ()}, a.Var(0)), k.c("later"))
	if _, err := eng.Reduce(stuck, k.ctx()); err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if eng.Cache().Stats().WHNF != 1 {
		t.Fatalf("result stuck on an unknown constant was cached")
	}
	steps := eng.Steps()
	if _, err := eng.Reduce(known, k.ctx()); err != nil || eng.Steps() != steps {
		t.Fatalf("cached reduction was recomputed")
	}
}

func TestIotaRecursor(t *testing.T) {
	k := newKit(t)
	a := k.terms
	nat, zero, succ := k.c("Nat"), k.c("Nat.zero"), k.c("Nat.succ")
	u := k.syms.Intern("u")
	lu := k.levels.Param(u)
	recName := k.syms.Intern("Nat.rec")
	rec := a.Const(recName, lu)

	motiveTy := a.Arrow(nat, a.Sort(lu))
	// Nat.rec.{u} : (motive : Nat -> Sort u) -> motive zero ->
	//   ((n : Nat) -> motive n -> motive (succ n)) -> (t : Nat) -> motive t
	recTy := a.Pi(term.Binder{Type: motiveTy},
		a.Arrow(a.App(a.Var(0), zero),
			a.Arrow(
				a.Pi(term.Binder{Type: nat}, a.Arrow(a.App(a.Var(1), a.Var(0)), a.App(a.Var(2), a.App(succ, a.Var(1))))),
				a.Pi(term.Binder{Type: nat}, a.App(a.Var(1), a.Var(0))))))
	k.axiom("Nat.rec", recTy, u)

	// binder types of the rules are irrelevant to reduction
	lam := func(body term.ID) term.ID { return a.Lam(term.Binder{Type: nat}, body) }
	// zero: fun motive z s => z
	zeroRHS := lam(lam(lam(a.Var(1))))
	// succ: fun motive z s n => s n (Nat.rec motive z s n)
	succRHS := lam(lam(lam(lam(a.Apps(a.Var(1), a.Var(0), a.Apps(rec, a.Var(3), a.Var(2), a.Var(1), a.Var(0)))))))
	rs := NewRecursors()
	rs.Add(&Recursor{
		Name:           recName,
		UniverseParams: []symbols.ID{u},
		Motives:        1,
		Minors:         2,
		Rules: []RecursorRule{
			{Ctor: k.syms.Intern("Nat.zero"), RHS: zeroRHS},
			{Ctor: k.syms.Intern("Nat.succ"), Fields: 1, RHS: succRHS},
		},
	})

	one := k.levels.Numeral(1)
	motive := lam(nat)
	step := lam(lam(a.App(succ, a.Var(0))))
	copyOf := func(n int) term.ID {
		return a.Apps(a.Const(recName, one), motive, zero, step, k.nat(n))
	}
	eng := k.engine(Options{Iota: rs})
	got, err := eng.Reduce(copyOf(0), k.ctx())
	if err != nil || got != zero {
		t.Fatalf("rec on zero: %s (%v)", k.show(got), err)
	}
	got, err = eng.Reduce(copyOf(2), k.ctx())
	if err != nil || a.Head(got) != succ {
		t.Fatalf("rec on 2 reduced to %s (%v)", k.show(got), err)
	}
	ok, err := eng.IsDefEq(copyOf(3), k.nat(3), k.ctx())
	if err != nil || !ok {
		t.Fatalf("rec copy of 3 is not 3: %v %v", ok, err)
	}

	// without the rule the recursor is stuck
	stuck, err := k.engine(Options{}).Reduce(copyOf(1), k.ctx())
	if err != nil || stuck != copyOf(1) {
		t.Fatalf("recursor reduced without an iota rule: %s", k.show(stuck))
	}
}
