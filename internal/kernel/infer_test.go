package kernel

import (
	"errors"
	"testing"

	"dtt/internal/env"
	"dtt/internal/symbols"
	"dtt/internal/term"
)

func TestInferIdentityFunction(t *testing.T) {
	k := newKit(t)
	a := k.terms
	s0 := k.prop()
	lam := a.Lam(term.Binder{Name: k.syms.Intern("x"), Type: s0}, a.Var(0))
	ty, err := k.checker().Infer(lam, k.ctx())
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if want := a.Pi(term.Binder{Type: s0}, s0); ty != want {
		t.Fatalf("Infer = %s, want %s", k.show(ty), k.show(want))
	}
}

func TestInferSortsAndPi(t *testing.T) {
	k := newKit(t)
	a := k.terms
	c := k.checker()
	ty, err := c.Infer(k.typ(), k.ctx())
	if err != nil || ty != a.Sort(k.levels.Numeral(2)) {
		t.Fatalf("Infer(Type) = %s (%v)", k.show(ty), err)
	}

	// (A : Type) -> A lives in Type 1
	poly := a.Pi(term.Binder{Type: k.typ()}, a.Var(0))
	ty, err = c.Infer(poly, k.ctx())
	if err != nil || ty != a.Sort(k.levels.Numeral(2)) {
		t.Fatalf("Infer((A : Type) -> A) = %s (%v)", k.show(ty), err)
	}

	// a Pi into Prop is a Prop, whatever its domain
	k.axiom("True", k.prop())
	impred := a.Pi(term.Binder{Type: k.typ()}, k.c("True"))
	ty, err = k.checker().Infer(impred, k.ctx())
	if err != nil || ty != k.prop() {
		t.Fatalf("Infer((A : Type) -> True) = %s (%v)", k.show(ty), err)
	}
}

func TestInferApplicationsAndConstants(t *testing.T) {
	k := newKit(t)
	a := k.terms
	c := k.checker()
	one := k.levels.Numeral(1)
	ty, err := c.Infer(a.Apps(k.c("id", one), k.c("Nat"), k.nat(1)), k.ctx())
	if err != nil || ty != k.c("Nat") {
		t.Fatalf("Infer(id Nat 1) = %s (%v)", k.show(ty), err)
	}
	ty, err = c.Infer(k.c("id", one), k.ctx())
	want := a.Pi(term.Binder{Type: k.typ(), Implicit: true}, a.Arrow(a.Var(0), a.Var(0)))
	if err != nil || ty != want {
		t.Fatalf("Infer(id.{1}) = %s (%v)", k.show(ty), err)
	}
}

func TestInferLet(t *testing.T) {
	k := newKit(t)
	a := k.terms
	nat := k.c("Nat")
	// let T : Type := Nat; fun (x : T) => x
	let := a.Let(term.Binder{Type: k.typ()}, nat, a.Lam(term.Binder{Type: a.Var(0)}, a.Var(0)))
	ty, err := k.checker().Infer(let, k.ctx())
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if ok, _ := k.engine(Options{}).IsDefEq(ty, a.Arrow(nat, nat), k.ctx()); !ok {
		t.Fatalf("Infer(let) = %s", k.show(ty))
	}
	// the body may rely on the let value definitionally
	needsValue := a.Let(term.Binder{Type: k.typ()}, nat, a.App(k.c("Nat.succ"), a.App(a.Lam(term.Binder{Type: a.Var(0)}, a.Var(0)), k.nat(0))))
	if _, err := k.checker().Infer(needsValue, k.ctx()); err != nil {
		t.Fatalf("let value not visible to the body: %v", err)
	}
}

func TestCheckTypeMismatch(t *testing.T) {
	k := newKit(t)
	err := k.checker().Check(k.c("true_bool"), k.c("Nat"), k.ctx())
	var ke *Error
	if !errors.As(err, &ke) || ke.Kind != TypeMismatch {
		t.Fatalf("want TypeMismatch, got %v", err)
	}
	if ke.Expected != k.c("Nat") || ke.Found != k.c("Bool") {
		t.Fatalf("mismatch reports expected %s, found %s", k.show(ke.Expected), k.show(ke.Found))
	}
}

func TestCheckLambdaAgainstPi(t *testing.T) {
	k := newKit(t)
	a := k.terms
	nat := k.c("Nat")
	c := k.checker()
	good := a.Lam(term.Binder{Type: nat}, a.App(k.c("Nat.succ"), a.Var(0)))
	if err := c.Check(good, a.Arrow(nat, nat), k.ctx()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	wrongDomain := a.Lam(term.Binder{Type: k.c("Bool")}, k.nat(0))
	if err := c.Check(wrongDomain, a.Arrow(nat, nat), k.ctx()); !IsKind(err, TypeMismatch) {
		t.Fatalf("want TypeMismatch on the domain, got %v", err)
	}
	// the expected type is reduced before matching the Pi
	k.def("Endo", k.typ(), a.Arrow(nat, nat))
	if err := k.checker().Check(good, k.c("Endo"), k.ctx()); err != nil {
		t.Fatalf("Check against a definition: %v", err)
	}
}

func TestInferErrors(t *testing.T) {
	k := newKit(t)
	a := k.terms
	one := k.levels.Numeral(1)
	cases := []struct {
		name string
		t    term.ID
		kind ErrorKind
	}{
		{"unknown", k.c("missing"), UnknownConstant},
		{"not a function", a.App(k.nat(0), k.nat(0)), NotAFunction},
		{"arity", k.c("id"), UniverseArityMismatch},
		{"too many levels", k.c("Nat", one), UniverseArityMismatch},
		{"binder not a type", a.Lam(term.Binder{Type: k.nat(0)}, a.Var(0)), NotASort},
		{"argument mismatch", a.App(k.c("Nat.succ"), k.c("true_bool")), TypeMismatch},
		{"metavariable", a.MVar(1), UnresolvedMetavariable},
	}
	for _, tc := range cases {
		if _, err := k.checker().Infer(tc.t, k.ctx()); !IsKind(err, tc.kind) {
			t.Fatalf("%s: want %v, got %v", tc.name, tc.kind, err)
		}
	}
}

func TestInferVarOutOfRangePanics(t *testing.T) {
	k := newKit(t)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for an out-of-range Var")
		}
	}()
	_, _ = k.checker().Infer(k.terms.Var(0), k.ctx())
}

func TestCheckDeclaration(t *testing.T) {
	k := newKit(t)
	a := k.terms
	nat := k.c("Nat")
	c := k.checker()
	u, v := k.syms.Intern("u"), k.syms.Intern("v")

	ok := &env.Declaration{Type: a.Arrow(nat, nat), Value: k.c("Nat.succ")}
	if err := c.CheckDeclaration(ok); err != nil {
		t.Fatalf("CheckDeclaration: %v", err)
	}
	cases := []struct {
		name string
		d    *env.Declaration
		kind ErrorKind
	}{
		{"open value", &env.Declaration{Type: nat, Value: a.Var(0)}, UnboundVariable},
		{"open type", &env.Declaration{Type: a.Var(3)}, UnboundVariable},
		{"hole", &env.Declaration{Type: nat, Value: a.MVar(1)}, UnresolvedMetavariable},
		{"undeclared universe", &env.Declaration{Type: a.Sort(k.levels.Param(v)), UniverseParams: []symbols.ID{u}}, UnknownUniverseParam},
		{"type not a type", &env.Declaration{Type: k.nat(0)}, NotASort},
		{"value mismatch", &env.Declaration{Type: nat, Value: k.c("true_bool")}, TypeMismatch},
	}
	for _, tc := range cases {
		if err := c.CheckDeclaration(tc.d); !IsKind(err, tc.kind) {
			t.Fatalf("%s: want %v, got %v", tc.name, tc.kind, err)
		}
	}

	poly := &env.Declaration{
		Type:           a.Pi(term.Binder{Type: a.Sort(k.levels.Param(u))}, a.Sort(k.levels.Param(u))),
		UniverseParams: []symbols.ID{u},
	}
	if err := c.CheckDeclaration(poly); err != nil {
		t.Fatalf("universe-polymorphic axiom: %v", err)
	}
}

func TestInferCacheHits(t *testing.T) {
	k := newKit(t)
	c := k.checker()
	app := k.terms.Apps(k.c("id", k.levels.Numeral(1)), k.c("Nat"), k.nat(3))
	if _, err := c.Infer(app, k.ctx()); err != nil {
		t.Fatalf("Infer: %v", err)
	}
	before := c.Engine().Cache().Stats()
	if _, err := c.Infer(app, k.ctx()); err != nil {
		t.Fatalf("Infer: %v", err)
	}
	after := c.Engine().Cache().Stats()
	if after.Hits != before.Hits+1 || after.Infer != before.Infer {
		t.Fatalf("second Infer missed the cache: %+v -> %+v", before, after)
	}
}

func TestEnsureSortAndPi(t *testing.T) {
	k := newKit(t)
	a := k.terms
	nat := k.c("Nat")
	one := k.levels.Numeral(1)
	k.def("Ty", a.Sort(k.levels.Numeral(2)), k.typ())
	k.axiom("T", k.c("Ty"))
	k.def("Endo", k.typ(), a.Arrow(nat, nat))
	k.axiom("f", k.c("Endo"))
	c := k.checker()

	if l, err := c.EnsureSort(nat, k.ctx()); err != nil || l != one {
		t.Fatalf("EnsureSort(Nat) = %v, %v", l, err)
	}
	// the type of T only becomes a Sort after unfolding Ty
	if l, err := c.EnsureSort(k.c("T"), k.ctx()); err != nil || l != one {
		t.Fatalf("EnsureSort(T) = %v, %v", l, err)
	}
	if _, err := c.EnsureSort(k.nat(0), k.ctx()); !IsKind(err, NotASort) {
		t.Fatalf("EnsureSort(Nat.zero): want NotASort, got %v", err)
	}

	b, cod, err := c.EnsurePi(k.c("Endo"), k.c("f"), k.ctx())
	if err != nil {
		t.Fatalf("EnsurePi(Endo): %v", err)
	}
	if b.Type != nat || cod != nat {
		t.Fatalf("EnsurePi(Endo) = %s, %s", k.show(b.Type), k.show(cod))
	}
	idTy, err := c.Infer(k.c("id", one), k.ctx())
	if err != nil {
		t.Fatalf("Infer(id): %v", err)
	}
	if b, _, err := c.EnsurePi(idTy, k.c("id", one), k.ctx()); err != nil || !b.Implicit {
		t.Fatalf("EnsurePi(id) = %+v, %v", b, err)
	}
	if _, _, err := c.EnsurePi(nat, k.nat(0), k.ctx()); !IsKind(err, NotAFunction) {
		t.Fatalf("EnsurePi(Nat): want NotAFunction, got %v", err)
	}
}
