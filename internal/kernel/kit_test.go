package kernel

import (
	"testing"

	"dtt/internal/env"
	"dtt/internal/level"
	"dtt/internal/symbols"
	"dtt/internal/term"
)

// kit is a small prelude: Nat, Nat.zero, Nat.succ, Bool, true_bool, and a
// universe-polymorphic identity function.
type kit struct {
	t      *testing.T
	syms   *symbols.Table
	levels *level.Arena
	terms  *term.Arena
	env    *env.Environment
}

func newKit(t *testing.T) *kit {
	t.Helper()
	syms := symbols.NewTable()
	levels := level.NewArena()
	k := &kit{t: t, syms: syms, levels: levels, terms: term.NewArena(levels), env: env.New()}
	typ := k.typ()
	k.axiom("Nat", typ)
	k.axiom("Nat.zero", k.c("Nat"))
	k.axiom("Nat.succ", k.terms.Arrow(k.c("Nat"), k.c("Nat")))
	k.axiom("Bool", typ)
	k.axiom("true_bool", k.c("Bool"))

	u := syms.Intern("u")
	a := k.terms
	sortU := a.Sort(levels.Param(u))
	// id.{u} : {A : Sort u} -> A -> A := fun A x => x
	idTy := a.Pi(term.Binder{Name: syms.Intern("A"), Type: sortU, Implicit: true}, a.Arrow(a.Var(0), a.Var(0)))
	idVal := a.Lam(term.Binder{Name: syms.Intern("A"), Type: sortU, Implicit: true},
		a.Lam(term.Binder{Name: syms.Intern("x"), Type: a.Var(0)}, a.Var(0)))
	k.def("id", idTy, idVal, u)
	return k
}

func (k *kit) typ() term.ID  { return k.terms.Sort(k.levels.Numeral(1)) }
func (k *kit) prop() term.ID { return k.terms.Sort(k.levels.Zero()) }

func (k *kit) c(name string, ls ...level.ID) term.ID {
	return k.terms.Const(k.syms.Intern(name), ls...)
}

func (k *kit) axiom(name string, ty term.ID, params ...symbols.ID) {
	k.t.Helper()
	k.add(name, env.Declaration{Kind: env.KindAxiom, Type: ty, UniverseParams: params})
}

func (k *kit) def(name string, ty, val term.ID, params ...symbols.ID) {
	k.t.Helper()
	k.add(name, env.Declaration{
		Kind: env.KindDef, Type: ty, Value: val, Transparency: env.Transparent,
		UniverseParams: params, Height: Height(k.terms, k.env, val),
	})
}

func (k *kit) opaque(name string, ty, val term.ID) {
	k.t.Helper()
	k.add(name, env.Declaration{Kind: env.KindOpaque, Type: ty, Value: val, Transparency: env.Opaque})
}

func (k *kit) add(name string, d env.Declaration) {
	k.t.Helper()
	next, err := k.env.Declare(k.syms.Intern(name), d)
	if err != nil {
		k.t.Fatalf("declare %s: %v", name, err)
	}
	k.env = next
}

func (k *kit) engine(opts Options) *Engine {
	return NewEngine(k.terms, k.env, opts)
}

func (k *kit) checker() *Checker {
	return NewChecker(k.engine(Options{}))
}

func (k *kit) ctx() Context { return NewContext(k.terms) }

func (k *kit) nat(n int) term.ID {
	t := k.c("Nat.zero")
	for range n {
		t = k.terms.App(k.c("Nat.succ"), t)
	}
	return t
}

func (k *kit) show(t term.ID) string {
	return term.NewPrinter(k.terms, k.syms).Format(t, nil)
}
