package elab

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"dtt/internal/ast"
	"dtt/internal/env"
	"dtt/internal/kernel"
	"dtt/internal/level"
	"dtt/internal/sexpr"
	"dtt/internal/source"
	"dtt/internal/symbols"
	"dtt/internal/term"
)

const prelude = `
(axiom Nat Type)
(axiom Nat.zero Nat)
(axiom Nat.succ (-> Nat Nat))
(def (id u) (Pi ({A (Sort u)} (x A)) A) (fun ({A} x) x))
(axiom (any u) (Pi ({A (Sort u)}) A))
`

type fixture struct {
	syms  *symbols.Table
	terms *term.Arena
	el    *Elaborator
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	syms := symbols.NewTable()
	terms := term.NewArena(level.NewArena())
	f := &fixture{syms: syms, terms: terms, el: New(syms, terms, env.New(), opts)}
	f.run(t, prelude)
	return f
}

// run elaborates, kernel-checks and declares every declaration of src.
func (f *fixture) run(t *testing.T, src string) []*Result {
	t.Helper()
	b, err := sexpr.ReadFile(1, []byte(src))
	require.NoError(t, err)
	var out []*Result
	for _, id := range b.Order() {
		r, err := f.el.ElabDecl(b.Exprs, b.Decl(id))
		require.NoError(t, err, "elaborating %s", b.Decl(id).Name)
		e := f.el.Env()
		chk := kernel.NewChecker(kernel.NewEngine(f.terms, e, kernel.Options{}))
		require.NoError(t, chk.CheckDeclaration(&r.Decl), "kernel rejected %s", b.Decl(id).Name)
		if r.Decl.HasValue() {
			r.Decl.Height = kernel.Height(f.terms, e, r.Decl.Value)
		}
		next, err := e.Declare(r.Name, r.Decl)
		require.NoError(t, err)
		f.el.SetEnv(next)
		out = append(out, r)
	}
	return out
}

func (f *fixture) one(t *testing.T, src string) *Result {
	t.Helper()
	rs := f.run(t, src)
	require.Len(t, rs, 1)
	return rs[0]
}

// fail elaborates the single declaration of src and returns its error.
func (f *fixture) fail(t *testing.T, src string) *Error {
	t.Helper()
	b, err := sexpr.ReadFile(1, []byte(src))
	require.NoError(t, err)
	_, err = f.el.ElabDecl(b.Exprs, b.Decl(b.Order()[0]))
	var ee *Error
	require.True(t, errors.As(err, &ee), "expected *elab.Error, got %v", err)
	return ee
}

func (f *fixture) c(name string, ls ...level.ID) term.ID {
	return f.terms.Const(f.syms.Intern(name), ls...)
}

func TestIdentityScenario(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	a := f.terms
	sort0 := a.Sort(a.Levels().Zero())
	want := a.Lam(term.Binder{Type: sort0}, a.Var(0))
	wantTy := a.Pi(term.Binder{Type: sort0}, sort0)
	for _, src := range []string{"(def id0 (fun ((x (Sort 0))) x))", "(def idp (fun ((x Prop)) x))"} {
		r := f.one(t, src)
		require.Equal(t, want, r.Decl.Value, src)
		require.Equal(t, wantTy, r.Decl.Type, src)
		require.Equal(t, env.Transparent, r.Decl.Transparency)
	}
	chk := kernel.NewChecker(kernel.NewEngine(a, f.el.Env(), kernel.Options{}))
	ty, err := chk.Infer(want, kernel.NewContext(a))
	require.NoError(t, err)
	require.Equal(t, wantTy, ty)

	// Type abbreviates Sort 1
	typ := a.Sort(a.Levels().Numeral(1))
	r := f.one(t, "(def idt (fun ((x Type)) x))")
	require.Equal(t, a.Lam(term.Binder{Type: typ}, a.Var(0)), r.Decl.Value)
	require.Equal(t, a.Pi(term.Binder{Type: typ}, typ), r.Decl.Type)
}

func TestImplicitArgumentInsertion(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	a := f.terms
	one := a.Levels().Numeral(1)
	want := a.Apps(f.c("id", one), f.c("Nat"), f.c("Nat.zero"))

	r := f.one(t, "(def z (id Nat.zero))")
	require.Equal(t, want, r.Decl.Value)
	require.Equal(t, f.c("Nat"), r.Decl.Type)
	require.Positive(t, r.Metas)

	explicit := f.one(t, "(def z2 (@id Nat Nat.zero))")
	require.Equal(t, want, explicit.Decl.Value)

	hole := f.one(t, "(def z3 (@id _ Nat.zero))")
	require.Equal(t, want, hole.Decl.Value)

	levels := f.one(t, "(def z4 ((const @id 1) Nat Nat.zero))")
	require.Equal(t, want, levels.Decl.Value)
}

func TestImplicitLambdaIsIntroduced(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	r := f.one(t, "(def id2 (Pi ({A Type} (x A)) A) (fun (x) x))")
	a := f.terms
	typ := a.Sort(a.Levels().Numeral(1))
	want := a.Lam(term.Binder{Type: typ, Implicit: true}, a.Lam(term.Binder{Type: a.Var(0)}, a.Var(0)))
	require.Equal(t, want, r.Decl.Value)
}

func TestImplicitLambdaDoesNotCaptureNames(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	a := f.terms
	typ := a.Sort(a.Levels().Numeral(1))
	nat := f.c("Nat")
	inner := term.Binder{Type: typ, Implicit: true}

	// the body A is the outer parameter, not the introduced {A}
	r := f.one(t, "(def pick (-> Type (Pi ({A Type}) (-> A Type))) (fun ((A Type)) (fun (y) A)))")
	want := a.Lam(term.Binder{Type: typ}, a.Lam(inner, a.Lam(term.Binder{Type: a.Var(0)}, a.Var(2))))
	require.Equal(t, want, r.Decl.Value)

	r = f.one(t, "(def pickNat (-> Nat (Pi ({A Type}) (-> A Nat))) (fun ((A Nat)) (fun (y) A)))")
	want = a.Lam(term.Binder{Type: nat}, a.Lam(inner, a.Lam(term.Binder{Type: a.Var(0)}, a.Var(2))))
	require.Equal(t, want, r.Decl.Value)

	// an explicit implicit parameter still binds the name
	r = f.one(t, "(def own (Pi ({A Type} (x A)) A) (fun ({A} x) x))")
	require.Equal(t, a.Lam(inner, a.Lam(term.Binder{Type: a.Var(0)}, a.Var(0))), r.Decl.Value)
}

func TestFunctionTypeIsRefined(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	a := f.terms
	r := f.one(t, "(def r (: (any Nat.zero) Nat))")
	nat := f.c("Nat")
	want := a.Apps(f.c("any", a.Levels().Numeral(1)), a.Arrow(nat, nat), f.c("Nat.zero"))
	require.Equal(t, want, r.Decl.Value)
	require.Equal(t, nat, r.Decl.Type)
}

func TestNatLiterals(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	a := f.terms
	r := f.one(t, "(def three 3)")
	want := f.c("Nat.zero")
	for range 3 {
		want = a.App(f.c("Nat.succ"), want)
	}
	require.Equal(t, want, r.Decl.Value)
	require.Equal(t, f.c("Nat"), r.Decl.Type)

	for _, src := range []string{"(def big 5000)", "(def huge 99999999999999999999999)"} {
		require.Equal(t, LiteralTooLarge, f.fail(t, src).Kind, src)
	}
}

func TestNatLiteralNamesAreConfigurable(t *testing.T) {
	opts := DefaultOptions()
	opts.Nat, opts.NatZero, opts.NatSucc = "N", "N.z", "N.s"
	opts.MaxNatLiteral = 2
	f := newFixture(t, opts)
	f.run(t, "(axiom N Type) (axiom N.z N) (axiom N.s (-> N N))")
	r := f.one(t, "(def two 2)")
	require.Equal(t, f.terms.App(f.c("N.s"), f.terms.App(f.c("N.s"), f.c("N.z"))), r.Decl.Value)
	require.Equal(t, LiteralTooLarge, f.fail(t, "(def three 3)").Kind)
}

func TestLetWithType(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	a := f.terms
	r := f.one(t, "(def l (let (y Nat) Nat.zero (Nat.succ y)))")
	want := a.Let(term.Binder{Type: f.c("Nat")}, f.c("Nat.zero"), a.App(f.c("Nat.succ"), a.Var(0)))
	require.Equal(t, want, r.Decl.Value)
	require.Equal(t, f.c("Nat"), r.Decl.Type)
}

func TestTheoremIsOpaque(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	r := f.one(t, "(theorem zero_is_nat Nat Nat.zero)")
	require.Equal(t, env.Opaque, r.Decl.Transparency)
	require.Equal(t, env.KindTheorem, r.Decl.Kind)
}

func TestUnresolvedHoleReportsSpan(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	err := f.fail(t, "(def h (: _ Nat))")
	require.Equal(t, UnresolvedMetavariable, err.Kind)
	require.Equal(t, source.Span{File: 1, Start: 10, End: 11}, err.Span)

	err = f.fail(t, "(def lv (fun ((x (Sort _))) x))")
	require.Equal(t, UnresolvedMetavariable, err.Kind)
	require.Equal(t, source.Span{File: 1, Start: 23, End: 24}, err.Span)
}

func TestElaborationErrors(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	cases := []struct {
		src  string
		kind ErrorKind
	}{
		{"(def bad _)", CannotInferHoleType},
		{"(def u1 foo)", UnknownIdentifier},
		{"(def uu (Sort v))", UnknownUniverse},
		{"(def ua (const id 1 2))", UniverseArity},
		{"(theorem t1 Nat.zero)", InvalidDecl},
		{"(axiom a1 Nat Nat.zero)", InvalidDecl},
		{"(def (dup u u) Nat)", InvalidDecl},
		{"(def (m ?u.0) Nat)", InvalidDecl},
	}
	for _, tc := range cases {
		require.Equal(t, tc.kind, f.fail(t, tc.src).Kind, tc.src)
	}
}

func TestTypeMismatchCarriesTypes(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	err := f.fail(t, "(def bad (: Nat.zero (-> Nat Nat)))")
	require.Equal(t, TypeError, err.Kind)
	nat := f.c("Nat")
	require.Equal(t, f.terms.Arrow(nat, nat), err.Expected)
	require.Equal(t, nat, err.Found)

	err = f.fail(t, "(def nf (Nat.zero Nat.zero))")
	require.Equal(t, TypeError, err.Kind)
	require.True(t, kernel.IsKind(err, kernel.NotAFunction), "cause = %v", err.Cause)
}

func TestElaborateUnderContext(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	exprs := ast.NewExprs(0)
	x := exprs.NewIdent(source.Span{}, "x", false, nil)
	f.el.Begin(exprs, nil)
	ctx := f.el.Context().Push(term.Binder{Name: f.syms.Intern("x"), Type: f.c("Nat")})
	tm, ty, err := f.el.Elaborate(x, term.NoID, ctx)
	require.NoError(t, err)
	require.Equal(t, f.terms.Var(0), tm)
	require.Equal(t, f.c("Nat"), ty)

	shadow := ctx.Push(term.Binder{Name: f.syms.Intern("x"), Type: f.c("Nat")})
	tm, _, err = f.el.Elaborate(x, term.NoID, shadow)
	require.NoError(t, err)
	require.Equal(t, f.terms.Var(0), tm, "innermost binder wins")
}
