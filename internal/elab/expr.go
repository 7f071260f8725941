package elab

import (
	"slices"
	"strconv"

	"dtt/internal/ast"
	"dtt/internal/kernel"
	"dtt/internal/level"
	"dtt/internal/symbols"
	"dtt/internal/term"
)

// Elaborate turns x into a term and its type under ctx. When expected is not
// term.NoID the result is checked against it, possibly assigning
// metavariables.
func (e *Elaborator) Elaborate(x ast.ExprID, expected term.ID, ctx kernel.Context) (term.ID, term.ID, error) {
	t, ty, err := e.elab(x, expected, ctx)
	if err != nil {
		return term.NoID, term.NoID, err
	}
	if expected == term.NoID || ty == expected {
		return t, ty, nil
	}
	if err := e.un.Unify(ty, expected, ctx); err != nil {
		return term.NoID, term.NoID, e.fail(e.span(x), err, expected, ty, ctx)
	}
	return t, expected, nil
}

// ElabType elaborates x as a type and returns it with its universe level.
func (e *Elaborator) ElabType(x ast.ExprID, ctx kernel.Context) (term.ID, level.ID, error) {
	ex := e.exprs.Get(x)
	switch ex.Kind {
	case ast.ExprPi:
		data, _ := e.exprs.Binder(x)
		return e.elabPi(data, ctx)
	case ast.ExprArrow:
		data, _ := e.exprs.Arrow(x)
		return e.elabArrow(data, ctx)
	case ast.ExprHole:
		u := e.newLevel(ex.Span, "type placeholder")
		return e.newMVar(e.terms.Sort(u), ctx, ex.Span, "type placeholder"), u, nil
	}
	t, ty, err := e.elab(x, term.NoID, ctx)
	if err != nil {
		return term.NoID, level.NoID, err
	}
	u, err := e.ensureSort(ty, ctx)
	if err != nil {
		return term.NoID, level.NoID, e.fail(ex.Span, err, term.NoID, ty, ctx)
	}
	return t, u, nil
}

// ensureSort returns the level of the sort ty reduces to. A metavariable
// type is unified with a fresh sort.
func (e *Elaborator) ensureSort(ty term.ID, ctx kernel.Context) (level.ID, error) {
	w, err := e.whnf(ty, ctx)
	if err != nil {
		return level.NoID, err
	}
	if n := e.terms.Node(w); n.Kind == term.KindSort {
		return n.Level, nil
	}
	if e.flexible(w) {
		u := e.store.NewLevel()
		if err := e.un.Unify(w, e.terms.Sort(u), ctx); err != nil {
			return level.NoID, err
		}
		return u, nil
	}
	return level.NoID, &kernel.Error{Kind: kernel.NotASort, Term: ty, Found: w, Ctx: ctx}
}

func (e *Elaborator) elab(x ast.ExprID, expected term.ID, ctx kernel.Context) (term.ID, term.ID, error) {
	ex := e.exprs.Get(x)
	a := e.terms
	switch ex.Kind {
	case ast.ExprIdent:
		data, _ := e.exprs.Ident(x)
		return e.elabIdent(ex, data, ctx)
	case ast.ExprSort:
		data, _ := e.exprs.Sort(x)
		l, err := e.elabLevel(data.Level)
		if err != nil {
			return term.NoID, term.NoID, err
		}
		return a.Sort(l), a.Sort(e.levels.Succ(l)), nil
	case ast.ExprHole:
		if expected == term.NoID {
			return term.NoID, term.NoID, &Error{Kind: CannotInferHoleType, Span: ex.Span}
		}
		return e.newMVar(expected, ctx, ex.Span, "placeholder"), expected, nil
	case ast.ExprNatLit:
		data, _ := e.exprs.NatLit(x)
		return e.elabNat(ex, data)
	case ast.ExprAnn:
		data, _ := e.exprs.Ann(x)
		ty, _, err := e.ElabType(data.Type, ctx)
		if err != nil {
			return term.NoID, term.NoID, err
		}
		return e.Elaborate(data.Value, ty, ctx)
	case ast.ExprPi, ast.ExprArrow:
		t, u, err := e.ElabType(x, ctx)
		if err != nil {
			return term.NoID, term.NoID, err
		}
		return t, a.Sort(u), nil
	case ast.ExprLam:
		data, _ := e.exprs.Binder(x)
		return e.elabLam(data, expected, ctx)
	case ast.ExprApp:
		data, _ := e.exprs.App(x)
		return e.elabApp(ex, data, ctx)
	case ast.ExprLet:
		data, _ := e.exprs.Let(x)
		return e.elabLet(data, expected, ctx)
	}
	panic("elab: unknown expression kind " + ex.Kind.String())
}

func (e *Elaborator) elabIdent(ex *ast.Expr, data *ast.ExprIdentData, ctx kernel.Context) (term.ID, term.ID, error) {
	a := e.terms
	if data.Levels == nil {
		if sym, ok := e.syms.Find(data.Name); ok && sym != symbols.NoID {
			for i := range ctx.Len() {
				if ctx.Name(i) == sym {
					return a.Var(i), ctx.Type(i), nil
				}
			}
		}
	}
	sym, d, ok := e.lookupConst(data.Name)
	if !ok {
		return term.NoID, term.NoID, &Error{Kind: UnknownIdentifier, Span: ex.Span, Name: data.Name}
	}
	var ls []level.ID
	if data.Levels != nil {
		if len(data.Levels) != len(d.UniverseParams) {
			return term.NoID, term.NoID, &Error{
				Kind: UniverseArity, Span: ex.Span, Name: data.Name,
				Msg: "expected " + strconv.Itoa(len(d.UniverseParams)) + ", got " + strconv.Itoa(len(data.Levels)),
			}
		}
		for _, l := range data.Levels {
			id, err := e.elabLevel(l)
			if err != nil {
				return term.NoID, term.NoID, err
			}
			ls = append(ls, id)
		}
	} else {
		for range d.UniverseParams {
			ls = append(ls, e.newLevel(ex.Span, data.Name))
		}
	}
	ty := a.InstantiateLevelParams(d.Type, d.UniverseParams, ls)
	return a.Const(sym, ls...), ty, nil
}

func (e *Elaborator) elabLevel(l ast.Level) (level.ID, error) {
	ls := e.levels
	switch l.Kind {
	case ast.LevelNum:
		return ls.Numeral(l.N), nil
	case ast.LevelParam:
		p, ok := e.univ[l.Name]
		if !ok {
			return level.NoID, &Error{Kind: UnknownUniverse, Span: l.Span, Name: l.Name}
		}
		return ls.Param(p), nil
	case ast.LevelHole:
		return e.newLevel(l.Span, "universe placeholder"), nil
	}
	args := make([]level.ID, 0, len(l.Args))
	for _, x := range l.Args {
		id, err := e.elabLevel(x)
		if err != nil {
			return level.NoID, err
		}
		args = append(args, id)
	}
	switch l.Kind {
	case ast.LevelSucc:
		return ls.Succ(args[0]), nil
	case ast.LevelIMax:
		return ls.IMax(args[0], args[1]), nil
	default:
		out := args[0]
		for _, x := range args[1:] {
			out = ls.Max(out, x)
		}
		return out, nil
	}
}

// elabNat builds Nat.succ^n Nat.zero.
func (e *Elaborator) elabNat(ex *ast.Expr, data *ast.ExprNatLitData) (term.ID, term.ID, error) {
	n, err := strconv.ParseUint(data.Text, 10, 64)
	if err != nil || n > e.opts.MaxNatLiteral {
		return term.NoID, term.NoID, &Error{
			Kind: LiteralTooLarge, Span: ex.Span, Name: data.Text,
			Msg: "the limit is " + strconv.FormatUint(e.opts.MaxNatLiteral, 10),
		}
	}
	names := [3]string{e.opts.Nat, e.opts.NatZero, e.opts.NatSucc}
	var consts [3]term.ID
	for i, name := range names {
		sym, _, ok := e.lookupConst(name)
		if !ok {
			return term.NoID, term.NoID, &Error{Kind: UnknownIdentifier, Span: ex.Span, Name: name, Msg: "needed by numeric literals"}
		}
		consts[i] = e.terms.Const(sym)
	}
	t := consts[1]
	for range n {
		t = e.terms.App(consts[2], t)
	}
	return t, consts[0], nil
}

// elabPi elaborates a Pi telescope; the resulting level is the imax fold of
// the binder levels and the body level.
func (e *Elaborator) elabPi(data *ast.ExprBinderData, ctx kernel.Context) (term.ID, level.ID, error) {
	binders := make([]term.Binder, 0, len(data.Params))
	us := make([]level.ID, 0, len(data.Params))
	inner := ctx
	for _, p := range data.Params {
		var ty term.ID
		var u level.ID
		if p.Type.IsValid() {
			var err error
			if ty, u, err = e.ElabType(p.Type, inner); err != nil {
				return term.NoID, level.NoID, err
			}
		} else {
			u = e.newLevel(p.Span, "binder type of "+p.Name)
			ty = e.newMVar(e.terms.Sort(u), inner, p.Span, "binder type of "+p.Name)
		}
		b := term.Binder{Name: e.binderName(p.Name), Type: ty, Implicit: p.Implicit}
		binders = append(binders, b)
		us = append(us, u)
		inner = inner.Push(b)
	}
	body, v, err := e.ElabType(data.Body, inner)
	if err != nil {
		return term.NoID, level.NoID, err
	}
	for i := len(binders) - 1; i >= 0; i-- {
		body = e.terms.Pi(binders[i], body)
		v = e.levels.IMax(us[i], v)
	}
	return body, v, nil
}

func (e *Elaborator) elabArrow(data *ast.ExprArrowData, ctx kernel.Context) (term.ID, level.ID, error) {
	dom, u, err := e.ElabType(data.From, ctx)
	if err != nil {
		return term.NoID, level.NoID, err
	}
	cod, v, err := e.ElabType(data.To, ctx.Push(term.Binder{Type: dom}))
	if err != nil {
		return term.NoID, level.NoID, err
	}
	return e.terms.Pi(term.Binder{Type: dom}, cod), e.levels.IMax(u, v), nil
}

// elabLam propagates a Pi-shaped expected type into the binders. An implicit
// Pi binder with no matching implicit parameter is introduced automatically.
func (e *Elaborator) elabLam(data *ast.ExprBinderData, expected term.ID, ctx kernel.Context) (term.ID, term.ID, error) {
	binders := make([]term.Binder, 0, len(data.Params))
	inner := ctx
	exp := expected
	for i := 0; i < len(data.Params); {
		p := data.Params[i]
		var pi term.Node
		hasPi := false
		if exp != term.NoID {
			w, err := e.whnf(exp, inner)
			if err != nil {
				return term.NoID, term.NoID, e.fail(p.Span, err, term.NoID, term.NoID, inner)
			}
			if n := e.terms.Node(w); n.Kind == term.KindPi {
				pi, hasPi = n, true
			}
		}
		if hasPi && pi.Implicit && !p.Implicit {
			// the introduced binder keeps the Pi's name for printing, but user
			// names must not resolve to it
			b := pi.Binder()
			binders = append(binders, b)
			b.Name = symbols.NoID
			inner = inner.Push(b)
			exp = pi.B
			continue
		}
		var ty term.ID
		switch {
		case p.Type.IsValid():
			t, _, err := e.ElabType(p.Type, inner)
			if err != nil {
				return term.NoID, term.NoID, err
			}
			if hasPi {
				if err := e.un.Unify(t, pi.A, inner); err != nil {
					return term.NoID, term.NoID, e.fail(e.span(p.Type), err, pi.A, t, inner)
				}
			}
			ty = t
		case hasPi:
			ty = pi.A
		default:
			ty = e.typeHole(inner, p.Span, "binder type of "+p.Name)
		}
		b := term.Binder{Name: e.binderName(p.Name), Type: ty, Implicit: p.Implicit}
		binders = append(binders, b)
		inner = inner.Push(b)
		exp = term.NoID
		if hasPi {
			exp = pi.B
		}
		i++
	}
	body, bty, err := e.Elaborate(data.Body, exp, inner)
	if err != nil {
		return term.NoID, term.NoID, err
	}
	for _, b := range slices.Backward(binders) {
		body = e.terms.Lam(b, body)
		bty = e.terms.Pi(b, bty)
	}
	return body, bty, nil
}

// elabApp inserts implicit arguments before each explicit one unless the head
// is written @f. A metavariable function type is refined to a fresh Pi.
func (e *Elaborator) elabApp(ex *ast.Expr, data *ast.ExprAppData, ctx kernel.Context) (term.ID, term.ID, error) {
	a := e.terms
	f, fty, err := e.elab(data.Fn, term.NoID, ctx)
	if err != nil {
		return term.NoID, term.NoID, err
	}
	explicit := false
	if id, ok := e.exprs.Ident(data.Fn); ok {
		explicit = id.Explicit
	}
	for _, arg := range data.Args {
		for {
			w, err := e.whnf(fty, ctx)
			if err != nil {
				return term.NoID, term.NoID, e.fail(ex.Span, err, term.NoID, fty, ctx)
			}
			n := a.Node(w)
			if n.Kind == term.KindPi {
				if n.Implicit && !explicit {
					m := e.newMVar(n.A, ctx, ex.Span, "implicit argument "+e.syms.Resolve(n.Sym))
					f, fty = a.App(f, m), a.Instantiate(n.B, m)
					continue
				}
				v, _, err := e.Elaborate(arg, n.A, ctx)
				if err != nil {
					return term.NoID, term.NoID, err
				}
				f, fty = a.App(f, v), a.Instantiate(n.B, v)
				break
			}
			if !e.flexible(w) {
				return term.NoID, term.NoID, e.fail(e.span(data.Fn),
					&kernel.Error{Kind: kernel.NotAFunction, Term: f, Found: w, Ctx: ctx}, term.NoID, w, ctx)
			}
			sp := e.span(arg)
			dom := e.typeHole(ctx, sp, "argument type")
			cod := e.typeHole(ctx.Push(term.Binder{Type: dom}), sp, "result type")
			pi := a.Pi(term.Binder{Type: dom}, cod)
			if err := e.un.Unify(w, pi, ctx); err != nil {
				return term.NoID, term.NoID, e.fail(e.span(data.Fn), err, term.NoID, w, ctx)
			}
			fty = pi
		}
	}
	return f, fty, nil
}

func (e *Elaborator) elabLet(data *ast.ExprLetData, expected term.ID, ctx kernel.Context) (term.ID, term.ID, error) {
	var v, ty term.ID
	var err error
	if data.Type.IsValid() {
		if ty, _, err = e.ElabType(data.Type, ctx); err != nil {
			return term.NoID, term.NoID, err
		}
		if v, _, err = e.Elaborate(data.Value, ty, ctx); err != nil {
			return term.NoID, term.NoID, err
		}
	} else if v, ty, err = e.Elaborate(data.Value, term.NoID, ctx); err != nil {
		return term.NoID, term.NoID, err
	}
	b := term.Binder{Name: e.binderName(data.Name), Type: ty}
	exp := term.NoID
	if expected != term.NoID {
		exp = e.terms.Lift(expected, 0, 1)
	}
	body, bty, err := e.Elaborate(data.Body, exp, ctx.PushLet(b, v))
	if err != nil {
		return term.NoID, term.NoID, err
	}
	return e.terms.Let(b, v, body), e.terms.Instantiate(bty, v), nil
}
