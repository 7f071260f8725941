package unify

import (
	"errors"
	"fmt"
	"slices"

	"dtt/internal/kernel"
	"dtt/internal/level"
	"dtt/internal/meta"
	"dtt/internal/term"
)

// Constraint is a postponed equation, between terms or between levels.
type Constraint struct {
	Left, Right term.ID
	Ctx         kernel.Context
	Levels      bool
	U, V        level.ID
}

// Unifier solves equations by assigning metavariables in a store. Constraints
// it cannot decide yet are queued and retried by Solve.
type Unifier struct {
	eng     *kernel.Engine
	checker *kernel.Checker
	store   *meta.Store
	terms   *term.Arena
	levels  *level.Arena
	queue   []Constraint
	approx  bool
}

// New creates a unifier. eng must read metavariables from store.
func New(eng *kernel.Engine, store *meta.Store) *Unifier {
	return &Unifier{
		eng:     eng,
		checker: kernel.NewChecker(eng),
		store:   store,
		terms:   eng.Terms(),
		levels:  eng.Terms().Levels(),
	}
}

// Store returns the metavariable store.
func (u *Unifier) Store() *meta.Store { return u.store }

// Engine returns the conversion engine.
func (u *Unifier) Engine() *kernel.Engine { return u.eng }

// Pending returns the postponed constraints.
func (u *Unifier) Pending() []Constraint { return slices.Clone(u.queue) }

// Mark captures the store and the queue.
type Mark struct {
	store meta.Mark
	queue []Constraint
}

// Mark returns a point Rollback can return to.
func (u *Unifier) Mark() Mark {
	return Mark{store: u.store.Mark(), queue: slices.Clone(u.queue)}
}

// Rollback discards every assignment and constraint made since m.
func (u *Unifier) Rollback(m Mark) {
	u.store.Rollback(m.store)
	u.queue = slices.Clone(m.queue)
}

// NewMVar creates a hole of type expected under ctx and returns its
// occurrence: the metavariable applied to the variables of ctx.
func (u *Unifier) NewMVar(expected term.ID, ctx kernel.Context) term.ID {
	a := u.terms
	ty := expected
	for p := ctx.Len(); p > 0; p-- {
		ty = a.Pi(ctx.Raw(p-1), ty)
	}
	m := u.store.New(expected, ty, ctx.Len())
	return u.store.Occurrence(m)
}

// Unify makes a and b definitionally equal under ctx, or schedules the
// equation for later.
func (u *Unifier) Unify(a, b term.ID, ctx kernel.Context) error {
	return u.unify(a, b, ctx)
}

func (u *Unifier) unify(a, b term.ID, ctx kernel.Context) error {
	if a == b {
		return nil
	}
	ts := u.terms
	if !u.flexible(a) && !u.flexible(b) {
		ok, err := u.eng.IsDefEq(a, b, ctx)
		if err != nil {
			return fmt.Errorf("unify: %w", err)
		}
		if !ok {
			return &Error{Kind: Mismatch, Left: a, Right: b, Ctx: ctx}
		}
		return nil
	}
	var err error
	if a, err = u.eng.WHNFCore(a, ctx); err != nil {
		return fmt.Errorf("unify: %w", err)
	}
	if b, err = u.eng.WHNFCore(b, ctx); err != nil {
		return fmt.Errorf("unify: %w", err)
	}
	if a == b {
		return nil
	}
	ha, as := ts.Spine(a)
	hb, bs := ts.Spine(b)
	ma, flexA := u.flexHead(ha)
	mb, flexB := u.flexHead(hb)
	switch {
	case flexA && flexB:
		return u.flexFlex(ma, as, mb, bs, a, b, ctx)
	case flexA:
		return u.flexRigid(ma, as, a, b, ctx)
	case flexB:
		return u.flexRigid(mb, bs, b, a, ctx)
	}
	return u.rigid(a, b, ctx)
}

// flexible reports whether t mentions an unassigned term or level metavariable.
func (u *Unifier) flexible(t term.ID) bool {
	ts := u.terms
	if ts.HasMVar(t) {
		return true
	}
	if !ts.HasLevelParam(t) {
		return false
	}
	return slices.ContainsFunc(ts.LevelParams(t), u.store.IsLevelMeta)
}

func (u *Unifier) flexHead(h term.ID) (term.MetaID, bool) {
	n := u.terms.Node(h)
	if n.Kind != term.KindMVar {
		return term.NoMeta, false
	}
	if _, ok := u.store.Assigned(n.Meta()); ok {
		return term.NoMeta, false
	}
	return n.Meta(), true
}

func (u *Unifier) postpone(a, b term.ID, ctx kernel.Context) {
	u.queue = append(u.queue, Constraint{Left: a, Right: b, Ctx: ctx})
}

func (u *Unifier) flexFlex(ma term.MetaID, as []term.ID, mb term.MetaID, bs []term.ID, a, b term.ID, ctx kernel.Context) error {
	if ma == mb && len(as) == len(bs) {
		mark := u.Mark()
		if err := u.unifyArgs(as, bs, ctx); err == nil {
			return nil
		} else if isFuel(err) {
			return err
		}
		u.Rollback(mark)
	}
	if !u.approx {
		u.postpone(a, b, ctx)
		return nil
	}
	for _, try := range []struct {
		m    term.MetaID
		args []term.ID
		rhs  term.ID
	}{{ma, as, b}, {mb, bs, a}} {
		if !u.isPattern(try.args) {
			continue
		}
		mark := u.Mark()
		err := u.assign(try.m, try.args, try.rhs, ctx)
		if err == nil {
			if _, done := u.store.Assigned(try.m); done {
				return nil
			}
		} else if isFuel(err) {
			return err
		}
		u.Rollback(mark)
	}
	u.postpone(a, b, ctx)
	return nil
}

func (u *Unifier) flexRigid(m term.MetaID, args []term.ID, lhs, rhs term.ID, ctx kernel.Context) error {
	if u.isPattern(args) {
		return u.assign(m, args, rhs, ctx)
	}
	if u.approx {
		// Prune the non-variable arguments, then fall back to first order.
		for _, try := range []func() error{
			func() error { return u.assign(m, args, rhs, ctx) },
			func() error { return u.firstOrder(m, args, rhs, ctx) },
		} {
			mark := u.Mark()
			err := try()
			if err == nil {
				if _, done := u.store.Assigned(m); done {
					return nil
				}
			} else if isFuel(err) {
				return err
			}
			u.Rollback(mark)
		}
	}
	u.postpone(lhs, rhs, ctx)
	return nil
}

// firstOrder approximates ?m a1 .. an =?= g b1 .. bk by ?m =?= g b1 .. b(k-n)
// and ai =?= b(k-n+i).
func (u *Unifier) firstOrder(m term.MetaID, args []term.ID, rhs term.ID, ctx kernel.Context) error {
	ts := u.terms
	g, bs := ts.Spine(rhs)
	if len(bs) < len(args) {
		return &Error{Kind: Mismatch, Left: ts.Apps(ts.MVar(m), args...), Right: rhs, Ctx: ctx}
	}
	k := len(bs) - len(args)
	if err := u.unify(ts.MVar(m), ts.Apps(g, bs[:k]...), ctx); err != nil {
		return err
	}
	return u.unifyArgs(args, bs[k:], ctx)
}

func (u *Unifier) unifyArgs(as, bs []term.ID, ctx kernel.Context) error {
	for i := range as {
		if err := u.unify(as[i], bs[i], ctx); err != nil {
			return err
		}
	}
	return nil
}

// isPattern reports whether args are pairwise distinct bound variables.
func (u *Unifier) isPattern(args []term.ID) bool {
	seen := make(map[uint32]struct{}, len(args))
	for _, x := range args {
		n := u.terms.Node(x)
		if n.Kind != term.KindVar {
			return false
		}
		if _, dup := seen[n.Index]; dup {
			return false
		}
		seen[n.Index] = struct{}{}
	}
	return true
}

// assign solves ?m args =?= rhs by ?m := fun xs => rhs[xs]. Arguments that
// are not distinct variables are pruned; such spines only reach assign in
// final mode.
func (u *Unifier) assign(m term.MetaID, args []term.ID, rhs term.ID, ctx kernel.Context) error {
	ts := u.terms
	v := u.store.Instantiate(rhs)
	body, kind := u.abstract(m, v, args)
	if kind != 0 {
		// the offending occurrence may disappear under reduction
		r, err := u.eng.Reduce(v, ctx)
		if err != nil {
			return fmt.Errorf("unify: %w", err)
		}
		if r = u.store.Instantiate(r); r != v {
			body, kind = u.abstract(m, r, args)
		}
		if kind == ScopeEscape && !u.approx && u.flexible(r) {
			u.postpone(ts.Apps(ts.MVar(m), args...), rhs, ctx)
			return nil
		}
		if kind != 0 {
			return &Error{Kind: kind, Left: ts.Apps(ts.MVar(m), args...), Right: v, Meta: m, Ctx: ctx}
		}
	}
	binders, ok, err := u.telescope(u.store.Get(m).Type, len(args))
	if err != nil {
		return err
	}
	if !ok {
		u.postpone(ts.Apps(ts.MVar(m), args...), rhs, ctx)
		return nil
	}
	if err := u.checkType(m, args, v, ctx); err != nil {
		return err
	}
	if _, done := u.store.Assigned(m); done {
		// solved while unifying the types
		return u.unify(ts.Apps(ts.MVar(m), args...), rhs, ctx)
	}
	val := body
	for _, b := range slices.Backward(binders) {
		val = ts.Lam(b, val)
	}
	u.store.Assign(m, val)
	return nil
}

// checkType unifies the type of a solution with the type of the hole, so an
// ill-typed solution fails here with both types at hand and a flexible hole
// type is refined by the solution.
func (u *Unifier) checkType(m term.MetaID, args []term.ID, v term.ID, ctx kernel.Context) error {
	ts := u.terms
	want := u.store.Get(m).Type
	for _, x := range args {
		n := ts.Node(want)
		if n.Kind != term.KindPi {
			return nil
		}
		want = ts.Instantiate(n.B, x)
	}
	got, err := u.checker.Infer(v, ctx)
	if err != nil {
		return fmt.Errorf("unify: %w", err)
	}
	return u.unify(got, want, ctx)
}

// abstract rewrites v so that the variables among args refer to the binders of
// a lambda telescope of len(args). It fails with OccursCheck when m occurs in v
// and with ScopeEscape when v mentions a variable outside args.
func (u *Unifier) abstract(m term.MetaID, v term.ID, args []term.ID) (term.ID, ErrorKind) {
	ts := u.terms
	if ts.HasMVar(v) && ts.OccursMVar(m, v) {
		return term.NoID, OccursCheck
	}
	k := uint32(len(args))
	seen := make(map[uint32]int, len(args))
	for _, x := range args {
		if n := ts.Node(x); n.Kind == term.KindVar {
			seen[n.Index]++
		}
	}
	// only variables occurring once in the spine can be abstracted
	pos := make(map[uint32]uint32, len(args))
	for j, x := range args {
		if n := ts.Node(x); n.Kind == term.KindVar && seen[n.Index] == 1 {
			pos[n.Index] = uint32(j)
		}
	}
	escaped := false
	out := ts.Replace(v, func(x term.ID, d uint32) (term.ID, bool) {
		if ts.LooseBound(x) <= d {
			return x, true
		}
		n := ts.Node(x)
		if n.Kind != term.KindVar {
			return term.NoID, false
		}
		j, ok := pos[n.Index-d]
		if !ok {
			escaped = true
			return x, true
		}
		return ts.Var(d + k - 1 - j), true
	})
	if escaped {
		return term.NoID, ScopeEscape
	}
	return out, 0
}

// telescope reads the first k binders of the closed type ty.
func (u *Unifier) telescope(ty term.ID, k int) ([]term.Binder, bool, error) {
	ctx := kernel.NewContext(u.terms)
	out := make([]term.Binder, 0, k)
	for range k {
		w, err := u.eng.Reduce(ty, ctx)
		if err != nil {
			return nil, false, fmt.Errorf("unify: %w", err)
		}
		n := u.terms.Node(w)
		if n.Kind != term.KindPi {
			return nil, false, nil
		}
		b := n.Binder()
		out = append(out, b)
		ctx = ctx.Push(b)
		ty = n.B
	}
	return out, true, nil
}

// rigid handles two terms whose heads are not unassigned metavariables.
func (u *Unifier) rigid(a, b term.ID, ctx kernel.Context) error {
	ts := u.terms
	na, nb := ts.Node(a), ts.Node(b)
	switch {
	case na.Kind == term.KindLam && nb.Kind != term.KindLam && !isTypeFormer(nb.Kind):
		return u.unify(na.B, ts.App(ts.Lift(b, 0, 1), ts.Var(0)), ctx.Push(na.Binder()))
	case nb.Kind == term.KindLam && na.Kind != term.KindLam && !isTypeFormer(na.Kind):
		return u.unify(ts.App(ts.Lift(a, 0, 1), ts.Var(0)), nb.B, ctx.Push(nb.Binder()))
	}
	if na.Kind == nb.Kind {
		switch na.Kind {
		case term.KindSort:
			return u.UnifyLevels(na.Level, nb.Level)
		case term.KindLam, term.KindPi:
			if err := u.unify(na.A, nb.A, ctx); err != nil {
				return err
			}
			return u.unify(na.B, nb.B, ctx.Push(na.Binder()))
		}
	}
	var first error
	ha, as := ts.Spine(a)
	hb, bs := ts.Spine(b)
	if hna, hnb := ts.Node(ha), ts.Node(hb); sameRigidHead(hna, hnb) && len(as) == len(bs) {
		mark := u.Mark()
		err := u.unifyConstLevels(hna, hnb)
		if err == nil {
			err = u.unifyArgs(as, bs, ctx)
		}
		if err == nil {
			return nil
		}
		if isFuel(err) {
			return err
		}
		u.Rollback(mark)
		first = err
	}
	ra, rb, progressed, err := u.unfoldOne(a, b, ctx)
	if err != nil {
		return err
	}
	if progressed {
		return u.unify(ra, rb, ctx)
	}
	if first != nil {
		return first
	}
	return &Error{Kind: Mismatch, Left: a, Right: b, Ctx: ctx}
}

func isTypeFormer(k term.Kind) bool { return k == term.KindSort || k == term.KindPi }

func sameRigidHead(x, y term.Node) bool {
	if x.Kind != y.Kind {
		return false
	}
	switch x.Kind {
	case term.KindVar:
		return x.Index == y.Index
	case term.KindConst:
		return x.Sym == y.Sym
	case term.KindMVar:
		return x.Index == y.Index
	}
	return false
}

func (u *Unifier) unifyConstLevels(x, y term.Node) error {
	if x.Kind != term.KindConst || x.Levels == y.Levels {
		return nil
	}
	us, vs := u.terms.ConstLevels(x), u.terms.ConstLevels(y)
	if len(us) != len(vs) {
		return &Error{Kind: LevelMismatch}
	}
	for i := range us {
		if err := u.UnifyLevels(us[i], vs[i]); err != nil {
			return err
		}
	}
	return nil
}

// unfoldOne performs one delta or iota step on the side with the greater
// definition height, or on both when the heights tie.
func (u *Unifier) unfoldOne(a, b term.ID, ctx kernel.Context) (term.ID, term.ID, bool, error) {
	da, okA := u.eng.Unfoldable(a)
	db, okB := u.eng.Unfoldable(b)
	unfoldA := okA && (!okB || da.Height >= db.Height)
	unfoldB := okB && (!okA || db.Height >= da.Height)
	if !okA && !okB {
		unfoldA, unfoldB = true, true // iota only
	}
	progressed := false
	if unfoldA {
		r, ok, err := u.eng.Unfold(a, ctx)
		if err != nil {
			return a, b, false, fmt.Errorf("unify: %w", err)
		}
		a, progressed = r, ok
	}
	if unfoldB {
		r, ok, err := u.eng.Unfold(b, ctx)
		if err != nil {
			return a, b, false, fmt.Errorf("unify: %w", err)
		}
		b, progressed = r, progressed || ok
	}
	return a, b, progressed, nil
}

func isFuel(err error) bool { return errors.Is(err, kernel.ErrFuelExhausted) }
