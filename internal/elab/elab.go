package elab

import (
	"errors"
	"slices"

	"dtt/internal/ast"
	"dtt/internal/env"
	"dtt/internal/kernel"
	"dtt/internal/level"
	"dtt/internal/meta"
	"dtt/internal/source"
	"dtt/internal/symbols"
	"dtt/internal/term"
	"dtt/internal/unify"
)

// Options configures literal elaboration and the reduction budget.
type Options struct {
	Nat, NatZero, NatSucc string
	MaxNatLiteral         uint64
	Fuel                  uint64
	Cache                 *kernel.Cache
	Iota                  kernel.IotaRule
}

// DefaultOptions returns the built-in configuration.
func DefaultOptions() Options {
	return Options{
		Nat:           "Nat",
		NatZero:       "Nat.zero",
		NatSucc:       "Nat.succ",
		MaxNatLiteral: 4096,
		Fuel:          kernel.DefaultFuel,
	}
}

// origin records where a metavariable was introduced.
type origin struct {
	span source.Span
	what string
}

// Elaborator turns surface expressions into kernel terms against one
// environment snapshot. Each unit of work (a declaration) starts with Begin
// and ends with Finish.
type Elaborator struct {
	syms   *symbols.Table
	terms  *term.Arena
	levels *level.Arena
	env    *env.Environment
	opts   Options

	exprs *ast.Exprs
	store *meta.Store
	eng   *kernel.Engine
	un    *unify.Unifier
	univ  map[string]symbols.ID

	origins      map[term.MetaID]origin
	levelOrigins map[symbols.ID]origin
}

// New creates an elaborator over the shared arenas.
func New(syms *symbols.Table, terms *term.Arena, e *env.Environment, opts Options) *Elaborator {
	el := &Elaborator{syms: syms, terms: terms, levels: terms.Levels(), env: e, opts: opts}
	el.Begin(ast.NewExprs(1), nil)
	return el
}

// SetEnv replaces the environment later units elaborate against.
func (e *Elaborator) SetEnv(env *env.Environment) { e.env = env }

// Env returns the current environment.
func (e *Elaborator) Env() *env.Environment { return e.env }

// Store returns the metavariable store of the current unit.
func (e *Elaborator) Store() *meta.Store { return e.store }

// Unifier returns the unifier of the current unit.
func (e *Elaborator) Unifier() *unify.Unifier { return e.un }

// Begin starts a unit reading expressions from exprs with the given universe
// parameters in scope. Metavariables of earlier units are discarded.
func (e *Elaborator) Begin(exprs *ast.Exprs, univ []symbols.ID) {
	e.exprs = exprs
	e.store = meta.NewStore(e.syms, e.terms)
	e.eng = kernel.NewEngine(e.terms, e.env, kernel.Options{
		Fuel:  e.opts.Fuel,
		Iota:  e.opts.Iota,
		Cache: e.opts.Cache,
		Metas: e.store,
	})
	e.un = unify.New(e.eng, e.store)
	e.univ = make(map[string]symbols.ID, len(univ))
	for _, u := range univ {
		e.univ[e.syms.Resolve(u)] = u
	}
	e.origins = make(map[term.MetaID]origin)
	e.levelOrigins = make(map[symbols.ID]origin)
}

// Context returns an empty local context over the elaborator's arenas.
func (e *Elaborator) Context() kernel.Context { return kernel.NewContext(e.terms) }

// Finish solves every pending constraint, instantiates ts, and rejects any
// metavariable left in them.
func (e *Elaborator) Finish(ts ...term.ID) ([]term.ID, error) {
	if err := e.un.Solve(true); err != nil {
		return nil, e.wrapConstraint(err)
	}
	out := make([]term.ID, len(ts))
	for i, t := range ts {
		if t == term.NoID {
			continue
		}
		out[i] = e.store.Instantiate(t)
	}
	for _, t := range out {
		if t == term.NoID {
			continue
		}
		if err := e.leftover(t); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *Elaborator) leftover(t term.ID) error {
	if ms := e.terms.MVars(t); len(ms) > 0 {
		m := slices.Min(ms)
		o := e.origins[m]
		return &Error{Kind: UnresolvedMetavariable, Span: o.span, Msg: "cannot infer " + o.what}
	}
	if !e.terms.HasLevelParam(t) {
		return nil
	}
	var pending []symbols.ID
	for _, p := range e.terms.LevelParams(t) {
		if e.store.IsLevelMeta(p) {
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	p := slices.Min(pending)
	o := e.levelOrigins[p]
	return &Error{Kind: UnresolvedMetavariable, Span: o.span, Msg: "cannot infer universe level of " + o.what}
}

// wrapConstraint locates a failure reported by the final solve at the
// earliest metavariable the constraint mentions.
func (e *Elaborator) wrapConstraint(err error) error {
	var ue *unify.Error
	if !errors.As(err, &ue) {
		return err
	}
	var o origin
	found := false
	for _, id := range []term.ID{ue.Left, ue.Right} {
		if id == term.NoID || found {
			continue
		}
		if ms := e.terms.MVars(e.store.Instantiate(id)); len(ms) > 0 {
			o, found = e.origins[slices.Min(ms)], true
		}
	}
	if ue.Kind == unify.Stuck && found {
		return &Error{Kind: UnresolvedMetavariable, Span: o.span, Msg: "cannot infer " + o.what, Cause: err}
	}
	return &Error{Kind: TypeError, Span: o.span, Cause: err}
}

func (e *Elaborator) newMVar(expected term.ID, ctx kernel.Context, sp source.Span, what string) term.ID {
	occ := e.un.NewMVar(expected, ctx)
	m := e.terms.Node(e.terms.Head(occ)).Meta()
	e.origins[m] = origin{span: sp, what: what}
	return occ
}

func (e *Elaborator) newLevel(sp source.Span, what string) level.ID {
	l := e.store.NewLevel()
	e.levelOrigins[e.levels.Get(l).Param] = origin{span: sp, what: what}
	return l
}

// typeHole creates ?T : Sort ?u under ctx.
func (e *Elaborator) typeHole(ctx kernel.Context, sp source.Span, what string) term.ID {
	u := e.newLevel(sp, what)
	return e.newMVar(e.terms.Sort(u), ctx, sp, what)
}

// whnf instantiates assigned metavariables and reduces t to weak head normal form.
func (e *Elaborator) whnf(t term.ID, ctx kernel.Context) (term.ID, error) {
	return e.eng.Reduce(e.store.Instantiate(t), ctx)
}

func (e *Elaborator) flexible(t term.ID) bool {
	n := e.terms.Node(e.terms.Head(t))
	if n.Kind != term.KindMVar {
		return false
	}
	_, ok := e.store.Assigned(n.Meta())
	return !ok
}

func (e *Elaborator) span(x ast.ExprID) source.Span {
	if ex := e.exprs.Get(x); ex != nil {
		return ex.Span
	}
	return source.Span{}
}

// fail wraps a unifier or kernel error as a located TypeError. Fuel
// exhaustion passes through unchanged apart from the location.
func (e *Elaborator) fail(sp source.Span, err error, expected, found term.ID, ctx kernel.Context) error {
	if errors.Is(err, kernel.ErrFuelExhausted) {
		return &Error{Kind: TypeError, Span: sp, Msg: "reduction budget exhausted", Cause: err}
	}
	out := &Error{Kind: TypeError, Span: sp, Cause: err, Ctx: ctx.Names()}
	if expected != term.NoID {
		out.Expected = e.store.Instantiate(expected)
	}
	if found != term.NoID {
		out.Found = e.store.Instantiate(found)
	}
	return out
}

func (e *Elaborator) lookupConst(name string) (symbols.ID, *env.Declaration, bool) {
	sym, ok := e.syms.Find(name)
	if !ok {
		return symbols.NoID, nil, false
	}
	d, ok := e.env.Lookup(sym)
	return sym, d, ok
}

func (e *Elaborator) binderName(name string) symbols.ID {
	if name == "_" {
		return symbols.NoID
	}
	return e.syms.Intern(name)
}
