package kernel

import (
	"dtt/internal/env"
	"dtt/internal/level"
	"dtt/internal/meta"
	"dtt/internal/symbols"
	"dtt/internal/term"
)

// DefaultFuel is the reduction budget of one conversion query.
const DefaultFuel uint64 = 100000

// Metas is the read view of a metavariable store. The kernel never assigns.
type Metas interface {
	level.Assignment
	Assigned(m term.MetaID) (term.ID, bool)
	Lookup(m term.MetaID) (meta.Entry, bool)
	IsLevelMeta(p symbols.ID) bool
}

// IotaRule lets the inductive layer contribute recursor reduction. Iota is
// called when the head of a term is a constant delta cannot unfold; it returns
// the reduct and true when a step applies. Reduction requested from inside
// Iota through the Engine shares the budget of the enclosing query.
type IotaRule interface {
	Iota(e *Engine, head term.Node, args []term.ID, ctx Context) (term.ID, bool, error)
}

// Options configures an Engine.
type Options struct {
	// Fuel is the budget of each top-level query; zero means DefaultFuel.
	Fuel  uint64
	Iota  IotaRule
	Cache *Cache
	// Metas enables elaboration mode: assigned metavariables reduce, and
	// metavariable-dependent results are never cached.
	Metas Metas
}

// Engine performs weak-head reduction and definitional-equality checks against
// one environment snapshot.
type Engine struct {
	terms  *term.Arena
	levels *level.Arena
	env    *env.Environment
	metas  Metas
	iota   IotaRule
	cache  *Cache
	budget uint64

	fuel    uint64
	active  int
	unknown bool // a constant missing from env was consulted
	steps   uint64
}

// NewEngine creates an engine over terms reading declarations from e.
func NewEngine(terms *term.Arena, e *env.Environment, opts Options) *Engine {
	c := opts.Cache
	if c == nil {
		c = NewCache()
	}
	c.attach(e)
	budget := opts.Fuel
	if budget == 0 {
		budget = DefaultFuel
	}
	return &Engine{
		terms:  terms,
		levels: terms.Levels(),
		env:    e,
		metas:  opts.Metas,
		iota:   opts.Iota,
		cache:  c,
		budget: budget,
	}
}

// Env returns the environment snapshot the engine reads.
func (e *Engine) Env() *env.Environment { return e.env }

// Terms returns the term arena.
func (e *Engine) Terms() *term.Arena { return e.terms }

// Metas returns the metavariable view, nil in kernel mode.
func (e *Engine) Metas() Metas { return e.metas }

// Cache returns the memo tables used by the engine.
func (e *Engine) Cache() *Cache { return e.cache }

// Steps reports the number of reduction steps performed so far.
func (e *Engine) Steps() uint64 { return e.steps }

// enter starts a query. The outermost query resets the fuel to budget.
func (e *Engine) enter(budget uint64) func() {
	if e.active == 0 {
		e.fuel = budget
	}
	e.active++
	return func() { e.active-- }
}

func (e *Engine) step() error {
	if e.fuel == 0 {
		return ErrFuelExhausted
	}
	e.fuel--
	e.steps++
	return nil
}

func (e *Engine) assignment() level.Assignment {
	if e.metas == nil {
		return nil
	}
	return e.metas
}

// cacheable reports whether results about t are independent of the local
// context and of metavariable assignments.
func (e *Engine) cacheable(t term.ID) bool {
	if e.terms.LooseBound(t) != 0 || e.terms.HasMVar(t) {
		return false
	}
	return e.metas == nil || !e.terms.HasLevelParam(t)
}

// LevelEq compares levels under the current level metavariable assignment.
func (e *Engine) LevelEq(u, v level.ID) bool {
	return u == v || e.levels.Equiv(u, v, e.assignment())
}
