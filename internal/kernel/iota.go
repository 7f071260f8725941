package kernel

import (
	"dtt/internal/symbols"
	"dtt/internal/term"
)

// RecursorRule is the computation rule of one constructor: applying the
// recursor to that constructor reduces to RHS applied to the recursor's
// parameters, motives, minor premises, and the constructor's fields.
type RecursorRule struct {
	Ctor   symbols.ID
	Fields int
	// RHS is closed and abstracts the recursor's universe parameters.
	RHS term.ID
}

// Recursor describes the argument layout of a recursor constant.
type Recursor struct {
	Name           symbols.ID
	UniverseParams []symbols.ID
	Params         int
	Motives        int
	Minors         int
	Indices        int
	Rules          []RecursorRule
}

// MajorIndex is the position of the major premise among the arguments.
func (r *Recursor) MajorIndex() int { return r.Params + r.Motives + r.Minors + r.Indices }

// Recursors is an IotaRule backed by recursor descriptions registered by
// the inductive layer.
type Recursors struct {
	byName map[symbols.ID]*Recursor
}

// NewRecursors creates an empty registry.
func NewRecursors() *Recursors {
	return &Recursors{byName: make(map[symbols.ID]*Recursor)}
}

// Add registers r, replacing an earlier description with the same name.
func (rs *Recursors) Add(r *Recursor) { rs.byName[r.Name] = r }

// Iota implements IotaRule.
func (rs *Recursors) Iota(e *Engine, head term.Node, args []term.ID, ctx Context) (term.ID, bool, error) {
	r, ok := rs.byName[head.Sym]
	if !ok {
		return term.NoID, false, nil
	}
	major := r.MajorIndex()
	if len(args) <= major {
		return term.NoID, false, nil
	}
	a := e.Terms()
	w, err := e.ReduceNested(args[major], ctx)
	if err != nil {
		return term.NoID, false, err
	}
	ctor, ctorArgs := a.Spine(w)
	cn := a.Node(ctor)
	if cn.Kind != term.KindConst {
		return term.NoID, false, nil
	}
	for _, rule := range r.Rules {
		if rule.Ctor != cn.Sym {
			continue
		}
		if len(ctorArgs) < rule.Fields {
			return term.NoID, false, nil
		}
		rhs := a.InstantiateLevelParams(rule.RHS, r.UniverseParams, a.ConstLevels(head))
		prefix := args[:r.Params+r.Motives+r.Minors]
		fields := ctorArgs[len(ctorArgs)-rule.Fields:]
		out := a.Apps(a.Apps(rhs, prefix...), fields...)
		return a.Apps(out, args[major+1:]...), true, nil
	}
	return term.NoID, false, nil
}
