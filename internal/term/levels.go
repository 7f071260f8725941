package term

import (
	"slices"

	"dtt/internal/level"
	"dtt/internal/symbols"
)

// ReplaceLevels maps f over every level in the Sort and Const nodes of t.
// f must leave parameter-free levels unchanged: subterms without universe
// parameters are skipped.
func (a *Arena) ReplaceLevels(t ID, f func(level.ID) level.ID) ID {
	if !a.HasLevelParam(t) {
		return t
	}
	return a.Replace(t, func(x ID, _ uint32) (ID, bool) {
		if !a.HasLevelParam(x) {
			return x, true
		}
		n := a.nodes[x]
		switch n.Kind {
		case KindSort:
			return a.Sort(f(n.Level)), true
		case KindConst:
			ls := slices.Clone(a.levels.SeqOf(n.Levels))
			for i := range ls {
				ls[i] = f(ls[i])
			}
			return a.Const(n.Sym, ls...), true
		}
		return NoID, false
	})
}

// InstantiateLevelParams substitutes args for the universe parameters params.
func (a *Arena) InstantiateLevelParams(t ID, params []symbols.ID, args []level.ID) ID {
	if len(params) == 0 {
		return t
	}
	return a.ReplaceLevels(t, func(l level.ID) level.ID {
		return a.levels.Substitute(l, params, args)
	})
}

// LevelParams returns the universe parameters occurring in t in first-seen order.
func (a *Arena) LevelParams(t ID) []symbols.ID {
	var out []symbols.ID
	a.Find(t,
		func(x ID) bool { return !a.HasLevelParam(x) },
		func(x ID) bool {
			n := a.nodes[x]
			switch n.Kind {
			case KindSort:
				out = a.levels.ParamsOf(n.Level, out)
			case KindConst:
				for _, l := range a.levels.SeqOf(n.Levels) {
					out = a.levels.ParamsOf(l, out)
				}
			}
			return false
		})
	return out
}
