package meta

import (
	"dtt/internal/level"
	"dtt/internal/term"
)

// Instantiate replaces every assigned metavariable in t by its value and
// beta-reduces the resulting head redexes. Solved level metavariables are
// substituted too. Unassigned metavariables are left in place.
func (s *Store) Instantiate(t term.ID) term.ID {
	a := s.terms
	if a.HasMVar(t) {
		t = a.Replace(t, func(x term.ID, _ uint32) (term.ID, bool) {
			if !a.HasMVar(x) {
				return x, true
			}
			k := a.Kind(x)
			if k != term.KindApp && k != term.KindMVar {
				return term.NoID, false
			}
			head, args := a.Spine(x)
			n := a.Node(head)
			if n.Kind != term.KindMVar {
				return term.NoID, false
			}
			v, ok := s.Assigned(n.Meta())
			if !ok {
				return term.NoID, false
			}
			v = s.Instantiate(v)
			for i, arg := range args {
				args[i] = s.Instantiate(arg)
			}
			return a.Beta(v, args), true
		})
	}
	return s.InstantiateLevels(t)
}

// InstantiateLevels substitutes solved level metavariables in t.
func (s *Store) InstantiateLevels(t term.ID) term.ID {
	if len(s.levels) == 0 {
		return t
	}
	levels := s.terms.Levels()
	return s.terms.ReplaceLevels(t, func(l level.ID) level.ID {
		return levels.Instantiate(l, s)
	})
}

// InstantiateLevel resolves solved level metavariables in l.
func (s *Store) InstantiateLevel(l level.ID) level.ID {
	return s.terms.Levels().Instantiate(l, s)
}

// HasUnassigned reports whether t still mentions an unsolved term or level
// metavariable after instantiation.
func (s *Store) HasUnassigned(t term.ID) bool {
	t = s.Instantiate(t)
	if s.terms.HasMVar(t) {
		return true
	}
	for _, p := range s.terms.LevelParams(t) {
		if s.IsLevelMeta(p) {
			return true
		}
	}
	return false
}
