package meta

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"dtt/internal/level"
	"dtt/internal/symbols"
	"dtt/internal/term"
)

// LevelPrefix starts the reserved names of level metavariables.
const LevelPrefix = "?u."

// Entry describes one term metavariable.
type Entry struct {
	ID term.MetaID
	// Expected is the type of the hole under its creation context.
	Expected term.ID
	// ContextLen is the length of that context. Occurrences are always
	// MVar(ID) applied to Var(ContextLen-1) ... Var(0).
	ContextLen uint32
	// Type is the closed type of the bare MVar: Expected abstracted over the
	// context with Pi binders.
	Type term.ID
	// Assignment is a closed term of Type, or term.NoID.
	Assignment term.ID
}

type levelEntry struct {
	param      symbols.ID
	assignment level.ID
}

type undoKind uint8

const (
	undoNewTerm undoKind = iota
	undoAssignTerm
	undoNewLevel
	undoAssignLevel
)

type undo struct {
	kind undoKind
	idx  uint32
}

// Mark is a position in the undo log.
type Mark int

// Store is the assignment table for term and level metavariables. It lives
// outside the term arena: terms are never mutated, solved holes are
// substituted when a term is instantiated.
type Store struct {
	syms    *symbols.Table
	terms   *term.Arena
	entries []Entry      // entries[0] reserved for NoMeta
	levels  []levelEntry // level metavariable i is levels[i]
	byParam map[symbols.ID]uint32
	log     []undo
}

// NewStore creates an empty store. syms receives the reserved names of level
// metavariables.
func NewStore(syms *symbols.Table, terms *term.Arena) *Store {
	return &Store{
		syms:    syms,
		terms:   terms,
		entries: make([]Entry, 1, 64),
		byParam: make(map[symbols.ID]uint32),
	}
}

// Terms returns the arena the store instantiates into.
func (s *Store) Terms() *term.Arena { return s.terms }

// Len reports the number of term metavariables created so far.
func (s *Store) Len() int { return len(s.entries) - 1 }

// New allocates an unassigned term metavariable. typ is the closed Pi type
// of the bare MVar and expected its type under a context of length ctxLen.
func (s *Store) New(expected, typ term.ID, ctxLen uint32) term.MetaID {
	n, err := safecast.Conv[uint32](len(s.entries))
	if err != nil {
		panic(fmt.Errorf("metavariable store overflow: %w", err))
	}
	m := term.MetaID(n)
	s.entries = append(s.entries, Entry{ID: m, Expected: expected, ContextLen: ctxLen, Type: typ})
	s.log = append(s.log, undo{kind: undoNewTerm, idx: n})
	return m
}

// Lookup returns the entry for m.
func (s *Store) Lookup(m term.MetaID) (Entry, bool) {
	if m == term.NoMeta || int(m) >= len(s.entries) {
		return Entry{}, false
	}
	return s.entries[m], true
}

// Get returns the entry for m and panics on an unknown handle.
func (s *Store) Get(m term.MetaID) Entry {
	e, ok := s.Lookup(m)
	if !ok {
		panic(fmt.Sprintf("meta: unknown metavariable %d", m))
	}
	return e
}

// Assigned returns the assignment of m, if any.
func (s *Store) Assigned(m term.MetaID) (term.ID, bool) {
	e, ok := s.Lookup(m)
	if !ok || e.Assignment == term.NoID {
		return term.NoID, false
	}
	return e.Assignment, true
}

// Assign records m := v. v must be closed; m must be unassigned.
func (s *Store) Assign(m term.MetaID, v term.ID) {
	e := s.Get(m)
	if e.Assignment != term.NoID {
		panic(fmt.Sprintf("meta: ?m.%d assigned twice", m))
	}
	if s.terms.LooseBound(v) != 0 {
		panic(fmt.Sprintf("meta: assignment of ?m.%d is not closed", m))
	}
	s.entries[m].Assignment = v
	s.log = append(s.log, undo{kind: undoAssignTerm, idx: uint32(m)})
}

// Unassigned returns the term metavariables without an assignment in creation order.
func (s *Store) Unassigned() []term.MetaID {
	var out []term.MetaID
	for _, e := range s.entries[1:] {
		if e.Assignment == term.NoID {
			out = append(out, e.ID)
		}
	}
	return out
}

// Occurrence returns the canonical occurrence of m: the bare MVar applied to
// the variables of its creation context, outermost first.
func (s *Store) Occurrence(m term.MetaID) term.ID {
	e := s.Get(m)
	t := s.terms.MVar(m)
	for i := e.ContextLen; i > 0; i-- {
		t = s.terms.App(t, s.terms.Var(i-1))
	}
	return t
}

// NewLevel allocates a level metavariable and returns it as a level.
func (s *Store) NewLevel() level.ID {
	n, err := safecast.Conv[uint32](len(s.levels))
	if err != nil {
		panic(fmt.Errorf("level metavariable overflow: %w", err))
	}
	p := s.syms.Intern(LevelPrefix + strconv.FormatUint(uint64(n), 10))
	s.levels = append(s.levels, levelEntry{param: p})
	s.byParam[p] = n
	s.log = append(s.log, undo{kind: undoNewLevel, idx: n})
	return s.terms.Levels().Param(p)
}

// IsLevelMeta reports whether p names a level metavariable of this store.
func (s *Store) IsLevelMeta(p symbols.ID) bool {
	_, ok := s.byParam[p]
	return ok
}

// IsReservedName reports whether name is spelled like a level metavariable.
func IsReservedName(name string) bool { return strings.HasPrefix(name, LevelPrefix) }

// Level implements level.Assignment. The result is fully instantiated.
func (s *Store) Level(p symbols.ID) (level.ID, bool) {
	i, ok := s.byParam[p]
	if !ok || s.levels[i].assignment == level.NoID {
		return level.NoID, false
	}
	return s.terms.Levels().Instantiate(s.levels[i].assignment, s), true
}

// AssignLevel records p := v for an unassigned level metavariable p.
func (s *Store) AssignLevel(p symbols.ID, v level.ID) {
	i, ok := s.byParam[p]
	if !ok {
		panic(fmt.Sprintf("meta: %d is not a level metavariable", p))
	}
	if s.levels[i].assignment != level.NoID {
		panic(fmt.Sprintf("meta: level metavariable %d assigned twice", p))
	}
	s.levels[i].assignment = v
	s.log = append(s.log, undo{kind: undoAssignLevel, idx: i})
}

// UnassignedLevels returns the level metavariables that are still free.
func (s *Store) UnassignedLevels() []symbols.ID {
	var out []symbols.ID
	for _, e := range s.levels {
		if e.assignment == level.NoID {
			out = append(out, e.param)
		}
	}
	return out
}

// Mark returns the current undo position.
func (s *Store) Mark() Mark { return Mark(len(s.log)) }

// Rollback undoes every creation and assignment made since mark.
func (s *Store) Rollback(mark Mark) {
	for len(s.log) > int(mark) {
		u := s.log[len(s.log)-1]
		s.log = s.log[:len(s.log)-1]
		switch u.kind {
		case undoNewTerm:
			s.entries = s.entries[:u.idx]
		case undoAssignTerm:
			s.entries[u.idx].Assignment = term.NoID
		case undoNewLevel:
			delete(s.byParam, s.levels[u.idx].param)
			s.levels = s.levels[:u.idx]
		case undoAssignLevel:
			s.levels[u.idx].assignment = level.NoID
		}
	}
}
