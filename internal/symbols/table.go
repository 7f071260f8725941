package symbols

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
)

// Table interns identifier strings to small integer handles, in both directions.
// Identifiers are NFC-normalized first, so a name typed with a precomposed or a
// combining accent is the same name.
type Table struct {
	byID  []string // byID[0] = "" for NoID
	index map[string]ID
}

// NewTable creates a table with NoID reserved for the anonymous name.
func NewTable() *Table {
	return &Table{
		byID:  []string{""},
		index: map[string]ID{"": NoID},
	}
}

// Intern returns the ID for s, allocating a new one on first sight.
func (t *Table) Intern(s string) ID {
	if !norm.NFC.IsNormalString(s) {
		s = norm.NFC.String(s)
	}
	if id, ok := t.index[s]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(t.byID))
	if err != nil {
		panic(fmt.Errorf("symbol table overflow: %w", err))
	}
	cpy := string([]byte(s))
	id := ID(n)
	t.byID = append(t.byID, cpy)
	t.index[cpy] = id
	return id
}

// Find returns the ID of s without interning it.
func (t *Table) Find(s string) (ID, bool) {
	id, ok := t.index[norm.NFC.String(s)]
	return id, ok
}

// Lookup returns the string for id.
func (t *Table) Lookup(id ID) (string, bool) {
	if int(id) >= len(t.byID) {
		return "", false
	}
	return t.byID[id], true
}

// Resolve returns the string for id and panics on an unknown handle.
func (t *Table) Resolve(id ID) string {
	s, ok := t.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("symbols: invalid ID %d", id))
	}
	return s
}

// Len counts interned strings, including the anonymous name.
func (t *Table) Len() int {
	return len(t.byID)
}

// Snapshot returns all strings in ID order.
func (t *Table) Snapshot() []string {
	return slices.Clone(t.byID)
}

// Restore rebuilds a table from a Snapshot. Entry 0 must be the anonymous name
// and no string may repeat, otherwise IDs would not round-trip.
func Restore(strs []string) (*Table, error) {
	if len(strs) == 0 || strs[0] != "" {
		return nil, fmt.Errorf("symbols: snapshot must start with the anonymous name")
	}
	t := &Table{
		byID:  make([]string, 0, len(strs)),
		index: make(map[string]ID, len(strs)),
	}
	for i, s := range strs {
		if _, dup := t.index[s]; dup {
			return nil, fmt.Errorf("symbols: duplicate entry %q at %d", s, i)
		}
		n, err := safecast.Conv[uint32](i)
		if err != nil {
			return nil, fmt.Errorf("symbols: snapshot too large: %w", err)
		}
		t.byID = append(t.byID, s)
		t.index[s] = ID(n)
	}
	return t, nil
}
