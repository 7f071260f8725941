package env

import (
	"errors"
	"fmt"

	"fortio.org/safecast"
	"github.com/benbjohnson/immutable"

	"dtt/internal/symbols"
)

// ErrDuplicateDeclaration is matched by errors.Is on a repeated Declare.
var ErrDuplicateDeclaration = errors.New("duplicate declaration")

// DuplicateError names the declaration that already exists.
type DuplicateError struct {
	Name symbols.ID
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate declaration (symbol %d)", e.Name)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicateDeclaration }

type symbolHasher struct{}

// Hash mixes the symbol ID so that consecutive IDs spread over the trie.
func (symbolHasher) Hash(k symbols.ID) uint32 {
	x := uint32(k)
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

func (symbolHasher) Equal(a, b symbols.ID) bool { return a == b }

// Environment is an immutable snapshot of the global declarations. Declare
// returns a new snapshot sharing structure with the old one; snapshots can be
// read from several goroutines without locking.
type Environment struct {
	decls *immutable.Map[symbols.ID, *Declaration]
	order *immutable.List[symbols.ID]
}

// New returns the empty environment.
func New() *Environment {
	return &Environment{
		decls: immutable.NewMap[symbols.ID, *Declaration](symbolHasher{}),
		order: immutable.NewList[symbols.ID](),
	}
}

// Declare adds d under name. The receiver is left unchanged.
func (e *Environment) Declare(name symbols.ID, d Declaration) (*Environment, error) {
	if _, ok := e.decls.Get(name); ok {
		return nil, &DuplicateError{Name: name}
	}
	seq, err := safecast.Conv[uint32](e.order.Len())
	if err != nil {
		panic(fmt.Errorf("environment overflow: %w", err))
	}
	d.Name = name
	d.Seq = seq
	return &Environment{
		decls: e.decls.Set(name, &d),
		order: e.order.Append(name),
	}, nil
}

// Lookup returns the declaration for name. The result must not be modified.
func (e *Environment) Lookup(name symbols.ID) (*Declaration, bool) {
	return e.decls.Get(name)
}

// Contains reports whether name is declared.
func (e *Environment) Contains(name symbols.ID) bool {
	_, ok := e.decls.Get(name)
	return ok
}

// Len reports the number of declarations.
func (e *Environment) Len() int { return e.order.Len() }

// Names returns the declared names in insertion order.
func (e *Environment) Names() []symbols.ID {
	out := make([]symbols.ID, 0, e.order.Len())
	itr := e.order.Iterator()
	for !itr.Done() {
		_, name := itr.Next()
		out = append(out, name)
	}
	return out
}

// Each calls fn for every declaration in insertion order until fn returns false.
func (e *Environment) Each(fn func(*Declaration) bool) {
	itr := e.order.Iterator()
	for !itr.Done() {
		_, name := itr.Next()
		d, _ := e.decls.Get(name)
		if !fn(d) {
			return
		}
	}
}

// Descends reports whether e was obtained from base by zero or more Declare
// calls. Every Declare allocates its declaration once, so e shares base's
// latest declaration at the same position only if it shares the whole
// prefix.
func (e *Environment) Descends(base *Environment) bool {
	n := base.order.Len()
	if n == 0 {
		return true
	}
	if n > e.order.Len() {
		return false
	}
	name := base.order.Get(n - 1)
	if e.order.Get(n-1) != name {
		return false
	}
	mine, _ := e.decls.Get(name)
	theirs, _ := base.decls.Get(name)
	return mine == theirs
}
