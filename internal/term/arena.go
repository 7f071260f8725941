package term

import (
	"fmt"

	"fortio.org/safecast"

	"dtt/internal/level"
	"dtt/internal/symbols"
)

const (
	flagHasMVar uint8 = 1 << iota
	flagHasLevelParam
)

// info caches structural facts computed once at interning time.
type info struct {
	loose uint32 // every loose Var index is < loose
	flags uint8
}

// Arena hash-conses terms. Each constructor hashes its kind and already-interned
// children and returns the existing ID on a structural match.
type Arena struct {
	levels *level.Arena
	nodes  []Node
	infos  []info
	index  map[Node]ID
}

// NewArena creates an empty arena whose Sort and Const nodes refer to levels.
func NewArena(levels *level.Arena) *Arena {
	return &Arena{
		levels: levels,
		nodes:  make([]Node, 1, 1024), // index 0 reserved for NoID
		infos:  make([]info, 1, 1024),
		index:  make(map[Node]ID, 1024),
	}
}

// Levels returns the level arena used by this arena.
func (a *Arena) Levels() *level.Arena { return a.levels }

// Len reports the number of interned terms, excluding the sentinel.
func (a *Arena) Len() int { return len(a.nodes) - 1 }

// Equal is the hash-consing equality check.
func (a *Arena) Equal(x, y ID) bool { return x == y }

// Lookup returns the node for id.
func (a *Arena) Lookup(id ID) (Node, bool) {
	if id == NoID || int(id) >= len(a.nodes) {
		return Node{}, false
	}
	return a.nodes[id], true
}

// Node returns the node for id and panics on an invalid handle.
func (a *Arena) Node(id ID) Node {
	n, ok := a.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("term: invalid ID %d", id))
	}
	return n
}

// Kind returns the constructor of id.
func (a *Arena) Kind(id ID) Kind { return a.nodes[id].Kind }

// LooseBound returns n such that every loose Var in id has index < n.
// Zero means the term is closed.
func (a *Arena) LooseBound(id ID) uint32 { return a.infos[id].loose }

// HasMVar reports whether a metavariable occurs in id.
func (a *Arena) HasMVar(id ID) bool { return a.infos[id].flags&flagHasMVar != 0 }

// HasLevelParam reports whether a universe parameter occurs in id.
func (a *Arena) HasLevelParam(id ID) bool { return a.infos[id].flags&flagHasLevelParam != 0 }

func (a *Arena) intern(n Node) ID {
	k := n.key()
	if id, ok := a.index[k]; ok {
		return id
	}
	length, err := safecast.Conv[uint32](len(a.nodes))
	if err != nil {
		panic(fmt.Errorf("term arena overflow: %w", err))
	}
	id := ID(length)
	a.nodes = append(a.nodes, n)
	a.infos = append(a.infos, a.computeInfo(n))
	a.index[k] = id
	return id
}

func (a *Arena) computeInfo(n Node) info {
	var in info
	switch n.Kind {
	case KindVar:
		in.loose = n.Index + 1
	case KindSort:
		if a.levels.HasParam(n.Level) {
			in.flags |= flagHasLevelParam
		}
	case KindConst:
		for _, l := range a.levels.SeqOf(n.Levels) {
			if a.levels.HasParam(l) {
				in.flags |= flagHasLevelParam
				break
			}
		}
	case KindMVar:
		in.flags |= flagHasMVar
	case KindApp:
		ia, ib := a.infos[n.A], a.infos[n.B]
		in.loose = max(ia.loose, ib.loose)
		in.flags = ia.flags | ib.flags
	case KindLam, KindPi:
		ia, ib := a.infos[n.A], a.infos[n.B]
		in.loose = max(ia.loose, under(ib.loose))
		in.flags = ia.flags | ib.flags
	case KindLet:
		ia, ib, ic := a.infos[n.A], a.infos[n.B], a.infos[n.C]
		in.loose = max(ia.loose, ib.loose, under(ic.loose))
		in.flags = ia.flags | ib.flags | ic.flags
	}
	return in
}

func under(loose uint32) uint32 {
	if loose == 0 {
		return 0
	}
	return loose - 1
}

// Var returns the bound variable with de Bruijn index i.
func (a *Arena) Var(i uint32) ID {
	return a.intern(Node{Kind: KindVar, Index: i})
}

// Sort returns Sort(l).
func (a *Arena) Sort(l level.ID) ID {
	return a.intern(Node{Kind: KindSort, Level: l})
}

// Const returns a reference to a global declaration instantiated at levels.
func (a *Arena) Const(name symbols.ID, levels ...level.ID) ID {
	return a.intern(Node{Kind: KindConst, Sym: name, Levels: a.levels.Seq(levels)})
}

// App returns the application f x.
func (a *Arena) App(f, x ID) ID {
	return a.intern(Node{Kind: KindApp, A: f, B: x})
}

// Lam returns fun (b) => body.
func (a *Arena) Lam(b Binder, body ID) ID {
	return a.intern(Node{Kind: KindLam, A: b.Type, B: body, Sym: b.Name, Implicit: b.Implicit})
}

// Pi returns the dependent function type (b) -> body.
func (a *Arena) Pi(b Binder, body ID) ID {
	return a.intern(Node{Kind: KindPi, A: b.Type, B: body, Sym: b.Name, Implicit: b.Implicit})
}

// Let returns let b := value; body.
func (a *Arena) Let(b Binder, value, body ID) ID {
	return a.intern(Node{Kind: KindLet, A: b.Type, B: value, C: body, Sym: b.Name})
}

// MVar returns the metavariable m as a bare term.
func (a *Arena) MVar(m MetaID) ID {
	return a.intern(Node{Kind: KindMVar, Index: uint32(m)})
}

// ConstLevels returns the universe arguments of a Const node.
func (a *Arena) ConstLevels(n Node) []level.ID {
	return a.levels.SeqOf(n.Levels)
}

// Arrow returns the non-dependent function type dom -> cod. cod lives in the
// outer context and is lifted under the anonymous binder.
func (a *Arena) Arrow(dom, cod ID) ID {
	return a.Pi(Binder{Type: dom}, a.Lift(cod, 0, 1))
}

// Apps applies f to args left to right.
func (a *Arena) Apps(f ID, args ...ID) ID {
	for _, x := range args {
		f = a.App(f, x)
	}
	return f
}

// Spine decomposes t as head a1 ... an.
func (a *Arena) Spine(t ID) (ID, []ID) {
	n := 0
	for h := t; a.nodes[h].Kind == KindApp; h = a.nodes[h].A {
		n++
	}
	if n == 0 {
		return t, nil
	}
	args := make([]ID, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = a.nodes[t].B
		t = a.nodes[t].A
	}
	return t, args
}

// Head returns the head of the application spine of t.
func (a *Arena) Head(t ID) ID {
	for a.nodes[t].Kind == KindApp {
		t = a.nodes[t].A
	}
	return t
}
