package level

import (
	"encoding/binary"
	"fmt"
	"slices"

	"fortio.org/safecast"

	"dtt/internal/symbols"
)

// Arena interns levels in canonical form so that level equality is an ID comparison.
type Arena struct {
	levels   []Level
	hasParam []bool
	index    map[Level]ID
	zero     ID

	seqs     [][]ID
	seqIndex map[string]SeqID
}

// NewArena constructs an arena with the zero level pre-interned.
func NewArena() *Arena {
	a := &Arena{
		levels:   make([]Level, 1, 64), // index 0 reserved for NoID
		hasParam: make([]bool, 1, 64),
		index:    make(map[Level]ID, 64),
		seqs:     [][]ID{nil}, // EmptySeq
		seqIndex: map[string]SeqID{"": EmptySeq},
	}
	a.zero = a.raw(Level{Kind: KindZero})
	return a
}

// raw interns the descriptor without normalizing it. Callers guarantee canonical form.
func (a *Arena) raw(l Level) ID {
	if id, ok := a.index[l]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(a.levels))
	if err != nil {
		panic(fmt.Errorf("level arena overflow: %w", err))
	}
	id := ID(n)
	a.levels = append(a.levels, l)
	hp := false
	switch l.Kind {
	case KindParam:
		hp = true
	case KindSucc:
		hp = a.hasParam[l.A]
	case KindMax, KindIMax:
		hp = a.hasParam[l.A] || a.hasParam[l.B]
	}
	a.hasParam = append(a.hasParam, hp)
	a.index[l] = id
	return id
}

// Lookup returns the descriptor for id.
func (a *Arena) Lookup(id ID) (Level, bool) {
	if id == NoID || int(id) >= len(a.levels) {
		return Level{}, false
	}
	return a.levels[id], true
}

// Get returns the descriptor for id and panics when id is invalid.
func (a *Arena) Get(id ID) Level {
	l, ok := a.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("level: invalid ID %d", id))
	}
	return l
}

// Len reports the number of interned levels, excluding the sentinel.
func (a *Arena) Len() int { return len(a.levels) - 1 }

// HasParam reports whether any parameter occurs in id.
func (a *Arena) HasParam(id ID) bool { return a.hasParam[id] }

// Zero returns the level 0.
func (a *Arena) Zero() ID { return a.zero }

// Param returns the level parameter named p.
func (a *Arena) Param(p symbols.ID) ID {
	return a.raw(Level{Kind: KindParam, Param: p})
}

// Numeral returns succ^n(zero).
func (a *Arena) Numeral(n uint32) ID {
	return a.addOffset(a.zero, n)
}

// Succ returns the successor of l. Succ distributes over max.
func (a *Arena) Succ(l ID) ID {
	if a.levels[l].Kind == KindMax {
		comps := a.flatten(l, nil)
		for i := range comps {
			comps[i].k++
		}
		return a.build(comps)
	}
	return a.raw(Level{Kind: KindSucc, A: l})
}

// Max returns the canonical form of max(x, y).
func (a *Arena) Max(x, y ID) ID {
	if x == y {
		return x
	}
	comps := a.flatten(x, nil)
	comps = a.flatten(y, comps)
	return a.build(a.normalize(comps))
}

// IMax returns the canonical form of imax(x, y): zero when y is zero, otherwise max(x, y).
func (a *Arena) IMax(x, y ID) ID {
	switch {
	case y == a.zero:
		return a.zero
	case a.neverZero(y):
		return a.Max(x, y)
	case x == a.zero, x == y:
		return y
	}
	ly := a.levels[y]
	switch ly.Kind {
	case KindMax:
		return a.Max(a.IMax(x, ly.A), a.IMax(x, ly.B))
	case KindIMax:
		return a.Max(a.IMax(x, ly.B), y)
	}
	return a.raw(Level{Kind: KindIMax, A: x, B: y})
}

// ToNat reports the numeral value of a closed level of the form succ^n(zero).
func (a *Arena) ToNat(l ID) (uint32, bool) {
	base, k := a.offset(l)
	return k, base == a.zero
}

// component is succ^k(base) where base is zero, a parameter or a stuck imax.
type component struct {
	base ID
	k    uint32
}

func (a *Arena) offset(l ID) (ID, uint32) {
	var k uint32
	for a.levels[l].Kind == KindSucc {
		k++
		l = a.levels[l].A
	}
	return l, k
}

func (a *Arena) addOffset(l ID, k uint32) ID {
	for range k {
		l = a.raw(Level{Kind: KindSucc, A: l})
	}
	return l
}

func (a *Arena) flatten(l ID, out []component) []component {
	for {
		lv := a.levels[l]
		if lv.Kind != KindMax {
			base, k := a.offset(l)
			return append(out, component{base: base, k: k})
		}
		base, k := a.offset(lv.A)
		out = append(out, component{base: base, k: k})
		l = lv.B
	}
}

func (a *Arena) normalize(comps []component) []component {
	best := make(map[ID]uint32, len(comps))
	order := make([]ID, 0, len(comps))
	for _, c := range comps {
		if k, seen := best[c.base]; seen {
			if c.k > k {
				best[c.base] = c.k
			}
			continue
		}
		best[c.base] = c.k
		order = append(order, c.base)
	}
	out := make([]component, 0, len(order))
	num, hasNum := best[a.zero]
	for _, base := range order {
		if base == a.zero {
			continue
		}
		out = append(out, component{base: base, k: best[base]})
	}
	if hasNum {
		dominated := false
		for _, c := range out {
			if c.k >= num {
				dominated = true
				break
			}
		}
		if !dominated {
			out = append(out, component{base: a.zero, k: num})
		}
	}
	slices.SortFunc(out, func(x, y component) int {
		switch {
		case x.base < y.base:
			return -1
		case x.base > y.base:
			return 1
		}
		return 0
	})
	return out
}

// build rebuilds a right-nested max from already normalized components.
func (a *Arena) build(comps []component) ID {
	if len(comps) == 0 {
		return a.zero
	}
	acc := a.addOffset(comps[len(comps)-1].base, comps[len(comps)-1].k)
	for i := len(comps) - 2; i >= 0; i-- {
		c := a.addOffset(comps[i].base, comps[i].k)
		acc = a.raw(Level{Kind: KindMax, A: c, B: acc})
	}
	return acc
}

func (a *Arena) neverZero(l ID) bool {
	lv := a.levels[l]
	switch lv.Kind {
	case KindSucc:
		return true
	case KindMax:
		return a.neverZero(lv.A) || a.neverZero(lv.B)
	case KindIMax:
		return a.neverZero(lv.B)
	}
	return false
}

// Instantiate substitutes parameters according to asg simultaneously and
// renormalizes. Values are not themselves re-instantiated.
func (a *Arena) Instantiate(l ID, asg Assignment) ID {
	if asg == nil || !a.hasParam[l] {
		return l
	}
	lv := a.levels[l]
	switch lv.Kind {
	case KindParam:
		if v, ok := asg.Level(lv.Param); ok {
			return v
		}
		return l
	case KindSucc:
		return a.Succ(a.Instantiate(lv.A, asg))
	case KindMax:
		return a.Max(a.Instantiate(lv.A, asg), a.Instantiate(lv.B, asg))
	case KindIMax:
		return a.IMax(a.Instantiate(lv.A, asg), a.Instantiate(lv.B, asg))
	}
	return l
}

// Substitute replaces the declaration parameters params by args positionally.
func (a *Arena) Substitute(l ID, params []symbols.ID, args []ID) ID {
	if len(params) == 0 {
		return l
	}
	m := make(MapAssignment, len(params))
	for i, p := range params {
		if i < len(args) {
			m[p] = args[i]
		}
	}
	return a.Instantiate(l, m)
}

// Occurs reports whether parameter p occurs in l.
func (a *Arena) Occurs(p symbols.ID, l ID) bool {
	if !a.hasParam[l] {
		return false
	}
	lv := a.levels[l]
	switch lv.Kind {
	case KindParam:
		return lv.Param == p
	case KindSucc:
		return a.Occurs(p, lv.A)
	case KindMax, KindIMax:
		return a.Occurs(p, lv.A) || a.Occurs(p, lv.B)
	}
	return false
}

// ParamsOf appends the parameters occurring in l to out, without duplicates.
func (a *Arena) ParamsOf(l ID, out []symbols.ID) []symbols.ID {
	if !a.hasParam[l] {
		return out
	}
	lv := a.levels[l]
	switch lv.Kind {
	case KindParam:
		if !slices.Contains(out, lv.Param) {
			out = append(out, lv.Param)
		}
	case KindSucc:
		out = a.ParamsOf(lv.A, out)
	case KindMax, KindIMax:
		out = a.ParamsOf(lv.A, out)
		out = a.ParamsOf(lv.B, out)
	}
	return out
}

// Seq interns an ordered level sequence.
func (a *Arena) Seq(ls []ID) SeqID {
	if len(ls) == 0 {
		return EmptySeq
	}
	key := seqKey(ls)
	if id, ok := a.seqIndex[key]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(a.seqs))
	if err != nil {
		panic(fmt.Errorf("level sequence overflow: %w", err))
	}
	id := SeqID(n)
	a.seqs = append(a.seqs, slices.Clone(ls))
	a.seqIndex[key] = id
	return id
}

// SeqOf returns the levels of a sequence. The slice must not be modified.
func (a *Arena) SeqOf(id SeqID) []ID {
	return a.seqs[id]
}

// SeqLen reports the number of interned sequences, including the empty one.
func (a *Arena) SeqLen() int { return len(a.seqs) }

func seqKey(ls []ID) string {
	buf := make([]byte, 4*len(ls))
	for i, l := range ls {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(l))
	}
	return string(buf)
}
