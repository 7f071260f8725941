package kernel

import (
	"dtt/internal/env"
	"dtt/internal/term"
)

// Cache memoizes reduction, conversion, and inference results by term ID.
// Interned terms never change, so an entry stays valid as long as the
// environment only grows: a cache attached to an unrelated snapshot is reset.
type Cache struct {
	env   *env.Environment
	whnf  map[term.ID]term.ID
	defeq map[[2]term.ID]struct{}
	infer map[term.ID]term.ID

	hits, misses uint64
}

// CacheStats summarizes a cache for reporting.
type CacheStats struct {
	WHNF, DefEq, Infer int
	Hits, Misses       uint64
}

// NewCache creates empty memo tables.
func NewCache() *Cache {
	c := &Cache{}
	c.reset()
	return c
}

func (c *Cache) reset() {
	c.whnf = make(map[term.ID]term.ID)
	c.defeq = make(map[[2]term.ID]struct{})
	c.infer = make(map[term.ID]term.ID)
}

func (c *Cache) attach(e *env.Environment) {
	switch {
	case c.env == nil, c.env == e:
	case !e.Descends(c.env):
		c.reset()
	}
	c.env = e
}

// Stats returns the table sizes and hit counts.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		WHNF:   len(c.whnf),
		DefEq:  len(c.defeq),
		Infer:  len(c.infer),
		Hits:   c.hits,
		Misses: c.misses,
	}
}

func (c *Cache) getWHNF(t term.ID) (term.ID, bool) {
	r, ok := c.whnf[t]
	c.count(ok)
	return r, ok
}

func pair(a, b term.ID) [2]term.ID {
	if a > b {
		a, b = b, a
	}
	return [2]term.ID{a, b}
}

func (c *Cache) knownEq(a, b term.ID) bool {
	_, ok := c.defeq[pair(a, b)]
	c.count(ok)
	return ok
}

func (c *Cache) getInfer(t term.ID) (term.ID, bool) {
	r, ok := c.infer[t]
	c.count(ok)
	return r, ok
}

func (c *Cache) count(hit bool) {
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}
