package kernel

import (
	"dtt/internal/env"
	"dtt/internal/term"
)

// Height returns the definition height for a declaration whose value is v:
// one more than the highest unfoldable definition v mentions, 0 without a value.
func Height(terms *term.Arena, e *env.Environment, v term.ID) uint32 {
	if v == term.NoID {
		return 0
	}
	var h uint32
	terms.Find(v, nil, func(x term.ID) bool {
		n := terms.Node(x)
		if n.Kind != term.KindConst {
			return false
		}
		if d, ok := e.Lookup(n.Sym); ok && d.Unfoldable() {
			h = max(h, d.Height)
		}
		return false
	})
	return h + 1
}
