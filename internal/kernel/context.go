package kernel

import (
	"fmt"

	"dtt/internal/symbols"
	"dtt/internal/term"
)

type frame struct {
	binder term.Binder
	value  term.ID // let-bound value, or term.NoID
	parent *frame
	depth  uint32 // context length including this frame
}

// Context is a persistent local typing context. Index 0 is the most recently
// pushed binder. Push and Pop return new contexts and never modify the
// receiver, so a Context can be kept across calls.
type Context struct {
	terms *term.Arena
	top   *frame
}

// NewContext creates an empty context over terms.
func NewContext(terms *term.Arena) Context {
	return Context{terms: terms}
}

// Len is the number of binders, the bound for every Var under this context.
func (c Context) Len() uint32 {
	if c.top == nil {
		return 0
	}
	return c.top.depth
}

// Terms returns the arena types live in.
func (c Context) Terms() *term.Arena { return c.terms }

// Push extends the context with b. b.Type lives in the receiver's scope.
func (c Context) Push(b term.Binder) Context {
	return Context{terms: c.terms, top: &frame{binder: b, parent: c.top, depth: c.Len() + 1}}
}

// PushLet extends the context with a let-bound variable whose value is
// visible to reduction.
func (c Context) PushLet(b term.Binder, value term.ID) Context {
	return Context{terms: c.terms, top: &frame{binder: b, value: value, parent: c.top, depth: c.Len() + 1}}
}

// Pop removes the innermost binder and returns its type in the scope of the
// returned context.
func (c Context) Pop() (term.ID, Context) {
	if c.top == nil {
		panic("kernel: Pop on an empty context")
	}
	return c.top.binder.Type, Context{terms: c.terms, top: c.top.parent}
}

func (c Context) frame(i uint32) *frame {
	if i >= c.Len() {
		panic(fmt.Sprintf("kernel: Var(%d) outside a context of length %d", i, c.Len()))
	}
	f := c.top
	for ; i > 0; i-- {
		f = f.parent
	}
	return f
}

// Type returns the type of Var(i), lifted into the current scope.
func (c Context) Type(i uint32) term.ID {
	return c.terms.Lift(c.frame(i).binder.Type, 0, i+1)
}

// Value returns the let-bound value of Var(i), lifted into the current scope.
func (c Context) Value(i uint32) (term.ID, bool) {
	f := c.frame(i)
	if f.value == term.NoID {
		return term.NoID, false
	}
	return c.terms.Lift(f.value, 0, i+1), true
}

// Name returns the binder name of Var(i).
func (c Context) Name(i uint32) symbols.ID { return c.frame(i).binder.Name }

// Raw returns the binder at absolute position p, 0 being the outermost. Its
// type lives in the scope of the first p entries.
func (c Context) Raw(p uint32) term.Binder {
	return c.frame(c.Len() - 1 - p).binder
}

// Names returns the binder names, outermost first, as a term.Printer expects.
func (c Context) Names() []symbols.ID {
	out := make([]symbols.ID, c.Len())
	i := len(out) - 1
	for f := c.top; f != nil; f = f.parent {
		out[i] = f.binder.Name
		i--
	}
	return out
}
