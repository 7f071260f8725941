package kernel

import (
	"testing"

	"dtt/internal/term"
)

func TestContextLiftsTypes(t *testing.T) {
	k := newKit(t)
	a := k.terms
	x, y := k.syms.Intern("A"), k.syms.Intern("a")
	// [A : Type, a : A]
	ctx := k.ctx().Push(term.Binder{Name: x, Type: k.typ()}).Push(term.Binder{Name: y, Type: a.Var(0)})
	if ctx.Len() != 2 {
		t.Fatalf("Len = %d", ctx.Len())
	}
	if got := ctx.Type(0); got != a.Var(1) {
		t.Fatalf("Type(0) = %s, want #1", k.show(got))
	}
	if got := ctx.Type(1); got != k.typ() {
		t.Fatalf("Type(1) = %s", k.show(got))
	}
	if ctx.Name(0) != y || ctx.Raw(0).Name != x || ctx.Raw(1).Type != a.Var(0) {
		t.Fatalf("Name/Raw disagree with push order")
	}
	if names := ctx.Names(); len(names) != 2 || names[0] != x || names[1] != y {
		t.Fatalf("Names = %v", names)
	}

	ty, outer := ctx.Pop()
	if ty != a.Var(0) || outer.Len() != 1 || ctx.Len() != 2 {
		t.Fatalf("Pop changed the receiver or returned the wrong type")
	}
}

func TestContextOutOfRangePanics(t *testing.T) {
	k := newKit(t)
	ctx := k.ctx().Push(term.Binder{Type: k.typ()})
	for _, f := range []func(){
		func() { ctx.Type(1) },
		func() { ctx.Raw(1) },
		func() { k.ctx().Pop() },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected a panic")
				}
			}()
			f()
		}()
	}
}
