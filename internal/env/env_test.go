package env

import (
	"errors"
	"sync"
	"testing"

	"dtt/internal/symbols"
	"dtt/internal/term"
)

func TestDeclareReturnsNewSnapshot(t *testing.T) {
	syms := symbols.NewTable()
	foo, bar := syms.Intern("foo"), syms.Intern("bar")
	base := New()
	e1, err := base.Declare(foo, Declaration{Type: 1, Kind: KindAxiom})
	if err != nil {
		t.Fatalf("Declare foo: %v", err)
	}
	if base.Len() != 0 || base.Contains(foo) {
		t.Fatalf("the base snapshot changed")
	}
	e2, err := e1.Declare(bar, Declaration{Type: 1, Value: 2, Transparency: Transparent})
	if err != nil {
		t.Fatalf("Declare bar: %v", err)
	}
	if e1.Contains(bar) {
		t.Fatalf("e1 sees a later declaration")
	}
	d, ok := e2.Lookup(bar)
	if !ok || d.Seq != 1 || d.Name != bar || !d.Unfoldable() {
		t.Fatalf("Lookup(bar) = %+v, %v", d, ok)
	}
	names := e2.Names()
	if len(names) != 2 || names[0] != foo || names[1] != bar {
		t.Fatalf("Names = %v", names)
	}
	if !e2.Descends(e1) || !e2.Descends(base) || e1.Descends(e2) {
		t.Fatalf("Descends is wrong")
	}
}

func TestDuplicateDeclaration(t *testing.T) {
	syms := symbols.NewTable()
	foo := syms.Intern("foo")
	e, err := New().Declare(foo, Declaration{Type: 1})
	if err != nil {
		t.Fatalf("Declare: %v", err)
	}
	again, err := e.Declare(foo, Declaration{Type: 2})
	if !errors.Is(err, ErrDuplicateDeclaration) || again != nil {
		t.Fatalf("want ErrDuplicateDeclaration, got %v", err)
	}
	var dup *DuplicateError
	if !errors.As(err, &dup) || dup.Name != foo {
		t.Fatalf("want *DuplicateError naming foo, got %#v", err)
	}
	if d, _ := e.Lookup(foo); d.Type != 1 {
		t.Fatalf("failed Declare changed the existing entry")
	}
}

func TestDivergingSnapshots(t *testing.T) {
	syms := symbols.NewTable()
	base := New()
	for i := range 100 {
		var err error
		base, err = base.Declare(syms.Intern(string(rune('a'+i%26))+string(rune('0'+i/26))), Declaration{Type: term.ID(i + 1)})
		if err != nil {
			t.Fatalf("Declare %d: %v", i, err)
		}
	}
	x := syms.Intern("x")
	left, _ := base.Declare(x, Declaration{Type: 1})
	right, _ := base.Declare(x, Declaration{Type: 2})
	dl, _ := left.Lookup(x)
	dr, _ := right.Lookup(x)
	if dl.Type != 1 || dr.Type != 2 || base.Contains(x) {
		t.Fatalf("branches interfere: %d %d", dl.Type, dr.Type)
	}
	if left.Descends(right) {
		t.Fatalf("sibling branches must not descend from each other")
	}
	if !left.Descends(base) || base.Descends(left) || !left.Descends(New()) {
		t.Fatalf("Descends does not follow the Declare chain")
	}
	// same names in the same order on another chain are still unrelated
	again := New()
	for _, name := range base.Names() {
		d, _ := base.Lookup(name)
		again, _ = again.Declare(name, *d)
	}
	if again.Descends(base) || base.Descends(again) {
		t.Fatalf("a rebuilt environment must not descend from the original")
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := 0
			left.Each(func(*Declaration) bool { n++; return true })
			if n != 101 {
				t.Errorf("concurrent reader saw %d declarations", n)
			}
		}()
	}
	wg.Wait()
}
