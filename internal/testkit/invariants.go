// Package testkit holds structural checks shared by reader, driver and fuzz
// tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"dtt/internal/ast"
	"dtt/internal/source"
)

// CheckSpanInvariants verifies the spans of a file read into b:
//  1. every declaration span is non-empty, points at sf, and lies within its
//     content; declarations appear in source order without overlapping
//  2. a declaration's name, type and value lie within the declaration
//  3. every expression span points at sf and lies within some declaration
func CheckSpanInvariants(b *ast.Builder, sf *source.File) error {
	if b == nil || sf == nil {
		return fmt.Errorf("nil builder or file")
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	inFile := func(sp source.Span) error {
		if sp.File != sf.ID {
			return fmt.Errorf("span %v points to file %d, want %d", sp, sp.File, sf.ID)
		}
		if sp.Start > sp.End || sp.End > size {
			return fmt.Errorf("span %v outside content of %d bytes", sp, size)
		}
		return nil
	}
	within := func(inner, outer source.Span) bool {
		return inner.Start >= outer.Start && inner.End <= outer.End
	}

	decls := make([]source.Span, 0, len(b.Order()))
	prevEnd := uint32(0)
	for _, id := range b.Order() {
		d := b.Decl(id)
		if d == nil {
			return fmt.Errorf("nil declaration for id=%d", id)
		}
		sp := d.Span
		if sp.Empty() {
			return fmt.Errorf("declaration %s has an empty span", d.Name)
		}
		if err := inFile(sp); err != nil {
			return fmt.Errorf("declaration %s: %w", d.Name, err)
		}
		if sp.Start < prevEnd {
			return fmt.Errorf("declaration %s at %v overlaps the previous one", d.Name, sp)
		}
		prevEnd = sp.End
		if !within(d.NameSpan, sp) {
			return fmt.Errorf("declaration %s: name span %v outside %v", d.Name, d.NameSpan, sp)
		}
		for _, x := range []ast.ExprID{d.Type, d.Value} {
			if ex := b.Exprs.Get(x); ex != nil && !within(ex.Span, sp) {
				return fmt.Errorf("declaration %s: expression span %v outside %v", d.Name, ex.Span, sp)
			}
		}
		decls = append(decls, sp)
	}

	n, err := safecast.Conv[uint32](b.Exprs.Arena.Len())
	if err != nil {
		return fmt.Errorf("expression count overflow: %w", err)
	}
	for i := uint32(1); i <= n; i++ {
		ex := b.Exprs.Arena.Get(i)
		if err := inFile(ex.Span); err != nil {
			return fmt.Errorf("expression %d: %w", i, err)
		}
		covered := false
		for _, sp := range decls {
			if within(ex.Span, sp) {
				covered = true
				break
			}
		}
		if !covered {
			return fmt.Errorf("expression %d at %v belongs to no declaration", i, ex.Span)
		}
	}
	return nil
}
