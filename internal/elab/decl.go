package elab

import (
	"dtt/internal/ast"
	"dtt/internal/env"
	"dtt/internal/meta"
	"dtt/internal/symbols"
	"dtt/internal/term"
)

// Result is an elaborated declaration ready to be committed.
type Result struct {
	Name symbols.ID
	Decl env.Declaration
	// Metas is the number of metavariables the elaboration created.
	Metas int
}

var declKinds = [...]env.Kind{
	ast.DeclDef:     env.KindDef,
	ast.DeclTheorem: env.KindTheorem,
	ast.DeclAxiom:   env.KindAxiom,
	ast.DeclOpaque:  env.KindOpaque,
}

// ElabDecl elaborates d, whose expressions live in exprs. The returned
// declaration is closed and free of metavariables; it is not yet checked by
// the kernel nor added to the environment.
func (e *Elaborator) ElabDecl(exprs *ast.Exprs, d *ast.Decl) (*Result, error) {
	if err := validate(d); err != nil {
		return nil, err
	}
	univ := make([]symbols.ID, 0, len(d.UnivParams))
	seen := make(map[string]bool, len(d.UnivParams))
	for _, u := range d.UnivParams {
		if seen[u] || meta.IsReservedName(u) {
			return nil, &Error{Kind: InvalidDecl, Span: d.NameSpan, Name: u, Msg: "bad universe parameter"}
		}
		seen[u] = true
		univ = append(univ, e.syms.Intern(u))
	}
	e.Begin(exprs, univ)
	ctx := e.Context()

	ty := term.NoID
	if d.Type.IsValid() {
		t, _, err := e.ElabType(d.Type, ctx)
		if err != nil {
			return nil, err
		}
		ty = t
	}
	val := term.NoID
	if d.Value.IsValid() {
		v, vty, err := e.Elaborate(d.Value, ty, ctx)
		if err != nil {
			return nil, err
		}
		val = v
		if ty == term.NoID {
			ty = vty
		}
	}
	out, err := e.Finish(ty, val)
	if err != nil {
		return nil, err
	}
	decl := env.Declaration{
		Kind:           declKinds[d.Kind],
		Type:           out[0],
		Value:          out[1],
		Transparency:   env.Opaque,
		UniverseParams: univ,
	}
	if d.Kind == ast.DeclDef {
		decl.Transparency = env.Transparent
	}
	return &Result{Name: e.syms.Intern(d.Name), Decl: decl, Metas: e.store.Len()}, nil
}

func validate(d *ast.Decl) error {
	fail := func(msg string) error {
		return &Error{Kind: InvalidDecl, Span: d.Span, Name: d.Name, Msg: msg}
	}
	switch d.Kind {
	case ast.DeclTheorem:
		if !d.Type.IsValid() {
			return fail("a theorem must state its type")
		}
	case ast.DeclAxiom:
		if !d.Type.IsValid() {
			return fail("an axiom must state its type")
		}
		if d.Value.IsValid() {
			return fail("an axiom has no value")
		}
		return nil
	}
	if !d.Value.IsValid() {
		return fail(d.Kind.String() + " needs a value")
	}
	return nil
}
