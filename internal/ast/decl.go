package ast

import (
	"dtt/internal/source"
)

// DeclKind is the surface declaration keyword.
type DeclKind uint8

const (
	DeclDef DeclKind = iota
	DeclTheorem
	DeclAxiom
	DeclOpaque
)

func (k DeclKind) String() string {
	switch k {
	case DeclDef:
		return "def"
	case DeclTheorem:
		return "theorem"
	case DeclAxiom:
		return "axiom"
	case DeclOpaque:
		return "opaque"
	default:
		return "decl?"
	}
}

// Decl is a top-level declaration. Type or Value may be NoExprID when the
// source omitted them; the elaborator decides whether that is allowed.
type Decl struct {
	Kind       DeclKind
	Name       string
	NameSpan   source.Span
	UnivParams []string
	Type       ExprID
	Value      ExprID
	Span       source.Span
}
