package env

import (
	"dtt/internal/symbols"
	"dtt/internal/term"
)

// Transparency controls whether delta reduction may unfold a declaration.
type Transparency uint8

const (
	Opaque Transparency = iota
	Transparent
)

func (t Transparency) String() string {
	if t == Transparent {
		return "transparent"
	}
	return "opaque"
}

// Kind is the surface origin of a declaration.
type Kind uint8

const (
	KindDef Kind = iota
	KindTheorem
	KindAxiom
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindDef:
		return "def"
	case KindTheorem:
		return "theorem"
	case KindAxiom:
		return "axiom"
	case KindOpaque:
		return "opaque"
	default:
		return "invalid"
	}
}

// Declaration is an immutable global entry. Value is term.NoID for axioms.
type Declaration struct {
	Name           symbols.ID
	Kind           Kind
	Type           term.ID
	Value          term.ID
	Transparency   Transparency
	UniverseParams []symbols.ID
	// Height orders unfolding in definitional equality: a definition is one
	// higher than the highest definition its value mentions.
	Height uint32
	// Seq is the insertion position, assigned by Declare.
	Seq uint32
}

// HasValue reports whether the declaration carries a body.
func (d *Declaration) HasValue() bool { return d.Value != term.NoID }

// Unfoldable reports whether delta reduction may replace a reference by Value.
func (d *Declaration) Unfoldable() bool {
	return d.Transparency == Transparent && d.HasValue()
}
