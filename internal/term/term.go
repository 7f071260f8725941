package term

import (
	"fmt"

	"dtt/internal/level"
	"dtt/internal/symbols"
)

// ID is a handle into an Arena. Two IDs from the same arena are equal exactly
// when the terms they denote are alpha-equivalent.
type ID uint32

// NoID marks the absence of a term.
const NoID ID = 0

// MetaID identifies a metavariable in a meta.Store.
type MetaID uint32

// NoMeta marks the absence of a metavariable.
const NoMeta MetaID = 0

// Kind enumerates term constructors.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindSort
	KindConst
	KindVar
	KindApp
	KindLam
	KindPi
	KindLet
	KindMVar
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindSort:
		return "sort"
	case KindConst:
		return "const"
	case KindVar:
		return "var"
	case KindApp:
		return "app"
	case KindLam:
		return "lam"
	case KindPi:
		return "pi"
	case KindLet:
		return "let"
	case KindMVar:
		return "mvar"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Binder is the bound-variable part of Lam, Pi and Let. Name is display
// metadata only and never takes part in term identity.
type Binder struct {
	Name     symbols.ID
	Type     ID
	Implicit bool
}

// Node is the stored form of one term.
//
//	App: A = function, B = argument
//	Lam, Pi: A = binder type, B = body
//	Let: A = binder type, B = value, C = body
type Node struct {
	Kind     Kind
	A, B, C  ID
	Level    level.ID    // Sort
	Levels   level.SeqID // Const universe arguments
	Sym      symbols.ID  // Const name or binder name
	Index    uint32      // Var de Bruijn index, MVar id
	Implicit bool
}

// Binder returns the binder of a Lam, Pi or Let node.
func (n Node) Binder() Binder {
	return Binder{Name: n.Sym, Type: n.A, Implicit: n.Implicit}
}

// Meta returns the metavariable of an MVar node.
func (n Node) Meta() MetaID { return MetaID(n.Index) }

// key drops metadata that must not influence identity.
func (n Node) key() Node {
	switch n.Kind {
	case KindLam, KindPi, KindLet:
		n.Sym = symbols.NoID
	}
	return n
}
