package ast

import (
	"dtt/internal/source"
)

// ExprKind enumerates surface expressions.
type ExprKind uint8

const (
	ExprIdent ExprKind = iota
	// ExprSort is Prop, Type, (Type l) or (Sort l).
	ExprSort
	ExprApp
	ExprLam
	ExprPi
	ExprArrow
	ExprLet
	ExprHole
	ExprNatLit
	// ExprAnn is a type ascription (: e T).
	ExprAnn
)

func (k ExprKind) String() string {
	switch k {
	case ExprIdent:
		return "ident"
	case ExprSort:
		return "sort"
	case ExprApp:
		return "app"
	case ExprLam:
		return "fun"
	case ExprPi:
		return "Pi"
	case ExprArrow:
		return "arrow"
	case ExprLet:
		return "let"
	case ExprHole:
		return "hole"
	case ExprNatLit:
		return "nat literal"
	case ExprAnn:
		return "ascription"
	default:
		return "expr?"
	}
}

type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

type ExprIdentData struct {
	Name string
	// Levels are explicit universe arguments from (const name l...).
	Levels []Level
	// Explicit is set by @name and disables implicit argument insertion.
	Explicit bool
}

type ExprSortData struct {
	Level Level
}

type ExprAppData struct {
	Fn   ExprID
	Args []ExprID
}

// Param is one binder of a fun or Pi telescope. Type is NoExprID when the
// binder type is left to inference.
type Param struct {
	Name     string
	Type     ExprID
	Implicit bool
	Span     source.Span
}

type ExprBinderData struct {
	Params []Param
	Body   ExprID
}

type ExprArrowData struct {
	From, To ExprID
}

type ExprLetData struct {
	Name  string
	Type  ExprID // optional
	Value ExprID
	Body  ExprID
}

type ExprNatLitData struct {
	// Text is the digits as written; range checks happen during elaboration.
	Text string
}

type ExprAnnData struct {
	Value, Type ExprID
}
