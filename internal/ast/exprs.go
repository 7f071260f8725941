package ast

import (
	"dtt/internal/source"
)

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena   *Arena[Expr]
	Idents  *Arena[ExprIdentData]
	Sorts   *Arena[ExprSortData]
	Apps    *Arena[ExprAppData]
	Binders *Arena[ExprBinderData]
	Arrows  *Arena[ExprArrowData]
	Lets    *Arena[ExprLetData]
	NatLits *Arena[ExprNatLitData]
	Anns    *Arena[ExprAnnData]
}

// NewExprs creates per-kind arenas with capHint initial capacity (1<<8 when 0).
func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Exprs{
		Arena:   NewArena[Expr](capHint),
		Idents:  NewArena[ExprIdentData](capHint),
		Sorts:   NewArena[ExprSortData](capHint / 4),
		Apps:    NewArena[ExprAppData](capHint),
		Binders: NewArena[ExprBinderData](capHint / 4),
		Arrows:  NewArena[ExprArrowData](capHint / 4),
		Lets:    NewArena[ExprLetData](capHint / 8),
		NatLits: NewArena[ExprNatLitData](capHint / 8),
		Anns:    NewArena[ExprAnnData](capHint / 8),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload PayloadID) ExprID {
	return ExprID(e.Arena.Allocate(Expr{Kind: kind, Span: span, Payload: payload}))
}

func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

func (e *Exprs) NewIdent(span source.Span, name string, explicit bool, levels []Level) ExprID {
	p := PayloadID(e.Idents.Allocate(ExprIdentData{Name: name, Levels: levels, Explicit: explicit}))
	return e.new(ExprIdent, span, p)
}

func (e *Exprs) NewSort(span source.Span, l Level) ExprID {
	return e.new(ExprSort, span, PayloadID(e.Sorts.Allocate(ExprSortData{Level: l})))
}

func (e *Exprs) NewApp(span source.Span, fn ExprID, args []ExprID) ExprID {
	return e.new(ExprApp, span, PayloadID(e.Apps.Allocate(ExprAppData{Fn: fn, Args: args})))
}

func (e *Exprs) NewLam(span source.Span, params []Param, body ExprID) ExprID {
	return e.new(ExprLam, span, PayloadID(e.Binders.Allocate(ExprBinderData{Params: params, Body: body})))
}

func (e *Exprs) NewPi(span source.Span, params []Param, body ExprID) ExprID {
	return e.new(ExprPi, span, PayloadID(e.Binders.Allocate(ExprBinderData{Params: params, Body: body})))
}

func (e *Exprs) NewArrow(span source.Span, from, to ExprID) ExprID {
	return e.new(ExprArrow, span, PayloadID(e.Arrows.Allocate(ExprArrowData{From: from, To: to})))
}

func (e *Exprs) NewLet(span source.Span, name string, typ, value, body ExprID) ExprID {
	p := PayloadID(e.Lets.Allocate(ExprLetData{Name: name, Type: typ, Value: value, Body: body}))
	return e.new(ExprLet, span, p)
}

func (e *Exprs) NewHole(span source.Span) ExprID {
	return e.new(ExprHole, span, NoPayloadID)
}

func (e *Exprs) NewNatLit(span source.Span, text string) ExprID {
	return e.new(ExprNatLit, span, PayloadID(e.NatLits.Allocate(ExprNatLitData{Text: text})))
}

func (e *Exprs) NewAnn(span source.Span, value, typ ExprID) ExprID {
	return e.new(ExprAnn, span, PayloadID(e.Anns.Allocate(ExprAnnData{Value: value, Type: typ})))
}

func (e *Exprs) Ident(id ExprID) (*ExprIdentData, bool) {
	return payload(e, id, ExprIdent, e.Idents)
}

func (e *Exprs) Sort(id ExprID) (*ExprSortData, bool) {
	return payload(e, id, ExprSort, e.Sorts)
}

func (e *Exprs) App(id ExprID) (*ExprAppData, bool) {
	return payload(e, id, ExprApp, e.Apps)
}

// Binder returns the telescope of a fun or Pi expression.
func (e *Exprs) Binder(id ExprID) (*ExprBinderData, bool) {
	x := e.Get(id)
	if x == nil || (x.Kind != ExprLam && x.Kind != ExprPi) {
		return nil, false
	}
	return e.Binders.Get(uint32(x.Payload)), true
}

func (e *Exprs) Arrow(id ExprID) (*ExprArrowData, bool) {
	return payload(e, id, ExprArrow, e.Arrows)
}

func (e *Exprs) Let(id ExprID) (*ExprLetData, bool) {
	return payload(e, id, ExprLet, e.Lets)
}

func (e *Exprs) NatLit(id ExprID) (*ExprNatLitData, bool) {
	return payload(e, id, ExprNatLit, e.NatLits)
}

func (e *Exprs) Ann(id ExprID) (*ExprAnnData, bool) {
	return payload(e, id, ExprAnn, e.Anns)
}

func payload[T any](e *Exprs, id ExprID, kind ExprKind, arena *Arena[T]) (*T, bool) {
	x := e.Get(id)
	if x == nil || x.Kind != kind {
		return nil, false
	}
	return arena.Get(uint32(x.Payload)), true
}
