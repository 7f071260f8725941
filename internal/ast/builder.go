package ast

type Hints struct{ Decls, Exprs uint }

// Builder owns the arenas of one parsed file.
type Builder struct {
	Exprs *Exprs
	Decls *Arena[Decl]
	order []DeclID
}

func NewBuilder(hints Hints) *Builder {
	if hints.Decls == 0 {
		hints.Decls = 1 << 6
	}
	return &Builder{
		Exprs: NewExprs(hints.Exprs),
		Decls: NewArena[Decl](hints.Decls),
	}
}

// PushDecl stores d and appends it to the file order.
func (b *Builder) PushDecl(d Decl) DeclID {
	id := DeclID(b.Decls.Allocate(d))
	b.order = append(b.order, id)
	return id
}

func (b *Builder) Decl(id DeclID) *Decl { return b.Decls.Get(uint32(id)) }

// Order returns declarations in source order.
func (b *Builder) Order() []DeclID { return b.order }
