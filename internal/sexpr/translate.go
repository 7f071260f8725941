package sexpr

import (
	"strconv"
	"strings"

	"dtt/internal/ast"
	"dtt/internal/source"
)

// ReadFile parses and translates one file.
func ReadFile(file source.FileID, src []byte) (*ast.Builder, error) {
	forms, err := Parse(file, src)
	if err != nil {
		return nil, err
	}
	return Translate(forms)
}

// Translate maps top-level forms onto declarations.
func Translate(forms []SExp) (*ast.Builder, error) {
	t := &translator{b: ast.NewBuilder(ast.Hints{})}
	for _, f := range forms {
		d, err := t.decl(f)
		if err != nil {
			return nil, err
		}
		t.b.PushDecl(d)
	}
	return t.b, nil
}

type translator struct {
	b *ast.Builder
}

var declKinds = map[string]ast.DeclKind{
	"def":     ast.DeclDef,
	"theorem": ast.DeclTheorem,
	"axiom":   ast.DeclAxiom,
	"opaque":  ast.DeclOpaque,
}

var keywords = map[string]bool{
	"def": true, "theorem": true, "axiom": true, "opaque": true,
	"fun": true, "Pi": true, "->": true, "let": true, ":": true,
	"Sort": true, "const": true,
}

func (t *translator) decl(f SExp) (ast.Decl, error) {
	l, ok := f.(*List)
	head, hasHead := "", false
	if ok {
		head, hasHead = l.Head()
	}
	kind, known := declKinds[head]
	if !hasHead || !known {
		return ast.Decl{}, errorf(f.Span(), "expected a declaration (def, theorem, axiom or opaque)")
	}
	if l.Len() != 3 && l.Len() != 4 {
		return ast.Decl{}, errorf(l.Span(), "%s takes a name and one or two expressions", head)
	}
	d := ast.Decl{Kind: kind, Span: l.Span()}
	if err := t.declName(&d, l.Elements[1]); err != nil {
		return ast.Decl{}, err
	}
	rest := l.Elements[2:]
	var err error
	switch {
	case len(rest) == 2:
		if d.Type, err = t.expr(rest[0]); err != nil {
			return ast.Decl{}, err
		}
		d.Value, err = t.expr(rest[1])
	case kind == ast.DeclAxiom:
		d.Type, err = t.expr(rest[0])
	default:
		d.Value, err = t.expr(rest[0])
	}
	return d, err
}

// declName reads `name` or `(name u v ...)`.
func (t *translator) declName(d *ast.Decl, e SExp) error {
	switch x := e.(type) {
	case *Symbol:
		if err := checkName(x); err != nil {
			return err
		}
		d.Name, d.NameSpan = x.Value, x.Span()
		return nil
	case *List:
		if x.Bracket != Paren || x.Len() == 0 {
			return errorf(x.Span(), "expected a declaration name")
		}
		name, ok := x.Elements[0].(*Symbol)
		if !ok {
			return errorf(x.Elements[0].Span(), "expected a declaration name")
		}
		if err := checkName(name); err != nil {
			return err
		}
		d.Name, d.NameSpan = name.Value, name.Span()
		for _, u := range x.Elements[1:] {
			s, ok := u.(*Symbol)
			if !ok || isNumeral(s.Value) || s.Value == "_" {
				return errorf(u.Span(), "expected a universe parameter name")
			}
			d.UnivParams = append(d.UnivParams, s.Value)
		}
		return nil
	}
	return errorf(e.Span(), "expected a declaration name")
}

func checkName(s *Symbol) error {
	if keywords[s.Value] || s.Value == "Prop" || s.Value == "Type" || s.Value == "_" || isNumeral(s.Value) || strings.HasPrefix(s.Value, "@") {
		return errorf(s.Span(), "%q cannot be used as a name", s.Value)
	}
	return nil
}

func isNumeral(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (t *translator) expr(e SExp) (ast.ExprID, error) {
	exprs := t.b.Exprs
	switch x := e.(type) {
	case *Symbol:
		return t.symbol(x)
	case *List:
		if x.Bracket == Brace {
			return ast.NoExprID, errorf(x.Span(), "implicit binder outside a binder list")
		}
		if x.Len() == 0 {
			return ast.NoExprID, errorf(x.Span(), "empty expression")
		}
		head, _ := x.Head()
		switch head {
		case "fun", "Pi":
			return t.binder(x, head)
		case "->":
			return t.arrow(x)
		case "let":
			return t.let(x)
		case ":":
			if x.Len() != 3 {
				return ast.NoExprID, errorf(x.Span(), "expected (: expr type)")
			}
			v, err := t.expr(x.Elements[1])
			if err != nil {
				return ast.NoExprID, err
			}
			ty, err := t.expr(x.Elements[2])
			if err != nil {
				return ast.NoExprID, err
			}
			return exprs.NewAnn(x.Span(), v, ty), nil
		case "Type", "Sort":
			if x.Len() != 2 {
				return ast.NoExprID, errorf(x.Span(), "expected (%s level)", head)
			}
			l, err := t.level(x.Elements[1])
			if err != nil {
				return ast.NoExprID, err
			}
			if head == "Type" {
				l = ast.Level{Kind: ast.LevelSucc, Args: []ast.Level{l}, Span: l.Span}
			}
			return exprs.NewSort(x.Span(), l), nil
		case "const":
			return t.constant(x)
		}
		fn, err := t.expr(x.Elements[0])
		if err != nil {
			return ast.NoExprID, err
		}
		if x.Len() == 1 {
			return fn, nil
		}
		args := make([]ast.ExprID, 0, x.Len()-1)
		for _, a := range x.Elements[1:] {
			id, err := t.expr(a)
			if err != nil {
				return ast.NoExprID, err
			}
			args = append(args, id)
		}
		return exprs.NewApp(x.Span(), fn, args), nil
	}
	return ast.NoExprID, errorf(e.Span(), "unexpected form")
}

func (t *translator) symbol(s *Symbol) (ast.ExprID, error) {
	exprs := t.b.Exprs
	sp := s.Span()
	switch v := s.Value; {
	case v == "_":
		return exprs.NewHole(sp), nil
	case v == "Prop":
		return exprs.NewSort(sp, ast.Level{Kind: ast.LevelNum, N: 0, Span: sp}), nil
	case v == "Type":
		return exprs.NewSort(sp, ast.Level{Kind: ast.LevelNum, N: 1, Span: sp}), nil
	case isNumeral(v):
		return exprs.NewNatLit(sp, v), nil
	case keywords[v]:
		return ast.NoExprID, errorf(sp, "unexpected keyword %q", v)
	case strings.HasPrefix(v, "@"):
		name := v[1:]
		if name == "" || isNumeral(name) || keywords[name] {
			return ast.NoExprID, errorf(sp, "expected a name after @")
		}
		return exprs.NewIdent(sp, name, true, nil), nil
	default:
		return exprs.NewIdent(sp, v, false, nil), nil
	}
}

// constant reads (const name l...), an identifier with explicit universes.
func (t *translator) constant(x *List) (ast.ExprID, error) {
	if x.Len() < 2 {
		return ast.NoExprID, errorf(x.Span(), "expected (const name level...)")
	}
	s, ok := x.Elements[1].(*Symbol)
	if !ok {
		return ast.NoExprID, errorf(x.Elements[1].Span(), "expected a constant name")
	}
	name, explicit := strings.CutPrefix(s.Value, "@")
	if checkName(&Symbol{Value: name, span: s.Span()}) != nil {
		return ast.NoExprID, errorf(s.Span(), "expected a constant name")
	}
	levels := make([]ast.Level, 0, x.Len()-2)
	for _, e := range x.Elements[2:] {
		l, err := t.level(e)
		if err != nil {
			return ast.NoExprID, err
		}
		levels = append(levels, l)
	}
	return t.b.Exprs.NewIdent(x.Span(), name, explicit, levels), nil
}

// binder reads (fun telescope body) and (Pi telescope body). A telescope is a
// list of x, (x y T), {x} or {x y T}; a lone symbol or brace list stands for a
// one-binder telescope.
func (t *translator) binder(x *List, head string) (ast.ExprID, error) {
	if x.Len() != 3 {
		return ast.NoExprID, errorf(x.Span(), "expected (%s (binders...) body)", head)
	}
	var items []SExp
	switch tel := x.Elements[1].(type) {
	case *Symbol:
		items = []SExp{tel}
	case *List:
		if tel.Bracket == Brace {
			items = []SExp{tel}
		} else {
			items = tel.Elements
		}
	}
	if len(items) == 0 {
		return ast.NoExprID, errorf(x.Elements[1].Span(), "empty binder list")
	}
	var params []ast.Param
	for _, it := range items {
		ps, err := t.params(it)
		if err != nil {
			return ast.NoExprID, err
		}
		params = append(params, ps...)
	}
	body, err := t.expr(x.Elements[2])
	if err != nil {
		return ast.NoExprID, err
	}
	if head == "fun" {
		return t.b.Exprs.NewLam(x.Span(), params, body), nil
	}
	return t.b.Exprs.NewPi(x.Span(), params, body), nil
}

func (t *translator) params(it SExp) ([]ast.Param, error) {
	switch x := it.(type) {
	case *Symbol:
		if err := checkBinderName(x); err != nil {
			return nil, err
		}
		return []ast.Param{{Name: x.Value, Span: x.Span()}}, nil
	case *List:
		implicit := x.Bracket == Brace
		names := x.Elements
		typ := ast.NoExprID
		if x.Len() >= 2 {
			var err error
			if typ, err = t.expr(names[len(names)-1]); err != nil {
				return nil, err
			}
			names = names[:len(names)-1]
		}
		if len(names) == 0 || (!implicit && typ == ast.NoExprID) {
			return nil, errorf(x.Span(), "expected (name... type) or {name... [type]}")
		}
		out := make([]ast.Param, 0, len(names))
		for _, n := range names {
			s, ok := n.(*Symbol)
			if !ok {
				return nil, errorf(n.Span(), "expected a binder name")
			}
			if err := checkBinderName(s); err != nil {
				return nil, err
			}
			out = append(out, ast.Param{Name: s.Value, Type: typ, Implicit: implicit, Span: x.Span()})
		}
		return out, nil
	}
	return nil, errorf(it.Span(), "expected a binder")
}

func checkBinderName(s *Symbol) error {
	if s.Value == "_" {
		return nil
	}
	return checkName(s)
}

// arrow reads (-> A B ... Z), associating to the right.
func (t *translator) arrow(x *List) (ast.ExprID, error) {
	if x.Len() < 3 {
		return ast.NoExprID, errorf(x.Span(), "expected (-> domain... codomain)")
	}
	ids := make([]ast.ExprID, 0, x.Len()-1)
	for _, e := range x.Elements[1:] {
		id, err := t.expr(e)
		if err != nil {
			return ast.NoExprID, err
		}
		ids = append(ids, id)
	}
	out := ids[len(ids)-1]
	for i := len(ids) - 2; i >= 0; i-- {
		sp := t.b.Exprs.Get(ids[i]).Span.Cover(x.Span())
		out = t.b.Exprs.NewArrow(sp, ids[i], out)
	}
	return out, nil
}

// let reads (let x v body) and (let (x T) v body).
func (t *translator) let(x *List) (ast.ExprID, error) {
	if x.Len() != 4 {
		return ast.NoExprID, errorf(x.Span(), "expected (let name value body)")
	}
	var name *Symbol
	typ := ast.NoExprID
	switch b := x.Elements[1].(type) {
	case *Symbol:
		name = b
	case *List:
		if b.Bracket != Paren || b.Len() != 2 {
			return ast.NoExprID, errorf(b.Span(), "expected (name type)")
		}
		s, ok := b.Elements[0].(*Symbol)
		if !ok {
			return ast.NoExprID, errorf(b.Elements[0].Span(), "expected a binder name")
		}
		name = s
		var err error
		if typ, err = t.expr(b.Elements[1]); err != nil {
			return ast.NoExprID, err
		}
	default:
		return ast.NoExprID, errorf(b.Span(), "expected a binder name")
	}
	if err := checkBinderName(name); err != nil {
		return ast.NoExprID, err
	}
	v, err := t.expr(x.Elements[2])
	if err != nil {
		return ast.NoExprID, err
	}
	body, err := t.expr(x.Elements[3])
	if err != nil {
		return ast.NoExprID, err
	}
	return t.b.Exprs.NewLet(x.Span(), name.Value, typ, v, body), nil
}

func (t *translator) level(e SExp) (ast.Level, error) {
	switch x := e.(type) {
	case *Symbol:
		sp := x.Span()
		switch {
		case x.Value == "_":
			return ast.Level{Kind: ast.LevelHole, Span: sp}, nil
		case isNumeral(x.Value):
			n, err := strconv.ParseUint(x.Value, 10, 32)
			if err != nil {
				return ast.Level{}, errorf(sp, "universe level %s is too large", x.Value)
			}
			return ast.Level{Kind: ast.LevelNum, N: uint32(n), Span: sp}, nil
		case keywords[x.Value]:
			return ast.Level{}, errorf(sp, "unexpected keyword %q in level", x.Value)
		default:
			return ast.Level{Kind: ast.LevelParam, Name: x.Value, Span: sp}, nil
		}
	case *List:
		head, _ := x.Head()
		var kind ast.LevelKind
		switch {
		case head == "succ" && x.Len() == 2:
			kind = ast.LevelSucc
		case head == "max" && x.Len() >= 3:
			kind = ast.LevelMax
		case head == "imax" && x.Len() == 3:
			kind = ast.LevelIMax
		default:
			return ast.Level{}, errorf(x.Span(), "expected a level: n, u, _, (succ l), (max l...), (imax l l)")
		}
		args := make([]ast.Level, 0, x.Len()-1)
		for _, a := range x.Elements[1:] {
			l, err := t.level(a)
			if err != nil {
				return ast.Level{}, err
			}
			args = append(args, l)
		}
		return ast.Level{Kind: kind, Args: args, Span: x.Span()}, nil
	}
	return ast.Level{}, errorf(e.Span(), "expected a level")
}
