package term

import (
	"fmt"
	"slices"
	"strings"

	"dtt/internal/level"
	"dtt/internal/symbols"
)

// Printer renders terms for diagnostics. It is not a parser inverse.
type Printer struct {
	Terms   *Arena
	Symbols *symbols.Table
}

// NewPrinter creates a printer over terms with names from syms.
func NewPrinter(terms *Arena, syms *symbols.Table) *Printer {
	return &Printer{Terms: terms, Symbols: syms}
}

const (
	precLow = iota // binders, arrows
	precApp        // application spine
	precAtom       // needs no parentheses
)

// Format renders t under a context whose binder names are ctx, outermost first.
func (p *Printer) Format(t ID, ctx []symbols.ID) string {
	names := make([]string, len(ctx))
	for i, s := range ctx {
		names[i] = p.name(s, i)
	}
	var sb strings.Builder
	p.write(&sb, t, names, precLow)
	return sb.String()
}

func (p *Printer) name(s symbols.ID, depth int) string {
	if s.IsValid() && p.Symbols != nil {
		if str, ok := p.Symbols.Lookup(s); ok && str != "" {
			return str
		}
	}
	return fmt.Sprintf("x%d", depth)
}

func (p *Printer) fresh(s symbols.ID, names []string) string {
	base := p.name(s, len(names))
	n := base
	for i := 1; slices.Contains(names, n); i++ {
		n = fmt.Sprintf("%s_%d", base, i)
	}
	return n
}

func (p *Printer) write(sb *strings.Builder, t ID, names []string, prec int) {
	a := p.Terms
	n := a.Node(t)
	switch n.Kind {
	case KindVar:
		if int(n.Index) < len(names) {
			sb.WriteString(names[len(names)-1-int(n.Index)])
		} else {
			fmt.Fprintf(sb, "#%d", n.Index)
		}
	case KindSort:
		p.writeSort(sb, n.Level, prec)
	case KindConst:
		sb.WriteString(p.name(n.Sym, 0))
		if ls := a.ConstLevels(n); len(ls) > 0 {
			sb.WriteString(".{")
			for i, l := range ls {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(a.levels.Format(l, p.Symbols))
			}
			sb.WriteString("}")
		}
	case KindMVar:
		fmt.Fprintf(sb, "?m.%d", n.Index)
	case KindApp:
		head, args := a.Spine(t)
		open(sb, prec > precApp)
		p.write(sb, head, names, precApp)
		for _, x := range args {
			sb.WriteByte(' ')
			p.write(sb, x, names, precAtom)
		}
		closeParen(sb, prec > precApp)
	case KindLam:
		open(sb, prec > precLow)
		sb.WriteString("fun ")
		x := p.fresh(n.Sym, names)
		p.writeBinder(sb, x, n.A, n.Implicit, names)
		sb.WriteString(" => ")
		p.write(sb, n.B, append(names, x), precLow)
		closeParen(sb, prec > precLow)
	case KindPi:
		open(sb, prec > precLow)
		x := p.fresh(n.Sym, names)
		if !n.Implicit && !a.HasLooseVarIn(n.B, 0, 1) {
			p.write(sb, n.A, names, precApp)
		} else {
			p.writeBinder(sb, x, n.A, n.Implicit, names)
		}
		sb.WriteString(" -> ")
		p.write(sb, n.B, append(names, x), precLow)
		closeParen(sb, prec > precLow)
	case KindLet:
		open(sb, prec > precLow)
		x := p.fresh(n.Sym, names)
		fmt.Fprintf(sb, "let %s : ", x)
		p.write(sb, n.A, names, precLow)
		sb.WriteString(" := ")
		p.write(sb, n.B, names, precLow)
		sb.WriteString("; ")
		p.write(sb, n.C, append(names, x), precLow)
		closeParen(sb, prec > precLow)
	default:
		sb.WriteString("<invalid>")
	}
}

func (p *Printer) writeBinder(sb *strings.Builder, x string, ty ID, implicit bool, names []string) {
	l, r := "(", ")"
	if implicit {
		l, r = "{", "}"
	}
	sb.WriteString(l)
	sb.WriteString(x)
	sb.WriteString(" : ")
	p.write(sb, ty, names, precLow)
	sb.WriteString(r)
}

func (p *Printer) writeSort(sb *strings.Builder, l level.ID, prec int) {
	levels := p.Terms.levels
	if n, ok := levels.ToNat(l); ok {
		switch n {
		case 0:
			sb.WriteString("Prop")
			return
		case 1:
			sb.WriteString("Type")
			return
		}
	}
	word := "Sort"
	if lv := levels.Get(l); lv.Kind == level.KindSucc {
		word, l = "Type", lv.A
	}
	open(sb, prec > precApp)
	sb.WriteString(word)
	sb.WriteByte(' ')
	s := levels.Format(l, p.Symbols)
	if strings.ContainsAny(s, " +") {
		s = "(" + s + ")"
	}
	sb.WriteString(s)
	closeParen(sb, prec > precApp)
}

func open(sb *strings.Builder, paren bool) {
	if paren {
		sb.WriteByte('(')
	}
}

func closeParen(sb *strings.Builder, paren bool) {
	if paren {
		sb.WriteByte(')')
	}
}
