package sexpr

import (
	"fmt"
	"unicode/utf8"

	"fortio.org/safecast"

	"dtt/internal/source"
)

type parser struct {
	file source.FileID
	src  []byte
	pos  int
}

// Parse reads every top-level expression of src.
func Parse(file source.FileID, src []byte) ([]SExp, error) {
	p := &parser{file: file, src: src}
	var out []SExp
	for {
		p.skip()
		if p.pos >= len(p.src) {
			return out, nil
		}
		e, err := p.read()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

func (p *parser) offset(i int) uint32 {
	n, err := safecast.Conv[uint32](i)
	if err != nil {
		panic(fmt.Errorf("source offset overflow: %w", err))
	}
	return n
}

func (p *parser) span(start, end int) source.Span {
	return source.Span{File: p.file, Start: p.offset(start), End: p.offset(end)}
}

// skip consumes whitespace and ; comments.
func (p *parser) skip() {
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == ';':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		default:
			return
		}
	}
}

func closer(b Bracket) byte {
	if b == Brace {
		return '}'
	}
	return ')'
}

// read parses one expression. Nesting is handled with an explicit stack.
func (p *parser) read() (SExp, error) {
	type open struct {
		list  *List
		start int
	}
	var stack []open
	for {
		p.skip()
		if p.pos >= len(p.src) {
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				return nil, errorf(p.span(top.start, top.start+1), "unclosed %q", string(p.src[top.start]))
			}
			return nil, errorf(p.span(p.pos, p.pos), "unexpected end of input")
		}
		var done SExp
		switch c := p.src[p.pos]; c {
		case '(', '{':
			b := Paren
			if c == '{' {
				b = Brace
			}
			stack = append(stack, open{list: &List{Bracket: b}, start: p.pos})
			p.pos++
			continue
		case ')', '}':
			if len(stack) == 0 {
				return nil, errorf(p.span(p.pos, p.pos+1), "unexpected %q", string(c))
			}
			top := stack[len(stack)-1]
			if want := closer(top.list.Bracket); c != want {
				return nil, errorf(p.span(p.pos, p.pos+1), "expected %q, found %q", string(want), string(c))
			}
			p.pos++
			stack = stack[:len(stack)-1]
			top.list.span = p.span(top.start, p.pos)
			done = top.list
		default:
			sym, err := p.symbol()
			if err != nil {
				return nil, err
			}
			done = sym
		}
		if len(stack) == 0 {
			return done, nil
		}
		parent := stack[len(stack)-1].list
		parent.Elements = append(parent.Elements, done)
	}
}

func (p *parser) symbol() (*Symbol, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '(' || c == ')' || c == '{' || c == '}' || c == ';' || c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		p.pos++
	}
	text := p.src[start:p.pos]
	if !utf8.Valid(text) {
		return nil, errorf(p.span(start, p.pos), "invalid UTF-8 in symbol")
	}
	return &Symbol{Value: string(text), span: p.span(start, p.pos)}, nil
}
