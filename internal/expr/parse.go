package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Error is an expression syntax or evaluation failure.
type Error struct {
	Source  string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("expression %q: %s", e.Source, e.Message)
}

type exprParser struct {
	src    string
	tokens []token
	pos    int
}

// Parse parses a single expression. Surrounding `{ }` are accepted.
func Parse(src string) (Node, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	p.skipSeparators()
	n, err := p.expression()
	if err != nil {
		return nil, err
	}
	p.skipSeparators()
	if p.peek().kind != tokEOF {
		return nil, p.errorf("unexpected %q", p.peek().text)
	}
	return n, nil
}

// ParseBlock parses `;` or newline separated statements. A statement is
// either an expression or an assignment `name = expression`.
func ParseBlock(src string) ([]Node, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}

	var stmts []Node
	for {
		p.skipSeparators()
		if p.peek().kind == tokEOF {
			break
		}

		if p.peek().kind == tokIdent && p.peekAt(1).kind == tokOp && p.peekAt(1).text == "=" {
			name := strings.TrimPrefix(p.next().text, "$")
			p.next()
			value, err := p.expression()
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, &Assign{Name: name, Value: value})
		} else {
			n, err := p.expression()
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, n)
		}

		if t := p.peek(); t.kind != tokSep && t.kind != tokEOF {
			return nil, p.errorf("expected end of statement, found %q", t.text)
		}
	}
	return stmts, nil
}

func newParser(src string) (*exprParser, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, &Error{Source: src, Message: err.Error()}
	}
	return &exprParser{src: src, tokens: tokens}, nil
}

func (p *exprParser) errorf(format string, args ...any) error {
	return &Error{Source: p.src, Message: fmt.Sprintf(format, args...)}
}

func (p *exprParser) peek() token { return p.peekAt(0) }

func (p *exprParser) peekAt(n int) token {
	if p.pos+n < len(p.tokens) {
		return p.tokens[p.pos+n]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *exprParser) next() token {
	t := p.peek()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *exprParser) skipSeparators() {
	for p.peek().kind == tokSep {
		p.next()
	}
}

func (p *exprParser) expression() (Node, error) {
	return p.binary(1)
}

// binary is a precedence-climbing parser for left-associative operators.
func (p *exprParser) binary(minPrec int) (Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		prec, ok := precedence[t.text]
		if t.kind != tokOp || !ok || prec < minPrec {
			return left, nil
		}
		p.next()
		right, err := p.binary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: t.text, Left: left, Right: right}
	}
}

func (p *exprParser) unary() (Node, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "!" || t.text == "-") {
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: t.text, X: x}, nil
	}
	return p.primary()
}

func (p *exprParser) primary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokInt:
		v, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid integer %q", t.text)
		}
		return &Literal{Value: v}, nil
	case tokFloat:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, p.errorf("invalid decimal %q", t.text)
		}
		return &Literal{Value: v}, nil
	case tokString:
		return &Literal{Value: t.text}, nil
	case tokIdent:
		switch t.text {
		case "true":
			return &Literal{Value: true}, nil
		case "false":
			return &Literal{Value: false}, nil
		case "null", "NULL":
			return &Literal{Value: nil}, nil
		}
		if p.peek().kind == tokOp && p.peek().text == "(" && !strings.HasPrefix(t.text, "$") {
			return p.call(t.text)
		}
		return &Ident{Name: strings.TrimPrefix(t.text, "$")}, nil
	case tokOp:
		if t.text == "(" || t.text == "{" {
			closing := ")"
			if t.text == "{" {
				closing = "}"
			}
			n, err := p.expression()
			if err != nil {
				return nil, err
			}
			if c := p.next(); c.kind != tokOp || c.text != closing {
				return nil, p.errorf("expected %q", closing)
			}
			return n, nil
		}
	case tokEOF:
		return nil, p.errorf("unexpected end of expression")
	}
	return nil, p.errorf("unexpected %q", t.text)
}

func (p *exprParser) call(name string) (Node, error) {
	p.next() // (
	c := &Call{Name: name}
	if p.peek().kind == tokOp && p.peek().text == ")" {
		p.next()
		return c, nil
	}
	for {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		c.Args = append(c.Args, arg)
		t := p.next()
		if t.kind == tokOp && t.text == ")" {
			return c, nil
		}
		if t.kind != tokOp || t.text != "," {
			return nil, p.errorf("expected ',' or ')' in call to %s", name)
		}
	}
}
