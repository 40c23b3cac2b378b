package expr

import (
	"fmt"
	"strconv"
)

// Precedence climbing. Ternary binds loosest and is right-associative.
var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3,
	"<": 4, "<=": 4, ">": 4, ">=": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
}

const ternaryPrec = 0

type parser struct {
	lex  *lexer
	src  string
	tok  token
	fail error
}

func (p *parser) next() {
	if p.fail != nil {
		return
	}
	t, err := p.lex.next()
	if err != nil {
		p.fail = &SyntaxError{Expression: p.src, Pos: p.lex.pos, Msg: err.Error()}
		p.tok = token{kind: tokEOF, pos: p.lex.pos}
		return
	}
	p.tok = t
}

func (p *parser) errorf(format string, args ...any) error {
	if p.fail != nil {
		return p.fail
	}
	return &SyntaxError{Expression: p.src, Pos: p.tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseExpr(minPrec int) (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		if p.fail != nil {
			return nil, p.fail
		}
		if p.tok.kind != tokOp {
			break
		}

		if p.tok.text == "?" && minPrec <= ternaryPrec {
			p.next()
			then, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if p.tok.kind != tokOp || p.tok.text != ":" {
				return nil, p.errorf("expected ':' in ternary expression")
			}
			p.next()
			els, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			left = &condNode{cond: left, then: then, els: els}
			continue
		}

		prec, ok := binaryPrec[p.tok.text]
		if !ok || prec < minPrec {
			break
		}
		op := p.tok.text
		p.next()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, x: left, y: right}
	}

	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.fail != nil {
		return nil, p.fail
	}
	if p.tok.kind == tokOp && (p.tok.text == "!" || p.tok.text == "-") {
		op := p.tok.text
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: op, x: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	if p.fail != nil {
		return nil, p.fail
	}
	switch p.tok.kind {
	case tokNumber:
		f, err := strconv.ParseFloat(p.tok.text, 64)
		if err != nil {
			return nil, p.errorf("invalid number %q", p.tok.text)
		}
		p.next()
		return &litNode{val: f}, nil

	case tokString:
		s := p.tok.text
		p.next()
		return &litNode{val: s}, nil

	case tokTrue:
		p.next()
		return &litNode{val: true}, nil

	case tokFalse:
		p.next()
		return &litNode{val: false}, nil

	case tokNull:
		p.next()
		return &litNode{val: nil}, nil

	case tokIdent:
		name := p.tok.text
		p.next()
		return &identNode{name: name}, nil

	case tokOp:
		if p.tok.text == "(" {
			p.next()
			inner, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if p.tok.kind != tokOp || p.tok.text != ")" {
				return nil, p.errorf("expected ')'")
			}
			p.next()
			return inner, nil
		}
	}
	return nil, p.errorf("unexpected %q", p.tok.text)
}
