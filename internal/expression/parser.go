package expression

import (
	"math"

	"github.com/agnivade/levenshtein"
)

// functions maps canonical function identifiers to their real-valued
// implementation.
var functions = map[string]func(float64) float64{
	identSin:   math.Sin,
	identCos:   math.Cos,
	identTan:   math.Tan,
	identLn:    math.Log,
	identLog10: math.Log10,
	identSqrt:  math.Sqrt,
}

var constants = map[string]float64{
	identPi: math.Pi,
	identE:  math.E,
}

type parser struct {
	l   lexer
	cur token
}

// Parse builds the syntax tree for a canonical, factorial-expanded
// expression. Every failure is a SyntaxError.
func Parse(canonical string) (Node, error) {
	p := &parser{l: lexer{s: canonical}}
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.cur.kind == tokEOF {
		return nil, syntaxErrorf(0, "empty expression")
	}

	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		if p.cur.kind == tokRParen {
			return nil, syntaxErrorf(p.cur.pos, "unbalanced ')'")
		}
		return nil, syntaxErrorf(p.cur.pos, "unexpected %q", p.cur.text)
	}
	return n, nil
}

func (p *parser) next() error {
	t, err := p.l.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) parseExpr() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokPlus || p.cur.kind == tokMinus {
		op := p.cur.text[0]
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokStar || p.cur.kind == tokSlash {
		op := p.cur.text[0]
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

// parseUnary sits between multiplication and exponentiation, so -2^2 is
// -(2^2).
func (p *parser) parseUnary() (Node, error) {
	if p.cur.kind == tokPlus || p.cur.kind == tokMinus {
		op := p.cur.text[0]
		if err := p.next(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if op == '+' {
			return x, nil
		}
		return negNode{x: x}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokCaret {
		return base, nil
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	// Right associative: the exponent is itself a unary/power chain.
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return binaryNode{op: '^', left: base, right: exp}, nil
}

func (p *parser) parsePrimary() (Node, error) {
	switch p.cur.kind {
	case tokNumber:
		n := numberNode{v: p.cur.num, text: p.cur.text}
		return n, p.next()

	case tokIdent:
		name, pos := p.cur.text, p.cur.pos
		if err := p.next(); err != nil {
			return nil, err
		}
		if fn, ok := functions[name]; ok {
			if p.cur.kind != tokLParen {
				return nil, syntaxErrorf(p.cur.pos, "expected '(' after %s", name)
			}
			if err := p.next(); err != nil {
				return nil, err
			}
			arg, err := p.parseGroupBody(pos)
			if err != nil {
				return nil, err
			}
			return callNode{name: name, fn: fn, arg: arg}, nil
		}
		if v, ok := constants[name]; ok {
			return constNode{name: name, v: v}, nil
		}
		return nil, unknownIdentifier(name, pos)

	case tokLParen:
		pos := p.cur.pos
		if err := p.next(); err != nil {
			return nil, err
		}
		inner, err := p.parseGroupBody(pos)
		if err != nil {
			return nil, err
		}
		return groupNode{x: inner}, nil

	case tokEOF:
		return nil, syntaxErrorf(p.cur.pos, "unexpected end of expression")

	case tokRParen:
		return nil, syntaxErrorf(p.cur.pos, "unexpected ')'")

	default:
		return nil, syntaxErrorf(p.cur.pos, "unexpected operator %q", p.cur.text)
	}
}

// parseGroupBody parses the expression after an opening parenthesis and
// consumes the matching ')'.
func (p *parser) parseGroupBody(open int) (Node, error) {
	if p.cur.kind == tokRParen {
		return nil, syntaxErrorf(p.cur.pos, "empty parentheses")
	}
	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokRParen {
		return nil, syntaxErrorf(open, "unbalanced '('")
	}
	return inner, p.next()
}

func unknownIdentifier(name string, pos int) *Error {
	err := syntaxErrorf(pos, "unknown identifier %q", name)

	best, bestDist := "", 3
	for _, candidate := range vocabulary() {
		if d := levenshtein.ComputeDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if best != "" {
		err.Hint = "did you mean " + best + "?"
	}
	return err
}

// vocabulary lists every identifier the evaluator accepts, in a fixed order.
func vocabulary() []string {
	return []string{identSin, identCos, identTan, identLn, identLog10, identSqrt, identPi, identE}
}
