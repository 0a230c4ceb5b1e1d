package expression

import (
	"errors"
	"math"
	"strconv"
	"unicode"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

type lexer struct {
	s string
	i int
}

func (l *lexer) next() (token, error) {
	for l.i < len(l.s) && (l.s[l.i] == ' ' || l.s[l.i] == '\t') {
		l.i++
	}
	if l.i >= len(l.s) {
		return token{kind: tokEOF, pos: l.i}, nil
	}

	pos := l.i
	single := func(k tokenKind) (token, error) {
		l.i++
		return token{kind: k, text: l.s[pos:l.i], pos: pos}, nil
	}

	switch c := l.s[l.i]; {
	case c == '+':
		return single(tokPlus)
	case c == '-':
		return single(tokMinus)
	case c == '*':
		return single(tokStar)
	case c == '/':
		return single(tokSlash)
	case c == '^':
		return single(tokCaret)
	case c == '(':
		return single(tokLParen)
	case c == ')':
		return single(tokRParen)
	case c == '.' || isDigit(c):
		return l.number()
	case isLetter(c):
		for l.i < len(l.s) && (isLetter(l.s[l.i]) || isDigit(l.s[l.i])) {
			l.i++
		}
		return token{kind: tokIdent, text: l.s[pos:l.i], pos: pos}, nil
	}

	r, _ := utf8.DecodeRuneInString(l.s[l.i:])
	if unicode.IsPrint(r) {
		return token{}, syntaxErrorf(pos, "unexpected character %q", r)
	}
	return token{}, syntaxErrorf(pos, "unexpected character %U", r)
}

// number scans digits with at most one decimal point. Scientific notation is
// not part of the vocabulary: 'e' is the constant.
func (l *lexer) number() (token, error) {
	pos := l.i
	digits := 0
	for l.i < len(l.s) && isDigit(l.s[l.i]) {
		l.i++
		digits++
	}
	if l.i < len(l.s) && l.s[l.i] == '.' {
		l.i++
		for l.i < len(l.s) && isDigit(l.s[l.i]) {
			l.i++
			digits++
		}
	}
	txt := l.s[pos:l.i]
	if digits == 0 {
		return token{}, syntaxErrorf(pos, "malformed number %q", txt)
	}
	if l.i < len(l.s) && l.s[l.i] == '.' {
		return token{}, syntaxErrorf(l.i, "second decimal point in number %q", txt)
	}

	v, err := strconv.ParseFloat(txt, 64)
	if err != nil {
		// Out-of-range literals keep their ±Inf value; the result check turns
		// that into an overflow.
		var numErr *strconv.NumError
		if !errors.As(err, &numErr) || !errors.Is(numErr.Err, strconv.ErrRange) || !math.IsInf(v, 0) {
			return token{}, syntaxErrorf(pos, "malformed number %q", txt)
		}
	}
	return token{kind: tokNumber, text: txt, num: v, pos: pos}, nil
}
