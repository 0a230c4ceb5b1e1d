package expression

import (
	"math/big"
	"strconv"
	"strings"
)

// maxExactFactorial is the largest n whose factorial fits a float64.
// Larger operands expand to overflowLiteral.
const maxExactFactorial = 170

// overflowLiteral is an integer literal that does not fit a float64.
var overflowLiteral = "1" + strings.Repeat("0", 400)

// ExpandFactorials replaces every integer literal directly followed by '!'
// with the decimal value of its factorial. A digit run that continues a
// decimal fraction or an identifier is left as is, so the evaluator rejects
// the dangling '!'.
func ExpandFactorials(s string) string {
	if !strings.Contains(s, "!") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	i := 0
	for i < len(s) {
		if !isDigit(s[i]) {
			b.WriteByte(s[i])
			i++
			continue
		}

		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		run := s[start:i]

		if i < len(s) && s[i] == '!' && !continuesToken(s, start) {
			b.WriteString(factorialString(run))
			i++ // consume '!'
			continue
		}
		b.WriteString(run)
	}

	return b.String()
}

// Factorial returns n! as an exact integer.
func Factorial(n int64) *big.Int {
	if n < 2 {
		return big.NewInt(1)
	}
	return new(big.Int).MulRange(2, n)
}

func factorialString(digits string) string {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n > maxExactFactorial {
		return overflowLiteral
	}
	return Factorial(n).String()
}

// continuesToken reports whether the digit run starting at start belongs to a
// decimal fraction or an identifier such as log10.
func continuesToken(s string, start int) bool {
	if start == 0 {
		return false
	}
	prev := s[start-1]
	return prev == '.' || isLetter(prev)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}
