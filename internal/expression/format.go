package expression

import (
	"math"
	"strconv"
	"strings"
)

// fractionDigits is the display precision for non-integer results.
const fractionDigits = 8

// Format renders a successful result for display and history. Integers have
// no decimal point; other values are rounded to eight fractional digits
// without trailing zeros.
func Format(v float64) string {
	var s string
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		s = strconv.FormatFloat(v, 'f', -1, 64)
	} else {
		s = strconv.FormatFloat(v, 'f', fractionDigits, 64)
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}
