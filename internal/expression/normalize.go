package expression

import "strings"

// Canonical identifiers understood by the evaluator.
const (
	identPi    = "pi"
	identE     = "e"
	identSin   = "sin"
	identCos   = "cos"
	identTan   = "tan"
	identLn    = "ln"
	identLog10 = "log10"
	identSqrt  = "sqrt"
)

// normalizer rewrites display glyphs and calculator tokens in a single
// left-to-right pass. The replacer compares candidates in argument order at
// each position, so "log10(" must stay ahead of "log(".
var normalizer = strings.NewReplacer(
	"×", "*",
	"÷", "/",
	"−", "-",
	"^", "^",
	"PI", identPi,
	"E", identE,
	"log10(", identLog10+"(",
	"log(", identLn+"(",
	"sin(", identSin+"(",
	"cos(", identCos+"(",
	"tan(", identTan+"(",
	"sqrt(", identSqrt+"(",
)

// Normalize converts a raw display string into canonical arithmetic notation.
// It does not validate the result.
func Normalize(raw string) string {
	return normalizer.Replace(raw)
}
