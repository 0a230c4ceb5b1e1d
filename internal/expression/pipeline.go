// Package expression implements the calculator's evaluation pipeline:
// normalization of display tokens, factorial expansion, a recursive-descent
// evaluator over a fixed grammar, and result formatting.
//
// Only the calculator vocabulary is accepted. Anything else is a SyntaxError;
// nothing is ever handed to a general-purpose evaluator.
package expression

// Result carries every intermediate form of a successful computation.
type Result struct {
	Raw        string
	Normalized string
	Expanded   string
	Value      float64
	Formatted  string
}

// Compute runs the full pipeline on a raw display string.
func Compute(raw string) (Result, error) {
	res := Result{Raw: raw}
	res.Normalized = Normalize(raw)
	res.Expanded = ExpandFactorials(res.Normalized)

	v, err := Evaluate(res.Expanded)
	if err != nil {
		return res, err
	}
	res.Value = v
	res.Formatted = Format(v)
	return res, nil
}

// Explain parses a raw display string and returns its evaluation steps.
func Explain(raw string) ([]Step, error) {
	n, err := Parse(ExpandFactorials(Normalize(raw)))
	if err != nil {
		return nil, err
	}
	return Steps(n), nil
}
