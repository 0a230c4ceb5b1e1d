package explain

import (
	"context"
	"fmt"
	"strings"

	"scicalc/internal/expression"
)

// OfflineProvider builds a deterministic explanation from the evaluation
// tree. It never calls out to a model.
type OfflineProvider struct{}

func NewOfflineProvider() *OfflineProvider { return &OfflineProvider{} }

func (OfflineProvider) Name() string { return "offline" }

func (OfflineProvider) Explain(ctx context.Context, expr, result string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	steps, err := expression.Explain(expr)
	if err != nil {
		return Result{}, fmt.Errorf("offline: %w", err)
	}

	lines := make([]string, 0, len(steps))
	for i, s := range steps {
		lines = append(lines, fmt.Sprintf("Step %d: %s = %s", i+1, s.Expr, expression.Format(s.Value)))
	}
	if len(lines) == 0 {
		lines = append(lines, fmt.Sprintf("%s is already a single value.", expr))
	}

	return Result{
		Explanation: fmt.Sprintf("The expression %s evaluates to %s. Operations are applied by precedence: parentheses and functions first, then powers, then multiplication and division, then addition and subtraction.", expr, result),
		Steps:       lines,
		Context:     contextFor(expression.Normalize(expr)),
	}, nil
}

func contextFor(canonical string) string {
	switch {
	case strings.Contains(canonical, "sin(") || strings.Contains(canonical, "cos(") || strings.Contains(canonical, "tan("):
		return "Trigonometric functions relate angles (in radians) to ratios of triangle sides and describe waves and rotation."
	case strings.Contains(canonical, "log10(") || strings.Contains(canonical, "ln("):
		return "Logarithms undo exponentiation and appear in measures such as decibels, pH and compound growth."
	case strings.Contains(canonical, "sqrt("):
		return "Square roots give the side length of a square with a given area and appear in distance calculations."
	case strings.Contains(canonical, "!"):
		return "Factorials count the ways to arrange distinct objects and appear throughout probability and combinatorics."
	case strings.Contains(canonical, "^"):
		return "Powers describe repeated multiplication, as in areas, volumes and exponential growth."
	default:
		return "Arithmetic like this underpins everyday tasks such as budgeting, measuring and splitting costs."
	}
}
