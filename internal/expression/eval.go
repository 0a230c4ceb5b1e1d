package expression

import (
	"fmt"
	"math"
)

// Node is an evaluable piece of a parsed expression.
type Node interface {
	Eval() float64
	String() string
}

type numberNode struct {
	v    float64
	text string
}

func (n numberNode) Eval() float64  { return n.v }
func (n numberNode) String() string { return n.text }

type constNode struct {
	name string
	v    float64
}

func (n constNode) Eval() float64  { return n.v }
func (n constNode) String() string { return n.name }

type negNode struct{ x Node }

func (n negNode) Eval() float64  { return -n.x.Eval() }
func (n negNode) String() string { return "-" + n.x.String() }

type groupNode struct{ x Node }

func (n groupNode) Eval() float64  { return n.x.Eval() }
func (n groupNode) String() string { return "(" + n.x.String() + ")" }

type callNode struct {
	name string
	fn   func(float64) float64
	arg  Node
}

func (n callNode) Eval() float64  { return n.fn(n.arg.Eval()) }
func (n callNode) String() string { return n.name + "(" + n.arg.String() + ")" }

type binaryNode struct {
	op          byte
	left, right Node
}

func (n binaryNode) Eval() float64 {
	a, b := n.left.Eval(), n.right.Eval()
	switch n.op {
	case '+':
		return a + b
	case '-':
		return a - b
	case '*':
		return a * b
	case '/':
		return a / b
	case '^':
		return math.Pow(a, b)
	}
	panic(fmt.Sprintf("expression: unknown operator %q", n.op))
}

func (n binaryNode) String() string {
	return n.left.String() + string(n.op) + n.right.String()
}

// Evaluate parses and evaluates a canonical, factorial-expanded expression.
// Failures are always *Error values.
func Evaluate(canonical string) (float64, error) {
	n, err := Parse(canonical)
	if err != nil {
		return 0, err
	}
	return checkResult(n.Eval())
}

func checkResult(v float64) (float64, error) {
	switch {
	case math.IsNaN(v):
		return 0, &Error{Kind: DomainError, Message: "result is not a number", Pos: -1}
	case math.IsInf(v, 0):
		return 0, &Error{Kind: OverflowError, Message: "result is infinite", Pos: -1}
	}
	return v, nil
}

// Step is one intermediate operation in evaluation order.
type Step struct {
	Expr  string
	Value float64
}

// Steps evaluates n bottom-up and reports every operator and function
// application with its intermediate value.
func Steps(n Node) []Step {
	var out []Step
	var walk func(Node) float64
	walk = func(n Node) float64 {
		switch t := n.(type) {
		case groupNode:
			return walk(t.x)
		case negNode:
			v := -walk(t.x)
			out = append(out, Step{Expr: t.String(), Value: v})
			return v
		case callNode:
			v := t.fn(walk(t.arg))
			out = append(out, Step{Expr: t.String(), Value: v})
			return v
		case binaryNode:
			walk(t.left)
			walk(t.right)
			v := t.Eval()
			out = append(out, Step{Expr: t.String(), Value: v})
			return v
		default:
			return n.Eval()
		}
	}
	walk(n)
	return out
}
