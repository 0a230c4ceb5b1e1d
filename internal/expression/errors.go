package expression

import (
	"errors"
	"fmt"
)

// Kind classifies an evaluation failure.
type Kind string

const (
	SyntaxError   Kind = "syntax_error"
	DomainError   Kind = "domain_error"
	OverflowError Kind = "overflow_error"
)

// DisplayError is the only failure text ever shown to a user.
const DisplayError = "Error"

// Error is returned by Evaluate and Compute for every failed input.
type Error struct {
	Kind    Kind
	Message string
	// Pos is the byte offset in the canonical input, or -1 when the failure
	// is about the numeric result rather than a position.
	Pos  int
	Hint string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Pos >= 0 {
		msg = fmt.Sprintf("%s at offset %d", msg, e.Pos)
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func syntaxErrorf(pos int, format string, args ...any) *Error {
	return &Error{Kind: SyntaxError, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// KindOf reports the failure kind carried by err.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
