// Package xerrors defines the closed set of error kinds a filter
// construction can fail with. All of them are raised synchronously at
// construction time; none of them are defined for the per-frame
// evaluation path, which cannot fail once a program has been
// validated.
package xerrors

import "fmt"

// Kind is one of the five error kinds a filter construction can fail
// with.
type Kind string

const (
	ParseError            Kind = "ParseError"
	StackUnderflowAtParse Kind = "StackUnderflowAtParse"
	StackUnbalanced       Kind = "StackUnbalanced"
	FormatError           Kind = "FormatError"
	InputError            Kind = "InputError"
)

// Error carries enough context to point at the plane and token that
// caused a construction failure. Error() renders it as the single
// published diagnostic string the host sees on creation failure.
type Error struct {
	Kind    Kind
	Plane   int // -1 when not specific to a plane (e.g. a format-level error)
	Token   int // -1 when not specific to a single token
	Message string
}

func (e *Error) Error() string {
	switch {
	case e.Plane >= 0 && e.Token >= 0:
		return fmt.Sprintf("Expr: %s (plane %d, token %d): %s", e.Kind, e.Plane, e.Token, e.Message)
	case e.Plane >= 0:
		return fmt.Sprintf("Expr: %s (plane %d): %s", e.Kind, e.Plane, e.Message)
	default:
		return fmt.Sprintf("Expr: %s: %s", e.Kind, e.Message)
	}
}

// New builds an Error not tied to any particular plane or token, such
// as a top-level FormatError about clip dimensions.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Plane: -1, Token: -1, Message: fmt.Sprintf(format, args...)}
}

// AtToken builds an Error tied to one plane's expression and the token
// index within it that triggered the failure.
func AtToken(kind Kind, plane, token int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Plane: plane, Token: token, Message: fmt.Sprintf(format, args...)}
}

// AtPlane builds an Error tied to a plane but not a specific token.
func AtPlane(kind Kind, plane int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Plane: plane, Token: -1, Message: fmt.Sprintf(format, args...)}
}
