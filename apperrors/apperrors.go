// Package apperrors defines the error taxonomy shared by the parser, the engine,
// the catalogs and the service layer. Every failure that reaches a caller carries
// exactly one Kind; transports map the Kind to a status code.
package apperrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error for callers.
type Kind int

const (
	KindUnknown Kind = iota
	KindParse
	KindValidation
	KindNotFound
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse_error"
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal_error"
	}
}

// Error is a typed, human-readable failure.
// Line is set only for KindParse and is 1-based.
type Error struct {
	Kind    Kind
	Message string
	Line    int
}

func (e *Error) Error() string {
	if e.Kind == KindParse && e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Parse reports malformed input at the given line.
func Parse(line int, format string, args ...interface{}) error {
	return &Error{Kind: KindParse, Line: line, Message: fmt.Sprintf(format, args...)}
}

// Validation reports a request that is inconsistent with a schema or plot-type rule.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an absent or deleted dataset or plot.
func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden reports an ownership mismatch.
func Forbidden(format string, args ...interface{}) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the human-readable reason of a typed error, without any
// wrapping context. Untyped errors return their full text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// LineOf returns the line of a parse error, or 0.
func LineOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Line
	}
	return 0
}
