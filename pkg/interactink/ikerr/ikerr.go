// Package ikerr defines the error kinds shared across the interaction-command
// framework: builder invariant violations, map lookup failures, argument
// synthesis failures, and handler-dispatch outcomes.
//
// Every runtime failure the framework produces is an *Error with one of the
// [Kind] constants below. Callers distinguish kinds with [errors.As] and a
// comparison of the Error's Kind field, or with [Is].
package ikerr

import (
	"errors"
	"fmt"
)

// Kind classifies an [Error] produced by the framework.
type Kind int

const (
	// UnknownCommand means a lookup against a command or interaction map
	// found no matching entry.
	UnknownCommand Kind = iota

	// ConvertFailed means a [convert.Converter] could not turn a raw option
	// value into the declared native type.
	ConvertFailed

	// BadArgs means argument synthesis found too few or too many options for
	// the resolved command's declared parameters.
	BadArgs

	// Exception wraps a panic recovered from a handler callback, or an error
	// returned by a BeforeExecute hook or an autocomplete handler.
	Exception

	// Unsuccessful means the handler returned a non-nil error without the
	// framework otherwise classifying it.
	Unsuccessful

	// UnmetPrecondition means a module- or command-level precondition
	// rejected the interaction before dispatch.
	UnmetPrecondition

	// ParseFailed means a build-time invariant check rejected a module,
	// command, or parameter declaration.
	ParseFailed

	// DuplicateCommand means an insert into a command map collided with an
	// existing key (exact or, for wildcards, normalized-pattern equality).
	DuplicateCommand

	// ComplexParameterCycle means flattening a complex parameter's fields
	// revisited a type already on the recursion stack.
	ComplexParameterCycle

	// NoConverter means no exact, canConvertTo, or generic-factory match was
	// found for a declared parameter type.
	NoConverter
)

// String renders the kind's name, matching the constant identifier.
func (k Kind) String() string {
	switch k {
	case UnknownCommand:
		return "UnknownCommand"
	case ConvertFailed:
		return "ConvertFailed"
	case BadArgs:
		return "BadArgs"
	case Exception:
		return "Exception"
	case Unsuccessful:
		return "Unsuccessful"
	case UnmetPrecondition:
		return "UnmetPrecondition"
	case ParseFailed:
		return "ParseFailed"
	case DuplicateCommand:
		return "DuplicateCommand"
	case ComplexParameterCycle:
		return "ComplexParameterCycle"
	case NoConverter:
		return "NoConverter"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type for every kind above. Reason carries a
// human-readable detail ("too few parameters", a converter's parse error,
// ...); Cause optionally wraps the underlying error (a handler panic
// recovered to an error, a converter's own error).
type Error struct {
	Kind   Kind
	Reason string
	Cause  error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Cause)
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return e.Kind.String()
}

// Unwrap exposes Cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error of the given kind with a reason and no cause.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap builds an *Error of the given kind wrapping cause.
func Wrap(kind Kind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Cause: cause}
}

// Is reports whether err is an *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
