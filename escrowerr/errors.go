// Package escrowerr defines the taxonomy of errors the escrow coordinator
// can return. The escrow, store, wallet, and phase packages return one of
// these kinds (wrapped with stack context) rather than an ad-hoc error, so
// the transport can map failures to typed responses without string
// matching. Ledger adapters return plain errors, which the escrow and
// wallet packages wrap into a kind.
package escrowerr

import (
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Kind identifies the category of a coordinator error. Field names mirror
// the language-neutral taxonomy in the specification.
type Kind string

const (
	NotFound            Kind = "NotFound"
	InvalidState        Kind = "InvalidState"
	InvalidSecret       Kind = "InvalidSecret"
	Unauthorized        Kind = "Unauthorized"
	NotYetOpen          Kind = "NotYetOpen"
	WindowClosed        Kind = "WindowClosed"
	InsufficientFunding Kind = "InsufficientFunding"
	InvalidTransaction  Kind = "InvalidTransaction"
	LedgerUnavailable   Kind = "LedgerUnavailable"
	LedgerTimeout       Kind = "LedgerTimeout"
	SettlementFailed    Kind = "SettlementFailed"
	InvalidParameters   Kind = "InvalidParameters"
)

// Error is a coordinator error tagged with a machine-readable Kind and a
// human-readable Detail, plus a captured stack trace for operator logs.
type Error struct {
	Kind   Kind
	Detail string
	stack  *goerrors.Error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Unwrap allows errors.Is / errors.As to see through to the stack-carrying
// cause, matching the go-errors/errors wrap idiom used elsewhere in the
// reference stack.
func (e *Error) Unwrap() error {
	return e.stack
}

// StackTrace returns the formatted call stack captured when the error was
// created, useful for operator-facing logs without leaking it to callers.
func (e *Error) StackTrace() string {
	if e.stack == nil {
		return ""
	}
	return string(e.stack.Stack())
}

// New creates a new tagged Error, capturing a stack trace at the call site.
func New(kind Kind, format string, args ...interface{}) *Error {
	detail := fmt.Sprintf(format, args...)
	return &Error{
		Kind:   kind,
		Detail: detail,
		stack:  goerrors.Wrap(fmt.Errorf("%s", detail), 1),
	}
}

// Wrap tags an existing error with a Kind, preserving its message as the
// Detail and capturing a fresh stack frame.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{
		Kind:   kind,
		Detail: err.Error(),
		stack:  goerrors.Wrap(err, 1),
	}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
