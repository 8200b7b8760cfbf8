// Package apperr defines the recoverable error taxonomy shared by the roster
// core: validation failures, unresolvable references, and relationship
// conflicts. Anything else is treated as an internal error by callers.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindValidation marks malformed or type-mismatched input, caught before
	// any mutation is applied.
	KindValidation Kind = iota
	// KindReference marks an operation naming an id that does not resolve to
	// a live entity.
	KindReference
	// KindConflict marks an operation that would violate a relationship
	// invariant, such as double household membership.
	KindConflict
)

// Error is a recoverable, user-facing error. Its message is surfaced verbatim
// by the presentation layer.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Referencef(format string, args ...any) *Error {
	return &Error{Kind: KindReference, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func isKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func IsValidation(err error) bool { return isKind(err, KindValidation) }
func IsReference(err error) bool  { return isKind(err, KindReference) }
func IsConflict(err error) bool   { return isKind(err, KindConflict) }
