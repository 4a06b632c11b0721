// Package irerrors defines the three kinds of errors reported by the shaped types and the IR builder.
//
//   - ErrConstruction: malformed arguments to a constructor or op builder. Nothing is created.
//   - ErrVerification: a constructed operation violates a structural invariant, found by Verify.
//   - ErrPrecondition: a query or mutation was called outside its documented domain. It is a
//     programming error of the caller.
//
// Errors returned by this module wrap one of the sentinels, so callers classify them with errors.Is:
//
//	if errors.Is(err, irerrors.ErrConstruction) { ... }
//
// None of them is retryable.
package irerrors

import (
	"github.com/pkg/errors"
)

var (
	// ErrConstruction is wrapped by errors returned when building a type or an operation from invalid arguments.
	ErrConstruction = errors.New("construction error")

	// ErrVerification is wrapped by errors returned by the verification pass.
	ErrVerification = errors.New("verification error")

	// ErrPrecondition is wrapped by errors returned when a query or mutation is used outside its domain.
	ErrPrecondition = errors.New("precondition error")
)

// Constructionf returns a new error wrapping ErrConstruction, with a stack trace.
func Constructionf(format string, args ...any) error {
	return errors.Wrapf(ErrConstruction, format, args...)
}

// Verificationf returns a new error wrapping ErrVerification, with a stack trace.
func Verificationf(format string, args ...any) error {
	return errors.Wrapf(ErrVerification, format, args...)
}

// Preconditionf returns a new error wrapping ErrPrecondition, with a stack trace.
func Preconditionf(format string, args ...any) error {
	return errors.Wrapf(ErrPrecondition, format, args...)
}

// IsConstruction reports whether err (or any error it wraps) is a construction error.
func IsConstruction(err error) bool { return errors.Is(err, ErrConstruction) }

// IsVerification reports whether err (or any error it wraps) is a verification error.
func IsVerification(err error) bool { return errors.Is(err, ErrVerification) }

// IsPrecondition reports whether err (or any error it wraps) is a precondition error.
func IsPrecondition(err error) bool { return errors.Is(err, ErrPrecondition) }
