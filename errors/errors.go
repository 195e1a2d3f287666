// Package errors provides error handling for orion.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints and details
//
// Usage:
//
//	if err := store.Save(ctx, snap); err != nil {
//	    return errors.Wrap(err, "failed to save heartbeat state")
//	}
//
//	if errors.Is(err, errors.ErrPersistence) {
//	    // degraded but alive
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark

	// CombineErrors keeps the first error as the cause and attaches the second
	CombineErrors = crdb.CombineErrors
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Sentinel errors. Wrap these with errors.Wrap() to add context while
// preserving the type for errors.Is().
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")

	// ErrInvalidInterval indicates a zero or negative scheduling interval
	ErrInvalidInterval = New("interval must be positive")

	// ErrInvalidTask indicates a task definition that cannot be scheduled
	ErrInvalidTask = New("invalid task")

	// ErrDuplicateTask indicates a task name already present in the registry
	ErrDuplicateTask = New("task already registered")

	// ErrRegistryClosed indicates registration after the heartbeat started
	ErrRegistryClosed = New("task registry is closed")

	// ErrPersistence indicates the pulse log or state snapshot could not be written
	ErrPersistence = New("heartbeat persistence failed")

	// ErrTaskTimeout indicates a task action exceeded its execution timeout
	ErrTaskTimeout = New("task timed out")

	// ErrTaskStillRunning indicates a timed-out action has not returned yet
	ErrTaskStillRunning = New("task still running")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsPersistenceError checks if an error is or wraps ErrPersistence
func IsPersistenceError(err error) bool {
	return err != nil && Is(err, ErrPersistence)
}

// WrapNotFound wraps an error as a not-found error with context
func WrapNotFound(err error, context string) error {
	return Wrap(Mark(err, ErrNotFound), context)
}

// WrapPersistence marks err as a persistence failure and adds context.
// The original cause stays reachable through errors.Is.
func WrapPersistence(err error, context string) error {
	if err == nil {
		return nil
	}
	return Wrap(Mark(err, ErrPersistence), context)
}

// NewInvalidTaskError creates an invalid-task error with a formatted message
func NewInvalidTaskError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidTask, Newf(format, args...).Error())
}
