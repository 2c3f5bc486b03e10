// Package agenterr defines the error taxonomy of the supervisor (§7 of the
// specification). The sentinels below cover the buckets that surface as Go
// errors, plus two lookup outcomes (already exists, not found);
// component code wraps these with %w so errors.Is/errors.As keeps working
// as the error crosses layers, while the Tool API boundary inspects the
// sentinel to decide the in-band {error} message.
package agenterr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation covers bad tool arguments: unknown kind, invalid mode,
	// missing required field.
	ErrValidation = errors.New("validation error")

	// ErrPrecondition covers cwd missing for ralph, loop file absent,
	// dangerous directory, and pool exhaustion.
	ErrPrecondition = errors.New("precondition error")

	// ErrPoolExhausted is a specific precondition: the concurrent-agent
	// pool is at capacity.
	ErrPoolExhausted = errors.New("pool exhausted")

	// ErrTransientIO covers disk write/read failures that do not
	// necessarily fail the whole agent.
	ErrTransientIO = errors.New("transient I/O error")

	// ErrChildFailure covers a child exiting non-zero or emitting no
	// parseable output.
	ErrChildFailure = errors.New("child process failure")

	// ErrAlreadyExists is returned by the Event Store when an agent_id
	// collides with an existing record.
	ErrAlreadyExists = errors.New("agent already exists")

	// ErrNotFound covers lookups (by agent_id or task_name) that find
	// nothing.
	ErrNotFound = errors.New("not found")
)

// Validationf wraps ErrValidation with a caller-supplied reason.
func Validationf(format string, args ...any) error {
	return wrapf(ErrValidation, format, args...)
}

// Preconditionf wraps ErrPrecondition with a caller-supplied reason.
func Preconditionf(format string, args ...any) error {
	return wrapf(ErrPrecondition, format, args...)
}

func wrapf(sentinel error, format string, args ...any) error {
	return &sentinelError{sentinel: sentinel, inner: fmt.Errorf(format, args...)}
}

type sentinelError struct {
	sentinel error
	inner    error
}

func (e *sentinelError) Error() string   { return e.inner.Error() }
func (e *sentinelError) Unwrap() []error { return []error{e.sentinel, e.inner} }
