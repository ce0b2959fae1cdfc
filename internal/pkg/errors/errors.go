package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrConflict = errors.New("conflict")
	ErrInternal = errors.New("internal")
)

// ValidationError reports caller input that can never succeed, such as a
// malformed or wrong-dimension query vector.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ConnectionError wraps a failure to reach the database.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return "database unreachable: " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// SkippedRowWarning describes a bulk-load row that was dropped.
// It is logged and counted, never returned to callers.
type SkippedRowWarning struct {
	Line   int
	Reason string
}

func (w *SkippedRowWarning) Error() string {
	return fmt.Sprintf("line %d skipped: %s", w.Line, w.Reason)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsConnection(err error) bool {
	var c *ConnectionError
	return errors.As(err, &c)
}
