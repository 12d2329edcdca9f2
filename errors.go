package annidx

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when an operation is attempted on a closed index.
	ErrClosed = errors.New("annidx: index is closed")

	// ErrEmptyIndex is returned when a search runs against an index holding
	// no vectors.
	ErrEmptyIndex = errors.New("annidx: index contains no vectors")

	// ErrInvalidArgument is returned for malformed caller input. Inspect the
	// wrapped message for the offending parameter.
	ErrInvalidArgument = errors.New("annidx: invalid argument")
)

// ErrDimensionMismatch indicates two indexes with incompatible
// dimensionality, or a snapshot whose dimension conflicts with expectations.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("annidx: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// BackendError wraps a failure raised by the backend itself rather than by
// facade validation. The original error is never swallowed and can be
// accessed via errors.Unwrap.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("annidx: backend %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}

func backendErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: op, Err: err}
}
