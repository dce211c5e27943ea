package provider

import (
	"errors"
	"fmt"
)

// Kind classifies provider failures.
type Kind string

const (
	// KindIntegrity means stored data breaks an invariant, e.g. two rows
	// for one identity.
	KindIntegrity Kind = "integrity"
	// KindConflict means the row changed underneath the caller: it already
	// exists on insert or vanished on update.
	KindConflict Kind = "conflict"
	// KindOperationFailed means a write affected an unexpected number of rows.
	KindOperationFailed Kind = "operation_failed"
	// KindInvalid means the input was rejected before touching the database.
	KindInvalid Kind = "invalid"
)

// Sentinels matched by OperationError.Is.
var (
	ErrIntegrity       = errors.New("data integrity violation")
	ErrConflict        = errors.New("concurrent modification conflict")
	ErrOperationFailed = errors.New("operation failed")
	ErrInvalid         = errors.New("invalid input")
)

// OperationError reports which entity and operation failed and why.
type OperationError struct {
	Entity string
	Op     string
	Kind   Kind
	Err    error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Entity, e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *OperationError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error kind.
func (e *OperationError) Is(target error) bool {
	switch e.Kind {
	case KindIntegrity:
		return target == ErrIntegrity
	case KindConflict:
		return target == ErrConflict
	case KindOperationFailed:
		return target == ErrOperationFailed
	case KindInvalid:
		return target == ErrInvalid
	}
	return false
}

func opError(entity, op string, kind Kind, format string, args ...any) error {
	return &OperationError{Entity: entity, Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsIntegrity checks if an error is a data integrity error.
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrIntegrity)
}
