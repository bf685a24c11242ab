package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable is returned when the on-device store cannot be opened or migrated.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNotInitialized is returned when the store is used before Open or after Close.
	ErrNotInitialized = errors.New("store not initialized")
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports caller-supplied data that violates a task invariant.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
