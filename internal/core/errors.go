package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the root of every input rejection.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidRange reports a lower bound greater than its upper bound.
	ErrInvalidRange = fmt.Errorf("%w: invalid range", ErrValidation)

	ErrNotFound         = errors.New("not found")
	ErrMissingCategory  = errors.New("missing category")
	ErrCategoryInUse    = errors.New("category in use")
	ErrDuplicate        = errors.New("already exists")
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidKind   = errors.New("invalid transaction type")
	ErrEmptyField    = errors.New("empty field")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// RangeError builds an ErrInvalidRange for the named bounds.
func RangeError(lower, upper string) error {
	return fmt.Errorf("%w: %s is after %s", ErrInvalidRange, lower, upper)
}
