package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrItemNotFound      = errors.New("item not found")
	ErrTradeNotFound     = errors.New("trade not found")
	ErrDuplicateItem     = errors.New("item already exists")
	ErrInconsistentState = errors.New("inconsistent ledger state")
	ErrFeatureDisabled   = errors.New("feature disabled")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
