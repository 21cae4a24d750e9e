package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrDuplicate    = errors.New("duplicate")
	ErrNotFound     = errors.New("not found")
	ErrIllegalState = errors.New("illegal state")
)

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DuplicateError reports a violated compound uniqueness key. It is a kind of
// validation failure.
type DuplicateError struct {
	Entity  string
	Message string
}

func (e *DuplicateError) Error() string {
	return e.Message
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate || target == ErrValidation
}

// NotFoundError reports a referenced id (or name) that does not resolve.
type NotFoundError struct {
	Entity string
	ID     int64
	Name   string
}

func (e *NotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s with name '%s' not found", e.Entity, e.Name)
	}

	return fmt.Sprintf("%s not found with ID: %d", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IllegalStateError reports an operation forbidden by current entity state.
type IllegalStateError struct {
	Message string
}

func (e *IllegalStateError) Error() string {
	return e.Message
}

func (e *IllegalStateError) Is(target error) bool {
	return target == ErrIllegalState
}

// Kind classifies err into one of the failure kinds, "" for nil and
// "internal" for anything unrecognised.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrIllegalState):
		return "illegal_state"
	default:
		return "internal"
	}
}
