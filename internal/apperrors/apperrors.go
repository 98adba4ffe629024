package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("resource not found")
	ErrAlreadyExists   = errors.New("resource already exists")
	ErrForbidden       = errors.New("you do not have permission to perform this action")
	ErrUnauthenticated = errors.New("authentication credentials were not provided")

	ErrInvalidRequest = errors.New("invalid request body")
	ErrValidation     = errors.New("validation error")

	// ErrParse is returned when a listing is requested without an add-on or user scope.
	ErrParse = errors.New("need an addon or user parameter")
)

// ValidationError describes a rejected input, optionally tied to a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func NewFieldError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ForbiddenError carries the reason an authorization check denied an action.
type ForbiddenError struct{ Reason string }

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}
func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }
