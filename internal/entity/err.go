package entity

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalid   = errors.New("invalid entity")
	ErrConflict  = errors.New("conflict")
	ErrForbidden = errors.New("forbidden")
	ErrInternal  = errors.New("internal error")
)

// ValidationError reports malformed or unresolved input. Field is the JSON
// path of the offending value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalid, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalid, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConflictError is returned when a delete is blocked by live referrers.
// It always carries every blocker, not only the first one found.
type ConflictError struct {
	Dependents []Dependent
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %d dependent(s) still reference this entity", ErrConflict, len(e.Dependents))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

type NotFoundError struct {
	Kind Kind
	ID   ID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Kind, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
