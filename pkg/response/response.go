package response

import (
	"errors"
)

// Error is a domain error carrying the HTTP status it surfaces as.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

// FieldError describes one caller-fixable input problem.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError wraps a sentinel with field-level detail.
type ValidationError struct {
	Base   error
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return e.Base.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Base
}

func NewValidationError(base error, fields ...FieldError) error {
	return &ValidationError{Base: base, Fields: fields}
}
