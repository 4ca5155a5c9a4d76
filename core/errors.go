package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// IsValidation reports whether the cause of err is a *ValidationError.
func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

type notFound struct {
	what string
}

// NewNotFoundError returns an error reporting that `what` does not exist.
func NewNotFoundError(what string) error {
	return &notFound{what: what}
}

func (nf notFound) Error() string {
	return nf.what + " not found"
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*notFound)
	return ok
}

type forbidden struct {
	message string
}

func NewForbiddenError(msg string) error {
	return &forbidden{message: msg}
}

func (f forbidden) Error() string {
	return f.message
}

func IsForbidden(err error) bool {
	_, ok := errors.Cause(err).(*forbidden)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
