package core

import (
	"fmt"

	"github.com/pkg/errors"
)

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

// NotFoundError reports a missing resource; Resource is a human name ("course", "quiz" ...).
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

// UnavailableError reports that a collaborator (external system, upstream) could not be reached.
type UnavailableError struct {
	Service string
	Err     error
}

func NewUnavailableError(service string, err error) error {
	return &UnavailableError{Service: service, Err: err}
}

func (err UnavailableError) Error() string {
	if err.Err == nil {
		return fmt.Sprintf("%s unavailable", err.Service)
	}
	return fmt.Sprintf("%s unavailable: %v", err.Service, err.Err)
}

func (err UnavailableError) Unwrap() error { return err.Err }

// ConflictError reports an operation refused because of the current state of a resource.
type ConflictError struct {
	Message string
}

func NewConflictError(msg string) error {
	return &ConflictError{Message: msg}
}

func (err ConflictError) Error() string {
	return err.Message
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
