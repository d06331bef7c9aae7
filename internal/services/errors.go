package services

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCode string

const (
	ErrorInvalid  ErrorCode = "invalid"
	ErrorNotFound ErrorCode = "not_found"
	ErrorConflict ErrorCode = "conflict"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error  { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error { return &ServiceError{Code: ErrorConflict, Message: msg} }

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// ValidationError reports every required question left unanswered in a
// submission. The message lists at most the first ten texts.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	list := e.Missing
	if len(list) > 10 {
		list = list[:10]
	}
	return "missing required answers: " + strings.Join(list, ", ")
}

// UnknownKeyError is returned when a submitted answer key is a UUID the
// form does not know and the value carries no question metadata.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown question id: %s; provide question metadata or use a human-readable label as the key", e.Key)
}
