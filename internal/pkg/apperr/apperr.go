package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ValidationError is a typed business-rule failure. It is always returned
// as a value across service boundaries, never panicked, and its message is
// safe to show to the tenant administrator who caused it.
type ValidationError struct {
	Code    string
	Message string
	// Fields optionally carries per-field error messages keyed by field id.
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func NewValidation(code, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError identifies a missing entity by kind and id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// PublishIncompleteError reports every canonical destination path a form is
// missing, so the builder UI can show the full list at once.
type PublishIncompleteError struct {
	MissingPaths []string
}

func (e *PublishIncompleteError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("form is missing mappings for required fields: %s", strings.Join(e.MissingPaths, ", "))
}

func (e *PublishIncompleteError) Is(target error) bool {
	return target == ErrInvalidArgument
}
