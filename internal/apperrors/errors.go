// Package apperrors defines the typed error taxonomy shared by services and
// handlers. Handlers map these to HTTP status codes in one place.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError rejects a request before any mutation happens.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidation builds a ValidationError from a format string.
func NewValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError covers unknown resources and cross-tenant access alike, so a
// caller cannot probe for resources belonging to other owners.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

func NewNotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// ReferentialConflict blocks a delete that still has dependent rows. Blocking
// carries the dependent count so the caller can decide whether to re-issue
// the delete with a cascade flag.
type ReferentialConflict struct {
	Resource string
	Blocking int
}

func (e *ReferentialConflict) Error() string {
	return fmt.Sprintf("%s still has %d attached entries", e.Resource, e.Blocking)
}

func NewReferentialConflict(resource string, blocking int) *ReferentialConflict {
	return &ReferentialConflict{Resource: resource, Blocking: blocking}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
