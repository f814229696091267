package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors, for use with errors.Is. Every typed error below matches exactly one of them.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrStorage           = errors.New("storage failure")
	ErrUnauthorized      = errors.New("unauthorized")
)

// HTTPError is implemented by errors that map onto an HTTP status code.
type HTTPError interface {
	error
	StatusCode() int
}

type (
	// ValidationError indicates bad input the caller can correct.
	ValidationError struct {
		Message string
	}

	// NotFoundError indicates an unknown identifier.
	NotFoundError struct {
		Resource string
		ID       string
	}

	// ForbiddenError indicates the caller's role or ownership does not permit the action.
	ForbiddenError struct {
		Message string
	}

	// UnauthorizedError indicates a missing or unverifiable identity.
	UnauthorizedError struct {
		Message string
	}

	// ConflictError indicates a lost race with a concurrent write. Safe to retry.
	ConflictError struct {
		Message string
	}

	// IllegalTransitionError names a workflow edge that is not in the transition table.
	IllegalTransitionError struct {
		From   DocumentStatus
		Action string
	}

	// StorageError wraps a failure of the durable store. Safe to retry.
	StorageError struct {
		Op  string
		Err error
	}
)

func (e *ValidationError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string  { return e.Message }
func (e *UnauthorizedError) Error() string {
	if e.Message == "" {
		return ErrUnauthorized.Error()
	}
	return e.Message
}
func (e *ConflictError) Error() string { return e.Message }

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition: %s --%s-->", e.From, e.Action)
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("storage: %s failed", e.Op)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool        { return target == ErrValidation }
func (e *NotFoundError) Is(target error) bool          { return target == ErrNotFound }
func (e *ForbiddenError) Is(target error) bool         { return target == ErrForbidden }
func (e *UnauthorizedError) Is(target error) bool      { return target == ErrUnauthorized }
func (e *ConflictError) Is(target error) bool          { return target == ErrConflict }
func (e *IllegalTransitionError) Is(target error) bool { return target == ErrIllegalTransition }
func (e *StorageError) Is(target error) bool           { return target == ErrStorage }

func (e *ValidationError) StatusCode() int        { return http.StatusBadRequest }
func (e *NotFoundError) StatusCode() int          { return http.StatusNotFound }
func (e *ForbiddenError) StatusCode() int         { return http.StatusForbidden }
func (e *UnauthorizedError) StatusCode() int      { return http.StatusUnauthorized }
func (e *ConflictError) StatusCode() int          { return http.StatusConflict }
func (e *IllegalTransitionError) StatusCode() int { return http.StatusUnprocessableEntity }
func (e *StorageError) StatusCode() int           { return http.StatusServiceUnavailable }

// Retryable reports whether the same request may succeed if sent again unchanged.
func Retryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrStorage)
}

// NewValidationError formats a ValidationError.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NewForbiddenError formats a ForbiddenError.
func NewForbiddenError(format string, args ...any) error {
	return &ForbiddenError{Message: fmt.Sprintf(format, args...)}
}

// NewConflictError formats a ConflictError.
func NewConflictError(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}
