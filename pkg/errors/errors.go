package errors

import (
	"errors"
	"fmt"
)

// Common application errors with proper types for error handling

var (
	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidAttachment indicates a rejected file (type or size)
	ErrInvalidAttachment = errors.New("invalid attachment")

	// ErrConflict indicates a business conflict reported by the backend
	ErrConflict = errors.New("conflict")

	// ErrTimeout indicates a request that hit its deadline
	ErrTimeout = errors.New("request timed out")

	// ErrUnavailable indicates a connectivity failure
	ErrUnavailable = errors.New("backend unavailable")

	// ErrSubmissionInFlight indicates a submit attempted while one is pending
	ErrSubmissionInFlight = errors.New("submission already in flight")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")
)

// InvalidInputError creates an invalid input error with field context
func InvalidInputError(field, reason string) error {
	return fmt.Errorf("%s: %s: %w", field, reason, ErrInvalidInput)
}

// InvalidAttachmentError creates an attachment rejection with slot context
func InvalidAttachmentError(slot, reason string) error {
	return fmt.Errorf("%s: %s: %w", slot, reason, ErrInvalidAttachment)
}

// ConflictError creates a conflict error with context
func ConflictError(reason string) error {
	if reason != "" {
		return fmt.Errorf("%s: %w", reason, ErrConflict)
	}
	return ErrConflict
}

// InternalError creates an internal error with context
func InternalError(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInternal)
}

// Is checks if an error matches a target error (works with wrapped errors)
func Is(err, target error) bool {
	return errors.Is(err, target)
}
