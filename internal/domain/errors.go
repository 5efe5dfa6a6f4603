package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error with a code and a client-safe message.
// Reason is internal detail (e.g. which access rule failed) and is never sent to clients.
type DomainError struct {
	Code    string
	Message string
	Reason  string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeAuthorization = "AUTHORIZATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// AuthorizationMessage is the only message an authorization failure ever carries.
const AuthorizationMessage = "not authorized to perform this action"

// NewValidationError creates a new validation error
func NewValidationError(msg string) error {
	return &DomainError{Code: ErrCodeValidation, Message: msg}
}

// NewAuthorizationError creates an authorization error. The reason is kept for logging only.
func NewAuthorizationError(reason string) error {
	return &DomainError{Code: ErrCodeAuthorization, Message: AuthorizationMessage, Reason: reason}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) error {
	return &DomainError{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// NewConflictError creates a new conflict error
func NewConflictError(msg string) error {
	return &DomainError{Code: ErrCodeConflict, Message: msg}
}

// NewInternalError wraps an unexpected failure, usually from persistence.
func NewInternalError(err error) error {
	return &DomainError{Code: ErrCodeInternal, Message: "an internal error occurred", Err: err}
}

// GetErrorCode extracts the error code from a domain error anywhere in the chain.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternal
}

func hasCode(err error, code string) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}

func IsValidation(err error) bool    { return hasCode(err, ErrCodeValidation) }
func IsAuthorization(err error) bool { return hasCode(err, ErrCodeAuthorization) }
func IsNotFound(err error) bool      { return hasCode(err, ErrCodeNotFound) }
func IsConflict(err error) bool      { return hasCode(err, ErrCodeConflict) }
func IsInternal(err error) bool      { return hasCode(err, ErrCodeInternal) }
