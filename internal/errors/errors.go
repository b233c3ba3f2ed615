package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on the error code so wrapped copies compare equal to the sentinel.
func (e *DomainError) Is(target error) bool {
	var domainErr *DomainError
	if errors.As(target, &domainErr) {
		return e.Code == domainErr.Code
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// WithMessage returns a copy of the domain error with a different user-facing
// message, keeping the code for classification.
func WithMessage(domainErr *DomainError, message string) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: message,
	}
}

// Predefined domain errors
var (
	// Uniqueness / lookup
	ErrConflict           = NewDomainError("CONFLICT", "resource already exists")
	ErrNotFound           = NewDomainError("NOT_FOUND", "resource not found")
	ErrNotFoundOrVerified = NewDomainError("NOT_FOUND_OR_ALREADY_VERIFIED", "user not found or already verified")

	// Authentication
	ErrInvalidCredentials = NewDomainError("INVALID_CREDENTIALS", "email or password is incorrect")
	ErrAccountLocked      = NewDomainError("ACCOUNT_LOCKED", "account is locked")
	ErrUnauthorized       = NewDomainError("UNAUTHORIZED", "unauthorized")
	ErrForbidden          = NewDomainError("FORBIDDEN", "access forbidden")
	ErrTokenExpired       = NewDomainError("TOKEN_EXPIRED", "token has expired")
	ErrTokenInvalid       = NewDomainError("TOKEN_INVALID", "token is invalid")

	// Validation (shape validation is delegated upstream; this covers
	// business-invariant failures surfaced by the service layer)
	ErrValidationFailed = NewDomainError("VALIDATION_FAILED", "validation failed")

	// System
	ErrInternal = NewDomainError("INTERNAL_ERROR", "internal server error")
)

// Conflict returns a Conflict error naming the offending field.
func Conflict(field string) *DomainError {
	return &DomainError{
		Code:    ErrConflict.Code,
		Message: fmt.Sprintf("%s already exists", field),
	}
}

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	// 400 Bad Request
	case "VALIDATION_FAILED", "NOT_FOUND_OR_ALREADY_VERIFIED":
		return http.StatusBadRequest

	// 401 Unauthorized
	case "UNAUTHORIZED", "INVALID_CREDENTIALS", "TOKEN_EXPIRED", "TOKEN_INVALID":
		return http.StatusUnauthorized

	// 403 Forbidden
	case "FORBIDDEN":
		return http.StatusForbidden

	// 404 Not Found
	case "NOT_FOUND":
		return http.StatusNotFound

	// 409 Conflict
	case "CONFLICT":
		return http.StatusConflict

	// 423 Locked
	case "ACCOUNT_LOCKED":
		return http.StatusLocked

	// 500 Internal Server Error (default)
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}
