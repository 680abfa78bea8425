// Package errors defines the application-level error kinds shared by the
// use case and delivery layers. Each kind carries an HTTP status hint so the
// delivery layer can render it without inspecting business logic.
package errors

import (
	"net/http"

	"passport/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error kinds.
var (
	// ErrValidationFailed covers request input that fails precondition checks.
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Input validation failed",
		"",
	)

	// ErrConflict covers duplicate email, username or role name.
	ErrConflict = NewBaseError(
		http.StatusConflict,
		"CONFLICT",
		"Resource already exists",
		"",
	)

	// ErrNotFound covers absent accounts and roles.
	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"Resource not found",
		"",
	)

	// ErrInvalidCredential carries one uniform message regardless of whether
	// the account exists or the password is wrong, to resist enumeration.
	ErrInvalidCredential = NewBaseError(
		http.StatusBadRequest,
		"INVALID_CREDENTIAL",
		"Email or password is incorrect",
		"",
	)

	// ErrLockedOut is returned while a lockout window is active.
	ErrLockedOut = NewBaseError(
		http.StatusBadRequest,
		"LOCKED_OUT",
		"Too many failed attempts. Try again later",
		"",
	)

	// ErrEmailNotConfirmed blocks login before email confirmation.
	ErrEmailNotConfirmed = NewBaseError(
		http.StatusBadRequest,
		"EMAIL_NOT_CONFIRMED",
		"Email is not confirmed. Please verify your email",
		"",
	)

	// ErrInvalidToken covers bad signature, audience, issuer, algorithm,
	// decoding failures and token mismatches.
	ErrInvalidToken = NewBaseError(
		http.StatusBadRequest,
		"INVALID_TOKEN",
		"Invalid token",
		"",
	)

	// ErrExpired is returned when a refresh token is past its expiry.
	ErrExpired = NewBaseError(
		http.StatusBadRequest,
		"EXPIRED",
		"Refresh token has expired",
		"",
	)

	// ErrUnauthorized covers missing or failed authentication, including
	// protocol violations such as absent identity claims.
	ErrUnauthorized = NewBaseError(
		http.StatusUnauthorized,
		"UNAUTHORIZED",
		"Authentication required",
		"",
	)

	// ErrForbidden covers authenticated callers with insufficient role or
	// ownership.
	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"Access denied",
		"",
	)

	// ErrUpdateFailed is returned when the store rejects a mutation; the
	// details carry the joined per-field reasons.
	ErrUpdateFailed = NewBaseError(
		http.StatusInternalServerError,
		"UPDATE_FAILED",
		"Update failed",
		"",
	)

	// ErrInternalError is the fallback for unexpected failures.
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "Database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
