package errors

import (
	"net/http"

	"stampauth/internal/errors"
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

// Is matches any BaseError with the same business code, so copies made by
// WithDetails still satisfy errors.Is against the predefined value.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)

	return ok && t.errorCode == e.errorCode
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

// Predefined error types
var (
	// User-related errors
	ErrUserNotFound = NewBaseError(
		http.StatusNotFound,
		"USER_NOT_FOUND",
		"User not found",
		"",
	)

	ErrUserAlreadyExists = NewBaseError(
		http.StatusConflict,
		"USER_ALREADY_EXISTS",
		"An account with this email already exists",
		"",
	)

	ErrUserCreationFailed = NewBaseError(
		http.StatusInternalServerError,
		"USER_CREATION_FAILED",
		"Failed to create user",
		"",
	)

	// Authentication-related errors
	ErrUnauthorized = NewBaseError(
		http.StatusUnauthorized,
		"UNAUTHORIZED",
		"Authentication required",
		"",
	)

	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"Invalid email or password",
		"",
	)

	ErrPasswordHashFailed = NewBaseError(
		http.StatusInternalServerError,
		"PASSWORD_HASH_FAILED",
		"Failed to process password",
		"",
	)

	ErrPasswordTooShort = NewBaseError(
		http.StatusBadRequest,
		"PASSWORD_TOO_SHORT",
		"Password must be at least 8 characters",
		"",
	)

	ErrInvalidEmail = NewBaseError(
		http.StatusBadRequest,
		"INVALID_EMAIL",
		"Invalid email address",
		"",
	)

	ErrInsufficientScope = NewBaseError(
		http.StatusForbidden,
		"INSUFFICIENT_SCOPE",
		"Insufficient scope",
		"",
	)

	ErrSessionRequired = NewBaseError(
		http.StatusForbidden,
		"SESSION_REQUIRED",
		"This operation requires a user session",
		"",
	)

	// OAuth-related errors
	ErrInvalidProvider = NewBaseError(
		http.StatusBadRequest,
		"INVALID_PROVIDER",
		"Unsupported identity provider",
		"",
	)

	ErrOAuthFailed = NewBaseError(
		http.StatusUnauthorized,
		"OAUTH_FAILED",
		"OAuth authentication failed",
		"",
	)

	ErrOAuthAccountLinkedToOther = NewBaseError(
		http.StatusConflict,
		"OAUTH_LINKED_OTHER",
		"This identity is already linked to another account",
		"",
	)

	ErrOAuthEmailUnverified = NewBaseError(
		http.StatusConflict,
		"OAUTH_EMAIL_UNVERIFIED",
		"The identity provider did not verify this email address",
		"",
	)

	// Challenge and WebAuthn errors
	ErrChallengeExpired = NewBaseError(
		http.StatusBadRequest,
		"CHALLENGE_EXPIRED",
		"Challenge expired or not found",
		"",
	)

	ErrChallengeUserMismatch = NewBaseError(
		http.StatusForbidden,
		"CHALLENGE_USER_MISMATCH",
		"Challenge does not belong to this user",
		"",
	)

	ErrPasskeyVerificationFailed = NewBaseError(
		http.StatusUnauthorized,
		"PASSKEY_VERIFICATION_FAILED",
		"Passkey verification failed",
		"",
	)

	ErrAuthenticatorCloned = NewBaseError(
		http.StatusUnauthorized,
		"AUTHENTICATOR_CLONED",
		"Passkey verification failed",
		"",
	)

	ErrCredentialAlreadyRegistered = NewBaseError(
		http.StatusConflict,
		"CREDENTIAL_ALREADY_REGISTERED",
		"This authenticator is already registered",
		"",
	)

	// Linked account errors
	ErrLastAuthMethod = NewBaseError(
		http.StatusBadRequest,
		"LAST_AUTH_METHOD",
		"Cannot remove your only sign-in method",
		"",
	)

	ErrLinkedAccountNotFound = NewBaseError(
		http.StatusNotFound,
		"LINKED_ACCOUNT_NOT_FOUND",
		"Linked account not found",
		"",
	)

	// API key errors
	ErrAPIKeyNotFound = NewBaseError(
		http.StatusNotFound,
		"API_KEY_NOT_FOUND",
		"API key not found",
		"",
	)

	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Input validation failed",
		"",
	)

	// Transaction-related errors
	ErrTransactionFailed = NewBaseError(
		http.StatusInternalServerError,
		"TRANSACTION_FAILED",
		"Database transaction failed",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)

	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"Access denied",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"Resource not found",
		"",
	)

	ErrConflict = NewBaseError(
		http.StatusConflict,
		"CONFLICT",
		"Resource conflict",
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

// Unwrap exposes the driver error to errors.Is/As.
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
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
