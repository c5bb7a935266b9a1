package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeConfiguration indicates invalid or missing configuration.
	// Fatal at construction time.
	ErrCodeConfiguration ErrorCode = "configuration"
	// ErrCodeProtocol indicates an OAuth/OIDC protocol violation by the
	// caller: state mismatch, missing parameters, malformed tokens.
	ErrCodeProtocol ErrorCode = "protocol"
	// ErrCodeProvider indicates a failure talking to the identity provider
	// (discovery, token exchange, refresh, userinfo).
	ErrCodeProvider ErrorCode = "provider"
	// ErrCodeSessionInvalid indicates a session that failed verification.
	// Callers treat it identically to "not authenticated".
	ErrCodeSessionInvalid ErrorCode = "session_invalid"
	// ErrCodeForbidden indicates an authorization denial (missing role or claim).
	ErrCodeForbidden ErrorCode = "forbidden"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Configuration creates a new Configuration error.
func Configuration(message string) *AppError {
	return &AppError{Code: ErrCodeConfiguration, Message: message}
}

// Configurationf creates a new Configuration error with formatted message.
func Configurationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeConfiguration, Message: fmt.Sprintf(format, args...)}
}

// Protocol creates a new Protocol error.
func Protocol(message string) *AppError {
	return &AppError{Code: ErrCodeProtocol, Message: message}
}

// Protocolf creates a new Protocol error with formatted message.
func Protocolf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeProtocol, Message: fmt.Sprintf(format, args...)}
}

// Provider creates a new Provider error.
func Provider(message string) *AppError {
	return &AppError{Code: ErrCodeProvider, Message: message}
}

// SessionInvalid creates a new SessionInvalid error.
func SessionInvalid(message string) *AppError {
	return &AppError{Code: ErrCodeSessionInvalid, Message: message}
}

// Forbidden creates a new Forbidden error.
func Forbidden(message string) *AppError {
	return &AppError{Code: ErrCodeForbidden, Message: message}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsConfiguration checks if an error is a Configuration error.
func IsConfiguration(err error) bool {
	return isCode(err, ErrCodeConfiguration)
}

// IsProtocol checks if an error is a Protocol error.
func IsProtocol(err error) bool {
	return isCode(err, ErrCodeProtocol)
}

// IsProvider checks if an error is a Provider error.
func IsProvider(err error) bool {
	return isCode(err, ErrCodeProvider)
}

// IsSessionInvalid checks if an error is a SessionInvalid error.
func IsSessionInvalid(err error) bool {
	return isCode(err, ErrCodeSessionInvalid)
}

// IsForbidden checks if an error is a Forbidden error.
func IsForbidden(err error) bool {
	return isCode(err, ErrCodeForbidden)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
