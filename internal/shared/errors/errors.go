package errors

import (
	"errors"
	"fmt"
)

// Error types for different domains
type ErrorType string

const (
	ErrorTypeConnection    ErrorType = "CONNECTION_ERROR"
	ErrorTypeQuery         ErrorType = "QUERY_ERROR"
	ErrorTypeUpdate        ErrorType = "UPDATE_ERROR"
	ErrorTypeConfiguration ErrorType = "CONFIGURATION_ERROR"
	ErrorTypeInternal      ErrorType = "INTERNAL_ERROR"
)

// Common application errors
var (
	ErrConnectionFailed = errors.New("store connection failed")
	ErrQueryFailed      = errors.New("store query failed")
	ErrUpdateFailed     = errors.New("store update failed")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// AppError represents a custom application error with context
type AppError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Cause     error     `json:"-"`
	Component string    `json:"component,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithComponent adds the component name
func (e *AppError) WithComponent(component string) *AppError {
	e.Component = component
	return e
}

// Common error constructors

// NewConnectionError creates a store connection error
func NewConnectionError(message string) *AppError {
	return NewAppError(ErrorTypeConnection, message)
}

// NewQueryError creates a store query error
func NewQueryError(message string) *AppError {
	return NewAppError(ErrorTypeQuery, message)
}

// NewUpdateError creates a store update error
func NewUpdateError(message string) *AppError {
	return NewAppError(ErrorTypeUpdate, message)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, message)
}

// Helper functions for common error scenarios

// WrapError wraps an error with context
func WrapError(err error, message string) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

// IsConnection checks if an error is a store connection error
func IsConnection(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeConnection
	}
	return errors.Is(err, ErrConnectionFailed)
}

// IsQuery checks if an error is a store query error
func IsQuery(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeQuery
	}
	return errors.Is(err, ErrQueryFailed)
}

// IsUpdate checks if an error is a store update error
func IsUpdate(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeUpdate
	}
	return errors.Is(err, ErrUpdateFailed)
}
