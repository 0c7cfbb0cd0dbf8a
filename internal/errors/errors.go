// Package errors provides error types and handling for slipway.
// It includes custom error types with HTTP status codes and error codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with an associated HTTP status code.
type AppError struct {
	// Code is an optional error code string for programmatic handling
	Code string
	// Message is a user-friendly error message
	Message string
	// StatusCode is the HTTP status code to return
	StatusCode int
	// Cause is the underlying error (for error wrapping)
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is to work with AppError.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Code != "" && e.Code == t.Code
	}
	return false
}

// Predefined error codes.
const (
	// Client error codes.
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeBlueprintInvalid = "BLUEPRINT_INVALID"
	ErrCodeServiceNotFound  = "SERVICE_NOT_FOUND"
	ErrCodeDeployNotFound   = "DEPLOY_NOT_FOUND"
	ErrCodeDeployNotActive  = "DEPLOY_NOT_ACTIVE"
	ErrCodeSecretNotFound   = "SECRET_NOT_FOUND"

	// Server error codes.
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeStorageError       = "STORAGE_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// NewClientError creates a new client error (4xx status codes).
func NewClientError(statusCode int, code, message string, cause error) *AppError {
	if statusCode < 400 || statusCode >= 500 {
		panic(fmt.Sprintf("NewClientError called with non-client status code: %d", statusCode))
	}
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// NewServerError creates a new server error (5xx status codes).
func NewServerError(statusCode int, code, message string, cause error) *AppError {
	if statusCode < 500 || statusCode >= 600 {
		panic(fmt.Sprintf("NewServerError called with non-server status code: %d", statusCode))
	}
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// Convenience constructors for common errors

// ErrBadRequest creates a bad request error (400).
func ErrBadRequest(message string, cause error) *AppError {
	return NewClientError(http.StatusBadRequest, ErrCodeInvalidRequest, message, cause)
}

// ErrNotFound creates a not found error (404).
func ErrNotFound(message string, cause error) *AppError {
	return NewClientError(http.StatusNotFound, ErrCodeNotFound, message, cause)
}

// ErrConflict creates a conflict error (409).
func ErrConflict(message string, cause error) *AppError {
	return NewClientError(http.StatusConflict, ErrCodeConflict, message, cause)
}

// ErrBlueprintInvalid creates a blueprint validation error (422).
// Used when a blueprint parses but fails schema validation.
func ErrBlueprintInvalid(message string, cause error) *AppError {
	return NewClientError(http.StatusUnprocessableEntity, ErrCodeBlueprintInvalid, message, cause)
}

// ErrServiceNotFound creates a service not found error (404).
func ErrServiceNotFound(message string, cause error) *AppError {
	return NewClientError(http.StatusNotFound, ErrCodeServiceNotFound, message, cause)
}

// ErrDeployNotFound creates a deploy not found error (404).
func ErrDeployNotFound(message string, cause error) *AppError {
	return NewClientError(http.StatusNotFound, ErrCodeDeployNotFound, message, cause)
}

// ErrDeployNotActive creates an error for operations that require a running
// deploy, such as stopping one that already reached a terminal status (409).
func ErrDeployNotActive(message string, cause error) *AppError {
	return NewClientError(http.StatusConflict, ErrCodeDeployNotActive, message, cause)
}

// ErrSecretNotFound creates a secret not found error (404).
func ErrSecretNotFound(message string, cause error) *AppError {
	return NewClientError(http.StatusNotFound, ErrCodeSecretNotFound, message, cause)
}

// ErrInternalError creates an internal server error (500).
func ErrInternalError(message string, cause error) *AppError {
	return NewServerError(http.StatusInternalServerError, ErrCodeInternalError, message, cause)
}

// ErrStorageError creates a storage error (503 Service Unavailable).
// State file failures are typically transient issues.
func ErrStorageError(message string, cause error) *AppError {
	return NewServerError(http.StatusServiceUnavailable, ErrCodeStorageError, message, cause)
}

// ErrServiceUnavailable creates a service unavailable error (503).
// Use this for resources that are temporarily unavailable but may become available soon.
func ErrServiceUnavailable(message string, cause error) *AppError {
	return NewServerError(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message, cause)
}

// GetStatusCode extracts the HTTP status code from an error.
// Returns 500 if the error is not an AppError.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// GetErrorCode extracts the error code from an error.
// Returns empty string if the error is not an AppError.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetErrorMessage extracts a user-friendly message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// GetErrorDetails extracts detailed error information including the underlying cause.
// Returns the underlying error message if available, otherwise returns the main error message.
func GetErrorDetails(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Cause != nil {
			return appErr.Cause.Error()
		}
		return appErr.Message
	}
	return err.Error()
}
