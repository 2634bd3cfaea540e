// Package errors provides standardized error handling for the quote pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeMalformedBody    ErrorCode = "MALFORMED_BODY"

	ErrCodeRateLimited   ErrorCode = "RATE_LIMITED"
	ErrCodeCaptchaFailed ErrorCode = "CAPTCHA_FAILED"

	ErrCodeConfigurationMissing ErrorCode = "CONFIGURATION_MISSING"

	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamRejected    ErrorCode = "UPSTREAM_REJECTED"
	ErrCodeUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	ErrCodeEmailSendFailed     ErrorCode = "EMAIL_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a non-retryable client-data error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request data validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedBodyError creates a non-retryable body-shape error.
func NewMalformedBodyError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedBody,
		Message:   "Request body is missing or malformed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigurationError creates a non-retryable deployment misconfiguration
// error. The missing secret is named in Details for the logs only, never in
// an HTTP response.
func NewConfigurationError(what string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigurationMissing,
		Message:   "Required configuration is missing",
		Details:   what,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamError creates a retryable external-service error.
func NewUpstreamError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamUnavailable,
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamRejectedError creates a non-retryable external-service error,
// used for definitive 4xx answers from a provider.
func NewUpstreamRejectedError(service string, statusCode int, body string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamRejected,
		Message:   fmt.Sprintf("External service '%s' rejected the request", service),
		Details:   fmt.Sprintf("status: %d, body: %s", statusCode, body),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamTimeoutError creates a retryable timeout error.
func NewUpstreamTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamTimeout,
		Message:   fmt.Sprintf("External service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmailSendFailedError wraps a delivery failure after retries are spent.
func NewEmailSendFailedError(recipientKind string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("recipient: %s, error: %s", recipientKind, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsRetryable reports whether err is a StandardError marked retryable.
// Unknown error types are not retried.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// HTTPStatus maps an error code to the HTTP status the handler responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeMalformedBody, ErrCodeCaptchaFailed:
		return http.StatusBadRequest
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		// Configuration, upstream and unexpected failures all collapse to a
		// generic 500. Which one happened is for the logs, not the client.
		return http.StatusInternalServerError
	}
}
