// Package errors provides standardized error handling for the agent pipeline.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeRequestValidationFailed ErrorCode = "REQUEST_VALIDATION_FAILED"
	ErrCodeParseAmbiguity          ErrorCode = "PARSE_AMBIGUITY"
	ErrCodeInvalidOrExpiredToken   ErrorCode = "INVALID_OR_EXPIRED_TOKEN"
	ErrCodeToolExecutionFailed     ErrorCode = "TOOL_EXECUTION_FAILED"
	ErrCodeToolNotRegistered       ErrorCode = "TOOL_NOT_REGISTERED"
	ErrCodeToolInputInvalid        ErrorCode = "TOOL_INPUT_INVALID"
	ErrCodePreferenceLoadFailed    ErrorCode = "PREFERENCE_LOAD_FAILED"
	ErrCodeStoreUnavailable        ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeNotificationSendFailed  ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewRequestValidationError creates a non-retryable boundary validation error.
func NewRequestValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestValidationFailed,
		Message:   "Request failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewParseAmbiguityError marks an extraction whose confidence is below the
// usable floor. Surfaced to the user as a clarifying question, never as a
// failure.
func NewParseAmbiguityError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeParseAmbiguity,
		Message:   "Could not confidently interpret the message",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidOrExpiredTokenError covers every failed token lookup. The specific
// sub-case (unknown, expired, wrong owner, already consumed) lives in Details
// for server-side logs only.
func NewInvalidOrExpiredTokenError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidOrExpiredToken,
		Message:   "Confirmation is invalid or has expired",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewToolExecutionFailedError wraps a ToolExecutor failure.
func NewToolExecutionFailedError(toolName string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeToolExecutionFailed,
		Message:   "Tool execution failed",
		Details:   fmt.Sprintf("tool: %s, error: %s", toolName, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewToolNotRegisteredError creates a non-retryable unknown-tool error.
func NewToolNotRegisteredError(toolName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeToolNotRegistered,
		Message:   "Tool is not present in the registry",
		Details:   fmt.Sprintf("tool: %s", toolName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewToolInputInvalidError creates a non-retryable schema validation error.
func NewToolInputInvalidError(toolName, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeToolInputInvalid,
		Message:   "Tool input failed schema validation",
		Details:   fmt.Sprintf("tool: %s, %s", toolName, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPreferenceLoadFailedError creates a retryable preference store error.
// Preference loads are optional enrichment; callers recover locally.
func NewPreferenceLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePreferenceLoadFailed,
		Message:   "Preference store unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable store backend error.
func NewStoreUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "State store unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a non-fatal notification error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// IsCode reports whether err is a StandardError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	stdErr, ok := err.(*StandardError)
	return ok && stdErr.Code == code
}
