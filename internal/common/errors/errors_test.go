// internal/common/errors/errors_test.go
package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryTheirCode(t *testing.T) {
	cause := fmt.Errorf("connection refused")

	tests := []struct {
		name      string
		err       *StandardError
		code      ErrorCode
		retryable bool
	}{
		{"request validation", NewRequestValidationError("message too long"), ErrCodeRequestValidationFailed, false},
		{"parse ambiguity", NewParseAmbiguityError("next week"), ErrCodeParseAmbiguity, false},
		{"invalid or expired token", NewInvalidOrExpiredTokenError("wrong_owner"), ErrCodeInvalidOrExpiredToken, false},
		{"tool execution failed", NewToolExecutionFailedError("tasks.create", cause), ErrCodeToolExecutionFailed, false},
		{"tool not registered", NewToolNotRegisteredError("garage.openDoor"), ErrCodeToolNotRegistered, false},
		{"tool input invalid", NewToolInputInvalidError("tasks.create", "title is required"), ErrCodeToolInputInvalid, false},
		{"preference load failed", NewPreferenceLoadFailedError(cause), ErrCodePreferenceLoadFailed, true},
		{"store unavailable", NewStoreUnavailableError(cause), ErrCodeStoreUnavailable, true},
		{"notification send failed", NewNotificationSendFailedError("email", cause), ErrCodeNotificationSendFailed, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.NotNil(t, tc.err)
			assert.Equal(t, tc.code, tc.err.Code)
			assert.Equal(t, tc.retryable, tc.err.Retryable)
			assert.NotEmpty(t, tc.err.Message)
			assert.False(t, tc.err.Timestamp.IsZero())
			assert.True(t, IsCode(tc.err, tc.code))
			assert.Contains(t, tc.err.Error(), string(tc.code))
		})
	}
}

func TestIsCodeRejectsForeignErrors(t *testing.T) {
	assert.False(t, IsCode(fmt.Errorf("plain"), ErrCodeStoreUnavailable))
	assert.False(t, IsCode(nil, ErrCodeStoreUnavailable))
	assert.False(t, IsCode(NewStoreUnavailableError(fmt.Errorf("down")), ErrCodePreferenceLoadFailed))
}

func TestDetailsKeepTheInternalReason(t *testing.T) {
	err := NewInvalidOrExpiredTokenError("expired")
	assert.Equal(t, "expired", err.Details)

	wrapped := NewToolExecutionFailedError("shopping.addItems", fmt.Errorf("deadlock"))
	assert.Contains(t, wrapped.Details, "shopping.addItems")
	assert.Contains(t, wrapped.Details, "deadlock")
}
