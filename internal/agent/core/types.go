// internal/agent/core/types.go
package core

import (
	"context"
	"time"

	"household-agent/internal/common/logger"
)

// ToolCall is the contract handed to a ToolExecutor. The pipeline never
// re-derives a stored ToolCall from the original message.
type ToolCall struct {
	ToolName string                 `json:"toolName"`
	Input    map[string]interface{} `json:"input"`
}

// ToolResult is the opaque outcome of an executed tool.
type ToolResult struct {
	Success     bool        `json:"success"`
	Data        interface{} `json:"data,omitempty"`
	Error       string      `json:"error,omitempty"`
	ExecutionMs int64       `json:"executionMs,omitempty"`
}

// ToolExecutor performs the effect of a tool call. The pipeline only decides
// whether and with what input to call it.
type ToolExecutor interface {
	Execute(ctx context.Context, toolName string, input map[string]interface{}) (*ToolResult, error)
}

// Clock abstracts wall-clock reads so TTL behavior is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// RunContext carries per-request identity supplied by the host.
type RunContext struct {
	RequestID      string
	UserID         string
	FamilyID       string
	FamilyMemberID string
	Timezone       string
	ConversationID string
	Logger         logger.Logger
}

// AgentRequest is the wire-level inbound shape.
type AgentRequest struct {
	Message           string `json:"message"`
	ConversationID    string `json:"conversationId,omitempty"`
	DomainHint        string `json:"domainHint,omitempty"`
	ConfirmationToken string `json:"confirmationToken,omitempty"`
	Confirmed         bool   `json:"confirmed,omitempty"`
}

// ActionRecord reports one tool invocation performed for a request.
type ActionRecord struct {
	Tool   string                 `json:"tool"`
	Input  map[string]interface{} `json:"input"`
	Result *ToolResult            `json:"result,omitempty"`
}

// PendingPreview is the redacted view of a pending action returned to the
// caller. It never echoes the full raw tool input.
type PendingPreview struct {
	Token         string                 `json:"token"`
	Description   string                 `json:"description"`
	ToolName      string                 `json:"toolName"`
	InputPreview  map[string]interface{} `json:"inputPreview,omitempty"`
	ExpiresAt     time.Time              `json:"expiresAt"`
	IsDestructive bool                   `json:"isDestructive"`
}

// AgentResponse is the wire-level outbound shape. Every path through the
// pipeline, including failures, returns a well-formed response.
type AgentResponse struct {
	Text                 string          `json:"text"`
	Actions              []ActionRecord  `json:"actions"`
	Payload              interface{}     `json:"payload,omitempty"`
	Domain               string          `json:"domain"`
	ConversationID       string          `json:"conversationId"`
	RequestID            string          `json:"requestId"`
	RequiresConfirmation bool            `json:"requiresConfirmation,omitempty"`
	PendingAction        *PendingPreview `json:"pendingAction,omitempty"`
}
