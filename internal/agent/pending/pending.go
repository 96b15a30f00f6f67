// internal/agent/pending/pending.go

// Package pending owns the confirmation token lifecycle: issuance, lookup,
// exactly-once consumption, and expiry. Failed lookups carry an internal
// reason for logging; callers collapse every failure to one generic
// "invalid or expired" message so the reasons never leak externally.
package pending

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"household-agent/internal/agent/core"
)

// Reason classifies a failed lookup for server-side logs only.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonNotFound   Reason = "not_found"
	ReasonExpired    Reason = "expired"
	ReasonWrongOwner Reason = "wrong_owner"
)

// Action is a proposed tool call awaiting confirmation, addressable by a
// one-time token bound to the (user, family) pair that created it.
type Action struct {
	Token          string        `json:"token"`
	UserID         string        `json:"userId"`
	FamilyID       string        `json:"familyId"`
	RequestID      string        `json:"requestId"`
	ConversationID string        `json:"conversationId"`
	ToolCall       core.ToolCall `json:"toolCall"`
	Description    string        `json:"description"`
	IsDestructive  bool          `json:"isDestructive"`
	CreatedAt      time.Time     `json:"createdAt"`
	TTL            time.Duration `json:"ttlMs"`
}

// ExpiresAt returns the instant after which the token is unusable.
func (a *Action) ExpiresAt() time.Time {
	return a.CreatedAt.Add(a.TTL)
}

// CreateParams carries everything needed to issue a pending action.
type CreateParams struct {
	UserID         string
	FamilyID       string
	RequestID      string
	ConversationID string
	ToolCall       core.ToolCall
	Description    string
	IsDestructive  bool
	TTL            time.Duration
}

// Store is the token lifecycle contract. Get and Consume fail closed: an
// unknown, expired, or owner-mismatched token yields a nil action and a
// Reason. Consume additionally removes the record atomically so concurrent
// consumers of the same token cannot both succeed.
type Store interface {
	Create(ctx context.Context, params CreateParams) (*Action, error)
	Get(ctx context.Context, token, callerUserID, callerFamilyID string) (*Action, Reason, error)
	Consume(ctx context.Context, token, callerUserID, callerFamilyID string) (*Action, Reason, error)
}

// NewToken generates an unguessable confirmation token: "pa_" followed by
// 32 lowercase hex characters.
func NewToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in no state to issue
		// security tokens at all.
		panic(err)
	}
	return "pa_" + hex.EncodeToString(buf)
}
