// internal/agent/pending/memory.go
package pending

import (
	"context"
	"sync"
	"time"

	"household-agent/internal/agent/core"
	"household-agent/internal/common/logger"
)

// MemoryStore keeps pending actions in a mutex-guarded map. Expiry is lazy:
// checked on access, plus an opportunistic sweep on every mutating call.
type MemoryStore struct {
	mu         sync.Mutex
	items      map[string]*Action
	clock      core.Clock
	defaultTTL time.Duration
	log        logger.Logger
}

func NewMemoryStore(clock core.Clock, defaultTTL time.Duration, log logger.Logger) *MemoryStore {
	return &MemoryStore{
		items:      make(map[string]*Action),
		clock:      clock,
		defaultTTL: defaultTTL,
		log:        log,
	}
}

func (s *MemoryStore) Create(ctx context.Context, params CreateParams) (*Action, error) {
	ttl := params.TTL
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	action := &Action{
		Token:          NewToken(),
		UserID:         params.UserID,
		FamilyID:       params.FamilyID,
		RequestID:      params.RequestID,
		ConversationID: params.ConversationID,
		ToolCall:       params.ToolCall,
		Description:    params.Description,
		IsDestructive:  params.IsDestructive,
		CreatedAt:      s.clock.Now(),
		TTL:            ttl,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.items[action.Token] = action

	s.log.Debug("pending action created", map[string]interface{}{
		"token":       action.Token,
		"tool":        action.ToolCall.ToolName,
		"destructive": action.IsDestructive,
	})
	return action, nil
}

func (s *MemoryStore) Get(ctx context.Context, token, callerUserID, callerFamilyID string) (*Action, Reason, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	action, reason := s.lookupLocked(token, callerUserID, callerFamilyID)
	if reason != ReasonNone {
		return nil, reason, nil
	}
	copied := *action
	return &copied, ReasonNone, nil
}

func (s *MemoryStore) Consume(ctx context.Context, token, callerUserID, callerFamilyID string) (*Action, Reason, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	action, reason := s.lookupLocked(token, callerUserID, callerFamilyID)
	if reason != ReasonNone {
		s.log.Info("pending consume rejected", map[string]interface{}{
			"reason": string(reason),
		})
		return nil, reason, nil
	}

	// Check and delete happen under the same lock, so a racing consume on
	// the same token observes not-found.
	delete(s.items, token)
	copied := *action
	return &copied, ReasonNone, nil
}

// lookupLocked validates existence, expiry, and ownership. Callers hold mu.
func (s *MemoryStore) lookupLocked(token, callerUserID, callerFamilyID string) (*Action, Reason) {
	action, ok := s.items[token]
	if !ok {
		return nil, ReasonNotFound
	}
	if s.clock.Now().After(action.ExpiresAt()) {
		delete(s.items, token)
		return nil, ReasonExpired
	}
	if action.UserID != callerUserID || action.FamilyID != callerFamilyID {
		return nil, ReasonWrongOwner
	}
	return action, ReasonNone
}

func (s *MemoryStore) sweepLocked() {
	now := s.clock.Now()
	for token, action := range s.items {
		if now.After(action.ExpiresAt()) {
			delete(s.items, token)
		}
	}
}

// Len reports the live entry count. Used by tests.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
