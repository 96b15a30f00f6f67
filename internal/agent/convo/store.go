// internal/agent/convo/store.go

// Package convo keeps short-lived per-conversation state used for
// multi-turn disambiguation. Records are keyed by the full owner triple
// (conversation, user, family) and expire lazily.
package convo

import (
	"sync"
	"time"

	"household-agent/internal/agent/core"
	"household-agent/internal/common/logger"
)

// Awaiting names the input the conversation is waiting on.
type Awaiting string

const (
	AwaitingNone         Awaiting = "none"
	AwaitingDateTime     Awaiting = "dateTime"
	AwaitingTime         Awaiting = "time"
	AwaitingTitle        Awaiting = "title"
	AwaitingConfirmation Awaiting = "confirmation"
)

// PendingTask holds a partially extracted task across turns while a
// clarifying question is outstanding.
type PendingTask struct {
	Title      string
	DueDate    *time.Time
	Assignee   string
	Priority   string
	RawMessage string
}

// PendingEvent holds a partially extracted calendar event across turns.
type PendingEvent struct {
	Title string
	Start *time.Time
	End   *time.Time
}

// Context is one conversation's state.
type Context struct {
	ConversationID string
	UserID         string
	FamilyID       string
	LastDomain     string
	AwaitingInput  Awaiting
	PendingEvent   *PendingEvent
	PendingTask    *PendingTask
	LastPlanID     string
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// Update is a partial merge: nil fields keep their previous value.
type Update struct {
	LastDomain    *string
	AwaitingInput *Awaiting
	PendingEvent  *PendingEvent
	PendingTask   *PendingTask
	LastPlanID    *string
}

type key struct {
	conversationID string
	userID         string
	familyID       string
}

// Store is a mutex-guarded in-memory context store.
type Store struct {
	mu         sync.Mutex
	items      map[key]*Context
	clock      core.Clock
	defaultTTL time.Duration
	log        logger.Logger
}

func NewStore(clock core.Clock, defaultTTL time.Duration, log logger.Logger) *Store {
	return &Store{
		items:      make(map[key]*Context),
		clock:      clock,
		defaultTTL: defaultTTL,
		log:        log,
	}
}

// Set merges the partial update into the stored context, creating it if
// absent, and refreshes the expiry from now.
func (s *Store) Set(conversationID, userID, familyID string, update Update, ttl time.Duration) *Context {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	k := key{conversationID, userID, familyID}
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(now)

	ctx, ok := s.items[k]
	if !ok || now.After(ctx.ExpiresAt) {
		ctx = &Context{
			ConversationID: conversationID,
			UserID:         userID,
			FamilyID:       familyID,
			AwaitingInput:  AwaitingNone,
			CreatedAt:      now,
		}
		s.items[k] = ctx
	}

	if update.LastDomain != nil {
		ctx.LastDomain = *update.LastDomain
	}
	if update.AwaitingInput != nil {
		ctx.AwaitingInput = *update.AwaitingInput
	}
	if update.PendingEvent != nil {
		ctx.PendingEvent = update.PendingEvent
	}
	if update.PendingTask != nil {
		ctx.PendingTask = update.PendingTask
	}
	if update.LastPlanID != nil {
		ctx.LastPlanID = *update.LastPlanID
	}
	ctx.ExpiresAt = now.Add(ttl)

	copied := *ctx
	return &copied
}

// Get returns the context or nil. An expired record reads as absent and is
// evicted on that read.
func (s *Store) Get(conversationID, userID, familyID string) *Context {
	k := key{conversationID, userID, familyID}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, ok := s.items[k]
	if !ok {
		return nil
	}
	if s.clock.Now().After(ctx.ExpiresAt) {
		delete(s.items, k)
		return nil
	}
	copied := *ctx
	return &copied
}

// Clear removes the conversation's state entirely.
func (s *Store) Clear(conversationID, userID, familyID string) {
	k := key{conversationID, userID, familyID}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, k)
}

// ClearPending nulls out pending state of the given kind ("event", "task",
// or "all") and resets awaitingInput, keeping lastDomain intact.
func (s *Store) ClearPending(conversationID, userID, familyID, kind string) {
	k := key{conversationID, userID, familyID}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, ok := s.items[k]
	if !ok || s.clock.Now().After(ctx.ExpiresAt) {
		return
	}

	switch kind {
	case "event":
		ctx.PendingEvent = nil
	case "task":
		ctx.PendingTask = nil
	case "all":
		ctx.PendingEvent = nil
		ctx.PendingTask = nil
	}
	ctx.AwaitingInput = AwaitingNone
}

func (s *Store) sweepLocked(now time.Time) {
	for k, ctx := range s.items {
		if now.After(ctx.ExpiresAt) {
			delete(s.items, k)
		}
	}
}

// Len reports the live entry count. Used by tests.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// StringPtr and AwaitingPtr build partial updates without temporaries at
// call sites.
func StringPtr(v string) *string       { return &v }
func AwaitingPtr(v Awaiting) *Awaiting { return &v }
