// internal/agent/intent/intent.go

// Package intent turns free-text messages into structured intents using
// ordered pattern tables. Each table entry carries a base confidence; the
// first structural match wins, so entries are ordered most-specific-first.
package intent

import (
	"time"

	"household-agent/internal/agent/core"
)

// Kind tags the intent variant recognized for a message.
type Kind string

const (
	KindCreate         Kind = "create"
	KindList           Kind = "list"
	KindComplete       Kind = "complete"
	KindDelete         Kind = "delete"
	KindAddShopping    Kind = "addShopping"
	KindRemoveShopping Kind = "removeShopping"
	KindListShopping   Kind = "listShopping"
	KindGeneratePlan   Kind = "generatePlan"
	KindSavePlan       Kind = "savePlan"
	KindUnclear        Kind = "unclear"
)

// ClarifyDate marks an intent whose extracted date phrase could not be
// pinned to a specific day.
const ClarifyDate = "date"

// Intent is the immutable result of parsing one message. Fields beyond the
// tag are populated per variant and only ever read.
type Intent struct {
	Domain             string
	Kind               Kind
	Confidence         float64
	NeedsClarification string

	// create / complete / delete
	Title    string
	DueDate  *time.Time
	Assignee string
	Priority string

	// shopping
	Items []string

	// generatePlan
	RangeFrom *time.Time
	RangeTo   *time.Time
}

// Parser is a per-domain intent parser.
type Parser interface {
	Domain() string
	// Matches reports whether the message carries this domain's keywords.
	// Used for routing when the request has no domain hint.
	Matches(message string) bool
	Parse(message string, rc core.RunContext) Intent
}

// Confidence discount factors applied after extraction. Kept as named
// constants so tuning stays auditable.
const (
	discountUnconfidentDate = 0.8
	discountShortTitle      = 0.7
	discountQuestion        = 0.5
)

// ClarifiedConfidence is the confidence assigned when a previously parked
// intent is completed by an explicit answer to a clarifying question. The
// ambiguity the original discount priced in no longer exists.
const ClarifiedConfidence = 0.95
