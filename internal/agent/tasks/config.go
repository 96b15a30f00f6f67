// internal/agent/tasks/config.go
package tasks

import "time"

// Config holds the tasks agent tunables.
type Config struct {
	PendingTTL      time.Duration
	ContextTTL      time.Duration
	DefaultTimezone string
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		PendingTTL:      5 * time.Minute,
		ContextTTL:      10 * time.Minute,
		DefaultTimezone: "UTC",
	}
}
