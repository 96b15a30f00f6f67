// internal/agent/datetime/resolver_test.go
package datetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func TestResolveTomorrowWithTime(t *testing.T) {
	loc := newYork(t)
	ref := time.Date(2025, 6, 10, 0, 0, 0, 0, loc)

	res := NewResolver().Resolve("tomorrow at 3pm", ref, "America/New_York")

	require.NotNil(t, res.Instant)
	assert.True(t, res.Confident)
	assert.Equal(t, "tomorrow at 3pm", res.MatchedText)
	// EDT is UTC-4, so 15:00 local is 19:00 UTC.
	assert.Equal(t, time.Date(2025, 6, 11, 19, 0, 0, 0, time.UTC), res.Instant.UTC())
}

func TestResolveNextWeekNeverConfident(t *testing.T) {
	ref := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	res := NewResolver().Resolve("next week", ref, "UTC")

	require.NotNil(t, res.Instant)
	assert.False(t, res.Confident)
	assert.Equal(t, "next week", res.MatchedText)
}

func TestResolveWeekday(t *testing.T) {
	// Reference is Tuesday 2025-06-10.
	ref := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	r := NewResolver()

	t.Run("upcoming saturday with time", func(t *testing.T) {
		res := r.Resolve("saturday 10am", ref, "UTC")
		require.NotNil(t, res.Instant)
		assert.True(t, res.Confident)
		assert.Equal(t, time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC), res.Instant.UTC())
	})

	t.Run("same weekday rolls a week out", func(t *testing.T) {
		res := r.Resolve("tuesday", ref, "UTC")
		require.NotNil(t, res.Instant)
		assert.Equal(t, time.Date(2025, 6, 17, 9, 0, 0, 0, time.UTC), res.Instant.UTC())
	})
}

func TestResolvePMBias(t *testing.T) {
	ref := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	r := NewResolver()

	tests := []struct {
		name     string
		text     string
		wantHour int
	}{
		{"bare 3 is 15h", "tomorrow at 3", 15},
		{"bare 7 is 19h", "tomorrow at 7", 19},
		{"bare 8 stays 8h", "tomorrow at 8", 8},
		{"explicit am wins", "tomorrow at 3am", 3},
		{"explicit pm", "tomorrow at 10pm", 22},
		{"no time defaults to 9h", "tomorrow", 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Resolve(tt.text, ref, "UTC")
			require.NotNil(t, res.Instant)
			assert.Equal(t, tt.wantHour, res.Instant.UTC().Hour())
		})
	}
}

func TestResolveISO(t *testing.T) {
	ref := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	r := NewResolver()

	t.Run("date only in caller zone", func(t *testing.T) {
		loc := newYork(t)
		res := r.Resolve("2025-07-04", ref.In(loc), "America/New_York")
		require.NotNil(t, res.Instant)
		assert.True(t, res.Confident)
		assert.Equal(t, time.Date(2025, 7, 4, 13, 0, 0, 0, time.UTC), res.Instant.UTC())
	})

	t.Run("datetime with zulu suffix", func(t *testing.T) {
		res := r.Resolve("2025-07-04 18:30z", ref, "America/New_York")
		require.NotNil(t, res.Instant)
		assert.Equal(t, time.Date(2025, 7, 4, 18, 30, 0, 0, time.UTC), res.Instant.UTC())
	})
}

func TestResolveOffsets(t *testing.T) {
	ref := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	r := NewResolver()

	t.Run("in hours", func(t *testing.T) {
		res := r.Resolve("in 3 hours", ref, "UTC")
		require.NotNil(t, res.Instant)
		assert.True(t, res.Confident)
		assert.Equal(t, time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC), res.Instant.UTC())
	})

	t.Run("in days lands at default hour", func(t *testing.T) {
		res := r.Resolve("in 2 days", ref, "UTC")
		require.NotNil(t, res.Instant)
		assert.Equal(t, time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC), res.Instant.UTC())
	})

	t.Run("in minutes", func(t *testing.T) {
		res := r.Resolve("in 45 minutes", ref, "UTC")
		require.NotNil(t, res.Instant)
		assert.Equal(t, time.Date(2025, 6, 10, 8, 45, 0, 0, time.UTC), res.Instant.UTC())
	})
}

func TestResolveNoMatch(t *testing.T) {
	ref := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	res := NewResolver().Resolve("buy milk", ref, "UTC")

	assert.Nil(t, res.Instant)
	assert.False(t, res.Confident)
	assert.Empty(t, res.MatchedText)
}

func TestResolveInvalidTimezoneFallsBackToUTC(t *testing.T) {
	ref := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	res := NewResolver().Resolve("tomorrow at 10am", ref, "Mars/Olympus")

	require.NotNil(t, res.Instant)
	assert.Equal(t, "UTC", res.Timezone)
	assert.Equal(t, time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC), res.Instant.UTC())
}

func TestResolveRange(t *testing.T) {
	// Reference is Tuesday 2025-06-10; the Sunday-started week began 06-08.
	ref := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	r := NewResolver()

	t.Run("this week starts sunday", func(t *testing.T) {
		rng, ok := r.ResolveRange("what's on this week", ref, "UTC")
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), rng.From)
		assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), rng.To)
	})

	t.Run("next week", func(t *testing.T) {
		rng, ok := r.ResolveRange("plan meals for next week", ref, "UTC")
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), rng.From)
		assert.Equal(t, time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC), rng.To)
	})

	t.Run("this month", func(t *testing.T) {
		rng, ok := r.ResolveRange("tasks this month", ref, "UTC")
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), rng.From)
		assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), rng.To)
	})

	t.Run("no range phrase", func(t *testing.T) {
		_, ok := r.ResolveRange("buy milk", ref, "UTC")
		assert.False(t, ok)
	})
}
