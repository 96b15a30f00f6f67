// internal/agent/intent/tasks_test.go
package intent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"household-agent/internal/agent/core"
	"household-agent/internal/agent/datetime"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func newTaskParser() *TaskParser {
	// Tuesday 2025-06-10.
	clock := fixedClock{now: time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)}
	return NewTaskParser(datetime.NewResolver(), clock)
}

func runCtx() core.RunContext {
	return core.RunContext{
		RequestID: "req-1",
		UserID:    "user-1",
		FamilyID:  "family-1",
		Timezone:  "UTC",
	}
}

func TestTaskParserCreateWithConfidentDate(t *testing.T) {
	p := newTaskParser()

	it := p.Parse("create a task: call the dentist tomorrow at 10am", runCtx())

	assert.Equal(t, KindCreate, it.Kind)
	assert.Equal(t, "call the dentist", it.Title)
	assert.Empty(t, it.NeedsClarification)
	require.NotNil(t, it.DueDate)
	assert.Equal(t, time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC), it.DueDate.UTC())
	assert.InDelta(t, 0.95, it.Confidence, 0.001)
}

func TestTaskParserCreateWithAmbiguousDate(t *testing.T) {
	p := newTaskParser()

	it := p.Parse("remind me to water the plants next week", runCtx())

	assert.Equal(t, KindCreate, it.Kind)
	assert.Equal(t, ClarifyDate, it.NeedsClarification)
	// The ambiguous phrase stays in the title.
	assert.Contains(t, it.Title, "next week")
	// 0.90 base discounted by 0.8 for the unconfident date.
	assert.InDelta(t, 0.72, it.Confidence, 0.001)
}

func TestTaskParserExtractsPriorityAndAssignee(t *testing.T) {
	p := newTaskParser()

	it := p.Parse("create a task: take out the trash urgent for Alex", runCtx())

	assert.Equal(t, KindCreate, it.Kind)
	assert.Equal(t, "high", it.Priority)
	assert.Equal(t, "Alex", it.Assignee)
	assert.Equal(t, "take out the trash", it.Title)
}

func TestTaskParserLowPriority(t *testing.T) {
	p := newTaskParser()

	it := p.Parse("create a task: organize the garage low priority", runCtx())

	assert.Equal(t, "low", it.Priority)
	assert.Equal(t, "organize the garage", it.Title)
}

func TestTaskParserDiscounts(t *testing.T) {
	p := newTaskParser()

	t.Run("short title", func(t *testing.T) {
		it := p.Parse("create a task: mop", runCtx())
		assert.Equal(t, KindCreate, it.Kind)
		// 0.95 base discounted by 0.7 for a title under 5 characters.
		assert.InDelta(t, 0.665, it.Confidence, 0.001)
	})

	t.Run("question mark halves confidence", func(t *testing.T) {
		it := p.Parse("create a task: should we repaint the fence?", runCtx())
		assert.InDelta(t, 0.475, it.Confidence, 0.001)
	})

	t.Run("short title counts runes not bytes", func(t *testing.T) {
		// "café" is 4 characters but 5 bytes in UTF-8.
		it := p.Parse("create a task: café", runCtx())
		assert.Equal(t, "café", it.Title)
		assert.InDelta(t, 0.665, it.Confidence, 0.001)
	})
}

func TestTaskParserComplete(t *testing.T) {
	p := newTaskParser()

	it := p.Parse("complete: fold the laundry", runCtx())

	assert.Equal(t, KindComplete, it.Kind)
	assert.Equal(t, "fold the laundry", it.Title)
	assert.InDelta(t, 0.85, it.Confidence, 0.001)
}

func TestTaskParserDelete(t *testing.T) {
	p := newTaskParser()

	it := p.Parse("delete the task: walk the dog", runCtx())

	assert.Equal(t, KindDelete, it.Kind)
	assert.Equal(t, "walk the dog", it.Title)
}

func TestTaskParserList(t *testing.T) {
	p := newTaskParser()

	it := p.Parse("show me my tasks", runCtx())

	assert.Equal(t, KindList, it.Kind)
	assert.InDelta(t, 0.95, it.Confidence, 0.001)
}

func TestTaskParserImplicitCreateFallback(t *testing.T) {
	p := newTaskParser()

	it := p.Parse("dentist appointment task sometime", runCtx())

	assert.Equal(t, KindCreate, it.Kind)
	assert.LessOrEqual(t, it.Confidence, 0.60)
}

func TestTaskParserUnclear(t *testing.T) {
	p := newTaskParser()

	it := p.Parse("blue is my favorite color", runCtx())

	assert.Equal(t, KindUnclear, it.Kind)
	assert.Zero(t, it.Confidence)
}

func TestTaskParserMatches(t *testing.T) {
	p := newTaskParser()

	assert.True(t, p.Matches("add a task for me"))
	assert.True(t, p.Matches("remind me to stretch"))
	assert.False(t, p.Matches("buy milk"))
}
