// internal/agent/intent/meals_test.go
package intent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"household-agent/internal/agent/datetime"
)

func newMealParser() *MealParser {
	// Tuesday 2025-06-10.
	clock := fixedClock{now: time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)}
	return NewMealParser(datetime.NewResolver(), clock)
}

func TestMealParserBuyMilk(t *testing.T) {
	p := newMealParser()

	it := p.Parse("buy milk", runCtx())

	assert.Equal(t, KindAddShopping, it.Kind)
	assert.Equal(t, []string{"milk"}, it.Items)
	assert.InDelta(t, 0.80, it.Confidence, 0.001)
}

func TestMealParserAddMultipleItems(t *testing.T) {
	p := newMealParser()

	it := p.Parse("add milk, eggs and bread to the shopping list", runCtx())

	assert.Equal(t, KindAddShopping, it.Kind)
	assert.Equal(t, []string{"milk", "eggs", "bread"}, it.Items)
	assert.InDelta(t, 0.90, it.Confidence, 0.001)
}

func TestMealParserRemoveShopping(t *testing.T) {
	p := newMealParser()

	it := p.Parse("remove milk from the shopping list", runCtx())

	assert.Equal(t, KindRemoveShopping, it.Kind)
	assert.Equal(t, []string{"milk"}, it.Items)
}

func TestMealParserListShopping(t *testing.T) {
	p := newMealParser()

	for _, msg := range []string{
		"show the shopping list",
		"what's on the grocery list",
	} {
		it := p.Parse(msg, runCtx())
		assert.Equal(t, KindListShopping, it.Kind, msg)
		assert.InDelta(t, 0.95, it.Confidence, 0.001)
	}
}

func TestMealParserGeneratePlan(t *testing.T) {
	p := newMealParser()

	it := p.Parse("plan meals for next week", runCtx())

	assert.Equal(t, KindGeneratePlan, it.Kind)
	require.NotNil(t, it.RangeFrom)
	require.NotNil(t, it.RangeTo)
	// Sunday-started week after the reference week.
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), it.RangeFrom.UTC())
	assert.Equal(t, time.Date(2025, 6, 22, 0, 0, 0, 0, time.UTC), it.RangeTo.UTC())
}

func TestMealParserGeneratePlanDefaultsToNextWeek(t *testing.T) {
	p := newMealParser()

	it := p.Parse("make a meal plan", runCtx())

	assert.Equal(t, KindGeneratePlan, it.Kind)
	require.NotNil(t, it.RangeFrom)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), it.RangeFrom.UTC())
}

func TestMealParserSavePlan(t *testing.T) {
	p := newMealParser()

	it := p.Parse("save the meal plan", runCtx())

	assert.Equal(t, KindSavePlan, it.Kind)
	assert.InDelta(t, 0.90, it.Confidence, 0.001)
}

func TestMealParserUnclear(t *testing.T) {
	p := newMealParser()

	it := p.Parse("the weather is nice", runCtx())

	assert.Equal(t, KindUnclear, it.Kind)
	assert.Zero(t, it.Confidence)
}

func TestMealParserMatches(t *testing.T) {
	p := newMealParser()

	assert.True(t, p.Matches("buy milk"))
	assert.True(t, p.Matches("what should we cook"))
	assert.False(t, p.Matches("show me my tasks"))
}
