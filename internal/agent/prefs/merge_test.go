// internal/agent/prefs/merge_test.go
package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeMessageOverridesStored(t *testing.T) {
	stored := map[string]interface{}{
		"defaultPriority": "low",
		"servings":        float64(4),
	}
	message := map[string]interface{}{
		"defaultPriority": "high",
	}

	merged := Merge(message, stored)

	assert.Equal(t, "high", merged["defaultPriority"])
	assert.Equal(t, float64(4), merged["servings"])
}

func TestMergeSetValuedFieldsUnion(t *testing.T) {
	stored := map[string]interface{}{
		"allergies": []interface{}{"peanuts", "shellfish"},
	}
	message := map[string]interface{}{
		"allergies": []interface{}{"shellfish", "gluten"},
	}

	merged := Merge(message, stored)

	assert.Equal(t, []interface{}{"peanuts", "shellfish", "gluten"}, merged["allergies"])
}

func TestMergeStringSlices(t *testing.T) {
	stored := map[string]interface{}{
		"excluded": []string{"mushrooms"},
	}
	message := map[string]interface{}{
		"excluded": []string{"olives", "mushrooms"},
	}

	merged := Merge(message, stored)

	assert.Equal(t, []interface{}{"mushrooms", "olives"}, merged["excluded"])
}

func TestMergeEmptySides(t *testing.T) {
	t.Run("no stored preferences", func(t *testing.T) {
		merged := Merge(map[string]interface{}{"a": 1}, nil)
		assert.Equal(t, 1, merged["a"])
	})

	t.Run("no message constraints", func(t *testing.T) {
		merged := Merge(nil, map[string]interface{}{"b": 2})
		assert.Equal(t, 2, merged["b"])
	})

	t.Run("both empty", func(t *testing.T) {
		merged := Merge(nil, nil)
		assert.Empty(t, merged)
	})
}

func TestMergeScalarReplacesStoredSlice(t *testing.T) {
	// A scalar message value over a stored slice is a replace, not a union.
	stored := map[string]interface{}{"assignee": []interface{}{"Alex"}}
	message := map[string]interface{}{"assignee": "Sam"}

	merged := Merge(message, stored)

	assert.Equal(t, "Sam", merged["assignee"])
}
