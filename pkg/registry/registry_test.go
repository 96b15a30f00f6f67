// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinRegistry(t *testing.T) {
	reg := Builtin()

	t.Run("contains all tool IDs", func(t *testing.T) {
		for _, id := range []string{
			"tasks.create", "tasks.list", "tasks.complete", "tasks.delete",
			"shopping.addItems", "shopping.removeItems", "shopping.list",
			"meals.generatePlan", "meals.savePlan",
		} {
			_, ok := reg.Find(id)
			assert.True(t, ok, "expected tool %s", id)
		}
	})

	t.Run("flags are consistent", func(t *testing.T) {
		del, _ := reg.Find("tasks.delete")
		assert.True(t, del.Destructive)
		assert.False(t, del.ReadOnly)

		list, _ := reg.Find("tasks.list")
		assert.True(t, list.ReadOnly)
		assert.False(t, list.Destructive)

		create, _ := reg.Find("tasks.create")
		assert.False(t, create.Destructive)
		assert.False(t, create.ReadOnly)
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, ok := reg.Find("garage.openDoor")
		assert.False(t, ok)
	})
}

func TestValidateInput(t *testing.T) {
	reg := Builtin()

	tests := []struct {
		name    string
		tool    string
		input   map[string]interface{}
		wantErr bool
	}{
		{
			name: "valid task create",
			tool: "tasks.create",
			input: map[string]interface{}{
				"title":    "call the dentist",
				"dueDate":  "2026-09-01T13:00:00Z",
				"priority": "high",
			},
			wantErr: false,
		},
		{
			name:    "task create missing title",
			tool:    "tasks.create",
			input:   map[string]interface{}{"priority": "high"},
			wantErr: true,
		},
		{
			name:    "task create bad priority",
			tool:    "tasks.create",
			input:   map[string]interface{}{"title": "x", "priority": "urgent"},
			wantErr: true,
		},
		{
			name:    "shopping add empty items",
			tool:    "shopping.addItems",
			input:   map[string]interface{}{"items": []interface{}{}},
			wantErr: true,
		},
		{
			name:    "shopping add valid",
			tool:    "shopping.addItems",
			input:   map[string]interface{}{"items": []interface{}{"milk", "eggs"}},
			wantErr: false,
		},
		{
			name:    "unregistered tool",
			tool:    "garage.openDoor",
			input:   map[string]interface{}{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.ValidateInput(tt.tool, tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tools.json")

	content := `{
		"version": "1.0.0",
		"lastUpdated": "2026-08-01",
		"tools": [
			{
				"id": "tasks.list",
				"displayName": "List Tasks",
				"category": "tasks",
				"readOnly": true,
				"inputSchema": {"type": "object"}
			}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reg, err := Load(path)
	require.NoError(t, err)

	tool, ok := reg.Find("tasks.list")
	require.True(t, ok)
	assert.True(t, tool.ReadOnly)
	assert.Equal(t, "List Tasks", tool.DisplayName)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
