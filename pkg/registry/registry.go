// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Registry indexes tools by ID and validates tool inputs against their
// declared JSON schema.
type Registry struct {
	tools map[string]Tool
}

// Load reads a tool registry file and builds the index.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ToolRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	return New(&reg), nil
}

// New builds a registry index from an already-parsed ToolRegistry.
func New(reg *ToolRegistry) *Registry {
	idx := make(map[string]Tool, len(reg.Tools))
	for _, t := range reg.Tools {
		idx[t.ID] = t
	}
	return &Registry{tools: idx}
}

// Find returns the tool with the given ID.
func (r *Registry) Find(id string) (Tool, bool) {
	t, ok := r.tools[id]
	return t, ok
}

// IDs returns all registered tool IDs.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.tools))
	for id := range r.tools {
		out = append(out, id)
	}
	return out
}

// ValidateInput checks the tool input against the tool's inputSchema.
// Tools without a schema accept any input.
func (r *Registry) ValidateInput(id string, input map[string]interface{}) error {
	tool, ok := r.tools[id]
	if !ok {
		return fmt.Errorf("tool %s not registered", id)
	}
	if tool.InputSchema == nil {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(tool.InputSchema)
	inputLoader := gojsonschema.NewGoLoader(input)

	result, err := gojsonschema.Validate(schemaLoader, inputLoader)
	if err != nil {
		return fmt.Errorf("schema validation error for %s: %w", id, err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("input for %s failed validation: %s", id, strings.Join(msgs, "; "))
	}
	return nil
}

// Builtin returns the registry shipped with the service. It is used when
// no registry file is configured and by tests.
func Builtin() *Registry {
	return New(&ToolRegistry{
		Version:     "1.0.0",
		LastUpdated: "2026-08-01",
		Tools: []Tool{
			{
				ID:          "tasks.create",
				DisplayName: "Create Task",
				Description: "Create a household task with optional due date and assignee",
				Category:    "tasks",
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"title"},
					"properties": map[string]interface{}{
						"title":    map[string]interface{}{"type": "string", "minLength": 1},
						"dueDate":  map[string]interface{}{"type": "string"},
						"assignee": map[string]interface{}{"type": "string"},
						"priority": map[string]interface{}{"type": "string", "enum": []interface{}{"low", "medium", "high"}},
					},
				},
				Tags: []string{"tasks", "write"},
			},
			{
				ID:          "tasks.list",
				DisplayName: "List Tasks",
				Description: "List open tasks for the family",
				Category:    "tasks",
				ReadOnly:    true,
				InputSchema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"assignee": map[string]interface{}{"type": "string"},
						"status":   map[string]interface{}{"type": "string"},
					},
				},
				Tags: []string{"tasks", "read"},
			},
			{
				ID:          "tasks.complete",
				DisplayName: "Complete Task",
				Description: "Mark a task as done",
				Category:    "tasks",
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"title"},
					"properties": map[string]interface{}{
						"title": map[string]interface{}{"type": "string", "minLength": 1},
					},
				},
				Tags: []string{"tasks", "write"},
			},
			{
				ID:          "tasks.delete",
				DisplayName: "Delete Task",
				Description: "Permanently remove a task",
				Category:    "tasks",
				Destructive: true,
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"title"},
					"properties": map[string]interface{}{
						"title": map[string]interface{}{"type": "string", "minLength": 1},
					},
				},
				Tags: []string{"tasks", "destructive"},
			},
			{
				ID:          "shopping.addItems",
				DisplayName: "Add Shopping Items",
				Description: "Add one or more items to the family shopping list",
				Category:    "meals",
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"items"},
					"properties": map[string]interface{}{
						"items": map[string]interface{}{
							"type":     "array",
							"minItems": 1,
							"items":    map[string]interface{}{"type": "string"},
						},
					},
				},
				Tags: []string{"shopping", "write"},
			},
			{
				ID:          "shopping.removeItems",
				DisplayName: "Remove Shopping Items",
				Description: "Remove items from the family shopping list",
				Category:    "meals",
				Destructive: true,
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"items"},
					"properties": map[string]interface{}{
						"items": map[string]interface{}{
							"type":     "array",
							"minItems": 1,
							"items":    map[string]interface{}{"type": "string"},
						},
					},
				},
				Tags: []string{"shopping", "destructive"},
			},
			{
				ID:          "shopping.list",
				DisplayName: "Show Shopping List",
				Description: "Show the current family shopping list",
				Category:    "meals",
				ReadOnly:    true,
				InputSchema: map[string]interface{}{
					"type":       "object",
					"properties": map[string]interface{}{},
				},
				Tags: []string{"shopping", "read"},
			},
			{
				ID:          "meals.generatePlan",
				DisplayName: "Generate Meal Plan",
				Description: "Generate a weekly meal plan honoring family preferences",
				Category:    "meals",
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"startDate", "endDate"},
					"properties": map[string]interface{}{
						"startDate":    map[string]interface{}{"type": "string"},
						"endDate":      map[string]interface{}{"type": "string"},
						"dietary":      map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
						"excluded":     map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
						"mealsPerDay":  map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 5},
						"servings":     map[string]interface{}{"type": "integer", "minimum": 1},
						"cuisineHints": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
					},
				},
				Tags: []string{"meals", "write"},
			},
			{
				ID:          "meals.savePlan",
				DisplayName: "Save Meal Plan",
				Description: "Persist a generated meal plan for the family",
				Category:    "meals",
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"planId"},
					"properties": map[string]interface{}{
						"planId": map[string]interface{}{"type": "string", "minLength": 1},
					},
				},
				Tags: []string{"meals", "write"},
			},
		},
	})
}
