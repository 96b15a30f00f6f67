// internal/agent/tasks/models.go
package tasks

import "time"

// Tool IDs the tasks agent dispatches to.
const (
	ToolCreate   = "tasks.create"
	ToolList     = "tasks.list"
	ToolComplete = "tasks.complete"
	ToolDelete   = "tasks.delete"
)

// taskDraft is the normalized task payload assembled from the intent and
// merged preferences before it becomes a tool input.
type taskDraft struct {
	Title    string
	DueDate  *time.Time
	Assignee string
	Priority string
}

func (d taskDraft) toolInput() map[string]interface{} {
	input := map[string]interface{}{
		"title": d.Title,
	}
	if d.DueDate != nil {
		input["dueDate"] = d.DueDate.UTC().Format(time.RFC3339)
	}
	if d.Assignee != "" {
		input["assignee"] = d.Assignee
	}
	if d.Priority != "" {
		input["priority"] = d.Priority
	}
	return input
}
