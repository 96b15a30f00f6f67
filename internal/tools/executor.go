// internal/tools/executor.go

// Package tools implements the effectful side of the pipeline: a
// PostgreSQL-backed ToolExecutor for the built-in task, shopping, and meal
// plan tools. Inputs are validated against the registry schema before any
// row is touched.
package tools

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"household-agent/internal/agent/core"
	"household-agent/internal/common/errors"
	"household-agent/internal/common/logger"
	"household-agent/pkg/registry"
)

// PostgresExecutor executes tool calls against the family database. The
// caller identity travels in the context, attached by the coordinator.
type PostgresExecutor struct {
	db       *sql.DB
	registry *registry.Registry
	clock    core.Clock
	log      logger.Logger
}

func NewPostgresExecutor(db *sql.DB, reg *registry.Registry, clock core.Clock, log logger.Logger) *PostgresExecutor {
	return &PostgresExecutor{db: db, registry: reg, clock: clock, log: log}
}

func (e *PostgresExecutor) Execute(ctx context.Context, toolName string, input map[string]interface{}) (*core.ToolResult, error) {
	start := e.clock.Now()

	if _, ok := e.registry.Find(toolName); !ok {
		return nil, errors.NewToolNotRegisteredError(toolName)
	}
	if err := e.registry.ValidateInput(toolName, input); err != nil {
		e.log.WithError(errors.NewToolInputInvalidError(toolName, err.Error())).Warn("tool input rejected", map[string]interface{}{
			"tool": toolName,
		})
		return e.failure(start, "the request didn't match what this action expects"), nil
	}

	rc, ok := core.RunContextFrom(ctx)
	if !ok {
		return nil, fmt.Errorf("execute %s: no run context attached", toolName)
	}

	var (
		data interface{}
		err  error
	)
	switch toolName {
	case "tasks.create":
		data, err = e.createTask(ctx, rc, input)
	case "tasks.list":
		data, err = e.listTasks(ctx, rc, input)
	case "tasks.complete":
		data, err = e.completeTask(ctx, rc, input)
	case "tasks.delete":
		data, err = e.deleteTask(ctx, rc, input)
	case "shopping.addItems":
		data, err = e.addShoppingItems(ctx, rc, input)
	case "shopping.removeItems":
		data, err = e.removeShoppingItems(ctx, rc, input)
	case "shopping.list":
		data, err = e.listShoppingItems(ctx, rc)
	case "meals.generatePlan":
		data, err = e.generateMealPlan(ctx, rc, input)
	case "meals.savePlan":
		data, err = e.saveMealPlan(ctx, rc, input)
	default:
		return nil, errors.NewToolNotRegisteredError(toolName)
	}

	if err != nil {
		e.log.WithError(err).Error("tool execution failed", map[string]interface{}{
			"tool":      toolName,
			"family_id": rc.FamilyID,
		})
		if stdErr, ok := err.(*stepError); ok {
			return e.failure(start, stdErr.userMessage), nil
		}
		return e.failure(start, "something went wrong while applying the change"), nil
	}

	return &core.ToolResult{
		Success:     true,
		Data:        data,
		ExecutionMs: e.clock.Now().Sub(start).Milliseconds(),
	}, nil
}

func (e *PostgresExecutor) failure(start time.Time, message string) *core.ToolResult {
	return &core.ToolResult{
		Success:     false,
		Error:       message,
		ExecutionMs: e.clock.Now().Sub(start).Milliseconds(),
	}
}

// stepError carries a message safe to show to the end user.
type stepError struct {
	userMessage string
	cause       error
}

func (s *stepError) Error() string {
	if s.cause != nil {
		return fmt.Sprintf("%s: %v", s.userMessage, s.cause)
	}
	return s.userMessage
}

func userErr(message string) error {
	return &stepError{userMessage: message}
}

// --- tasks ---

func (e *PostgresExecutor) createTask(ctx context.Context, rc core.RunContext, input map[string]interface{}) (interface{}, error) {
	title, _ := input["title"].(string)
	assignee, _ := input["assignee"].(string)
	priority, _ := input["priority"].(string)
	if priority == "" {
		priority = "medium"
	}

	var due sql.NullTime
	if raw, ok := input["dueDate"].(string); ok {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, userErr("the due date couldn't be read")
		}
		due = sql.NullTime{Time: parsed.UTC(), Valid: true}
	}

	id := uuid.NewString()
	_, err := e.db.ExecContext(ctx, `
		INSERT INTO tasks (id, family_id, created_by, title, due_date, assignee, priority, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'open', $8)`,
		id, rc.FamilyID, rc.UserID, title, due, nullStr(assignee), priority, e.clock.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return map[string]interface{}{"taskId": id}, nil
}

func (e *PostgresExecutor) listTasks(ctx context.Context, rc core.RunContext, input map[string]interface{}) (interface{}, error) {
	query := `
		SELECT id, title, due_date, assignee, priority, status
		FROM tasks
		WHERE family_id = $1 AND status = 'open'`
	args := []interface{}{rc.FamilyID}
	if assignee, ok := input["assignee"].(string); ok && assignee != "" {
		query += " AND lower(assignee) = lower($2)"
		args = append(args, assignee)
	}
	query += " ORDER BY due_date NULLS LAST, title"

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []map[string]interface{}{}
	for rows.Next() {
		var (
			id, title, priority, status string
			due                         sql.NullTime
			assignee                    sql.NullString
		)
		if err := rows.Scan(&id, &title, &due, &assignee, &priority, &status); err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		task := map[string]interface{}{
			"id":       id,
			"title":    title,
			"priority": priority,
			"status":   status,
		}
		if due.Valid {
			task["dueDate"] = due.Time.UTC().Format(time.RFC3339)
		}
		if assignee.Valid {
			task["assignee"] = assignee.String
		}
		tasks = append(tasks, task)
	}
	return map[string]interface{}{"tasks": tasks}, rows.Err()
}

func (e *PostgresExecutor) completeTask(ctx context.Context, rc core.RunContext, input map[string]interface{}) (interface{}, error) {
	title, _ := input["title"].(string)

	res, err := e.db.ExecContext(ctx, `
		UPDATE tasks SET status = 'done', completed_at = $3
		WHERE family_id = $1 AND lower(title) = lower($2) AND status = 'open'`,
		rc.FamilyID, title, e.clock.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return nil, userErr(fmt.Sprintf("no open task named %q was found", title))
	}
	return map[string]interface{}{"completed": affected}, nil
}

func (e *PostgresExecutor) deleteTask(ctx context.Context, rc core.RunContext, input map[string]interface{}) (interface{}, error) {
	title, _ := input["title"].(string)

	res, err := e.db.ExecContext(ctx, `
		DELETE FROM tasks
		WHERE family_id = $1 AND lower(title) = lower($2)`,
		rc.FamilyID, title)
	if err != nil {
		return nil, fmt.Errorf("delete task: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return nil, userErr(fmt.Sprintf("no task named %q was found", title))
	}
	return map[string]interface{}{"deleted": affected}, nil
}

// --- shopping ---

func (e *PostgresExecutor) addShoppingItems(ctx context.Context, rc core.RunContext, input map[string]interface{}) (interface{}, error) {
	items := stringItems(input["items"])
	if len(items) == 0 {
		return nil, userErr("no items to add")
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin add items: %w", err)
	}
	defer tx.Rollback()

	now := e.clock.Now().UTC()
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO shopping_items (id, family_id, added_by, item, added_at)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), rc.FamilyID, rc.UserID, item, now); err != nil {
			return nil, fmt.Errorf("insert shopping item: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add items: %w", err)
	}
	return map[string]interface{}{"added": len(items)}, nil
}

func (e *PostgresExecutor) removeShoppingItems(ctx context.Context, rc core.RunContext, input map[string]interface{}) (interface{}, error) {
	items := stringItems(input["items"])
	if len(items) == 0 {
		return nil, userErr("no items to remove")
	}
	lowered := make([]string, len(items))
	for i, item := range items {
		lowered[i] = strings.ToLower(item)
	}

	res, err := e.db.ExecContext(ctx, `
		DELETE FROM shopping_items
		WHERE family_id = $1 AND lower(item) = ANY($2)`,
		rc.FamilyID, pq.Array(lowered))
	if err != nil {
		return nil, fmt.Errorf("remove shopping items: %w", err)
	}
	affected, _ := res.RowsAffected()
	return map[string]interface{}{"removed": affected}, nil
}

func (e *PostgresExecutor) listShoppingItems(ctx context.Context, rc core.RunContext) (interface{}, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT item FROM shopping_items
		WHERE family_id = $1
		ORDER BY added_at, item`,
		rc.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	items := []string{}
	for rows.Next() {
		var item string
		if err := rows.Scan(&item); err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		items = append(items, item)
	}
	return map[string]interface{}{"items": items}, rows.Err()
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func stringItems(v interface{}) []string {
	switch items := v.(type) {
	case []string:
		return items
	case []interface{}:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
