// internal/tools/executor_test.go
package tools

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"household-agent/internal/agent/core"
	"household-agent/internal/common/logger"
	"household-agent/pkg/registry"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func setupExecutor(t *testing.T) (*PostgresExecutor, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := fixedClock{now: time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)}
	exec := NewPostgresExecutor(db, registry.Builtin(), clock, logger.NewTestLogger(t))
	return exec, mock
}

func execCtx() context.Context {
	return core.WithRunContext(context.Background(), core.RunContext{
		RequestID: "req-1",
		UserID:    "user-1",
		FamilyID:  "family-1",
	})
}

func TestExecuteCreateTask(t *testing.T) {
	exec, mock := setupExecutor(t)

	mock.ExpectExec("INSERT INTO tasks").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := exec.Execute(execCtx(), "tasks.create", map[string]interface{}{
		"title":    "call the dentist",
		"dueDate":  "2025-06-11T10:00:00Z",
		"assignee": "Alex",
		"priority": "high",
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["taskId"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteListTasks(t *testing.T) {
	exec, mock := setupExecutor(t)

	rows := sqlmock.NewRows([]string{"id", "title", "due_date", "assignee", "priority", "status"}).
		AddRow("t-1", "water the plants", time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC), "Alex", "medium", "open").
		AddRow("t-2", "fix the fence", nil, nil, "high", "open")
	mock.ExpectQuery("SELECT id, title, due_date, assignee, priority, status").
		WithArgs("family-1").
		WillReturnRows(rows)

	result, err := exec.Execute(execCtx(), "tasks.list", map[string]interface{}{})
	require.NoError(t, err)
	require.True(t, result.Success)

	data := result.Data.(map[string]interface{})
	tasks := data["tasks"].([]map[string]interface{})
	require.Len(t, tasks, 2)
	assert.Equal(t, "water the plants", tasks[0]["title"])
	assert.Equal(t, "2025-06-12T09:00:00Z", tasks[0]["dueDate"])
	_, hasDue := tasks[1]["dueDate"]
	assert.False(t, hasDue)
}

func TestExecuteCompleteTaskNotFound(t *testing.T) {
	exec, mock := setupExecutor(t)

	mock.ExpectExec("UPDATE tasks SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	result, err := exec.Execute(execCtx(), "tasks.complete", map[string]interface{}{
		"title": "does not exist",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "does not exist")
}

func TestExecuteDeleteTask(t *testing.T) {
	exec, mock := setupExecutor(t)

	mock.ExpectExec("DELETE FROM tasks").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := exec.Execute(execCtx(), "tasks.delete", map[string]interface{}{
		"title": "walk the dog",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestExecuteAddShoppingItems(t *testing.T) {
	exec, mock := setupExecutor(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO shopping_items").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO shopping_items").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := exec.Execute(execCtx(), "shopping.addItems", map[string]interface{}{
		"items": []string{"milk", "eggs"},
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	data := result.Data.(map[string]interface{})
	assert.Equal(t, 2, data["added"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteRemoveShoppingItems(t *testing.T) {
	exec, mock := setupExecutor(t)

	mock.ExpectExec("DELETE FROM shopping_items").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := exec.Execute(execCtx(), "shopping.removeItems", map[string]interface{}{
		"items": []string{"milk"},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestExecuteListShopping(t *testing.T) {
	exec, mock := setupExecutor(t)

	rows := sqlmock.NewRows([]string{"item"}).AddRow("milk").AddRow("eggs")
	mock.ExpectQuery("SELECT item FROM shopping_items").
		WithArgs("family-1").
		WillReturnRows(rows)

	result, err := exec.Execute(execCtx(), "shopping.list", map[string]interface{}{})
	require.NoError(t, err)
	require.True(t, result.Success)

	data := result.Data.(map[string]interface{})
	assert.Equal(t, []string{"milk", "eggs"}, data["items"])
}

func TestExecuteGenerateMealPlan(t *testing.T) {
	exec, mock := setupExecutor(t)

	mock.ExpectExec("INSERT INTO meal_plans").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := exec.Execute(execCtx(), "meals.generatePlan", map[string]interface{}{
		"startDate": "2025-06-15T00:00:00Z",
		"endDate":   "2025-06-22T00:00:00Z",
		"excluded":  []string{"mushrooms"},
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	data := result.Data.(map[string]interface{})
	assert.NotEmpty(t, data["planId"])
	days := data["days"].([]planDay)
	require.Len(t, days, 7)
	for _, day := range days {
		for _, meal := range day.Meals {
			for _, ing := range meal.Ingredients {
				assert.NotEqual(t, "mushrooms", ing)
			}
		}
	}
}

func TestExecuteSaveMealPlan(t *testing.T) {
	exec, mock := setupExecutor(t)

	mock.ExpectExec("UPDATE meal_plans SET saved").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := exec.Execute(execCtx(), "meals.savePlan", map[string]interface{}{
		"planId": "plan-123",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestExecuteUnknownTool(t *testing.T) {
	exec, _ := setupExecutor(t)

	_, err := exec.Execute(execCtx(), "garage.openDoor", map[string]interface{}{})
	assert.Error(t, err)
}

func TestExecuteSchemaRejection(t *testing.T) {
	exec, _ := setupExecutor(t)

	// tasks.create without the required title never reaches the database.
	result, err := exec.Execute(execCtx(), "tasks.create", map[string]interface{}{
		"priority": "high",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestExecuteWithoutRunContext(t *testing.T) {
	exec, _ := setupExecutor(t)

	_, err := exec.Execute(context.Background(), "tasks.list", map[string]interface{}{})
	assert.Error(t, err)
}
