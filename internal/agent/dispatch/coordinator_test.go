// internal/agent/dispatch/coordinator_test.go
package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"household-agent/internal/agent/convo"
	"household-agent/internal/agent/core"
	"household-agent/internal/agent/datetime"
	"household-agent/internal/agent/gate"
	"household-agent/internal/agent/intent"
	"household-agent/internal/agent/meals"
	"household-agent/internal/agent/notify"
	"household-agent/internal/agent/pending"
	"household-agent/internal/agent/tasks"
	"household-agent/internal/common/logger"
	"household-agent/pkg/registry"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type fakeExecutor struct {
	mu    sync.Mutex
	calls []core.ToolCall
}

func (f *fakeExecutor) Execute(ctx context.Context, toolName string, input map[string]interface{}) (*core.ToolResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, core.ToolCall{ToolName: toolName, Input: input})
	return &core.ToolResult{Success: true, ExecutionMs: 2}, nil
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeExecutor) lastCall() core.ToolCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type fakePrefs struct{}

func (fakePrefs) GetBulk(ctx context.Context, familyID, domain string) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func setupCoordinator(t *testing.T) (*Coordinator, *fakeExecutor) {
	t.Helper()

	// Tuesday 2025-06-10.
	clock := fixedClock{now: time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)}
	log := logger.NewTestLogger(t)
	resolver := datetime.NewResolver()
	executor := &fakeExecutor{}
	reg := registry.Builtin()
	decider := gate.NewDecider(reg, 0.85)
	pendingStore := pending.NewMemoryStore(clock, 5*time.Minute, log)
	contexts := convo.NewStore(clock, 10*time.Minute, log)

	taskHandler := tasks.NewHandler(
		tasks.DefaultConfig(),
		intent.NewTaskParser(resolver, clock),
		resolver,
		fakePrefs{},
		decider,
		pendingStore,
		contexts,
		executor,
		notify.NopNotifier{},
		clock,
		log,
	)
	mealHandler := meals.NewHandler(
		meals.DefaultConfig(),
		intent.NewMealParser(resolver, clock),
		fakePrefs{},
		decider,
		pendingStore,
		contexts,
		executor,
		log,
	)

	coord := NewCoordinator(
		[]DomainHandler{taskHandler, mealHandler},
		pendingStore,
		contexts,
		executor,
		nil,
		clock,
		10*time.Minute,
		log,
	)
	return coord, executor
}

func identity() Identity {
	return Identity{
		UserID:         "user-1",
		FamilyID:       "family-1",
		FamilyMemberID: "member-1",
		Timezone:       "UTC",
	}
}

func TestScenarioConfidentCreateExecutesImmediately(t *testing.T) {
	coord, executor := setupCoordinator(t)

	resp := coord.Process(context.Background(), &core.AgentRequest{
		Message: "create a task: call the dentist tomorrow at 10am",
	}, identity())

	assert.False(t, resp.RequiresConfirmation)
	assert.Equal(t, "tasks", resp.Domain)
	require.Len(t, resp.Actions, 1)
	assert.Equal(t, "tasks.create", resp.Actions[0].Tool)
	assert.Equal(t, "call the dentist", resp.Actions[0].Input["title"])
	assert.Equal(t, 1, executor.callCount())
	assert.NotEmpty(t, resp.RequestID)
	assert.NotEmpty(t, resp.ConversationID)
}

func TestScenarioLowConfidenceConfirmationFlow(t *testing.T) {
	coord, executor := setupCoordinator(t)
	ctx := context.Background()

	resp := coord.Process(ctx, &core.AgentRequest{
		Message:        "buy milk",
		ConversationID: "conv-1",
	}, identity())

	require.True(t, resp.RequiresConfirmation)
	require.NotNil(t, resp.PendingAction)
	assert.False(t, resp.PendingAction.IsDestructive)
	assert.Zero(t, executor.callCount())

	// The follow-up carries the token and no message.
	confirm := coord.Process(ctx, &core.AgentRequest{
		ConversationID:    "conv-1",
		ConfirmationToken: resp.PendingAction.Token,
		Confirmed:         true,
	}, identity())

	assert.Equal(t, "meals", confirm.Domain)
	require.Len(t, confirm.Actions, 1)
	assert.Equal(t, "shopping.addItems", confirm.Actions[0].Tool)
	assert.Equal(t, []string{"milk"}, confirm.Actions[0].Input["items"])
	assert.Equal(t, 1, executor.callCount())
}

func TestScenarioTokenReplayIsRejected(t *testing.T) {
	coord, executor := setupCoordinator(t)
	ctx := context.Background()

	resp := coord.Process(ctx, &core.AgentRequest{Message: "buy milk"}, identity())
	require.NotNil(t, resp.PendingAction)
	token := resp.PendingAction.Token

	first := coord.Process(ctx, &core.AgentRequest{ConfirmationToken: token}, identity())
	require.Len(t, first.Actions, 1)

	second := coord.Process(ctx, &core.AgentRequest{ConfirmationToken: token}, identity())
	assert.Empty(t, second.Actions)
	assert.Equal(t, genericInvalidToken, second.Text)
	assert.Equal(t, 1, executor.callCount(), "the tool must not run a second time")
}

func TestTokenFromAnotherUserIsRejectedGenerically(t *testing.T) {
	coord, executor := setupCoordinator(t)
	ctx := context.Background()

	resp := coord.Process(ctx, &core.AgentRequest{Message: "buy milk"}, identity())
	require.NotNil(t, resp.PendingAction)

	other := identity()
	other.UserID = "user-2"
	stolen := coord.Process(ctx, &core.AgentRequest{ConfirmationToken: resp.PendingAction.Token}, other)

	assert.Empty(t, stolen.Actions)
	// Wrong-owner reads exactly like expired, no oracle for an attacker.
	assert.Equal(t, genericInvalidToken, stolen.Text)
	assert.Zero(t, executor.callCount())
}

func TestMalformedTokenFailsValidationNotLookup(t *testing.T) {
	coord, executor := setupCoordinator(t)

	resp := coord.Process(context.Background(), &core.AgentRequest{
		ConfirmationToken: "pa_not-a-real-token",
	}, identity())

	assert.Contains(t, resp.Text, "couldn't be processed")
	assert.Zero(t, executor.callCount())
}

func TestClarificationFollowUpRoutesToLastDomain(t *testing.T) {
	coord, executor := setupCoordinator(t)
	ctx := context.Background()

	resp := coord.Process(ctx, &core.AgentRequest{
		Message:        "remind me to water the plants next week",
		ConversationID: "conv-1",
	}, identity())
	assert.Empty(t, resp.Actions)

	// The answer has no task keywords; the awaiting context routes it.
	answer := coord.Process(ctx, &core.AgentRequest{
		Message:        "friday at 3pm",
		ConversationID: "conv-1",
	}, identity())

	assert.Equal(t, "tasks", answer.Domain)
	require.Len(t, answer.Actions, 1)
	assert.Equal(t, "tasks.create", answer.Actions[0].Tool)
	assert.Equal(t, 1, executor.callCount())
}

func TestDomainHintOverridesKeywordRouting(t *testing.T) {
	coord, _ := setupCoordinator(t)

	resp := coord.Process(context.Background(), &core.AgentRequest{
		Message:    "show the shopping list",
		DomainHint: "meals",
	}, identity())

	assert.Equal(t, "meals", resp.Domain)
}

func TestUnroutableMessageGetsHelpText(t *testing.T) {
	coord, executor := setupCoordinator(t)

	resp := coord.Process(context.Background(), &core.AgentRequest{
		Message: "the weather is nice",
	}, identity())

	assert.Equal(t, "none", resp.Domain)
	assert.Zero(t, executor.callCount())
	assert.NotEmpty(t, resp.Text)
}

func TestEmptyMessageIsRejected(t *testing.T) {
	coord, _ := setupCoordinator(t)

	resp := coord.Process(context.Background(), &core.AgentRequest{Message: "   "}, identity())

	assert.Contains(t, resp.Text, "couldn't be processed")
}
