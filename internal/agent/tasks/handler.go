// internal/agent/tasks/handler.go

// Package tasks orchestrates the task domain: parse the message, merge
// stored preferences, gate on confidence and destructiveness, then either
// execute the tool call or park it behind a confirmation token.
package tasks

import (
	"context"
	"fmt"
	"time"

	"household-agent/internal/agent/convo"
	"household-agent/internal/agent/core"
	"household-agent/internal/agent/datetime"
	"household-agent/internal/agent/gate"
	"household-agent/internal/agent/intent"
	"household-agent/internal/agent/notify"
	"household-agent/internal/agent/pending"
	"household-agent/internal/agent/prefs"
	"household-agent/internal/common/errors"
	"household-agent/internal/common/logger"
	"household-agent/internal/common/metrics"
)

type Handler struct {
	cfg      Config
	parser   *intent.TaskParser
	resolver *datetime.Resolver
	prefs    prefs.Store
	gate     *gate.Decider
	pending  pending.Store
	contexts *convo.Store
	executor core.ToolExecutor
	notifier notify.Notifier
	clock    core.Clock
	log      logger.Logger
}

func NewHandler(
	cfg Config,
	parser *intent.TaskParser,
	resolver *datetime.Resolver,
	prefStore prefs.Store,
	decider *gate.Decider,
	pendingStore pending.Store,
	contexts *convo.Store,
	executor core.ToolExecutor,
	notifier notify.Notifier,
	clock core.Clock,
	log logger.Logger,
) *Handler {
	return &Handler{
		cfg:      cfg,
		parser:   parser,
		resolver: resolver,
		prefs:    prefStore,
		gate:     decider,
		pending:  pendingStore,
		contexts: contexts,
		executor: executor,
		notifier: notifier,
		clock:    clock,
		log:      log,
	}
}

func (h *Handler) Domain() string { return "tasks" }

func (h *Handler) Matches(message string) bool { return h.parser.Matches(message) }

func (h *Handler) Handle(ctx context.Context, message string, rc core.RunContext) *core.AgentResponse {
	resp := h.newResponse(rc)

	if cc := h.contexts.Get(rc.ConversationID, rc.UserID, rc.FamilyID); cc != nil &&
		cc.AwaitingInput == convo.AwaitingDateTime && cc.PendingTask != nil {
		return h.handleDateAnswer(ctx, message, rc, cc, resp)
	}

	it := h.parser.Parse(message, rc)
	metrics.IntentsParsed.WithLabelValues("tasks", string(it.Kind)).Inc()

	switch it.Kind {
	case intent.KindCreate:
		return h.handleCreate(ctx, it, rc, resp)
	case intent.KindComplete:
		call := core.ToolCall{ToolName: ToolComplete, Input: map[string]interface{}{"title": it.Title}}
		return h.dispatchWrite(ctx, rc, resp, call, it.Confidence,
			fmt.Sprintf("Mark %q as done", it.Title))
	case intent.KindDelete:
		call := core.ToolCall{ToolName: ToolDelete, Input: map[string]interface{}{"title": it.Title}}
		return h.dispatchWrite(ctx, rc, resp, call, it.Confidence,
			fmt.Sprintf("Delete the task %q", it.Title))
	case intent.KindList:
		input := map[string]interface{}{}
		if it.Assignee != "" {
			input["assignee"] = it.Assignee
		}
		return h.execute(ctx, rc, resp, core.ToolCall{ToolName: ToolList, Input: input})
	default:
		resp.Text = "I wasn't sure what you'd like to do with your tasks. You can say things like \"create a task: water the plants tomorrow\" or \"show my tasks\"."
		return resp
	}
}

func (h *Handler) handleCreate(ctx context.Context, it intent.Intent, rc core.RunContext, resp *core.AgentResponse) *core.AgentResponse {
	if it.NeedsClarification == intent.ClarifyDate {
		h.log.WithError(errors.NewParseAmbiguityError("due date phrase could not be pinned to a day")).Info("asking for a due date", map[string]interface{}{
			"request_id": rc.RequestID,
		})
		h.contexts.Set(rc.ConversationID, rc.UserID, rc.FamilyID, convo.Update{
			LastDomain:    convo.StringPtr("tasks"),
			AwaitingInput: convo.AwaitingPtr(convo.AwaitingDateTime),
			PendingTask: &convo.PendingTask{
				Title:    it.Title,
				Assignee: it.Assignee,
				Priority: it.Priority,
			},
		}, h.cfg.ContextTTL)
		resp.Text = fmt.Sprintf("When exactly should %q be due? For example \"tomorrow at 5pm\" or \"saturday\".", it.Title)
		return resp
	}

	draft := h.applyPreferences(ctx, rc, taskDraft{
		Title:    it.Title,
		DueDate:  it.DueDate,
		Assignee: it.Assignee,
		Priority: it.Priority,
	})

	call := core.ToolCall{ToolName: ToolCreate, Input: draft.toolInput()}
	return h.dispatchWrite(ctx, rc, resp, call, it.Confidence,
		fmt.Sprintf("Create the task %q", draft.Title))
}

// handleDateAnswer finishes a create that was parked on a date question.
func (h *Handler) handleDateAnswer(ctx context.Context, message string, rc core.RunContext, cc *convo.Context, resp *core.AgentResponse) *core.AgentResponse {
	res := h.resolver.Resolve(message, h.clock.Now(), h.timezone(rc))
	if res.Instant == nil || !res.Confident {
		resp.Text = "I still couldn't pin down a date. Try something like \"friday at 3pm\" or \"in 2 days\"."
		return resp
	}

	h.contexts.ClearPending(rc.ConversationID, rc.UserID, rc.FamilyID, "task")

	draft := h.applyPreferences(ctx, rc, taskDraft{
		Title:    cc.PendingTask.Title,
		DueDate:  res.Instant,
		Assignee: cc.PendingTask.Assignee,
		Priority: cc.PendingTask.Priority,
	})

	call := core.ToolCall{ToolName: ToolCreate, Input: draft.toolInput()}
	return h.dispatchWrite(ctx, rc, resp, call, intent.ClarifiedConfidence,
		fmt.Sprintf("Create the task %q", draft.Title))
}

// applyPreferences overlays message-extracted fields on the family's stored
// task defaults. A failed load degrades to message data only.
func (h *Handler) applyPreferences(ctx context.Context, rc core.RunContext, draft taskDraft) taskDraft {
	stored, err := h.prefs.GetBulk(ctx, rc.FamilyID, "tasks")
	if err != nil {
		h.log.WithError(errors.NewPreferenceLoadFailedError(err)).Warn("preference load failed, continuing without stored defaults", map[string]interface{}{
			"family_id": rc.FamilyID,
		})
		return draft
	}

	constraints := map[string]interface{}{}
	if draft.Assignee != "" {
		constraints["assignee"] = draft.Assignee
	}
	if draft.Priority != "" {
		constraints["priority"] = draft.Priority
	}

	merged := prefs.Merge(constraints, stored)
	if v, ok := merged["assignee"].(string); ok {
		draft.Assignee = v
	}
	if v, ok := merged["priority"].(string); ok {
		draft.Priority = v
	}
	return draft
}

// dispatchWrite routes a write-capable tool call through the gate.
func (h *Handler) dispatchWrite(ctx context.Context, rc core.RunContext, resp *core.AgentResponse, call core.ToolCall, confidence float64, description string) *core.AgentResponse {
	destructive := h.gate.IsDestructive(call.ToolName)
	if !h.gate.RequiresConfirmation(call.ToolName, confidence, destructive) {
		return h.execute(ctx, rc, resp, call)
	}

	metrics.ConfirmationsRequired.WithLabelValues(call.ToolName).Inc()

	action, err := h.pending.Create(ctx, pending.CreateParams{
		UserID:         rc.UserID,
		FamilyID:       rc.FamilyID,
		RequestID:      rc.RequestID,
		ConversationID: rc.ConversationID,
		ToolCall:       call,
		Description:    description,
		IsDestructive:  destructive,
		TTL:            h.cfg.PendingTTL,
	})
	if err != nil {
		h.log.WithError(err).Error("failed to create pending action", map[string]interface{}{
			"tool": call.ToolName,
		})
		resp.Text = "Something went wrong while preparing that action. Please try again."
		return resp
	}

	h.contexts.Set(rc.ConversationID, rc.UserID, rc.FamilyID, convo.Update{
		LastDomain:    convo.StringPtr("tasks"),
		AwaitingInput: convo.AwaitingPtr(convo.AwaitingConfirmation),
	}, h.cfg.ContextTTL)

	resp.RequiresConfirmation = true
	resp.PendingAction = &core.PendingPreview{
		Token:         action.Token,
		Description:   action.Description,
		ToolName:      call.ToolName,
		InputPreview:  core.PreviewInput(call.Input),
		ExpiresAt:     action.ExpiresAt(),
		IsDestructive: destructive,
	}
	if destructive {
		resp.Text = fmt.Sprintf("%s? This can't be undone, so please confirm.", description)
	} else {
		resp.Text = fmt.Sprintf("Just to be sure: %s?", description)
	}
	return resp
}

func (h *Handler) execute(ctx context.Context, rc core.RunContext, resp *core.AgentResponse, call core.ToolCall) *core.AgentResponse {
	result, err := h.executor.Execute(ctx, call.ToolName, call.Input)
	if err != nil {
		metrics.ToolExecutions.WithLabelValues(call.ToolName, "error").Inc()
		h.log.WithError(errors.NewToolExecutionFailedError(call.ToolName, err)).Error("tool execution failed", map[string]interface{}{
			"tool": call.ToolName,
		})
		resp.Text = "Sorry, that didn't work. Please try again."
		return resp
	}

	resp.Actions = append(resp.Actions, core.ActionRecord{
		Tool:   call.ToolName,
		Input:  call.Input,
		Result: result,
	})

	if !result.Success {
		metrics.ToolExecutions.WithLabelValues(call.ToolName, "failure").Inc()
		resp.Text = fmt.Sprintf("That didn't work: %s", result.Error)
		return resp
	}
	metrics.ToolExecutions.WithLabelValues(call.ToolName, "success").Inc()

	h.contexts.Set(rc.ConversationID, rc.UserID, rc.FamilyID, convo.Update{
		LastDomain:    convo.StringPtr("tasks"),
		AwaitingInput: convo.AwaitingPtr(convo.AwaitingNone),
	}, h.cfg.ContextTTL)

	resp.Payload = result.Data
	resp.Text = h.successText(call, result)
	h.notifyAssignee(ctx, call)
	return resp
}

func (h *Handler) successText(call core.ToolCall, result *core.ToolResult) string {
	switch call.ToolName {
	case ToolCreate:
		title, _ := call.Input["title"].(string)
		return fmt.Sprintf("Done, I've added %q to your tasks.", title)
	case ToolComplete:
		title, _ := call.Input["title"].(string)
		return fmt.Sprintf("Nice work, %q is marked as done.", title)
	case ToolDelete:
		title, _ := call.Input["title"].(string)
		return fmt.Sprintf("The task %q has been deleted.", title)
	case ToolList:
		return "Here are your tasks."
	default:
		return "Done."
	}
}

func (h *Handler) notifyAssignee(ctx context.Context, call core.ToolCall) {
	if call.ToolName != ToolCreate {
		return
	}
	assignee, _ := call.Input["assignee"].(string)
	if assignee == "" {
		return
	}
	title, _ := call.Input["title"].(string)
	var due *time.Time
	if raw, ok := call.Input["dueDate"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			due = &parsed
		}
	}
	if err := h.notifier.TaskAssigned(ctx, assignee, title, due); err != nil {
		h.log.WithError(err).Warn("assignee notification failed", map[string]interface{}{
			"assignee": assignee,
		})
	}
}

func (h *Handler) newResponse(rc core.RunContext) *core.AgentResponse {
	return &core.AgentResponse{
		Domain:         "tasks",
		ConversationID: rc.ConversationID,
		RequestID:      rc.RequestID,
		Actions:        []core.ActionRecord{},
	}
}

func (h *Handler) timezone(rc core.RunContext) string {
	if rc.Timezone != "" {
		return rc.Timezone
	}
	return h.cfg.DefaultTimezone
}
