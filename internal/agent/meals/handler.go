// internal/agent/meals/handler.go

// Package meals orchestrates the meal planning and shopping list domain.
package meals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"household-agent/internal/agent/convo"
	"household-agent/internal/agent/core"
	"household-agent/internal/agent/gate"
	"household-agent/internal/agent/intent"
	"household-agent/internal/agent/pending"
	"household-agent/internal/agent/prefs"
	"household-agent/internal/common/errors"
	"household-agent/internal/common/logger"
	"household-agent/internal/common/metrics"
)

type Handler struct {
	cfg      Config
	parser   *intent.MealParser
	prefs    prefs.Store
	gate     *gate.Decider
	pending  pending.Store
	contexts *convo.Store
	executor core.ToolExecutor
	log      logger.Logger
}

func NewHandler(
	cfg Config,
	parser *intent.MealParser,
	prefStore prefs.Store,
	decider *gate.Decider,
	pendingStore pending.Store,
	contexts *convo.Store,
	executor core.ToolExecutor,
	log logger.Logger,
) *Handler {
	return &Handler{
		cfg:      cfg,
		parser:   parser,
		prefs:    prefStore,
		gate:     decider,
		pending:  pendingStore,
		contexts: contexts,
		executor: executor,
		log:      log,
	}
}

func (h *Handler) Domain() string { return "meals" }

func (h *Handler) Matches(message string) bool { return h.parser.Matches(message) }

func (h *Handler) Handle(ctx context.Context, message string, rc core.RunContext) *core.AgentResponse {
	resp := h.newResponse(rc)

	it := h.parser.Parse(message, rc)
	metrics.IntentsParsed.WithLabelValues("meals", string(it.Kind)).Inc()

	switch it.Kind {
	case intent.KindAddShopping:
		call := core.ToolCall{ToolName: ToolAddShopping, Input: map[string]interface{}{"items": it.Items}}
		return h.dispatchWrite(ctx, rc, resp, call, it.Confidence,
			fmt.Sprintf("Add %s to the shopping list", joinItems(it.Items)))
	case intent.KindRemoveShopping:
		call := core.ToolCall{ToolName: ToolRemoveShopping, Input: map[string]interface{}{"items": it.Items}}
		return h.dispatchWrite(ctx, rc, resp, call, it.Confidence,
			fmt.Sprintf("Remove %s from the shopping list", joinItems(it.Items)))
	case intent.KindListShopping:
		return h.execute(ctx, rc, resp, core.ToolCall{ToolName: ToolListShopping, Input: map[string]interface{}{}})
	case intent.KindGeneratePlan:
		return h.handleGeneratePlan(ctx, it, rc, resp)
	case intent.KindSavePlan:
		return h.handleSavePlan(ctx, it, rc, resp)
	default:
		resp.Text = "I wasn't sure what you'd like. You can say things like \"buy milk\", \"plan meals for next week\" or \"show the shopping list\"."
		return resp
	}
}

func (h *Handler) handleGeneratePlan(ctx context.Context, it intent.Intent, rc core.RunContext, resp *core.AgentResponse) *core.AgentResponse {
	input := map[string]interface{}{
		"startDate": it.RangeFrom.UTC().Format(time.RFC3339),
		"endDate":   it.RangeTo.UTC().Format(time.RFC3339),
	}

	// Family food preferences shape the plan; a failed load just means an
	// unconstrained plan.
	stored, err := h.prefs.GetBulk(ctx, rc.FamilyID, "meals")
	if err != nil {
		h.log.WithError(errors.NewPreferenceLoadFailedError(err)).Warn("preference load failed, generating unconstrained plan", map[string]interface{}{
			"family_id": rc.FamilyID,
		})
		stored = nil
	}
	merged := prefs.Merge(nil, stored)
	for _, key := range []string{prefDietary, prefExcluded, prefMealsPerDay, prefServings, prefCuisineHints} {
		if v, ok := merged[key]; ok {
			input[key] = v
		}
	}

	call := core.ToolCall{ToolName: ToolGeneratePlan, Input: input}
	return h.dispatchWrite(ctx, rc, resp, call, it.Confidence, "Generate a meal plan for the week")
}

func (h *Handler) handleSavePlan(ctx context.Context, it intent.Intent, rc core.RunContext, resp *core.AgentResponse) *core.AgentResponse {
	cc := h.contexts.Get(rc.ConversationID, rc.UserID, rc.FamilyID)
	if cc == nil || cc.LastPlanID == "" {
		resp.Text = "There's no recently generated meal plan to save. Ask me to plan meals first."
		return resp
	}

	call := core.ToolCall{ToolName: ToolSavePlan, Input: map[string]interface{}{"planId": cc.LastPlanID}}
	return h.dispatchWrite(ctx, rc, resp, call, it.Confidence, "Save the generated meal plan")
}

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
		LastDomain:    convo.StringPtr("meals"),
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

	update := convo.Update{
		LastDomain:    convo.StringPtr("meals"),
		AwaitingInput: convo.AwaitingPtr(convo.AwaitingNone),
	}
	if call.ToolName == ToolGeneratePlan {
		if planID := extractPlanID(result.Data); planID != "" {
			update.LastPlanID = convo.StringPtr(planID)
		}
	}
	h.contexts.Set(rc.ConversationID, rc.UserID, rc.FamilyID, update, h.cfg.ContextTTL)

	resp.Payload = result.Data
	resp.Text = h.successText(call)
	return resp
}

func (h *Handler) successText(call core.ToolCall) string {
	switch call.ToolName {
	case ToolAddShopping:
		return "Added to the shopping list."
	case ToolRemoveShopping:
		return "Removed from the shopping list."
	case ToolListShopping:
		return "Here's your shopping list."
	case ToolGeneratePlan:
		return "Here's a meal plan for the week. Say \"save the plan\" to keep it."
	case ToolSavePlan:
		return "The meal plan is saved."
	default:
		return "Done."
	}
}

func extractPlanID(data interface{}) string {
	m, ok := data.(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := m["planId"].(string)
	return id
}

func joinItems(items []string) string {
	switch len(items) {
	case 0:
		return "nothing"
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

func (h *Handler) newResponse(rc core.RunContext) *core.AgentResponse {
	return &core.AgentResponse{
		Domain:         "meals",
		ConversationID: rc.ConversationID,
		RequestID:      rc.RequestID,
		Actions:        []core.ActionRecord{},
	}
}
