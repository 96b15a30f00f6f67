// internal/agent/dispatch/coordinator.go

// Package dispatch routes inbound messages to domain agents and owns the
// confirmation follow-up path.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"household-agent/internal/agent/convo"
	"household-agent/internal/agent/core"
	"household-agent/internal/agent/pending"
	"household-agent/internal/common/errors"
	"household-agent/internal/common/logger"
	"household-agent/internal/common/metrics"
	"household-agent/internal/common/observability"
)

// genericInvalidToken is the single message every failed token lookup maps
// to. The specific reason stays in server logs.
const genericInvalidToken = "That confirmation is invalid or has expired. Please start over."

// DomainHandler is one domain agent as seen by the coordinator.
type DomainHandler interface {
	Domain() string
	Matches(message string) bool
	Handle(ctx context.Context, message string, rc core.RunContext) *core.AgentResponse
}

// Identity is the authenticated caller, supplied by the host.
type Identity struct {
	UserID         string
	FamilyID       string
	FamilyMemberID string
	Timezone       string
}

type Coordinator struct {
	handlers   []DomainHandler
	pending    pending.Store
	contexts   *convo.Store
	executor   core.ToolExecutor
	obs        *observability.Observability
	clock      core.Clock
	contextTTL time.Duration
	log        logger.Logger
}

func NewCoordinator(
	handlers []DomainHandler,
	pendingStore pending.Store,
	contexts *convo.Store,
	executor core.ToolExecutor,
	obs *observability.Observability,
	clock core.Clock,
	contextTTL time.Duration,
	log logger.Logger,
) *Coordinator {
	return &Coordinator{
		handlers:   handlers,
		pending:    pendingStore,
		contexts:   contexts,
		executor:   executor,
		obs:        obs,
		clock:      clock,
		contextTTL: contextTTL,
		log:        log,
	}
}

// Process runs one request through the pipeline. Every path returns a
// well-formed response; nothing propagates to the caller as a panic or a
// bare error.
func (c *Coordinator) Process(ctx context.Context, req *core.AgentRequest, id Identity) *core.AgentResponse {
	start := c.clock.Now()
	requestID := uuid.NewString()

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	rc := core.RunContext{
		RequestID:      requestID,
		UserID:         id.UserID,
		FamilyID:       id.FamilyID,
		FamilyMemberID: id.FamilyMemberID,
		Timezone:       id.Timezone,
		ConversationID: conversationID,
		Logger:         c.log,
	}

	if err := core.ValidateRequest(req); err != nil {
		c.log.WithError(err).Warn("request failed validation", map[string]interface{}{
			"request_id": requestID,
		})
		metrics.AgentRequests.WithLabelValues("none", "invalid").Inc()
		return &core.AgentResponse{
			Text:           "Your message couldn't be processed. Please check it and try again.",
			Actions:        []core.ActionRecord{},
			Domain:         "none",
			ConversationID: conversationID,
			RequestID:      requestID,
		}
	}

	ctx = core.WithRunContext(ctx, rc)

	var resp *core.AgentResponse
	if req.ConfirmationToken != "" {
		resp = c.processConfirmation(ctx, req.ConfirmationToken, rc)
	} else {
		resp = c.routeMessage(ctx, req, rc)
	}

	outcome := responseOutcome(resp)
	metrics.AgentRequests.WithLabelValues(resp.Domain, outcome).Inc()
	metrics.RequestDuration.WithLabelValues(resp.Domain).Observe(c.clock.Now().Sub(start).Seconds())
	if c.obs != nil {
		c.obs.RecordRequestProcessed(ctx, outcome)
		c.obs.RecordRequestDuration(ctx, c.clock.Now().Sub(start), outcome)
	}
	return resp
}

// processConfirmation consumes the token and executes the stored tool call
// verbatim. The input is never re-derived from the original message, so
// what the user confirmed is exactly what runs.
func (c *Coordinator) processConfirmation(ctx context.Context, token string, rc core.RunContext) *core.AgentResponse {
	resp := &core.AgentResponse{
		Actions:        []core.ActionRecord{},
		Domain:         "none",
		ConversationID: rc.ConversationID,
		RequestID:      rc.RequestID,
	}

	action, reason, err := c.pending.Consume(ctx, token, rc.UserID, rc.FamilyID)
	if err != nil {
		c.log.WithError(errors.NewStoreUnavailableError(err)).Error("pending store unavailable", map[string]interface{}{
			"request_id": rc.RequestID,
		})
		metrics.PendingConsumed.WithLabelValues("store_error").Inc()
		resp.Text = "Something went wrong on our side. Please try again."
		return resp
	}
	if action == nil {
		// The typed detail stays in logs; the caller sees the generic text.
		c.log.WithError(errors.NewInvalidOrExpiredTokenError(string(reason))).Info("confirmation rejected", map[string]interface{}{
			"request_id": rc.RequestID,
		})
		metrics.PendingConsumed.WithLabelValues(string(reason)).Inc()
		resp.Text = genericInvalidToken
		return resp
	}
	metrics.PendingConsumed.WithLabelValues("consumed").Inc()

	resp.Domain = domainOfTool(action.ToolCall.ToolName)
	result, err := c.executor.Execute(ctx, action.ToolCall.ToolName, action.ToolCall.Input)
	if err != nil {
		metrics.ToolExecutions.WithLabelValues(action.ToolCall.ToolName, "error").Inc()
		c.log.WithError(errors.NewToolExecutionFailedError(action.ToolCall.ToolName, err)).Error("confirmed tool execution failed", map[string]interface{}{
			"tool": action.ToolCall.ToolName,
		})
		resp.Text = "Sorry, that didn't work. Please try again."
		return resp
	}

	resp.Actions = append(resp.Actions, core.ActionRecord{
		Tool:   action.ToolCall.ToolName,
		Input:  action.ToolCall.Input,
		Result: result,
	})

	if !result.Success {
		metrics.ToolExecutions.WithLabelValues(action.ToolCall.ToolName, "failure").Inc()
		resp.Text = fmt.Sprintf("That didn't work: %s", result.Error)
		return resp
	}
	metrics.ToolExecutions.WithLabelValues(action.ToolCall.ToolName, "success").Inc()

	c.contexts.Set(rc.ConversationID, rc.UserID, rc.FamilyID, convo.Update{
		LastDomain:    convo.StringPtr(resp.Domain),
		AwaitingInput: convo.AwaitingPtr(convo.AwaitingNone),
	}, c.contextTTL)

	resp.Payload = result.Data
	resp.Text = fmt.Sprintf("Confirmed: %s.", lowerFirst(action.Description))
	return resp
}

func (c *Coordinator) routeMessage(ctx context.Context, req *core.AgentRequest, rc core.RunContext) *core.AgentResponse {
	if handler := c.pickHandler(req, rc); handler != nil {
		return handler.Handle(ctx, req.Message, rc)
	}

	return &core.AgentResponse{
		Text:           "I can help with tasks and meals. Try \"create a task: water the plants tomorrow\" or \"plan meals for next week\".",
		Actions:        []core.ActionRecord{},
		Domain:         "none",
		ConversationID: rc.ConversationID,
		RequestID:      rc.RequestID,
	}
}

// pickHandler resolves the target domain: an explicit hint wins, then a
// conversation that is mid-clarification sticks to its domain, then keyword
// matching, then the last domain used.
func (c *Coordinator) pickHandler(req *core.AgentRequest, rc core.RunContext) DomainHandler {
	if req.DomainHint != "" {
		if h := c.handlerByDomain(req.DomainHint); h != nil {
			return h
		}
	}

	cc := c.contexts.Get(rc.ConversationID, rc.UserID, rc.FamilyID)
	if cc != nil && cc.AwaitingInput != convo.AwaitingNone && cc.AwaitingInput != convo.AwaitingConfirmation {
		if h := c.handlerByDomain(cc.LastDomain); h != nil {
			return h
		}
	}

	for _, h := range c.handlers {
		if h.Matches(req.Message) {
			return h
		}
	}

	if cc != nil {
		if h := c.handlerByDomain(cc.LastDomain); h != nil {
			return h
		}
	}
	return nil
}

func (c *Coordinator) handlerByDomain(domain string) DomainHandler {
	for _, h := range c.handlers {
		if h.Domain() == domain {
			return h
		}
	}
	return nil
}

func domainOfTool(toolName string) string {
	prefix, _, _ := strings.Cut(toolName, ".")
	switch prefix {
	case "tasks":
		return "tasks"
	case "meals", "shopping":
		return "meals"
	default:
		return "none"
	}
}

func responseOutcome(resp *core.AgentResponse) string {
	switch {
	case resp.RequiresConfirmation:
		return "confirmation_required"
	case len(resp.Actions) > 0:
		for _, a := range resp.Actions {
			if a.Result == nil || !a.Result.Success {
				return "failed"
			}
		}
		return "executed"
	default:
		return "clarified"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
