// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AgentRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_requests_total",
			Help: "Total number of agent requests by domain and outcome",
		},
		[]string{"domain", "outcome"},
	)

	IntentsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_intents_parsed_total",
			Help: "Total number of intents produced by the parsers",
		},
		[]string{"domain", "intent"},
	)

	ConfirmationsRequired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_confirmations_required_total",
			Help: "Total number of actions routed through the confirmation gate",
		},
		[]string{"tool"},
	)

	PendingConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_pending_consumed_total",
			Help: "Total number of pending action consume attempts by result",
		},
		[]string{"result"},
	)

	ToolExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_tool_executions_total",
			Help: "Total number of tool executions by tool and status",
		},
		[]string{"tool", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "agent_request_duration_seconds",
			Help: "Duration of agent request processing in seconds",
		},
		[]string{"domain"},
	)
)
