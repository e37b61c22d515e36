package events

import (
	"context"
	"time"

	"github.com/inboundiq/server/internal/agent/model"
)

// DecisionEvent is the audit record emitted once per completed cycle.
type DecisionEvent struct {
	TraceID    string    `json:"trace_id"`
	LeadKey    string    `json:"lead_key"`
	Kind       string    `json:"kind"`
	Confidence float64   `json:"confidence"`
	Reasoning  string    `json:"reasoning"`
	Tools      []string  `json:"tools,omitempty"`
	Escalated  bool      `json:"escalated"`
	CreatedAt  time.Time `json:"created_at"`
}

// Sink publishes agent events to downstream consumers. Publishing is fire
// and forget from the cycle's point of view; a sink error never fails the
// conversation.
type Sink interface {
	PublishDecision(ctx context.Context, ev DecisionEvent) error
	PublishEscalation(ctx context.Context, ev model.EscalationEvent) error
	Close() error
}

// NopSink drops everything. Used when no brokers are configured.
type NopSink struct{}

func (NopSink) PublishDecision(context.Context, DecisionEvent) error { return nil }

func (NopSink) PublishEscalation(context.Context, model.EscalationEvent) error { return nil }

func (NopSink) Close() error { return nil }

var _ Sink = NopSink{}
