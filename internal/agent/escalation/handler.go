package escalation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/inboundiq/server/internal/agent/model"
	"github.com/inboundiq/server/internal/events"
	"github.com/inboundiq/server/internal/memory"
	logx "github.com/inboundiq/server/pkg/logger"
)

// HandoffTemplate is what the lead reads when a human takes over. It is
// fixed text on purpose: by the time we escalate we no longer trust the
// model enough to let it phrase the handoff.
const HandoffTemplate = "Thanks for your patience! I want to make sure you get the best possible answer, so I'm looping in one of my teammates. They'll get back to you shortly."

// Handler records escalations durably and announces them downstream.
type Handler struct {
	gw   *memory.Gateway
	sink events.Sink
}

func NewHandler(gw *memory.Gateway, sink events.Sink) *Handler {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Handler{gw: gw, sink: sink}
}

// Escalate persists the event with its context snapshot, flips the lead to
// escalated, and publishes the event. The durable write is the part that
// must succeed; a sink failure only logs. Returns the handoff text for the
// lead.
func (h *Handler) Escalate(ctx context.Context, cyc *model.Cycle, reason model.EscalationReason) (string, error) {
	ev := model.EscalationEvent{
		EventID:    uuid.NewString(),
		LeadKey:    cyc.Event.LeadKey,
		Reason:     reason,
		Confidence: cyc.Confidence,
		Snapshot:   cyc.Snapshot(),
		CreatedAt:  time.Now(),
	}

	if err := h.gw.RecordEscalation(ctx, ev); err != nil {
		logx.Error().Err(err).Str("traceID", cyc.TraceID).Str("reason", string(reason)).Msg("failed to record escalation")
		return HandoffTemplate, err
	}

	if err := h.sink.PublishEscalation(ctx, ev); err != nil {
		logx.Warn().Err(err).Str("eventID", ev.EventID).Msg("escalation event publish failed")
	}

	logx.Info().
		Str("traceID", cyc.TraceID).
		Str("leadKey", ev.LeadKey).
		Str("reason", string(reason)).
		Float64("confidence", ev.Confidence).
		Str("eventID", ev.EventID).
		Msg("escalated to human")
	return HandoffTemplate, nil
}
