package memory

import (
	"context"
	"time"

	"github.com/inboundiq/server/internal/agent/model"
	logx "github.com/inboundiq/server/pkg/logger"
)

// Gateway is the single write/read path into lead memory. The factual store
// is authoritative; the turn cache and semantic index are projections whose
// failures degrade rather than abort a cycle.
type Gateway struct {
	factual  *FactualStore
	cache    TurnCache
	semantic *SemanticIndex
}

// NewGateway wires the memory tiers together. cache and semantic may be nil;
// the gateway then runs on the factual store alone.
func NewGateway(factual *FactualStore, cache TurnCache, semantic *SemanticIndex) *Gateway {
	return &Gateway{factual: factual, cache: cache, semantic: semantic}
}

// LoadContext fetches or creates the lead and returns its recent turns. The
// turn cache is tried first; on miss or failure the factual store serves.
func (g *Gateway) LoadContext(ctx context.Context, leadKey, name string, maxTurns int) (*model.Lead, []model.Turn, error) {
	lead, err := g.factual.GetLead(ctx, leadKey)
	if err != nil {
		return nil, nil, err
	}
	if lead == nil {
		lead, err = g.factual.CreateLead(ctx, leadKey, name)
		if err != nil {
			return nil, nil, err
		}
		logx.Info().Str("leadKey", leadKey).Msg("created new lead")
	}

	if g.cache != nil {
		turns, err := g.cache.Recent(ctx, leadKey, maxTurns)
		if err == nil && len(turns) > 0 {
			return lead, turns, nil
		}
		if err != nil {
			logx.Warn().Err(err).Str("leadKey", leadKey).Msg("turn cache read failed, falling back to factual store")
		}
	}

	turns, err := g.factual.RecentTurns(ctx, leadKey, maxTurns)
	if err != nil {
		return nil, nil, err
	}
	return lead, turns, nil
}

// AppendTurn persists a turn factual-first, then updates the cache and
// semantic index best-effort.
func (g *Gateway) AppendTurn(ctx context.Context, t model.Turn) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if err := g.factual.AppendTurn(ctx, t); err != nil {
		return err
	}
	if g.cache != nil {
		if err := g.cache.Append(ctx, t.LeadKey, t); err != nil {
			logx.Warn().Err(err).Str("leadKey", t.LeadKey).Msg("turn cache append failed")
		}
	}
	if g.semantic != nil {
		if err := g.semantic.Index(ctx, t); err != nil {
			logx.Warn().Err(err).Str("leadKey", t.LeadKey).Msg("semantic index write failed")
		}
	}
	return nil
}

// UpsertLead writes lead state back to the factual store.
func (g *Gateway) UpsertLead(ctx context.Context, l *model.Lead) error {
	return g.factual.UpsertLead(ctx, l)
}

// RecordEscalation persists an escalation event with its context snapshot
// and marks the lead escalated atomically.
func (g *Gateway) RecordEscalation(ctx context.Context, ev model.EscalationEvent) error {
	return g.factual.RecordEscalation(ctx, ev)
}

// Recall surfaces semantically similar past turns, or nothing when the
// semantic tier is absent or failing.
func (g *Gateway) Recall(ctx context.Context, leadKey, query string, topK int) []Recalled {
	if g.semantic == nil {
		return nil
	}
	hits, err := g.semantic.Recall(ctx, leadKey, query, topK)
	if err != nil {
		logx.Warn().Err(err).Str("leadKey", leadKey).Msg("semantic recall failed")
		return nil
	}
	return hits
}

// AddBooking records a scheduled meeting.
func (g *Gateway) AddBooking(ctx context.Context, leadKey, slot, notes string) error {
	return g.factual.AddBooking(ctx, leadKey, slot, notes)
}

// AddOutboundMessage records a message sent to the lead outside the
// conversational loop.
func (g *Gateway) AddOutboundMessage(ctx context.Context, leadKey, channel, body string) error {
	return g.factual.AddOutboundMessage(ctx, leadKey, channel, body)
}

// LeadsWithDueFollowup lists leads whose follow-up is due.
func (g *Gateway) LeadsWithDueFollowup(ctx context.Context, now time.Time) ([]model.Lead, error) {
	return g.factual.LeadsWithDueFollowup(ctx, now)
}

// ClearFollowup clears a lead's pending follow-up marker.
func (g *Gateway) ClearFollowup(ctx context.Context, leadKey string) error {
	return g.factual.ClearFollowup(ctx, leadKey)
}
