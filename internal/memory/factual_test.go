package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboundiq/server/internal/agent/model"
)

func newTestFactual(t *testing.T) *FactualStore {
	t.Helper()
	s, err := NewFactualStore(filepath.Join(t.TempDir(), "agent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLeadLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestFactual(t)

	missing, err := s.GetLead(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	created, err := s.CreateLead(ctx, "dana@x.com", "Dana")
	require.NoError(t, err)
	assert.Equal(t, model.StatusNew, created.Status)

	created.Status = model.StatusQualified
	created.QualificationScore = 0.8
	created.Notes = "asked about enterprise"
	require.NoError(t, s.UpsertLead(ctx, created))

	got, err := s.GetLead(ctx, "dana@x.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.StatusQualified, got.Status)
	assert.InDelta(t, 0.8, got.QualificationScore, 1e-9)
	assert.Equal(t, "asked about enterprise", got.Notes)
}

func TestTurnsChronologicalWindow(t *testing.T) {
	ctx := context.Background()
	s := newTestFactual(t)

	for i, msg := range []string{"one", "two", "three", "four"} {
		require.NoError(t, s.AppendTurn(ctx, model.Turn{
			LeadKey:   "lead@x.com",
			Role:      model.RoleUser,
			Message:   msg,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	turns, err := s.RecentTurns(ctx, "lead@x.com", 3)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "two", turns[0].Message)
	assert.Equal(t, "four", turns[2].Message)

	none, err := s.RecentTurns(ctx, "other@x.com", 3)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordEscalationFlipsStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestFactual(t)

	lead, err := s.CreateLead(ctx, "sam@x.com", "Sam")
	require.NoError(t, err)
	require.Equal(t, model.StatusNew, lead.Status)

	ev := model.EscalationEvent{
		EventID:    "ev-1",
		LeadKey:    "sam@x.com",
		Reason:     model.ReasonSensitiveTopic,
		Confidence: 0.2,
		Snapshot:   model.ContextSnapshot{Query: "I want a refund"},
		CreatedAt:  time.Now(),
	}
	require.NoError(t, s.RecordEscalation(ctx, ev))

	got, err := s.GetLead(ctx, "sam@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.StatusEscalated, got.Status)

	events, err := s.EscalationsForLead(ctx, "sam@x.com")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.ReasonSensitiveTopic, events[0].Reason)
	assert.Equal(t, "I want a refund", events[0].Snapshot.Query)
}

func TestFollowupDueList(t *testing.T) {
	ctx := context.Background()
	s := newTestFactual(t)
	now := time.Now()

	due, _ := s.CreateLead(ctx, "due@x.com", "")
	past := now.Add(-time.Hour)
	due.NextFollowUpAt = &past
	require.NoError(t, s.UpsertLead(ctx, due))

	later, _ := s.CreateLead(ctx, "later@x.com", "")
	future := now.Add(time.Hour)
	later.NextFollowUpAt = &future
	require.NoError(t, s.UpsertLead(ctx, later))

	escalated, _ := s.CreateLead(ctx, "esc@x.com", "")
	escalated.Status = model.StatusEscalated
	escalated.NextFollowUpAt = &past
	require.NoError(t, s.UpsertLead(ctx, escalated))

	leads, err := s.LeadsWithDueFollowup(ctx, now)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "due@x.com", leads[0].Key)

	require.NoError(t, s.ClearFollowup(ctx, "due@x.com"))
	leads, err = s.LeadsWithDueFollowup(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestBookingsAndOutboundMessages(t *testing.T) {
	ctx := context.Background()
	s := newTestFactual(t)

	require.NoError(t, s.AddBooking(ctx, "lead@x.com", "2026-09-01T10:00", "demo call"))
	require.NoError(t, s.AddOutboundMessage(ctx, "lead@x.com", "email", "see you then"))
}
