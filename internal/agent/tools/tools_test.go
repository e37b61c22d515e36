package tools

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboundiq/server/internal/agent/model"
	"github.com/inboundiq/server/internal/memory"
)

func newTestGateway(t *testing.T) *memory.Gateway {
	t.Helper()
	factual, err := memory.NewFactualStore(filepath.Join(t.TempDir(), "agent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { factual.Close() })
	return memory.NewGateway(factual, nil, nil)
}

func TestCalendarToolBooksSlot(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	lead, _, err := gw.LoadContext(ctx, "lead@x.com", "Sam", 10)
	require.NoError(t, err)
	tool := NewCalendarTool(gw)

	res, err := tool.Invoke(ctx, Params{
		LeadKey: "lead@x.com",
		Lead:    lead,
		Extra:   map[string]string{"slot": "2026-09-03T14:00"},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "2026-09-03T14:00", res.Payload["slot"])

	// follow-up lands the day after the meeting
	require.NotNil(t, lead.NextFollowUpAt)
	assert.Equal(t, time.Date(2026, 9, 4, 14, 0, 0, 0, time.UTC), lead.NextFollowUpAt.UTC())
}

func TestCalendarToolDefaultsToNextBusinessDay(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	tool := NewCalendarTool(gw)
	// Friday → slot lands on Monday
	tool.now = func() time.Time { return time.Date(2026, 9, 4, 9, 0, 0, 0, time.UTC) }

	res, err := tool.Invoke(ctx, Params{LeadKey: "lead@x.com"})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "2026-09-07T10:00", res.Payload["slot"])
}

func TestCRMToolUpdatesLead(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	lead, _, err := gw.LoadContext(ctx, "lead@x.com", "Sam", 10)
	require.NoError(t, err)

	tool := NewCRMTool(gw)
	res, err := tool.Invoke(ctx, Params{
		LeadKey: "lead@x.com",
		Lead:    lead,
		Extra:   map[string]string{"status": "qualified", "note": "budget confirmed", "qualification_score": "85"},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, model.StatusQualified, lead.Status)
	assert.Contains(t, lead.Notes, "budget confirmed")
	assert.Equal(t, 85.0, lead.QualificationScore)
}

func TestCRMToolDefaultsNewToContacted(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	lead, _, err := gw.LoadContext(ctx, "lead@x.com", "", 10)
	require.NoError(t, err)

	tool := NewCRMTool(gw)
	res, err := tool.Invoke(ctx, Params{LeadKey: "lead@x.com", Lead: lead})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, model.StatusContacted, lead.Status)
}

func TestCRMToolWithoutLeadDoesNotRetry(t *testing.T) {
	gw := newTestGateway(t)
	tool := NewCRMTool(gw)

	res, err := tool.Invoke(context.Background(), Params{LeadKey: "lead@x.com"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.False(t, res.RetryPermitted)
}

func TestMessageTool(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	tool := NewMessageTool(gw)

	res, err := tool.Invoke(ctx, Params{
		LeadKey: "lead@x.com",
		Extra:   map[string]string{"body": "checking in!", "channel": "sms"},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "sms", res.Payload["channel"])

	empty, err := tool.Invoke(ctx, Params{LeadKey: "lead@x.com"})
	require.NoError(t, err)
	assert.False(t, empty.Success)
	assert.False(t, empty.RetryPermitted)
}

func TestRegistryNames(t *testing.T) {
	gw := newTestGateway(t)
	r := NewRegistry(NewCalendarTool(gw), NewCRMTool(gw), NewMessageTool(gw))

	assert.Equal(t, []string{ToolScheduleMeeting, ToolSendMessage, ToolUpdateCRM}, r.Names())

	_, err := r.Get("nope")
	assert.Error(t, err)
}
