package jobs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboundiq/server/internal/agent/tools"
	"github.com/inboundiq/server/internal/memory"
)

func newSweeperFixture(t *testing.T) (*FollowUpSweeper, *memory.Gateway) {
	t.Helper()
	factual, err := memory.NewFactualStore(filepath.Join(t.TempDir(), "agent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { factual.Close() })

	gw := memory.NewGateway(factual, nil, nil)
	executor := tools.NewExecutor(tools.NewRegistry(tools.NewMessageTool(gw)))
	return NewFollowUpSweeper(gw, executor, time.Minute), gw
}

func TestSweepSendsDueFollowupsAndClearsMarkers(t *testing.T) {
	ctx := context.Background()
	sweeper, gw := newSweeperFixture(t)

	lead, _, err := gw.LoadContext(ctx, "due@x.com", "Dana", 10)
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	lead.NextFollowUpAt = &past
	require.NoError(t, gw.UpsertLead(ctx, lead))

	sweeper.Sweep(ctx)

	// marker cleared, so a second sweep finds nothing
	remaining, err := gw.LeadsWithDueFollowup(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestSweepIgnoresFutureFollowups(t *testing.T) {
	ctx := context.Background()
	sweeper, gw := newSweeperFixture(t)

	lead, _, err := gw.LoadContext(ctx, "later@x.com", "", 10)
	require.NoError(t, err)
	future := time.Now().Add(time.Hour)
	lead.NextFollowUpAt = &future
	require.NoError(t, gw.UpsertLead(ctx, lead))

	sweeper.Sweep(ctx)

	remaining, err := gw.LeadsWithDueFollowup(ctx, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, remaining, 1, "future follow-up must survive the sweep untouched")
}

func TestFollowUpBody(t *testing.T) {
	assert.Contains(t, followUpBody("Dana"), "Hi Dana!")
	assert.Contains(t, followUpBody(""), "Hi!")
}
