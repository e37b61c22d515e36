package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/inboundiq/server/internal/agent/tools"
	"github.com/inboundiq/server/internal/memory"
	logx "github.com/inboundiq/server/pkg/logger"
)

// FollowUpSweeper periodically checks for leads whose follow-up is due and
// sends them a nudge through the message tool, so the send shares the same
// retry policy and audit trail as in-cycle tool calls.
type FollowUpSweeper struct {
	gw       *memory.Gateway
	executor *tools.Executor
	interval time.Duration
}

func NewFollowUpSweeper(gw *memory.Gateway, executor *tools.Executor, interval time.Duration) *FollowUpSweeper {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &FollowUpSweeper{gw: gw, executor: executor, interval: interval}
}

// Run sweeps on a ticker until ctx is cancelled.
func (s *FollowUpSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logx.Info().Dur("interval", s.interval).Msg("follow-up sweeper started")
	for {
		select {
		case <-ctx.Done():
			logx.Info().Msg("follow-up sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over due follow-ups.
func (s *FollowUpSweeper) Sweep(ctx context.Context) {
	leads, err := s.gw.LeadsWithDueFollowup(ctx, time.Now())
	if err != nil {
		logx.Error().Err(err).Msg("follow-up query failed")
		return
	}
	if len(leads) == 0 {
		return
	}
	logx.Info().Int("due", len(leads)).Msg("sending follow-ups")

	for _, lead := range leads {
		body := followUpBody(lead.Name)
		res, err := s.executor.Run(ctx, tools.ToolSendMessage, tools.Params{
			LeadKey: lead.Key,
			Extra:   map[string]string{"body": body},
		})
		if err != nil || !res.Success {
			logx.Warn().Str("leadKey", lead.Key).Str("error", res.Error).Msg("follow-up send failed")
			continue
		}
		if err := s.gw.ClearFollowup(ctx, lead.Key); err != nil {
			logx.Warn().Err(err).Str("leadKey", lead.Key).Msg("failed to clear follow-up marker")
		}
	}
}

func followUpBody(name string) string {
	if name == "" {
		return "Hi! Just checking in to see if you had any more questions. Happy to help whenever you're ready."
	}
	return fmt.Sprintf("Hi %s! Just checking in to see if you had any more questions. Happy to help whenever you're ready.", name)
}
