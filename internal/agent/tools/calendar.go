package tools

import (
	"context"
	"time"

	"github.com/inboundiq/server/internal/agent/model"
	"github.com/inboundiq/server/internal/memory"
	logx "github.com/inboundiq/server/pkg/logger"
)

// CalendarTool books a meeting slot for the lead. Scheduling is the moment
// a lead converts, so this tool is critical: if it cannot book, a human
// gets the conversation.
type CalendarTool struct {
	gw  *memory.Gateway
	now func() time.Time
}

func NewCalendarTool(gw *memory.Gateway) *CalendarTool {
	return &CalendarTool{gw: gw, now: time.Now}
}

func (t *CalendarTool) Name() string   { return ToolScheduleMeeting }
func (t *CalendarTool) Critical() bool { return true }

func (t *CalendarTool) Invoke(ctx context.Context, p Params) (model.ToolInvocationResult, error) {
	slot := p.Extra["slot"]
	if slot == "" {
		// next business day, 10:00 local
		slot = nextBusinessDay(t.now()).Format("2006-01-02") + "T10:00"
	}

	if err := t.gw.AddBooking(ctx, p.LeadKey, slot, p.Extra["notes"]); err != nil {
		return model.ToolInvocationResult{
			Success:        false,
			Error:          err.Error(),
			RetryPermitted: true,
		}, nil
	}

	// Schedule a follow-up touch the day after the meeting. Best effort:
	// the booking itself already succeeded.
	if p.Lead != nil {
		if at, err := time.Parse("2006-01-02T15:04", slot); err == nil {
			followUp := at.Add(24 * time.Hour)
			p.Lead.NextFollowUpAt = &followUp
			if err := t.gw.UpsertLead(ctx, p.Lead); err != nil {
				logx.Warn().Err(err).Str("leadKey", p.LeadKey).Msg("follow-up marker not saved")
			}
		}
	}

	logx.Info().Str("leadKey", p.LeadKey).Str("slot", slot).Msg("meeting booked")
	return model.ToolInvocationResult{
		Success: true,
		Payload: map[string]any{"slot": slot},
	}, nil
}

func nextBusinessDay(now time.Time) time.Time {
	d := now.AddDate(0, 0, 1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

var _ Tool = (*CalendarTool)(nil)
