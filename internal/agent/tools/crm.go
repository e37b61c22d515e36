package tools

import (
	"context"
	"math"
	"strconv"

	"github.com/inboundiq/server/internal/agent/model"
	"github.com/inboundiq/server/internal/memory"
	logx "github.com/inboundiq/server/pkg/logger"
)

// CRMTool updates the lead record: status transitions, qualification score,
// notes. A failed CRM write degrades the reply instead of blocking it.
type CRMTool struct {
	gw *memory.Gateway
}

func NewCRMTool(gw *memory.Gateway) *CRMTool {
	return &CRMTool{gw: gw}
}

func (t *CRMTool) Name() string   { return ToolUpdateCRM }
func (t *CRMTool) Critical() bool { return false }

func (t *CRMTool) Invoke(ctx context.Context, p Params) (model.ToolInvocationResult, error) {
	if p.Lead == nil {
		return model.ToolInvocationResult{
			Success:        false,
			Error:          "no lead loaded",
			RetryPermitted: false,
		}, nil
	}

	lead := *p.Lead
	if s, ok := model.ParseLeadStatus(p.Extra["status"]); ok {
		lead.Status = s
	} else if lead.Status == model.StatusNew {
		lead.Status = model.StatusContacted
	}
	if note := p.Extra["note"]; note != "" {
		if lead.Notes != "" {
			lead.Notes += "\n"
		}
		lead.Notes += note
	}
	if raw := p.Extra["qualification_score"]; raw != "" {
		if score, err := strconv.ParseFloat(raw, 64); err == nil {
			lead.QualificationScore = math.Max(0, math.Min(100, score))
		}
	}

	if err := t.gw.UpsertLead(ctx, &lead); err != nil {
		return model.ToolInvocationResult{
			Success:        false,
			Error:          err.Error(),
			RetryPermitted: true,
		}, nil
	}
	*p.Lead = lead

	logx.Debug().Str("leadKey", p.LeadKey).Str("status", string(lead.Status)).Msg("crm updated")
	return model.ToolInvocationResult{
		Success: true,
		Payload: map[string]any{"status": string(lead.Status)},
	}, nil
}

var _ Tool = (*CRMTool)(nil)
