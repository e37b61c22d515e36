package tools

import (
	"context"

	"github.com/inboundiq/server/internal/agent/model"
	"github.com/inboundiq/server/internal/memory"
	logx "github.com/inboundiq/server/pkg/logger"
)

// MessageTool sends a follow-up or notification outside the conversational
// reply, recording it against the lead.
type MessageTool struct {
	gw *memory.Gateway
}

func NewMessageTool(gw *memory.Gateway) *MessageTool {
	return &MessageTool{gw: gw}
}

func (t *MessageTool) Name() string   { return ToolSendMessage }
func (t *MessageTool) Critical() bool { return false }

func (t *MessageTool) Invoke(ctx context.Context, p Params) (model.ToolInvocationResult, error) {
	body := p.Extra["body"]
	if body == "" {
		body = p.Message
	}
	if body == "" {
		return model.ToolInvocationResult{
			Success:        false,
			Error:          "empty message body",
			RetryPermitted: false,
		}, nil
	}
	channel := p.Extra["channel"]
	if channel == "" {
		channel = "email"
	}

	if err := t.gw.AddOutboundMessage(ctx, p.LeadKey, channel, body); err != nil {
		return model.ToolInvocationResult{
			Success:        false,
			Error:          err.Error(),
			RetryPermitted: true,
		}, nil
	}

	logx.Info().Str("leadKey", p.LeadKey).Str("channel", channel).Msg("outbound message recorded")
	return model.ToolInvocationResult{
		Success: true,
		Payload: map[string]any{"channel": channel},
	}, nil
}

var _ Tool = (*MessageTool)(nil)
