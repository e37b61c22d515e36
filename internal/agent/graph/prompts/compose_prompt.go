package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/inboundiq/server/internal/agent/model"
)

//go:embed template/compose_prompt.txt
var composeSystemPrompt string

// RenderComposeSystem renders the response-composition system prompt and
// triggers prompt callbacks.
func RenderComposeSystem(ctx context.Context, cfg *model.PromptConfig) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("prompt config is nil")
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(composeSystemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"BusinessName": cfg.BusinessName,
		"BusinessType": cfg.BusinessType,
	})
	if err != nil {
		return "", fmt.Errorf("compose prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("compose prompt render: empty result")
	}
	return msgs[0].Content, nil
}
