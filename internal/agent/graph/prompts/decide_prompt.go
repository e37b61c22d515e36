package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/inboundiq/server/internal/agent/model"
)

//go:embed template/decide_prompt.txt
var decideSystemPrompt string

// RenderDecideSystem renders the decide system prompt via the Eino prompt
// component. This triggers Prompt callbacks and returns the final string.
func RenderDecideSystem(ctx context.Context, cfg *model.PromptConfig, toolNames []string) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("prompt config is nil")
	}

	catalogue := strings.Join(toolNames, ", ")
	if catalogue == "" {
		catalogue = "none"
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(decideSystemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"BusinessName":  cfg.BusinessName,
		"BusinessType":  cfg.BusinessType,
		"ToolCatalogue": catalogue,
	})
	if err != nil {
		return "", fmt.Errorf("decide prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("decide prompt render: empty result")
	}
	return msgs[0].Content, nil
}
