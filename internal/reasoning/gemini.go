package reasoning

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/inboundiq/server/internal/agent/model"
	errx "github.com/inboundiq/server/internal/core/error"
	logx "github.com/inboundiq/server/pkg/logger"
)

// GeminiConfig holds everything needed to build one Gemini-backed generator.
type GeminiConfig struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// GeminiGenerator implements Generator over an Eino Gemini chat model.
type GeminiGenerator struct {
	cm        *gemini.ChatModel
	modelName string
}

// NewGeminiGenerator builds a generator over a shared genai client.
func NewGeminiGenerator(ctx context.Context, client *genai.Client, cfg GeminiConfig) (*GeminiGenerator, error) {
	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Str("model", cfg.Model).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}
	return &GeminiGenerator{cm: cm, modelName: cfg.Model}, nil
}

// Generate runs one system+user exchange and returns the raw text output.
func (g *GeminiGenerator) Generate(ctx context.Context, pc PromptContext) (string, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(pc.System),
		schema.UserMessage(pc.User),
	}

	out, err := g.cm.Generate(ctx, msgs)
	if err != nil {
		return "", errx.Reasoning(err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", errx.Reasoning(fmt.Errorf("model %s returned empty output", g.modelName))
	}

	g.logUsage(out)
	return out.Content, nil
}

// logUsage computes and logs token usage cost when the response carries it.
func (g *GeminiGenerator) logUsage(out *schema.Message) {
	if out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	rates := model.RatesFor(g.modelName)
	inC, outC, totalC := model.UsageCost(out.ResponseMeta.Usage, rates)
	logx.Debug().
		Str("model", g.modelName).
		Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
		Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
		Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}
