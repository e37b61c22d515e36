package reasoning

import "context"

// PromptContext is the structured prompt handed to the reasoning capability.
type PromptContext struct {
	System string
	User   string
}

// Generator maps a structured prompt to generated text. Implementations
// must report failures as errors, never as silent empty output.
type Generator interface {
	Generate(ctx context.Context, pc PromptContext) (string, error)
}

// GenerateFunc adapts a plain function to the Generator interface.
type GenerateFunc func(ctx context.Context, pc PromptContext) (string, error)

func (f GenerateFunc) Generate(ctx context.Context, pc PromptContext) (string, error) {
	return f(ctx, pc)
}
