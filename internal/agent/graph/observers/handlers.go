package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/prompt"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/inboundiq/server/pkg/logger"
)

// NewAllCallbacks returns the observer handlers attached to every graph
// invocation: a typed prompt handler plus a generic node tracer.
func NewAllCallbacks() []einocb.Handler {
	promptHandler := callbackHelper.NewHandlerHelper().
		Prompt(newPromptHandler()).
		Handler()

	return []einocb.Handler{promptHandler, newGraphHandler()}
}

// newGraphHandler traces node entry, exit and errors.
func newGraphHandler() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			if info != nil {
				logx.Debug().Str("node", info.Name).Msg("node start")
			}
			return ctx
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			if info != nil {
				logx.Debug().Str("node", info.Name).Msg("node end")
			}
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			if info != nil {
				logx.Error().Err(err).Str("node", info.Name).Msg("node error")
			}
			return ctx
		}).
		Build()
}

// newPromptHandler logs rendered prompt lifecycle events.
func newPromptHandler() *callbackHelper.PromptCallbackHandler {
	return &callbackHelper.PromptCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, _ *prompt.CallbackInput) context.Context {
			logx.Debug().Str("type", info.Type).Str("name", info.Name).Msg("prompt render start")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *prompt.CallbackOutput) context.Context {
			if output != nil && len(output.Result) > 0 && output.Result[0] != nil {
				logx.Debug().Str("name", info.Name).Int("chars", len(output.Result[0].Content)).Msg("prompt rendered")
			}
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("name", info.Name).Msg("prompt render error")
			return ctx
		},
	}
}
