package tools

import (
	"context"
	"time"

	"github.com/inboundiq/server/internal/agent/model"
	errx "github.com/inboundiq/server/internal/core/error"
	logx "github.com/inboundiq/server/pkg/logger"
)

const (
	maxAttempts    = 3
	initialBackoff = 200 * time.Millisecond
	attemptTimeout = 10 * time.Second
)

// BatchOutcome summarizes a set of tool invocations for confidence scoring
// and escalation routing.
type BatchOutcome struct {
	Results map[string]model.ToolInvocationResult
	// SuccessRate is the fraction of requested tools that succeeded,
	// 1.0 when nothing was requested.
	SuccessRate float64
	// CriticalFailed is set when a critical tool exhausted its retries.
	CriticalFailed bool
	FailedTool     string
}

// Executor runs tools with bounded retries. sleep is injectable so tests do
// not wait out real backoff.
type Executor struct {
	reg   *Registry
	sleep func(time.Duration)
}

func NewExecutor(reg *Registry) *Executor {
	return &Executor{reg: reg, sleep: time.Sleep}
}

// Run invokes one tool with up to three attempts and doubling backoff.
// Retries stop early when the tool marks the failure non-retryable. The
// returned result always reflects the final attempt; err is non-nil only
// when the tool name itself cannot be resolved.
func (e *Executor) Run(ctx context.Context, name string, p Params) (model.ToolInvocationResult, error) {
	t, err := e.reg.Get(name)
	if err != nil {
		return model.ToolInvocationResult{Success: false, Error: err.Error()}, errx.Tool(err)
	}

	backoff := initialBackoff
	var res model.ToolInvocationResult
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			e.sleep(backoff)
			backoff *= 2
		}

		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		res, err = t.Invoke(attemptCtx, p)
		cancel()
		if err != nil {
			res = model.ToolInvocationResult{Success: false, Error: err.Error(), RetryPermitted: true}
		}
		res.Retries = attempt

		if res.Success {
			logx.Debug().Str("tool", name).Int("retries", attempt).Msg("tool succeeded")
			return res, nil
		}
		logx.Warn().Str("tool", name).Int("attempt", attempt+1).Str("error", res.Error).Msg("tool attempt failed")
		if !res.RetryPermitted {
			break
		}
		if ctx.Err() != nil {
			res.Error = ctx.Err().Error()
			break
		}
	}
	return res, nil
}

// RunBatch runs the requested tools in order and aggregates the outcome.
func (e *Executor) RunBatch(ctx context.Context, names []string, p Params) BatchOutcome {
	out := BatchOutcome{
		Results:     make(map[string]model.ToolInvocationResult, len(names)),
		SuccessRate: 1.0,
	}
	if len(names) == 0 {
		return out
	}

	var succeeded int
	for _, name := range names {
		res, err := e.Run(ctx, name, p)
		out.Results[name] = res
		if res.Success {
			succeeded++
			continue
		}
		critical := true
		if err == nil {
			// resolvable tool, ask it
			if t, gerr := e.reg.Get(name); gerr == nil {
				critical = t.Critical()
			}
		}
		if critical && !out.CriticalFailed {
			out.CriticalFailed = true
			out.FailedTool = name
		}
	}
	out.SuccessRate = float64(succeeded) / float64(len(names))
	return out
}
