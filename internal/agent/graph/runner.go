package graph

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	"github.com/inboundiq/server/internal/agent/escalation"
	"github.com/inboundiq/server/internal/agent/graph/nodes"
	"github.com/inboundiq/server/internal/agent/graph/observers"
	"github.com/inboundiq/server/internal/agent/model"
	"github.com/inboundiq/server/internal/memory"
	logx "github.com/inboundiq/server/pkg/logger"
)

// Runner executes one full cycle per inbound event.
type Runner interface {
	Handle(ctx context.Context, ev model.InboundEvent) (*model.AgentResponse, error)
}

type graphRunner struct {
	runnable   compose.Runnable[*model.Cycle, *model.AgentResponse]
	gw         *memory.Gateway
	escalation *escalation.Handler

	mu    sync.Mutex
	locks map[string]*leadLock
}

// leadLock is a refcounted per-lead mutex. The map entry lives only while
// cycles for that lead are in flight, so the map does not accumulate one
// entry per lead ever seen.
type leadLock struct {
	mu   sync.Mutex
	refs int
}

// NewRunner compiles the cycle graph and wraps it with per-lead
// serialization. Events for different leads run concurrently; events for the
// same lead run one at a time in receipt order.
func NewRunner(ctx context.Context, deps *nodes.Deps) (Runner, error) {
	runnable, err := BuildGraph(ctx, deps)
	if err != nil {
		return nil, err
	}
	return &graphRunner{
		runnable:   runnable,
		gw:         deps.Gateway,
		escalation: deps.Escalation,
		locks:      make(map[string]*leadLock),
	}, nil
}

func (r *graphRunner) acquire(leadKey string) *leadLock {
	r.mu.Lock()
	l, ok := r.locks[leadKey]
	if !ok {
		l = &leadLock{}
		r.locks[leadKey] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return l
}

func (r *graphRunner) release(leadKey string, l *leadLock) {
	l.mu.Unlock()

	r.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(r.locks, leadKey)
	}
	r.mu.Unlock()
}

// Handle runs the cycle for one event. A fault anywhere inside the graph
// never reaches the lead as an error: the fallback records an internal-error
// escalation and answers with the handoff text.
func (r *graphRunner) Handle(ctx context.Context, ev model.InboundEvent) (*model.AgentResponse, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	lock := r.acquire(ev.LeadKey)
	defer r.release(ev.LeadKey, lock)

	cyc := model.NewCycle(uuid.NewString(), ev)
	out, err := r.runnable.Invoke(ctx, cyc, compose.WithCallbacks(observers.NewAllCallbacks()...))
	if err != nil {
		logx.Error().Err(err).Str("traceID", cyc.TraceID).Str("leadKey", ev.LeadKey).Msg("cycle failed, falling back to escalation")
		return r.fallback(ctx, cyc, err), nil
	}
	return out, nil
}

// fallback is the last line of defense: persist what happened, hand off.
func (r *graphRunner) fallback(ctx context.Context, cyc *model.Cycle, cause error) *model.AgentResponse {
	cyc.Fail(cause.Error())
	cyc.Escalate(model.ReasonInternalError)

	text, err := r.escalation.Escalate(ctx, cyc, model.ReasonInternalError)
	if err != nil {
		logx.Error().Err(err).Str("traceID", cyc.TraceID).Msg("fallback escalation record failed")
	}
	if err := r.gw.AppendTurn(ctx, model.Turn{
		LeadKey:   cyc.Event.LeadKey,
		Role:      model.RoleAgent,
		Message:   text,
		CreatedAt: time.Now(),
	}); err != nil {
		logx.Warn().Err(err).Str("traceID", cyc.TraceID).Msg("fallback turn write failed")
	}

	return &model.AgentResponse{
		Text:       text,
		Confidence: 0,
		Kind:       model.KindEscalate,
		Escalated:  true,
	}
}
