package nodes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/inboundiq/server/internal/agent/confidence"
	"github.com/inboundiq/server/internal/agent/decision"
	"github.com/inboundiq/server/internal/agent/escalation"
	"github.com/inboundiq/server/internal/agent/graph/prompts"
	"github.com/inboundiq/server/internal/agent/model"
	"github.com/inboundiq/server/internal/agent/rag"
	"github.com/inboundiq/server/internal/agent/tools"
	errx "github.com/inboundiq/server/internal/core/error"
	"github.com/inboundiq/server/internal/events"
	"github.com/inboundiq/server/internal/memory"
	"github.com/inboundiq/server/internal/reasoning"
	logx "github.com/inboundiq/server/pkg/logger"
)

// Deps bundles everything the cycle nodes call out to.
type Deps struct {
	Gateway    *memory.Gateway
	Engine     *decision.Engine
	Retriever  *rag.Retriever
	Reranker   *rag.Reranker
	Composer   reasoning.Generator
	Executor   *tools.Executor
	Escalation *escalation.Handler
	Sink       events.Sink
	PromptCfg  *model.PromptConfig
	Thresholds model.ThresholdConfig
	MaxTurns   int
}

// NewIntakeNode validates the inbound event and opens the cycle.
func NewIntakeNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, cyc *model.Cycle) (*model.Cycle, error) {
		if err := cyc.Event.Validate(); err != nil {
			return nil, errx.Validation(err)
		}
		logx.Info().
			Str("traceID", cyc.TraceID).
			Str("leadKey", cyc.Event.LeadKey).
			Str("source", cyc.Event.Source).
			Msg("cycle opened")
		return cyc, nil
	})
}

// NewLoadContextNode loads the lead and its recent turns, then records the
// inbound message as a turn. Memory being down is fatal here: without a lead
// record nothing downstream can act safely.
func NewLoadContextNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, cyc *model.Cycle) (*model.Cycle, error) {
		lead, turns, err := d.Gateway.LoadContext(ctx, cyc.Event.LeadKey, cyc.Event.Name, d.MaxTurns)
		if err != nil {
			return nil, fmt.Errorf("load context: %w", err)
		}
		cyc.Lead = lead
		cyc.RecentTurns = turns
		for _, r := range d.Gateway.Recall(ctx, cyc.Event.LeadKey, cyc.Event.Message, 3) {
			if !inWindow(turns, r.Turn) {
				cyc.RecalledTurns = append(cyc.RecalledTurns, r.Turn)
			}
		}

		if err := d.Gateway.AppendTurn(ctx, model.Turn{
			LeadKey: cyc.Event.LeadKey,
			Role:    model.RoleUser,
			Message: cyc.Event.Message,
		}); err != nil {
			logx.Warn().Err(err).Str("traceID", cyc.TraceID).Msg("failed to persist inbound turn")
			cyc.Fail("inbound turn not persisted")
		}
		return cyc, nil
	})
}

// NewSensitiveCondition routes messages with sensitive terms straight to
// escalation, before any model call.
func NewSensitiveCondition() func(context.Context, *model.Cycle) (string, error) {
	return func(ctx context.Context, cyc *model.Cycle) (string, error) {
		if term, ok := decision.IsSensitive(cyc.Event.Message); ok {
			logx.Warn().Str("traceID", cyc.TraceID).Str("term", term).Msg("sensitive topic detected")
			cyc.Escalate(model.ReasonSensitiveTopic)
			return NodeEscalate, nil
		}
		return NodeDecide, nil
	}
}

// NewDecideNode asks the decision engine what to do with the message.
func NewDecideNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, cyc *model.Cycle) (*model.Cycle, error) {
		cyc.Decision = d.Engine.Decide(ctx, cyc)
		if cyc.Decision.Kind == model.KindEscalate {
			// A coerced failure carries its cause; only a decision the
			// model actually chose counts as explicit.
			reason := cyc.Decision.EscalationReason
			if reason == "" {
				reason = model.ReasonExplicitDecision
			}
			cyc.Escalate(reason)
		}
		return cyc, nil
	})
}

// NewPostDecideCondition routes on the decision: explicit escalation wins,
// then retrieval, then tools, then straight to composition.
func NewPostDecideCondition() func(context.Context, *model.Cycle) (string, error) {
	return func(ctx context.Context, cyc *model.Cycle) (string, error) {
		switch {
		case cyc.Escalated:
			return NodeEscalate, nil
		case cyc.Decision.Kind == model.KindRetrieve || cyc.Decision.RetrievalNeeded:
			return NodeRetrieve, nil
		case cyc.Decision.Kind == model.KindUseTool:
			return NodeTools, nil
		default:
			return NodeCompose, nil
		}
	}
}

// NewRetrieveNode pulls evidence, reranks it, and checks for conflicting
// sources. A retrieval fault is recorded rather than returned: whether it is
// fatal depends on what the decision was, and the branch decides that.
func NewRetrieveNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, cyc *model.Cycle) (*model.Cycle, error) {
		chunks, err := d.Retriever.Retrieve(ctx, cyc.Event.Message)
		if err != nil {
			logx.Error().Err(err).Str("traceID", cyc.TraceID).Msg("retrieval failed")
			cyc.RetrievalFailed = true
			cyc.Fail("retrieval failed")
			return cyc, nil
		}
		cyc.Retrieved = chunks
		cyc.Kept, cyc.Ranked = d.Reranker.Rerank(chunks)
		cyc.ConflictDetected = rag.DetectConflict(cyc.Ranked)

		logx.Debug().
			Str("traceID", cyc.TraceID).
			Int("retrieved", len(cyc.Retrieved)).
			Int("kept", len(cyc.Kept)).
			Bool("conflict", cyc.ConflictDetected).
			Msg("evidence ranked")
		return cyc, nil
	})
}

// NewPostRetrieveCondition escalates when retrieval broke and the decision
// depended on it; otherwise continues to tools or composition.
func NewPostRetrieveCondition() func(context.Context, *model.Cycle) (string, error) {
	return func(ctx context.Context, cyc *model.Cycle) (string, error) {
		if cyc.RetrievalFailed && cyc.Decision.Kind == model.KindRetrieve {
			cyc.Escalate(model.ReasonRetrievalFailure)
			return NodeEscalate, nil
		}
		if cyc.Decision.Kind == model.KindUseTool && len(cyc.InvokedTools) == 0 {
			return NodeTools, nil
		}
		return NodeCompose, nil
	}
}

// NewToolsNode runs the requested tools and folds the outcome into the cycle.
func NewToolsNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, cyc *model.Cycle) (*model.Cycle, error) {
		out := d.Executor.RunBatch(ctx, cyc.Decision.Tools, tools.Params{
			LeadKey: cyc.Event.LeadKey,
			Message: cyc.Event.Message,
			Lead:    cyc.Lead,
			Extra:   cyc.Event.Metadata,
		})
		cyc.ToolResults = out.Results
		cyc.InvokedTools = cyc.Decision.Tools
		cyc.ToolSuccessRate = out.SuccessRate

		if out.CriticalFailed {
			logx.Warn().Str("traceID", cyc.TraceID).Str("tool", out.FailedTool).Msg("critical tool failed after retries")
			cyc.Fail("tool " + out.FailedTool + " failed")
			cyc.Escalate(model.ReasonToolFailure)
		}
		return cyc, nil
	})
}

// NewPostToolsCondition routes to escalation when a critical tool could not
// be made to work.
func NewPostToolsCondition() func(context.Context, *model.Cycle) (string, error) {
	return func(ctx context.Context, cyc *model.Cycle) (string, error) {
		if cyc.Escalated {
			return NodeEscalate, nil
		}
		return NodeCompose, nil
	}
}

// NewComposeNode scores confidence and writes the reply. Two outcomes leave
// without text: a mid-band score over an empty evidence set earns one more
// retrieval pass, and a score under the floor hands off to a human.
func NewComposeNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, cyc *model.Cycle) (*model.Cycle, error) {
		cyc.Confidence = confidence.Score(confidence.Factors{
			SourceQuality:       confidence.SourceQuality(cyc.Kept),
			QueryComplexity:     confidence.QueryComplexity(cyc.Event.Message),
			ContextCompleteness: confidence.ContextCompleteness(cyc.Kept, cyc.RecentTurns, cyc.Lead),
			ToolSuccessRate:     cyc.ToolSuccessRate,
			ConflictDetected:    cyc.ConflictDetected,
		})

		th := d.Thresholds
		midBand := cyc.Confidence >= th.Low && cyc.Confidence < th.High
		wantedEvidence := cyc.Decision.Kind == model.KindRetrieve || cyc.Decision.RetrievalNeeded
		if midBand && len(cyc.Kept) == 0 && wantedEvidence && !cyc.ReRetrieved && !cyc.RetrievalFailed {
			cyc.ReRetrieved = true
			logx.Debug().Str("traceID", cyc.TraceID).Float64("confidence", cyc.Confidence).Msg("mid-band with no evidence, retrying retrieval")
			return cyc, nil
		}
		if cyc.Confidence < th.Low {
			cyc.Escalate(model.ReasonConfidenceBelowThreshold)
			return cyc, nil
		}

		system, err := prompts.RenderComposeSystem(ctx, d.PromptCfg)
		if err != nil {
			return nil, fmt.Errorf("compose prompt render: %w", err)
		}
		text, err := d.Composer.Generate(ctx, reasoning.PromptContext{
			System: system,
			User:   buildComposeUser(cyc),
		})
		if err != nil {
			return nil, fmt.Errorf("compose generation: %w", err)
		}

		cyc.ResponseText = text
		cyc.Grounded = len(cyc.Kept) > 0
		for _, c := range cyc.Kept {
			cyc.CitedSources = appendUnique(cyc.CitedSources, c.DocTitle)
		}
		return cyc, nil
	})
}

// NewPostComposeCondition loops back for the single re-retrieval, hands off
// on low confidence, and otherwise proceeds to the memory write.
func NewPostComposeCondition() func(context.Context, *model.Cycle) (string, error) {
	return func(ctx context.Context, cyc *model.Cycle) (string, error) {
		if cyc.Escalated {
			return NodeEscalate, nil
		}
		if cyc.ReRetrieved && cyc.ResponseText == "" {
			return NodeRetrieve, nil
		}
		return NodeMemory, nil
	}
}

// NewEscalateNode records the handoff and replaces the reply with the fixed
// handoff text.
func NewEscalateNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, cyc *model.Cycle) (*model.Cycle, error) {
		reason := cyc.EscalationReason
		if reason == "" {
			reason = model.ReasonInternalError
		}
		text, err := d.Escalation.Escalate(ctx, cyc, reason)
		if err != nil {
			cyc.Fail("escalation record failed")
		}
		cyc.ResponseText = text
		return cyc, nil
	})
}

// NewMemoryNode persists the agent's reply as a turn and writes lead state
// back. Failures here degrade: the reply still goes out.
func NewMemoryNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, cyc *model.Cycle) (*model.Cycle, error) {
		if cyc.ResponseText != "" {
			if err := d.Gateway.AppendTurn(ctx, model.Turn{
				LeadKey: cyc.Event.LeadKey,
				Role:    model.RoleAgent,
				Message: cyc.ResponseText,
			}); err != nil {
				logx.Warn().Err(err).Str("traceID", cyc.TraceID).Msg("failed to persist agent turn")
				cyc.Fail("agent turn not persisted")
			}
		}
		if cyc.Lead != nil && !cyc.Escalated {
			if cyc.Lead.Status == model.StatusNew {
				cyc.Lead.Status = model.StatusContacted
			}
			if err := d.Gateway.UpsertLead(ctx, cyc.Lead); err != nil {
				logx.Warn().Err(err).Str("traceID", cyc.TraceID).Msg("failed to persist lead state")
				cyc.Fail("lead state not persisted")
			}
		}
		return cyc, nil
	})
}

// NewFinalizeNode closes the cycle into the public response and publishes
// the decision audit event.
func NewFinalizeNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, cyc *model.Cycle) (*model.AgentResponse, error) {
		if d.Sink != nil {
			ev := events.DecisionEvent{
				TraceID:    cyc.TraceID,
				LeadKey:    cyc.Event.LeadKey,
				Kind:       string(cyc.Decision.Kind),
				Confidence: cyc.Confidence,
				Reasoning:  cyc.Decision.Reasoning,
				Tools:      cyc.InvokedTools,
				Escalated:  cyc.Escalated,
				CreatedAt:  time.Now(),
			}
			if err := d.Sink.PublishDecision(ctx, ev); err != nil {
				logx.Warn().Err(err).Str("traceID", cyc.TraceID).Msg("decision event publish failed")
			}
		}
		logx.Info().
			Str("traceID", cyc.TraceID).
			Str("kind", string(cyc.Decision.Kind)).
			Float64("confidence", cyc.Confidence).
			Bool("escalated", cyc.Escalated).
			Int("errors", len(cyc.Errors)).
			Msg("cycle closed")
		return &model.AgentResponse{
			Text:         cyc.ResponseText,
			Confidence:   cyc.Confidence,
			Kind:         cyc.Decision.Kind,
			Grounded:     cyc.Grounded,
			CitedSources: cyc.CitedSources,
			InvokedTools: cyc.InvokedTools,
			Escalated:    cyc.Escalated,
		}, nil
	})
}

func buildComposeUser(cyc *model.Cycle) string {
	var b strings.Builder

	if cyc.Lead != nil && cyc.Lead.Name != "" {
		fmt.Fprintf(&b, "Lead name: %s\n", cyc.Lead.Name)
	}
	if len(cyc.RecentTurns) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, t := range cyc.RecentTurns {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Message)
		}
	}
	fmt.Fprintf(&b, "\nThe lead just said:\n%s\n", cyc.Event.Message)

	if len(cyc.Kept) > 0 {
		b.WriteString("\nEvidence excerpts:\n")
		for _, c := range cyc.Kept {
			fmt.Fprintf(&b, "--- [%s] (%s)\n%s\n", c.DocTitle, c.DocType, c.Content)
		}
	}
	if len(cyc.ToolResults) > 0 {
		b.WriteString("\nActions taken this turn:\n")
		for name, res := range cyc.ToolResults {
			if res.Success {
				fmt.Fprintf(&b, "- %s succeeded: %v\n", name, res.Payload)
			} else {
				fmt.Fprintf(&b, "- %s failed\n", name)
			}
		}
	}
	if cyc.Decision.Kind == model.KindClarify {
		b.WriteString("\nThe message was too ambiguous to act on. Ask one short clarifying question.\n")
	}
	return b.String()
}

func inWindow(turns []model.Turn, t model.Turn) bool {
	for _, w := range turns {
		if w.Role == t.Role && w.Message == t.Message {
			return true
		}
	}
	return false
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
