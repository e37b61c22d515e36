package decision

import (
	"context"
	"fmt"
	"strings"

	"github.com/inboundiq/server/internal/agent/graph/prompts"
	"github.com/inboundiq/server/internal/agent/model"
	"github.com/inboundiq/server/internal/reasoning"
	logx "github.com/inboundiq/server/pkg/logger"
)

const maxHistoryTurns = 5

// Engine decides what the agent should do with an inbound message. It owns
// the decide prompt and the parsing of the model's answer; callers get a
// valid Decision back no matter what the model returned.
type Engine struct {
	gen       reasoning.Generator
	promptCfg *model.PromptConfig
	toolNames []string
}

func NewEngine(gen reasoning.Generator, promptCfg *model.PromptConfig, toolNames []string) *Engine {
	return &Engine{gen: gen, promptCfg: promptCfg, toolNames: toolNames}
}

// Decide asks the model for an action. A generation failure becomes a
// zero-confidence ESCALATE rather than an error so the cycle always has a
// decision to act on.
func (e *Engine) Decide(ctx context.Context, cyc *model.Cycle) model.Decision {
	system, err := prompts.RenderDecideSystem(ctx, e.promptCfg, e.toolNames)
	if err != nil {
		logx.Error().Err(err).Str("traceID", cyc.TraceID).Msg("decide prompt render failed")
		return escalateDecision("decide prompt render failed")
	}

	raw, err := e.gen.Generate(ctx, reasoning.PromptContext{
		System: system,
		User:   buildDecideUser(cyc),
	})
	if err != nil {
		logx.Error().Err(err).Str("traceID", cyc.TraceID).Msg("decide generation failed")
		return escalateDecision("decision model unavailable")
	}

	d := ParseDecision(raw)
	logx.Info().
		Str("traceID", cyc.TraceID).
		Str("kind", string(d.Kind)).
		Float64("confidence", d.Confidence).
		Strs("tools", d.Tools).
		Msg("decision made")
	return d
}

func escalateDecision(reason string) model.Decision {
	return model.Decision{
		Kind:             model.KindEscalate,
		Confidence:       0,
		Reasoning:        reason,
		EscalationReason: model.ReasonInternalError,
	}
}

func buildDecideUser(cyc *model.Cycle) string {
	var b strings.Builder

	b.WriteString("Lead profile:\n")
	if cyc.Lead != nil {
		fmt.Fprintf(&b, "- name: %s\n- status: %s\n- qualification score: %.2f\n",
			orUnknown(cyc.Lead.Name), cyc.Lead.Status, cyc.Lead.QualificationScore)
		if cyc.Lead.Notes != "" {
			fmt.Fprintf(&b, "- notes: %s\n", cyc.Lead.Notes)
		}
	} else {
		b.WriteString("- unknown lead\n")
	}

	turns := cyc.RecentTurns
	if len(turns) > maxHistoryTurns {
		turns = turns[len(turns)-maxHistoryTurns:]
	}
	if len(turns) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, t := range turns {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Message)
		}
	}

	if len(cyc.RecalledTurns) > 0 {
		b.WriteString("\nRelated earlier exchanges:\n")
		for _, t := range cyc.RecalledTurns {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Message)
		}
	}

	fmt.Fprintf(&b, "\nNew message from the lead:\n%s\n", cyc.Event.Message)
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "(unknown)"
	}
	return s
}
