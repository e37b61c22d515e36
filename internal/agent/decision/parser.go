package decision

import (
	"strconv"
	"strings"

	"github.com/inboundiq/server/internal/agent/model"
	logx "github.com/inboundiq/server/pkg/logger"
)

// ParseDecision reads the model's line-oriented decision output:
//
//	DECISION: RETRIEVE
//	CONFIDENCE: 0.8
//	REASONING: pricing question, knowledge base should cover it
//	TOOLS_NEEDED: schedule_meeting, update_crm
//	RETRIEVAL_NEEDED: true
//
// Malformed output never propagates as a parse error: any violation folds
// into a zero-confidence ESCALATE so the failure mode is always "hand to a
// human", never "crash" or "guess".
func ParseDecision(raw string) model.Decision {
	d := model.Decision{Confidence: -1}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "DECISION":
			d.Kind = model.DecisionKind(strings.ToUpper(value))
		case "CONFIDENCE":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				d.Confidence = f
			}
		case "REASONING":
			d.Reasoning = value
		case "TOOLS_NEEDED":
			for _, t := range strings.Split(value, ",") {
				if t = strings.TrimSpace(t); t != "" && !strings.EqualFold(t, "none") {
					d.Tools = append(d.Tools, t)
				}
			}
		case "RETRIEVAL_NEEDED":
			d.RetrievalNeeded = strings.EqualFold(value, "true")
		}
	}

	if reason, ok := validate(d); !ok {
		logx.Warn().Str("reason", reason).Str("raw", truncate(raw, 300)).Msg("model produced invalid decision output")
		return model.Decision{
			Kind:             model.KindEscalate,
			Confidence:       0,
			Reasoning:        "invalid decision output: " + reason,
			EscalationReason: model.ReasonInternalError,
		}
	}
	return d
}

func validate(d model.Decision) (string, bool) {
	if !model.KnownDecisionKind(d.Kind) {
		return "unknown decision kind", false
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return "confidence missing or out of range", false
	}
	if d.Kind == model.KindUseTool && len(d.Tools) == 0 {
		return "USE_TOOL with no tools named", false
	}
	return "", true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
