package model

// DecisionKind is the five-way action choice made per inbound event.
type DecisionKind string

const (
	KindRetrieve   DecisionKind = "RETRIEVE"
	KindReasonOnly DecisionKind = "REASON_ONLY"
	KindUseTool    DecisionKind = "USE_TOOL"
	KindClarify    DecisionKind = "CLARIFY"
	KindEscalate   DecisionKind = "ESCALATE"
)

// KnownDecisionKind reports whether k is one of the five decision kinds.
func KnownDecisionKind(k DecisionKind) bool {
	switch k {
	case KindRetrieve, KindReasonOnly, KindUseTool, KindClarify, KindEscalate:
		return true
	}
	return false
}

// Decision is the normalised output of the decision engine.
// Invalid engine output never survives as-is: it is coerced to ESCALATE
// with zero confidence before anything downstream sees it.
type Decision struct {
	Kind            DecisionKind `json:"kind"`
	Confidence      float64      `json:"confidence"`
	Reasoning       string       `json:"reasoning"`
	Tools           []string     `json:"tools,omitempty"`
	RetrievalNeeded bool         `json:"retrieval_needed"`
	// EscalationReason is set only when the engine coerced this decision
	// from a failure (errored or unparseable model output). Empty for a
	// model-chosen ESCALATE.
	EscalationReason EscalationReason `json:"escalation_reason,omitempty"`
}
