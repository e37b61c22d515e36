package model

// Cycle is the explicit state record for one decision cycle. It flows
// through every orchestration node; no stage reads shared mutable state.
//
// Concurrency model:
//   - One Cycle exists per inbound event and is only touched by the nodes
//     of that event's graph run, which execute sequentially.
//   - Cross-cycle ordering for the same lead key is enforced by the runner,
//     not by this struct.
type Cycle struct {
	TraceID string
	Event   InboundEvent

	// Context
	Lead          *Lead
	RecentTurns   []Turn
	RecalledTurns []Turn // semantically similar past turns, outside the hot window

	// Decision
	Decision Decision

	// Retrieval
	Retrieved        []EvidenceChunk // raw similarity order, rerank score unset
	Ranked           []EvidenceChunk // full scored set, sorted by rerank score
	Kept             []EvidenceChunk // ranked chunks above the drop threshold
	ConflictDetected bool
	RetrievalFailed  bool
	ReRetrieved      bool

	// Composition
	Confidence   float64
	ResponseText string
	CitedSources []string
	Grounded     bool

	// Tools
	ToolResults     map[string]ToolInvocationResult
	InvokedTools    []string
	ToolSuccessRate float64

	// Escalation
	Escalated        bool
	EscalationReason EscalationReason

	Errors []string
}

// NewCycle builds the initial state for an inbound event.
func NewCycle(traceID string, ev InboundEvent) *Cycle {
	return &Cycle{
		TraceID:         traceID,
		Event:           ev,
		ToolResults:     map[string]ToolInvocationResult{},
		ToolSuccessRate: 1.0,
	}
}

// Fail records a stage error without aborting the cycle.
func (c *Cycle) Fail(msg string) {
	c.Errors = append(c.Errors, msg)
}

// Escalate marks the cycle for human handoff. The first reason wins so a
// later, less specific guard cannot overwrite the original cause.
func (c *Cycle) Escalate(reason EscalationReason) {
	if c.Escalated {
		return
	}
	c.Escalated = true
	c.EscalationReason = reason
}

// Snapshot captures the escalation context at the current point in the cycle.
func (c *Cycle) Snapshot() ContextSnapshot {
	return ContextSnapshot{
		Query:       c.Event.Message,
		RecentTurns: c.RecentTurns,
		Sources:     c.CitedSources,
		Errors:      c.Errors,
	}
}
