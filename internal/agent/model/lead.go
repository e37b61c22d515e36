package model

import "time"

// LeadStatus is the lifecycle status of a lead.
type LeadStatus string

const (
	StatusNew       LeadStatus = "new"
	StatusContacted LeadStatus = "contacted"
	StatusQualified LeadStatus = "qualified"
	StatusEscalated LeadStatus = "escalated"
	StatusClosed    LeadStatus = "closed"
	StatusChurned   LeadStatus = "churned"
)

// ParseLeadStatus normalises a stored value into a known status.
// Unknown values fall back to StatusNew with ok=false.
func ParseLeadStatus(v string) (LeadStatus, bool) {
	switch LeadStatus(v) {
	case StatusNew, StatusContacted, StatusQualified, StatusEscalated, StatusClosed, StatusChurned:
		return LeadStatus(v), true
	default:
		return StatusNew, false
	}
}

// Lead is a prospective customer record owned by the factual store.
type Lead struct {
	Key                string     `json:"key"`
	Name               string     `json:"name"`
	Status             LeadStatus `json:"status"`
	QualificationScore float64    `json:"qualification_score"`
	Notes              string     `json:"notes"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	NextFollowUpAt     *time.Time `json:"next_followup_at,omitempty"`
}

// Turn roles.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Turn is one message in a lead's conversation. Append-only.
type Turn struct {
	LeadKey   string    `json:"lead_key"`
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// EscalationReason is the closed set of reasons a cycle hands off to a human.
type EscalationReason string

const (
	ReasonConfidenceBelowThreshold EscalationReason = "confidence_below_threshold"
	ReasonSensitiveTopic           EscalationReason = "sensitive_topic"
	ReasonToolFailure              EscalationReason = "tool_failure"
	ReasonRetrievalFailure         EscalationReason = "retrieval_failure"
	ReasonInternalError            EscalationReason = "internal_error"
	ReasonExplicitDecision         EscalationReason = "explicit_decision"
)

// ContextSnapshot captures what the agent knew at the moment of escalation.
type ContextSnapshot struct {
	Query       string   `json:"query"`
	RecentTurns []Turn   `json:"recent_turns,omitempty"`
	Sources     []string `json:"sources,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// EscalationEvent records one human handoff. Never mutated after creation.
type EscalationEvent struct {
	EventID    string           `json:"event_id"`
	LeadKey    string           `json:"lead_key"`
	Reason     EscalationReason `json:"reason"`
	Confidence float64          `json:"confidence"`
	Snapshot   ContextSnapshot  `json:"snapshot"`
	CreatedAt  time.Time        `json:"created_at"`
}
