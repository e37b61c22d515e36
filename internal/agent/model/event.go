package model

import (
	"fmt"
	"strings"
)

// InboundEvent is one incoming lead message. Immutable once received.
type InboundEvent struct {
	LeadKey  string            `json:"email"`
	Name     string            `json:"name"`
	Message  string            `json:"message"`
	Source   string            `json:"source"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate rejects malformed events before they reach the pipeline.
func (e InboundEvent) Validate() error {
	if strings.TrimSpace(e.LeadKey) == "" {
		return fmt.Errorf("inbound event: missing identity key")
	}
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Errorf("inbound event: missing message")
	}
	return nil
}

// AgentResponse is the contract returned to the caller for every cycle.
type AgentResponse struct {
	Text         string       `json:"response_text"`
	Confidence   float64      `json:"confidence"`
	Kind         DecisionKind `json:"decision_kind"`
	Grounded     bool         `json:"grounded"`
	CitedSources []string     `json:"cited_sources"`
	InvokedTools []string     `json:"invoked_tools"`
	Escalated    bool         `json:"escalated"`
}
