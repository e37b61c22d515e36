package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inboundiq/server/internal/agent/model"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want model.Decision
	}{
		{
			name: "well formed retrieve",
			raw: "DECISION: RETRIEVE\n" +
				"CONFIDENCE: 0.8\n" +
				"REASONING: pricing question, knowledge base should cover it\n" +
				"TOOLS_NEEDED: none\n" +
				"RETRIEVAL_NEEDED: true\n",
			want: model.Decision{
				Kind:            model.KindRetrieve,
				Confidence:      0.8,
				Reasoning:       "pricing question, knowledge base should cover it",
				RetrievalNeeded: true,
			},
		},
		{
			name: "use tool with tool list",
			raw: "DECISION: USE_TOOL\n" +
				"CONFIDENCE: 0.9\n" +
				"REASONING: lead asked to book a call\n" +
				"TOOLS_NEEDED: schedule_meeting, update_crm\n" +
				"RETRIEVAL_NEEDED: false\n",
			want: model.Decision{
				Kind:       model.KindUseTool,
				Confidence: 0.9,
				Reasoning:  "lead asked to book a call",
				Tools:      []string{"schedule_meeting", "update_crm"},
			},
		},
		{
			name: "explicit escalate carries no failure reason",
			raw: "DECISION: ESCALATE\n" +
				"CONFIDENCE: 0.9\n" +
				"REASONING: lead is asking for a custom legal contract\n",
			want: model.Decision{
				Kind:       model.KindEscalate,
				Confidence: 0.9,
				Reasoning:  "lead is asking for a custom legal contract",
			},
		},
		{
			name: "lowercase kind and surrounding noise",
			raw: "Sure! Here is my answer:\n" +
				"decision: reason_only\n" +
				"confidence: 0.75\n" +
				"reasoning: simple greeting\n",
			want: model.Decision{
				Kind:       model.KindReasonOnly,
				Confidence: 0.75,
				Reasoning:  "simple greeting",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDecision(tt.raw))
		})
	}
}

func TestParseDecisionInvalidOutputEscalates(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty output", ""},
		{"unknown kind", "DECISION: PONDER\nCONFIDENCE: 0.8\nREASONING: hmm\n"},
		{"missing confidence", "DECISION: RETRIEVE\nREASONING: ok\n"},
		{"confidence above one", "DECISION: RETRIEVE\nCONFIDENCE: 1.4\nREASONING: ok\n"},
		{"negative confidence", "DECISION: RETRIEVE\nCONFIDENCE: -0.2\nREASONING: ok\n"},
		{"confidence not a number", "DECISION: RETRIEVE\nCONFIDENCE: high\nREASONING: ok\n"},
		{"use tool with no tools", "DECISION: USE_TOOL\nCONFIDENCE: 0.9\nREASONING: ok\nTOOLS_NEEDED: none\n"},
		{"free prose", "I think we should probably retrieve something here."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ParseDecision(tt.raw)
			assert.Equal(t, model.KindEscalate, d.Kind)
			assert.Equal(t, 0.0, d.Confidence)
			assert.Contains(t, d.Reasoning, "invalid decision output")
			assert.Equal(t, model.ReasonInternalError, d.EscalationReason)
		})
	}
}
