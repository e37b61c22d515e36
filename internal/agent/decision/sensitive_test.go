package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSensitive(t *testing.T) {
	tests := []struct {
		message string
		term    string
		want    bool
	}{
		{"I want a refund right now", "refund", true},
		{"My LAWYER will be in touch", "lawyer", true},
		{"we are considering legal action", "legal action", true},
		{"this looks like a scam to me", "scam", true},
		{"I'll issue a chargeback", "chargeback", true},
		{"Please delete my data", "delete my data", true},
		{"what does the enterprise plan cost?", "", false},
		{"can we schedule a demo next week", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			term, ok := IsSensitive(tt.message)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.term, term)
		})
	}
}
