package decision

import "strings"

// sensitiveTerms are phrases that route a message straight to a human, no
// model call involved. Matching is deterministic so the guard cannot be
// talked around.
var sensitiveTerms = []string{
	"refund",
	"chargeback",
	"money back",
	"lawsuit",
	"legal action",
	"lawyer",
	"attorney",
	"sue you",
	"suing",
	"compensation",
	"damages",
	"fraud",
	"scam",
	"report you",
	"better business bureau",
	"data breach",
	"gdpr request",
	"delete my data",
}

// IsSensitive reports whether the message contains a term that must bypass
// autonomous handling.
func IsSensitive(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, term := range sensitiveTerms {
		if strings.Contains(lower, term) {
			return term, true
		}
	}
	return "", false
}
