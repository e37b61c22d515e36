package confidence

import (
	"strings"

	"github.com/inboundiq/server/internal/agent/model"
)

// QueryComplexity estimates how demanding a message is on a 0–1 scale from
// its length, the number of distinct questions, and comparative or
// conditional phrasing.
func QueryComplexity(message string) float64 {
	words := strings.Fields(message)
	var c float64

	switch {
	case len(words) > 60:
		c += 0.4
	case len(words) > 25:
		c += 0.2
	}

	if q := strings.Count(message, "?"); q > 1 {
		c += 0.2 * float64(q-1)
	}

	lower := strings.ToLower(message)
	for _, marker := range []string{"compare", "versus", " vs ", "difference between", "what if", "depends on", "trade-off", "tradeoff"} {
		if strings.Contains(lower, marker) {
			c += 0.2
			break
		}
	}
	if strings.Contains(lower, " and ") && strings.Contains(message, "?") {
		c += 0.1
	}

	return clamp(c)
}

// ContextCompleteness measures how much of the picture the agent holds:
// evidence on hand, conversation history, and lead profile fields.
func ContextCompleteness(kept []model.EvidenceChunk, turns []model.Turn, lead *model.Lead) float64 {
	var c float64

	switch {
	case len(kept) >= 3:
		c += 0.5
	case len(kept) > 0:
		c += 0.3
	}

	switch {
	case len(turns) >= 4:
		c += 0.3
	case len(turns) > 0:
		c += 0.15
	}

	if lead != nil {
		if lead.Name != "" {
			c += 0.1
		}
		if lead.Status != model.StatusNew {
			c += 0.1
		}
	}

	return clamp(c)
}

// SourceQuality is the mean rerank score of the kept evidence, or 0 when
// nothing was kept. A grounded answer over weak sources scores weak.
func SourceQuality(kept []model.EvidenceChunk) float64 {
	if len(kept) == 0 {
		return 0
	}
	var sum float64
	for _, c := range kept {
		sum += c.RerankScore
	}
	return clamp(sum / float64(len(kept)))
}
