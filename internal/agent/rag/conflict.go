package rag

import (
	"regexp"
	"strings"

	"github.com/inboundiq/server/internal/agent/model"
	logx "github.com/inboundiq/server/pkg/logger"
)

// figurePattern captures a short label followed by a money or percentage
// figure, e.g. "enterprise plan: $499/month" or "setup fee is 10%".
var figurePattern = regexp.MustCompile(
	`(?i)([a-z][a-z0-9 /_-]{2,40}?)(?::| is | costs | at |=)\s*\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(%|/month|/mo|/year|/yr|per month|per year)?`)

type figure struct {
	value string
	unit  string
	docID string
}

// DetectConflict reports whether two documents state different figures for
// the same labeled fact. It runs over the full scored set, not just the kept
// chunks: a dropped chunk contradicting a kept one is still a conflict the
// lead could be exposed to elsewhere.
func DetectConflict(scored []model.EvidenceChunk) bool {
	seen := map[string][]figure{}
	for _, c := range scored {
		for _, m := range figurePattern.FindAllStringSubmatch(c.Content, -1) {
			label := normalizeLabel(m[1])
			if label == "" {
				continue
			}
			seen[label] = append(seen[label], figure{
				value: strings.ReplaceAll(m[2], ",", ""),
				unit:  strings.TrimSpace(strings.ToLower(m[3])),
				docID: c.DocID,
			})
		}
	}

	for label, figs := range seen {
		for i := 0; i < len(figs); i++ {
			for j := i + 1; j < len(figs); j++ {
				a, b := figs[i], figs[j]
				if a.docID != b.docID && a.unit == b.unit && a.value != b.value {
					logx.Warn().
						Str("label", label).
						Str("docA", a.docID).Str("valueA", a.value).
						Str("docB", b.docID).Str("valueB", b.value).
						Msg("conflicting figures across sources")
					return true
				}
			}
		}
	}
	return false
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	// strip leading stopwords so "the enterprise plan" and "enterprise plan" collide
	for _, prefix := range []string{"the ", "our ", "a ", "an "} {
		s = strings.TrimPrefix(s, prefix)
	}
	if len(s) < 3 {
		return ""
	}
	return s
}
