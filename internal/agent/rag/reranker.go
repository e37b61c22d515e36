package rag

import (
	"math"
	"sort"
	"time"

	"github.com/inboundiq/server/internal/agent/model"
)

const (
	similarityWeight = 0.6
	recencyWeight    = 0.2
	qualityWeight    = 0.2

	// recency half-life: a chunk 90 days old scores half a fresh one
	recencyHalfLifeDays = 90

	unknownTypeQuality = 0.5
)

var docTypeQuality = map[model.DocType]float64{
	model.DocPricing: 1.0,
	model.DocSOP:     0.95,
	model.DocPolicy:  0.9,
	model.DocFAQ:     0.8,
	model.DocGeneral: 0.7,
}

// Reranker orders retrieved chunks by a blend of similarity, freshness and
// source quality, and drops those below the cut-off.
type Reranker struct {
	dropBelow float64
	now       func() time.Time
}

func NewReranker(dropBelow float64) *Reranker {
	return &Reranker{dropBelow: dropBelow, now: time.Now}
}

// Rerank scores every chunk and returns (kept, scored): kept is the chunks
// at or above the cut-off in descending score order; scored is the full
// scored set, which conflict detection still inspects.
func (r *Reranker) Rerank(chunks []model.EvidenceChunk) (kept, scored []model.EvidenceChunk) {
	scored = make([]model.EvidenceChunk, len(chunks))
	copy(scored, chunks)

	now := r.now()
	for i := range scored {
		scored[i].RerankScore = similarityWeight*scored[i].Similarity +
			recencyWeight*recencyScore(scored[i].UpdatedAt, now) +
			qualityWeight*qualityScore(scored[i].DocType)
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].RerankScore > scored[j].RerankScore })

	kept = make([]model.EvidenceChunk, 0, len(scored))
	for _, c := range scored {
		if c.RerankScore >= r.dropBelow {
			kept = append(kept, c)
		}
	}
	return kept, scored
}

// recencyScore decays exponentially with age. A zero timestamp means the
// document's age is unknown and scores as stale.
func recencyScore(updatedAt, now time.Time) float64 {
	if updatedAt.IsZero() {
		return 0
	}
	ageDays := now.Sub(updatedAt).Hours() / 24
	if ageDays <= 0 {
		return 1
	}
	return math.Exp(-math.Ln2 * ageDays / recencyHalfLifeDays)
}

func qualityScore(t model.DocType) float64 {
	if q, ok := docTypeQuality[t]; ok {
		return q
	}
	return unknownTypeQuality
}
