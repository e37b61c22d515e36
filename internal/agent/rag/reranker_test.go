package rag

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboundiq/server/internal/agent/model"
)

func fixedReranker(dropBelow float64, now time.Time) *Reranker {
	r := NewReranker(dropBelow)
	r.now = func() time.Time { return now }
	return r
}

func TestRerankScoreBlend(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	r := fixedReranker(0, now)

	// fresh pricing doc with perfect similarity scores the maximum
	_, scored := r.Rerank([]model.EvidenceChunk{{
		ChunkID:    "c1",
		DocType:    model.DocPricing,
		Similarity: 1.0,
		UpdatedAt:  now,
	}})
	require.Len(t, scored, 1)
	assert.InDelta(t, 1.0, scored[0].RerankScore, 1e-9)
}

func TestRerankRecencyHalfLife(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	r := fixedReranker(0, now)

	_, scored := r.Rerank([]model.EvidenceChunk{{
		ChunkID:    "old",
		DocType:    model.DocPricing,
		Similarity: 1.0,
		UpdatedAt:  now.AddDate(0, 0, -90),
	}})
	require.Len(t, scored, 1)
	// 0.6*1.0 + 0.2*0.5 + 0.2*1.0
	assert.InDelta(t, 0.9, scored[0].RerankScore, 1e-6)
}

func TestRerankDocTypeQuality(t *testing.T) {
	now := time.Now()
	r := fixedReranker(0, now)

	tests := []struct {
		docType model.DocType
		quality float64
	}{
		{model.DocPricing, 1.0},
		{model.DocSOP, 0.95},
		{model.DocPolicy, 0.9},
		{model.DocFAQ, 0.8},
		{model.DocGeneral, 0.7},
		{model.DocType("mystery"), 0.5},
	}
	for _, tt := range tests {
		t.Run(string(tt.docType), func(t *testing.T) {
			_, scored := r.Rerank([]model.EvidenceChunk{{
				DocType:    tt.docType,
				Similarity: 0,
				UpdatedAt:  time.Time{},
			}})
			require.Len(t, scored, 1)
			assert.InDelta(t, 0.2*tt.quality, scored[0].RerankScore, 1e-9)
		})
	}
}

func TestRerankDropsBelowCutoff(t *testing.T) {
	now := time.Now()
	r := fixedReranker(0.6, now)

	kept, scored := r.Rerank([]model.EvidenceChunk{
		{ChunkID: "strong", DocType: model.DocPricing, Similarity: 0.9, UpdatedAt: now},
		{ChunkID: "weak", DocType: model.DocGeneral, Similarity: 0.1, UpdatedAt: now.AddDate(-2, 0, 0)},
	})

	require.Len(t, kept, 1)
	assert.Equal(t, "strong", kept[0].ChunkID)
	// the weak chunk survives in the scored set for conflict inspection
	assert.Len(t, scored, 2)
}

func TestRerankOrdersDescending(t *testing.T) {
	now := time.Now()
	r := fixedReranker(0, now)

	_, scored := r.Rerank([]model.EvidenceChunk{
		{ChunkID: "a", DocType: model.DocGeneral, Similarity: 0.2, UpdatedAt: now},
		{ChunkID: "b", DocType: model.DocPricing, Similarity: 0.9, UpdatedAt: now},
		{ChunkID: "c", DocType: model.DocFAQ, Similarity: 0.5, UpdatedAt: now},
	})

	require.Len(t, scored, 3)
	assert.Equal(t, "b", scored[0].ChunkID)
	assert.True(t, scored[0].RerankScore >= scored[1].RerankScore)
	assert.True(t, scored[1].RerankScore >= scored[2].RerankScore)
}

func TestRecencyScoreDecay(t *testing.T) {
	now := time.Now()

	assert.InDelta(t, 1.0, recencyScore(now, now), 1e-9)
	assert.InDelta(t, 0.5, recencyScore(now.AddDate(0, 0, -90), now), 1e-3)
	assert.InDelta(t, 0.25, recencyScore(now.AddDate(0, 0, -180), now), 1e-3)
	assert.Equal(t, 0.0, recencyScore(time.Time{}, now))
	assert.False(t, math.IsNaN(recencyScore(now.AddDate(-50, 0, 0), now)))
}
