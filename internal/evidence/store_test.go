package evidence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboundiq/server/internal/agent/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "evidence.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func addChunk(t *testing.T, s *Store, id string, docType model.DocType, emb []float32) {
	t.Helper()
	require.NoError(t, s.Add(context.Background(), Chunk{
		ChunkID:   id,
		DocID:     "doc-" + id,
		DocTitle:  "Doc " + id,
		DocType:   docType,
		Content:   "content " + id,
		UpdatedAt: time.Now(),
		Embedding: emb,
	}))
}

func TestQueryRanksByCosine(t *testing.T) {
	s := newTestStore(t)
	addChunk(t, s, "near", model.DocPricing, []float32{1, 0, 0})
	addChunk(t, s, "mid", model.DocPricing, []float32{1, 1, 0})
	addChunk(t, s, "far", model.DocPricing, []float32{0, 0, 1})

	rows, err := s.Query(context.Background(), []float32{1, 0, 0}, 8, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "near", rows[0].ChunkID)
	assert.Equal(t, "mid", rows[1].ChunkID)
	assert.Equal(t, "far", rows[2].ChunkID)
	assert.InDelta(t, 1.0, rows[0].Similarity, 1e-6)
	assert.InDelta(t, 0.0, rows[2].Similarity, 1e-6)
}

func TestQueryTopKLimit(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		addChunk(t, s, string(rune('a'+i)), model.DocGeneral, []float32{1, float32(i) / 10})
	}

	rows, err := s.Query(context.Background(), []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestQueryDocTypeFilter(t *testing.T) {
	s := newTestStore(t)
	addChunk(t, s, "p", model.DocPricing, []float32{1, 0})
	addChunk(t, s, "f", model.DocFAQ, []float32{1, 0})

	rows, err := s.Query(context.Background(), []float32{1, 0}, 8, &Filter{DocType: model.DocPricing})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "p", rows[0].ChunkID)
}

func TestQueryEmptyIndex(t *testing.T) {
	s := newTestStore(t)

	rows, err := s.Query(context.Background(), []float32{1, 0}, 8, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAddReplacesExistingChunk(t *testing.T) {
	s := newTestStore(t)
	addChunk(t, s, "dup", model.DocFAQ, []float32{1, 0})
	addChunk(t, s, "dup", model.DocFAQ, []float32{0, 1})

	rows, err := s.Query(context.Background(), []float32{0, 1}, 8, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 1.0, rows[0].Similarity, 1e-6)
}

func TestAddRejectsEmptyEmbedding(t *testing.T) {
	s := newTestStore(t)
	err := s.Add(context.Background(), Chunk{ChunkID: "bad"})
	assert.Error(t, err)
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.14159, 0}
	out, err := decodeVector(encodeVector(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestCosineEdgeCases(t *testing.T) {
	assert.Equal(t, 0.0, cosine(nil, nil))
	assert.Equal(t, 0.0, cosine([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 1}))
	assert.InDelta(t, -1.0, cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}
