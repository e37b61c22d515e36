package rag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/inboundiq/server/internal/core/error"
	"github.com/inboundiq/server/internal/evidence"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Embed(context.Context, string) ([]float32, error) { return s.vec, s.err }
func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = s.vec
	}
	return out, s.err
}

type stubStore struct {
	rows []evidence.Row
	err  error
}

func (s *stubStore) Query(context.Context, []float32, int, *evidence.Filter) ([]evidence.Row, error) {
	return s.rows, s.err
}

func TestRetrieveMapsRows(t *testing.T) {
	updated := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	r := NewRetriever(&stubEmbedder{vec: []float32{1, 0}}, &stubStore{rows: []evidence.Row{
		{ChunkID: "c1", DocID: "pricing", DocTitle: "Pricing Guide", DocType: "pricing", Content: "plan: $49", UpdatedAt: updated, Similarity: 0.92},
	}}, 8)

	chunks, err := r.Retrieve(context.Background(), "how much is the plan")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "c1", chunks[0].ChunkID)
	assert.Equal(t, "Pricing Guide", chunks[0].DocTitle)
	assert.Equal(t, updated, chunks[0].UpdatedAt)
	assert.InDelta(t, 0.92, chunks[0].Similarity, 1e-9)
}

func TestRetrieveEmptyKnowledgeBase(t *testing.T) {
	r := NewRetriever(&stubEmbedder{vec: []float32{1}}, &stubStore{}, 8)

	chunks, err := r.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRetrieveStoreFailure(t *testing.T) {
	r := NewRetriever(&stubEmbedder{vec: []float32{1}}, &stubStore{err: errors.New("disk gone")}, 8)

	_, err := r.Retrieve(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, errx.ErrRetrieval)
}

func TestRetrieveEmbedderFailure(t *testing.T) {
	r := NewRetriever(&stubEmbedder{err: errors.New("quota")}, &stubStore{}, 8)

	_, err := r.Retrieve(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, errx.ErrRetrieval)
}
