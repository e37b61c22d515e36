package rag

import (
	"context"
	"fmt"

	"github.com/inboundiq/server/internal/agent/model"
	errx "github.com/inboundiq/server/internal/core/error"
	"github.com/inboundiq/server/internal/embedding"
	"github.com/inboundiq/server/internal/evidence"
	logx "github.com/inboundiq/server/pkg/logger"
)

// EvidenceQuerier is the slice of the evidence store retrieval needs.
type EvidenceQuerier interface {
	Query(ctx context.Context, vec []float32, topK int, f *evidence.Filter) ([]evidence.Row, error)
}

// Retriever embeds the query and pulls the nearest chunks from the
// knowledge base.
type Retriever struct {
	embedder embedding.Embedder
	store    EvidenceQuerier
	topK     int
}

func NewRetriever(embedder embedding.Embedder, store EvidenceQuerier, topK int) *Retriever {
	if topK <= 0 {
		topK = 8
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve returns the topK chunks most similar to query. An empty knowledge
// base yields an empty slice and nil error; embedding or store failures
// return errx.ErrRetrieval so the caller can tell "nothing known" from
// "lookup broken".
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]model.EvidenceChunk, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		logx.Error().Err(err).Msg("query embedding failed")
		return nil, errx.Retrieval(fmt.Errorf("embed query: %w", err))
	}

	rows, err := r.store.Query(ctx, vec, r.topK, nil)
	if err != nil {
		logx.Error().Err(err).Msg("evidence store query failed")
		return nil, errx.Retrieval(fmt.Errorf("query evidence: %w", err))
	}

	chunks := make([]model.EvidenceChunk, 0, len(rows))
	for _, row := range rows {
		chunks = append(chunks, model.EvidenceChunk{
			ChunkID:    row.ChunkID,
			DocID:      row.DocID,
			DocTitle:   row.DocTitle,
			DocType:    row.DocType,
			Content:    row.Content,
			UpdatedAt:  row.UpdatedAt,
			Similarity: row.Similarity,
		})
	}
	logx.Debug().Int("hits", len(chunks)).Msg("retrieval complete")
	return chunks, nil
}
