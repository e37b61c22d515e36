package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Task types understood by the Gemini embedding endpoint. Queries and
// documents are embedded asymmetrically.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// GenAIEmbedder generates embeddings through the Gemini API.
type GenAIEmbedder struct {
	client   *genai.Client
	model    string
	taskType string
}

// NewGenAIEmbedder builds an embedder over a shared genai client.
// taskType distinguishes query-side from document-side embeddings;
// an empty value defaults to retrieval queries.
func NewGenAIEmbedder(client *genai.Client, model, taskType string) (*GenAIEmbedder, error) {
	if client == nil {
		return nil, fmt.Errorf("genai client is nil")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	if taskType == "" {
		taskType = TaskRetrievalQuery
	}
	return &GenAIEmbedder{client: client, model: model, taskType: taskType}, nil
}

// Embed generates an embedding for a single text.
func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := e.client.Models.EmbedContent(ctx,
		e.model,
		contents,
		&genai.EmbedContentConfig{TaskType: e.taskType},
	)
	if err != nil {
		return nil, fmt.Errorf("embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return result.Embeddings[0].Values, nil
}

// EmbedBatch generates embeddings for multiple texts in one call.
func (e *GenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := e.client.Models.EmbedContent(ctx,
		e.model,
		contents,
		&genai.EmbedContentConfig{TaskType: e.taskType},
	)
	if err != nil {
		return nil, fmt.Errorf("batch embed failed: %w", err)
	}

	embeddings := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		embeddings[i] = emb.Values
	}
	return embeddings, nil
}
