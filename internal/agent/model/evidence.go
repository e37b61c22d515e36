package model

import "time"

// DocType tags a knowledge-base document by authority class.
type DocType string

const (
	DocPricing DocType = "pricing"
	DocSOP     DocType = "sop"
	DocPolicy  DocType = "policy"
	DocFAQ     DocType = "faq"
	DocGeneral DocType = "general"
)

// EvidenceChunk is one retrieved knowledge-base fragment. Produced fresh per
// retrieval call and discarded after the decision cycle.
type EvidenceChunk struct {
	ChunkID    string    `json:"chunk_id"`
	DocID      string    `json:"doc_id"`
	DocTitle   string    `json:"doc_title"`
	DocType    DocType   `json:"doc_type"`
	Content    string    `json:"content"`
	UpdatedAt  time.Time `json:"updated_at"`
	Similarity float64   `json:"similarity"`
	// RerankScore is zero until the reranker has scored the chunk.
	RerankScore float64 `json:"rerank_score"`
}
