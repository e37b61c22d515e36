package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"google.golang.org/genai"

	"github.com/inboundiq/server/internal/agent/model"
	"github.com/inboundiq/server/internal/agent/rag"
	"github.com/inboundiq/server/internal/core"
	"github.com/inboundiq/server/internal/embedding"
	"github.com/inboundiq/server/internal/evidence"
	logx "github.com/inboundiq/server/pkg/logger"
)

// IngestConfig is the environment surface of the knowledge-base loader.
type IngestConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	APIKey      string `envconfig:"GEMINI_API_KEY" required:"true"`
	Embedding   model.EmbeddingConfig
	Stores      model.StoreConfig
}

// docTypeFromDir maps a knowledge-base subdirectory to the chunk's doc type.
// Documents outside a known subdirectory count as general material.
func docTypeFromDir(dir string) model.DocType {
	switch strings.ToLower(dir) {
	case "pricing":
		return model.DocPricing
	case "sop", "sops":
		return model.DocSOP
	case "policy", "policies":
		return model.DocPolicy
	case "faq", "faqs":
		return model.DocFAQ
	default:
		return model.DocGeneral
	}
}

func main() {
	dir := flag.String("dir", "./knowledge", "root directory of knowledge base documents")
	flag.Parse()

	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg IngestConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create genai client")
	}
	embedder, err := embedding.NewGenAIEmbedder(client, cfg.Embedding.Model, embedding.TaskRetrievalDocument)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create document embedder")
	}

	store, err := evidence.NewStore(cfg.Stores.EvidencePath)
	if err != nil {
		logx.Fatal().Err(err).Str("path", cfg.Stores.EvidencePath).Msg("failed to open evidence store")
	}
	defer store.Close()

	var docs, chunks int
	err = filepath.WalkDir(*dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(path), ".md") && !strings.HasSuffix(strings.ToLower(path), ".txt") {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		rel, _ := filepath.Rel(*dir, path)
		parts := strings.Split(filepath.ToSlash(rel), "/")
		docType := model.DocGeneral
		if len(parts) > 1 {
			docType = docTypeFromDir(parts[0])
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		docID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		title := strings.ReplaceAll(docID, "_", " ")

		n, err := ingestDocument(ctx, store, embedder, docID, title, docType, string(raw), info.ModTime())
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		docs++
		chunks += n
		logx.Info().Str("doc", docID).Str("type", string(docType)).Int("chunks", n).Msg("document ingested")
		return nil
	})
	if err != nil {
		logx.Fatal().Err(err).Str("dir", *dir).Msg("ingestion failed")
	}

	logx.Info().Int("documents", docs).Int("chunks", chunks).Msg("knowledge base ingested")
}

func ingestDocument(ctx context.Context, store *evidence.Store, embedder *embedding.GenAIEmbedder,
	docID, title string, docType model.DocType, content string, updatedAt time.Time) (int, error) {

	pieces := rag.ChunkText(content, 0, 0)
	if len(pieces) == 0 {
		return 0, nil
	}

	vecs, err := embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vecs) != len(pieces) {
		return 0, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(pieces), len(vecs))
	}

	for i, piece := range pieces {
		c := evidence.Chunk{
			ChunkID:   fmt.Sprintf("%s#%d", docID, i),
			DocID:     docID,
			DocTitle:  title,
			DocType:   docType,
			Content:   piece,
			UpdatedAt: updatedAt,
			Embedding: vecs[i],
		}
		if err := store.Add(ctx, c); err != nil {
			return i, err
		}
	}
	return len(pieces), nil
}
