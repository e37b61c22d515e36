package memory

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/inboundiq/server/internal/agent/model"
	errx "github.com/inboundiq/server/internal/core/error"
	"github.com/inboundiq/server/internal/embedding"
	logx "github.com/inboundiq/server/pkg/logger"
)

const semanticSchema = `
CREATE TABLE IF NOT EXISTS semantic_turns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	lead_key   TEXT NOT NULL,
	role       TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	embedding  BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_semantic_lead ON semantic_turns(lead_key);
`

// SemanticIndex stores embedded conversation turns so past exchanges can be
// recalled by meaning rather than recency. Writes are best-effort; the
// factual store stays the source of truth.
type SemanticIndex struct {
	db       *sql.DB
	embedder embedding.Embedder
}

// Recalled is one semantic recall hit.
type Recalled struct {
	Turn       model.Turn
	Similarity float64
}

func NewSemanticIndex(dbPath string, embedder embedding.Embedder) (*SemanticIndex, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(semanticSchema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SemanticIndex{db: db, embedder: embedder}, nil
}

func (s *SemanticIndex) Close() error {
	return s.db.Close()
}

// Index embeds and stores one turn.
func (s *SemanticIndex) Index(ctx context.Context, t model.Turn) error {
	vec, err := s.embedder.Embed(ctx, t.Message)
	if err != nil {
		return fmt.Errorf("embed turn: %w", err)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO semantic_turns (lead_key, role, message, created_at, embedding) VALUES (?, ?, ?, ?, ?)`,
		t.LeadKey, t.Role, t.Message, t.CreatedAt.UTC().Format(time.RFC3339Nano), packVector(vec))
	if err != nil {
		return errx.WrapStore(fmt.Errorf("index turn: %w", err))
	}
	return nil
}

// Recall returns up to topK of the lead's past turns most similar to query.
func (s *SemanticIndex) Recall(ctx context.Context, leadKey, query string, topK int) ([]Recalled, error) {
	if topK <= 0 {
		topK = 5
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT lead_key, role, message, created_at, embedding FROM semantic_turns WHERE lead_key = ?`, leadKey)
	if err != nil {
		return nil, errx.WrapStore(fmt.Errorf("recall turns: %w", err))
	}
	defer rows.Close()

	var out []Recalled
	for rows.Next() {
		var r Recalled
		var createdAt string
		var blob []byte
		if err := rows.Scan(&r.Turn.LeadKey, &r.Turn.Role, &r.Turn.Message, &createdAt, &blob); err != nil {
			return nil, errx.WrapStore(fmt.Errorf("scan recalled turn: %w", err))
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			r.Turn.CreatedAt = t
		}
		stored, err := unpackVector(blob)
		if err != nil {
			logx.Warn().Err(err).Str("leadKey", leadKey).Msg("skipping malformed turn embedding")
			continue
		}
		r.Similarity = cosine32(vec, stored)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapStore(fmt.Errorf("iterate recalled turns: %w", err))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func packVector(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

func unpackVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

func cosine32(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
