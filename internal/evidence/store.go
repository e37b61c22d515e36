package evidence

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
)

const schema = `
CREATE TABLE IF NOT EXISTS evidence_chunks (
	chunk_id    TEXT PRIMARY KEY,
	doc_id      TEXT NOT NULL,
	doc_title   TEXT NOT NULL,
	doc_type    TEXT NOT NULL,
	content     TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	embedding   BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evidence_doc_type ON evidence_chunks(doc_type);
`

// Store is the chunk+embedding index behind retrieval. Reads are the hot
// path; writes only happen through ingestion.
type Store struct {
	db *sql.DB
}

// Row is one nearest-neighbour query result.
type Row struct {
	ChunkID    string
	DocID      string
	DocTitle   string
	DocType    model.DocType
	Content    string
	UpdatedAt  time.Time
	Similarity float64
}

// Filter restricts a query by chunk metadata.
type Filter struct {
	DocType model.DocType
	Since   time.Time
}

// Chunk is the ingestion-side record.
type Chunk struct {
	ChunkID   string
	DocID     string
	DocTitle  string
	DocType   model.DocType
	Content   string
	UpdatedAt time.Time
	Embedding []float32
}

// NewStore opens the SQLite index and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add inserts or replaces one chunk.
func (s *Store) Add(ctx context.Context, c Chunk) error {
	if len(c.Embedding) == 0 {
		return fmt.Errorf("chunk %s has no embedding", c.ChunkID)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO evidence_chunks
		 (chunk_id, doc_id, doc_title, doc_type, content, updated_at, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ChunkID, c.DocID, c.DocTitle, string(c.DocType), c.Content,
		c.UpdatedAt.UTC().Format(time.RFC3339Nano), encodeVector(c.Embedding),
	)
	if err != nil {
		return fmt.Errorf("insert chunk: %w", err)
	}
	return nil
}

// Query returns the topK chunks nearest to vec by cosine similarity,
// sorted descending. An empty index yields an empty result, not an error;
// database failures propagate so callers can tell the two apart.
func (s *Store) Query(ctx context.Context, vec []float32, topK int, f *Filter) ([]Row, error) {
	if topK <= 0 {
		topK = 8
	}

	q := `SELECT chunk_id, doc_id, doc_title, doc_type, content, updated_at, embedding FROM evidence_chunks`
	var args []any
	var where []string
	if f != nil && f.DocType != "" {
		where = append(where, "doc_type = ?")
		args = append(args, string(f.DocType))
	}
	if f != nil && !f.Since.IsZero() {
		where = append(where, "updated_at >= ?")
		args = append(args, f.Since.UTC().Format(time.RFC3339Nano))
	}
	for i, cond := range where {
		if i == 0 {
			q += " WHERE " + cond
		} else {
			q += " AND " + cond
		}
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var docType, updatedAt string
		var blob []byte
		if err := rows.Scan(&r.ChunkID, &r.DocID, &r.DocTitle, &docType, &r.Content, &updatedAt, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		r.DocType = model.DocType(docType)
		if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			r.UpdatedAt = t
		}
		emb, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("decode embedding for %s: %w", r.ChunkID, err)
		}
		r.Similarity = cosine(vec, emb)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func encodeVector(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// cosine returns the cosine similarity of two vectors, 0 when either is
// zero-length or zero-magnitude. Dimension mismatch scores 0 rather than
// erroring so one malformed row cannot poison a whole query.
func cosine(a, b []float32) float64 {
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
