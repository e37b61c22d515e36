package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/inboundiq/server/internal/agent/model"
	errx "github.com/inboundiq/server/internal/core/error"
)

const factualSchema = `
CREATE TABLE IF NOT EXISTS leads (
	lead_key            TEXT PRIMARY KEY,
	name                TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL,
	qualification_score REAL NOT NULL DEFAULT 0,
	notes               TEXT NOT NULL DEFAULT '',
	created_at          TEXT NOT NULL,
	updated_at          TEXT NOT NULL,
	next_follow_up_at   TEXT
);

CREATE TABLE IF NOT EXISTS conversation_turns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	lead_key   TEXT NOT NULL,
	role       TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_lead ON conversation_turns(lead_key, id);

CREATE TABLE IF NOT EXISTS escalation_events (
	event_id   TEXT PRIMARY KEY,
	lead_key   TEXT NOT NULL,
	reason     TEXT NOT NULL,
	confidence REAL NOT NULL,
	snapshot   TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_escalations_lead ON escalation_events(lead_key);

CREATE TABLE IF NOT EXISTS bookings (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	lead_key   TEXT NOT NULL,
	slot       TEXT NOT NULL,
	notes      TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS outbound_messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	lead_key   TEXT NOT NULL,
	channel    TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TEXT NOT NULL
);
`

// FactualStore is the durable record of leads, turns, escalations and tool
// side effects. It is the source of truth; the Redis turn cache and the
// semantic index are rebuildable projections of it.
type FactualStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewFactualStore(dbPath string) (*FactualStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(factualSchema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &FactualStore{db: db, now: time.Now}, nil
}

func (s *FactualStore) Close() error {
	return s.db.Close()
}

func ts(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTS(v string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, v)
	return t
}

// GetLead loads one lead. A missing lead returns (nil, nil).
func (s *FactualStore) GetLead(ctx context.Context, leadKey string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT lead_key, name, status, qualification_score, notes, created_at, updated_at, next_follow_up_at
		 FROM leads WHERE lead_key = ?`, leadKey)

	var l model.Lead
	var status, createdAt, updatedAt string
	var followUp sql.NullString
	err := row.Scan(&l.Key, &l.Name, &status, &l.QualificationScore, &l.Notes, &createdAt, &updatedAt, &followUp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errx.WrapStore(fmt.Errorf("get lead: %w", err))
	}
	l.Status, _ = model.ParseLeadStatus(status)
	l.CreatedAt = parseTS(createdAt)
	l.UpdatedAt = parseTS(updatedAt)
	if followUp.Valid {
		t := parseTS(followUp.String)
		l.NextFollowUpAt = &t
	}
	return &l, nil
}

// CreateLead inserts a new lead with status "new".
func (s *FactualStore) CreateLead(ctx context.Context, leadKey, name string) (*model.Lead, error) {
	now := s.now()
	l := &model.Lead{
		Key:       leadKey,
		Name:      name,
		Status:    model.StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (lead_key, name, status, qualification_score, notes, created_at, updated_at)
		 VALUES (?, ?, ?, 0, '', ?, ?)`,
		l.Key, l.Name, string(l.Status), ts(now), ts(now))
	if err != nil {
		return nil, errx.WrapStore(fmt.Errorf("create lead: %w", err))
	}
	return l, nil
}

// UpsertLead writes the lead's mutable fields back.
func (s *FactualStore) UpsertLead(ctx context.Context, l *model.Lead) error {
	now := s.now()
	l.UpdatedAt = now
	var followUp any
	if l.NextFollowUpAt != nil {
		followUp = ts(*l.NextFollowUpAt)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (lead_key, name, status, qualification_score, notes, created_at, updated_at, next_follow_up_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(lead_key) DO UPDATE SET
		   name = excluded.name,
		   status = excluded.status,
		   qualification_score = excluded.qualification_score,
		   notes = excluded.notes,
		   updated_at = excluded.updated_at,
		   next_follow_up_at = excluded.next_follow_up_at`,
		l.Key, l.Name, string(l.Status), l.QualificationScore, l.Notes,
		ts(now), ts(now), followUp)
	if err != nil {
		return errx.WrapStore(fmt.Errorf("upsert lead: %w", err))
	}
	return nil
}

// AppendTurn records one conversation turn.
func (s *FactualStore) AppendTurn(ctx context.Context, t model.Turn) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_turns (lead_key, role, message, created_at) VALUES (?, ?, ?, ?)`,
		t.LeadKey, t.Role, t.Message, ts(t.CreatedAt))
	if err != nil {
		return errx.WrapStore(fmt.Errorf("append turn: %w", err))
	}
	return nil
}

// RecentTurns returns the last n turns for a lead in chronological order.
func (s *FactualStore) RecentTurns(ctx context.Context, leadKey string, n int) ([]model.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lead_key, role, message, created_at FROM conversation_turns
		 WHERE lead_key = ? ORDER BY id DESC LIMIT ?`, leadKey, n)
	if err != nil {
		return nil, errx.WrapStore(fmt.Errorf("recent turns: %w", err))
	}
	defer rows.Close()

	var out []model.Turn
	for rows.Next() {
		var t model.Turn
		var createdAt string
		if err := rows.Scan(&t.LeadKey, &t.Role, &t.Message, &createdAt); err != nil {
			return nil, errx.WrapStore(fmt.Errorf("scan turn: %w", err))
		}
		t.CreatedAt = parseTS(createdAt)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapStore(fmt.Errorf("iterate turns: %w", err))
	}
	// reverse into chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// RecordEscalation writes the escalation event and flips the lead to
// escalated in one transaction, so an escalated lead always has its event.
func (s *FactualStore) RecordEscalation(ctx context.Context, ev model.EscalationEvent) error {
	snap, err := json.Marshal(ev.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errx.WrapStore(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO escalation_events (event_id, lead_key, reason, confidence, snapshot, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.EventID, ev.LeadKey, string(ev.Reason), ev.Confidence, string(snap), ts(ev.CreatedAt)); err != nil {
		return errx.WrapStore(fmt.Errorf("insert escalation: %w", err))
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE leads SET status = ?, updated_at = ? WHERE lead_key = ?`,
		string(model.StatusEscalated), ts(s.now()), ev.LeadKey); err != nil {
		return errx.WrapStore(fmt.Errorf("mark escalated: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return errx.WrapStore(fmt.Errorf("commit escalation: %w", err))
	}
	return nil
}

// EscalationsForLead lists a lead's escalation events, newest first.
func (s *FactualStore) EscalationsForLead(ctx context.Context, leadKey string) ([]model.EscalationEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, lead_key, reason, confidence, snapshot, created_at
		 FROM escalation_events WHERE lead_key = ? ORDER BY created_at DESC`, leadKey)
	if err != nil {
		return nil, errx.WrapStore(fmt.Errorf("list escalations: %w", err))
	}
	defer rows.Close()

	var out []model.EscalationEvent
	for rows.Next() {
		var ev model.EscalationEvent
		var reason, snap, createdAt string
		if err := rows.Scan(&ev.EventID, &ev.LeadKey, &reason, &ev.Confidence, &snap, &createdAt); err != nil {
			return nil, errx.WrapStore(fmt.Errorf("scan escalation: %w", err))
		}
		ev.Reason = model.EscalationReason(reason)
		ev.CreatedAt = parseTS(createdAt)
		_ = json.Unmarshal([]byte(snap), &ev.Snapshot)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// AddBooking records a scheduled meeting slot for a lead.
func (s *FactualStore) AddBooking(ctx context.Context, leadKey, slot, notes string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookings (lead_key, slot, notes, created_at) VALUES (?, ?, ?, ?)`,
		leadKey, slot, notes, ts(s.now()))
	if err != nil {
		return errx.WrapStore(fmt.Errorf("add booking: %w", err))
	}
	return nil
}

// AddOutboundMessage records a follow-up or notification sent to a lead.
func (s *FactualStore) AddOutboundMessage(ctx context.Context, leadKey, channel, body string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbound_messages (lead_key, channel, body, created_at) VALUES (?, ?, ?, ?)`,
		leadKey, channel, body, ts(s.now()))
	if err != nil {
		return errx.WrapStore(fmt.Errorf("add outbound message: %w", err))
	}
	return nil
}

// LeadsWithDueFollowup returns leads whose next_follow_up_at has passed.
// Escalated and closed leads are never returned; the agent must not keep
// messaging a lead a human has taken over.
func (s *FactualStore) LeadsWithDueFollowup(ctx context.Context, now time.Time) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lead_key, name, status, qualification_score, notes, created_at, updated_at, next_follow_up_at
		 FROM leads
		 WHERE next_follow_up_at IS NOT NULL AND next_follow_up_at <= ?
		   AND status NOT IN (?, ?)`,
		ts(now), string(model.StatusEscalated), string(model.StatusClosed))
	if err != nil {
		return nil, errx.WrapStore(fmt.Errorf("due followups: %w", err))
	}
	defer rows.Close()

	var out []model.Lead
	for rows.Next() {
		var l model.Lead
		var status, createdAt, updatedAt string
		var followUp sql.NullString
		if err := rows.Scan(&l.Key, &l.Name, &status, &l.QualificationScore, &l.Notes, &createdAt, &updatedAt, &followUp); err != nil {
			return nil, errx.WrapStore(fmt.Errorf("scan lead: %w", err))
		}
		l.Status, _ = model.ParseLeadStatus(status)
		l.CreatedAt = parseTS(createdAt)
		l.UpdatedAt = parseTS(updatedAt)
		if followUp.Valid {
			t := parseTS(followUp.String)
			l.NextFollowUpAt = &t
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ClearFollowup removes a lead's pending follow-up marker.
func (s *FactualStore) ClearFollowup(ctx context.Context, leadKey string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE leads SET next_follow_up_at = NULL, updated_at = ? WHERE lead_key = ?`,
		ts(s.now()), leadKey)
	if err != nil {
		return errx.WrapStore(fmt.Errorf("clear followup: %w", err))
	}
	return nil
}
