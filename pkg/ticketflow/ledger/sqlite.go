package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteLedger persists approval records to SQLite. The unique
// constraint on (session_id, draft_hash) is what enforces
// first-writer-wins under concurrency.
type SQLiteLedger struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// NewSQLiteLedger creates a new SQLite-backed approval ledger.
func NewSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS approvals (
			id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			draft_hash TEXT NOT NULL,
			approver TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (session_id, draft_hash)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteLedger{db: db}, nil
}

// RecordApproval implements Ledger.
func (s *SQLiteLedger) RecordApproval(ctx context.Context, sessionID, draftHash, approver string) (Result, error) {
	return s.record(ctx, sessionID, draftHash, approver, StatusApproved)
}

// RecordRejection implements Ledger.
func (s *SQLiteLedger) RecordRejection(ctx context.Context, sessionID, draftHash, approver string) (Result, error) {
	return s.record(ctx, sessionID, draftHash, approver, StatusRejected)
}

func (s *SQLiteLedger) record(ctx context.Context, sessionID, draftHash, approver string, status RecordStatus) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Result{}, ErrLedgerClosed
	}

	id, err := gonanoid.New()
	if err != nil {
		return Result{}, err
	}
	createdAt := time.Now().UTC()

	// ON CONFLICT DO NOTHING + rows-affected is the atomic
	// first-writer-wins write.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO approvals (id, session_id, draft_hash, approver, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, draft_hash) DO NOTHING
	`, id, sessionID, draftHash, approver, string(status), createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return Result{}, fmt.Errorf("record approval: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return Result{}, fmt.Errorf("record approval: %w", err)
	}

	if affected == 1 {
		return Result{
			Outcome: OutcomeAccepted,
			Record: Record{
				ID:        id,
				SessionID: sessionID,
				DraftHash: draftHash,
				Approver:  approver,
				Status:    status,
				CreatedAt: createdAt,
			},
		}, nil
	}

	existing, err := s.find(ctx, sessionID, draftHash)
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: OutcomeAlreadyRecorded, Record: existing}, nil
}

// Find implements Ledger.
func (s *SQLiteLedger) Find(ctx context.Context, sessionID, draftHash string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Record{}, ErrLedgerClosed
	}
	return s.find(ctx, sessionID, draftHash)
}

func (s *SQLiteLedger) find(ctx context.Context, sessionID, draftHash string) (Record, error) {
	var rec Record
	var status, createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, draft_hash, approver, status, created_at
		FROM approvals
		WHERE session_id = ? AND draft_hash = ?
	`, sessionID, draftHash).Scan(&rec.ID, &rec.SessionID, &rec.DraftHash, &rec.Approver, &status, &createdAt)

	if err == sql.ErrNoRows {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("find approval: %w", err)
	}

	rec.Status = RecordStatus(status)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return rec, nil
}

// Close implements Ledger.
func (s *SQLiteLedger) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
