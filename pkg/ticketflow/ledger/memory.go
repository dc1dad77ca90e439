package ledger

import (
	"context"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// MemoryLedger is an in-memory Ledger for testing.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[string]Record // sessionID + "\x00" + draftHash -> record
	closed  bool
}

// NewMemoryLedger creates a new in-memory approval ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		records: make(map[string]Record),
	}
}

func ledgerKey(sessionID, draftHash string) string {
	return sessionID + "\x00" + draftHash
}

// RecordApproval implements Ledger.
func (m *MemoryLedger) RecordApproval(ctx context.Context, sessionID, draftHash, approver string) (Result, error) {
	return m.record(ctx, sessionID, draftHash, approver, StatusApproved)
}

// RecordRejection implements Ledger.
func (m *MemoryLedger) RecordRejection(ctx context.Context, sessionID, draftHash, approver string) (Result, error) {
	return m.record(ctx, sessionID, draftHash, approver, StatusRejected)
}

func (m *MemoryLedger) record(_ context.Context, sessionID, draftHash, approver string, status RecordStatus) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Result{}, ErrLedgerClosed
	}

	key := ledgerKey(sessionID, draftHash)
	if existing, ok := m.records[key]; ok {
		return Result{Outcome: OutcomeAlreadyRecorded, Record: existing}, nil
	}

	id, err := gonanoid.New()
	if err != nil {
		return Result{}, err
	}

	rec := Record{
		ID:        id,
		SessionID: sessionID,
		DraftHash: draftHash,
		Approver:  approver,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	m.records[key] = rec
	return Result{Outcome: OutcomeAccepted, Record: rec}, nil
}

// Find implements Ledger.
func (m *MemoryLedger) Find(_ context.Context, sessionID, draftHash string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Record{}, ErrLedgerClosed
	}

	rec, ok := m.records[ledgerKey(sessionID, draftHash)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Close implements Ledger.
func (m *MemoryLedger) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.records = nil
	return nil
}
