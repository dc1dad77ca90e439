// Package ledger provides the approval ledger: an idempotency and
// version-consistency guard for the terminal "create ticket" action.
//
// A record is keyed by (session ID, draft hash). The first writer for
// a pair wins; later writers get the existing record back, never a
// merge.
package ledger

import (
	"context"
	"errors"
	"time"
)

// RecordStatus is the approval verdict.
type RecordStatus string

// Record statuses.
const (
	StatusApproved RecordStatus = "approved"
	StatusRejected RecordStatus = "rejected"
)

// Record is one approval decision for a specific draft version.
type Record struct {
	ID        string       `json:"id"`
	SessionID string       `json:"session_id"`
	DraftHash string       `json:"draft_hash"`
	Approver  string       `json:"approver"`
	Status    RecordStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// Outcome reports whether a write was the first for its key.
type Outcome string

// Write outcomes.
const (
	OutcomeAccepted        Outcome = "accepted"
	OutcomeAlreadyRecorded Outcome = "already_recorded"
)

// Result is the outcome of a RecordApproval call. Record is always the
// authoritative stored record: the new one when accepted, the existing
// one otherwise.
type Result struct {
	Outcome Outcome
	Record  Record
}

// Ledger stores approval records with first-writer-wins semantics.
// Implementations must provide atomic compare-and-set or
// unique-constraint guarantees so two concurrent writers for the same
// key never both win.
type Ledger interface {
	// RecordApproval writes an approved record for (sessionID,
	// draftHash). If a record already exists for the pair, the existing
	// record is returned unchanged with OutcomeAlreadyRecorded.
	RecordApproval(ctx context.Context, sessionID, draftHash, approver string) (Result, error)

	// RecordRejection writes a rejected record, same key semantics.
	RecordRejection(ctx context.Context, sessionID, draftHash, approver string) (Result, error)

	// Find returns the record for (sessionID, draftHash), or
	// ErrNotFound.
	Find(ctx context.Context, sessionID, draftHash string) (Record, error)

	// Close releases any resources.
	Close() error
}

// Sentinel errors.
var (
	// ErrNotFound indicates no record exists for the key.
	ErrNotFound = errors.New("approval record not found")

	// ErrLedgerClosed indicates the ledger has been closed.
	ErrLedgerClosed = errors.New("approval ledger closed")
)
