// Package checkpoint provides durable snapshots of engine state so a
// suspended session survives process restarts.
package checkpoint

import (
	"errors"
	"time"
)

// Store persists checkpoints keyed by session and step. Superseded
// steps may be retained for audit; only the latest is authoritative.
// Implementations must be safe for concurrent use and must flush
// before acknowledging a save.
type Store interface {
	// Save stores a checkpoint blob for a session at a step.
	// Overwrites if a checkpoint for (sessionID, step) already exists.
	Save(sessionID string, step int, data []byte) error

	// Load retrieves the latest checkpoint for a session.
	// Returns ErrNotFound if the session has no checkpoints.
	Load(sessionID string) (step int, data []byte, err error)

	// LoadStep retrieves the checkpoint at a specific step.
	// Returns ErrNotFound if it doesn't exist.
	LoadStep(sessionID string, step int) ([]byte, error)

	// List returns metadata for all of a session's checkpoints,
	// ordered by step. Returns an empty slice (not an error) if the
	// session has none.
	List(sessionID string) ([]Info, error)

	// Sessions returns the IDs of all sessions with at least one
	// checkpoint.
	Sessions() ([]string, error)

	// DeleteSession removes all checkpoints for a session.
	// Returns nil if the session has none.
	DeleteSession(sessionID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides checkpoint metadata without loading full state.
type Info struct {
	SessionID string
	Step      int
	Timestamp time.Time
	Size      int64
}

// Sentinel errors for checkpoint operations.
var (
	// ErrNotFound indicates a checkpoint doesn't exist.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")
)
