package ticketflow

import (
	"errors"
	"fmt"
)

// Sentinel errors for engine invocation.
var (
	// ErrEmptySessionID indicates an event arrived without a session ID.
	ErrEmptySessionID = errors.New("session ID cannot be empty")

	// ErrNoCheckpoint indicates a resume was requested for a session
	// with no persisted checkpoint. This is an invariant violation and
	// is never swallowed.
	ErrNoCheckpoint = errors.New("no checkpoint for session")

	// ErrNotSuspended indicates a resume was requested for a session
	// that is not awaiting a human response.
	ErrNotSuspended = errors.New("session is not suspended")

	// ErrSessionCreated indicates an event arrived for a session whose
	// ticket has already been created.
	ErrSessionCreated = errors.New("session already created its ticket")

	// ErrNoTracker indicates the terminal create transition was reached
	// without an issue-tracker client configured.
	ErrNoTracker = errors.New("issue tracker not configured")
)

// Sentinel errors for persistence.
var (
	// ErrSerializeState indicates engine state serialization failed.
	ErrSerializeState = errors.New("failed to serialize state")

	// ErrDeserializeState indicates a checkpoint blob could not be
	// decoded into engine state.
	ErrDeserializeState = errors.New("failed to deserialize state")
)

// NodeError wraps an error with node context.
type NodeError struct {
	// Node is the workflow node that failed ("extract", "validate", ...).
	Node string
	// Op is the operation that failed.
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %s: %v", e.Node, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// CheckpointError wraps errors from checkpoint persistence.
type CheckpointError struct {
	// SessionID is the session whose checkpoint failed.
	SessionID string
	// Op is the operation that failed ("save", "load", "serialize").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s for session %s: %v", e.Op, e.SessionID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CheckpointError) Unwrap() error {
	return e.Err
}

// StepLimitError reports loop exhaustion: the per-session step counter
// exceeded its ceiling. The engine handles it by forcing a terminal
// decision; callers see it only in logs.
type StepLimitError struct {
	// Max is the configured step ceiling.
	Max int
	// SessionID is the exhausted session.
	SessionID string
}

// Error implements the error interface.
func (e *StepLimitError) Error() string {
	return fmt.Sprintf("session %s exceeded step limit (%d)", e.SessionID, e.Max)
}

// StaleApprovalError reports an approval presented against a draft
// version that has since changed. Surfaced to the human as "needs
// re-review", never silently resolved.
type StaleApprovalError struct {
	SessionID     string
	PresentedHash string
	CurrentHash   string
}

// Error implements the error interface.
func (e *StaleApprovalError) Error() string {
	return fmt.Sprintf("stale approval for session %s: draft changed since review (presented %.8s, current %.8s), re-review required",
		e.SessionID, e.PresentedHash, e.CurrentHash)
}

// TransitionError reports a state-machine edge that is not in the
// transition table.
type TransitionError struct {
	SessionID string
	From      Status
	To        Status
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("session %s: invalid transition %s -> %s", e.SessionID, e.From, e.To)
}
