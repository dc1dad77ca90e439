package checkpoint

import (
	"encoding/json"
	"time"
)

// Version is the current checkpoint format version.
// Increment when making breaking changes to the envelope structure.
const Version = 1

// Checkpoint is the persisted envelope around serialized engine state.
type Checkpoint struct {
	// Metadata
	Version   int       `json:"version"`
	SessionID string    `json:"session_id"`
	Step      int       `json:"step"`
	Timestamp time.Time `json:"timestamp"`

	// State is the serialized engine state snapshot.
	State json.RawMessage `json:"state"`

	// Reason records why the checkpoint was taken ("node", "suspend",
	// "complete"). Informational, for audit.
	Reason string `json:"reason,omitempty"`
}

// New creates a checkpoint envelope. State must already be serialized.
func New(sessionID string, step int, state []byte, reason string) *Checkpoint {
	return &Checkpoint{
		Version:   Version,
		SessionID: sessionID,
		Step:      step,
		Timestamp: time.Now().UTC(),
		State:     state,
		Reason:    reason,
	}
}

// Marshal serializes the envelope to JSON.
func (c *Checkpoint) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// Unmarshal deserializes an envelope from JSON.
func Unmarshal(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
