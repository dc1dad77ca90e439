package ticketflow

import (
	"encoding/json"
	"time"
)

// PendingKind distinguishes what a suspended session is waiting for.
type PendingKind string

// Pending kinds.
const (
	PendingAsk     PendingKind = "ask"
	PendingPreview PendingKind = "preview"
)

// PendingAskState is the human-in-the-loop bookkeeping for a suspended
// session: the questions (or preview) that were emitted and what they
// were targeting. Discarded on a backward transition.
type PendingAskState struct {
	Kind      PendingKind `json:"kind"`
	Questions []Question  `json:"questions,omitempty"`

	// MissingFields records the field set the questions targeted, for
	// re-ask accounting: a repeat ASK for the same set increments the
	// re-ask counter.
	MissingFields []string  `json:"missing_fields,omitempty"`
	AskedAt       time.Time `json:"asked_at"`

	// Reminded is set once the single automated reminder has gone out.
	Reminded bool `json:"reminded"`
}

// State is the complete engine state for one session. It is what gets
// serialized into a checkpoint; nodes receive it by value and return a
// new value, the engine owns all persistence.
type State struct {
	Session Session `json:"session"`
	Draft   Draft   `json:"draft"`

	Pending *PendingAskState `json:"pending,omitempty"`

	// ReaskCount counts consecutive ASK decisions targeting the same
	// missing-field set. Owned by the engine, consumed by the decision
	// node.
	ReaskCount int `json:"reask_count"`

	// LastFingerprint is the draft-version + report fingerprint of the
	// previous extraction/validation/decision cycle, for the no-change
	// detector.
	LastFingerprint string `json:"last_fingerprint,omitempty"`
}

// newState creates the state for a session's first message.
func newState(sessionID, channelRef string, now time.Time) State {
	return State{
		Session: Session{
			ID:            sessionID,
			ChannelRef:    channelRef,
			Status:        StatusCollecting,
			StateVersion:  1,
			LastUpdatedAt: now,
		},
	}
}

// cycleFingerprint combines draft content and report shape. If two
// consecutive cycles produce the same fingerprint, the cycle changed
// nothing and the engine must force a decision instead of looping.
func cycleFingerprint(d Draft, r ValidationReport) string {
	return d.Version + ":" + r.Fingerprint()
}

// marshalState serializes engine state for checkpointing.
func marshalState(st State) ([]byte, error) {
	return json.Marshal(st)
}

// unmarshalState deserializes engine state from a checkpoint blob.
func unmarshalState(data []byte) (State, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, err
	}
	return st, nil
}
