// Package event defines the engine's inbound and outbound event
// boundary with the messaging channel integration. Delivery and
// formatting are the collaborator's responsibility; the engine only
// emits.
package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Inbound is one message or human response delivered to the engine.
type Inbound struct {
	SessionID string    `json:"session_id"`
	RawText   string    `json:"raw_text"`
	SenderID  string    `json:"sender_id"`
	Timestamp time.Time `json:"timestamp"`

	// EvidenceRef is an opaque reference back to the source message,
	// attached to every draft value the message produces.
	EvidenceRef string `json:"evidence_ref"`
}

// Kind classifies an outbound event.
type Kind string

// Outbound event kinds.
const (
	KindAsk     Kind = "ASK"
	KindPreview Kind = "PREVIEW"
	KindNotify  Kind = "NOTIFY"
)

// Outbound is an event the engine emits on suspension or completion.
type Outbound struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Kind      Kind           `json:"kind"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewOutbound creates an outbound event with a fresh ID.
func NewOutbound(sessionID string, kind Kind, payload map[string]any) Outbound {
	return Outbound{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Emitter delivers outbound events to the channel integration.
// Implementations should be non-blocking and handle delivery errors
// gracefully; the engine logs but does not abort on emit failure.
type Emitter interface {
	Emit(ctx context.Context, ev Outbound) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, ev Outbound) error

// Emit implements Emitter.
func (f EmitterFunc) Emit(ctx context.Context, ev Outbound) error {
	return f(ctx, ev)
}
