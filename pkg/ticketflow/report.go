package ticketflow

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Conflict is a constraint-key collision with differing values.
type Conflict struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// ValidationReport is the per-cycle assessment of draft completeness.
// It is ephemeral: recomputed on every validation pass, never persisted
// beyond the engine state it belongs to.
type ValidationReport struct {
	IsValid       bool       `json:"is_valid"`
	MissingFields []string   `json:"missing_fields,omitempty"`
	Conflicts     []Conflict `json:"conflicts,omitempty"`
	Suggestions   []string   `json:"suggestions,omitempty"`

	// QualityScore is advisory only (0-100). It influences question
	// prioritization but never gates completeness.
	QualityScore int `json:"quality_score"`
}

// Fingerprint produces a stable digest of the report's routing-relevant
// content, used by the engine's no-change cycle detector.
func (r ValidationReport) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%t", r.IsValid)
	for _, f := range r.MissingFields {
		h.Write([]byte{0})
		h.Write([]byte(f))
	}
	for _, c := range r.Conflicts {
		h.Write([]byte{1})
		h.Write([]byte(c.Key))
		h.Write([]byte(strings.Join(c.Values, ",")))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Action is the decision node's verdict for a cycle.
type Action string

// Decision actions.
const (
	ActionAsk           Action = "ASK"
	ActionPreview       Action = "PREVIEW"
	ActionReadyToCreate Action = "READY_TO_CREATE"
)

// Question is a single clarification request to the human.
type Question struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Field string `json:"field,omitempty"`
}

// DecisionResult is the decision node's output. Ephemeral, like the
// validation report.
type DecisionResult struct {
	Action Action `json:"action"`

	// Questions is ordered by priority and capped at the configured
	// per-emission maximum (3).
	Questions []Question `json:"questions,omitempty"`

	// Reason is a free-text justification, for logs only.
	Reason string `json:"reason,omitempty"`
}

// detectConflicts finds constraint-key collisions with differing
// values. Always rule-based: it is a pure data-equality check and is
// never delegated to the model.
func detectConflicts(d Draft) []Conflict {
	byKey := make(map[string][]string)
	var order []string
	for _, c := range d.Constraints {
		if !containsString(byKey[c.Key], c.Value) {
			if len(byKey[c.Key]) == 0 {
				order = append(order, c.Key)
			}
			byKey[c.Key] = append(byKey[c.Key], c.Value)
		}
	}

	var conflicts []Conflict
	for _, key := range order {
		if values := byKey[key]; len(values) > 1 {
			conflicts = append(conflicts, Conflict{Key: key, Values: values})
		}
	}
	return conflicts
}
