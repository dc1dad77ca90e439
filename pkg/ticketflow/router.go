package ticketflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/randalmurphal/ticketflow/pkg/ticketflow/llm"
)

// Intent is the top-level flow a message routes into.
type Intent string

// Intents.
const (
	IntentTicket     Intent = "TICKET"
	IntentReview     Intent = "REVIEW"
	IntentDiscussion Intent = "DISCUSSION"
)

// IntentResult is the router's classification of one inbound message.
type IntentResult struct {
	Intent      Intent   `json:"intent"`
	Confidence  float64  `json:"confidence"`
	PersonaHint string   `json:"persona_hint,omitempty"`
	Topic       string   `json:"topic,omitempty"`
	Reasons     []string `json:"reasons,omitempty"`
}

// negationPatterns force REVIEW and bypass every later check. Explicit
// negative intent must never be shadowed by a positive keyword later in
// the same sentence.
var negationPatterns = []string{
	"don't create a ticket",
	"dont create a ticket",
	"do not create a ticket",
	"don't make a ticket",
	"dont make a ticket",
	"do not make a ticket",
	"no ticket",
	"not a ticket",
	"without creating a ticket",
}

// overridePatterns force the named intent with confidence 1.0.
var overridePatterns = []struct {
	pattern string
	intent  Intent
}{
	{"create a ticket", IntentTicket},
	{"make a ticket", IntentTicket},
	{"file a ticket", IntentTicket},
	{"open a ticket", IntentTicket},
	{"draft a ticket", IntentTicket},
	{"create an issue", IntentTicket},
	{"file an issue", IntentTicket},
	{"review this", IntentReview},
	{"review the", IntentReview},
	{"give feedback on", IntentReview},
	{"critique", IntentReview},
}

// Router classifies inbound messages into a top-level flow before any
// state mutation. It has no side effects; the engine applies the
// routing decision.
type Router struct {
	invoker llm.Invoker
}

// NewRouter creates a router backed by the given invoker.
func NewRouter(invoker llm.Invoker) *Router {
	return &Router{invoker: invoker}
}

// Classify routes a message. Pattern checks run first, in a fixed
// order: negations, then overrides, then the model. On model failure
// the message falls through to DISCUSSION, the least destructive flow.
func (r *Router) Classify(ctx context.Context, message string, recentContext []string) IntentResult {
	normalized := normalizeText(message)

	for _, p := range negationPatterns {
		if strings.Contains(normalized, p) {
			return IntentResult{
				Intent:     IntentReview,
				Confidence: 1.0,
				Reasons:    []string{fmt.Sprintf("negation pattern %q", p)},
			}
		}
	}

	for _, o := range overridePatterns {
		if strings.Contains(normalized, o.pattern) {
			return IntentResult{
				Intent:     o.intent,
				Confidence: 1.0,
				Reasons:    []string{fmt.Sprintf("override pattern %q", o.pattern)},
			}
		}
	}

	return r.classifyWithModel(ctx, message, recentContext)
}

func (r *Router) classifyWithModel(ctx context.Context, message string, recentContext []string) IntentResult {
	var prompt strings.Builder
	if len(recentContext) > 0 {
		prompt.WriteString("Recent context:\n")
		for _, line := range recentContext {
			prompt.WriteString("- ")
			prompt.WriteString(line)
			prompt.WriteString("\n")
		}
		prompt.WriteString("\n")
	}
	prompt.WriteString("Message:\n")
	prompt.WriteString(message)

	raw, err := r.invoker.Invoke(ctx, llm.Request{
		System: routerSystemPrompt,
		Prompt: prompt.String(),
		Schema: routerSchema,
	})
	if err != nil {
		return IntentResult{
			Intent:     IntentDiscussion,
			Confidence: 0,
			Reasons:    []string{"classification failed: " + err.Error()},
		}
	}

	var result IntentResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return IntentResult{
			Intent:     IntentDiscussion,
			Confidence: 0,
			Reasons:    []string{"malformed classification: " + err.Error()},
		}
	}

	switch result.Intent {
	case IntentTicket, IntentReview, IntentDiscussion:
	default:
		result.Intent = IntentDiscussion
		result.Confidence = 0
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	return result
}

// normalizeText canonicalizes a message for pattern matching: NFC
// normalization, lowercasing, whitespace collapse. Unicode-equivalent
// spellings of the same phrase must match the same pattern.
func normalizeText(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}
