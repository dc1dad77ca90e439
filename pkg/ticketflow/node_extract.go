package ticketflow

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/randalmurphal/ticketflow/pkg/ticketflow/event"
	"github.com/randalmurphal/ticketflow/pkg/ticketflow/llm"
)

// extractNode merges new information from one message into the draft,
// patch-style. It only ever emits additions; the draft's Apply method
// enforces set-if-absent and append-only semantics.
type extractNode struct {
	invoker llm.Invoker
}

// run extracts a patch from the message. On model failure or
// unparseable output it returns an empty patch and the error; the
// caller logs it as a soft error and the run continues. Extraction
// failure never corrupts or rolls back the draft.
func (n extractNode) run(ctx context.Context, d Draft, ev event.Inbound) (DraftPatch, error) {
	raw, err := n.invoker.Invoke(ctx, llm.Request{
		System: extractSystemPrompt,
		Prompt: extractPrompt(d, ev.RawText),
		Schema: extractSchema,
	})
	if err != nil {
		return DraftPatch{}, &NodeError{Node: "extract", Op: "invoke", Err: err}
	}

	var patch DraftPatch
	if err := json.Unmarshal(raw, &patch); err != nil {
		return DraftPatch{}, &NodeError{Node: "extract", Op: "decode", Err: err}
	}

	// Provenance: every value this patch contributes points back at the
	// originating message.
	patch.Evidence = ev.EvidenceRef
	return patch, nil
}

// extractPrompt renders the current draft alongside the new message so
// the model does not restate known information.
func extractPrompt(d Draft, message string) string {
	var b strings.Builder
	b.WriteString("Current draft:\n")

	snapshot, err := json.MarshalIndent(draftSnapshot(d), "", "  ")
	if err != nil {
		b.WriteString("(unavailable)\n")
	} else {
		b.Write(snapshot)
		b.WriteString("\n")
	}

	b.WriteString("\nNew message:\n")
	b.WriteString(message)
	return b.String()
}

// draftSnapshot strips evidence and versioning down to the content the
// extraction model needs to see.
func draftSnapshot(d Draft) map[string]any {
	snap := map[string]any{
		"title":    d.Title,
		"problem":  d.Problem,
		"solution": d.Solution,
	}
	snap["acceptance_criteria"] = itemTexts(d.AcceptanceCriteria)
	snap["open_questions"] = itemTexts(d.OpenQuestions)
	snap["dependencies"] = itemTexts(d.Dependencies)
	snap["risks"] = itemTexts(d.Risks)

	constraints := make([]map[string]string, 0, len(d.Constraints))
	for _, c := range d.Constraints {
		constraints = append(constraints, map[string]string{"key": c.Key, "value": c.Value})
	}
	snap["constraints"] = constraints
	return snap
}

func itemTexts(items []Item) []string {
	texts := make([]string, 0, len(items))
	for _, it := range items {
		texts = append(texts, it.Text)
	}
	return texts
}
