package ticketflow

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/randalmurphal/ticketflow/pkg/ticketflow/llm"
)

// ReviewResult is the review node's structured findings. The node is
// stateless with respect to the draft: it never mutates one, and it
// has no path to the issue tracker.
type ReviewResult struct {
	Summary       string   `json:"summary"`
	Risks         []string `json:"risks,omitempty"`
	Alternatives  []string `json:"alternatives,omitempty"`
	OpenQuestions []string `json:"open_questions,omitempty"`
}

type reviewNode struct {
	invoker llm.Invoker
}

// run performs persona-flavored analysis of the conversation.
func (n reviewNode) run(ctx context.Context, message, personaHint string, recentContext []string) (ReviewResult, error) {
	system := reviewSystemPrompt
	if personaHint != "" {
		system = "Persona: " + personaHint + "\n\n" + system
	}

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

	raw, err := n.invoker.Invoke(ctx, llm.Request{
		System: system,
		Prompt: prompt.String(),
		Schema: reviewSchema,
	})
	if err != nil {
		return ReviewResult{}, &NodeError{Node: "review", Op: "invoke", Err: err}
	}

	var result ReviewResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return ReviewResult{}, &NodeError{Node: "review", Op: "decode", Err: err}
	}
	return result, nil
}
