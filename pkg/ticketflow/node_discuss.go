package ticketflow

import (
	"context"
	"encoding/json"

	"github.com/randalmurphal/ticketflow/pkg/ticketflow/llm"
)

// discussNode returns a single short reply and the flow terminates
// immediately: no session state transition, no checkpoint.
type discussNode struct {
	invoker llm.Invoker
}

func (n discussNode) run(ctx context.Context, message string) (string, error) {
	raw, err := n.invoker.Invoke(ctx, llm.Request{
		System: discussSystemPrompt,
		Prompt: message,
		Schema: discussSchema,
	})
	if err != nil {
		return "", &NodeError{Node: "discuss", Op: "invoke", Err: err}
	}

	var result struct {
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", &NodeError{Node: "discuss", Op: "decode", Err: err}
	}
	return result.Reply, nil
}
