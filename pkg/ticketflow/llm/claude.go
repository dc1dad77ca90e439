package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/llmkit/claude"
)

// completer is the slice of claude.Client the invoker needs.
type completer interface {
	Complete(ctx context.Context, req claude.CompletionRequest) (*claude.CompletionResponse, error)
}

// ClaudeInvoker implements Invoker on top of the llmkit claude client.
type ClaudeInvoker struct {
	client    completer
	model     string
	maxTokens int
	timeout   time.Duration
}

// ClaudeOption configures ClaudeInvoker.
type ClaudeOption func(*ClaudeInvoker)

// WithModel sets the default model.
func WithModel(model string) ClaudeOption {
	return func(c *ClaudeInvoker) { c.model = model }
}

// WithMaxTokens sets the default response cap.
func WithMaxTokens(n int) ClaudeOption {
	return func(c *ClaudeInvoker) { c.maxTokens = n }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) ClaudeOption {
	return func(c *ClaudeInvoker) { c.timeout = d }
}

// NewClaudeInvoker creates an Invoker backed by a claude.Client.
func NewClaudeInvoker(client claude.Client, opts ...ClaudeOption) *ClaudeInvoker {
	c := &ClaudeInvoker{
		client:  client,
		timeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke implements Invoker. The expected schema is embedded in the
// system prompt; the response is validated as JSON before returning.
func (c *ClaudeInvoker) Invoke(ctx context.Context, req Request) (json.RawMessage, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Complete(ctx, claude.CompletionRequest{
		SystemPrompt: c.systemPrompt(req),
		Messages: []claude.Message{
			{Role: claude.RoleUser, Content: req.Prompt},
		},
		Model:     firstNonEmpty(req.Model, c.model),
		MaxTokens: firstNonZero(req.MaxTokens, c.maxTokens),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewError("invoke", ctx.Err(), true)
		}
		return nil, NewError("invoke", err, isTransient(err))
	}

	raw, err := extractJSON(resp.Content)
	if err != nil {
		// Structural failure: callers treat it as a no-op result.
		return nil, NewError("parse", err, false)
	}
	return raw, nil
}

// systemPrompt appends the JSON-only contract and schema to the
// caller's persona prompt.
func (c *ClaudeInvoker) systemPrompt(req Request) string {
	var b strings.Builder
	if req.System != "" {
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}
	b.WriteString("Respond with a single JSON value and nothing else.")
	if len(req.Schema) > 0 {
		fmt.Fprintf(&b, " The response must match this JSON Schema:\n%s", req.Schema)
	}
	return b.String()
}

// isTransient classifies provider errors that are worth one retry.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "529")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
