// Package llm provides the provider-agnostic structured-invocation
// interface the workflow nodes call through. The engine never knows
// which backend services a call.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Request is a structured-output invocation.
type Request struct {
	// System is the persona / instruction prompt.
	System string

	// Prompt is the user-turn content.
	Prompt string

	// Schema is a JSON Schema describing the expected result shape.
	// It is embedded in the prompt for providers without native
	// structured output.
	Schema json.RawMessage

	// Model overrides the invoker's default model when non-empty.
	Model string

	// MaxTokens caps the response length when > 0.
	MaxTokens int
}

// Invoker performs a structured LLM call.
// Implementations must be safe for concurrent use.
type Invoker interface {
	// Invoke runs the request and returns the raw JSON result.
	// Failures are reported as *Error so callers can distinguish
	// transient from structural failures.
	Invoke(ctx context.Context, req Request) (json.RawMessage, error)
}

// ErrUnparseable indicates the model produced output that does not
// decode against the expected schema. Structural, never retried.
var ErrUnparseable = errors.New("unparseable model output")

// Error wraps an invocation failure with retryability information.
type Error struct {
	// Op is the operation that failed.
	Op string
	// Err is the underlying error.
	Err error
	// Retryable is true for transient failures (rate limits, timeouts).
	Retryable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an invocation error.
func NewError(op string, err error, retryable bool) *Error {
	return &Error{Op: op, Err: err, Retryable: retryable}
}

// IsRetryable reports whether err is a transient invocation failure.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// WithRetry wraps an invoker so transient failures are retried once.
// Structural failures pass through unchanged.
func WithRetry(inner Invoker) Invoker {
	return retryInvoker{inner: inner}
}

type retryInvoker struct {
	inner Invoker
}

// Invoke implements Invoker.
func (r retryInvoker) Invoke(ctx context.Context, req Request) (json.RawMessage, error) {
	out, err := r.inner.Invoke(ctx, req)
	if err == nil || !IsRetryable(err) || ctx.Err() != nil {
		return out, err
	}
	return r.inner.Invoke(ctx, req)
}

// extractJSON pulls the first JSON object or array out of model text,
// tolerating markdown fences and surrounding prose.
func extractJSON(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	start := strings.IndexAny(trimmed, "{[")
	if start < 0 {
		return nil, fmt.Errorf("%w: no JSON found", ErrUnparseable)
	}
	candidate := trimmed[start:]

	var probe any
	decoder := json.NewDecoder(strings.NewReader(candidate))
	if err := decoder.Decode(&probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	end := decoder.InputOffset()
	return json.RawMessage(candidate[:end]), nil
}
