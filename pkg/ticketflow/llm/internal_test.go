package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/llmkit/claude"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "markdown fence",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "fence without language",
			input: "```\n[1, 2]\n```",
			want:  `[1, 2]`,
		},
		{
			name:  "surrounding prose",
			input: "Here is the result: {\"a\": 1} hope that helps",
			want:  `{"a": 1}`,
		},
		{
			name:  "nested braces",
			input: `{"outer": {"inner": "}"}}`,
			want:  `{"outer": {"inner": "}"}}`,
		},
		{
			name:    "no json",
			input:   "I cannot answer that",
			wantErr: true,
		},
		{
			name:    "truncated",
			input:   `{"a": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnparseable)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

// fakeCompleter scripts claude responses for invoker tests.
type fakeCompleter struct {
	resp  *claude.CompletionResponse
	err   error
	calls []claude.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req claude.CompletionRequest) (*claude.CompletionResponse, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestClaudeInvoker_Invoke(t *testing.T) {
	fake := &fakeCompleter{resp: &claude.CompletionResponse{Content: "```json\n{\"title\": \"x\"}\n```"}}
	inv := &ClaudeInvoker{client: fake, model: "claude-sonnet-4-20250514", maxTokens: 1024}

	raw, err := inv.Invoke(context.Background(), Request{
		System: "extract things",
		Prompt: "the message",
		Schema: json.RawMessage(`{"type": "object"}`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title": "x"}`, string(raw))

	require.Len(t, fake.calls, 1)
	call := fake.calls[0]
	assert.Equal(t, "claude-sonnet-4-20250514", call.Model)
	assert.Equal(t, 1024, call.MaxTokens)
	assert.Contains(t, call.SystemPrompt, "extract things")
	assert.Contains(t, call.SystemPrompt, `"type": "object"`)
	require.Len(t, call.Messages, 1)
	assert.Equal(t, claude.RoleUser, call.Messages[0].Role)
	assert.Equal(t, "the message", call.Messages[0].Content)
}

func TestClaudeInvoker_RequestOverrides(t *testing.T) {
	fake := &fakeCompleter{resp: &claude.CompletionResponse{Content: "{}"}}
	inv := &ClaudeInvoker{client: fake, model: "default-model", maxTokens: 1024}

	_, err := inv.Invoke(context.Background(), Request{
		Prompt:    "hi",
		Model:     "override-model",
		MaxTokens: 64,
	})
	require.NoError(t, err)
	assert.Equal(t, "override-model", fake.calls[0].Model)
	assert.Equal(t, 64, fake.calls[0].MaxTokens)
}

func TestClaudeInvoker_TransientError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("429 rate limit exceeded")}
	inv := &ClaudeInvoker{client: fake}

	_, err := inv.Invoke(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestClaudeInvoker_StructuralError(t *testing.T) {
	fake := &fakeCompleter{resp: &claude.CompletionResponse{Content: "sorry, I can't"}}
	inv := &ClaudeInvoker{client: fake}

	_, err := inv.Invoke(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(errors.New("rate limit")))
	assert.True(t, isTransient(errors.New("overloaded_error")))
	assert.True(t, isTransient(errors.New("upstream 529")))
	assert.True(t, isTransient(context.DeadlineExceeded))
	assert.False(t, isTransient(errors.New("invalid api key")))
}
