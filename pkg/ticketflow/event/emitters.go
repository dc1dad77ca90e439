package event

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// LogEmitter writes outbound events to a structured logger. Useful as
// a default and in tests.
type LogEmitter struct {
	Logger *slog.Logger
}

// NewLogEmitter creates a LogEmitter. A nil logger means slog.Default.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{Logger: logger}
}

// Emit implements Emitter.
func (e *LogEmitter) Emit(_ context.Context, ev Outbound) error {
	e.Logger.Info("outbound event",
		slog.String("event_id", ev.ID),
		slog.String("session_id", ev.SessionID),
		slog.String("kind", string(ev.Kind)),
	)
	return nil
}

// WebhookEmitter POSTs outbound events as JSON to a channel
// integration endpoint.
type WebhookEmitter struct {
	URL     string
	Headers map[string]string
	Client  *http.Client
}

// NewWebhookEmitter creates a webhook emitter for the given URL.
func NewWebhookEmitter(url string, opts ...WebhookOption) *WebhookEmitter {
	e := &WebhookEmitter{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WebhookOption configures WebhookEmitter.
type WebhookOption func(*WebhookEmitter)

// WithHeader adds a header to every delivery request.
func WithHeader(key, value string) WebhookOption {
	return func(e *WebhookEmitter) {
		if e.Headers == nil {
			e.Headers = make(map[string]string)
		}
		e.Headers[key] = value
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(e *WebhookEmitter) { e.Client = client }
}

// Emit implements Emitter.
func (e *WebhookEmitter) Emit(ctx context.Context, ev Outbound) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range e.Headers {
		req.Header.Set(k, v)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("deliver event: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Multi fans an event out to several emitters. Delivery failures are
// collected; all emitters are attempted.
type Multi struct {
	emitters []Emitter
}

// NewMulti creates a multi-emitter.
func NewMulti(emitters ...Emitter) *Multi {
	return &Multi{emitters: emitters}
}

// Emit implements Emitter.
func (m *Multi) Emit(ctx context.Context, ev Outbound) error {
	var firstErr error
	for _, e := range m.emitters {
		if err := e.Emit(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
