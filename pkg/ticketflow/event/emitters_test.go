package event_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/ticketflow/pkg/ticketflow/event"
)

func TestNewOutbound(t *testing.T) {
	ev := event.NewOutbound("s-1", event.KindAsk, map[string]any{"q": "what?"})

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "s-1", ev.SessionID)
	assert.Equal(t, event.KindAsk, ev.Kind)
	assert.False(t, ev.Timestamp.IsZero())

	other := event.NewOutbound("s-1", event.KindAsk, nil)
	assert.NotEqual(t, ev.ID, other.ID)
}

func TestWebhookEmitter_DeliversJSON(t *testing.T) {
	var received event.Outbound
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	emitter := event.NewWebhookEmitter(srv.URL, event.WithHeader("Authorization", "Bearer tok"))
	ev := event.NewOutbound("s-1", event.KindPreview, map[string]any{"summary": "a draft"})

	require.NoError(t, emitter.Emit(context.Background(), ev))
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, ev.ID, received.ID)
	assert.Equal(t, event.KindPreview, received.Kind)
}

func TestWebhookEmitter_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	emitter := event.NewWebhookEmitter(srv.URL)
	err := emitter.Emit(context.Background(), event.NewOutbound("s-1", event.KindNotify, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestMulti_AttemptsAllEmitters(t *testing.T) {
	var delivered []string
	record := func(name string, err error) event.Emitter {
		return event.EmitterFunc(func(_ context.Context, _ event.Outbound) error {
			delivered = append(delivered, name)
			return err
		})
	}

	wantErr := errors.New("first failed")
	multi := event.NewMulti(
		record("a", wantErr),
		record("b", nil),
		record("c", errors.New("second failure")),
	)

	err := multi.Emit(context.Background(), event.NewOutbound("s-1", event.KindNotify, nil))
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, []string{"a", "b", "c"}, delivered)
}
