package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newBufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, &buf
}

func TestLogHelpers_NilLoggerSafe(t *testing.T) {
	// Every helper tolerates a nil logger.
	LogAdvanceStart(nil, "s-1", "alice")
	LogIntent(nil, "s-1", "TICKET", 0.9, nil)
	LogNodeComplete(nil, "s-1", "extract", 10)
	LogNodeSoftError(nil, "s-1", "extract", errors.New("boom"))
	LogDraftOps(nil, "s-1", 2, 0)
	LogSuspend(nil, "s-1", "ask", 3)
	LogCheckpoint(nil, "s-1", 2, 512)
	LogApproval(nil, "s-1", "hash", "accepted")
	LogCreated(nil, "s-1", "TICK-1")
}

func TestLogHelpers_Output(t *testing.T) {
	logger, buf := newBufferLogger()

	LogIntent(logger, "s-1", "TICKET", 0.85, []string{"explicit request"})
	assert.Contains(t, buf.String(), "intent classified")
	assert.Contains(t, buf.String(), "session_id=s-1")
	assert.Contains(t, buf.String(), "TICKET")

	buf.Reset()
	LogSuspend(logger, "s-1", "ask", 2)
	assert.Contains(t, buf.String(), "session suspended")
	assert.Contains(t, buf.String(), "questions=2")

	buf.Reset()
	LogNodeSoftError(logger, "s-1", "extract", errors.New("model failure"))
	assert.Contains(t, buf.String(), "node degraded")
	assert.Contains(t, buf.String(), "model failure")
}

func TestTimedOperation(t *testing.T) {
	elapsed := TimedOperation()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, elapsed(), float64(0))
}
