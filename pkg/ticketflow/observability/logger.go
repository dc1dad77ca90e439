// Package observability provides structured logging, metrics, and
// tracing for the workflow engine.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// LogAdvanceStart logs the start of an engine advance.
func LogAdvanceStart(logger *slog.Logger, sessionID, sender string) {
	if logger == nil {
		return
	}
	logger.Info("advance starting",
		slog.String("session_id", sessionID),
		slog.String("sender_id", sender),
	)
}

// LogIntent logs a routing decision.
func LogIntent(logger *slog.Logger, sessionID, intent string, confidence float64, reasons []string) {
	if logger == nil {
		return
	}
	logger.Info("intent classified",
		slog.String("session_id", sessionID),
		slog.String("intent", intent),
		slog.Float64("confidence", confidence),
		slog.Any("reasons", reasons),
	)
}

// LogNodeComplete logs successful node completion.
func LogNodeComplete(logger *slog.Logger, sessionID, node string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("session_id", sessionID),
		slog.String("node", node),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeSoftError logs a degraded node result (empty patch, rule
// fallback). The run continues.
func LogNodeSoftError(logger *slog.Logger, sessionID, node string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("node degraded",
		slog.String("session_id", sessionID),
		slog.String("node", node),
		slog.String("error", err.Error()),
	)
}

// LogDraftOps logs the mutation operations a patch produced.
func LogDraftOps(logger *slog.Logger, sessionID string, ops int, conflicts int) {
	if logger == nil {
		return
	}
	logger.Debug("draft updated",
		slog.String("session_id", sessionID),
		slog.Int("operations", ops),
		slog.Int("conflicts", conflicts),
	)
}

// LogSuspend logs a human-in-the-loop suspension.
func LogSuspend(logger *slog.Logger, sessionID, kind string, questions int) {
	if logger == nil {
		return
	}
	logger.Info("session suspended",
		slog.String("session_id", sessionID),
		slog.String("kind", kind),
		slog.Int("questions", questions),
	)
}

// LogCheckpoint logs checkpoint creation.
func LogCheckpoint(logger *slog.Logger, sessionID string, step, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint saved",
		slog.String("session_id", sessionID),
		slog.Int("step", step),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogApproval logs an approval ledger outcome.
func LogApproval(logger *slog.Logger, sessionID, draftHash, outcome string) {
	if logger == nil {
		return
	}
	logger.Info("approval recorded",
		slog.String("session_id", sessionID),
		slog.String("draft_hash", draftHash),
		slog.String("outcome", outcome),
	)
}

// LogCreated logs terminal ticket creation.
func LogCreated(logger *slog.Logger, sessionID, issueKey string) {
	if logger == nil {
		return
	}
	logger.Info("ticket created",
		slog.String("session_id", sessionID),
		slog.String("issue_key", issueKey),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in
// milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
