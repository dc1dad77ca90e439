package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records engine metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeExecution records a node execution with duration and
	// error status.
	RecordNodeExecution(ctx context.Context, node string, duration time.Duration, err error)

	// RecordAdvance records a completed engine advance.
	RecordAdvance(ctx context.Context, intent string, suspended bool, duration time.Duration)

	// RecordCheckpoint records a checkpoint save.
	RecordCheckpoint(ctx context.Context, sizeBytes int64)

	// RecordSuspension records a human-in-the-loop suspension.
	RecordSuspension(ctx context.Context, kind string)

	// RecordApproval records an approval ledger write outcome.
	RecordApproval(ctx context.Context, outcome string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	nodeExecutions metric.Int64Counter
	nodeLatency    metric.Float64Histogram
	nodeErrors     metric.Int64Counter
	advances       metric.Int64Counter
	advanceLatency metric.Float64Histogram
	checkpointSize metric.Int64Histogram
	suspensions    metric.Int64Counter
	approvals      metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("ticketflow")

	nodeExecutions, err := meter.Int64Counter("ticketflow.node.executions",
		metric.WithDescription("Number of node executions"),
	)
	if err != nil {
		return nil, err
	}

	nodeLatency, err := meter.Float64Histogram("ticketflow.node.latency_ms",
		metric.WithDescription("Node execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	nodeErrors, err := meter.Int64Counter("ticketflow.node.errors",
		metric.WithDescription("Number of node execution errors"),
	)
	if err != nil {
		return nil, err
	}

	advances, err := meter.Int64Counter("ticketflow.engine.advances",
		metric.WithDescription("Number of engine advances"),
	)
	if err != nil {
		return nil, err
	}

	advanceLatency, err := meter.Float64Histogram("ticketflow.engine.advance_latency_ms",
		metric.WithDescription("Engine advance latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	checkpointSize, err := meter.Int64Histogram("ticketflow.checkpoint.size_bytes",
		metric.WithDescription("Checkpoint size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	suspensions, err := meter.Int64Counter("ticketflow.engine.suspensions",
		metric.WithDescription("Number of human-in-the-loop suspensions"),
	)
	if err != nil {
		return nil, err
	}

	approvals, err := meter.Int64Counter("ticketflow.ledger.approvals",
		metric.WithDescription("Number of approval ledger writes"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		nodeExecutions: nodeExecutions,
		nodeLatency:    nodeLatency,
		nodeErrors:     nodeErrors,
		advances:       advances,
		advanceLatency: advanceLatency,
		checkpointSize: checkpointSize,
		suspensions:    suspensions,
		approvals:      approvals,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordNodeExecution records a node execution.
func (m *otelMetrics) RecordNodeExecution(ctx context.Context, node string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("node", node),
	}

	m.nodeExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.nodeLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.nodeErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordAdvance records an engine advance.
func (m *otelMetrics) RecordAdvance(ctx context.Context, intent string, suspended bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("intent", intent),
		attribute.Bool("suspended", suspended),
	}
	m.advances.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.advanceLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordCheckpoint records a checkpoint save.
func (m *otelMetrics) RecordCheckpoint(ctx context.Context, sizeBytes int64) {
	m.checkpointSize.Record(ctx, sizeBytes)
}

// RecordSuspension records a suspension.
func (m *otelMetrics) RecordSuspension(ctx context.Context, kind string) {
	m.suspensions.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordApproval records an approval write outcome.
func (m *otelMetrics) RecordApproval(ctx context.Context, outcome string) {
	m.approvals.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
