package gateway

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Metrics receives one record per provider attempt. The monitoring backend
// is an external collaborator; this interface is the whole contract.
type Metrics interface {
	RecordAttempt(ctx context.Context, attempt int, latency time.Duration, success bool)
}

// OtelMetrics attaches attempt records as span events to whatever span is
// active on the context (otelfiber opens one per request).
type OtelMetrics struct{}

func NewOtelMetrics() *OtelMetrics {
	return &OtelMetrics{}
}

func (m *OtelMetrics) RecordAttempt(ctx context.Context, attempt int, latency time.Duration, success bool) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent("llm_attempt", trace.WithAttributes(
		attribute.Int("attempt", attempt),
		attribute.Int64("latency_ms", latency.Milliseconds()),
		attribute.Bool("success", success),
	))
}

// NopMetrics discards records. Used in tests.
type NopMetrics struct{}

func (NopMetrics) RecordAttempt(context.Context, int, time.Duration, bool) {}
