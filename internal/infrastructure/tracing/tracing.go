// Package tracing provides OpenTelemetry span helpers for the tick
// loop and text-model calls. It stays dependency-light relative to
// mbflow's own tracing package: no OTLP exporter is wired, so in the
// absence of a globally configured TracerProvider every span is a
// noop — set one up via otel.SetTracerProvider in main if export is
// needed.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "w0rd"

// StartSpan starts a new span from ctx under the organism's tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, opts...)
}

// RecordError records an error on the current span, if any.
func RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.RecordError(err)
	}
}
