package observability

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Reporter receives errors that escaped a request handler and should be
// treated as incidents. Implementations must be safe for concurrent use.
type Reporter interface {
	Report(ctx context.Context, err error, attrs map[string]string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, err error, attrs map[string]string)

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, err error, attrs map[string]string) {
	f(ctx, err, attrs)
}

// SpanReporter records reported errors on the active span and logs them.
type SpanReporter struct {
	log zerolog.Logger
}

// NewSpanReporter returns a Reporter writing to the current OpenTelemetry
// span and to log.
func NewSpanReporter(log zerolog.Logger) *SpanReporter {
	return &SpanReporter{log: log}
}

// Report marks the span in ctx as failed and emits an error log line.
func (r *SpanReporter) Report(ctx context.Context, err error, attrs map[string]string) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		kv := make([]attribute.KeyValue, 0, len(attrs))
		for k, v := range attrs {
			kv = append(kv, attribute.String(k, v))
		}
		span.RecordError(err, trace.WithAttributes(kv...), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, err.Error())
	}

	ev := r.log.Error().Err(err)
	if sc := span.SpanContext(); sc.HasTraceID() {
		ev = ev.Str("trace_id", sc.TraceID().String())
	}
	for k, v := range attrs {
		ev = ev.Str(k, v)
	}
	ev.Msg("request error reported")
}
