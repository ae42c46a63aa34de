package logger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "voicedesk"

// StartSpan opens a child span of whatever trace ctx carries.
//
//	ctx, span := logger.StartSpan(ctx, "dispatcher.process_with_n8n")
//	defer span.End()
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// ContinueTrace opens a span under a trace id carried out of band, such as on
// a queued record. An empty or malformed id starts a fresh trace.
func ContinueTrace(ctx context.Context, traceIDHex, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindConsumer),
	}

	traceID, err := trace.TraceIDFromHex(traceIDHex)
	if traceIDHex != "" && err == nil {
		remote := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			TraceFlags: trace.FlagsSampled,
			Remote:     true,
		})
		ctx = trace.ContextWithRemoteSpanContext(ctx, remote)
		opts = append(opts, trace.WithLinks(trace.Link{SpanContext: remote}))
	}

	return otel.Tracer(tracerName).Start(ctx, name, opts...)
}

// TraceID returns the hex trace id on ctx, or nil outside a sampled trace.
func TraceID(ctx context.Context) *string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return nil
	}
	traceID := sc.TraceID().String()
	return &traceID
}

// Fail marks span as failed with err. A nil err is ignored.
func Fail(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
