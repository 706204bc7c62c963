package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartCommandSpan creates a span for a CLI command execution.
//
//	ctx, span := telemetry.StartCommandSpan(ctx, "auth.login")
//	defer span.End()
func StartCommandSpan(ctx context.Context, cmdName string) (context.Context, trace.Span) {
	ctx, span := GetTracerProvider().Tracer("commands").Start(ctx, "command."+cmdName)
	span.SetAttributes(
		attribute.String("command", cmdName),
		attribute.String("component", "cli"),
	)
	return ctx, span
}

// StartFlowSpan creates a span for one session flow (login, switch, refresh...).
func StartFlowSpan(ctx context.Context, flow string) (context.Context, trace.Span) {
	ctx, span := GetTracerProvider().Tracer("session").Start(ctx, "session."+flow)
	span.SetAttributes(
		attribute.String("flow", flow),
		attribute.String("component", "session"),
	)
	return ctx, span
}

// StartBackendSpan creates a client span around one backend HTTP call.
func StartBackendSpan(ctx context.Context, method, path string) (context.Context, trace.Span) {
	ctx, span := GetTracerProvider().Tracer("platform").Start(ctx, "backend "+method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
		attribute.String("component", "platform"),
	)
	return ctx, span
}

// RecordSuccess marks a span as successful with optional result attributes.
func RecordSuccess(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Ok, "")
}

// RecordError records an error in a span and sets error status.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.Bool("error", true))
}
