package oteltrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"orderpipeline/internal/observability"
)

type tracer struct{ t trace.Tracer }

// New wraps the globally registered OTel tracer behind the Tracer port.
// The SDK tracer provider and exporter are initialized in main.
func New(name string) observability.Tracer {
	if name == "" {
		name = "orderpipeline"
	}
	return &tracer{t: otel.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
