package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StartRenderSpan opens the consumer-side span for one render job.
func StartRenderSpan(ctx context.Context, jobID, compositionID string) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, "render.compose",
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	span.SetAttributes(
		attribute.String("job.id", jobID),
		attribute.String("composition.id", compositionID),
	)
	return ctx, span
}

// StartEnqueueSpan opens the producer-side span for queueing a render.
func StartEnqueueSpan(ctx context.Context, compositionID, queue string) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, "render.enqueue",
		trace.WithSpanKind(trace.SpanKindProducer),
	)
	span.SetAttributes(
		attribute.String("composition.id", compositionID),
		attribute.String("queue.name", queue),
	)
	return ctx, span
}

// StartStageSpan opens a child span for one pipeline stage.
func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, "render.stage."+stage)
	span.SetAttributes(attribute.String("render.stage", stage))
	return ctx, span
}
