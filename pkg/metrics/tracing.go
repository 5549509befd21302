package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName identifies this module's spans in whatever backend the
// process-wide TracerProvider exports to.
const TracerName = "voice-agent"

// InitTracing installs a process-wide TracerProvider scoped to
// serviceName and registers it as the global otel provider (the
// tracing subscriber is process-wide, immutable-after-init state). No
// span exporter is attached here: this module records spans for
// in-process correlation (context propagation across pipeline stages)
// without committing the core to a specific backend, which is the host
// process's responsibility to wire.
//
// Returns a shutdown function to call from main() on exit.
func InitTracing(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	if serviceName == "" {
		serviceName = "voice-agent"
	}
	res, err := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", serviceName)))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// Tracer returns the process-wide tracer for this module's spans.
func Tracer() trace.Tracer { return otel.Tracer(TracerName) }

// StartSpan is a small convenience wrapper so pipeline stages don't each
// repeat the otel.Tracer(TracerName) lookup.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name)
}
