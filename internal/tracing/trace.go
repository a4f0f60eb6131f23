package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// InitTracing installs an OTLP/HTTP tracer provider as the global provider.
func InitTracing(ctx context.Context, appName string, localOnly bool) (*trace.TracerProvider, error) {
	if appName == "" {
		appName = "tgclips-function-api"
	}

	var opts []otlptracehttp.Option
	if localOnly {
		// In local environment, TLS is not set up.
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	client := otlptracehttp.NewClient(opts...)

	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		slog.Error(
			"Failed to create OTLP trace exporter",
			slog.Group("InitTracing", "error", err),
		)
		return nil, err
	}

	resources, err := resource.New(
		ctx,
		resource.WithDetectors(gcp.NewDetector()),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(appName),
		),
	)
	if err != nil {
		slog.Error(
			"Failed to create resource",
			slog.Group("InitTracing", "error", err),
		)
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(resources),
	)

	otel.SetTracerProvider(tp)

	// W3C Trace Context propagator
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp, nil
}
