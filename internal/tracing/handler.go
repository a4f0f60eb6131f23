package tracing

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

type Flush interface {
	ForceFlush(ctx context.Context) error
}

// InstrumentedHandler wraps h in an otelhttp server span. When flusher is
// non-nil spans are flushed after every call.
func InstrumentedHandler(name string, h http.Handler, flusher Flush, faas bool) http.Handler {
	var opts []trace.SpanStartOption
	if faas {
		opts = append(opts, trace.WithAttributes(semconv.FaaSTriggerHTTP))
	}

	handler := otelhttp.NewHandler(h, name, otelhttp.WithSpanOptions(opts...))
	if flusher == nil {
		return handler
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)

		if err := flusher.ForceFlush(r.Context()); err != nil {
			// spans left in the batcher may be lost; the response is already sent.
			slog.Error(
				"Failed to flush spans",
				slog.Group("tracing", slog.Group("forceFlush", "error", err)),
			)
		}
	})
}

// Transport returns an http.RoundTripper that propagates trace context to upstreams.
func Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return otelhttp.NewTransport(base)
}
