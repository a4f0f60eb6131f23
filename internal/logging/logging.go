package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type requestIDKey struct{}

// CustomHandler adds the request id carried by the context to every record.
type CustomHandler struct {
	slog.Handler
}

func (h *CustomHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		r.AddAttrs(slog.String("requestId", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CustomHandler{h.Handler.WithAttrs(attrs)}
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	return &CustomHandler{h.Handler.WithGroup(name)}
}

// NewCustomLogger builds a JSON logger whose keys match what Cloud Logging expects.
func NewCustomLogger(svcName string) *slog.Logger {
	return newLogger(os.Stdout, svcName)
}

func newLogger(w io.Writer, svcName string) *slog.Logger {
	if svcName == "" {
		svcName = "local"
	}

	handler := CustomHandler{
		slog.NewJSONHandler(
			w,
			&slog.HandlerOptions{
				AddSource: true,
				Level:     slog.LevelInfo,
				ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
					switch a.Key {
					case slog.MessageKey:
						a = slog.Attr{
							Key:   "message",
							Value: a.Value,
						}
					case slog.LevelKey:
						a = slog.Attr{
							Key:   "severity",
							Value: a.Value,
						}
					case slog.SourceKey:
						a = slog.Attr{
							Key:   "logging.googleapis.com/sourceLocation",
							Value: a.Value,
						}
					}
					return a
				},
			}),
	}

	logger := slog.New(&handler).With(
		slog.Group("logging.googleapis.com/labels",
			slog.String("service", svcName),
		))

	return logger
}

// WithRequestID returns a context whose log records carry id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
