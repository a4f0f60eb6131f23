// Package app wires configuration into the handler set shared by every
// hosting surface.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/KasumiMercury/tgclips-function-api/internal/api"
	"github.com/KasumiMercury/tgclips-function-api/internal/config"
	"github.com/KasumiMercury/tgclips-function-api/internal/moderation"
	"github.com/KasumiMercury/tgclips-function-api/internal/objectstore"
	"github.com/KasumiMercury/tgclips-function-api/internal/store"
	"github.com/KasumiMercury/tgclips-function-api/internal/telegram"
	"github.com/KasumiMercury/tgclips-function-api/internal/tracing"
	"github.com/KasumiMercury/tgclips-function-api/internal/video"
	"github.com/pkg/errors"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// upstreamTimeout bounds every outbound call of the moderation vendor and the bucket.
const upstreamTimeout = 2 * time.Minute

type App struct {
	cfg     *config.Config
	server  *api.Server
	tp      *sdktrace.TracerProvider
	closers []func() error
}

// New builds every client cfg asks for. Clients of disabled features are
// never created.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracing(ctx, cfg.ServiceName, cfg.Tracing.LocalOnly)
		if err != nil {
			return nil, errors.Wrap(err, "initialize tracing")
		}
		a.tp = tp
	}

	httpClient := &http.Client{
		Transport: tracing.Transport(nil),
		Timeout:   upstreamTimeout,
	}

	db := store.NewDBClient(cfg.DSN)
	a.closers = append(a.closers, db.Close)
	if err := store.Migrate(ctx, db); err != nil {
		a.Close(ctx)
		return nil, errors.Wrap(err, "migrate record store")
	}

	objects, err := objectstore.New(objectstore.Config{
		Endpoint:        cfg.Storage.Endpoint,
		Region:          cfg.Storage.Region,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		Bucket:          cfg.Storage.Bucket,
		PublicURL:       cfg.Storage.PublicURL,
		HTTPClient:      httpClient,
	})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	opts := video.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		PublicLimit:    cfg.PublicVideosLimit,
		SignedURLTTL:   cfg.Storage.SignedURLTTL,
	}
	if cfg.Moderation.Enabled {
		opts.Moderator = moderation.NewClient(cfg.Moderation.Endpoint, cfg.Moderation.APIUser, cfg.Moderation.APISecret, httpClient)
	}
	if cfg.Moderation.TextEnabled {
		text, closeText, err := moderation.NewTextClient(ctx, cfg.Moderation.Credentials)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.closers = append(a.closers, closeText)
		opts.TextModerator = text
	}
	if cfg.Telegram.BotToken != "" {
		verifier, err := telegram.NewVerifier(cfg.Telegram.BotToken)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		opts.Verifier = verifier
	}

	svc := video.NewService(store.NewVideoStore(db), store.NewChannelStore(db), objects, opts)
	a.server = api.NewServer(svc, api.Options{
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	slog.Info("Handler set ready",
		slog.Group("app",
			"moderation", cfg.Moderation.Enabled,
			"textModeration", cfg.Moderation.TextEnabled,
			"channelCheck", cfg.Telegram.BotToken != "",
			"tracing", cfg.Tracing.Enabled,
		),
	)
	return a, nil
}

// Handler returns the routed handler. With faas set, spans carry the FaaS
// trigger attribute and are flushed before every response completes.
func (a *App) Handler(faas bool) http.Handler {
	if a.tp == nil {
		return a.server
	}
	var flusher tracing.Flush
	if faas {
		flusher = a.tp
	}
	return tracing.InstrumentedHandler(a.cfg.ServiceName, a.server, flusher, faas)
}

// Close flushes spans and releases every client, reporting the first failure.
func (a *App) Close(ctx context.Context) error {
	var first error
	if a.tp != nil {
		if err := a.tp.Shutdown(ctx); err != nil {
			first = errors.Wrap(err, "shutdown tracer provider")
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
