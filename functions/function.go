// Package functions registers the API as a Cloud Functions HTTP target.
package functions

import (
	"context"
	"log/slog"
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/KasumiMercury/tgclips-function-api/internal/app"
	"github.com/KasumiMercury/tgclips-function-api/internal/config"
	"github.com/KasumiMercury/tgclips-function-api/internal/logging"
)

// EntryPoint is the function target name.
const EntryPoint = "api"

func init() {
	slog.SetDefault(logging.NewCustomLogger(os.Getenv("SERVICE_NAME")))

	cfg, err := config.Load("")
	if err != nil {
		slog.Error("Failed to load config",
			slog.Group("functions", slog.Group("loadConfig", "error", err)),
		)

		// A function without config cannot serve any route.
		panic(err)
	}
	slog.SetDefault(logging.NewCustomLogger(cfg.ServiceName))

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to build handler set",
			slog.Group("functions", slog.Group("newApp", "error", err)),
		)
		panic(err)
	}

	functions.HTTP(EntryPoint, a.Handler(true).ServeHTTP)
}
