// Command function runs the Cloud Functions target locally through the
// functions framework. FUNCTION_TARGET defaults to api.
package main

import (
	"log/slog"
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	_ "github.com/KasumiMercury/tgclips-function-api/functions"
)

func main() {
	port := "8080"
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}
	if os.Getenv("FUNCTION_TARGET") == "" {
		os.Setenv("FUNCTION_TARGET", "api")
	}

	if err := funcframework.Start(port); err != nil {
		slog.Error("funcframework.Start", "error", err)
		os.Exit(1)
	}
}
