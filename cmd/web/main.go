// Command web serves the analysis HTTP API: synchronous workbook analysis,
// background jobs with a WebSocket status stream, health checks, and
// Prometheus metrics.
package main

import (
	"log/slog"
	"os"

	"equitycli/internal/app"
)

func main() {
	application, err := app.NewApplication(nil)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
