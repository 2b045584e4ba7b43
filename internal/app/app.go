package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"equitycli/internal/config"
	apperrors "equitycli/internal/errors"
	"equitycli/internal/infrastructure"
	"equitycli/internal/jobs"
	custommw "equitycli/internal/middleware"
	"equitycli/internal/pipeline"
	"equitycli/internal/services"
	handlers "equitycli/internal/transport/http"
	"equitycli/pkg/contracts"
	"equitycli/pkg/contracts/domain"
)

// Application wires the analysis service together: configuration, logging,
// metrics, the job queue, and the HTTP server.
type Application struct {
	Config   *config.Config
	Router   *chi.Mux
	Server   *http.Server
	Queue    *jobs.Queue
	Analysis *services.AnalysisService
	Health   *services.HealthService
	Metrics  *infrastructure.Metrics
	Logger   *slog.Logger
}

// NewApplication builds the application from the given configuration.
// Pass nil to load configuration from the environment and config file.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("version", contracts.GetVersionString()),
		slog.Int("port", cfg.Server.Port))

	metrics := infrastructure.NewMetrics()

	queue := jobs.NewQueue(cfg.Server.JobWorkers, jobs.NewMemoryStore(),
		func(ctx context.Context, payload []byte, analysisCfg config.AnalysisConfig) (*domain.AnalysisReport, error) {
			return pipeline.Analyze(ctx, payload, analysisCfg)
		}, cfg.Server.AnalysisTimeout, metrics, logger)

	analysis := services.NewAnalysisService(cfg, queue, metrics, logger)
	health := services.NewHealthService(contracts.Version, analysis, logger)

	app := &Application{
		Config:   cfg,
		Queue:    queue,
		Analysis: analysis,
		Health:   health,
		Metrics:  metrics,
		Logger:   logger,
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))
	r.Use(custommw.SecurityHeaders)

	if a.Config.Server.RateLimit.Enabled {
		limiter := custommw.NewRateLimiter(
			a.Config.Server.RateLimit.RPS,
			a.Config.Server.RateLimit.Burst,
			a.Logger)
		r.Use(limiter.Handler)
	}

	errHandler := apperrors.NewErrorHandler(a.Logger, false)
	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		// Synchronous analysis is bounded by the analysis timeout. Job
		// routes manage their own deadlines: submissions return
		// immediately and the status stream is long-lived.
		r.Group(func(r chi.Router) {
			r.Use(custommw.Timeout(a.Config.Server.AnalysisTimeout, a.Logger))
			r.Mount("/analyze", handlers.NewAnalysisHandler(
				a.Analysis, errHandler, a.Config.Server.MaxUploadBytes, a.Logger).Routes())
		})

		r.Mount("/analysis/jobs", handlers.NewJobsHandler(
			a.Analysis, errHandler, a.Config.Server.MaxUploadBytes, a.Logger).Routes())
	})

	r.Handle("/metrics", a.Metrics.Handler())

	a.Router = r
}

// createServer configures the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start launches the job queue and the HTTP server. Server failures cancel
// the passed context through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Queue.Start(ctx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)),
		slog.Int("job_workers", a.Config.Server.JobWorkers))

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := a.Queue.Stop(a.Config.Server.ShutdownTimeout); err != nil {
		a.Logger.ErrorContext(ctx, "failed to stop job queue gracefully",
			slog.String("error", err.Error()))
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "failed to close log file",
			slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*a.Config.Server.ShutdownTimeout)
	defer stopCancel()
	return a.Stop(stopCtx)
}
