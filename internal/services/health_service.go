package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	startTime time.Time
	analysis  *AnalysisService
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version string, analysis *AnalysisService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		startTime: time.Now(),
		analysis:  analysis,
		logger:    logger.With(slog.String("service", "health")),
	}
}

// Health returns the current health snapshot, including queue statistics
// when the analysis service is wired.
func (s *HealthService) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(s.startTime).Seconds(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
			"os":             runtime.GOOS,
			"arch":           runtime.GOARCH,
		},
	}
	if s.analysis != nil {
		status.Services = map[string]interface{}{
			"job_queue": s.analysis.QueueStats(),
		}
	}
	return status
}

// Ready reports whether the service can accept work. With an in-memory
// queue there is no external dependency to probe, so readiness follows
// liveness.
func (s *HealthService) Ready(ctx context.Context) bool {
	return true
}
