package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"equitycli/internal/config"
	apperrors "equitycli/internal/errors"
	"equitycli/internal/infrastructure"
	"equitycli/internal/jobs"
	"equitycli/internal/pipeline"
	"equitycli/pkg/contracts/domain"
)

// AnalysisService fronts the pipeline for the HTTP layer: synchronous
// analysis with a timeout, and async jobs through the queue.
type AnalysisService struct {
	cfg     *config.Config
	queue   *jobs.Queue
	metrics *infrastructure.Metrics
	logger  *slog.Logger
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(cfg *config.Config, queue *jobs.Queue, metrics *infrastructure.Metrics, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		cfg:     cfg,
		queue:   queue,
		metrics: metrics,
		logger:  logger.With(slog.String("service", "analysis")),
	}
}

// AnalyzeSync runs one workbook through the pipeline within the configured
// timeout and returns the finished report.
func (s *AnalysisService) AnalyzeSync(ctx context.Context, payload []byte, fileName string) (*domain.AnalysisReport, error) {
	if timeout := s.cfg.Server.AnalysisTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	s.logger.InfoContext(ctx, "starting synchronous analysis",
		slog.String("file_name", fileName),
		slog.Int("payload_bytes", len(payload)))

	started := time.Now()
	if s.metrics != nil {
		s.metrics.UploadBytes.Observe(float64(len(payload)))
	}

	report, err := pipeline.Analyze(ctx, payload, s.cfg.Analysis)

	if s.metrics != nil {
		s.metrics.AnalysisDuration.Observe(time.Since(started).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.AnalysesTotal.WithLabelValues("error").Inc()
		}
		s.logger.WarnContext(ctx, "analysis failed",
			slog.String("file_name", fileName),
			slog.String("error", err.Error()))
		return nil, err
	}

	report.Meta.Source = fileName
	if s.metrics != nil {
		s.metrics.AnalysesTotal.WithLabelValues("success").Inc()
		for _, result := range report.Results {
			s.metrics.InstrumentsProcessed.WithLabelValues(string(result.Status)).Inc()
		}
	}

	s.logger.InfoContext(ctx, "analysis completed",
		slog.String("file_name", fileName),
		slog.Int("instruments", len(report.Results)),
		slog.Duration("elapsed", time.Since(started)))
	return report, nil
}

// SubmitJob queues a workbook for background analysis and returns the
// pending job.
func (s *AnalysisService) SubmitJob(ctx context.Context, payload []byte, fileName string) (*jobs.Job, error) {
	if s.metrics != nil {
		s.metrics.UploadBytes.Observe(float64(len(payload)))
	}

	job := &jobs.Job{
		ID:       uuid.NewString(),
		FileName: fileName,
		Payload:  payload,
		Config:   s.cfg.Analysis,
	}
	if err := s.queue.Enqueue(job); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "analysis job submitted",
		slog.String("job_id", job.ID),
		slog.String("file_name", fileName))
	return job, nil
}

// GetJob returns the current snapshot of a job.
func (s *AnalysisService) GetJob(id string) (*jobs.Job, error) {
	job, err := s.queue.GetJob(id)
	if err != nil {
		return nil, apperrors.ErrJobNotFound
	}
	return job, nil
}

// ListJobs returns job snapshots matching the filter.
func (s *AnalysisService) ListJobs(filter jobs.Filter) ([]*jobs.Job, error) {
	return s.queue.ListJobs(filter)
}

// CancelJob cancels a pending job. An unknown id maps to ErrJobNotFound;
// a job that is no longer pending surfaces the queue's error.
func (s *AnalysisService) CancelJob(id string) error {
	if _, err := s.queue.GetJob(id); err != nil {
		return apperrors.ErrJobNotFound
	}
	return s.queue.CancelJob(id)
}

// SubscribeJob opens a status-snapshot stream for one job.
func (s *AnalysisService) SubscribeJob(id string) (<-chan jobs.Job, func(), error) {
	ch, cancel, err := s.queue.Subscribe(id)
	if err != nil {
		return nil, nil, apperrors.ErrJobNotFound
	}
	return ch, cancel, nil
}

// QueueStats exposes queue depth and worker counts for the health endpoint.
func (s *AnalysisService) QueueStats() map[string]interface{} {
	return s.queue.GetQueueStats()
}
