package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"equitycli/internal/config"
	"equitycli/internal/infrastructure"
	"equitycli/pkg/contracts/domain"
)

// Runner executes one workbook analysis. The queue stays decoupled from the
// pipeline so tests can substitute a stub.
type Runner func(ctx context.Context, payload []byte, cfg config.AnalysisConfig) (*domain.AnalysisReport, error)

// Queue manages async analysis execution over a fixed worker pool.
type Queue struct {
	mu       sync.RWMutex
	jobs     chan *Job
	workers  int
	wg       sync.WaitGroup
	store    Store
	runner   Runner
	timeout  time.Duration
	metrics  *infrastructure.Metrics
	logger   *slog.Logger
	shutdown chan struct{}
	active   map[string]*Job

	subMu       sync.Mutex
	subscribers map[string][]chan Job
}

// NewQueue creates a new job queue
func NewQueue(workers int, store Store, runner Runner, timeout time.Duration, metrics *infrastructure.Metrics, logger *slog.Logger) *Queue {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Queue{
		jobs:        make(chan *Job, workers*2),
		workers:     workers,
		store:       store,
		runner:      runner,
		timeout:     timeout,
		metrics:     metrics,
		logger:      logger.With(slog.String("component", "jobqueue")),
		shutdown:    make(chan struct{}),
		active:      make(map[string]*Job),
		subscribers: make(map[string][]chan Job),
	}
}

// How often terminal jobs are pruned from the store, and how long they are
// kept after finishing.
const (
	jobCleanupInterval = 10 * time.Minute
	jobRetention       = 24 * time.Hour
)

// Start begins processing jobs
func (q *Queue) Start(ctx context.Context) {
	q.logger.Info("starting job queue", slog.Int("workers", q.workers))

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}

	q.wg.Add(1)
	go q.janitor(ctx)
}

// janitor prunes old terminal jobs so a long-running server's store does not
// grow without bound.
func (q *Queue) janitor(ctx context.Context) {
	defer q.wg.Done()

	cleaner, ok := q.store.(interface {
		CleanupOldJobs(olderThan time.Duration) (int, error)
	})
	if !ok {
		return
	}

	ticker := time.NewTicker(jobCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.shutdown:
			return
		case <-ticker.C:
			if n, err := cleaner.CleanupOldJobs(jobRetention); err == nil && n > 0 {
				q.logger.Info("pruned finished jobs", slog.Int("count", n))
			}
		}
	}
}

// Stop gracefully shuts down the job queue
func (q *Queue) Stop(timeout time.Duration) error {
	q.logger.Info("stopping job queue")

	close(q.shutdown)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("job queue stopped gracefully")
		return nil
	case <-time.After(timeout):
		q.logger.Warn("job queue stop timeout exceeded")
		return fmt.Errorf("timeout waiting for workers to finish")
	}
}

// Enqueue adds a job to the queue
func (q *Queue) Enqueue(job *Job) error {
	job.Status = StatusPending
	job.CreatedAt = time.Now()
	job.Message = "Queued for analysis"

	if err := q.store.CreateJob(job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	select {
	case q.jobs <- job:
		if q.metrics != nil {
			q.metrics.JobsInFlight.Inc()
		}
		q.logger.Info("job enqueued",
			slog.String("job_id", job.ID),
			slog.String("file_name", job.FileName))
		return nil
	default:
		job.Status = StatusFailed
		job.Error = "job queue is full"
		if err := q.store.UpdateJob(job); err != nil {
			q.logger.Error("failed to mark job failed after full queue",
				slog.String("job_id", job.ID),
				slog.String("error", err.Error()))
		}
		return fmt.Errorf("job queue is full")
	}
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(id string) (*Job, error) {
	q.mu.RLock()
	if activeJob, ok := q.active[id]; ok {
		jobCopy := *activeJob
		q.mu.RUnlock()
		return &jobCopy, nil
	}
	q.mu.RUnlock()

	return q.store.GetJob(id)
}

// CancelJob cancels a pending job. Running jobs finish; their result is kept.
func (q *Queue) CancelJob(id string) error {
	job, err := q.GetJob(id)
	if err != nil {
		return err
	}

	if job.Status != StatusPending {
		return fmt.Errorf("job %s cannot be cancelled (status: %s)", id, job.Status)
	}

	job.Status = StatusCancelled
	now := time.Now()
	job.CompletedAt = &now

	if err := q.store.UpdateJob(job); err != nil {
		return err
	}
	q.notify(job)
	return nil
}

// ListJobs returns jobs matching the filter
func (q *Queue) ListJobs(filter Filter) ([]*Job, error) {
	return q.store.ListJobs(filter)
}

// Subscribe returns a channel that receives a snapshot of the job on every
// status change, starting with its current state. The channel closes once the
// job reaches a terminal status. The returned cancel function releases the
// subscription early.
func (q *Queue) Subscribe(id string) (<-chan Job, func(), error) {
	job, err := q.GetJob(id)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan Job, 8)
	ch <- *job
	if job.Status.Terminal() {
		close(ch)
		return ch, func() {}, nil
	}

	q.subMu.Lock()
	q.subscribers[id] = append(q.subscribers[id], ch)
	q.subMu.Unlock()

	// The job may have finished between the snapshot and registration, in
	// which case notify already ran and this channel would never close.
	if current, err := q.GetJob(id); err == nil && current.Status.Terminal() {
		q.subMu.Lock()
		removed := false
		if subs, ok := q.subscribers[id]; ok {
			for i, sub := range subs {
				if sub == ch {
					q.subscribers[id] = append(subs[:i], subs[i+1:]...)
					removed = true
					break
				}
			}
			if len(q.subscribers[id]) == 0 {
				delete(q.subscribers, id)
			}
		}
		q.subMu.Unlock()

		// If notify already saw the terminal transition it closed the
		// channel itself; only finish the stream if we removed it first.
		if removed {
			select {
			case ch <- *current:
			default:
			}
			close(ch)
		}
		return ch, func() {}, nil
	}

	cancel := func() {
		q.subMu.Lock()
		defer q.subMu.Unlock()
		subs := q.subscribers[id]
		for i, sub := range subs {
			if sub == ch {
				q.subscribers[id] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
		if len(q.subscribers[id]) == 0 {
			delete(q.subscribers, id)
		}
	}
	return ch, cancel, nil
}

// notify fans a job snapshot out to its subscribers, closing them on
// terminal status. Slow subscribers miss intermediate snapshots rather than
// blocking the worker.
func (q *Queue) notify(job *Job) {
	q.subMu.Lock()
	defer q.subMu.Unlock()

	subs := q.subscribers[job.ID]
	for _, ch := range subs {
		select {
		case ch <- *job:
		default:
		}
		if job.Status.Terminal() {
			close(ch)
		}
	}
	if job.Status.Terminal() {
		delete(q.subscribers, job.ID)
	}
}

// GetQueueStats returns queue statistics
func (q *Queue) GetQueueStats() map[string]interface{} {
	q.mu.RLock()
	activeCount := len(q.active)
	q.mu.RUnlock()

	stats := map[string]interface{}{
		"workers":     q.workers,
		"queue_size":  len(q.jobs),
		"queue_cap":   cap(q.jobs),
		"active_jobs": activeCount,
	}
	if counter, ok := q.store.(interface{ GetStats() map[string]int }); ok {
		stats["store"] = counter.GetStats()
	}
	return stats
}

// worker processes jobs from the queue
func (q *Queue) worker(ctx context.Context, workerID int) {
	defer q.wg.Done()

	logger := q.logger.With(slog.Int("worker_id", workerID))
	logger.Debug("worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker stopped by context")
			return
		case <-q.shutdown:
			logger.Debug("worker stopped by shutdown")
			return
		case job := <-q.jobs:
			q.processJob(ctx, job, logger)
		}
	}
}

// publish makes the job's current state visible to readers: a fresh snapshot
// replaces the active-map entry and the store record. Published snapshots are
// never mutated again, so concurrent GetJob copies always see quiescent data.
func (q *Queue) publish(job *Job, logger *slog.Logger) {
	snapshot := *job

	q.mu.Lock()
	q.active[snapshot.ID] = &snapshot
	q.mu.Unlock()

	if err := q.store.UpdateJob(job); err != nil {
		logger.Error("failed to update job", slog.String("error", err.Error()))
	}
}

// processJob executes a single job
func (q *Queue) processJob(ctx context.Context, queued *Job, logger *slog.Logger) {
	// A cancelled job may still be sitting in the channel.
	if current, err := q.store.GetJob(queued.ID); err == nil && current.Status == StatusCancelled {
		if q.metrics != nil {
			q.metrics.JobsInFlight.Dec()
		}
		return
	}

	// The queued pointer is shared with the submitter; mutate a private
	// copy and publish snapshots instead.
	jobCopy := *queued
	job := &jobCopy

	logger = logger.With(
		slog.String("job_id", job.ID),
		slog.String("file_name", job.FileName),
	)
	logger.Info("processing job started")

	started := time.Now()

	defer func() {
		// Recover from any panics to prevent server crash
		if r := recover(); r != nil {
			logger.Error("job processing panicked", slog.Any("panic", r))

			job.Status = StatusFailed
			job.Error = fmt.Sprintf("job processing panicked: %v", r)
			job.Message = "Internal error occurred"
			completedAt := time.Now()
			job.CompletedAt = &completedAt

			q.publish(job, logger)
			q.notify(job)
		}

		q.mu.Lock()
		delete(q.active, job.ID)
		q.mu.Unlock()

		if q.metrics != nil {
			q.metrics.JobsInFlight.Dec()
			q.metrics.AnalysisDuration.Observe(time.Since(started).Seconds())
		}
	}()

	job.Status = StatusRunning
	now := time.Now()
	job.StartedAt = &now
	job.Message = "Analysis running"

	q.publish(job, logger)
	q.notify(job)

	runCtx := ctx
	if q.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	report, err := q.runner(runCtx, job.Payload, job.Config)
	completedAt := time.Now()
	job.CompletedAt = &completedAt
	job.Payload = nil // done with the upload; let it be collected

	if err != nil {
		logger.Error("job failed", slog.String("error", err.Error()))
		job.Status = StatusFailed
		job.Error = err.Error()
		job.Message = "Analysis failed"
		if q.metrics != nil {
			q.metrics.AnalysesTotal.WithLabelValues("error").Inc()
		}
	} else {
		job.Status = StatusCompleted
		job.Report = report
		job.Message = fmt.Sprintf("Analyzed %d instruments", len(report.Results))
		if q.metrics != nil {
			q.metrics.AnalysesTotal.WithLabelValues("success").Inc()
			for _, result := range report.Results {
				q.metrics.InstrumentsProcessed.WithLabelValues(string(result.Status)).Inc()
			}
		}
	}

	q.publish(job, logger)
	q.notify(job)

	logger.Info("processing job completed", slog.String("status", string(job.Status)))
}
