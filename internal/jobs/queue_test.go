package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equitycli/internal/config"
	"equitycli/pkg/contracts/domain"
)

func okRunner(report *domain.AnalysisReport) Runner {
	return func(ctx context.Context, payload []byte, cfg config.AnalysisConfig) (*domain.AnalysisReport, error) {
		return report, nil
	}
}

func waitForTerminal(t *testing.T, q *Queue, id string) *Job {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("job %s never reached a terminal status", id)
		case <-time.After(10 * time.Millisecond):
		}
		job, err := q.GetJob(id)
		require.NoError(t, err)
		if job.Status.Terminal() {
			return job
		}
	}
}

func TestQueue_ProcessesJobToCompletion(t *testing.T) {
	report := &domain.AnalysisReport{
		Results: []domain.AnalysisResult{
			{Ticker: "AAPL", Status: domain.StatusSuccess},
			{Ticker: "TINY", Status: domain.StatusInsufficientData},
		},
	}
	q := NewQueue(2, NewMemoryStore(), okRunner(report), time.Minute, nil, nil)
	q.Start(context.Background())
	defer q.Stop(time.Second)

	job := &Job{ID: "job-1", FileName: "prices.xlsx", Payload: []byte("data")}
	require.NoError(t, q.Enqueue(job))

	done := waitForTerminal(t, q, "job-1")
	assert.Equal(t, StatusCompleted, done.Status)
	require.NotNil(t, done.Report)
	assert.Len(t, done.Report.Results, 2)
	assert.Nil(t, done.Payload, "payload released after processing")
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
}

func TestQueue_FailedRunnerMarksJobFailed(t *testing.T) {
	runner := func(ctx context.Context, payload []byte, cfg config.AnalysisConfig) (*domain.AnalysisReport, error) {
		return nil, errors.New("workbook is unreadable")
	}
	q := NewQueue(1, NewMemoryStore(), runner, time.Minute, nil, nil)
	q.Start(context.Background())
	defer q.Stop(time.Second)

	require.NoError(t, q.Enqueue(&Job{ID: "job-2"}))

	done := waitForTerminal(t, q, "job-2")
	assert.Equal(t, StatusFailed, done.Status)
	assert.Equal(t, "workbook is unreadable", done.Error)
	assert.Nil(t, done.Report)
}

func TestQueue_PanickingRunnerIsContained(t *testing.T) {
	runner := func(ctx context.Context, payload []byte, cfg config.AnalysisConfig) (*domain.AnalysisReport, error) {
		panic("boom")
	}
	q := NewQueue(1, NewMemoryStore(), runner, time.Minute, nil, nil)
	q.Start(context.Background())
	defer q.Stop(time.Second)

	require.NoError(t, q.Enqueue(&Job{ID: "job-3"}))

	done := waitForTerminal(t, q, "job-3")
	assert.Equal(t, StatusFailed, done.Status)
	assert.Contains(t, done.Error, "panicked")
}

func TestQueue_CancelPendingJob(t *testing.T) {
	// Queue not started: the job stays pending and can be cancelled.
	q := NewQueue(1, NewMemoryStore(), okRunner(&domain.AnalysisReport{}), time.Minute, nil, nil)

	require.NoError(t, q.Enqueue(&Job{ID: "job-4"}))
	require.NoError(t, q.CancelJob("job-4"))

	job, err := q.GetJob("job-4")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, job.Status)

	err = q.CancelJob("job-4")
	assert.Error(t, err, "terminal jobs cannot be cancelled again")
}

func TestQueue_Subscribe(t *testing.T) {
	release := make(chan struct{})
	runner := func(ctx context.Context, payload []byte, cfg config.AnalysisConfig) (*domain.AnalysisReport, error) {
		<-release
		return &domain.AnalysisReport{}, nil
	}
	q := NewQueue(1, NewMemoryStore(), runner, time.Minute, nil, nil)
	q.Start(context.Background())
	defer q.Stop(time.Second)

	require.NoError(t, q.Enqueue(&Job{ID: "job-5"}))

	ch, cancel, err := q.Subscribe("job-5")
	require.NoError(t, err)
	defer cancel()

	first := <-ch
	assert.Contains(t, []Status{StatusPending, StatusRunning}, first.Status)

	close(release)

	var last Job
	for snapshot := range ch {
		last = snapshot
	}
	assert.Equal(t, StatusCompleted, last.Status)
}

func TestQueue_SubscribeToTerminalJob(t *testing.T) {
	q := NewQueue(1, NewMemoryStore(), okRunner(&domain.AnalysisReport{}), time.Minute, nil, nil)
	q.Start(context.Background())
	defer q.Stop(time.Second)

	require.NoError(t, q.Enqueue(&Job{ID: "job-6"}))
	waitForTerminal(t, q, "job-6")

	ch, cancel, err := q.Subscribe("job-6")
	require.NoError(t, err)
	defer cancel()

	snapshot, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, snapshot.Status)

	_, ok = <-ch
	assert.False(t, ok, "channel closes immediately for terminal jobs")
}

func TestQueue_SubscribeUnknownJob(t *testing.T) {
	q := NewQueue(1, NewMemoryStore(), okRunner(&domain.AnalysisReport{}), time.Minute, nil, nil)
	_, _, err := q.Subscribe("missing")
	assert.Error(t, err)
}

func TestMemoryStore_CRUD(t *testing.T) {
	s := NewMemoryStore()

	job := &Job{ID: "a", Status: StatusPending, CreatedAt: time.Now()}
	require.NoError(t, s.CreateJob(job))
	assert.Error(t, s.CreateJob(job), "duplicate ID rejected")

	got, err := s.GetJob("a")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	// The returned copy must not alias the stored job.
	got.Status = StatusFailed
	again, err := s.GetJob("a")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, again.Status)

	job.Status = StatusCompleted
	require.NoError(t, s.UpdateJob(job))

	listed, err := s.ListJobs(Filter{Status: StatusCompleted})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, s.DeleteJob("a"))
	_, err = s.GetJob("a")
	assert.Error(t, err)
}

func TestMemoryStore_CleanupOldJobs(t *testing.T) {
	s := NewMemoryStore()

	old := &Job{ID: "old", Status: StatusCompleted, CreatedAt: time.Now().Add(-2 * time.Hour)}
	fresh := &Job{ID: "fresh", Status: StatusCompleted, CreatedAt: time.Now()}
	running := &Job{ID: "running", Status: StatusRunning, CreatedAt: time.Now().Add(-2 * time.Hour)}
	require.NoError(t, s.CreateJob(old))
	require.NoError(t, s.CreateJob(fresh))
	require.NoError(t, s.CreateJob(running))

	deleted, err := s.CleanupOldJobs(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = s.GetJob("old")
	assert.Error(t, err)
	_, err = s.GetJob("running")
	assert.NoError(t, err, "non-terminal jobs survive cleanup")
}

func TestQueue_ConcurrentReadsDuringRun(t *testing.T) {
	release := make(chan struct{})
	runner := func(ctx context.Context, payload []byte, cfg config.AnalysisConfig) (*domain.AnalysisReport, error) {
		<-release
		return &domain.AnalysisReport{}, nil
	}
	q := NewQueue(1, NewMemoryStore(), runner, time.Minute, nil, nil)
	q.Start(context.Background())
	defer q.Stop(time.Second)

	job := &Job{ID: "job-7", Payload: []byte("data")}
	require.NoError(t, q.Enqueue(job))

	// Hammer GetJob while the worker runs; under -race this catches any
	// write to state a reader copies from.
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				if _, err := q.GetJob("job-7"); err != nil {
					return
				}
			}
		}
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	waitForTerminal(t, q, "job-7")
	close(stop)
	<-done

	// The worker operates on its own copy, so the submitter's job is
	// untouched after completion.
	assert.Equal(t, StatusPending, job.Status)
	assert.NotNil(t, job.Payload)

	final, err := q.GetJob("job-7")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, final.Status)
}

type failingUpdateStore struct {
	*MemoryStore
}

func (s *failingUpdateStore) UpdateJob(job *Job) error {
	return errors.New("store unavailable")
}

func TestQueue_EnqueueFullQueue(t *testing.T) {
	// Queue not started, one worker: channel capacity is two.
	q := NewQueue(1, &failingUpdateStore{NewMemoryStore()}, okRunner(&domain.AnalysisReport{}), time.Minute, nil, nil)

	require.NoError(t, q.Enqueue(&Job{ID: "full-1"}))
	require.NoError(t, q.Enqueue(&Job{ID: "full-2"}))

	overflow := &Job{ID: "full-3"}
	err := q.Enqueue(overflow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue is full")
	assert.Equal(t, StatusFailed, overflow.Status)
}

func TestQueue_StatsIncludeStoreCounts(t *testing.T) {
	s := NewMemoryStore()
	q := NewQueue(3, s, okRunner(&domain.AnalysisReport{}), time.Minute, nil, nil)

	require.NoError(t, s.CreateJob(&Job{ID: "a", Status: StatusCompleted, CreatedAt: time.Now()}))

	stats := q.GetQueueStats()
	assert.Equal(t, 3, stats["workers"])
	assert.Equal(t, 6, stats["queue_cap"])

	store, ok := stats["store"].(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 1, store["completed"])
}
