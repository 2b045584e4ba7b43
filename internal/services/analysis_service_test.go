package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equitycli/internal/config"
	apperrors "equitycli/internal/errors"
	"equitycli/internal/jobs"
	"equitycli/internal/testutil"
	"equitycli/pkg/contracts/domain"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.AnalysisTimeout = time.Minute
	cfg.Server.JobWorkers = 2
	cfg.Analysis = config.DefaultAnalysis()
	cfg.Analysis.MinObservations = 10
	cfg.Analysis.Features = []config.FeatureConfig{
		{Name: "sma_5", Kind: "sma", Window: 5},
		{Name: "mom_3", Kind: "momentum", Window: 3},
		{Name: "direction", Kind: "direction", Window: 2},
	}
	cfg.Analysis.Model.Kind = "linear"
	cfg.Analysis.Model.MinSamples = 10
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config) (*AnalysisService, *jobs.Queue) {
	t.Helper()
	queue := jobs.NewQueue(cfg.Server.JobWorkers, jobs.NewMemoryStore(),
		func(ctx context.Context, payload []byte, analysisCfg config.AnalysisConfig) (*domain.AnalysisReport, error) {
			svc := NewAnalysisService(cfg, nil, nil, nil)
			return svc.AnalyzeSync(ctx, payload, "")
		}, cfg.Server.AnalysisTimeout, nil, nil)
	return NewAnalysisService(cfg, queue, nil, nil), queue
}

func TestAnalysisService_AnalyzeSync(t *testing.T) {
	cfg := testConfig()
	svc := NewAnalysisService(cfg, nil, nil, nil)

	data := testutil.BuildWorkbook(t,
		testutil.SheetFixture{Name: "AAPL", Rows: testutil.PriceRows(120, 0)})

	report, err := svc.AnalyzeSync(context.Background(), data, "prices.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "prices.xlsx", report.Meta.Source)
	require.Len(t, report.Results, 1)
	assert.Equal(t, domain.StatusSuccess, report.Results[0].Status)
}

func TestAnalysisService_AnalyzeSyncBadWorkbook(t *testing.T) {
	svc := NewAnalysisService(testConfig(), nil, nil, nil)

	_, err := svc.AnalyzeSync(context.Background(), []byte("junk"), "junk.xlsx")
	assert.Error(t, err)
}

func TestAnalysisService_JobLifecycle(t *testing.T) {
	cfg := testConfig()
	svc, queue := newTestService(t, cfg)
	queue.Start(context.Background())
	defer queue.Stop(time.Second)

	data := testutil.BuildWorkbook(t,
		testutil.SheetFixture{Name: "AAPL", Rows: testutil.PriceRows(120, 0)})

	job, err := svc.SubmitJob(context.Background(), data, "prices.xlsx")
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)

	deadline := time.After(10 * time.Second)
	for {
		current, err := svc.GetJob(job.ID)
		require.NoError(t, err)
		if current.Status.Terminal() {
			assert.Equal(t, jobs.StatusCompleted, current.Status)
			require.NotNil(t, current.Report)
			assert.Len(t, current.Report.Results, 1)
			break
		}
		select {
		case <-deadline:
			t.Fatal("job did not finish")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestAnalysisService_GetJobNotFound(t *testing.T) {
	svc, _ := newTestService(t, testConfig())

	_, err := svc.GetJob("nope")
	assert.ErrorIs(t, err, apperrors.ErrJobNotFound)

	_, _, err = svc.SubscribeJob("nope")
	assert.ErrorIs(t, err, apperrors.ErrJobNotFound)
}
