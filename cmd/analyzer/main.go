// Command analyzer runs the analysis pipeline over a directory of workbooks
// and writes per-workbook JSON reports plus consolidated CSV and Excel
// summaries.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"equitycli/internal/config"
	"equitycli/internal/exporter"
	"equitycli/internal/infrastructure"
	"equitycli/internal/pipeline"
	"equitycli/pkg/contracts/domain"
)

// topSummaryCount is how many top-graded instruments are logged after a run.
const topSummaryCount = 5

func main() {
	inDir := flag.String("in", "", "input directory or single .xlsx file (defaults to the configured data dir)")
	outDir := flag.String("out", "", "output directory for reports (defaults to the configured output dir)")
	modelKind := flag.String("model", "", "override the configured model kind (momentum, linear, mlp)")
	seed := flag.Int64("seed", 0, "override the configured model seed (0 keeps the configured value)")
	workers := flag.Int("workers", 4, "number of workbooks analyzed concurrently")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	if *inDir == "" {
		*inDir = cfg.Paths.DataDir
	}
	if *outDir == "" {
		*outDir = cfg.Paths.OutputDir
	}
	if *modelKind != "" {
		cfg.Analysis.Model.Kind = *modelKind
	}
	if *seed != 0 {
		cfg.Analysis.Model.Seed = *seed
	}
	if *workers < 1 {
		*workers = 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *inDir, *outDir, *workers, logger); err != nil {
		logger.Error("Analysis run failed", slog.String("error", err.Error()))
		infrastructure.CloseLogFile()
		os.Exit(1)
	}
	infrastructure.CloseLogFile()
}

func run(ctx context.Context, cfg *config.Config, inDir, outDir string, workers int, logger *slog.Logger) error {
	start := time.Now()

	files, err := collectWorkbooks(inDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .xlsx workbooks found in %s", inDir)
	}

	logger.Info("Starting analysis run",
		slog.Int("workbooks", len(files)),
		slog.String("model", cfg.Analysis.Model.Kind),
		slog.Int64("seed", cfg.Analysis.Model.Seed),
		slog.String("output_dir", outDir))

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var mu sync.Mutex
	reports := make(map[string]*domain.AnalysisReport, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, file := range files {
		file := file
		g.Go(func() error {
			report, err := analyzeWorkbook(gctx, file, cfg.Analysis)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(file), err)
			}

			label := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			jsonPath := filepath.Join(outDir, label+".json")
			if err := exporter.ExportReportJSON(report, jsonPath); err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(file), err)
			}

			logger.Info("Workbook analyzed",
				slog.String("workbook", filepath.Base(file)),
				slog.Int("instruments", len(report.Results)),
				slog.String("report", jsonPath))

			mu.Lock()
			reports[label] = report
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	labels := make([]string, 0, len(reports))
	for label := range reports {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	writer := exporter.NewCSVWriter()
	for _, label := range labels {
		csvPath := filepath.Join(outDir, label+".csv")
		if err := writer.ExportReportCSV(reports[label], csvPath); err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
	}

	summaryPath := filepath.Join(outDir, "analysis_summary.xlsx")
	if err := exporter.NewWorkbookExporter().ExportWorkbook(labels, reports, summaryPath); err != nil {
		return fmt.Errorf("write summary workbook: %w", err)
	}

	logTopInstruments(logger, reports)

	logger.Info("Analysis run complete",
		slog.Int("workbooks", len(files)),
		slog.String("summary", summaryPath),
		slog.Duration("elapsed", time.Since(start).Round(time.Millisecond)))
	return nil
}

// collectWorkbooks resolves the input path into a list of workbook files.
// Excel lock files (~$...) are skipped.
func collectWorkbooks(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read input path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".xlsx") || strings.HasPrefix(name, "~$") {
			continue
		}
		files = append(files, filepath.Join(path, name))
	}
	sort.Strings(files)
	return files, nil
}

func analyzeWorkbook(ctx context.Context, path string, cfg config.AnalysisConfig) (*domain.AnalysisReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}

	report, err := pipeline.Analyze(ctx, data, cfg)
	if err != nil {
		return nil, err
	}
	report.Meta.Source = filepath.Base(path)
	return report, nil
}

// logTopInstruments logs the highest-ranked instruments across all reports.
func logTopInstruments(logger *slog.Logger, reports map[string]*domain.AnalysisReport) {
	type ranked struct {
		source string
		result domain.AnalysisResult
	}

	var top []ranked
	for label, report := range reports {
		for _, result := range report.Results {
			if result.OK() {
				top = append(top, ranked{source: label, result: result})
			}
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].result.FinalValue > top[j].result.FinalValue
	})

	if len(top) > topSummaryCount {
		top = top[:topSummaryCount]
	}
	for i, entry := range top {
		logger.Info("Top instrument",
			slog.Int("rank", i+1),
			slog.String("ticker", entry.result.Ticker),
			slog.String("source", entry.source),
			slog.String("grade", string(entry.result.Grade)),
			slog.String("signal", string(entry.result.Signal)),
			slog.Float64("final_value", entry.result.FinalValue))
	}
}
