package pipeline

import (
	"context"
	"time"

	"equitycli/internal/config"
	apperrors "equitycli/internal/errors"
	"equitycli/internal/features"
	"equitycli/internal/infrastructure"
	"equitycli/internal/model"
	"equitycli/internal/workbook"
	"equitycli/pkg/contracts/domain"
)

// Analyze runs the full pipeline over one workbook: parse sheets into
// instrument series, engineer features, fit and evaluate the configured
// model, and assemble one result per instrument in first-seen order.
//
// Failures scoped to a single instrument degrade that instrument's result;
// only whole-workbook failures (unreadable file, no instruments resolved,
// invalid configuration) return an error. Each call is independent and holds
// no state, so concurrent calls are safe.
func Analyze(ctx context.Context, data []byte, cfg config.AnalysisConfig) (*domain.AnalysisReport, error) {
	log := infrastructure.LoggerFromContext(ctx)

	defs := features.DefinitionsFrom(cfg.Features)
	if err := features.ValidateDefinitions(defs); err != nil {
		return nil, err
	}
	spec := model.SpecFromConfig(cfg.Model, cfg.FeatureNames())
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	sheets, err := workbook.Parse(data, cfg)
	if err != nil {
		return nil, err
	}

	report := &domain.AnalysisReport{
		Meta: domain.ReportMeta{
			GeneratedAt: time.Now().UTC(),
			ModelKind:   string(spec.Kind),
			Seed:        spec.Seed,
			Features:    spec.FeatureNames,
		},
		Results: make([]domain.AnalysisResult, 0, len(sheets)),
	}

	var firstSheetErr error
	resolved := 0
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if sheet.Err != nil {
			if firstSheetErr == nil {
				firstSheetErr = sheet.Err
			}
			report.Results = append(report.Results, failedResult(sheet.Name, sheet.Err, nil))
			continue
		}

		resolved++
		result := analyzeInstrument(sheet.Series, defs, spec, cfg)
		if result.Status != domain.StatusSuccess {
			log.Debug("instrument degraded",
				"ticker", result.Ticker,
				"status", string(result.Status),
				"reason", result.Reason)
		}
		report.Results = append(report.Results, result)
	}

	if resolved == 0 {
		if firstSheetErr != nil {
			return nil, firstSheetErr
		}
		return nil, &apperrors.SchemaError{}
	}

	assignGrades(report.Results)
	return report, nil
}

// analyzeInstrument runs one instrument end to end. Every error here is
// captured into the result; nothing propagates.
func analyzeInstrument(series *domain.InstrumentSeries, defs []features.Definition, spec model.Spec, cfg config.AnalysisConfig) domain.AnalysisResult {
	if series.Len() < cfg.MinObservations {
		return insufficientResult(series, &apperrors.ModelFitError{
			Kind:         string(spec.Kind),
			Observations: series.Len(),
			Required:     cfg.MinObservations,
		})
	}

	set, err := features.Compute(series, defs)
	if err != nil {
		return failedResult(series.Ticker, err, series)
	}

	outcome, err := model.Run(set, spec)
	if err != nil {
		if apperrors.IsModelFitError(err) {
			return insufficientResult(series, err)
		}
		return failedResult(series.Ticker, err, series)
	}

	return successResult(series, outcome)
}
