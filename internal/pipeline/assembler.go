package pipeline

import (
	"math"

	apperrors "equitycli/internal/errors"
	"equitycli/internal/model"
	"equitycli/pkg/contracts/domain"
)

// recentPredictionCount bounds how much of the prediction tail each result
// carries; enough for a quick look without bloating the report.
const recentPredictionCount = 5

func successResult(series *domain.InstrumentSeries, outcome *model.Outcome) domain.AnalysisResult {
	result := domain.AnalysisResult{
		Ticker:       series.Ticker,
		Status:       domain.StatusSuccess,
		Observations: series.Len(),
		DroppedRows:  series.DroppedRows,

		Metrics:          summaryMetrics(series),
		Signal:           outcome.Signal,
		OptimalThreshold: outcome.OptimalThreshold,
		PredictedReturn:  outcome.PredictedReturn,
		FinalValue:       outcome.FinalValue,
	}
	setDateRange(&result, series)

	for name, value := range outcome.Diagnostics {
		result.Metrics[name] = value
	}

	preds := outcome.Predictions
	if len(preds) > recentPredictionCount {
		preds = preds[len(preds)-recentPredictionCount:]
	}
	result.RecentPredictions = append([]float64(nil), preds...)

	return result
}

func insufficientResult(series *domain.InstrumentSeries, err error) domain.AnalysisResult {
	result := domain.AnalysisResult{
		Ticker:       series.Ticker,
		Status:       domain.StatusInsufficientData,
		Reason:       err.Error(),
		Observations: series.Len(),
		DroppedRows:  series.DroppedRows,
	}
	setDateRange(&result, series)
	return result
}

// failedResult captures an instrument-scoped error. Data-quality failures on
// a sheet arrive here with a nil series.
func failedResult(ticker string, err error, series *domain.InstrumentSeries) domain.AnalysisResult {
	result := domain.AnalysisResult{
		Ticker: ticker,
		Status: domain.StatusFailed,
		Reason: err.Error(),
	}
	if apperrors.IsModelFitError(err) {
		result.Status = domain.StatusInsufficientData
	}
	if series != nil {
		result.Observations = series.Len()
		result.DroppedRows = series.DroppedRows
		setDateRange(&result, series)
	}
	return result
}

func setDateRange(result *domain.AnalysisResult, series *domain.InstrumentSeries) {
	if series.Len() == 0 {
		return
	}
	first := series.Bars[0].Timestamp
	last := series.Bars[series.Len()-1].Timestamp
	result.FirstDate = &first
	result.LastDate = &last
}

// summaryMetrics condenses the canonical series into a few scalar
// descriptors carried alongside the model diagnostics.
func summaryMetrics(series *domain.InstrumentSeries) map[string]float64 {
	closes := series.Closes()
	n := len(closes)
	metrics := make(map[string]float64, 6)
	if n == 0 {
		return metrics
	}

	var sum float64
	lo, hi := closes[0], closes[0]
	for _, c := range closes {
		sum += c
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}
	mean := sum / float64(n)

	var sq float64
	for _, c := range closes {
		d := c - mean
		sq += d * d
	}

	metrics["last_close"] = closes[n-1]
	metrics["mean_close"] = mean
	metrics["min_close"] = lo
	metrics["max_close"] = hi
	metrics["close_stddev"] = math.Sqrt(sq / float64(n))
	if closes[0] != 0 {
		metrics["total_return"] = (closes[n-1] - closes[0]) / closes[0]
	}
	return metrics
}
