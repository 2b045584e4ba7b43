package domain

import (
	"time"
)

// ResultStatus describes the outcome of analyzing a single instrument.
type ResultStatus string

const (
	StatusSuccess          ResultStatus = "success"
	StatusInsufficientData ResultStatus = "insufficient_data"
	StatusFailed           ResultStatus = "failed"
)

// Grade is a relative ranking of an instrument within one report,
// assigned after all instruments have been analyzed.
type Grade string

const (
	GradeA    Grade = "A"
	GradeB    Grade = "B"
	GradeC    Grade = "C"
	GradeD    Grade = "D"
	GradeE    Grade = "E"
	GradeNone Grade = ""
)

// Signal is the model's directional call for an instrument.
type Signal string

const (
	SignalUp      Signal = "up"
	SignalDown    Signal = "down"
	SignalNeutral Signal = "none"
)

// AnalysisResult is the per-instrument output of the pipeline. Failures are
// captured here with a status and reason rather than aborting the batch.
type AnalysisResult struct {
	Ticker string       `json:"ticker"`
	Status ResultStatus `json:"status"`
	Reason string       `json:"reason,omitempty"`

	Observations int        `json:"observations"`
	DroppedRows  int        `json:"dropped_rows,omitempty"`
	FirstDate    *time.Time `json:"first_date,omitempty"`
	LastDate     *time.Time `json:"last_date,omitempty"`

	// Scalar summary statistics over the canonical series.
	Metrics map[string]float64 `json:"metrics,omitempty"`

	// Model outputs. FinalValue is the ranking score used for grading:
	// actual positives minus predicted positives over the evaluation split.
	Signal           Signal  `json:"signal,omitempty"`
	OptimalThreshold float64 `json:"optimal_threshold,omitempty"`
	PredictedReturn  float64 `json:"predicted_return,omitempty"`
	FinalValue       float64 `json:"final_value,omitempty"`
	Grade            Grade   `json:"grade,omitempty"`

	// Tail of the prediction sequence, most recent last.
	RecentPredictions []float64 `json:"recent_predictions,omitempty"`
}

// OK reports whether the instrument produced usable model output.
func (r AnalysisResult) OK() bool {
	return r.Status == StatusSuccess
}

// ReportMeta carries run-level metadata attached to every report.
type ReportMeta struct {
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source,omitempty"` // original file name, when known
	ModelKind   string    `json:"model_kind"`
	Seed        int64     `json:"seed"`
	Features    []string  `json:"features"`
}

// AnalysisReport is the sole artifact returned by the pipeline: one result per
// instrument, ordered exactly as instruments were discovered in the workbook.
type AnalysisReport struct {
	Meta    ReportMeta       `json:"meta"`
	Results []AnalysisResult `json:"results"`
}

// Succeeded returns the subset of results with full model output,
// preserving report order.
func (r *AnalysisReport) Succeeded() []AnalysisResult {
	var out []AnalysisResult
	for _, res := range r.Results {
		if res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Tickers returns the instrument identifiers in report order.
func (r *AnalysisReport) Tickers() []string {
	out := make([]string, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.Ticker
	}
	return out
}
