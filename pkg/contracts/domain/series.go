package domain

import (
	"math"
	"time"
)

// Bar represents a single observation for an instrument: one row of the
// canonical time series extracted from a workbook sheet.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// IsValid checks that every numeric field is finite. Rows failing this check
// are dropped by the loader and counted against the data quality threshold.
func (b Bar) IsValid() bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Close > 0
}

// InstrumentSeries is the canonical record for one traded instrument:
// timestamps strictly ascending and unique, all values finite.
type InstrumentSeries struct {
	Ticker      string `json:"ticker"`
	Bars        []Bar  `json:"bars"`
	DroppedRows int    `json:"dropped_rows"` // unparseable or non-finite rows discarded during load
	SourceSheet string `json:"source_sheet"`
}

// Len returns the number of observations in the series.
func (s *InstrumentSeries) Len() int {
	return len(s.Bars)
}

// Closes returns the close price column.
func (s *InstrumentSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Timestamps returns the timestamp column.
func (s *InstrumentSeries) Timestamps() []time.Time {
	out := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Timestamp
	}
	return out
}
