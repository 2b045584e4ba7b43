package infrastructure

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the analysis service
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal        *prometheus.CounterVec
	InstrumentsProcessed *prometheus.CounterVec
	AnalysisDuration     prometheus.Histogram
	JobsInFlight         prometheus.Gauge
	UploadBytes          prometheus.Histogram
}

// NewMetrics creates and registers the application metrics on a
// dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "equitycli",
			Name:      "analyses_total",
			Help:      "Number of workbook analyses run, by outcome.",
		}, []string{"outcome"}),
		InstrumentsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "equitycli",
			Name:      "instruments_processed_total",
			Help:      "Number of instruments analyzed, by result status.",
		}, []string{"status"}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "equitycli",
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end duration of one workbook analysis.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		JobsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "equitycli",
			Name:      "jobs_in_flight",
			Help:      "Analysis jobs currently queued or running.",
		}),
		UploadBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "equitycli",
			Name:      "upload_bytes",
			Help:      "Size of uploaded workbooks.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
	}
}

// Handler returns an HTTP handler exposing the registry in the
// Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
