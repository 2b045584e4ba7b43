package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"equitycli/pkg/contracts/domain"
)

// CSVWriter writes analysis output as CSV files.
type CSVWriter struct{}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	slog.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for _, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return writer.Error()
}

// resultHeaders is the column order shared by the CSV and workbook exports.
var resultHeaders = []string{
	"Ticker", "Status", "Grade", "Signal", "Final Value", "Optimal Threshold",
	"Predicted Return", "Observations", "Dropped Rows", "First Date", "Last Date", "Reason",
}

// resultRecord flattens one result into the shared column order.
func resultRecord(r domain.AnalysisResult) []string {
	return []string{
		r.Ticker,
		string(r.Status),
		string(r.Grade),
		string(r.Signal),
		formatFloat(r.FinalValue),
		formatFloat(r.OptimalThreshold),
		formatFloat(r.PredictedReturn),
		formatInt(int64(r.Observations)),
		formatInt(int64(r.DroppedRows)),
		formatDate(r.FirstDate),
		formatDate(r.LastDate),
		r.Reason,
	}
}

// ExportReportCSV writes one report as a flat CSV summary, one row per
// instrument in report order.
func (w *CSVWriter) ExportReportCSV(report *domain.AnalysisReport, filePath string) error {
	records := make([][]string, 0, len(report.Results))
	for _, r := range report.Results {
		records = append(records, resultRecord(r))
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   resultHeaders,
		Records:   records,
		BOMPrefix: true,
	})
}
