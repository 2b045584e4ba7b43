package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"equitycli/pkg/contracts/domain"
)

// ExportReportJSON writes the full report, indented, to the given path.
// This is the lossless export; CSV and workbook outputs are summaries.
func ExportReportJSON(report *domain.AnalysisReport, filePath string) error {
	slog.Info("Writing JSON report",
		slog.String("file_path", filePath),
		slog.Int("result_count", len(report.Results)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
