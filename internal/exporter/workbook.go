package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"equitycli/pkg/contracts/domain"
)

// WorkbookExporter writes consolidated results back out as an xlsx document,
// one sheet per analyzed source file plus a combined summary sheet.
type WorkbookExporter struct{}

// NewWorkbookExporter creates a new workbook exporter instance
func NewWorkbookExporter() *WorkbookExporter {
	return &WorkbookExporter{}
}

const summarySheet = "Summary"

// ExportWorkbook writes the given reports to filePath. Reports are keyed by
// a short label (typically the source file name) used as the sheet name;
// order follows the labels slice so output is stable.
func (e *WorkbookExporter) ExportWorkbook(labels []string, reports map[string]*domain.AnalysisReport, filePath string) error {
	slog.Info("Writing results workbook",
		slog.String("file_path", filePath),
		slog.Int("report_count", len(reports)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to rename summary sheet: %w", err)
	}

	summaryRow := 1
	writeRow := func(sheet string, row int, values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &values)
	}

	header := make([]interface{}, 0, len(resultHeaders)+1)
	header = append(header, "Source")
	for _, h := range resultHeaders {
		header = append(header, h)
	}
	if err := writeRow(summarySheet, summaryRow, header); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	summaryRow++

	for _, label := range labels {
		report, ok := reports[label]
		if !ok {
			continue
		}
		sheet := sheetName(label)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}

		perFileHeader := make([]interface{}, len(resultHeaders))
		for i, h := range resultHeaders {
			perFileHeader[i] = h
		}
		if err := writeRow(sheet, 1, perFileHeader); err != nil {
			return fmt.Errorf("failed to write header on %s: %w", sheet, err)
		}

		for i, result := range report.Results {
			record := resultRecord(result)
			values := make([]interface{}, len(record))
			for j, v := range record {
				values[j] = v
			}
			if err := writeRow(sheet, i+2, values); err != nil {
				return fmt.Errorf("failed to write row on %s: %w", sheet, err)
			}

			withSource := make([]interface{}, 0, len(record)+1)
			withSource = append(withSource, label)
			for _, v := range record {
				withSource = append(withSource, v)
			}
			if err := writeRow(summarySheet, summaryRow, withSource); err != nil {
				return fmt.Errorf("failed to write summary row: %w", err)
			}
			summaryRow++
		}
	}

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// sheetName trims a label to the 31-character limit xlsx imposes.
func sheetName(label string) string {
	name := filepath.Base(label)
	if ext := filepath.Ext(name); ext != "" {
		name = name[:len(name)-len(ext)]
	}
	if name == "" || name == "." || name == summarySheet {
		name = "Results"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
