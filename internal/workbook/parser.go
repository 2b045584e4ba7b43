package workbook

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"equitycli/internal/config"
	apperrors "equitycli/internal/errors"
	"equitycli/pkg/contracts/domain"
)

// headerScanRows is how many leading rows are examined when locating the
// header row on a sheet. Real workbooks often carry titles or blank rows
// above the actual column headers.
const headerScanRows = 10

// Sheet is the loader's per-sheet outcome. A sheet that could not be parsed
// carries its error here so the pipeline can degrade that instrument alone.
type Sheet struct {
	Name   string
	Series *domain.InstrumentSeries
	Err    error
}

// Parse reads workbook bytes and extracts one InstrumentSeries per sheet,
// in workbook sheet order. Sheet name is the instrument ticker. Empty sheets
// are skipped. Per-sheet structural problems are reported on the Sheet entry;
// only an unopenable workbook returns a top-level error.
func Parse(data []byte, cfg config.AnalysisConfig) ([]Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &apperrors.SchemaError{Reason: fmt.Sprintf("workbook could not be opened: %v", err)}
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			sheets = append(sheets, Sheet{Name: name, Err: fmt.Errorf("read sheet %q: %w", name, err)})
			continue
		}
		if isEmptySheet(rows) {
			slog.Debug("skipping empty sheet", slog.String("sheet", name))
			continue
		}

		series, err := parseSheet(name, rows, cfg)
		sheets = append(sheets, Sheet{Name: name, Series: series, Err: err})
	}

	return sheets, nil
}

// columnMap holds resolved column indices for one sheet. -1 means absent.
type columnMap struct {
	timestamp int
	open      int
	high      int
	low       int
	close     int
	volume    int
}

// parseSheet converts one sheet's cell grid into a canonical series.
func parseSheet(name string, rows [][]string, cfg config.AnalysisConfig) (*domain.InstrumentSeries, error) {
	headerRow, cols, err := resolveColumns(name, rows, cfg)
	if err != nil {
		return nil, err
	}

	slog.Debug("resolved sheet columns",
		slog.String("sheet", name),
		slog.Int("header_row", headerRow),
		slog.Int("timestamp_col", cols.timestamp),
		slog.Int("close_col", cols.close))

	type keyed struct {
		bar   domain.Bar
		order int
	}
	byTimestamp := make(map[int64]*keyed)

	var total, dropped, order int
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		total++

		ts, ok := parseTimestamp(cellAt(row, cols.timestamp), cfg.DateFormats)
		if !ok {
			dropped++
			continue
		}

		closeVal, ok := parseNumber(cellAt(row, cols.close))
		if !ok {
			dropped++
			continue
		}

		bar := domain.Bar{
			Timestamp: ts,
			Open:      numberOr(cellAt(row, cols.open), closeVal),
			High:      numberOr(cellAt(row, cols.high), closeVal),
			Low:       numberOr(cellAt(row, cols.low), closeVal),
			Close:     closeVal,
			Volume:    numberOr(cellAt(row, cols.volume), 0),
		}
		if !bar.IsValid() {
			dropped++
			continue
		}

		// Duplicate (instrument, timestamp) rows: the later row in file
		// order wins. Duplicates do not count as dropped.
		key := ts.Unix()
		if existing, seen := byTimestamp[key]; seen {
			existing.bar = bar
			continue
		}
		byTimestamp[key] = &keyed{bar: bar, order: order}
		order++
	}

	if total == 0 {
		return nil, &apperrors.SchemaError{Sheet: name}
	}
	if frac := float64(dropped) / float64(total); frac > cfg.MaxDroppedFraction {
		return nil, &apperrors.DataQualityError{
			Sheet:       name,
			Dropped:     dropped,
			Total:       total,
			MaxFraction: cfg.MaxDroppedFraction,
		}
	}

	bars := make([]domain.Bar, 0, len(byTimestamp))
	for _, k := range byTimestamp {
		bars = append(bars, k.bar)
	}
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})

	slog.Debug("parsed sheet",
		slog.String("sheet", name),
		slog.Int("bars", len(bars)),
		slog.Int("dropped", dropped))

	return &domain.InstrumentSeries{
		Ticker:      strings.TrimSpace(name),
		Bars:        bars,
		DroppedRows: dropped,
		SourceSheet: name,
	}, nil
}

// resolveColumns locates the header row and maps logical fields to column
// indices using the configured aliases. Timestamp and close are required;
// the rest are optional.
func resolveColumns(sheet string, rows [][]string, cfg config.AnalysisConfig) (int, columnMap, error) {
	limit := headerScanRows
	if len(rows) < limit {
		limit = len(rows)
	}

	for i := 0; i < limit; i++ {
		row := rows[i]
		cols := columnMap{timestamp: -1, open: -1, high: -1, low: -1, close: -1, volume: -1}
		for j, cell := range row {
			switch {
			case cols.timestamp == -1 && matchesAlias(cell, cfg.TimestampAliases):
				cols.timestamp = j
			case cols.open == -1 && matchesAlias(cell, cfg.OpenAliases):
				cols.open = j
			case cols.high == -1 && matchesAlias(cell, cfg.HighAliases):
				cols.high = j
			case cols.low == -1 && matchesAlias(cell, cfg.LowAliases):
				cols.low = j
			case cols.close == -1 && matchesAlias(cell, cfg.CloseAliases):
				cols.close = j
			case cols.volume == -1 && matchesAlias(cell, cfg.VolumeAliases):
				cols.volume = j
			}
		}

		if cols.timestamp >= 0 && cols.close >= 0 {
			return i, cols, nil
		}
		if cols.timestamp >= 0 {
			return 0, columnMap{}, apperrors.NewSchemaError(sheet, "close")
		}
	}

	return 0, columnMap{}, apperrors.NewSchemaError(sheet, "timestamp")
}

// matchesAlias normalizes a header cell and compares it against the alias list.
func matchesAlias(cell string, aliases []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\uFEFF")))
	if normalized == "" {
		return false
	}
	for _, alias := range aliases {
		if normalized == strings.ToLower(alias) {
			return true
		}
	}
	return false
}

// parseTimestamp coerces a cell to a timestamp. Tries the configured layouts
// first, then falls back to Excel serial date numbers.
func parseTimestamp(cell string, formats []string) (time.Time, bool) {
	value := strings.TrimSpace(cell)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range formats {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}

	// Excel stores dates as day counts since 1900; excelize surfaces them as
	// plain numbers when the cell has no date format applied.
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 59 && serial < 200000 {
		if ts, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return ts.UTC(), true
		}
	}

	return time.Time{}, false
}

// parseNumber parses a numeric cell, tolerating thousands separators.
func parseNumber(cell string) (float64, bool) {
	value := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// numberOr parses an optional numeric cell, returning fallback when the cell
// is absent or unparseable.
func numberOr(cell string, fallback float64) float64 {
	if f, ok := parseNumber(cell); ok {
		return f
	}
	return fallback
}

// cellAt returns the cell at index col, or "" when the row is short or the
// column was not resolved.
func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// isEmptyRow reports whether every cell in the row is blank.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// isEmptySheet reports whether the sheet has no non-blank cells.
func isEmptySheet(rows [][]string) bool {
	for _, row := range rows {
		if !isEmptyRow(row) {
			return false
		}
	}
	return true
}
