// Package testutil provides shared test fixtures for building in-memory
// workbooks, mirroring the spreadsheets the analyzer is fed in production.
package testutil

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// SheetFixture describes one sheet of a synthetic workbook.
type SheetFixture struct {
	Name string
	Rows [][]interface{}
}

// BuildWorkbook assembles an xlsx document from the given sheets, in order,
// and returns its raw bytes.
func BuildWorkbook(t *testing.T, sheets ...SheetFixture) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			// Rename the default sheet instead of leaving it dangling.
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else {
			if _, err := f.NewSheet(sheet.Name); err != nil {
				t.Fatalf("create sheet %s: %v", sheet.Name, err)
			}
		}

		for rowIdx, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, rowIdx+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("serialize workbook: %v", err)
	}
	return buf.Bytes()
}

// PriceRows generates header plus n daily rows of a synthetic random-walk
// price series, deterministic in the given phase. Suitable for feeding the
// loader or the full pipeline.
func PriceRows(n int, phase float64) [][]interface{} {
	rows := [][]interface{}{
		{"FECHA", "Open", "High", "Low", "Close", "Volume"},
	}

	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := 0; i < n; i++ {
		// Deterministic pseudo-random walk: bounded oscillation with drift.
		delta := 1.5*math.Sin(phase+float64(i)*0.7) + 0.05
		price += delta
		if price < 5 {
			price = 5
		}
		date := start.AddDate(0, 0, i)
		rows = append(rows, []interface{}{
			date.Format("2006-01-02"),
			fmt.Sprintf("%.4f", price-0.5),
			fmt.Sprintf("%.4f", price+1.0),
			fmt.Sprintf("%.4f", price-1.0),
			fmt.Sprintf("%.4f", price),
			fmt.Sprintf("%d", 10000+i*17),
		})
	}
	return rows
}
