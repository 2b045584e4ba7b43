package workbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equitycli/internal/config"
	apperrors "equitycli/internal/errors"
	"equitycli/internal/testutil"
)

func TestParse_SingleSheet(t *testing.T) {
	data := testutil.BuildWorkbook(t, testutil.SheetFixture{
		Name: "MEXBOL",
		Rows: testutil.PriceRows(50, 0.1),
	})

	sheets, err := Parse(data, config.DefaultAnalysis())
	require.NoError(t, err)
	require.Len(t, sheets, 1)

	sheet := sheets[0]
	require.NoError(t, sheet.Err)
	assert.Equal(t, "MEXBOL", sheet.Series.Ticker)
	assert.Equal(t, 50, sheet.Series.Len())
	assert.Zero(t, sheet.Series.DroppedRows)

	// Timestamps ascending and unique
	ts := sheet.Series.Timestamps()
	for i := 1; i < len(ts); i++ {
		assert.True(t, ts[i].After(ts[i-1]), "timestamps must be strictly ascending")
	}
}

func TestParse_SheetOrderPreserved(t *testing.T) {
	data := testutil.BuildWorkbook(t,
		testutil.SheetFixture{Name: "ZHEAVY", Rows: testutil.PriceRows(40, 0.3)},
		testutil.SheetFixture{Name: "ALPHA", Rows: testutil.PriceRows(40, 0.9)},
		testutil.SheetFixture{Name: "MIDCAP", Rows: testutil.PriceRows(40, 1.7)},
	)

	sheets, err := Parse(data, config.DefaultAnalysis())
	require.NoError(t, err)
	require.Len(t, sheets, 3)

	// Workbook order, not alphabetical
	assert.Equal(t, "ZHEAVY", sheets[0].Name)
	assert.Equal(t, "ALPHA", sheets[1].Name)
	assert.Equal(t, "MIDCAP", sheets[2].Name)
}

func TestParse_SpanishHeaders(t *testing.T) {
	rows := [][]interface{}{
		{"FECHA", "Precio", "Volumen"},
		{"2023-01-02", "101.5", "1200"},
		{"2023-01-03", "102.25", "900"},
		{"2023-01-04", "101.75", "1500"},
	}
	data := testutil.BuildWorkbook(t, testutil.SheetFixture{Name: "IFMEXICO", Rows: rows})

	sheets, err := Parse(data, config.DefaultAnalysis())
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	require.NoError(t, sheets[0].Err)

	series := sheets[0].Series
	assert.Equal(t, 3, series.Len())
	assert.InDelta(t, 101.5, series.Bars[0].Close, 1e-9)
	// Missing OHLC columns fall back to close
	assert.InDelta(t, 101.5, series.Bars[0].Open, 1e-9)
	assert.InDelta(t, 1200, series.Bars[0].Volume, 1e-9)
}

func TestParse_MissingPriceColumn(t *testing.T) {
	rows := [][]interface{}{
		{"FECHA", "Comment"},
		{"2023-01-02", "no prices here"},
	}
	data := testutil.BuildWorkbook(t, testutil.SheetFixture{Name: "BROKEN", Rows: rows})

	sheets, err := Parse(data, config.DefaultAnalysis())
	require.NoError(t, err)
	require.Len(t, sheets, 1)

	require.Error(t, sheets[0].Err)
	var schemaErr *apperrors.SchemaError
	require.ErrorAs(t, sheets[0].Err, &schemaErr)
	assert.Equal(t, "BROKEN", schemaErr.Sheet)
	assert.Equal(t, "close", schemaErr.Column)
}

func TestParse_MissingTimestampColumn(t *testing.T) {
	rows := [][]interface{}{
		{"Label", "Close"},
		{"a", "100"},
	}
	data := testutil.BuildWorkbook(t, testutil.SheetFixture{Name: "NOTIME", Rows: rows})

	sheets, err := Parse(data, config.DefaultAnalysis())
	require.NoError(t, err)

	var schemaErr *apperrors.SchemaError
	require.ErrorAs(t, sheets[0].Err, &schemaErr)
	assert.Equal(t, "timestamp", schemaErr.Column)
}

func TestParse_DuplicateTimestampKeepsLast(t *testing.T) {
	rows := [][]interface{}{
		{"Date", "Close"},
		{"2023-01-02", "100"},
		{"2023-01-03", "105"},
		{"2023-01-03", "107"}, // engineered duplicate, later row wins
		{"2023-01-04", "110"},
	}
	data := testutil.BuildWorkbook(t, testutil.SheetFixture{Name: "DUP", Rows: rows})

	sheets, err := Parse(data, config.DefaultAnalysis())
	require.NoError(t, err)
	require.NoError(t, sheets[0].Err)

	series := sheets[0].Series
	require.Equal(t, 3, series.Len())
	assert.InDelta(t, 107, series.Bars[1].Close, 1e-9)
	assert.Zero(t, series.DroppedRows)
}

func TestParse_UnparseableDatesDroppedAndCounted(t *testing.T) {
	rows := [][]interface{}{
		{"Date", "Close"},
		{"2023-01-02", "100"},
		{"not a date", "101"},
		{"2023-01-04", "102"},
		{"2023-01-05", "103"},
		{"2023-01-06", "104"},
	}
	data := testutil.BuildWorkbook(t, testutil.SheetFixture{Name: "MESSY", Rows: rows})

	sheets, err := Parse(data, config.DefaultAnalysis())
	require.NoError(t, err)
	require.NoError(t, sheets[0].Err)

	series := sheets[0].Series
	assert.Equal(t, 4, series.Len())
	assert.Equal(t, 1, series.DroppedRows)
}

func TestParse_DroppedFractionExceeded(t *testing.T) {
	rows := [][]interface{}{
		{"Date", "Close"},
		{"2023-01-02", "100"},
		{"garbage", "101"},
		{"also garbage", "102"},
		{"still garbage", "103"},
	}
	data := testutil.BuildWorkbook(t, testutil.SheetFixture{Name: "LOWQ", Rows: rows})

	sheets, err := Parse(data, config.DefaultAnalysis())
	require.NoError(t, err)

	var qualityErr *apperrors.DataQualityError
	require.ErrorAs(t, sheets[0].Err, &qualityErr)
	assert.Equal(t, "LOWQ", qualityErr.Sheet)
	assert.Equal(t, 3, qualityErr.Dropped)
	assert.Equal(t, 4, qualityErr.Total)
}

func TestParse_NonFiniteValuesDropped(t *testing.T) {
	rows := [][]interface{}{
		{"Date", "Close"},
		{"2023-01-02", "100"},
		{"2023-01-03", "NaN"},
		{"2023-01-04", "102"},
		{"2023-01-05", "103"},
		{"2023-01-06", "104"},
	}
	data := testutil.BuildWorkbook(t, testutil.SheetFixture{Name: "NAN", Rows: rows})

	sheets, err := Parse(data, config.DefaultAnalysis())
	require.NoError(t, err)
	require.NoError(t, sheets[0].Err)
	assert.Equal(t, 4, sheets[0].Series.Len())
	assert.Equal(t, 1, sheets[0].Series.DroppedRows)
}

func TestParse_HeaderBelowTitleRows(t *testing.T) {
	rows := [][]interface{}{
		{"Quarterly export - internal use"},
		{},
		{"Date", "Close", "Volume"},
		{"2023-01-02", "100", "500"},
		{"2023-01-03", "101", "600"},
	}
	data := testutil.BuildWorkbook(t, testutil.SheetFixture{Name: "TITLED", Rows: rows})

	sheets, err := Parse(data, config.DefaultAnalysis())
	require.NoError(t, err)
	require.NoError(t, sheets[0].Err)
	assert.Equal(t, 2, sheets[0].Series.Len())
}

func TestParse_DateFormats(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want time.Time
	}{
		{"iso", "2023-06-15", time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)},
		{"iso with time", "2023-06-15 10:30:00", time.Date(2023, 6, 15, 10, 30, 0, 0, time.UTC)},
		{"european", "15/06/2023", time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)},
	}

	formats := config.DefaultAnalysis().DateFormats
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, ok := parseTimestamp(tt.cell, formats)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(ts), "got %v want %v", ts, tt.want)
		})
	}

	t.Run("excel serial", func(t *testing.T) {
		// 45000 = 2023-03-15 in the 1900 date system
		ts, ok := parseTimestamp("45000", formats)
		require.True(t, ok)
		assert.Equal(t, 2023, ts.Year())
		assert.Equal(t, time.March, ts.Month())
	})

	t.Run("unparseable", func(t *testing.T) {
		_, ok := parseTimestamp("yesterday-ish", formats)
		assert.False(t, ok)
	})
}

func TestParse_EmptySheetsSkipped(t *testing.T) {
	data := testutil.BuildWorkbook(t,
		testutil.SheetFixture{Name: "EMPTY", Rows: nil},
		testutil.SheetFixture{Name: "REAL", Rows: testutil.PriceRows(10, 0.2)},
	)

	sheets, err := Parse(data, config.DefaultAnalysis())
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, "REAL", sheets[0].Name)
}

func TestParse_NotAWorkbook(t *testing.T) {
	_, err := Parse([]byte("this is not an xlsx file"), config.DefaultAnalysis())
	assert.Error(t, err)
}
