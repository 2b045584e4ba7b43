package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "equitycli/internal/errors"
	"equitycli/pkg/contracts/domain"
)

func seriesFromCloses(ticker string, closes []float64) *domain.InstrumentSeries {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return &domain.InstrumentSeries{Ticker: ticker, Bars: bars}
}

func TestCompute_AlignmentInvariant(t *testing.T) {
	series := seriesFromCloses("TEST", []float64{
		10, 11, 12, 11, 13, 14, 13, 15, 16, 15,
		17, 18, 17, 19, 20, 19, 21, 22, 21, 23,
	})
	defs := []Definition{
		{Name: "ret_1", Kind: KindReturn, Window: 2},
		{Name: "sma_5", Kind: KindSMA, Window: 5},
		{Name: "vol_5", Kind: KindStdDev, Window: 5},
		{Name: "mom_10", Kind: KindMomentum, Window: 10},
		{Name: "rsi_7", Kind: KindRSI, Window: 7},
		{Name: "direction", Kind: KindDirection, Window: 2},
	}

	set, err := Compute(series, defs)
	require.NoError(t, err)

	// Largest window is 10, so 20 - 10 + 1 = 11 aligned rows.
	assert.Equal(t, 11, set.Rows())
	assert.Equal(t, 9, set.Offset)
	assert.Len(t, set.Timestamps, 11)

	// Every column must share the same length.
	names := set.Names()
	require.Len(t, names, len(defs))
	for _, name := range names {
		col, ok := set.Column(name)
		require.True(t, ok, "column %s missing", name)
		assert.Len(t, col, set.Rows(), "column %s misaligned", name)
	}

	// Last timestamp of the set is the last timestamp of the series.
	assert.True(t, set.Timestamps[len(set.Timestamps)-1].Equal(series.Bars[len(series.Bars)-1].Timestamp))
}

func TestCompute_SMAValues(t *testing.T) {
	series := seriesFromCloses("SMA", []float64{1, 2, 3, 4, 5})
	set, err := Compute(series, []Definition{{Name: "sma_3", Kind: KindSMA, Window: 3}})
	require.NoError(t, err)

	col, _ := set.Column("sma_3")
	require.Len(t, col, 3)
	assert.InDelta(t, 2.0, col[0], 1e-9)
	assert.InDelta(t, 3.0, col[1], 1e-9)
	assert.InDelta(t, 4.0, col[2], 1e-9)
}

func TestCompute_ReturnValues(t *testing.T) {
	series := seriesFromCloses("RET", []float64{100, 110, 99})
	set, err := Compute(series, []Definition{{Name: "ret", Kind: KindReturn, Window: 2}})
	require.NoError(t, err)

	col, _ := set.Column("ret")
	require.Len(t, col, 2)
	assert.InDelta(t, 0.10, col[0], 1e-9)
	assert.InDelta(t, -0.10, col[1], 1e-9)
}

func TestCompute_MomentumValues(t *testing.T) {
	series := seriesFromCloses("MOM", []float64{10, 12, 11, 15})
	set, err := Compute(series, []Definition{{Name: "mom_3", Kind: KindMomentum, Window: 3}})
	require.NoError(t, err)

	col, _ := set.Column("mom_3")
	require.Len(t, col, 2)
	assert.InDelta(t, 1.0, col[0], 1e-9)  // 11 - 10
	assert.InDelta(t, 3.0, col[1], 1e-9)  // 15 - 12
}

func TestCompute_DirectionLabel(t *testing.T) {
	series := seriesFromCloses("DIR", []float64{10, 12, 11, 11, 13})
	set, err := Compute(series, []Definition{{Name: "direction", Kind: KindDirection, Window: 2}})
	require.NoError(t, err)

	col, _ := set.Column("direction")
	assert.Equal(t, []float64{1, 0, 1, 1}, col)
}

func TestCompute_RSIBounds(t *testing.T) {
	t.Run("all gains", func(t *testing.T) {
		series := seriesFromCloses("UP", []float64{1, 2, 3, 4, 5, 6, 7})
		set, err := Compute(series, []Definition{{Name: "rsi", Kind: KindRSI, Window: 5}})
		require.NoError(t, err)
		col, _ := set.Column("rsi")
		for _, v := range col {
			assert.InDelta(t, 100, v, 1e-9)
		}
	})

	t.Run("flat series", func(t *testing.T) {
		series := seriesFromCloses("FLAT", []float64{5, 5, 5, 5, 5, 5})
		set, err := Compute(series, []Definition{{Name: "rsi", Kind: KindRSI, Window: 4}})
		require.NoError(t, err)
		col, _ := set.Column("rsi")
		for _, v := range col {
			assert.InDelta(t, 50, v, 1e-9)
		}
	})

	t.Run("mixed stays in range", func(t *testing.T) {
		series := seriesFromCloses("MIX", []float64{10, 12, 9, 14, 8, 16, 11, 13})
		set, err := Compute(series, []Definition{{Name: "rsi", Kind: KindRSI, Window: 5}})
		require.NoError(t, err)
		col, _ := set.Column("rsi")
		for _, v := range col {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	})
}

func TestCompute_SeriesShorterThanLargestWindow(t *testing.T) {
	series := seriesFromCloses("SHORT", []float64{10, 11, 12})
	defs := []Definition{
		{Name: "ret", Kind: KindReturn, Window: 2},
		{Name: "sma_20", Kind: KindSMA, Window: 20},
	}

	set, err := Compute(series, defs)
	require.NoError(t, err, "short series must not error")
	assert.Equal(t, 0, set.Rows())
	assert.Empty(t, set.Timestamps)

	col, ok := set.Column("ret")
	require.True(t, ok)
	assert.Empty(t, col)
}

func TestCompute_Deterministic(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 13, 14, 13, 15, 16, 15, 17, 18}
	defs := []Definition{
		{Name: "sma_5", Kind: KindSMA, Window: 5},
		{Name: "rsi_5", Kind: KindRSI, Window: 5},
	}

	first, err := Compute(seriesFromCloses("D", closes), defs)
	require.NoError(t, err)
	second, err := Compute(seriesFromCloses("D", closes), defs)
	require.NoError(t, err)

	for _, name := range first.Names() {
		a, _ := first.Column(name)
		b, _ := second.Column(name)
		assert.Equal(t, a, b)
	}
}

func TestValidateDefinitions(t *testing.T) {
	valid := []Definition{
		{Name: "sma_5", Kind: KindSMA, Window: 5},
		{Name: "direction", Kind: KindDirection, Window: 2},
	}
	assert.NoError(t, ValidateDefinitions(valid))

	assert.True(t, apperrors.IsConfigurationError(ValidateDefinitions(nil)))
	assert.True(t, apperrors.IsConfigurationError(ValidateDefinitions([]Definition{
		{Name: "x", Kind: KindSMA, Window: 0},
	})))
	assert.True(t, apperrors.IsConfigurationError(ValidateDefinitions([]Definition{
		{Name: "x", Kind: "kalman", Window: 3},
	})))
}

func TestCompute_ConfigurationErrors(t *testing.T) {
	series := seriesFromCloses("CFG", []float64{1, 2, 3, 4, 5})

	t.Run("no features", func(t *testing.T) {
		_, err := Compute(series, nil)
		assert.True(t, apperrors.IsConfigurationError(err))
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := Compute(series, []Definition{{Name: "x", Kind: "wavelet", Window: 3}})
		assert.True(t, apperrors.IsConfigurationError(err))
	})

	t.Run("bad window", func(t *testing.T) {
		_, err := Compute(series, []Definition{{Name: "x", Kind: KindSMA, Window: 0}})
		assert.True(t, apperrors.IsConfigurationError(err))
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := Compute(series, []Definition{
			{Name: "x", Kind: KindSMA, Window: 2},
			{Name: "x", Kind: KindRSI, Window: 3},
		})
		assert.True(t, apperrors.IsConfigurationError(err))
	})
}
