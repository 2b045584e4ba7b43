package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptimalThreshold_PerfectSeparation(t *testing.T) {
	actual := []float64{0, 0, 0, 1, 1, 1}
	predicted := []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9}

	thr := OptimalThreshold(actual, predicted)

	// Any cutoff in (0.3, 0.7] separates the classes perfectly; the chosen
	// one must classify every row correctly.
	assert.Greater(t, thr, 0.3)
	assert.LessOrEqual(t, thr, 0.7)
	assert.InDelta(t, 1.0, accuracy(actual, predicted, thr), 1e-9)
}

func TestOptimalThreshold_DegenerateLabels(t *testing.T) {
	assert.Equal(t, 0.5, OptimalThreshold([]float64{1, 1, 1}, []float64{0.2, 0.5, 0.9}))
	assert.Equal(t, 0.5, OptimalThreshold([]float64{0, 0, 0}, []float64{0.2, 0.5, 0.9}))
	assert.Equal(t, 0.5, OptimalThreshold(nil, nil))
}

func TestOptimalThreshold_BalancesRates(t *testing.T) {
	// Overlapping scores: the best cutoff trades one false positive against
	// one false negative evenly.
	actual := []float64{0, 1, 0, 1, 0, 1, 0, 1}
	predicted := []float64{0.2, 0.3, 0.35, 0.6, 0.55, 0.7, 0.4, 0.8}

	thr := OptimalThreshold(actual, predicted)
	acc := accuracy(actual, predicted, thr)
	assert.GreaterOrEqual(t, acc, 0.75)
}

func TestRSquared(t *testing.T) {
	actual := []float64{1, 2, 3, 4}

	assert.InDelta(t, 1.0, rSquared(actual, []float64{1, 2, 3, 4}), 1e-9)
	assert.Less(t, rSquared(actual, []float64{4, 3, 2, 1}), 0.0)
	assert.Equal(t, 0.0, rSquared([]float64{2, 2, 2}, []float64{1, 2, 3}))
	assert.Equal(t, 0.0, rSquared(nil, nil))
}

func TestRMSE(t *testing.T) {
	assert.InDelta(t, 0.0, rmse([]float64{1, 2}, []float64{1, 2}), 1e-9)
	assert.InDelta(t, 1.0, rmse([]float64{0, 0}, []float64{1, -1}), 1e-9)
}

func TestAccuracy(t *testing.T) {
	actual := []float64{1, 0, 1, 0}
	predicted := []float64{0.9, 0.1, 0.2, 0.8}

	assert.InDelta(t, 0.5, accuracy(actual, predicted, 0.5), 1e-9)
	assert.Equal(t, 0.0, accuracy(nil, nil, 0.5))
}
