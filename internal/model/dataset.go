package model

import (
	"fmt"

	apperrors "equitycli/internal/errors"
	"equitycli/internal/features"
)

// dataset is the design matrix for one instrument: feature rows scaled to
// [0, 1] per column, the raw (unscaled) rows, and the target vector.
type dataset struct {
	names  []string
	scaled [][]float64
	raw    [][]float64
	target []float64
}

func (d *dataset) rows() int { return len(d.target) }

// split returns the train/test partition boundary. At least one row lands on
// each side so diagnostics and evaluation are always defined.
func (d *dataset) split(trainFraction float64) int {
	n := d.rows()
	trainN := int(float64(n) * trainFraction)
	if trainN < 1 {
		trainN = 1
	}
	if trainN >= n {
		trainN = n - 1
	}
	return trainN
}

// buildDataset assembles the design matrix from a feature set, validating
// that every column the spec names actually exists.
func buildDataset(set *features.Set, spec Spec) (*dataset, error) {
	for _, name := range spec.FeatureNames {
		if _, ok := set.Column(name); !ok {
			return nil, apperrors.NewConfigurationError("model.features",
				fmt.Sprintf("feature column %q not present in feature set", name))
		}
	}
	target, ok := set.Column(spec.Target)
	if !ok {
		return nil, apperrors.NewConfigurationError("model.target",
			fmt.Sprintf("target column %q not present in feature set", spec.Target))
	}

	n := set.Rows()
	if n < spec.MinSamples {
		return nil, &apperrors.ModelFitError{
			Kind:         string(spec.Kind),
			Observations: n,
			Required:     spec.MinSamples,
		}
	}

	d := &dataset{
		names:  spec.FeatureNames,
		scaled: make([][]float64, n),
		raw:    make([][]float64, n),
		target: make([]float64, n),
	}
	copy(d.target, target)
	for i := range d.scaled {
		d.scaled[i] = make([]float64, len(spec.FeatureNames))
		d.raw[i] = make([]float64, len(spec.FeatureNames))
	}

	for j, name := range spec.FeatureNames {
		col, _ := set.Column(name)
		lo, hi := col[0], col[0]
		for _, v := range col {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		span := hi - lo
		for i, v := range col {
			d.raw[i][j] = v
			if span == 0 {
				d.scaled[i][j] = 0
				continue
			}
			d.scaled[i][j] = (v - lo) / span
		}
	}

	return d, nil
}
