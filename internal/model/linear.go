package model

import (
	apperrors "equitycli/internal/errors"
)

// linearModel holds least-squares weights; weights[0] is the intercept.
type linearModel struct {
	weights []float64
}

func (m *linearModel) Kind() Kind { return KindLinear }

func (m *linearModel) Predict(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		v := m.weights[0]
		for j, x := range row {
			v += m.weights[j+1] * x
		}
		out[i] = v
	}
	return out
}

// ridge keeps the normal equations solvable when feature columns are
// collinear; small enough to leave well-conditioned fits untouched.
const ridge = 1e-8

// fitLinear solves (XᵀX + λI)w = Xᵀy with an intercept column prepended.
func fitLinear(x [][]float64, y []float64, spec Spec) (*linearModel, error) {
	n := len(x)
	d := len(x[0]) + 1

	xtx := make([][]float64, d)
	for i := range xtx {
		xtx[i] = make([]float64, d)
	}
	xty := make([]float64, d)

	for r := 0; r < n; r++ {
		row := make([]float64, d)
		row[0] = 1
		copy(row[1:], x[r])
		for i := 0; i < d; i++ {
			xty[i] += row[i] * y[r]
			for j := 0; j < d; j++ {
				xtx[i][j] += row[i] * row[j]
			}
		}
	}
	for i := 0; i < d; i++ {
		xtx[i][i] += ridge
	}

	weights, ok := solve(xtx, xty)
	if !ok {
		return nil, &apperrors.ModelFitError{
			Kind:         string(KindLinear),
			Observations: n,
			Required:     spec.MinSamples,
		}
	}
	return &linearModel{weights: weights}, nil
}

// solve performs Gaussian elimination with partial pivoting on a copy of the
// inputs. Returns false when the system is singular.
func solve(a [][]float64, b []float64) ([]float64, bool) {
	n := len(b)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n+1)
		copy(m[i], a[i])
		m[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if abs(m[r][col]) > abs(m[pivot][col]) {
				pivot = r
			}
		}
		if abs(m[pivot][col]) < 1e-12 {
			return nil, false
		}
		m[col], m[pivot] = m[pivot], m[col]

		for r := col + 1; r < n; r++ {
			factor := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}

	out := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		v := m[r][n]
		for c := r + 1; c < n; c++ {
			v -= m[r][c] * out[c]
		}
		out[r] = v / m[r][r]
	}
	return out, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
