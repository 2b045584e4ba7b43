package model

import (
	"math"
	"math/rand"
)

// mlpModel is a single-hidden-layer regressor: logistic hidden activation,
// linear output. Training is full-batch gradient descent for a fixed number
// of epochs, so a given seed always reproduces the same weights.
type mlpModel struct {
	hiddenW [][]float64 // hidden x inputs
	hiddenB []float64
	outW    []float64
	outB    float64
}

func (m *mlpModel) Kind() Kind { return KindMLP }

func (m *mlpModel) Predict(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = m.forward(row, nil)
	}
	return out
}

// forward runs one row through the network. When hidden is non-nil it
// receives the hidden activations, which training reuses for backprop.
func (m *mlpModel) forward(row []float64, hidden []float64) float64 {
	v := m.outB
	for h := range m.hiddenW {
		z := m.hiddenB[h]
		for j, x := range row {
			z += m.hiddenW[h][j] * x
		}
		a := sigmoid(z)
		if hidden != nil {
			hidden[h] = a
		}
		v += m.outW[h] * a
	}
	return v
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func fitMLP(x [][]float64, y []float64, spec Spec) *mlpModel {
	inputs := len(x[0])
	rng := rand.New(rand.NewSource(spec.Seed))

	m := &mlpModel{
		hiddenW: make([][]float64, spec.HiddenUnits),
		hiddenB: make([]float64, spec.HiddenUnits),
		outW:    make([]float64, spec.HiddenUnits),
	}
	for h := range m.hiddenW {
		m.hiddenW[h] = make([]float64, inputs)
		for j := range m.hiddenW[h] {
			m.hiddenW[h][j] = rng.Float64() - 0.5
		}
		m.outW[h] = rng.Float64() - 0.5
	}

	n := float64(len(x))
	lr := spec.LearningRate
	hidden := make([]float64, spec.HiddenUnits)

	for epoch := 0; epoch < spec.Epochs; epoch++ {
		gradHW := make([][]float64, spec.HiddenUnits)
		for h := range gradHW {
			gradHW[h] = make([]float64, inputs)
		}
		gradHB := make([]float64, spec.HiddenUnits)
		gradOW := make([]float64, spec.HiddenUnits)
		var gradOB float64

		for r, row := range x {
			pred := m.forward(row, hidden)
			errTerm := pred - y[r]

			gradOB += errTerm
			for h := 0; h < spec.HiddenUnits; h++ {
				gradOW[h] += errTerm * hidden[h]
				// derivative of the logistic activation
				delta := errTerm * m.outW[h] * hidden[h] * (1 - hidden[h])
				gradHB[h] += delta
				for j, xv := range row {
					gradHW[h][j] += delta * xv
				}
			}
		}

		m.outB -= lr * gradOB / n
		for h := 0; h < spec.HiddenUnits; h++ {
			m.outW[h] -= lr * gradOW[h] / n
			m.hiddenB[h] -= lr * gradHB[h] / n
			for j := range m.hiddenW[h] {
				m.hiddenW[h][j] -= lr * gradHW[h][j] / n
			}
		}
	}

	return m
}
