package model

import (
	"equitycli/internal/features"
	"equitycli/pkg/contracts/domain"
)

// Fitted is a reusable model handle: fit once, predict over any rows with the
// same feature layout.
type Fitted interface {
	Kind() Kind
	Predict(rows [][]float64) []float64
}

// Outcome is the model engine's full output for one instrument: the fitted
// handle, evaluation-split predictions, and the derived trading quantities.
type Outcome struct {
	Model     Fitted
	TrainRows int
	TestRows  int

	// Diagnostics carries in-sample fit quality and out-of-sample accuracy
	// keyed by metric name.
	Diagnostics map[string]float64

	// Predictions are the raw scores over the evaluation split, oldest first.
	Predictions []float64
	// Actuals are the matching target values.
	Actuals []float64

	OptimalThreshold float64
	PredictedReturn  float64
	// FinalValue ranks instruments: actual positives minus predicted
	// positives over the evaluation split. Closer to zero from above means
	// the model tracks reality without overcalling.
	FinalValue float64
	Signal     domain.Signal
}

// Fit learns model parameters from the scaled training rows and returns a
// reusable handle. The momentum rule carries no parameters and fits
// instantly.
func Fit(x [][]float64, y []float64, spec Spec) (Fitted, error) {
	switch spec.Kind {
	case KindMomentum:
		return momentumModel{}, nil
	case KindLinear:
		return fitLinear(x, y, spec)
	default:
		return fitMLP(x, y, spec), nil
	}
}

// Run executes the complete fit/evaluate cycle for one instrument's feature
// set: assemble the design matrix, fit on the leading split, score the
// trailing split, and derive threshold, signal, and ranking value.
func Run(set *features.Set, spec Spec) (*Outcome, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	ds, err := buildDataset(set, spec)
	if err != nil {
		return nil, err
	}

	trainN := ds.split(spec.TrainSplit)

	// The momentum rule reads raw feature values; the regressors work on
	// the min-max scaled matrix.
	matrix := ds.scaled
	if spec.Kind == KindMomentum {
		matrix = ds.raw
	}
	trainX, testX := matrix[:trainN], matrix[trainN:]
	trainY, testY := ds.target[:trainN], ds.target[trainN:]

	fitted, err := Fit(trainX, trainY, spec)
	if err != nil {
		return nil, err
	}

	trainPred := fitted.Predict(trainX)
	testPred := fitted.Predict(testX)

	threshold := OptimalThreshold(testY, testPred)

	var predictedReturn float64
	var predictedPositives int
	for _, p := range testPred {
		predictedReturn += p
		if p > threshold {
			predictedPositives++
		}
	}
	var actualPositives float64
	for _, a := range testY {
		if a >= 0.5 {
			actualPositives++
		}
	}

	signal := domain.SignalDown
	if testPred[len(testPred)-1] >= threshold {
		signal = domain.SignalUp
	}

	return &Outcome{
		Model:     fitted,
		TrainRows: trainN,
		TestRows:  len(testY),
		Diagnostics: map[string]float64{
			"train_r2":      rSquared(trainY, trainPred),
			"train_rmse":    rmse(trainY, trainPred),
			"test_accuracy": accuracy(testY, testPred, threshold),
		},
		Predictions:      testPred,
		Actuals:          testY,
		OptimalThreshold: threshold,
		PredictedReturn:  predictedReturn,
		FinalValue:       actualPositives - float64(predictedPositives),
		Signal:           signal,
	}, nil
}
