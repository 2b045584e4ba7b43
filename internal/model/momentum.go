package model

// momentumModel is a stateless directional rule: a row scores 1 when the
// mean of its raw feature values is positive, 0 otherwise. It needs no fit
// step; the spec's minimum-sample requirement still applies so its evaluation
// split stays meaningful.
type momentumModel struct{}

func (momentumModel) Kind() Kind { return KindMomentum }

func (momentumModel) Predict(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		var sum float64
		for _, v := range row {
			sum += v
		}
		if len(row) > 0 && sum/float64(len(row)) > 0 {
			out[i] = 1
		}
	}
	return out
}
