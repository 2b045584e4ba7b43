package model

import (
	"math"
	"sort"
)

// OptimalThreshold picks the score cutoff whose ROC point comes closest to
// the diagonal balance TPR = 1 - FPR, evaluated over the unique predicted
// scores. Labels are binarized at 0.5. Degenerate label sets (all one class)
// fall back to 0.5.
func OptimalThreshold(actual, predicted []float64) float64 {
	var positives, negatives int
	for _, a := range actual {
		if a >= 0.5 {
			positives++
		} else {
			negatives++
		}
	}
	if positives == 0 || negatives == 0 || len(predicted) == 0 {
		return 0.5
	}

	candidates := uniqueSortedDesc(predicted)

	best := candidates[0]
	bestGap := math.Inf(1)
	for _, thr := range candidates {
		var tp, fp int
		for i, p := range predicted {
			if p < thr {
				continue
			}
			if actual[i] >= 0.5 {
				tp++
			} else {
				fp++
			}
		}
		tpr := float64(tp) / float64(positives)
		fpr := float64(fp) / float64(negatives)
		gap := math.Abs(tpr - (1 - fpr))
		if gap < bestGap {
			bestGap = gap
			best = thr
		}
	}
	return best
}

func uniqueSortedDesc(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))

	dedup := out[:0]
	for i, v := range out {
		if i == 0 || v != dedup[len(dedup)-1] {
			dedup = append(dedup, v)
		}
	}
	return dedup
}

// rSquared is the coefficient of determination; 0 when the actuals have no
// variance.
func rSquared(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var mean float64
	for _, a := range actual {
		mean += a
	}
	mean /= float64(len(actual))

	var ssRes, ssTot float64
	for i, a := range actual {
		d := a - predicted[i]
		ssRes += d * d
		t := a - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func rmse(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var sq float64
	for i, a := range actual {
		d := a - predicted[i]
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(actual)))
}

// accuracy is the fraction of rows where the thresholded prediction matches
// the binarized actual.
func accuracy(actual, predicted []float64, threshold float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var hits int
	for i, a := range actual {
		predPositive := predicted[i] >= threshold
		actPositive := a >= 0.5
		if predPositive == actPositive {
			hits++
		}
	}
	return float64(hits) / float64(len(actual))
}
