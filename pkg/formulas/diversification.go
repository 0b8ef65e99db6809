package formulas

import "math"

// DiversificationScore converts portfolio weights plus a pairwise
// correlation matrix into a [0,100] score: 100 means fully uncorrelated
// holdings, 0 means perfectly correlated (or a single holding).
//
// Score = (1 − weighted average |pairwise correlation|) × 100
// where each pair's weight is w_i × w_j.
func DiversificationScore(weights []float64, correlationMatrix [][]float64) (float64, error) {
	n := len(weights)
	if n == 0 || len(correlationMatrix) != n {
		return 0, ErrMismatchedLengths
	}
	if n == 1 {
		// A single holding has nothing to diversify against.
		return 0, nil
	}

	var weighted, totalWeight float64
	for i := 0; i < n; i++ {
		if len(correlationMatrix[i]) != n {
			return 0, ErrMismatchedLengths
		}
		for j := i + 1; j < n; j++ {
			pairWeight := weights[i] * weights[j]
			weighted += pairWeight * math.Abs(correlationMatrix[i][j])
			totalWeight += pairWeight
		}
	}
	if totalWeight == 0 {
		return 0, ErrZeroVariance
	}

	score := (1 - weighted/totalWeight) * 100
	return Clamp(score, 0, 100), nil
}

// HerfindahlIndex computes the sum of squared category weights scaled to
// [0,100]. A single category scores 100.
func HerfindahlIndex(categoryWeights map[string]float64) float64 {
	sum := 0.0
	for _, w := range categoryWeights {
		sum += w * w
	}
	return Clamp(sum*100, 0, 100)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
