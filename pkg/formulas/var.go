package formulas

import (
	"math"
	"sort"
)

// ValueAtRisk calculates historical VaR at the given tail probability.
//
// The return series is sorted ascending (worst first) and the value at
// index floor(tail × (n-1)) is taken, so the 95% VaR uses tail = 0.05 and
// the 99% VaR uses tail = 0.01. The result is the negated percentile:
// positive when the tail return is a loss. With this indexing the 95% VaR
// magnitude can never exceed the 99% VaR magnitude for the same series.
func ValueAtRisk(returns []float64, tail float64) (float64, error) {
	if len(returns) == 0 {
		return 0, ErrEmptySeries
	}
	if tail <= 0 || tail >= 1 {
		tail = 0.05
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(math.Floor(tail * float64(len(sorted)-1)))
	return -sorted[idx], nil
}

// ConditionalVaR calculates the expected loss given that the loss exceeds
// the VaR threshold: the negated average of the worst tail × n returns.
func ConditionalVaR(returns []float64, tail float64) (float64, error) {
	if len(returns) == 0 {
		return 0, ErrEmptySeries
	}
	if tail <= 0 || tail >= 1 {
		tail = 0.05
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	tailCount := int(math.Ceil(float64(len(sorted)) * tail))
	if tailCount == 0 {
		tailCount = 1
	}
	if tailCount > len(sorted) {
		tailCount = len(sorted)
	}

	sum := 0.0
	for _, r := range sorted[:tailCount] {
		sum += r
	}

	return -(sum / float64(tailCount)), nil
}
