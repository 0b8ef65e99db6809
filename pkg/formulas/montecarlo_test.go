package formulas

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonteCarloSimulateZeroVolatility(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	res, err := MonteCarloSimulate(100, 0.10, 0, 30, 200, rng)
	require.NoError(t, err)
	require.Len(t, res.Trials, 200)

	// No dispersion: every trial is deterministic daily compounding.
	expected := 100 * math.Pow(1+0.10/252, 30)
	for _, outcome := range res.Trials {
		assert.InDelta(t, expected, outcome, 1e-9)
	}
	assert.InDelta(t, expected, res.ExpectedValue, 1e-9)
	assert.InDelta(t, res.P5, res.P95, 1e-9)
	assert.Equal(t, 0.0, res.ProbabilityOfLoss)
}

func TestMonteCarloSimulateDistributionShape(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	res, err := MonteCarloSimulate(50, 0.08, 0.30, 60, 2000, rng)
	require.NoError(t, err)

	assert.LessOrEqual(t, res.P5, res.P25)
	assert.LessOrEqual(t, res.P25, res.P50)
	assert.LessOrEqual(t, res.P50, res.P75)
	assert.LessOrEqual(t, res.P75, res.P95)

	assert.Greater(t, res.ProbabilityOfLoss, 0.0)
	assert.Less(t, res.ProbabilityOfLoss, 1.0)

	for _, outcome := range res.Trials {
		assert.GreaterOrEqual(t, outcome, 0.0, "price floor")
	}
}

func TestMonteCarloSimulateSeedStability(t *testing.T) {
	a, err := MonteCarloSimulate(100, 0.05, 0.20, 20, 100, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	b, err := MonteCarloSimulate(100, 0.05, 0.20, 20, 100, rand.New(rand.NewSource(9)))
	require.NoError(t, err)

	assert.Equal(t, a.Trials, b.Trials, "same seed must reproduce the same walk")
}

func TestMonteCarloSimulateRejectsDegenerateInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := MonteCarloSimulate(0, 0.05, 0.2, 20, 100, rng)
	assert.ErrorIs(t, err, ErrEmptySeries)

	_, err = MonteCarloSimulate(100, 0.05, 0.2, 0, 100, rng)
	assert.ErrorIs(t, err, ErrEmptySeries)

	_, err = MonteCarloSimulate(100, 0.05, 0.2, 20, 0, rng)
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		expected float64
	}{
		{
			name:     "single peak and trough",
			prices:   []float64{100, 120, 90, 110},
			expected: 0.25, // 120 -> 90
		},
		{
			name:     "monotonic rise",
			prices:   []float64{10, 20, 30},
			expected: 0,
		},
		{
			name:     "full collapse",
			prices:   []float64{100, 50, 25},
			expected: 0.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dd, err := MaxDrawdown(tt.prices)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, dd, 1e-9)
		})
	}

	_, err := MaxDrawdown([]float64{100})
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestDiversificationScore(t *testing.T) {
	uncorrelated := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	score, err := DiversificationScore([]float64{0.4, 0.3, 0.3}, uncorrelated)
	require.NoError(t, err)
	assert.InDelta(t, 100, score, 1e-9)

	perfectlyCorrelated := [][]float64{
		{1, 1},
		{1, 1},
	}
	score, err = DiversificationScore([]float64{0.5, 0.5}, perfectlyCorrelated)
	require.NoError(t, err)
	assert.InDelta(t, 0, score, 1e-9)

	// Single holding has nothing to diversify against.
	score, err = DiversificationScore([]float64{1}, [][]float64{{1}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	_, err = DiversificationScore([]float64{0.5, 0.5}, [][]float64{{1}})
	assert.ErrorIs(t, err, ErrMismatchedLengths)
}

func TestHerfindahlIndex(t *testing.T) {
	assert.InDelta(t, 100, HerfindahlIndex(map[string]float64{"banking": 1}), 1e-9)
	assert.InDelta(t, 50, HerfindahlIndex(map[string]float64{"banking": 0.5, "telecom": 0.5}), 1e-9)
	assert.InDelta(t, 25, HerfindahlIndex(map[string]float64{
		"banking": 0.25, "telecom": 0.25, "energy": 0.25, "agri": 0.25,
	}), 1e-9)
}
