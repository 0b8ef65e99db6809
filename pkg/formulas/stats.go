// Package formulas provides pure numeric functions for return, risk and
// portfolio statistics. Functions hold no shared state; degenerate input
// is reported through the package's domain errors.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization base for daily series.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Returns converts prices to simple period-over-period percentage returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// AnnualizedVolatility calculates annualized volatility from daily returns.
// Formula: Std Dev of Daily Returns × sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// RollingVolatility calculates annualized volatility over a sliding window.
// The result has len(returns)-window+1 entries; an empty slice is returned
// when the series is shorter than the window.
func RollingVolatility(returns []float64, window int) []float64 {
	if window < 2 || len(returns) < window {
		return []float64{}
	}

	out := make([]float64, 0, len(returns)-window+1)
	for i := 0; i+window <= len(returns); i++ {
		out = append(out, AnnualizedVolatility(returns[i:i+window]))
	}
	return out
}

// Correlation calculates the Pearson correlation coefficient between two
// equal-length series.
func Correlation(x, y []float64) (float64, error) {
	if len(x) == 0 || len(y) == 0 {
		return 0, ErrEmptySeries
	}
	if len(x) != len(y) {
		return 0, ErrMismatchedLengths
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, ErrZeroVariance
	}
	return r, nil
}

// Beta calculates the covariance/variance ratio of an asset against the
// market return series.
func Beta(assetReturns, marketReturns []float64) (float64, error) {
	if len(assetReturns) == 0 || len(marketReturns) == 0 {
		return 0, ErrEmptySeries
	}
	if len(assetReturns) != len(marketReturns) {
		return 0, ErrMismatchedLengths
	}

	marketVar := stat.Variance(marketReturns, nil)
	if marketVar == 0 || math.IsNaN(marketVar) {
		return 0, ErrZeroVariance
	}

	return stat.Covariance(assetReturns, marketReturns, nil) / marketVar, nil
}

// CorrelationMatrix builds the pairwise correlation matrix for a set of
// return series. The diagonal is always exactly 1; pairs that cannot be
// correlated (zero variance, mismatched lengths) contribute 0.
func CorrelationMatrix(series [][]float64) [][]float64 {
	n := len(series)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r, err := Correlation(series[i], series[j])
			if err != nil {
				r = 0
			}
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}

	return matrix
}

// Momentum calculates the percentage price change over the trailing period.
func Momentum(prices []float64, days int) *float64 {
	if len(prices) < days+1 {
		return nil
	}

	startPrice := prices[len(prices)-days-1]
	if startPrice == 0 {
		return nil
	}

	m := (prices[len(prices)-1] - startPrice) / startPrice
	return &m
}
