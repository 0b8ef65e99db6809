package formulas

import "math"

// SharpeRatio calculates the annualized Sharpe ratio from daily returns.
//
// Sharpe Ratio Formula:
//
//	Sharpe = (Annualized Mean Return - Risk-free Rate) / Annualized Volatility
//
// Args:
//
//	returns: Daily returns as decimals (e.g., 0.01 = 1%)
//	riskFreeRate: Annual risk-free rate as decimal (e.g., 0.08 for 8%)
//
// Returns:
//
//	Annualized Sharpe ratio, or an error when the series is too short or
//	has no dispersion.
func SharpeRatio(returns []float64, riskFreeRate float64) (float64, error) {
	if len(returns) < 2 {
		return 0, ErrEmptySeries
	}

	vol := AnnualizedVolatility(returns)
	if vol == 0 {
		return 0, ErrZeroVariance
	}

	annualizedMean := Mean(returns) * TradingDaysPerYear
	return (annualizedMean - riskFreeRate) / vol, nil
}

// SortinoRatio calculates the downside-deviation variant of the Sharpe
// ratio. Only returns below the periodic risk-free rate count toward the
// deviation.
func SortinoRatio(returns []float64, riskFreeRate float64) (float64, error) {
	if len(returns) < 2 {
		return 0, ErrEmptySeries
	}

	periodicRiskFree := riskFreeRate / TradingDaysPerYear

	var downsideSquaredSum float64
	downsideCount := 0
	for _, r := range returns {
		if r < periodicRiskFree {
			d := r - periodicRiskFree
			downsideSquaredSum += d * d
			downsideCount++
		}
	}
	if downsideCount == 0 {
		return 0, ErrZeroVariance
	}

	downsideDeviation := math.Sqrt(downsideSquaredSum/float64(downsideCount)) * math.Sqrt(TradingDaysPerYear)
	if downsideDeviation == 0 {
		return 0, ErrZeroVariance
	}

	annualizedMean := Mean(returns) * TradingDaysPerYear
	return (annualizedMean - riskFreeRate) / downsideDeviation, nil
}
