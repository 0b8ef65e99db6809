package formulas

// MaxDrawdown calculates the largest peak-to-trough relative decline in a
// price series, tracked by running peak.
//
// Drawdown Formula:
//
//	Drawdown = (Peak Value - Current Value) / Peak Value
//	Max Drawdown = Maximum of all drawdowns
//
// The result is a positive fraction (0.25 = 25% loss from peak).
func MaxDrawdown(prices []float64) (float64, error) {
	if len(prices) < 2 {
		return 0, ErrEmptySeries
	}

	maxDrawdown := 0.0
	peak := prices[0]

	for _, price := range prices {
		if price > peak {
			peak = price
		}
		if peak > 0 {
			drawdown := (peak - price) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown, nil
}
