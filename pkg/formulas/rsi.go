package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// RSI returns the current Relative Strength Index over the given period,
// or nil when the series is too short to produce one.
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = average gain / average loss over N periods
func RSI(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length+1 {
		return nil
	}

	rsi := talib.Rsi(closes, length)
	if len(rsi) == 0 {
		return nil
	}

	last := rsi[len(rsi)-1]
	if math.IsNaN(last) {
		return nil
	}
	return &last
}
