package recommend

import (
	"fmt"

	"github.com/dmuriuki/soko/internal/domain"
	"github.com/dmuriuki/soko/internal/marketdata"
	"github.com/dmuriuki/soko/pkg/formulas"
)

const (
	// volumeBonusFloor is the traded volume above which the technical
	// factor earns its liquidity bonus.
	volumeBonusFloor = 500_000

	rsiPeriod      = 14
	momentumPeriod = 5

	largeCapFloor = 100e9
	midCapFloor   = 10e9
)

// technicalScore blends the day move, a volume bonus, and — once enough
// closes have accumulated — momentum and RSI readings into [0,1].
func (e *Engine) technicalScore(q domain.Quote) (float64, []string) {
	score := formulas.Clamp(0.5+q.ChangePercent/10, 0, 1)
	notes := []string{fmt.Sprintf("Day move %+.2f%%", q.ChangePercent)}

	if q.Volume >= volumeBonusFloor {
		score += 0.1
		notes = append(notes, fmt.Sprintf("Strong liquidity at %d shares traded", q.Volume))
	}

	closes := e.closes(q.Symbol)

	if m := formulas.Momentum(closes, momentumPeriod); m != nil {
		switch {
		case *m > 0.02:
			score += 0.1
			notes = append(notes, fmt.Sprintf("Positive %d-period momentum %+.1f%%", momentumPeriod, *m*100))
		case *m < -0.02:
			score -= 0.1
			notes = append(notes, fmt.Sprintf("Negative %d-period momentum %+.1f%%", momentumPeriod, *m*100))
		}
	}

	if rsi := formulas.RSI(closes, rsiPeriod); rsi != nil {
		switch {
		case *rsi < 30:
			score += 0.15
			notes = append(notes, fmt.Sprintf("RSI %.0f signals oversold", *rsi))
		case *rsi > 70:
			score -= 0.15
			notes = append(notes, fmt.Sprintf("RSI %.0f signals overbought", *rsi))
		}
	}

	return formulas.Clamp(score, 0, 1), notes
}

// fundamentalScore grades by market-cap tier with a bonus for the
// exchange's established leaders.
func fundamentalScore(q domain.Quote) (float64, []string) {
	var score float64
	var notes []string

	switch {
	case q.MarketCap >= largeCapFloor:
		score = 0.8
		notes = append(notes, "Large cap, deep institutional coverage")
	case q.MarketCap >= midCapFloor:
		score = 0.6
		notes = append(notes, "Mid cap")
	case q.MarketCap > 0:
		score = 0.4
		notes = append(notes, "Small cap, limited coverage")
	default:
		score = 0.5
		notes = append(notes, "Market cap unavailable")
	}

	if entry, ok := marketdata.LookupCatalog(q.Symbol); ok && entry.Leader {
		score += 0.15
		notes = append(notes, fmt.Sprintf("%s is a sector leader", q.Symbol))
	}

	return formulas.Clamp(score, 0, 1), notes
}

// sentimentScore reads the day move as a crowd-mood proxy; the NSE has
// no usable news-flow feed.
func sentimentScore(q domain.Quote) (float64, []string) {
	score := formulas.Clamp(0.5+q.ChangePercent/8, 0, 1)

	var note string
	switch {
	case q.ChangePercent >= 2:
		note = "Strong buying interest today"
	case q.ChangePercent > 0:
		note = "Mildly positive session"
	case q.ChangePercent == 0:
		note = "Flat session, neutral sentiment"
	case q.ChangePercent > -2:
		note = "Mild selling pressure"
	default:
		note = "Heavy selling pressure today"
	}

	return score, []string{note}
}
