// Package recommend turns a quote snapshot plus a user's holdings and
// declared risk appetite into ranked trade ideas, rebalancing
// suggestions, and categorized market opportunities.
package recommend

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dmuriuki/soko/internal/domain"
)

const (
	// maxCandidates bounds scoring to the most liquid slice of the
	// snapshot; the NSE tail is too thin to recommend.
	maxCandidates = 20

	maxRecommendations = 10
	maxOpportunities   = 15

	// confidenceFloor is the acceptance gate on the averaged factor
	// score.
	confidenceFloor = 0.6

	// baseExpectedReturn anchors expected return before the day-move
	// adjustment.
	baseExpectedReturn = 0.08

	stopLossFraction = 0.92

	// historyCap bounds the per-symbol close history kept for the
	// technical factor.
	historyCap = 120
)

// Engine scores candidates and assembles the advice bundle. It keeps a
// rolling close history per symbol across calls so indicator-based
// factors improve as snapshots accumulate.
type Engine struct {
	driftThreshold float64
	log            zerolog.Logger
	now            func() time.Time

	mu      sync.Mutex
	history map[string][]float64
}

// NewEngine builds an engine. driftThreshold is the rebalance trigger in
// percentage points.
func NewEngine(driftThreshold float64, log zerolog.Logger) *Engine {
	return &Engine{
		driftThreshold: driftThreshold,
		log:            log.With().Str("service", "recommend-engine").Logger(),
		now:            time.Now,
		history:        make(map[string][]float64),
	}
}

// Advise produces the full advice bundle. It never returns an error;
// internal failures degrade to an empty, flagged bundle.
func (e *Engine) Advise(profile domain.RiskProfile, portfolio domain.Portfolio, quotes []domain.Quote) (advice domain.Advice) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("Advice generation panicked, serving empty bundle")
			advice = domain.Advice{Degraded: true}
		}
	}()

	e.recordHistory(quotes)

	return domain.Advice{
		Recommendations: e.recommendations(profile, portfolio, quotes),
		Rebalancing:     e.rebalance(profile, portfolio, quotes),
		Opportunities:   e.opportunities(quotes),
		Degraded:        len(quotes) == 0,
	}
}

// recommendations scores the most liquid candidates through the three
// factor lenses, gates by confidence and profile fit, and ranks the
// survivors.
func (e *Engine) recommendations(profile domain.RiskProfile, portfolio domain.Portfolio, quotes []domain.Quote) []domain.Recommendation {
	candidates := topLiquid(quotes, maxCandidates)
	held := heldSymbols(portfolio)

	recs := make([]domain.Recommendation, 0, len(candidates))
	for _, q := range candidates {
		if q.Price <= 0 {
			continue
		}

		technical, techNotes := e.technicalScore(q)
		fundamental, fundNotes := fundamentalScore(q)
		sentiment, sentNotes := sentimentScore(q)
		confidence := (technical + fundamental + sentiment) / 3

		bucket := riskBucket(q.ChangePercent)
		if confidence <= confidenceFloor || !profile.Allows(bucket) {
			continue
		}

		expectedReturn := baseExpectedReturn + 0.5*(q.ChangePercent/100)

		recs = append(recs, domain.Recommendation{
			Timestamp:      e.now(),
			ID:             uuid.NewString(),
			Symbol:         q.Symbol,
			Action:         pickAction(q, held),
			RiskLevel:      bucket,
			TimeHorizon:    horizonFor(bucket),
			Confidence:     confidence,
			ExpectedReturn: expectedReturn,
			Price:          q.Price,
			TargetPrice:    q.Price * (1 + expectedReturn),
			StopLoss:       q.Price * stopLossFraction,
			Reasoning: domain.Reasoning{
				Technical:   techNotes,
				Fundamental: fundNotes,
				Sentiment:   sentNotes,
				Risk:        []string{riskNote(bucket, q.ChangePercent)},
			},
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		ri := recs[i].Confidence * recs[i].ExpectedReturn
		rj := recs[j].Confidence * recs[j].ExpectedReturn
		if ri != rj {
			return ri > rj
		}
		return recs[i].Symbol < recs[j].Symbol
	})

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

// recordHistory appends each symbol's latest close to its rolling
// series.
func (e *Engine) recordHistory(quotes []domain.Quote) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, q := range quotes {
		if q.Price <= 0 {
			continue
		}
		series := append(e.history[q.Symbol], q.Price)
		if len(series) > historyCap {
			series = series[len(series)-historyCap:]
		}
		e.history[q.Symbol] = series
	}
}

func (e *Engine) closes(symbol string) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	series := e.history[symbol]
	out := make([]float64, len(series))
	copy(out, series)
	return out
}

// topLiquid returns up to n quotes ordered by traded volume descending.
func topLiquid(quotes []domain.Quote, n int) []domain.Quote {
	sorted := make([]domain.Quote, len(quotes))
	copy(sorted, quotes)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Volume != sorted[j].Volume {
			return sorted[i].Volume > sorted[j].Volume
		}
		return sorted[i].Symbol < sorted[j].Symbol
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func heldSymbols(portfolio domain.Portfolio) map[string]bool {
	held := make(map[string]bool, len(portfolio.Holdings))
	for _, h := range portfolio.Holdings {
		held[h.Symbol] = true
	}
	return held
}

// riskBucket grades a security from its day-move magnitude.
func riskBucket(changePercent float64) domain.RiskLevel {
	move := changePercent
	if move < 0 {
		move = -move
	}
	switch {
	case move <= 1:
		return domain.RiskLow
	case move <= 3:
		return domain.RiskMedium
	default:
		return domain.RiskHigh
	}
}

func pickAction(q domain.Quote, held map[string]bool) domain.Action {
	switch {
	case q.ChangePercent >= 0:
		return domain.ActionBuy
	case held[q.Symbol]:
		return domain.ActionSell
	default:
		return domain.ActionHold
	}
}

func horizonFor(bucket domain.RiskLevel) string {
	switch bucket {
	case domain.RiskLow:
		return "6-12 months"
	case domain.RiskMedium:
		return "3-6 months"
	default:
		return "1-3 months"
	}
}

func riskNote(bucket domain.RiskLevel, changePercent float64) string {
	switch bucket {
	case domain.RiskLow:
		return "Day move within 1%, low volatility bucket"
	case domain.RiskMedium:
		return "Day move within 3%, medium volatility bucket"
	default:
		if changePercent >= 0 {
			return "Sharp upward move, high volatility bucket"
		}
		return "Sharp downward move, high volatility bucket"
	}
}
