// Package analysis is the single entry point the rest of the
// application calls for risk and recommendation output. It coordinates
// the two engines behind a short-TTL result cache and guarantees a
// usable payload on every call, whatever fails underneath.
package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmuriuki/soko/internal/cache"
	"github.com/dmuriuki/soko/internal/domain"
	"github.com/dmuriuki/soko/internal/marketdata"
	"github.com/dmuriuki/soko/internal/modules/recommend"
	"github.com/dmuriuki/soko/internal/modules/risk"
)

var errNoSnapshot = errors.New("analysis: no snapshot supplied")

// QuoteService is the slice of the acquisition layer the facade needs.
type QuoteService interface {
	Quotes(ctx context.Context) ([]domain.Quote, error)
	Index(ctx context.Context) (domain.IndexReading, error)
}

// Config carries the facade's tunables.
type Config struct {
	RiskFreeRate   float64
	DriftThreshold float64
	ResultTTL      time.Duration
	Clock          cache.Clock
}

// Facade fronts the risk and recommendation engines.
type Facade struct {
	market       QuoteService
	riskEngine   *risk.Engine
	advisor      *recommend.Engine
	riskFreeRate float64
	log          zerolog.Logger
	now          func() time.Time
	startedAt    time.Time

	riskCache   *cache.Cache[domain.RiskAnalysis]
	adviceCache *cache.Cache[domain.Advice]
}

// New wires the facade over the acquisition layer.
func New(market QuoteService, cfg Config, log zerolog.Logger) *Facade {
	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}
	return &Facade{
		market:       market,
		riskEngine:   risk.NewEngine(market, cfg.RiskFreeRate, log),
		advisor:      recommend.NewEngine(cfg.DriftThreshold, log),
		riskFreeRate: cfg.RiskFreeRate,
		log:          log.With().Str("service", "analysis-facade").Logger(),
		now:          now,
		startedAt:    now(),
		riskCache:    cache.New[domain.RiskAnalysis](cfg.ResultTTL, cfg.Clock),
		adviceCache:  cache.New[domain.Advice](cfg.ResultTTL, cfg.Clock),
	}
}

// AnalyzeRisk returns the risk bundle for a portfolio. Callers may pin
// the computation to a snapshot they already hold by passing quotes;
// a pinned call skips the cache read but refreshes the cached entry.
func (f *Facade) AnalyzeRisk(ctx context.Context, portfolio domain.Portfolio, quotes []domain.Quote) domain.RiskAnalysis {
	key := portfolio.UserID + "/" + portfolio.ID

	if quotes == nil {
		if cached, ok := f.riskCache.Get(key); ok {
			return cached
		}
	}

	engine := f.riskEngine
	if quotes != nil {
		engine = risk.NewEngine(pinnedSnapshot{quotes}, f.riskFreeRate, f.log)
	}

	analysis := engine.Analyze(ctx, portfolio)
	f.riskCache.Set(key, analysis)
	return analysis
}

// Recommend returns the advice bundle for one user and portfolio.
func (f *Facade) Recommend(ctx context.Context, userID string, profile domain.RiskProfile, portfolio domain.Portfolio, quotes []domain.Quote) domain.Advice {
	key := userID + "/" + portfolio.ID + "/" + string(profile)

	if quotes == nil {
		if cached, ok := f.adviceCache.Get(key); ok {
			return cached
		}

		fetched, err := f.market.Quotes(ctx)
		if err != nil {
			f.log.Warn().Err(err).Msg("Snapshot unavailable for recommendations")
		} else {
			quotes = fetched
		}
	}

	advice := f.advisor.Advise(profile, portfolio, quotes)
	f.adviceCache.Set(key, advice)
	return advice
}

// Alerts returns just the alert slice of the risk bundle.
func (f *Facade) Alerts(ctx context.Context, portfolio domain.Portfolio) []domain.Alert {
	return f.AnalyzeRisk(ctx, portfolio, nil).Alerts
}

// InvalidateUser drops any cached results for one user, for use when
// their holdings change out of band.
func (f *Facade) InvalidateUser(userID string, portfolioID string) {
	f.riskCache.Delete(userID + "/" + portfolioID)
	for _, profile := range []domain.RiskProfile{domain.ProfileConservative, domain.ProfileModerate, domain.ProfileAggressive} {
		f.adviceCache.Delete(userID + "/" + portfolioID + "/" + string(profile))
	}
}

// pinnedSnapshot serves a caller-supplied quote list as the risk
// engine's market view, with the index derived from it.
type pinnedSnapshot struct {
	quotes []domain.Quote
}

func (p pinnedSnapshot) Quotes(context.Context) ([]domain.Quote, error) {
	if len(p.quotes) == 0 {
		return nil, errNoSnapshot
	}
	return p.quotes, nil
}

func (p pinnedSnapshot) Index(context.Context) (domain.IndexReading, error) {
	return marketdata.DeriveIndex(p.quotes), nil
}
