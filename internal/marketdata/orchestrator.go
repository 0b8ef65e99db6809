package marketdata

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmuriuki/soko/internal/cache"
	"github.com/dmuriuki/soko/internal/domain"
)

// Cache keys for the orchestrator's logical queries.
const (
	keyAllQuotes = "quotes:all"
	keyGainers   = "quotes:gainers"
	keyLosers    = "quotes:losers"
	keySummary   = "quotes:summary"
	keyIndex     = "quotes:index"
)

// maxBackoff caps the exponential retry delay within a tier.
const maxBackoff = 5 * time.Second

// OrchestratorConfig carries the tunables of the acquisition chain.
type OrchestratorConfig struct {
	TierTimeout    time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	QuoteTTL       time.Duration
	Clock          cache.Clock // nil means time.Now
}

// Orchestrator runs the fallback chain over its sources in priority
// order: skip a tier on failure or empty result, stop on the first tier
// that yields quotes. With the synthetic tier last the chain cannot come
// back empty.
type Orchestrator struct {
	sources      []Source
	quotesCache  *cache.Cache[[]domain.Quote]
	summaryCache *cache.Cache[domain.TradingSummary]
	indexCache   *cache.Cache[domain.IndexReading]
	cfg          OrchestratorConfig
	log          zerolog.Logger
}

// NewOrchestrator creates the acquisition orchestrator. Sources are tried
// in the order given; callers are expected to place the synthetic
// generator last.
func NewOrchestrator(sources []Source, cfg OrchestratorConfig, log zerolog.Logger) *Orchestrator {
	if cfg.TierTimeout <= 0 {
		cfg.TierTimeout = 10 * time.Second
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}
	if cfg.QuoteTTL <= 0 {
		cfg.QuoteTTL = 30 * time.Second
	}

	return &Orchestrator{
		sources:      sources,
		quotesCache:  cache.New[[]domain.Quote](cfg.QuoteTTL, cfg.Clock),
		summaryCache: cache.New[domain.TradingSummary](cfg.QuoteTTL, cfg.Clock),
		indexCache:   cache.New[domain.IndexReading](cfg.QuoteTTL, cfg.Clock),
		cfg:          cfg,
		log:          log.With().Str("component", "acquisition").Logger(),
	}
}

// Quotes returns the current market snapshot, serving from cache inside
// the TTL window and running the fallback chain otherwise.
func (o *Orchestrator) Quotes(ctx context.Context) ([]domain.Quote, error) {
	if cached, ok := o.quotesCache.Get(keyAllQuotes); ok {
		return cached, nil
	}

	quotes, err := o.acquire(ctx)
	if err != nil {
		return nil, err
	}

	o.quotesCache.Set(keyAllQuotes, quotes)
	return quotes, nil
}

// Refresh forces a new acquisition cycle, replacing whatever the cache
// holds. Used by the background refresher.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	quotes, err := o.acquire(ctx)
	if err != nil {
		return err
	}
	o.quotesCache.Set(keyAllQuotes, quotes)
	o.quotesCache.Delete(keyGainers)
	o.quotesCache.Delete(keyLosers)
	o.summaryCache.Delete(keySummary)
	o.indexCache.Delete(keyIndex)
	return nil
}

// InvalidateAll drops every cached view. Exposed for tests and for the
// manual refresh endpoint.
func (o *Orchestrator) InvalidateAll() {
	o.quotesCache.Clear()
	o.summaryCache.Clear()
	o.indexCache.Clear()
}

// Gainers returns the snapshot's positive movers sorted by change percent
// descending. Symbols with a zero move belong to neither gainers nor
// losers.
func (o *Orchestrator) Gainers(ctx context.Context) ([]domain.Quote, error) {
	return o.movers(ctx, keyGainers, func(q domain.Quote) bool { return q.ChangePercent > 0 }, true)
}

// Losers returns the snapshot's negative movers sorted by change percent
// ascending (worst first).
func (o *Orchestrator) Losers(ctx context.Context) ([]domain.Quote, error) {
	return o.movers(ctx, keyLosers, func(q domain.Quote) bool { return q.ChangePercent < 0 }, false)
}

func (o *Orchestrator) movers(ctx context.Context, key string, keep func(domain.Quote) bool, desc bool) ([]domain.Quote, error) {
	if cached, ok := o.quotesCache.Get(key); ok {
		return cached, nil
	}

	quotes, err := o.Quotes(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Quote, 0, len(quotes))
	for _, q := range quotes {
		if keep(q) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].ChangePercent > out[j].ChangePercent
		}
		return out[i].ChangePercent < out[j].ChangePercent
	})

	o.quotesCache.Set(key, out)
	return out, nil
}

// Summary returns the session trading summary: the scrape tier's parsed
// record when available, otherwise an aggregate derived from the current
// snapshot.
func (o *Orchestrator) Summary(ctx context.Context) (domain.TradingSummary, error) {
	if cached, ok := o.summaryCache.Get(keySummary); ok {
		return cached, nil
	}

	quotes, err := o.Quotes(ctx)
	if err != nil {
		return domain.TradingSummary{}, err
	}

	summary, found := o.scrapedSummary()
	if !found {
		summary = deriveSummary(quotes)
	}
	if summary.Gainers == 0 && summary.Losers == 0 {
		derived := deriveSummary(quotes)
		summary.Gainers = derived.Gainers
		summary.Losers = derived.Losers
	}

	o.summaryCache.Set(keySummary, summary)
	return summary, nil
}

// Index returns a market index reading derived from the snapshot: the
// cap-weighted average move of the tracked securities.
func (o *Orchestrator) Index(ctx context.Context) (domain.IndexReading, error) {
	if cached, ok := o.indexCache.Get(keyIndex); ok {
		return cached, nil
	}

	quotes, err := o.Quotes(ctx)
	if err != nil {
		return domain.IndexReading{}, err
	}

	reading := DeriveIndex(quotes)
	o.indexCache.Set(keyIndex, reading)
	return reading, nil
}

// acquire runs the fallback chain once.
func (o *Orchestrator) acquire(ctx context.Context) ([]domain.Quote, error) {
	if len(o.sources) == 0 {
		return nil, ErrNoSources
	}

	for _, src := range o.sources {
		quotes, err := o.fetchTier(ctx, src)
		if err != nil {
			o.log.Warn().
				Err(err).
				Str("tier", src.Name()).
				Msg("Tier failed, falling through")
			continue
		}

		o.log.Info().
			Str("tier", src.Name()).
			Int("quotes", len(quotes)).
			Msg("Acquisition cycle complete")
		return dedupeBySymbol(quotes), nil
	}

	// Unreachable when the synthetic tier is configured last.
	return nil, ErrEmptyResult
}

// fetchTier runs one tier with a per-call timeout and capped exponential
// backoff between attempts.
func (o *Orchestrator) fetchTier(parent context.Context, src Source) ([]domain.Quote, error) {
	var lastErr error

	for attempt := 0; attempt <= o.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(parent, backoffDelay(o.cfg.RetryBaseDelay, attempt)); err != nil {
				return nil, err
			}
		}

		ctx, cancel := context.WithTimeout(parent, o.cfg.TierTimeout)
		quotes, err := src.Fetch(ctx)
		cancel()

		if err == nil && len(quotes) == 0 {
			err = ErrEmptyResult
		}
		if err == nil {
			return quotes, nil
		}

		lastErr = err
		o.log.Debug().
			Err(err).
			Str("tier", src.Name()).
			Int("attempt", attempt+1).
			Msg("Tier attempt failed")
	}

	return nil, lastErr
}

func (o *Orchestrator) scrapedSummary() (domain.TradingSummary, bool) {
	for _, src := range o.sources {
		if sp, ok := src.(SummaryProvider); ok {
			if summary, have := sp.Summary(); have {
				return summary, true
			}
		}
	}
	return domain.TradingSummary{}, false
}

// backoffDelay grows the base delay exponentially per attempt, capped at
// maxBackoff.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	delay := base << uint(attempt-1)
	if delay > maxBackoff || delay <= 0 {
		return maxBackoff
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// dedupeBySymbol keeps the first quote seen for each symbol, preserving
// order.
func dedupeBySymbol(quotes []domain.Quote) []domain.Quote {
	seen := make(map[string]struct{}, len(quotes))
	out := make([]domain.Quote, 0, len(quotes))
	for _, q := range quotes {
		if _, dup := seen[q.Symbol]; dup {
			continue
		}
		seen[q.Symbol] = struct{}{}
		out = append(out, q)
	}
	return out
}

// deriveSummary aggregates a trading summary from the snapshot itself,
// used when the scrape tier did not supply one.
func deriveSummary(quotes []domain.Quote) domain.TradingSummary {
	var s domain.TradingSummary
	for _, q := range quotes {
		s.SharesTraded += q.Volume
		s.ValueTraded += float64(q.Volume) * q.Price
		switch {
		case q.ChangePercent > 0:
			s.Gainers++
		case q.ChangePercent < 0:
			s.Losers++
		}
		if q.Timestamp.After(s.Timestamp) {
			s.Timestamp = q.Timestamp
		}
	}
	return s
}

// DeriveIndex computes a cap-weighted index move from the snapshot. The
// index level is expressed against a base of 100.
func DeriveIndex(quotes []domain.Quote) domain.IndexReading {
	var weighted, totalWeight float64
	var latest time.Time
	for _, q := range quotes {
		weight := q.MarketCap
		if weight <= 0 {
			weight = 1
		}
		weighted += weight * q.ChangePercent
		totalWeight += weight
		if q.Timestamp.After(latest) {
			latest = q.Timestamp
		}
	}

	change := 0.0
	if totalWeight > 0 {
		change = weighted / totalWeight
	}

	return domain.IndexReading{
		Timestamp:     latest,
		Name:          "NASI",
		Value:         100 * (1 + change/100),
		ChangePercent: change,
	}
}
