package marketdata

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmuriuki/soko/internal/domain"
)

// stubSource is a scriptable acquisition tier.
type stubSource struct {
	mu     sync.Mutex
	name   string
	quotes []domain.Quote
	err    error
	calls  int

	summary *domain.TradingSummary
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(_ context.Context) ([]domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.quotes, s.err
}

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubSource) Summary() (domain.TradingSummary, bool) {
	if s.summary == nil {
		return domain.TradingSummary{}, false
	}
	return *s.summary, true
}

// fakeClock drives cache expiry without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func quote(symbol string, price, changePct float64) domain.Quote {
	prev := price / (1 + changePct/100)
	return domain.Quote{
		Timestamp:     time.Now(),
		Symbol:        symbol,
		Price:         price,
		PreviousClose: prev,
		Change:        price - prev,
		ChangePercent: changePct,
		Volume:        1000,
	}
}

func testConfig(clk *fakeClock) OrchestratorConfig {
	cfg := OrchestratorConfig{
		TierTimeout:    time.Second,
		MaxRetries:     0,
		RetryBaseDelay: time.Millisecond,
		QuoteTTL:       30 * time.Second,
	}
	if clk != nil {
		cfg.Clock = clk.Now
	}
	return cfg
}

func TestQuotesShortCircuitsOnFirstNonEmptyTier(t *testing.T) {
	first := &stubSource{name: "scrape", quotes: []domain.Quote{quote("SCOM", 14.85, 2.4)}}
	second := &stubSource{name: "provider", quotes: []domain.Quote{quote("EQTY", 45.5, 1.1)}}

	o := NewOrchestrator([]Source{first, second}, testConfig(nil), zerolog.Nop())

	quotes, err := o.Quotes(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "SCOM", quotes[0].Symbol)
	assert.Equal(t, 0, second.Calls(), "later tiers must not run after a success")
}

func TestQuotesFallsThroughFailuresAndEmptyResults(t *testing.T) {
	failing := &stubSource{name: "scrape", err: errors.New("connection refused")}
	empty := &stubSource{name: "provider"} // technically succeeds, zero rows
	backstop := &stubSource{name: "synthetic", quotes: []domain.Quote{quote("KCB", 36.9, -0.8)}}

	o := NewOrchestrator([]Source{failing, empty, backstop}, testConfig(nil), zerolog.Nop())

	quotes, err := o.Quotes(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, quotes, "backstop guarantees a non-empty snapshot")
	assert.Equal(t, "KCB", quotes[0].Symbol)
	assert.Equal(t, 1, failing.Calls())
	assert.Equal(t, 1, empty.Calls())
}

func TestQuotesRetriesTierBeforeFallingThrough(t *testing.T) {
	failing := &stubSource{name: "scrape", err: errors.New("timeout")}
	backstop := &stubSource{name: "synthetic", quotes: []domain.Quote{quote("KCB", 36.9, 0.5)}}

	cfg := testConfig(nil)
	cfg.MaxRetries = 2

	o := NewOrchestrator([]Source{failing, backstop}, cfg, zerolog.Nop())

	_, err := o.Quotes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, failing.Calls(), "initial attempt plus two retries")
}

func TestQuotesDedupesBySymbolFirstSeen(t *testing.T) {
	src := &stubSource{name: "scrape", quotes: []domain.Quote{
		quote("SCOM", 14.85, 2.4),
		quote("SCOM", 15.10, 3.0),
		quote("EQTY", 45.5, 1.1),
	}}

	o := NewOrchestrator([]Source{src}, testConfig(nil), zerolog.Nop())

	quotes, err := o.Quotes(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.InDelta(t, 14.85, quotes[0].Price, 1e-9, "first-seen quote wins")
}

func TestQuotesServedFromCacheWithinTTL(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	src := &stubSource{name: "scrape", quotes: []domain.Quote{quote("SCOM", 14.85, 2.4)}}

	o := NewOrchestrator([]Source{src}, testConfig(clk), zerolog.Nop())

	_, err := o.Quotes(context.Background())
	require.NoError(t, err)
	_, err = o.Quotes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.Calls(), "second call inside TTL must hit the cache")

	clk.Advance(31 * time.Second)
	_, err = o.Quotes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.Calls(), "expired cache must trigger a new acquisition")
}

func TestQuotesFailsWithoutSources(t *testing.T) {
	o := NewOrchestrator(nil, testConfig(nil), zerolog.Nop())

	_, err := o.Quotes(context.Background())
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestGainersAndLosersAreDisjointAndExcludeFlat(t *testing.T) {
	src := &stubSource{name: "scrape", quotes: []domain.Quote{
		quote("SCOM", 14.85, 2.4),
		quote("EQTY", 45.5, -1.1),
		quote("KCB", 36.9, 0),
		quote("EABL", 152, 5.2),
		quote("BAMB", 38.5, -3.3),
	}}

	o := NewOrchestrator([]Source{src}, testConfig(nil), zerolog.Nop())
	ctx := context.Background()

	gainers, err := o.Gainers(ctx)
	require.NoError(t, err)
	losers, err := o.Losers(ctx)
	require.NoError(t, err)

	gainerSet := map[string]bool{}
	for _, q := range gainers {
		assert.Greater(t, q.ChangePercent, 0.0)
		gainerSet[q.Symbol] = true
	}
	for _, q := range losers {
		assert.Less(t, q.ChangePercent, 0.0)
		assert.False(t, gainerSet[q.Symbol], "gainers and losers must be disjoint")
	}
	assert.NotContains(t, gainerSet, "KCB", "flat symbols belong to neither set")

	// Sorted best-first and worst-first respectively.
	assert.Equal(t, "EABL", gainers[0].Symbol)
	assert.Equal(t, "BAMB", losers[0].Symbol)
}

func TestSummaryPrefersScrapedRecord(t *testing.T) {
	src := &stubSource{
		name:   "scrape",
		quotes: []domain.Quote{quote("SCOM", 14.85, 2.4)},
		summary: &domain.TradingSummary{
			SharesTraded: 12_450_300,
			Deals:        1245,
			ValueTraded:  310.5e6,
			Gainers:      14,
			Losers:       9,
		},
	}

	o := NewOrchestrator([]Source{src}, testConfig(nil), zerolog.Nop())

	summary, err := o.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12_450_300), summary.SharesTraded)
	assert.Equal(t, 14, summary.Gainers)
}

func TestSummaryDerivedFromSnapshotWhenNotScraped(t *testing.T) {
	src := &stubSource{name: "synthetic", quotes: []domain.Quote{
		quote("SCOM", 14.85, 2.4),
		quote("EQTY", 45.5, -1.1),
		quote("KCB", 36.9, 0),
	}}

	o := NewOrchestrator([]Source{src}, testConfig(nil), zerolog.Nop())

	summary, err := o.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Gainers)
	assert.Equal(t, 1, summary.Losers)
	assert.Equal(t, int64(3000), summary.SharesTraded)
}

func TestIndexIsCapWeightedAverageMove(t *testing.T) {
	quotes := []domain.Quote{
		{Symbol: "SCOM", ChangePercent: 2, MarketCap: 300e9},
		{Symbol: "EQTY", ChangePercent: -1, MarketCap: 100e9},
	}

	reading := DeriveIndex(quotes)
	// (300*2 + 100*-1) / 400 = 1.25
	assert.InDelta(t, 1.25, reading.ChangePercent, 1e-9)
	assert.InDelta(t, 101.25, reading.Value, 1e-9)
	assert.Equal(t, "NASI", reading.Name)
}

func TestRefreshReplacesCachedSnapshot(t *testing.T) {
	src := &stubSource{name: "scrape", quotes: []domain.Quote{quote("SCOM", 14.85, 2.4)}}

	o := NewOrchestrator([]Source{src}, testConfig(nil), zerolog.Nop())
	ctx := context.Background()

	_, err := o.Quotes(ctx)
	require.NoError(t, err)

	src.mu.Lock()
	src.quotes = []domain.Quote{quote("SCOM", 15.20, 4.8)}
	src.mu.Unlock()

	require.NoError(t, o.Refresh(ctx))

	quotes, err := o.Quotes(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 15.20, quotes[0].Price, 1e-9)
	assert.Equal(t, 2, src.Calls(), "refresh bypasses the cache exactly once")
}
