package analysis

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

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingMarket struct {
	mu     sync.Mutex
	calls  int
	quotes []domain.Quote
	err    error
}

func (m *countingMarket) Quotes(_ context.Context) ([]domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.quotes, nil
}

func (m *countingMarket) Index(_ context.Context) (domain.IndexReading, error) {
	if m.err != nil {
		return domain.IndexReading{}, m.err
	}
	return domain.IndexReading{Name: "NASI", Value: 101, ChangePercent: 1.0}, nil
}

func (m *countingMarket) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testQuotes() []domain.Quote {
	return []domain.Quote{
		{Symbol: "SCOM", Sector: "Telecommunication", Price: 14.85, PreviousClose: 14.5, Change: 0.35, ChangePercent: 2.41, Volume: 1_200_000, MarketCap: 595e9},
		{Symbol: "EQTY", Sector: "Banking", Price: 45.5, PreviousClose: 45.0, Change: 0.5, ChangePercent: 1.11, Volume: 800_000, MarketCap: 171e9},
	}
}

func testPortfolio() domain.Portfolio {
	return domain.Portfolio{
		ID:     "p1",
		UserID: "u1",
		Holdings: []domain.Holding{
			{Symbol: "SCOM", Sector: "Telecommunication", Shares: 500, AvgPrice: 12, CurrentValue: 7425},
			{Symbol: "EQTY", Sector: "Banking", Shares: 100, AvgPrice: 40, CurrentValue: 4550},
		},
	}
}

func newTestFacade(market QuoteService, clock *fakeClock) *Facade {
	return New(market, Config{
		RiskFreeRate:   0.08,
		DriftThreshold: 10.0,
		ResultTTL:      5 * time.Minute,
		Clock:          clock.Now,
	}, zerolog.Nop())
}

func TestAnalyzeRiskCachesPerPortfolio(t *testing.T) {
	market := &countingMarket{quotes: testQuotes()}
	facade := newTestFacade(market, newFakeClock())

	first := facade.AnalyzeRisk(context.Background(), testPortfolio(), nil)
	after := market.callCount()
	second := facade.AnalyzeRisk(context.Background(), testPortfolio(), nil)

	assert.Equal(t, after, market.callCount(), "second call must be served from cache")
	assert.Equal(t, first, second)
}

func TestAnalyzeRiskRecomputesAfterTTL(t *testing.T) {
	clock := newFakeClock()
	market := &countingMarket{quotes: testQuotes()}
	facade := newTestFacade(market, clock)

	facade.AnalyzeRisk(context.Background(), testPortfolio(), nil)
	after := market.callCount()

	clock.Advance(5*time.Minute + time.Second)
	facade.AnalyzeRisk(context.Background(), testPortfolio(), nil)

	assert.Greater(t, market.callCount(), after, "an expired entry must trigger recomputation")
}

func TestAnalyzeRiskPinnedSnapshotSkipsCacheRead(t *testing.T) {
	market := &countingMarket{quotes: testQuotes()}
	facade := newTestFacade(market, newFakeClock())

	// Prime the cache from the live market.
	facade.AnalyzeRisk(context.Background(), testPortfolio(), nil)
	after := market.callCount()

	pinned := facade.AnalyzeRisk(context.Background(), testPortfolio(), testQuotes())

	assert.Equal(t, after, market.callCount(), "a pinned snapshot must not touch the market")
	assert.False(t, pinned.Degraded)
	assert.NotEmpty(t, pinned.Insights)
}

func TestAnalyzeRiskNeverErrors(t *testing.T) {
	market := &countingMarket{err: errors.New("every tier down")}
	facade := newTestFacade(market, newFakeClock())

	analysis := facade.AnalyzeRisk(context.Background(), testPortfolio(), nil)

	assert.True(t, analysis.Degraded)
	assert.NotEmpty(t, analysis.Insights)
	assert.GreaterOrEqual(t, analysis.Metrics.OverallRiskScore, 0.0)
	assert.LessOrEqual(t, analysis.Metrics.OverallRiskScore, 100.0)
}

func TestRecommendFetchesWhenNoSnapshotSupplied(t *testing.T) {
	market := &countingMarket{quotes: testQuotes()}
	facade := newTestFacade(market, newFakeClock())

	advice := facade.Recommend(context.Background(), "u1", domain.ProfileModerate, testPortfolio(), nil)

	assert.GreaterOrEqual(t, market.callCount(), 1)
	assert.False(t, advice.Degraded)
}

func TestRecommendCachesPerUserProfile(t *testing.T) {
	market := &countingMarket{quotes: testQuotes()}
	facade := newTestFacade(market, newFakeClock())

	facade.Recommend(context.Background(), "u1", domain.ProfileModerate, testPortfolio(), nil)
	after := market.callCount()

	facade.Recommend(context.Background(), "u1", domain.ProfileModerate, testPortfolio(), nil)
	assert.Equal(t, after, market.callCount(), "repeat call within TTL is served from cache")

	// A different profile is a different key.
	facade.Recommend(context.Background(), "u1", domain.ProfileAggressive, testPortfolio(), nil)
	assert.Greater(t, market.callCount(), after)
}

func TestRecommendDegradesWhenMarketDown(t *testing.T) {
	market := &countingMarket{err: errors.New("every tier down")}
	facade := newTestFacade(market, newFakeClock())

	advice := facade.Recommend(context.Background(), "u1", domain.ProfileModerate, testPortfolio(), nil)

	assert.True(t, advice.Degraded)
	assert.Empty(t, advice.Recommendations)
}

func TestAlertsDelegatesToRiskBundle(t *testing.T) {
	market := &countingMarket{quotes: testQuotes()}
	facade := newTestFacade(market, newFakeClock())

	alerts := facade.Alerts(context.Background(), testPortfolio())
	bundle := facade.AnalyzeRisk(context.Background(), testPortfolio(), nil)

	assert.Equal(t, bundle.Alerts, alerts)
}

func TestInvalidateUserForcesRecompute(t *testing.T) {
	market := &countingMarket{quotes: testQuotes()}
	facade := newTestFacade(market, newFakeClock())

	facade.AnalyzeRisk(context.Background(), testPortfolio(), nil)
	facade.Recommend(context.Background(), "u1", domain.ProfileModerate, testPortfolio(), nil)
	after := market.callCount()

	facade.InvalidateUser("u1", "p1")

	facade.AnalyzeRisk(context.Background(), testPortfolio(), nil)
	assert.Greater(t, market.callCount(), after)
}

func TestModelPerformanceStableWithinDay(t *testing.T) {
	clock := newFakeClock()
	facade := newTestFacade(&countingMarket{quotes: testQuotes()}, clock)

	first := facade.ModelPerformance()
	clock.Advance(2 * time.Hour)
	second := facade.ModelPerformance()

	assert.Equal(t, modelVersion, first.ModelVersion)
	assert.InDelta(t, first.Accuracy, second.Accuracy, 1e-12,
		"calibration figures are fixed for a given day")
	assert.Greater(t, first.Accuracy, 0.0)
	assert.Less(t, first.Accuracy, 1.0)
	assert.GreaterOrEqual(t, second.UptimeSeconds, first.UptimeSeconds)

	require.Contains(t, first.PrecisionByAction, domain.ActionBuy)
	require.Contains(t, first.PrecisionByAction, domain.ActionSell)
	require.Contains(t, first.PrecisionByAction, domain.ActionHold)
}
