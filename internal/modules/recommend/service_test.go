package recommend

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmuriuki/soko/internal/domain"
)

func newTestEngine() *Engine {
	return NewEngine(10.0, zerolog.Nop())
}

func quote(symbol string, price, changePct float64, volume int64, marketCap float64) domain.Quote {
	return domain.Quote{
		Timestamp:     time.Now(),
		Symbol:        symbol,
		Price:         price,
		ChangePercent: changePct,
		Volume:        volume,
		MarketCap:     marketCap,
	}
}

func TestRiskBucketThresholds(t *testing.T) {
	tests := []struct {
		move float64
		want domain.RiskLevel
	}{
		{0, domain.RiskLow},
		{1, domain.RiskLow},
		{-1, domain.RiskLow},
		{1.01, domain.RiskMedium},
		{3, domain.RiskMedium},
		{-2.5, domain.RiskMedium},
		{3.01, domain.RiskHigh},
		{6, domain.RiskHigh},
		{-8, domain.RiskHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, riskBucket(tt.move), "move %.2f", tt.move)
	}
}

// A 6% mover lands in the high-risk bucket: visible to an aggressive
// profile, invisible to a conservative one, regardless of confidence.
func TestHighMoverExcludedForConservative(t *testing.T) {
	quotes := []domain.Quote{
		// SCOM is a catalog leader, so confidence clears the gate.
		quote("SCOM", 14.85, 6.0, 2_000_000, 595e9),
	}
	portfolio := domain.Portfolio{ID: "p1", UserID: "u1"}

	aggressive := newTestEngine().Advise(domain.ProfileAggressive, portfolio, quotes)
	require.Len(t, aggressive.Recommendations, 1)
	rec := aggressive.Recommendations[0]
	assert.Equal(t, "SCOM", rec.Symbol)
	assert.Equal(t, domain.RiskHigh, rec.RiskLevel)
	assert.Greater(t, rec.Confidence, confidenceFloor)

	conservative := newTestEngine().Advise(domain.ProfileConservative, portfolio, quotes)
	assert.Empty(t, conservative.Recommendations,
		"a >3%% mover is high risk and off limits for conservative users")
}

func TestLowConfidenceCandidatesRejected(t *testing.T) {
	// Flat small cap on thin volume scores roughly 0.47 across the
	// three factors.
	quotes := []domain.Quote{quote("NMG", 18.0, 0, 10_000, 2e9)}

	advice := newTestEngine().Advise(domain.ProfileAggressive, domain.Portfolio{}, quotes)
	assert.Empty(t, advice.Recommendations)
}

func TestRecommendationPriceTargets(t *testing.T) {
	quotes := []domain.Quote{quote("EQTY", 45.5, 2.0, 1_500_000, 170e9)}

	advice := newTestEngine().Advise(domain.ProfileModerate, domain.Portfolio{}, quotes)
	require.Len(t, advice.Recommendations, 1)

	rec := advice.Recommendations[0]
	wantER := 0.08 + 0.5*(2.0/100)
	assert.InDelta(t, wantER, rec.ExpectedReturn, 1e-9)
	assert.InDelta(t, 45.5*(1+wantER), rec.TargetPrice, 1e-9)
	assert.InDelta(t, 45.5*0.92, rec.StopLoss, 1e-9)
	assert.Equal(t, domain.ActionBuy, rec.Action)
	assert.NotEmpty(t, rec.ID)
	assert.NotEmpty(t, rec.Reasoning.Technical)
	assert.NotEmpty(t, rec.Reasoning.Risk)
}

func TestRecommendationsCappedAndRanked(t *testing.T) {
	// A dozen strong large-cap movers; moves spread so the ranking
	// score confidence×ER differs per symbol.
	quotes := make([]domain.Quote, 0, 12)
	for i := 0; i < 12; i++ {
		symbol := fmt.Sprintf("S%02dA", i)
		move := 1.2 + 0.1*float64(i)
		quotes = append(quotes, quote(symbol, 100, move, 1_000_000+int64(i), 150e9))
	}

	advice := newTestEngine().Advise(domain.ProfileAggressive, domain.Portfolio{}, quotes)
	require.Len(t, advice.Recommendations, maxRecommendations)

	for i := 1; i < len(advice.Recommendations); i++ {
		prev := advice.Recommendations[i-1]
		curr := advice.Recommendations[i]
		assert.GreaterOrEqual(t,
			prev.Confidence*prev.ExpectedReturn,
			curr.Confidence*curr.ExpectedReturn,
			"ranking must be confidence×expectedReturn descending")
	}
}

func TestSellRequiresExistingPosition(t *testing.T) {
	quotes := []domain.Quote{quote("KCB", 38.0, -3.5, 2_000_000, 120e9)}

	held := domain.Portfolio{Holdings: []domain.Holding{{Symbol: "KCB", Shares: 100, AvgPrice: 40, CurrentValue: 3800}}}
	advice := newTestEngine().Advise(domain.ProfileAggressive, held, quotes)
	if len(advice.Recommendations) == 1 {
		assert.Equal(t, domain.ActionSell, advice.Recommendations[0].Action)
	}

	notHeld := domain.Portfolio{}
	advice = newTestEngine().Advise(domain.ProfileAggressive, notHeld, quotes)
	for _, rec := range advice.Recommendations {
		assert.NotEqual(t, domain.ActionSell, rec.Action,
			"cannot suggest selling a position the user does not hold")
	}
}

func TestAdviseFlagsEmptySnapshot(t *testing.T) {
	advice := newTestEngine().Advise(domain.ProfileModerate, domain.Portfolio{}, nil)

	assert.True(t, advice.Degraded)
	assert.Empty(t, advice.Recommendations)
	assert.Empty(t, advice.Opportunities)
}

func TestRebalanceFlagsDriftedPositions(t *testing.T) {
	engine := newTestEngine()

	// No snapshot: values come from the stored CurrentValue, targets
	// collapse to equal weight under a moderate profile.
	portfolio := domain.Portfolio{
		Holdings: []domain.Holding{
			{Symbol: "SCOM", Shares: 1000, AvgPrice: 9, CurrentValue: 9000},
			{Symbol: "EQTY", Shares: 25, AvgPrice: 40, CurrentValue: 1000},
		},
	}

	suggestions := engine.rebalance(domain.ProfileModerate, portfolio, nil)
	require.Len(t, suggestions, 2)

	bySymbol := make(map[string]domain.RebalanceSuggestion)
	for _, s := range suggestions {
		bySymbol[s.Symbol] = s
	}

	scom := bySymbol["SCOM"]
	assert.Equal(t, domain.ActionSell, scom.Action)
	assert.InDelta(t, 90, scom.CurrentWeight, 1e-9)
	assert.InDelta(t, 50, scom.TargetWeight, 1e-9)

	eqty := bySymbol["EQTY"]
	assert.Equal(t, domain.ActionBuy, eqty.Action)
	assert.InDelta(t, 10, eqty.CurrentWeight, 1e-9)
}

func TestRebalanceIgnoresBalancedBook(t *testing.T) {
	engine := newTestEngine()

	portfolio := domain.Portfolio{
		Holdings: []domain.Holding{
			{Symbol: "SCOM", Shares: 100, AvgPrice: 14, CurrentValue: 1400},
			{Symbol: "EQTY", Shares: 30, AvgPrice: 45, CurrentValue: 1350},
		},
	}

	assert.Empty(t, engine.rebalance(domain.ProfileModerate, portfolio, nil))
}

func TestRebalanceConservativeTiltsAwayFromVolatile(t *testing.T) {
	engine := newTestEngine()

	portfolio := domain.Portfolio{
		Holdings: []domain.Holding{
			{Symbol: "KQ", Shares: 100, CurrentValue: 5000},
			{Symbol: "SCBK", Shares: 100, CurrentValue: 5000},
		},
	}
	quotes := []domain.Quote{
		quote("KQ", 50, 5.0, 300_000, 3e9),    // high bucket, tilt 0.7
		quote("SCBK", 50, 0.5, 200_000, 60e9), // low bucket, tilt 1.25
	}

	suggestions := engine.rebalance(domain.ProfileConservative, portfolio, quotes)
	require.Len(t, suggestions, 2)

	for _, s := range suggestions {
		switch s.Symbol {
		case "KQ":
			assert.Equal(t, domain.ActionSell, s.Action)
			assert.Less(t, s.TargetWeight, s.CurrentWeight)
		case "SCBK":
			assert.Equal(t, domain.ActionBuy, s.Action)
			assert.Greater(t, s.TargetWeight, s.CurrentWeight)
		default:
			t.Fatalf("unexpected suggestion for %s", s.Symbol)
		}
	}
}

func TestRebalanceSkipsSingleHolding(t *testing.T) {
	engine := newTestEngine()
	portfolio := domain.Portfolio{
		Holdings: []domain.Holding{{Symbol: "SCOM", Shares: 100, CurrentValue: 1400}},
	}
	assert.Empty(t, engine.rebalance(domain.ProfileModerate, portfolio, nil))
}

func TestOpportunityScreens(t *testing.T) {
	engine := newTestEngine()

	quotes := []domain.Quote{
		// Catalog leader and ESG name, up on volume: three screens hit.
		quote("SCOM", 14.85, 2.5, 1_200_000, 595e9),
		// Decliner above the price floor: value.
		quote("BAT", 350.0, -2.5, 50_000, 35e9),
		// Decliner below the price floor: no screen.
		quote("KQ", 3.8, -3.0, 400_000, 22e9),
	}

	opportunities := engine.opportunities(quotes)

	byCategory := make(map[string][]string)
	for _, o := range opportunities {
		byCategory[o.Category] = append(byCategory[o.Category], o.Symbol)
	}

	assert.Contains(t, byCategory["sector-leader"], "SCOM")
	assert.Contains(t, byCategory["growth"], "SCOM")
	assert.Contains(t, byCategory["esg"], "SCOM")
	assert.Contains(t, byCategory["value"], "BAT")
	for _, symbols := range byCategory {
		assert.NotContains(t, symbols, "KQ")
	}
}

func TestOpportunitiesCapped(t *testing.T) {
	engine := newTestEngine()

	quotes := make([]domain.Quote, 0, 20)
	for i := 0; i < 20; i++ {
		quotes = append(quotes, quote(fmt.Sprintf("V%02dA", i), 25.0, -2.5, 30_000, 5e9))
	}

	opportunities := engine.opportunities(quotes)
	assert.Len(t, opportunities, maxOpportunities)
}

func TestTopLiquidOrdering(t *testing.T) {
	quotes := []domain.Quote{
		quote("AAAA", 10, 1, 100, 0),
		quote("BBBB", 10, 1, 900, 0),
		quote("CCCC", 10, 1, 500, 0),
	}

	top := topLiquid(quotes, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "BBBB", top[0].Symbol)
	assert.Equal(t, "CCCC", top[1].Symbol)
}

func TestHistoryAccumulatesAndCaps(t *testing.T) {
	engine := newTestEngine()

	for i := 0; i < historyCap+10; i++ {
		engine.recordHistory([]domain.Quote{quote("SCOM", 14.0+float64(i)*0.01, 0.5, 100_000, 595e9)})
	}

	closes := engine.closes("SCOM")
	assert.Len(t, closes, historyCap)
	assert.InDelta(t, 14.0+float64(historyCap+9)*0.01, closes[len(closes)-1], 1e-9,
		"the rolling window keeps the newest closes")
}
