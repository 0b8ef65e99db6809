// Package domain provides core domain models and types.
package domain

import "time"

// QuoteSource identifies which acquisition tier produced a quote.
type QuoteSource string

const (
	SourceScrape    QuoteSource = "nse-scrape"
	SourceProvider  QuoteSource = "provider-api"
	SourceSynthetic QuoteSource = "synthetic"
)

// Quote represents a single symbol's current trading snapshot.
// Quotes are immutable once produced; an acquisition cycle always yields
// a wholly new set.
type Quote struct {
	Timestamp     time.Time   `json:"timestamp"`
	Symbol        string      `json:"symbol"`
	Name          string      `json:"name"`
	Sector        string      `json:"sector,omitempty"`
	Source        QuoteSource `json:"source"`
	Price         float64     `json:"price"`
	PreviousClose float64     `json:"previous_close"`
	Change        float64     `json:"change"`
	ChangePercent float64     `json:"change_percent"`
	Volume        int64       `json:"volume,omitempty"`
	MarketCap     float64     `json:"market_cap,omitempty"`
}

// TradingSummary aggregates one session's market-wide activity.
type TradingSummary struct {
	Timestamp    time.Time `json:"timestamp"`
	SharesTraded int64     `json:"shares_traded"`
	Deals        int64     `json:"deals"`
	ValueTraded  float64   `json:"value_traded"`
	Gainers      int       `json:"gainers"`
	Losers       int       `json:"losers"`
}

// Holding represents one position in a user's portfolio. The portfolio
// store owns these records; this core treats them as read-only.
type Holding struct {
	Symbol       string  `json:"symbol"`
	Sector       string  `json:"sector,omitempty"`
	Currency     string  `json:"currency,omitempty"`
	Shares       float64 `json:"shares"`
	AvgPrice     float64 `json:"avg_price"`
	CurrentValue float64 `json:"current_value"`
	AvgDailyVol  int64   `json:"avg_daily_volume,omitempty"`
}

// Portfolio is the read-only holdings bundle supplied per analysis call.
type Portfolio struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Holdings []Holding `json:"holdings"`
}

// TotalValue sums the current value of all holdings.
func (p Portfolio) TotalValue() float64 {
	total := 0.0
	for _, h := range p.Holdings {
		total += h.CurrentValue
	}
	return total
}

// RiskProfile is the user's declared risk appetite.
type RiskProfile string

const (
	ProfileConservative RiskProfile = "conservative"
	ProfileModerate     RiskProfile = "moderate"
	ProfileAggressive   RiskProfile = "aggressive"
)

// RiskLevel buckets a single security's risk.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Allows reports whether a security with the given risk bucket is
// acceptable for this profile.
func (p RiskProfile) Allows(level RiskLevel) bool {
	switch p {
	case ProfileConservative:
		return level == RiskLow
	case ProfileModerate:
		return level == RiskLow || level == RiskMedium
	case ProfileAggressive:
		return true
	}
	return false
}

// IndexReading is the market index snapshot used for economic-risk scaling.
type IndexReading struct {
	Timestamp     time.Time `json:"timestamp"`
	Name          string    `json:"name"`
	Value         float64   `json:"value"`
	ChangePercent float64   `json:"change_percent"`
}

// RiskMetrics is the full risk-metrics record produced per analysis call.
// Never mutated after creation.
type RiskMetrics struct {
	Timestamp            time.Time   `json:"timestamp"`
	ValueAtRisk          float64     `json:"value_at_risk"`
	ConditionalVaR       float64     `json:"conditional_var"`
	StandardDeviation    float64     `json:"standard_deviation"`
	SharpeRatio          float64     `json:"sharpe_ratio"`
	MaxDrawdown          float64     `json:"max_drawdown"`
	OverallRiskScore     float64     `json:"overall_risk_score"`
	DiversificationScore float64     `json:"diversification_score"`
	SectorConcentration  float64     `json:"sector_concentration"`
	CurrencyRisk         float64     `json:"currency_risk"`
	LiquidityRisk        float64     `json:"liquidity_risk"`
	PoliticalRisk        float64     `json:"political_risk"`
	EconomicRisk         float64     `json:"economic_risk"`
	CorrelationMatrix    [][]float64 `json:"correlation_matrix"`
}

// Action is a recommendation verdict.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Reasoning groups the narrative justification behind a recommendation.
type Reasoning struct {
	Technical   []string `json:"technical"`
	Fundamental []string `json:"fundamental"`
	Sentiment   []string `json:"sentiment"`
	Risk        []string `json:"risk"`
}

// Recommendation is a single ranked buy/sell/hold suggestion.
type Recommendation struct {
	Timestamp      time.Time `json:"timestamp"`
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Action         Action    `json:"action"`
	RiskLevel      RiskLevel `json:"risk_level"`
	TimeHorizon    string    `json:"time_horizon"`
	Confidence     float64   `json:"confidence"`
	ExpectedReturn float64   `json:"expected_return"`
	Price          float64   `json:"price"`
	TargetPrice    float64   `json:"target_price"`
	StopLoss       float64   `json:"stop_loss"`
	Reasoning      Reasoning `json:"reasoning"`
}

// RebalanceSuggestion asks the user to trim or add to one position.
type RebalanceSuggestion struct {
	Symbol        string  `json:"symbol"`
	Action        Action  `json:"action"`
	CurrentWeight float64 `json:"current_weight"`
	TargetWeight  float64 `json:"target_weight"`
	Reason        string  `json:"reason"`
}

// Opportunity is a categorized market opportunity outside the portfolio.
type Opportunity struct {
	Timestamp       time.Time `json:"timestamp"`
	Symbol          string    `json:"symbol"`
	Sector          string    `json:"sector,omitempty"`
	Category        string    `json:"category"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Timeframe       string    `json:"timeframe"`
	PotentialReturn float64   `json:"potential_return"`
	Reasoning       []string  `json:"reasoning"`
}

// AlertSeverity grades an alert.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is a threshold-triggered portfolio or market warning.
type Alert struct {
	Timestamp        time.Time     `json:"timestamp"`
	ID               string        `json:"id"`
	Severity         AlertSeverity `json:"severity"`
	Title            string        `json:"title"`
	Message          string        `json:"message"`
	ActionRequired   bool          `json:"action_required"`
	SuggestedActions []string      `json:"suggested_actions"`
	AffectedSymbols  []string      `json:"affected_symbols"`
}

// RiskAnalysis bundles the risk engine's output for one portfolio.
type RiskAnalysis struct {
	Metrics  RiskMetrics `json:"metrics"`
	Alerts   []Alert     `json:"alerts"`
	Insights []string    `json:"insights"`
	Degraded bool        `json:"degraded"`
}

// Advice bundles the recommendation engine's output for one user.
type Advice struct {
	Recommendations []Recommendation      `json:"recommendations"`
	Rebalancing     []RebalanceSuggestion `json:"rebalancing"`
	Opportunities   []Opportunity         `json:"opportunities"`
	Degraded        bool                  `json:"degraded"`
}
