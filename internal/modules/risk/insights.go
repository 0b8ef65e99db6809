package risk

import (
	"fmt"

	"github.com/dmuriuki/soko/internal/domain"
	"github.com/dmuriuki/soko/pkg/formulas"
)

const (
	projectionDays   = 30
	projectionTrials = 2000
)

// buildInsights renders the templated narrative for one analysis. The
// result is never empty: every portfolio gets at least the headline
// risk and diversification lines.
func (e *Engine) buildInsights(metrics domain.RiskMetrics, index domain.IndexReading, portfolio domain.Portfolio) []string {
	insights := make([]string, 0, 6)

	switch {
	case metrics.OverallRiskScore > riskAlertThreshold:
		insights = append(insights, fmt.Sprintf(
			"Portfolio risk is elevated at %.0f/100, driven mainly by %s.",
			metrics.OverallRiskScore, dominantDriver(metrics)))
	case metrics.OverallRiskScore < 40:
		insights = append(insights, fmt.Sprintf(
			"Portfolio risk is comfortable at %.0f/100; current positioning leaves room for selective additions.",
			metrics.OverallRiskScore))
	default:
		insights = append(insights, fmt.Sprintf(
			"Portfolio risk sits mid-range at %.0f/100.", metrics.OverallRiskScore))
	}

	switch {
	case metrics.DiversificationScore < diversificationFloor:
		insights = append(insights, fmt.Sprintf(
			"Diversification is weak (%.0f/100): holdings move largely together, so a single sector shock would hit most of the book.",
			metrics.DiversificationScore))
	case metrics.DiversificationScore > 70:
		insights = append(insights, fmt.Sprintf(
			"Holdings are well spread (diversification %.0f/100), which dampens single-name shocks.",
			metrics.DiversificationScore))
	}

	if metrics.SectorConcentration > 60 {
		insights = append(insights, fmt.Sprintf(
			"Sector concentration is high (%.0f/100); consider counters outside the dominant sector.",
			metrics.SectorConcentration))
	}

	insights = append(insights, fmt.Sprintf(
		"A one-day loss beyond %.1f%% of portfolio value is unlikely at 95%% confidence (expected tail loss %.1f%%).",
		metrics.ValueAtRisk*100, metrics.ConditionalVaR*100))

	if metrics.SharpeRatio != 0 {
		quality := "below"
		if metrics.SharpeRatio > 1 {
			quality = "above"
		}
		insights = append(insights, fmt.Sprintf(
			"Risk-adjusted return (Sharpe %.2f) is %s the level that would justify the volatility taken.",
			metrics.SharpeRatio, quality))
	}

	if index.ChangePercent > indexVolatilityPercent || index.ChangePercent < -indexVolatilityPercent {
		insights = append(insights, fmt.Sprintf(
			"The %s moved %.1f%% today; short-term readings above are noisier than usual.",
			index.Name, index.ChangePercent))
	}

	if line, ok := e.projection(portfolio, metrics); ok {
		insights = append(insights, line)
	}

	return insights
}

// projection narrates a short Monte-Carlo forward look when the
// portfolio has value and measurable volatility.
func (e *Engine) projection(portfolio domain.Portfolio, metrics domain.RiskMetrics) (string, bool) {
	total := portfolio.TotalValue()
	if total <= 0 || metrics.StandardDeviation <= 0 {
		return "", false
	}

	sim, err := formulas.MonteCarloSimulate(total, e.riskFreeRate, metrics.StandardDeviation, projectionDays, projectionTrials, nil)
	if err != nil {
		return "", false
	}

	return fmt.Sprintf(
		"Over the next %d trading days, %d simulated paths put the portfolio between KES %.0f and KES %.0f in 90%% of outcomes (%.0f%% chance of ending below today's value).",
		projectionDays, len(sim.Trials), sim.P5, sim.P95, sim.ProbabilityOfLoss*100), true
}

// dominantDriver names the largest regional adjustment term for the
// headline insight.
func dominantDriver(metrics domain.RiskMetrics) string {
	driver := "overall volatility"
	max := metrics.StandardDeviation * 100

	if metrics.SectorConcentration > max {
		driver, max = "sector concentration", metrics.SectorConcentration
	}
	if metrics.LiquidityRisk > max {
		driver, max = "thin liquidity in the underlying counters", metrics.LiquidityRisk
	}
	if metrics.CurrencyRisk > max {
		driver = "foreign-currency exposure"
	}
	return driver
}
