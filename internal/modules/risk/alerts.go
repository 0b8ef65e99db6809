package risk

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dmuriuki/soko/internal/domain"
)

// Alert thresholds. Pure per-call evaluation; no state machine.
const (
	riskAlertThreshold     = 70
	riskCriticalThreshold  = 85
	diversificationFloor   = 30
	indexVolatilityPercent = 3
)

// evaluateAlerts applies the threshold rules to one computed metrics
// record.
func (e *Engine) evaluateAlerts(metrics domain.RiskMetrics, index domain.IndexReading, portfolio domain.Portfolio) []domain.Alert {
	var alerts []domain.Alert

	symbols := make([]string, 0, len(portfolio.Holdings))
	for _, h := range portfolio.Holdings {
		symbols = append(symbols, h.Symbol)
	}

	if metrics.OverallRiskScore > riskAlertThreshold {
		severity := domain.SeverityHigh
		if metrics.OverallRiskScore > riskCriticalThreshold {
			severity = domain.SeverityCritical
		}
		alerts = append(alerts, domain.Alert{
			Timestamp:      metrics.Timestamp,
			ID:             uuid.NewString(),
			Severity:       severity,
			Title:          "Portfolio risk elevated",
			Message:        fmt.Sprintf("Overall risk score is %.0f/100, above the %d threshold.", metrics.OverallRiskScore, riskAlertThreshold),
			ActionRequired: true,
			SuggestedActions: []string{
				"Reduce exposure to the most volatile positions",
				"Add defensive or lower-beta counters",
				"Review stop-loss levels across the portfolio",
			},
			AffectedSymbols: symbols,
		})
	}

	if metrics.DiversificationScore < diversificationFloor {
		alerts = append(alerts, domain.Alert{
			Timestamp:      metrics.Timestamp,
			ID:             uuid.NewString(),
			Severity:       domain.SeverityMedium,
			Title:          "Low diversification",
			Message:        fmt.Sprintf("Diversification score is %.0f/100; the portfolio is concentrated in closely moving positions.", metrics.DiversificationScore),
			ActionRequired: false,
			SuggestedActions: []string{
				"Spread new purchases across additional sectors",
				"Trim overlapping positions in the dominant sector",
			},
			AffectedSymbols: symbols,
		})
	}

	if index.ChangePercent > indexVolatilityPercent || index.ChangePercent < -indexVolatilityPercent {
		direction := "rallied"
		if index.ChangePercent < 0 {
			direction = "fallen"
		}
		alerts = append(alerts, domain.Alert{
			Timestamp:      metrics.Timestamp,
			ID:             uuid.NewString(),
			Severity:       domain.SeverityMedium,
			Title:          "Market volatility",
			Message:        fmt.Sprintf("%s has %s %.1f%% today; expect wider spreads and erratic fills.", index.Name, direction, index.ChangePercent),
			ActionRequired: false,
			SuggestedActions: []string{
				"Avoid market orders until the session settles",
				"Defer non-urgent rebalancing trades",
			},
		})
	}

	return alerts
}
