package recommend

import (
	"fmt"
	"sort"

	"github.com/dmuriuki/soko/internal/domain"
)

// Risk-adjustment multipliers applied to the equal-weight baseline
// before normalization.
var targetTilt = map[domain.RiskProfile]map[domain.RiskLevel]float64{
	domain.ProfileConservative: {
		domain.RiskLow:    1.25,
		domain.RiskMedium: 1.0,
		domain.RiskHigh:   0.7,
	},
	domain.ProfileModerate: {
		domain.RiskLow:    1.0,
		domain.RiskMedium: 1.0,
		domain.RiskHigh:   1.0,
	},
	domain.ProfileAggressive: {
		domain.RiskLow:    0.85,
		domain.RiskMedium: 1.0,
		domain.RiskHigh:   1.25,
	},
}

// rebalance compares each holding's weight against an
// equal-weight-plus-risk-tilt target and suggests a trade for any
// position drifted past the threshold.
func (e *Engine) rebalance(profile domain.RiskProfile, portfolio domain.Portfolio, quotes []domain.Quote) []domain.RebalanceSuggestion {
	holdings := portfolio.Holdings
	if len(holdings) < 2 {
		return nil
	}

	snapshot := make(map[string]domain.Quote, len(quotes))
	for _, q := range quotes {
		snapshot[q.Symbol] = q
	}

	values := make([]float64, len(holdings))
	total := 0.0
	for i, h := range holdings {
		values[i] = holdingValue(h, snapshot)
		total += values[i]
	}
	if total <= 0 {
		return nil
	}

	tilt := targetTilt[profile]
	if tilt == nil {
		tilt = targetTilt[domain.ProfileModerate]
	}

	// Equal weight scaled by the profile's tilt for each position's
	// risk bucket, then renormalized.
	raw := make([]float64, len(holdings))
	rawTotal := 0.0
	for i, h := range holdings {
		bucket := riskBucket(snapshot[h.Symbol].ChangePercent)
		raw[i] = tilt[bucket]
		rawTotal += raw[i]
	}

	suggestions := make([]domain.RebalanceSuggestion, 0)
	for i, h := range holdings {
		current := values[i] / total * 100
		target := raw[i] / rawTotal * 100
		drift := current - target
		if drift < e.driftThreshold && drift > -e.driftThreshold {
			continue
		}

		action := domain.ActionSell
		verb := "Trim"
		if drift < 0 {
			action = domain.ActionBuy
			verb = "Add to"
		}

		suggestions = append(suggestions, domain.RebalanceSuggestion{
			Symbol:        h.Symbol,
			Action:        action,
			CurrentWeight: current,
			TargetWeight:  target,
			Reason: fmt.Sprintf("%s %s: holding %.1f%% of the portfolio against a %.1f%% target",
				verb, h.Symbol, current, target),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		di := suggestions[i].CurrentWeight - suggestions[i].TargetWeight
		dj := suggestions[j].CurrentWeight - suggestions[j].TargetWeight
		if di < 0 {
			di = -di
		}
		if dj < 0 {
			dj = -dj
		}
		return di > dj
	})

	return suggestions
}

// holdingValue prefers a live snapshot price, then the stored value,
// then cost basis.
func holdingValue(h domain.Holding, snapshot map[string]domain.Quote) float64 {
	if q, ok := snapshot[h.Symbol]; ok && q.Price > 0 {
		return q.Price * h.Shares
	}
	if h.CurrentValue > 0 {
		return h.CurrentValue
	}
	return h.AvgPrice * h.Shares
}
