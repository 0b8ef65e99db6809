package recommend

import (
	"fmt"

	"github.com/dmuriuki/soko/internal/domain"
	"github.com/dmuriuki/soko/internal/marketdata"
)

const (
	// valuePriceFloor keeps penny counters out of the value screen.
	valuePriceFloor = 5.0

	valueDropTrigger  = -2.0
	growthMoveTrigger = 2.0
	growthVolumeFloor = 500_000
	esgExpectedReturn = 0.08
	valueReturnAnchor = 0.10
)

// opportunities runs the independent rule screens over the snapshot and
// merges their hits, capped.
func (e *Engine) opportunities(quotes []domain.Quote) []domain.Opportunity {
	merged := make([]domain.Opportunity, 0, maxOpportunities)
	seen := make(map[string]bool)

	add := func(o domain.Opportunity) {
		key := o.Symbol + "/" + o.Category
		if seen[key] || len(merged) >= maxOpportunities {
			return
		}
		seen[key] = true
		merged = append(merged, o)
	}

	for _, q := range quotes {
		entry, known := marketdata.LookupCatalog(q.Symbol)

		if known && entry.Leader && q.ChangePercent > 0 {
			add(domain.Opportunity{
				Timestamp:       e.now(),
				Symbol:          q.Symbol,
				Sector:          sectorOf(q, entry, known),
				Category:        "sector-leader",
				RiskLevel:       riskBucket(q.ChangePercent),
				Timeframe:       "6-12 months",
				PotentialReturn: baseExpectedReturn + 0.5*(q.ChangePercent/100),
				Reasoning: []string{
					fmt.Sprintf("%s leads its sector and gained %.2f%% today", q.Symbol, q.ChangePercent),
				},
			})
		}

		if q.ChangePercent <= valueDropTrigger && q.Price >= valuePriceFloor {
			add(domain.Opportunity{
				Timestamp:       e.now(),
				Symbol:          q.Symbol,
				Sector:          sectorOf(q, entry, known),
				Category:        "value",
				RiskLevel:       riskBucket(q.ChangePercent),
				Timeframe:       "12+ months",
				PotentialReturn: valueReturnAnchor - q.ChangePercent/100,
				Reasoning: []string{
					fmt.Sprintf("Down %.2f%% today at KES %.2f, a possible entry for patient capital", -q.ChangePercent, q.Price),
				},
			})
		}

		if q.ChangePercent >= growthMoveTrigger && q.Volume >= growthVolumeFloor {
			add(domain.Opportunity{
				Timestamp:       e.now(),
				Symbol:          q.Symbol,
				Sector:          sectorOf(q, entry, known),
				Category:        "growth",
				RiskLevel:       riskBucket(q.ChangePercent),
				Timeframe:       "3-6 months",
				PotentialReturn: baseExpectedReturn + 0.5*(q.ChangePercent/100),
				Reasoning: []string{
					fmt.Sprintf("Up %.2f%% on %d shares, volume-confirmed momentum", q.ChangePercent, q.Volume),
				},
			})
		}

		if known && entry.ESG {
			add(domain.Opportunity{
				Timestamp:       e.now(),
				Symbol:          q.Symbol,
				Sector:          sectorOf(q, entry, known),
				Category:        "esg",
				RiskLevel:       riskBucket(q.ChangePercent),
				Timeframe:       "12+ months",
				PotentialReturn: esgExpectedReturn,
				Reasoning: []string{
					fmt.Sprintf("%s screens into the sustainability allow-list", q.Symbol),
				},
			})
		}
	}

	return merged
}

func sectorOf(q domain.Quote, entry marketdata.CatalogEntry, known bool) string {
	if q.Sector != "" {
		return q.Sector
	}
	if known {
		return entry.Sector
	}
	return ""
}
