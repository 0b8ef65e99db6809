package formulas

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// SimulationResult holds the outcome distribution of a Monte-Carlo price
// projection.
type SimulationResult struct {
	Trials            []float64 `json:"trials"`
	P5                float64   `json:"p5"`
	P25               float64   `json:"p25"`
	P50               float64   `json:"p50"`
	P75               float64   `json:"p75"`
	P95               float64   `json:"p95"`
	ExpectedValue     float64   `json:"expected_value"`
	ProbabilityOfLoss float64   `json:"probability_of_loss"`
}

// MonteCarloSimulate projects a price over horizonDays using a daily
// geometric random walk, repeated for the given number of trials.
//
// Each daily step compounds:
//
//	dailyReturn = μ/252 + σ/√252 × Z
//
// where Z is standard-normal via Box–Muller drawn from rng. With zero
// volatility every trial collapses to deterministic compounding at μ/252.
// The rng is injected so tests can fix the seed; production passes a
// time-seeded source.
func MonteCarloSimulate(initialPrice, expectedReturn, volatility float64, horizonDays, trials int, rng *rand.Rand) (*SimulationResult, error) {
	if initialPrice <= 0 || horizonDays <= 0 || trials <= 0 {
		return nil, ErrEmptySeries
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	dailyMu := expectedReturn / TradingDaysPerYear
	dailySigma := volatility / math.Sqrt(TradingDaysPerYear)

	outcomes := make([]float64, trials)
	for t := 0; t < trials; t++ {
		price := initialPrice
		for d := 0; d < horizonDays; d++ {
			price *= 1 + dailyMu + dailySigma*boxMuller(rng)
			if price < 0 {
				price = 0
			}
		}
		outcomes[t] = price
	}

	sorted := make([]float64, trials)
	copy(sorted, outcomes)
	sort.Float64s(sorted)

	losses := 0
	for _, p := range outcomes {
		if p < initialPrice {
			losses++
		}
	}

	return &SimulationResult{
		Trials:            outcomes,
		P5:                stat.Quantile(0.05, stat.Empirical, sorted, nil),
		P25:               stat.Quantile(0.25, stat.Empirical, sorted, nil),
		P50:               stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P75:               stat.Quantile(0.75, stat.Empirical, sorted, nil),
		P95:               stat.Quantile(0.95, stat.Empirical, sorted, nil),
		ExpectedValue:     Mean(outcomes),
		ProbabilityOfLoss: float64(losses) / float64(trials),
	}, nil
}

// boxMuller draws one standard-normal sample. The second variate of the
// pair is discarded; sampling cost is negligible next to the walk itself.
func boxMuller(rng *rand.Rand) float64 {
	u1 := rng.Float64()
	for u1 == 0 {
		u1 = rng.Float64()
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
