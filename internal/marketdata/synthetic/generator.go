// Package synthetic implements the last acquisition tier: an
// algorithmically generated market snapshot used when every live source
// has failed. It can never fail, which is what makes the pipeline's
// "always degrade, never error" contract hold.
package synthetic

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmuriuki/soko/internal/domain"
	"github.com/dmuriuki/soko/internal/marketdata"
)

// priceEpsilon is the floor below which a synthetic price cannot fall.
const priceEpsilon = 0.01

// Generator produces believable synthetic snapshots from the catalog.
// Each invocation shuffles the ranking and draws bucketed moves so the
// gainers/losers views have a fresh, non-identical shape every cycle.
type Generator struct {
	catalog []marketdata.CatalogEntry
	log     zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a generator over the given catalog. A nil rng gets a
// time-seeded source; tests inject a fixed seed to assert exact bucketed
// outcomes.
func New(catalog []marketdata.CatalogEntry, rng *rand.Rand, log zerolog.Logger) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{
		catalog: catalog,
		rng:     rng,
		log:     log.With().Str("client", "synthetic").Logger(),
	}
}

// Name implements marketdata.Source.
func (g *Generator) Name() string { return string(domain.SourceSynthetic) }

// Fetch generates one synthetic snapshot. The error is always nil; the
// signature only satisfies the Source interface.
func (g *Generator) Fetch(_ context.Context) ([]domain.Quote, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	n := len(g.catalog)
	order := g.rng.Perm(n)

	quotes := make([]domain.Quote, 0, n)
	for rank, idx := range order {
		entry := g.catalog[idx]
		movePct := g.drawMove(rank, n)

		price := entry.BasePrice * (1 + movePct/100)
		if price < priceEpsilon {
			price = priceEpsilon
		}

		q := domain.Quote{
			Timestamp:     now,
			Symbol:        entry.Symbol,
			Name:          entry.Name,
			Sector:        entry.Sector,
			Source:        domain.SourceSynthetic,
			Price:         price,
			PreviousClose: entry.BasePrice,
			Change:        price - entry.BasePrice,
			Volume:        5000 + g.rng.Int63n(2_000_000),
			MarketCap:     entry.MarketCap,
		}
		if q.PreviousClose > 0 {
			q.ChangePercent = q.Change / q.PreviousClose * 100
		}
		quotes = append(quotes, q)
	}

	g.log.Debug().Int("quotes", len(quotes)).Msg("Generated synthetic snapshot")
	return quotes, nil
}

// drawMove assigns a bucketed percentage move by shuffled rank: the top
// quarter rallies +3..+8%, the next quarter drops -2..-7%, and the rest
// drift inside ±1.5%.
func (g *Generator) drawMove(rank, total int) float64 {
	quarter := total / 4
	switch {
	case quarter > 0 && rank < quarter:
		return 3 + g.rng.Float64()*5
	case quarter > 0 && rank < 2*quarter:
		return -(2 + g.rng.Float64()*5)
	default:
		return -1.5 + g.rng.Float64()*3
	}
}
