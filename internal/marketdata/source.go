// Package marketdata implements the tiered quote-acquisition pipeline:
// an ordered chain of sources tried until one produces a non-empty
// snapshot, fronted by a TTL cache. The synthetic tier cannot fail, so
// an acquisition cycle always yields quotes — degraded at worst, never
// an error.
package marketdata

import (
	"context"
	"errors"

	"github.com/dmuriuki/soko/internal/domain"
)

// Source is one acquisition tier. Fetch must be side-effect free beyond
// the network call itself and must respect ctx for cancellation.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.Quote, error)
}

// SummaryProvider is implemented by sources that can also report a
// market-wide trading summary for the session (currently the scrape
// tier).
type SummaryProvider interface {
	Summary() (domain.TradingSummary, bool)
}

// ErrEmptyResult marks a tier that succeeded technically but yielded no
// usable rows. The orchestrator treats it exactly like a fetch failure.
var ErrEmptyResult = errors.New("marketdata: source returned no quotes")

// ErrNoSources is returned when the orchestrator was built without tiers.
var ErrNoSources = errors.New("marketdata: no sources configured")
