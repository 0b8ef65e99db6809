// Package extapi implements the second acquisition tier: authenticated
// per-symbol quote calls against a third-party market-data provider.
// Symbols are fetched with bounded fan-out and all-settled semantics, so
// one symbol's failure never drops the rest of the batch.
package extapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/dmuriuki/soko/internal/domain"
)

// maxConcurrent bounds the per-symbol fan-out.
const maxConcurrent = 5

// Client is the provider-API source.
type Client struct {
	client  *resty.Client
	symbols []string
	log     zerolog.Logger
}

// quotePayload is the provider's per-symbol response shape.
type quotePayload struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Sector        string  `json:"sector"`
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previous_close"`
	Volume        int64   `json:"volume"`
	MarketCap     float64 `json:"market_cap"`
}

// New creates a provider client for the given symbol universe.
func New(baseURL, apiKey string, symbols []string, timeout time.Duration, log zerolog.Logger) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}

	return &Client{
		client:  client,
		symbols: symbols,
		log:     log.With().Str("client", "provider").Logger(),
	}
}

// Name implements marketdata.Source.
func (c *Client) Name() string { return string(domain.SourceProvider) }

// Fetch requests every catalog symbol independently and collects whatever
// succeeded. It fails only when not a single symbol produced a quote.
func (c *Client) Fetch(ctx context.Context) ([]domain.Quote, error) {
	if len(c.symbols) == 0 {
		return nil, fmt.Errorf("no symbols configured")
	}

	var (
		mu      sync.Mutex
		quotes  []domain.Quote
		failed  int
		wg      sync.WaitGroup
		permits = make(chan struct{}, maxConcurrent)
	)

	for _, symbol := range c.symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			select {
			case permits <- struct{}{}:
				defer func() { <-permits }()
			case <-ctx.Done():
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}

			quote, err := c.fetchone(ctx, symbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				c.log.Debug().Err(err).Str("symbol", symbol).Msg("Symbol fetch failed")
				return
			}
			quotes = append(quotes, quote)
		}(symbol)
	}
	wg.Wait()

	if len(quotes) == 0 {
		return nil, fmt.Errorf("all %d symbol requests failed", failed)
	}
	if failed > 0 {
		c.log.Warn().
			Int("failed", failed).
			Int("succeeded", len(quotes)).
			Msg("Partial provider batch")
	}

	return quotes, nil
}

// fetchone requests one symbol's quote.
func (c *Client) fetchone(ctx context.Context, symbol string) (domain.Quote, error) {
	var payload quotePayload

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&payload).
		Get("/quotes/latest")
	if err != nil {
		return domain.Quote{}, fmt.Errorf("quote request for %s failed: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return domain.Quote{}, fmt.Errorf("quote request for %s returned status %d", symbol, resp.StatusCode())
	}
	if payload.Price <= 0 {
		return domain.Quote{}, fmt.Errorf("provider returned non-positive price for %s", symbol)
	}

	q := domain.Quote{
		Timestamp:     time.Now(),
		Symbol:        symbol,
		Name:          payload.Name,
		Sector:        payload.Sector,
		Source:        domain.SourceProvider,
		Price:         payload.Price,
		PreviousClose: payload.PreviousClose,
		Volume:        payload.Volume,
		MarketCap:     payload.MarketCap,
	}
	if q.PreviousClose > 0 {
		q.Change = q.Price - q.PreviousClose
		q.ChangePercent = q.Change / q.PreviousClose * 100
	}
	return q, nil
}
