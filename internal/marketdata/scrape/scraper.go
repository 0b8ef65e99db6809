// Package scrape implements the primary acquisition tier: a single
// request for the exchange's semi-structured price page, parsed first as
// an HTML table and, when markup drift breaks that, by a line-oriented
// regex pass over the page text.
package scrape

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/dmuriuki/soko/internal/domain"
)

// symbolPattern is the row-acceptance rule for ticker cells: 2-6 capital
// letters with an optional class suffix (e.g. "KPLC-P4").
var symbolPattern = regexp.MustCompile(`^[A-Z]{2,6}(-[A-Z0-9]+)?$`)

// rowPattern is the fallback extraction over plain page text, one
// security per line: symbol, name, volume, price, change.
var rowPattern = regexp.MustCompile(
	`(?m)^\s*([A-Z]{2,6}(?:-[A-Z0-9]+)?)\s{2,}(.+?)\s{2,}([\d,]+|—|-|N/A)\s+([\d,]+(?:\.\d+)?)\s+([+-]?\d+(?:\.\d+)?|—|-|N/A)\s*$`)

var (
	sharesPattern  = regexp.MustCompile(`(?i)([\d,]+)\s+shares\s+(?:traded|valued)`)
	dealsPattern   = regexp.MustCompile(`(?i)(?:in\s+)?([\d,]+)\s+deals`)
	valuePattern   = regexp.MustCompile(`(?i)(?:kes|ksh)\.?\s*([\d,]+(?:\.\d+)?)\s*(billion|million)?`)
	gainersPattern = regexp.MustCompile(`(?i)([\d,]+)\s+gainers`)
	losersPattern  = regexp.MustCompile(`(?i)([\d,]+)\s+losers`)
)

// noValueTokens are the "no trade" placeholders the exchange page uses in
// volume and change cells.
var noValueTokens = map[string]bool{"—": true, "-": true, "N/A": true, "": true}

// Scraper fetches and parses the exchange price page.
type Scraper struct {
	client *resty.Client
	url    string
	log    zerolog.Logger

	mu          sync.RWMutex
	lastSummary *domain.TradingSummary
}

// New creates a scrape source for the given page URL.
func New(url string, timeout time.Duration, log zerolog.Logger) *Scraper {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; soko/1.0)")

	return &Scraper{
		client: client,
		url:    url,
		log:    log.With().Str("client", "scrape").Logger(),
	}
}

// Name implements marketdata.Source.
func (s *Scraper) Name() string { return string(domain.SourceScrape) }

// Fetch retrieves the price page and extracts quotes. Rows that fail to
// parse are skipped, never fatal; only a page with zero usable rows is an
// error.
func (s *Scraper) Fetch(ctx context.Context) ([]domain.Quote, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("price page request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("price page returned status %d", resp.StatusCode())
	}

	body := resp.String()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("price page not parseable: %w", err)
	}

	now := time.Now()
	quotes := s.parseTable(doc, now)
	if len(quotes) == 0 {
		// Defense against markup drift: the regex pass only runs when
		// the tabular pass found nothing at all.
		quotes = s.parseText(doc.Text(), now)
		if len(quotes) > 0 {
			s.log.Warn().Int("quotes", len(quotes)).Msg("Table parse empty, regex fallback used")
		}
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("no parseable rows on price page")
	}

	s.storeSummary(parseSummary(doc.Text(), now))
	return quotes, nil
}

// Summary returns the trading summary extracted during the most recent
// successful fetch.
func (s *Scraper) Summary() (domain.TradingSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSummary == nil {
		return domain.TradingSummary{}, false
	}
	return *s.lastSummary, true
}

func (s *Scraper) storeSummary(summary *domain.TradingSummary) {
	if summary == nil {
		return
	}
	s.mu.Lock()
	s.lastSummary = summary
	s.mu.Unlock()
}

// parseTable extracts quotes from table rows. Acceptance rule: first cell
// matches the symbol pattern and at least 4 cells are present.
func (s *Scraper) parseTable(doc *goquery.Document, now time.Time) []domain.Quote {
	var quotes []domain.Quote

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})

		q, ok := parseRow(cells, now)
		if !ok {
			return
		}
		quotes = append(quotes, q)
	})

	return quotes
}

// parseText is the secondary extraction pass over the page's plain text.
func (s *Scraper) parseText(text string, now time.Time) []domain.Quote {
	var quotes []domain.Quote
	for _, m := range rowPattern.FindAllStringSubmatch(text, -1) {
		q, ok := parseRow([]string{m[1], m[2], m[3], m[4], m[5]}, now)
		if !ok {
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes
}

// parseRow converts one row's cells (symbol, name, volume, price, change)
// into a quote. Returns false for any row violating the acceptance rule.
func parseRow(cells []string, now time.Time) (domain.Quote, bool) {
	if len(cells) < 4 {
		return domain.Quote{}, false
	}
	symbol := strings.TrimSpace(cells[0])
	if !symbolPattern.MatchString(symbol) {
		return domain.Quote{}, false
	}

	price, ok := parsePrice(cells[3])
	if !ok {
		return domain.Quote{}, false
	}

	volume := parseVolume(cells[2])

	change := 0.0
	if len(cells) >= 5 {
		change = parseChange(cells[4])
	}

	q := domain.Quote{
		Timestamp:     now,
		Symbol:        symbol,
		Name:          strings.TrimSpace(cells[1]),
		Source:        domain.SourceScrape,
		Price:         price,
		PreviousClose: price - change,
		Change:        change,
		Volume:        volume,
	}
	// Percent change against the previous close, never against the raw
	// price; a change equal to the price would otherwise divide by zero.
	if q.PreviousClose > 0 {
		q.ChangePercent = change / q.PreviousClose * 100
	}
	return q, true
}

// parsePrice parses a positive decimal after stripping thousands
// separators.
func parsePrice(cell string) (float64, bool) {
	clean := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	price, err := strconv.ParseFloat(clean, 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}

// parseVolume tolerates the page's "no trades" sentinel.
func parseVolume(cell string) int64 {
	clean := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if noValueTokens[clean] {
		return 0
	}
	v, err := strconv.ParseInt(clean, 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseChange(cell string) float64 {
	clean := strings.TrimSpace(cell)
	if noValueTokens[clean] {
		return 0
	}
	clean = strings.TrimPrefix(strings.ReplaceAll(clean, ",", ""), "+")
	c, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return c
}

// parseSummary scans page text for the session summary phrases. Returns
// nil when not a single phrase matched.
func parseSummary(text string, now time.Time) *domain.TradingSummary {
	summary := domain.TradingSummary{Timestamp: now}
	found := false

	if m := sharesPattern.FindStringSubmatch(text); m != nil {
		summary.SharesTraded = parseGroupedInt(m[1])
		found = true
	}
	if m := dealsPattern.FindStringSubmatch(text); m != nil {
		summary.Deals = parseGroupedInt(m[1])
		found = true
	}
	if m := valuePattern.FindStringSubmatch(text); m != nil {
		value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err == nil {
			switch strings.ToLower(m[2]) {
			case "billion":
				value *= 1e9
			case "million":
				value *= 1e6
			}
			summary.ValueTraded = value
			found = true
		}
	}
	if m := gainersPattern.FindStringSubmatch(text); m != nil {
		summary.Gainers = int(parseGroupedInt(m[1]))
		found = true
	}
	if m := losersPattern.FindStringSubmatch(text); m != nil {
		summary.Losers = int(parseGroupedInt(m[1]))
		found = true
	}

	if !found {
		return nil
	}
	return &summary
}

func parseGroupedInt(s string) int64 {
	v, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
