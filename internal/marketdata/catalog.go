package marketdata

// CatalogEntry describes one listed security the pipeline knows about.
// The catalog drives the synthetic generator's output, the provider
// adapter's fan-out and the engines' leadership/ESG lookups.
type CatalogEntry struct {
	Symbol    string
	Name      string
	Sector    string
	BasePrice float64 // KES, used by the synthetic tier
	MarketCap float64 // KES, approximate
	Leader    bool    // market-leadership list used by fundamental scoring
	ESG       bool    // ESG allow-list used by opportunity rules
}

// Catalog lists the NSE securities tracked by the dashboard. Base prices
// and market caps only anchor synthetic data and scoring tiers; they are
// not treated as live values.
var Catalog = []CatalogEntry{
	{Symbol: "SCOM", Name: "Safaricom PLC", Sector: "Telecommunication", BasePrice: 14.85, MarketCap: 595e9, Leader: true, ESG: true},
	{Symbol: "EQTY", Name: "Equity Group Holdings", Sector: "Banking", BasePrice: 45.50, MarketCap: 171e9, Leader: true, ESG: true},
	{Symbol: "KCB", Name: "KCB Group", Sector: "Banking", BasePrice: 36.90, MarketCap: 118e9, Leader: true},
	{Symbol: "COOP", Name: "Co-operative Bank of Kenya", Sector: "Banking", BasePrice: 12.30, MarketCap: 72e9, Leader: true},
	{Symbol: "ABSA", Name: "Absa Bank Kenya", Sector: "Banking", BasePrice: 14.60, MarketCap: 79e9},
	{Symbol: "SCBK", Name: "Standard Chartered Bank Kenya", Sector: "Banking", BasePrice: 195.00, MarketCap: 73e9},
	{Symbol: "NCBA", Name: "NCBA Group", Sector: "Banking", BasePrice: 42.50, MarketCap: 70e9},
	{Symbol: "DTK", Name: "Diamond Trust Bank", Sector: "Banking", BasePrice: 55.00, MarketCap: 15e9},
	{Symbol: "EABL", Name: "East African Breweries", Sector: "Manufacturing", BasePrice: 152.00, MarketCap: 120e9, Leader: true},
	{Symbol: "BAT", Name: "BAT Kenya", Sector: "Manufacturing", BasePrice: 380.00, MarketCap: 38e9},
	{Symbol: "BAMB", Name: "Bamburi Cement", Sector: "Construction", BasePrice: 38.50, MarketCap: 14e9, ESG: true},
	{Symbol: "KEGN", Name: "KenGen", Sector: "Energy", BasePrice: 2.45, MarketCap: 16e9, ESG: true},
	{Symbol: "KPLC", Name: "Kenya Power", Sector: "Energy", BasePrice: 1.58, MarketCap: 3e9},
	{Symbol: "TOTL", Name: "TotalEnergies Marketing Kenya", Sector: "Energy", BasePrice: 18.90, MarketCap: 12e9},
	{Symbol: "KQ", Name: "Kenya Airways", Sector: "Transport", BasePrice: 3.85, MarketCap: 22e9},
	{Symbol: "SASN", Name: "Sasini", Sector: "Agricultural", BasePrice: 18.20, MarketCap: 4e9, ESG: true},
	{Symbol: "KUKZ", Name: "Kakuzi", Sector: "Agricultural", BasePrice: 385.00, MarketCap: 8e9},
	{Symbol: "CTUM", Name: "Centum Investment", Sector: "Investment", BasePrice: 9.20, MarketCap: 6e9},
	{Symbol: "BRIT", Name: "Britam Holdings", Sector: "Insurance", BasePrice: 6.10, MarketCap: 15e9},
	{Symbol: "JUB", Name: "Jubilee Holdings", Sector: "Insurance", BasePrice: 184.00, MarketCap: 13e9},
	{Symbol: "CARB", Name: "Carbacid Investments", Sector: "Manufacturing", BasePrice: 17.80, MarketCap: 5e9},
	{Symbol: "NMG", Name: "Nation Media Group", Sector: "Commercial", BasePrice: 15.40, MarketCap: 3e9},
	{Symbol: "SCAN", Name: "WPP Scangroup", Sector: "Commercial", BasePrice: 2.20, MarketCap: 1e9},
	{Symbol: "UMME", Name: "Umeme", Sector: "Energy", BasePrice: 14.40, MarketCap: 23e9},
}

// CatalogSymbols returns the catalog's symbols in listing order.
func CatalogSymbols() []string {
	symbols := make([]string, len(Catalog))
	for i, e := range Catalog {
		symbols[i] = e.Symbol
	}
	return symbols
}

// LookupCatalog finds a catalog entry by symbol.
func LookupCatalog(symbol string) (CatalogEntry, bool) {
	for _, e := range Catalog {
		if e.Symbol == symbol {
			return e, true
		}
	}
	return CatalogEntry{}, false
}
