package coingecko

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marketdata/internal/provider"
	"marketdata/internal/provider/upstream"
)

const (
	Name           = "coingecko"
	defaultBaseURL = "https://api.coingecko.com/api/v3"
	keyHeader      = "x-cg-demo-api-key"
)

// DefaultAliases maps ticker symbols to CoinGecko coin ids.
var DefaultAliases = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"DOGE":  "dogecoin",
	"ADA":   "cardano",
	"XRP":   "ripple",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"LTC":   "litecoin",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"BNB":   "binancecoin",
	"USDT":  "tether",
	"USDC":  "usd-coin",
}

// Adapter reads /simple/price for a single coin id in USD.
type Adapter struct {
	c       *upstream.Client
	aliases map[string]string
}

var _ provider.Adapter = (*Adapter)(nil)

// New builds the adapter. A nil aliases map falls back to DefaultAliases.
func New(pool *provider.Provider, aliases map[string]string, opts ...upstream.Option) *Adapter {
	if aliases == nil {
		aliases = DefaultAliases
	}
	norm := make(map[string]string, len(aliases))
	for sym, id := range aliases {
		norm[strings.ToUpper(strings.TrimSpace(sym))] = id
	}
	return &Adapter{c: upstream.New(Name, defaultBaseURL, pool, opts...), aliases: norm}
}

func (a *Adapter) Name() string { return Name }

// ResolveID returns the coin id for symbol, or the lower-cased symbol when
// no alias exists.
func (a *Adapter) ResolveID(symbol string) string {
	s := strings.TrimSpace(symbol)
	if id, ok := a.aliases[strings.ToUpper(s)]; ok {
		return id
	}
	return strings.ToLower(s)
}

type coin struct {
	USD           *float64 `json:"usd"`
	USD24hChange  *float64 `json:"usd_24h_change"`
	USD24hVol     *float64 `json:"usd_24h_vol"`
	USDMarketCap  *float64 `json:"usd_market_cap"`
	LastUpdatedAt int64    `json:"last_updated_at"`
}

func (a *Adapter) Fetch(ctx context.Context, symbol, key string) (*provider.Quote, error) {
	id := a.ResolveID(symbol)
	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", "usd")
	q.Set("include_market_cap", "true")
	q.Set("include_24hr_vol", "true")
	q.Set("include_24hr_change", "true")
	q.Set("include_last_updated_at", "true")
	h := http.Header{}
	h.Set(keyHeader, key)

	var body map[string]coin
	if err := a.c.GetJSON(ctx, key, "/simple/price", q, h, &body); err != nil {
		return nil, err
	}
	c, ok := body[id]
	if !ok || c.USD == nil || *c.USD <= 0 {
		return nil, a.c.Malformed(key, "no usd price for "+id, nil)
	}

	price := *c.USD
	change, pct := 0.0, 0.0
	if c.USD24hChange != nil {
		pct = *c.USD24hChange
		// price = prev * (1 + pct/100)
		if denom := 1 + pct/100; denom != 0 {
			change = price - price/denom
		}
	}
	ts := time.Now().UTC()
	if c.LastUpdatedAt > 0 {
		ts = time.Unix(c.LastUpdatedAt, 0).UTC()
	}
	return &provider.Quote{
		Symbol:        strings.ToUpper(strings.TrimSpace(symbol)),
		Price:         price,
		Change:        change,
		ChangePercent: pct,
		Volume:        c.USD24hVol,
		MarketCap:     c.USDMarketCap,
		LastUpdated:   ts,
		Source:        Name,
	}, nil
}
