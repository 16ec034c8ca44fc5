package fmp

import (
	"context"
	"net/url"
	"strings"
	"time"

	"marketdata/internal/provider"
	"marketdata/internal/provider/upstream"
)

const (
	Name           = "fmp"
	defaultBaseURL = "https://financialmodelingprep.com/api/v3"
)

// Adapter reads Financial Modeling Prep /quote/{symbol}.
type Adapter struct {
	c *upstream.Client
}

var _ provider.Adapter = (*Adapter)(nil)

func New(pool *provider.Provider, opts ...upstream.Option) *Adapter {
	return &Adapter{c: upstream.New(Name, defaultBaseURL, pool, opts...)}
}

func (a *Adapter) Name() string { return Name }

type quote struct {
	Symbol            string   `json:"symbol"`
	Price             float64  `json:"price"`
	ChangesPercentage float64  `json:"changesPercentage"`
	Change            float64  `json:"change"`
	DayLow            *float64 `json:"dayLow"`
	DayHigh           *float64 `json:"dayHigh"`
	MarketCap         *float64 `json:"marketCap"`
	Volume            *float64 `json:"volume"`
	Timestamp         int64    `json:"timestamp"`
}

func (a *Adapter) Fetch(ctx context.Context, symbol, key string) (*provider.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	q := url.Values{}
	q.Set("apikey", key)

	var body []quote
	if err := a.c.GetJSON(ctx, key, "/quote/"+url.PathEscape(symbol), q, nil, &body); err != nil {
		return nil, err
	}
	if len(body) == 0 || body[0].Price <= 0 {
		return nil, a.c.Malformed(key, "empty quote list for "+symbol, nil)
	}
	r := body[0]

	ts := time.Now().UTC()
	if r.Timestamp > 0 {
		ts = time.Unix(r.Timestamp, 0).UTC()
	}
	return &provider.Quote{
		Symbol:        symbol,
		Price:         r.Price,
		Change:        r.Change,
		ChangePercent: r.ChangesPercentage,
		Volume:        r.Volume,
		MarketCap:     r.MarketCap,
		High24h:       r.DayHigh,
		Low24h:        r.DayLow,
		LastUpdated:   ts,
		Source:        Name,
	}, nil
}
