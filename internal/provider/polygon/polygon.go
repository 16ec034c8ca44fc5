package polygon

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
	Name           = "polygon"
	defaultBaseURL = "https://api.polygon.io"
)

// Adapter reads the previous-day aggregate bar and derives the change from
// open and close, which the endpoint does not supply directly.
type Adapter struct {
	c *upstream.Client
}

var _ provider.Adapter = (*Adapter)(nil)

func New(pool *provider.Provider, opts ...upstream.Option) *Adapter {
	return &Adapter{c: upstream.New(Name, defaultBaseURL, pool, opts...)}
}

func (a *Adapter) Name() string { return Name }

type aggsResponse struct {
	Ticker       string `json:"ticker"`
	Status       string `json:"status"`
	ResultsCount int    `json:"resultsCount"`
	Results      []bar  `json:"results"`
}

type bar struct {
	Open      float64  `json:"o"`
	High      float64  `json:"h"`
	Low       float64  `json:"l"`
	Close     float64  `json:"c"`
	Volume    *float64 `json:"v"`
	Timestamp int64    `json:"t"` // ms
}

func (a *Adapter) Fetch(ctx context.Context, symbol, key string) (*provider.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	q := url.Values{}
	q.Set("adjusted", "true")
	h := http.Header{}
	h.Set("Authorization", "Bearer "+key)

	var body aggsResponse
	if err := a.c.GetJSON(ctx, key, "/v2/aggs/ticker/"+url.PathEscape(symbol)+"/prev", q, h, &body); err != nil {
		return nil, err
	}
	if len(body.Results) == 0 {
		return nil, a.c.Malformed(key, "no results for "+symbol, nil)
	}
	b := body.Results[0]
	if b.Close <= 0 {
		return nil, a.c.Malformed(key, "missing close for "+symbol, nil)
	}

	change := 0.0
	pct := 0.0
	if b.Open > 0 {
		change = b.Close - b.Open
		pct = change / b.Open * 100
	}
	ts := time.Now().UTC()
	if b.Timestamp > 0 {
		ts = time.UnixMilli(b.Timestamp).UTC()
	}
	out := &provider.Quote{
		Symbol:        symbol,
		Price:         b.Close,
		Change:        change,
		ChangePercent: pct,
		Volume:        b.Volume,
		LastUpdated:   ts,
		Source:        Name,
	}
	if b.High > 0 {
		out.High24h = provider.Float(b.High)
	}
	if b.Low > 0 {
		out.Low24h = provider.Float(b.Low)
	}
	return out, nil
}
