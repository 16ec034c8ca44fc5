package finnhub

import (
	"context"
	"net/url"
	"strings"
	"time"

	"marketdata/internal/provider"
	"marketdata/internal/provider/upstream"
)

const (
	Name           = "finnhub"
	defaultBaseURL = "https://finnhub.io/api/v1"
)

// Adapter reads /quote. The key travels as the token query parameter.
type Adapter struct {
	c *upstream.Client
}

var _ provider.Adapter = (*Adapter)(nil)

func New(pool *provider.Provider, opts ...upstream.Option) *Adapter {
	return &Adapter{c: upstream.New(Name, defaultBaseURL, pool, opts...)}
}

func (a *Adapter) Name() string { return Name }

// quoteResponse mirrors:
//
//	{"c":261.74,"d":-0.5,"dp":-0.19,"h":263.31,"l":260.68,"o":261.07,"pc":262.24,"t":1727467200}
type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

func (a *Adapter) Fetch(ctx context.Context, symbol, key string) (*provider.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("token", key)

	var body quoteResponse
	if err := a.c.GetJSON(ctx, key, "/quote", q, nil, &body); err != nil {
		return nil, err
	}
	// Unknown symbols come back as 200 with every field zeroed.
	if body.Current == 0 {
		return nil, a.c.Malformed(key, "empty quote for "+symbol, nil)
	}

	ts := time.Now().UTC()
	if body.Timestamp > 0 {
		ts = time.Unix(body.Timestamp, 0).UTC()
	}
	out := &provider.Quote{
		Symbol:        symbol,
		Price:         body.Current,
		Change:        body.Change,
		ChangePercent: body.ChangePercent,
		LastUpdated:   ts,
		Source:        Name,
	}
	if body.High > 0 {
		out.High24h = provider.Float(body.High)
	}
	if body.Low > 0 {
		out.Low24h = provider.Float(body.Low)
	}
	return out, nil
}
