package alphavantage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"marketdata/internal/provider"
	"marketdata/internal/provider/upstream"
)

const (
	Name           = "alphavantage"
	defaultBaseURL = "https://www.alphavantage.co"
)

// Adapter reads GLOBAL_QUOTE. Alpha Vantage signals an exhausted quota with
// HTTP 200 and an empty or absent "Global Quote" object, usually next to a
// "Note" or "Information" message, so that shape is a rate limit.
type Adapter struct {
	c *upstream.Client
}

var _ provider.Adapter = (*Adapter)(nil)

func New(pool *provider.Provider, opts ...upstream.Option) *Adapter {
	return &Adapter{c: upstream.New(Name, defaultBaseURL, pool, opts...)}
}

func (a *Adapter) Name() string { return Name }

type globalQuoteResponse struct {
	GlobalQuote  map[string]string `json:"Global Quote"`
	Note         string            `json:"Note"`
	Information  string            `json:"Information"`
	ErrorMessage string            `json:"Error Message"`
}

func (a *Adapter) Fetch(ctx context.Context, symbol, key string) (*provider.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", key)

	var body globalQuoteResponse
	if err := a.c.GetJSON(ctx, key, "/query", q, nil, &body); err != nil {
		return nil, err
	}
	if body.ErrorMessage != "" {
		return nil, a.c.Malformed(key, body.ErrorMessage, nil)
	}
	if len(body.GlobalQuote) == 0 {
		reason := strings.TrimSpace(body.Note + " " + body.Information)
		if reason == "" {
			reason = "empty Global Quote"
		}
		return nil, a.c.RateLimited(key, http.StatusOK, reason)
	}

	gq := body.GlobalQuote
	price, err := parseNumber(gq["05. price"])
	if err != nil || price <= 0 {
		return nil, a.c.Malformed(key, "price", err)
	}
	change, err := parseNumber(gq["09. change"])
	if err != nil {
		return nil, a.c.Malformed(key, "change", err)
	}
	pct, err := parseNumber(strings.TrimSuffix(gq["10. change percent"], "%"))
	if err != nil {
		return nil, a.c.Malformed(key, "change percent", err)
	}

	ts := time.Now().UTC()
	if d, err := time.Parse(time.DateOnly, gq["07. latest trading day"]); err == nil {
		ts = d
	}
	out := &provider.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: pct,
		LastUpdated:   ts,
		Source:        Name,
	}
	out.Volume = optional(gq["06. volume"])
	out.High24h = optional(gq["03. high"])
	out.Low24h = optional(gq["04. low"])
	return out, nil
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing value")
	}
	return strconv.ParseFloat(s, 64)
}

// optional returns nil for absent or unparsable fields.
func optional(s string) *float64 {
	v, err := parseNumber(s)
	if err != nil {
		return nil
	}
	return &v
}
