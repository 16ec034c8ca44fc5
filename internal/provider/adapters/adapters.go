// Package adapters builds the closed set of upstream adapters by kind.
package adapters

import (
	"fmt"

	"marketdata/internal/provider"
	"marketdata/internal/provider/alphavantage"
	"marketdata/internal/provider/coingecko"
	"marketdata/internal/provider/finnhub"
	"marketdata/internal/provider/fmp"
	"marketdata/internal/provider/polygon"
	"marketdata/internal/provider/upstream"
)

// Kinds lists every upstream wire format this module speaks.
var Kinds = []string{finnhub.Name, polygon.Name, alphavantage.Name, fmp.Name, coingecko.Name}

// Supported reports whether kind has an adapter.
func Supported(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// New returns the adapter for kind bound to pool. aliases is only used by
// crypto adapters.
func New(kind string, pool *provider.Provider, aliases map[string]string, opts ...upstream.Option) (provider.Adapter, error) {
	switch kind {
	case finnhub.Name:
		return finnhub.New(pool, opts...), nil
	case polygon.Name:
		return polygon.New(pool, opts...), nil
	case alphavantage.Name:
		return alphavantage.New(pool, opts...), nil
	case fmp.Name:
		return fmp.New(pool, opts...), nil
	case coingecko.Name:
		return coingecko.New(pool, aliases, opts...), nil
	default:
		return nil, fmt.Errorf("no adapter for provider kind %q", kind)
	}
}
