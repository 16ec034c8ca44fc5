package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AssetClass groups instruments that share one fallback chain.
type AssetClass string

const (
	Stocks AssetClass = "stocks"
	Crypto AssetClass = "crypto"
	News   AssetClass = "news"
	AI     AssetClass = "ai"
)

// AssetClasses lists every class in a stable order.
var AssetClasses = []AssetClass{Stocks, Crypto, News, AI}

// ParseAssetClass maps a case-insensitive name to an AssetClass.
func ParseAssetClass(s string) (AssetClass, error) {
	c := AssetClass(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AssetClasses {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown asset class %q", s)
}

// Quote is the normalized shape returned by all adapters.
// Optional fields stay nil when the upstream does not supply them.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        *float64  `json:"volume,omitempty"`
	MarketCap     *float64  `json:"market_cap,omitempty"`
	High24h       *float64  `json:"high_24h,omitempty"`
	Low24h        *float64  `json:"low_24h,omitempty"`
	LastUpdated   time.Time `json:"last_updated"`
	Source        string    `json:"source"`
}

// Adapter binds one upstream wire format. Implementations report every
// failure to their Provider before returning it.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, symbol, key string) (*Quote, error)
}

// Waiter is implemented by adapters that pace calls to their upstream.
// Callers Wait before charging a credential for the dispatch; an error
// means no call may be sent within ctx.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Float returns a pointer to v, for optional Quote fields.
func Float(v float64) *float64 { return &v }
