// Package aggregate fans many symbol lookups out concurrently and collects
// the successes into one map.
package aggregate

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"marketdata/internal/provider"
)

// Fetcher resolves one symbol of one asset class.
type Fetcher interface {
	Fetch(ctx context.Context, class provider.AssetClass, symbol string) (*provider.Quote, error)
}

// BatchFetcher starts one lookup per symbol with no concurrency cap.
// Duplicate (class, symbol) pairs within a batch share a single lookup.
type BatchFetcher struct {
	f      Fetcher
	logger zerolog.Logger
}

func NewBatchFetcher(f Fetcher, logger zerolog.Logger) *BatchFetcher {
	return &BatchFetcher{f: f, logger: logger}
}

// BatchFetchPrices returns quotes for the symbols that succeeded. Failed
// symbols are left out; the call itself never fails. Map order is
// unspecified.
func (b *BatchFetcher) BatchFetchPrices(ctx context.Context, stocks, crypto []string) map[string]*provider.Quote {
	var (
		g  errgroup.Group
		sf singleflight.Group
		mu sync.Mutex
	)
	out := make(map[string]*provider.Quote, len(stocks)+len(crypto))

	launch := func(class provider.AssetClass, symbol string) {
		g.Go(func() error {
			v, err, _ := sf.Do(string(class)+":"+symbol, func() (any, error) {
				return b.f.Fetch(ctx, class, symbol)
			})
			if err != nil {
				b.logger.Debug().Err(err).Str("class", string(class)).Str("symbol", symbol).Msg("batch symbol omitted")
				return nil
			}
			q, _ := v.(*provider.Quote)
			if q == nil {
				return nil
			}
			mu.Lock()
			out[symbol] = q
			mu.Unlock()
			return nil
		})
	}
	for _, s := range stocks {
		launch(provider.Stocks, s)
	}
	for _, s := range crypto {
		launch(provider.Crypto, s)
	}
	_ = g.Wait()

	b.logger.Debug().
		Int("requested", len(stocks)+len(crypto)).
		Int("resolved", len(out)).
		Msg("batch fetch finished")
	return out
}
