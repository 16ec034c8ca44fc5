// Package fetch walks an asset class's fallback chain until one provider
// returns a quote.
package fetch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"marketdata/internal/metrics"
	"marketdata/internal/provider"
)

// Orchestrator tries providers strictly in chain order, makes at most one
// call per provider per fetch, and returns the first success.
type Orchestrator struct {
	registry *provider.Registry
	adapters map[string]provider.Adapter
	metrics  *metrics.Recorder
	logger   zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger; the default is the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithMetrics records dispatch outcomes, skips and exhaustions on m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New returns an Orchestrator. adapters is keyed by provider name.
func New(registry *provider.Registry, adapters map[string]provider.Adapter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		adapters: adapters,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Fetch returns the first quote any provider in class's chain yields. When
// every provider is skipped or fails it returns nil and an
// *provider.ExhaustionError; adapter failures never surface individually.
// If ctx ends first, Fetch stops walking the chain and returns ctx's error
// without dispatching further.
func (o *Orchestrator) Fetch(ctx context.Context, class provider.AssetClass, symbol string) (*provider.Quote, error) {
	lg := o.logger.With().
		Str("fetch_id", uuid.NewString()).
		Str("class", string(class)).
		Str("symbol", symbol).
		Logger()

	chain := o.registry.Chain(class)
	attempts := make([]provider.Attempt, 0, len(chain))
	for _, p := range chain {
		if err := ctx.Err(); err != nil {
			lg.Debug().Err(err).Msg("fetch abandoned")
			return nil, err
		}
		adapter, ok := o.adapters[p.Name()]
		if !ok {
			lg.Debug().Str("provider", p.Name()).Msg("no adapter registered, skipping")
			attempts = append(attempts, provider.Attempt{Provider: p.Name(), Skipped: true})
			continue
		}
		key := p.GetCurrentKey()
		if key == nil {
			o.metrics.ObserveSkip(p.Name())
			lg.Debug().Str("provider", p.Name()).Msg("no eligible key, skipping")
			attempts = append(attempts, provider.Attempt{Provider: p.Name(), Skipped: true})
			continue
		}
		if w, ok := adapter.(provider.Waiter); ok {
			if err := w.Wait(ctx); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				o.metrics.ObserveSkip(p.Name())
				lg.Debug().Err(err).Str("provider", p.Name()).Msg("pacing wait exceeds deadline, skipping")
				attempts = append(attempts, provider.Attempt{Provider: p.Name(), Skipped: true, Err: err})
				continue
			}
		}

		key.OnDispatch()
		start := time.Now()
		q, err := adapter.Fetch(ctx, symbol, key.Secret())
		if err != nil && ctx.Err() != nil {
			lg.Debug().Err(err).Str("provider", p.Name()).Msg("fetch abandoned mid-call")
			return nil, ctx.Err()
		}
		o.metrics.ObserveDispatch(p.Name(), err, time.Since(start))
		if err == nil {
			lg.Debug().Str("provider", p.Name()).Float64("price", q.Price).Msg("quote fetched")
			return q, nil
		}

		lg.Warn().
			Err(err).
			Str("provider", p.Name()).
			Str("key", provider.MaskKey(key.Secret())).
			Str("outcome", metrics.Outcome(err)).
			Msg("provider failed, falling back")
		attempts = append(attempts, provider.Attempt{Provider: p.Name(), Err: err})
	}

	o.metrics.ObserveExhaustion(class)
	exErr := &provider.ExhaustionError{Class: class, Symbol: symbol, Attempts: attempts}
	lg.Warn().Err(exErr).Int("providers", len(chain)).Msg("all providers exhausted")
	return nil, exErr
}

// GetStockPrice fetches symbol through the stocks chain.
func (o *Orchestrator) GetStockPrice(ctx context.Context, symbol string) (*provider.Quote, error) {
	return o.Fetch(ctx, provider.Stocks, symbol)
}

// GetCryptoPrice fetches symbol through the crypto chain.
func (o *Orchestrator) GetCryptoPrice(ctx context.Context, symbol string) (*provider.Quote, error) {
	return o.Fetch(ctx, provider.Crypto, symbol)
}
