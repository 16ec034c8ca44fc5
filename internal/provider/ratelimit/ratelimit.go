package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"marketdata/internal/provider"
)

// Paced wraps an Adapter and spaces out calls to its upstream with a token
// bucket. It implements provider.Waiter: callers Wait for a token before
// dispatching, and Fetch itself never blocks.
type Paced struct {
	A provider.Adapter
	L *rate.Limiter
}

var (
	_ provider.Adapter = (*Paced)(nil)
	_ provider.Waiter  = (*Paced)(nil)
)

// Wrap returns a unchanged when maxPerMinute is not positive.
func Wrap(a provider.Adapter, maxPerMinute, burst int) provider.Adapter {
	if maxPerMinute <= 0 {
		return a
	}
	if burst <= 0 {
		burst = 1
	}
	return &Paced{A: a, L: rate.NewLimiter(rate.Limit(float64(maxPerMinute)/60.0), burst)}
}

func (p *Paced) Name() string { return p.A.Name() }

// Wait blocks until the bucket grants a token. It fails immediately when ctx
// is done or its deadline is closer than the next token.
func (p *Paced) Wait(ctx context.Context) error {
	if p.L == nil {
		return nil
	}
	return p.L.Wait(ctx)
}

func (p *Paced) Fetch(ctx context.Context, symbol, key string) (*provider.Quote, error) {
	return p.A.Fetch(ctx, symbol, key)
}
