package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"marketdata/internal/metrics"
	"marketdata/internal/provider"
)

// DefaultTTL is how long a fetched quote is served without a network call.
const DefaultTTL = 5 * time.Minute

// Fetcher resolves a quote on a cache miss.
type Fetcher interface {
	Fetch(ctx context.Context, class provider.AssetClass, symbol string) (*provider.Quote, error)
}

// Entry is a cached quote and the instant it stops being served.
type Entry struct {
	Quote     provider.Quote `json:"quote"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Store persists entries by symbol. Expiry is decided by PriceCache, so a
// store may return stale entries.
type Store interface {
	Load(ctx context.Context, symbol string) (Entry, bool, error)
	Save(ctx context.Context, symbol string, e Entry, ttl time.Duration) error
}

// PriceCache sits in front of a Fetcher. Entries are keyed by symbol only,
// regardless of asset class. Only successful fetches are stored.
type PriceCache struct {
	fetcher Fetcher
	store   Store
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Recorder
	logger  zerolog.Logger
}

// Option configures a PriceCache.
type Option func(*PriceCache)

func WithStore(s Store) Option { return func(c *PriceCache) { c.store = s } }
func WithTTL(d time.Duration) Option { return func(c *PriceCache) { c.ttl = d } }
func WithClock(now func() time.Time) Option { return func(c *PriceCache) { c.now = now } }
func WithMetrics(m *metrics.Recorder) Option { return func(c *PriceCache) { c.metrics = m } }
func WithLogger(l zerolog.Logger) Option { return func(c *PriceCache) { c.logger = l } }

// New returns a PriceCache backed by a MemoryStore unless WithStore is given.
func New(fetcher Fetcher, opts ...Option) *PriceCache {
	c := &PriceCache{
		fetcher: fetcher,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = NewMemoryStore(0)
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	return c
}

// Get returns the cached quote only while it has not expired. Store errors
// count as a miss.
func (c *PriceCache) Get(ctx context.Context, symbol string) (*provider.Quote, bool) {
	e, ok, err := c.store.Load(ctx, symbol)
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("cache load failed")
		return nil, false
	}
	if !ok || !e.ExpiresAt.After(c.now()) {
		return nil, false
	}
	q := e.Quote
	return &q, true
}

// Put stores q until now+TTL, overwriting any previous entry.
func (c *PriceCache) Put(ctx context.Context, symbol string, q *provider.Quote) {
	if q == nil {
		return
	}
	e := Entry{Quote: *q, ExpiresAt: c.now().Add(c.ttl)}
	if err := c.store.Save(ctx, symbol, e, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("cache save failed")
	}
}

// GetPriceWithCache serves from cache when fresh, otherwise fetches and
// stores a successful result. Concurrent misses may both fetch; the last
// write wins.
func (c *PriceCache) GetPriceWithCache(ctx context.Context, symbol string, class provider.AssetClass) (*provider.Quote, error) {
	if q, ok := c.Get(ctx, symbol); ok {
		c.metrics.ObserveCache(true)
		c.logger.Debug().Str("symbol", symbol).Msg("cache hit")
		return q, nil
	}
	c.metrics.ObserveCache(false)
	c.logger.Debug().Str("symbol", symbol).Str("class", string(class)).Msg("cache miss")

	q, err := c.fetcher.Fetch(ctx, class, symbol)
	if err != nil {
		return nil, err
	}
	if q != nil {
		c.Put(ctx, symbol, q)
	}
	return q, nil
}

// Fetch lets a PriceCache stand in wherever a Fetcher is expected.
func (c *PriceCache) Fetch(ctx context.Context, class provider.AssetClass, symbol string) (*provider.Quote, error) {
	return c.GetPriceWithCache(ctx, symbol, class)
}
