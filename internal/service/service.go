// Package service wires the credential registry, adapters, orchestrator,
// cache, batch fetcher and reset scheduler from static configuration and
// exposes the operations internal callers use.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"marketdata/internal/aggregate"
	"marketdata/internal/config"
	"marketdata/internal/fetch"
	"marketdata/internal/httpx"
	"marketdata/internal/metrics"
	"marketdata/internal/provider"
	"marketdata/internal/provider/adapters"
	"marketdata/internal/provider/cache"
	"marketdata/internal/provider/coingecko"
	"marketdata/internal/provider/ratelimit"
	"marketdata/internal/provider/upstream"
	"marketdata/internal/scheduler"
)

// Options carries process-level collaborators. Zero values are replaced by
// defaults.
type Options struct {
	Logger     *zerolog.Logger
	Registerer prometheus.Registerer
	HTTPClient httpx.Doer
	Now        func() time.Time
}

type Service struct {
	registry     *provider.Registry
	orchestrator *fetch.Orchestrator
	cache        *cache.PriceCache
	batch        *aggregate.BatchFetcher
	scheduler    *scheduler.ResetScheduler
	redis        *redis.Client
	logger       zerolog.Logger
}

// New builds a Service. Providers in the stocks and crypto chains must have
// an adapter; news and ai providers only hold credential pools.
func New(cfg config.Config, opts Options) (*Service, error) {
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = httpx.New(cfg.RequestTimeout(), httpx.WithUserAgent(cfg.Server.UserAgent))
	}

	pools := buildPools(cfg, now())
	chains := make(map[provider.AssetClass][]*provider.Provider, len(cfg.Chains))
	for class, names := range cfg.Chains {
		ac, err := provider.ParseAssetClass(class)
		if err != nil {
			return nil, fmt.Errorf("chains: %w", err)
		}
		for _, name := range names {
			p, ok := pools[name]
			if !ok {
				return nil, fmt.Errorf("chain %s: unknown provider %q", class, name)
			}
			chains[ac] = append(chains[ac], p)
		}
	}
	registry := provider.NewRegistry(chains)

	aliases := make(map[string]string, len(coingecko.DefaultAliases)+len(cfg.CryptoAliases))
	for k, v := range coingecko.DefaultAliases {
		aliases[k] = v
	}
	for k, v := range cfg.CryptoAliases {
		aliases[strings.ToUpper(k)] = v
	}

	adapterSet := make(map[string]provider.Adapter)
	for _, class := range []provider.AssetClass{provider.Stocks, provider.Crypto} {
		for _, p := range registry.Chain(class) {
			if _, done := adapterSet[p.Name()]; done {
				continue
			}
			pc := cfg.Providers[p.Name()]
			a, err := adapters.New(pc.Kind, p, aliases,
				upstream.WithBaseURL(pc.BaseURL),
				upstream.WithHTTPClient(hc),
			)
			if err != nil {
				return nil, fmt.Errorf("provider %s: %w", p.Name(), err)
			}
			adapterSet[p.Name()] = ratelimit.Wrap(a, pc.MaxRPM, pc.Burst)
		}
	}

	var rec *metrics.Recorder
	if opts.Registerer != nil {
		rec = metrics.New(opts.Registerer)
		opts.Registerer.MustRegister(metrics.NewKeyCollector(registry))
	}

	s := &Service{registry: registry, logger: logger}
	s.orchestrator = fetch.New(registry, adapterSet, fetch.WithLogger(logger), fetch.WithMetrics(rec))

	store, err := s.buildStore(cfg)
	if err != nil {
		return nil, err
	}
	s.cache = cache.New(s.orchestrator,
		cache.WithStore(store),
		cache.WithTTL(cfg.CacheTTL()),
		cache.WithClock(now),
		cache.WithMetrics(rec),
		cache.WithLogger(logger),
	)
	s.batch = aggregate.NewBatchFetcher(s.cache, logger)
	s.scheduler = scheduler.New(scheduler.Config{
		Interval:    cfg.ResetInterval(),
		QuotaWindow: cfg.QuotaWindow(),
	}, registry, logger)
	return s, nil
}

func buildPools(cfg config.Config, now time.Time) map[string]*provider.Provider {
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	pools := make(map[string]*provider.Provider, len(names))
	for _, name := range names {
		pc := cfg.Providers[name]
		keys := make([]provider.Key, 0, len(pc.Keys))
		for _, k := range pc.Keys {
			if k.Key == "" {
				continue
			}
			limit := k.RateLimit
			if limit <= 0 {
				limit = pc.RateLimit
			}
			keys = append(keys, provider.NewCredential(k.Key, limit, cfg.MaxErrors, now))
		}
		pools[name] = provider.NewProvider(name, keys...)
	}
	return pools
}

func (s *Service) buildStore(cfg config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "", "memory":
		return cache.NewMemoryStore(cfg.Cache.MaxItems), nil
	case "redis":
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		return cache.NewRedisStore(s.redis, cfg.Cache.Redis.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// Start launches the reset scheduler.
func (s *Service) Start(ctx context.Context) error {
	return s.scheduler.Start(ctx)
}

// Close stops the reset scheduler and releases the redis client, if any.
func (s *Service) Close(ctx context.Context) error {
	err := s.scheduler.Stop(ctx)
	if s.redis != nil {
		if cerr := s.redis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (s *Service) Registry() *provider.Registry { return s.registry }

func (s *Service) GetStockPrice(ctx context.Context, symbol string) (*provider.Quote, error) {
	return s.orchestrator.GetStockPrice(ctx, symbol)
}

func (s *Service) GetCryptoPrice(ctx context.Context, symbol string) (*provider.Quote, error) {
	return s.orchestrator.GetCryptoPrice(ctx, symbol)
}

func (s *Service) GetPriceWithCache(ctx context.Context, symbol string, class provider.AssetClass) (*provider.Quote, error) {
	return s.cache.GetPriceWithCache(ctx, symbol, class)
}

func (s *Service) BatchFetchPrices(ctx context.Context, stocks, crypto []string) map[string]*provider.Quote {
	return s.batch.BatchFetchPrices(ctx, stocks, crypto)
}

// GetAPIStats is the diagnostic snapshot; keys are truncated to a prefix.
func (s *Service) GetAPIStats() []provider.ClassStats {
	return s.registry.Stats()
}

// GetPublicAPIStatus exposes availability and key counts only.
func (s *Service) GetPublicAPIStatus() map[string]provider.PublicStatus {
	return s.registry.PublicStatus()
}
