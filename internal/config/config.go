package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Port              string `yaml:"port"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
	UserAgent         string `yaml:"user_agent"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type Cache struct {
	TTLSeconds int    `yaml:"ttl_sec"`
	Backend    string `yaml:"backend"` // memory | redis
	MaxItems   int    `yaml:"max_items"`
	Redis      Redis  `yaml:"redis"`
}

type Scheduler struct {
	IntervalSec    int `yaml:"interval_sec"`
	QuotaWindowSec int `yaml:"quota_window_sec"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

// Key is one credential. A zero RateLimit inherits the provider's.
type Key struct {
	Key       string `yaml:"key"`
	RateLimit int    `yaml:"rate_limit"`
}

type Provider struct {
	Kind      string `yaml:"kind"`
	BaseURL   string `yaml:"base_url"`
	RateLimit int    `yaml:"rate_limit"`
	MaxRPM    int    `yaml:"max_rpm"`
	Burst     int    `yaml:"burst"`
	Keys      []Key  `yaml:"keys"`
}

type Config struct {
	Server        Server              `yaml:"server"`
	Cache         Cache               `yaml:"cache"`
	Scheduler     Scheduler           `yaml:"scheduler"`
	Log           Log                 `yaml:"log"`
	MaxErrors     int                 `yaml:"max_errors"`
	Providers     map[string]Provider `yaml:"providers"`
	Chains        map[string][]string `yaml:"chains"`
	CryptoAliases map[string]string   `yaml:"crypto_aliases"`
}

func defaultProviders() map[string]Provider {
	return map[string]Provider{
		"finnhub":      {Kind: "finnhub", RateLimit: 3600},
		"polygon":      {Kind: "polygon", RateLimit: 300},
		"alphavantage": {Kind: "alphavantage", RateLimit: 25},
		"fmp":          {Kind: "fmp", RateLimit: 250},
		"coingecko":    {Kind: "coingecko", RateLimit: 10000},
		"newsapi":      {Kind: "newsapi", RateLimit: 100},
		"openai":       {Kind: "openai", RateLimit: 1000},
	}
}

func Default() Config {
	return Config{
		Server:    Server{Port: "8080", RequestTimeoutSec: 10, UserAgent: "marketdata/1.0"},
		Cache:     Cache{TTLSeconds: 300, Backend: "memory", MaxItems: 10000, Redis: Redis{Addr: "localhost:6379", Prefix: "quote:"}},
		Scheduler: Scheduler{IntervalSec: 3600, QuotaWindowSec: 86400},
		Log:       Log{Level: "info", Format: "json"},
		MaxErrors: 3,
		Providers: defaultProviders(),
		Chains: map[string][]string{
			"stocks": {"finnhub", "polygon", "alphavantage", "fmp"},
			"crypto": {"coingecko"},
			"news":   {"newsapi"},
			"ai":     {"openai"},
		},
	}
}

// Load reads YAML config from path. If path is empty and config.yaml exists
// in the working directory it is used; otherwise defaults apply.
// Environment variables override select fields, including API keys.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	cfg.applyDefaults()
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyDefaults fills fields a partial file left zero.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Server.Port == "" {
		c.Server.Port = def.Server.Port
	}
	if c.Server.RequestTimeoutSec <= 0 {
		c.Server.RequestTimeoutSec = def.Server.RequestTimeoutSec
	}
	if c.Server.UserAgent == "" {
		c.Server.UserAgent = def.Server.UserAgent
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = def.Cache.TTLSeconds
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = def.Cache.Backend
	}
	if c.Scheduler.IntervalSec <= 0 {
		c.Scheduler.IntervalSec = def.Scheduler.IntervalSec
	}
	if c.Scheduler.QuotaWindowSec <= 0 {
		c.Scheduler.QuotaWindowSec = def.Scheduler.QuotaWindowSec
	}
	if c.MaxErrors <= 0 {
		c.MaxErrors = def.MaxErrors
	}
	if c.Providers == nil {
		c.Providers = map[string]Provider{}
	}
	for name, p := range c.Providers {
		d, known := def.Providers[name]
		if p.Kind == "" {
			p.Kind = name
		}
		if known && p.RateLimit <= 0 {
			p.RateLimit = d.RateLimit
		}
		c.Providers[name] = p
	}
}

// Validate rejects chains naming unknown providers and non-positive rate limits.
func (c Config) Validate() error {
	var errs []error
	for _, name := range sortedKeys(c.Providers) {
		p := c.Providers[name]
		if p.RateLimit <= 0 {
			errs = append(errs, fmt.Errorf("provider %s: rate_limit must be > 0", name))
		}
		for i, k := range p.Keys {
			if k.RateLimit < 0 {
				errs = append(errs, fmt.Errorf("provider %s key %d: rate_limit must be >= 0", name, i))
			}
		}
	}
	for _, class := range sortedKeys(c.Chains) {
		for _, name := range c.Chains[class] {
			if _, ok := c.Providers[name]; !ok {
				errs = append(errs, fmt.Errorf("chain %s: unknown provider %q", class, name))
			}
		}
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q: want memory or redis", c.Cache.Backend))
	}
	return errors.Join(errs...)
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSec) * time.Second
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func (c Config) ResetInterval() time.Duration {
	return time.Duration(c.Scheduler.IntervalSec) * time.Second
}

func (c Config) QuotaWindow() time.Duration {
	return time.Duration(c.Scheduler.QuotaWindowSec) * time.Second
}

// EnvKeyName is the variable holding a provider's comma-separated API keys,
// e.g. FINNHUB_API_KEYS.
func EnvKeyName(provider string) string {
	return strings.ToUpper(strings.ReplaceAll(provider, "-", "_")) + "_API_KEYS"
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if x, ok := envInt("REQUEST_TIMEOUT_SEC"); ok && x > 0 {
		cfg.Server.RequestTimeoutSec = x
	}
	if x, ok := envInt("CACHE_TTL_SEC"); ok && x > 0 {
		cfg.Cache.TTLSeconds = x
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}
	if x, ok := envInt("RESET_INTERVAL_SEC"); ok && x > 0 {
		cfg.Scheduler.IntervalSec = x
	}
	if x, ok := envInt("QUOTA_WINDOW_SEC"); ok && x > 0 {
		cfg.Scheduler.QuotaWindowSec = x
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	for name, p := range cfg.Providers {
		v := os.Getenv(EnvKeyName(name))
		if v == "" {
			continue
		}
		keys := make([]Key, 0)
		for _, k := range splitCSV(v) {
			keys = append(keys, Key{Key: k})
		}
		p.Keys = keys
		cfg.Providers[name] = p
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	var x int
	if _, err := fmt.Sscanf(v, "%d", &x); err != nil {
		return 0, false
	}
	return x, true
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
