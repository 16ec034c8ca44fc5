package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()

	require.NoError(t, cfg.Validate())
	require.Equal(t, []string{"finnhub", "polygon", "alphavantage", "fmp"}, cfg.Chains["stocks"])
	require.Equal(t, []string{"coingecko"}, cfg.Chains["crypto"])
	require.Equal(t, 5*time.Minute, cfg.CacheTTL())
	require.Equal(t, time.Hour, cfg.ResetInterval())
	require.Equal(t, 24*time.Hour, cfg.QuotaWindow())
	require.Equal(t, 25, cfg.Providers["alphavantage"].RateLimit)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	// Arrange
	path := writeFile(t, `
server:
  port: "9090"
cache:
  ttl_sec: 60
providers:
  finnhub:
    base_url: http://localhost:1234
    keys:
      - key: fh-1
      - key: fh-2
        rate_limit: 10
chains:
  stocks: [finnhub]
`)

	// Act
	cfg, err := Load(path)

	// Assert
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, time.Minute, cfg.CacheTTL())
	require.Equal(t, 10, cfg.Server.RequestTimeoutSec)
	fh := cfg.Providers["finnhub"]
	require.Equal(t, "finnhub", fh.Kind)
	require.Equal(t, 3600, fh.RateLimit)
	require.Equal(t, []Key{{Key: "fh-1"}, {Key: "fh-2", RateLimit: 10}}, fh.Keys)
	require.Equal(t, []string{"finnhub"}, cfg.Chains["stocks"])
	require.Equal(t, []string{"coingecko"}, cfg.Chains["crypto"])
}

func TestLoad_EnvOverrides(t *testing.T) {
	// Arrange
	path := writeFile(t, "log:\n  level: debug\n")
	t.Setenv("PORT", "7070")
	t.Setenv("CACHE_TTL_SEC", "30")
	t.Setenv("CACHE_BACKEND", "REDIS")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("QUOTA_WINDOW_SEC", "3600")
	t.Setenv("POLYGON_API_KEYS", " pg-1, ,pg-2 ")

	// Act
	cfg, err := Load(path)

	// Assert
	require.NoError(t, err)
	require.Equal(t, "7070", cfg.Server.Port)
	require.Equal(t, 30*time.Second, cfg.CacheTTL())
	require.Equal(t, "redis", cfg.Cache.Backend)
	require.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
	require.Equal(t, time.Hour, cfg.QuotaWindow())
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, []Key{{Key: "pg-1"}, {Key: "pg-2"}}, cfg.Providers["polygon"].Keys)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeFile(t, "server: [unterminated"))

	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	// Arrange
	cfg := Default()
	cfg.Chains["stocks"] = append(cfg.Chains["stocks"], "iex")
	cfg.Providers["custom"] = Provider{Kind: "finnhub", Keys: []Key{{Key: "x", RateLimit: -1}}}
	cfg.Cache.Backend = "memcached"

	// Act
	err := cfg.Validate()

	// Assert
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown provider "iex"`)
	require.Contains(t, err.Error(), "provider custom: rate_limit must be > 0")
	require.Contains(t, err.Error(), "provider custom key 0")
	require.Contains(t, err.Error(), `cache.backend "memcached"`)
}

func TestEnvKeyName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "FINNHUB_API_KEYS", EnvKeyName("finnhub"))
	require.Equal(t, "MY_FEED_API_KEYS", EnvKeyName("my-feed"))
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	// Arrange
	var buf bytes.Buffer
	logger := Log{Level: "warn", Format: "json"}.NewLogger(&buf)

	// Act
	logger.Info().Msg("hidden")
	logger.Warn().Str("provider", "finnhub").Msg("shown")

	// Assert
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "shown", line["message"])
	require.Equal(t, "finnhub", line["provider"])
	require.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestNewLogger_UnknownLevelIsInfo(t *testing.T) {
	t.Parallel()

	logger := Log{Level: "chatty"}.NewLogger(&bytes.Buffer{})

	require.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
