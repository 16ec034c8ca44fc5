package provider_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"marketdata/internal/provider"
)

func TestMaskKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"abcdefghijklmnopqrstuvwxyz", "abcdefgh..."},
		{"abcdef", "abc..."},
		{"a", "..."},
		{"", "..."},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, provider.MaskKey(tt.in), tt.in)
	}
}

func TestRegistry_StatsNeverExposeSecrets(t *testing.T) {
	t.Parallel()

	// Arrange
	secret := "sk_live_0123456789abcdef"
	c := provider.NewCredential(secret, 4, 3, t0)
	c.OnDispatch()
	r := provider.NewRegistry(map[provider.AssetClass][]*provider.Provider{
		provider.Stocks: {provider.NewProvider("finnhub", c)},
	})

	// Act
	stats := r.Stats()
	raw, err := json.Marshal(stats)
	require.NoError(t, err)

	// Assert
	require.NotContains(t, string(raw), secret)
	require.Len(t, stats, 1)
	ks := stats[0].Providers[0].Keys[0]
	require.Equal(t, "sk_live_...", ks.KeyPrefix)
	require.EqualValues(t, 1, ks.RequestCount)
	require.InDelta(t, 25.0, ks.UtilizationPct, 1e-9)
}

func TestRegistry_PublicStatus(t *testing.T) {
	t.Parallel()

	// Arrange: finnhub has one dead and one live key, polygon has none.
	dead := provider.NewCredential("dead", 5, 1, t0)
	dead.OnFailure()
	live := provider.NewCredential("live", 5, 3, t0)
	r := provider.NewRegistry(map[provider.AssetClass][]*provider.Provider{
		provider.Stocks: {provider.NewProvider("finnhub", dead, live), provider.NewProvider("polygon")},
	})

	// Act
	st := r.PublicStatus()

	// Assert
	require.Equal(t, provider.PublicStatus{Available: true, ActiveKeys: 1, TotalKeys: 2}, st["finnhub"])
	require.Equal(t, provider.PublicStatus{}, st["polygon"])
}

func TestExhaustionError_IsErrExhausted(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrapped: %w", &provider.ExhaustionError{
		Class:  provider.Stocks,
		Symbol: "ZZZZ",
		Attempts: []provider.Attempt{
			{Provider: "finnhub", Skipped: true},
			{Provider: "polygon", Err: &provider.RateLimitError{Provider: "polygon", Status: 429, Reason: "slow down"}},
		},
	})

	require.ErrorIs(t, err, provider.ErrExhausted)
	require.Contains(t, err.Error(), "finnhub: no eligible key")
	require.Contains(t, err.Error(), "polygon: rate limited")

	var rl *provider.RateLimitError
	require.False(t, errors.As(err, &rl))
}
