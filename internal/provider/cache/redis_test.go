package cache_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"marketdata/internal/provider"
	"marketdata/internal/provider/cache"
)

func TestRedisStore_MissThenSave(t *testing.T) {
	t.Parallel()

	// Arrange
	db, mock := redismock.NewClientMock()
	clock := &fakeClock{now: t0}
	f := &countingFetcher{}
	c := cache.New(f,
		cache.WithStore(cache.NewRedisStore(db, "")),
		cache.WithClock(clock.Now),
		cache.WithLogger(zerolog.Nop()),
	)

	want := cache.Entry{
		Quote:     provider.Quote{Symbol: "AAPL", Price: 1, Source: "finnhub", LastUpdated: t0},
		ExpiresAt: t0.Add(cache.DefaultTTL),
	}
	raw, err := json.Marshal(want)
	require.NoError(t, err)

	mock.ExpectGet("quote:AAPL").RedisNil()
	mock.ExpectSet("quote:AAPL", string(raw), cache.DefaultTTL).SetVal("OK")

	// Act
	q, err := c.GetPriceWithCache(t.Context(), "AAPL", provider.Stocks)

	// Assert
	require.NoError(t, err)
	require.Equal(t, "AAPL", q.Symbol)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Hit(t *testing.T) {
	t.Parallel()

	// Arrange
	db, mock := redismock.NewClientMock()
	store := cache.NewRedisStore(db, "px:")
	stored := cache.Entry{
		Quote:     provider.Quote{Symbol: "BTC", Price: 64000, Source: "coingecko", LastUpdated: t0},
		ExpiresAt: t0.Add(time.Minute),
	}
	raw, err := json.Marshal(stored)
	require.NoError(t, err)
	mock.ExpectGet("px:BTC").SetVal(string(raw))

	// Act
	e, ok, err := store.Load(t.Context(), "BTC")

	// Assert
	require.NoError(t, err)
	require.True(t, ok)
	require.InDelta(t, 64000.0, e.Quote.Price, 0)
	require.True(t, e.ExpiresAt.Equal(stored.ExpiresAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_ErrorsSurface(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	store := cache.NewRedisStore(db, "")
	mock.ExpectGet("quote:ETH").SetErr(errors.New("connection reset"))
	mock.ExpectGet("quote:SOL").SetVal("not json")

	_, ok, err := store.Load(t.Context(), "ETH")
	require.Error(t, err)
	require.False(t, ok)

	_, ok, err = store.Load(t.Context(), "SOL")
	require.Error(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
