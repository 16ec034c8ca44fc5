package aggregate_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"marketdata/internal/aggregate"
	"marketdata/internal/provider"
)

type mapFetcher struct {
	quotes map[string]float64
	delay  time.Duration
	calls  atomic.Int64

	mu      sync.Mutex
	classes map[string]provider.AssetClass
}

func (m *mapFetcher) Fetch(_ context.Context, class provider.AssetClass, symbol string) (*provider.Quote, error) {
	m.calls.Add(1)
	m.mu.Lock()
	if m.classes == nil {
		m.classes = map[string]provider.AssetClass{}
	}
	m.classes[symbol] = class
	m.mu.Unlock()
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	p, ok := m.quotes[symbol]
	if !ok {
		return nil, &provider.ExhaustionError{Class: class, Symbol: symbol}
	}
	return &provider.Quote{Symbol: symbol, Price: p}, nil
}

func TestBatchFetchPrices_OmitsFailures(t *testing.T) {
	t.Parallel()

	// Arrange
	f := &mapFetcher{quotes: map[string]float64{"AAPL": 230.1, "BTC": 64000}}
	b := aggregate.NewBatchFetcher(f, zerolog.Nop())

	// Act
	got := b.BatchFetchPrices(t.Context(), []string{"AAPL", "BADSYM"}, []string{"BTC"})

	// Assert
	require.Len(t, got, 2)
	require.InDelta(t, 230.1, got["AAPL"].Price, 0)
	require.InDelta(t, 64000.0, got["BTC"].Price, 0)
	require.NotContains(t, got, "BADSYM")
	require.Equal(t, provider.Stocks, f.classes["AAPL"])
	require.Equal(t, provider.Crypto, f.classes["BTC"])
}

func TestBatchFetchPrices_Empty(t *testing.T) {
	t.Parallel()

	f := &mapFetcher{}
	got := aggregate.NewBatchFetcher(f, zerolog.Nop()).BatchFetchPrices(t.Context(), nil, nil)

	require.Empty(t, got)
	require.Zero(t, f.calls.Load())
}

func TestBatchFetchPrices_CoalescesDuplicates(t *testing.T) {
	t.Parallel()

	// Arrange: a slow fetch so duplicates overlap.
	f := &mapFetcher{quotes: map[string]float64{"ETH": 3000}, delay: 50 * time.Millisecond}
	b := aggregate.NewBatchFetcher(f, zerolog.Nop())

	// Act
	got := b.BatchFetchPrices(t.Context(), nil, []string{"ETH", "ETH", "ETH"})

	// Assert
	require.Len(t, got, 1)
	require.EqualValues(t, 1, f.calls.Load())
}

func TestBatchFetchPrices_RunsConcurrently(t *testing.T) {
	t.Parallel()

	// Arrange
	syms := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	quotes := map[string]float64{}
	for i, s := range syms {
		quotes[s] = float64(i + 1)
	}
	f := &mapFetcher{quotes: quotes, delay: 100 * time.Millisecond}
	b := aggregate.NewBatchFetcher(f, zerolog.Nop())

	// Act
	start := time.Now()
	got := b.BatchFetchPrices(t.Context(), syms, nil)

	// Assert: wall time tracks the slowest lookup, not the sum.
	require.Len(t, got, len(syms))
	require.Less(t, time.Since(start), 700*time.Millisecond)
}
