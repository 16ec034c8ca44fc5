package provider_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketdata/internal/provider"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCredential_DeactivatesAtMaxErrors(t *testing.T) {
	t.Parallel()

	// Arrange: a fresh credential with the default error budget.
	c := provider.NewCredential("secret-key", 10, 0, t0)

	// Act: two failures keep it active.
	c.OnFailure()
	c.OnFailure()
	require.True(t, c.Available())

	// Act: the third failure deactivates it.
	c.OnFailure()

	// Assert
	snap := c.Snapshot()
	require.False(t, snap.Active)
	require.EqualValues(t, 3, snap.ErrorCount)
	require.False(t, c.Available())
}

func TestCredential_QuotaExhaustion(t *testing.T) {
	t.Parallel()

	// Arrange
	c := provider.NewCredential("k", 2, 3, t0)

	// Act
	c.OnDispatch()
	require.True(t, c.Available())
	c.OnDispatch()

	// Assert: still active, but over quota.
	require.True(t, c.Snapshot().Active)
	require.False(t, c.Available())
	require.EqualValues(t, 2, c.Snapshot().RequestCount)
}

func TestCredential_ZeroRateLimitNeverAvailable(t *testing.T) {
	t.Parallel()

	c := provider.NewCredential("k", 0, 3, t0)
	require.False(t, c.Available())
}

func TestCredential_OnResetRestoresState(t *testing.T) {
	t.Parallel()

	// Arrange: an exhausted, deactivated credential.
	c := provider.NewCredential("k", 1, 1, t0)
	c.OnDispatch()
	c.OnFailure()
	require.False(t, c.Available())

	// Act
	later := t0.Add(25 * time.Hour)
	c.OnReset(later)

	// Assert
	snap := c.Snapshot()
	require.True(t, snap.Active)
	require.Zero(t, snap.RequestCount)
	require.Zero(t, snap.ErrorCount)
	require.True(t, snap.LastReset.Equal(later))
	require.True(t, c.Available())
}

func TestCredential_ConcurrentFailureAndResetStayConsistent(t *testing.T) {
	t.Parallel()

	for i := range 2000 {
		// Arrange: one failure away from deactivation.
		c := provider.NewCredential("k", 10, 3, t0)
		c.OnFailure()
		c.OnFailure()

		// Act: the deciding failure races a reset.
		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); c.OnFailure() }()
		go func() { defer wg.Done(); c.OnReset(t0.Add(time.Hour)) }()
		wg.Wait()

		// Assert: an inactive key still carries its failures.
		snap := c.Snapshot()
		require.Truef(t, snap.Active || snap.ErrorCount >= 3,
			"iteration %d: active=%v errors=%d", i, snap.Active, snap.ErrorCount)
	}
}
