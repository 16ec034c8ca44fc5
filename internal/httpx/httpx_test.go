package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketdata/internal/httpx"
)

func TestClient_DefaultHeaders(t *testing.T) {
	t.Parallel()

	// Arrange
	seen := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	c := httpx.New(time.Second,
		httpx.WithUserAgent("marketdata-test/2"),
		httpx.WithDefaultHeader("X-Env", "test"),
		httpx.WithTransport(srv.Client().Transport),
	)
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)
	req.Header.Set("X-Env", "caller")

	// Act
	res, err := c.Do(req)

	// Assert: defaults never override what the caller set.
	require.NoError(t, err)
	require.NoError(t, res.Body.Close())
	got := <-seen
	require.Equal(t, "marketdata-test/2", got.Get("User-Agent"))
	require.Equal(t, "caller", got.Get("X-Env"))
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)
	c := httpx.New(20 * time.Millisecond)
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)

	// Act
	_, err = c.Do(req)

	// Assert
	require.Error(t, err)
}
