package finnhub_test

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"marketdata/internal/httpx/httpxmock"
	"marketdata/internal/provider"
	"marketdata/internal/provider/finnhub"
	"marketdata/internal/provider/upstream"
)

func respond(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestFetch(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	doer := httpxmock.NewMockDoer(ctrl)
	doer.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			// Assert: key travels as the token query parameter.
			require.Equal(t, "/api/v1/quote", req.URL.Path)
			require.Equal(t, "AAPL", req.URL.Query().Get("symbol"))
			require.Equal(t, "fh-key", req.URL.Query().Get("token"))
			return respond(http.StatusOK, `{"c":261.74,"d":-0.5,"dp":-0.19,"h":263.31,"l":260.68,"o":261.07,"pc":262.24,"t":1727467200}`), nil
		}).
		Times(1)

	pool := provider.NewProvider(finnhub.Name, provider.NewCredential("fh-key", 60, 3, time.Now()))
	a := finnhub.New(pool, upstream.WithHTTPClient(doer), upstream.WithBaseURL("http://fh.local/api/v1"))

	// Act
	q, err := a.Fetch(t.Context(), "aapl", "fh-key")

	// Assert
	require.NoError(t, err)
	require.Equal(t, "AAPL", q.Symbol)
	require.InDelta(t, 261.74, q.Price, 1e-9)
	require.InDelta(t, -0.5, q.Change, 1e-9)
	require.InDelta(t, -0.19, q.ChangePercent, 1e-9)
	require.NotNil(t, q.High24h)
	require.InDelta(t, 263.31, *q.High24h, 1e-9)
	require.Nil(t, q.Volume)
	require.Equal(t, time.Unix(1727467200, 0).UTC(), q.LastUpdated)
	require.Equal(t, finnhub.Name, q.Source)
}

func TestFetch_ZeroQuoteIsMalformed(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	doer := httpxmock.NewMockDoer(ctrl)
	doer.EXPECT().Do(gomock.Any()).Return(respond(http.StatusOK, `{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0,"t":0}`), nil)

	cred := provider.NewCredential("fh-key", 60, 3, time.Now())
	a := finnhub.New(provider.NewProvider(finnhub.Name, cred), upstream.WithHTTPClient(doer))

	// Act
	q, err := a.Fetch(t.Context(), "ZZZZ", "fh-key")

	// Assert
	require.Nil(t, q)
	var me *provider.MalformedResponseError
	require.ErrorAs(t, err, &me)
	require.EqualValues(t, 1, cred.Snapshot().ErrorCount)
}
