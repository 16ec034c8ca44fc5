// Package upstream holds the request plumbing shared by every adapter:
// request construction, status classification, JSON decoding and failure
// attribution to the owning Provider.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"marketdata/internal/httpx"
	"marketdata/internal/provider"
)

const maxBody = 1 << 20

// Client performs calls against one upstream on behalf of one Provider.
type Client struct {
	name    string
	baseURL string
	http    httpx.Doer
	header  http.Header
	pool    *provider.Provider
}

// Option is a configuration option for a Client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(d httpx.Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.http = d
		}
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// New returns a Client for the named upstream. pool receives failure reports.
func New(name, defaultBaseURL string, pool *provider.Provider, opts ...Option) *Client {
	c := &Client{
		name:    name,
		baseURL: defaultBaseURL,
		http:    http.DefaultClient,
		header:  http.Header{},
		pool:    pool,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string    { return c.name }
func (c *Client) BaseURL() string { return c.baseURL }

// Fail attributes err to the credential holding key and returns err.
func (c *Client) Fail(key string, err error) error {
	if c.pool != nil {
		c.pool.MarkKeyAsFailed(key)
	}
	return err
}

// Malformed builds and attributes a MalformedResponseError.
func (c *Client) Malformed(key, reason string, err error) error {
	return c.Fail(key, &provider.MalformedResponseError{Provider: c.name, Reason: reason, Err: err})
}

// RateLimited builds and attributes a RateLimitError.
func (c *Client) RateLimited(key string, status int, reason string) error {
	return c.Fail(key, &provider.RateLimitError{Provider: c.name, Status: status, Reason: reason})
}

// GetJSON issues GET baseURL+path?query with the extra header and decodes a
// 2xx body into out. Every upstream failure is attributed to key before
// returning. When ctx ends first, ctx's error is returned and key is not
// blamed.
func (c *Client) GetJSON(ctx context.Context, key, path string, query url.Values, header http.Header, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return c.Fail(key, &provider.TransportError{Provider: c.name, Err: fmt.Errorf("creating request: %w", err)})
	}
	req.Header = c.header.Clone()
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return c.Fail(key, &provider.TransportError{Provider: c.name, Err: fmt.Errorf("performing request: %w", err)})
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		return c.RateLimited(key, res.StatusCode, strings.TrimSpace(readSnippet(res.Body)))
	case res.StatusCode < 200 || res.StatusCode >= 300:
		return c.Fail(key, &provider.TransportError{
			Provider: c.name,
			Status:   res.StatusCode,
			Err:      errors.New(strings.TrimSpace(readSnippet(res.Body))),
		})
	}

	dec := json.NewDecoder(io.LimitReader(res.Body, maxBody))
	if err := dec.Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return c.Malformed(key, "decoding body", err)
	}
	return nil
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 2<<10))
	return string(b)
}
