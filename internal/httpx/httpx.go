// Package httpx provides the outbound HTTP client shared by every upstream
// adapter.
package httpx

import (
	"net"
	"net/http"
	"time"
)

const DefaultUserAgent = "marketdata/1.0"

// Doer sends a single HTTP request.
//
//go:generate mockgen -package=httpxmock -destination=httpxmock/doer.go -source=httpx.go Doer
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fills in default request headers and sends through a pooled
// transport. The per-request deadline comes from the caller's context and
// the overall client timeout.
type Client struct {
	http      *http.Client
	userAgent string
	headers   http.Header
}

var _ Doer = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithUserAgent replaces DefaultUserAgent. Empty keeps the default.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithDefaultHeader adds a header sent unless the request already sets it.
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithTransport swaps the pooled transport, mostly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.http.Transport = rt
		}
	}
}

func New(timeout time.Duration, opts ...Option) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: time.Second,
		ResponseHeaderTimeout: timeout,
	}
	c := &Client{
		http:      &http.Client{Timeout: timeout, Transport: transport},
		userAgent: DefaultUserAgent,
		headers:   http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k := range c.headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, c.headers.Get(k))
		}
	}
	return c.http.Do(req)
}
