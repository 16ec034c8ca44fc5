package provider

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMaxErrors is the failure count that deactivates a credential.
const DefaultMaxErrors = 3

// Key is the mutable state of one API credential.
type Key interface {
	Secret() string
	RateLimit() int
	Available() bool
	OnDispatch()
	OnFailure()
	OnReset(now time.Time)
	Snapshot() KeySnapshot
}

// KeySnapshot is a point-in-time copy of a Key's counters.
type KeySnapshot struct {
	Secret       string
	Active       bool
	RequestCount int64
	ErrorCount   int64
	RateLimit    int
	LastReset    time.Time
}

// Credential is the default Key. Each field is individually atomic; the
// check in Available and the increment in OnDispatch are not serialized, so
// concurrent callers may overshoot the rate limit slightly. Deactivation and
// reset are serialized by mu: an inactive key always carries maxErrors
// failures.
type Credential struct {
	secret    string
	rateLimit int
	maxErrors int64

	mu        sync.Mutex // guards the active/errors transitions
	active    atomic.Bool
	requests  atomic.Int64
	errors    atomic.Int64
	lastReset atomic.Int64 // unix nanos
}

var _ Key = (*Credential)(nil)

// NewCredential returns an active credential with zeroed counters.
func NewCredential(secret string, rateLimit, maxErrors int, now time.Time) *Credential {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	c := &Credential{secret: secret, rateLimit: rateLimit, maxErrors: int64(maxErrors)}
	c.OnReset(now)
	return c
}

// Secret returns the raw API key.
func (c *Credential) Secret() string { return c.secret }

// RateLimit is the number of dispatches allowed per quota window.
func (c *Credential) RateLimit() int { return c.rateLimit }

// Available reports whether the credential is active and under quota.
func (c *Credential) Available() bool {
	return c.active.Load() && c.requests.Load() < int64(c.rateLimit)
}

// OnDispatch counts an attempted call, whatever its outcome.
func (c *Credential) OnDispatch() { c.requests.Add(1) }

// OnFailure counts a failure and deactivates the credential at maxErrors.
func (c *Credential) OnFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.errors.Add(1) >= c.maxErrors {
		c.active.Store(false)
	}
}

// OnReset reactivates the credential and zeroes its counters.
func (c *Credential) OnReset(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests.Store(0)
	c.errors.Store(0)
	c.lastReset.Store(now.UnixNano())
	c.active.Store(true)
}

// Snapshot copies the counters. Fields are read one by one, so a snapshot
// taken during a transition may mix old and new values.
func (c *Credential) Snapshot() KeySnapshot {
	return KeySnapshot{
		Secret:       c.secret,
		Active:       c.active.Load(),
		RequestCount: c.requests.Load(),
		ErrorCount:   c.errors.Load(),
		RateLimit:    c.rateLimit,
		LastReset:    time.Unix(0, c.lastReset.Load()),
	}
}
