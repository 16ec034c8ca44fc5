package provider

import "time"

// Provider is a named upstream source and its ordered credential pool.
// Selection, failure marking and reset are the same for every upstream;
// only the data differs.
type Provider struct {
	name string
	keys []Key
}

// NewProvider returns a Provider owning keys in priority order.
func NewProvider(name string, keys ...Key) *Provider {
	return &Provider{name: name, keys: keys}
}

func (p *Provider) Name() string { return p.name }

// Keys returns the credential pool in priority order.
func (p *Provider) Keys() []Key { return p.keys }

// GetCurrentKey returns the first active credential under quota, or nil.
func (p *Provider) GetCurrentKey() Key {
	for _, k := range p.keys {
		if k.Available() {
			return k
		}
	}
	return nil
}

// MarkKeyAsFailed records a failure against the credential holding secret.
func (p *Provider) MarkKeyAsFailed(secret string) {
	for _, k := range p.keys {
		if k.Secret() == secret {
			k.OnFailure()
			return
		}
	}
}

// ResetExpired resets every credential whose last reset is older than
// window and returns how many were reset.
func (p *Provider) ResetExpired(now time.Time, window time.Duration) int {
	n := 0
	for _, k := range p.keys {
		if now.Sub(k.Snapshot().LastReset) > window {
			k.OnReset(now)
			n++
		}
	}
	return n
}

// ResetAll resets every credential unconditionally.
func (p *Provider) ResetAll(now time.Time) {
	for _, k := range p.keys {
		k.OnReset(now)
	}
}
