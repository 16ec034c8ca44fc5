package provider

import "time"

// ClassStats is the diagnostic view of one asset class chain.
type ClassStats struct {
	Class     AssetClass      `json:"class"`
	Providers []ProviderStats `json:"providers"`
}

// ProviderStats is the diagnostic view of one provider.
type ProviderStats struct {
	Name string     `json:"name"`
	Keys []KeyStats `json:"keys"`
}

// KeyStats never carries the full secret, only a short prefix.
type KeyStats struct {
	KeyPrefix      string    `json:"key_prefix"`
	Active         bool      `json:"active"`
	RequestCount   int64     `json:"request_count"`
	ErrorCount     int64     `json:"error_count"`
	RateLimit      int       `json:"rate_limit"`
	UtilizationPct float64   `json:"utilization_pct"`
	LastReset      time.Time `json:"last_reset"`
}

// PublicStatus is safe to hand to untrusted frontends.
type PublicStatus struct {
	Available  bool `json:"available"`
	ActiveKeys int  `json:"active_keys"`
	TotalKeys  int  `json:"total_keys"`
}

// Stats returns usage for every key of p.
func (p *Provider) Stats() ProviderStats {
	ps := ProviderStats{Name: p.name, Keys: make([]KeyStats, 0, len(p.keys))}
	for _, k := range p.keys {
		s := k.Snapshot()
		util := 0.0
		if s.RateLimit > 0 {
			util = float64(s.RequestCount) / float64(s.RateLimit) * 100
		}
		ps.Keys = append(ps.Keys, KeyStats{
			KeyPrefix:      MaskKey(s.Secret),
			Active:         s.Active,
			RequestCount:   s.RequestCount,
			ErrorCount:     s.ErrorCount,
			RateLimit:      s.RateLimit,
			UtilizationPct: util,
			LastReset:      s.LastReset,
		})
	}
	return ps
}

// Status summarizes p without exposing any key material.
func (p *Provider) Status() PublicStatus {
	st := PublicStatus{TotalKeys: len(p.keys)}
	for _, k := range p.keys {
		if k.Snapshot().Active {
			st.ActiveKeys++
		}
		if k.Available() {
			st.Available = true
		}
	}
	return st
}

// Stats returns the diagnostic snapshot for every chain.
func (r *Registry) Stats() []ClassStats {
	classes := r.classes()
	out := make([]ClassStats, 0, len(classes))
	for _, class := range classes {
		cs := ClassStats{Class: class}
		for _, p := range r.chains[class] {
			cs.Providers = append(cs.Providers, p.Stats())
		}
		out = append(out, cs)
	}
	return out
}

// PublicStatus returns availability per provider name.
func (r *Registry) PublicStatus() map[string]PublicStatus {
	out := make(map[string]PublicStatus)
	for _, p := range r.Providers() {
		out[p.name] = p.Status()
	}
	return out
}

// MaskKey keeps at most 8 characters and at most half of the secret.
func MaskKey(secret string) string {
	n := len(secret) / 2
	if n > 8 {
		n = 8
	}
	return secret[:n] + "..."
}
