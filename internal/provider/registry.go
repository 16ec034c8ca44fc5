package provider

import (
	"sort"
	"time"
)

// Registry maps each asset class to its ordered fallback chain.
// It is built once at startup and never reconfigured.
type Registry struct {
	chains map[AssetClass][]*Provider
}

// NewRegistry copies chains so later edits by the caller have no effect.
func NewRegistry(chains map[AssetClass][]*Provider) *Registry {
	r := &Registry{chains: make(map[AssetClass][]*Provider, len(chains))}
	for class, ps := range chains {
		r.chains[class] = append([]*Provider(nil), ps...)
	}
	return r
}

// Chain returns the providers for class in priority order.
func (r *Registry) Chain(class AssetClass) []*Provider {
	return r.chains[class]
}

// Providers returns every distinct provider across all chains, in class
// order then chain order.
func (r *Registry) Providers() []*Provider {
	seen := make(map[*Provider]struct{})
	var out []*Provider
	for _, class := range r.classes() {
		for _, p := range r.chains[class] {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// ResetExpired resets stale credentials of every provider once, even when a
// provider sits in several chains.
func (r *Registry) ResetExpired(now time.Time, window time.Duration) int {
	n := 0
	for _, p := range r.Providers() {
		n += p.ResetExpired(now, window)
	}
	return n
}

// classes returns the known classes first, then any others sorted by name.
func (r *Registry) classes() []AssetClass {
	out := make([]AssetClass, 0, len(r.chains))
	known := make(map[AssetClass]struct{}, len(AssetClasses))
	for _, c := range AssetClasses {
		known[c] = struct{}{}
		if _, ok := r.chains[c]; ok {
			out = append(out, c)
		}
	}
	var extra []AssetClass
	for c := range r.chains {
		if _, ok := known[c]; !ok {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}
