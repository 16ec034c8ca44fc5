package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"marketdata/internal/provider"
)

const namespace = "marketdata"

// Recorder holds the Prometheus collectors for the acquisition layer.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	Dispatches    *prometheus.CounterVec
	Skips         *prometheus.CounterVec
	Exhaustions   *prometheus.CounterVec
	CacheLookups  *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		Dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatches_total",
				Help:      "Upstream calls by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		Skips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_skips_total",
				Help:      "Providers skipped because no key was eligible",
			},
			[]string{"provider"},
		),
		Exhaustions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exhaustions_total",
				Help:      "Fetches where every provider in the chain was skipped or failed",
			},
			[]string{"class"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Price cache lookups by result",
			},
			[]string{"result"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_duration_seconds",
				Help:      "Latency of upstream calls",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"provider"},
		),
	}
	if reg != nil {
		reg.MustRegister(r.Dispatches, r.Skips, r.Exhaustions, r.CacheLookups, r.FetchDuration)
	}
	return r
}

// Outcome labels an adapter result.
func Outcome(err error) string {
	var (
		te *provider.TransportError
		re *provider.RateLimitError
		me *provider.MalformedResponseError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &re):
		return "rate_limit"
	case errors.As(err, &me):
		return "malformed"
	case errors.As(err, &te):
		return "transport"
	default:
		return "other"
	}
}

func (r *Recorder) ObserveDispatch(providerName string, err error, d time.Duration) {
	if r == nil {
		return
	}
	r.Dispatches.WithLabelValues(providerName, Outcome(err)).Inc()
	r.FetchDuration.WithLabelValues(providerName).Observe(d.Seconds())
}

func (r *Recorder) ObserveSkip(providerName string) {
	if r == nil {
		return
	}
	r.Skips.WithLabelValues(providerName).Inc()
}

func (r *Recorder) ObserveExhaustion(class provider.AssetClass) {
	if r == nil {
		return
	}
	r.Exhaustions.WithLabelValues(string(class)).Inc()
}

func (r *Recorder) ObserveCache(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.CacheLookups.WithLabelValues(result).Inc()
}
