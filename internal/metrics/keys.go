package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"marketdata/internal/provider"
)

// KeyCollector exports credential counters at scrape time. Keys are
// labeled by their position in the pool, never by key material.
type KeyCollector struct {
	reg *provider.Registry

	requests *prometheus.Desc
	errors   *prometheus.Desc
	active   *prometheus.Desc
}

var _ prometheus.Collector = (*KeyCollector)(nil)

func NewKeyCollector(reg *provider.Registry) *KeyCollector {
	labels := []string{"provider", "slot"}
	return &KeyCollector{
		reg:      reg,
		requests: prometheus.NewDesc(namespace+"_key_requests", "Dispatches since the key's last reset", labels, nil),
		errors:   prometheus.NewDesc(namespace+"_key_errors", "Failures since the key's last reset", labels, nil),
		active:   prometheus.NewDesc(namespace+"_key_active", "1 when the key is active", labels, nil),
	}
}

func (c *KeyCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.requests
	ch <- c.errors
	ch <- c.active
}

func (c *KeyCollector) Collect(ch chan<- prometheus.Metric) {
	for _, p := range c.reg.Providers() {
		for i, ks := range p.Stats().Keys {
			slot := strconv.Itoa(i)
			active := 0.0
			if ks.Active {
				active = 1
			}
			ch <- prometheus.MustNewConstMetric(c.requests, prometheus.GaugeValue, float64(ks.RequestCount), p.Name(), slot)
			ch <- prometheus.MustNewConstMetric(c.errors, prometheus.GaugeValue, float64(ks.ErrorCount), p.Name(), slot)
			ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, active, p.Name(), slot)
		}
	}
}
