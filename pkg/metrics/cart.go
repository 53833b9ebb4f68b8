package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart mutations and the health of the write-through persistence.
type CartMetrics struct {
	mutations       *prometheus.CounterVec
	persistRetries  *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	hydrateFailures *prometheus.CounterVec
	liveStores      prometheus.Gauge
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations applied, by operation.",
	}, []string{"op"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persist_retries_total",
		Help: "Cart snapshot saves that needed a second attempt.",
	}, []string{"backend"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persist_failures_total",
		Help: "Cart snapshot saves that failed after retrying.",
	}, []string{"backend"})
	hydrate := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_hydrate_failures_total",
		Help: "Cart snapshots that could not be read or decoded and were reset to empty.",
	}, []string{"reason"})
	live := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_live_stores",
		Help: "Cart stores currently held in memory.",
	})
	reg.MustRegister(mutations, retries, failures, hydrate, live)
	return &CartMetrics{
		mutations:       mutations,
		persistRetries:  retries,
		persistFailures: failures,
		hydrateFailures: hydrate,
		liveStores:      live,
	}
}

func (c *CartMetrics) IncMutation(op string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

func (c *CartMetrics) IncPersistRetry(backend string) {
	if c == nil || c.persistRetries == nil {
		return
	}
	c.persistRetries.WithLabelValues(normalizeLabel(backend)).Inc()
}

func (c *CartMetrics) IncPersistFailure(backend string) {
	if c == nil || c.persistFailures == nil {
		return
	}
	c.persistFailures.WithLabelValues(normalizeLabel(backend)).Inc()
}

func (c *CartMetrics) IncHydrateFailure(reason string) {
	if c == nil || c.hydrateFailures == nil {
		return
	}
	c.hydrateFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (c *CartMetrics) SetLiveStores(n int) {
	if c == nil || c.liveStores == nil {
		return
	}
	c.liveStores.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
