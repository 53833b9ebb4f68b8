package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)
	m.IncMutation("add")
	m.IncMutation("add")
	m.IncPersistRetry("redis")
	m.IncPersistFailure("redis")
	m.IncHydrateFailure("")
	m.SetLiveStores(3)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "cart_mutations_total", "op", "add")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	got, err = fetchCounterValue(mfs, "cart_persist_failures_total", "backend", "redis")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = fetchCounterValue(mfs, "cart_hydrate_failures_total", "reason", "unknown")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	gauge := findMetricFamily(mfs, "cart_live_stores")
	require.NotNil(t, gauge)
	assert.Equal(t, 3.0, gauge.GetMetric()[0].GetGauge().GetValue())
}

func TestOrderMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)
	m.IncPlaced("card")
	m.IncTransition("shipped")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "orders_placed_total", "payment_method", "card")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var cart *CartMetrics
	cart.IncMutation("add")
	cart.SetLiveStores(1)
	NewCartMetrics(nil).IncPersistFailure("sql")
	var orders *OrderMetrics
	orders.IncPlaced("cod")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/api/v1/cart", 200, 0)
	m.Observe("POST", "", 404, 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	family := findMetricFamily(mfs, "http_request_duration_seconds")
	require.NotNil(t, family)
	require.Len(t, family.GetMetric(), 2)

	var routes []string
	for _, metric := range family.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "route" {
				routes = append(routes, label.GetValue())
			}
		}
		assert.Equal(t, uint64(1), metric.GetHistogram().GetSampleCount())
	}
	assert.ElementsMatch(t, []string{"/api/v1/cart", "unmatched"}, routes)

	var nilMetrics *HTTPMetrics
	nilMetrics.Observe("GET", "/", 200, 0)
}
