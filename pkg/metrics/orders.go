package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics counts checkout outcomes and status transitions.
type OrderMetrics struct {
	placed      *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders created at checkout, by payment method.",
	}, []string{"payment_method"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status changes applied by admins.",
	}, []string{"to"})
	reg.MustRegister(placed, transitions)
	return &OrderMetrics{placed: placed, transitions: transitions}
}

func (o *OrderMetrics) IncPlaced(method string) {
	if o == nil || o.placed == nil {
		return
	}
	o.placed.WithLabelValues(normalizeLabel(method)).Inc()
}

func (o *OrderMetrics) IncTransition(to string) {
	if o == nil || o.transitions == nil {
		return
	}
	o.transitions.WithLabelValues(normalizeLabel(to)).Inc()
}
