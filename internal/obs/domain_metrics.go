package obs

import "github.com/prometheus/client_golang/prometheus"

// Calculation outcomes recorded by CartMetrics.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
)

// CartMetrics tracks pricing calculations served by the cart API.
type CartMetrics struct {
	Calculations *prometheus.CounterVec
	ItemsPerCart prometheus.Histogram
}

// NewCartMetrics registers and returns the cart pricing collectors.
func NewCartMetrics(namespace string, reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &CartMetrics{
		Calculations: Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_calculations_total",
			Help:      "Pricing calculations by operation and outcome.",
		}, []string{"operation", "outcome"})),
		ItemsPerCart: Register[prometheus.Histogram](reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cart_items_per_calculation",
			Help:      "Number of line items per cart total calculation.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500},
		})),
	}
}

// Observe records a calculation outcome. A nil receiver is a no-op.
func (m *CartMetrics) Observe(operation, outcome string) {
	if m == nil {
		return
	}
	m.Calculations.WithLabelValues(operation, outcome).Inc()
}

// ObserveItems records the size of a priced cart. A nil receiver is a no-op.
func (m *CartMetrics) ObserveItems(n int) {
	if m == nil {
		return
	}
	m.ItemsPerCart.Observe(float64(n))
}
