package cart

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Sessions  prometheus.Gauge
	Mutations prometheus.Counter
	Items     prometheus.Histogram
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_cart_sessions",
			Help: "Active cart sessions",
		}),
		Mutations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Cart state changes",
		}),
		Items: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_cart_item_count",
			Help:    "Item count observed after each cart change",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		}),
	}

	reg.MustRegister(m.Sessions, m.Mutations, m.Items)
	return m
}

func (m *Metrics) observe(snap Snapshot) {
	m.Mutations.Inc()
	m.Items.Observe(float64(snap.ItemCount))
}

func (m *Metrics) setSessions(n int) {
	if m == nil {
		return
	}
	m.Sessions.Set(float64(n))
}
