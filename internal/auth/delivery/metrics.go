package delivery

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts auth requests by operation and outcome.
type Metrics struct {
	requests *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ireporter",
			Subsystem: "auth",
			Name:      "requests_total",
			Help:      "Auth endpoint requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}
	reg.MustRegister(m.requests)
	return m
}

func (m *Metrics) observe(operation, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(operation, outcome).Inc()
}
