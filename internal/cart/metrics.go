package cart

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Mutations *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cart_mutations_total",
				Help: "Cart mutations by operation and whether the cart changed.",
			},
			[]string{"op", "changed"},
		),
	}
	reg.MustRegister(m.Mutations)
	return m
}

func (m *Metrics) observe(op string, changed bool) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(op, strconv.FormatBool(changed)).Inc()
}
