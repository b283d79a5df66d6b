package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the authorization module.
type Metrics struct {
	// Authorization outcomes by operation and decision
	Decisions *prometheus.CounterVec

	// Current number of agents with a mapping
	MappedAgents prometheus.Gauge
}

// New creates a new Metrics instance with all authorization module metrics registered.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custos_authorization_decisions_total",
			Help: "Total authorization decisions by operation and outcome",
		}, []string{"operation", "decision"}), // operation: "check", "update"

		MappedAgents: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "custos_authorization_mapped_agents",
			Help: "Number of agents with an authorized tool mapping",
		}),
	}
}

// IncrementDecision records one authorization outcome.
func (m *Metrics) IncrementDecision(operation, decision string) {
	if m != nil {
		m.Decisions.WithLabelValues(operation, decision).Inc()
	}
}

// SetMappedAgents records the current mapping count.
func (m *Metrics) SetMappedAgents(n int) {
	if m != nil {
		m.MappedAgents.Set(float64(n))
	}
}
