package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the revocation module.
type Metrics struct {
	// Propagation confirmations by target outcome
	Propagations *prometheus.CounterVec

	// Time from initiation to final target confirmation
	CompletionLatency prometheus.Histogram

	// Share of completed revocations inside the SLA window
	SLACompliance prometheus.Gauge

	// Blocklist hits on enforcement checks
	BlockedChecks prometheus.Counter
}

// New creates a new Metrics instance with all revocation module metrics registered.
func New() *Metrics {
	return &Metrics{
		Propagations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custos_revocation_propagations_total",
			Help: "Total propagation confirmations by outcome",
		}, []string{"outcome"}), // outcome: "confirmed", "failed"

		CompletionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "custos_revocation_completion_seconds",
			Help:    "Time from revocation initiation to last target confirmation",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		SLACompliance: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "custos_revocation_sla_compliance_ratio",
			Help: "Fraction of completed revocations that met the SLA",
		}),

		BlockedChecks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_revocation_blocked_checks_total",
			Help: "Enforcement checks denied because the subject is revoked",
		}),
	}
}

// IncrementPropagation records one target confirmation outcome.
func (m *Metrics) IncrementPropagation(outcome string) {
	if m != nil {
		m.Propagations.WithLabelValues(outcome).Inc()
	}
}

// ObserveCompletion records the latency of a fully propagated revocation.
func (m *Metrics) ObserveCompletion(d time.Duration) {
	if m != nil {
		m.CompletionLatency.Observe(d.Seconds())
	}
}

// SetSLACompliance records the current compliance ratio.
func (m *Metrics) SetSLACompliance(ratio float64) {
	if m != nil {
		m.SLACompliance.Set(ratio)
	}
}

// IncrementBlockedCheck records a denied enforcement check.
func (m *Metrics) IncrementBlockedCheck() {
	if m != nil {
		m.BlockedChecks.Inc()
	}
}
