package engagementservice

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects engagement outcomes, transaction retries and counter drift.
type Metrics struct {
	interactions *prometheus.CounterVec
	retries      *prometheus.CounterVec
	violations   *prometheus.CounterVec
	drift        *prometheus.CounterVec
}

// NewMetrics creates the engagement collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	interactions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_interactions_total",
		Help: "Engagement operations by kind and outcome.",
	}, []string{"kind", "outcome"})

	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_tx_retries_total",
		Help: "Engagement transactions run again after a concurrency conflict.",
	}, []string{"op"})

	violations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_counter_violations_total",
		Help: "Counter decrements that would have gone below zero.",
	}, []string{"counter"})

	drift := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_counter_drift_total",
		Help: "Counter mismatches corrected by reconciliation.",
	}, []string{"counter"})

	if reg != nil {
		reg.MustRegister(interactions, retries, violations, drift)
	}

	return &Metrics{
		interactions: interactions,
		retries:      retries,
		violations:   violations,
		drift:        drift,
	}
}

func (m *Metrics) interaction(kind, outcome string) {
	if m == nil {
		return
	}
	m.interactions.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) retry(op string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(op).Inc()
}

func (m *Metrics) violation(c counter) {
	if m == nil {
		return
	}
	m.violations.WithLabelValues(string(c)).Inc()
}

func (m *Metrics) corrected(c counter) {
	if m == nil {
		return
	}
	m.drift.WithLabelValues(string(c)).Inc()
}
