// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "settleup"

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RPCRequests         *prometheus.CounterVec
	RPCDuration         *prometheus.HistogramVec
	RateLimited         prometheus.Counter
	InvariantViolations *prometheus.CounterVec
	SettlementsApplied  prometheus.Counter
	TransfersPlanned    prometheus.Histogram
	RecurringProcessed  *prometheus.CounterVec
	OtpIssued           *prometheus.CounterVec
}

// New registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RPCRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		RPCDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
		InvariantViolations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invariant_violations_total",
			Help:      "Internal consistency failures, e.g. an unbalanced ledger.",
		}, []string{"kind"}),
		SettlementsApplied: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_applied_total",
			Help:      "Settlement batches recorded.",
		}),
		TransfersPlanned: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_transfers",
			Help:      "Number of transfers per settlement plan.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		RecurringProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recurring_occurrences_total",
			Help:      "Recurring expense occurrences by outcome (materialized, skipped).",
		}, []string{"outcome"}),
		OtpIssued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_issued_total",
			Help:      "One-time codes sent by purpose.",
		}, []string{"purpose"}),
	}
}

// RPC records one finished call.
func (m *Metrics) RPC(procedure, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.RPCRequests.WithLabelValues(procedure, code).Inc()
	m.RPCDuration.WithLabelValues(procedure).Observe(d.Seconds())
}

// Invariant counts an internal consistency failure.
func (m *Metrics) Invariant(kind string) {
	if m == nil {
		return
	}
	m.InvariantViolations.WithLabelValues(kind).Inc()
}

// Recurring counts a processed occurrence.
func (m *Metrics) Recurring(outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.RecurringProcessed.WithLabelValues(outcome).Add(float64(n))
}

// Settlement records an applied settlement and the size of its plan.
func (m *Metrics) Settlement(transfers int) {
	if m == nil {
		return
	}
	m.SettlementsApplied.Inc()
	m.TransfersPlanned.Observe(float64(transfers))
}

// Otp counts an issued code.
func (m *Metrics) Otp(purpose string) {
	if m == nil {
		return
	}
	m.OtpIssued.WithLabelValues(purpose).Inc()
}

// Limited counts a rate-limited request.
func (m *Metrics) Limited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}
