package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"SignalScan/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	outcomes  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	ledgerLen prometheus.Gauge
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		outcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalscan_symbol_outcomes_total",
				Help: "Per-symbol scan outcomes",
			},
			[]string{"outcome", "signal_type"},
		),
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalscan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"kind"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalscan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ledgerLen: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "signalscan_ledger_entries",
				Help: "Number of (symbol, signal) pairs in the dedup ledger",
			},
		),
	}
}

// RecordOutcome counts one symbol result.
func (r *Recorder) RecordOutcome(outcome models.Outcome, signal models.SignalType) {
	r.outcomes.WithLabelValues(string(outcome), string(signal)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errors.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordLedgerSize sets the ledger gauge.
func (r *Recorder) RecordLedgerSize(n int) {
	r.ledgerLen.Set(float64(n))
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordOutcome(models.Outcome, models.SignalType) {}
func (Noop) RecordError(string)                              {}
func (Noop) RecordLatency(string, float64)                   {}
func (Noop) RecordLedgerSize(int)                            {}
