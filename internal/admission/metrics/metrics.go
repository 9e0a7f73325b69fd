// Package metrics registers the Prometheus metrics of the admission domain.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the admission service.
type Metrics struct {
	DaysApplied        prometheus.Counter
	DaysRejected       *prometheus.CounterVec
	ApplyDuration      prometheus.Histogram
	ReportDuration     prometheus.Histogram
	SnapshotApplicants prometheus.Gauge
	ProgramConsents    *prometheus.GaugeVec
}

// New creates and registers all admission metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		DaysApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "abitur_days_applied_total",
			Help: "Total number of day snapshots accepted and applied",
		}),
		DaysRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "abitur_days_rejected_total",
			Help: "Total number of day snapshots rejected, by violated rule",
		}, []string{"rule"}),
		ApplyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "abitur_apply_day_duration_seconds",
			Help:    "Time spent validating and applying one day snapshot",
			Buckets: prometheus.DefBuckets,
		}),
		ReportDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "abitur_report_build_duration_seconds",
			Help:    "Time spent building a campaign report",
			Buckets: prometheus.DefBuckets,
		}),
		SnapshotApplicants: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "abitur_snapshot_applicants",
			Help: "Applicant count in the most recently applied snapshot",
		}),
		ProgramConsents: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "abitur_program_consents",
			Help: "Consenting applicant count per program on the latest day",
		}, []string{"program"}),
	}
}

// ObserveApply records one accepted day.
func (m *Metrics) ObserveApply(d time.Duration, applicants int) {
	m.DaysApplied.Inc()
	m.ApplyDuration.Observe(d.Seconds())
	m.SnapshotApplicants.Set(float64(applicants))
}

// ObserveRejection records one rejected day by rule.
func (m *Metrics) ObserveRejection(rule string) {
	m.DaysRejected.WithLabelValues(rule).Inc()
}

// SetProgramConsents publishes the per-program consent counts.
func (m *Metrics) SetProgramConsents(program string, count int) {
	m.ProgramConsents.WithLabelValues(program).Set(float64(count))
}

// ObserveReport records one report build.
func (m *Metrics) ObserveReport(d time.Duration) {
	m.ReportDuration.Observe(d.Seconds())
}
