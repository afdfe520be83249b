package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Report metrics
	ReportsComputed *prometheus.CounterVec
	ReportDuration  *prometheus.HistogramVec
	ReportCache     *prometheus.CounterVec

	// Rate metrics
	RateFetches       *prometheus.CounterVec
	RateFetchDuration prometheus.Histogram
	OverrideWrites    *prometheus.CounterVec

	// Storage metrics
	StorageOperations *prometheus.CounterVec
	StorageErrors     *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
// A nil reg registers with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Report metrics
		ReportsComputed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxledger_reports_computed_total",
				Help: "Total balance reports computed, by display currency",
			},
			[]string{"currency"},
		),
		ReportDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fxledger_report_duration_seconds",
				Help:    "Duration of balance computations",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"currency"},
		),
		ReportCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxledger_report_cache_total",
				Help: "Report cache lookups by result",
			},
			[]string{"result"},
		),

		// Rate metrics
		RateFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxledger_rate_fetches_total",
				Help: "Live rate fetches by outcome",
			},
			[]string{"outcome"},
		),
		RateFetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fxledger_rate_fetch_duration_seconds",
			Help:    "Duration of live rate fetches",
			Buckets: prometheus.DefBuckets,
		}),
		OverrideWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxledger_override_writes_total",
				Help: "Rate override edits by operation and whether they were applied",
			},
			[]string{"operation", "applied"},
		),

		// Storage metrics
		StorageOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxledger_storage_operations_total",
				Help: "Storage bucket operations",
			},
			[]string{"backend", "operation"},
		),
		StorageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxledger_storage_errors_total",
				Help: "Storage bucket errors",
			},
			[]string{"backend", "operation"},
		),
	}
}

// RecordReport records a computed report.
func (m *Metrics) RecordReport(currency string, d time.Duration) {
	m.ReportsComputed.WithLabelValues(currency).Inc()
	m.ReportDuration.WithLabelValues(currency).Observe(d.Seconds())
}

// RecordReportCache records a report cache lookup.
func (m *Metrics) RecordReportCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ReportCache.WithLabelValues(result).Inc()
}

// RecordRatesFetch records a live rate fetch.
func (m *Metrics) RecordRatesFetch(outcome string, d time.Duration) {
	m.RateFetches.WithLabelValues(outcome).Inc()
	m.RateFetchDuration.Observe(d.Seconds())
}

// RecordOverrideWrite records an override edit attempt.
func (m *Metrics) RecordOverrideWrite(op string, applied bool) {
	m.OverrideWrites.WithLabelValues(op, strconv.FormatBool(applied)).Inc()
}

// RecordStorage records a storage operation and its error, if any.
func (m *Metrics) RecordStorage(backend, op string, err error) {
	m.StorageOperations.WithLabelValues(backend, op).Inc()
	if err != nil {
		m.StorageErrors.WithLabelValues(backend, op).Inc()
	}
}
