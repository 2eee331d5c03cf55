// Package metrics holds the Prometheus collectors for synchronization runs
// and the HTTP surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "devicehub"

// Collectors groups every devicehub metric. A zero-value pointer is not
// usable; build one with New.
type Collectors struct {
	SyncRuns            *prometheus.CounterVec
	SyncDurationSeconds prometheus.Histogram
	ReconciledDevices   *prometheus.CounterVec
	SourceFetchErrors   *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func New() *Collectors {
	return &Collectors{
		SyncRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_runs_total",
				Help:      "Total number of synchronization runs by result.",
			},
			[]string{"result"},
		),
		SyncDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_duration_seconds",
				Help:      "Duration of synchronization runs.",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		ReconciledDevices: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconciled_devices_total",
				Help:      "Devices processed by reconciliation, by source and outcome.",
			},
			[]string{"source", "outcome"},
		),
		SourceFetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_fetch_errors_total",
				Help:      "Failed device fetches by source.",
			},
			[]string{"source"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// MustRegister registers every collector with reg and returns c.
func (c *Collectors) MustRegister(reg prometheus.Registerer) *Collectors {
	reg.MustRegister(
		c.SyncRuns,
		c.SyncDurationSeconds,
		c.ReconciledDevices,
		c.SourceFetchErrors,
		c.HTTPRequestsTotal,
		c.HTTPRequestDuration,
	)
	return c
}

// ObserveRun records the outcome and duration of one synchronization run.
func (c *Collectors) ObserveRun(result string, d time.Duration) {
	c.SyncRuns.WithLabelValues(result).Inc()
	c.SyncDurationSeconds.Observe(d.Seconds())
}

// AddReconciled adds n devices with the given outcome for source.
func (c *Collectors) AddReconciled(source, outcome string, n int) {
	if n <= 0 {
		return
	}
	c.ReconciledDevices.WithLabelValues(source, outcome).Add(float64(n))
}

func (c *Collectors) IncFetchError(source string) {
	c.SourceFetchErrors.WithLabelValues(source).Inc()
}
