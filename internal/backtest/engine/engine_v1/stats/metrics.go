// Package stats exposes Prometheus metrics of the backtest engine.
package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache lookup results.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheError  = "error"
	CacheBypass = "bypass"
)

// Asset run outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Metrics holds the engine's collectors. A nil *Metrics records nothing.
type Metrics struct {
	CacheLookups    *prometheus.CounterVec
	AssetRuns       *prometheus.CounterVec
	AssetDuration   prometheus.Histogram
	BatchDuration   *prometheus.HistogramVec
	WorkersInFlight prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "argo_screener_cache_lookups_total",
				Help: "Result cache lookups by result",
			},
			[]string{"result"},
		),
		AssetRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "argo_screener_asset_runs_total",
				Help: "Per-asset backtests by outcome and failure reason",
			},
			[]string{"outcome", "reason"},
		),
		AssetDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "argo_screener_asset_duration_seconds",
				Help:    "Time to produce one asset result, cache lookups included",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		BatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "argo_screener_batch_duration_seconds",
				Help:    "Wall time of a batch by final status",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"status"},
		),
		WorkersInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "argo_screener_workers_in_flight",
				Help: "Asset runs currently executing",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.CacheLookups, m.AssetRuns, m.AssetDuration, m.BatchDuration, m.WorkersInFlight)
	}

	return m
}

// ObserveCacheLookup counts one cache lookup.
func (m *Metrics) ObserveCacheLookup(result string) {
	if m == nil {
		return
	}

	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveAsset records one finished asset run. reason is empty on success.
func (m *Metrics) ObserveAsset(reason string, elapsed time.Duration) {
	if m == nil {
		return
	}

	outcome := OutcomeSucceeded
	if reason != "" {
		outcome = OutcomeFailed
	}

	m.AssetRuns.WithLabelValues(outcome, reason).Inc()
	m.AssetDuration.Observe(elapsed.Seconds())
}

// ObserveBatch records a finished batch.
func (m *Metrics) ObserveBatch(status string, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.BatchDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// WorkerStarted marks a worker busy. Call the returned func when it is done.
func (m *Metrics) WorkerStarted() func() {
	if m == nil {
		return func() {}
	}

	m.WorkersInFlight.Inc()

	return m.WorkersInFlight.Dec
}
