// Package metrics exposes the engine's telemetry surface: outcome
// counts, per-provider error categories, attempt counts and the current
// circuit state per provider.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/systmms/credsync/internal/breaker"
)

var (
	syncOutcomesTotal *prometheus.CounterVec
	syncErrorsTotal   *prometheus.CounterVec
	syncAttemptsTotal *prometheus.CounterVec
	syncDuration      prometheus.Histogram
	circuitState      *prometheus.GaugeVec

	// Registration guard
	metricsOnce       sync.Once
	metricsRegistered bool
)

// SyncMetrics provides methods to record sync telemetry.
type SyncMetrics struct{}

// NewSyncMetrics creates a new SyncMetrics instance.
// Metrics are lazily registered on first use.
func NewSyncMetrics() *SyncMetrics {
	return &SyncMetrics{}
}

// InitMetrics initializes all Prometheus metrics.
// This should be called once at startup if metrics are enabled.
func InitMetrics() {
	metricsOnce.Do(func() {
		syncOutcomesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credsync_sync_outcomes_total",
				Help: "Total number of per-provider sync outcomes by status",
			},
			[]string{"provider", "status"},
		)

		syncErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credsync_sync_errors_total",
				Help: "Total number of per-provider sync failures by error category",
			},
			[]string{"provider", "category"},
		)

		syncAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credsync_sync_attempts_total",
				Help: "Total number of remote attempts per provider",
			},
			[]string{"provider"},
		)

		syncDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "credsync_sync_duration_seconds",
				Help:    "Duration of full sync passes in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
			},
		)

		circuitState = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "credsync_circuit_state",
				Help: "Current circuit state per provider (0=closed, 1=open, 2=half_open)",
			},
			[]string{"provider"},
		)

		metricsRegistered = true
	})
}

// RecordOutcome records one per-provider sync outcome.
func (m *SyncMetrics) RecordOutcome(provider, status string) {
	if !metricsRegistered || syncOutcomesTotal == nil {
		return
	}
	syncOutcomesTotal.WithLabelValues(provider, status).Inc()
}

// RecordError records a per-provider failure by error category.
func (m *SyncMetrics) RecordError(provider, category string) {
	if !metricsRegistered || syncErrorsTotal == nil {
		return
	}
	syncErrorsTotal.WithLabelValues(provider, category).Inc()
}

// RecordAttempts records how many remote attempts a provider consumed.
func (m *SyncMetrics) RecordAttempts(provider string, attempts int) {
	if !metricsRegistered || syncAttemptsTotal == nil {
		return
	}
	syncAttemptsTotal.WithLabelValues(provider).Add(float64(attempts))
}

// RecordDuration records the duration of a full sync pass.
func (m *SyncMetrics) RecordDuration(seconds float64) {
	if !metricsRegistered || syncDuration == nil {
		return
	}
	syncDuration.Observe(seconds)
}

// RecordCircuitStates publishes the current state of every circuit.
func (m *SyncMetrics) RecordCircuitStates(states map[string]breaker.State) {
	if !metricsRegistered || circuitState == nil {
		return
	}
	for provider, state := range states {
		circuitState.WithLabelValues(provider).Set(float64(state))
	}
}

// IsMetricsRegistered returns whether metrics have been initialized.
func IsMetricsRegistered() bool {
	return metricsRegistered
}

// GetSyncOutcomesTotal returns the outcomes counter for testing.
func GetSyncOutcomesTotal() *prometheus.CounterVec {
	return syncOutcomesTotal
}

// GetSyncErrorsTotal returns the errors counter for testing.
func GetSyncErrorsTotal() *prometheus.CounterVec {
	return syncErrorsTotal
}

// GetCircuitState returns the circuit state gauge for testing.
func GetCircuitState() *prometheus.GaugeVec {
	return circuitState
}
