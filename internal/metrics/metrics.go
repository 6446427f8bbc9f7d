// Package metrics provides a centralized interface for collecting
// application metrics.
//
// The metrics system is built on Prometheus and tracks:
//   - Session actor population and processing state
//   - Job queue depth and worker utilization
//   - Audit event volume and policy blocks
//   - Atomic store write throughput and failures
//
// Usage:
//
//	m := metrics.New(prometheus.DefaultRegisterer)
//	m.SessionActorStarted()
//	defer m.SessionActorStopped()
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector registered for the core system. Each field
// is exported so callers that need raw access (e.g. an HTTP status endpoint)
// can read collector values directly.
type Metrics struct {
	// SessionActorsActive tracks the number of live session actors.
	SessionActorsActive prometheus.Gauge

	// SessionActorTurns counts processed turns by outcome
	// (success|timeout|queue_full|upstream_error).
	SessionActorTurns *prometheus.CounterVec

	// SessionTurnDuration measures process_message latency in seconds.
	SessionTurnDuration prometheus.Histogram

	// JobQueueDepth tracks the number of jobs waiting to run.
	// Labels: job_type
	JobQueueDepth *prometheus.GaugeVec

	// JobQueueRunning tracks the number of jobs currently executing.
	JobQueueRunning prometheus.Gauge

	// JobsProcessed counts completed jobs by type and outcome
	// (success|failed|cancelled).
	JobsProcessed *prometheus.CounterVec

	// JobDuration measures job execution latency in seconds.
	// Labels: job_type
	JobDuration *prometheus.HistogramVec

	// AuditEventsTotal counts recorded audit events by type.
	AuditEventsTotal *prometheus.CounterVec

	// AuditToolBlockedTotal counts tool invocations a policy blocked.
	// Labels: tool_name
	AuditToolBlockedTotal *prometheus.CounterVec

	// AuditRedactionsTotal counts fields redacted before persistence.
	AuditRedactionsTotal prometheus.Counter

	// StoreWritesTotal counts atomic-store writes by outcome
	// (success|failed).
	StoreWritesTotal *prometheus.CounterVec

	// StoreWriteDuration measures atomic-store write latency in seconds.
	StoreWriteDuration prometheus.Histogram
}

// New creates and registers every collector against reg. Pass
// prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests that construct Metrics more than once,
// since a collector can only be registered against a given registry once.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionActorsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "core_session_actors_active",
			Help: "Current number of live session actors",
		}),

		SessionActorTurns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "core_session_turns_total",
			Help: "Total number of processed turns by outcome",
		}, []string{"outcome"}),

		SessionTurnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "core_session_turn_duration_seconds",
			Help:    "Duration of process_message calls in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),

		JobQueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "core_job_queue_depth",
			Help: "Current number of queued jobs by job type",
		}, []string{"job_type"}),

		JobQueueRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "core_job_queue_running",
			Help: "Current number of jobs executing",
		}),

		JobsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "core_jobs_processed_total",
			Help: "Total number of completed jobs by job type and outcome",
		}, []string{"job_type", "outcome"}),

		JobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "core_job_duration_seconds",
			Help:    "Duration of job execution in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		}, []string{"job_type"}),

		AuditEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "core_audit_events_total",
			Help: "Total number of audit events recorded by event type",
		}, []string{"event_type"}),

		AuditToolBlockedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "core_audit_tool_blocked_total",
			Help: "Total number of tool invocations blocked by policy",
		}, []string{"tool_name"}),

		AuditRedactionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "core_audit_redactions_total",
			Help: "Total number of fields redacted before persistence",
		}),

		StoreWritesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "core_store_writes_total",
			Help: "Total number of atomic store writes by outcome",
		}, []string{"outcome"}),

		StoreWriteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "core_store_write_duration_seconds",
			Help:    "Duration of atomic store writes in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}

// SessionActorStarted increments the active-actor gauge.
func (m *Metrics) SessionActorStarted() {
	m.SessionActorsActive.Inc()
}

// SessionActorStopped decrements the active-actor gauge.
func (m *Metrics) SessionActorStopped() {
	m.SessionActorsActive.Dec()
}

// SetSessionActorsActive pins the active-actor gauge to a known count,
// for callers (the cleanup sweep) that observe population size directly
// rather than individual start/stop events.
func (m *Metrics) SetSessionActorsActive(n int) {
	m.SessionActorsActive.Set(float64(n))
}

// RecordSessionTurn records a completed process_message call.
func (m *Metrics) RecordSessionTurn(outcome string, durationSeconds float64) {
	m.SessionActorTurns.WithLabelValues(outcome).Inc()
	m.SessionTurnDuration.Observe(durationSeconds)
}

// SetJobQueueDepth sets the queued-job count for jobType.
func (m *Metrics) SetJobQueueDepth(jobType string, depth int) {
	m.JobQueueDepth.WithLabelValues(jobType).Set(float64(depth))
}

// JobStarted increments the running-job gauge.
func (m *Metrics) JobStarted() {
	m.JobQueueRunning.Inc()
}

// JobFinished decrements the running-job gauge and records the outcome.
func (m *Metrics) JobFinished(jobType, outcome string, durationSeconds float64) {
	m.JobQueueRunning.Dec()
	m.JobsProcessed.WithLabelValues(jobType, outcome).Inc()
	m.JobDuration.WithLabelValues(jobType).Observe(durationSeconds)
}

// RecordAuditEvent increments the audit event counter for eventType.
func (m *Metrics) RecordAuditEvent(eventType string) {
	m.AuditEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordToolBlocked increments the blocked-tool counter for toolName.
func (m *Metrics) RecordToolBlocked(toolName string) {
	m.AuditToolBlockedTotal.WithLabelValues(toolName).Inc()
}

// RecordRedaction increments the redaction counter.
func (m *Metrics) RecordRedaction() {
	m.AuditRedactionsTotal.Inc()
}

// RecordStoreWrite records an atomic store write's outcome and latency.
func (m *Metrics) RecordStoreWrite(outcome string, durationSeconds float64) {
	m.StoreWritesTotal.WithLabelValues(outcome).Inc()
	m.StoreWriteDuration.Observe(durationSeconds)
}
