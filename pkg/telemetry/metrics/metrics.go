package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics tracks rule evaluation activity.
//
// Metrics:
//   - arbiter_executions_total: session executions by rule set and strategy
//   - arbiter_execution_duration_seconds: execution duration by rule set
//   - arbiter_rule_hits_total: rule matches by rule set and rule
//   - arbiter_rule_misses_total: rules evaluated without matching
//   - arbiter_rule_errors_total: isolated per-rule evaluation failures
//   - arbiter_sessions_open: currently open sessions
type EngineMetrics struct {
	executionsTotal   *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
	ruleHitsTotal     *prometheus.CounterVec
	ruleMissesTotal   *prometheus.CounterVec
	ruleErrorsTotal   *prometheus.CounterVec
	sessionsOpen      prometheus.Gauge
}

// NewEngineMetrics creates and registers engine metrics with the provided
// registry. Namespace defaults to "arbiter" when empty.
func NewEngineMetrics(namespace string, registry *prometheus.Registry) *EngineMetrics {
	if namespace == "" {
		namespace = "arbiter"
	}

	em := &EngineMetrics{
		executionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "executions_total",
				Help:      "Total number of session executions",
			},
			[]string{"ruleset", "strategy"},
		),

		executionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "execution_duration_seconds",
				Help:      "Duration of session executions in seconds",
				// Rule scans are fast (< 10ms)
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
			[]string{"ruleset"},
		),

		ruleHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_hits_total",
				Help:      "Total number of rule condition matches",
			},
			[]string{"ruleset", "rule"},
		),

		ruleMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_misses_total",
				Help:      "Total number of rules evaluated without matching",
			},
			[]string{"ruleset", "rule"},
		),

		ruleErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_errors_total",
				Help:      "Total number of isolated per-rule evaluation failures",
			},
			[]string{"ruleset", "rule"},
		),

		sessionsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_open",
				Help:      "Number of currently open sessions",
			},
		),
	}

	registry.MustRegister(
		em.executionsTotal,
		em.executionDuration,
		em.ruleHitsTotal,
		em.ruleMissesTotal,
		em.ruleErrorsTotal,
		em.sessionsOpen,
	)

	return em
}

// RecordExecution records one Execute call against a rule set.
func (em *EngineMetrics) RecordExecution(ruleset, strategy string, duration time.Duration) {
	em.executionsTotal.WithLabelValues(ruleset, strategy).Inc()
	em.executionDuration.WithLabelValues(ruleset).Observe(duration.Seconds())
}

// RecordHit records a rule whose condition matched.
func (em *EngineMetrics) RecordHit(ruleset, rule string) {
	em.ruleHitsTotal.WithLabelValues(ruleset, rule).Inc()
}

// RecordMiss records a rule whose condition did not match.
func (em *EngineMetrics) RecordMiss(ruleset, rule string) {
	em.ruleMissesTotal.WithLabelValues(ruleset, rule).Inc()
}

// RecordRuleError records an isolated per-rule evaluation failure.
func (em *EngineMetrics) RecordRuleError(ruleset, rule string) {
	em.ruleErrorsTotal.WithLabelValues(ruleset, rule).Inc()
}

// SessionOpened increments the open-session gauge.
func (em *EngineMetrics) SessionOpened() {
	em.sessionsOpen.Inc()
}

// SessionClosed decrements the open-session gauge.
func (em *EngineMetrics) SessionClosed() {
	em.sessionsOpen.Dec()
}
