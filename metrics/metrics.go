package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basesociety_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "basesociety_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// Agent runtime metrics
	AgentsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "basesociety_agents_running",
			Help: "Agents currently held in the registry",
		},
	)

	Completions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basesociety_completions_total",
			Help: "Completion calls by kind and outcome",
		},
		[]string{"kind", "outcome"}, // kind: interact|reflect, outcome: ok|error
	)

	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "basesociety_completion_duration_seconds",
			Help:    "Completion call latency",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"kind"},
	)

	InboxDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "basesociety_inbox_dropped_total",
			Help: "Commands rejected because an agent inbox was full",
		},
	)

	// Decay oracle metrics
	ReconcileTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "basesociety_oracle_ticks_total",
			Help: "Reconciliation ticks run",
		},
	)

	ReconcileActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basesociety_oracle_actions_total",
			Help: "Per-agent reconciliation outcomes",
		},
		[]string{"action"}, // registered|decayed|skipped|failed|backoff
	)
)
