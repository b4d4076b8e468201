package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "winestats"

var (
	// PipelineRuns counts aggregation runs by result status (success, error, skipped).
	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_runs_total",
		Help:      "Aggregation pipeline runs by result status.",
	}, []string{"status"})

	// PipelineDuration observes wall time of completed aggregation runs.
	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_duration_seconds",
		Help:      "Duration of aggregation pipeline runs.",
		Buckets:   prometheus.DefBuckets,
	})

	// QueueMessages counts polled queue messages by outcome.
	QueueMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queue_messages_total",
		Help:      "Queue messages handled by the poller, by outcome.",
	}, []string{"outcome"})

	// QueueReceiveErrors counts failed receive calls.
	QueueReceiveErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queue_receive_errors_total",
		Help:      "Failed queue receive calls.",
	})

	// QueryRequests counts query API requests by selector and HTTP status code.
	QueryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_requests_total",
		Help:      "Query API requests by selector and status code.",
	}, []string{"selector", "code"})
)

// Queue message outcomes.
const (
	OutcomeProcessed = "processed"
	OutcomeMalformed = "malformed"
	OutcomeFailed    = "failed"
)
