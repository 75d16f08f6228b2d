package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// Database query latency in seconds.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)

	// MQ consume latency in milliseconds.
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	// Milestone mutation counter.
	MilestoneMutationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "milestone_mutation_count",
			Help: "Total number of milestone mutations",
		},
		[]string{"operation"}, // create, update, delete, assign, extend, move
	)

	// Overdue resolution counter.
	OverdueResolutionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overdue_resolution_count",
			Help: "Total number of overdue resolutions applied",
		},
		[]string{"remedy"}, // extend, move_existing, move_new
	)

	// Currently connected push clients.
	PushClientsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "push_clients_connected",
			Help: "Number of websocket push clients currently connected",
		},
	)
)

// RecordHTTPRequestDuration records one HTTP request observation.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordDBQueryDuration records one database query observation.
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordMQConsumeLatency records one MQ consume observation.
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// IncrementMilestoneMutation bumps the mutation counter for an operation.
func IncrementMilestoneMutation(operation string) {
	MilestoneMutationCount.WithLabelValues(operation).Inc()
}

// IncrementOverdueResolution bumps the resolution counter for a remedy.
func IncrementOverdueResolution(remedy string) {
	OverdueResolutionCount.WithLabelValues(remedy).Inc()
}
