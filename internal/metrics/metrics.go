// Package metrics defines Prometheus metrics for the graph server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "epochgraph_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "epochgraph_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "epochgraph_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	QueriesCompiled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "epochgraph_queries_compiled_total",
			Help: "Total filter queries compiled to SQL, by base table",
		},
		[]string{"table"},
	)

	TraversalRounds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "epochgraph_traversal_rounds",
			Help:    "Subgraph traversal rounds per query",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)

	TraversalEdgesRead = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "epochgraph_traversal_edges_read_total",
			Help: "Edge rows read during traversal, by edge kind",
		},
		[]string{"edge_kind"},
	)

	PermissionChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "epochgraph_permission_checks_total",
			Help: "Batched permission oracle checks, by outcome",
		},
		[]string{"outcome"},
	)

	CompensationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "epochgraph_compensation_failures_total",
			Help: "Permission writes that could not be rolled back after a failed mutation",
		},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "epochgraph_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)

	EntityCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "epochgraph_entities_total",
			Help: "Total entity count",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		QueriesCompiled, TraversalRounds, TraversalEdgesRead,
		PermissionChecks, CompensationFailures,
		WSConnections, EntityCount,
	)
}
