// Package metrics defines Prometheus metrics for the conceptmap server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "conceptmap_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conceptmap_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conceptmap_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	// CacheLookups counts article lookups by result ("hit" or "miss").
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conceptmap_cache_lookups_total",
			Help: "Article cache lookups by result",
		},
		[]string{"result"},
	)

	// Ingestions counts pipeline runs on a cache miss by outcome.
	Ingestions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conceptmap_ingestions_total",
			Help: "Article ingestions by outcome",
		},
		[]string{"outcome"},
	)

	IngestionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conceptmap_ingestion_duration_seconds",
			Help:    "Duration of article ingestion on a cache miss",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
	)

	// UpstreamRequests counts calls to external services. status is the HTTP
	// status code, or "error" for transport failures.
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conceptmap_upstream_requests_total",
			Help: "Requests to upstream services by service and status",
		},
		[]string{"service", "status"},
	)

	DBConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "conceptmap_db_connections",
			Help: "Database pool connections by state",
		},
		[]string{"state"},
	)

	// GraphSize tracks stored entity counts by kind, refreshed by the stats endpoint.
	GraphSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "conceptmap_graph_entities",
			Help: "Stored knowledge graph entities by kind",
		},
		[]string{"kind"},
	)

	EventSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "conceptmap_event_subscribers",
			Help: "Connected ingestion event stream clients",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		CacheLookups, Ingestions, IngestionDuration,
		UpstreamRequests, DBConnections, GraphSize,
		EventSubscribers,
	)
}
