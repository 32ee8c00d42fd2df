// Package metrics holds the Prometheus instruments of the service. Every
// recorder method is safe on a nil receiver, so code paths do not need to
// know whether metrics are enabled.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/S1riyS/graphfs/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "graphfs"

type Registry struct {
	reg   *prometheus.Registry
	HTTP  *HTTPMetrics
	Graph *GraphMetrics
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{
		reg:   reg,
		HTTP:  newHTTPMetrics(reg),
		Graph: newGraphMetrics(reg),
	}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	return &HTTPMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route pattern and status code",
			},
			[]string{"method", "route", "status"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by method and route pattern",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func (m *HTTPMetrics) Observe(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

type GraphMetrics struct {
	nodesCreated     *prometheus.CounterVec
	nodesDeleted     prometheus.Counter
	edgesDeleted     prometheus.Counter
	traversalVisited prometheus.Histogram
	txFailures       *prometheus.CounterVec
}

func newGraphMetrics(reg prometheus.Registerer) *GraphMetrics {
	return &GraphMetrics{
		nodesCreated: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_created_total",
				Help:      "Nodes created by label",
			},
			[]string{"label"},
		),
		nodesDeleted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_deleted_total",
				Help:      "Nodes removed by cascade deletes, targets included",
			},
		),
		edgesDeleted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "edges_deleted_total",
				Help:      "Edges removed by cascade deletes and owner removal",
			},
		),
		traversalVisited: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "traversal_visited_nodes",
				Help:      "Nodes visited by a single descendant traversal",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
		txFailures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transaction_failures_total",
				Help:      "Failed store transactions by reason",
			},
			[]string{"reason"}, // "conflict", "unavailable"
		),
	}
}

func (m *GraphMetrics) NodeCreated(label models.Label) {
	if m == nil {
		return
	}
	m.nodesCreated.WithLabelValues(string(label)).Inc()
}

func (m *GraphMetrics) Deleted(nodes int, edges int64) {
	if m == nil {
		return
	}
	m.nodesDeleted.Add(float64(nodes))
	m.edgesDeleted.Add(float64(edges))
}

func (m *GraphMetrics) TraversalVisited(n int) {
	if m == nil {
		return
	}
	m.traversalVisited.Observe(float64(n))
}

func (m *GraphMetrics) TxFailure(reason string) {
	if m == nil {
		return
	}
	m.txFailures.WithLabelValues(reason).Inc()
}
