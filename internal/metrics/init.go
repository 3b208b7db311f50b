package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "railviz_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "railviz_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
}

func (r *Registry) initSessionMetrics() {
	r.SessionsActive = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "railviz_sessions_active",
			Help: "Number of live render sessions",
		},
	)

	r.GraphRejectedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "railviz_graph_rejected_total",
			Help: "Graph payloads rejected before rendering",
		},
		[]string{"reason"},
	)

	r.AssetFallbacksTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "railviz_asset_fallbacks_total",
			Help: "Renders that fell back to labels because the signal icon failed to load",
		},
	)
}

func (r *Registry) initLayoutMetrics() {
	r.LayoutTicksTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "railviz_layout_ticks_total",
			Help: "Total number of layout simulation ticks applied",
		},
	)

	r.LayoutDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "railviz_layout_duration_seconds",
			Help:    "Wall time of a layout simulation run",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	r.LayoutRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "railviz_layout_runs_total",
			Help: "Layout simulation runs by outcome",
		},
		[]string{"outcome"},
	)
}

// WatchSSEClients exports the live event stream count read from count at
// scrape time.
func (r *Registry) WatchSSEClients(count func() int) {
	promauto.With(r.registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "railviz_sse_clients",
			Help: "Number of connected event stream clients",
		},
		func() float64 { return float64(count()) },
	)
}
