// Package metrics exposes the service's Prometheus collectors. Collectors are
// registered on the default registry and served by promhttp on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelroom_http_requests_total",
			Help: "Total number of HTTP requests by route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelroom_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelroom_rate_limit_rejections_total",
			Help: "Requests refused by the per-client rate limiter, by scope",
		},
		[]string{"scope"},
	)

	// Watchlists
	WatchlistMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelroom_watchlist_mutations_total",
			Help: "Watchlist mutations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	WatchlistCascadeDeletes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelroom_watchlist_cascade_deletes_total",
			Help: "Watchlists dropped because a removal left them empty",
		},
	)

	// Media lookups
	MediaLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelroom_media_lookups_total",
			Help: "Upstream media metadata lookups by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	MediaLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelroom_media_lookup_duration_seconds",
			Help:    "Upstream media metadata lookup latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelroom_catalog_requests_total",
			Help: "Upstream catalog browse, search and detail requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	MediaCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelroom_media_cache_hits_total",
			Help: "Metadata lookups served from the in-memory cache",
		},
	)

	MediaCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelroom_media_cache_misses_total",
			Help: "Metadata lookups that went to the upstream provider",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelroom_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Presenter
	PageRenderItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelroom_page_render_items_total",
			Help: "Display items rendered, split by whether metadata resolved",
		},
		[]string{"result"},
	)

	// Chat
	ChatMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reelroom_chat_messages_total",
			Help: "Chat messages appended",
		},
	)

	ChatSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelroom_chat_subscribers",
			Help: "Live chat websocket subscribers",
		},
	)
)

// ObserveHTTP records one completed request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordMutation counts a watchlist mutation. A nil err counts as success.
func RecordMutation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	WatchlistMutations.WithLabelValues(operation, outcome).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
