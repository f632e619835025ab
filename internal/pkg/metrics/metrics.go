// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chainscan"

var (
	// PoolReconnects counts node client reconstructions by result ("success" or "failure").
	PoolReconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pool",
		Name:      "reconnects_total",
		Help:      "Node client reconstructions performed by the pool.",
	}, []string{"result"})

	// PoolBusy counts Get calls rejected because a reconstruction held the lock.
	PoolBusy = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pool",
		Name:      "busy_total",
		Help:      "Pool reads rejected while a reconstruction was in progress.",
	})

	// NotificationsPublished counts notifications received from the node per event.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_published_total",
		Help:      "Notifications received from the node.",
	}, []string{"event"})

	// NotificationsDropped counts notifications a receiver missed because its buffer was full.
	NotificationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_dropped_total",
		Help:      "Notifications dropped for a slow receiver.",
	}, []string{"event"})

	// StreamReattaches counts event streams moved to a rebuilt node client by result.
	StreamReattaches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "reattaches_total",
		Help:      "Event streams re-attached after the node connection dropped.",
	}, []string{"event", "result"})

	// WebsocketSessions tracks the number of streaming browser sessions.
	WebsocketSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "websocket",
		Name:      "sessions",
		Help:      "Open websocket fan-out sessions.",
	})

	// HTTPRequests counts served HTTP requests by route template and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served.",
	}, []string{"route", "method", "code"})

	// HTTPDuration observes handler latency by route template.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP handler latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
