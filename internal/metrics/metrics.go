// Package metrics exposes Prometheus instruments for the sync client and the
// reference server.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "offline_sync"

// Session outcome labels.
const (
	SessionCompleted = "completed"
	SessionOffline   = "offline"
	SessionBusy      = "busy"
)

var (
	once sync.Once

	syncSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_sessions_total",
			Help:      "Synchronization sessions by outcome.",
		},
		[]string{"outcome"},
	)

	syncedItems = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "synced_items_total",
		Help:      "Tasks acknowledged by the server, conflicts included.",
	})

	failedItems = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "failed_items_total",
		Help:      "Tasks evicted after reaching the retry ceiling.",
	})

	conflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflicts_total",
			Help:      "Resolved conflicts by resolution.",
		},
		[]string{"resolution"},
	)

	queueLength = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_length",
		Help:      "Tasks waiting in the sync queue.",
	})

	sessionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_session_duration_seconds",
		Help:      "Duration of completed synchronization sessions.",
		Buckets:   prometheus.DefBuckets,
	})

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served by route and status code.",
		},
		[]string{"route", "code"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			syncSessions,
			syncedItems,
			failedItems,
			conflicts,
			queueLength,
			sessionDuration,
			httpRequests,
		)
	})
}

// ObserveSession records a completed session.
func ObserveSession(result models.SyncResult) {
	syncSessions.WithLabelValues(SessionCompleted).Inc()
	syncedItems.Add(float64(result.SyncedItems))
	failedItems.Add(float64(result.FailedItems))
	for _, c := range result.Conflicts {
		conflicts.WithLabelValues(string(c.Resolution)).Inc()
	}
	queueLength.Set(float64(result.Remaining))
	sessionDuration.Observe(result.Duration.Seconds())
}

// IncSkippedSession counts a session that did not run.
func IncSkippedSession(outcome string) {
	syncSessions.WithLabelValues(outcome).Inc()
}

// SetQueueLength updates the queue length gauge.
func SetQueueLength(n int) {
	queueLength.Set(float64(n))
}

// IncHTTP increments the request counter.
func IncHTTP(route string, status int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
