package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MKhiriev/go-offline-sync/internal/metrics"
)

// Route patterns, also used as metric labels.
const (
	routePing          = "/api/ping"
	routeVersion       = "/api/version"
	routeMetrics       = "/metrics"
	routeSync          = "/api/sync/tasks"
	routeEntity        = "/api/entities/{key}"
	routeEntityVersion = "/api/entities/{key}/version"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(h.withMetrics)
	router.Use(middleware.Compress(5, "application/json"))

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Get(routePing, h.ping)
		r.Get(routeVersion, h.getServerVersion)
		r.Handle(routeMetrics, metrics.Handler())
	})

	router.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.withIdempotencyKey)

		r.Post(routeSync, h.applySync)
		r.Get(routeEntity, h.getEntity)
		r.Get(routeEntityVersion, h.getEntityVersion)
	})

	return router
}
