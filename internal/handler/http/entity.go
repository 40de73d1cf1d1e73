package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
)

func (h *Handler) getEntity(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	entity, err := h.services.EntityService.GetEntity(r.Context(), key)
	if err != nil {
		logger.FromRequest(r).Err(err).Str("func", "*Handler.getEntity").Str("key", key).Send()
		http.Error(w, "error getting entity", statusFromError(err))
		return
	}

	utils.WriteJSON(w, entity, http.StatusOK)
}

func (h *Handler) getEntityVersion(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	version, err := h.services.EntityService.GetVersion(r.Context(), key)
	if err != nil {
		logger.FromRequest(r).Err(err).Str("func", "*Handler.getEntityVersion").Str("key", key).Send()
		http.Error(w, "error getting entity version", statusFromError(err))
		return
	}

	utils.WriteJSON(w, version, http.StatusOK)
}
