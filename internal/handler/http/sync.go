// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

// applySync handles POST /api/sync/tasks. A conflict is answered with 409
// and the server copy of the entity in the body.
func (h *Handler) applySync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.applySync").Msg("no user ID was given")
		http.Error(w, ErrNoUserInContext.Error(), http.StatusUnauthorized)
		return
	}

	var req models.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.applySync").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = utils.GetIdempotencyKeyFromContext(ctx)
	}
	if force, err := strconv.ParseBool(r.Header.Get(models.HeaderForceUpdate)); err == nil && force {
		req.Force = true
	}

	resp, err := h.services.EntityService.ApplySync(ctx, userID, req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.applySync").Str("key", req.Key).Msg("error applying sync request")
		http.Error(w, "error applying sync request", statusFromError(err))
		return
	}

	status := http.StatusOK
	if resp.Conflict {
		status = http.StatusConflict
	}
	utils.WriteJSON(w, resp, status)
}
