package http

import (
	"context"
	"net/http"

	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

// withIdempotencyKey copies the X-Idempotency-Key header into the request
// context.
func (h *Handler) withIdempotencyKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get(models.HeaderIdempotencyKey); key != "" {
			r = r.WithContext(context.WithValue(r.Context(), utils.IdempotencyKeyCtxKey, key))
		}
		next.ServeHTTP(w, r)
	})
}
