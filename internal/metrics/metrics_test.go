package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestObserveSession(t *testing.T) {
	synced := testutil.ToFloat64(syncedItems)
	failed := testutil.ToFloat64(failedItems)
	completed := testutil.ToFloat64(syncSessions.WithLabelValues(SessionCompleted))
	server := testutil.ToFloat64(conflicts.WithLabelValues(string(models.ResolutionServer)))

	ObserveSession(models.SyncResult{
		Success:     true,
		SyncedItems: 3,
		FailedItems: 1,
		Conflicts:   []models.ConflictRecord{{ID: "t1", Resolution: models.ResolutionServer}},
		Remaining:   2,
		Duration:    150 * time.Millisecond,
	})

	assert.Equal(t, synced+3, testutil.ToFloat64(syncedItems))
	assert.Equal(t, failed+1, testutil.ToFloat64(failedItems))
	assert.Equal(t, completed+1, testutil.ToFloat64(syncSessions.WithLabelValues(SessionCompleted)))
	assert.Equal(t, server+1, testutil.ToFloat64(conflicts.WithLabelValues(string(models.ResolutionServer))))
	assert.Equal(t, float64(2), testutil.ToFloat64(queueLength))
}

func TestIncSkippedSession(t *testing.T) {
	before := testutil.ToFloat64(syncSessions.WithLabelValues(SessionOffline))
	IncSkippedSession(SessionOffline)
	assert.Equal(t, before+1, testutil.ToFloat64(syncSessions.WithLabelValues(SessionOffline)))
}

func TestSetQueueLength(t *testing.T) {
	SetQueueLength(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(queueLength))
}

func TestIncHTTP(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("/api/ping", "200"))
	IncHTTP("/api/ping", http.StatusOK)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("/api/ping", "200")))
}

func TestHandler_ExposesRegisteredMetrics(t *testing.T) {
	Register()
	SetQueueLength(1)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "offline_sync_queue_length")
}
