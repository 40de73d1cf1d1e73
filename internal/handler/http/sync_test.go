package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

const syncBody = `{"action":"update","key":"note-1","data":{"title":"a","_version":3},"timestamp":"2026-01-02T03:04:05Z"}`

func TestHandler_applySync_OK(t *testing.T) {
	h, mocks := newTestHandler(t)

	mocks.entity.EXPECT().
		ApplySync(gomock.Any(), int64(7), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, req models.SyncRequest) (models.SyncResponse, error) {
			assert.Equal(t, models.TaskUpdate, req.Action)
			assert.Equal(t, "note-1", req.Key)
			assert.Equal(t, "task-1", req.IdempotencyKey)
			assert.False(t, req.Force)
			return models.SyncResponse{Version: 4}, nil
		})

	rec := doRequest(t, h, http.MethodPost, routeSync, syncBody,
		authHeaders(map[string]string{"X-Idempotency-Key": "task-1"}))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.SyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Conflict)
	assert.Equal(t, int64(4), resp.Version)
}

func TestHandler_applySync_ForceHeader(t *testing.T) {
	h, mocks := newTestHandler(t)

	mocks.entity.EXPECT().
		ApplySync(gomock.Any(), int64(7), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, req models.SyncRequest) (models.SyncResponse, error) {
			assert.True(t, req.Force)
			return models.SyncResponse{Version: 5}, nil
		})

	rec := doRequest(t, h, http.MethodPost, routeSync, syncBody,
		authHeaders(map[string]string{"X-Force-Update": "true"}))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_applySync_Conflict(t *testing.T) {
	h, mocks := newTestHandler(t)

	mocks.entity.EXPECT().
		ApplySync(gomock.Any(), int64(7), gomock.Any()).
		Return(models.SyncResponse{
			Conflict:   true,
			ServerData: json.RawMessage(`{"title":"server"}`),
			Version:    5,
		}, nil)

	rec := doRequest(t, h, http.MethodPost, routeSync, syncBody, authHeaders(nil))

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp models.SyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Conflict)
	assert.JSONEq(t, `{"title":"server"}`, string(resp.ServerData))
	assert.Equal(t, int64(5), resp.Version)
}

func TestHandler_applySync_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid data", service.ErrInvalidDataProvided, http.StatusBadRequest},
		{"wrapped invalid data", fmt.Errorf("validate: %w", service.ErrInvalidDataProvided), http.StatusBadRequest},
		{"store unavailable", store.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{"query failure", store.ErrExecutingQuery, http.StatusInternalServerError},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mocks := newTestHandler(t)
			mocks.entity.EXPECT().ApplySync(gomock.Any(), int64(7), gomock.Any()).Return(models.SyncResponse{}, tt.err)

			rec := doRequest(t, h, http.MethodPost, routeSync, syncBody, authHeaders(nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandler_applySync_InvalidJSON(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, routeSync, `{"action":`, authHeaders(nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_applySync_Unauthorized(t *testing.T) {
	h, mocks := newTestHandler(t)
	mocks.auth.EXPECT().ParseToken(gomock.Any(), "expired").Return(models.Token{}, service.ErrTokenIsExpiredOrInvalid)

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"no header", nil},
		{"not bearer", map[string]string{"Authorization": "Basic abc"}},
		{"invalid token", map[string]string{"Authorization": "Bearer expired"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, routeSync, syncBody, tt.headers)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
