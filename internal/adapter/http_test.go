// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, serverURL string) *httpServerAdapter {
	t.Helper()
	cfg := config.ClientAdapter{HTTPAddress: serverURL, RequestTimeout: time.Second, Token: "test-token"}

	a, err := NewHTTPServerAdapter(cfg, logger.Nop())
	require.NoError(t, err)
	return a.(*httpServerAdapter)
}

func testRequest() models.SyncRequest {
	return models.SyncRequest{
		Action:         models.TaskUpdate,
		Key:            "note-1",
		EntityType:     "note",
		Data:           json.RawMessage(`{"title":"draft"}`),
		Timestamp:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		IdempotencyKey: "task-1",
	}
}

// ── Sync ─────────────────────────────────────────────────────────────────────

func TestSync_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sync/tasks", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "task-1", r.Header.Get(models.HeaderIdempotencyKey))
		assert.NotEmpty(t, r.Header.Get(models.HeaderTraceID))
		assert.Empty(t, r.Header.Get(models.HeaderForceUpdate))

		var got models.SyncRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, models.TaskUpdate, got.Action)
		assert.Equal(t, "note-1", got.Key)
		assert.False(t, got.Force)
		assert.JSONEq(t, `{"title":"draft"}`, string(got.Data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"conflict":false,"version":4}`))
	}))
	defer srv.Close()

	resp, err := newTestAdapter(t, srv.URL).Sync(context.Background(), testRequest())

	require.NoError(t, err)
	assert.False(t, resp.Conflict)
	assert.Equal(t, int64(4), resp.Version)
}

func TestSync_EmptySuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := newTestAdapter(t, srv.URL).Sync(context.Background(), testRequest())

	require.NoError(t, err)
	assert.False(t, resp.Conflict)
}

func TestSync_ConflictInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"conflict":true,"server_data":{"v":2},"version":2}`))
	}))
	defer srv.Close()

	resp, err := newTestAdapter(t, srv.URL).Sync(context.Background(), testRequest())

	require.NoError(t, err)
	assert.True(t, resp.Conflict)
	assert.JSONEq(t, `{"v":2}`, string(resp.ServerData))
}

func TestSync_ConflictStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"server_data":{"v":3},"version":3}`))
	}))
	defer srv.Close()

	resp, err := newTestAdapter(t, srv.URL).Sync(context.Background(), testRequest())

	require.NoError(t, err)
	assert.True(t, resp.Conflict)
	assert.JSONEq(t, `{"v":3}`, string(resp.ServerData))
	assert.Equal(t, int64(3), resp.Version)
}

func TestSync_ConflictStatusPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("stale version"))
	}))
	defer srv.Close()

	resp, err := newTestAdapter(t, srv.URL).Sync(context.Background(), testRequest())

	require.NoError(t, err)
	assert.True(t, resp.Conflict)
	assert.Empty(t, resp.ServerData)
}

func TestSync_ErrorStatuses(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusInternalServerError, ErrInternalServerError},
		{http.StatusBadGateway, ErrBadGateway},
		{http.StatusServiceUnavailable, ErrServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newTestAdapter(t, srv.URL).Sync(context.Background(), testRequest())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSync_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestAdapter(t, url).Sync(context.Background(), testRequest())

	assert.ErrorIs(t, err, ErrTransport)
}

func TestSync_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	_, err := newTestAdapter(t, srv.URL).Sync(context.Background(), testRequest())

	assert.Error(t, err)
}

// ── ForceSync ────────────────────────────────────────────────────────────────

func TestForceSync_SetsMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sync/tasks", r.URL.Path)
		assert.Equal(t, "true", r.Header.Get(models.HeaderForceUpdate))

		var got models.SyncRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.True(t, got.Force)

		_, _ = w.Write([]byte(`{"version":7}`))
	}))
	defer srv.Close()

	resp, err := newTestAdapter(t, srv.URL).ForceSync(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.Version)
}

// ── GetVersion / Fetch ───────────────────────────────────────────────────────

func TestGetVersion_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/entities/note%2F1/version", r.URL.EscapedPath())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"key":"note/1","version":5}`))
	}))
	defer srv.Close()

	version, err := newTestAdapter(t, srv.URL).GetVersion(context.Background(), "note/1")

	require.NoError(t, err)
	assert.Equal(t, int64(5), version)
}

func TestGetVersion_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "entity not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestAdapter(t, srv.URL).GetVersion(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/entities/note-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"key":"note-1","type":"note","data":{"a":1},"version":3,"deleted":false}`))
	}))
	defer srv.Close()

	entity, err := newTestAdapter(t, srv.URL).Fetch(context.Background(), "note-1")

	require.NoError(t, err)
	assert.Equal(t, "note-1", entity.Key)
	assert.Equal(t, "note", entity.Type)
	assert.Equal(t, int64(3), entity.Version)
	assert.JSONEq(t, `{"a":1}`, string(entity.Data))
}

func TestFetch_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestAdapter(t, srv.URL).Fetch(context.Background(), "note-1")

	assert.ErrorIs(t, err, ErrUnauthorized)
}

// ── Ping ─────────────────────────────────────────────────────────────────────

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ping", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	assert.NoError(t, newTestAdapter(t, srv.URL).Ping(context.Background()))
}

func TestPing_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	assert.ErrorIs(t, newTestAdapter(t, url).Ping(context.Background()), ErrTransport)
}

// ── construction ─────────────────────────────────────────────────────────────

func TestNewHTTPServerAdapter_InvalidAddress(t *testing.T) {
	_, err := NewHTTPServerAdapter(config.ClientAdapter{HTTPAddress: ""}, logger.Nop())
	assert.Error(t, err)
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid http", "http://localhost:8080", "http://localhost:8080", false},
		{"no scheme", "localhost:8080", "http://localhost:8080", false},
		{"trailing slash", "http://localhost:8080/", "http://localhost:8080", false},
		{"empty", "", "", true},
		{"no host", "http://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeBaseURL(tt.input)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
