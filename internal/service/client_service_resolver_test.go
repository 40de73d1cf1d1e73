// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/mock"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

var resolvedAt = time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)

func newTestResolver(t *testing.T, policy models.ResolutionPolicy, conflicts store.ConflictRepository) *conflictResolver {
	t.Helper()
	r, err := NewConflictResolver(policy, conflicts, logger.Nop())
	require.NoError(t, err)
	cr := r.(*conflictResolver)
	cr.now = func() time.Time { return resolvedAt }
	return cr
}

func sampleConflict() models.Conflict {
	return models.Conflict{
		ID:              "task-1",
		Key:             "note-1",
		Type:            "note",
		ClientData:      json.RawMessage(`{"title":"client","body":"local"}`),
		ServerData:      json.RawMessage(`{"title":"server","tags":["x"]}`),
		ClientTimestamp: baseTime,
		ServerTimestamp: baseTime.Add(30 * time.Minute),
	}
}

func TestNewConflictResolver_UnknownPolicy(t *testing.T) {
	_, err := NewConflictResolver("last-write-wins", nil, logger.Nop())
	assert.ErrorIs(t, err, models.ErrUnsupportedPolicy)
}

func TestNewConflictResolver_DefaultsToClientWins(t *testing.T) {
	r, err := NewConflictResolver("", nil, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, models.PolicyClientWins, r.Policy())
}

func TestConflictResolver_ClientWins(t *testing.T) {
	storages := newTestStorages(t)
	r := newTestResolver(t, models.PolicyClientWins, storages.ConflictRepository)
	c := sampleConflict()

	out, err := r.Resolve(testContext(), c)
	require.NoError(t, err)

	assert.Equal(t, models.ResolutionClient, out.Resolution)
	assert.JSONEq(t, string(c.ClientData), string(out.Data))
	assert.True(t, out.ForcePush)
	assert.False(t, out.WriteCache)

	rec, err := storages.ConflictRepository.GetConflict(testContext(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionClient, rec.Resolution)
	assert.Equal(t, "note-1", rec.Key)
	assert.JSONEq(t, string(c.ServerData), string(rec.ServerData))
	assert.True(t, rec.Timestamp.Equal(resolvedAt))
}

func TestConflictResolver_ServerWins(t *testing.T) {
	storages := newTestStorages(t)
	r := newTestResolver(t, models.PolicyServerWins, storages.ConflictRepository)
	c := sampleConflict()

	out, err := r.Resolve(testContext(), c)
	require.NoError(t, err)

	assert.Equal(t, models.ResolutionServer, out.Resolution)
	assert.JSONEq(t, string(c.ServerData), string(out.Data))
	assert.False(t, out.ForcePush)
	assert.True(t, out.WriteCache)
	assert.JSONEq(t, string(c.ServerData), string(out.Record.ResolvedData))
}

func TestConflictResolver_Merge(t *testing.T) {
	storages := newTestStorages(t)
	r := newTestResolver(t, models.PolicyMerge, storages.ConflictRepository)

	out, err := r.Resolve(testContext(), sampleConflict())
	require.NoError(t, err)

	assert.Equal(t, models.ResolutionMerge, out.Resolution)
	assert.True(t, out.ForcePush)
	assert.True(t, out.WriteCache)

	var merged map[string]any
	require.NoError(t, json.Unmarshal(out.Data, &merged))
	assert.Equal(t, "client", merged["title"])
	assert.Equal(t, "local", merged["body"])
	assert.Equal(t, []any{"x"}, merged["tags"])

	provenance, ok := merged[mergeProvenanceKey].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2026-03-01T12:00:00Z", provenance["client_timestamp"])
	assert.Equal(t, "2026-03-01T12:30:00Z", provenance["server_timestamp"])
	assert.Equal(t, "2026-03-01T13:00:00Z", provenance["merged_at"])
}

func TestConflictResolver_MergeWithoutServerTimestamp(t *testing.T) {
	r := newTestResolver(t, models.PolicyMerge, newTestStorages(t).ConflictRepository)
	c := sampleConflict()
	c.ServerTimestamp = time.Time{}

	out, err := r.Resolve(testContext(), c)
	require.NoError(t, err)

	var merged struct {
		Merge map[string]any `json:"_merge"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &merged))
	assert.NotContains(t, merged.Merge, "server_timestamp")
	assert.Contains(t, merged.Merge, "client_timestamp")
}

func TestConflictResolver_MergeNonObjectFallsBackToClient(t *testing.T) {
	tests := []struct {
		name   string
		client string
		server string
	}{
		{name: "client array", client: `[1,2]`, server: `{"a":1}`},
		{name: "server scalar", client: `{"a":1}`, server: `"text"`},
		{name: "server empty", client: `{"a":1}`, server: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, models.PolicyMerge, newTestStorages(t).ConflictRepository)
			c := sampleConflict()
			c.ClientData = json.RawMessage(tt.client)
			c.ServerData = json.RawMessage(tt.server)

			out, err := r.Resolve(testContext(), c)
			require.NoError(t, err)
			assert.Equal(t, tt.client, string(out.Data))
		})
	}
}

func TestConflictResolver_RecordIsWriteOnce(t *testing.T) {
	storages := newTestStorages(t)
	first := newTestResolver(t, models.PolicyClientWins, storages.ConflictRepository)
	second := newTestResolver(t, models.PolicyServerWins, storages.ConflictRepository)

	_, err := first.Resolve(testContext(), sampleConflict())
	require.NoError(t, err)

	out, err := second.Resolve(testContext(), sampleConflict())
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionServer, out.Resolution)

	rec, err := storages.ConflictRepository.GetConflict(testContext(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionClient, rec.Resolution)

	all, err := storages.ConflictRepository.GetAllConflicts(testContext())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestConflictResolver_RecordError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockConflictRepository(ctrl)
	repo.EXPECT().SaveConflict(gomock.Any(), gomock.Any()).Return(errors.New("write failed"))

	r := newTestResolver(t, models.PolicyServerWins, repo)

	out, err := r.Resolve(testContext(), sampleConflict())
	assert.Error(t, err)
	assert.Equal(t, models.ResolutionServer, out.Resolution)
	assert.True(t, out.WriteCache)
}
