package store

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

func newTestStorages(t *testing.T) *ClientStorages {
	t.Helper()
	return NewClientStoragesFromStore(newSQLiteTestStore(t, filepath.Join(t.TempDir(), "client.db")), logger.Nop())
}

// ── TaskRepository ────────────────────────────────────────────────────────────

func TestTaskRepository_SaveLoad(t *testing.T) {
	s := newTestStorages(t)
	ctx := testContext()
	now := time.Now().UTC().Truncate(time.Millisecond)

	tasks := []models.SyncTask{
		{ID: "t1", Type: models.TaskCreate, Key: "note-1", Payload: json.RawMessage(`{"title":"a"}`), CreatedAt: now, State: models.TaskPending},
		{ID: "t2", Type: models.TaskUpdate, Key: "note-1", RetryCount: 2, CreatedAt: now.Add(time.Second), State: models.TaskTransmitting},
	}
	require.NoError(t, s.TaskRepository.SaveTasks(ctx, tasks))

	loaded, err := s.TaskRepository.LoadTasks(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "t1", loaded[0].ID)
	assert.JSONEq(t, `{"title":"a"}`, string(loaded[0].Payload))
	assert.Equal(t, 2, loaded[1].RetryCount)
	assert.Equal(t, models.TaskTransmitting, loaded[1].State)
	assert.True(t, now.Equal(loaded[0].CreatedAt))

	n, err := s.TaskRepository.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// saving a shorter queue drops removed tasks
	require.NoError(t, s.TaskRepository.SaveTasks(ctx, tasks[1:]))
	loaded, err = s.TaskRepository.LoadTasks(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "t2", loaded[0].ID)
}

func TestTaskRepository_SkipsCorruptRecords(t *testing.T) {
	s := newTestStorages(t)
	ctx := testContext()

	require.NoError(t, s.Store.Put(ctx, CollectionTasks, "bad", []byte("not json")))
	require.NoError(t, s.Store.Put(ctx, CollectionTasks, "good", []byte(`{"id":"good","type":"create"}`)))

	loaded, err := s.TaskRepository.LoadTasks(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "good", loaded[0].ID)
}

// ── CacheRepository ───────────────────────────────────────────────────────────

func TestCacheRepository(t *testing.T) {
	s := newTestStorages(t)
	ctx := testContext()

	_, err := s.CacheRepository.GetEntry(ctx, "missing")
	require.ErrorIs(t, err, ErrRecordNotFound)

	entry := models.CacheEntry{Key: "user-1", Data: json.RawMessage(`{"name":"x"}`), Type: "user", Version: 3, LastModified: time.Now().UTC()}
	require.NoError(t, s.CacheRepository.PutEntry(ctx, entry))

	got, err := s.CacheRepository.GetEntry(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Version)
	assert.Equal(t, "user", got.Type)

	all, err := s.CacheRepository.GetAllEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.CacheRepository.Clear(ctx))
	all, err = s.CacheRepository.GetAllEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

// ── ConflictRepository ────────────────────────────────────────────────────────

func TestConflictRepository_WriteOnce(t *testing.T) {
	s := newTestStorages(t)
	ctx := testContext()

	record := models.ConflictRecord{
		ID:         "task-1",
		Key:        "note-1",
		ClientData: json.RawMessage(`{"v":"client"}`),
		ServerData: json.RawMessage(`{"v":"server"}`),
		Resolution: models.ResolutionClient,
		Timestamp:  time.Now().UTC(),
	}
	require.NoError(t, s.ConflictRepository.SaveConflict(ctx, record))

	overwrite := record
	overwrite.Resolution = models.ResolutionServer
	err := s.ConflictRepository.SaveConflict(ctx, overwrite)
	require.ErrorIs(t, err, ErrConflictAlreadyRecorded)

	got, err := s.ConflictRepository.GetConflict(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionClient, got.Resolution)

	all, err := s.ConflictRepository.GetAllConflicts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestConflictRepository_RedisBackend(t *testing.T) {
	rs, _ := newRedisTestStore(t)
	s := NewClientStoragesFromStore(rs, logger.Nop())
	ctx := testContext()

	require.NoError(t, s.ConflictRepository.SaveConflict(ctx, models.ConflictRecord{ID: "a", Resolution: models.ResolutionMerge}))
	require.NoError(t, s.ConflictRepository.SaveConflict(ctx, models.ConflictRecord{ID: "b", Resolution: models.ResolutionServer}))

	all, err := s.ConflictRepository.GetAllConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}
