// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/mock"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

// newTestStorages returns repositories backed by an in-memory redis.
func newTestStorages(t *testing.T) *store.ClientStorages {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := store.NewConnectRedis(testContext(), config.ClientRedis{Address: mr.Addr()}, logger.Nop())
	require.NoError(t, err)
	storages := store.NewClientStoragesFromStore(store.NewRedisStore(client, "svc", logger.Nop()), logger.Nop())
	t.Cleanup(func() { storages.Close() })
	return storages
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTask(id, key string, offset time.Duration) models.SyncTask {
	return models.SyncTask{
		ID:        id,
		Type:      models.TaskUpdate,
		Key:       key,
		Payload:   []byte(`{"id":"` + key + `"}`),
		CreatedAt: baseTime.Add(offset),
		State:     models.TaskPending,
	}
}

func taskIDs(tasks []models.SyncTask) []string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

// ── Enqueue ───────────────────────────────────────────────────────────────────

func TestSyncQueue_EnqueuePersists(t *testing.T) {
	ctx := testContext()
	storages := newTestStorages(t)
	q := NewSyncQueue(storages.TaskRepository, models.OldestFirst, logger.Nop())

	require.NoError(t, q.Enqueue(ctx, newTask("t1", "a", 0)))
	require.NoError(t, q.Enqueue(ctx, newTask("t2", "b", time.Second)))

	assert.Equal(t, 2, q.Len())
	count, err := storages.TaskRepository.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSyncQueue_EnqueueRejectsInvalid(t *testing.T) {
	q := NewSyncQueue(newTestStorages(t).TaskRepository, models.OldestFirst, logger.Nop())

	err := q.Enqueue(testContext(), models.SyncTask{ID: "t1", Type: "upsert", Key: "a"})
	assert.ErrorIs(t, err, ErrInvalidAction)

	err = q.Enqueue(testContext(), models.SyncTask{Type: models.TaskCreate, Key: "a"})
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Zero(t, q.Len())
}

func TestSyncQueue_EnqueueRejectsDuplicateID(t *testing.T) {
	ctx := testContext()
	q := NewSyncQueue(newTestStorages(t).TaskRepository, models.OldestFirst, logger.Nop())

	require.NoError(t, q.Enqueue(ctx, newTask("t1", "a", 0)))
	assert.ErrorIs(t, q.Enqueue(ctx, newTask("t1", "b", 0)), ErrDuplicateTask)
	assert.Equal(t, 1, q.Len())
}

func TestSyncQueue_EnqueueRollsBackOnPersistError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockTaskRepository(ctrl)
	repo.EXPECT().SaveTasks(gomock.Any(), gomock.Any()).Return(store.ErrStoreUnavailable)

	q := NewSyncQueue(repo, models.OldestFirst, logger.Nop())

	err := q.Enqueue(testContext(), newTask("t1", "a", 0))
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	assert.Zero(t, q.Len())
	assert.Empty(t, q.PeekAll())
}

// ── PeekAll ───────────────────────────────────────────────────────────────────

func TestSyncQueue_PeekAllOldestFirst(t *testing.T) {
	ctx := testContext()
	q := NewSyncQueue(newTestStorages(t).TaskRepository, models.OldestFirst, logger.Nop())

	require.NoError(t, q.Enqueue(ctx, newTask("t3", "c", 2*time.Second)))
	require.NoError(t, q.Enqueue(ctx, newTask("t1", "a", 0)))
	require.NoError(t, q.Enqueue(ctx, newTask("t2b", "b", time.Second)))
	require.NoError(t, q.Enqueue(ctx, newTask("t2a", "b", time.Second)))

	assert.Equal(t, []string{"t1", "t2a", "t2b", "t3"}, taskIDs(q.PeekAll()))
}

func TestSyncQueue_PeekAllNewestFirst(t *testing.T) {
	ctx := testContext()
	q := NewSyncQueue(newTestStorages(t).TaskRepository, models.NewestFirst, logger.Nop())

	require.NoError(t, q.Enqueue(ctx, newTask("t1", "a", 0)))
	require.NoError(t, q.Enqueue(ctx, newTask("t2", "b", time.Second)))
	require.NoError(t, q.Enqueue(ctx, newTask("t3", "c", 2*time.Second)))

	assert.Equal(t, []string{"t3", "t2", "t1"}, taskIDs(q.PeekAll()))
}

func TestSyncQueue_PeekAllReturnsSnapshot(t *testing.T) {
	ctx := testContext()
	q := NewSyncQueue(newTestStorages(t).TaskRepository, models.OldestFirst, logger.Nop())
	require.NoError(t, q.Enqueue(ctx, newTask("t1", "a", 0)))

	snapshot := q.PeekAll()
	snapshot[0].Key = "mutated"

	assert.Equal(t, "a", q.PeekAll()[0].Key)
}

// ── Update / Remove ───────────────────────────────────────────────────────────

func TestSyncQueue_UpdateAndRemove(t *testing.T) {
	ctx := testContext()
	storages := newTestStorages(t)
	q := NewSyncQueue(storages.TaskRepository, models.OldestFirst, logger.Nop())
	require.NoError(t, q.Enqueue(ctx, newTask("t1", "a", 0)))
	require.NoError(t, q.Enqueue(ctx, newTask("t2", "b", time.Second)))

	task := q.PeekAll()[0]
	task.RetryCount = 2
	task.State = models.TaskTransmitting
	require.NoError(t, q.Update(ctx, task))

	loaded, err := storages.TaskRepository.LoadTasks(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 2, loaded[0].RetryCount)
	assert.Equal(t, models.TaskTransmitting, loaded[0].State)

	require.NoError(t, q.Remove(ctx, "t1"))
	assert.Equal(t, []string{"t2"}, taskIDs(q.PeekAll()))

	loaded, err = storages.TaskRepository.LoadTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, taskIDs(loaded))
}

func TestSyncQueue_UnknownTask(t *testing.T) {
	ctx := testContext()
	q := NewSyncQueue(newTestStorages(t).TaskRepository, models.OldestFirst, logger.Nop())

	assert.ErrorIs(t, q.Update(ctx, newTask("missing", "a", 0)), ErrTaskNotFound)
	assert.ErrorIs(t, q.Remove(ctx, "missing"), ErrTaskNotFound)
}

// ── Reload / Persist ──────────────────────────────────────────────────────────

func TestSyncQueue_ReloadRestoresTasksAfterRestart(t *testing.T) {
	ctx := testContext()
	storages := newTestStorages(t)

	first := NewSyncQueue(storages.TaskRepository, models.OldestFirst, logger.Nop())
	require.NoError(t, first.Enqueue(ctx, newTask("t1", "a", 0)))
	require.NoError(t, first.Enqueue(ctx, newTask("t2", "b", time.Second)))

	second := NewSyncQueue(storages.TaskRepository, models.OldestFirst, logger.Nop())
	assert.Zero(t, second.Len())

	require.NoError(t, second.Reload(ctx))
	assert.Equal(t, []string{"t1", "t2"}, taskIDs(second.PeekAll()))
}

// blockingTaskRepo parks LoadTasks until release is closed.
type blockingTaskRepo struct {
	store.TaskRepository

	loading chan struct{}
	release chan struct{}
}

func (r *blockingTaskRepo) LoadTasks(ctx context.Context) ([]models.SyncTask, error) {
	close(r.loading)
	<-r.release
	return r.TaskRepository.LoadTasks(ctx)
}

func TestSyncQueue_ReloadDoesNotDropConcurrentEnqueue(t *testing.T) {
	ctx := testContext()
	storages := newTestStorages(t)
	repo := &blockingTaskRepo{
		TaskRepository: storages.TaskRepository,
		loading:        make(chan struct{}),
		release:        make(chan struct{}),
	}

	q := NewSyncQueue(repo, models.OldestFirst, logger.Nop())
	require.NoError(t, q.Enqueue(ctx, newTask("A", "a", 0)))

	reloaded := make(chan error, 1)
	go func() { reloaded <- q.Reload(ctx) }()
	<-repo.loading

	enqueued := make(chan error, 1)
	go func() { enqueued <- q.Enqueue(ctx, newTask("B", "b", time.Second)) }()

	time.Sleep(20 * time.Millisecond)
	close(repo.release)

	require.NoError(t, <-reloaded)
	require.NoError(t, <-enqueued)
	require.NoError(t, q.Remove(ctx, "A"))

	assert.Equal(t, []string{"B"}, taskIDs(q.PeekAll()))
	persisted, err := storages.TaskRepository.LoadTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, taskIDs(persisted))
}

func TestSyncQueue_ReloadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockTaskRepository(ctrl)
	repo.EXPECT().LoadTasks(gomock.Any()).Return(nil, errors.New("disk gone"))

	q := NewSyncQueue(repo, "", logger.Nop())
	assert.Error(t, q.Reload(testContext()))
}

func TestSyncQueue_PersistError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockTaskRepository(ctrl)
	repo.EXPECT().SaveTasks(gomock.Any(), gomock.Len(0)).Return(store.ErrStoreUnavailable)

	q := NewSyncQueue(repo, models.OldestFirst, logger.Nop())
	assert.ErrorIs(t, q.Persist(testContext()), store.ErrStoreUnavailable)
}
