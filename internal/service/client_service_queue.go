package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

type syncQueue struct {
	repo  store.TaskRepository
	order models.DrainOrder

	mu    sync.Mutex
	tasks []models.SyncTask // insertion order

	logger *logger.Logger
}

// NewSyncQueue creates an empty queue backed by repo. Call Reload to pick up
// tasks persisted by a previous run.
//
// With [models.OldestFirst] tasks are processed by CreatedAt, ties broken by
// ID; with [models.NewestFirst] in reverse insertion order.
func NewSyncQueue(repo store.TaskRepository, order models.DrainOrder, logger *logger.Logger) SyncQueue {
	if order == "" {
		order = models.OldestFirst
	}
	return &syncQueue{repo: repo, order: order, logger: logger}
}

func (q *syncQueue) Enqueue(ctx context.Context, task models.SyncTask) error {
	if task.ID == "" || !task.Type.Valid() {
		return fmt.Errorf("%w: id=%q type=%q", ErrInvalidAction, task.ID, task.Type)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.indexOf(task.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, task.ID)
	}

	q.tasks = append(q.tasks, task)
	if err := q.repo.SaveTasks(ctx, q.tasks); err != nil {
		q.tasks = q.tasks[:len(q.tasks)-1]
		logger.FromContext(ctx).Err(err).
			Str("func", "syncQueue.Enqueue").
			Str("task_id", task.ID).
			Msg("failed to persist queue, enqueue rolled back")
		return fmt.Errorf("enqueue task: %w", err)
	}

	return nil
}

func (q *syncQueue) PeekAll() []models.SyncTask {
	q.mu.Lock()
	snapshot := slices.Clone(q.tasks)
	q.mu.Unlock()

	switch q.order {
	case models.NewestFirst:
		slices.Reverse(snapshot)
	default:
		slices.SortStableFunc(snapshot, func(a, b models.SyncTask) int {
			if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
				return c
			}
			return strings.Compare(a.ID, b.ID)
		})
	}

	return snapshot
}

func (q *syncQueue) Update(ctx context.Context, task models.SyncTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexOf(task.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, task.ID)
	}
	q.tasks[i] = task

	return q.persistLocked(ctx)
}

func (q *syncQueue) Remove(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	q.tasks = slices.Delete(q.tasks, i, i+1)

	return q.persistLocked(ctx)
}

// Reload replaces the in-memory queue with the persisted one. The lock is held
// across the load so that a concurrent Enqueue either lands in the store
// before the load or waits for the reload to finish.
func (q *syncQueue) Reload(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	tasks, err := q.repo.LoadTasks(ctx)
	if err != nil {
		return fmt.Errorf("reload queue: %w", err)
	}
	q.tasks = tasks

	return nil
}

func (q *syncQueue) Persist(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.persistLocked(ctx)
}

func (q *syncQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *syncQueue) persistLocked(ctx context.Context) error {
	if err := q.repo.SaveTasks(ctx, q.tasks); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "syncQueue.persist").
			Int("tasks", len(q.tasks)).
			Msg("failed to persist queue")
		return fmt.Errorf("persist queue: %w", err)
	}
	return nil
}

func (q *syncQueue) indexOf(id string) int {
	return slices.IndexFunc(q.tasks, func(t models.SyncTask) bool { return t.ID == id })
}
