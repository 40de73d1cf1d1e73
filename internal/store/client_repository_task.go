package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

type taskRepository struct {
	store  DurableStore
	logger *logger.Logger
}

// NewTaskRepository returns a [TaskRepository] that keeps the sync queue in
// the [CollectionTasks] collection, one record per task.
func NewTaskRepository(store DurableStore, logger *logger.Logger) TaskRepository {
	return &taskRepository{store: store, logger: logger}
}

// LoadTasks returns the persisted queue in stored order. Records that cannot
// be decoded are skipped and logged rather than failing the whole load.
func (r *taskRepository) LoadTasks(ctx context.Context) ([]models.SyncTask, error) {
	log := logger.FromContext(ctx)

	records, err := r.store.GetAll(ctx, CollectionTasks)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	tasks := make([]models.SyncTask, 0, len(records))
	for _, rec := range records {
		var task models.SyncTask
		if err := json.Unmarshal(rec.Value, &task); err != nil {
			log.Err(err).
				Str("func", "taskRepository.LoadTasks").
				Str("task_id", rec.Key).
				Msg("skipping undecodable task record")
			continue
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

// SaveTasks replaces the persisted queue with tasks.
func (r *taskRepository) SaveTasks(ctx context.Context, tasks []models.SyncTask) error {
	records := make([]Record, 0, len(tasks))
	for _, task := range tasks {
		value, err := json.Marshal(task)
		if err != nil {
			return fmt.Errorf("%w: task %s: %w", ErrEncodingRecord, task.ID, err)
		}
		records = append(records, Record{Key: task.ID, Value: value})
	}

	if err := r.store.ReplaceAll(ctx, CollectionTasks, records); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}

	return nil
}

func (r *taskRepository) Count(ctx context.Context) (int, error) {
	records, err := r.store.GetAll(ctx, CollectionTasks)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return len(records), nil
}
