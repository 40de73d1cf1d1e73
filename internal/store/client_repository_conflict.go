package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

type conflictRepository struct {
	store  DurableStore
	logger *logger.Logger

	// serializes the existence check and the write
	mu sync.Mutex
}

// NewConflictRepository returns a [ConflictRepository] backed by the
// [CollectionConflicts] collection.
func NewConflictRepository(store DurableStore, logger *logger.Logger) ConflictRepository {
	return &conflictRepository{store: store, logger: logger}
}

// SaveConflict stores record under its ID. An existing record is never
// overwritten; [ErrConflictAlreadyRecorded] is returned instead.
func (r *conflictRepository) SaveConflict(ctx context.Context, record models.ConflictRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.store.Get(ctx, CollectionConflicts, record.ID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrConflictAlreadyRecorded, record.ID)
	case !errors.Is(err, ErrRecordNotFound):
		return fmt.Errorf("check conflict %s: %w", record.ID, err)
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: conflict %s: %w", ErrEncodingRecord, record.ID, err)
	}

	return r.store.Put(ctx, CollectionConflicts, record.ID, raw)
}

func (r *conflictRepository) GetConflict(ctx context.Context, id string) (models.ConflictRecord, error) {
	raw, err := r.store.Get(ctx, CollectionConflicts, id)
	if err != nil {
		return models.ConflictRecord{}, err
	}

	var record models.ConflictRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return models.ConflictRecord{}, fmt.Errorf("%w: conflict %s: %w", ErrEncodingRecord, id, err)
	}

	return record, nil
}

func (r *conflictRepository) GetAllConflicts(ctx context.Context) ([]models.ConflictRecord, error) {
	log := logger.FromContext(ctx)

	records, err := r.store.GetAll(ctx, CollectionConflicts)
	if err != nil {
		return nil, fmt.Errorf("load conflicts: %w", err)
	}

	conflicts := make([]models.ConflictRecord, 0, len(records))
	for _, rec := range records {
		var record models.ConflictRecord
		if err := json.Unmarshal(rec.Value, &record); err != nil {
			log.Err(err).
				Str("func", "conflictRepository.GetAllConflicts").
				Str("conflict_id", rec.Key).
				Msg("skipping undecodable conflict record")
			continue
		}
		conflicts = append(conflicts, record)
	}

	return conflicts, nil
}

func (r *conflictRepository) Clear(ctx context.Context) error {
	return r.store.Clear(ctx, CollectionConflicts)
}
