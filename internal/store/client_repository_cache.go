package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

type cacheRepository struct {
	store  DurableStore
	logger *logger.Logger
}

// NewCacheRepository returns a [CacheRepository] backed by the
// [CollectionCache] collection.
func NewCacheRepository(store DurableStore, logger *logger.Logger) CacheRepository {
	return &cacheRepository{store: store, logger: logger}
}

func (r *cacheRepository) GetEntry(ctx context.Context, key string) (models.CacheEntry, error) {
	raw, err := r.store.Get(ctx, CollectionCache, key)
	if err != nil {
		return models.CacheEntry{}, err
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return models.CacheEntry{}, fmt.Errorf("%w: cache entry %s: %w", ErrEncodingRecord, key, err)
	}

	return entry, nil
}

func (r *cacheRepository) PutEntry(ctx context.Context, entry models.CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: cache entry %s: %w", ErrEncodingRecord, entry.Key, err)
	}

	return r.store.Put(ctx, CollectionCache, entry.Key, raw)
}

func (r *cacheRepository) GetAllEntries(ctx context.Context) ([]models.CacheEntry, error) {
	log := logger.FromContext(ctx)

	records, err := r.store.GetAll(ctx, CollectionCache)
	if err != nil {
		return nil, fmt.Errorf("load cache entries: %w", err)
	}

	entries := make([]models.CacheEntry, 0, len(records))
	for _, rec := range records {
		var entry models.CacheEntry
		if err := json.Unmarshal(rec.Value, &entry); err != nil {
			log.Err(err).
				Str("func", "cacheRepository.GetAllEntries").
				Str("key", rec.Key).
				Msg("skipping undecodable cache entry")
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *cacheRepository) Clear(ctx context.Context) error {
	return r.store.Clear(ctx, CollectionCache)
}
