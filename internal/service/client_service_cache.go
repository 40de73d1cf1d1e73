package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

type cacheManager struct {
	repo          store.CacheRepository
	serverAdapter adapter.ServerAdapter

	// mu serializes read-modify-write cycles on entries.
	mu sync.Mutex

	now    func() time.Time
	logger *logger.Logger
}

// NewCacheManager returns the cache façade. serverAdapter is used by
// Reconcile only.
func NewCacheManager(repo store.CacheRepository, serverAdapter adapter.ServerAdapter, logger *logger.Logger) CacheManager {
	return &cacheManager{
		repo:          repo,
		serverAdapter: serverAdapter,
		now:           time.Now,
		logger:        logger,
	}
}

func (c *cacheManager) GetCachedData(ctx context.Context, key string) (json.RawMessage, bool, error) {
	entry, err := c.repo.GetEntry(ctx, key)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached data %s: %w", key, err)
	}
	return entry.Data, true, nil
}

func (c *cacheManager) SetCachedData(ctx context.Context, key string, data json.RawMessage, entityType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found, err := c.lookup(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		entry = models.CacheEntry{Key: key, Version: 1}
	}

	entry.Data = data
	entry.Type = entityType
	entry.LastModified = c.now().UTC()

	return c.put(ctx, entry)
}

func (c *cacheManager) ApplyServerData(ctx context.Context, key string, data json.RawMessage, entityType string, version int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found, err := c.lookup(ctx, key)
	if err != nil {
		return false, err
	}
	if found && version <= entry.Version {
		return false, nil
	}

	entry = models.CacheEntry{
		Key:          key,
		Data:         data,
		Type:         entityType,
		LastModified: c.now().UTC(),
		Version:      version,
	}
	if err = c.put(ctx, entry); err != nil {
		return false, err
	}
	return true, nil
}

func (c *cacheManager) StoreResolved(ctx context.Context, key string, data json.RawMessage, entityType string, serverVersion int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found, err := c.lookup(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		entry = models.CacheEntry{Key: key, Version: 1}
	}

	entry.Data = data
	if entityType != "" {
		entry.Type = entityType
	}
	entry.Version = max(entry.Version, serverVersion)
	entry.LastModified = c.now().UTC()

	return c.put(ctx, entry)
}

func (c *cacheManager) Entries(ctx context.Context) ([]models.CacheEntry, error) {
	entries, err := c.repo.GetAllEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	return entries, nil
}

// Reconcile implements [CacheManager]. Keys unknown to the server and keys
// whose lookup fails are skipped; the first listing error aborts the pass.
func (c *cacheManager) Reconcile(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	entries, err := c.Entries(ctx)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}

		version, err := c.serverAdapter.GetVersion(ctx, entry.Key)
		if errors.Is(err, adapter.ErrNotFound) {
			continue
		}
		if err != nil {
			log.Warn().Err(err).
				Str("func", "cacheManager.Reconcile").
				Str("key", entry.Key).
				Msg("version check failed, skipping key")
			continue
		}
		if version <= entry.Version {
			continue
		}

		entity, err := c.serverAdapter.Fetch(ctx, entry.Key)
		if err != nil {
			log.Warn().Err(err).
				Str("func", "cacheManager.Reconcile").
				Str("key", entry.Key).
				Msg("fetch failed, skipping key")
			continue
		}

		entityType := entity.Type
		if entityType == "" {
			entityType = entry.Type
		}
		applied, err := c.ApplyServerData(ctx, entry.Key, entity.Data, entityType, entity.Version)
		if err != nil {
			log.Err(err).
				Str("func", "cacheManager.Reconcile").
				Str("key", entry.Key).
				Msg("failed to store server data")
			continue
		}
		if applied {
			refreshed++
		}
	}

	log.Debug().
		Str("func", "cacheManager.Reconcile").
		Int("entries", len(entries)).
		Int("refreshed", refreshed).
		Msg("cache reconciled")

	return refreshed, nil
}

func (c *cacheManager) lookup(ctx context.Context, key string) (models.CacheEntry, bool, error) {
	entry, err := c.repo.GetEntry(ctx, key)
	if errors.Is(err, store.ErrRecordNotFound) {
		return models.CacheEntry{}, false, nil
	}
	if err != nil {
		return models.CacheEntry{}, false, fmt.Errorf("read cache entry %s: %w", key, err)
	}
	return entry, true, nil
}

func (c *cacheManager) put(ctx context.Context, entry models.CacheEntry) error {
	if err := c.repo.PutEntry(ctx, entry); err != nil {
		return fmt.Errorf("write cache entry %s: %w", entry.Key, err)
	}
	return nil
}
