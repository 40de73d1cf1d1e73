package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

// ClientStorages groups the durable store and the typed repositories the
// sync engine works with.
type ClientStorages struct {
	Store              DurableStore
	TaskRepository     TaskRepository
	CacheRepository    CacheRepository
	ConflictRepository ConflictRepository
}

// NewClientStorages opens the durable store selected by cfg.Driver and wires
// the repositories on top of it.
//
// For the sqlite driver the database file is created when missing and the
// schema migrations are applied. For the redis driver the connection is
// verified with PING.
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Str("driver", cfg.Driver).Msg("creating client storages...")

	var store DurableStore
	switch cfg.Driver {
	case config.StorageDriverRedis:
		client, err := NewConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("redis connection error: %w", err)
		}
		store = NewRedisStore(client, cfg.Redis.Prefix, logger)
	default:
		db, err := NewConnectSQLite(ctx, cfg.DB, logger)
		if err != nil {
			return nil, fmt.Errorf("sqlite connection error: %w", err)
		}

		if err := db.MigrateClient(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		store = NewSQLiteStore(db, logger)
	}

	return NewClientStoragesFromStore(store, logger), nil
}

// NewClientStoragesFromStore wires the repositories on top of an already
// open store.
func NewClientStoragesFromStore(store DurableStore, logger *logger.Logger) *ClientStorages {
	return &ClientStorages{
		Store:              store,
		TaskRepository:     NewTaskRepository(store, logger),
		CacheRepository:    NewCacheRepository(store, logger),
		ConflictRepository: NewConflictRepository(store, logger),
	}
}

// Close releases the underlying store.
func (s *ClientStorages) Close() error {
	return s.Store.Close()
}
