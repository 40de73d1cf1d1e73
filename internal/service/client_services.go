package service

import (
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
)

// ClientServices groups the components of the offline sync engine.
type ClientServices struct {
	Queue        SyncQueue
	Monitor      ConnectivityMonitor
	Resolver     ConflictResolver
	Cache        CacheManager
	Synchronizer Synchronizer
}

// NewClientServices builds the engine components on top of storages. The
// monitor starts unreachable. An unsupported conflict policy fails here.
func NewClientServices(storages *store.ClientStorages, serverAdapter adapter.ServerAdapter, cfg config.ClientWorkers, logger *logger.Logger) (*ClientServices, error) {
	resolver, err := NewConflictResolver(cfg.ConflictPolicy, storages.ConflictRepository, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidWorkerConfigs, err)
	}

	queue := NewSyncQueue(storages.TaskRepository, cfg.DrainOrder, logger)
	monitor := NewConnectivityMonitor(false, logger)
	cache := NewCacheManager(storages.CacheRepository, serverAdapter, logger)

	return &ClientServices{
		Queue:        queue,
		Monitor:      monitor,
		Resolver:     resolver,
		Cache:        cache,
		Synchronizer: NewSynchronizer(queue, monitor, resolver, cache, serverAdapter, cfg, logger),
	}, nil
}
