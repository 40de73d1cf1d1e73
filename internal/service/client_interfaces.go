package service

import (
	"context"
	"encoding/json"

	"github.com/MKhiriev/go-offline-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_service_mock.go -package=mock

// SyncQueue is the in-memory mirror of the persisted task collection.
// Every mutating call writes the full queue back to the durable store.
type SyncQueue interface {
	// Enqueue appends task and persists the queue. When persisting fails the
	// append is rolled back and the error is returned.
	Enqueue(ctx context.Context, task models.SyncTask) error

	// PeekAll returns a snapshot of the queue in processing order.
	PeekAll() []models.SyncTask

	// Update replaces the task with the same ID and persists the queue.
	Update(ctx context.Context, task models.SyncTask) error

	// Remove deletes the task with id and persists the queue. The in-memory
	// removal stands even when persisting fails.
	Remove(ctx context.Context, id string) error

	// Reload replaces the mirror with the persisted queue.
	Reload(ctx context.Context) error

	// Persist writes the mirror to the durable store.
	Persist(ctx context.Context) error

	Len() int
}

// ConnectivityMonitor turns reachability and visibility signals into sync
// triggers. It holds no state besides the two flags.
type ConnectivityMonitor interface {
	IsReachable() bool

	// SetReachable records the reachability signal. A false to true
	// transition emits [models.TriggerReachable].
	SetReachable(reachable bool)

	// SetForeground records the visibility signal. Regaining the foreground
	// while reachable emits [models.TriggerForeground].
	SetForeground(foreground bool)

	// Subscribe returns a channel receiving triggers. Delivery never blocks
	// the monitor: triggers arriving while one is pending are coalesced.
	Subscribe() <-chan models.Trigger
}

// ConflictResolver settles a server-reported conflict according to the
// policy it was built with and records every occurrence in the conflict log.
type ConflictResolver interface {
	Policy() models.ResolutionPolicy

	// Resolve returns the outcome the synchronizer must apply. The outcome is
	// valid even when the returned error reports that the conflict record
	// could not be persisted.
	Resolve(ctx context.Context, conflict models.Conflict) (models.Outcome, error)
}

// CacheManager owns the last-known-good entity snapshots and their versions.
type CacheManager interface {
	// GetCachedData returns the cached data of key and false on a miss.
	GetCachedData(ctx context.Context, key string) (json.RawMessage, bool, error)

	// SetCachedData stores a local write. New entries start at version 1;
	// existing entries keep their version.
	SetCachedData(ctx context.Context, key string, data json.RawMessage, entityType string) error

	// ApplyServerData stores server data only when version is higher than the
	// cached one and reports whether it did.
	ApplyServerData(ctx context.Context, key string, data json.RawMessage, entityType string, version int64) (bool, error)

	// StoreResolved writes the result of a conflict resolution. The version is
	// raised to serverVersion when that is higher and never lowered.
	StoreResolved(ctx context.Context, key string, data json.RawMessage, entityType string, serverVersion int64) error

	Entries(ctx context.Context) ([]models.CacheEntry, error)

	// Reconcile pulls every cached key whose server version advanced and
	// returns the number of refreshed entries.
	Reconcile(ctx context.Context) (int, error)
}

// Synchronizer runs synchronization sessions. At most one session is active
// at any time.
type Synchronizer interface {
	// SyncWhenOnline drains the queue and reconciles the cache. It returns
	// [ErrOffline] with every queued task reported as failed when the server
	// is unreachable, and [ErrSyncInProgress] when a session is running.
	SyncWhenOnline(ctx context.Context) (models.SyncResult, error)

	IsSyncing() bool
}
