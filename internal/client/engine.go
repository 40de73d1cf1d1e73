package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/metrics"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/internal/workers"
	"github.com/MKhiriev/go-offline-sync/models"
)

type Engine struct {
	storages      *store.ClientStorages
	services      *service.ClientServices
	serverAdapter adapter.ServerAdapter

	scheduler *workers.SyncScheduler
	prober    *workers.ConnectivityProber
	workers   *workers.Workers

	ids    *utils.UUIDGenerator
	now    func() time.Time
	logger *logger.Logger
}

var _ SyncEngine = (*Engine)(nil)

// NewEngine opens the durable store selected by cfg and wires the engine
// against the HTTP sync server.
func NewEngine(ctx context.Context, cfg *config.ClientConfig, logger *logger.Logger) (*Engine, error) {
	storages, err := store.NewClientStorages(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("create client storages: %w", err)
	}

	serverAdapter, err := adapter.NewHTTPServerAdapter(cfg.Adapter, logger)
	if err != nil {
		storages.Close()
		return nil, fmt.Errorf("create server adapter: %w", err)
	}

	engine, err := NewEngineWithDeps(storages, serverAdapter, cfg.Workers, cfg.Adapter.RequestTimeout, logger)
	if err != nil {
		storages.Close()
		return nil, err
	}
	return engine, nil
}

// NewEngineWithDeps wires the engine on top of already created storages and
// adapter. probeTimeout bounds a single connectivity probe.
func NewEngineWithDeps(storages *store.ClientStorages, serverAdapter adapter.ServerAdapter, cfg config.ClientWorkers, probeTimeout time.Duration, logger *logger.Logger) (*Engine, error) {
	services, err := service.NewClientServices(storages, serverAdapter, cfg, logger)
	if err != nil {
		return nil, err
	}

	scheduler := workers.NewSyncScheduler(services.Synchronizer, services.Monitor, cfg.SyncInterval, logger)
	prober := workers.NewConnectivityProber(serverAdapter, services.Monitor, cfg.ProbeInterval, probeTimeout, logger)

	return &Engine{
		storages:      storages,
		services:      services,
		serverAdapter: serverAdapter,
		scheduler:     scheduler,
		prober:        prober,
		workers:       workers.NewWorkers(scheduler, prober),
		ids:           utils.NewUUIDGenerator(),
		now:           time.Now,
		logger:        logger,
	}, nil
}

// Init reloads the queue persisted by a previous run and starts the
// scheduler and the connectivity prober.
func (e *Engine) Init(ctx context.Context) error {
	if err := e.services.Queue.Reload(ctx); err != nil {
		return fmt.Errorf("init engine: %w", err)
	}
	metrics.SetQueueLength(e.services.Queue.Len())

	e.workers.Start(ctx)

	e.logger.Info().
		Str("func", "Engine.Init").
		Int("queued", e.services.Queue.Len()).
		Str("policy", string(e.services.Resolver.Policy())).
		Msg("sync engine started")

	if e.services.Queue.Len() > 0 && e.services.Monitor.IsReachable() {
		e.scheduler.Kick()
	}
	return nil
}

func (e *Engine) Destroy() error {
	e.workers.Stop()

	if err := e.storages.Close(); err != nil {
		return fmt.Errorf("close storages: %w", err)
	}

	e.logger.Info().Str("func", "Engine.Destroy").Msg("sync engine stopped")
	return nil
}

// QueueAction turns action into a task, appends it to the durable queue and,
// when the server is reachable, asks the scheduler for a session. The key
// defaults to the generated task ID.
func (e *Engine) QueueAction(ctx context.Context, action models.Action) (models.SyncTask, error) {
	if !action.Type.Valid() {
		return models.SyncTask{}, fmt.Errorf("%w: type %q", service.ErrInvalidAction, action.Type)
	}
	if len(action.Payload) > 0 && !json.Valid(action.Payload) {
		return models.SyncTask{}, fmt.Errorf("%w: payload is not valid JSON", service.ErrInvalidAction)
	}

	task := models.SyncTask{
		ID:         e.ids.Generate(),
		Type:       action.Type,
		Key:        action.Key,
		EntityType: action.EntityType,
		Payload:    action.Payload,
		CreatedAt:  e.now().UTC(),
		State:      models.TaskPending,
	}
	if task.Key == "" {
		task.Key = task.ID
	}

	if err := e.services.Queue.Enqueue(ctx, task); err != nil {
		return models.SyncTask{}, err
	}
	metrics.SetQueueLength(e.services.Queue.Len())

	logger.FromContext(ctx).Debug().
		Str("func", "Engine.QueueAction").
		Str("task_id", task.ID).
		Str("key", task.Key).
		Str("type", string(task.Type)).
		Msg("action queued")

	if e.services.Monitor.IsReachable() {
		e.scheduler.Kick()
	}
	return task, nil
}

// SyncWhenOnline runs a session in the caller's goroutine. It fails with
// [service.ErrOffline] or [service.ErrSyncInProgress] without touching the
// queue.
func (e *Engine) SyncWhenOnline(ctx context.Context) (models.SyncResult, error) {
	result, err := e.services.Synchronizer.SyncWhenOnline(ctx)
	if err == nil || errors.Is(err, service.ErrOffline) {
		metrics.SetQueueLength(result.Remaining)
	}
	return result, err
}

func (e *Engine) GetCachedData(ctx context.Context, key string) (json.RawMessage, bool, error) {
	return e.services.Cache.GetCachedData(ctx, key)
}

func (e *Engine) SetCachedData(ctx context.Context, key string, data json.RawMessage, entityType string) error {
	return e.services.Cache.SetCachedData(ctx, key, data, entityType)
}

// CacheEntries lists every cached snapshot.
func (e *Engine) CacheEntries(ctx context.Context) ([]models.CacheEntry, error) {
	return e.services.Cache.Entries(ctx)
}

func (e *Engine) IsOnlineStatus() bool {
	return e.services.Monitor.IsReachable()
}

func (e *Engine) GetSyncQueueLength() int {
	return e.services.Queue.Len()
}

// PendingTasks returns the queued tasks in drain order.
func (e *Engine) PendingTasks() []models.SyncTask {
	return e.services.Queue.PeekAll()
}

func (e *Engine) Conflicts(ctx context.Context) ([]models.ConflictRecord, error) {
	return e.storages.ConflictRepository.GetAllConflicts(ctx)
}

func (e *Engine) SetReachable(reachable bool) {
	e.services.Monitor.SetReachable(reachable)
}

func (e *Engine) SetForeground(foreground bool) {
	e.services.Monitor.SetForeground(foreground)
}

// SetSyncInterval changes the period of background sessions; a non-positive
// value turns the timer off.
func (e *Engine) SetSyncInterval(d time.Duration) {
	e.scheduler.SetInterval(d)
}

// Probe pings the server once and updates the reachability state.
func (e *Engine) Probe(ctx context.Context) bool {
	return e.prober.Probe(ctx)
}

// IsSyncing reports whether a session is running.
func (e *Engine) IsSyncing() bool {
	return e.services.Synchronizer.IsSyncing()
}
