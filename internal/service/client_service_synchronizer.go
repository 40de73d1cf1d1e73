package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/metrics"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
	"golang.org/x/time/rate"
)

// forceKeySuffix distinguishes the idempotency key of a force-push from the
// key of the task that hit the conflict.
const forceKeySuffix = ":force"

type taskOutcome int

const (
	taskSynced taskOutcome = iota
	taskRetained
	taskEvicted
)

type synchronizer struct {
	queue         SyncQueue
	monitor       ConnectivityMonitor
	resolver      ConflictResolver
	cache         CacheManager
	serverAdapter adapter.ServerAdapter

	maxRetries int
	limiter    *rate.Limiter
	ids        *utils.UUIDGenerator

	syncing atomic.Bool

	now    func() time.Time
	logger *logger.Logger
}

// NewSynchronizer wires the session engine. When cfg.MaxRequestsPerSecond is
// positive the remote calls of a drain are paced with a token bucket.
func NewSynchronizer(
	queue SyncQueue,
	monitor ConnectivityMonitor,
	resolver ConflictResolver,
	cache CacheManager,
	serverAdapter adapter.ServerAdapter,
	cfg config.ClientWorkers,
	logger *logger.Logger,
) Synchronizer {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = config.DefaultMaxRetries
	}

	var limiter *rate.Limiter
	if cfg.MaxRequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRequestsPerSecond), 1)
	}

	return &synchronizer{
		queue:         queue,
		monitor:       monitor,
		resolver:      resolver,
		cache:         cache,
		serverAdapter: serverAdapter,
		maxRetries:    maxRetries,
		limiter:       limiter,
		ids:           utils.NewUUIDGenerator(),
		now:           time.Now,
		logger:        logger,
	}
}

func (s *synchronizer) IsSyncing() bool {
	return s.syncing.Load()
}

// SyncWhenOnline implements [Synchronizer].
//
// Session steps: reload the queue, process every task in order, persist the
// queue, reconcile the cache. Once a task for a key stays in the queue, later
// tasks for the same key are deferred to the next session.
func (s *synchronizer) SyncWhenOnline(ctx context.Context) (models.SyncResult, error) {
	log := logger.FromContext(ctx)
	startedAt := s.now()

	if !s.monitor.IsReachable() {
		pending := s.queue.Len()
		metrics.IncSkippedSession(metrics.SessionOffline)
		return models.SyncResult{
			Success:     false,
			FailedItems: pending,
			Remaining:   pending,
			StartedAt:   startedAt,
		}, ErrOffline
	}

	if !s.syncing.CompareAndSwap(false, true) {
		metrics.IncSkippedSession(metrics.SessionBusy)
		return models.SyncResult{Remaining: s.queue.Len(), StartedAt: startedAt}, ErrSyncInProgress
	}
	defer s.syncing.Store(false)

	result := models.SyncResult{Success: true, StartedAt: startedAt}

	if err := s.queue.Reload(ctx); err != nil {
		log.Err(err).
			Str("func", "synchronizer.SyncWhenOnline").
			Msg("failed to reload queue, draining in-memory mirror")
	}

	blocked := make(map[string]struct{})
	for _, task := range s.queue.PeekAll() {
		if _, ok := blocked[task.Key]; ok {
			log.Debug().
				Str("func", "synchronizer.SyncWhenOnline").
				Str("task_id", task.ID).
				Str("key", task.Key).
				Msg("deferring task behind a failed task for the same key")
			continue
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				log.Warn().Err(err).
					Str("func", "synchronizer.SyncWhenOnline").
					Msg("drain interrupted")
				break
			}
		}

		outcome, keepKeyBlocked := s.processTask(ctx, task, &result)
		if outcome == taskRetained || keepKeyBlocked {
			blocked[task.Key] = struct{}{}
		}
	}

	if err := s.queue.Persist(ctx); err != nil {
		log.Err(err).
			Str("func", "synchronizer.SyncWhenOnline").
			Msg("failed to persist queue after drain")
	}

	if refreshed, err := s.cache.Reconcile(ctx); err != nil {
		log.Err(err).
			Str("func", "synchronizer.SyncWhenOnline").
			Msg("cache reconciliation failed")
	} else if refreshed > 0 {
		log.Info().
			Str("func", "synchronizer.SyncWhenOnline").
			Int("refreshed", refreshed).
			Msg("cache entries refreshed from server")
	}

	result.Remaining = s.queue.Len()
	result.Duration = s.now().Sub(startedAt)
	metrics.ObserveSession(result)

	log.Info().
		Str("func", "synchronizer.SyncWhenOnline").
		Stringer("result", result).
		Dur("duration", result.Duration).
		Msg("sync session finished")

	return result, nil
}

// processTask transmits one task and applies the response. A panic is
// recovered and counted as a failed attempt of this task only. The second
// return value asks the caller to defer later tasks for the same key.
func (s *synchronizer) processTask(ctx context.Context, task models.SyncTask, result *models.SyncResult) (outcome taskOutcome, blockKey bool) {
	log := logger.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			log.Error().Err(err).
				Str("func", "synchronizer.processTask").
				Str("task_id", task.ID).
				Msg("recovered from panic")
			outcome = s.fail(ctx, task, err, result)
			blockKey = false
		}
	}()

	task.State = models.TaskTransmitting
	if err := s.queue.Update(ctx, task); err != nil {
		log.Err(err).
			Str("func", "synchronizer.processTask").
			Str("task_id", task.ID).
			Msg("failed to persist transmitting state")
	}

	req := newSyncRequest(task, task.ID)

	var (
		resp models.SyncResponse
		err  error
	)
	if task.Force {
		resp, err = s.serverAdapter.ForceSync(ctx, req)
		if err == nil && resp.Conflict {
			err = ErrForceRejected
		}
	} else {
		resp, err = s.serverAdapter.Sync(ctx, req)
	}
	if err != nil {
		return s.fail(ctx, task, err, result), false
	}

	if resp.Conflict {
		blockKey = s.handleConflict(ctx, task, resp, result)
	}

	if err = s.queue.Remove(ctx, task.ID); err != nil && !errors.Is(err, ErrTaskNotFound) {
		log.Err(err).
			Str("func", "synchronizer.processTask").
			Str("task_id", task.ID).
			Msg("task removed from memory, persisting removal failed")
	}
	result.SyncedItems++

	return taskSynced, blockKey
}

// handleConflict runs the resolver and applies its outcome. It reports
// whether a corrective task had to be queued.
func (s *synchronizer) handleConflict(ctx context.Context, task models.SyncTask, resp models.SyncResponse, result *models.SyncResult) bool {
	log := logger.FromContext(ctx)

	outcome, err := s.resolver.Resolve(ctx, models.Conflict{
		ID:              task.ID,
		Key:             task.Key,
		Type:            task.EntityType,
		ClientData:      task.Payload,
		ServerData:      resp.ServerData,
		ClientTimestamp: task.CreatedAt,
		ServerTimestamp: resp.ServerTimestamp,
	})
	if err != nil {
		log.Err(err).
			Str("func", "synchronizer.handleConflict").
			Str("task_id", task.ID).
			Msg("conflict resolved but not recorded")
	}
	result.Conflicts = append(result.Conflicts, outcome.Record)

	if outcome.WriteCache {
		var serverVersion int64
		if outcome.Resolution == models.ResolutionServer {
			serverVersion = resp.Version
		}
		if err = s.cache.StoreResolved(ctx, task.Key, outcome.Data, task.EntityType, serverVersion); err != nil {
			log.Err(err).
				Str("func", "synchronizer.handleConflict").
				Str("key", task.Key).
				Msg("failed to write resolved data to cache")
		}
	}

	if !outcome.ForcePush {
		return false
	}

	action := task.Type
	if outcome.Resolution == models.ResolutionMerge && action == models.TaskCreate {
		action = models.TaskUpdate
	}

	pushed := task
	pushed.Type = action
	pushed.Payload = outcome.Data

	forceResp, err := s.serverAdapter.ForceSync(ctx, newSyncRequest(pushed, task.ID+forceKeySuffix))
	if err == nil && forceResp.Conflict {
		err = ErrForceRejected
	}
	if err == nil {
		return false
	}

	log.Warn().Err(err).
		Str("func", "synchronizer.handleConflict").
		Str("task_id", task.ID).
		Msg("force push failed, queueing corrective task")

	corrective := models.SyncTask{
		ID:         s.ids.Generate(),
		Type:       action,
		Key:        task.Key,
		EntityType: task.EntityType,
		Payload:    outcome.Data,
		CreatedAt:  s.now().UTC(),
		State:      models.TaskPending,
		Force:      true,
	}
	if err = s.queue.Enqueue(ctx, corrective); err != nil {
		log.Err(err).
			Str("func", "synchronizer.handleConflict").
			Str("task_id", task.ID).
			Msg("failed to queue corrective task")
	}

	return true
}

// fail registers a failed attempt. The task is evicted once it reached the
// retry ceiling.
func (s *synchronizer) fail(ctx context.Context, task models.SyncTask, cause error, result *models.SyncResult) taskOutcome {
	log := logger.FromContext(ctx)

	task.RetryCount++
	task.State = models.TaskPending

	if task.RetryCount >= s.maxRetries {
		if err := s.queue.Remove(ctx, task.ID); err != nil && !errors.Is(err, ErrTaskNotFound) {
			log.Err(err).
				Str("func", "synchronizer.fail").
				Str("task_id", task.ID).
				Msg("task evicted from memory, persisting eviction failed")
		}
		result.FailedItems++

		log.Warn().Err(cause).
			Str("func", "synchronizer.fail").
			Str("task_id", task.ID).
			Int("retry_count", task.RetryCount).
			Msg("task evicted after reaching retry ceiling")
		return taskEvicted
	}

	if err := s.queue.Update(ctx, task); err != nil {
		log.Err(err).
			Str("func", "synchronizer.fail").
			Str("task_id", task.ID).
			Msg("failed to persist retry count")
	}

	log.Info().Err(cause).
		Str("func", "synchronizer.fail").
		Str("task_id", task.ID).
		Int("retry_count", task.RetryCount).
		Msg("task attempt failed, kept for next session")
	return taskRetained
}

func newSyncRequest(task models.SyncTask, idempotencyKey string) models.SyncRequest {
	return models.SyncRequest{
		Action:         task.Type,
		Key:            task.Key,
		EntityType:     task.EntityType,
		Data:           task.Payload,
		Timestamp:      task.CreatedAt,
		IdempotencyKey: idempotencyKey,
		Force:          task.Force,
	}
}
