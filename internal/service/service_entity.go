// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

// baseVersionKey is the payload field carrying the server version the
// client based its change on.
const baseVersionKey = "_version"

const (
	maxTxAttempts  = 3
	txRetryBackoff = 10 * time.Millisecond
)

type entityService struct {
	db          store.Transactor
	entities    store.EntityRepository
	idempotency store.IdempotencyRepository

	logger *logger.Logger
}

func NewEntityService(db store.Transactor, entities store.EntityRepository, idempotency store.IdempotencyRepository, logger *logger.Logger) EntityService {
	return &entityService{
		db:          db,
		entities:    entities,
		idempotency: idempotency,
		logger:      logger,
	}
}

// ApplySync implements [EntityService].
//
// Conflict rules, skipped when req.Force is set:
//   - create conflicts with an existing entity that is not deleted;
//   - update and delete conflict when the payload carries "_version" and it
//     differs from the stored version (0 for a missing entity).
//
// Applied mutations bump the version by one. The "_version" field is not
// stored. A transaction aborted by a serialization failure, deadlock or lock
// timeout is rerun up to maxTxAttempts times.
func (s *entityService) ApplySync(ctx context.Context, userID int64, req models.SyncRequest) (models.SyncResponse, error) {
	log := logger.FromContext(ctx)

	if req.Key == "" || !req.Action.Valid() {
		return models.SyncResponse{}, fmt.Errorf("%w: key=%q action=%q", ErrInvalidDataProvided, req.Key, req.Action)
	}

	var (
		resp     models.SyncResponse
		replayed bool
		err      error
	)
	for attempt := 1; ; attempt++ {
		resp, replayed, err = s.applyTx(ctx, userID, req)
		if err == nil || attempt == maxTxAttempts || !store.IsRetryableTxError(err) {
			break
		}

		log.Warn().Err(err).
			Str("func", "entityService.ApplySync").
			Str("key", req.Key).
			Int("attempt", attempt).
			Msg("transaction aborted, retrying")
		if err = sleepWithContext(ctx, time.Duration(attempt)*txRetryBackoff); err != nil {
			return models.SyncResponse{}, err
		}
	}
	if err != nil {
		return models.SyncResponse{}, err
	}

	if replayed {
		log.Info().
			Str("func", "entityService.ApplySync").
			Str("idempotency_key", req.IdempotencyKey).
			Msg("replaying stored response")
		return resp, nil
	}

	log.Info().
		Str("func", "entityService.ApplySync").
		Str("key", req.Key).
		Str("action", string(req.Action)).
		Bool("force", req.Force).
		Bool("conflict", resp.Conflict).
		Int64("version", resp.Version).
		Msg("sync request applied")

	return resp, nil
}

// applyTx runs one attempt of ApplySync. The stored response lookup is
// repeated on every attempt so a retry observes a concurrent commit of the
// same idempotency key.
func (s *entityService) applyTx(ctx context.Context, userID int64, req models.SyncRequest) (models.SyncResponse, bool, error) {
	if req.IdempotencyKey != "" {
		resp, found, err := s.replay(ctx, req.IdempotencyKey, userID)
		if err != nil || found {
			return resp, found, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.SyncResponse{}, false, fmt.Errorf("%w: %w", store.ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	current, err := s.entities.GetEntity(ctx, tx, req.Key)
	exists := err == nil
	if err != nil && !errors.Is(err, store.ErrEntityNotFound) {
		return models.SyncResponse{}, false, err
	}

	var resp models.SyncResponse
	if !req.Force && isConflict(req, current, exists) {
		resp = models.SyncResponse{
			Conflict:        true,
			ServerData:      current.Data,
			Version:         current.Version,
			ServerTimestamp: current.UpdatedAt,
		}
	} else {
		next := models.EntityRecord{
			Key:     req.Key,
			Type:    req.EntityType,
			Data:    stripBaseVersion(req.Data),
			Version: current.Version + 1,
			Deleted: req.Action == models.TaskDelete,
		}
		if next.Type == "" {
			next.Type = current.Type
		}
		if next.Deleted && len(next.Data) == 0 {
			next.Data = current.Data
		}

		stored, err := s.entities.UpsertEntity(ctx, tx, next, userID)
		if err != nil {
			return models.SyncResponse{}, false, err
		}
		resp = models.SyncResponse{
			ServerData:      stored.Data,
			Version:         stored.Version,
			ServerTimestamp: stored.UpdatedAt,
		}
	}

	if req.IdempotencyKey != "" {
		status := http.StatusOK
		if resp.Conflict {
			status = http.StatusConflict
		}
		body, err := json.Marshal(resp)
		if err != nil {
			return models.SyncResponse{}, false, fmt.Errorf("%w: %w", store.ErrEncodingRecord, err)
		}
		if err = s.idempotency.SaveResponse(ctx, tx, req.IdempotencyKey, userID, status, body); err != nil {
			return models.SyncResponse{}, false, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.SyncResponse{}, false, fmt.Errorf("%w: %w", store.ErrCommitingTransaction, err)
	}
	return resp, false, nil
}

func (s *entityService) GetEntity(ctx context.Context, key string) (models.EntityRecord, error) {
	if key == "" {
		return models.EntityRecord{}, ErrInvalidDataProvided
	}
	return s.entities.GetEntity(ctx, nil, key)
}

func (s *entityService) GetVersion(ctx context.Context, key string) (models.VersionResponse, error) {
	entity, err := s.GetEntity(ctx, key)
	if err != nil {
		return models.VersionResponse{}, err
	}
	return models.VersionResponse{Key: entity.Key, Version: entity.Version}, nil
}

func (s *entityService) replay(ctx context.Context, key string, userID int64) (models.SyncResponse, bool, error) {
	status, body, err := s.idempotency.GetResponse(ctx, key, userID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return models.SyncResponse{}, false, nil
	}
	if err != nil {
		return models.SyncResponse{}, false, err
	}

	var resp models.SyncResponse
	if err = json.Unmarshal(body, &resp); err != nil {
		return models.SyncResponse{}, false, fmt.Errorf("%w: %w", store.ErrEncodingRecord, err)
	}
	resp.Conflict = status == http.StatusConflict
	return resp, true, nil
}

func isConflict(req models.SyncRequest, current models.EntityRecord, exists bool) bool {
	switch req.Action {
	case models.TaskCreate:
		return exists && !current.Deleted
	default:
		base, ok := baseVersion(req.Data)
		return ok && base != current.Version
	}
}

func baseVersion(data json.RawMessage) (int64, bool) {
	fields, ok := decodeObject(data)
	if !ok {
		return 0, false
	}
	raw, ok := fields[baseVersionKey]
	if !ok {
		return 0, false
	}

	var version int64
	if err := json.Unmarshal(raw, &version); err != nil {
		return 0, false
	}
	return version, true
}

func stripBaseVersion(data json.RawMessage) json.RawMessage {
	fields, ok := decodeObject(data)
	if !ok {
		return data
	}
	if _, ok = fields[baseVersionKey]; !ok {
		return data
	}
	delete(fields, baseVersionKey)

	out, err := json.Marshal(fields)
	if err != nil {
		return data
	}
	return out
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
