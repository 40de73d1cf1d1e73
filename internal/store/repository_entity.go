package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// entityRepository is the PostgreSQL-backed implementation of
// [EntityRepository] working on the "entities" table.
type entityRepository struct {
	*DB
	logger *logger.Logger
}

// NewEntityRepository constructs an [EntityRepository] backed by db.
func NewEntityRepository(db *DB, logger *logger.Logger) EntityRepository {
	logger.Debug().Msg("creating entity repository")
	return &entityRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *entityRepository) runner(tx *sql.Tx) queryer {
	if tx != nil {
		return tx
	}
	return r.DB.DB
}

// GetEntity loads the entity stored under key. Inside a transaction the row
// is locked with FOR UPDATE so concurrent mutations of the same key are
// serialized.
//
// Returns [ErrEntityNotFound] when no row matches.
func (r *entityRepository) GetEntity(ctx context.Context, tx *sql.Tx, key string) (models.EntityRecord, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildGetEntityQuery(key, tx != nil)
	if err != nil {
		log.Err(err).Str("func", "entityRepository.GetEntity").Str("key", key).Msg("failed to create query")
		return models.EntityRecord{}, err
	}

	var entity models.EntityRecord
	var data []byte
	err = r.runner(tx).QueryRowContext(ctx, query, args...).
		Scan(&entity.Key, &entity.Type, &data, &entity.Version, &entity.Deleted, &entity.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EntityRecord{}, ErrEntityNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "entityRepository.GetEntity").
			Str("key", key).
			Str("pg_code", postgresError(err)).
			Bool("retryable", IsRetryableTxError(err)).
			Msg("failed to select entity")
		return models.EntityRecord{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	entity.Data = data

	return entity, nil
}

// UpsertEntity inserts or replaces the entity and returns the stored row.
// The caller decides the new version.
func (r *entityRepository) UpsertEntity(ctx context.Context, tx *sql.Tx, entity models.EntityRecord, userID int64) (models.EntityRecord, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildUpsertEntityQuery(entity, userID)
	if err != nil {
		log.Err(err).Str("func", "entityRepository.UpsertEntity").Str("key", entity.Key).Msg("failed to create query")
		return models.EntityRecord{}, err
	}

	var stored models.EntityRecord
	var data []byte
	err = r.runner(tx).QueryRowContext(ctx, query, args...).
		Scan(&stored.Key, &stored.Type, &data, &stored.Version, &stored.Deleted, &stored.UpdatedAt)
	if err != nil {
		log.Err(err).
			Str("func", "entityRepository.UpsertEntity").
			Str("key", entity.Key).
			Int64("version", entity.Version).
			Str("pg_code", postgresError(err)).
			Msg("failed to upsert entity")
		return models.EntityRecord{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	stored.Data = data

	log.Debug().
		Str("func", "entityRepository.UpsertEntity").
		Str("key", stored.Key).
		Int64("version", stored.Version).
		Bool("deleted", stored.Deleted).
		Msg("entity stored")

	return stored, nil
}
