package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

type idempotencyRepository struct {
	*DB
	logger *logger.Logger
}

// NewIdempotencyRepository constructs an [IdempotencyRepository] on the
// "idempotency_keys" table.
func NewIdempotencyRepository(db *DB, logger *logger.Logger) IdempotencyRepository {
	return &idempotencyRepository{
		DB:     db,
		logger: logger,
	}
}

// GetResponse returns the status code and body userID stored for key, or
// [ErrRecordNotFound]. Keys of other users are never matched.
func (r *idempotencyRepository) GetResponse(ctx context.Context, key string, userID int64) (int, []byte, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildGetIdempotencyQuery(key, userID)
	if err != nil {
		return 0, nil, err
	}

	var status int
	var response []byte
	err = r.DB.QueryRowContext(ctx, query, args...).Scan(&status, &response)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, ErrRecordNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "idempotencyRepository.GetResponse").
			Str("idempotency_key", key).
			Int64("user_id", userID).
			Msg("failed to select idempotency key")
		return 0, nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return status, response, nil
}

// SaveResponse stores the response for key. A key that is already stored
// keeps its first response.
func (r *idempotencyRepository) SaveResponse(ctx context.Context, tx *sql.Tx, key string, userID int64, status int, response []byte) error {
	log := logger.FromContext(ctx)

	query, args, err := buildSaveIdempotencyQuery(key, userID, status, response)
	if err != nil {
		return err
	}

	var runner queryer = r.DB.DB
	if tx != nil {
		runner = tx
	}

	if _, err := runner.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "idempotencyRepository.SaveResponse").
			Str("idempotency_key", key).
			Msg("failed to save idempotency key")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
