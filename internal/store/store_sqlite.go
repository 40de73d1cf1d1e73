package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

// sqliteStore is the SQLite-backed [DurableStore]. All collections share the
// "records" table; the autoincrement id preserves first-write order.
type sqliteStore struct {
	*DB
	logger *logger.Logger
}

// NewSQLiteStore returns a [DurableStore] on top of an open, migrated
// SQLite connection.
func NewSQLiteStore(db *DB, logger *logger.Logger) DurableStore {
	return &sqliteStore{
		DB:     db,
		logger: logger,
	}
}

func (s *sqliteStore) Put(ctx context.Context, collection Collection, key string, value []byte) error {
	if !collection.valid() {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	if _, err := s.DB.ExecContext(ctx, sqlitePutRecord, string(collection), key, value); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "sqliteStore.Put").
			Str("collection", string(collection)).
			Str("key", key).
			Msg("failed to put record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (s *sqliteStore) Get(ctx context.Context, collection Collection, key string) ([]byte, error) {
	if !collection.valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	var value []byte
	err := s.DB.QueryRowContext(ctx, sqliteGetRecord, string(collection), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "sqliteStore.Get").
			Str("collection", string(collection)).
			Str("key", key).
			Msg("failed to get record")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return value, nil
}

func (s *sqliteStore) GetAll(ctx context.Context, collection Collection) ([]Record, error) {
	if !collection.valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	log := logger.FromContext(ctx)

	rows, err := s.DB.QueryContext(ctx, sqliteGetAllRecords, string(collection))
	if err != nil {
		log.Err(err).
			Str("func", "sqliteStore.GetAll").
			Str("collection", string(collection)).
			Msg("failed to query records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]Record, 0, 16)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Key, &rec.Value); err != nil {
			log.Err(err).
				Str("func", "sqliteStore.GetAll").
				Str("collection", string(collection)).
				Msg("failed to scan record")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return records, nil
}

func (s *sqliteStore) Delete(ctx context.Context, collection Collection, key string) error {
	if !collection.valid() {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	if _, err := s.DB.ExecContext(ctx, sqliteDeleteRecord, string(collection), key); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "sqliteStore.Delete").
			Str("collection", string(collection)).
			Str("key", key).
			Msg("failed to delete record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (s *sqliteStore) Clear(ctx context.Context, collection Collection) error {
	if !collection.valid() {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	if _, err := s.DB.ExecContext(ctx, sqliteClearCollection, string(collection)); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "sqliteStore.Clear").
			Str("collection", string(collection)).
			Msg("failed to clear collection")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// ReplaceAll clears collection and writes records inside one transaction, so
// a crash leaves either the old or the new content.
func (s *sqliteStore) ReplaceAll(ctx context.Context, collection Collection, records []Record) error {
	if !collection.valid() {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	log := logger.FromContext(ctx)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "sqliteStore.ReplaceAll").
			Str("collection", string(collection)).
			Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, sqliteClearCollection, string(collection)); err != nil {
		log.Err(err).
			Str("func", "sqliteStore.ReplaceAll").
			Str("collection", string(collection)).
			Msg("failed to clear collection in transaction")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	for idx, rec := range records {
		if _, err := tx.ExecContext(ctx, sqlitePutRecord, string(collection), rec.Key, rec.Value); err != nil {
			log.Err(err).
				Str("func", "sqliteStore.ReplaceAll").
				Str("collection", string(collection)).
				Int("iteration", idx+1).
				Str("key", rec.Key).
				Msg("failed to put record in transaction")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).
			Str("func", "sqliteStore.ReplaceAll").
			Str("collection", string(collection)).
			Int("records_count", len(records)).
			Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	return nil
}

func (s *sqliteStore) Close() error {
	return s.DB.Close()
}
