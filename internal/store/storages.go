package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

// Storages groups the server-side repositories.
type Storages struct {
	DB                    *DB
	EntityRepository      EntityRepository
	IdempotencyRepository IdempotencyRepository
}

// NewStorages connects to PostgreSQL, applies the server migrations and
// wires the repositories.
func NewStorages(ctx context.Context, cfg config.ServerDB, logger *logger.Logger) (*Storages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	if err := db.MigrateServer(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return NewStoragesFromDB(db, logger), nil
}

// NewStoragesFromDB wires the repositories on top of an open connection.
func NewStoragesFromDB(db *DB, logger *logger.Logger) *Storages {
	return &Storages{
		DB:                    db,
		EntityRepository:      NewEntityRepository(db, logger),
		IdempotencyRepository: NewIdempotencyRepository(db, logger),
	}
}
