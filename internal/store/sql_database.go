package store

import (
	"database/sql"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/migrations"
)

// DB wraps a *sql.DB shared by the repositories.
type DB struct {
	*sql.DB
	logger *logger.Logger
}

// MigrateClient applies the SQLite schema of the client store.
func (db *DB) MigrateClient() error {
	return migrations.MigrateClient(db.DB)
}

// MigrateServer applies the PostgreSQL schema of the reference server.
func (db *DB) MigrateServer() error {
	return migrations.MigrateServer(db.DB)
}
