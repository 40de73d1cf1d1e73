// Package migrations embeds the SQL schema of both sides of the sync
// protocol and applies it with goose.
//
// The client keeps its durable queue, cache and conflict log in SQLite
// (client/*.sql); the reference server keeps entities and idempotency keys
// in PostgreSQL (server/*.sql).
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed client/*.sql
var clientMigrations embed.FS

//go:embed server/*.sql
var serverMigrations embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// ErrNilDB is returned when a migration is requested on a nil connection.
var ErrNilDB = errors.New("db is nil")

// MigrateClient applies the client SQLite schema.
func MigrateClient(db *sql.DB) error {
	return migrate(db, clientMigrations, "sqlite3", "client")
}

// MigrateServer applies the server PostgreSQL schema.
func MigrateServer(db *sql.DB) error {
	return migrate(db, serverMigrations, "pgx", "server")
}

func migrate(db *sql.DB, fsys embed.FS, dialect, dir string) error {
	if db == nil {
		return fmt.Errorf("migration error: %w", ErrNilDB)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
