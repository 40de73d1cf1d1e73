// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"

	"github.com/MKhiriev/go-offline-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// Collection names a keyed record set inside the [DurableStore].
type Collection string

const (
	// CollectionTasks holds the serialized sync queue.
	CollectionTasks Collection = "sync_tasks"
	// CollectionCache holds the last-known-good entity snapshots.
	CollectionCache Collection = "cache_entries"
	// CollectionConflicts holds the conflict audit log.
	CollectionConflicts Collection = "conflicts"
)

// Collections lists every collection the durable store manages.
var Collections = []Collection{CollectionTasks, CollectionCache, CollectionConflicts}

func (c Collection) valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

// Record is one key/value pair of a collection.
type Record struct {
	Key   string
	Value []byte
}

// DurableStore is the persistent key-value storage underneath the sync
// engine. Every operation is atomic with respect to its collection and its
// effects survive a process restart. GetAll returns records in the order
// their keys were first written.
type DurableStore interface {
	Put(ctx context.Context, collection Collection, key string, value []byte) error
	Get(ctx context.Context, collection Collection, key string) ([]byte, error)
	GetAll(ctx context.Context, collection Collection) ([]Record, error)
	Delete(ctx context.Context, collection Collection, key string) error
	Clear(ctx context.Context, collection Collection) error

	// ReplaceAll atomically swaps the whole content of collection.
	ReplaceAll(ctx context.Context, collection Collection, records []Record) error

	Close() error
}

// TaskRepository persists the sync queue as a whole.
type TaskRepository interface {
	LoadTasks(ctx context.Context) ([]models.SyncTask, error)
	SaveTasks(ctx context.Context, tasks []models.SyncTask) error
	Count(ctx context.Context) (int, error)
}

// CacheRepository persists entity snapshots.
type CacheRepository interface {
	GetEntry(ctx context.Context, key string) (models.CacheEntry, error)
	PutEntry(ctx context.Context, entry models.CacheEntry) error
	GetAllEntries(ctx context.Context) ([]models.CacheEntry, error)
	Clear(ctx context.Context) error
}

// ConflictRepository persists the write-once conflict log.
type ConflictRepository interface {
	SaveConflict(ctx context.Context, record models.ConflictRecord) error
	GetConflict(ctx context.Context, id string) (models.ConflictRecord, error)
	GetAllConflicts(ctx context.Context) ([]models.ConflictRecord, error)
	Clear(ctx context.Context) error
}

// EntityRepository is the server-side entity table.
type EntityRepository interface {
	// GetEntity returns the entity with key, locking the row when tx is set.
	GetEntity(ctx context.Context, tx *sql.Tx, key string) (models.EntityRecord, error)
	// UpsertEntity writes entity and returns the stored version.
	UpsertEntity(ctx context.Context, tx *sql.Tx, entity models.EntityRecord, userID int64) (models.EntityRecord, error)
}

// IdempotencyRepository stores the response of every applied mutation by
// its idempotency key.
type IdempotencyRepository interface {
	GetResponse(ctx context.Context, key string, userID int64) (int, []byte, error)
	SaveResponse(ctx context.Context, tx *sql.Tx, key string, userID int64, status int, response []byte) error
}

// Transactor opens database transactions for the server service layer.
type Transactor interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
