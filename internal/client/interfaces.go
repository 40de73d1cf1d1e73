// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

// SyncEngine is the API of the offline sync engine exposed to the embedding
// application.
type SyncEngine interface {
	// Init loads the persisted queue and starts the background workers.
	Init(ctx context.Context) error
	// Destroy stops the workers and closes the durable store. An in-flight
	// session is allowed to finish.
	Destroy() error

	QueueAction(ctx context.Context, action models.Action) (models.SyncTask, error)
	SyncWhenOnline(ctx context.Context) (models.SyncResult, error)

	GetCachedData(ctx context.Context, key string) (json.RawMessage, bool, error)
	SetCachedData(ctx context.Context, key string, data json.RawMessage, entityType string) error

	IsOnlineStatus() bool
	GetSyncQueueLength() int
	Conflicts(ctx context.Context) ([]models.ConflictRecord, error)

	SetReachable(reachable bool)
	SetForeground(foreground bool)
	SetSyncInterval(d time.Duration)
}
