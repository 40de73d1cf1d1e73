// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"time"
)

// Header names exchanged between the sync client and the server.
const (
	HeaderIdempotencyKey = "X-Idempotency-Key"
	HeaderForceUpdate    = "X-Force-Update"
	HeaderTraceID        = "X-Trace-ID"
)

// SyncRequest is the body of one remote mutation call.
type SyncRequest struct {
	// Action is the mutation kind.
	Action TaskType `json:"action"`

	// Key identifies the entity on the server.
	Key string `json:"key"`

	// EntityType is the entity category.
	EntityType string `json:"entity_type,omitempty"`

	// Data is the client payload. For update and delete it may carry a
	// "_version" field with the server version the client based its change
	// on; when present the server rejects stale writes with a conflict.
	Data json.RawMessage `json:"data,omitempty"`

	// Timestamp is the moment the mutation was queued on the client.
	Timestamp time.Time `json:"timestamp"`

	// IdempotencyKey lets the server recognise retransmissions.
	IdempotencyKey string `json:"idempotency_key,omitempty"`

	// Force makes the server apply the mutation unconditionally.
	Force bool `json:"force,omitempty"`
}

// SyncResponse is returned by the server for every mutation call. A conflict
// may be reported either with a 2xx status and Conflict set, or with 409.
type SyncResponse struct {
	Conflict   bool            `json:"conflict"`
	ServerData json.RawMessage `json:"server_data,omitempty"`
	Version    int64           `json:"version,omitempty"`

	// ServerTimestamp is the last modification time of the server entity.
	ServerTimestamp time.Time `json:"server_timestamp,omitzero"`
}

// VersionResponse carries the current server version of one entity.
type VersionResponse struct {
	Key     string `json:"key"`
	Version int64  `json:"version"`
}

// EntityRecord is the server-side representation of one entity.
type EntityRecord struct {
	Key       string          `json:"key"`
	Type      string          `json:"type,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Version   int64           `json:"version"`
	Deleted   bool            `json:"deleted"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PingResponse is returned by the server health endpoint.
type PingResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
