// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the transport used by the sync engine to reach
// the remote source of truth.
//
// The primary abstraction is [ServerAdapter], which decouples the
// synchronizer from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPServerAdapter]) built on resty.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling. A conflict is not an error: it is reported through
// [models.SyncResponse.Conflict].
package adapter

import (
	"context"

	"github.com/MKhiriev/go-offline-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// ServerAdapter is the minimal remote contract the synchronizer depends on.
type ServerAdapter interface {
	// Sync transmits one queued mutation. A server-side conflict, whether
	// signalled in a 2xx body or with 409, is returned as a response with
	// Conflict set and a nil error.
	Sync(ctx context.Context, req models.SyncRequest) (models.SyncResponse, error)

	// ForceSync transmits a mutation that the server must apply
	// unconditionally, bypassing its conflict check.
	ForceSync(ctx context.Context, req models.SyncRequest) (models.SyncResponse, error)

	// GetVersion returns the current server version of key. Returns
	// [ErrNotFound] (wrapped) when the server does not know the key.
	GetVersion(ctx context.Context, key string) (int64, error)

	// Fetch returns the full server record of key.
	Fetch(ctx context.Context, key string) (models.EntityRecord, error)

	// Ping checks that the server is reachable.
	Ping(ctx context.Context) error
}
