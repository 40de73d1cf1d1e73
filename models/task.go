// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"time"
)

// TaskType names the kind of mutation a [SyncTask] carries to the server.
type TaskType string

const (
	// TaskCreate creates a new entity on the server.
	TaskCreate TaskType = "create"
	// TaskUpdate replaces the payload of an existing entity.
	TaskUpdate TaskType = "update"
	// TaskDelete removes an entity.
	TaskDelete TaskType = "delete"
)

// Valid reports whether t is one of the known task types.
func (t TaskType) Valid() bool {
	switch t {
	case TaskCreate, TaskUpdate, TaskDelete:
		return true
	}
	return false
}

// TaskState is the transmission state of a queued task.
type TaskState string

const (
	// TaskPending means the task has not been handed to the server yet, or
	// the previous attempt finished with a failure.
	TaskPending TaskState = "pending"
	// TaskTransmitting is persisted right before the remote call. A task found
	// in this state after a restart may already have been applied remotely;
	// re-sending it is safe because the task ID is used as idempotency key.
	TaskTransmitting TaskState = "transmitting"
)

// SyncTask is one durable, pending mutation waiting in the sync queue.
//
// A task stays in the queue until it is removed exactly once: either after
// the server acknowledged it (success or resolved conflict) or after its
// RetryCount reached the configured ceiling.
type SyncTask struct {
	// ID is a UUIDv7 assigned at enqueue time. It is unique within the queue
	// and doubles as the idempotency key of the remote call.
	ID string `json:"id"`

	// Type is the mutation kind.
	Type TaskType `json:"type"`

	// Key is the cache key of the entity the mutation targets.
	Key string `json:"key"`

	// EntityType is the entity category (e.g. "note", "order").
	EntityType string `json:"entity_type,omitempty"`

	// Payload is the opaque client data sent to the server.
	Payload json.RawMessage `json:"payload,omitempty"`

	// CreatedAt is the enqueue time.
	CreatedAt time.Time `json:"created_at"`

	// RetryCount is the number of failed delivery attempts.
	RetryCount int `json:"retry_count"`

	// State tracks whether the task is currently being transmitted.
	State TaskState `json:"state"`

	// Force marks corrective tasks that must be applied on the server
	// regardless of its current version.
	Force bool `json:"force,omitempty"`
}

// Action is what the embedding application hands to the engine when it wants
// a mutation to be synchronized.
type Action struct {
	Type       TaskType        `json:"type"`
	Key        string          `json:"key,omitempty"`
	EntityType string          `json:"entity_type,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}
