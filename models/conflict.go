// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ResolutionPolicy selects how a detected conflict is settled.
type ResolutionPolicy string

const (
	// PolicyClientWins keeps the local payload and force-pushes it.
	PolicyClientWins ResolutionPolicy = "client-wins"
	// PolicyServerWins accepts the server payload and overwrites the cache.
	PolicyServerWins ResolutionPolicy = "server-wins"
	// PolicyMerge overlays client fields on top of server fields.
	PolicyMerge ResolutionPolicy = "merge"
)

// ErrUnsupportedPolicy is returned when a resolution policy name is unknown.
var ErrUnsupportedPolicy = errors.New("unsupported conflict resolution policy")

// ParseResolutionPolicy converts a configuration value into a policy.
// An empty string selects [PolicyClientWins].
func ParseResolutionPolicy(s string) (ResolutionPolicy, error) {
	switch p := ResolutionPolicy(s); p {
	case "":
		return PolicyClientWins, nil
	case PolicyClientWins, PolicyServerWins, PolicyMerge:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPolicy, s)
	}
}

// Resolution records which side prevailed for one conflict.
type Resolution string

const (
	ResolutionClient Resolution = "client"
	ResolutionServer Resolution = "server"
	ResolutionMerge  Resolution = "merge"
)

// ConflictRecord is the write-once audit entry of a single conflict
// occurrence. Its ID equals the ID of the task that hit the conflict.
type ConflictRecord struct {
	ID           string          `json:"id"`
	Key          string          `json:"key"`
	Type         string          `json:"type,omitempty"`
	ClientData   json.RawMessage `json:"client_data,omitempty"`
	ServerData   json.RawMessage `json:"server_data,omitempty"`
	ResolvedData json.RawMessage `json:"resolved_data,omitempty"`
	Resolution   Resolution      `json:"resolution"`
	Timestamp    time.Time       `json:"timestamp"`
}
