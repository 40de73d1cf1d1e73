package models

import (
	"encoding/json"
	"time"
)

// CacheEntry is the last-known-good snapshot of one entity, readable while
// the client is offline.
type CacheEntry struct {
	Key          string          `json:"key"`
	Data         json.RawMessage `json:"data"`
	Type         string          `json:"type,omitempty"`
	LastModified time.Time       `json:"last_modified"`

	// Version starts at 1 for locally created entries and is raised only when
	// newer server data is applied. It never decreases.
	Version int64 `json:"version"`
}
