package models

import (
	"encoding/json"
	"time"
)

// Conflict is a server-reported divergence handed to the conflict resolver.
type Conflict struct {
	// ID is the ID of the task that hit the conflict.
	ID         string
	Key        string
	Type       string
	ClientData json.RawMessage
	ServerData json.RawMessage

	ClientTimestamp time.Time
	ServerTimestamp time.Time
}

// Outcome tells the synchronizer how to apply a resolution.
type Outcome struct {
	Resolution Resolution

	// Data is the payload to cache and/or force-push.
	Data json.RawMessage

	// WriteCache requests Data to be written to the cache entry of the key.
	WriteCache bool

	// ForcePush requests Data to be sent with the force-update marker.
	ForcePush bool

	// Record is the conflict record written for this occurrence.
	Record ConflictRecord
}
