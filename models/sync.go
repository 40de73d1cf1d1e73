package models

import (
	"fmt"
	"time"
)

// SyncResult summarizes one synchronization session.
type SyncResult struct {
	Success     bool             `json:"success"`
	SyncedItems int              `json:"synced_items"`
	FailedItems int              `json:"failed_items"`
	Conflicts   []ConflictRecord `json:"conflicts,omitempty"`

	// Remaining is the queue length after the session.
	Remaining int           `json:"remaining"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

func (r SyncResult) String() string {
	return fmt.Sprintf("success=%t synced=%d failed=%d conflicts=%d remaining=%d",
		r.Success, r.SyncedItems, r.FailedItems, len(r.Conflicts), r.Remaining)
}

// DrainOrder is the order in which queued tasks are processed.
type DrainOrder string

const (
	// OldestFirst processes tasks in enqueue order.
	OldestFirst DrainOrder = "oldest-first"
	// NewestFirst processes the most recently enqueued task first.
	NewestFirst DrainOrder = "newest-first"
)

// ParseDrainOrder converts a configuration value into a [DrainOrder].
// An empty string selects [OldestFirst].
func ParseDrainOrder(s string) (DrainOrder, error) {
	switch o := DrainOrder(s); o {
	case "":
		return OldestFirst, nil
	case OldestFirst, NewestFirst:
		return o, nil
	default:
		return "", fmt.Errorf("unsupported drain order %q", s)
	}
}
