package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

// mergeProvenanceKey is added to merged objects.
const mergeProvenanceKey = "_merge"

type mergeProvenance struct {
	ClientTimestamp time.Time `json:"client_timestamp"`
	ServerTimestamp time.Time `json:"server_timestamp,omitzero"`
	MergedAt        time.Time `json:"merged_at"`
}

type conflictResolver struct {
	policy    models.ResolutionPolicy
	conflicts store.ConflictRepository

	now    func() time.Time
	logger *logger.Logger
}

// NewConflictResolver validates policy and returns a resolver that records
// every conflict in conflicts. An unknown policy fails with
// [models.ErrUnsupportedPolicy].
func NewConflictResolver(policy models.ResolutionPolicy, conflicts store.ConflictRepository, logger *logger.Logger) (ConflictResolver, error) {
	parsed, err := models.ParseResolutionPolicy(string(policy))
	if err != nil {
		return nil, err
	}

	return &conflictResolver{
		policy:    parsed,
		conflicts: conflicts,
		now:       time.Now,
		logger:    logger,
	}, nil
}

func (r *conflictResolver) Policy() models.ResolutionPolicy {
	return r.policy
}

// Resolve implements [ConflictResolver].
//
//   - client-wins: the client data is force-pushed, the cache is left as is;
//   - server-wins: the server data overwrites the cache, nothing is pushed;
//   - merge: server fields overlaid by client fields plus a "_merge"
//     provenance object, written to the cache and force-pushed. Payloads
//     that are not JSON objects on both sides resolve to the client data.
func (r *conflictResolver) Resolve(ctx context.Context, c models.Conflict) (models.Outcome, error) {
	log := logger.FromContext(ctx)
	now := r.now().UTC()

	var outcome models.Outcome
	switch r.policy {
	case models.PolicyServerWins:
		outcome = models.Outcome{Resolution: models.ResolutionServer, Data: c.ServerData, WriteCache: true}
	case models.PolicyMerge:
		outcome = models.Outcome{Resolution: models.ResolutionMerge, Data: mergeData(c, now), WriteCache: true, ForcePush: true}
	default:
		outcome = models.Outcome{Resolution: models.ResolutionClient, Data: c.ClientData, ForcePush: true}
	}

	outcome.Record = models.ConflictRecord{
		ID:           c.ID,
		Key:          c.Key,
		Type:         c.Type,
		ClientData:   c.ClientData,
		ServerData:   c.ServerData,
		ResolvedData: outcome.Data,
		Resolution:   outcome.Resolution,
		Timestamp:    now,
	}

	err := r.conflicts.SaveConflict(ctx, outcome.Record)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrConflictAlreadyRecorded):
		log.Debug().
			Str("func", "conflictResolver.Resolve").
			Str("conflict_id", c.ID).
			Msg("conflict was recorded by an earlier attempt")
	default:
		log.Err(err).
			Str("func", "conflictResolver.Resolve").
			Str("conflict_id", c.ID).
			Msg("failed to record conflict")
		return outcome, fmt.Errorf("record conflict %s: %w", c.ID, err)
	}

	log.Info().
		Str("func", "conflictResolver.Resolve").
		Str("key", c.Key).
		Str("resolution", string(outcome.Resolution)).
		Msg("conflict resolved")

	return outcome, nil
}

func mergeData(c models.Conflict, mergedAt time.Time) json.RawMessage {
	client, ok := decodeObject(c.ClientData)
	if !ok {
		return c.ClientData
	}
	server, ok := decodeObject(c.ServerData)
	if !ok {
		return c.ClientData
	}

	merged := make(map[string]json.RawMessage, len(server)+len(client)+1)
	for k, v := range server {
		merged[k] = v
	}
	for k, v := range client {
		merged[k] = v
	}

	provenance, err := json.Marshal(mergeProvenance{
		ClientTimestamp: c.ClientTimestamp.UTC(),
		ServerTimestamp: c.ServerTimestamp.UTC(),
		MergedAt:        mergedAt,
	})
	if err != nil {
		return c.ClientData
	}
	merged[mergeProvenanceKey] = provenance

	out, err := json.Marshal(merged)
	if err != nil {
		return c.ClientData
	}
	return out
}

// decodeObject reports whether data is a JSON object and returns its fields.
func decodeObject(data json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}
	return fields, true
}
