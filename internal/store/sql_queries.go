package store

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-offline-sync/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var entityColumns = []string{"key", "entity_type", "data", "version", "deleted", "updated_at"}

const upsertEntitySuffix = `ON CONFLICT (key) DO UPDATE SET
		entity_type = EXCLUDED.entity_type,
		data = EXCLUDED.data,
		version = EXCLUDED.version,
		deleted = EXCLUDED.deleted,
		updated_by = EXCLUDED.updated_by,
		updated_at = NOW()
	RETURNING key, entity_type, data, version, deleted, updated_at`

// buildGetEntityQuery selects one entity by key. forUpdate locks the row for
// the rest of the surrounding transaction.
func buildGetEntityQuery(key string, forUpdate bool) (string, []any, error) {
	b := psql.Select(entityColumns...).
		From("entities").
		Where(sq.Eq{"key": key})
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}

	query, args, err := b.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildUpsertEntityQuery(entity models.EntityRecord, userID int64) (string, []any, error) {
	var data any
	if len(entity.Data) > 0 {
		data = string(entity.Data)
	}

	query, args, err := psql.Insert("entities").
		Columns("key", "entity_type", "data", "version", "deleted", "updated_by").
		Values(entity.Key, entity.Type, data, entity.Version, entity.Deleted, userID).
		Suffix(upsertEntitySuffix).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildGetIdempotencyQuery(key string, userID int64) (string, []any, error) {
	query, args, err := psql.Select("status_code", "response").
		From("idempotency_keys").
		Where(sq.Eq{"idempotency_key": key, "user_id": userID}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildSaveIdempotencyQuery(key string, userID int64, status int, response []byte) (string, []any, error) {
	query, args, err := psql.Insert("idempotency_keys").
		Columns("idempotency_key", "user_id", "status_code", "response").
		Values(key, userID, status, string(response)).
		Suffix("ON CONFLICT (user_id, idempotency_key) DO NOTHING").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}
