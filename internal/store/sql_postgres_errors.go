package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsRetryableTxError reports whether err aborted a transaction in a way that
// rerunning the whole transaction may succeed: serialization failure
// (40001), deadlock (40P01) or lock timeout (55P03). The driver error may be
// wrapped by the repository sentinels.
func IsRetryableTxError(err error) bool {
	switch postgresError(err) {
	case pgerrcode.SerializationFailure,
		pgerrcode.DeadlockDetected,
		pgerrcode.LockNotAvailable:
		return true
	}
	return false
}

// postgresError returns the SQLSTATE carried by err, or "" for errors that
// did not come from PostgreSQL.
func postgresError(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
