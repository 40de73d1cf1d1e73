package store

import "errors"

// Sentinel errors returned by store and repository methods to signal
// well-known failure conditions. Callers should use [errors.Is] to match
// against these values.
var (
	// ErrRecordNotFound is returned when a key is absent from a collection.
	ErrRecordNotFound = errors.New("record not found")

	// ErrUnknownCollection is returned when an operation names a collection
	// the durable store does not manage.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrConflictAlreadyRecorded is returned when a conflict record with the
	// same ID already exists. Conflict records are write-once.
	ErrConflictAlreadyRecorded = errors.New("conflict already recorded")

	// ErrEntityNotFound is returned by the server repository when no entity
	// with the requested key exists.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrEncodingRecord is returned when a value cannot be marshaled to or
	// unmarshaled from its stored JSON form.
	ErrEncodingRecord = errors.New("failed to encode record")

	// ErrStoreUnavailable is returned when the backend cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning a single result row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning fails during multi-row
	// iteration.
	ErrScanningRows = errors.New("failed to scan rows")
)
