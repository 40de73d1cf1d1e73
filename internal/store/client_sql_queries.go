package store

const (
	sqlitePutRecord = `INSERT INTO records (collection, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (collection, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;`

	sqliteGetRecord = `SELECT value FROM records
		WHERE collection = ? AND key = ?;`

	sqliteGetAllRecords = `SELECT key, value FROM records
		WHERE collection = ?
		ORDER BY id;`

	sqliteDeleteRecord = `DELETE FROM records
		WHERE collection = ? AND key = ?;`

	sqliteClearCollection = `DELETE FROM records
		WHERE collection = ?;`
)
