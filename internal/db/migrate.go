package db

import (
	"database/sql"
	"fmt"
)

// The whole schema is one key/value table: each collection (tasks, docs,
// calendar events, settings) is stored as a single JSON blob under a
// fixed key and overwritten wholesale on mutation.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS collections (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`,
}

// Migrate runs all schema migrations. Every statement is idempotent, so
// the full list re-runs on each open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
