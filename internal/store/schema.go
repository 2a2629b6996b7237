package store

import (
	"database/sql"
	"fmt"
)

// schemaVersion is stored in PRAGMA user_version. Cached renders can always
// be recomputed, so a file with any other version is reset instead of
// migrated.
const schemaVersion = 1

var dropStatements = []string{
	`DROP INDEX IF EXISTS idx_renders_last_used`,
	`DROP TABLE IF EXISTS renders`,
}

var createStatements = []string{
	// key: sha256 of renderer, display flag and TeX.
	// last_used: use counter driving Prune.
	`CREATE TABLE IF NOT EXISTS renders (
		key TEXT PRIMARY KEY,
		renderer TEXT NOT NULL,
		display INTEGER NOT NULL,
		svg TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		last_used INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_renders_last_used ON renders(last_used)`,
}

func initSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if version == schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	statements := createStatements
	if version != 0 {
		statements = append(append([]string{}, dropStatements...), createStatements...)
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("schema v%d: %q: %w", schemaVersion, stmt, err)
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	return tx.Commit()
}
