package state

import (
	"database/sql"
	"fmt"

	"github.com/llehouerou/k12listen/internal/db"
)

// migrations[i] upgrades the schema from version i to i+1.
var migrations = []string{
	`
		CREATE TABLE preferences (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			rate REAL NOT NULL DEFAULT 1.0,
			font_size INTEGER NOT NULL DEFAULT 16,
			volume REAL NOT NULL DEFAULT 1.0
		);

		CREATE TABLE play_history (
			lesson_id TEXT PRIMARY KEY,
			last_position REAL NOT NULL DEFAULT 0,
			play_count INTEGER NOT NULL DEFAULT 0,
			last_played_at INTEGER NOT NULL
		);

		CREATE INDEX idx_play_history_last_played ON play_history(last_played_at);
	`,
	`
		ALTER TABLE play_history ADD COLUMN lesson_name TEXT NOT NULL DEFAULT '';
		ALTER TABLE play_history ADD COLUMN last_session TEXT NOT NULL DEFAULT '';
	`,
}

// currentSchemaVersion is the version a fully migrated database reports.
var currentSchemaVersion = len(migrations)

// initSchema brings the database up to currentSchemaVersion in one transaction.
func initSchema(conn *sql.DB) error {
	return db.WithTx(conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
			return err
		}

		var version int
		if err := tx.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version); err != nil {
			return err
		}
		if version > currentSchemaVersion {
			return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
		}

		for ; version < currentSchemaVersion; version++ {
			if _, err := tx.Exec(migrations[version]); err != nil {
				return fmt.Errorf("migrate schema to version %d: %w", version+1, err)
			}
			if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, version+1); err != nil {
				return err
			}
		}
		return nil
	})
}
