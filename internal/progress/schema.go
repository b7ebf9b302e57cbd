package progress

import "database/sql"

const currentSchemaVersion = 1

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS playback_progress (
			user_id TEXT NOT NULL,
			audiobook_id TEXT NOT NULL,
			chapter_index INTEGER NOT NULL DEFAULT 0,
			position_seconds INTEGER NOT NULL DEFAULT 0,
			is_completed INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, audiobook_id)
		);

		CREATE INDEX IF NOT EXISTS idx_progress_updated_at
			ON playback_progress(user_id, updated_at DESC);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return err
}
