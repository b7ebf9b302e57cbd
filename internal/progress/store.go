package progress

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	dbutil "github.com/jmorneau/tome/internal/db"
)

const (
	appName    = "tome"
	dbFileName = "tome.db"
)

// Store is the sqlite-backed Gateway.
type Store struct {
	db *sql.DB
}

// Verify Store implements Gateway at compile time.
var _ Gateway = (*Store)(nil)

// Open opens the progress database in the user data directory.
func Open() (*Store, error) {
	dbPath, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}
	return OpenPath(dbPath)
}

// OpenPath opens or creates the progress database at the given path.
func OpenPath(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert writes the record, replacing any existing row for the same
// (user, audiobook) pair.
func (s *Store) Upsert(ctx context.Context, userID string, rec Record) error {
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	return dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO playback_progress
				(user_id, audiobook_id, chapter_index, position_seconds, is_completed, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id, audiobook_id) DO UPDATE SET
				chapter_index = excluded.chapter_index,
				position_seconds = excluded.position_seconds,
				is_completed = excluded.is_completed,
				updated_at = excluded.updated_at
		`, userID, rec.AudiobookID, rec.ChapterIndex,
			int64(rec.Position/time.Second), rec.Completed, updatedAt.Unix())
		return err
	})
}

// Fetch returns the stored record, or nil if the audiobook was never played.
func (s *Store) Fetch(ctx context.Context, userID, audiobookID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT chapter_index, position_seconds, is_completed, updated_at
		FROM playback_progress
		WHERE user_id = ? AND audiobook_id = ?
	`, userID, audiobookID)

	var chapterIndex int
	var positionSeconds, updatedAt int64
	var completed bool
	err := row.Scan(&chapterIndex, &positionSeconds, &completed, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &Record{
		AudiobookID:  audiobookID,
		ChapterIndex: chapterIndex,
		Position:     time.Duration(positionSeconds) * time.Second,
		Completed:    completed,
		UpdatedAt:    time.Unix(updatedAt, 0),
	}, nil
}

// FetchAll returns every stored record for the user, keyed by audiobook ID.
// Used by the library browser to show resume markers.
func (s *Store) FetchAll(ctx context.Context, userID string) (map[string]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT audiobook_id, chapter_index, position_seconds, is_completed, updated_at
		FROM playback_progress
		WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make(map[string]Record)
	for rows.Next() {
		var rec Record
		var positionSeconds, updatedAt int64
		if err := rows.Scan(&rec.AudiobookID, &rec.ChapterIndex,
			&positionSeconds, &rec.Completed, &updatedAt); err != nil {
			return nil, err
		}
		rec.Position = time.Duration(positionSeconds) * time.Second
		rec.UpdatedAt = time.Unix(updatedAt, 0)
		records[rec.AudiobookID] = rec
	}
	return records, rows.Err()
}
