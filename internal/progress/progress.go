// Package progress persists listening positions so playback can resume
// across sessions. Writes are fire-and-forget from the controller's point of
// view: a failed write is logged and never blocks playback.
package progress

import (
	"context"
	"time"
)

// Record is the stored listening position for one (user, audiobook) pair.
// Only the most recent chapter is kept; last write wins.
type Record struct {
	AudiobookID  string
	ChapterIndex int
	Position     time.Duration
	Completed    bool
	UpdatedAt    time.Time
}

// Gateway is the persistence contract consumed by the session controller.
type Gateway interface {
	Upsert(ctx context.Context, userID string, rec Record) error
	Fetch(ctx context.Context, userID, audiobookID string) (*Record, error)
	FetchAll(ctx context.Context, userID string) (map[string]Record, error)
}
