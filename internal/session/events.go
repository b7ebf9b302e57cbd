package session

import (
	"time"

	"github.com/jmorneau/tome/internal/book"
)

// StateChange is emitted when the controller status changes.
type StateChange struct {
	Previous Status
	Current  Status
}

// ChapterChange is emitted when playback moves to a different chapter,
// whether by navigation or auto-advance. It is not emitted by pause/resume.
type ChapterChange struct {
	AudiobookID string
	Index       int
	Chapter     *book.Chapter
}

// PositionChange is emitted on accepted position updates and seeks.
type PositionChange struct {
	Position time.Duration
	Duration time.Duration
}

// TimerChange is emitted when the sleep timer mode or remaining time changes.
type TimerChange struct {
	Mode      TimerMode
	Remaining time.Duration
}

// ErrorEvent is emitted when a user-visible error occurs.
type ErrorEvent struct {
	Operation string // e.g., "play", "retry"
	Err       error
}
