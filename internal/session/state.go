package session

import (
	"time"

	"github.com/jmorneau/tome/internal/book"
)

// Status is the coarse controller state derived from the session flags.
//
// Transitions:
//
//	Idle → Loading           (Play)
//	Loading → Playing        (engine ready)
//	Loading → Error          (load failure)
//	Playing ⇄ Paused         (TogglePlayPause, sleep timer)
//	Playing ⇄ Buffering      (engine buffering events)
//	Playing → Completed      (final chapter finished)
//	Error → Loading          (Retry)
//	any → Idle               (Stop)
//
// Idle and Error are the only states reachable without an active engine
// resource.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusPlaying
	StatusPaused
	StatusBuffering
	StatusError
	StatusCompleted
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusLoading:
		return "Loading"
	case StatusPlaying:
		return "Playing"
	case StatusPaused:
		return "Paused"
	case StatusBuffering:
		return "Buffering"
	case StatusError:
		return "Error"
	case StatusCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a resource is loaded.
func (s Status) IsActive() bool {
	return s != StatusIdle && s != StatusError
}

// TimerMode is the sleep timer setting.
type TimerMode int

const (
	TimerOff TimerMode = iota
	TimerEndOfChapter
	TimerCountdown
)

// String returns the timer mode name.
func (m TimerMode) String() string {
	switch m {
	case TimerOff:
		return "Off"
	case TimerEndOfChapter:
		return "EndOfChapter"
	case TimerCountdown:
		return "Countdown"
	default:
		return "Unknown"
	}
}

// Session is a read-only snapshot of the controller state. The UI renders
// from snapshots; only the controller mutates the underlying state.
type Session struct {
	Audiobook    *book.Audiobook
	Chapters     []book.Chapter
	ChapterIndex int

	Position time.Duration
	Duration time.Duration

	Status       Status
	ErrorMessage string
	Speed        float64

	SleepTimer     TimerMode
	SleepRemaining time.Duration

	// SessionStart marks the position at which the current chapter session
	// began. The UI renders it as a marker; it never moves mid-session.
	SessionStart time.Duration

	Owned bool
}

// IsPlaying reports whether audio is audible right now.
func (s Session) IsPlaying() bool {
	return s.Status == StatusPlaying
}

// CurrentChapter returns the active chapter, or nil when idle.
func (s Session) CurrentChapter() *book.Chapter {
	if len(s.Chapters) == 0 || s.ChapterIndex < 0 || s.ChapterIndex >= len(s.Chapters) {
		return nil
	}
	ch := s.Chapters[s.ChapterIndex]
	return &ch
}

// HasNext reports whether a chapter follows the current one.
func (s Session) HasNext() bool {
	return s.ChapterIndex+1 < len(s.Chapters)
}
