// Package keymap defines key bindings and action dispatch for the application.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	// Global actions
	ActionQuit Action = "quit"

	// Playback actions
	ActionPlayPause     Action = "play_pause"
	ActionStop          Action = "stop"
	ActionNextChapter   Action = "next_chapter"
	ActionPrevChapter   Action = "prev_chapter"
	ActionSkipForward   Action = "skip_forward"
	ActionSkipBackward  Action = "skip_backward"
	ActionSpeedUp       Action = "speed_up"
	ActionSpeedDown     Action = "speed_down"
	ActionSleepTimer    Action = "sleep_timer"
	ActionToggleDisplay Action = "toggle_display"

	// Navigation actions
	ActionMoveUp   Action = "move_up"
	ActionMoveDown Action = "move_down"
	ActionSelect   Action = "select"
	ActionBack     Action = "back"
)
