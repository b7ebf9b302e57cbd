// Package engine wraps the audio playback backend behind a narrow contract.
// The session controller is the only consumer; it owns the single active
// resource and serializes all calls.
package engine

import "time"

// State represents the engine playback state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Event is an asynchronous engine notification. Events are tagged with the
// load generation they belong to and a monotonic sequence number so the
// controller can discard stale deliveries after a seek or a resource switch.
type Event struct {
	Gen       uint64
	Seq       uint64
	Position  time.Duration
	Duration  time.Duration
	Buffering bool
	Completed bool
	Err       error
}

// Interface defines the engine contract for dependency injection and testing.
//
// Load replaces the active resource and stops any current playback. The gen
// value is opaque to the engine; it is echoed on every event emitted for the
// loaded resource.
//
// SeekTo returns a barrier: the sequence number of the last event emitted
// before the seek took effect. Position events with Seq at or below the
// barrier predate the seek and must be discarded by the consumer.
type Interface interface {
	Load(path string, gen uint64) error
	Play()
	Pause()
	SeekTo(pos time.Duration) (barrier uint64)
	SetSpeed(rate float64)
	State() State
	Position() time.Duration
	Duration() time.Duration
	Events() <-chan Event
	Close() error
}

// Verify implementations at compile time.
var (
	_ Interface = (*Beep)(nil)
	_ Interface = (*Mock)(nil)
)
