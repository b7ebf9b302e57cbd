package engine

import (
	"sync"
	"time"
)

// Mock is a test double for the engine.
type Mock struct {
	mu sync.Mutex

	state    State
	position time.Duration
	duration time.Duration
	speed    float64
	gen      uint64
	seq      uint64

	loadErr   error
	loadGate  chan struct{} // when set, Load blocks until the gate is released
	loadCalls []string
	seekCalls []time.Duration

	events chan Event
	done   chan struct{}
}

// NewMock creates a new mock engine for testing.
func NewMock() *Mock {
	return &Mock{
		state:  Stopped,
		speed:  1.0,
		events: make(chan Event, eventBufferSize),
		done:   make(chan struct{}),
	}
}

func (m *Mock) Load(path string, gen uint64) error {
	m.mu.Lock()
	gate := m.loadGate
	m.loadCalls = append(m.loadCalls, path)
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return m.loadErr
	}
	m.gen = gen
	m.position = 0
	m.state = Paused
	return nil
}

func (m *Mock) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Paused {
		m.state = Playing
	}
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Playing {
		m.state = Paused
	}
}

func (m *Mock) SeekTo(pos time.Duration) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, pos)
	if pos < 0 {
		pos = 0
	}
	if m.duration > 0 && pos > m.duration {
		pos = m.duration
	}
	m.position = pos
	return m.seq
}

func (m *Mock) SetSpeed(rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rate > 0 {
		m.speed = rate
	}
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) Events() <-chan Event { return m.events }

func (m *Mock) Close() error {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
	return nil
}

// Test helpers

func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// BlockLoads makes subsequent Load calls block until the returned release
// function is called. Used to simulate slow resource loading.
func (m *Mock) BlockLoads() (release func()) {
	gate := make(chan struct{})
	m.mu.Lock()
	m.loadGate = gate
	m.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			m.loadGate = nil
			m.mu.Unlock()
			close(gate)
		})
	}
}

func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = d
}

func (m *Mock) Speed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speed
}

func (m *Mock) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loadCalls...)
}

// Gen returns the generation of the last successful Load.
func (m *Mock) Gen() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

// EmitPosition publishes a position event tagged with the given generation.
func (m *Mock) EmitPosition(gen uint64, pos time.Duration) {
	m.mu.Lock()
	m.seq++
	ev := Event{Gen: gen, Seq: m.seq, Position: pos, Duration: m.duration}
	m.mu.Unlock()
	m.events <- ev
}

// EmitPositionAt publishes a position event with an explicit seq, simulating
// a tick that was already in flight when a seek happened.
func (m *Mock) EmitPositionAt(gen, seq uint64, pos time.Duration) {
	m.mu.Lock()
	ev := Event{Gen: gen, Seq: seq, Position: pos, Duration: m.duration}
	m.mu.Unlock()
	m.events <- ev
}

// EmitError publishes a playback failure for the given generation.
func (m *Mock) EmitError(gen uint64, err error) {
	m.mu.Lock()
	m.seq++
	ev := Event{Gen: gen, Seq: m.seq, Err: err}
	m.mu.Unlock()
	m.events <- ev
}

// EmitCompleted publishes a completion event for the given generation.
func (m *Mock) EmitCompleted(gen uint64) {
	m.mu.Lock()
	m.seq++
	ev := Event{Gen: gen, Seq: m.seq, Position: m.duration, Duration: m.duration, Completed: true}
	m.mu.Unlock()
	m.events <- ev
}

// EmitBuffering publishes a buffering toggle for the given generation.
func (m *Mock) EmitBuffering(gen uint64, buffering bool) {
	m.mu.Lock()
	m.seq++
	ev := Event{Gen: gen, Seq: m.seq, Position: m.position, Duration: m.duration, Buffering: buffering}
	m.mu.Unlock()
	m.events <- ev
}
