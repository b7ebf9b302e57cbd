package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const (
	eventBufferSize  = 64
	positionInterval = 500 * time.Millisecond
	resampleQuality  = 4
)

var speakerOnce sync.Once

// Beep plays local audio files through the speaker. Decoding is delegated
// entirely to the beep codecs; speed changes go through a resampler so the
// pitch-corrected rate is applied without reopening the stream.
type Beep struct {
	mu sync.Mutex

	state     State
	streamer  beep.StreamSeekCloser
	resampler *beep.Resampler
	ctrl      *beep.Ctrl
	format    beep.Format
	file      *os.File
	duration  time.Duration
	speed     float64

	gen    uint64
	seq    atomic.Uint64
	events chan Event
	done   chan struct{}
	closed bool
}

// NewBeep creates a beep-backed engine. Callers must Close it to stop the
// position ticker.
func NewBeep() *Beep {
	e := &Beep{
		state:  Stopped,
		speed:  1.0,
		events: make(chan Event, eventBufferSize),
		done:   make(chan struct{}),
	}
	go e.tickLoop()
	return e
}

// Load opens and decodes the file at path, replacing any active resource.
// The gen tag is echoed on every event for this resource.
func (e *Beep) Load(path string, gen uint64) error {
	streamer, format, f, err := decode(path)
	if err != nil {
		return err
	}

	speakerOnce.Do(func() {
		err = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if err != nil {
		streamer.Close()
		f.Close()
		return err
	}

	e.mu.Lock()
	e.stopLocked()

	e.streamer = streamer
	e.format = format
	e.file = f
	e.duration = format.SampleRate.D(streamer.Len())
	e.gen = gen
	e.state = Paused

	e.resampler = beep.ResampleRatio(resampleQuality, e.speed, streamer)
	e.ctrl = &beep.Ctrl{Streamer: e.resampler, Paused: true}
	ctrl := e.ctrl
	duration := e.duration
	e.mu.Unlock()

	// The callback runs inside the speaker loop with the speaker lock held,
	// so it must not touch e.mu.
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		e.send(Event{
			Gen:       gen,
			Seq:       e.seq.Add(1),
			Position:  duration,
			Duration:  duration,
			Completed: true,
		})
	})))
	return nil
}

// Play resumes output on the loaded resource.
func (e *Beep) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctrl == nil || e.state == Playing {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()
	e.state = Playing
}

// Pause suspends output, keeping the resource loaded.
func (e *Beep) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctrl == nil || e.state != Playing {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
	e.state = Paused
}

// SeekTo moves the playback position. Out-of-range positions are clamped by
// the streamer bounds. The returned barrier is the seq of the last event
// emitted before the seek.
func (e *Beep) SeekTo(pos time.Duration) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return e.seq.Load()
	}
	n := e.format.SampleRate.N(pos)
	if n < 0 {
		n = 0
	}
	if limit := e.streamer.Len() - 1; n > limit {
		n = limit
	}
	speaker.Lock()
	_ = e.streamer.Seek(n)
	speaker.Unlock()
	return e.seq.Load()
}

// SetSpeed changes the playback rate. Non-positive rates are ignored.
func (e *Beep) SetSpeed(rate float64) {
	if rate <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = rate
	if e.resampler == nil {
		return
	}
	speaker.Lock()
	e.resampler.SetRatio(rate)
	speaker.Unlock()
}

// State returns the engine state.
func (e *Beep) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Position returns the position within the loaded resource.
func (e *Beep) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

func (e *Beep) positionLocked() time.Duration {
	if e.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := e.format.SampleRate.D(e.streamer.Position())
	speaker.Unlock()
	return pos
}

// Duration returns the length of the loaded resource.
func (e *Beep) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// Events returns the engine event stream.
func (e *Beep) Events() <-chan Event {
	return e.events
}

// Close stops playback and the position ticker.
func (e *Beep) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.stopLocked()
	close(e.done)
	return nil
}

func (e *Beep) stopLocked() {
	if e.state == Stopped {
		return
	}
	speaker.Clear()
	if e.streamer != nil {
		e.streamer.Close()
		e.streamer = nil
	}
	if e.file != nil {
		e.file.Close()
		e.file = nil
	}
	e.ctrl = nil
	e.resampler = nil
	e.duration = 0
	e.state = Stopped
}

func (e *Beep) tickLoop() {
	ticker := time.NewTicker(positionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			e.mu.Lock()
			if e.state != Playing || e.streamer == nil {
				e.mu.Unlock()
				continue
			}
			ev := Event{
				Gen:      e.gen,
				Seq:      e.seq.Add(1),
				Position: e.positionLocked(),
				Duration: e.duration,
			}
			e.mu.Unlock()
			e.send(ev)
		}
	}
}

func (e *Beep) send(ev Event) {
	select {
	case e.events <- ev:
	default:
		// Drop if the consumer is behind; position events are periodic.
	}
}

func decode(path string) (beep.StreamSeekCloser, beep.Format, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, nil, err
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg", ".oga":
		streamer, format, err = vorbis.Decode(f)
	default:
		err = fmt.Errorf("unsupported format: %s", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, nil, err
	}
	return streamer, format, f, nil
}
