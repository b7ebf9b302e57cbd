// Package session owns the playback session: what is loaded, where playback
// stands, the sleep timer, and progress persistence. All mutation goes
// through the Controller; every other component sees read-only snapshots or
// subscription events.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jmorneau/tome/internal/book"
	"github.com/jmorneau/tome/internal/engine"
	"github.com/jmorneau/tome/internal/entitlement"
	"github.com/jmorneau/tome/internal/progress"
)

// ErrNoChapters is returned by Play when the chapter list is empty.
var ErrNoChapters = errors.New("session: audiobook has no chapters")

// completionThreshold marks a chapter completed when playback reached this
// share of its duration before navigating away.
const completionThreshold = 0.95

const defaultPersistInterval = 20 * time.Second

// Controller mediates every playback command, consumes engine events, and
// keeps the session state consistent. It is safe for concurrent use; engine
// events and timer ticks are serialized through the internal mutex.
type Controller struct {
	mu sync.Mutex

	engine  engine.Interface
	gateway progress.Gateway
	access  *entitlement.Resolver
	userID  string
	log     *slog.Logger

	persistEvery time.Duration
	timerTick    time.Duration

	audiobook    *book.Audiobook
	chapters     []book.Chapter
	chapterIndex int
	position     time.Duration
	duration     time.Duration
	status       Status
	errMsg       string
	speed        float64
	sessionStart time.Duration
	owned        bool

	timerMode      TimerMode
	timerRemaining time.Duration
	timerGen       uint64

	// gen identifies the current load; engine events tagged with an older
	// gen belong to a superseded resource and are dropped. barrier is the
	// engine seq of the last seek; position events at or below it are stale.
	gen     uint64
	barrier uint64

	lastPersist time.Time
	preBuffer   Status

	subs   []*Subscription
	subsMu sync.RWMutex

	done   chan struct{}
	closed bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithPersistInterval sets the cadence of periodic progress writes while
// playing. Zero disables periodic writes; pause and navigation still persist.
func WithPersistInterval(d time.Duration) Option {
	return func(c *Controller) { c.persistEvery = d }
}

// WithTimerTick sets the sleep timer countdown resolution. Tests shorten it.
func WithTimerTick(d time.Duration) Option {
	return func(c *Controller) { c.timerTick = d }
}

// WithLogger sets the logger for silent failures (persistence).
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// New creates a controller and starts consuming engine events.
func New(eng engine.Interface, gw progress.Gateway, access *entitlement.Resolver, userID string, opts ...Option) *Controller {
	c := &Controller{
		engine:       eng,
		gateway:      gw,
		access:       access,
		userID:       userID,
		log:          slog.Default(),
		persistEvery: defaultPersistInterval,
		timerTick:    time.Second,
		speed:        1.0,
		status:       StatusIdle,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.eventLoop()
	return c
}

// Snapshot returns a copy of the session state. Position is clamped to the
// duration; the engine may transiently report past-the-end positions at
// chapter boundaries.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos := c.position
	if c.duration > 0 && pos > c.duration {
		pos = c.duration
	}
	s := Session{
		Audiobook:      c.audiobook,
		Chapters:       c.chapters,
		ChapterIndex:   c.chapterIndex,
		Position:       pos,
		Duration:       c.duration,
		Status:         c.status,
		ErrorMessage:   c.errMsg,
		Speed:          c.speed,
		SleepTimer:     c.timerMode,
		SleepRemaining: c.timerRemaining,
		SessionStart:   c.sessionStart,
		Owned:          c.owned,
	}
	return s
}

// Subscribe creates a new event subscription.
func (c *Controller) Subscribe() *Subscription {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	sub := newSubscription()
	c.subs = append(c.subs, sub)
	return sub
}

// Play loads the audiobook and starts playback at the given chapter.
// resumeAt overrides the resume position; when nil the persisted position
// for that chapter is used. When the same audiobook and chapter is already
// playing or loading the call is a no-op, so double-taps and re-entrant
// navigation never restart the engine.
func (c *Controller) Play(ab book.Audiobook, chapters []book.Chapter, chapterIndex int, resumeAt *time.Duration) error {
	if len(chapters) == 0 {
		c.emitError(ErrorEvent{Operation: "play", Err: ErrNoChapters})
		return ErrNoChapters
	}
	if chapterIndex < 0 {
		chapterIndex = 0
	}
	if chapterIndex >= len(chapters) {
		chapterIndex = len(chapters) - 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.audiobook != nil && c.audiobook.ID == ab.ID && c.chapterIndex == chapterIndex {
		switch c.status {
		case StatusPlaying, StatusLoading, StatusBuffering:
			return nil
		}
	}

	if c.audiobook != nil && c.audiobook.ID != ab.ID {
		// Switching books abandons the previous session's timer.
		c.cancelTimerLocked()
	}

	c.audiobook = &ab
	c.chapters = chapters
	c.chapterIndex = chapterIndex
	c.position = 0
	c.duration = chapters[chapterIndex].Duration
	c.errMsg = ""
	c.setStatusLocked(StatusLoading)

	c.gen++
	go c.startPlayback(c.gen, resumeAt, true)
	return nil
}

// startPlayback loads the current chapter into the engine and starts or
// pauses it. It runs off the caller's goroutine; a gen mismatch at any
// checkpoint means the load was superseded and its outcome is discarded.
func (c *Controller) startPlayback(gen uint64, resumeAt *time.Duration, autoplay bool) {
	c.mu.Lock()
	if c.gen != gen || c.audiobook == nil {
		c.mu.Unlock()
		return
	}
	ab := *c.audiobook
	ch := c.chapters[c.chapterIndex]
	idx := c.chapterIndex
	c.mu.Unlock()

	ctx := context.Background()

	var start time.Duration
	if resumeAt != nil {
		start = *resumeAt
	} else if c.gateway != nil {
		rec, err := c.gateway.Fetch(ctx, c.userID, ab.ID)
		if err != nil {
			c.log.Warn("fetch progress failed", "audiobook", ab.ID, "error", err)
		} else if rec != nil && rec.ChapterIndex == idx && !rec.Completed {
			start = rec.Position
		}
	}

	owned := false
	if c.access != nil {
		owned = c.access.IsOwned(ctx, ab.ID)
	}

	err := c.engine.Load(ch.Path, gen)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		// Superseded by a newer Play or Stop; this resource is no longer
		// ours to report on, success or failure.
		return
	}
	if err != nil {
		c.errMsg = err.Error()
		c.setStatusLocked(StatusError)
		c.emitError(ErrorEvent{Operation: "play", Err: err})
		return
	}

	if d := c.engine.Duration(); d > 0 {
		c.duration = d
	}
	if c.duration > 0 && start >= c.duration {
		start = 0
	}
	if start > 0 {
		c.barrier = c.engine.SeekTo(start)
	}
	c.position = start
	c.sessionStart = start
	c.owned = owned
	c.lastPersist = time.Now()

	if autoplay {
		c.engine.Play()
		c.setStatusLocked(StatusPlaying)
	} else {
		c.setStatusLocked(StatusPaused)
	}

	c.emitChapter(ChapterChange{AudiobookID: ab.ID, Index: idx, Chapter: &ch})
	c.emitPosition(PositionChange{Position: start, Duration: c.duration})
}

// TogglePlayPause flips between playing and paused. In the error state it
// retries the failed load instead; after the book has finished it restarts
// the current chapter from the beginning.
func (c *Controller) TogglePlayPause() {
	c.mu.Lock()
	switch c.status {
	case StatusError:
		c.mu.Unlock()
		c.Retry()
		return
	case StatusPlaying, StatusBuffering:
		c.pauseLocked()
	case StatusPaused:
		c.engine.Play()
		c.setStatusLocked(StatusPlaying)
	case StatusCompleted:
		c.position = 0
		c.sessionStart = 0
		c.setStatusLocked(StatusLoading)
		zero := time.Duration(0)
		c.gen++
		go c.startPlayback(c.gen, &zero, true)
	}
	c.mu.Unlock()
}

// Pause force-pauses playback. Unlike TogglePlayPause it never starts
// playback; the sleep timer and remote controls use it.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.status == StatusPlaying || c.status == StatusBuffering {
		c.pauseLocked()
	}
	c.mu.Unlock()
}

func (c *Controller) pauseLocked() {
	c.engine.Pause()
	c.setStatusLocked(StatusPaused)
	c.persistLocked(false)
}

// SeekTo moves within the current chapter, clamped to [0, duration].
// Playback state is unchanged.
func (c *Controller) SeekTo(pos time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seekLocked(pos)
}

func (c *Controller) seekLocked(pos time.Duration) {
	if c.audiobook == nil || !c.status.IsActive() {
		return
	}
	if pos < 0 {
		pos = 0
	}
	if c.duration > 0 && pos > c.duration {
		pos = c.duration
	}
	c.barrier = c.engine.SeekTo(pos)
	c.position = pos
	c.emitPosition(PositionChange{Position: pos, Duration: c.duration})
}

// SkipForward jumps ahead by the given amount. Non-positive amounts are
// rejected.
func (c *Controller) SkipForward(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seekLocked(c.position + d)
}

// SkipBackward jumps back by the given amount. Non-positive amounts are
// rejected.
func (c *Controller) SkipBackward(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seekLocked(c.position - d)
}

// NextChapter advances to the following chapter, preserving play state.
func (c *Controller) NextChapter() {
	c.mu.Lock()
	target := c.chapterIndex + 1
	gen := c.gen
	c.mu.Unlock()
	c.goToChapter(target, false, gen)
}

// PreviousChapter goes back one chapter, preserving play state.
func (c *Controller) PreviousChapter() {
	c.mu.Lock()
	target := c.chapterIndex - 1
	gen := c.gen
	c.mu.Unlock()
	c.goToChapter(target, false, gen)
}

// GoToChapter jumps to the chapter at index. Out-of-range targets and
// access-denied forward navigation are silent no-ops; the UI is expected to
// have disabled the affordance already.
func (c *Controller) GoToChapter(index int) {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	c.goToChapter(index, false, gen)
}

// goToChapter performs chapter navigation on behalf of the load identified
// by gen; if another load supersedes it at any point, the navigation is
// abandoned without persisting. outgoingCompleted forces the outgoing
// chapter to be persisted as completed regardless of position (used by the
// end-of-chapter auto-advance).
func (c *Controller) goToChapter(index int, outgoingCompleted bool, gen uint64) {
	c.mu.Lock()
	if c.gen != gen || c.audiobook == nil || index == c.chapterIndex || index < 0 || index >= len(c.chapters) {
		c.mu.Unlock()
		return
	}
	ab := *c.audiobook
	forward := index > c.chapterIndex
	target := c.chapters[index]
	c.mu.Unlock()

	// Forward navigation into non-preview content goes through the
	// entitlement gate. The check can hit the network on first use, so it
	// runs outside the lock; the state is revalidated afterwards.
	if forward && !target.Preview && c.access != nil {
		if !c.access.Check(context.Background(), ab.ID, ab.Free).CanAccess {
			return
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.audiobook == nil || c.audiobook.ID != ab.ID {
		return
	}
	if index == c.chapterIndex || index < 0 || index >= len(c.chapters) {
		return
	}

	completed := outgoingCompleted || c.reachedCompletionLocked()
	c.persistLocked(completed)

	autoplay := c.status == StatusPlaying || c.status == StatusBuffering || c.status == StatusLoading

	c.chapterIndex = index
	c.position = 0
	c.sessionStart = 0
	c.duration = c.chapters[index].Duration
	c.errMsg = ""
	c.setStatusLocked(StatusLoading)

	zero := time.Duration(0)
	c.gen++
	go c.startPlayback(c.gen, &zero, autoplay)
}

// reachedCompletionLocked reports whether the current position counts as
// having finished the chapter.
func (c *Controller) reachedCompletionLocked() bool {
	if c.duration <= 0 {
		return false
	}
	return float64(c.position) >= completionThreshold*float64(c.duration)
}

// SetSpeed sets the playback rate. Any positive value is forwarded; the UI
// offers the 0.5–2.0 catalog but the controller does not enforce it.
func (c *Controller) SetSpeed(rate float64) {
	if rate <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.SetSpeed(rate)
	c.speed = rate
}

// Retry re-issues the failed load from the last known position. Only
// meaningful in the error state.
func (c *Controller) Retry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusError || c.audiobook == nil {
		return
	}
	c.errMsg = ""
	c.setStatusLocked(StatusLoading)
	resume := c.position
	c.gen++
	go c.startPlayback(c.gen, &resume, true)
}

// PersistNow writes the current progress immediately. The app lifecycle
// hook calls this on backgrounding.
func (c *Controller) PersistNow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.audiobook == nil {
		return
	}
	c.persistLocked(c.status == StatusCompleted)
}

// Stop tears the session down to idle. Progress is persisted first; the
// sleep timer is cancelled.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusIdle {
		return
	}
	if c.audiobook != nil {
		c.persistLocked(c.reachedCompletionLocked())
	}
	c.cancelTimerLocked()
	c.engine.Pause()
	c.gen++ // anything still in flight for the old resource is now stale
	c.audiobook = nil
	c.chapters = nil
	c.chapterIndex = 0
	c.position = 0
	c.duration = 0
	c.sessionStart = 0
	c.errMsg = ""
	c.owned = false
	c.setStatusLocked(StatusIdle)
}

// Close shuts the controller down. The engine is left to its owner.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.audiobook != nil {
		c.persistLocked(c.status == StatusCompleted)
	}
	c.cancelTimerLocked()
	close(c.done)
	c.mu.Unlock()

	c.subsMu.Lock()
	for _, sub := range c.subs {
		sub.close()
	}
	c.subs = nil
	c.subsMu.Unlock()
	return nil
}

// persistLocked schedules a progress write for the current state. Writes are
// last-write-wins and never block or surface failures; a lost write costs at
// most one persist interval of progress.
func (c *Controller) persistLocked(completed bool) {
	if c.gateway == nil || c.audiobook == nil {
		return
	}
	rec := progress.Record{
		AudiobookID:  c.audiobook.ID,
		ChapterIndex: c.chapterIndex,
		Position:     c.position,
		Completed:    completed,
		UpdatedAt:    time.Now(),
	}
	if c.duration > 0 && rec.Position > c.duration {
		rec.Position = c.duration
	}
	c.lastPersist = time.Now()

	userID := c.userID
	gw := c.gateway
	log := c.log
	go func() {
		if err := gw.Upsert(context.Background(), userID, rec); err != nil {
			log.Warn("persist progress failed",
				"audiobook", rec.AudiobookID,
				"chapter", rec.ChapterIndex,
				"error", err)
		}
	}()
}

// eventLoop consumes engine events until Close.
func (c *Controller) eventLoop() {
	events := c.engine.Events()
	for {
		select {
		case <-c.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.handleEngineEvent(ev)
		}
	}
}

func (c *Controller) handleEngineEvent(ev engine.Event) {
	c.mu.Lock()
	if ev.Gen != c.gen || c.audiobook == nil {
		c.mu.Unlock()
		return
	}

	if ev.Err != nil {
		c.errMsg = ev.Err.Error()
		c.engine.Pause()
		c.setStatusLocked(StatusError)
		c.emitError(ErrorEvent{Operation: "playback", Err: ev.Err})
		c.mu.Unlock()
		return
	}

	if ev.Completed {
		c.mu.Unlock()
		c.handleChapterFinished(ev.Gen)
		return
	}

	switch {
	case ev.Buffering && c.status == StatusPlaying:
		c.preBuffer = StatusPlaying
		c.setStatusLocked(StatusBuffering)
	case !ev.Buffering && c.status == StatusBuffering:
		c.setStatusLocked(c.preBuffer)
	}

	// Position updates are not trusted while loading, and updates emitted
	// before the last seek are dropped rather than allowed to rewind it.
	if c.status == StatusLoading || ev.Seq <= c.barrier {
		c.mu.Unlock()
		return
	}

	c.position = ev.Position
	if ev.Duration > 0 {
		c.duration = ev.Duration
	}
	c.emitPosition(PositionChange{Position: c.position, Duration: c.duration})

	if c.status == StatusPlaying && c.persistEvery > 0 &&
		time.Since(c.lastPersist) >= c.persistEvery {
		c.persistLocked(false)
	}
	c.mu.Unlock()
}

// handleChapterFinished reacts to the engine's end-of-resource event: stop
// for the end-of-chapter timer, advance when a next chapter exists, or mark
// the book finished.
func (c *Controller) handleChapterFinished(gen uint64) {
	c.mu.Lock()
	if c.gen != gen || c.audiobook == nil {
		c.mu.Unlock()
		return
	}

	if c.timerMode == TimerEndOfChapter {
		// Terminal action: pause here, clear the timer, no auto-advance.
		c.timerGen++
		c.timerMode = TimerOff
		c.timerRemaining = 0
		c.emitTimer(TimerChange{Mode: TimerOff})
		c.position = c.duration
		c.pauseLocked()
		c.mu.Unlock()
		return
	}

	hasNext := c.chapterIndex+1 < len(c.chapters)
	next := c.chapterIndex + 1
	c.mu.Unlock()

	if hasNext {
		c.goToChapter(next, true, gen)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.audiobook == nil {
		return
	}
	c.position = c.duration
	c.engine.Pause()
	c.setStatusLocked(StatusCompleted)
	c.persistLocked(true)
}

func (c *Controller) setStatusLocked(next Status) {
	if c.status == next {
		return
	}
	prev := c.status
	c.status = next
	c.emitState(StateChange{Previous: prev, Current: next})
}

// Event fan-out. Sends are non-blocking; slow subscribers lose events rather
// than stall the controller.

func (c *Controller) emitState(e StateChange) {
	c.subsMu.RLock()
	for _, sub := range c.subs {
		sub.sendState(e)
	}
	c.subsMu.RUnlock()
}

func (c *Controller) emitChapter(e ChapterChange) {
	c.subsMu.RLock()
	for _, sub := range c.subs {
		sub.sendChapter(e)
	}
	c.subsMu.RUnlock()
}

func (c *Controller) emitPosition(e PositionChange) {
	c.subsMu.RLock()
	for _, sub := range c.subs {
		sub.sendPosition(e)
	}
	c.subsMu.RUnlock()
}

func (c *Controller) emitTimer(e TimerChange) {
	c.subsMu.RLock()
	for _, sub := range c.subs {
		sub.sendTimer(e)
	}
	c.subsMu.RUnlock()
}

func (c *Controller) emitError(e ErrorEvent) {
	c.subsMu.RLock()
	for _, sub := range c.subs {
		sub.sendError(e)
	}
	c.subsMu.RUnlock()
}
