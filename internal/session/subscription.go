package session

const eventBufferSize = 16

// Subscription provides event channels for a subscriber.
type Subscription struct {
	StateChanged    <-chan StateChange
	ChapterChanged  <-chan ChapterChange
	PositionChanged <-chan PositionChange
	TimerChanged    <-chan TimerChange
	Error           <-chan ErrorEvent
	Done            <-chan struct{}

	// Internal write channels
	stateCh    chan StateChange
	chapterCh  chan ChapterChange
	positionCh chan PositionChange
	timerCh    chan TimerChange
	errorCh    chan ErrorEvent
	doneCh     chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		stateCh:    make(chan StateChange, eventBufferSize),
		chapterCh:  make(chan ChapterChange, eventBufferSize),
		positionCh: make(chan PositionChange, eventBufferSize),
		timerCh:    make(chan TimerChange, eventBufferSize),
		errorCh:    make(chan ErrorEvent, eventBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.ChapterChanged = s.chapterCh
	s.PositionChanged = s.positionCh
	s.TimerChanged = s.timerCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendState sends a state change event (non-blocking).
func (s *Subscription) sendState(e StateChange) {
	select {
	case s.stateCh <- e:
	default:
		// Drop if buffer full
	}
}

// sendChapter sends a chapter change event (non-blocking).
func (s *Subscription) sendChapter(e ChapterChange) {
	select {
	case s.chapterCh <- e:
	default:
	}
}

// sendPosition sends a position change event (non-blocking).
func (s *Subscription) sendPosition(e PositionChange) {
	select {
	case s.positionCh <- e:
	default:
	}
}

// sendTimer sends a sleep timer event (non-blocking).
func (s *Subscription) sendTimer(e TimerChange) {
	select {
	case s.timerCh <- e:
	default:
	}
}

// sendError sends an error event (non-blocking).
func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
