package session

import "time"

// Sleep timer. At most one countdown runs per controller; starting a new
// timer bumps timerGen, which makes any previous countdown goroutine exit on
// its next tick. Expiry force-pauses rather than toggling, so a race with a
// manual pause cannot restart playback.

// SetSleepTimer starts a countdown that pauses playback after d. Any
// previously armed timer is replaced atomically.
func (c *Controller) SetSleepTimer(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.timerGen++
	gen := c.timerGen
	c.timerMode = TimerCountdown
	c.timerRemaining = d
	c.emitTimer(TimerChange{Mode: TimerCountdown, Remaining: d})
	c.mu.Unlock()

	go c.countdown(gen)
}

// SetSleepTimerEndOfChapter pauses playback when the current chapter ends
// instead of after a fixed duration. Replaces any armed countdown.
func (c *Controller) SetSleepTimerEndOfChapter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timerGen++
	c.timerMode = TimerEndOfChapter
	c.timerRemaining = 0
	c.emitTimer(TimerChange{Mode: TimerEndOfChapter})
}

// CancelSleepTimer removes the pending auto-pause. It never resumes
// playback that is already paused.
func (c *Controller) CancelSleepTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTimerLocked()
}

func (c *Controller) cancelTimerLocked() {
	c.timerGen++
	if c.timerMode == TimerOff {
		return
	}
	c.timerMode = TimerOff
	c.timerRemaining = 0
	c.emitTimer(TimerChange{Mode: TimerOff})
}

// countdown decrements the remaining time once per tick until it expires or
// the generation moves on.
func (c *Controller) countdown(gen uint64) {
	ticker := time.NewTicker(c.timerTick)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.timerGen != gen || c.timerMode != TimerCountdown {
				c.mu.Unlock()
				return
			}
			c.timerRemaining -= c.timerTick
			if c.timerRemaining <= 0 {
				c.timerMode = TimerOff
				c.timerRemaining = 0
				c.emitTimer(TimerChange{Mode: TimerOff})
				if c.status == StatusPlaying || c.status == StatusBuffering {
					c.pauseLocked()
				}
				c.mu.Unlock()
				return
			}
			c.emitTimer(TimerChange{Mode: TimerCountdown, Remaining: c.timerRemaining})
			c.mu.Unlock()
		}
	}
}
