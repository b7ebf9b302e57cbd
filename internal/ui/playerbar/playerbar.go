// Package playerbar renders the playback bar at the bottom of the screen.
package playerbar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmorneau/tome/internal/session"
)

// DisplayMode controls the player bar appearance.
type DisplayMode int

const (
	ModeCompact  DisplayMode = iota // Single-line view
	ModeExpanded                    // Detailed view with chapter metadata
)

// State holds everything needed to render the player bar.
type State struct {
	Status         session.Status
	BookTitle      string
	Author         string
	ChapterTitle   string
	Chapter        int // 1-based
	TotalChapters  int
	Position       time.Duration
	Duration       time.Duration
	Speed          float64
	SleepTimer     session.TimerMode
	SleepRemaining time.Duration
	ErrorMessage   string
	DisplayMode    DisplayMode
}

// Height returns the total height of the player bar for the given mode.
func Height(mode DisplayMode) int {
	if mode == ModeExpanded {
		return 6 // 4 content rows + 2 border rows
	}
	return 3 // top border + content + bottom border
}

// NewState constructs a State from a session snapshot and display mode.
// Returns an empty State when nothing is loaded.
func NewState(s session.Session, mode DisplayMode) State {
	if s.Audiobook == nil {
		return State{}
	}

	st := State{
		Status:         s.Status,
		BookTitle:      s.Audiobook.Title,
		Author:         s.Audiobook.Author,
		Chapter:        s.ChapterIndex + 1,
		TotalChapters:  len(s.Chapters),
		Position:       s.Position,
		Duration:       s.Duration,
		Speed:          s.Speed,
		SleepTimer:     s.SleepTimer,
		SleepRemaining: s.SleepRemaining,
		ErrorMessage:   s.ErrorMessage,
		DisplayMode:    mode,
	}
	if ch := s.CurrentChapter(); ch != nil {
		st.ChapterTitle = ch.Title
	}
	return st
}

// Render returns the player bar string for the given width.
// Returns empty string when nothing is loaded.
func Render(s State, width int) string {
	if s.Status == session.StatusIdle {
		return ""
	}

	if s.DisplayMode == ModeExpanded {
		return renderExpanded(s, width)
	}

	return renderCompact(s, width)
}

func renderCompact(s State, width int) string {
	innerWidth := max(width-6, 0)

	if s.Status == session.StatusError {
		msg := "Playback failed"
		if s.ErrorMessage != "" {
			msg = "Playback failed: " + s.ErrorMessage
		}
		content := truncate(errorSymbol+"  "+msg+"  (space to retry)", innerWidth)
		return barStyle.Width(max(width-2, 0)).Render(" " + content)
	}

	left := statusSymbol(s.Status) + "  " + truncate(chapterLine(s), innerWidth/2)

	right := fmt.Sprintf("%s / %s", formatDuration(s.Position), formatDuration(s.Duration))
	if s.Speed > 0 && s.Speed != 1.0 {
		right = fmt.Sprintf("%gx  %s", s.Speed, right)
	}
	if indicator := timerIndicator(s); indicator != "" {
		right = indicator + "  " + right
	}

	padding := innerWidth - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	content := " " + left + strings.Repeat(" ", padding) + right + " "
	return barStyle.Width(max(width-2, 0)).Render(content)
}

func renderExpanded(s State, width int) string {
	innerWidth := max(width-4, 0)
	if innerWidth < 30 {
		return renderCompact(s, width)
	}

	title := s.BookTitle
	if s.Author != "" {
		title = s.Author + " - " + s.BookTitle
	}

	var lines []string
	lines = append(lines, truncate(title, innerWidth))
	lines = append(lines, truncate(chapterLine(s), innerWidth))

	var extras []string
	if s.Speed > 0 && s.Speed != 1.0 {
		extras = append(extras, fmt.Sprintf("speed %gx", s.Speed))
	}
	if indicator := timerIndicator(s); indicator != "" {
		extras = append(extras, indicator)
	}
	if s.Status == session.StatusBuffering {
		extras = append(extras, "buffering…")
	}
	if s.Status == session.StatusLoading {
		extras = append(extras, "loading…")
	}
	lines = append(lines, truncate(strings.Join(extras, "  "), innerWidth))

	playing := s.Status == session.StatusPlaying || s.Status == session.StatusBuffering
	lines = append(lines, RenderProgressBar(s.Position, s.Duration, innerWidth, playing))

	content := " " + strings.Join(lines, "\n ")
	return expandedBarStyle.Width(max(width-2, 0)).Render(content)
}

func chapterLine(s State) string {
	if s.ChapterTitle == "" {
		return s.BookTitle
	}
	if s.TotalChapters > 1 {
		return fmt.Sprintf("%d/%d  %s", s.Chapter, s.TotalChapters, s.ChapterTitle)
	}
	return s.ChapterTitle
}

// timerIndicator renders the sleep timer state, or empty when off.
func timerIndicator(s State) string {
	switch s.SleepTimer {
	case session.TimerCountdown:
		return sleepSymbol + " " + formatDuration(s.SleepRemaining)
	case session.TimerEndOfChapter:
		return sleepSymbol + " ch. end"
	default:
		return ""
	}
}

func statusSymbol(status session.Status) string {
	switch status {
	case session.StatusPlaying:
		return playSymbol
	case session.StatusBuffering, session.StatusLoading:
		return bufferSymbol
	case session.StatusCompleted:
		return doneSymbol
	default:
		return pauseSymbol
	}
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
