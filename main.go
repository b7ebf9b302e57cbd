package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmorneau/tome/internal/book"
	"github.com/jmorneau/tome/internal/config"
	"github.com/jmorneau/tome/internal/engine"
	"github.com/jmorneau/tome/internal/entitlement"
	"github.com/jmorneau/tome/internal/errmsg"
	"github.com/jmorneau/tome/internal/keymap"
	"github.com/jmorneau/tome/internal/library"
	"github.com/jmorneau/tome/internal/mpris"
	"github.com/jmorneau/tome/internal/notify"
	"github.com/jmorneau/tome/internal/progress"
	"github.com/jmorneau/tome/internal/session"
	"github.com/jmorneau/tome/internal/stderr"
	"github.com/jmorneau/tome/internal/ui/playerbar"
)

const (
	minSpeed  = 0.5
	maxSpeed  = 2.0
	speedStep = 0.25
)

// sleepPresets are the countdown durations cycled by the timer key.
var sleepPresets = []time.Duration{
	15 * time.Minute,
	30 * time.Minute,
	45 * time.Minute,
	60 * time.Minute,
}

type screen int

const (
	screenBooks screen = iota
	screenChapters
)

type sessionEventMsg struct{}

type sessionErrorMsg struct{ ev session.ErrorEvent }

type sessionClosedMsg struct{}

var (
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	lockedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	finishedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type model struct {
	cfg         *config.Config
	books       []library.Book
	controller  *session.Controller
	store       *progress.Store
	access      *entitlement.Resolver
	sub         *session.Subscription
	dbus        *mpris.Adapter
	keys        *keymap.Resolver
	notifier    notify.Notifier
	notifyID    uint32
	lastChapter string
	lastError   string

	screen        screen
	bookCursor    int
	chapterCursor int
	openBook      int // index into books while on the chapter screen

	resume   map[string]progress.Record
	snapshot session.Session
	barMode  playerbar.DisplayMode
	speed    float64
	skipFwd  time.Duration
	skipBack time.Duration

	width  int
	height int
}

func initialModel() (model, error) {
	cfg, err := config.Load()
	if err != nil {
		return model{}, err
	}
	pb := cfg.GetPlaybackConfig()

	root := cfg.LibraryFolder
	if root == "" {
		root, err = os.Getwd()
		if err != nil {
			return model{}, err
		}
	}
	books, err := library.Scan(root)
	if err != nil {
		return model{}, fmt.Errorf("%s: %w", root, err)
	}

	store, err := progress.Open()
	if err != nil {
		return model{}, err
	}

	// Library content is owned unless marked free; free books go through
	// the subscription gate and their preview chapters stay playable.
	owned := entitlement.Static{}
	for _, b := range books {
		if !b.Free {
			owned[b.ID] = true
		}
	}
	access := entitlement.NewResolver(owned, entitlement.Deployment{
		SubscriptionAvailable: cfg.Subscription.Available,
		SubscriptionActive:    cfg.Subscription.Active,
	})

	ctrl := session.New(engine.NewBeep(), store, access, cfg.User,
		session.WithPersistInterval(time.Duration(pb.PersistSec)*time.Second))
	ctrl.SetSpeed(pb.Speed)

	resume, err := store.FetchAll(context.Background(), cfg.User)
	if err != nil {
		resume = map[string]progress.Record{}
	}

	// Best effort: a missing session bus just means no media keys and no
	// desktop notifications.
	dbus, _ := mpris.New(ctrl)
	notifier, _ := notify.New()

	return model{
		cfg:        cfg,
		books:      books,
		controller: ctrl,
		store:      store,
		access:     access,
		sub:        ctrl.Subscribe(),
		dbus:       dbus,
		keys:       keymap.NewResolver(keymap.All),
		notifier:   notifier,
		resume:     resume,
		snapshot:   ctrl.Snapshot(),
		barMode:    playerbar.ModeCompact,
		speed:      pb.Speed,
		skipFwd:    time.Duration(pb.SkipForwardSec) * time.Second,
		skipBack:   time.Duration(pb.SkipBackwardSec) * time.Second,
	}, nil
}

func (m model) Init() tea.Cmd {
	return waitForSession(m.sub)
}

// waitForSession blocks on the subscription channels and wakes the UI
// whenever the playback session changes.
func waitForSession(sub *session.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-sub.Done:
			return sessionClosedMsg{}
		case <-sub.StateChanged:
		case <-sub.ChapterChanged:
		case <-sub.PositionChanged:
		case <-sub.TimerChanged:
		case ev := <-sub.Error:
			return sessionErrorMsg{ev: ev}
		}
		return sessionEventMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case sessionEventMsg:
		m.snapshot = m.controller.Snapshot()
		m.notifyChapterChange()
		if m.snapshot.Status == session.StatusPlaying {
			m.lastError = ""
		}
		return m, waitForSession(m.sub)

	case sessionErrorMsg:
		m.snapshot = m.controller.Snapshot()
		m.lastError = formatPlaybackError(m.snapshot, msg.ev)
		return m, waitForSession(m.sub)

	case sessionClosedMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.keys.Resolve(msg.String()) {
	case keymap.ActionQuit:
		return m, m.shutdown()
	case keymap.ActionPlayPause:
		m.controller.TogglePlayPause()
	case keymap.ActionStop:
		m.controller.Stop()
		m.snapshot = m.controller.Snapshot()
	case keymap.ActionNextChapter:
		m.controller.NextChapter()
	case keymap.ActionPrevChapter:
		m.controller.PreviousChapter()
	case keymap.ActionSkipForward:
		m.controller.SkipForward(m.skipFwd)
	case keymap.ActionSkipBackward:
		m.controller.SkipBackward(m.skipBack)
	case keymap.ActionSpeedUp:
		m.speed = clampSpeed(m.speed + speedStep)
		m.controller.SetSpeed(m.speed)
	case keymap.ActionSpeedDown:
		m.speed = clampSpeed(m.speed - speedStep)
		m.controller.SetSpeed(m.speed)
	case keymap.ActionSleepTimer:
		m.cycleSleepTimer()
	case keymap.ActionToggleDisplay:
		if m.barMode == playerbar.ModeCompact {
			m.barMode = playerbar.ModeExpanded
		} else {
			m.barMode = playerbar.ModeCompact
		}
	case keymap.ActionMoveUp:
		m.moveCursor(-1)
	case keymap.ActionMoveDown:
		m.moveCursor(1)
	case keymap.ActionSelect:
		return m.handleEnter()
	case keymap.ActionBack:
		if m.screen == screenChapters {
			m.screen = screenBooks
		}
	}
	return m, nil
}

// formatPlaybackError renders a session error with the chapter it hit.
func formatPlaybackError(snap session.Session, ev session.ErrorEvent) string {
	title := ""
	if ch := snap.CurrentChapter(); ch != nil {
		title = ch.Title
	}
	if ev.Operation == "play" {
		return errmsg.FormatWith(errmsg.OpChapterLoad, title, ev.Err)
	}
	return errmsg.FormatWith(errmsg.OpPlay, title, ev.Err)
}

// notifyChapterChange sends a desktop notification when playback moves to a
// new chapter, replacing the previous one.
func (m *model) notifyChapterChange() {
	snap := m.snapshot
	ch := snap.CurrentChapter()
	if ch == nil || !snap.Status.IsActive() {
		m.lastChapter = ""
		return
	}
	if ch.ID == m.lastChapter {
		return
	}
	m.lastChapter = ch.ID

	id, err := m.notifier.Notify(notify.Notification{
		Title:      snap.Audiobook.Title,
		Body:       ch.Title,
		Icon:       snap.Audiobook.CoverPath,
		Timeout:    3000,
		ReplacesID: m.notifyID,
		Urgency:    notify.UrgencyLow,
	})
	if err == nil && id > 0 {
		m.notifyID = id
	}
}

func (m *model) moveCursor(delta int) {
	switch m.screen {
	case screenBooks:
		m.bookCursor = clamp(m.bookCursor+delta, 0, len(m.books)-1)
	case screenChapters:
		chapters := m.books[m.openBook].Chapters
		m.chapterCursor = clamp(m.chapterCursor+delta, 0, len(chapters)-1)
	}
}

func (m model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenBooks:
		if len(m.books) == 0 {
			return m, nil
		}
		m.openBook = m.bookCursor
		m.screen = screenChapters
		m.chapterCursor = 0
		if rec, ok := m.resume[m.books[m.openBook].ID]; ok && !rec.Completed {
			m.chapterCursor = clamp(rec.ChapterIndex, 0, len(m.books[m.openBook].Chapters)-1)
		}
	case screenChapters:
		b := m.books[m.openBook]
		if m.chapterCursor < len(b.Chapters) && !m.canAccess(b, b.Chapters[m.chapterCursor]) {
			return m, nil
		}
		if err := m.controller.Play(b.Audiobook, b.Chapters, m.chapterCursor, nil); err != nil {
			return m, nil
		}
		m.snapshot = m.controller.Snapshot()
	}
	return m, nil
}

// cycleSleepTimer steps off -> 15m -> 30m -> 45m -> 60m -> end of chapter -> off.
func (m *model) cycleSleepTimer() {
	snap := m.snapshot
	switch snap.SleepTimer {
	case session.TimerOff:
		m.controller.SetSleepTimer(sleepPresets[0])
	case session.TimerCountdown:
		for i, preset := range sleepPresets {
			if snap.SleepRemaining <= preset {
				if i+1 < len(sleepPresets) {
					m.controller.SetSleepTimer(sleepPresets[i+1])
				} else {
					m.controller.SetSleepTimerEndOfChapter()
				}
				return
			}
		}
		m.controller.SetSleepTimerEndOfChapter()
	case session.TimerEndOfChapter:
		m.controller.CancelSleepTimer()
	}
}

func (m model) shutdown() tea.Cmd {
	m.controller.PersistNow()
	if m.dbus != nil {
		m.dbus.Close()
	}
	m.controller.Close()
	m.store.Close()
	return tea.Quit
}

func (m model) View() string {
	var body string
	switch m.screen {
	case screenBooks:
		body = m.viewBooks()
	case screenChapters:
		body = m.viewChapters()
	}
	if m.lastError != "" {
		body += "\n" + errorStyle.Render(m.lastError)
	}

	if m.snapshot.Status == session.StatusIdle {
		return body
	}
	bar := playerbar.Render(playerbar.NewState(m.snapshot, m.barMode), m.width)
	listHeight := m.height - playerbar.Height(m.barMode)
	return fitHeight(body, listHeight) + "\n" + bar
}

func (m model) viewBooks() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Library") + "\n\n")
	if len(m.books) == 0 {
		b.WriteString(mutedStyle.Render("No audiobooks found. Set library_folder in the config."))
		return b.String()
	}
	for i, bk := range m.books {
		line := bk.Title
		if bk.Author != "" {
			line += mutedStyle.Render("  " + bk.Author)
		}
		if rec, ok := m.resume[bk.ID]; ok {
			switch {
			case rec.Completed:
				line += finishedStyle.Render("  ✓ finished")
			default:
				line += mutedStyle.Render(fmt.Sprintf("  ch. %d · %s",
					rec.ChapterIndex+1, humanize.Time(rec.UpdatedAt)))
			}
		}
		b.WriteString(m.renderRow(line, i == m.bookCursor))
	}
	b.WriteString("\n" + m.helpLine("browser", "global"))
	return b.String()
}

func (m model) viewChapters() string {
	bk := m.books[m.openBook]
	var b strings.Builder
	title := bk.Title
	if bk.Author != "" {
		title = bk.Author + " - " + title
	}
	b.WriteString(headerStyle.Render(title) + "\n\n")
	for i, ch := range bk.Chapters {
		line := fmt.Sprintf("%2d  %s", i+1, ch.Title)
		if ch.Duration > 0 {
			line += mutedStyle.Render("  " + formatChapterDuration(ch.Duration))
		}
		if !m.canAccess(bk, ch) {
			line = lockedStyle.Render(line) + mutedStyle.Render("  requires purchase")
		}
		b.WriteString(m.renderRow(line, i == m.chapterCursor))
	}
	b.WriteString("\n" + m.helpLine("playback"))
	return b.String()
}

// helpLine renders footer hints from the key bindings of the given contexts.
func (m model) helpLine(contexts ...string) string {
	var parts []string
	for _, context := range contexts {
		for _, binding := range keymap.ByContext(context) {
			keys := m.keys.KeysFor(binding.Action)
			if len(keys) == 0 {
				continue
			}
			key := keys[0]
			if key == " " {
				key = "space"
			}
			parts = append(parts, key+" "+binding.Description)
		}
	}
	return mutedStyle.Render(strings.Join(parts, " · "))
}

func (m model) canAccess(bk library.Book, ch book.Chapter) bool {
	if ch.Preview {
		return true
	}
	return m.access.Check(context.Background(), bk.ID, bk.Free).CanAccess
}

func (m model) renderRow(line string, selected bool) string {
	if selected {
		return cursorStyle.Render("> "+line) + "\n"
	}
	return "  " + line + "\n"
}

func fitHeight(s string, height int) string {
	if height <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampSpeed(rate float64) float64 {
	if rate < minSpeed {
		return minSpeed
	}
	if rate > maxSpeed {
		return maxSpeed
	}
	return rate
}

func formatChapterDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func main() {
	// Capture stderr before the audio backend initializes ALSA, otherwise C
	// library noise corrupts the TUI.
	_ = stderr.Start()

	m, err := initialModel()
	if err != nil {
		stderr.Stop()
		fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpInitialize, err))
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, runErr := p.Run()
	stderr.Stop()
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", runErr)
		os.Exit(1)
	}
}
