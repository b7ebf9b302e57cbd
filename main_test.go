package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/jmorneau/tome/internal/book"
	"github.com/jmorneau/tome/internal/keymap"
	"github.com/jmorneau/tome/internal/session"
)

func testSession(t *testing.T) session.Session {
	t.Helper()
	ch, err := book.NewChapter("bk/000", "Chapter 1", "/books/bk/01.mp3")
	if err != nil {
		t.Fatalf("book.NewChapter: %v", err)
	}
	return session.Session{
		Chapters:     []book.Chapter{ch},
		ChapterIndex: 0,
	}
}

func TestFormatPlaybackError_LoadFailure(t *testing.T) {
	snap := testSession(t)
	ev := session.ErrorEvent{Operation: "play", Err: errors.New("file missing")}

	got := formatPlaybackError(snap, ev)

	want := "Failed to load chapter 'Chapter 1': file missing"
	if got != want {
		t.Errorf("formatPlaybackError = %q, want %q", got, want)
	}
}

func TestFormatPlaybackError_RuntimeFailure(t *testing.T) {
	snap := testSession(t)
	ev := session.ErrorEvent{Operation: "playback", Err: errors.New("decode error")}

	got := formatPlaybackError(snap, ev)

	want := "Failed to play 'Chapter 1': decode error"
	if got != want {
		t.Errorf("formatPlaybackError = %q, want %q", got, want)
	}
}

func TestFormatPlaybackError_NoChapter(t *testing.T) {
	ev := session.ErrorEvent{Operation: "play", Err: errors.New("no chapters")}

	got := formatPlaybackError(session.Session{}, ev)

	want := "Failed to load chapter: no chapters"
	if got != want {
		t.Errorf("formatPlaybackError = %q, want %q", got, want)
	}
}

func TestHelpLine_FromBindings(t *testing.T) {
	m := model{keys: keymap.NewResolver(keymap.All)}

	got := m.helpLine("browser", "global")

	for _, hint := range []string{"k up", "j down", "enter open", "esc back", "q quit"} {
		if !strings.Contains(got, hint) {
			t.Errorf("helpLine = %q, missing %q", got, hint)
		}
	}
}

func TestHelpLine_SpaceKeyIsNamed(t *testing.T) {
	m := model{keys: keymap.NewResolver(keymap.All)}

	got := m.helpLine("playback")

	if !strings.Contains(got, "space play/pause") {
		t.Errorf("helpLine = %q, want the space key spelled out", got)
	}
	if !strings.Contains(got, "x stop") {
		t.Errorf("helpLine = %q, missing the stop binding", got)
	}
}
