//go:build linux

// Package mpris exposes the playback session over the MPRIS D-Bus interface
// so desktop media keys and car head units can drive it.
package mpris

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/jmorneau/tome/internal/session"
)

// Adapter connects the session Controller to MPRIS over D-Bus.
type Adapter struct {
	controller *session.Controller
	server     *server.Server
	done       chan struct{}
}

// New creates and starts a new MPRIS adapter.
func New(controller *session.Controller) (*Adapter, error) {
	a := &Adapter{
		controller: controller,
		done:       make(chan struct{}),
	}

	rootAdapter := &rootAdapter{}
	playerAdapter := &playerAdapter{controller: controller}

	a.server = server.NewServer("tome", rootAdapter, playerAdapter)

	// Start the server in background
	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	close(a.done)
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Tome", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/ogg", "audio/wav"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	controller *session.Controller
}

func (p *playerAdapter) Next() error {
	p.controller.NextChapter()
	return nil
}

func (p *playerAdapter) Previous() error {
	p.controller.PreviousChapter()
	return nil
}

func (p *playerAdapter) Pause() error {
	p.controller.Pause()
	return nil
}

func (p *playerAdapter) PlayPause() error {
	p.controller.TogglePlayPause()
	return nil
}

func (p *playerAdapter) Stop() error {
	p.controller.Stop()
	return nil
}

func (p *playerAdapter) Play() error {
	p.controller.TogglePlayPause()
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	d := time.Duration(offset) * time.Microsecond
	if d >= 0 {
		p.controller.SkipForward(d)
	} else {
		p.controller.SkipBackward(-d)
	}
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	p.controller.SeekTo(time.Duration(position) * time.Microsecond)
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.controller.Snapshot().Status {
	case session.StatusPlaying, session.StatusBuffering, session.StatusLoading:
		return types.PlaybackStatusPlaying, nil
	case session.StatusPaused, session.StatusCompleted:
		return types.PlaybackStatusPaused, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return p.controller.Snapshot().Speed, nil
}

func (p *playerAdapter) SetRate(rate float64) error {
	p.controller.SetSpeed(rate)
	return nil
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	s := p.controller.Snapshot()
	ch := s.CurrentChapter()
	if s.Audiobook == nil || ch == nil {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId:     dbus.ObjectPath(formatTrackID(ch.Path)),
		Length:      types.Microseconds(s.Duration.Microseconds()),
		Title:       ch.Title,
		Artist:      []string{s.Audiobook.Author},
		Album:       s.Audiobook.Title,
		TrackNumber: s.ChapterIndex + 1,
	}

	if s.Audiobook.CoverPath != "" {
		meta.ArtUrl = "file://" + s.Audiobook.CoverPath
	}

	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil // Volume control not exposed via the controller
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Position() (int64, error) {
	return p.controller.Snapshot().Position.Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 0.5, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 2.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return p.controller.Snapshot().HasNext(), nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.controller.Snapshot().ChapterIndex > 0, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.controller.Snapshot().Audiobook != nil, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

func formatTrackID(path string) string {
	h := fnv.New64a()
	h.Write([]byte(path))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
