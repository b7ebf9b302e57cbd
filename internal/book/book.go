// Package book defines the audiobook domain records shared by the library,
// session controller, and UI.
package book

import (
	"errors"
	"fmt"
	"time"
)

// ContentType distinguishes audiobooks from music albums.
type ContentType string

const (
	ContentBook  ContentType = "book"
	ContentMusic ContentType = "music"
)

// Audiobook identifies one playable title.
type Audiobook struct {
	ID          string
	Title       string
	Author      string
	CoverPath   string
	ContentType ContentType
	Free        bool
}

// Chapter is one playable unit within an audiobook. Chapters are kept in
// playback order; the slice index is the chapter index everywhere.
type Chapter struct {
	ID       string
	Title    string
	Path     string // media resource the engine loads
	Duration time.Duration
	Preview  bool
}

var (
	ErrMissingID    = errors.New("book: missing id")
	ErrMissingTitle = errors.New("book: missing title")
)

// New validates and constructs an Audiobook.
func New(id, title string, ct ContentType) (Audiobook, error) {
	if id == "" {
		return Audiobook{}, ErrMissingID
	}
	if title == "" {
		return Audiobook{}, ErrMissingTitle
	}
	if ct == "" {
		ct = ContentBook
	}
	return Audiobook{ID: id, Title: title, ContentType: ct}, nil
}

// NewChapter validates and constructs a Chapter.
func NewChapter(id, title, path string) (Chapter, error) {
	if id == "" {
		return Chapter{}, ErrMissingID
	}
	if path == "" {
		return Chapter{}, fmt.Errorf("book: chapter %s: missing media path", id)
	}
	if title == "" {
		title = id
	}
	return Chapter{ID: id, Title: title, Path: path}, nil
}
