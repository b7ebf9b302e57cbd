// Package library discovers audiobooks on disk. One directory under the
// library root is one audiobook; its audio files, in name order, are the
// chapters.
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"

	"github.com/jmorneau/tome/internal/book"
)

// Book is an audiobook together with its chapter list, in playback order.
type Book struct {
	book.Audiobook
	Chapters []book.Chapter
}

var audioExts = map[string]bool{
	".mp3":  true,
	".flac": true,
	".wav":  true,
	".ogg":  true,
	".oga":  true,
}

var coverNames = []string{"cover.jpg", "cover.jpeg", "cover.png", "folder.jpg"}

// freeMarker in a book directory marks the book as free content; access then
// depends on the deployment's subscription flags rather than ownership.
// previewSuffix on a sidecar file (01.mp3.preview) marks that chapter as a
// preview, playable regardless of entitlement.
const (
	freeMarker    = ".free"
	previewSuffix = ".preview"
)

// IsAudioFile reports whether the path has a playable extension.
func IsAudioFile(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

// Scan walks the library root and returns the audiobooks found, sorted by
// title. Directories without audio files are skipped. Unreadable tags fall
// back to file and directory names; a scan never fails on bad metadata.
func Scan(root string) ([]Book, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("scan library: %w", err)
	}

	var books []Book
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		b, ok := scanBook(filepath.Join(root, entry.Name()), entry.Name())
		if ok {
			books = append(books, b)
		}
	}

	sort.Slice(books, func(i, j int) bool {
		return strings.ToLower(books[i].Title) < strings.ToLower(books[j].Title)
	})
	return books, nil
}

func scanBook(dir, id string) (Book, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Book{}, false
	}

	var files []string
	names := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names[entry.Name()] = true
		if IsAudioFile(entry.Name()) {
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return Book{}, false
	}
	sort.Strings(files)

	b := Book{}
	b.ID = id
	b.Title = id
	b.ContentType = book.ContentBook
	b.Free = names[freeMarker]

	for _, name := range coverNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			b.CoverPath = filepath.Join(dir, name)
			break
		}
	}

	for i, name := range files {
		path := filepath.Join(dir, name)
		title := chapterTitle(path, i)

		if meta := readTags(path); meta != nil {
			if t := meta.Title(); t != "" {
				title = t
			}
			if i == 0 {
				if album := meta.Album(); album != "" {
					b.Title = album
				}
				if artist := meta.Artist(); artist != "" {
					b.Author = artist
				}
			}
		}

		ch, err := book.NewChapter(fmt.Sprintf("%s/%03d", id, i), title, path)
		if err != nil {
			continue
		}
		ch.Preview = names[name+previewSuffix]
		b.Chapters = append(b.Chapters, ch)
	}

	if len(b.Chapters) == 0 {
		return Book{}, false
	}
	return b, true
}

// readTags reads file metadata, returning nil on any failure.
func readTags(path string) tag.Metadata {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return nil
	}
	return meta
}

func chapterTitle(path string, index int) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		return fmt.Sprintf("Chapter %d", index+1)
	}
	return name
}
