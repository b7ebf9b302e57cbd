package library

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not real audio"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIsAudioFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"01.mp3", true},
		{"01.MP3", true},
		{"track.flac", true},
		{"track.ogg", true},
		{"track.oga", true},
		{"track.wav", true},
		{"cover.jpg", false},
		{"notes.txt", false},
		{"noextension", false},
	}
	for _, tt := range tests {
		if got := IsAudioFile(tt.path); got != tt.want {
			t.Errorf("IsAudioFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestScan_FindsBooksAndChapters(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "dune", "01 - arrival.mp3"))
	writeFile(t, filepath.Join(root, "dune", "02 - the test.mp3"))
	writeFile(t, filepath.Join(root, "dune", "notes.txt"))

	books, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("len(books) = %d, want 1", len(books))
	}

	b := books[0]
	if b.ID != "dune" {
		t.Errorf("ID = %q, want dune", b.ID)
	}
	if len(b.Chapters) != 2 {
		t.Fatalf("len(Chapters) = %d, want 2", len(b.Chapters))
	}
	// Untagged files fall back to the file name, in sorted order.
	if b.Chapters[0].Title != "01 - arrival" {
		t.Errorf("Chapters[0].Title = %q, want %q", b.Chapters[0].Title, "01 - arrival")
	}
	if b.Chapters[1].Title != "02 - the test" {
		t.Errorf("Chapters[1].Title = %q, want %q", b.Chapters[1].Title, "02 - the test")
	}
	if b.Chapters[0].ID != "dune/000" {
		t.Errorf("Chapters[0].ID = %q, want dune/000", b.Chapters[0].ID)
	}
}

func TestScan_SkipsDirectoriesWithoutAudio(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "empty-dir", "readme.txt"))
	writeFile(t, filepath.Join(root, "real-book", "01.mp3"))
	writeFile(t, filepath.Join(root, "loose.mp3")) // files at the root are not books

	books, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(books) != 1 || books[0].ID != "real-book" {
		t.Errorf("books = %+v, want only real-book", books)
	}
}

func TestScan_SortsBooksByTitle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "zebra", "01.mp3"))
	writeFile(t, filepath.Join(root, "Apple", "01.mp3"))
	writeFile(t, filepath.Join(root, "mango", "01.mp3"))

	books, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(books) != 3 {
		t.Fatalf("len(books) = %d, want 3", len(books))
	}
	got := []string{books[0].Title, books[1].Title, books[2].Title}
	want := []string{"Apple", "mango", "zebra"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("titles = %v, want %v", got, want)
		}
	}
}

func TestScan_PicksUpCoverArt(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "dune", "01.mp3"))
	writeFile(t, filepath.Join(root, "dune", "cover.jpg"))

	books, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := filepath.Join(root, "dune", "cover.jpg")
	if books[0].CoverPath != want {
		t.Errorf("CoverPath = %q, want %q", books[0].CoverPath, want)
	}
}

func TestScan_MissingRoot(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "does-not-exist")); err == nil {
		t.Error("Scan of missing root: err = nil, want error")
	}
}

func TestScan_UnreadableTagsDoNotFailTheScan(t *testing.T) {
	root := t.TempDir()
	// Garbage bytes: dhowden/tag cannot parse these, the scanner falls back
	// to file names.
	writeFile(t, filepath.Join(root, "dune", "chapter.mp3"))

	books, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("len(books) = %d, want 1", len(books))
	}
	if books[0].Title != "dune" {
		t.Errorf("Title = %q, want directory name fallback", books[0].Title)
	}
}

func TestScan_FreeMarker(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sampler", ".free"))
	writeFile(t, filepath.Join(root, "sampler", "01.mp3"))
	writeFile(t, filepath.Join(root, "paid", "01.mp3"))

	books, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("len(books) = %d, want 2", len(books))
	}

	byID := map[string]Book{}
	for _, b := range books {
		byID[b.ID] = b
	}
	if !byID["sampler"].Free {
		t.Error("sampler.Free = false, want true (marker file present)")
	}
	if byID["paid"].Free {
		t.Error("paid.Free = true, want false")
	}
}

func TestScan_PreviewMarkers(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "dune", "01.mp3"))
	writeFile(t, filepath.Join(root, "dune", "01.mp3.preview"))
	writeFile(t, filepath.Join(root, "dune", "02.mp3"))

	books, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("len(books) = %d, want 1", len(books))
	}

	chapters := books[0].Chapters
	if len(chapters) != 2 {
		t.Fatalf("len(Chapters) = %d, want 2 (sidecars are not chapters)", len(chapters))
	}
	if !chapters[0].Preview {
		t.Error("chapter 1 Preview = false, want true")
	}
	if chapters[1].Preview {
		t.Error("chapter 2 Preview = true, want false")
	}
}
