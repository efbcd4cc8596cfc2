package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	playerrors "miniplayer/pkg/errors"
)

func writeFiles(t *testing.T, root string, names []string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("not real audio"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestScan_FiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, []string{
		"b.mp3",
		"a.flac",
		"sub/c.wav",
		"d.ogg",
		"notes.txt",
		"cover.jpg",
		"UPPER.MP3",
		".hidden.mp3",
	})

	scanner := NewScanner(2)
	tracks, err := scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	want := []string{"UPPER.MP3", "a.flac", "b.mp3", "d.ogg", filepath.Join("sub", "c.wav")}
	if len(tracks) != len(want) {
		t.Fatalf("got %d tracks, want %d", len(tracks), len(want))
	}
	for i, rel := range want {
		if tracks[i].RelPath != rel {
			t.Errorf("tracks[%d].RelPath = %s, want %s", i, tracks[i].RelPath, rel)
		}
	}

	// Each supported file appears exactly once
	seen := make(map[string]int)
	for _, track := range tracks {
		seen[track.RelPath]++
	}
	for rel, n := range seen {
		if n != 1 {
			t.Errorf("%s appears %d times, want 1", rel, n)
		}
	}
}

func TestScan_Deterministic(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, []string{"z.mp3", "m.mp3", "a.mp3", "k/q.mp3"})

	scanner := NewScanner(4)
	first, err := scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	for i := 0; i < 5; i++ {
		again, err := scanner.Scan(context.Background(), root)
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("scan %d: got %d tracks, want %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j].RelPath != first[j].RelPath {
				t.Errorf("scan %d: tracks[%d] = %s, want %s", i, j, again[j].RelPath, first[j].RelPath)
			}
		}
	}
}

func TestScan_MissingFolder(t *testing.T) {
	scanner := NewScanner(2)

	tracks, err := scanner.Scan(context.Background(), filepath.Join(t.TempDir(), "gone"))
	if err == nil {
		t.Error("Scan of a missing folder should return an error")
	}

	var scanErr *playerrors.ScanError
	if !errors.As(err, &scanErr) {
		t.Errorf("error should be a ScanError, got %T", err)
	}

	if tracks == nil {
		t.Fatal("track list should be usable even on error")
	}
	if len(tracks) != 0 {
		t.Errorf("got %d tracks, want 0", len(tracks))
	}
}

func TestScan_NotADirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, []string{"song.mp3"})

	scanner := NewScanner(2)
	tracks, err := scanner.Scan(context.Background(), filepath.Join(root, "song.mp3"))
	if err == nil {
		t.Error("Scan of a plain file should return an error")
	}
	if len(tracks) != 0 {
		t.Errorf("got %d tracks, want 0", len(tracks))
	}
}

func TestScan_UntaggedFilesFallBackToFileName(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, []string{"untagged.mp3"})

	scanner := NewScanner(1)
	tracks, err := scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("got %d tracks, want 1", len(tracks))
	}
	if tracks[0].Title != "untagged.mp3" {
		t.Errorf("Title = %s, want untagged.mp3", tracks[0].Title)
	}
	if tracks[0].ID == "" {
		t.Error("track ID should not be empty")
	}
}

func TestScanFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, []string{"sub/song.mp3", "readme.txt"})

	scanner := NewScanner(1)

	track, err := scanner.ScanFile(root, filepath.Join(root, "sub", "song.mp3"))
	if err != nil {
		t.Fatalf("ScanFile: %v", err)
	}
	if track.RelPath != filepath.Join("sub", "song.mp3") {
		t.Errorf("RelPath = %s, want sub/song.mp3", track.RelPath)
	}

	if _, err := scanner.ScanFile(root, filepath.Join(root, "readme.txt")); !errors.Is(err, playerrors.ErrInvalidFormat) {
		t.Errorf("ScanFile(.txt) error = %v, want ErrInvalidFormat", err)
	}
}

func TestSupportedFormats(t *testing.T) {
	scanner := NewScanner(1)
	formats := scanner.SupportedFormats()

	if len(formats) == 0 {
		t.Fatal("SupportedFormats should not be empty")
	}
	for _, ext := range []string{".mp3", ".wav", ".flac", ".ogg"} {
		found := false
		for _, f := range formats {
			if f == ext {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s missing from supported formats", ext)
		}
	}
}
