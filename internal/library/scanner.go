package library

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"miniplayer/api"
	playerrors "miniplayer/pkg/errors"
)

// Scanner discovers audio files under a folder and reads their
// metadata with a bounded worker pool. The resulting track list is
// ordered by relative path, so repeated scans of the same folder are
// deterministic.
type Scanner struct {
	workers    int
	formats    []string
	metaReader *MetadataReader
}

// NewScanner creates a new folder scanner
func NewScanner(workers int) *Scanner {
	if workers <= 0 {
		workers = 4 // Default worker count
	}
	return &Scanner{
		workers:    workers,
		formats:    []string{".mp3", ".wav", ".flac", ".ogg"},
		metaReader: NewMetadataReader(),
	}
}

// SupportedFormats returns list of supported audio formats
func (s *Scanner) SupportedFormats() []string {
	return s.formats
}

// isSupported checks if a file format is supported
func (s *Scanner) isSupported(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, format := range s.formats {
		if ext == format {
			return true
		}
	}
	return false
}

// Scan walks folder recursively and returns the supported audio files
// as tracks ordered by relative path. Unreadable subdirectories are
// skipped. A missing or unreadable root returns an empty list along
// with a ScanError the caller can surface; the list is always usable.
func (s *Scanner) Scan(ctx context.Context, folder string) ([]*api.Track, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return []*api.Track{}, &playerrors.ScanError{Path: folder, Err: err}
	}
	if !info.IsDir() {
		return []*api.Track{}, &playerrors.ScanError{Path: folder, Err: fmt.Errorf("not a directory")}
	}

	var rels []string
	err = filepath.WalkDir(folder, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entry, skip it
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			// Skip hidden directories, but never the root itself
			if p != folder && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") || !s.isSupported(p) {
			return nil
		}

		rel, relErr := filepath.Rel(folder, p)
		if relErr != nil {
			return nil
		}
		rels = append(rels, rel)
		return nil
	})
	if err != nil {
		return []*api.Track{}, err
	}

	sort.Strings(rels)

	// Read metadata concurrently, keeping the sorted order by index
	tracks := make([]*api.Track, len(rels))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				rel := rels[idx]
				abs := filepath.Join(folder, rel)

				track, err := s.metaReader.Read(abs)
				if err != nil {
					// File vanished or became unreadable mid-scan;
					// keep a minimal entry so it still appears once
					track = &api.Track{
						ID:       generateTrackID(abs),
						Title:    filepath.Base(rel),
						FilePath: abs,
					}
				}
				track.RelPath = rel
				tracks[idx] = track
			}
		}()
	}

	for i := range rels {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return []*api.Track{}, err
	}
	return tracks, nil
}

// ScanFile scans a single file and returns a Track with its path
// relative to the given folder.
func (s *Scanner) ScanFile(folder, filePath string) (*api.Track, error) {
	if !s.isSupported(filePath) {
		return nil, playerrors.ErrInvalidFormat
	}

	track, err := s.metaReader.Read(filePath)
	if err != nil {
		return nil, &playerrors.ScanError{Path: filePath, Err: err}
	}

	if rel, err := filepath.Rel(folder, filePath); err == nil {
		track.RelPath = rel
	} else {
		track.RelPath = filepath.Base(filePath)
	}
	return track, nil
}
