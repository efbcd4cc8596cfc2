package library

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dhowden/tag"

	"miniplayer/api"
)

// MetadataReader extracts metadata from audio files
type MetadataReader struct{}

// NewMetadataReader creates a new metadata reader
func NewMetadataReader() *MetadataReader {
	return &MetadataReader{}
}

// Read extracts metadata from an audio file and returns a Track.
// Files without usable tags still yield a track named after the file.
func (r *MetadataReader) Read(filePath string) (*api.Track, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	id := generateTrackID(filePath)

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		return &api.Track{
			ID:       id,
			Title:    filepath.Base(filePath),
			FilePath: filePath,
		}, nil
	}

	track := &api.Track{
		ID:       id,
		Title:    getOrDefault(metadata.Title(), filepath.Base(filePath)),
		Artist:   getOrDefault(metadata.Artist(), "Unknown Artist"),
		Album:    getOrDefault(metadata.Album(), "Unknown Album"),
		Genre:    metadata.Genre(),
		Year:     metadata.Year(),
		FilePath: filePath,
	}

	trackNum, _ := metadata.Track()
	track.TrackNum = trackNum

	return track, nil
}

// generateTrackID creates a unique ID for a track based on its file path
func generateTrackID(filePath string) string {
	hash := md5.Sum([]byte(filePath))
	return fmt.Sprintf("track-%x", hash[:8])
}

// getOrDefault returns the value if non-empty, otherwise returns the default
func getOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
