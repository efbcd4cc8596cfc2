// Package session owns the player-facing state of one run of the
// application: the loaded settings, the track list of the current
// folder and the position within it. The UI never calls the playback
// engine directly; it issues Commands through a single Apply handler,
// which keeps the two sides independently testable.
package session

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"miniplayer/api"
	"miniplayer/internal/config"
	"miniplayer/internal/library"
	playerrors "miniplayer/pkg/errors"
)

// CommandType identifies a user-level command
type CommandType int

const (
	CmdPlay CommandType = iota // play the track at Index
	CmdPlayPause
	CmdStop
	CmdNext
	CmdPrevious
	CmdSeek
	CmdSetSpeed
	CmdSetVolume
	CmdToggleMute
	CmdToggleRepeat
	CmdTogglePlayAll
	CmdOpenFolder
)

// Command is a user action dispatched through Session.Apply. Only the
// field matching the type is read.
type Command struct {
	Type     CommandType
	Index    int
	Position time.Duration
	Factor   float64 // playback rate for CmdSetSpeed
	Level    float64 // volume 0.0-1.0 for CmdSetVolume
	Folder   string
	Fade     bool // CmdStop: ramp down instead of cutting
}

// Session holds the settings value and the playback facade and keeps
// them consistent: every relevant change is pushed to the player and
// persisted to the settings file.
type Session struct {
	mu           sync.Mutex
	player       api.Player
	scanner      *library.Scanner
	settings     *config.Settings
	settingsPath string

	folder string
	tracks []*api.Track
	index  int
}

// New creates a session around a player facade and loaded settings
func New(player api.Player, settings *config.Settings, settingsPath string) *Session {
	return &Session{
		player:       player,
		scanner:      library.NewScanner(4),
		settings:     settings,
		settingsPath: settingsPath,
		index:        -1,
	}
}

// Restore applies the persisted settings to the player and, when the
// last folder still exists, re-scans it and selects the last track.
// Scan problems are reported but never prevent startup.
func (s *Session) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applySettingsToPlayer()

	if s.settings.LastFolder == "" {
		return nil
	}
	if _, err := os.Stat(s.settings.LastFolder); err != nil {
		return nil // folder moved or unmounted, start empty
	}

	// openFolderLocked resets the last-track key, so remember it first
	lastTrack := s.settings.LastTrack
	if err := s.openFolderLocked(ctx, s.settings.LastFolder); err != nil {
		return err
	}

	if lastTrack != "" {
		for i, track := range s.tracks {
			if track.RelPath == lastTrack {
				s.index = i
				s.settings.LastTrack = lastTrack
				break
			}
		}
	}
	return nil
}

// Apply dispatches a single command. All user actions, from key
// presses to folder selection, funnel through here.
func (s *Session) Apply(ctx context.Context, cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.Type {
	case CmdPlay:
		return s.playIndexLocked(cmd.Index)

	case CmdPlayPause:
		switch s.player.GetState().Status {
		case api.StatusPlaying:
			return s.player.Pause()
		case api.StatusPaused:
			return s.player.Resume()
		default:
			if s.index < 0 && len(s.tracks) > 0 {
				s.index = 0
			}
			return s.playIndexLocked(s.index)
		}

	case CmdStop:
		if cmd.Fade {
			return s.player.FadeOut()
		}
		return s.player.Stop()

	case CmdNext:
		return s.skipLocked(1)

	case CmdPrevious:
		return s.skipLocked(-1)

	case CmdSeek:
		return s.player.Seek(cmd.Position)

	case CmdSetSpeed:
		factor := clampFloat(cmd.Factor, config.MinSpeed/100.0, config.MaxSpeed/100.0)
		if err := s.player.SetSpeed(factor); err != nil {
			return err
		}
		s.settings.Speed = int(math.Round(factor * 100))
		s.saveLocked()
		return nil

	case CmdSetVolume:
		level := clampFloat(cmd.Level, 0, 1)
		if err := s.player.SetVolume(level); err != nil {
			return err
		}
		s.settings.Volume = int(math.Round(level * 100))
		s.saveLocked()
		return nil

	case CmdToggleMute:
		s.settings.Mute = !s.settings.Mute
		if err := s.player.SetMuted(s.settings.Mute); err != nil {
			return err
		}
		s.saveLocked()
		return nil

	case CmdToggleRepeat:
		s.settings.Repeat = !s.settings.Repeat
		if s.settings.Repeat {
			s.settings.PlayAll = false
		}
		s.saveLocked()
		return nil

	case CmdTogglePlayAll:
		s.settings.PlayAll = !s.settings.PlayAll
		if s.settings.PlayAll {
			s.settings.Repeat = false
		}
		s.saveLocked()
		return nil

	case CmdOpenFolder:
		return s.openFolderLocked(ctx, cmd.Folder)
	}

	return fmt.Errorf("unknown command type %d", cmd.Type)
}

// HandleTrackEnd advances playback after the engine reports the end of
// a track: repeat replays it, play-all moves on until the list runs
// out, otherwise playback stays stopped.
func (s *Session) HandleTrackEnd() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.settings.Repeat:
		return s.playIndexLocked(s.index)
	case s.settings.PlayAll && s.index < len(s.tracks)-1:
		s.index++
		return s.playIndexLocked(s.index)
	}
	return nil
}

// Tracks returns the current track list
func (s *Session) Tracks() []*api.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracks
}

// Folder returns the currently opened folder
func (s *Session) Folder() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.folder
}

// Index returns the current track index, -1 when nothing is selected
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// State reports the player's current playback state
func (s *Session) State() *api.PlaybackState {
	return s.player.GetState()
}

// Settings returns a copy of the current settings value
func (s *Session) Settings() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.settings
}

// SaveSettings flushes the settings to disk, used at shutdown
func (s *Session) SaveSettings() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Save(s.settingsPath)
}

func (s *Session) playIndexLocked(index int) error {
	if s.folder == "" {
		return playerrors.ErrNoFolder
	}
	if len(s.tracks) == 0 {
		return playerrors.ErrEmptyList
	}
	if index < 0 || index >= len(s.tracks) {
		return playerrors.ErrTrackNotFound
	}

	s.index = index
	track := s.tracks[index]
	if err := s.player.Play(track); err != nil {
		return err
	}

	s.settings.LastTrack = track.RelPath
	s.saveLocked()
	return nil
}

// skipLocked moves the selection without wrapping. Playback only
// follows when a track is already playing or paused.
func (s *Session) skipLocked(delta int) error {
	if len(s.tracks) == 0 {
		return playerrors.ErrEmptyList
	}

	next := s.index + delta
	if next < 0 || next >= len(s.tracks) {
		return nil
	}
	s.index = next

	if s.player.GetState().Status != api.StatusStopped {
		return s.playIndexLocked(next)
	}
	return nil
}

func (s *Session) openFolderLocked(ctx context.Context, folder string) error {
	tracks, err := s.scanner.Scan(ctx, folder)

	s.player.Stop()
	s.folder = folder
	s.tracks = tracks
	s.index = -1
	if len(tracks) > 0 {
		s.index = 0
	}

	s.settings.LastFolder = folder
	s.settings.LastTrack = ""
	s.saveLocked()

	return err
}

// applySettingsToPlayer pushes volume, speed and mute to the facade
func (s *Session) applySettingsToPlayer() {
	if err := s.player.SetVolume(s.settings.VolumeLevel()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: set volume: %v\n", err)
	}
	if err := s.player.SetSpeed(s.settings.SpeedFactor()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: set speed: %v\n", err)
	}
	if err := s.player.SetMuted(s.settings.Mute); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: set mute: %v\n", err)
	}
}

// saveLocked persists the settings, best effort
func (s *Session) saveLocked() {
	if err := s.settings.Save(s.settingsPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: save settings: %v\n", err)
	}
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
