package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/ini.v1"
)

const settingsSection = "Settings"

// Bounds and defaults for the persisted numeric settings. Volume and
// speed are stored as integer percentages, the way the sliders expose
// them.
const (
	MinVolume     = 0
	MaxVolume     = 100
	DefaultVolume = 50

	MinSpeed     = 50
	MaxSpeed     = 150
	DefaultSpeed = 100
)

// Settings is the persisted record of the last player session.
type Settings struct {
	Volume     int    // percent, 0-100
	Speed      int    // percent, 50-150
	Repeat     bool   // repeat the current track
	Mute       bool
	PlayAll    bool   // auto-advance through the track list
	LastFolder string // last opened folder, absolute
	LastTrack  string // last played track, relative to LastFolder
}

// Defaults returns the documented default settings.
func Defaults() *Settings {
	return &Settings{
		Volume: DefaultVolume,
		Speed:  DefaultSpeed,
	}
}

// Load reads settings from an INI file. A missing file yields pure
// defaults with no error. Malformed or absent keys fall back to their
// defaults and numeric values are clamped into range, so the returned
// settings are always usable even when err is non-nil.
func Load(path string) (*Settings, error) {
	s := Defaults()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return s, fmt.Errorf("read settings file: %w", err)
	}

	sec := cfg.Section(settingsSection)
	s.Volume = clampInt(sec.Key("volume").MustInt(DefaultVolume), MinVolume, MaxVolume)
	s.Speed = clampInt(sec.Key("speed").MustInt(DefaultSpeed), MinSpeed, MaxSpeed)
	s.Repeat = sec.Key("repeat").MustBool(false)
	s.Mute = sec.Key("mute").MustBool(false)
	s.PlayAll = sec.Key("play_all").MustBool(false)
	s.LastFolder = sec.Key("last_folder").String()
	s.LastTrack = sec.Key("last_track").String()

	// Repeat and play-all are mutually exclusive; repeat wins
	if s.Repeat && s.PlayAll {
		s.PlayAll = false
	}

	return s, nil
}

// Save writes the settings to an INI file, creating the parent
// directory if needed.
func (s *Settings) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
	}

	cfg := ini.Empty()
	sec := cfg.Section(settingsSection)
	sec.Key("volume").SetValue(strconv.Itoa(clampInt(s.Volume, MinVolume, MaxVolume)))
	sec.Key("speed").SetValue(strconv.Itoa(clampInt(s.Speed, MinSpeed, MaxSpeed)))
	sec.Key("repeat").SetValue(strconv.FormatBool(s.Repeat))
	sec.Key("mute").SetValue(strconv.FormatBool(s.Mute))
	sec.Key("play_all").SetValue(strconv.FormatBool(s.PlayAll))
	sec.Key("last_folder").SetValue(s.LastFolder)
	sec.Key("last_track").SetValue(s.LastTrack)

	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

// VolumeLevel converts the stored percentage to the 0.0-1.0 scale the
// player facade expects.
func (s *Settings) VolumeLevel() float64 {
	return float64(clampInt(s.Volume, MinVolume, MaxVolume)) / 100
}

// SpeedFactor converts the stored percentage to a playback rate.
func (s *Settings) SpeedFactor() float64 {
	return float64(clampInt(s.Speed, MinSpeed, MaxSpeed)) / 100
}

// Path returns the settings file path
func Path() string {
	// Check environment variable first
	if path := os.Getenv("MINIPLAYER_CONFIG"); path != "" {
		return path
	}

	// Use XDG config directory if available
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "miniplayer", "miniplayer.ini")
	}

	// Fall back to home directory
	home, err := os.UserHomeDir()
	if err != nil {
		return "./miniplayer.ini"
	}

	return filepath.Join(home, ".config", "miniplayer", "miniplayer.ini")
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
