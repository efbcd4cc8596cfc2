package api

import "time"

// PlaybackStatus describes what the player is currently doing.
type PlaybackStatus int

const (
	StatusStopped PlaybackStatus = iota
	StatusPlaying
	StatusPaused
)

// Track is a playable audio file discovered under the selected folder.
type Track struct {
	ID       string
	Title    string
	Artist   string
	Album    string
	Genre    string
	Year     int
	TrackNum int
	RelPath  string // path relative to the scanned folder
	FilePath string // absolute path
	Duration time.Duration
}

// PlaybackState is a snapshot of the engine's state.
type PlaybackState struct {
	CurrentTrack *Track
	Status       PlaybackStatus
	Position     time.Duration
	Duration     time.Duration
	Volume       float64 // 0.0 to 1.0
	Speed        float64 // 0.5 to 1.5, 1.0 is normal
	Muted        bool
}

// CommandType identifies an audio engine command
type CommandType int

const (
	CmdPlay CommandType = iota
	CmdPause
	CmdResume
	CmdStop
	CmdFadeOut
	CmdSeek
	CmdVolume
	CmdSpeed
	CmdMute
)

// AudioCommand is sent to the engine's command loop
type AudioCommand struct {
	Type    CommandType
	Payload interface{}
}

// EventType identifies an audio event
type EventType int

const (
	EventTrackStarted EventType = iota
	EventTrackEnded
	EventPositionUpdate
	EventStateChange
	EventError
)

// AudioEvent is emitted by the engine during playback
type AudioEvent struct {
	Type    EventType
	Payload interface{}
}

// Player is the playback facade implemented by the audio engine.
// Decoding, mixing and output live in the underlying audio library;
// implementations only forward control operations and report state.
type Player interface {
	Play(track *Track) error
	Pause() error
	Resume() error
	Stop() error
	FadeOut() error
	Seek(position time.Duration) error
	SetVolume(level float64) error
	SetSpeed(factor float64) error
	SetMuted(muted bool) error
	GetState() *PlaybackState
	Events() <-chan AudioEvent
}
