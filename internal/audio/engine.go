package audio

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"

	"miniplayer/api"
	playerrors "miniplayer/pkg/errors"
)

// Ensure AudioEngine implements Player interface at compile time
var _ api.Player = (*AudioEngine)(nil)

// Fade-out parameters, matching the stop control's 500ms ramp
const (
	fadeSteps    = 10
	fadeInterval = 50 * time.Millisecond
)

// AudioEngine manages audio playback in a separate goroutine. It is a
// facade over the beep streamer chain: decoder -> Ctrl (pause) ->
// Resampler (speed) -> Volume (level and mute).
type AudioEngine struct {
	state      *api.PlaybackState
	commands   chan api.AudioCommand
	events     chan api.AudioEvent
	mu         sync.RWMutex
	streamer   beep.StreamSeekCloser
	ctrl       *beep.Ctrl
	resampler  *beep.Resampler
	volume     *effects.Volume
	format     beep.Format
	sampleRate beep.SampleRate
}

// NewAudioEngine creates a new audio engine instance
func NewAudioEngine() *AudioEngine {
	return &AudioEngine{
		state: &api.PlaybackState{
			Status: api.StatusStopped,
			Volume: 0.5,
			Speed:  1.0,
		},
		commands: make(chan api.AudioCommand, 10),
		events:   make(chan api.AudioEvent, 20),
	}
}

// Start begins the audio engine goroutines
func (e *AudioEngine) Start(ctx context.Context) {
	go e.run(ctx)
	go e.trackPosition(ctx)
}

// Events returns the events channel for subscribing to audio events
func (e *AudioEngine) Events() <-chan api.AudioEvent {
	return e.events
}

// run is the main command processing loop
func (e *AudioEngine) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.cleanup()
			return

		case cmd := <-e.commands:
			switch cmd.Type {
			case api.CmdPlay:
				track := cmd.Payload.(*api.Track)
				if err := e.playTrack(track); err != nil {
					e.events <- api.AudioEvent{Type: api.EventError, Payload: err}
				}

			case api.CmdPause:
				e.setPaused(true, api.StatusPaused)
				e.events <- api.AudioEvent{Type: api.EventStateChange, Payload: e.GetState()}

			case api.CmdResume:
				e.setPaused(false, api.StatusPlaying)
				e.events <- api.AudioEvent{Type: api.EventStateChange, Payload: e.GetState()}

			case api.CmdStop:
				e.stopPlayback()
				e.events <- api.AudioEvent{Type: api.EventStateChange, Payload: e.GetState()}

			case api.CmdFadeOut:
				e.fadeOut()
				e.events <- api.AudioEvent{Type: api.EventStateChange, Payload: e.GetState()}

			case api.CmdVolume:
				level := cmd.Payload.(float64)
				e.mu.Lock()
				if e.volume != nil {
					speaker.Lock()
					// Convert 0-1 range to decibel-like scale
					e.volume.Volume = level*2 - 1 // -1 to 1 range
					speaker.Unlock()
				}
				e.state.Volume = level
				e.mu.Unlock()

			case api.CmdSpeed:
				factor := cmd.Payload.(float64)
				e.mu.Lock()
				if e.resampler != nil {
					speaker.Lock()
					e.resampler.SetRatio(factor)
					speaker.Unlock()
				}
				e.state.Speed = factor
				e.mu.Unlock()

			case api.CmdMute:
				muted := cmd.Payload.(bool)
				e.mu.Lock()
				if e.volume != nil {
					speaker.Lock()
					e.volume.Silent = muted
					speaker.Unlock()
				}
				e.state.Muted = muted
				e.mu.Unlock()

			case api.CmdSeek:
				pos := cmd.Payload.(time.Duration)
				e.seekTo(pos)
			}
		}
	}
}

// setPaused flips the Ctrl pause flag and records the new status
func (e *AudioEngine) setPaused(paused bool, status api.PlaybackStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = paused
	speaker.Unlock()
	e.state.Status = status
}

// trackPosition updates playback position periodically
func (e *AudioEngine) trackPosition(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.publishPosition()
		}
	}
}

// publishPosition records the streamer position under the write lock
// and emits it. Position writes must not race with GetState readers.
func (e *AudioEngine) publishPosition() {
	e.mu.Lock()
	if e.state.Status != api.StatusPlaying || e.streamer == nil {
		e.mu.Unlock()
		return
	}
	speaker.Lock()
	pos := e.streamer.Position()
	speaker.Unlock()
	e.state.Position = e.sampleRate.D(pos)
	position := e.state.Position
	e.mu.Unlock()

	e.events <- api.AudioEvent{
		Type:    api.EventPositionUpdate,
		Payload: position,
	}
}

// playTrack loads and starts playing a track
func (e *AudioEngine) playTrack(track *api.Track) error {
	e.stopPlayback()

	file, err := os.Open(track.FilePath)
	if err != nil {
		return playerrors.NewPlayerError("open", track.ID, err)
	}

	streamer, format, err := DecodeAudio(file, track.FilePath)
	if err != nil {
		file.Close()
		return playerrors.NewPlayerError("decode", track.ID, err)
	}

	e.mu.Lock()
	e.streamer = streamer
	e.format = format
	e.sampleRate = format.SampleRate
	e.ctrl = &beep.Ctrl{Streamer: streamer, Paused: false}
	e.resampler = beep.ResampleRatio(4, e.state.Speed, e.ctrl)
	e.volume = &effects.Volume{
		Streamer: e.resampler,
		Base:     2,
		Volume:   e.state.Volume*2 - 1,
		Silent:   e.state.Muted,
	}
	e.state.CurrentTrack = track
	e.state.Status = api.StatusPlaying
	e.state.Position = 0
	e.state.Duration = format.SampleRate.D(streamer.Len())
	track.Duration = e.state.Duration
	e.mu.Unlock()

	// Initialize speaker with the format
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		return playerrors.NewPlayerError("speaker_init", track.ID, err)
	}

	// Play the audio
	speaker.Play(beep.Seq(e.volume, beep.Callback(func() {
		e.events <- api.AudioEvent{Type: api.EventTrackEnded, Payload: track}
	})))

	e.events <- api.AudioEvent{Type: api.EventTrackStarted, Payload: track}
	return nil
}

// stopPlayback stops the current playback and resets position
func (e *AudioEngine) stopPlayback() {
	e.mu.Lock()
	defer e.mu.Unlock()

	speaker.Clear()
	if e.streamer != nil {
		e.streamer.Close()
		e.streamer = nil
	}
	e.ctrl = nil
	e.resampler = nil
	e.volume = nil
	e.state.Status = api.StatusStopped
	e.state.Position = 0
	e.state.Duration = 0
}

// fadeOut ramps the volume down over half a second, then stops. The
// configured volume is untouched, only the live streamer is faded.
func (e *AudioEngine) fadeOut() {
	e.mu.RLock()
	fading := e.volume != nil && e.state.Status != api.StatusStopped
	e.mu.RUnlock()

	if !fading {
		e.stopPlayback()
		return
	}

	for i := 0; i < fadeSteps; i++ {
		e.mu.RLock()
		vol := e.volume
		e.mu.RUnlock()
		if vol == nil {
			break
		}
		speaker.Lock()
		vol.Volume -= 2.0 / fadeSteps
		speaker.Unlock()
		time.Sleep(fadeInterval)
	}

	e.stopPlayback()
}

// seekTo seeks to a specific position
func (e *AudioEngine) seekTo(pos time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return
	}

	if pos < 0 {
		pos = 0
	}
	if e.state.Duration > 0 && pos > e.state.Duration {
		pos = e.state.Duration
	}

	speaker.Lock()
	err := e.streamer.Seek(e.sampleRate.N(pos))
	speaker.Unlock()
	if err == nil {
		e.state.Position = pos
	}
}

// cleanup releases resources
func (e *AudioEngine) cleanup() {
	e.stopPlayback()
	close(e.events)
}

// Play starts playing the specified track
func (e *AudioEngine) Play(track *api.Track) error {
	if track == nil {
		return playerrors.ErrTrackNotFound
	}
	e.commands <- api.AudioCommand{Type: api.CmdPlay, Payload: track}
	return nil
}

// Pause pauses playback
func (e *AudioEngine) Pause() error {
	e.commands <- api.AudioCommand{Type: api.CmdPause}
	return nil
}

// Resume resumes playback
func (e *AudioEngine) Resume() error {
	e.commands <- api.AudioCommand{Type: api.CmdResume}
	return nil
}

// Stop stops playback immediately
func (e *AudioEngine) Stop() error {
	e.commands <- api.AudioCommand{Type: api.CmdStop}
	return nil
}

// FadeOut ramps the volume down before stopping
func (e *AudioEngine) FadeOut() error {
	e.commands <- api.AudioCommand{Type: api.CmdFadeOut}
	return nil
}

// Seek seeks to the specified position
func (e *AudioEngine) Seek(position time.Duration) error {
	e.commands <- api.AudioCommand{Type: api.CmdSeek, Payload: position}
	return nil
}

// SetVolume sets the volume level (0.0 to 1.0)
func (e *AudioEngine) SetVolume(level float64) error {
	if level < 0 || level > 1 {
		return playerrors.ErrInvalidVolume
	}
	e.commands <- api.AudioCommand{Type: api.CmdVolume, Payload: level}
	return nil
}

// SetSpeed sets the playback rate (0.5 to 1.5, 1.0 is normal)
func (e *AudioEngine) SetSpeed(factor float64) error {
	if factor < 0.5 || factor > 1.5 {
		return playerrors.ErrInvalidSpeed
	}
	e.commands <- api.AudioCommand{Type: api.CmdSpeed, Payload: factor}
	return nil
}

// SetMuted silences or restores output without touching the volume level
func (e *AudioEngine) SetMuted(muted bool) error {
	e.commands <- api.AudioCommand{Type: api.CmdMute, Payload: muted}
	return nil
}

// GetState returns a copy of the current playback state
func (e *AudioEngine) GetState() *api.PlaybackState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	// Return a copy to prevent external modification
	state := *e.state
	if e.state.CurrentTrack != nil {
		track := *e.state.CurrentTrack
		state.CurrentTrack = &track
	}
	return &state
}
