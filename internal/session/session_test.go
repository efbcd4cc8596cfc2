package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"miniplayer/api"
	"miniplayer/internal/config"
	playerrors "miniplayer/pkg/errors"
)

// fakePlayer records calls and mimics the engine's state transitions
type fakePlayer struct {
	state   api.PlaybackState
	played  []string // RelPath of every Play call
	stopped int
	faded   int
	seeks   []time.Duration
	events  chan api.AudioEvent
}

var _ api.Player = (*fakePlayer)(nil)

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		state:  api.PlaybackState{Status: api.StatusStopped, Volume: 0.5, Speed: 1.0},
		events: make(chan api.AudioEvent, 10),
	}
}

func (p *fakePlayer) Play(track *api.Track) error {
	if track == nil {
		return playerrors.ErrTrackNotFound
	}
	p.played = append(p.played, track.RelPath)
	p.state.CurrentTrack = track
	p.state.Status = api.StatusPlaying
	p.state.Position = 42 * time.Second
	return nil
}

func (p *fakePlayer) Pause() error {
	p.state.Status = api.StatusPaused
	return nil
}

func (p *fakePlayer) Resume() error {
	p.state.Status = api.StatusPlaying
	return nil
}

func (p *fakePlayer) Stop() error {
	p.stopped++
	p.state.Status = api.StatusStopped
	p.state.Position = 0
	return nil
}

func (p *fakePlayer) FadeOut() error {
	p.faded++
	return p.Stop()
}

func (p *fakePlayer) Seek(position time.Duration) error {
	p.seeks = append(p.seeks, position)
	p.state.Position = position
	return nil
}

func (p *fakePlayer) SetVolume(level float64) error {
	if level < 0 || level > 1 {
		return playerrors.ErrInvalidVolume
	}
	p.state.Volume = level
	return nil
}

func (p *fakePlayer) SetSpeed(factor float64) error {
	if factor < 0.5 || factor > 1.5 {
		return playerrors.ErrInvalidSpeed
	}
	p.state.Speed = factor
	return nil
}

func (p *fakePlayer) SetMuted(muted bool) error {
	p.state.Muted = muted
	return nil
}

func (p *fakePlayer) GetState() *api.PlaybackState {
	state := p.state
	return &state
}

func (p *fakePlayer) Events() <-chan api.AudioEvent {
	return p.events
}

func makeMusicDir(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return root
}

func newTestSession(t *testing.T) (*Session, *fakePlayer, string) {
	t.Helper()
	player := newFakePlayer()
	settingsPath := filepath.Join(t.TempDir(), "miniplayer.ini")
	sess := New(player, config.Defaults(), settingsPath)
	return sess, player, settingsPath
}

func TestApply_OpenFolderBuildsOrderedList(t *testing.T) {
	sess, _, _ := newTestSession(t)
	root := makeMusicDir(t, "b.mp3", "a.mp3", "ignored.txt")

	if err := sess.Apply(context.Background(), Command{Type: CmdOpenFolder, Folder: root}); err != nil {
		t.Fatalf("open folder: %v", err)
	}

	tracks := sess.Tracks()
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	if tracks[0].RelPath != "a.mp3" || tracks[1].RelPath != "b.mp3" {
		t.Errorf("tracks out of order: %s, %s", tracks[0].RelPath, tracks[1].RelPath)
	}
	if sess.Index() != 0 {
		t.Errorf("Index = %d, want 0", sess.Index())
	}
	if sess.Folder() != root {
		t.Errorf("Folder = %s, want %s", sess.Folder(), root)
	}
}

func TestApply_OpenFolderUnreadable(t *testing.T) {
	sess, _, _ := newTestSession(t)
	missing := filepath.Join(t.TempDir(), "gone")

	err := sess.Apply(context.Background(), Command{Type: CmdOpenFolder, Folder: missing})
	if err == nil {
		t.Error("opening a missing folder should surface an error")
	}

	if len(sess.Tracks()) != 0 {
		t.Errorf("track list should be empty, got %d", len(sess.Tracks()))
	}
	if sess.Index() != -1 {
		t.Errorf("Index = %d, want -1", sess.Index())
	}
}

func TestApply_StopAfterPlayResetsState(t *testing.T) {
	sess, player, _ := newTestSession(t)
	root := makeMusicDir(t, "one.mp3")
	ctx := context.Background()

	if err := sess.Apply(ctx, Command{Type: CmdOpenFolder, Folder: root}); err != nil {
		t.Fatalf("open folder: %v", err)
	}
	if err := sess.Apply(ctx, Command{Type: CmdPlay, Index: 0}); err != nil {
		t.Fatalf("play: %v", err)
	}
	if player.state.Status != api.StatusPlaying {
		t.Fatalf("Status = %v, want StatusPlaying", player.state.Status)
	}

	if err := sess.Apply(ctx, Command{Type: CmdStop}); err != nil {
		t.Fatalf("stop: %v", err)
	}

	state := player.GetState()
	if state.Status != api.StatusStopped {
		t.Errorf("Status = %v, want StatusStopped", state.Status)
	}
	if state.Position != 0 {
		t.Errorf("Position = %v, want 0", state.Position)
	}
}

func TestApply_StopWithFade(t *testing.T) {
	sess, player, _ := newTestSession(t)

	if err := sess.Apply(context.Background(), Command{Type: CmdStop, Fade: true}); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if player.faded != 1 {
		t.Errorf("faded = %d, want 1", player.faded)
	}
}

func TestApply_PlayPauseCycle(t *testing.T) {
	sess, player, _ := newTestSession(t)
	root := makeMusicDir(t, "one.mp3")
	ctx := context.Background()

	if err := sess.Apply(ctx, Command{Type: CmdOpenFolder, Folder: root}); err != nil {
		t.Fatalf("open folder: %v", err)
	}

	// Stopped -> plays the selected track
	if err := sess.Apply(ctx, Command{Type: CmdPlayPause}); err != nil {
		t.Fatalf("play: %v", err)
	}
	if player.state.Status != api.StatusPlaying {
		t.Fatalf("Status = %v, want StatusPlaying", player.state.Status)
	}

	// Playing -> pauses
	if err := sess.Apply(ctx, Command{Type: CmdPlayPause}); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if player.state.Status != api.StatusPaused {
		t.Fatalf("Status = %v, want StatusPaused", player.state.Status)
	}

	// Paused -> resumes
	if err := sess.Apply(ctx, Command{Type: CmdPlayPause}); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if player.state.Status != api.StatusPlaying {
		t.Errorf("Status = %v, want StatusPlaying", player.state.Status)
	}

	if len(player.played) != 1 {
		t.Errorf("Play called %d times, want 1", len(player.played))
	}
}

func TestApply_PlayPauseNoFolder(t *testing.T) {
	sess, _, _ := newTestSession(t)

	err := sess.Apply(context.Background(), Command{Type: CmdPlayPause})
	if !errors.Is(err, playerrors.ErrNoFolder) {
		t.Errorf("error = %v, want ErrNoFolder", err)
	}
}

func TestApply_PlayPauseEmptyList(t *testing.T) {
	sess, _, _ := newTestSession(t)
	root := makeMusicDir(t) // folder exists but holds no audio
	ctx := context.Background()

	if err := sess.Apply(ctx, Command{Type: CmdOpenFolder, Folder: root}); err != nil {
		t.Fatalf("open folder: %v", err)
	}

	err := sess.Apply(ctx, Command{Type: CmdPlayPause})
	if !errors.Is(err, playerrors.ErrEmptyList) {
		t.Errorf("error = %v, want ErrEmptyList", err)
	}
}

func TestApply_NextPreviousBounds(t *testing.T) {
	sess, player, _ := newTestSession(t)
	root := makeMusicDir(t, "a.mp3", "b.mp3", "c.mp3")
	ctx := context.Background()

	if err := sess.Apply(ctx, Command{Type: CmdOpenFolder, Folder: root}); err != nil {
		t.Fatalf("open folder: %v", err)
	}

	// While stopped, skipping only moves the selection
	if err := sess.Apply(ctx, Command{Type: CmdNext}); err != nil {
		t.Fatalf("next: %v", err)
	}
	if sess.Index() != 1 {
		t.Errorf("Index = %d, want 1", sess.Index())
	}
	if len(player.played) != 0 {
		t.Errorf("skip while stopped should not start playback")
	}

	// At the end the selection stays put
	sess.Apply(ctx, Command{Type: CmdNext})
	if err := sess.Apply(ctx, Command{Type: CmdNext}); err != nil {
		t.Fatalf("next at end: %v", err)
	}
	if sess.Index() != 2 {
		t.Errorf("Index = %d, want 2 (no wrap)", sess.Index())
	}

	// While playing, skipping plays the new track
	if err := sess.Apply(ctx, Command{Type: CmdPlay, Index: 2}); err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := sess.Apply(ctx, Command{Type: CmdPrevious}); err != nil {
		t.Fatalf("previous: %v", err)
	}
	if sess.Index() != 1 {
		t.Errorf("Index = %d, want 1", sess.Index())
	}
	if got := player.played[len(player.played)-1]; got != "b.mp3" {
		t.Errorf("last played = %s, want b.mp3", got)
	}

	// At the start the selection stays put
	sess.Apply(ctx, Command{Type: CmdPrevious})
	if err := sess.Apply(ctx, Command{Type: CmdPrevious}); err != nil {
		t.Fatalf("previous at start: %v", err)
	}
	if sess.Index() != 0 {
		t.Errorf("Index = %d, want 0 (no wrap)", sess.Index())
	}
}

func TestApply_VolumeSpeedClampAndPersist(t *testing.T) {
	sess, player, settingsPath := newTestSession(t)
	ctx := context.Background()

	if err := sess.Apply(ctx, Command{Type: CmdSetVolume, Level: 1.7}); err != nil {
		t.Fatalf("set volume: %v", err)
	}
	if player.state.Volume != 1.0 {
		t.Errorf("Volume = %f, want clamped 1.0", player.state.Volume)
	}

	if err := sess.Apply(ctx, Command{Type: CmdSetSpeed, Factor: 0.1}); err != nil {
		t.Fatalf("set speed: %v", err)
	}
	if player.state.Speed != 0.5 {
		t.Errorf("Speed = %f, want clamped 0.5", player.state.Speed)
	}

	loaded, err := config.Load(settingsPath)
	if err != nil {
		t.Fatalf("load persisted settings: %v", err)
	}
	if loaded.Volume != 100 {
		t.Errorf("persisted Volume = %d, want 100", loaded.Volume)
	}
	if loaded.Speed != 50 {
		t.Errorf("persisted Speed = %d, want 50", loaded.Speed)
	}
}

func TestApply_ToggleRepeatPlayAllExclusive(t *testing.T) {
	sess, _, _ := newTestSession(t)
	ctx := context.Background()

	sess.Apply(ctx, Command{Type: CmdToggleRepeat})
	if s := sess.Settings(); !s.Repeat || s.PlayAll {
		t.Errorf("after toggle repeat: %+v", s)
	}

	sess.Apply(ctx, Command{Type: CmdTogglePlayAll})
	if s := sess.Settings(); s.Repeat || !s.PlayAll {
		t.Errorf("play-all should clear repeat: %+v", s)
	}

	sess.Apply(ctx, Command{Type: CmdToggleRepeat})
	if s := sess.Settings(); !s.Repeat || s.PlayAll {
		t.Errorf("repeat should clear play-all: %+v", s)
	}
}

func TestApply_ToggleMute(t *testing.T) {
	sess, player, _ := newTestSession(t)
	ctx := context.Background()

	sess.Apply(ctx, Command{Type: CmdToggleMute})
	if !player.state.Muted {
		t.Error("player should be muted")
	}
	if !sess.Settings().Mute {
		t.Error("settings should record mute")
	}

	sess.Apply(ctx, Command{Type: CmdToggleMute})
	if player.state.Muted {
		t.Error("player should be unmuted")
	}
}

func TestHandleTrackEnd(t *testing.T) {
	ctx := context.Background()

	t.Run("repeat replays the same track", func(t *testing.T) {
		sess, player, _ := newTestSession(t)
		root := makeMusicDir(t, "a.mp3", "b.mp3")
		sess.Apply(ctx, Command{Type: CmdOpenFolder, Folder: root})
		sess.Apply(ctx, Command{Type: CmdToggleRepeat})
		sess.Apply(ctx, Command{Type: CmdPlay, Index: 0})

		if err := sess.HandleTrackEnd(); err != nil {
			t.Fatalf("track end: %v", err)
		}
		if len(player.played) != 2 || player.played[1] != "a.mp3" {
			t.Errorf("played = %v, want a.mp3 twice", player.played)
		}
	})

	t.Run("play-all advances until the end", func(t *testing.T) {
		sess, player, _ := newTestSession(t)
		root := makeMusicDir(t, "a.mp3", "b.mp3")
		sess.Apply(ctx, Command{Type: CmdOpenFolder, Folder: root})
		sess.Apply(ctx, Command{Type: CmdTogglePlayAll})
		sess.Apply(ctx, Command{Type: CmdPlay, Index: 0})

		if err := sess.HandleTrackEnd(); err != nil {
			t.Fatalf("track end: %v", err)
		}
		if player.played[len(player.played)-1] != "b.mp3" {
			t.Errorf("played = %v, want advance to b.mp3", player.played)
		}

		// Last track ended: nothing more to play
		before := len(player.played)
		if err := sess.HandleTrackEnd(); err != nil {
			t.Fatalf("track end: %v", err)
		}
		if len(player.played) != before {
			t.Errorf("playback should stop at the end of the list")
		}
	})

	t.Run("neither flag leaves playback stopped", func(t *testing.T) {
		sess, player, _ := newTestSession(t)
		root := makeMusicDir(t, "a.mp3", "b.mp3")
		sess.Apply(ctx, Command{Type: CmdOpenFolder, Folder: root})
		sess.Apply(ctx, Command{Type: CmdPlay, Index: 0})

		before := len(player.played)
		if err := sess.HandleTrackEnd(); err != nil {
			t.Fatalf("track end: %v", err)
		}
		if len(player.played) != before {
			t.Errorf("playback should not advance")
		}
	})
}

func TestRestore_LastSession(t *testing.T) {
	player := newFakePlayer()
	root := makeMusicDir(t, "a.mp3", "b.mp3", "c.mp3")
	settingsPath := filepath.Join(t.TempDir(), "miniplayer.ini")

	settings := config.Defaults()
	settings.Volume = 80
	settings.Speed = 120
	settings.Mute = true
	settings.LastFolder = root
	settings.LastTrack = "b.mp3"

	sess := New(player, settings, settingsPath)
	if err := sess.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}

	if player.state.Volume != 0.8 {
		t.Errorf("Volume = %f, want 0.8", player.state.Volume)
	}
	if player.state.Speed != 1.2 {
		t.Errorf("Speed = %f, want 1.2", player.state.Speed)
	}
	if !player.state.Muted {
		t.Error("player should be muted")
	}
	if len(sess.Tracks()) != 3 {
		t.Fatalf("got %d tracks, want 3", len(sess.Tracks()))
	}
	if sess.Index() != 1 {
		t.Errorf("Index = %d, want 1 (b.mp3)", sess.Index())
	}
}

func TestRestore_MissingFolderStartsEmpty(t *testing.T) {
	player := newFakePlayer()
	settings := config.Defaults()
	settings.LastFolder = filepath.Join(t.TempDir(), "unmounted")

	sess := New(player, settings, filepath.Join(t.TempDir(), "miniplayer.ini"))
	if err := sess.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}

	if len(sess.Tracks()) != 0 {
		t.Errorf("got %d tracks, want 0", len(sess.Tracks()))
	}
}
