package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"miniplayer/api"
	"miniplayer/internal/library"
	"miniplayer/internal/session"
	"miniplayer/internal/ui/components"
	"miniplayer/internal/ui/views"
	"miniplayer/pkg/events"
)

const (
	tickInterval    = 500 * time.Millisecond
	marqueeInterval = 150 * time.Millisecond
	seekStep        = 5 * time.Second
	volumeStep      = 0.05
	speedStep       = 0.1
)

// Model is the main bubbletea model
type Model struct {
	// Dimensions
	width  int
	height int

	// Views
	playerView   views.PlayerView
	playlistView views.PlaylistView
	browser      components.FileBrowser
	browsing     bool

	// Wiring
	sess       *session.Session
	busEvents  <-chan api.AudioEvent
	extensions []string

	// State
	ctx    context.Context
	cancel context.CancelFunc
	err    error

	headerStyle lipgloss.Style
}

// TickMsg is sent periodically to refresh the playback state
type TickMsg time.Time

// MarqueeTickMsg drives the scrolling title
type MarqueeTickMsg time.Time

// StateUpdateMsg is sent when playback state changes
type StateUpdateMsg struct {
	State *api.PlaybackState
}

// PlaybackErrorMsg reports a non-fatal playback error
type PlaybackErrorMsg struct {
	Err error
}

// NewModel creates a new application model
func NewModel(sess *session.Session, bus *events.EventBus) Model {
	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		width:      80,
		height:     24,
		sess:       sess,
		busEvents:  bus.SubscribeAll(),
		extensions: library.NewScanner(1).SupportedFormats(),
		ctx:        ctx,
		cancel:     cancel,
		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginBottom(1),
	}

	m.playerView = views.NewPlayerView(m.width/2, m.height-4)
	m.playlistView = views.NewPlaylistView(m.width/2, m.height-4)

	m.playlistView.SetTracks(sess.Tracks())
	if index := sess.Index(); index >= 0 {
		tracks := sess.Tracks()
		if index < len(tracks) {
			m.playlistView.SelectTrack(tracks[index].ID)
		}
	}
	m.refreshState()

	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		marqueeTickCmd(),
		m.listenForEvents(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func marqueeTickCmd() tea.Cmd {
	return tea.Tick(marqueeInterval, func(t time.Time) tea.Msg {
		return MarqueeTickMsg(t)
	})
}

// listenForEvents returns a command that listens for audio events
func (m Model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		select {
		case event := <-m.busEvents:
			switch event.Type {
			case api.EventStateChange, api.EventTrackStarted, api.EventPositionUpdate:
				return StateUpdateMsg{State: m.sess.State()}
			case api.EventTrackEnded:
				// Repeat or advance according to the session modes
				m.sess.HandleTrackEnd()
				return StateUpdateMsg{State: m.sess.State()}
			case api.EventError:
				err, _ := event.Payload.(error)
				return PlaybackErrorMsg{Err: err}
			}
		case <-m.ctx.Done():
			return nil
		}
		return nil
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewSizes()

	case TickMsg:
		m.refreshState()
		cmds = append(cmds, tickCmd())

	case MarqueeTickMsg:
		m.playerView.AdvanceMarquee()
		cmds = append(cmds, marqueeTickCmd())

	case StateUpdateMsg:
		m.playerView.SetState(msg.State)
		cmds = append(cmds, m.listenForEvents())

	case PlaybackErrorMsg:
		m.err = msg.Err
		m.refreshState()
		cmds = append(cmds, m.listenForEvents())

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}

		if m.browsing {
			return m.updateBrowsing(msg), tea.Batch(cmds...)
		}

		// Keys go to the search box while it has focus
		if m.playlistView.Search.Focused {
			switch msg.String() {
			case "esc", "enter":
				m.playlistView.Search.Blur()
			default:
				m.playlistView, _ = m.playlistView.Update(msg)
			}
			return m, tea.Batch(cmds...)
		}

		switch msg.String() {
		case "q":
			m.cancel()
			return m, tea.Quit

		case " ": // Play/pause
			m.apply(session.Command{Type: session.CmdPlayPause})

		case "esc": // Stop with fade-out
			m.apply(session.Command{Type: session.CmdStop, Fade: true})

		case "n": // Next
			m.apply(session.Command{Type: session.CmdNext})

		case "p": // Previous
			m.apply(session.Command{Type: session.CmdPrevious})

		case "left":
			m.seekBy(-seekStep)

		case "right":
			m.seekBy(seekStep)

		case "+", "=":
			state := m.sess.State()
			m.apply(session.Command{Type: session.CmdSetVolume, Level: state.Volume + volumeStep})

		case "-":
			state := m.sess.State()
			m.apply(session.Command{Type: session.CmdSetVolume, Level: state.Volume - volumeStep})

		case ">", ".":
			state := m.sess.State()
			m.apply(session.Command{Type: session.CmdSetSpeed, Factor: state.Speed + speedStep})

		case "<", ",":
			state := m.sess.State()
			m.apply(session.Command{Type: session.CmdSetSpeed, Factor: state.Speed - speedStep})

		case "m": // ctrl+m is byte 0x0D and arrives as enter, so plain m it is
			m.apply(session.Command{Type: session.CmdToggleMute})

		case "ctrl+r":
			m.apply(session.Command{Type: session.CmdToggleRepeat})

		case "ctrl+a":
			m.apply(session.Command{Type: session.CmdTogglePlayAll})

		case "ctrl+o":
			start := m.sess.Folder()
			m.browser = components.NewFileBrowser(start, m.extensions, m.width, m.height)
			m.browsing = true

		case "/":
			m.playlistView.Search.Focus()

		case "enter":
			// Play the selected track at its position in the folder list
			track := m.playlistView.SelectedTrack()
			if track != nil {
				if index := m.trackIndex(track.ID); index >= 0 {
					m.apply(session.Command{Type: session.CmdPlay, Index: index})
				}
			}

		default:
			m.playlistView, _ = m.playlistView.Update(msg)
		}
	}

	return m, tea.Batch(cmds...)
}

// updateBrowsing handles keys while the folder browser is open
func (m Model) updateBrowsing(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.browsing = false
	case "y":
		// Use the directory currently shown
		m.openFolder(m.browser.CurrentPath, "")
		m.browsing = false
	case "enter":
		if path := m.browser.EnterSelected(); path != "" {
			// A file was picked: open its folder, then play that track
			m.openFolder(filepath.Dir(path), path)
			m.browsing = false
		}
	default:
		m.browser, _ = m.browser.Update(msg)
	}
	return m
}

// openFolder opens the folder in the session and optionally starts the
// track the user picked
func (m *Model) openFolder(folder, playPath string) {
	m.err = m.sess.Apply(m.ctx, session.Command{Type: session.CmdOpenFolder, Folder: folder})
	m.playlistView.Search.Clear()
	m.playlistView.SetTracks(m.sess.Tracks())

	if playPath != "" {
		for i, track := range m.sess.Tracks() {
			if track.FilePath == playPath {
				m.apply(session.Command{Type: session.CmdPlay, Index: i})
				m.playlistView.SelectTrack(track.ID)
				break
			}
		}
	}
	m.refreshState()
}

// apply dispatches a command and refreshes the views
func (m *Model) apply(cmd session.Command) {
	m.err = m.sess.Apply(m.ctx, cmd)
	m.refreshState()
}

// seekBy moves the position relative to the current one
func (m *Model) seekBy(delta time.Duration) {
	state := m.sess.State()
	if state == nil || state.CurrentTrack == nil {
		return
	}
	target := state.Position + delta
	if target < 0 {
		target = 0
	}
	m.apply(session.Command{Type: session.CmdSeek, Position: target})
}

// trackIndex finds a track's position in the session list by ID
func (m *Model) trackIndex(trackID string) int {
	for i, track := range m.sess.Tracks() {
		if track.ID == trackID {
			return i
		}
	}
	return -1
}

// refreshState pulls the playback state and modes into the views
func (m *Model) refreshState() {
	state := m.sess.State()
	m.playerView.SetState(state)

	settings := m.sess.Settings()
	m.playerView.SetModes(settings.Repeat, settings.PlayAll)

	if state != nil && state.CurrentTrack != nil {
		m.playlistView.SetPlaying(state.CurrentTrack.ID)
	} else {
		m.playlistView.SetPlaying("")
	}
}

// updateViewSizes updates view dimensions
func (m *Model) updateViewSizes() {
	half := m.width / 2
	m.playerView.Width = half
	m.playerView.Height = m.height - 4
	m.playerView.Title.Width = half - 10
	m.playerView.ProgressBar.Width = half - 4
	m.playlistView.Width = m.width - half
	m.playlistView.Height = m.height - 4
	m.playlistView.TrackList.Height = m.height - 14
	m.playlistView.TrackList.Width = m.width - half - 6
	m.playlistView.Search.Width = m.width - half - 8
	m.browser.Width = m.width
	m.browser.Height = m.height
}

// View renders the UI
func (m Model) View() string {
	if m.browsing {
		return m.headerStyle.Render("🎵 MiniPlayer") + "\n" + m.browser.View()
	}

	body := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.playlistView.View(),
		m.playerView.View(),
	)

	out := m.headerStyle.Render("🎵 MiniPlayer") + "\n" + body

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
		out += "\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	return out
}

// Run starts the bubbletea program
func Run(sess *session.Session, bus *events.EventBus) error {
	model := NewModel(sess, bus)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
