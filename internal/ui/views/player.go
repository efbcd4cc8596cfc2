package views

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"miniplayer/api"
	"miniplayer/internal/ui/components"
)

// PlayerView displays the current playback state
type PlayerView struct {
	Width       int
	Height      int
	State       *api.PlaybackState
	Repeat      bool
	PlayAll     bool
	Title       components.Marquee
	ProgressBar components.ProgressBar

	// Styles
	ArtistStyle   lipgloss.Style
	AlbumStyle    lipgloss.Style
	StatusStyle   lipgloss.Style
	ControlsStyle lipgloss.Style
	ModeStyle     lipgloss.Style
	BorderStyle   lipgloss.Style
}

// NewPlayerView creates a new player view
func NewPlayerView(width, height int) PlayerView {
	title := components.NewMarquee(width - 10)
	title.Style = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212"))

	return PlayerView{
		Width:       width,
		Height:      height,
		Title:       title,
		ProgressBar: components.NewProgressBar(width - 4),
		ArtistStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")),
		AlbumStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true),
		StatusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		ControlsStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1),
		ModeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
	}
}

// SetState updates the playback state
func (v *PlayerView) SetState(state *api.PlaybackState) {
	v.State = state
	if state != nil && state.CurrentTrack != nil {
		v.Title.SetText(trackHeading(state.CurrentTrack))
		v.ProgressBar.SetProgress(state.Position, state.Duration)
	} else {
		v.Title.SetText("")
		v.ProgressBar.SetProgress(0, 0)
	}
}

// SetModes updates the repeat and play-all indicators
func (v *PlayerView) SetModes(repeat, playAll bool) {
	v.Repeat = repeat
	v.PlayAll = playAll
}

// AdvanceMarquee scrolls the title one position
func (v *PlayerView) AdvanceMarquee() {
	v.Title.Advance()
}

// Update handles messages
func (v PlayerView) Update(msg tea.Msg) (PlayerView, tea.Cmd) {
	return v, nil
}

// View renders the player view
func (v PlayerView) View() string {
	var sb strings.Builder

	if v.State == nil || v.State.CurrentTrack == nil {
		titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
		sb.WriteString(titleStyle.Render("♪ No track playing"))
		sb.WriteString("\n\n")
		sb.WriteString(v.ControlsStyle.Render("Press Enter on a track to play"))
	} else {
		track := v.State.CurrentTrack

		// Status icon
		var statusIcon string
		switch v.State.Status {
		case api.StatusPlaying:
			statusIcon = "▶"
		case api.StatusPaused:
			statusIcon = "⏸"
		default:
			statusIcon = "⏹"
		}

		// Track info
		sb.WriteString(v.StatusStyle.Render(statusIcon + " "))
		sb.WriteString(v.Title.View())
		sb.WriteString("\n")
		sb.WriteString(v.ArtistStyle.Render(track.Artist))
		sb.WriteString("\n")
		sb.WriteString(v.AlbumStyle.Render(track.Album))
		sb.WriteString("\n")
		if details := trackDetails(track); details != "" {
			sb.WriteString(v.ModeStyle.Render(details))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")

		// Progress bar
		sb.WriteString(v.ProgressBar.View())
		sb.WriteString("\n\n")

		// Volume and speed
		volumeBar := renderVolumeBar(v.State.Volume)
		sb.WriteString(fmt.Sprintf("Volume: %s %d%%", volumeBar, int(v.State.Volume*100+0.5)))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Speed:  %d%%", int(v.State.Speed*100+0.5)))
		sb.WriteString("\n")

		// Mode indicators
		var modes []string
		if v.Repeat {
			modes = append(modes, "🔂 Repeat")
		}
		if v.PlayAll {
			modes = append(modes, "🔁 Play All")
		}
		if v.State.Muted {
			modes = append(modes, "🔇 Muted")
		}
		if len(modes) > 0 {
			sb.WriteString(v.ModeStyle.Render(strings.Join(modes, " | ")))
		}
	}

	sb.WriteString("\n\n")
	sb.WriteString(v.ControlsStyle.Render(
		"[Space] Play/Pause  [Esc] Stop  [←/→] Seek  [+/-] Volume  [</>] Speed  [m] Mute  [q] Quit",
	))

	return v.BorderStyle.Width(v.Width - 4).Render(sb.String())
}

// trackDetails collects the optional tag fields worth a display line
func trackDetails(track *api.Track) string {
	var parts []string
	if track.Genre != "" {
		parts = append(parts, track.Genre)
	}
	if track.Year != 0 {
		parts = append(parts, strconv.Itoa(track.Year))
	}
	if track.TrackNum != 0 {
		parts = append(parts, fmt.Sprintf("track %d", track.TrackNum))
	}
	if track.Duration > 0 {
		parts = append(parts, components.FormatDuration(track.Duration))
	}
	return strings.Join(parts, " | ")
}

// trackHeading formats the marquee text for a track
func trackHeading(track *api.Track) string {
	if track.Artist != "" && track.Artist != "Unknown Artist" {
		return track.Artist + " - " + track.Title
	}
	return track.Title
}

// renderVolumeBar renders a volume bar
func renderVolumeBar(volume float64) string {
	filled := int(volume * 10)
	if filled > 10 {
		filled = 10
	}
	empty := 10 - filled

	filledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", empty))
}
