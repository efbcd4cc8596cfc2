package views

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"miniplayer/api"
	"miniplayer/internal/ui/components"
)

// PlaylistView displays the tracks of the open folder with an optional
// search filter. Filtering narrows the visible list but playback always
// refers back to the track itself, so indexes in the session stay valid.
type PlaylistView struct {
	Width       int
	Height      int
	Search      components.SearchInput
	TrackList   components.TrackList
	Tracks      []*api.Track
	BorderStyle lipgloss.Style
}

// NewPlaylistView creates a new playlist view
func NewPlaylistView(width, height int) PlaylistView {
	trackList := components.NewTrackList(height-10, width-6)
	trackList.Title = "🎵 Tracks"

	return PlaylistView{
		Width:     width,
		Height:    height,
		Search:    components.NewSearchInput(width - 8),
		TrackList: trackList,
		Tracks:    make([]*api.Track, 0),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
	}
}

// SetTracks replaces the full track list and reapplies the filter
func (v *PlaylistView) SetTracks(tracks []*api.Track) {
	v.Tracks = tracks
	v.applyFilter()
}

// SetPlaying marks the track currently loaded in the player
func (v *PlaylistView) SetPlaying(trackID string) {
	v.TrackList.PlayingID = trackID
}

// SelectTrack moves the list selection to the track with the given ID
func (v *PlaylistView) SelectTrack(trackID string) {
	for i, track := range v.TrackList.Items {
		if track.ID == trackID {
			v.TrackList.Select(i)
			return
		}
	}
}

// Update handles messages
func (v PlaylistView) Update(msg tea.Msg) (PlaylistView, tea.Cmd) {
	if v.Search.Focused {
		before := v.Search.Value
		v.Search, _ = v.Search.Update(msg)
		if v.Search.Value != before {
			v.applyFilter()
		}
		return v, nil
	}
	v.TrackList, _ = v.TrackList.Update(msg)
	return v, nil
}

// SelectedTrack returns the currently selected track
func (v *PlaylistView) SelectedTrack() *api.Track {
	return v.TrackList.SelectedItem()
}

// applyFilter rebuilds the visible list from the search value
func (v *PlaylistView) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(v.Search.Value))
	if query == "" {
		v.TrackList.SetItems(v.Tracks)
		return
	}

	filtered := make([]*api.Track, 0)
	for _, track := range v.Tracks {
		if strings.Contains(strings.ToLower(track.RelPath), query) ||
			strings.Contains(strings.ToLower(track.Title), query) ||
			strings.Contains(strings.ToLower(track.Artist), query) {
			filtered = append(filtered, track)
		}
	}
	v.TrackList.SetItems(filtered)
}

// View renders the playlist view
func (v PlaylistView) View() string {
	var sb strings.Builder

	sb.WriteString(v.Search.View())
	sb.WriteString("\n\n")
	sb.WriteString(v.TrackList.View())

	return v.BorderStyle.Width(v.Width - 4).Render(sb.String())
}
