package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SearchInput is a one-line text input for filtering the track list.
// The cursor position counts runes, not bytes, so multibyte input
// (accented titles, CJK) edits cleanly.
type SearchInput struct {
	Value       string
	Placeholder string
	Focused     bool
	Width       int
	CursorPos   int // rune index into Value
	Style       lipgloss.Style
	FocusStyle  lipgloss.Style
	Prompt      string
}

// NewSearchInput creates a new search input
func NewSearchInput(width int) SearchInput {
	return SearchInput{
		Placeholder: "Search tracks...",
		Width:       width,
		Prompt:      "🔍 ",
		Style: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		FocusStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("212")).
			Padding(0, 1),
	}
}

// Focus sets focus on the input
func (s *SearchInput) Focus() {
	s.Focused = true
}

// Blur removes focus from the input
func (s *SearchInput) Blur() {
	s.Focused = false
}

// SetValue sets the input value
func (s *SearchInput) SetValue(value string) {
	s.Value = value
	s.CursorPos = len([]rune(value))
}

// Clear clears the input
func (s *SearchInput) Clear() {
	s.Value = ""
	s.CursorPos = 0
}

// Update handles messages for the search input
func (s SearchInput) Update(msg tea.Msg) (SearchInput, tea.Cmd) {
	if !s.Focused {
		return s, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		value := []rune(s.Value)
		if s.CursorPos > len(value) {
			s.CursorPos = len(value)
		}

		switch msg.Type {
		case tea.KeyBackspace:
			if s.CursorPos > 0 {
				value = append(value[:s.CursorPos-1], value[s.CursorPos:]...)
				s.Value = string(value)
				s.CursorPos--
			}
		case tea.KeyDelete:
			if s.CursorPos < len(value) {
				value = append(value[:s.CursorPos], value[s.CursorPos+1:]...)
				s.Value = string(value)
			}
		case tea.KeyLeft:
			if s.CursorPos > 0 {
				s.CursorPos--
			}
		case tea.KeyRight:
			if s.CursorPos < len(value) {
				s.CursorPos++
			}
		case tea.KeyHome:
			s.CursorPos = 0
		case tea.KeyEnd:
			s.CursorPos = len(value)
		case tea.KeyRunes:
			inserted := make([]rune, 0, len(value)+len(msg.Runes))
			inserted = append(inserted, value[:s.CursorPos]...)
			inserted = append(inserted, msg.Runes...)
			inserted = append(inserted, value[s.CursorPos:]...)
			s.Value = string(inserted)
			s.CursorPos += len(msg.Runes)
		}
	}

	return s, nil
}

// View renders the search input
func (s SearchInput) View() string {
	var content string

	if s.Value == "" && !s.Focused {
		content = s.Prompt + lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(s.Placeholder)
	} else if s.Focused {
		value := []rune(s.Value)
		pos := s.CursorPos
		if pos > len(value) {
			pos = len(value)
		}
		cursor := lipgloss.NewStyle().Background(lipgloss.Color("212")).Render(" ")
		content = s.Prompt + string(value[:pos]) + cursor + string(value[pos:])
	} else {
		content = s.Prompt + s.Value
	}

	// Truncate overlong content on a rune boundary
	if maxWidth := s.Width - 4; maxWidth > 0 {
		if runes := []rune(content); len(runes) > maxWidth {
			content = string(runes[:maxWidth])
		}
	}

	if s.Focused {
		return s.FocusStyle.Width(s.Width).Render(content)
	}
	return s.Style.Width(s.Width).Render(content)
}
