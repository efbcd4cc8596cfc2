package components

import (
	"github.com/charmbracelet/lipgloss"
)

// marqueeSpacer separates the end of the title from its next pass
const marqueeSpacer = "   •   "

// Marquee scrolls a title that is wider than its window. Short titles
// render unchanged and never scroll.
type Marquee struct {
	Width int
	Style lipgloss.Style

	raw    string
	text   []rune
	offset int
}

// NewMarquee creates a marquee with the given window width
func NewMarquee(width int) Marquee {
	return Marquee{
		Width: width,
		Style: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
	}
}

// SetText sets the scrolled text. Setting the same text again keeps
// the current scroll position, so periodic state polling does not
// freeze the animation.
func (m *Marquee) SetText(text string) {
	if text == m.raw {
		return
	}
	m.raw = text
	m.text = []rune(text)
	m.offset = 0
}

// Scrolling reports whether the text overflows the window
func (m *Marquee) Scrolling() bool {
	return m.Width > 0 && len(m.text) > m.Width
}

// Advance moves the scroll window one rune forward, wrapping through
// the spacer. A no-op for text that fits.
func (m *Marquee) Advance() {
	if !m.Scrolling() {
		m.offset = 0
		return
	}
	m.offset = (m.offset + 1) % (len(m.text) + len([]rune(marqueeSpacer)))
}

// View renders the visible window
func (m Marquee) View() string {
	if !m.Scrolling() {
		return m.Style.Render(string(m.text))
	}

	loop := append([]rune{}, m.text...)
	loop = append(loop, []rune(marqueeSpacer)...)

	window := make([]rune, 0, m.Width)
	for i := 0; i < m.Width; i++ {
		window = append(window, loop[(m.offset+i)%len(loop)])
	}
	return m.Style.Render(string(window))
}
