package bubbletea

import (
	"strconv"

	"github.com/ElevenAndOne/mia"
	"github.com/charmbracelet/lipgloss"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	AgentMsg      lipgloss.Style
	UserMsg       lipgloss.Style
	CardBorder    lipgloss.Style
	CardTitle     lipgloss.Style
	Choice        lipgloss.Style
	ChoiceFocused lipgloss.Style
	Error         lipgloss.Style
	Muted         lipgloss.Style
	Accent        lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t mia.Theme) Styles {
	return Styles{
		AgentMsg:   lipgloss.NewStyle().Foreground(ansiColor(t.AgentMsg)),
		UserMsg:    lipgloss.NewStyle().Foreground(ansiColor(t.UserMsg)).Bold(true),
		CardBorder: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ansiColor(t.Card)).Padding(0, 1),
		CardTitle:  lipgloss.NewStyle().Foreground(ansiColor(t.Card)).Bold(true),
		Choice:     lipgloss.NewStyle().Foreground(ansiColor(t.Choice)),
		ChoiceFocused: lipgloss.NewStyle().
			Foreground(ansiColor(t.Choice)).
			Reverse(true).
			Bold(true),
		Error: lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Muted: lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent: lipgloss.NewStyle().
			Foreground(ansiColor(t.Accent)).
			Bold(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
