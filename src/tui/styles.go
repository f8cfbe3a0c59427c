package tui

import "github.com/charmbracelet/lipgloss"

// StyleConfig holds the customizable colors for the watch UI.
type StyleConfig struct {
	ErrorColor     lipgloss.Color
	WarningColor   lipgloss.Color
	TextPrimary    lipgloss.Color
	TextSecondary  lipgloss.Color
	AccentBlue     lipgloss.Color
	SelectedColor  lipgloss.Color
	SuccessColor   lipgloss.Color
	BorderColor    lipgloss.Color
}

// DefaultStyles returns the default color palette.
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		ErrorColor:    lipgloss.Color("#EA4335"),
		WarningColor:  lipgloss.Color("#FBBC04"),
		TextPrimary:   lipgloss.Color("#E8EAED"),
		TextSecondary: lipgloss.Color("#9AA0A6"),
		AccentBlue:    lipgloss.Color("#8AB4F8"),
		SelectedColor: lipgloss.Color("#303134"),
		SuccessColor:  lipgloss.Color("#34A853"),
		BorderColor:   lipgloss.Color("#5F6368"),
	}
}

// TitleStyle returns the header style.
func (s *StyleConfig) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.AccentBlue).
		Bold(true).
		Padding(0, 1)
}

// HelpStyle returns the footer help style.
func (s *StyleConfig) HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextSecondary).
		Padding(0, 1)
}

// DetailStyle returns the detail panel style.
func (s *StyleConfig) DetailStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextPrimary).
		Padding(0, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.BorderColor)
}
