package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/nlconsole/internal/theme"
)

// Styles holds every lipgloss style the console draws with. It is rebuilt
// from the active palette whenever the theme changes.
type Styles struct {
	Palette theme.Palette

	Base        lipgloss.Style
	Prompt      lipgloss.Style
	Response    lipgloss.Style
	Error       lipgloss.Style
	Muted       lipgloss.Style
	Title       lipgloss.Style
	Chart       lipgloss.Style
	Favorite    lipgloss.Style
	Selected    lipgloss.Style
	Panel       lipgloss.Style
	PanelActive lipgloss.Style
	StatusBar   lipgloss.Style
	StatusError lipgloss.Style
	ModalFrame  lipgloss.Style
	ModalPane   lipgloss.Style
}

// NewStyles derives the console styles from a palette.
func NewStyles(p theme.Palette) Styles {
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border)

	return Styles{
		Palette:     p,
		Base:        lipgloss.NewStyle().Foreground(p.Foreground),
		Prompt:      lipgloss.NewStyle().Foreground(p.Prompt).Bold(true),
		Response:    lipgloss.NewStyle().Foreground(p.Response),
		Error:       lipgloss.NewStyle().Foreground(p.Error),
		Muted:       lipgloss.NewStyle().Foreground(p.Muted),
		Title:       lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		Chart:       lipgloss.NewStyle().Foreground(p.Chart),
		Favorite:    lipgloss.NewStyle().Foreground(p.Favorite),
		Selected:    lipgloss.NewStyle().Background(p.Selection).Foreground(p.Foreground),
		Panel:       panel,
		PanelActive: panel.BorderForeground(p.Accent),
		StatusBar:   lipgloss.NewStyle().Foreground(p.Muted),
		StatusError: lipgloss.NewStyle().Foreground(p.Error).Bold(true),
		ModalFrame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Accent),
		ModalPane: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(p.Muted),
	}
}
