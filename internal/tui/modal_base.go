package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// renderViewportModal renders a scrollable, centered modal around vp.
func renderViewportModal(st Styles, vp *viewport.Model, title, content string, status []string, width, height int) string {
	modalWidth := width - 8   // 4 chars margin on each side
	modalHeight := height - 4 // 2 lines margin top and bottom

	contentWidth := modalWidth - 4   // borders
	contentHeight := modalHeight - 4 // header + status
	if contentWidth < 10 {
		contentWidth = 10
	}
	if contentHeight < 3 {
		contentHeight = 3
	}

	vp.Width = contentWidth
	vp.Height = contentHeight
	vp.SetContent(lipgloss.NewStyle().Width(contentWidth).Render(content))

	contentPane := st.ModalPane.
		Width(contentWidth).
		Height(contentHeight).
		Render(vp.View())

	header := st.Title.Width(contentWidth).Render(title)
	statusBar := st.StatusBar.Render(strings.Join(status, " | "))

	modal := lipgloss.JoinVertical(lipgloss.Left, header, contentPane, statusBar)
	framed := st.ModalFrame.
		Width(modalWidth).
		Height(modalHeight).
		Render(modal)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, framed)
}

// scrollViewport applies the shared key and wheel scrolling to a modal
// viewport. It reports whether msg was consumed.
func scrollViewport(vp *viewport.Model, reverse bool, msg tea.Msg) bool {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			vp.ScrollUp(1)
		case "down", "j":
			vp.ScrollDown(1)
		case "pgup":
			vp.HalfPageUp()
		case "pgdown":
			vp.HalfPageDown()
		case "home", "g":
			vp.GotoTop()
		case "end", "G":
			vp.GotoBottom()
		default:
			return false
		}
		return true

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			return false
		}
		up := msg.Button == tea.MouseButtonWheelUp
		down := msg.Button == tea.MouseButtonWheelDown
		if !up && !down {
			return false
		}
		if reverse {
			up = !up
		}
		if up {
			vp.ScrollUp(1)
		} else {
			vp.ScrollDown(1)
		}
		return true
	}
	return false
}
