package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/nlconsole/internal/dispatch"
)

const (
	minWidth  = 50
	minHeight = 12
	// the history panel is hidden below this width
	historyMinWidth = 90
)

// showHistory reports whether the history panel fits and is enabled.
func (m *ConsoleModel) showHistory() bool {
	return m.historyVisible && m.width >= historyMinWidth
}

// mainWidth is the width of the log and input column.
func (m *ConsoleModel) mainWidth() int {
	if m.showHistory() {
		return m.width - historyWidth
	}
	return m.width
}

// logWidth and logHeight are the inner size of the bordered log panel.
func (m *ConsoleModel) logWidth() int {
	return max(m.mainWidth()-2, 10)
}

func (m *ConsoleModel) logHeight() int {
	return max(m.height-inputHeight-statusHeight-2, 3)
}

// View renders the console.
func (m *ConsoleModel) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return "Initializing console..."
	}

	if modal := m.TopModal(); modal != nil {
		return modal.View(width, height)
	}

	if width < minWidth || height < minHeight {
		return fmt.Sprintf("Terminal too small. Resize to at least %dx%d.", minWidth, minHeight)
	}

	return m.renderConsole()
}

func (m *ConsoleModel) renderConsole() string {
	st := m.styles

	logPanel := st.Panel
	if m.activeSection == SectionLog {
		logPanel = st.PanelActive
	}
	logBox := logPanel.
		Width(m.logWidth()).
		Height(m.logHeight()).
		Render(m.logView.View())

	inputPanel := st.Panel
	if m.activeSection == SectionInput {
		inputPanel = st.PanelActive
	}
	inputBox := inputPanel.
		Width(m.mainWidth() - 2).
		Render(m.input.View())

	main := lipgloss.JoinVertical(lipgloss.Left, logBox, inputBox)
	body := main
	if m.showHistory() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(m.height-statusHeight), main)
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusLine())
}

// renderStatusLine renders the bottom bar: section and state on the left,
// theme and API address on the right.
func (m *ConsoleModel) renderStatusLine() string {
	st := m.styles
	narrow := m.width < 80

	left := fmt.Sprintf("[%s]", strings.ToUpper(m.activeSection.String()))
	if m.deps.Dispatcher != nil && m.deps.Dispatcher.State() == dispatch.StateSending {
		left += " " + spinnerFrame() + " sending"
	}

	var center string
	switch {
	case m.status != "" && m.statusErr:
		center = st.StatusError.Render(m.status)
	case m.status != "":
		center = st.StatusBar.Render(m.status)
	case narrow:
		center = st.StatusBar.Render("tab: Switch • ?: Help")
	default:
		center = st.StatusBar.Render(m.sectionHints())
	}

	var rightParts []string
	rightParts = append(rightParts, string(m.themeMode()))
	if m.deps.APIAddr != "" && !narrow {
		rightParts = append(rightParts, "api "+m.deps.APIAddr)
	}
	right := strings.Join(rightParts, " • ")

	leftText := st.Title.Render(left)
	gap := m.width - lipgloss.Width(leftText) - lipgloss.Width(center) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = max(m.width-lipgloss.Width(leftText)-lipgloss.Width(right)-1, 1)
		return leftText + strings.Repeat(" ", gap) + st.StatusBar.Render(right)
	}
	return leftText + " " + center + strings.Repeat(" ", gap) + " " + st.StatusBar.Render(right)
}

func (m *ConsoleModel) sectionHints() string {
	switch m.activeSection {
	case SectionLog:
		return "↑↓: Select • y: Copy • s: Share • c/e/p: Export • tab: Switch • ?: Help"
	case SectionHistory:
		return "enter: Load • r: Rerun • f: Star • d: Delete • C: Clear • tab: Switch"
	default:
		return "enter: Send • ↑↓: Recall • tab: Switch • ctrl+t: Theme • f1: Help"
	}
}
