package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/nlconsole/internal/model"
)

// linesPerHistoryItem is the query line plus its timestamp line.
const linesPerHistoryItem = 2

func (m *ConsoleModel) historyItems() []model.HistoryEntry {
	if m.deps.History == nil {
		return nil
	}
	if m.favoritesOnly {
		return m.deps.History.Favorites()
	}
	return m.deps.History.List()
}

func (m *ConsoleModel) clampHistoryCursor() {
	n := len(m.historyItems())
	if m.historyCursor >= n {
		m.historyCursor = n - 1
	}
	if m.historyCursor < 0 {
		m.historyCursor = 0
	}
}

func (m *ConsoleModel) moveHistoryCursor(delta int) {
	m.historyCursor += delta
	m.clampHistoryCursor()
}

// selectedHistory returns the entry under the cursor.
func (m *ConsoleModel) selectedHistory() (model.HistoryEntry, bool) {
	items := m.historyItems()
	m.clampHistoryCursor()
	if len(items) == 0 {
		return model.HistoryEntry{}, false
	}
	return items[m.historyCursor], true
}

// handleHistoryKeys handles keys while the history panel is focused.
func (m *ConsoleModel) handleHistoryKeys(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveHistoryCursor(-1)
		return true, nil
	case key.Matches(msg, m.keys.Down):
		m.moveHistoryCursor(1)
		return true, nil
	case key.Matches(msg, m.keys.Home):
		m.historyCursor = 0
		return true, nil
	case key.Matches(msg, m.keys.End):
		m.historyCursor = len(m.historyItems()) - 1
		m.clampHistoryCursor()
		return true, nil

	case key.Matches(msg, m.keys.Load):
		if e, ok := m.selectedHistory(); ok {
			m.input.SetValue(e.Query)
			m.input.CursorEnd()
			m.setSection(SectionInput)
		}
		return true, nil

	case key.Matches(msg, m.keys.Rerun):
		if e, ok := m.selectedHistory(); ok {
			return true, m.submit(e.Query)
		}
		return true, nil

	case key.Matches(msg, m.keys.Delete):
		e, ok := m.selectedHistory()
		if !ok {
			return true, nil
		}
		if err := m.deps.History.Remove(e.ID); err != nil {
			return true, m.setStatus("Failed to delete history entry: "+err.Error(), true)
		}
		m.clampHistoryCursor()
		return true, m.setStatus("History entry deleted", false)

	case key.Matches(msg, m.keys.Favorite):
		e, ok := m.selectedHistory()
		if !ok {
			return true, nil
		}
		if err := m.deps.History.ToggleFavorite(e.ID); err != nil {
			return true, m.setStatus("Failed to update history entry: "+err.Error(), true)
		}
		m.clampHistoryCursor()
		return true, nil

	case key.Matches(msg, m.keys.FavoritesOnly):
		m.favoritesOnly = !m.favoritesOnly
		m.historyCursor = 0
		m.historyOffset = 0
		return true, nil

	case key.Matches(msg, m.keys.ClearHistory):
		if len(m.historyItems()) == 0 && !m.favoritesOnly {
			return true, nil
		}
		return true, actionMsg(ActionMsg{
			Action: ActionPushModal,
			Payload: NewConfirmModal(m, "confirm-clear-history", "Clear history",
				"Delete all saved queries, including favorites?",
				ActionMsg{Action: ActionClearHistory}),
		})
	}
	return false, nil
}

// clearHistory runs after the clear confirmation was accepted.
func (m *ConsoleModel) clearHistory() tea.Cmd {
	if m.deps.History == nil {
		return nil
	}
	if err := m.deps.History.Clear(); err != nil {
		return m.setStatus("Failed to clear history: "+err.Error(), true)
	}
	m.historyCursor = 0
	m.historyOffset = 0
	return m.setStatus("History cleared", false)
}

// renderSidebar renders the history panel.
func (m *ConsoleModel) renderSidebar(height int) string {
	st := m.styles
	panel := st.Panel
	if m.activeSection == SectionHistory {
		panel = st.PanelActive
	}
	inner := historyWidth - 2
	bodyHeight := height - 2

	title := "History"
	if m.favoritesOnly {
		title = "Favorites"
	}
	items := m.historyItems()
	m.clampHistoryCursor()

	lines := []string{st.Title.Render(fmt.Sprintf("%s (%d)", title, len(items))), ""}
	visible := (bodyHeight - len(lines)) / linesPerHistoryItem
	if visible < 1 {
		visible = 1
	}
	if m.historyCursor < m.historyOffset {
		m.historyOffset = m.historyCursor
	}
	if m.historyCursor >= m.historyOffset+visible {
		m.historyOffset = m.historyCursor - visible + 1
	}

	if len(items) == 0 {
		empty := "No queries yet"
		if m.favoritesOnly {
			empty = "No favorites yet"
		}
		lines = append(lines, st.Muted.Render(empty))
	}

	end := min(len(items), m.historyOffset+visible)
	for i := m.historyOffset; i < end; i++ {
		e := items[i]
		star := "  "
		if e.Favorite {
			star = st.Favorite.Render("★ ")
		}
		query := truncate(e.Query, inner-2)
		stamp := "  " + formatHistoryTime(e.Timestamp)

		if i == m.historyCursor && m.activeSection == SectionHistory {
			lines = append(lines,
				star+st.Selected.Width(inner-2).Render(query),
				st.Selected.Width(inner).Render(stamp))
			continue
		}
		lines = append(lines, star+st.Base.Render(query), st.Muted.Render(stamp))
	}

	return panel.
		Width(inner).
		Height(bodyHeight).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// formatHistoryTime shows a stored timestamp in local time.
func formatHistoryTime(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("Jan 2 15:04")
}

// truncate shortens s to at most width cells, marking the cut with "…".
func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
