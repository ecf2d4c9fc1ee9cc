package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/nlconsole/internal/console"
	"github.com/tinytelemetry/nlconsole/internal/export"
)

// handleKeyPress routes a key: force quit, then the top modal, then the
// focused section, then global bindings.
func (m *ConsoleModel) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.ForceQuit) {
		return tea.Quit
	}

	if modal := m.TopModal(); modal != nil {
		pop, cmd := modal.Update(msg)
		if pop {
			m.PopModal()
		}
		return cmd
	}

	if handled, cmd := m.handleSectionKeys(msg); handled {
		return cmd
	}
	return m.handleGlobalKeys(msg)
}

// handleGlobalKeys handles bindings that apply in every section.
func (m *ConsoleModel) handleGlobalKeys(msg tea.KeyMsg) tea.Cmd {
	inInput := m.activeSection == SectionInput

	switch {
	case key.Matches(msg, m.keys.NextSection):
		m.cycleSection(1)
	case key.Matches(msg, m.keys.PrevSection):
		m.cycleSection(-1)
	case key.Matches(msg, m.keys.ToggleTheme):
		return m.toggleTheme()
	case key.Matches(msg, m.keys.ToggleHistory):
		m.historyVisible = !m.historyVisible
		if !m.historyVisible && m.activeSection == SectionHistory {
			m.setSection(SectionInput)
		}
		m.resize()
	case key.Matches(msg, m.keys.ClearConsole):
		return m.clearConsole()
	case key.Matches(msg, m.keys.Escape):
		m.setSection(SectionInput)
	case key.Matches(msg, m.keys.Help) && (!inInput || msg.String() == "f1"):
		m.PushModal(NewHelpModal(m))
	case key.Matches(msg, m.keys.Quit) && !inInput:
		return tea.Quit
	default:
		if inInput {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return cmd
		}
	}
	return nil
}

func (m *ConsoleModel) handleSectionKeys(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch m.activeSection {
	case SectionInput:
		return m.handleInputKeys(msg)
	case SectionLog:
		return m.handleLogKeys(msg)
	case SectionHistory:
		return m.handleHistoryKeys(msg)
	}
	return false, nil
}

func (m *ConsoleModel) handleInputKeys(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return true, m.submit(m.input.Value())
	case msg.String() == "up":
		m.recall(1)
		return true, nil
	case msg.String() == "down":
		m.recall(-1)
		return true, nil
	case key.Matches(msg, m.keys.PageUp):
		m.logView.HalfPageUp()
		return true, nil
	case key.Matches(msg, m.keys.PageDown):
		m.logView.HalfPageDown()
		return true, nil
	}
	return false, nil
}

// recall walks past queries from the input line, newest first.
func (m *ConsoleModel) recall(delta int) {
	if m.deps.History == nil {
		return
	}
	items := m.deps.History.List()
	if len(items) == 0 {
		return
	}
	if m.recallIdx == -1 {
		m.draft = m.input.Value()
	}
	next := m.recallIdx + delta
	if next >= len(items) {
		next = len(items) - 1
	}
	if next < -1 {
		next = -1
	}
	m.recallIdx = next
	if next == -1 {
		m.input.SetValue(m.draft)
	} else {
		m.input.SetValue(items[next].Query)
	}
	m.input.CursorEnd()
}

func (m *ConsoleModel) handleLogKeys(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.PageUp):
		m.logView.HalfPageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.logView.HalfPageDown()
	case key.Matches(msg, m.keys.Home):
		m.logView.GotoTop()
	case key.Matches(msg, m.keys.End):
		m.selectedEntry = 0
		m.refreshLog(true)
		m.logView.GotoBottom()
	case key.Matches(msg, m.keys.Copy):
		return true, m.copySelected()
	case key.Matches(msg, m.keys.Share):
		return true, m.shareSelected()
	case key.Matches(msg, m.keys.ExportCSV):
		return true, m.exportData(export.FormatCSV)
	case key.Matches(msg, m.keys.ExportJSON):
		return true, m.exportData(export.FormatJSON)
	case key.Matches(msg, m.keys.ExportPNG):
		return true, m.exportChart()
	default:
		return false, nil
	}
	return true, nil
}

func (m *ConsoleModel) copySelected() tea.Cmd {
	id := m.actionEntry()
	if id == 0 {
		return m.setStatus("Nothing to copy yet", true)
	}
	if err := m.deps.Log.Copy(id); err != nil {
		return m.setStatus("Copy failed: "+err.Error(), true)
	}
	return m.setStatus("Copied to clipboard", false)
}

func (m *ConsoleModel) shareSelected() tea.Cmd {
	id := m.actionEntry()
	if id == 0 {
		return m.setStatus("Nothing to share yet", true)
	}
	res, err := m.deps.Log.Share(id)
	if err != nil {
		return m.setStatus("Share failed: "+err.Error(), true)
	}
	switch res {
	case console.ShareCommand:
		return m.setStatus("Shared", false)
	case console.ShareCopied:
		return m.setStatus("Sharing unavailable, copied to clipboard instead", false)
	}
	return nil
}

// exportData writes the selected result; the dispatcher reports the
// outcome in the log.
func (m *ConsoleModel) exportData(format string) tea.Cmd {
	_, _ = m.deps.Dispatcher.ExportData(format, m.selectedEntry)
	return m.afterLogChange()
}

func (m *ConsoleModel) exportChart() tea.Cmd {
	_, _ = m.deps.Dispatcher.ExportChart(m.selectedEntry)
	return m.afterLogChange()
}

func (m *ConsoleModel) setSection(s Section) {
	if s == SectionHistory && !m.historyVisible {
		s = SectionInput
	}
	prev := m.activeSection
	m.activeSection = s
	if s == SectionInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	if prev == SectionLog || s == SectionLog {
		// the selection gutter only shows while the log is focused
		m.refreshLog(true)
	}
}

func (m *ConsoleModel) cycleSection(delta int) {
	order := []Section{SectionInput, SectionLog}
	if m.historyVisible {
		order = append(order, SectionHistory)
	}
	idx := 0
	for i, s := range order {
		if s == m.activeSection {
			idx = i
		}
	}
	idx = (idx + delta + len(order)) % len(order)
	m.setSection(order[idx])
}

// handleMouseEvent scrolls the panel under the pointer.
func (m *ConsoleModel) handleMouseEvent(msg tea.MouseMsg) tea.Cmd {
	if modal := m.TopModal(); modal != nil {
		pop, cmd := modal.Update(msg)
		if pop {
			m.PopModal()
		}
		return cmd
	}

	if msg.Action != tea.MouseActionPress {
		return nil
	}
	up := msg.Button == tea.MouseButtonWheelUp
	down := msg.Button == tea.MouseButtonWheelDown
	if !up && !down {
		return nil
	}
	if m.reverseScrollWheel {
		up = !up
	}

	if m.showHistory() && msg.X < historyWidth {
		if up {
			m.moveHistoryCursor(-1)
		} else {
			m.moveHistoryCursor(1)
		}
		return nil
	}
	if up {
		m.logView.ScrollUp(3)
	} else {
		m.logView.ScrollDown(3)
	}
	return nil
}
