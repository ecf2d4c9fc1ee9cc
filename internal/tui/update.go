package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/nlconsole/internal/dispatch"
	"github.com/tinytelemetry/nlconsole/internal/model"
)

const (
	scrollDelay   = 100 * time.Millisecond
	statusTimeout = 4 * time.Second
)

// answerMsg carries a finished backend call back to the UI goroutine.
type answerMsg struct {
	ticket  *dispatch.Ticket
	outcome dispatch.Outcome
}

// scrollToBottomMsg fires shortly after the log grew.
type scrollToBottomMsg struct {
	revision uint64
}

type statusClearMsg struct {
	seq int
}

// Update handles messages.
func (m *ConsoleModel) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return nil, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg), nil

	case tea.MouseMsg:
		return m.handleMouseEvent(msg), nil

	case ActionMsg:
		return m.handleAction(msg), nil

	case answerMsg:
		m.deps.Dispatcher.Complete(msg.ticket, msg.outcome)
		return m.afterLogChange(), nil

	case SpinnerTickMsg:
		return m.handleSpinnerTick(), nil

	case scrollToBottomMsg:
		if msg.revision == m.deps.Log.Revision() && m.selectedEntry == 0 {
			m.refreshLog(false)
			m.logView.GotoBottom()
		}
		return nil, nil

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusErr = false
		}
		return nil, nil
	}

	// cursor blink and other input internals
	if m.activeSection == SectionInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd, nil
	}
	return nil, nil
}

func (m *ConsoleModel) handleAction(msg ActionMsg) tea.Cmd {
	switch msg.Action {
	case ActionPushModal:
		if modal, ok := msg.Payload.(Modal); ok {
			m.PushModal(modal)
		}
	case ActionClearHistory:
		return m.clearHistory()
	case ActionSetStatus:
		if text, ok := msg.Payload.(string); ok {
			return m.setStatus(text, false)
		}
	}
	return nil
}

// resize lays the viewport and input out for the current window.
func (m *ConsoleModel) resize() {
	m.logView.Width = m.logWidth()
	m.logView.Height = m.logHeight()
	m.input.Width = m.mainWidth() - 4 - len(m.input.Prompt)
	m.pushChartTarget()
	m.refreshLog(true)
}

// submit starts a query and returns the command that performs it.
func (m *ConsoleModel) submit(question string) tea.Cmd {
	t, err := m.deps.Dispatcher.Begin(question)
	switch {
	case errors.Is(err, model.ErrEmptyQuestion):
		return nil
	case errors.Is(err, model.ErrInFlight):
		return m.setStatus("A query is already running", true)
	case err != nil:
		return m.setStatus(err.Error(), true)
	}

	m.input.SetValue("")
	m.recallIdx = -1
	m.draft = ""
	m.selectedEntry = 0

	cmds := []tea.Cmd{m.afterLogChange()}
	if t != nil {
		cmds = append(cmds, m.sendCmd(t), spinnerTick())
	}
	return tea.Batch(cmds...)
}

// sendCmd performs the backend call off the UI goroutine.
func (m *ConsoleModel) sendCmd(t *dispatch.Ticket) tea.Cmd {
	return func() tea.Msg {
		return answerMsg{ticket: t, outcome: t.Send(context.Background())}
	}
}

// afterLogChange re-renders the log and schedules the deferred scroll.
func (m *ConsoleModel) afterLogChange() tea.Cmd {
	if m.selectedEntry != 0 {
		if _, ok := m.deps.Log.Get(m.selectedEntry); !ok {
			m.selectedEntry = 0
		}
	}
	m.refreshLog(false)
	rev := m.deps.Log.Revision()
	return tea.Tick(scrollDelay, func(_ time.Time) tea.Msg {
		return scrollToBottomMsg{revision: rev}
	})
}

// setStatus shows text in the status bar until it times out.
func (m *ConsoleModel) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.status = text
	m.statusErr = isErr
	seq := m.statusSeq
	return tea.Tick(statusTimeout, func(_ time.Time) tea.Msg {
		return statusClearMsg{seq: seq}
	})
}

// toggleTheme flips light and dark and persists the choice.
func (m *ConsoleModel) toggleTheme() tea.Cmd {
	if m.deps.Theme == nil {
		return nil
	}
	mode, err := m.deps.Theme.Toggle()
	m.applyTheme()
	m.refreshLog(true)
	if err != nil {
		return m.setStatus(fmt.Sprintf("Theme %s (not saved: %v)", mode, err), true)
	}
	return m.setStatus(fmt.Sprintf("Theme: %s", mode), false)
}

// clearConsole runs the clear built-in without recording it in history.
func (m *ConsoleModel) clearConsole() tea.Cmd {
	m.deps.Dispatcher.Clear()
	m.selectedEntry = 0
	return m.afterLogChange()
}
