package tui

import (
	"log"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/nlconsole/internal/console"
	"github.com/tinytelemetry/nlconsole/internal/model"
	"github.com/tinytelemetry/nlconsole/internal/theme"
)

const (
	selectedGutter = "┃ "
	plainGutter    = "  "
	welcomeText    = "Ask a question about your data, or type help."
)

// refreshLog re-renders the log into the viewport when the log, the width
// or the theme changed since the last render.
func (m *ConsoleModel) refreshLog(force bool) {
	if m.deps.Log == nil {
		return
	}
	rev := m.deps.Log.Revision()
	mode := m.themeMode()
	if !force && rev == m.renderedRevision && m.renderedWidth == m.logView.Width && m.renderedMode == mode {
		return
	}

	atBottom := m.logView.AtBottom()
	m.logView.SetContent(m.renderLog(m.logView.Width))
	if atBottom && m.selectedEntry == 0 {
		m.logView.GotoBottom()
	}

	m.renderedRevision = rev
	m.renderedWidth = m.logView.Width
	m.renderedMode = mode
}

// renderLog draws every entry and records where each one starts.
func (m *ConsoleModel) renderLog(width int) string {
	entries := m.deps.Log.Entries()
	clear(m.entryOffsets)
	if len(entries) == 0 {
		return m.styles.Muted.Italic(true).Render(welcomeText)
	}

	inner := width - lipgloss.Width(plainGutter)
	if inner < 10 {
		inner = 10
	}
	active := m.actionEntry()

	var lines []string
	for i, e := range entries {
		if i > 0 {
			lines = append(lines, "")
		}
		m.entryOffsets[e.ID] = len(lines)

		body := m.renderEntry(e, inner)
		gutter := plainGutter
		if m.activeSection == SectionLog && e.ID == active {
			gutter = m.styles.Title.Render(selectedGutter)
		}
		for _, line := range strings.Split(body, "\n") {
			lines = append(lines, gutter+line)
		}
	}
	return strings.Join(lines, "\n")
}

func (m *ConsoleModel) renderEntry(e console.Entry, width int) string {
	wrap := lipgloss.NewStyle().Width(width)

	switch e.Kind {
	case model.EntryPrompt:
		return wrap.Render(m.styles.Prompt.Render("> ") + m.styles.Base.Render(e.Text))

	case model.EntryError:
		return wrap.Render(m.styles.Error.Render(e.Text))
	}

	if e.Loading {
		return m.styles.Muted.Italic(true).Render(spinnerFrame() + " " + e.Text)
	}

	parts := []string{m.renderMarkdown(e.Text, width)}
	if e.HasChart() && m.deps.Charts != nil {
		view, err := m.deps.Charts.View(e.Chart)
		if err != nil {
			parts = append(parts, m.styles.Muted.Render("[chart unavailable]"))
		} else {
			parts = append(parts, "", view)
		}
	}
	if e.Actions && m.activeSection == SectionLog && e.ID == m.actionEntry() {
		hints := "y copy · s share · c csv · e json"
		if e.HasChart() {
			hints += " · p png"
		}
		parts = append(parts, m.styles.Muted.Render(hints))
	}
	return strings.Join(parts, "\n")
}

// renderMarkdown renders a response with glamour, falling back to the
// plain text when the renderer is unavailable.
func (m *ConsoleModel) renderMarkdown(text string, width int) string {
	r := m.markdownRenderer(width)
	if r == nil {
		return lipgloss.NewStyle().Width(width).Render(m.styles.Response.Render(text))
	}
	out, err := r.Render(text)
	if err != nil {
		return lipgloss.NewStyle().Width(width).Render(m.styles.Response.Render(text))
	}
	return strings.Trim(out, "\n")
}

func (m *ConsoleModel) markdownRenderer(width int) *glamour.TermRenderer {
	mode := m.themeMode()
	if m.markdown != nil && m.markdownWidth == width && m.markdownMode == mode {
		return m.markdown
	}

	style := "dark"
	if mode == theme.Light {
		style = "light"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Printf("tui: markdown renderer: %v", err)
		m.markdown = nil
		return nil
	}
	m.markdown = r
	m.markdownWidth = width
	m.markdownMode = mode
	return r
}

// actionEntry returns the entry id log actions apply to: the selection, or
// the latest response that carries actions.
func (m *ConsoleModel) actionEntry() int {
	if m.selectedEntry != 0 {
		return m.selectedEntry
	}
	if m.deps.Log == nil {
		return 0
	}
	e, ok := m.deps.Log.LastResponse()
	if !ok || !e.Actions {
		return 0
	}
	return e.ID
}

// actionableIDs lists the entries that support copy, share and export.
func (m *ConsoleModel) actionableIDs() []int {
	if m.deps.Log == nil {
		return nil
	}
	var ids []int
	for _, e := range m.deps.Log.Entries() {
		if e.Actions {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// moveSelection walks the selection across actionable entries. Moving past
// the newest entry returns to following the latest response.
func (m *ConsoleModel) moveSelection(delta int) {
	ids := m.actionableIDs()
	if len(ids) == 0 {
		m.selectedEntry = 0
		return
	}

	idx := len(ids) - 1 // following latest
	for i, id := range ids {
		if id == m.selectedEntry {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}

	m.refreshLogAfterSelect(ids, idx)
}

func (m *ConsoleModel) refreshLogAfterSelect(ids []int, idx int) {
	if idx >= len(ids) {
		m.selectedEntry = 0
		m.refreshLog(true)
		m.logView.GotoBottom()
		return
	}
	m.selectedEntry = ids[idx]
	m.refreshLog(true)
	if off, ok := m.entryOffsets[m.selectedEntry]; ok {
		m.logView.SetYOffset(off)
	}
}
