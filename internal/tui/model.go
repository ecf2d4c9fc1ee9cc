package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/tinytelemetry/nlconsole/internal/chartsurface"
	"github.com/tinytelemetry/nlconsole/internal/console"
	"github.com/tinytelemetry/nlconsole/internal/dispatch"
	"github.com/tinytelemetry/nlconsole/internal/model"
	"github.com/tinytelemetry/nlconsole/internal/session"
	"github.com/tinytelemetry/nlconsole/internal/theme"
)

// ConsolePageID identifies the console page in the App.
const ConsolePageID = "console"

const (
	historyWidth   = 34
	minChartHeight = 6
	maxChartHeight = 14
	inputHeight    = 3 // bordered single line
	statusHeight   = 1
	maxQueryLength = 2000
)

// Section is the focused area of the console.
type Section int

const (
	SectionInput Section = iota
	SectionLog
	SectionHistory
)

func (s Section) String() string {
	switch s {
	case SectionLog:
		return "log"
	case SectionHistory:
		return "history"
	default:
		return "input"
	}
}

// Deps are the collaborators the console page drives.
type Deps struct {
	Dispatcher *dispatch.Dispatcher
	Log        *console.Log
	History    model.HistoryAPI
	Theme      *theme.Manager
	Charts     chartsurface.Surface

	// ReverseScrollWheel flips the mouse wheel direction.
	ReverseScrollWheel bool
	// APIAddr is shown in the status bar when the history API is running.
	APIAddr string
}

// SessionDeps wires the console page to an open session.
func SessionDeps(s *session.Session) Deps {
	return Deps{
		Dispatcher: s.Dispatcher,
		Log:        s.Log,
		History:    s.History,
		Theme:      s.Theme,
		Charts:     s.Surface,
	}
}

// ConsoleModel is the query console page.
type ConsoleModel struct {
	deps   Deps
	keys   KeyMap
	styles Styles

	input   textinput.Model
	logView viewport.Model

	activeSection  Section
	recallIdx      int // -1 when not browsing history from the input
	draft          string
	historyVisible bool
	historyCursor  int
	historyOffset  int
	favoritesOnly  bool

	// selectedEntry is the log entry id the log actions apply to;
	// 0 means the latest response.
	selectedEntry int
	entryOffsets  map[int]int

	renderedRevision uint64
	renderedWidth    int
	renderedMode     theme.Mode

	modalStack []Modal

	status    string
	statusErr bool
	statusSeq int

	markdown      *glamour.TermRenderer
	markdownWidth int
	markdownMode  theme.Mode

	width  int
	height int

	reverseScrollWheel bool
}

// NewConsoleModel creates the console page.
func NewConsoleModel(deps Deps) *ConsoleModel {
	ti := textinput.New()
	ti.Placeholder = "Ask a question about your data..."
	ti.Prompt = "> "
	ti.CharLimit = maxQueryLength
	ti.Focus()

	m := &ConsoleModel{
		deps:               deps,
		keys:               DefaultKeyMap(),
		input:              ti,
		logView:            viewport.New(80, 20),
		historyVisible:     true,
		recallIdx:          -1,
		entryOffsets:       make(map[int]int),
		reverseScrollWheel: deps.ReverseScrollWheel,
	}
	m.applyTheme()
	return m
}

func (m *ConsoleModel) ID() string { return ConsolePageID }

func (m *ConsoleModel) Init() tea.Cmd {
	return textinput.Blink
}

// ActiveSection returns the focused section.
func (m *ConsoleModel) ActiveSection() Section { return m.activeSection }

// Status returns the status line message.
func (m *ConsoleModel) Status() string { return m.status }

// InputValue returns the current contents of the query input.
func (m *ConsoleModel) InputValue() string { return m.input.Value() }

// applyTheme rebuilds styles from the current palette.
func (m *ConsoleModel) applyTheme() {
	var p theme.Palette
	if m.deps.Theme != nil {
		p = m.deps.Theme.Palette()
	} else {
		p = theme.DefaultSkin.Dark
	}
	m.styles = NewStyles(p)
	m.input.PromptStyle = m.styles.Prompt
	m.input.TextStyle = m.styles.Base
	m.input.PlaceholderStyle = m.styles.Muted
	m.pushChartTarget()
}

func (m *ConsoleModel) themeMode() theme.Mode {
	if m.deps.Theme == nil {
		return theme.Dark
	}
	return m.deps.Theme.Mode()
}

// chartHeight sizes charts to a third of the log panel.
func (m *ConsoleModel) chartHeight() int {
	h := m.logHeight() / 3
	if h < minChartHeight {
		h = minChartHeight
	}
	if h > maxChartHeight {
		h = maxChartHeight
	}
	return h
}

// pushChartTarget tells the dispatcher where future charts will be drawn.
func (m *ConsoleModel) pushChartTarget() {
	if m.deps.Dispatcher == nil {
		return
	}
	w := m.logWidth() - 4
	if w < 20 {
		w = 20
	}
	m.deps.Dispatcher.SetTarget(chartsurface.Target{
		Width:  w,
		Height: m.chartHeight(),
		Style:  m.styles.Chart,
	})
}
