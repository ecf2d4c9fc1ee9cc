package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/nlconsole/internal/dispatch"
)

// HelpModal lists the key bindings and the built-in commands.
type HelpModal struct {
	ctx      ModalContext
	keys     KeyMap
	viewport viewport.Model
}

func NewHelpModal(m *ConsoleModel) *HelpModal {
	return &HelpModal{
		ctx:      m.modalContext(),
		keys:     m.keys,
		viewport: viewport.New(80, 20),
	}
}

func (h *HelpModal) ID() string { return "help" }

func (h *HelpModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "?", "f1", "q", "escape", "esc":
			return true, nil
		}
	}
	scrollViewport(&h.viewport, h.ctx.ReverseScrollWheel, msg)
	return false, nil
}

func (h *HelpModal) View(width, height int) string {
	return renderViewportModal(h.ctx.Styles, &h.viewport, "Help", h.content(),
		[]string{"up/down/Wheel: Scroll", "PgUp/PgDn: Page", "ESC: Close"}, width, height)
}

func (h *HelpModal) content() string {
	st := h.ctx.Styles
	var b strings.Builder
	for _, section := range h.keys.helpSections() {
		b.WriteString(st.Title.Render(section.title))
		b.WriteString("\n")
		for _, kb := range section.bindings {
			help := kb.Help()
			fmt.Fprintf(&b, "  %-14s %s\n", help.Key, st.Muted.Render(help.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(st.Title.Render("COMMANDS"))
	b.WriteString("\n")
	b.WriteString(dispatch.HelpText)
	return b.String()
}
