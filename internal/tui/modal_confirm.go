package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConfirmModal asks a yes/no question and emits onConfirm when accepted.
type ConfirmModal struct {
	ctx       ModalContext
	id        string
	title     string
	prompt    string
	onConfirm ActionMsg
}

func NewConfirmModal(m *ConsoleModel, id, title, prompt string, onConfirm ActionMsg) *ConfirmModal {
	return &ConfirmModal{
		ctx:       m.modalContext(),
		id:        id,
		title:     title,
		prompt:    prompt,
		onConfirm: onConfirm,
	}
}

func (c *ConfirmModal) ID() string { return c.id }

func (c *ConfirmModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return false, nil
	}
	switch km.String() {
	case "y", "Y", "enter":
		return true, actionMsg(c.onConfirm)
	case "n", "N", "q", "escape", "esc":
		return true, nil
	}
	return false, nil
}

func (c *ConfirmModal) View(width, height int) string {
	st := c.ctx.Styles
	body := lipgloss.JoinVertical(lipgloss.Left,
		st.Title.Render(c.title),
		"",
		st.Base.Render(c.prompt),
		"",
		st.StatusBar.Render("y/enter: Confirm | n/ESC: Cancel"),
	)
	box := st.ModalFrame.Padding(1, 2).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
