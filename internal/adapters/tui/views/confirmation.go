package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"jupiter/internal/adapters/tui/styles"
	"jupiter/internal/domain"
)

// ConfirmKeyMap defines key bindings for confirmation prompts
type ConfirmKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultConfirmKeys returns the default confirmation key bindings
var DefaultConfirmKeys = ConfirmKeyMap{
	Confirm: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "esc"),
		key.WithHelp("n/esc", "cancel"),
	),
}

// ConfirmationModel holds a pending destructive action on one task
type ConfirmationModel struct {
	Target *domain.InboxTask
	Action string
	Keys   ConfirmKeyMap
}

// NewConfirmationModel creates a new confirmation model with default keys
func NewConfirmationModel() ConfirmationModel {
	return ConfirmationModel{
		Keys: DefaultConfirmKeys,
	}
}

// Ask arms the prompt for task
func (m *ConfirmationModel) Ask(action string, task domain.InboxTask) {
	m.Action = action
	m.Target = &task
}

// Active reports whether a prompt is waiting for an answer
func (m *ConfirmationModel) Active() bool {
	return m.Target != nil
}

// HandleKeyMsg processes key messages while the prompt is active.
// Returns (handled, cmd) where handled is true if the key was processed.
// Any answer disarms the prompt.
func (m *ConfirmationModel) HandleKeyMsg(msg tea.KeyMsg, onConfirm func(domain.InboxTask) tea.Cmd) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Cancel):
		m.Target = nil
		return true, nil
	case key.Matches(msg, m.Keys.Confirm):
		target := *m.Target
		m.Target = nil
		return true, onConfirm(target)
	}
	return false, nil
}

// View renders the standard confirmation prompt
func (m *ConfirmationModel) View() string {
	if m.Target == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(styles.InputLabel.Render(fmt.Sprintf("%s inbox task #%d %s?", m.Action, m.Target.RefID, m.Target.Name)))
	b.WriteString(" ")
	b.WriteString(styles.HelpKey.Render("y"))
	b.WriteString(styles.HelpDesc.Render(" to confirm, "))
	b.WriteString(styles.HelpKey.Render("n"))
	b.WriteString(styles.HelpDesc.Render(" to cancel"))
	return b.String()
}
