package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"jupiter/internal/adapters/tui/styles"
)

// HelpKeyMap defines key bindings for the help view
type HelpKeyMap struct {
	Close key.Binding
}

var HelpKeys = HelpKeyMap{
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "?"),
		key.WithHelp("esc/q/?", "close"),
	),
}

// HelpModel is the model for the help view
type HelpModel struct {
	ViewState
}

// NewHelpModel creates a new help view model
func NewHelpModel() *HelpModel {
	return &HelpModel{}
}

// Init initializes the help view
func (m *HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view
func (m *HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, HelpKeys.Close) {
			return m, func() tea.Msg {
				return SwitchToBrowserMsg{}
			}
		}
	}

	return m, nil
}

// View renders the help view
func (m *HelpModel) View() string {
	v := NewViewBuilder().
		Title("Jupiter Help").
		Subtitle("Inbox task browser")

	v.Section("Navigation")
	v.Line(helpLine("j / k / ↑ / ↓", "Move up/down"))
	v.Line(helpLine("h / l / PgUp / PgDn", "Previous/next page"))
	v.BlankLine()

	v.Section("Actions")
	v.Line(helpLine("d", "Mark the selected task done"))
	v.Line(helpLine("a", "Archive the selected task (asks first)"))
	v.Line(helpLine("c", "Copy the remote item id"))
	v.Line(helpLine("o", "Open the remote item in the browser"))
	v.Line(helpLine("e", "Edit the notes in $EDITOR"))
	v.Line(helpLine("r", "Reload from the local store"))
	v.Line(helpLine("s", "Sync inbox tasks with the remote"))
	v.BlankLine()

	v.Section("General")
	v.Line(helpLine("?", "Toggle help"))
	v.Line(helpLine("q / Ctrl+C", "Quit"))
	v.BlankLine()

	v.Muted("Changes are saved locally first. When the remote is unreachable")
	v.Muted("sync --prefer local publishes them.")

	return v.Help(HelpKeys.Close).String()
}

func helpLine(key, desc string) string {
	return "  " + styles.HelpKey.Render(padRight(key, 22)) + styles.HelpDesc.Render(desc)
}

func padRight(s string, length int) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return s + strings.Repeat(" ", length-n)
}
