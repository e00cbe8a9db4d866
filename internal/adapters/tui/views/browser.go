package views

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"jupiter/internal/adapters/editor"
	"jupiter/internal/application"
	"jupiter/internal/application/commands"
	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

// BrowserKeyMap defines key bindings for the inbox browser
type BrowserKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Done     key.Binding
	Archive  key.Binding
	Copy     key.Binding
	Open     key.Binding
	Edit     key.Binding
	Refresh  key.Binding
	Sync     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var BrowserKeys = BrowserKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("h", "left", "pgup"),
		key.WithHelp("h/←", "prev page"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("l", "right", "pgdown"),
		key.WithHelp("l/→", "next page"),
	),
	Done: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "done"),
	),
	Archive: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "archive"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy remote id"),
	),
	Open: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open in browser"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit notes"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Sync: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sync"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// chrome is the number of lines around the task list
const chrome = 9

// BrowserModel lists the open inbox tasks
type BrowserModel struct {
	ViewState
	env     *application.Env
	tasks   []domain.InboxTask
	today   time.Time
	loaded  bool
	pager   *Paginator
	confirm ConfirmationModel
	copy    func(string) error
	editor  ports.EditorOpener
	web     ports.URLOpener
}

// NewBrowserModel creates a new browser model. A nil editor or web opener
// disables the matching action.
func NewBrowserModel(env *application.Env, ed ports.EditorOpener, web ports.URLOpener) *BrowserModel {
	return &BrowserModel{
		env:     env,
		pager:   NewPaginator(20),
		confirm: NewConfirmationModel(),
		copy:    clipboard.WriteAll,
		editor:  ed,
		web:     web,
	}
}

// SetClipboard replaces the clipboard writer
func (m *BrowserModel) SetClipboard(write func(string) error) {
	m.copy = write
}

// Init initializes the browser
func (m *BrowserModel) Init() tea.Cmd {
	return m.loadTasks
}

type tasksLoadedMsg struct {
	tasks []domain.InboxTask
	today time.Time
}

type errMsg struct {
	err error
}

// actionMsg reports a finished change. The list is reloaded either way
// since a remote failure still leaves the local change in place.
type actionMsg struct {
	message string
	err     error
}

type copiedMsg struct {
	remoteID domain.RemoteID
}

type openedMsg struct {
	url string
}

type notesEditedMsg struct {
	task  domain.InboxTask
	draft *editor.Draft
	err   error
}

func (m *BrowserModel) loadTasks() tea.Msg {
	ctx := context.Background()
	ws, err := m.env.Workspace(ctx)
	if err != nil {
		return errMsg{err}
	}
	result, err := commands.NewInboxTaskShowCommand(m.env, nil, false).Execute(ctx)
	if err != nil {
		return errMsg{err}
	}
	today := domain.Date(m.env.Clock.Now(), m.env.Engine().Location(ws))
	return tasksLoadedMsg{tasks: result.Leaves, today: today}
}

// Update handles messages for the browser
func (m *BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tasksLoadedMsg:
		m.tasks = msg.tasks
		m.today = msg.today
		m.loaded = true
		m.pager.SetTotal(len(m.tasks))
		return m, nil

	case errMsg:
		m.SetError(msg.err)
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.SetError(msg.err)
		} else {
			m.SetMessage(msg.message, false)
		}
		return m, m.loadTasks

	case copiedMsg:
		m.SetMessage(fmt.Sprintf("Copied %s", msg.remoteID), false)
		return m, nil

	case openedMsg:
		m.SetMessage("Opened "+msg.url, false)
		return m, nil

	case notesEditedMsg:
		return m, m.saveNotes(msg)

	case tea.KeyMsg:
		if m.confirm.Active() {
			_, cmd := m.confirm.HandleKeyMsg(msg, m.archiveTask)
			return m, cmd
		}
		m.ClearMessage()

		switch {
		case key.Matches(msg, BrowserKeys.Quit):
			return m, tea.Quit

		case key.Matches(msg, BrowserKeys.Up):
			m.pager.CursorUp()
			return m, nil

		case key.Matches(msg, BrowserKeys.Down):
			m.pager.CursorDown()
			return m, nil

		case key.Matches(msg, BrowserKeys.PrevPage):
			m.pager.PrevPage()
			return m, nil

		case key.Matches(msg, BrowserKeys.NextPage):
			m.pager.NextPage()
			return m, nil

		case key.Matches(msg, BrowserKeys.Done):
			if task, ok := m.Selected(); ok && !task.Payload.Status.IsCompleted() {
				return m, m.markDone(task)
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Archive):
			if task, ok := m.Selected(); ok {
				m.confirm.Ask("Archive", task)
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Copy):
			if task, ok := m.Selected(); ok {
				return m, m.copyRemoteID(task)
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Open):
			if task, ok := m.Selected(); ok {
				return m, m.openRemote(task)
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Edit):
			if task, ok := m.Selected(); ok {
				return m, m.editNotes(task)
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Refresh):
			return m, m.Reload()

		case key.Matches(msg, BrowserKeys.Sync):
			return m, m.syncInbox

		case key.Matches(msg, BrowserKeys.Help):
			return m, func() tea.Msg {
				return SwitchToHelpMsg{}
			}
		}
	}

	return m, nil
}

func (m *BrowserModel) markDone(task domain.InboxTask) tea.Cmd {
	return func() tea.Msg {
		u := commands.InboxTaskUpdate{Status: domain.Set(string(domain.InboxTaskDone))}
		result, err := commands.NewInboxTaskUpdateCommand(m.env, task.RefID.String(), u).Execute(context.Background())
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{message: result.Message}
	}
}

func (m *BrowserModel) archiveTask(task domain.InboxTask) tea.Cmd {
	return func() tea.Msg {
		result, err := commands.NewArchiveCommand(m.env, domain.FamilyInboxTask, task.RefID.String()).Execute(context.Background())
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{message: result.Message}
	}
}

func (m *BrowserModel) copyRemoteID(task domain.InboxTask) tea.Cmd {
	return func() tea.Msg {
		result, err := commands.NewInboxTaskRemoteIDCommand(m.env, task.RefID.String()).Execute(context.Background())
		if err != nil {
			return errMsg{err}
		}
		if err := m.copy(result.RemoteID.String()); err != nil {
			return errMsg{fmt.Errorf("failed to copy to clipboard: %w", err)}
		}
		return copiedMsg{remoteID: result.RemoteID}
	}
}

func (m *BrowserModel) openRemote(task domain.InboxTask) tea.Cmd {
	return func() tea.Msg {
		if m.web == nil {
			return errMsg{fmt.Errorf("no browser configured")}
		}
		result, err := commands.NewInboxTaskRemoteIDCommand(m.env, task.RefID.String()).Execute(context.Background())
		if err != nil {
			return errMsg{err}
		}
		if err := m.web.Open(result.RemoteID); err != nil {
			return errMsg{fmt.Errorf("failed to open browser: %w", err)}
		}
		return openedMsg{url: m.web.ItemURL(result.RemoteID)}
	}
}

// editNotes suspends the program while the editor has the notes open
func (m *BrowserModel) editNotes(task domain.InboxTask) tea.Cmd {
	fail := func(err error) tea.Cmd {
		return func() tea.Msg { return errMsg{err} }
	}
	if m.editor == nil {
		return fail(fmt.Errorf("no editor configured"))
	}
	draft, err := editor.NewDraft(task.Payload.Notes)
	if err != nil {
		return fail(err)
	}
	cmd, err := m.editor.Command(draft.Path)
	if err != nil {
		draft.Remove()
		return fail(err)
	}
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return notesEditedMsg{task: task, draft: draft, err: err}
	})
}

func (m *BrowserModel) saveNotes(msg notesEditedMsg) tea.Cmd {
	return func() tea.Msg {
		defer msg.draft.Remove()
		if msg.err != nil {
			return errMsg{fmt.Errorf("editor failed: %w", msg.err)}
		}
		text, changed, err := msg.draft.Read()
		if err != nil {
			return errMsg{err}
		}
		if !changed {
			return errMsg{nil}
		}

		notes := domain.Set(text)
		if text == "" {
			notes = domain.Clear[string]()
		}
		u := commands.InboxTaskUpdate{Notes: notes}
		result, err := commands.NewInboxTaskUpdateCommand(m.env, msg.task.RefID.String(), u).Execute(context.Background())
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{message: result.Message}
	}
}

func (m *BrowserModel) syncInbox() tea.Msg {
	result, err := commands.NewSyncCommand(m.env, []string{string(domain.FamilyInboxTask)}, "").Execute(context.Background())
	if err != nil {
		return actionMsg{err: err}
	}
	return actionMsg{message: result.Message}
}

// Selected returns the task under the cursor
func (m *BrowserModel) Selected() (domain.InboxTask, bool) {
	i := m.pager.Cursor()
	if i < 0 || i >= len(m.tasks) {
		return domain.InboxTask{}, false
	}
	return m.tasks[i], true
}

// View renders the browser
func (m *BrowserModel) View() string {
	if !m.loaded {
		if m.Message != "" {
			return NewViewBuilder().Message(m.Message, m.MessageErr).String()
		}
		return "Loading..."
	}

	v := NewViewBuilder().
		Title("Inbox").
		Subtitle(fmt.Sprintf("%d tasks, page %d of %d", len(m.tasks), m.pager.CurrentPage(), m.pager.TotalPages()))

	if len(m.tasks) == 0 {
		v.Muted("Nothing to do.")
	}
	start, end := m.pager.VisibleRange()
	for i := start; i < end; i++ {
		v.Line(RenderTask(m.tasks[i], i == m.pager.Cursor(), m.today))
	}

	if m.confirm.Active() {
		v.BlankLine().Line(m.confirm.View())
	} else {
		v.Message(m.Message, m.MessageErr)
	}

	return v.Help(
		BrowserKeys.Up, BrowserKeys.Down, BrowserKeys.Done, BrowserKeys.Archive,
		BrowserKeys.Copy, BrowserKeys.Edit, BrowserKeys.Refresh, BrowserKeys.Help, BrowserKeys.Quit,
	).String()
}

// SetSize updates the view dimensions and the page height
func (m *BrowserModel) SetSize(width, height int) {
	m.ViewState.SetSize(width, height)
	m.pager.SetPageSize(max(height-chrome, 5))
}

// Reload reloads the tasks from the local store
func (m *BrowserModel) Reload() tea.Cmd {
	return m.loadTasks
}
