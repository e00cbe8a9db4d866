package views

import (
	"context"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"jupiter/internal/adapters/editor"
	"jupiter/internal/application"
	"jupiter/internal/application/commands"
	"jupiter/internal/config"
	"jupiter/internal/domain"
	"jupiter/internal/testkit"
)

func newBrowser(t *testing.T, names ...string) (*testkit.Env, *BrowserModel) {
	t.Helper()
	kit := testkit.New(t, "UTC")
	env := application.NewEnv(kit.Store, kit.Remote, kit.Clock, nil, nil, config.Default())
	for _, name := range names {
		args := commands.InboxTaskArgs{Name: name}
		if _, err := commands.NewInboxTaskCreateCommand(env, args).Execute(context.Background()); err != nil {
			t.Fatalf("failed to create %q: %v", name, err)
		}
	}
	m := NewBrowserModel(env, nil, nil)
	run(m, m.Init())
	return kit, m
}

// run executes cmd and feeds its messages back until the model settles
func run(m *BrowserModel, cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			return
		}
		_, cmd = m.Update(msg)
	}
}

func press(m *BrowserModel, keys string) {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
	run(m, cmd)
}

func TestBrowser_ListsTasks(t *testing.T) {
	_, m := newBrowser(t, "Buy milk", "Call mom")

	if len(m.tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(m.tasks))
	}
	view := m.View()
	if !strings.Contains(view, "Buy milk") || !strings.Contains(view, "Call mom") {
		t.Errorf("expected both tasks in view, got:\n%s", view)
	}
}

func TestBrowser_Navigation(t *testing.T) {
	_, m := newBrowser(t, "One", "Two", "Three")

	press(m, "j")
	press(m, "j")
	press(m, "j")
	if m.pager.Cursor() != 2 {
		t.Errorf("expected cursor to stop at 2, got %d", m.pager.Cursor())
	}
	press(m, "k")
	task, ok := m.Selected()
	if !ok || task.Name != m.tasks[1].Name {
		t.Errorf("expected the second task selected, got %+v", task)
	}
}

func TestBrowser_MarkDone(t *testing.T) {
	_, m := newBrowser(t, "Buy milk")

	press(m, "d")
	task, _ := m.Selected()
	if task.Payload.Status != domain.InboxTaskDone {
		t.Errorf("expected status Done, got %s", task.Payload.Status)
	}
	if m.MessageErr || !strings.Contains(m.Message, "Updated inbox task") {
		t.Errorf("unexpected message %q", m.Message)
	}
}

func TestBrowser_ArchiveAsksFirst(t *testing.T) {
	_, m := newBrowser(t, "Buy milk", "Call mom")

	press(m, "a")
	if !m.confirm.Active() {
		t.Fatal("expected a confirmation prompt")
	}
	if !strings.Contains(m.View(), "Archive inbox task") {
		t.Error("expected the prompt in the view")
	}
	press(m, "n")
	if m.confirm.Active() || len(m.tasks) != 2 {
		t.Fatalf("expected cancel to keep both tasks, got %d", len(m.tasks))
	}

	press(m, "a")
	press(m, "y")
	if len(m.tasks) != 1 {
		t.Fatalf("expected 1 task after archive, got %d", len(m.tasks))
	}
	if !strings.Contains(m.Message, "Archived") {
		t.Errorf("unexpected message %q", m.Message)
	}
}

func TestBrowser_CopyRemoteID(t *testing.T) {
	kit, m := newBrowser(t, "Buy milk")
	var copied string
	m.SetClipboard(func(s string) error {
		copied = s
		return nil
	})

	press(m, "c")
	task, _ := m.Selected()
	link, ok := kit.Link(domain.LinkItem, kit.Inbox().Key.Leaf(task.RefID)).Get()
	if !ok {
		t.Fatal("expected the task to be published")
	}
	if copied != link.RemoteID.String() {
		t.Errorf("expected %s on the clipboard, got %q", link.RemoteID, copied)
	}
}

func TestBrowser_RefreshPicksUpNewTasks(t *testing.T) {
	_, m := newBrowser(t, "Buy milk")

	if _, err := commands.NewInboxTaskCreateCommand(m.env, commands.InboxTaskArgs{Name: "Later"}).Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	press(m, "r")
	if len(m.tasks) != 2 {
		t.Errorf("expected 2 tasks after refresh, got %d", len(m.tasks))
	}
}

type fakeWeb struct {
	opened []domain.RemoteID
}

func (f *fakeWeb) ItemURL(id domain.RemoteID) string { return "https://web.test/" + id.String() }

func (f *fakeWeb) Open(id domain.RemoteID) error {
	f.opened = append(f.opened, id)
	return nil
}

func TestBrowser_OpenInBrowser(t *testing.T) {
	kit, m := newBrowser(t, "Buy milk")

	press(m, "o")
	if !m.MessageErr {
		t.Errorf("expected an error without a browser, got %q", m.Message)
	}

	web := &fakeWeb{}
	m.web = web
	press(m, "o")
	task, _ := m.Selected()
	link, _ := kit.Link(domain.LinkItem, kit.Inbox().Key.Leaf(task.RefID)).Get()
	if len(web.opened) != 1 || web.opened[0] != link.RemoteID {
		t.Fatalf("expected %s opened, got %v", link.RemoteID, web.opened)
	}
	if !strings.Contains(m.Message, "https://web.test/") {
		t.Errorf("unexpected message %q", m.Message)
	}
}

func TestBrowser_SaveEditedNotes(t *testing.T) {
	_, m := newBrowser(t, "Buy milk")
	task, _ := m.Selected()

	draft, err := editor.NewDraft(task.Payload.Notes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(draft.Path, []byte("bring bags\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, cmd := m.Update(notesEditedMsg{task: task, draft: draft})
	run(m, cmd)

	task, _ = m.Selected()
	if task.Payload.Notes != "bring bags" {
		t.Errorf("expected notes saved, got %q", task.Payload.Notes)
	}
	if _, err := os.Stat(draft.Path); !os.IsNotExist(err) {
		t.Error("expected the draft to be removed")
	}
}

func TestBrowser_EditWithoutEditor(t *testing.T) {
	_, m := newBrowser(t, "Buy milk")

	press(m, "e")
	if !m.MessageErr || !strings.Contains(m.Message, "no editor") {
		t.Errorf("unexpected message %q", m.Message)
	}
}

func TestPaginator(t *testing.T) {
	p := NewPaginator(2)
	p.SetTotal(5)
	if p.TotalPages() != 3 {
		t.Errorf("expected 3 pages, got %d", p.TotalPages())
	}
	p.CursorDown()
	p.CursorDown()
	if p.CurrentPage() != 2 {
		t.Errorf("expected page 2, got %d", p.CurrentPage())
	}
	start, end := p.VisibleRange()
	if start != 2 || end != 4 {
		t.Errorf("expected range 2-4, got %d-%d", start, end)
	}
	p.SetTotal(1)
	if p.Cursor() != 0 || p.CurrentPage() != 1 {
		t.Errorf("expected cursor clamped to 0, got %d on page %d", p.Cursor(), p.CurrentPage())
	}
}
