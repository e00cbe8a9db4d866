package reconcile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jupiter/internal/adapters/memremote"
	"jupiter/internal/adapters/sqlstore"
	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

var testStart = time.Date(2022, time.May, 20, 9, 0, 0, 0, time.UTC)

type harness struct {
	t      *testing.T
	ctx    context.Context
	store  *sqlstore.Store
	remote *memremote.Gateway
	clock  *memremote.Clock
	engine *Engine
	ws     domain.Workspace
	work   domain.Project
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	store, err := sqlstore.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "jupiter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := memremote.NewClock(testStart)
	remote := memremote.New(clock)
	space, err := remote.CreatePage(ctx, "", "Space")
	require.NoError(t, err)

	engine := NewEngine(store, remote, clock, nil, NewMetrics())
	ws, err := domain.NewWorkspace("Life", "Europe/Rome", space.ID, "secret", clock.Now())
	require.NoError(t, err)
	ws, work, err := engine.Bootstrap(ctx, ws, "Work")
	require.NoError(t, err)
	remote.ResetCounters()

	return &harness{t: t, ctx: ctx, store: store, remote: remote, clock: clock, engine: engine, ws: ws, work: work}
}

func (h *harness) inTx(fn func(tx ports.Tx) error) {
	h.t.Helper()
	require.NoError(h.t, ports.InTx(h.ctx, h.store, fn))
}

func (h *harness) inboxColl() Collection {
	return WorkspaceCollection(h.ws, InboxTaskFamily)
}

func (h *harness) createInboxTask(name string, mutate func(*domain.InboxTaskData)) domain.InboxTask {
	h.t.Helper()
	data := InboxTaskFamily.Default(Lookup{DefaultProject: h.work.RefID})
	if mutate != nil {
		mutate(&data)
	}
	var task domain.InboxTask
	h.inTx(func(tx ports.Tx) error {
		var err error
		task, err = tx.InboxTasks().Create(h.ctx, domain.NewLeaf(h.ws.RefID, name, data, h.clock.Now()))
		return err
	})
	return task
}

func (h *harness) saveInboxTask(task domain.InboxTask) domain.InboxTask {
	h.t.Helper()
	h.inTx(func(tx ports.Tx) error {
		var err error
		task, err = tx.InboxTasks().Save(h.ctx, task)
		return err
	})
	return task
}

func (h *harness) loadInboxTask(id domain.EntityID) domain.InboxTask {
	h.t.Helper()
	var task domain.InboxTask
	h.inTx(func(tx ports.Tx) error {
		var err error
		task, err = tx.InboxTasks().Load(h.ctx, id, true)
		return err
	})
	return task
}

func (h *harness) syncInbox(opts Options) SyncResult[domain.InboxTaskData] {
	h.t.Helper()
	result, err := NewReconciler(h.engine, InboxTaskFamily).Sync(h.ctx, h.inboxColl(), opts)
	require.NoError(h.t, err)
	return result
}

func (h *harness) link(kind domain.LinkKind, key domain.ScopeKey) domain.Optional[domain.Link] {
	h.t.Helper()
	var out domain.Optional[domain.Link]
	h.inTx(func(tx ports.Tx) error {
		var err error
		out, err = tx.Links(kind).LoadOptional(h.ctx, key)
		return err
	})
	return out
}

func (h *harness) itemLink(coll Collection, id domain.EntityID) domain.Link {
	h.t.Helper()
	link, ok := h.link(domain.LinkItem, coll.Key.Leaf(id)).Get()
	require.True(h.t, ok, "no item link for %d", id)
	return link
}

func (h *harness) collectionID(coll Collection) domain.RemoteID {
	h.t.Helper()
	link, ok := h.link(domain.LinkCollection, coll.Key).Get()
	require.True(h.t, ok, "no collection link for %s", coll.Key)
	return link.RemoteID
}

func (h *harness) remoteItem(id domain.RemoteID) domain.RemoteItem {
	h.t.Helper()
	item, ok := h.remote.Item(id)
	require.True(h.t, ok, "remote item %s is gone", id)
	return item
}
