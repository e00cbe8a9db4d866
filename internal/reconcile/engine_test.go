package reconcile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jupiter/internal/adapters/memremote"
	"jupiter/internal/adapters/sqlstore"
	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

func TestCreateLocallyThenSync(t *testing.T) {
	h := newHarness(t)
	due := time.Date(2022, time.May, 20, 0, 0, 0, 0, time.UTC)
	task := h.createInboxTask("Take kitty to the vet", func(d *domain.InboxTaskData) {
		d.Eisen = domain.EisenImportant
		d.Difficulty = domain.DifficultyHard
		d.DueDate = &due
	})

	result := h.syncInbox(Options{})
	assert.Equal(t, 1, result.RemoteCreated)
	assert.Equal(t, 1, result.LinksCreated)

	link := h.itemLink(h.inboxColl(), task.RefID)
	assert.Equal(t, h.inboxColl().Key.Leaf(task.RefID), link.Key)

	item := h.remoteItem(link.RemoteID)
	assert.Equal(t, "Take kitty to the vet", item.Name())
	assert.Equal(t, "Accepted", item.Properties.Select("Status"))
	assert.Equal(t, "Work", item.Properties.Select(domain.PropProject))
	assert.Equal(t, "Important", item.Properties.Select("Eisenhower"))
	assert.Equal(t, "Hard", item.Properties.Select("Difficulty"))
	assert.Equal(t, task.RefID.String(), item.RefIDText())
	require.NotNil(t, item.Properties["Due Date"].Date)
	assert.Equal(t, due, item.Properties["Due Date"].Date.Start)

	items, err := h.remote.ListItems(h.ctx, h.collectionID(h.inboxColl()))
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSecondSyncIsNoop(t *testing.T) {
	h := newHarness(t)
	due := time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC)
	task := h.createInboxTask("Renew passport", func(d *domain.InboxTaskData) {
		d.DueDate = &due
		d.Notes = "bring photos"
	})
	h.syncInbox(Options{})
	before := h.itemLink(h.inboxColl(), task.RefID)

	h.clock.Advance(time.Hour)
	h.remote.ResetCounters()
	for _, prefer := range []Prefer{PreferRemote, PreferLocal} {
		result := h.syncInbox(Options{Prefer: prefer})
		assert.Zero(t, result.LocalUpdated, "prefer %s", prefer)
		assert.Zero(t, result.RemoteCreated+result.RemoteUpdated+result.RemoteDropped, "prefer %s", prefer)
	}

	assert.Zero(t, h.remote.Writes())
	after := h.itemLink(h.inboxColl(), task.RefID)
	assert.Equal(t, before, after)
	assert.Equal(t, task.Version, h.loadInboxTask(task.RefID).Version)
}

func TestCreateRemotelyThenSync(t *testing.T) {
	h := newHarness(t)
	h.syncInbox(Options{})

	itemID, err := h.remote.AddItem(h.collectionID(h.inboxColl()), domain.Properties{
		domain.PropName: domain.TitleValue("Plan summer trip"),
		"Status":        domain.SelectValue("Accepted"),
		"Eisenhower":    domain.SelectValue("Urgent"),
	})
	require.NoError(t, err)

	result := h.syncInbox(Options{})
	assert.Equal(t, 1, result.LocalCreated)
	require.Len(t, result.Locals, 1)

	local := result.Locals[0]
	assert.Equal(t, "Plan summer trip", local.Name)
	assert.Equal(t, domain.EisenUrgent, local.Payload.Eisen)
	assert.Equal(t, domain.InboxTaskAccepted, local.Payload.Status)
	assert.Equal(t, h.work.RefID, local.Payload.ProjectRefID)

	item := h.remoteItem(itemID)
	assert.Equal(t, local.RefID.String(), item.RefIDText())
	assert.Equal(t, "Work", item.Properties.Select(domain.PropProject))
	assert.Equal(t, itemID, h.itemLink(h.inboxColl(), local.RefID).RemoteID)
}

func TestRemoteRowWithoutNameIsSkipped(t *testing.T) {
	h := newHarness(t)
	h.syncInbox(Options{})
	_, err := h.remote.AddItem(h.collectionID(h.inboxColl()), domain.Properties{"Status": domain.SelectValue("Accepted")})
	require.NoError(t, err)

	result := h.syncInbox(Options{})
	assert.Zero(t, result.LocalCreated)
	assert.Equal(t, 1, result.Skipped)
}

func TestConflictResolution(t *testing.T) {
	tests := []struct {
		name       string
		prefer     Prefer
		order      string
		even       bool
		wantLocal  string
		wantRemote string
	}{
		{"prefer remote, remote edited last", PreferRemote, "local,remote", false, "B", "B"},
		{"prefer local, local edited last", PreferLocal, "remote,local", false, "A", "A"},
		{"prefer remote, local edited last", PreferRemote, "remote,local", false, "A", "B"},
		{"prefer local, remote edited last", PreferLocal, "local,remote", false, "A", "B"},
		{"prefer remote, same instant", PreferRemote, "both", false, "B", "B"},
		{"prefer local, same instant", PreferLocal, "both", false, "A", "A"},
		{"prefer remote, local edited last, rewrite all", PreferRemote, "remote,local", true, "B", "B"},
		{"prefer local, remote edited last, rewrite all", PreferLocal, "local,remote", true, "A", "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			task := h.createInboxTask("Original", nil)
			h.syncInbox(Options{})
			itemID := h.itemLink(h.inboxColl(), task.RefID).RemoteID

			editLocal := func() {
				h.saveInboxTask(h.loadInboxTask(task.RefID).Rename("A", h.clock.Now()))
			}
			editRemote := func() {
				require.NoError(t, h.remote.Edit(itemID, domain.Properties{domain.PropName: domain.TitleValue("B")}))
			}
			h.clock.Advance(time.Minute)
			switch tt.order {
			case "local,remote":
				editLocal()
				h.clock.Advance(time.Minute)
				editRemote()
			case "remote,local":
				editRemote()
				h.clock.Advance(time.Minute)
				editLocal()
			default:
				editLocal()
				editRemote()
			}

			h.remote.ResetCounters()
			h.syncInbox(Options{Prefer: tt.prefer, SyncEvenIfNotModified: tt.even})
			assert.Equal(t, tt.wantLocal, h.loadInboxTask(task.RefID).Name)
			assert.Equal(t, tt.wantRemote, h.remoteItem(itemID).Name())
			if tt.wantLocal != tt.wantRemote {
				assert.Zero(t, h.remote.Writes(), "stale preferred side must not write")
				return
			}

			h.remote.ResetCounters()
			h.syncInbox(Options{Prefer: tt.prefer})
			assert.Zero(t, h.remote.Writes(), "pair must be converged")
		})
	}
}

func TestArchivedFlagFollowsLastWrite(t *testing.T) {
	h := newHarness(t)
	task := h.createInboxTask("Call the bank", nil)
	h.syncInbox(Options{})
	itemID := h.itemLink(h.inboxColl(), task.RefID).RemoteID

	h.clock.Advance(time.Minute)
	h.saveInboxTask(h.loadInboxTask(task.RefID).MarkArchived(h.clock.Now()))

	h.syncInbox(Options{Prefer: PreferRemote})
	assert.True(t, h.loadInboxTask(task.RefID).Archived)
	assert.True(t, h.remoteItem(itemID).IsArchived())

	h.clock.Advance(time.Minute)
	require.NoError(t, h.remote.Edit(itemID, domain.Properties{domain.PropArchived: domain.CheckboxValue(false)}))
	h.syncInbox(Options{Prefer: PreferLocal})
	assert.False(t, h.loadInboxTask(task.RefID).Archived)
}

func TestOrphanReaping(t *testing.T) {
	h := newHarness(t)
	task := h.createInboxTask("Water the plants", nil)
	h.syncInbox(Options{})
	coll := h.inboxColl()
	collID := h.collectionID(coll)
	original := h.itemLink(coll, task.RefID)

	stray, err := h.remote.AddItem(collID, domain.Properties{
		domain.PropName:  domain.TitleValue("Stray"),
		domain.PropRefID: domain.TextValue("999"),
	})
	require.NoError(t, err)
	ghost, err := h.remote.AddItem(collID, domain.Properties{
		domain.PropName:  domain.TitleValue("Water the plants"),
		domain.PropRefID: domain.RefIDValue(task.RefID),
	})
	require.NoError(t, err)
	garbled, err := h.remote.AddItem(collID, domain.Properties{
		domain.PropName:  domain.TitleValue("Garbled"),
		domain.PropRefID: domain.TextValue("not-a-number"),
	})
	require.NoError(t, err)

	result := h.syncInbox(Options{})
	assert.Equal(t, 3, result.RemoteDropped)
	for _, id := range []domain.RemoteID{stray, ghost, garbled} {
		_, alive := h.remote.Item(id)
		assert.False(t, alive, "item %s should be dropped", id)
	}
	assert.Equal(t, original, h.itemLink(coll, task.RefID))

	// the linked remote item disappears out of band
	h.remote.Drop(original.RemoteID)
	result = h.syncInbox(Options{})
	assert.Equal(t, 1, result.LinksReaped)
	assert.Equal(t, 1, result.RemoteCreated)
	replaced := h.itemLink(coll, task.RefID)
	assert.NotEqual(t, original.RemoteID, replaced.RemoteID)
}

func TestLinkUniqueness(t *testing.T) {
	h := newHarness(t)
	for i := range 3 {
		h.createInboxTask(fmt.Sprintf("Task %d", i), nil)
	}
	h.syncInbox(Options{})
	h.syncInbox(Options{SyncEvenIfNotModified: true})
	h.syncInbox(Options{DropAllRemote: true})

	h.inTx(func(tx ports.Tx) error {
		links, err := tx.Links(domain.LinkItem).FindAllForScope(h.ctx, h.inboxColl().Key)
		require.NoError(t, err)
		assert.Len(t, links, 3)
		seen := map[domain.ScopeKey]bool{}
		for _, k := range links {
			assert.False(t, seen[k.Key], "duplicate link %s", k.Key)
			seen[k.Key] = true
		}

		_, err = tx.Links(domain.LinkItem).Create(h.ctx, links[0])
		assert.True(t, errors.Is(err, domain.ErrDuplicateLink))
		return nil
	})
}

func TestSyncEvenIfNotModifiedRewritesEveryProperty(t *testing.T) {
	h := newHarness(t)
	h.createInboxTask("Pay rent", nil)
	h.syncInbox(Options{})

	h.remote.ResetCounters()
	result := h.syncInbox(Options{SyncEvenIfNotModified: true})
	assert.Equal(t, 1, result.RemoteUpdated)
	assert.Zero(t, result.LocalUpdated)
}

func TestDropAllRemote(t *testing.T) {
	h := newHarness(t)
	a := h.createInboxTask("A", nil)
	b := h.createInboxTask("B", nil)
	h.syncInbox(Options{})
	oldA := h.itemLink(h.inboxColl(), a.RefID)

	result := h.syncInbox(Options{DropAllRemote: true})
	assert.Equal(t, 2, result.RemoteDropped)
	assert.Equal(t, 2, result.LinksReaped)
	assert.Equal(t, 2, result.RemoteCreated)

	_, alive := h.remote.Item(oldA.RemoteID)
	assert.False(t, alive)
	assert.NotEqual(t, oldA.RemoteID, h.itemLink(h.inboxColl(), a.RefID).RemoteID)
	h.itemLink(h.inboxColl(), b.RefID)
}

func TestDropAllRemoteWithFilter(t *testing.T) {
	h := newHarness(t)
	a := h.createInboxTask("A", nil)
	b := h.createInboxTask("B", nil)
	h.syncInbox(Options{})
	oldA := h.itemLink(h.inboxColl(), a.RefID)
	oldB := h.itemLink(h.inboxColl(), b.RefID)

	result := h.syncInbox(Options{DropAllRemote: true, FilterRefIDs: []domain.EntityID{a.RefID}})
	assert.Equal(t, 1, result.RemoteDropped)
	assert.Equal(t, 1, result.RemoteCreated)

	_, alive := h.remote.Item(oldA.RemoteID)
	assert.False(t, alive)
	assert.NotEqual(t, oldA.RemoteID, h.itemLink(h.inboxColl(), a.RefID).RemoteID)

	_, alive = h.remote.Item(oldB.RemoteID)
	assert.True(t, alive)
	assert.Equal(t, oldB, h.itemLink(h.inboxColl(), b.RefID))

	h.remote.ResetCounters()
	h.syncInbox(Options{})
	assert.Zero(t, h.remote.Writes())
}

func TestFilterRestrictsPass(t *testing.T) {
	h := newHarness(t)
	a := h.createInboxTask("A", nil)
	b := h.createInboxTask("B", nil)

	result := h.syncInbox(Options{FilterRefIDs: []domain.EntityID{a.RefID}})
	assert.Equal(t, 1, result.RemoteCreated)
	h.itemLink(h.inboxColl(), a.RefID)
	assert.False(t, h.link(domain.LinkItem, h.inboxColl().Key.Leaf(b.RefID)).IsFound())

	_, err := h.remote.AddItem(h.collectionID(h.inboxColl()), domain.Properties{domain.PropName: domain.TitleValue("Remote first")})
	require.NoError(t, err)
	result = h.syncInbox(Options{FilterRefIDs: []domain.EntityID{b.RefID}})
	assert.Equal(t, 1, result.RemoteCreated)
	assert.Zero(t, result.LocalCreated)
	assert.Equal(t, 2, result.Skipped)
}

func TestRemoteFailureKeepsLocalCommit(t *testing.T) {
	h := newHarness(t)
	task := h.createInboxTask("Draft", nil)
	h.syncInbox(Options{})
	itemID := h.itemLink(h.inboxColl(), task.RefID).RemoteID

	h.clock.Advance(time.Minute)
	require.NoError(t, h.remote.Edit(itemID, domain.Properties{domain.PropName: domain.TitleValue("Final")}))
	fresh := h.createInboxTask("Fresh", nil)
	h.remote.FailNext("CreateItem", fmt.Errorf("%w: rate limited", domain.ErrRemoteUnavailable))

	_, err := NewReconciler(h.engine, InboxTaskFamily).Sync(h.ctx, h.inboxColl(), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRemoteUnavailable))
	assert.Equal(t, "Final", h.loadInboxTask(task.RefID).Name)
	assert.False(t, h.link(domain.LinkItem, h.inboxColl().Key.Leaf(fresh.RefID)).IsFound())

	result := h.syncInbox(Options{})
	assert.Equal(t, 1, result.RemoteCreated)
	h.itemLink(h.inboxColl(), fresh.RefID)
}

func TestUnavailableRemoteFailsBeforeLocalWrites(t *testing.T) {
	h := newHarness(t)
	h.createInboxTask("Anything", nil)
	h.remote.SetUnavailable(true)

	_, err := NewReconciler(h.engine, InboxTaskFamily).Sync(h.ctx, h.inboxColl(), Options{})
	assert.True(t, errors.Is(err, domain.ErrRemoteUnavailable))
	assert.False(t, h.link(domain.LinkCollection, h.inboxColl().Key).IsFound())
}

func TestMissingCollectionIsRecreated(t *testing.T) {
	h := newHarness(t)
	task := h.createInboxTask("Buy milk", nil)
	h.syncInbox(Options{})
	oldColl := h.collectionID(h.inboxColl())

	h.remote.Drop(oldColl)
	result := h.syncInbox(Options{})
	assert.Equal(t, 1, result.RemoteCreated)
	assert.NotEqual(t, oldColl, h.collectionID(h.inboxColl()))
	h.itemLink(h.inboxColl(), task.RefID)
}

func TestPublisherRecreatesMissingItem(t *testing.T) {
	h := newHarness(t)
	task := h.createInboxTask("Book dentist", nil)
	pub := NewPublisher(h.engine, InboxTaskFamily)

	first, err := pub.Publish(h.ctx, h.inboxColl(), task)
	require.NoError(t, err)
	assert.Equal(t, "Book dentist", h.remoteItem(first.RemoteID).Name())

	task = h.saveInboxTask(task.Rename("Book the dentist", h.clock.Now()))
	same, err := pub.Publish(h.ctx, h.inboxColl(), task)
	require.NoError(t, err)
	assert.Equal(t, first.RemoteID, same.RemoteID)
	assert.Equal(t, "Book the dentist", h.remoteItem(first.RemoteID).Name())

	h.remote.Drop(first.RemoteID)
	second, err := pub.Publish(h.ctx, h.inboxColl(), task)
	require.NoError(t, err)
	assert.NotEqual(t, first.RemoteID, second.RemoteID)
	assert.Equal(t, second.RemoteID, h.itemLink(h.inboxColl(), task.RefID).RemoteID)

	outcome, err := h.engine.RemoveItem(h.ctx, h.inboxColl(), task.RefID)
	require.NoError(t, err)
	assert.Equal(t, ItemDeleted, outcome)
	assert.False(t, h.link(domain.LinkItem, h.inboxColl().Key.Leaf(task.RefID)).IsFound())

	outcome, err = h.engine.RemoveItem(h.ctx, h.inboxColl(), task.RefID)
	require.NoError(t, err)
	assert.Equal(t, ItemUnlinked, outcome)
}

func TestBootstrapRejectsSecondWorkspace(t *testing.T) {
	h := newHarness(t)
	ws, err := domain.NewWorkspace("Again", "UTC", h.ws.RemoteSpaceID, "secret", h.clock.Now())
	require.NoError(t, err)
	_, _, err = h.engine.Bootstrap(h.ctx, ws, "Work")
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
}

func TestBootstrapWritesNothingWhenRemoteRejects(t *testing.T) {
	ctx := context.Background()
	store, err := sqlstore.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "jupiter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	clock := memremote.NewClock(testStart)
	remote := memremote.New(clock)
	remote.FailNext("CreatePage", fmt.Errorf("%w: bad token", domain.ErrRemoteUnauthorized))

	engine := NewEngine(store, remote, clock, nil, nil)
	ws, err := domain.NewWorkspace("Life", "UTC", "", "bad", clock.Now())
	require.NoError(t, err)
	_, _, err = engine.Bootstrap(ctx, ws, "Work")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRemoteUnauthorized))

	_, err = engine.Workspace(ctx)
	assert.Error(t, err)
}
