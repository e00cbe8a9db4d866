package archiver

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/reconcile"
	"jupiter/internal/testkit"
)

type bigPlanFixture struct {
	env      *testkit.Env
	plan     domain.BigPlan
	task     domain.InboxTask
	planLink domain.Link
	taskLink domain.Link
}

func newBigPlanFixture(t *testing.T) bigPlanFixture {
	env := testkit.New(t, "Europe/Rome")
	plan := testkit.Create(env, reconcile.BigPlanFamily, env.Workspace.RefID, "Get a cat",
		domain.BigPlanData{ProjectRefID: env.Work.RefID, Status: domain.BigPlanAccepted})
	data := env.Task()
	data.BigPlanRefID = plan.RefID
	task := testkit.Create(env, reconcile.InboxTaskFamily, env.Workspace.RefID, "Take kitty to the vet", data)

	return bigPlanFixture{
		env:      env,
		plan:     plan,
		task:     task,
		planLink: testkit.Publish(env, reconcile.BigPlanFamily, reconcile.WorkspaceCollection(env.Workspace, reconcile.BigPlanFamily), plan),
		taskLink: testkit.Publish(env, reconcile.InboxTaskFamily, env.Inbox(), task),
	}
}

func TestArchiveBigPlanCascades(t *testing.T) {
	f := newBigPlanFixture(t)
	env := f.env

	res, err := New(env.Engine).Archive(env.Ctx, domain.FamilyBigPlan, f.plan.RefID)
	require.NoError(t, err)
	assert.Equal(t, Result{Archived: 2, RemoteArchived: 2}, res)

	assert.True(t, testkit.Load(env, reconcile.BigPlanFamily, f.plan.RefID).Archived)
	assert.True(t, testkit.Load(env, reconcile.InboxTaskFamily, f.task.RefID).Archived)

	for _, id := range []domain.RemoteID{f.planLink.RemoteID, f.taskLink.RemoteID} {
		_, alive := env.Remote.Item(id)
		assert.False(t, alive)
	}
	collLink, ok := env.Link(domain.LinkCollection, env.Inbox().Key).Get()
	require.True(t, ok)
	items, err := env.Remote.ListItems(env.Ctx, collLink.RemoteID)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.False(t, env.Link(domain.LinkItem, f.taskLink.Key).IsFound())
	assert.False(t, env.Link(domain.LinkItem, f.planLink.Key).IsFound())

	// the next sync does not bring them back
	result, err := reconcile.NewReconciler(env.Engine, reconcile.InboxTaskFamily).Sync(env.Ctx, env.Inbox(), reconcile.Options{})
	require.NoError(t, err)
	assert.Zero(t, result.RemoteCreated)
}

func TestArchiveToleratesMissingRemoteChild(t *testing.T) {
	f := newBigPlanFixture(t)
	f.env.Remote.Drop(f.taskLink.RemoteID)

	res, err := New(f.env.Engine).Archive(f.env.Ctx, domain.FamilyBigPlan, f.plan.RefID)
	require.NoError(t, err)
	assert.Equal(t, Result{Archived: 2, RemoteArchived: 1, RemoteMissing: 1}, res)
	assert.False(t, f.env.Link(domain.LinkItem, f.taskLink.Key).IsFound())
}

func TestArchiveTransportFailureKeepsLocalState(t *testing.T) {
	f := newBigPlanFixture(t)
	f.env.Remote.FailNext("DeleteItem", fmt.Errorf("%w: rate limited", domain.ErrRemoteUnavailable))

	_, err := New(f.env.Engine).Archive(f.env.Ctx, domain.FamilyBigPlan, f.plan.RefID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRemoteUnavailable))

	assert.True(t, testkit.Load(f.env, reconcile.BigPlanFamily, f.plan.RefID).Archived)
	assert.True(t, testkit.Load(f.env, reconcile.InboxTaskFamily, f.task.RefID).Archived)
	_, alive := f.env.Remote.Item(f.taskLink.RemoteID)
	assert.True(t, alive, "remote work stops at the first failure")

	// rerunning finishes the remote side
	res, err := New(f.env.Engine).Archive(f.env.Ctx, domain.FamilyBigPlan, f.plan.RefID)
	require.NoError(t, err)
	assert.Zero(t, res.Archived)
	assert.Equal(t, 2, res.RemoteArchived)
}

func TestArchiveSkipsChildrenAlreadyArchived(t *testing.T) {
	env := testkit.New(t, "UTC")
	habit := testkit.Create(env, reconcile.HabitFamily, env.Workspace.RefID, "Hit the gym", domain.HabitData{
		ProjectRefID: env.Work.RefID,
		GenParams:    domain.RecurringTaskGenParams{Period: domain.PeriodWeekly, Eisen: domain.EisenRegular},
	})
	for i, archived := range []bool{false, true} {
		data := env.Task()
		data.Source, data.SourceRefID = domain.SourceHabit, habit.RefID
		task := testkit.Create(env, reconcile.InboxTaskFamily, env.Workspace.RefID, fmt.Sprintf("Hit the gym %d", i), data)
		if archived {
			env.InTx(func(tx ports.Tx) error {
				_, err := tx.InboxTasks().Save(env.Ctx, task.MarkArchived(env.Clock.Now()))
				return err
			})
		}
	}
	other := testkit.Create(env, reconcile.InboxTaskFamily, env.Workspace.RefID, "Unrelated", env.Task())

	res, err := New(env.Engine).Archive(env.Ctx, domain.FamilyHabit, habit.RefID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Archived)
	assert.Zero(t, res.RemoteArchived)
	assert.False(t, testkit.Load(env, reconcile.InboxTaskFamily, other.RefID).Archived)
}

func TestRemoveDeletesRows(t *testing.T) {
	f := newBigPlanFixture(t)

	res, err := New(f.env.Engine).Remove(f.env.Ctx, domain.FamilyBigPlan, f.plan.RefID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Archived)
	assert.Equal(t, 2, res.RemoteArchived)
	assert.False(t, testkit.Exists(f.env, reconcile.BigPlanFamily, f.plan.RefID))
	assert.False(t, testkit.Exists(f.env, reconcile.InboxTaskFamily, f.task.RefID))
}

func TestArchiveSmartListDropsCollection(t *testing.T) {
	env := testkit.New(t, "UTC")
	var list domain.SmartList
	var tag domain.SmartListTag
	env.InTx(func(tx ports.Tx) error {
		var err error
		list, err = tx.SmartLists().Create(env.Ctx, domain.NewLeaf(env.Workspace.RefID, "Books", domain.SmartListData{Key: "books"}, env.Clock.Now()))
		if err != nil {
			return err
		}
		tag, err = tx.SmartListTags().Create(env.Ctx, domain.NewLeaf(list.RefID, "fiction", domain.SmartListTagData{}, env.Clock.Now()))
		return err
	})
	item := testkit.Create(env, reconcile.SmartListItemFamily, list.RefID, "Dune",
		domain.SmartListItemData{TagRefIDs: []domain.EntityID{tag.RefID}})
	coll := reconcile.SmartListCollection(env.Workspace, list)
	itemLink := testkit.Publish(env, reconcile.SmartListItemFamily, coll, item)
	_, err := reconcile.NewTagSync(env.Engine).Sync(env.Ctx, list, reconcile.Options{})
	require.NoError(t, err)
	require.True(t, env.Link(domain.LinkFieldTag, coll.Key.Leaf(tag.RefID)).IsFound())

	res, err := New(env.Engine).Archive(env.Ctx, domain.FamilySmartList, list.RefID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Archived)
	assert.Equal(t, 1, res.RemoteArchived)
	_, alive := env.Remote.Item(itemLink.RemoteID)
	assert.False(t, alive)
	assert.False(t, env.Link(domain.LinkCollection, coll.Key).IsFound())
	assert.False(t, env.Link(domain.LinkFieldTag, coll.Key.Leaf(tag.RefID)).IsFound())
}

func TestProjectsAreNotArchivable(t *testing.T) {
	env := testkit.New(t, "UTC")
	_, err := New(env.Engine).Archive(env.Ctx, domain.FamilyProject, env.Work.RefID)
	assert.True(t, errors.Is(err, ErrNotArchivable))
}
