package gc

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/reconcile"
	"jupiter/internal/testkit"
)

func publishTask(env *testkit.Env, name string, status domain.InboxTaskStatus) (domain.InboxTask, domain.Link) {
	env.T.Helper()
	data := env.Task()
	data.Status = status
	task := testkit.Create(env, reconcile.InboxTaskFamily, env.Workspace.RefID, name, data)
	return task, testkit.Publish(env, reconcile.InboxTaskFamily, env.Inbox(), task)
}

func alive(env *testkit.Env, link domain.Link) bool {
	_, ok := env.Remote.Item(link.RemoteID)
	return ok
}

func TestCompletedTasksLeaveTheRemote(t *testing.T) {
	env := testkit.New(t, "UTC")
	done, doneLink := publishTask(env, "File taxes", domain.InboxTaskDone)
	notDone, notDoneLink := publishTask(env, "Learn the banjo", domain.InboxTaskNotDone)
	open, openLink := publishTask(env, "Book flights", domain.InboxTaskAccepted)
	shelved, shelvedLink := publishTask(env, "Fix the bike", domain.InboxTaskInProgress)
	env.InTx(func(tx ports.Tx) error {
		_, err := tx.InboxTasks().Save(env.Ctx, shelved.MarkArchived(env.Clock.Now()))
		return err
	})

	res, err := New(env.Engine).Run(env.Ctx, Options{Targets: []domain.Family{domain.FamilyInboxTask}})
	require.NoError(t, err)
	assert.Equal(t, Result{Archived: 2, RemoteRemoved: 3}, res)

	for _, tc := range []struct {
		task domain.InboxTask
		link domain.Link
		gone bool
	}{
		{done, doneLink, true},
		{notDone, notDoneLink, true},
		{shelved, shelvedLink, true},
		{open, openLink, false},
	} {
		local := testkit.Load(env, reconcile.InboxTaskFamily, tc.task.RefID)
		assert.Equal(t, tc.gone, local.Archived, tc.task.Name)
		assert.Equal(t, !tc.gone, alive(env, tc.link), tc.task.Name)
		assert.Equal(t, !tc.gone, env.Link(domain.LinkItem, tc.link.Key).IsFound(), tc.task.Name)
	}

	sync, err := reconcile.NewReconciler(env.Engine, reconcile.InboxTaskFamily).Sync(env.Ctx, env.Inbox(), reconcile.Options{})
	require.NoError(t, err)
	assert.Zero(t, sync.Report.RemoteCreated)
	assert.Zero(t, sync.Report.LocalCreated)

	env.Remote.ResetCounters()
	res, err = New(env.Engine).Run(env.Ctx, Options{Targets: []domain.Family{domain.FamilyInboxTask}})
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Zero(t, env.Remote.Writes())
}

func TestMissingRemoteItemIsTolerated(t *testing.T) {
	env := testkit.New(t, "UTC")
	_, link := publishTask(env, "File taxes", domain.InboxTaskDone)
	env.Remote.Drop(link.RemoteID)

	res, err := New(env.Engine).Run(env.Ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{Archived: 1, RemoteMissing: 1}, res)
	assert.False(t, env.Link(domain.LinkItem, link.Key).IsFound())
}

func TestOlderThanKeepsRecentCandidates(t *testing.T) {
	env := testkit.New(t, "UTC")
	old, oldLink := publishTask(env, "File taxes", domain.InboxTaskDone)
	env.Clock.Advance(3 * time.Hour)
	recent, recentLink := publishTask(env, "Water plants", domain.InboxTaskDone)

	res, err := New(env.Engine).Run(env.Ctx, Options{OlderThan: 2 * time.Hour})
	require.NoError(t, err)
	assert.Equal(t, Result{Archived: 1, RemoteRemoved: 1}, res)
	assert.True(t, testkit.Load(env, reconcile.InboxTaskFamily, old.RefID).Archived)
	assert.False(t, alive(env, oldLink))
	assert.False(t, testkit.Load(env, reconcile.InboxTaskFamily, recent.RefID).Archived)
	assert.True(t, alive(env, recentLink))
}

func TestArchivedTemplatesLeaveTheRemote(t *testing.T) {
	env := testkit.New(t, "UTC")
	habit := testkit.Create(env, reconcile.HabitFamily, env.Workspace.RefID, "Run", domain.HabitData{
		GenParams: domain.RecurringTaskGenParams{Period: domain.PeriodWeekly, Eisen: domain.EisenRegular},
	})
	habits := reconcile.WorkspaceCollection(env.Workspace, reconcile.HabitFamily)
	link := testkit.Publish(env, reconcile.HabitFamily, habits, habit)
	env.InTx(func(tx ports.Tx) error {
		_, err := tx.Habits().Save(env.Ctx, habit.MarkArchived(env.Clock.Now()))
		return err
	})

	res, err := New(env.Engine).Run(env.Ctx, Options{Targets: []domain.Family{domain.FamilyInboxTask}})
	require.NoError(t, err)
	assert.Zero(t, res.RemoteRemoved)
	assert.True(t, alive(env, link))

	res, err = New(env.Engine).Run(env.Ctx, Options{Targets: []domain.Family{domain.FamilyHabit}})
	require.NoError(t, err)
	assert.Equal(t, Result{RemoteRemoved: 1}, res)
	assert.False(t, alive(env, link))
	assert.True(t, testkit.Exists(env, reconcile.HabitFamily, habit.RefID))
}

func TestDoneSmartListItemsLeaveTheRemote(t *testing.T) {
	env := testkit.New(t, "UTC")
	var list domain.SmartList
	env.InTx(func(tx ports.Tx) error {
		var err error
		list, err = tx.SmartLists().Create(env.Ctx, domain.NewLeaf(env.Workspace.RefID, "Books", domain.SmartListData{Key: "books"}, env.Clock.Now()))
		return err
	})
	coll := reconcile.SmartListCollection(env.Workspace, list)
	read := testkit.Create(env, reconcile.SmartListItemFamily, list.RefID, "Dune", domain.SmartListItemData{IsDone: true})
	unread := testkit.Create(env, reconcile.SmartListItemFamily, list.RefID, "Hyperion", domain.SmartListItemData{})
	readLink := testkit.Publish(env, reconcile.SmartListItemFamily, coll, read)
	unreadLink := testkit.Publish(env, reconcile.SmartListItemFamily, coll, unread)

	res, err := New(env.Engine).Run(env.Ctx, Options{Targets: []domain.Family{domain.FamilySmartListItem}})
	require.NoError(t, err)
	assert.Equal(t, Result{Archived: 1, RemoteRemoved: 1}, res)
	assert.False(t, alive(env, readLink))
	assert.True(t, alive(env, unreadLink))
}

func TestTransportFailureKeepsLocalArchival(t *testing.T) {
	env := testkit.New(t, "UTC")
	task, link := publishTask(env, "File taxes", domain.InboxTaskDone)
	env.Remote.FailNext("DeleteItem", fmt.Errorf("%w: timeout", domain.ErrRemoteUnavailable))

	_, err := New(env.Engine).Run(env.Ctx, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRemoteUnavailable))
	assert.True(t, testkit.Load(env, reconcile.InboxTaskFamily, task.RefID).Archived)

	res, err := New(env.Engine).Run(env.Ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{RemoteRemoved: 1}, res)
	assert.False(t, alive(env, link))
}

func TestUnknownTargetIsRejected(t *testing.T) {
	env := testkit.New(t, "UTC")
	_, err := New(env.Engine).Run(env.Ctx, Options{Targets: []domain.Family{domain.FamilyProject}})
	assert.Error(t, err)
}
