package generator

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jupiter/internal/domain"
	"jupiter/internal/reconcile"
	"jupiter/internal/testkit"
)

func weekly() domain.RecurringTaskGenParams {
	return domain.RecurringTaskGenParams{Period: domain.PeriodWeekly, Eisen: domain.EisenImportant}
}

func day(m time.Month, d int) time.Time {
	return time.Date(2022, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func names(tasks []domain.InboxTask) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Name)
	}
	return out
}

func TestHabitGeneratesOneTaskPerWeek(t *testing.T) {
	env := testkit.New(t, "Europe/Rome")
	habit := testkit.Create(env, reconcile.HabitFamily, env.Workspace.RefID, "Hit the gym", domain.HabitData{
		ProjectRefID: env.Work.RefID,
		GenParams:    weekly(),
	})
	gen := New(env.Engine)

	res, err := gen.Run(env.Ctx, Options{Periods: []domain.Period{domain.PeriodWeekly}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Published)

	tasks := testkit.All(env, reconcile.InboxTaskFamily)
	require.Len(t, tasks, 1)
	task := tasks[0]
	assert.Equal(t, "Hit the gym 22:W20", task.Name)
	assert.Equal(t, domain.SourceHabit, task.Payload.Source)
	assert.Equal(t, habit.RefID, task.Payload.SourceRefID)
	assert.Equal(t, env.Work.RefID, task.Payload.ProjectRefID)
	assert.Equal(t, domain.EisenImportant, task.Payload.Eisen)
	assert.Equal(t, "2022:W20", task.Payload.Timeline)
	assert.Equal(t, fmt.Sprintf("habit:%d:weekly:2022:W20:0", habit.RefID), task.Payload.GenKey)
	require.NotNil(t, task.Payload.DueDate)
	assert.Equal(t, day(time.May, 22), *task.Payload.DueDate)

	link, ok := env.Link(domain.LinkItem, env.Inbox().Key.Leaf(task.RefID)).Get()
	require.True(t, ok)
	item, ok := env.Remote.Item(link.RemoteID)
	require.True(t, ok)
	assert.Equal(t, "Hit the gym 22:W20", item.Name())

	env.Remote.ResetCounters()
	res, err = gen.Run(env.Ctx, Options{Periods: []domain.Period{domain.PeriodWeekly}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Existing)
	assert.Len(t, testkit.All(env, reconcile.InboxTaskFamily), 1)
	assert.Zero(t, env.Remote.Writes())
}

func TestGenerationIsIdempotent(t *testing.T) {
	env := testkit.New(t, "Europe/Rome")
	ws := env.Workspace.RefID
	testkit.Create(env, reconcile.HabitFamily, ws, "Stretch", domain.HabitData{
		ProjectRefID:         env.Work.RefID,
		GenParams:            domain.RecurringTaskGenParams{Period: domain.PeriodDaily, Eisen: domain.EisenRegular},
		RepeatsInPeriodCount: 2,
	})
	testkit.Create(env, reconcile.ChoreFamily, ws, "Pay rent", domain.ChoreData{
		GenParams: domain.RecurringTaskGenParams{Period: domain.PeriodMonthly, Eisen: domain.EisenUrgent, DueAtDay: ptr(5)},
	})
	testkit.Create(env, reconcile.MetricFamily, ws, "Weight", domain.MetricData{
		Unit:             "kg",
		CollectionParams: ptr(weekly()),
	})
	testkit.Create(env, reconcile.PersonFamily, ws, "Ada", domain.PersonData{
		Relationship:  domain.RelationshipFriend,
		CatchUpParams: &domain.RecurringTaskGenParams{Period: domain.PeriodQuarterly, Eisen: domain.EisenRegular},
	})
	gen := New(env.Engine)

	first, err := gen.Run(env.Ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 5, first.Created)
	before := testkit.All(env, reconcile.InboxTaskFamily)
	assert.ElementsMatch(t, []string{
		"Stretch 22:M05:D20 [1/2]",
		"Stretch 22:M05:D20 [2/2]",
		"Pay rent 22:M05",
		"Collect value for Weight 22:W20",
		"Catch up with Ada 22:Q2",
	}, names(before))

	env.Clock.Advance(time.Hour)
	second, err := gen.Run(env.Ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 5, second.Existing)

	after := testkit.All(env, reconcile.InboxTaskFamily)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].RefID, after[i].RefID)
		assert.Equal(t, before[i].Name, after[i].Name)
		assert.Equal(t, before[i].Payload, after[i].Payload)
		assert.True(t, before[i].LastModifiedTime.Equal(after[i].LastModifiedTime))
	}
}

func TestGeneratedTaskFields(t *testing.T) {
	env := testkit.New(t, "Europe/Rome")
	chore := testkit.Create(env, reconcile.ChoreFamily, env.Workspace.RefID, "Pay rent", domain.ChoreData{
		GenParams: domain.RecurringTaskGenParams{
			Period:            domain.PeriodMonthly,
			Eisen:             domain.EisenUrgent,
			Difficulty:        domain.DifficultyEasy,
			ActionableFromDay: ptr(1),
			DueAtDay:          ptr(5),
		},
	})

	_, err := New(env.Engine).Run(env.Ctx, Options{Targets: []domain.Family{domain.FamilyChore}})
	require.NoError(t, err)

	tasks := testkit.All(env, reconcile.InboxTaskFamily)
	require.Len(t, tasks, 1)
	got := tasks[0].Payload
	assert.Equal(t, domain.SourceChore, got.Source)
	assert.Equal(t, chore.RefID, got.SourceRefID)
	assert.Equal(t, domain.InboxTaskRecurring, got.Status)
	// no project on the chore falls back to the workspace default
	assert.Equal(t, env.Workspace.DefaultProjectRefID, got.ProjectRefID)
	assert.Equal(t, domain.DifficultyEasy, got.Difficulty)
	require.NotNil(t, got.ActionableDate)
	assert.Equal(t, day(time.May, 1), *got.ActionableDate)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, day(time.May, 5), *got.DueDate)
}

func TestSuppressedInstances(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(env *testkit.Env)
		wantMade []string
		skipped  int
	}{
		{
			name: "skip rule matches the week index",
			setup: func(env *testkit.Env) {
				p := weekly()
				p.SkipRule = "even"
				testkit.Create(env, reconcile.HabitFamily, env.Workspace.RefID, "Run", domain.HabitData{GenParams: p})
			},
			skipped: 1,
		},
		{
			name: "skip rule keeps the week index",
			setup: func(env *testkit.Env) {
				p := weekly()
				p.SkipRule = "odd"
				testkit.Create(env, reconcile.HabitFamily, env.Workspace.RefID, "Run", domain.HabitData{GenParams: p})
			},
			wantMade: []string{"Run 22:W20"},
		},
		{
			name: "unparsable skip rule",
			setup: func(env *testkit.Env) {
				p := weekly()
				p.SkipRule = "evn"
				testkit.Create(env, reconcile.HabitFamily, env.Workspace.RefID, "Run", domain.HabitData{GenParams: p})
			},
			skipped: 1,
		},
		{
			name: "suspended habit",
			setup: func(env *testkit.Env) {
				testkit.Create(env, reconcile.HabitFamily, env.Workspace.RefID, "Run", domain.HabitData{GenParams: weekly(), Suspended: true})
			},
		},
		{
			name: "vacation covers the week",
			setup: func(env *testkit.Env) {
				testkit.Create(env, reconcile.VacationFamily, env.Workspace.RefID, "Sardinia", domain.VacationData{
					StartDate: day(time.May, 14), EndDate: day(time.May, 24),
				})
				testkit.Create(env, reconcile.HabitFamily, env.Workspace.RefID, "Run", domain.HabitData{GenParams: weekly()})
				testkit.Create(env, reconcile.ChoreFamily, env.Workspace.RefID, "Water plants", domain.ChoreData{GenParams: weekly()})
				testkit.Create(env, reconcile.ChoreFamily, env.Workspace.RefID, "Feed the cat", domain.ChoreData{GenParams: weekly(), MustDo: true})
			},
			wantMade: []string{"Feed the cat 22:W20"},
			skipped:  2,
		},
		{
			name: "vacation covers part of the week",
			setup: func(env *testkit.Env) {
				testkit.Create(env, reconcile.VacationFamily, env.Workspace.RefID, "Weekend", domain.VacationData{
					StartDate: day(time.May, 21), EndDate: day(time.May, 22),
				})
				testkit.Create(env, reconcile.HabitFamily, env.Workspace.RefID, "Run", domain.HabitData{GenParams: weekly()})
			},
			wantMade: []string{"Run 22:W20"},
		},
		{
			name: "chore window already closed",
			setup: func(env *testkit.Env) {
				testkit.Create(env, reconcile.ChoreFamily, env.Workspace.RefID, "Renew passport", domain.ChoreData{
					GenParams: weekly(), EndAtDate: ptr(day(time.May, 1)),
				})
			},
		},
		{
			name: "chore window not open yet",
			setup: func(env *testkit.Env) {
				testkit.Create(env, reconcile.ChoreFamily, env.Workspace.RefID, "Winter tyres", domain.ChoreData{
					GenParams: weekly(), StartAtDate: ptr(day(time.November, 1)),
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testkit.New(t, "UTC")
			tt.setup(env)

			res, err := New(env.Engine).Run(env.Ctx, Options{Periods: []domain.Period{domain.PeriodWeekly}})
			require.NoError(t, err)
			assert.Equal(t, tt.skipped, res.Skipped)
			if len(tt.wantMade) == 0 {
				assert.Empty(t, names(res.Tasks))
				return
			}
			assert.ElementsMatch(t, tt.wantMade, names(res.Tasks))
		})
	}
}

func TestOptionsRestrictGeneration(t *testing.T) {
	env := testkit.New(t, "UTC")
	ws := env.Workspace.RefID
	run := testkit.Create(env, reconcile.HabitFamily, ws, "Run", domain.HabitData{GenParams: weekly()})
	testkit.Create(env, reconcile.HabitFamily, ws, "Read", domain.HabitData{GenParams: weekly()})
	testkit.Create(env, reconcile.HabitFamily, ws, "Plan the year", domain.HabitData{
		GenParams: domain.RecurringTaskGenParams{Period: domain.PeriodYearly, Eisen: domain.EisenRegular},
	})
	testkit.Create(env, reconcile.ChoreFamily, ws, "Clean", domain.ChoreData{GenParams: weekly()})
	gen := New(env.Engine)

	res, err := gen.Run(env.Ctx, Options{
		Periods:      []domain.Period{domain.PeriodWeekly},
		Targets:      []domain.Family{domain.FamilyHabit},
		FilterRefIDs: []domain.EntityID{run.RefID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Run 22:W20"}, names(res.Tasks))

	res, err = gen.Run(env.Ctx, Options{Periods: []domain.Period{domain.PeriodYearly}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Plan the year 22"}, names(res.Tasks))

	_, err = gen.Run(env.Ctx, Options{Targets: []domain.Family{domain.FamilyVacation}})
	assert.Error(t, err)
}

func TestBirthdayTask(t *testing.T) {
	tests := []struct {
		name     string
		birthday domain.Birthday
		periods  []domain.Period
		want     bool
	}{
		{"yearly run", domain.Birthday{Day: 3, Month: time.February}, []domain.Period{domain.PeriodYearly}, true},
		{"falls in the week", domain.Birthday{Day: 21, Month: time.May}, []domain.Period{domain.PeriodWeekly}, true},
		{"outside the week", domain.Birthday{Day: 25, Month: time.May}, []domain.Period{domain.PeriodWeekly}, false},
		{"falls in the month", domain.Birthday{Day: 25, Month: time.May}, []domain.Period{domain.PeriodMonthly}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testkit.New(t, "UTC")
			b := tt.birthday
			testkit.Create(env, reconcile.PersonFamily, env.Workspace.RefID, "Ada", domain.PersonData{
				Relationship: domain.RelationshipFriend,
				Birthday:     &b,
			})

			res, err := New(env.Engine).Run(env.Ctx, Options{Periods: tt.periods})
			require.NoError(t, err)
			if !tt.want {
				assert.Empty(t, res.Tasks)
				return
			}
			require.Len(t, res.Tasks, 1)
			task := res.Tasks[0]
			assert.Equal(t, "Wish happy birthday to Ada 22", task.Name)
			assert.Equal(t, domain.SourcePersonBirthday, task.Payload.Source)
			require.NotNil(t, task.Payload.DueDate)
			assert.Equal(t, b.In(2022), *task.Payload.DueDate)
			require.NotNil(t, task.Payload.ActionableDate)
			assert.False(t, task.Payload.ActionableDate.After(*task.Payload.DueDate))
		})
	}
}

func TestBirthdayTaskIsKeyedOnTheYear(t *testing.T) {
	env := testkit.New(t, "UTC")
	testkit.Create(env, reconcile.PersonFamily, env.Workspace.RefID, "Ada", domain.PersonData{
		Relationship: domain.RelationshipFriend,
		Birthday:     &domain.Birthday{Day: 21, Month: time.May},
	})
	gen := New(env.Engine)

	_, err := gen.Run(env.Ctx, Options{Periods: []domain.Period{domain.PeriodWeekly}})
	require.NoError(t, err)
	res, err := gen.Run(env.Ctx, Options{Periods: []domain.Period{domain.PeriodMonthly}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Len(t, testkit.All(env, reconcile.InboxTaskFamily), 1)
}

func TestPushTaskCarriesMessageAsBody(t *testing.T) {
	env := testkit.New(t, "UTC")
	push := testkit.Create(env, reconcile.PushTaskFamily, env.Workspace.RefID, "Review the deck", domain.PushTaskData{
		Kind:       domain.PushSlack,
		User:       "marta",
		Channel:    "design",
		Message:    "Can you review the deck?\n- slides 3 to 5\n- the pricing table",
		ExternalID: "C1-1652.01",
	})
	gen := New(env.Engine)

	res, err := gen.Run(env.Ctx, Options{Targets: []domain.Family{domain.FamilyPushTask}})
	require.NoError(t, err)
	require.Len(t, res.Tasks, 1)
	task := res.Tasks[0]
	assert.Equal(t, "Review the deck", task.Name)
	assert.Equal(t, domain.SourceSlackTask, task.Payload.Source)
	assert.Equal(t, push.RefID, task.Payload.SourceRefID)
	assert.Equal(t, domain.InboxTaskAccepted, task.Payload.Status)
	assert.Equal(t, domain.PushTaskKey(push.RefID), task.Payload.GenKey)

	push = testkit.Load(env, reconcile.PushTaskFamily, push.RefID)
	assert.Equal(t, task.RefID, push.Payload.GeneratedInboxTaskID)

	link, ok := env.Link(domain.LinkItem, env.Inbox().Key.Leaf(task.RefID)).Get()
	require.True(t, ok)
	body, err := env.Engine.ReadBody(env.Ctx, link.RemoteID)
	require.NoError(t, err)
	assert.Equal(t, push.Payload.Message, body)

	res, err = gen.Run(env.Ctx, Options{Targets: []domain.Family{domain.FamilyPushTask}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Existing)
}

func TestPublishFailureLeavesTasksForSync(t *testing.T) {
	env := testkit.New(t, "UTC")
	testkit.Create(env, reconcile.HabitFamily, env.Workspace.RefID, "Run", domain.HabitData{GenParams: weekly()})
	env.Remote.FailNext("CreateItem", fmt.Errorf("%w: reset by peer", domain.ErrRemoteUnavailable))

	res, err := New(env.Engine).Run(env.Ctx, Options{Periods: []domain.Period{domain.PeriodWeekly}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRemoteUnavailable))
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 0, res.Published)

	tasks := testkit.All(env, reconcile.InboxTaskFamily)
	require.Len(t, tasks, 1)

	sync, err := reconcile.NewReconciler(env.Engine, reconcile.InboxTaskFamily).Sync(env.Ctx, env.Inbox(), reconcile.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, sync.Report.RemoteCreated)
	assert.True(t, env.Link(domain.LinkItem, env.Inbox().Key.Leaf(tasks[0].RefID)).IsFound())
}
