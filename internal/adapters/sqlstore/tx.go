package sqlstore

import (
	"context"
	"database/sql"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

// tx implements ports.Tx
type tx struct {
	tx *sql.Tx
	d  dialect
}

var _ ports.Tx = (*tx)(nil)

func (t *tx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.d.rebind(query), args...)
}

func (t *tx) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.d.rebind(query), args...)
}

func (t *tx) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.d.rebind(query), args...)
}

// insert runs an INSERT and returns the generated value of idColumn
func (t *tx) insert(ctx context.Context, idColumn, query string, args ...any) (int64, error) {
	if t.d.returningID() {
		var id int64
		err := t.queryRow(ctx, query+" RETURNING "+idColumn, args...).Scan(&id)
		return id, err
	}
	res, err := t.exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (t *tx) Workspaces() ports.WorkspaceRepository { return &workspaceRepo{tx: t} }

func (t *tx) Projects() ports.LeafRepository[domain.ProjectData] {
	return newLeafRepo[domain.ProjectData](t, domain.FamilyProject)
}

func (t *tx) InboxTasks() ports.LeafRepository[domain.InboxTaskData] {
	return newLeafRepo[domain.InboxTaskData](t, domain.FamilyInboxTask)
}

func (t *tx) BigPlans() ports.LeafRepository[domain.BigPlanData] {
	return newLeafRepo[domain.BigPlanData](t, domain.FamilyBigPlan)
}

func (t *tx) Habits() ports.LeafRepository[domain.HabitData] {
	return newLeafRepo[domain.HabitData](t, domain.FamilyHabit)
}

func (t *tx) Chores() ports.LeafRepository[domain.ChoreData] {
	return newLeafRepo[domain.ChoreData](t, domain.FamilyChore)
}

func (t *tx) Metrics() ports.LeafRepository[domain.MetricData] {
	return newLeafRepo[domain.MetricData](t, domain.FamilyMetric)
}

func (t *tx) MetricEntries() ports.LeafRepository[domain.MetricEntryData] {
	return newLeafRepo[domain.MetricEntryData](t, domain.FamilyMetricEntry)
}

func (t *tx) Persons() ports.LeafRepository[domain.PersonData] {
	return newLeafRepo[domain.PersonData](t, domain.FamilyPerson)
}

func (t *tx) SmartLists() ports.LeafRepository[domain.SmartListData] {
	return newLeafRepo[domain.SmartListData](t, domain.FamilySmartList)
}

func (t *tx) SmartListTags() ports.LeafRepository[domain.SmartListTagData] {
	return newLeafRepo[domain.SmartListTagData](t, domain.FamilySmartListTag)
}

func (t *tx) SmartListItems() ports.LeafRepository[domain.SmartListItemData] {
	return newLeafRepo[domain.SmartListItemData](t, domain.FamilySmartListItem)
}

func (t *tx) Vacations() ports.LeafRepository[domain.VacationData] {
	return newLeafRepo[domain.VacationData](t, domain.FamilyVacation)
}

func (t *tx) PushTasks() ports.LeafRepository[domain.PushTaskData] {
	return newLeafRepo[domain.PushTaskData](t, domain.FamilyPushTask)
}

func (t *tx) Links(kind domain.LinkKind) ports.LinkRepository {
	return &linkRepo{tx: t, kind: kind, table: linkTable(kind)}
}

func (t *tx) Events() ports.EventRepository { return &eventRepo{tx: t} }

// Commit commits the transaction
func (t *tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction
func (t *tx) Rollback() error {
	return t.tx.Rollback()
}
