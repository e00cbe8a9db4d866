package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"jupiter/internal/application"
	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/reconcile"
)

// SyncTargets are the families sync accepts, in the order they run.
// Labels go first so the collections synced after them carry current
// options.
var SyncTargets = []domain.Family{
	domain.FamilyProject, domain.FamilyBigPlan, domain.FamilyInboxTask, domain.FamilyHabit,
	domain.FamilyChore, domain.FamilyMetric, domain.FamilyMetricEntry, domain.FamilyPerson,
	domain.FamilySmartList, domain.FamilyVacation, domain.FamilyPushTask,
}

// SyncResult contains one report per pass
type SyncResult struct {
	Reports []reconcile.Report
	Message string
}

// SyncCommand reconciles the selected families with the remote
type SyncCommand struct {
	env                   *application.Env
	Targets               []string
	Prefer                string
	DropAllRemote         bool
	SyncEvenIfNotModified bool
	Filter                []string
}

// NewSyncCommand creates a new SyncCommand
func NewSyncCommand(env *application.Env, targets []string, prefer string) *SyncCommand {
	return &SyncCommand{env: env, Targets: targets, Prefer: prefer}
}

// Validate checks targets, prefer and filter identities
func (c *SyncCommand) Validate() error {
	if _, err := application.ParseTargets(c.Targets, SyncTargets); err != nil {
		return err
	}
	if c.Prefer != "" {
		if _, err := reconcile.ParsePrefer(c.Prefer); err != nil {
			return &application.ValidationError{Field: "prefer", Message: err.Error()}
		}
	}
	_, err := application.ValidateRefIDs("filter", c.Filter)
	return err
}

// Execute runs the passes in SyncTargets order. It stops at the first
// failing pass; the reports of the passes that ran are returned with it.
func (c *SyncCommand) Execute(ctx context.Context) (*SyncResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	targets, _ := application.ParseTargets(c.Targets, SyncTargets)
	ids, _ := application.ValidateRefIDs("filter", c.Filter)
	opts := reconcile.Options{
		Prefer:                reconcile.PreferRemote,
		SyncEvenIfNotModified: c.SyncEvenIfNotModified,
		FilterRefIDs:          ids,
		DropAllRemote:         c.DropAllRemote,
	}
	if c.Prefer != "" {
		opts.Prefer, _ = reconcile.ParsePrefer(c.Prefer)
	}
	ws, err := c.env.Workspace(ctx)
	if err != nil {
		return nil, err
	}

	s := &syncRun{env: c.env, engine: c.env.Engine(), ws: ws, opts: opts}
	for _, f := range SyncTargets {
		if !slices.Contains(targets, f) {
			continue
		}
		if err := s.family(ctx, f); err != nil {
			return s.result(), fmt.Errorf("sync of %s failed: %w", f, err)
		}
	}
	return s.result(), nil
}

type syncRun struct {
	env     *application.Env
	engine  *reconcile.Engine
	ws      domain.Workspace
	opts    reconcile.Options
	reports []reconcile.Report
}

func (s *syncRun) result() *SyncResult {
	lines := make([]string, 0, len(s.reports))
	for _, r := range s.reports {
		lines = append(lines, r.String())
	}
	if len(lines) == 0 {
		lines = append(lines, "Nothing to sync")
	}
	return &SyncResult{Reports: s.reports, Message: strings.Join(lines, "\n")}
}

func (s *syncRun) family(ctx context.Context, f domain.Family) error {
	switch f {
	case domain.FamilyProject:
		return s.labels(ctx, f, domain.PropProject)
	case domain.FamilyBigPlan:
		if err := syncWorkspace(ctx, s, reconcile.BigPlanFamily); err != nil {
			return err
		}
		return s.labels(ctx, f, domain.PropBigPlan)
	case domain.FamilyInboxTask:
		return syncWorkspace(ctx, s, reconcile.InboxTaskFamily)
	case domain.FamilyHabit:
		return syncWorkspace(ctx, s, reconcile.HabitFamily)
	case domain.FamilyChore:
		return syncWorkspace(ctx, s, reconcile.ChoreFamily)
	case domain.FamilyMetric:
		return syncWorkspace(ctx, s, reconcile.MetricFamily)
	case domain.FamilyMetricEntry:
		return s.metricEntries(ctx)
	case domain.FamilyPerson:
		return syncWorkspace(ctx, s, reconcile.PersonFamily)
	case domain.FamilySmartList:
		return s.smartLists(ctx)
	case domain.FamilyVacation:
		return syncWorkspace(ctx, s, reconcile.VacationFamily)
	case domain.FamilyPushTask:
		return syncWorkspace(ctx, s, reconcile.PushTaskFamily)
	}
	return fmt.Errorf("%w: no sync for %s", domain.ErrInvariantViolation, f)
}

// labels refreshes the options of a label property on every collection
func (s *syncRun) labels(ctx context.Context, f domain.Family, prop string) error {
	n, err := reconcile.NewLabelSync(s.engine).Refresh(ctx, prop)
	if err != nil {
		return err
	}
	s.env.Logger.Debug("refreshed label options", "property", prop, "collections", n)
	if f == domain.FamilyProject {
		s.reports = append(s.reports, reconcile.Report{Family: f})
	}
	return nil
}

func syncWorkspace[P any](ctx context.Context, s *syncRun, fam reconcile.Family[P]) error {
	res, err := reconcile.NewReconciler(s.engine, fam).Sync(ctx, reconcile.WorkspaceCollection(s.ws, fam), s.opts)
	s.reports = append(s.reports, res.Report)
	return err
}

func (s *syncRun) metricEntries(ctx context.Context) error {
	var metrics []domain.Metric
	err := ports.InTx(ctx, s.env.Store, func(tx ports.Tx) error {
		var err error
		metrics, err = tx.Metrics().FindAll(ctx, ports.Filter{})
		return err
	})
	if err != nil {
		return err
	}
	total := reconcile.Report{Family: domain.FamilyMetricEntry}
	var errs []error
	for _, m := range metrics {
		coll := reconcile.BranchCollection(s.ws, reconcile.MetricEntryFamily, m.RefID, m.Name)
		res, err := reconcile.NewReconciler(s.engine, reconcile.MetricEntryFamily).Sync(ctx, coll, s.opts)
		total = addReport(total, res.Report)
		if err != nil {
			errs = append(errs, fmt.Errorf("metric %d: %w", m.RefID, err))
		}
	}
	s.reports = append(s.reports, total)
	return errors.Join(errs...)
}

// smartLists syncs the tags, then the items, of every live smart list
func (s *syncRun) smartLists(ctx context.Context) error {
	var lists []domain.SmartList
	err := ports.InTx(ctx, s.env.Store, func(tx ports.Tx) error {
		var err error
		lists, err = tx.SmartLists().FindAll(ctx, ports.Filter{})
		return err
	})
	if err != nil {
		return err
	}
	tags := reconcile.Report{Family: domain.FamilySmartListTag}
	items := reconcile.Report{Family: domain.FamilySmartListItem}
	var errs []error
	for _, l := range lists {
		r, err := reconcile.NewTagSync(s.engine).Sync(ctx, l, s.opts)
		tags = addReport(tags, r)
		if err != nil {
			errs = append(errs, fmt.Errorf("smart list %d tags: %w", l.RefID, err))
			continue
		}
		res, err := reconcile.NewReconciler(s.engine, reconcile.SmartListItemFamily).Sync(ctx, reconcile.SmartListCollection(s.ws, l), s.opts)
		items = addReport(items, res.Report)
		if err != nil {
			errs = append(errs, fmt.Errorf("smart list %d items: %w", l.RefID, err))
		}
	}
	s.reports = append(s.reports, tags, items)
	return errors.Join(errs...)
}

func addReport(a, b reconcile.Report) reconcile.Report {
	a.LocalCreated += b.LocalCreated
	a.LocalUpdated += b.LocalUpdated
	a.RemoteCreated += b.RemoteCreated
	a.RemoteUpdated += b.RemoteUpdated
	a.RemoteDropped += b.RemoteDropped
	a.LinksCreated += b.LinksCreated
	a.LinksReaped += b.LinksReaped
	a.Skipped += b.Skipped
	a.RemoteMissing += b.RemoteMissing
	return a
}
