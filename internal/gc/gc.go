// Package gc removes the remote counterparts of archived entities and of
// inbox tasks that reached a terminal status.
package gc

import (
	"context"
	"fmt"
	"slices"
	"time"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/reconcile"
)

// Targets are the families the collector can sweep
var Targets = []domain.Family{
	domain.FamilyInboxTask, domain.FamilyBigPlan, domain.FamilyHabit, domain.FamilyChore,
	domain.FamilyMetric, domain.FamilyMetricEntry, domain.FamilyPerson, domain.FamilySmartListItem,
	domain.FamilyVacation, domain.FamilyPushTask,
}

type Options struct {
	// Targets to sweep; empty means all
	Targets []domain.Family
	// OlderThan keeps candidates touched within the window; zero sweeps everything
	OlderThan time.Duration
}

func (o Options) target(f domain.Family) bool {
	return len(o.Targets) == 0 || slices.Contains(o.Targets, f)
}

type Result struct {
	// Archived counts completed entities archived by this run
	Archived      int
	RemoteRemoved int
	// RemoteMissing counts linked items that were already gone
	RemoteMissing int
}

type Collector struct {
	engine *reconcile.Engine
}

func New(engine *reconcile.Engine) *Collector {
	return &Collector{engine: engine}
}

type sweep struct {
	ctx    context.Context
	e      *reconcile.Engine
	ws     domain.Workspace
	now    time.Time
	cutoff time.Time
	res    *Result
}

// Run sweeps each target. Completed leaves are archived locally before any
// remote call so the next sync leaves them alone; a transport failure stops
// the run with local state already committed.
func (c *Collector) Run(ctx context.Context, opts Options) (Result, error) {
	var res Result
	for _, t := range opts.Targets {
		if !slices.Contains(Targets, t) {
			return res, fmt.Errorf("%s cannot be garbage collected", t)
		}
	}
	e := c.engine
	ws, err := e.Workspace(ctx)
	if err != nil {
		return res, err
	}
	s := &sweep{ctx: ctx, e: e, ws: ws, now: e.Clock().Now(), res: &res}
	s.cutoff = s.now
	if opts.OlderThan > 0 {
		s.cutoff = s.now.Add(-opts.OlderThan)
	}

	steps := []struct {
		family domain.Family
		fn     func() error
	}{
		{domain.FamilyInboxTask, func() error {
			return collect(s, reconcile.InboxTaskFamily, reconcile.WorkspaceCollection(ws, reconcile.InboxTaskFamily),
				func(t domain.InboxTask) bool { return t.Payload.Status.IsCompleted() })
		}},
		{domain.FamilyBigPlan, func() error {
			return collect(s, reconcile.BigPlanFamily, reconcile.WorkspaceCollection(ws, reconcile.BigPlanFamily), nil)
		}},
		{domain.FamilyHabit, func() error {
			return collect(s, reconcile.HabitFamily, reconcile.WorkspaceCollection(ws, reconcile.HabitFamily), nil)
		}},
		{domain.FamilyChore, func() error {
			return collect(s, reconcile.ChoreFamily, reconcile.WorkspaceCollection(ws, reconcile.ChoreFamily), nil)
		}},
		{domain.FamilyMetric, func() error {
			return collect(s, reconcile.MetricFamily, reconcile.WorkspaceCollection(ws, reconcile.MetricFamily), nil)
		}},
		{domain.FamilyMetricEntry, s.metricEntries},
		{domain.FamilyPerson, func() error {
			return collect(s, reconcile.PersonFamily, reconcile.WorkspaceCollection(ws, reconcile.PersonFamily), nil)
		}},
		{domain.FamilySmartListItem, s.smartListItems},
		{domain.FamilyVacation, func() error {
			return collect(s, reconcile.VacationFamily, reconcile.WorkspaceCollection(ws, reconcile.VacationFamily), nil)
		}},
		{domain.FamilyPushTask, func() error {
			return collect(s, reconcile.PushTaskFamily, reconcile.WorkspaceCollection(ws, reconcile.PushTaskFamily), nil)
		}},
	}
	for _, step := range steps {
		if !opts.target(step.family) {
			continue
		}
		if err := step.fn(); err != nil {
			return res, fmt.Errorf("failed to collect %s: %w", step.family, err)
		}
	}
	e.Logger().Info("garbage collected", "archived", res.Archived, "remote_removed", res.RemoteRemoved, "remote_missing", res.RemoteMissing)
	return res, nil
}

func (s *sweep) metricEntries() error {
	var metrics []domain.Metric
	err := ports.InTx(s.ctx, s.e.Store(), func(tx ports.Tx) error {
		var err error
		metrics, err = tx.Metrics().FindAll(s.ctx, ports.Filter{})
		return err
	})
	if err != nil {
		return err
	}
	for _, m := range metrics {
		coll := reconcile.BranchCollection(s.ws, reconcile.MetricEntryFamily, m.RefID, m.Name)
		if err := collect(s, reconcile.MetricEntryFamily, coll, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *sweep) smartListItems() error {
	var lists []domain.SmartList
	err := ports.InTx(s.ctx, s.e.Store(), func(tx ports.Tx) error {
		var err error
		lists, err = tx.SmartLists().FindAll(s.ctx, ports.Filter{})
		return err
	})
	if err != nil {
		return err
	}
	for _, l := range lists {
		done := func(it domain.SmartListItem) bool { return it.Payload.IsDone }
		if err := collect(s, reconcile.SmartListItemFamily, reconcile.SmartListCollection(s.ws, l), done); err != nil {
			return err
		}
	}
	return nil
}

// stale reports whether the leaf has been at rest since before the cutoff
func (s *sweep) stale(at time.Time) bool {
	return !at.After(s.cutoff)
}

// collect archives the completed leaves of coll, then removes the remote
// item of every archived leaf
func collect[P any](s *sweep, fam reconcile.Family[P], coll reconcile.Collection, completed func(domain.Leaf[P]) bool) error {
	var gone []domain.EntityID
	err := ports.InTx(s.ctx, s.e.Store(), func(tx ports.Tx) error {
		repo := fam.Repo(tx)
		leaves, err := repo.FindAll(s.ctx, ports.Filter{ParentRefIDs: []domain.EntityID{coll.Owner}, AllowArchived: true})
		if err != nil {
			return err
		}
		for _, leaf := range leaves {
			if leaf.Archived {
				if leaf.ArchivedTime == nil || s.stale(*leaf.ArchivedTime) {
					gone = append(gone, leaf.RefID)
				}
				continue
			}
			if completed == nil || !completed(leaf) || !s.stale(leaf.LastModifiedTime) {
				continue
			}
			if _, err := repo.Save(s.ctx, leaf.MarkArchived(s.now)); err != nil {
				return err
			}
			s.res.Archived++
			gone = append(gone, leaf.RefID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range gone {
		outcome, err := s.e.RemoveItem(s.ctx, coll, id)
		if err != nil {
			return err
		}
		switch outcome {
		case reconcile.ItemDeleted:
			s.res.RemoteRemoved++
		case reconcile.ItemMissing:
			s.res.RemoteMissing++
		}
	}
	return nil
}
