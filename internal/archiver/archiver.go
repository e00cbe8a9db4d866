// Package archiver archives or removes an entity together with everything
// that hangs from it, locally first and then on the remote.
package archiver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/reconcile"
)

// ErrNotArchivable is returned for families the archiver has no cascade for
var ErrNotArchivable = errors.New("family cannot be archived")

// Result counts what a cascade did
type Result struct {
	// Archived counts local entities archived, or removed in Remove
	Archived       int
	RemoteArchived int
	// RemoteMissing counts linked remote items that were already gone
	RemoteMissing int
}

type Archiver struct {
	engine *reconcile.Engine
}

func New(engine *reconcile.Engine) *Archiver {
	return &Archiver{engine: engine}
}

// Archive marks the entity and its non-archived children archived, then
// removes their remote counterparts. Local changes commit before any remote
// call; a transport failure stops the remote work and is returned.
func (a *Archiver) Archive(ctx context.Context, family domain.Family, id domain.EntityID) (Result, error) {
	return a.run(ctx, family, id, false)
}

// Remove deletes the entity and all its children locally and remotely
func (a *Archiver) Remove(ctx context.Context, family domain.Family, id domain.EntityID) (Result, error) {
	return a.run(ctx, family, id, true)
}

type target struct {
	coll reconcile.Collection
	ref  domain.EntityID
}

// cascade collects the local changes of one run inside its transaction
type cascade struct {
	ctx     context.Context
	tx      ports.Tx
	ws      domain.Workspace
	now     time.Time
	remove  bool
	changed int
	targets []target
	colls   []reconcile.Collection
}

func (a *Archiver) run(ctx context.Context, family domain.Family, id domain.EntityID, remove bool) (Result, error) {
	var res Result
	e := a.engine
	ws, err := e.Workspace(ctx)
	if err != nil {
		return res, err
	}

	c := &cascade{ctx: ctx, ws: ws, now: e.Clock().Now(), remove: remove}
	err = ports.InTx(ctx, e.Store(), func(tx ports.Tx) error {
		c.tx = tx
		return c.visit(family, id)
	})
	if err != nil {
		return res, err
	}
	res.Archived = c.changed

	for _, t := range c.targets {
		outcome, err := e.RemoveItem(ctx, t.coll, t.ref)
		if err != nil {
			e.Logger().Warn("archive cascade stopped", "family", t.coll.Family, "ref_id", t.ref, "error", err)
			return res, err
		}
		switch outcome {
		case reconcile.ItemDeleted:
			res.RemoteArchived++
		case reconcile.ItemMissing:
			res.RemoteMissing++
		}
	}
	for _, coll := range c.colls {
		if err := e.DropCollection(ctx, coll); err != nil {
			return res, err
		}
	}

	e.Logger().Info("archived", "family", family, "ref_id", id, "remove", remove,
		"local", res.Archived, "remote", res.RemoteArchived, "remote_missing", res.RemoteMissing)
	return res, nil
}

func (c *cascade) visit(family domain.Family, id domain.EntityID) error {
	inbox := reconcile.WorkspaceCollection(c.ws, reconcile.InboxTaskFamily)
	top := func(coll reconcile.Collection) func(domain.EntityID) reconcile.Collection {
		return func(domain.EntityID) reconcile.Collection { return coll }
	}

	switch family {
	case domain.FamilyInboxTask:
		_, err := settleOne(c, reconcile.InboxTaskFamily, id, top(inbox))
		return err

	case domain.FamilyBigPlan:
		if _, err := settleOne(c, reconcile.BigPlanFamily, id, top(reconcile.WorkspaceCollection(c.ws, reconcile.BigPlanFamily))); err != nil {
			return err
		}
		return c.inboxTasks(inbox, domain.SourceBigPlan, id)

	case domain.FamilyHabit:
		if _, err := settleOne(c, reconcile.HabitFamily, id, top(reconcile.WorkspaceCollection(c.ws, reconcile.HabitFamily))); err != nil {
			return err
		}
		return c.inboxTasks(inbox, domain.SourceHabit, id)

	case domain.FamilyChore:
		if _, err := settleOne(c, reconcile.ChoreFamily, id, top(reconcile.WorkspaceCollection(c.ws, reconcile.ChoreFamily))); err != nil {
			return err
		}
		return c.inboxTasks(inbox, domain.SourceChore, id)

	case domain.FamilyPerson:
		if _, err := settleOne(c, reconcile.PersonFamily, id, top(reconcile.WorkspaceCollection(c.ws, reconcile.PersonFamily))); err != nil {
			return err
		}
		if err := c.inboxTasks(inbox, domain.SourcePersonCatchUp, id); err != nil {
			return err
		}
		return c.inboxTasks(inbox, domain.SourcePersonBirthday, id)

	case domain.FamilyPushTask:
		push, err := settleOne(c, reconcile.PushTaskFamily, id, top(reconcile.WorkspaceCollection(c.ws, reconcile.PushTaskFamily)))
		if err != nil {
			return err
		}
		return c.inboxTasks(inbox, push.Payload.Source(), id)

	case domain.FamilyVacation:
		_, err := settleOne(c, reconcile.VacationFamily, id, top(reconcile.WorkspaceCollection(c.ws, reconcile.VacationFamily)))
		return err

	case domain.FamilyMetric:
		metric, err := settleOne(c, reconcile.MetricFamily, id, top(reconcile.WorkspaceCollection(c.ws, reconcile.MetricFamily)))
		if err != nil {
			return err
		}
		if err := c.inboxTasks(inbox, domain.SourceMetric, id); err != nil {
			return err
		}
		entries := reconcile.BranchCollection(c.ws, reconcile.MetricEntryFamily, id, metric.Name)
		if err := settleChildren(c, reconcile.MetricEntryFamily, id, top(entries)); err != nil {
			return err
		}
		c.colls = append(c.colls, entries)
		return nil

	case domain.FamilyMetricEntry:
		_, err := settleOne(c, reconcile.MetricEntryFamily, id, c.branchOf(reconcile.MetricEntryFamily.Name))
		return err

	case domain.FamilySmartList:
		repo := c.tx.SmartLists()
		list, err := repo.Load(c.ctx, id, true)
		if err != nil {
			return err
		}
		if err := settle(c, repo, list, nil); err != nil {
			return err
		}
		items := reconcile.SmartListCollection(c.ws, list)
		if err := settleChildren(c, reconcile.SmartListItemFamily, id, top(items)); err != nil {
			return err
		}
		if err := c.tags(items, id, nil); err != nil {
			return err
		}
		c.colls = append(c.colls, items)
		return nil

	case domain.FamilySmartListItem:
		_, err := settleOne(c, reconcile.SmartListItemFamily, id, c.branchOf(reconcile.SmartListItemFamily.Name))
		return err

	case domain.FamilySmartListTag:
		tag, err := c.tx.SmartListTags().Load(c.ctx, id, true)
		if err != nil {
			return err
		}
		items := reconcile.Collection{Key: domain.CollectionScope(domain.FamilySmartListItem, c.ws.RefID, tag.ParentRefID)}
		return c.tags(items, tag.ParentRefID, []domain.EntityID{id})
	}
	return fmt.Errorf("%w: %s", ErrNotArchivable, family)
}

// branchOf locates the branch collection a leaf of family lives in
func (c *cascade) branchOf(family domain.Family) func(domain.EntityID) reconcile.Collection {
	return func(owner domain.EntityID) reconcile.Collection {
		return reconcile.Collection{
			Family: family,
			Key:    domain.CollectionScope(family, c.ws.RefID, owner),
			Trunk:  domain.TrunkScope(c.ws.RefID),
			Owner:  owner,
		}
	}
}

// settle archives or removes one leaf and queues its remote item. coll maps
// the leaf's parent to its collection; nil means the leaf has no item.
func settle[P any](c *cascade, repo ports.LeafRepository[P], l domain.Leaf[P], coll func(domain.EntityID) reconcile.Collection) error {
	switch {
	case c.remove:
		if _, err := repo.Remove(c.ctx, l.RefID); err != nil {
			return err
		}
		c.changed++
	case !l.Archived:
		if _, err := repo.Save(c.ctx, l.MarkArchived(c.now)); err != nil {
			return err
		}
		c.changed++
	}
	if coll != nil {
		c.targets = append(c.targets, target{coll: coll(l.ParentRefID), ref: l.RefID})
	}
	return nil
}

func settleOne[P any](c *cascade, fam reconcile.Family[P], id domain.EntityID, coll func(domain.EntityID) reconcile.Collection) (domain.Leaf[P], error) {
	repo := fam.Repo(c.tx)
	leaf, err := repo.Load(c.ctx, id, true)
	if err != nil {
		return leaf, err
	}
	return leaf, settle(c, repo, leaf, coll)
}

// settleChildren handles every child of parent in a branch family. Children
// archived earlier are revisited so a rerun finishes interrupted remote work.
func settleChildren[P any](c *cascade, fam reconcile.Family[P], parent domain.EntityID, coll func(domain.EntityID) reconcile.Collection) error {
	repo := fam.Repo(c.tx)
	children, err := repo.FindAll(c.ctx, ports.Filter{ParentRefIDs: []domain.EntityID{parent}, AllowArchived: true})
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := settle(c, repo, child, coll); err != nil {
			return err
		}
	}
	return nil
}

// inboxTasks handles the inbox tasks produced by, or assigned to, parent
func (c *cascade) inboxTasks(inbox reconcile.Collection, source domain.InboxTaskSource, parent domain.EntityID) error {
	repo := c.tx.InboxTasks()
	tasks, err := repo.FindAll(c.ctx, ports.Filter{AllowArchived: true})
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if !task.Payload.BelongsTo(source, parent) {
			continue
		}
		if err := settle(c, repo, task, func(domain.EntityID) reconcile.Collection { return inbox }); err != nil {
			return err
		}
	}
	return nil
}

// tags handles smart list tags, all of the list's when ids is empty. Tags
// map to select options rather than items, so only their links go.
func (c *cascade) tags(items reconcile.Collection, list domain.EntityID, ids []domain.EntityID) error {
	repo := c.tx.SmartListTags()
	tags, err := repo.FindAll(c.ctx, ports.Filter{ParentRefIDs: []domain.EntityID{list}, RefIDs: ids, AllowArchived: true})
	if err != nil {
		return err
	}
	links := c.tx.Links(domain.LinkFieldTag)
	for _, tag := range tags {
		if err := settle(c, repo, tag, nil); err != nil {
			return err
		}
		if err := links.Remove(c.ctx, items.Key.Leaf(tag.RefID)); err != nil {
			return err
		}
	}
	return nil
}
