// Package reconcile makes local entities and their remote collection items
// converge.
package reconcile

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"jupiter/internal/domain"
	"jupiter/internal/logging"
	"jupiter/internal/ports"
	"jupiter/internal/schema"
)

// Prefer selects the side that wins a conflict
type Prefer string

const (
	PreferLocal  Prefer = "local"
	PreferRemote Prefer = "remote"
)

func ParsePrefer(s string) (Prefer, error) {
	return domain.ParseEnum("prefer", s, []Prefer{PreferLocal, PreferRemote})
}

// Options tune one reconciliation pass
type Options struct {
	Prefer Prefer
	// SyncEvenIfNotModified rewrites every mapped property of paired items
	// instead of only the ones that differ
	SyncEvenIfNotModified bool
	// FilterRefIDs restricts the pass to these local identities. Rows added
	// on the remote have no identity yet and are left for an unfiltered pass.
	FilterRefIDs []domain.EntityID
	// DropAllRemote deletes the remote items before the pass, only those of
	// the filtered identities when a filter is set
	DropAllRemote bool
}

func (o Options) includes(id domain.EntityID) bool {
	return len(o.FilterRefIDs) == 0 || slices.Contains(o.FilterRefIDs, id)
}

// Report counts what a pass did
type Report struct {
	Family        domain.Family
	LocalCreated  int
	LocalUpdated  int
	RemoteCreated int
	RemoteUpdated int
	RemoteDropped int
	LinksCreated  int
	LinksReaped   int
	Skipped       int
	// RemoteMissing counts remote writes that found nothing to write to
	RemoteMissing int
}

func (r Report) String() string {
	return fmt.Sprintf("%s: %d local created, %d local updated, %d remote created, %d remote updated, %d remote dropped, %d links reaped",
		r.Family, r.LocalCreated, r.LocalUpdated, r.RemoteCreated, r.RemoteUpdated, r.RemoteDropped, r.LinksReaped)
}

// Engine holds what every reconciliation needs
type Engine struct {
	store    ports.Store
	remote   ports.RemoteGateway
	clock    ports.Clock
	logger   *slog.Logger
	metrics  *Metrics
	location *time.Location
}

// NewEngine wires an engine. A nil logger discards; a nil metrics value
// disables counting.
func NewEngine(store ports.Store, remote ports.RemoteGateway, clock ports.Clock, logger *slog.Logger, metrics *Metrics) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Engine{store: store, remote: remote, clock: clock, logger: logger, metrics: metrics}
}

// WithLocation overrides the workspace timezone
func (e *Engine) WithLocation(loc *time.Location) *Engine {
	c := *e
	c.location = loc
	return &c
}

func (e *Engine) Store() ports.Store { return e.store }
func (e *Engine) Remote() ports.RemoteGateway { return e.remote }
func (e *Engine) Clock() ports.Clock { return e.clock }
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Location is the timezone dates are rendered in
func (e *Engine) Location(ws domain.Workspace) *time.Location {
	if e.location != nil {
		return e.location
	}
	return ws.Location()
}

// Workspace loads the workspace
func (e *Engine) Workspace(ctx context.Context) (domain.Workspace, error) {
	var ws domain.Workspace
	err := ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		var err error
		ws, err = tx.Workspaces().Load(ctx)
		return err
	})
	return ws, err
}

// LoadLookup reads the label sets the field mappings of coll resolve against
func (e *Engine) LoadLookup(ctx context.Context, tx ports.Tx, ws domain.Workspace, coll Collection) (Lookup, error) {
	projects, err := tx.Projects().FindAll(ctx, ports.Filter{})
	if err != nil {
		return Lookup{}, err
	}
	bigPlans, err := tx.BigPlans().FindAll(ctx, ports.Filter{})
	if err != nil {
		return Lookup{}, err
	}
	lk := Lookup{
		Projects:       NewLabelSet(projects),
		BigPlans:       NewLabelSet(bigPlans),
		DefaultProject: ws.DefaultProjectRefID,
		Location:       e.Location(ws),
	}
	if coll.Family == domain.FamilySmartListItem {
		tags, err := tx.SmartListTags().FindAll(ctx, ports.Filter{ParentRefIDs: []domain.EntityID{coll.Owner}})
		if err != nil {
			return Lookup{}, err
		}
		lk.Tags = NewLabelSet(tags)
	}
	return lk, nil
}

// Lookup loads the label sets in a transaction of its own
func (e *Engine) Lookup(ctx context.Context, ws domain.Workspace, coll Collection) (Lookup, error) {
	var lk Lookup
	err := ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		var err error
		lk, err = e.LoadLookup(ctx, tx, ws, coll)
		return err
	})
	return lk, err
}

// Reconciler runs passes for one family
type Reconciler[P any] struct {
	engine *Engine
	family Family[P]
}

func NewReconciler[P any](engine *Engine, family Family[P]) *Reconciler[P] {
	return &Reconciler[P]{engine: engine, family: family}
}

func (r *Reconciler[P]) Family() Family[P] { return r.family }

// SyncResult is the outcome of a pass: its counters and the local set
// after the pass
type SyncResult[P any] struct {
	Report
	Locals []domain.Leaf[P]
}

type remoteWrite struct {
	id    domain.RemoteID
	refID domain.EntityID
	props domain.Properties
}

type plan[P any] struct {
	drops   []domain.RemoteID
	updates []remoteWrite
	creates []domain.Leaf[P]
}

// Sync runs one pass over coll. Local changes, including link changes,
// commit in one transaction before any remote write; links for items
// created on the remote are recorded in a second one. Remote failures
// after the local commit leave local state as committed.
func (r *Reconciler[P]) Sync(ctx context.Context, coll Collection, opts Options) (SyncResult[P], error) {
	e := r.engine
	if opts.Prefer == "" {
		opts.Prefer = PreferRemote
	}
	result := SyncResult[P]{Report: Report{Family: r.family.Name}}

	ws, err := e.Workspace(ctx)
	if err != nil {
		return result, err
	}
	lk, err := e.Lookup(ctx, ws, coll)
	if err != nil {
		return result, err
	}
	remoteColl, err := e.EnsureCollection(ctx, coll, r.family.Schema(lk), schema.Hint{})
	if err != nil {
		return result, err
	}

	items, err := e.remote.ListItems(ctx, remoteColl.ID)
	if err != nil {
		e.metrics.remoteError(r.family.Name, err)
		return result, fmt.Errorf("failed to list %s: %w", coll.Key, err)
	}
	if opts.DropAllRemote {
		var kept []domain.RemoteItem
		for _, item := range items {
			if len(opts.FilterRefIDs) > 0 {
				if ref, ok := item.RefID().Get(); !ok || !opts.includes(ref) {
					kept = append(kept, item)
					continue
				}
			}
			if err := r.dropRemote(ctx, item.ID, &result.Report); err != nil {
				return result, err
			}
		}
		items = kept
	}

	var p plan[P]
	err = ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		var err error
		p, result.Locals, err = r.plan(ctx, tx, coll, items, lk, opts, &result.Report)
		return err
	})
	if err != nil {
		return result, err
	}

	remoteErr := r.applyRemote(ctx, coll, remoteColl.ID, p, lk, &result)

	e.record(result.Report)
	e.logger.Info("reconciled", "family", r.family.Name, "collection", coll.Key,
		"local_created", result.LocalCreated, "local_updated", result.LocalUpdated,
		"remote_created", result.RemoteCreated, "remote_updated", result.RemoteUpdated,
		"remote_dropped", result.RemoteDropped, "links_reaped", result.LinksReaped)
	return result, remoteErr
}

func (r *Reconciler[P]) plan(ctx context.Context, tx ports.Tx, coll Collection, items []domain.RemoteItem,
	lk Lookup, opts Options, report *Report) (plan[P], []domain.Leaf[P], error) {
	var p plan[P]
	now := r.engine.clock.Now()
	repo := r.family.Repo(tx)
	links := tx.Links(domain.LinkItem)

	locals, err := repo.FindAll(ctx, ports.Filter{ParentRefIDs: []domain.EntityID{coll.Owner}, AllowArchived: true})
	if err != nil {
		return p, nil, err
	}
	byRef := make(map[domain.EntityID]domain.Leaf[P], len(locals))
	for _, l := range locals {
		byRef[l.RefID] = l
	}

	scopeLinks, err := links.FindAllForScope(ctx, coll.Key)
	if err != nil {
		return p, nil, err
	}
	remoteByID := make(map[domain.RemoteID]bool, len(items))
	for _, item := range items {
		remoteByID[item.ID] = true
	}

	linked := map[domain.EntityID]domain.Link{}
	linkByRemote := map[domain.RemoteID]domain.Link{}
	for _, k := range scopeLinks {
		_, localAlive := byRef[k.RefID]
		if opts.includes(k.RefID) && (!remoteByID[k.RemoteID] || !localAlive) {
			if err := links.Remove(ctx, k.Key); err != nil {
				return p, nil, err
			}
			report.LinksReaped++
			continue
		}
		linked[k.RefID] = k
		linkByRemote[k.RemoteID] = k
	}

	for _, item := range items {
		if item.RefIDText() == "" {
			if len(opts.FilterRefIDs) > 0 || item.Name() == "" {
				report.Skipped++
				continue
			}
			leaf, write, err := r.adopt(ctx, tx, coll, item, lk, now)
			if err != nil {
				return p, nil, err
			}
			byRef[leaf.RefID] = leaf
			report.LocalCreated++
			report.LinksCreated++
			if len(write.props) > 0 {
				p.updates = append(p.updates, write)
			}
			continue
		}

		ref, hasRef := item.RefID().Get()
		if (hasRef && !opts.includes(ref)) || (!hasRef && len(opts.FilterRefIDs) > 0) {
			report.Skipped++
			continue
		}
		local, known := byRef[ref]
		link, isLinked := linked[ref]
		if !hasRef || !known || !isLinked || link.RemoteID != item.ID {
			if k, ok := linkByRemote[item.ID]; ok {
				if err := links.Remove(ctx, k.Key); err != nil {
					return p, nil, err
				}
				delete(linked, k.RefID)
				report.LinksReaped++
			}
			p.drops = append(p.drops, item.ID)
			continue
		}

		next, write, changed := r.resolve(local, item, lk, opts, now)
		if changed {
			saved, err := repo.Save(ctx, next)
			if err != nil {
				return p, nil, err
			}
			byRef[ref] = saved
			report.LocalUpdated++
		}
		if len(write.props) > 0 {
			p.updates = append(p.updates, write)
		}
	}

	for _, l := range locals {
		if l.Archived || !opts.includes(l.RefID) {
			continue
		}
		if _, ok := linked[l.RefID]; ok {
			continue
		}
		p.creates = append(p.creates, l)
	}

	out := make([]domain.Leaf[P], 0, len(byRef))
	for _, l := range byRef {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b domain.Leaf[P]) int { return cmp.Compare(a.RefID, b.RefID) })
	return p, out, nil
}

// adopt creates the local counterpart of a row added on the remote and
// links it. The returned write echoes the new identity and derived fields.
func (r *Reconciler[P]) adopt(ctx context.Context, tx ports.Tx, coll Collection, item domain.RemoteItem,
	lk Lookup, now time.Time) (domain.Leaf[P], remoteWrite, error) {
	leaf := domain.NewLeaf(coll.Owner, item.Name(), r.family.Default(lk), now)
	leaf = r.family.Absorb(leaf, item.Properties, lk)
	if item.IsArchived() {
		leaf = leaf.MarkArchived(now)
	}
	leaf, err := r.family.Repo(tx).Create(ctx, leaf)
	if err != nil {
		return leaf, remoteWrite{}, err
	}
	link := domain.NewLink(domain.LinkItem, coll.Key, leaf.RefID, item.ID, now)
	if _, err := tx.Links(domain.LinkItem).Create(ctx, link); err != nil {
		return leaf, remoteWrite{}, err
	}
	r.engine.logger.Debug("adopted remote item", "family", r.family.Name, "ref_id", leaf.RefID, "remote_id", item.ID)
	return leaf, remoteWrite{id: item.ID, refID: leaf.RefID, props: item.Properties.Diff(r.family.Render(leaf, lk), lk.Location)}, nil
}

// resolve decides a paired entity. The preferred side's fields move over
// when it was edited at or after the other side, or when every pair is to
// be rewritten; otherwise the fields of both sides stay as they are. The
// archived flag goes to the side edited last, ties to the preferred side.
func (r *Reconciler[P]) resolve(local domain.Leaf[P], item domain.RemoteItem, lk Lookup, opts Options,
	now time.Time) (domain.Leaf[P], remoteWrite, bool) {
	write := remoteWrite{id: item.ID, refID: local.RefID}
	remoteArchived := item.IsArchived()
	if local.Archived && remoteArchived {
		return local, write, false
	}

	archived := local.Archived
	if remoteArchived != local.Archived {
		switch {
		case item.LastEditedTime.After(local.LastModifiedTime):
			archived = remoteArchived
		case local.LastModifiedTime.After(item.LastEditedTime):
			archived = local.Archived
		case opts.Prefer == PreferRemote:
			archived = remoteArchived
		}
	}

	carry := opts.SyncEvenIfNotModified
	if opts.Prefer == PreferRemote {
		carry = carry || !item.LastEditedTime.Before(local.LastModifiedTime)
	} else {
		carry = carry || !local.LastModifiedTime.Before(item.LastEditedTime)
	}

	next := local
	if carry && opts.Prefer == PreferRemote {
		next = r.family.Absorb(local, item.Properties, lk)
	}
	changed := r.family.Differs(local, next, lk)
	if changed {
		next = next.Touch(now)
	}
	if archived && !next.Archived {
		next = next.MarkArchived(now)
		changed = true
	} else if !archived && next.Archived {
		next = next.MarkUnarchived(now)
		changed = true
	}

	if !carry {
		if next.Archived != remoteArchived {
			write.props = domain.Properties{domain.PropArchived: domain.CheckboxValue(next.Archived)}
		}
		r.engine.logger.Debug("preferred side is older, fields left alone", "family", r.family.Name, "ref_id", local.RefID,
			"prefer", opts.Prefer, "local_modified", local.LastModifiedTime, "remote_edited", item.LastEditedTime)
		return next, write, changed
	}

	desired := r.family.Render(next, lk)
	if opts.SyncEvenIfNotModified {
		write.props = desired
	} else {
		write.props = item.Properties.Diff(desired, lk.Location)
	}
	return next, write, changed
}

func (r *Reconciler[P]) dropRemote(ctx context.Context, id domain.RemoteID, report *Report) error {
	if err := r.engine.remote.DeleteItem(ctx, id); err != nil {
		if domain.IsRemoteNotFound(err) {
			report.RemoteMissing++
			return nil
		}
		r.engine.metrics.remoteError(r.family.Name, err)
		return fmt.Errorf("failed to drop remote item %s: %w", id, err)
	}
	report.RemoteDropped++
	return nil
}

// applyRemote performs the planned remote writes, then links the items it
// created. A missing remote object is logged and skipped; any other failure
// stops the remaining remote work.
func (r *Reconciler[P]) applyRemote(ctx context.Context, coll Collection, collectionID domain.RemoteID,
	p plan[P], lk Lookup, result *SyncResult[P]) error {
	e := r.engine
	var created []domain.Link
	err := func() error {
		for _, id := range p.drops {
			if err := r.dropRemote(ctx, id, &result.Report); err != nil {
				return err
			}
		}
		for _, w := range p.updates {
			if _, err := e.remote.UpdateItem(ctx, w.id, w.props); err != nil {
				e.metrics.remoteError(r.family.Name, err)
				if domain.IsRemoteNotFound(err) {
					e.logger.Warn("remote item vanished before update", "family", r.family.Name,
						"ref_id", w.refID, "remote_id", w.id, "error", err)
					result.RemoteMissing++
					continue
				}
				return fmt.Errorf("failed to update remote item %s: %w", w.id, err)
			}
			result.RemoteUpdated++
		}
		for _, l := range p.creates {
			item, err := e.remote.CreateItem(ctx, collectionID, r.family.Render(l, lk))
			if err != nil {
				e.metrics.remoteError(r.family.Name, err)
				return fmt.Errorf("failed to create remote item for %s %s: %w", r.family.Name, l.RefID, err)
			}
			result.RemoteCreated++
			created = append(created, domain.NewLink(domain.LinkItem, coll.Key, l.RefID, item.ID, e.clock.Now()))
		}
		return nil
	}()
	if err != nil {
		e.logger.Warn("remote writes stopped", "family", r.family.Name, "collection", coll.Key, "error", err)
	}

	if len(created) > 0 {
		linkErr := ports.InTx(ctx, e.store, func(tx ports.Tx) error {
			links := tx.Links(domain.LinkItem)
			for _, link := range created {
				if _, err := links.Create(ctx, link); err != nil {
					return err
				}
			}
			return nil
		})
		if linkErr != nil {
			return fmt.Errorf("failed to link created remote items: %w", linkErr)
		}
		result.LinksCreated += len(created)
	}
	return err
}

func (e *Engine) record(r Report) {
	e.metrics.action(r.Family, "local_created", r.LocalCreated)
	e.metrics.action(r.Family, "local_updated", r.LocalUpdated)
	e.metrics.action(r.Family, "remote_created", r.RemoteCreated)
	e.metrics.action(r.Family, "remote_updated", r.RemoteUpdated)
	e.metrics.action(r.Family, "remote_dropped", r.RemoteDropped)
	e.metrics.action(r.Family, "links_reaped", r.LinksReaped)
}
