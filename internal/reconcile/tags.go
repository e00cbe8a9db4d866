package reconcile

import (
	"context"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/schema"
)

// TagSync reconciles the tags of a smart list with the options of the Tags
// property of its item collection. Each tag is linked to its option id by
// a field-tag link.
type TagSync struct {
	engine *Engine
}

func NewTagSync(engine *Engine) *TagSync {
	return &TagSync{engine: engine}
}

// SmartListCollection is the item collection of a smart list
func SmartListCollection(ws domain.Workspace, list domain.SmartList) Collection {
	return BranchCollection(ws, SmartListItemFamily, list.RefID, list.Name)
}

func (s *TagSync) Sync(ctx context.Context, list domain.SmartList, opts Options) (Report, error) {
	e := s.engine
	if opts.Prefer == "" {
		opts.Prefer = PreferRemote
	}
	report := Report{Family: domain.FamilySmartListTag}

	ws, err := e.Workspace(ctx)
	if err != nil {
		return report, err
	}
	coll := SmartListCollection(ws, list)
	lk, err := e.Lookup(ctx, ws, coll)
	if err != nil {
		return report, err
	}
	remoteColl, err := e.EnsureCollection(ctx, coll, SmartListItemFamily.Schema(lk), schema.Hint{})
	if err != nil {
		return report, err
	}
	options := remoteColl.Schema[PropTags].Options
	optByID := map[string]domain.SelectOption{}
	for _, o := range options {
		optByID[o.ID] = o
	}

	now := e.clock.Now()
	err = ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		repo := tx.SmartListTags()
		links := tx.Links(domain.LinkFieldTag)
		tags, err := repo.FindAll(ctx, ports.Filter{ParentRefIDs: []domain.EntityID{list.RefID}, AllowArchived: true})
		if err != nil {
			return err
		}
		byRef := map[domain.EntityID]domain.SmartListTag{}
		for _, t := range tags {
			byRef[t.RefID] = t
		}
		scope, err := links.FindAllForScope(ctx, coll.Key)
		if err != nil {
			return err
		}

		linkedTag := map[domain.EntityID]bool{}
		claimed := map[string]bool{}
		for _, k := range scope {
			tag, known := byRef[k.RefID]
			opt, present := optByID[string(k.RemoteID)]
			claimed[string(k.RemoteID)] = true
			if !known || !present || tag.Archived {
				if err := links.Remove(ctx, k.Key); err != nil {
					return err
				}
				report.LinksReaped++
				if known && !tag.Archived && opts.Prefer == PreferRemote {
					if _, err := repo.Save(ctx, tag.MarkArchived(now)); err != nil {
						return err
					}
					report.LocalUpdated++
				}
				continue
			}
			linkedTag[tag.RefID] = true
			if opt.Name != tag.Name && opts.Prefer == PreferRemote {
				if _, err := repo.Save(ctx, tag.Rename(opt.Name, now)); err != nil {
					return err
				}
				report.LocalUpdated++
			}
		}

		for _, opt := range options {
			if claimed[opt.ID] {
				continue
			}
			var tag domain.SmartListTag
			found := false
			for _, t := range tags {
				if !t.Archived && !linkedTag[t.RefID] && t.Name == opt.Name {
					tag, found = t, true
					break
				}
			}
			if !found {
				tag, err = repo.Create(ctx, domain.NewLeaf(list.RefID, opt.Name, domain.SmartListTagData{}, now))
				if err != nil {
					return err
				}
				report.LocalCreated++
			}
			linkedTag[tag.RefID] = true
			if _, err := links.Create(ctx, domain.NewLink(domain.LinkFieldTag, coll.Key, tag.RefID, domain.RemoteID(opt.ID), now)); err != nil {
				return err
			}
			report.LinksCreated++
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	return report, s.writeOptions(ctx, ws, coll, &report)
}

// writeOptions rewrites the Tags options from the live tags, keeping the
// option id of every linked tag even across renames, then links the tags
// that just got an option
func (s *TagSync) writeOptions(ctx context.Context, ws domain.Workspace, coll Collection, report *Report) error {
	e := s.engine
	var lk Lookup
	var tags []domain.SmartListTag
	linkOf := map[domain.EntityID]domain.Link{}
	err := ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		var err error
		if lk, err = e.LoadLookup(ctx, tx, ws, coll); err != nil {
			return err
		}
		if tags, err = tx.SmartListTags().FindAll(ctx, ports.Filter{ParentRefIDs: []domain.EntityID{coll.Owner}}); err != nil {
			return err
		}
		scope, err := tx.Links(domain.LinkFieldTag).FindAllForScope(ctx, coll.Key)
		for _, k := range scope {
			linkOf[k.RefID] = k
		}
		return err
	})
	if err != nil {
		return err
	}

	want := SmartListItemFamily.Schema(lk)
	prop := want[PropTags]
	prop.Options = nil
	for _, t := range tags {
		opt := domain.SelectOption{Name: t.Name}
		if k, ok := linkOf[t.RefID]; ok {
			opt.ID = string(k.RemoteID)
		}
		prop.Options = append(prop.Options, opt)
	}
	want[PropTags] = prop

	updated, err := e.EnsureCollection(ctx, coll, want, schema.Hint{NewlyAdded: []string{PropTags}})
	if err != nil {
		return err
	}

	now := e.clock.Now()
	return ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		links := tx.Links(domain.LinkFieldTag)
		for _, t := range tags {
			opt, ok := updated.Schema[PropTags].Option(t.Name)
			if !ok {
				continue
			}
			k, linked := linkOf[t.RefID]
			if linked && k.RemoteID == domain.RemoteID(opt.ID) {
				continue
			}
			if linked {
				if err := links.Remove(ctx, k.Key); err != nil {
					return err
				}
			}
			if _, err := links.Create(ctx, domain.NewLink(domain.LinkFieldTag, coll.Key, t.RefID, domain.RemoteID(opt.ID), now)); err != nil {
				return err
			}
			report.LinksCreated++
		}
		return nil
	})
}
