package reconcile

import (
	"context"
	"fmt"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/schema"
)

// Publisher propagates a committed local change to the remote in-line
type Publisher[P any] struct {
	engine *Engine
	family Family[P]
}

func NewPublisher[P any](engine *Engine, family Family[P]) *Publisher[P] {
	return &Publisher[P]{engine: engine, family: family}
}

// Publish creates or updates the remote item of leaf. When the linked item
// is gone a new one is created under a new link. Archived leaves that were
// never published stay local.
func (p *Publisher[P]) Publish(ctx context.Context, coll Collection, leaf domain.Leaf[P]) (domain.Link, error) {
	e := p.engine
	ws, err := e.Workspace(ctx)
	if err != nil {
		return domain.Link{}, err
	}
	lk, err := e.Lookup(ctx, ws, coll)
	if err != nil {
		return domain.Link{}, err
	}
	remoteColl, err := e.EnsureCollection(ctx, coll, p.family.Schema(lk), schema.Hint{})
	if err != nil {
		return domain.Link{}, err
	}

	key := coll.Key.Leaf(leaf.RefID)
	var existing domain.Optional[domain.Link]
	err = ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		var err error
		existing, err = tx.Links(domain.LinkItem).LoadOptional(ctx, key)
		return err
	})
	if err != nil {
		return domain.Link{}, err
	}

	props := p.family.Render(leaf, lk)
	if link, ok := existing.Get(); ok {
		_, err := e.remote.UpdateItem(ctx, link.RemoteID, props)
		if err == nil {
			e.metrics.action(p.family.Name, "remote_updated", 1)
			return link, nil
		}
		e.metrics.remoteError(p.family.Name, err)
		if !domain.IsRemoteNotFound(err) {
			return link, fmt.Errorf("failed to update remote item for %s %s: %w", p.family.Name, leaf.RefID, err)
		}
		e.logger.Warn("remote item is gone, recreating", "family", p.family.Name, "ref_id", leaf.RefID, "remote_id", link.RemoteID)
	} else if leaf.Archived {
		return domain.Link{}, nil
	}

	item, err := e.remote.CreateItem(ctx, remoteColl.ID, props)
	if err != nil {
		e.metrics.remoteError(p.family.Name, err)
		return domain.Link{}, fmt.Errorf("failed to create remote item for %s %s: %w", p.family.Name, leaf.RefID, err)
	}
	e.metrics.action(p.family.Name, "remote_created", 1)

	link := domain.NewLink(domain.LinkItem, coll.Key, leaf.RefID, item.ID, e.clock.Now())
	err = ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		links := tx.Links(domain.LinkItem)
		if err := links.Remove(ctx, key); err != nil {
			return err
		}
		link, err = links.Create(ctx, link)
		return err
	})
	if err != nil {
		return link, fmt.Errorf("failed to link remote item for %s %s: %w", p.family.Name, leaf.RefID, err)
	}
	return link, nil
}

// RemoveOutcome tells what RemoveItem found on the remote
type RemoveOutcome int

const (
	// ItemUnlinked means the entity was never reflected remotely
	ItemUnlinked RemoveOutcome = iota
	ItemDeleted
	// ItemMissing means the link pointed at an item that was already gone
	ItemMissing
)

// RemoveItem deletes the remote item linked to ref in coll and drops the
// link. A remote item that is already gone is not an error.
func (e *Engine) RemoveItem(ctx context.Context, coll Collection, ref domain.EntityID) (RemoveOutcome, error) {
	key := coll.Key.Leaf(ref)
	var existing domain.Optional[domain.Link]
	err := ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		var err error
		existing, err = tx.Links(domain.LinkItem).LoadOptional(ctx, key)
		return err
	})
	if err != nil {
		return ItemUnlinked, err
	}
	link, ok := existing.Get()
	if !ok {
		return ItemUnlinked, nil
	}

	outcome := ItemDeleted
	if err := e.remote.DeleteItem(ctx, link.RemoteID); err != nil {
		if !domain.IsRemoteNotFound(err) {
			e.metrics.remoteError(coll.Family, err)
			return ItemUnlinked, fmt.Errorf("failed to delete remote item %s: %w", link.RemoteID, err)
		}
		e.logger.Warn("remote item already gone", "family", coll.Family, "ref_id", ref, "remote_id", link.RemoteID)
		outcome = ItemMissing
	}
	err = ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		return tx.Links(domain.LinkItem).Remove(ctx, key)
	})
	if err != nil {
		return outcome, err
	}
	if outcome == ItemDeleted {
		e.metrics.action(coll.Family, "remote_dropped", 1)
	}
	return outcome, nil
}
