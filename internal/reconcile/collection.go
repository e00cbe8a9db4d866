package reconcile

import (
	"context"
	"fmt"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/schema"
)

// Collection locates the remote collection of a family. Top-level families
// hang off the workspace; branch families (metric entries, smart list
// items) get one collection per owning entity.
type Collection struct {
	Family domain.Family
	Key    domain.ScopeKey
	Trunk  domain.ScopeKey
	// Owner is the parent ref id of every leaf in the collection
	Owner domain.EntityID
	Title string
}

// WorkspaceCollection is the single collection of a top-level family
func WorkspaceCollection[P any](ws domain.Workspace, fam Family[P]) Collection {
	return Collection{
		Family: fam.Name,
		Key:    domain.CollectionScope(fam.Name, ws.RefID),
		Trunk:  domain.TrunkScope(ws.RefID),
		Owner:  ws.RefID,
		Title:  fam.Title,
	}
}

// BranchCollection is the collection of the leaves owned by branch
func BranchCollection[P any](ws domain.Workspace, fam Family[P], branch domain.EntityID, title string) Collection {
	return Collection{
		Family: fam.Name,
		Key:    domain.CollectionScope(fam.Name, ws.RefID, branch),
		Trunk:  domain.TrunkScope(ws.RefID),
		Owner:  branch,
		Title:  title,
	}
}

// EnsureCollection returns the remote collection for coll, creating it (and
// its link) on first use or when the remote one is gone, and merging the
// wanted schema into it otherwise
func (e *Engine) EnsureCollection(ctx context.Context, coll Collection, want domain.Schema, hint schema.Hint) (domain.RemoteCollection, error) {
	var trunk domain.Link
	var existing domain.Optional[domain.Link]
	err := ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		var err error
		if trunk, err = tx.Links(domain.LinkPage).Load(ctx, coll.Trunk); err != nil {
			return fmt.Errorf("workspace has no remote page: %w", err)
		}
		existing, err = tx.Links(domain.LinkCollection).LoadOptional(ctx, coll.Key)
		return err
	})
	if err != nil {
		return domain.RemoteCollection{}, err
	}

	if link, ok := existing.Get(); ok {
		current, err := e.remote.GetCollection(ctx, link.RemoteID)
		switch {
		case err == nil:
			merged := schema.Merge(current.Schema, want, hint)
			if current.Title == coll.Title && schema.Equal(current.Schema, merged) {
				return current, schema.Check(current.Schema, want)
			}
			updated, err := e.remote.UpdateCollection(ctx, current.ID, coll.Title, merged)
			if err != nil {
				e.metrics.remoteError(coll.Family, err)
				return domain.RemoteCollection{}, fmt.Errorf("failed to update collection %s: %w", coll.Key, err)
			}
			e.logger.Debug("updated remote collection schema", "collection", coll.Key, "remote_id", current.ID)
			return updated, schema.Check(updated.Schema, want)
		case domain.IsRemoteNotFound(err):
			e.logger.Warn("remote collection is gone, recreating", "collection", coll.Key, "remote_id", link.RemoteID)
		default:
			e.metrics.remoteError(coll.Family, err)
			return domain.RemoteCollection{}, fmt.Errorf("failed to load collection %s: %w", coll.Key, err)
		}
	}

	created, err := e.remote.CreateCollection(ctx, trunk.RemoteID, coll.Title, schema.Merge(nil, want, hint))
	if err != nil {
		e.metrics.remoteError(coll.Family, err)
		return domain.RemoteCollection{}, fmt.Errorf("failed to create collection %s: %w", coll.Key, err)
	}
	now := e.clock.Now()
	err = ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		links := tx.Links(domain.LinkCollection)
		// replacing the collection drops the item and tag links under it
		if err := links.Remove(ctx, coll.Key); err != nil {
			return err
		}
		_, err := links.Create(ctx, domain.NewScopeLink(domain.LinkCollection, coll.Key, coll.Trunk, coll.Owner, created.ID, now))
		return err
	})
	if err != nil {
		return domain.RemoteCollection{}, fmt.Errorf("failed to link collection %s: %w", coll.Key, err)
	}
	e.logger.Info("created remote collection", "collection", coll.Key, "title", coll.Title, "remote_id", created.ID)
	return created, nil
}

// DropCollection deletes the remote collection of coll and its link,
// tolerating a collection that is already gone
func (e *Engine) DropCollection(ctx context.Context, coll Collection) error {
	var existing domain.Optional[domain.Link]
	err := ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		var err error
		existing, err = tx.Links(domain.LinkCollection).LoadOptional(ctx, coll.Key)
		return err
	})
	if err != nil {
		return err
	}
	link, ok := existing.Get()
	if !ok {
		return nil
	}
	if err := e.remote.DeleteCollection(ctx, link.RemoteID); err != nil {
		if !domain.IsRemoteNotFound(err) {
			e.metrics.remoteError(coll.Family, err)
			return fmt.Errorf("failed to delete collection %s: %w", coll.Key, err)
		}
		e.logger.Warn("remote collection already gone", "collection", coll.Key, "remote_id", link.RemoteID)
	}
	return ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		return tx.Links(domain.LinkCollection).Remove(ctx, coll.Key)
	})
}
