package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"jupiter/internal/domain"
)

const linkColumns = `scope_key, parent_key, ref_id, remote_id, created_time, last_modified_time`

// linkRepo implements ports.LinkRepository over one link table
type linkRepo struct {
	tx    *tx
	kind  domain.LinkKind
	table string
}

// Create persists a new link; the scope key must be unused
func (r *linkRepo) Create(ctx context.Context, link domain.Link) (domain.Link, error) {
	existing, err := r.LoadOptional(ctx, link.Key)
	if err != nil {
		return link, err
	}
	if existing.IsFound() {
		return link, fmt.Errorf("%w: %s link %s", domain.ErrDuplicateLink, r.kind, link.Key)
	}
	if link.RemoteID == "" {
		return link, fmt.Errorf("%w: %s link %s has no remote id", domain.ErrInvariantViolation, r.kind, link.Key)
	}

	link.Kind = r.kind
	_, err = r.tx.exec(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?)`, r.table, linkColumns),
		string(link.Key), nullString(string(link.ParentKey)), int64(link.RefID), string(link.RemoteID),
		toNanos(link.CreatedTime), toNanos(link.LastModifiedTime))
	if err != nil {
		if isUniqueViolation(err) {
			return link, fmt.Errorf("%w: %s link %s", domain.ErrDuplicateLink, r.kind, link.Key)
		}
		return link, fmt.Errorf("failed to create %s link %s: %w", r.kind, link.Key, err)
	}
	return link, nil
}

// Save updates the remote identity and modification time
func (r *linkRepo) Save(ctx context.Context, link domain.Link) (domain.Link, error) {
	existing, err := r.Load(ctx, link.Key)
	if err != nil {
		return link, err
	}
	link.Kind = r.kind
	link.CreatedTime = existing.CreatedTime
	_, err = r.tx.exec(ctx, fmt.Sprintf(`UPDATE %s SET remote_id = ?, last_modified_time = ? WHERE scope_key = ?`, r.table),
		string(link.RemoteID), toNanos(link.LastModifiedTime), string(link.Key))
	if err != nil {
		return link, fmt.Errorf("failed to save %s link %s: %w", r.kind, link.Key, err)
	}
	return link, nil
}

// Load retrieves a link by scope key
func (r *linkRepo) Load(ctx context.Context, key domain.ScopeKey) (domain.Link, error) {
	opt, err := r.LoadOptional(ctx, key)
	if err != nil {
		return domain.Link{}, err
	}
	link, ok := opt.Get()
	if !ok {
		return domain.Link{}, fmt.Errorf("%w: %s link %s", domain.ErrLinkNotFound, r.kind, key)
	}
	return link, nil
}

// LoadOptional retrieves a link by scope key, if present
func (r *linkRepo) LoadOptional(ctx context.Context, key domain.ScopeKey) (domain.Optional[domain.Link], error) {
	links, err := r.find(ctx, "scope_key = ?", string(key))
	if err != nil {
		return domain.NotFound[domain.Link](), err
	}
	if len(links) == 0 {
		return domain.NotFound[domain.Link](), nil
	}
	return domain.Found(links[0]), nil
}

// FindAllForScope lists the links directly under a scope
func (r *linkRepo) FindAllForScope(ctx context.Context, parent domain.ScopeKey) ([]domain.Link, error) {
	return r.find(ctx, "parent_key = ?", string(parent))
}

// Remove drops a link; removing a missing link is not an error
func (r *linkRepo) Remove(ctx context.Context, key domain.ScopeKey) error {
	if _, err := r.tx.exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE scope_key = ?`, r.table), string(key)); err != nil {
		return fmt.Errorf("failed to remove %s link %s: %w", r.kind, key, err)
	}
	return nil
}

func (r *linkRepo) find(ctx context.Context, where string, arg any) ([]domain.Link, error) {
	rows, err := r.tx.query(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY scope_key`, linkColumns, r.table, where), arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s links: %w", r.kind, err)
	}
	defer rows.Close()

	var links []domain.Link
	for rows.Next() {
		var (
			link              domain.Link
			key, remote       string
			parent            sql.NullString
			ref               int64
			created, modified int64
		)
		if err := rows.Scan(&key, &parent, &ref, &remote, &created, &modified); err != nil {
			return nil, fmt.Errorf("failed to scan %s link: %w", r.kind, err)
		}
		link.Kind = r.kind
		link.Key = domain.ScopeKey(key)
		link.ParentKey = domain.ScopeKey(parent.String)
		link.RefID = domain.EntityID(ref)
		link.RemoteID = domain.RemoteID(remote)
		link.CreatedTime = fromNanos(created)
		link.LastModifiedTime = fromNanos(modified)
		links = append(links, link)
	}
	return links, rows.Err()
}
