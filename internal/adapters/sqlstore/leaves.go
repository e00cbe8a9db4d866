package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

const leafColumns = `ref_id, version, archived, created_time, last_modified_time, archived_time,
	parent_ref_id, name, natural_key, payload`

// leafRepo stores one family as rows with a JSON payload column
type leafRepo[P any] struct {
	tx     *tx
	family domain.Family
	table  string
}

func newLeafRepo[P any](t *tx, family domain.Family) *leafRepo[P] {
	return &leafRepo[P]{tx: t, family: family, table: familyTable(family)}
}

func naturalKeyOf[P any](payload P) string {
	if nk, ok := any(payload).(domain.NaturalKeyed); ok {
		return nk.NaturalKey()
	}
	return ""
}

// Create inserts a new leaf and assigns its identity
func (r *leafRepo[P]) Create(ctx context.Context, leaf domain.Leaf[P]) (domain.Leaf[P], error) {
	if leaf.RefID.IsSet() {
		return leaf, fmt.Errorf("%w: creating %s that already has ref id %s", domain.ErrInvariantViolation, r.family, leaf.RefID)
	}
	payload, err := json.Marshal(leaf.Payload)
	if err != nil {
		return leaf, fmt.Errorf("failed to encode %s payload: %w", r.family, err)
	}

	id, err := r.tx.insert(ctx, "ref_id", fmt.Sprintf(`INSERT INTO %s (version, archived, created_time, last_modified_time,
		archived_time, parent_ref_id, name, natural_key, payload) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.table),
		leaf.Version, boolToInt(leaf.Archived), toNanos(leaf.CreatedTime), toNanos(leaf.LastModifiedTime),
		nullNanos(leaf.ArchivedTime), int64(leaf.ParentRefID), leaf.Name, nullString(naturalKeyOf(leaf.Payload)), string(payload))
	if err != nil {
		if isUniqueViolation(err) {
			return leaf, fmt.Errorf("%w: %s %q", domain.ErrDuplicateNaturalKey, r.family, naturalKeyOf(leaf.Payload))
		}
		return leaf, fmt.Errorf("failed to create %s: %w", r.family, err)
	}
	leaf.RefID = domain.EntityID(id)

	if err := r.event(ctx, leaf, "created", payload); err != nil {
		return leaf, err
	}
	return leaf, nil
}

// Save overwrites an existing leaf
func (r *leafRepo[P]) Save(ctx context.Context, leaf domain.Leaf[P]) (domain.Leaf[P], error) {
	if !leaf.RefID.IsSet() {
		return leaf, fmt.Errorf("%w: saving %s without a ref id", domain.ErrInvariantViolation, r.family)
	}

	var wasArchived int
	err := r.tx.queryRow(ctx, fmt.Sprintf(`SELECT archived FROM %s WHERE ref_id = ?`, r.table), int64(leaf.RefID)).Scan(&wasArchived)
	if errors.Is(err, sql.ErrNoRows) {
		return leaf, fmt.Errorf("%w: %s %s", domain.ErrLocalNotFound, r.family, leaf.RefID)
	}
	if err != nil {
		return leaf, fmt.Errorf("failed to load %s %s: %w", r.family, leaf.RefID, err)
	}

	payload, err := json.Marshal(leaf.Payload)
	if err != nil {
		return leaf, fmt.Errorf("failed to encode %s payload: %w", r.family, err)
	}
	_, err = r.tx.exec(ctx, fmt.Sprintf(`UPDATE %s SET version = ?, archived = ?, created_time = ?, last_modified_time = ?,
		archived_time = ?, parent_ref_id = ?, name = ?, natural_key = ?, payload = ? WHERE ref_id = ?`, r.table),
		leaf.Version, boolToInt(leaf.Archived), toNanos(leaf.CreatedTime), toNanos(leaf.LastModifiedTime),
		nullNanos(leaf.ArchivedTime), int64(leaf.ParentRefID), leaf.Name, nullString(naturalKeyOf(leaf.Payload)),
		string(payload), int64(leaf.RefID))
	if err != nil {
		if isUniqueViolation(err) {
			return leaf, fmt.Errorf("%w: %s %q", domain.ErrDuplicateNaturalKey, r.family, naturalKeyOf(leaf.Payload))
		}
		return leaf, fmt.Errorf("failed to save %s %s: %w", r.family, leaf.RefID, err)
	}

	kind := "updated"
	switch {
	case leaf.Archived && wasArchived == 0:
		kind = "archived"
	case !leaf.Archived && wasArchived == 1:
		kind = "unarchived"
	}
	if err := r.event(ctx, leaf, kind, payload); err != nil {
		return leaf, err
	}
	return leaf, nil
}

// Load fetches a leaf; archived leaves count as missing unless allowed
func (r *leafRepo[P]) Load(ctx context.Context, id domain.EntityID, allowArchived bool) (domain.Leaf[P], error) {
	opt, err := r.LoadOptional(ctx, id)
	if err != nil {
		return domain.Leaf[P]{}, err
	}
	leaf, ok := opt.Get()
	if !ok || (leaf.Archived && !allowArchived) {
		return domain.Leaf[P]{}, fmt.Errorf("%w: %s %s", domain.ErrLocalNotFound, r.family, id)
	}
	return leaf, nil
}

// LoadOptional fetches a leaf, archived or not
func (r *leafRepo[P]) LoadOptional(ctx context.Context, id domain.EntityID) (domain.Optional[domain.Leaf[P]], error) {
	return r.findOne(ctx, "ref_id = ?", int64(id))
}

// FindByNaturalKey looks a leaf up by its generation or external key
func (r *leafRepo[P]) FindByNaturalKey(ctx context.Context, key string) (domain.Optional[domain.Leaf[P]], error) {
	if key == "" {
		return domain.NotFound[domain.Leaf[P]](), nil
	}
	return r.findOne(ctx, "natural_key = ?", key)
}

func (r *leafRepo[P]) findOne(ctx context.Context, where string, arg any) (domain.Optional[domain.Leaf[P]], error) {
	rows, err := r.tx.query(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE %s`, leafColumns, r.table, where), arg)
	if err != nil {
		return domain.NotFound[domain.Leaf[P]](), fmt.Errorf("failed to query %s: %w", r.family, err)
	}
	leaves, err := r.scanAll(rows)
	if err != nil {
		return domain.NotFound[domain.Leaf[P]](), err
	}
	if len(leaves) == 0 {
		return domain.NotFound[domain.Leaf[P]](), nil
	}
	return domain.Found(leaves[0]), nil
}

// FindAll lists leaves ordered by identity
func (r *leafRepo[P]) FindAll(ctx context.Context, filter ports.Filter) ([]domain.Leaf[P], error) {
	var conds []string
	var args []any
	if !filter.AllowArchived {
		conds = append(conds, "archived = 0")
	}
	if len(filter.ParentRefIDs) > 0 {
		conds = append(conds, "parent_ref_id IN ("+placeholders(len(filter.ParentRefIDs))+")")
		for _, id := range filter.ParentRefIDs {
			args = append(args, int64(id))
		}
	}
	if len(filter.RefIDs) > 0 {
		conds = append(conds, "ref_id IN ("+placeholders(len(filter.RefIDs))+")")
		for _, id := range filter.RefIDs {
			args = append(args, int64(id))
		}
	}

	q := fmt.Sprintf(`SELECT %s FROM %s`, leafColumns, r.table)
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY ref_id"

	rows, err := r.tx.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.family, err)
	}
	return r.scanAll(rows)
}

// Remove hard-deletes a leaf, returning its last state
func (r *leafRepo[P]) Remove(ctx context.Context, id domain.EntityID) (domain.Leaf[P], error) {
	leaf, err := r.Load(ctx, id, true)
	if err != nil {
		return leaf, err
	}
	if _, err := r.tx.exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE ref_id = ?`, r.table), int64(id)); err != nil {
		return leaf, fmt.Errorf("failed to remove %s %s: %w", r.family, id, err)
	}
	payload, _ := json.Marshal(leaf.Payload)
	if err := r.event(ctx, leaf, "removed", payload); err != nil {
		return leaf, err
	}
	return leaf, nil
}

func (r *leafRepo[P]) scanAll(rows *sql.Rows) ([]domain.Leaf[P], error) {
	defer rows.Close()

	var leaves []domain.Leaf[P]
	for rows.Next() {
		var (
			leaf                        domain.Leaf[P]
			id, parent, created, edited int64
			archived                    int
			archivedTime                sql.NullInt64
			naturalKey                  sql.NullString
			payload                     string
		)
		if err := rows.Scan(&id, &leaf.Version, &archived, &created, &edited, &archivedTime,
			&parent, &leaf.Name, &naturalKey, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.family, err)
		}
		if err := json.Unmarshal([]byte(payload), &leaf.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode %s %d payload: %w", r.family, id, err)
		}
		leaf.RefID = domain.EntityID(id)
		leaf.ParentRefID = domain.EntityID(parent)
		leaf.Archived = archived != 0
		leaf.CreatedTime = fromNanos(created)
		leaf.LastModifiedTime = fromNanos(edited)
		leaf.ArchivedTime = fromNullNanos(archivedTime)
		leaves = append(leaves, leaf)
	}
	return leaves, rows.Err()
}

func (r *leafRepo[P]) event(ctx context.Context, leaf domain.Leaf[P], kind string, payload []byte) error {
	return (&eventRepo{tx: r.tx}).Append(ctx, ports.Event{
		Family:    r.family,
		RefID:     leaf.RefID,
		Kind:      kind,
		Payload:   string(payload),
		Timestamp: leaf.LastModifiedTime,
	})
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
