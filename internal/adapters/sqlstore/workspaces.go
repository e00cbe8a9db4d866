package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"jupiter/internal/domain"
)

// workspaceRepo stores the single workspace row
type workspaceRepo struct {
	tx *tx
}

func (r *workspaceRepo) Create(ctx context.Context, ws domain.Workspace) (domain.Workspace, error) {
	existing, err := r.LoadOptional(ctx)
	if err != nil {
		return ws, err
	}
	if existing.IsFound() {
		return ws, fmt.Errorf("%w: workspace already exists", domain.ErrInvariantViolation)
	}

	id, err := r.tx.insert(ctx, "ref_id", `INSERT INTO workspaces (version, archived, created_time, last_modified_time,
		archived_time, name, timezone, default_project_ref_id, remote_space_id, remote_token)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ws.Version, boolToInt(ws.Archived), toNanos(ws.CreatedTime), toNanos(ws.LastModifiedTime), nullNanos(ws.ArchivedTime),
		ws.Name, ws.Timezone, int64(ws.DefaultProjectRefID), string(ws.RemoteSpaceID), ws.RemoteToken)
	if err != nil {
		return ws, fmt.Errorf("failed to create workspace: %w", err)
	}
	ws.RefID = domain.EntityID(id)
	return ws, nil
}

func (r *workspaceRepo) Save(ctx context.Context, ws domain.Workspace) (domain.Workspace, error) {
	if !ws.RefID.IsSet() {
		return ws, fmt.Errorf("%w: saving workspace without a ref id", domain.ErrInvariantViolation)
	}
	_, err := r.tx.exec(ctx, `UPDATE workspaces SET version = ?, archived = ?, last_modified_time = ?, archived_time = ?,
		name = ?, timezone = ?, default_project_ref_id = ?, remote_space_id = ?, remote_token = ? WHERE ref_id = ?`,
		ws.Version, boolToInt(ws.Archived), toNanos(ws.LastModifiedTime), nullNanos(ws.ArchivedTime),
		ws.Name, ws.Timezone, int64(ws.DefaultProjectRefID), string(ws.RemoteSpaceID), ws.RemoteToken, int64(ws.RefID))
	if err != nil {
		return ws, fmt.Errorf("failed to save workspace: %w", err)
	}
	return ws, nil
}

func (r *workspaceRepo) Load(ctx context.Context) (domain.Workspace, error) {
	opt, err := r.LoadOptional(ctx)
	if err != nil {
		return domain.Workspace{}, err
	}
	ws, ok := opt.Get()
	if !ok {
		return domain.Workspace{}, domain.ErrWorkspaceNotFound
	}
	return ws, nil
}

func (r *workspaceRepo) LoadOptional(ctx context.Context) (domain.Optional[domain.Workspace], error) {
	var (
		ws                          domain.Workspace
		id, created, modified, proj int64
		archived                    int
		archivedTime                sql.NullInt64
		space                       string
	)
	err := r.tx.queryRow(ctx, `SELECT ref_id, version, archived, created_time, last_modified_time, archived_time,
		name, timezone, default_project_ref_id, remote_space_id, remote_token FROM workspaces ORDER BY ref_id LIMIT 1`).
		Scan(&id, &ws.Version, &archived, &created, &modified, &archivedTime,
			&ws.Name, &ws.Timezone, &proj, &space, &ws.RemoteToken)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound[domain.Workspace](), nil
	}
	if err != nil {
		return domain.NotFound[domain.Workspace](), fmt.Errorf("failed to load workspace: %w", err)
	}
	ws.RefID = domain.EntityID(id)
	ws.Archived = archived != 0
	ws.CreatedTime = fromNanos(created)
	ws.LastModifiedTime = fromNanos(modified)
	ws.ArchivedTime = fromNullNanos(archivedTime)
	ws.DefaultProjectRefID = domain.EntityID(proj)
	ws.RemoteSpaceID = domain.RemoteID(space)
	return domain.Found(ws), nil
}
