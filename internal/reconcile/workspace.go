package reconcile

import (
	"context"
	"fmt"
	"strings"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

// ProjectKey derives the short key of a project from its name
func ProjectKey(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Bootstrap creates the workspace trunk page on the remote, then the local
// workspace, its default project and the trunk page link. Nothing local is
// written when the remote rejects the page.
func (e *Engine) Bootstrap(ctx context.Context, ws domain.Workspace, projectName string) (domain.Workspace, domain.Project, error) {
	var project domain.Project
	var existing domain.Optional[domain.Workspace]
	err := ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		var err error
		existing, err = tx.Workspaces().LoadOptional(ctx)
		return err
	})
	if err != nil {
		return ws, project, err
	}
	if existing.IsFound() {
		return ws, project, fmt.Errorf("%w: workspace already initialized", domain.ErrInvariantViolation)
	}

	page, err := e.remote.CreatePage(ctx, ws.RemoteSpaceID, ws.Name)
	if err != nil {
		return ws, project, fmt.Errorf("failed to create workspace page: %w", err)
	}

	now := e.clock.Now()
	err = ports.InTx(ctx, e.store, func(tx ports.Tx) error {
		var err error
		if ws, err = tx.Workspaces().Create(ctx, ws); err != nil {
			return err
		}
		project, err = tx.Projects().Create(ctx, domain.NewLeaf(ws.RefID, projectName, domain.ProjectData{Key: ProjectKey(projectName)}, now))
		if err != nil {
			return err
		}
		ws.DefaultProjectRefID = project.RefID
		if ws, err = tx.Workspaces().Save(ctx, ws); err != nil {
			return err
		}
		trunk := domain.TrunkScope(ws.RefID)
		_, err = tx.Links(domain.LinkPage).Create(ctx, domain.NewScopeLink(domain.LinkPage, trunk, "", ws.RefID, page.ID, now))
		return err
	})
	if err != nil {
		return ws, project, err
	}
	e.logger.Info("initialized workspace", "name", ws.Name, "ref_id", ws.RefID, "remote_id", page.ID)
	return ws, project, nil
}
