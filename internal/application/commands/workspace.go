package commands

import (
	"context"
	"fmt"
	"strings"

	"jupiter/internal/application"
	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/reconcile"
)

// resolveProject finds a live project by key or ref id. An empty value
// yields the workspace default project.
func resolveProject(ctx context.Context, tx ports.Tx, ws domain.Workspace, value string) (domain.EntityID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return ws.DefaultProjectRefID, nil
	}
	projects, err := tx.Projects().FindAll(ctx, ports.Filter{})
	if err != nil {
		return domain.BadRefID, err
	}
	id, idErr := domain.ParseEntityID(value)
	for _, p := range projects {
		if p.Payload.Key == value || (idErr == nil && p.RefID == id) {
			return p.RefID, nil
		}
	}
	return domain.BadRefID, &application.ValidationError{
		Field:   "projectKey",
		Message: fmt.Sprintf("no project with key or id %q", value),
	}
}

// WorkspaceShowResult describes the workspace
type WorkspaceShowResult struct {
	Workspace      domain.Workspace
	DefaultProject domain.Project
	Message        string
}

// WorkspaceShowCommand shows the workspace settings
type WorkspaceShowCommand struct {
	env *application.Env
}

// NewWorkspaceShowCommand creates a new WorkspaceShowCommand
func NewWorkspaceShowCommand(env *application.Env) *WorkspaceShowCommand {
	return &WorkspaceShowCommand{env: env}
}

// Execute runs the workspace show command
func (c *WorkspaceShowCommand) Execute(ctx context.Context) (*WorkspaceShowResult, error) {
	ws, err := c.env.Workspace(ctx)
	if err != nil {
		return nil, err
	}
	var project domain.Project
	err = ports.InTx(ctx, c.env.Store, func(tx ports.Tx) error {
		var err error
		project, err = tx.Projects().Load(ctx, ws.DefaultProjectRefID, true)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load default project: %w", err)
	}
	return &WorkspaceShowResult{
		Workspace:      ws,
		DefaultProject: project,
		Message: fmt.Sprintf("%s\n  timezone:        %s\n  default project: %s (%s)\n  remote space:    %s",
			ws.Name, ws.Timezone, project.Name, project.Payload.Key, ws.RemoteSpaceID),
	}, nil
}

// ProjectCreateResult contains the created project
type ProjectCreateResult struct {
	Project domain.Project
	Message string
}

// ProjectCreateCommand creates a project and adds it to the project
// options of every existing collection
type ProjectCreateCommand struct {
	env  *application.Env
	Name string
	Key  string
}

// NewProjectCreateCommand creates a new ProjectCreateCommand
func NewProjectCreateCommand(env *application.Env, name, key string) *ProjectCreateCommand {
	return &ProjectCreateCommand{
		env:  env,
		Name: name,
		Key:  key,
	}
}

// Validate checks the project name and key
func (c *ProjectCreateCommand) Validate() error {
	if err := application.ValidateRequired("name", c.Name); err != nil {
		return err
	}
	if c.Key != "" && reconcile.ProjectKey(c.Key) != c.Key {
		return &application.ValidationError{
			Field:   "projectKey",
			Message: fmt.Sprintf("project key %q must be lowercase letters, digits and dashes", c.Key),
		}
	}
	return nil
}

// Execute runs the project create command
func (c *ProjectCreateCommand) Execute(ctx context.Context) (*ProjectCreateResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ws, err := c.env.Workspace(ctx)
	if err != nil {
		return nil, err
	}
	key := c.Key
	if key == "" {
		key = reconcile.ProjectKey(c.Name)
	}

	var project domain.Project
	err = ports.InTx(ctx, c.env.Store, func(tx ports.Tx) error {
		projects, err := tx.Projects().FindAll(ctx, ports.Filter{AllowArchived: true})
		if err != nil {
			return err
		}
		for _, p := range projects {
			if p.Payload.Key == key || strings.EqualFold(p.Name, strings.TrimSpace(c.Name)) {
				return &application.ValidationError{
					Field:   "name",
					Message: fmt.Sprintf("project %q already exists", p.Name),
				}
			}
		}
		project, err = tx.Projects().Create(ctx, domain.NewLeaf(ws.RefID, c.Name, domain.ProjectData{Key: key}, c.env.Clock.Now()))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	result := &ProjectCreateResult{
		Project: project,
		Message: fmt.Sprintf("Created project #%d %s (%s)", project.RefID, project.Name, key),
	}
	if _, err := reconcile.NewLabelSync(c.env.Engine()).Refresh(ctx, domain.PropProject); err != nil {
		return result, fmt.Errorf("project saved locally but remote options were not refreshed: %w", err)
	}
	return result, nil
}

// NewProjectShowCommand lists projects
func NewProjectShowCommand(env *application.Env, refIDs []string) *ShowCommand[domain.ProjectData] {
	cmd := NewShowCommand(env, Projects, refIDs, false)
	cmd.Describe = func(p domain.Project) string { return p.Payload.Key }
	return cmd
}
