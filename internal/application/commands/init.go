package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jupiter/internal/application"
	"jupiter/internal/domain"
)

const defaultProjectName = "Work"

// InitResult contains the bootstrapped workspace and its default project
type InitResult struct {
	Workspace domain.Workspace
	Project   domain.Project
	Message   string
}

// InitCommand creates the workspace, locally and on the remote
type InitCommand struct {
	env         *application.Env
	Name        string
	Timezone    string
	RemoteSpace string
	RemoteToken string
	ProjectName string
}

// NewInitCommand creates a new InitCommand
func NewInitCommand(env *application.Env, name, timezone, space, token, projectName string) *InitCommand {
	return &InitCommand{
		env:         env,
		Name:        name,
		Timezone:    timezone,
		RemoteSpace: space,
		RemoteToken: token,
		ProjectName: projectName,
	}
}

// Validate checks the required fields and the timezone
func (c *InitCommand) Validate() error {
	if err := application.ValidateRequired("name", c.Name); err != nil {
		return err
	}
	if err := application.ValidateRequired("timezone", c.Timezone); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return &application.ValidationError{Field: "timezone", Message: fmt.Sprintf("unknown timezone %q", c.Timezone)}
	}
	if err := application.ValidateRequired("remoteSpace", c.RemoteSpace); err != nil {
		return err
	}
	return application.ValidateRequired("remoteToken", c.RemoteToken)
}

// Execute runs the init command. A rejected token surfaces as
// domain.ErrRemoteUnauthorized and leaves nothing behind.
func (c *InitCommand) Execute(ctx context.Context) (*InitResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	projectName := strings.TrimSpace(c.ProjectName)
	if projectName == "" {
		projectName = defaultProjectName
	}

	ws, err := domain.NewWorkspace(c.Name, c.Timezone, domain.RemoteID(strings.TrimSpace(c.RemoteSpace)), c.RemoteToken, c.env.Clock.Now())
	if err != nil {
		return nil, &application.ValidationError{Field: "name", Message: err.Error()}
	}
	c.env.UseToken(c.RemoteToken)

	ws, project, err := c.env.Engine().Bootstrap(ctx, ws, projectName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize workspace: %w", err)
	}
	return &InitResult{
		Workspace: ws,
		Project:   project,
		Message:   fmt.Sprintf("Initialized workspace %s (%s) with project %s", ws.Name, ws.Timezone, project.Name),
	}, nil
}
