package commands

import (
	"context"
	"fmt"
	"time"

	"jupiter/internal/application"
	"jupiter/internal/gc"
)

// GCResult contains the counters of a collection run
type GCResult struct {
	gc.Result
	Message string
}

// GCCommand archives finished work and removes archived entities from the
// remote
type GCCommand struct {
	env       *application.Env
	Targets   []string
	OlderThan time.Duration
}

// NewGCCommand creates a new GCCommand
func NewGCCommand(env *application.Env, targets []string, olderThan time.Duration) *GCCommand {
	return &GCCommand{env: env, Targets: targets, OlderThan: olderThan}
}

func (c *GCCommand) Validate() error {
	if c.OlderThan < 0 {
		return &application.ValidationError{Field: "olderThan", Message: "retention window cannot be negative"}
	}
	_, err := application.ParseTargets(c.Targets, gc.Targets)
	return err
}

func (c *GCCommand) Execute(ctx context.Context) (*GCResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	targets, _ := application.ParseTargets(c.Targets, gc.Targets)
	if _, err := c.env.Workspace(ctx); err != nil {
		return nil, err
	}

	res, err := gc.New(c.env.Engine()).Run(ctx, gc.Options{Targets: targets, OlderThan: c.OlderThan})
	out := &GCResult{
		Result:  res,
		Message: fmt.Sprintf("Archived %d, removed %d remote items (%d already gone)", res.Archived, res.RemoteRemoved, res.RemoteMissing),
	}
	if err != nil {
		return out, fmt.Errorf("garbage collection failed: %w", err)
	}
	return out, nil
}
