package commands

import (
	"context"
	"fmt"

	"jupiter/internal/application"
	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/reconcile"
)

// RemoteIDCommand looks up the remote item an inbox task is mirrored to
type RemoteIDCommand struct {
	env   *application.Env
	RefID string
}

// RemoteIDResult contains the remote identity of the task
type RemoteIDResult struct {
	RemoteID domain.RemoteID
	Message  string
}

// NewInboxTaskRemoteIDCommand creates a new lookup command
func NewInboxTaskRemoteIDCommand(env *application.Env, refID string) *RemoteIDCommand {
	return &RemoteIDCommand{env: env, RefID: refID}
}

// Validate checks the ref id
func (c *RemoteIDCommand) Validate() error {
	_, err := application.ValidateRefID("refID", c.RefID)
	return err
}

// Execute reads the item link. A task that was never published has none.
func (c *RemoteIDCommand) Execute(ctx context.Context) (*RemoteIDResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	id, _ := domain.ParseEntityID(c.RefID)

	ws, err := c.env.Workspace(ctx)
	if err != nil {
		return nil, err
	}
	key := reconcile.WorkspaceCollection(ws, InboxTasks.Family).Key.Leaf(id)

	var link domain.Optional[domain.Link]
	err = ports.InTx(ctx, c.env.Store, func(tx ports.Tx) error {
		if _, err := loadParent(ctx, tx.InboxTasks(), InboxTasks.Label, id); err != nil {
			return err
		}
		var lerr error
		link, lerr = tx.Links(domain.LinkItem).LoadOptional(ctx, key)
		return lerr
	})
	if err != nil {
		return nil, err
	}
	l, ok := link.Get()
	if !ok {
		return nil, &application.NotFoundError{Kind: "remote item for inbox task", ID: c.RefID}
	}
	return &RemoteIDResult{
		RemoteID: l.RemoteID,
		Message:  fmt.Sprintf("Inbox task %d is remote item %s", id, l.RemoteID),
	}, nil
}
