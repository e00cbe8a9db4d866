package commands

import (
	"context"
	"fmt"

	"jupiter/internal/application"
	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/reconcile"
)

// CreateResult contains the result of creating an entity
type CreateResult[P any] struct {
	Leaf    domain.Leaf[P]
	Message string
}

// Builder resolves the payload and the parent of a new leaf inside the
// creating transaction. A zero parent means the workspace.
type Builder[P any] func(ctx context.Context, tx ports.Tx, ws domain.Workspace) (P, domain.EntityID, error)

// CreateCommand creates a leaf locally, then publishes it to its collection
type CreateCommand[P any] struct {
	env   *application.Env
	kind  Kind[P]
	build Builder[P]
	Name  string
	// after runs once the leaf is published
	after func(ctx context.Context) error
}

// NewCreateCommand creates a new CreateCommand
func NewCreateCommand[P any](env *application.Env, kind Kind[P], name string, build Builder[P]) *CreateCommand[P] {
	return &CreateCommand[P]{
		env:   env,
		kind:  kind,
		build: build,
		Name:  name,
	}
}

// Validate checks the fields that need no store access
func (c *CreateCommand[P]) Validate() error {
	return application.ValidateRequired("name", c.Name)
}

// Execute runs the create command. The returned result is set even when
// only the remote half failed.
func (c *CreateCommand[P]) Execute(ctx context.Context) (*CreateResult[P], error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ws, err := c.env.Workspace(ctx)
	if err != nil {
		return nil, err
	}

	now := c.env.Clock.Now()
	var leaf domain.Leaf[P]
	var coll reconcile.Collection
	err = ports.InTx(ctx, c.env.Store, func(tx ports.Tx) error {
		payload, parent, err := c.build(ctx, tx, ws)
		if err != nil {
			return err
		}
		if !parent.IsSet() {
			parent = ws.RefID
		}
		if coll, err = c.kind.collection(ctx, tx, ws, parent); err != nil {
			return err
		}
		leaf, err = c.kind.Family.Repo(tx).Create(ctx, domain.NewLeaf(parent, c.Name, payload, now))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", c.kind.Label, err)
	}

	result := &CreateResult[P]{
		Leaf:    leaf,
		Message: fmt.Sprintf("Created %s #%d %s", c.kind.Label, leaf.RefID, leaf.Name),
	}
	if err := publish(ctx, c.env, c.kind, coll, leaf); err != nil {
		return result, err
	}
	if c.after != nil {
		if err := c.after(ctx); err != nil {
			return result, err
		}
	}
	return result, nil
}
