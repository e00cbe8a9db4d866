package commands

import (
	"context"
	"fmt"
	"reflect"

	"jupiter/internal/application"
	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/reconcile"
)

// UpdateResult contains the result of updating an entity
type UpdateResult[P any] struct {
	Leaf    domain.Leaf[P]
	Changed bool
	Message string
}

// Mutator applies the requested field changes to a payload inside the
// updating transaction
type Mutator[P any] func(ctx context.Context, tx ports.Tx, ws domain.Workspace, leaf domain.Leaf[P], payload *P) error

// UpdateCommand changes the name and payload of an existing leaf and
// publishes the result
type UpdateCommand[P any] struct {
	env    *application.Env
	kind   Kind[P]
	mutate Mutator[P]
	RefID  string
	Name   domain.UpdateAction[string]
	after  func(ctx context.Context) error
}

// NewUpdateCommand creates a new UpdateCommand
func NewUpdateCommand[P any](env *application.Env, kind Kind[P], refID string, name domain.UpdateAction[string], mutate Mutator[P]) *UpdateCommand[P] {
	return &UpdateCommand[P]{
		env:    env,
		kind:   kind,
		mutate: mutate,
		RefID:  refID,
		Name:   name,
	}
}

// Validate checks the identity and that a new name is not blank
func (c *UpdateCommand[P]) Validate() error {
	if _, err := application.ValidateRefID("refID", c.RefID); err != nil {
		return err
	}
	if c.Name.Kind() == domain.UpdateClear {
		return &application.ValidationError{Field: "name", Message: "name cannot be cleared"}
	}
	if c.Name.ShouldChange() {
		return application.ValidateRequired("name", c.Name.Apply(""))
	}
	return nil
}

// Execute runs the update command
func (c *UpdateCommand[P]) Execute(ctx context.Context) (*UpdateResult[P], error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	id, _ := domain.ParseEntityID(c.RefID)
	ws, err := c.env.Workspace(ctx)
	if err != nil {
		return nil, err
	}

	now := c.env.Clock.Now()
	var leaf domain.Leaf[P]
	var coll reconcile.Collection
	var changed bool
	err = ports.InTx(ctx, c.env.Store, func(tx ports.Tx) error {
		repo := c.kind.Family.Repo(tx)
		current, err := loadParent(ctx, repo, c.kind.Label, id)
		if err != nil {
			return err
		}
		if coll, err = c.kind.collection(ctx, tx, ws, current.ParentRefID); err != nil {
			return err
		}
		payload := current.Payload
		if c.mutate != nil {
			if err := c.mutate(ctx, tx, ws, current, &payload); err != nil {
				return err
			}
		}
		next := current
		if c.Name.ShouldChange() {
			next = next.Rename(c.Name.Apply(next.Name), now)
		}
		next = next.WithPayload(payload, now)
		if next.Name == current.Name && reflect.DeepEqual(current.Payload, payload) {
			leaf = current
			return nil
		}
		changed = true
		leaf, err = repo.Save(ctx, next)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", c.kind.Label, err)
	}

	result := &UpdateResult[P]{Leaf: leaf, Changed: changed}
	if !changed {
		result.Message = fmt.Sprintf("No changes to %s #%d %s", c.kind.Label, leaf.RefID, leaf.Name)
		return result, nil
	}
	result.Message = fmt.Sprintf("Updated %s #%d %s", c.kind.Label, leaf.RefID, leaf.Name)
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
