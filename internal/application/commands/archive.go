package commands

import (
	"context"
	"errors"
	"fmt"

	"jupiter/internal/application"
	"jupiter/internal/archiver"
	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/reconcile"
)

// ArchiveResult contains the result of archiving or removing an entity and
// everything under it
type ArchiveResult struct {
	Family  domain.Family
	RefID   domain.EntityID
	Counts  archiver.Result
	Message string
}

// ArchiveCommand archives an entity with its descendants and generated tasks
type ArchiveCommand struct {
	env    *application.Env
	Family domain.Family
	RefID  string
	// Remove deletes the local rows instead of flagging them
	Remove bool
}

// NewArchiveCommand creates a new ArchiveCommand
func NewArchiveCommand(env *application.Env, family domain.Family, refID string) *ArchiveCommand {
	return &ArchiveCommand{
		env:    env,
		Family: family,
		RefID:  refID,
	}
}

// NewRemoveCommand creates an ArchiveCommand that hard-deletes
func NewRemoveCommand(env *application.Env, family domain.Family, refID string) *ArchiveCommand {
	c := NewArchiveCommand(env, family, refID)
	c.Remove = true
	return c
}

// Validate checks the identity parses and the family can be archived
func (c *ArchiveCommand) Validate() error {
	if _, err := application.ValidateRefID("refID", c.RefID); err != nil {
		return err
	}
	if c.Family == domain.FamilyProject {
		return &application.ArchiveError{
			ID:     c.RefID,
			Reason: "projects are labels and cannot be archived",
		}
	}
	return nil
}

// Execute runs the archive command
func (c *ArchiveCommand) Execute(ctx context.Context) (*ArchiveResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	id, _ := domain.ParseEntityID(c.RefID)
	engine := c.env.Engine()

	// tags need their list afterwards to rewrite its options
	var tagList domain.Optional[domain.SmartList]
	if c.Family == domain.FamilySmartListTag {
		err := ports.InTx(ctx, c.env.Store, func(tx ports.Tx) error {
			tag, err := tx.SmartListTags().Load(ctx, id, true)
			if err != nil {
				return err
			}
			list, err := tx.SmartLists().Load(ctx, tag.ParentRefID, true)
			if err == nil && !list.Archived {
				tagList = domain.Found(list)
			}
			return nil
		})
		if err != nil {
			return nil, c.wrap(err)
		}
	}

	arch := archiver.New(engine)
	var counts archiver.Result
	var err error
	verb := "Archived"
	if c.Remove {
		verb = "Removed"
		counts, err = arch.Remove(ctx, c.Family, id)
	} else {
		counts, err = arch.Archive(ctx, c.Family, id)
	}
	if err != nil {
		return nil, c.wrap(err)
	}

	result := &ArchiveResult{
		Family: c.Family,
		RefID:  id,
		Counts: counts,
		Message: fmt.Sprintf("%s %s #%d (%d local, %d remote, %d already gone remotely)",
			verb, c.Family, id, counts.Archived, counts.RemoteArchived, counts.RemoteMissing),
	}

	switch c.Family {
	case domain.FamilyBigPlan:
		_, err = reconcile.NewLabelSync(engine).Refresh(ctx, domain.PropBigPlan)
	case domain.FamilySmartListTag:
		if list, ok := tagList.Get(); ok {
			_, err = reconcile.NewTagSync(engine).Sync(ctx, list, reconcile.Options{Prefer: reconcile.PreferLocal})
		}
	}
	if err != nil {
		return result, fmt.Errorf("failed to refresh remote options: %w", err)
	}
	return result, nil
}

func (c *ArchiveCommand) wrap(err error) error {
	if errors.Is(err, archiver.ErrNotArchivable) {
		return &application.ArchiveError{ID: c.RefID, Reason: err.Error()}
	}
	if errors.Is(err, domain.ErrLocalNotFound) {
		return &application.NotFoundError{Kind: string(c.Family), ID: c.RefID}
	}
	return fmt.Errorf("failed to archive %s %s: %w", c.Family, c.RefID, err)
}
