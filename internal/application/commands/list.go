package commands

import (
	"context"
	"fmt"
	"strings"

	"jupiter/internal/application"
	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

// ShowResult contains the leaves a show command found
type ShowResult[P any] struct {
	Leaves  []domain.Leaf[P]
	Message string
}

// ShowCommand lists the leaves of a family, optionally restricted to some
// identities or to the children of one parent
type ShowCommand[P any] struct {
	env          *application.Env
	kind         Kind[P]
	RefIDs       []string
	Parent       string
	ShowArchived bool
	// Describe renders the details column of one leaf
	Describe func(domain.Leaf[P]) string
}

// NewShowCommand creates a new ShowCommand
func NewShowCommand[P any](env *application.Env, kind Kind[P], refIDs []string, showArchived bool) *ShowCommand[P] {
	return &ShowCommand[P]{
		env:          env,
		kind:         kind,
		RefIDs:       refIDs,
		ShowArchived: showArchived,
	}
}

// Validate checks the identities parse
func (c *ShowCommand[P]) Validate() error {
	if _, err := application.ValidateRefIDs("refID", c.RefIDs); err != nil {
		return err
	}
	if c.Parent != "" {
		if _, err := application.ValidateRefID("parent", c.Parent); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the show command
func (c *ShowCommand[P]) Execute(ctx context.Context) (*ShowResult[P], error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ids, _ := application.ValidateRefIDs("refID", c.RefIDs)
	filter := ports.Filter{RefIDs: ids, AllowArchived: c.ShowArchived}
	if c.Parent != "" {
		parent, _ := domain.ParseEntityID(c.Parent)
		filter.ParentRefIDs = []domain.EntityID{parent}
	}

	var leaves []domain.Leaf[P]
	err := ports.InTx(ctx, c.env.Store, func(tx ports.Tx) error {
		var err error
		leaves, err = c.kind.Family.Repo(tx).FindAll(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.kind.Family.Name, err)
	}

	var b strings.Builder
	for _, l := range leaves {
		fmt.Fprintf(&b, "#%-4d %s", l.RefID, l.Name)
		if c.Describe != nil {
			if details := c.Describe(l); details != "" {
				fmt.Fprintf(&b, "  (%s)", details)
			}
		}
		if l.Archived {
			b.WriteString(" [archived]")
		}
		b.WriteByte('\n')
	}
	if len(leaves) == 0 {
		fmt.Fprintf(&b, "No %s found\n", c.kind.Family.Name)
	}
	return &ShowResult[P]{Leaves: leaves, Message: strings.TrimRight(b.String(), "\n")}, nil
}
