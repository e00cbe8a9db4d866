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

// SmartListResult contains a created smart list or tag
type SmartListResult[P any] struct {
	Leaf    domain.Leaf[P]
	Message string
}

// SmartListCreateCommand creates a smart list and its item collection
type SmartListCreateCommand struct {
	env  *application.Env
	Name string
	Key  string
}

// NewSmartListCreateCommand creates a new SmartListCreateCommand
func NewSmartListCreateCommand(env *application.Env, name, key string) *SmartListCreateCommand {
	return &SmartListCreateCommand{env: env, Name: name, Key: key}
}

func (c *SmartListCreateCommand) Validate() error {
	if err := application.ValidateRequired("name", c.Name); err != nil {
		return err
	}
	if c.Key != "" && reconcile.ProjectKey(c.Key) != c.Key {
		return &application.ValidationError{
			Field:   "smartListKey",
			Message: fmt.Sprintf("smart list key %q must be lowercase letters, digits and dashes", c.Key),
		}
	}
	return nil
}

func (c *SmartListCreateCommand) Execute(ctx context.Context) (*SmartListResult[domain.SmartListData], error) {
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

	var list domain.SmartList
	err = ports.InTx(ctx, c.env.Store, func(tx ports.Tx) error {
		lists, err := tx.SmartLists().FindAll(ctx, ports.Filter{})
		if err != nil {
			return err
		}
		for _, l := range lists {
			if l.Payload.Key == key {
				return &application.ValidationError{Field: "smartListKey", Message: fmt.Sprintf("smart list %q already uses key %q", l.Name, key)}
			}
		}
		list, err = tx.SmartLists().Create(ctx, domain.NewLeaf(ws.RefID, c.Name, domain.SmartListData{Key: key}, c.env.Clock.Now()))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create smart list: %w", err)
	}

	result := &SmartListResult[domain.SmartListData]{
		Leaf:    list,
		Message: fmt.Sprintf("Created smart list #%d %s (%s)", list.RefID, list.Name, key),
	}
	if _, err := reconcile.NewTagSync(c.env.Engine()).Sync(ctx, list, reconcile.Options{Prefer: reconcile.PreferLocal}); err != nil {
		return result, fmt.Errorf("smart list saved locally but its collection was not created (the next sync retries): %w", err)
	}
	return result, nil
}

func NewSmartListShowCommand(env *application.Env, refIDs []string, showArchived bool) *ShowCommand[domain.SmartListData] {
	cmd := NewShowCommand(env, SmartLists, refIDs, showArchived)
	cmd.Describe = func(l domain.SmartList) string { return l.Payload.Key }
	return cmd
}

// SmartListTagCreateCommand adds a tag to a smart list and to the options
// of its collection
type SmartListTagCreateCommand struct {
	env       *application.Env
	SmartList string
	Name      string
}

// NewSmartListTagCreateCommand creates a new SmartListTagCreateCommand
func NewSmartListTagCreateCommand(env *application.Env, list, name string) *SmartListTagCreateCommand {
	return &SmartListTagCreateCommand{env: env, SmartList: list, Name: name}
}

func (c *SmartListTagCreateCommand) Validate() error {
	if _, err := application.ValidateRefID("smartListID", c.SmartList); err != nil {
		return err
	}
	if err := application.ValidateRequired("name", c.Name); err != nil {
		return err
	}
	if strings.Contains(c.Name, ",") {
		return &application.ValidationError{Field: "name", Message: "tag names cannot contain commas"}
	}
	return nil
}

func (c *SmartListTagCreateCommand) Execute(ctx context.Context) (*SmartListResult[domain.SmartListTagData], error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	listID, _ := domain.ParseEntityID(c.SmartList)
	name := strings.TrimSpace(c.Name)

	var list domain.SmartList
	var tag domain.SmartListTag
	err := ports.InTx(ctx, c.env.Store, func(tx ports.Tx) error {
		var err error
		if list, err = loadParent(ctx, tx.SmartLists(), "smart list", listID); err != nil {
			return err
		}
		tags, err := tx.SmartListTags().FindAll(ctx, ports.Filter{ParentRefIDs: []domain.EntityID{list.RefID}})
		if err != nil {
			return err
		}
		for _, t := range tags {
			if t.Name == name {
				return &application.ValidationError{Field: "name", Message: fmt.Sprintf("tag %q already exists", name)}
			}
		}
		tag, err = tx.SmartListTags().Create(ctx, domain.NewLeaf(list.RefID, name, domain.SmartListTagData{}, c.env.Clock.Now()))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	result := &SmartListResult[domain.SmartListTagData]{
		Leaf:    tag,
		Message: fmt.Sprintf("Created tag #%d %s in %s", tag.RefID, tag.Name, list.Name),
	}
	if _, err := reconcile.NewTagSync(c.env.Engine()).Sync(ctx, list, reconcile.Options{Prefer: reconcile.PreferLocal}); err != nil {
		return result, fmt.Errorf("tag saved locally but not on the remote (the next sync retries): %w", err)
	}
	return result, nil
}

type SmartListItemArgs struct {
	SmartList string
	Name      string
	IsDone    bool
	Tags      []string
	URL       string
}

// resolveTags maps tag names of a list to their identities
func resolveTags(ctx context.Context, tx ports.Tx, list domain.EntityID, names []string) ([]domain.EntityID, error) {
	if len(names) == 0 {
		return nil, nil
	}
	tags, err := tx.SmartListTags().FindAll(ctx, ports.Filter{ParentRefIDs: []domain.EntityID{list}})
	if err != nil {
		return nil, err
	}
	set := reconcile.NewLabelSet(tags)
	ids := make([]domain.EntityID, 0, len(names))
	for _, n := range names {
		id, ok := set.ID(strings.TrimSpace(n))
		if !ok {
			return nil, &application.ValidationError{Field: "tag", Message: fmt.Sprintf("unknown tag %q", n)}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func NewSmartListItemCreateCommand(env *application.Env, args SmartListItemArgs) *CreateCommand[domain.SmartListItemData] {
	return NewCreateCommand(env, SmartListItems, args.Name, func(ctx context.Context, tx ports.Tx, ws domain.Workspace) (domain.SmartListItemData, domain.EntityID, error) {
		data := domain.SmartListItemData{IsDone: args.IsDone, URL: strings.TrimSpace(args.URL)}
		id, err := application.ValidateRefID("smartListID", args.SmartList)
		if err != nil {
			return data, 0, err
		}
		list, err := loadParent(ctx, tx.SmartLists(), "smart list", id)
		if err != nil {
			return data, 0, err
		}
		if data.TagRefIDs, err = resolveTags(ctx, tx, list.RefID, args.Tags); err != nil {
			return data, 0, err
		}
		return data, list.RefID, nil
	})
}

type SmartListItemUpdate struct {
	Name   domain.UpdateAction[string]
	IsDone domain.UpdateAction[bool]
	Tags   domain.UpdateAction[[]string]
	URL    domain.UpdateAction[string]
}

func NewSmartListItemUpdateCommand(env *application.Env, refID string, u SmartListItemUpdate) *UpdateCommand[domain.SmartListItemData] {
	return NewUpdateCommand(env, SmartListItems, refID, u.Name, func(ctx context.Context, tx ports.Tx, _ domain.Workspace, item domain.SmartListItem, p *domain.SmartListItemData) error {
		p.IsDone = u.IsDone.Apply(p.IsDone)
		p.URL = strings.TrimSpace(u.URL.Apply(p.URL))
		if u.Tags.ShouldChange() {
			ids, err := resolveTags(ctx, tx, item.ParentRefID, u.Tags.Apply(nil))
			if err != nil {
				return err
			}
			p.TagRefIDs = ids
		}
		return nil
	})
}

func NewSmartListItemShowCommand(env *application.Env, list string, refIDs []string, showArchived bool) *ShowCommand[domain.SmartListItemData] {
	cmd := NewShowCommand(env, SmartListItems, refIDs, showArchived)
	cmd.Parent = list
	cmd.Describe = func(i domain.SmartListItem) string {
		var parts []string
		if i.Payload.IsDone {
			parts = append(parts, "done")
		}
		if i.Payload.URL != "" {
			parts = append(parts, i.Payload.URL)
		}
		return strings.Join(parts, ", ")
	}
	return cmd
}
