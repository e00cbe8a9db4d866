package commands

import (
	"context"
	"fmt"

	"jupiter/internal/application"
	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/reconcile"
)

// Kind binds a family to its display label and to the remote collection
// its leaves live in
type Kind[P any] struct {
	Family reconcile.Family[P]
	Label  string
	// locate finds the collection of the leaves under parent; nil means
	// the workspace collection of the family
	locate func(ctx context.Context, tx ports.Tx, ws domain.Workspace, parent domain.EntityID) (reconcile.Collection, error)
}

func workspaceKind[P any](fam reconcile.Family[P], label string) Kind[P] {
	return Kind[P]{Family: fam, Label: label}
}

var (
	InboxTasks = workspaceKind(reconcile.InboxTaskFamily, "inbox task")
	BigPlans   = workspaceKind(reconcile.BigPlanFamily, "big plan")
	Habits     = workspaceKind(reconcile.HabitFamily, "habit")
	Chores     = workspaceKind(reconcile.ChoreFamily, "chore")
	Metrics    = workspaceKind(reconcile.MetricFamily, "metric")
	Persons    = workspaceKind(reconcile.PersonFamily, "person")
	Vacations  = workspaceKind(reconcile.VacationFamily, "vacation")
	PushTasks  = workspaceKind(reconcile.PushTaskFamily, "push task")

	// Projects and smart lists have no collection of their own; their kinds
	// serve show only
	Projects = Kind[domain.ProjectData]{
		Family: reconcile.Family[domain.ProjectData]{
			Name: domain.FamilyProject,
			Repo: func(tx ports.Tx) ports.LeafRepository[domain.ProjectData] { return tx.Projects() },
		},
		Label: "project",
	}
	SmartLists = Kind[domain.SmartListData]{
		Family: reconcile.Family[domain.SmartListData]{
			Name: domain.FamilySmartList,
			Repo: func(tx ports.Tx) ports.LeafRepository[domain.SmartListData] { return tx.SmartLists() },
		},
		Label: "smart list",
	}

	MetricEntries = Kind[domain.MetricEntryData]{
		Family: reconcile.MetricEntryFamily,
		Label:  "metric entry",
		locate: func(ctx context.Context, tx ports.Tx, ws domain.Workspace, parent domain.EntityID) (reconcile.Collection, error) {
			metric, err := loadParent(ctx, tx.Metrics(), "metric", parent)
			if err != nil {
				return reconcile.Collection{}, err
			}
			return reconcile.BranchCollection(ws, reconcile.MetricEntryFamily, metric.RefID, metric.Name), nil
		},
	}

	SmartListItems = Kind[domain.SmartListItemData]{
		Family: reconcile.SmartListItemFamily,
		Label:  "smart list item",
		locate: func(ctx context.Context, tx ports.Tx, ws domain.Workspace, parent domain.EntityID) (reconcile.Collection, error) {
			list, err := loadParent(ctx, tx.SmartLists(), "smart list", parent)
			if err != nil {
				return reconcile.Collection{}, err
			}
			return reconcile.SmartListCollection(ws, list), nil
		},
	}
)

func loadParent[P any](ctx context.Context, repo ports.LeafRepository[P], kind string, id domain.EntityID) (domain.Leaf[P], error) {
	opt, err := repo.LoadOptional(ctx, id)
	if err != nil {
		return domain.Leaf[P]{}, err
	}
	leaf, ok := opt.Get()
	if !ok || leaf.Archived {
		return leaf, &application.NotFoundError{Kind: kind, ID: id.String()}
	}
	return leaf, nil
}

// collection resolves where leaf lives on the remote
func (k Kind[P]) collection(ctx context.Context, tx ports.Tx, ws domain.Workspace, parent domain.EntityID) (reconcile.Collection, error) {
	if k.locate == nil {
		return reconcile.WorkspaceCollection(ws, k.Family), nil
	}
	return k.locate(ctx, tx, ws, parent)
}

// publish pushes leaf to the remote after the local commit. The local
// change stays committed when the remote fails.
func publish[P any](ctx context.Context, env *application.Env, k Kind[P], coll reconcile.Collection, leaf domain.Leaf[P]) error {
	_, err := reconcile.NewPublisher(env.Engine(), k.Family).Publish(ctx, coll, leaf)
	if err != nil {
		env.Logger.Warn("remote update failed", "family", k.Family.Name, "ref_id", leaf.RefID, "error", err)
		return fmt.Errorf("%s %d saved locally but not on the remote (sync --prefer local publishes it): %w", k.Label, leaf.RefID, err)
	}
	return nil
}
