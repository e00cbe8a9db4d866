package ports

import (
	"context"
	"fmt"
	"time"

	"jupiter/internal/domain"
)

// Filter narrows FindAll. Empty slices mean "no restriction".
type Filter struct {
	ParentRefIDs  []domain.EntityID
	RefIDs        []domain.EntityID
	AllowArchived bool
}

// LeafRepository persists one entity family
type LeafRepository[P any] interface {
	Create(ctx context.Context, leaf domain.Leaf[P]) (domain.Leaf[P], error)
	Save(ctx context.Context, leaf domain.Leaf[P]) (domain.Leaf[P], error)
	Load(ctx context.Context, id domain.EntityID, allowArchived bool) (domain.Leaf[P], error)
	LoadOptional(ctx context.Context, id domain.EntityID) (domain.Optional[domain.Leaf[P]], error)
	FindAll(ctx context.Context, filter Filter) ([]domain.Leaf[P], error)
	FindByNaturalKey(ctx context.Context, key string) (domain.Optional[domain.Leaf[P]], error)
	Remove(ctx context.Context, id domain.EntityID) (domain.Leaf[P], error)
}

// WorkspaceRepository persists the single workspace
type WorkspaceRepository interface {
	Create(ctx context.Context, ws domain.Workspace) (domain.Workspace, error)
	Save(ctx context.Context, ws domain.Workspace) (domain.Workspace, error)
	Load(ctx context.Context) (domain.Workspace, error)
	LoadOptional(ctx context.Context) (domain.Optional[domain.Workspace], error)
}

// LinkRepository persists the links of one kind. Only the reconciliation
// side of the code writes here, always inside the same transaction as the
// entity changes the links describe.
type LinkRepository interface {
	// Create fails with domain.ErrDuplicateLink when the key exists
	Create(ctx context.Context, link domain.Link) (domain.Link, error)
	// Save updates the remote identity and modification time; fails with
	// domain.ErrLinkNotFound when absent
	Save(ctx context.Context, link domain.Link) (domain.Link, error)
	Load(ctx context.Context, key domain.ScopeKey) (domain.Link, error)
	LoadOptional(ctx context.Context, key domain.ScopeKey) (domain.Optional[domain.Link], error)
	FindAllForScope(ctx context.Context, parent domain.ScopeKey) ([]domain.Link, error)
	// Remove is idempotent
	Remove(ctx context.Context, key domain.ScopeKey) error
}

// Event is one row of the mutation log
type Event struct {
	Family    domain.Family
	RefID     domain.EntityID
	Kind      string
	Payload   string
	Timestamp time.Time
}

// EventRepository is the append-only mutation log
type EventRepository interface {
	Append(ctx context.Context, ev Event) error
	FindForEntity(ctx context.Context, family domain.Family, id domain.EntityID) ([]Event, error)
}

// Tx is one unit of work against the local store
type Tx interface {
	Workspaces() WorkspaceRepository
	Projects() LeafRepository[domain.ProjectData]
	InboxTasks() LeafRepository[domain.InboxTaskData]
	BigPlans() LeafRepository[domain.BigPlanData]
	Habits() LeafRepository[domain.HabitData]
	Chores() LeafRepository[domain.ChoreData]
	Metrics() LeafRepository[domain.MetricData]
	MetricEntries() LeafRepository[domain.MetricEntryData]
	Persons() LeafRepository[domain.PersonData]
	SmartLists() LeafRepository[domain.SmartListData]
	SmartListTags() LeafRepository[domain.SmartListTagData]
	SmartListItems() LeafRepository[domain.SmartListItemData]
	Vacations() LeafRepository[domain.VacationData]
	PushTasks() LeafRepository[domain.PushTaskData]
	Links(kind domain.LinkKind) LinkRepository
	Events() EventRepository

	Commit() error
	Rollback() error
}

// Store opens transactions. Transactions are never nested.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	Close() error
}

// InTx runs fn in a transaction, committing on success
func InTx(ctx context.Context, store Store, fn func(tx Tx) error) error {
	tx, err := store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
