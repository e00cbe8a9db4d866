// Package testkit wires a sqlite store, the in-memory remote and an engine
// for tests of the packages built on the reconciliation engine.
package testkit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jupiter/internal/adapters/memremote"
	"jupiter/internal/adapters/sqlstore"
	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/reconcile"
)

// Start is the clock reading every Env begins at: Friday 20 May 2022,
// ISO week 20
var Start = time.Date(2022, time.May, 20, 9, 0, 0, 0, time.UTC)

type Env struct {
	T         *testing.T
	Ctx       context.Context
	Store     *sqlstore.Store
	Remote    *memremote.Gateway
	Clock     *memremote.Clock
	Engine    *reconcile.Engine
	Workspace domain.Workspace
	Work      domain.Project
}

// New bootstraps a workspace named Life in timezone with a default Work
// project. Remote counters are reset afterwards.
func New(t *testing.T, timezone string) *Env {
	t.Helper()
	ctx := context.Background()
	store, err := sqlstore.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "jupiter.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := memremote.NewClock(Start)
	remote := memremote.New(clock)
	space, err := remote.CreatePage(ctx, "", "Space")
	require.NoError(t, err)

	engine := reconcile.NewEngine(store, remote, clock, nil, reconcile.NewMetrics())
	ws, err := domain.NewWorkspace("Life", timezone, space.ID, "secret", clock.Now())
	require.NoError(t, err)
	ws, work, err := engine.Bootstrap(ctx, ws, "Work")
	require.NoError(t, err)
	remote.ResetCounters()

	return &Env{T: t, Ctx: ctx, Store: store, Remote: remote, Clock: clock, Engine: engine, Workspace: ws, Work: work}
}

func (e *Env) InTx(fn func(tx ports.Tx) error) {
	e.T.Helper()
	require.NoError(e.T, ports.InTx(e.Ctx, e.Store, fn))
}

// Create persists a new leaf of fam under parent
func Create[P any](e *Env, fam reconcile.Family[P], parent domain.EntityID, name string, payload P) domain.Leaf[P] {
	e.T.Helper()
	var leaf domain.Leaf[P]
	e.InTx(func(tx ports.Tx) error {
		var err error
		leaf, err = fam.Repo(tx).Create(e.Ctx, domain.NewLeaf(parent, name, payload, e.Clock.Now()))
		return err
	})
	return leaf
}

// Load reads a leaf, archived or not
func Load[P any](e *Env, fam reconcile.Family[P], id domain.EntityID) domain.Leaf[P] {
	e.T.Helper()
	var leaf domain.Leaf[P]
	e.InTx(func(tx ports.Tx) error {
		var err error
		leaf, err = fam.Repo(tx).Load(e.Ctx, id, true)
		return err
	})
	return leaf
}

// Exists reports whether the leaf row is still there
func Exists[P any](e *Env, fam reconcile.Family[P], id domain.EntityID) bool {
	e.T.Helper()
	var found bool
	e.InTx(func(tx ports.Tx) error {
		opt, err := fam.Repo(tx).LoadOptional(e.Ctx, id)
		found = opt.IsFound()
		return err
	})
	return found
}

// All lists the leaves of fam, archived included
func All[P any](e *Env, fam reconcile.Family[P]) []domain.Leaf[P] {
	e.T.Helper()
	var leaves []domain.Leaf[P]
	e.InTx(func(tx ports.Tx) error {
		var err error
		leaves, err = fam.Repo(tx).FindAll(e.Ctx, ports.Filter{AllowArchived: true})
		return err
	})
	return leaves
}

// Publish pushes leaf to its collection and returns the item link
func Publish[P any](e *Env, fam reconcile.Family[P], coll reconcile.Collection, leaf domain.Leaf[P]) domain.Link {
	e.T.Helper()
	link, err := reconcile.NewPublisher(e.Engine, fam).Publish(e.Ctx, coll, leaf)
	require.NoError(e.T, err)
	return link
}

// Link loads a link by key
func (e *Env) Link(kind domain.LinkKind, key domain.ScopeKey) domain.Optional[domain.Link] {
	e.T.Helper()
	var out domain.Optional[domain.Link]
	e.InTx(func(tx ports.Tx) error {
		var err error
		out, err = tx.Links(kind).LoadOptional(e.Ctx, key)
		return err
	})
	return out
}

// Inbox is the workspace inbox task collection
func (e *Env) Inbox() reconcile.Collection {
	return reconcile.WorkspaceCollection(e.Workspace, reconcile.InboxTaskFamily)
}

// Task builds the payload of a user inbox task in the Work project
func (e *Env) Task() domain.InboxTaskData {
	return domain.InboxTaskData{
		ProjectRefID: e.Work.RefID,
		Source:       domain.SourceUser,
		Status:       domain.InboxTaskAccepted,
		Eisen:        domain.EisenRegular,
	}
}
