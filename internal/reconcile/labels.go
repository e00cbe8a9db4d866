package reconcile

import (
	"context"
	"slices"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/schema"
)

type familySpec struct {
	name   domain.Family
	schema func(Lookup) domain.Schema
	labels []string
	coll   func(ws domain.Workspace) Collection
}

func (f Family[P]) spec() familySpec {
	return familySpec{
		name:   f.Name,
		schema: f.Schema,
		labels: f.LabelProperties(),
		coll:   func(ws domain.Workspace) Collection { return WorkspaceCollection(ws, f) },
	}
}

// workspaceFamilies are the families with one collection per workspace
var workspaceFamilies = []familySpec{
	InboxTaskFamily.spec(),
	BigPlanFamily.spec(),
	HabitFamily.spec(),
	ChoreFamily.spec(),
	MetricFamily.spec(),
	PersonFamily.spec(),
	VacationFamily.spec(),
	PushTaskFamily.spec(),
}

// LabelSync keeps the options of label properties (project names, big plan
// names) in step with the local entities they name
type LabelSync struct {
	engine *Engine
}

func NewLabelSync(engine *Engine) *LabelSync {
	return &LabelSync{engine: engine}
}

// Refresh rewrites the options of prop on every existing collection that
// carries it. Collections not created yet pick the options up on creation.
// It returns the number of collections visited.
func (s *LabelSync) Refresh(ctx context.Context, prop string) (int, error) {
	e := s.engine
	ws, err := e.Workspace(ctx)
	if err != nil {
		return 0, err
	}

	visited := 0
	for _, spec := range workspaceFamilies {
		if !slices.Contains(spec.labels, prop) {
			continue
		}
		coll := spec.coll(ws)
		var existing domain.Optional[domain.Link]
		var lk Lookup
		err := ports.InTx(ctx, e.store, func(tx ports.Tx) error {
			var err error
			if existing, err = tx.Links(domain.LinkCollection).LoadOptional(ctx, coll.Key); err != nil {
				return err
			}
			lk, err = e.LoadLookup(ctx, tx, ws, coll)
			return err
		})
		if err != nil {
			return visited, err
		}
		if !existing.IsFound() {
			continue
		}
		if _, err := e.EnsureCollection(ctx, coll, spec.schema(lk), schema.Hint{NewlyAdded: []string{prop}}); err != nil {
			return visited, err
		}
		visited++
	}
	e.logger.Debug("refreshed label options", "property", prop, "collections", visited)
	return visited, nil
}
