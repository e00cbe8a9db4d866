package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jupiter/internal/application"
	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

type MetricArgs struct {
	Name string
	Unit string
	// Collection, when set, makes the generator emit collection tasks
	Collection        *GenParamsArgs
	CollectionProject string
}

func NewMetricCreateCommand(env *application.Env, args MetricArgs) *CreateCommand[domain.MetricData] {
	return NewCreateCommand(env, Metrics, args.Name, func(ctx context.Context, tx ports.Tx, ws domain.Workspace) (domain.MetricData, domain.EntityID, error) {
		data := domain.MetricData{Unit: strings.TrimSpace(args.Unit)}
		var err error
		if data.CollectionProjectRefID, err = resolveProject(ctx, tx, ws, args.CollectionProject); err != nil {
			return data, 0, err
		}
		if args.Collection != nil {
			params, err := args.Collection.Params()
			if err != nil {
				return data, 0, err
			}
			data.CollectionParams = &params
		}
		return data, 0, nil
	})
}

func NewMetricShowCommand(env *application.Env, refIDs []string, showArchived bool) *ShowCommand[domain.MetricData] {
	cmd := NewShowCommand(env, Metrics, refIDs, showArchived)
	cmd.Describe = func(m domain.Metric) string {
		var parts []string
		if m.Payload.Unit != "" {
			parts = append(parts, m.Payload.Unit)
		}
		if m.Payload.CollectionParams != nil {
			parts = append(parts, "collected "+string(m.Payload.CollectionParams.Period))
		}
		return strings.Join(parts, ", ")
	}
	return cmd
}

type MetricEntryArgs struct {
	Metric string
	Value  float64
	// CollectionTime is a YYYY-MM-DD date; empty means now
	CollectionTime string
	Notes          string
}

// NewMetricEntryCreateCommand records a value in the entry collection of
// its metric
func NewMetricEntryCreateCommand(env *application.Env, args MetricEntryArgs) *CreateCommand[domain.MetricEntryData] {
	name := args.CollectionTime
	if name == "" {
		name = env.Clock.Now().Format(time.DateOnly)
	}
	return NewCreateCommand(env, MetricEntries, name, func(ctx context.Context, tx ports.Tx, ws domain.Workspace) (domain.MetricEntryData, domain.EntityID, error) {
		data := domain.MetricEntryData{Value: args.Value, Notes: strings.TrimSpace(args.Notes), CollectionTime: env.Clock.Now()}
		id, err := application.ValidateRefID("metricID", args.Metric)
		if err != nil {
			return data, 0, err
		}
		metric, err := loadParent(ctx, tx.Metrics(), "metric", id)
		if err != nil {
			return data, 0, err
		}
		if args.CollectionTime != "" {
			d, err := application.ValidateDate("collectionTime", args.CollectionTime)
			if err != nil {
				return data, 0, err
			}
			data.CollectionTime = *d
		}
		return data, metric.RefID, nil
	})
}

func NewMetricEntryShowCommand(env *application.Env, metric string, refIDs []string, showArchived bool) *ShowCommand[domain.MetricEntryData] {
	cmd := NewShowCommand(env, MetricEntries, refIDs, showArchived)
	cmd.Parent = metric
	cmd.Describe = func(e domain.MetricEntry) string {
		return fmt.Sprintf("%g at %s", e.Payload.Value, e.Payload.CollectionTime.Format(time.DateTime))
	}
	return cmd
}
