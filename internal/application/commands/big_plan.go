package commands

import (
	"context"
	"strings"
	"time"

	"jupiter/internal/application"
	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/reconcile"
)

type BigPlanArgs struct {
	Name           string
	Project        string
	Status         string
	ActionableDate string
	DueDate        string
}

// NewBigPlanCreateCommand creates a big plan and adds it to the Big Plan
// options of the inbox task collection
func NewBigPlanCreateCommand(env *application.Env, args BigPlanArgs) *CreateCommand[domain.BigPlanData] {
	cmd := NewCreateCommand(env, BigPlans, args.Name, func(ctx context.Context, tx ports.Tx, ws domain.Workspace) (domain.BigPlanData, domain.EntityID, error) {
		data := domain.BigPlanData{Status: domain.BigPlanAccepted}
		var err error
		if data.ProjectRefID, err = resolveProject(ctx, tx, ws, args.Project); err != nil {
			return data, 0, err
		}
		if args.Status != "" {
			if data.Status, err = application.ValidateEnum("status", args.Status, domain.AllBigPlanStatuses); err != nil {
				return data, 0, err
			}
		}
		if data.ActionableDate, err = application.ValidateDate("actionableDate", args.ActionableDate); err != nil {
			return data, 0, err
		}
		if data.DueDate, err = application.ValidateDate("dueDate", args.DueDate); err != nil {
			return data, 0, err
		}
		return data, 0, checkDates(data.ActionableDate, data.DueDate)
	})
	cmd.after = refreshBigPlanLabels(env)
	return cmd
}

func refreshBigPlanLabels(env *application.Env) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := reconcile.NewLabelSync(env.Engine()).Refresh(ctx, domain.PropBigPlan)
		return err
	}
}

type BigPlanUpdate struct {
	Name           domain.UpdateAction[string]
	Project        domain.UpdateAction[string]
	Status         domain.UpdateAction[string]
	ActionableDate domain.UpdateAction[string]
	DueDate        domain.UpdateAction[string]
}

func NewBigPlanUpdateCommand(env *application.Env, refID string, u BigPlanUpdate) *UpdateCommand[domain.BigPlanData] {
	cmd := NewUpdateCommand(env, BigPlans, refID, u.Name, func(ctx context.Context, tx ports.Tx, ws domain.Workspace, _ domain.BigPlan, p *domain.BigPlanData) error {
		var err error
		if u.Project.ShouldChange() {
			if p.ProjectRefID, err = resolveProject(ctx, tx, ws, u.Project.Apply("")); err != nil {
				return err
			}
		}
		if err := applyEnum(u.Status, "status", domain.AllBigPlanStatuses, &p.Status, false); err != nil {
			return err
		}
		if err := applyDate(u.ActionableDate, "actionableDate", &p.ActionableDate); err != nil {
			return err
		}
		if err := applyDate(u.DueDate, "dueDate", &p.DueDate); err != nil {
			return err
		}
		return checkDates(p.ActionableDate, p.DueDate)
	})
	if u.Name.ShouldChange() {
		cmd.after = refreshBigPlanLabels(env)
	}
	return cmd
}

func NewBigPlanShowCommand(env *application.Env, refIDs []string, showArchived bool) *ShowCommand[domain.BigPlanData] {
	cmd := NewShowCommand(env, BigPlans, refIDs, showArchived)
	cmd.Describe = func(b domain.BigPlan) string {
		parts := []string{string(b.Payload.Status)}
		if b.Payload.DueDate != nil {
			parts = append(parts, "due "+b.Payload.DueDate.Format(time.DateOnly))
		}
		return strings.Join(parts, ", ")
	}
	return cmd
}
