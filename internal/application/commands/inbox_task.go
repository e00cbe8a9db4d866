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

// InboxTaskArgs are the user-facing fields of a new inbox task
type InboxTaskArgs struct {
	Name           string
	Project        string
	BigPlan        string
	Status         string
	Eisen          string
	Difficulty     string
	ActionableDate string
	DueDate        string
	Notes          string
}

// NewInboxTaskCreateCommand creates a user inbox task. A task attached to a
// big plan takes the big plan's project.
func NewInboxTaskCreateCommand(env *application.Env, args InboxTaskArgs) *CreateCommand[domain.InboxTaskData] {
	return NewCreateCommand(env, InboxTasks, args.Name, func(ctx context.Context, tx ports.Tx, ws domain.Workspace) (domain.InboxTaskData, domain.EntityID, error) {
		data := domain.InboxTaskData{
			Source: domain.SourceUser,
			Status: domain.InboxTaskAccepted,
			Eisen:  domain.EisenRegular,
			Notes:  strings.TrimSpace(args.Notes),
		}
		var err error
		if data.ProjectRefID, err = resolveProject(ctx, tx, ws, args.Project); err != nil {
			return data, 0, err
		}
		if args.BigPlan != "" {
			plan, err := resolveBigPlan(ctx, tx, args.BigPlan)
			if err != nil {
				return data, 0, err
			}
			data.BigPlanRefID = plan.RefID
			data.Source = domain.SourceBigPlan
			data.SourceRefID = plan.RefID
			data.ProjectRefID = plan.Payload.ProjectRefID
		}
		if args.Status != "" {
			if data.Status, err = application.ValidateEnum("status", args.Status, domain.AllInboxTaskStatuses); err != nil {
				return data, 0, err
			}
		}
		if args.Eisen != "" {
			if data.Eisen, err = application.ValidateEnum("eisen", args.Eisen, domain.AllEisens); err != nil {
				return data, 0, err
			}
		}
		if args.Difficulty != "" {
			if data.Difficulty, err = application.ValidateEnum("difficulty", args.Difficulty, domain.AllDifficulties); err != nil {
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
}

func resolveBigPlan(ctx context.Context, tx ports.Tx, value string) (domain.BigPlan, error) {
	id, err := application.ValidateRefID("bigPlanID", value)
	if err != nil {
		return domain.BigPlan{}, err
	}
	return loadParent(ctx, tx.BigPlans(), "big plan", id)
}

func checkDates(actionable, due *time.Time) error {
	if actionable != nil && due != nil && due.Before(*actionable) {
		return &application.ValidationError{Field: "dueDate", Message: "due date is before the actionable date"}
	}
	return nil
}

// InboxTaskUpdate lists the changes to an inbox task
type InboxTaskUpdate struct {
	Name           domain.UpdateAction[string]
	Project        domain.UpdateAction[string]
	BigPlan        domain.UpdateAction[string]
	Status         domain.UpdateAction[string]
	Eisen          domain.UpdateAction[string]
	Difficulty     domain.UpdateAction[string]
	ActionableDate domain.UpdateAction[string]
	DueDate        domain.UpdateAction[string]
	Notes          domain.UpdateAction[string]
}

// NewInboxTaskUpdateCommand updates an inbox task. Generated tasks keep
// their source; only user and big plan tasks can move between big plans.
func NewInboxTaskUpdateCommand(env *application.Env, refID string, u InboxTaskUpdate) *UpdateCommand[domain.InboxTaskData] {
	return NewUpdateCommand(env, InboxTasks, refID, u.Name, func(ctx context.Context, tx ports.Tx, ws domain.Workspace, leaf domain.InboxTask, p *domain.InboxTaskData) error {
		var err error
		if u.Project.ShouldChange() {
			if p.ProjectRefID, err = resolveProject(ctx, tx, ws, u.Project.Apply("")); err != nil {
				return err
			}
		}
		if u.BigPlan.ShouldChange() {
			if p.Source != domain.SourceUser && p.Source != domain.SourceBigPlan {
				return &application.ValidationError{Field: "bigPlanID", Message: fmt.Sprintf("a %s task cannot be attached to a big plan", p.Source)}
			}
			if v := u.BigPlan.Apply(""); v == "" {
				p.BigPlanRefID, p.SourceRefID, p.Source = 0, 0, domain.SourceUser
			} else {
				plan, err := resolveBigPlan(ctx, tx, v)
				if err != nil {
					return err
				}
				p.BigPlanRefID, p.SourceRefID, p.Source = plan.RefID, plan.RefID, domain.SourceBigPlan
				p.ProjectRefID = plan.Payload.ProjectRefID
			}
		}
		if err := applyEnum(u.Status, "status", domain.AllInboxTaskStatuses, &p.Status, false); err != nil {
			return err
		}
		if err := applyEnum(u.Eisen, "eisen", domain.AllEisens, &p.Eisen, false); err != nil {
			return err
		}
		if err := applyEnum(u.Difficulty, "difficulty", domain.AllDifficulties, &p.Difficulty, true); err != nil {
			return err
		}
		if err := applyDate(u.ActionableDate, "actionableDate", &p.ActionableDate); err != nil {
			return err
		}
		if err := applyDate(u.DueDate, "dueDate", &p.DueDate); err != nil {
			return err
		}
		p.Notes = strings.TrimSpace(u.Notes.Apply(p.Notes))
		return checkDates(p.ActionableDate, p.DueDate)
	})
}

// applyEnum parses a Set action into dst. Clear is allowed only for
// optional fields.
func applyEnum[T ~string](a domain.UpdateAction[string], field string, allowed []T, dst *T, optional bool) error {
	switch a.Kind() {
	case domain.UpdateSet:
		v, err := application.ValidateEnum(field, a.Apply(""), allowed)
		if err != nil {
			return err
		}
		*dst = v
	case domain.UpdateClear:
		if !optional {
			return &application.ValidationError{Field: field, Message: field + " cannot be cleared"}
		}
		*dst = ""
	}
	return nil
}

func applyDate(a domain.UpdateAction[string], field string, dst **time.Time) error {
	if !a.ShouldChange() {
		return nil
	}
	d, err := application.ValidateDate(field, a.Apply(""))
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// NewInboxTaskShowCommand lists inbox tasks
func NewInboxTaskShowCommand(env *application.Env, refIDs []string, showArchived bool) *ShowCommand[domain.InboxTaskData] {
	cmd := NewShowCommand(env, InboxTasks, refIDs, showArchived)
	cmd.Describe = func(t domain.InboxTask) string {
		parts := []string{string(t.Payload.Status), string(t.Payload.Eisen)}
		if t.Payload.DueDate != nil {
			parts = append(parts, "due "+t.Payload.DueDate.Format(time.DateOnly))
		}
		if t.Payload.Source != domain.SourceUser {
			parts = append(parts, "from "+string(t.Payload.Source))
		}
		return strings.Join(parts, ", ")
	}
	return cmd
}
