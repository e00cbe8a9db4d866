package commands

import (
	"context"
	"fmt"
	"time"

	"jupiter/internal/application"
	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

type VacationArgs struct {
	Name      string
	StartDate string
	EndDate   string
}

func requiredDate(field, value string) (time.Time, error) {
	if err := application.ValidateRequired(field, value); err != nil {
		return time.Time{}, err
	}
	d, err := application.ValidateDate(field, value)
	if err != nil {
		return time.Time{}, err
	}
	return *d, nil
}

func NewVacationCreateCommand(env *application.Env, args VacationArgs) *CreateCommand[domain.VacationData] {
	return NewCreateCommand(env, Vacations, args.Name, func(context.Context, ports.Tx, domain.Workspace) (domain.VacationData, domain.EntityID, error) {
		var data domain.VacationData
		var err error
		if data.StartDate, err = requiredDate("startDate", args.StartDate); err != nil {
			return data, 0, err
		}
		if data.EndDate, err = requiredDate("endDate", args.EndDate); err != nil {
			return data, 0, err
		}
		return data, 0, checkWindow(&data.StartDate, &data.EndDate)
	})
}

type VacationUpdate struct {
	Name      domain.UpdateAction[string]
	StartDate domain.UpdateAction[string]
	EndDate   domain.UpdateAction[string]
}

func NewVacationUpdateCommand(env *application.Env, refID string, u VacationUpdate) *UpdateCommand[domain.VacationData] {
	return NewUpdateCommand(env, Vacations, refID, u.Name, func(_ context.Context, _ ports.Tx, _ domain.Workspace, _ domain.Vacation, p *domain.VacationData) error {
		var err error
		if u.StartDate.Kind() == domain.UpdateClear || u.EndDate.Kind() == domain.UpdateClear {
			return &application.ValidationError{Field: "startDate", Message: "vacation dates cannot be cleared"}
		}
		if u.StartDate.ShouldChange() {
			if p.StartDate, err = requiredDate("startDate", u.StartDate.Apply("")); err != nil {
				return err
			}
		}
		if u.EndDate.ShouldChange() {
			if p.EndDate, err = requiredDate("endDate", u.EndDate.Apply("")); err != nil {
				return err
			}
		}
		return checkWindow(&p.StartDate, &p.EndDate)
	})
}

func NewVacationShowCommand(env *application.Env, refIDs []string, showArchived bool) *ShowCommand[domain.VacationData] {
	cmd := NewShowCommand(env, Vacations, refIDs, showArchived)
	cmd.Describe = func(v domain.Vacation) string {
		return fmt.Sprintf("%s to %s", v.Payload.StartDate.Format(time.DateOnly), v.Payload.EndDate.Format(time.DateOnly))
	}
	return cmd
}
