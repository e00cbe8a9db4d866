package commands

import (
	"context"
	"strings"

	"jupiter/internal/application"
	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

type PersonArgs struct {
	Name           string
	Relationship   string
	CatchUp        *GenParamsArgs
	CatchUpProject string
	Birthday       string
}

func parseBirthday(s string) (*domain.Birthday, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	b, err := domain.ParseBirthday(s)
	if err != nil {
		return nil, &application.ValidationError{Field: "birthday", Message: err.Error()}
	}
	return &b, nil
}

func NewPersonCreateCommand(env *application.Env, args PersonArgs) *CreateCommand[domain.PersonData] {
	return NewCreateCommand(env, Persons, args.Name, func(ctx context.Context, tx ports.Tx, ws domain.Workspace) (domain.PersonData, domain.EntityID, error) {
		data := domain.PersonData{Relationship: domain.RelationshipFriend}
		var err error
		if args.Relationship != "" {
			if data.Relationship, err = application.ValidateEnum("relationship", args.Relationship, domain.AllRelationships); err != nil {
				return data, 0, err
			}
		}
		if args.CatchUp != nil {
			params, err := args.CatchUp.Params()
			if err != nil {
				return data, 0, err
			}
			data.CatchUpParams = &params
			if data.CatchUpProjectID, err = resolveProject(ctx, tx, ws, args.CatchUpProject); err != nil {
				return data, 0, err
			}
		}
		data.Birthday, err = parseBirthday(args.Birthday)
		return data, 0, err
	})
}

type PersonUpdate struct {
	Name         domain.UpdateAction[string]
	Relationship domain.UpdateAction[string]
	// CatchUp clears to stop catch-up tasks
	CatchUp  domain.UpdateAction[GenParamsArgs]
	Birthday domain.UpdateAction[string]
}

func NewPersonUpdateCommand(env *application.Env, refID string, u PersonUpdate) *UpdateCommand[domain.PersonData] {
	return NewUpdateCommand(env, Persons, refID, u.Name, func(_ context.Context, _ ports.Tx, _ domain.Workspace, _ domain.Person, p *domain.PersonData) error {
		if err := applyEnum(u.Relationship, "relationship", domain.AllRelationships, &p.Relationship, false); err != nil {
			return err
		}
		switch u.CatchUp.Kind() {
		case domain.UpdateSet:
			params, err := u.CatchUp.Apply(GenParamsArgs{}).Params()
			if err != nil {
				return err
			}
			p.CatchUpParams = &params
		case domain.UpdateClear:
			p.CatchUpParams = nil
		}
		if u.Birthday.ShouldChange() {
			b, err := parseBirthday(u.Birthday.Apply(""))
			if err != nil {
				return err
			}
			p.Birthday = b
		}
		return nil
	})
}

func NewPersonShowCommand(env *application.Env, refIDs []string, showArchived bool) *ShowCommand[domain.PersonData] {
	cmd := NewShowCommand(env, Persons, refIDs, showArchived)
	cmd.Describe = func(p domain.Person) string {
		parts := []string{string(p.Payload.Relationship)}
		if p.Payload.Birthday != nil {
			parts = append(parts, "born "+p.Payload.Birthday.String())
		}
		if p.Payload.CatchUpParams != nil {
			parts = append(parts, "catch up "+string(p.Payload.CatchUpParams.Period))
		}
		return strings.Join(parts, ", ")
	}
	return cmd
}
