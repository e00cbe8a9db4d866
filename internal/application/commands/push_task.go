package commands

import (
	"context"
	"strings"

	"jupiter/internal/application"
	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

// PushTaskArgs describe a message that should become an inbox task
type PushTaskArgs struct {
	Name       string
	Kind       string
	User       string
	Channel    string
	Message    string
	ExternalID string
	Project    string
}

func NewPushTaskCreateCommand(env *application.Env, args PushTaskArgs) *CreateCommand[domain.PushTaskData] {
	return NewCreateCommand(env, PushTasks, args.Name, func(ctx context.Context, tx ports.Tx, ws domain.Workspace) (domain.PushTaskData, domain.EntityID, error) {
		data := domain.PushTaskData{
			Kind:       domain.PushSlack,
			User:       strings.TrimSpace(args.User),
			Channel:    strings.TrimSpace(args.Channel),
			Message:    strings.TrimSpace(args.Message),
			ExternalID: strings.TrimSpace(args.ExternalID),
		}
		var err error
		if args.Kind != "" {
			if data.Kind, err = application.ValidateEnum("kind", args.Kind, domain.AllPushKinds); err != nil {
				return data, 0, err
			}
		}
		if err := application.ValidateRequired("user", data.User); err != nil {
			return data, 0, err
		}
		if err := application.ValidateRequired("message", data.Message); err != nil {
			return data, 0, err
		}
		if data.GenerationProjectID, err = resolveProject(ctx, tx, ws, args.Project); err != nil {
			return data, 0, err
		}
		return data, 0, nil
	})
}

func NewPushTaskShowCommand(env *application.Env, refIDs []string, showArchived bool) *ShowCommand[domain.PushTaskData] {
	cmd := NewShowCommand(env, PushTasks, refIDs, showArchived)
	cmd.Describe = func(p domain.PushTask) string {
		s := string(p.Payload.Kind) + " from " + p.Payload.User
		if p.Payload.GeneratedInboxTaskID.IsSet() {
			s += ", task #" + p.Payload.GeneratedInboxTaskID.String()
		}
		return s
	}
	return cmd
}
