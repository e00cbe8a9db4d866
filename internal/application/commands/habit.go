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

// GenParamsArgs are the recurrence parameters of a template as typed by the user
type GenParamsArgs struct {
	Period              string
	Eisen               string
	Difficulty          string
	ActionableFromDay   *int
	ActionableFromMonth *int
	DueAtDay            *int
	DueAtMonth          *int
	SkipRule            string
}

// Params validates the arguments into generation parameters
func (a GenParamsArgs) Params() (domain.RecurringTaskGenParams, error) {
	var p domain.RecurringTaskGenParams
	var err error
	if p.Period, err = application.ValidateEnum("period", a.Period, domain.AllPeriods); err != nil {
		return p, err
	}
	p.Eisen = domain.EisenRegular
	if a.Eisen != "" {
		if p.Eisen, err = application.ValidateEnum("eisen", a.Eisen, domain.AllEisens); err != nil {
			return p, err
		}
	}
	if a.Difficulty != "" {
		if p.Difficulty, err = application.ValidateEnum("difficulty", a.Difficulty, domain.AllDifficulties); err != nil {
			return p, err
		}
	}
	p.ActionableFromDay = a.ActionableFromDay
	p.ActionableFromMonth = a.ActionableFromMonth
	p.DueAtDay = a.DueAtDay
	p.DueAtMonth = a.DueAtMonth
	p.SkipRule = strings.TrimSpace(a.SkipRule)
	if err := p.Validate(); err != nil {
		return p, &application.ValidationError{Field: "period", Message: err.Error()}
	}
	return p, nil
}

type HabitArgs struct {
	Name            string
	Project         string
	Params          GenParamsArgs
	RepeatsInPeriod int
}

func NewHabitCreateCommand(env *application.Env, args HabitArgs) *CreateCommand[domain.HabitData] {
	return NewCreateCommand(env, Habits, args.Name, func(ctx context.Context, tx ports.Tx, ws domain.Workspace) (domain.HabitData, domain.EntityID, error) {
		var data domain.HabitData
		var err error
		if data.ProjectRefID, err = resolveProject(ctx, tx, ws, args.Project); err != nil {
			return data, 0, err
		}
		if data.GenParams, err = args.Params.Params(); err != nil {
			return data, 0, err
		}
		if args.RepeatsInPeriod < 0 {
			return data, 0, &application.ValidationError{Field: "repeatsInPeriod", Message: "repeats must be positive"}
		}
		data.RepeatsInPeriodCount = args.RepeatsInPeriod
		return data, 0, nil
	})
}

type HabitUpdate struct {
	Name            domain.UpdateAction[string]
	Project         domain.UpdateAction[string]
	Params          domain.UpdateAction[GenParamsArgs]
	RepeatsInPeriod domain.UpdateAction[int]
}

func NewHabitUpdateCommand(env *application.Env, refID string, u HabitUpdate) *UpdateCommand[domain.HabitData] {
	return NewUpdateCommand(env, Habits, refID, u.Name, func(ctx context.Context, tx ports.Tx, ws domain.Workspace, _ domain.Habit, p *domain.HabitData) error {
		var err error
		if u.Project.ShouldChange() {
			if p.ProjectRefID, err = resolveProject(ctx, tx, ws, u.Project.Apply("")); err != nil {
				return err
			}
		}
		if err := applyParams(u.Params, &p.GenParams); err != nil {
			return err
		}
		p.RepeatsInPeriodCount = u.RepeatsInPeriod.Apply(p.RepeatsInPeriodCount)
		if p.RepeatsInPeriodCount < 0 {
			return &application.ValidationError{Field: "repeatsInPeriod", Message: "repeats must be positive"}
		}
		return nil
	})
}

func applyParams(a domain.UpdateAction[GenParamsArgs], dst *domain.RecurringTaskGenParams) error {
	switch a.Kind() {
	case domain.UpdateSet:
		params, err := a.Apply(GenParamsArgs{}).Params()
		if err != nil {
			return err
		}
		*dst = params
	case domain.UpdateClear:
		return &application.ValidationError{Field: "period", Message: "recurrence cannot be cleared"}
	}
	return nil
}

type ChoreArgs struct {
	Name        string
	Project     string
	Params      GenParamsArgs
	MustDo      bool
	StartAtDate string
	EndAtDate   string
}

func NewChoreCreateCommand(env *application.Env, args ChoreArgs) *CreateCommand[domain.ChoreData] {
	return NewCreateCommand(env, Chores, args.Name, func(ctx context.Context, tx ports.Tx, ws domain.Workspace) (domain.ChoreData, domain.EntityID, error) {
		data := domain.ChoreData{MustDo: args.MustDo}
		var err error
		if data.ProjectRefID, err = resolveProject(ctx, tx, ws, args.Project); err != nil {
			return data, 0, err
		}
		if data.GenParams, err = args.Params.Params(); err != nil {
			return data, 0, err
		}
		if data.StartAtDate, err = application.ValidateDate("startDate", args.StartAtDate); err != nil {
			return data, 0, err
		}
		if data.EndAtDate, err = application.ValidateDate("endDate", args.EndAtDate); err != nil {
			return data, 0, err
		}
		return data, 0, checkWindow(data.StartAtDate, data.EndAtDate)
	})
}

func checkWindow(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return &application.ValidationError{Field: "endDate", Message: "end date is before the start date"}
	}
	return nil
}

type ChoreUpdate struct {
	Name        domain.UpdateAction[string]
	Project     domain.UpdateAction[string]
	Params      domain.UpdateAction[GenParamsArgs]
	MustDo      domain.UpdateAction[bool]
	StartAtDate domain.UpdateAction[string]
	EndAtDate   domain.UpdateAction[string]
}

func NewChoreUpdateCommand(env *application.Env, refID string, u ChoreUpdate) *UpdateCommand[domain.ChoreData] {
	return NewUpdateCommand(env, Chores, refID, u.Name, func(ctx context.Context, tx ports.Tx, ws domain.Workspace, _ domain.Chore, p *domain.ChoreData) error {
		var err error
		if u.Project.ShouldChange() {
			if p.ProjectRefID, err = resolveProject(ctx, tx, ws, u.Project.Apply("")); err != nil {
				return err
			}
		}
		if err := applyParams(u.Params, &p.GenParams); err != nil {
			return err
		}
		p.MustDo = u.MustDo.Apply(p.MustDo)
		if err := applyDate(u.StartAtDate, "startDate", &p.StartAtDate); err != nil {
			return err
		}
		if err := applyDate(u.EndAtDate, "endDate", &p.EndAtDate); err != nil {
			return err
		}
		return checkWindow(p.StartAtDate, p.EndAtDate)
	})
}

// SuspendResult contains the result of suspending or resuming a template
type SuspendResult struct {
	RefID   domain.EntityID
	Changed bool
	Message string
}

// SuspendCommand suspends or resumes generation for a habit or chore
type SuspendCommand struct {
	env     *application.Env
	Family  domain.Family
	RefID   string
	Suspend bool
}

// NewSuspendCommand creates a new SuspendCommand
func NewSuspendCommand(env *application.Env, family domain.Family, refID string, suspend bool) *SuspendCommand {
	return &SuspendCommand{
		env:     env,
		Family:  family,
		RefID:   refID,
		Suspend: suspend,
	}
}

// Validate checks the family supports suspension
func (c *SuspendCommand) Validate() error {
	if c.Family != domain.FamilyHabit && c.Family != domain.FamilyChore {
		return &application.ValidationError{Field: "target", Message: fmt.Sprintf("%s cannot be suspended", c.Family)}
	}
	_, err := application.ValidateRefID("refID", c.RefID)
	return err
}

// Execute runs the suspend command
func (c *SuspendCommand) Execute(ctx context.Context) (*SuspendResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var result *SuspendResult
	var err error
	if c.Family == domain.FamilyHabit {
		result, err = runSuspend(ctx, NewUpdateCommand(c.env, Habits, c.RefID, domain.Keep[string](),
			func(_ context.Context, _ ports.Tx, _ domain.Workspace, _ domain.Habit, p *domain.HabitData) error {
				p.Suspended = c.Suspend
				return nil
			}))
	} else {
		result, err = runSuspend(ctx, NewUpdateCommand(c.env, Chores, c.RefID, domain.Keep[string](),
			func(_ context.Context, _ ports.Tx, _ domain.Workspace, _ domain.Chore, p *domain.ChoreData) error {
				p.Suspended = c.Suspend
				return nil
			}))
	}
	if result != nil && result.Changed {
		verb := "Resumed"
		if c.Suspend {
			verb = "Suspended"
		}
		result.Message = fmt.Sprintf("%s %s #%d", verb, c.Family, result.RefID)
	}
	return result, err
}

func runSuspend[P any](ctx context.Context, cmd *UpdateCommand[P]) (*SuspendResult, error) {
	res, err := cmd.Execute(ctx)
	if res == nil {
		return nil, err
	}
	return &SuspendResult{RefID: res.Leaf.RefID, Changed: res.Changed, Message: res.Message}, err
}

func describeParams(p domain.RecurringTaskGenParams) string {
	parts := []string{string(p.Period), string(p.Eisen)}
	if p.SkipRule != "" {
		parts = append(parts, "skip "+p.SkipRule)
	}
	return strings.Join(parts, ", ")
}

func NewHabitShowCommand(env *application.Env, refIDs []string, showArchived bool) *ShowCommand[domain.HabitData] {
	cmd := NewShowCommand(env, Habits, refIDs, showArchived)
	cmd.Describe = func(h domain.Habit) string {
		s := describeParams(h.Payload.GenParams)
		if h.Payload.Repeats() > 1 {
			s += fmt.Sprintf(", %d times", h.Payload.Repeats())
		}
		if h.Payload.Suspended {
			s += ", suspended"
		}
		return s
	}
	return cmd
}

func NewChoreShowCommand(env *application.Env, refIDs []string, showArchived bool) *ShowCommand[domain.ChoreData] {
	cmd := NewShowCommand(env, Chores, refIDs, showArchived)
	cmd.Describe = func(c domain.Chore) string {
		s := describeParams(c.Payload.GenParams)
		if c.Payload.MustDo {
			s += ", must do"
		}
		if c.Payload.Suspended {
			s += ", suspended"
		}
		return s
	}
	return cmd
}
