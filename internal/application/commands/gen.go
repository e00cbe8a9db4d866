package commands

import (
	"context"
	"fmt"
	"time"

	"jupiter/internal/application"
	"jupiter/internal/generator"
)

// GenResult contains the counters of a generation run
type GenResult struct {
	generator.Result
	Message string
}

// GenCommand generates inbox tasks from templates and push tasks
type GenCommand struct {
	env     *application.Env
	Periods []string
	Targets []string
	// Date is the reference day as YYYY-MM-DD; empty means today
	Date   string
	Filter []string
}

// NewGenCommand creates a new GenCommand
func NewGenCommand(env *application.Env, periods, targets []string, date string) *GenCommand {
	return &GenCommand{env: env, Periods: periods, Targets: targets, Date: date}
}

func (c *GenCommand) Validate() error {
	if _, err := application.ParsePeriods(c.Periods); err != nil {
		return err
	}
	if _, err := application.ParseTargets(c.Targets, generator.Targets); err != nil {
		return err
	}
	if _, err := application.ValidateDate("date", c.Date); err != nil {
		return err
	}
	_, err := application.ValidateRefIDs("filter", c.Filter)
	return err
}

func (c *GenCommand) Execute(ctx context.Context) (*GenResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	periods, _ := application.ParsePeriods(c.Periods)
	targets, _ := application.ParseTargets(c.Targets, generator.Targets)
	ids, _ := application.ValidateRefIDs("filter", c.Filter)
	opts := generator.Options{Periods: periods, Targets: targets, FilterRefIDs: ids}

	if day, _ := application.ValidateDate("date", c.Date); day != nil {
		ws, err := c.env.Workspace(ctx)
		if err != nil {
			return nil, err
		}
		loc := c.env.Engine().Location(ws)
		opts.Today = time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc)
	}

	res, err := generator.New(c.env.Engine()).Run(ctx, opts)
	out := &GenResult{
		Result:  res,
		Message: fmt.Sprintf("Generated %d inbox tasks (%d existing, %d skipped, %d published)", res.Created, res.Existing, res.Skipped, res.Published),
	}
	if err != nil {
		return out, fmt.Errorf("generation failed: %w", err)
	}
	return out, nil
}
