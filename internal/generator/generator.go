// Package generator derives inbox tasks from recurring templates and push
// tasks. Every task carries a natural key, so reruns find what earlier runs
// produced instead of duplicating it.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
	"jupiter/internal/reconcile"
)

// Targets are the families that produce inbox tasks
var Targets = []domain.Family{
	domain.FamilyHabit, domain.FamilyChore, domain.FamilyMetric, domain.FamilyPerson, domain.FamilyPushTask,
}

// Options select what one run generates
type Options struct {
	// Periods to generate for; empty means all
	Periods []domain.Period
	// Targets to generate from; empty means all
	Targets []domain.Family
	// Today is the reference instant; zero means the clock's now
	Today        time.Time
	FilterRefIDs []domain.EntityID
}

func (o Options) period(p domain.Period) bool {
	return len(o.Periods) == 0 || slices.Contains(o.Periods, p)
}

func (o Options) target(f domain.Family) bool {
	return len(o.Targets) == 0 || slices.Contains(o.Targets, f)
}

// Result counts what a run did
type Result struct {
	Created int
	// Existing counts tasks an earlier run already produced
	Existing int
	// Skipped counts instances suppressed by a skip rule or a vacation
	Skipped   int
	Published int
	Tasks     []domain.InboxTask
}

type Generator struct {
	engine *reconcile.Engine
}

func New(engine *reconcile.Engine) *Generator {
	return &Generator{engine: engine}
}

// run holds the state of one generation inside its transaction
type run struct {
	ctx       context.Context
	tx        ports.Tx
	ws        domain.Workspace
	loc       *time.Location
	today     time.Time
	now       time.Time
	opts      Options
	vacations []domain.Vacation
	res       *Result
	bodies    map[domain.EntityID]string
	logger    *slog.Logger
}

// Run generates, commits, then publishes the new tasks to the remote. A
// publishing failure stops the remote work and is returned; the next sync
// creates whatever was not published.
func (g *Generator) Run(ctx context.Context, opts Options) (Result, error) {
	var res Result
	for _, t := range opts.Targets {
		if !slices.Contains(Targets, t) {
			return res, fmt.Errorf("%s do not generate inbox tasks", t)
		}
	}
	e := g.engine
	ws, err := e.Workspace(ctx)
	if err != nil {
		return res, err
	}
	today := opts.Today
	if today.IsZero() {
		today = e.Clock().Now()
	}

	r := &run{
		ctx:    ctx,
		ws:     ws,
		loc:    e.Location(ws),
		today:  today,
		now:    e.Clock().Now(),
		opts:   opts,
		res:    &res,
		bodies: map[domain.EntityID]string{},
		logger: e.Logger(),
	}
	err = ports.InTx(ctx, e.Store(), func(tx ports.Tx) error {
		r.tx = tx
		return r.generate()
	})
	if err != nil {
		return Result{}, err
	}
	e.Logger().Info("generated inbox tasks", "created", res.Created, "existing", res.Existing, "skipped", res.Skipped)

	inbox := reconcile.WorkspaceCollection(ws, reconcile.InboxTaskFamily)
	pub := reconcile.NewPublisher(e, reconcile.InboxTaskFamily)
	for _, task := range res.Tasks {
		link, err := pub.Publish(ctx, inbox, task)
		if err != nil {
			e.Logger().Warn("publishing generated tasks stopped", "ref_id", task.RefID, "error", err)
			return res, err
		}
		res.Published++
		if body, ok := r.bodies[task.RefID]; ok {
			if err := e.WriteBody(ctx, link.Key, body); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

func (r *run) generate() error {
	vacations, err := r.tx.Vacations().FindAll(r.ctx, ports.Filter{})
	if err != nil {
		return err
	}
	r.vacations = vacations

	steps := []struct {
		family domain.Family
		fn     func() error
	}{
		{domain.FamilyHabit, r.habits},
		{domain.FamilyChore, r.chores},
		{domain.FamilyMetric, r.metrics},
		{domain.FamilyPerson, r.persons},
		{domain.FamilyPushTask, r.pushTasks},
	}
	for _, step := range steps {
		if !r.opts.target(step.family) {
			continue
		}
		if err := step.fn(); err != nil {
			return fmt.Errorf("failed to generate from %s: %w", step.family, err)
		}
	}
	return nil
}

// onVacation reports whether a vacation covers the whole instance. Only
// daily and weekly instances are short enough to be covered.
func (r *run) onVacation(inst domain.PeriodInstance) bool {
	if inst.Period != domain.PeriodDaily && inst.Period != domain.PeriodWeekly {
		return false
	}
	for _, v := range r.vacations {
		if v.Payload.Covers(inst) {
			return true
		}
	}
	return false
}

func (r *run) project(id domain.EntityID) domain.EntityID {
	if id.IsSet() {
		return id
	}
	return r.ws.DefaultProjectRefID
}

// instance resolves the period instance of params for this run, or false
// when the period was not requested or the skip rule suppresses it. A rule
// that does not parse suppresses the instance too.
func (r *run) instance(template domain.EntityID, params domain.RecurringTaskGenParams) (domain.PeriodInstance, bool) {
	if !r.opts.period(params.Period) {
		return domain.PeriodInstance{}, false
	}
	inst := domain.InstanceAt(params.Period, r.today, r.loc)
	rule, err := domain.ParseSkipRule(params.SkipRule)
	if err != nil {
		r.logger.Warn("skipping template with an invalid skip rule", "ref_id", template, "skip_rule", params.SkipRule, "error", err)
		r.res.Skipped++
		return inst, false
	}
	if rule.Skips(inst) {
		r.res.Skipped++
		return inst, false
	}
	return inst, true
}

type emission struct {
	kind     domain.TemplateKind
	template domain.EntityID
	name     string
	source   domain.InboxTaskSource
	project  domain.EntityID
	params   domain.RecurringTaskGenParams
	inst     domain.PeriodInstance
	repeat   int
	repeats  int
	// due and actionable override the dates derived from params
	due        *time.Time
	actionable *time.Time
}

func (r *run) emit(em emission) error {
	key := domain.NewGenerationKey(em.kind, em.template, em.inst, em.repeat).String()
	repo := r.tx.InboxTasks()
	existing, err := repo.FindByNaturalKey(r.ctx, key)
	if err != nil {
		return err
	}
	if existing.IsFound() {
		r.res.Existing++
		return nil
	}

	name := em.name + " " + em.inst.ShortName()
	if em.repeats > 1 {
		name += fmt.Sprintf(" [%d/%d]", em.repeat+1, em.repeats)
	}
	due, actionable := em.due, em.actionable
	if due == nil {
		d := em.params.DueDate(em.inst)
		due = &d
		actionable = em.params.ActionableDate(em.inst)
	}
	repeat := em.repeat

	task, err := repo.Create(r.ctx, domain.NewLeaf(r.ws.RefID, name, domain.InboxTaskData{
		ProjectRefID:   r.project(em.project),
		Source:         em.source,
		SourceRefID:    em.template,
		Status:         domain.InboxTaskRecurring,
		Eisen:          em.params.Eisen,
		Difficulty:     em.params.Difficulty,
		ActionableDate: actionable,
		DueDate:        due,
		Timeline:       em.inst.Timeline(),
		RepeatIndex:    &repeat,
		GenKey:         key,
	}, r.now))
	if err != nil {
		return err
	}
	r.res.Created++
	r.res.Tasks = append(r.res.Tasks, task)
	return nil
}

func (r *run) habits() error {
	habits, err := r.tx.Habits().FindAll(r.ctx, ports.Filter{RefIDs: r.opts.FilterRefIDs})
	if err != nil {
		return err
	}
	for _, h := range habits {
		if h.Payload.Suspended {
			continue
		}
		inst, ok := r.instance(h.RefID, h.Payload.GenParams)
		if !ok {
			continue
		}
		if r.onVacation(inst) {
			r.res.Skipped++
			continue
		}
		n := h.Payload.Repeats()
		for i := range n {
			err := r.emit(emission{
				kind: domain.TemplateHabit, template: h.RefID, name: h.Name, source: domain.SourceHabit,
				project: h.Payload.ProjectRefID, params: h.Payload.GenParams, inst: inst, repeat: i, repeats: n,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *run) chores() error {
	chores, err := r.tx.Chores().FindAll(r.ctx, ports.Filter{RefIDs: r.opts.FilterRefIDs})
	if err != nil {
		return err
	}
	for _, c := range chores {
		if c.Payload.Suspended {
			continue
		}
		inst, ok := r.instance(c.RefID, c.Payload.GenParams)
		if !ok || !c.Payload.ActiveIn(inst) {
			continue
		}
		if !c.Payload.MustDo && r.onVacation(inst) {
			r.res.Skipped++
			continue
		}
		err := r.emit(emission{
			kind: domain.TemplateChore, template: c.RefID, name: c.Name, source: domain.SourceChore,
			project: c.Payload.ProjectRefID, params: c.Payload.GenParams, inst: inst, repeats: 1,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *run) metrics() error {
	metrics, err := r.tx.Metrics().FindAll(r.ctx, ports.Filter{RefIDs: r.opts.FilterRefIDs})
	if err != nil {
		return err
	}
	for _, m := range metrics {
		params := m.Payload.CollectionParams
		if params == nil {
			continue
		}
		inst, ok := r.instance(m.RefID, *params)
		if !ok {
			continue
		}
		err := r.emit(emission{
			kind: domain.TemplateMetric, template: m.RefID, name: "Collect value for " + m.Name, source: domain.SourceMetric,
			project: m.Payload.CollectionProjectRefID, params: *params, inst: inst, repeats: 1,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *run) persons() error {
	persons, err := r.tx.Persons().FindAll(r.ctx, ports.Filter{RefIDs: r.opts.FilterRefIDs})
	if err != nil {
		return err
	}
	for _, p := range persons {
		if params := p.Payload.CatchUpParams; params != nil {
			if inst, ok := r.instance(p.RefID, *params); ok {
				err := r.emit(emission{
					kind: domain.TemplateCatchUp, template: p.RefID, name: "Catch up with " + p.Name, source: domain.SourcePersonCatchUp,
					project: p.Payload.CatchUpProjectID, params: *params, inst: inst, repeats: 1,
				})
				if err != nil {
					return err
				}
			}
		}
		if err := r.birthday(p); err != nil {
			return err
		}
	}
	return nil
}

// birthday emits the yearly birthday task when a yearly run was asked for,
// or when the birthday falls in the instance of another requested period
func (r *run) birthday(p domain.Person) error {
	b := p.Payload.Birthday
	if b == nil {
		return nil
	}
	year := domain.InstanceAt(domain.PeriodYearly, r.today, r.loc)
	day := b.In(year.Year)

	due := false
	for _, period := range domain.AllPeriods {
		if r.opts.period(period) && (period == domain.PeriodYearly || domain.InstanceAt(period, r.today, r.loc).Contains(day)) {
			due = true
			break
		}
	}
	if !due {
		return nil
	}
	actionable := day.AddDate(0, 0, -7)
	if actionable.Before(year.Start) {
		actionable = year.Start
	}
	return r.emit(emission{
		kind: domain.TemplateBirthday, template: p.RefID, name: "Wish happy birthday to " + p.Name,
		source: domain.SourcePersonBirthday, params: domain.RecurringTaskGenParams{Period: domain.PeriodYearly, Eisen: domain.EisenImportant},
		inst: year, repeats: 1, due: &day, actionable: &actionable,
	})
}

// pushTasks emits one accepted inbox task per push task, carrying the
// message as the task body
func (r *run) pushTasks() error {
	repo := r.tx.PushTasks()
	pushes, err := repo.FindAll(r.ctx, ports.Filter{RefIDs: r.opts.FilterRefIDs})
	if err != nil {
		return err
	}
	inbox := r.tx.InboxTasks()
	for _, push := range pushes {
		key := domain.PushTaskKey(push.RefID)
		existing, err := inbox.FindByNaturalKey(r.ctx, key)
		if err != nil {
			return err
		}
		if existing.IsFound() {
			r.res.Existing++
			continue
		}

		due := domain.Date(r.today, r.loc)
		task, err := inbox.Create(r.ctx, domain.NewLeaf(r.ws.RefID, push.Name, domain.InboxTaskData{
			ProjectRefID: r.project(push.Payload.GenerationProjectID),
			Source:       push.Payload.Source(),
			SourceRefID:  push.RefID,
			Status:       domain.InboxTaskAccepted,
			Eisen:        domain.EisenRegular,
			DueDate:      &due,
			GenKey:       key,
		}, r.now))
		if err != nil {
			return err
		}
		data := push.Payload
		data.GeneratedInboxTaskID = task.RefID
		if _, err := repo.Save(r.ctx, push.WithPayload(data, r.now)); err != nil {
			return err
		}
		r.res.Created++
		r.res.Tasks = append(r.res.Tasks, task)
		r.bodies[task.RefID] = data.Message
	}
	return nil
}
