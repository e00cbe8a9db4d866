package domain

import (
	"fmt"
	"strings"
	"time"
)

// Period is the recurrence interval of a template
type Period string

const (
	PeriodDaily     Period = "daily"
	PeriodWeekly    Period = "weekly"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
)

var AllPeriods = []Period{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly}

func ParsePeriod(s string) (Period, error) {
	return ParseEnum("period", s, AllPeriods)
}

// Date truncates t to a civil date in loc, returned as midnight UTC.
// Date-only values are always carried in this form.
func Date(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate reads a YYYY-MM-DD civil date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// PeriodInstance is one concrete occurrence of a period, e.g. ISO week 20 of 2022
type PeriodInstance struct {
	Period Period
	Start  time.Time // first civil day, inclusive
	End    time.Time // last civil day, inclusive
	Year   int
	Index  int // day of year, ISO week, month, quarter or year
}

// InstanceAt computes the period instance containing the civil date of ref in loc
func InstanceAt(period Period, ref time.Time, loc *time.Location) PeriodInstance {
	day := Date(ref, loc)
	year := day.Year()

	switch period {
	case PeriodDaily:
		return PeriodInstance{Period: period, Start: day, End: day, Year: year, Index: day.YearDay()}
	case PeriodWeekly:
		isoYear, week := day.ISOWeek()
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		start := day.AddDate(0, 0, -offset)
		return PeriodInstance{Period: period, Start: start, End: start.AddDate(0, 0, 6), Year: isoYear, Index: week}
	case PeriodMonthly:
		start := time.Date(year, day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return PeriodInstance{Period: period, Start: start, End: start.AddDate(0, 1, -1), Year: year, Index: int(day.Month())}
	case PeriodQuarterly:
		q := (int(day.Month())-1)/3 + 1
		start := time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return PeriodInstance{Period: period, Start: start, End: start.AddDate(0, 3, -1), Year: year, Index: q}
	default:
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return PeriodInstance{Period: PeriodYearly, Start: start, End: start.AddDate(1, 0, -1), Year: year, Index: year}
	}
}

// Timeline is the canonical textual form: 2022, 2022:Q2, 2022:M05, 2022:W20, 2022:M05:D20
func (p PeriodInstance) Timeline() string {
	return p.format(fmt.Sprintf("%04d", p.Year))
}

// ShortName is the suffix appended to generated task names: 22:W20
func (p PeriodInstance) ShortName() string {
	return p.format(fmt.Sprintf("%02d", p.Year%100))
}

func (p PeriodInstance) format(year string) string {
	switch p.Period {
	case PeriodDaily:
		return fmt.Sprintf("%s:M%02d:D%02d", year, int(p.Start.Month()), p.Start.Day())
	case PeriodWeekly:
		return fmt.Sprintf("%s:W%02d", year, p.Index)
	case PeriodMonthly:
		return fmt.Sprintf("%s:M%02d", year, p.Index)
	case PeriodQuarterly:
		return fmt.Sprintf("%s:Q%d", year, p.Index)
	default:
		return year
	}
}

// Contains reports whether the civil date d falls in the instance
func (p PeriodInstance) Contains(d time.Time) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// RecurringTaskGenParams are the generation parameters shared by every template
type RecurringTaskGenParams struct {
	Period              Period     `json:"period"`
	Eisen               Eisen      `json:"eisen"`
	Difficulty          Difficulty `json:"difficulty,omitempty"`
	ActionableFromDay   *int       `json:"actionable_from_day,omitempty"`
	ActionableFromMonth *int       `json:"actionable_from_month,omitempty"`
	DueAtDay            *int       `json:"due_at_day,omitempty"`
	DueAtMonth          *int       `json:"due_at_month,omitempty"`
	SkipRule            string     `json:"skip_rule,omitempty"`
}

// Validate checks the day and month offsets fit the period
func (g RecurringTaskGenParams) Validate() error {
	if _, err := ParsePeriod(string(g.Period)); err != nil {
		return err
	}
	if _, err := ParseSkipRule(g.SkipRule); err != nil {
		return err
	}
	maxDay := map[Period]int{PeriodDaily: 1, PeriodWeekly: 7, PeriodMonthly: 31, PeriodQuarterly: 31, PeriodYearly: 31}[g.Period]
	for name, v := range map[string]*int{"actionable from day": g.ActionableFromDay, "due at day": g.DueAtDay} {
		if v != nil && (*v < 1 || *v > maxDay) {
			return fmt.Errorf("%s must be between 1 and %d for a %s period", name, maxDay, g.Period)
		}
	}
	maxMonth := map[Period]int{PeriodQuarterly: 3, PeriodYearly: 12}[g.Period]
	for name, v := range map[string]*int{"actionable from month": g.ActionableFromMonth, "due at month": g.DueAtMonth} {
		if v == nil {
			continue
		}
		if maxMonth == 0 {
			return fmt.Errorf("%s only applies to quarterly and yearly periods", name)
		}
		if *v < 1 || *v > maxMonth {
			return fmt.Errorf("%s must be between 1 and %d for a %s period", name, maxMonth, g.Period)
		}
	}
	return nil
}

// ActionableDate is the first day the generated task can be worked on, if any
func (g RecurringTaskGenParams) ActionableDate(inst PeriodInstance) *time.Time {
	if g.ActionableFromDay == nil && g.ActionableFromMonth == nil {
		return nil
	}
	d := inst.offset(g.ActionableFromMonth, g.ActionableFromDay)
	return &d
}

// DueDate is the day the generated task is due, defaulting to the period end
func (g RecurringTaskGenParams) DueDate(inst PeriodInstance) time.Time {
	if g.DueAtDay == nil && g.DueAtMonth == nil {
		return inst.End
	}
	return inst.offset(g.DueAtMonth, g.DueAtDay)
}

func (p PeriodInstance) offset(month, day *int) time.Time {
	d := p.Start
	if month != nil {
		d = d.AddDate(0, *month-1, 0)
	}
	if day != nil {
		monthEnd := time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)
		d = d.AddDate(0, 0, *day-1)
		if p.Period != PeriodWeekly && d.After(monthEnd) {
			d = monthEnd
		}
	}
	if d.After(p.End) {
		return p.End
	}
	return d
}
