package domain

import (
	"fmt"
	"strings"
	"time"
)

// Family identifies one kind of managed entity. The value doubles as the
// table name suffix and the scope key prefix of its collection.
type Family string

const (
	FamilyProject       Family = "projects"
	FamilyInboxTask     Family = "inbox-tasks"
	FamilyBigPlan       Family = "big-plans"
	FamilyHabit         Family = "habits"
	FamilyChore         Family = "chores"
	FamilyMetric        Family = "metrics"
	FamilyMetricEntry   Family = "metric-entries"
	FamilyPerson        Family = "persons"
	FamilySmartList     Family = "smart-lists"
	FamilySmartListTag  Family = "smart-list-tags"
	FamilySmartListItem Family = "smart-list-items"
	FamilyVacation      Family = "vacations"
	FamilyPushTask      Family = "push-tasks"
)

var AllFamilies = []Family{
	FamilyProject, FamilyInboxTask, FamilyBigPlan, FamilyHabit, FamilyChore, FamilyMetric,
	FamilyMetricEntry, FamilyPerson, FamilySmartList, FamilySmartListTag, FamilySmartListItem,
	FamilyVacation, FamilyPushTask,
}

func ParseFamily(s string) (Family, error) {
	return ParseEnum("target", s, AllFamilies)
}

// NaturalKeyed payloads carry a secondary unique key, such as a generation key
type NaturalKeyed interface {
	NaturalKey() string
}

type ProjectData struct {
	Key string `json:"key"`
}

type InboxTaskData struct {
	ProjectRefID   EntityID        `json:"project_ref_id"`
	BigPlanRefID   EntityID        `json:"big_plan_ref_id,omitempty"`
	Source         InboxTaskSource `json:"source"`
	SourceRefID    EntityID        `json:"source_ref_id,omitempty"`
	Status         InboxTaskStatus `json:"status"`
	Eisen          Eisen           `json:"eisen"`
	Difficulty     Difficulty      `json:"difficulty,omitempty"`
	ActionableDate *time.Time      `json:"actionable_date,omitempty"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	Timeline       string          `json:"timeline,omitempty"`
	RepeatIndex    *int            `json:"repeat_index,omitempty"`
	GenKey         string          `json:"gen_key,omitempty"`
	Notes          string          `json:"notes,omitempty"`
}

func (d InboxTaskData) NaturalKey() string { return d.GenKey }

// BelongsTo reports whether the task was produced by, or assigned to, the
// given parent
func (d InboxTaskData) BelongsTo(source InboxTaskSource, parent EntityID) bool {
	if source == SourceBigPlan {
		return d.BigPlanRefID == parent
	}
	return d.Source == source && d.SourceRefID == parent
}

type BigPlanData struct {
	ProjectRefID   EntityID      `json:"project_ref_id"`
	Status         BigPlanStatus `json:"status"`
	ActionableDate *time.Time    `json:"actionable_date,omitempty"`
	DueDate        *time.Time    `json:"due_date,omitempty"`
}

type HabitData struct {
	ProjectRefID         EntityID               `json:"project_ref_id"`
	GenParams            RecurringTaskGenParams `json:"gen_params"`
	Suspended            bool                   `json:"suspended"`
	RepeatsInPeriodCount int                    `json:"repeats_in_period_count,omitempty"`
}

// Repeats is the number of tasks emitted per period instance
func (d HabitData) Repeats() int {
	if d.RepeatsInPeriodCount < 1 {
		return 1
	}
	return d.RepeatsInPeriodCount
}

type ChoreData struct {
	ProjectRefID EntityID               `json:"project_ref_id"`
	GenParams    RecurringTaskGenParams `json:"gen_params"`
	Suspended    bool                   `json:"suspended"`
	MustDo       bool                   `json:"must_do"`
	StartAtDate  *time.Time             `json:"start_at_date,omitempty"`
	EndAtDate    *time.Time             `json:"end_at_date,omitempty"`
}

// ActiveIn reports whether the chore window overlaps the instance
func (d ChoreData) ActiveIn(inst PeriodInstance) bool {
	if d.StartAtDate != nil && inst.End.Before(*d.StartAtDate) {
		return false
	}
	if d.EndAtDate != nil && inst.Start.After(*d.EndAtDate) {
		return false
	}
	return true
}

type MetricData struct {
	Unit                   string                  `json:"unit,omitempty"`
	CollectionParams       *RecurringTaskGenParams `json:"collection_params,omitempty"`
	CollectionProjectRefID EntityID                `json:"collection_project_ref_id,omitempty"`
}

type MetricEntryData struct {
	CollectionTime time.Time `json:"collection_time"`
	Value          float64   `json:"value"`
	Notes          string    `json:"notes,omitempty"`
}

// Birthday is a recurring day of the year
type Birthday struct {
	Day   int        `json:"day"`
	Month time.Month `json:"month"`
}

// ParseBirthday reads "20 May", "20 may" or "5/20"
func ParseBirthday(s string) (Birthday, error) {
	var b Birthday
	var day, month int
	var monthName string
	if _, err := fmt.Sscanf(s, "%d/%d", &month, &day); err == nil {
		b.Day, b.Month = day, time.Month(month)
	} else if _, err := fmt.Sscanf(s, "%d %s", &day, &monthName); err == nil && len(monthName) >= 3 {
		abbr := strings.ToUpper(monthName[:1]) + strings.ToLower(monthName[1:3])
		t, err := time.Parse("Jan", abbr)
		if err != nil {
			return Birthday{}, fmt.Errorf("invalid birthday %q", s)
		}
		b.Day, b.Month = day, t.Month()
	} else {
		return Birthday{}, fmt.Errorf("invalid birthday %q", s)
	}
	if b.Month < time.January || b.Month > time.December || b.Day < 1 || b.Day > 31 {
		return Birthday{}, fmt.Errorf("invalid birthday %q", s)
	}
	return b, nil
}

func (b Birthday) String() string {
	return fmt.Sprintf("%d %s", b.Day, b.Month.String()[:3])
}

// In returns the birthday's date in the given year, clamping 29 Feb
func (b Birthday) In(year int) time.Time {
	d := time.Date(year, b.Month, b.Day, 0, 0, 0, 0, time.UTC)
	if d.Month() != b.Month {
		d = time.Date(year, b.Month+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return d
}

type PersonData struct {
	Relationship     PersonRelationship      `json:"relationship"`
	CatchUpParams    *RecurringTaskGenParams `json:"catch_up_params,omitempty"`
	CatchUpProjectID EntityID                `json:"catch_up_project_ref_id,omitempty"`
	Birthday         *Birthday               `json:"birthday,omitempty"`
}

type SmartListData struct {
	Key string `json:"key"`
}

type SmartListTagData struct{}

type SmartListItemData struct {
	IsDone    bool       `json:"is_done"`
	TagRefIDs []EntityID `json:"tag_ref_ids,omitempty"`
	URL       string     `json:"url,omitempty"`
}

type VacationData struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Covers reports whether the whole instance falls inside the vacation
func (d VacationData) Covers(inst PeriodInstance) bool {
	return !inst.Start.Before(d.StartDate) && !inst.End.After(d.EndDate)
}

type PushTaskData struct {
	Kind                 PushKind `json:"kind"`
	User                 string   `json:"user"`
	Channel              string   `json:"channel,omitempty"`
	Message              string   `json:"message"`
	ExternalID           string   `json:"external_id,omitempty"`
	GenerationProjectID  EntityID `json:"generation_project_ref_id,omitempty"`
	GeneratedInboxTaskID EntityID `json:"generated_inbox_task_ref_id,omitempty"`
}

func (d PushTaskData) NaturalKey() string {
	if d.ExternalID == "" {
		return ""
	}
	return string(d.Kind) + ":" + d.ExternalID
}

// Source is the inbox task source a push task produces
func (d PushTaskData) Source() InboxTaskSource {
	if d.Kind == PushEmail {
		return SourceEmailTask
	}
	return SourceSlackTask
}

// Entity aliases used throughout the engine
type (
	Project       = Leaf[ProjectData]
	InboxTask     = Leaf[InboxTaskData]
	BigPlan       = Leaf[BigPlanData]
	Habit         = Leaf[HabitData]
	Chore         = Leaf[ChoreData]
	Metric        = Leaf[MetricData]
	MetricEntry   = Leaf[MetricEntryData]
	Person        = Leaf[PersonData]
	SmartList     = Leaf[SmartListData]
	SmartListTag  = Leaf[SmartListTagData]
	SmartListItem = Leaf[SmartListItemData]
	Vacation      = Leaf[VacationData]
	PushTask      = Leaf[PushTaskData]
)
