package reconcile

import (
	"strings"
	"time"

	"jupiter/internal/domain"
	"jupiter/internal/ports"
)

// Family declares how one entity family maps onto a remote collection
type Family[P any] struct {
	Name   domain.Family
	Title  string
	Repo   func(tx ports.Tx) ports.LeafRepository[P]
	Fields []Field[P]
	// Default is the payload of a leaf first seen on the remote, before its
	// fields are read
	Default func(lk Lookup) P
}

// Schema is the collection schema the family needs
func (f Family[P]) Schema(lk Lookup) domain.Schema {
	s := domain.Schema{
		domain.PropName:           {Name: domain.PropName, Type: domain.PropTitle},
		domain.PropRefID:          {Name: domain.PropRefID, Type: domain.PropRichText},
		domain.PropArchived:       {Name: domain.PropArchived, Type: domain.PropCheckbox},
		domain.PropLastEditedTime: {Name: domain.PropLastEditedTime, Type: domain.PropLastEditedType},
	}
	for _, field := range f.Fields {
		s[field.Property] = field.schema(lk)
	}
	return s
}

// LabelProperties names the label fields of the family
func (f Family[P]) LabelProperties() []string {
	var out []string
	for _, field := range f.Fields {
		if field.Label {
			out = append(out, field.Property)
		}
	}
	return out
}

// Render projects a leaf onto the properties of its remote item
func (f Family[P]) Render(l domain.Leaf[P], lk Lookup) domain.Properties {
	props := domain.Properties{
		domain.PropName:     domain.TitleValue(l.Name),
		domain.PropArchived: domain.CheckboxValue(l.Archived),
	}
	if l.RefID.IsSet() {
		props[domain.PropRefID] = domain.RefIDValue(l.RefID)
	}
	for _, field := range f.Fields {
		props[field.Property] = field.Get(l, lk)
	}
	return props
}

// Absorb reads the writable properties of a remote item into a copy of l.
// The archived flag and timestamps are left to the caller.
func (f Family[P]) Absorb(l domain.Leaf[P], props domain.Properties, lk Lookup) domain.Leaf[P] {
	if name := strings.TrimSpace(props.Text(domain.PropName)); name != "" {
		l.Name = name
	}
	for _, field := range f.Fields {
		if field.Set == nil {
			continue
		}
		v, ok := props[field.Property]
		if !ok {
			continue
		}
		field.Set(&l, v, lk)
	}
	return l
}

// Differs reports whether two leaves project differently
func (f Family[P]) Differs(a, b domain.Leaf[P], lk Lookup) bool {
	return len(f.Render(a, lk).Diff(f.Render(b, lk), lk.Location)) > 0
}

// --- families ---

var InboxTaskFamily = Family[domain.InboxTaskData]{
	Name:  domain.FamilyInboxTask,
	Title: "Inbox Tasks",
	Repo:  func(tx ports.Tx) ports.LeafRepository[domain.InboxTaskData] { return tx.InboxTasks() },
	Fields: []Field[domain.InboxTaskData]{
		enumField("Status", domain.AllInboxTaskStatuses, false, func(p *domain.InboxTaskData) *domain.InboxTaskStatus { return &p.Status }),
		enumField("Eisenhower", domain.AllEisens, false, func(p *domain.InboxTaskData) *domain.Eisen { return &p.Eisen }),
		enumField("Difficulty", domain.AllDifficulties, true, func(p *domain.InboxTaskData) *domain.Difficulty { return &p.Difficulty }),
		dateField("Actionable Date", func(p *domain.InboxTaskData) **time.Time { return &p.ActionableDate }),
		dateField("Due Date", func(p *domain.InboxTaskData) **time.Time { return &p.DueDate }),
		projectField(func(p *domain.InboxTaskData) *domain.EntityID { return &p.ProjectRefID }),
		bigPlanField(func(p *domain.InboxTaskData) *domain.EntityID { return &p.BigPlanRefID }),
		readOnly(enumField("Source", domain.AllInboxTaskSources, false, func(p *domain.InboxTaskData) *domain.InboxTaskSource { return &p.Source })),
		readOnly(textField("Timeline", func(p *domain.InboxTaskData) *string { return &p.Timeline })),
		textField("Notes", func(p *domain.InboxTaskData) *string { return &p.Notes }),
	},
	Default: func(lk Lookup) domain.InboxTaskData {
		return domain.InboxTaskData{
			ProjectRefID: lk.DefaultProject,
			Source:       domain.SourceUser,
			Status:       domain.InboxTaskAccepted,
			Eisen:        domain.EisenRegular,
		}
	},
}

var BigPlanFamily = Family[domain.BigPlanData]{
	Name:  domain.FamilyBigPlan,
	Title: "Big Plans",
	Repo:  func(tx ports.Tx) ports.LeafRepository[domain.BigPlanData] { return tx.BigPlans() },
	Fields: []Field[domain.BigPlanData]{
		enumField("Status", domain.AllBigPlanStatuses, false, func(p *domain.BigPlanData) *domain.BigPlanStatus { return &p.Status }),
		dateField("Actionable Date", func(p *domain.BigPlanData) **time.Time { return &p.ActionableDate }),
		dateField("Due Date", func(p *domain.BigPlanData) **time.Time { return &p.DueDate }),
		projectField(func(p *domain.BigPlanData) *domain.EntityID { return &p.ProjectRefID }),
	},
	Default: func(lk Lookup) domain.BigPlanData {
		return domain.BigPlanData{ProjectRefID: lk.DefaultProject, Status: domain.BigPlanAccepted}
	},
}

func genParamFields[P any](ref func(*P) *domain.RecurringTaskGenParams) []Field[P] {
	return []Field[P]{
		enumField("Period", domain.AllPeriods, false, func(p *P) *domain.Period { return &ref(p).Period }),
		enumField("Eisenhower", domain.AllEisens, false, func(p *P) *domain.Eisen { return &ref(p).Eisen }),
		enumField("Difficulty", domain.AllDifficulties, true, func(p *P) *domain.Difficulty { return &ref(p).Difficulty }),
		optionalIntField("Actionable From Day", func(p *P) **int { return &ref(p).ActionableFromDay }),
		optionalIntField("Actionable From Month", func(p *P) **int { return &ref(p).ActionableFromMonth }),
		optionalIntField("Due At Day", func(p *P) **int { return &ref(p).DueAtDay }),
		optionalIntField("Due At Month", func(p *P) **int { return &ref(p).DueAtMonth }),
		skipRuleField("Skip Rule", func(p *P) *string { return &ref(p).SkipRule }),
	}
}

var HabitFamily = Family[domain.HabitData]{
	Name:  domain.FamilyHabit,
	Title: "Habits",
	Repo:  func(tx ports.Tx) ports.LeafRepository[domain.HabitData] { return tx.Habits() },
	Fields: append(genParamFields(func(p *domain.HabitData) *domain.RecurringTaskGenParams { return &p.GenParams }),
		checkboxField("Suspended", func(p *domain.HabitData) *bool { return &p.Suspended }),
		intField("Repeats In Period", func(p *domain.HabitData) *int { return &p.RepeatsInPeriodCount }),
		projectField(func(p *domain.HabitData) *domain.EntityID { return &p.ProjectRefID }),
	),
	Default: func(lk Lookup) domain.HabitData {
		return domain.HabitData{
			ProjectRefID: lk.DefaultProject,
			GenParams:    domain.RecurringTaskGenParams{Period: domain.PeriodWeekly, Eisen: domain.EisenRegular},
		}
	},
}

var ChoreFamily = Family[domain.ChoreData]{
	Name:  domain.FamilyChore,
	Title: "Chores",
	Repo:  func(tx ports.Tx) ports.LeafRepository[domain.ChoreData] { return tx.Chores() },
	Fields: append(genParamFields(func(p *domain.ChoreData) *domain.RecurringTaskGenParams { return &p.GenParams }),
		checkboxField("Suspended", func(p *domain.ChoreData) *bool { return &p.Suspended }),
		checkboxField("Must Do", func(p *domain.ChoreData) *bool { return &p.MustDo }),
		dateField("Start At Date", func(p *domain.ChoreData) **time.Time { return &p.StartAtDate }),
		dateField("End At Date", func(p *domain.ChoreData) **time.Time { return &p.EndAtDate }),
		projectField(func(p *domain.ChoreData) *domain.EntityID { return &p.ProjectRefID }),
	),
	Default: func(lk Lookup) domain.ChoreData {
		return domain.ChoreData{
			ProjectRefID: lk.DefaultProject,
			GenParams:    domain.RecurringTaskGenParams{Period: domain.PeriodWeekly, Eisen: domain.EisenRegular},
		}
	},
}

// collectionPeriodField maps an optional parameter block by its period
func collectionPeriodField[P any](prop string, ref func(*P) **domain.RecurringTaskGenParams) Field[P] {
	return Field[P]{
		Property: prop,
		Type:     domain.PropSelect,
		Options:  domain.EnumNames(domain.AllPeriods),
		Get: func(l domain.Leaf[P], _ Lookup) domain.PropValue {
			params := *ref(&l.Payload)
			if params == nil {
				return domain.SelectValue("")
			}
			return domain.SelectValue(string(params.Period))
		},
		Set: func(l *domain.Leaf[P], v domain.PropValue, _ Lookup) {
			slot := ref(&l.Payload)
			if v.Select == "" {
				*slot = nil
				return
			}
			period, err := domain.ParsePeriod(v.Select)
			if err != nil {
				return
			}
			if *slot == nil {
				*slot = &domain.RecurringTaskGenParams{Period: period, Eisen: domain.EisenRegular}
				return
			}
			params := **slot
			params.Period = period
			*slot = &params
		},
	}
}

var MetricFamily = Family[domain.MetricData]{
	Name:  domain.FamilyMetric,
	Title: "Metrics",
	Repo:  func(tx ports.Tx) ports.LeafRepository[domain.MetricData] { return tx.Metrics() },
	Fields: []Field[domain.MetricData]{
		textField("Unit", func(p *domain.MetricData) *string { return &p.Unit }),
		collectionPeriodField("Collection Period", func(p *domain.MetricData) **domain.RecurringTaskGenParams { return &p.CollectionParams }),
		projectField(func(p *domain.MetricData) *domain.EntityID { return &p.CollectionProjectRefID }),
	},
	Default: func(lk Lookup) domain.MetricData {
		return domain.MetricData{CollectionProjectRefID: lk.DefaultProject}
	},
}

var MetricEntryFamily = Family[domain.MetricEntryData]{
	Name:  domain.FamilyMetricEntry,
	Title: "Entries",
	Repo:  func(tx ports.Tx) ports.LeafRepository[domain.MetricEntryData] { return tx.MetricEntries() },
	Fields: []Field[domain.MetricEntryData]{
		instantField("Collection Time", func(p *domain.MetricEntryData) *time.Time { return &p.CollectionTime }),
		numberField("Value", func(p *domain.MetricEntryData) *float64 { return &p.Value }),
		textField("Notes", func(p *domain.MetricEntryData) *string { return &p.Notes }),
	},
	Default: func(Lookup) domain.MetricEntryData { return domain.MetricEntryData{} },
}

func birthdayField() Field[domain.PersonData] {
	return Field[domain.PersonData]{
		Property: "Birthday",
		Type:     domain.PropRichText,
		Get: func(l domain.Leaf[domain.PersonData], _ Lookup) domain.PropValue {
			if l.Payload.Birthday == nil {
				return domain.TextValue("")
			}
			return domain.TextValue(l.Payload.Birthday.String())
		},
		Set: func(l *domain.Leaf[domain.PersonData], v domain.PropValue, _ Lookup) {
			if strings.TrimSpace(v.Text) == "" {
				l.Payload.Birthday = nil
				return
			}
			if b, err := domain.ParseBirthday(v.Text); err == nil {
				l.Payload.Birthday = &b
			}
		},
	}
}

var PersonFamily = Family[domain.PersonData]{
	Name:  domain.FamilyPerson,
	Title: "Persons",
	Repo:  func(tx ports.Tx) ports.LeafRepository[domain.PersonData] { return tx.Persons() },
	Fields: []Field[domain.PersonData]{
		enumField("Relationship", domain.AllRelationships, false, func(p *domain.PersonData) *domain.PersonRelationship { return &p.Relationship }),
		birthdayField(),
		collectionPeriodField("Catch Up Period", func(p *domain.PersonData) **domain.RecurringTaskGenParams { return &p.CatchUpParams }),
	},
	Default: func(Lookup) domain.PersonData {
		return domain.PersonData{Relationship: domain.RelationshipFriend}
	},
}

var SmartListItemFamily = Family[domain.SmartListItemData]{
	Name:  domain.FamilySmartListItem,
	Title: "Items",
	Repo:  func(tx ports.Tx) ports.LeafRepository[domain.SmartListItemData] { return tx.SmartListItems() },
	Fields: []Field[domain.SmartListItemData]{
		checkboxField("Is Done", func(p *domain.SmartListItemData) *bool { return &p.IsDone }),
		tagsField(func(p *domain.SmartListItemData) *[]domain.EntityID { return &p.TagRefIDs }),
		urlField("URL", func(p *domain.SmartListItemData) *string { return &p.URL }),
	},
	Default: func(Lookup) domain.SmartListItemData { return domain.SmartListItemData{} },
}

var VacationFamily = Family[domain.VacationData]{
	Name:  domain.FamilyVacation,
	Title: "Vacations",
	Repo:  func(tx ports.Tx) ports.LeafRepository[domain.VacationData] { return tx.Vacations() },
	Fields: []Field[domain.VacationData]{
		requiredDateField("Start Date", func(p *domain.VacationData) *time.Time { return &p.StartDate }),
		requiredDateField("End Date", func(p *domain.VacationData) *time.Time { return &p.EndDate }),
	},
	Default: func(Lookup) domain.VacationData { return domain.VacationData{} },
}

var PushTaskFamily = Family[domain.PushTaskData]{
	Name:  domain.FamilyPushTask,
	Title: "Push Tasks",
	Repo:  func(tx ports.Tx) ports.LeafRepository[domain.PushTaskData] { return tx.PushTasks() },
	Fields: []Field[domain.PushTaskData]{
		enumField("Kind", domain.AllPushKinds, false, func(p *domain.PushTaskData) *domain.PushKind { return &p.Kind }),
		textField("User", func(p *domain.PushTaskData) *string { return &p.User }),
		textField("Channel", func(p *domain.PushTaskData) *string { return &p.Channel }),
		textField("Message", func(p *domain.PushTaskData) *string { return &p.Message }),
		readOnly(textField("External Id", func(p *domain.PushTaskData) *string { return &p.ExternalID })),
		projectField(func(p *domain.PushTaskData) *domain.EntityID { return &p.GenerationProjectID }),
	},
	Default: func(lk Lookup) domain.PushTaskData {
		return domain.PushTaskData{Kind: domain.PushSlack, GenerationProjectID: lk.DefaultProject}
	},
}
