package domain

import (
	"fmt"
	"strings"
)

// Eisen is the Eisenhower classification of a task
type Eisen string

const (
	EisenRegular            Eisen = "Regular"
	EisenImportant          Eisen = "Important"
	EisenUrgent             Eisen = "Urgent"
	EisenImportantAndUrgent Eisen = "Important And Urgent"
)

var AllEisens = []Eisen{EisenRegular, EisenImportant, EisenUrgent, EisenImportantAndUrgent}

// Difficulty is the estimated effort of a task
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

var AllDifficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// InboxTaskStatus tracks an inbox task through its lifecycle
type InboxTaskStatus string

const (
	InboxTaskNotStarted InboxTaskStatus = "Not Started"
	InboxTaskAccepted   InboxTaskStatus = "Accepted"
	InboxTaskRecurring  InboxTaskStatus = "Recurring"
	InboxTaskInProgress InboxTaskStatus = "In Progress"
	InboxTaskBlocked    InboxTaskStatus = "Blocked"
	InboxTaskNotDone    InboxTaskStatus = "Not Done"
	InboxTaskDone       InboxTaskStatus = "Done"
)

var AllInboxTaskStatuses = []InboxTaskStatus{
	InboxTaskNotStarted, InboxTaskAccepted, InboxTaskRecurring, InboxTaskInProgress,
	InboxTaskBlocked, InboxTaskNotDone, InboxTaskDone,
}

// IsCompleted reports whether the status is terminal
func (s InboxTaskStatus) IsCompleted() bool {
	return s == InboxTaskDone || s == InboxTaskNotDone
}

// BigPlanStatus tracks a big plan
type BigPlanStatus string

const (
	BigPlanNotStarted BigPlanStatus = "Not Started"
	BigPlanAccepted   BigPlanStatus = "Accepted"
	BigPlanInProgress BigPlanStatus = "In Progress"
	BigPlanBlocked    BigPlanStatus = "Blocked"
	BigPlanNotDone    BigPlanStatus = "Not Done"
	BigPlanDone       BigPlanStatus = "Done"
)

var AllBigPlanStatuses = []BigPlanStatus{
	BigPlanNotStarted, BigPlanAccepted, BigPlanInProgress, BigPlanBlocked, BigPlanNotDone, BigPlanDone,
}

// InboxTaskSource records what produced an inbox task
type InboxTaskSource string

const (
	SourceUser           InboxTaskSource = "User"
	SourceBigPlan        InboxTaskSource = "Big Plan"
	SourceHabit          InboxTaskSource = "Habit"
	SourceChore          InboxTaskSource = "Chore"
	SourceMetric         InboxTaskSource = "Metric"
	SourcePersonCatchUp  InboxTaskSource = "Person Catch Up"
	SourcePersonBirthday InboxTaskSource = "Person Birthday"
	SourceSlackTask      InboxTaskSource = "Slack Task"
	SourceEmailTask      InboxTaskSource = "Email Task"
)

var AllInboxTaskSources = []InboxTaskSource{
	SourceUser, SourceBigPlan, SourceHabit, SourceChore, SourceMetric,
	SourcePersonCatchUp, SourcePersonBirthday, SourceSlackTask, SourceEmailTask,
}

// PersonRelationship classifies a person
type PersonRelationship string

const (
	RelationshipFamily       PersonRelationship = "Family"
	RelationshipFriend       PersonRelationship = "Friend"
	RelationshipAcquaintance PersonRelationship = "Acquaintance"
	RelationshipSchoolBuddy  PersonRelationship = "School Buddy"
	RelationshipWorkBuddy    PersonRelationship = "Work Buddy"
	RelationshipColleague    PersonRelationship = "Colleague"
	RelationshipOther        PersonRelationship = "Other"
)

var AllRelationships = []PersonRelationship{
	RelationshipFamily, RelationshipFriend, RelationshipAcquaintance, RelationshipSchoolBuddy,
	RelationshipWorkBuddy, RelationshipColleague, RelationshipOther,
}

// PushKind is the integration a push task arrived through
type PushKind string

const (
	PushSlack PushKind = "Slack"
	PushEmail PushKind = "Email"
)

var AllPushKinds = []PushKind{PushSlack, PushEmail}

// normalizeEnum folds "important-and-urgent", "IMPORTANT_AND_URGENT" and
// "Important And Urgent" to the same key
func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// ParseEnum matches raw against the values of an enum, ignoring case and separators
func ParseEnum[E ~string](kind, raw string, all []E) (E, error) {
	key := normalizeEnum(raw)
	for _, v := range all {
		if normalizeEnum(string(v)) == key {
			return v, nil
		}
	}
	var zero E
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}

func ParseEisen(s string) (Eisen, error) { return ParseEnum("eisenhower", s, AllEisens) }

func ParseDifficulty(s string) (Difficulty, error) {
	return ParseEnum("difficulty", s, AllDifficulties)
}

func ParseInboxTaskStatus(s string) (InboxTaskStatus, error) {
	return ParseEnum("inbox task status", s, AllInboxTaskStatuses)
}

func ParseBigPlanStatus(s string) (BigPlanStatus, error) {
	return ParseEnum("big plan status", s, AllBigPlanStatuses)
}

func ParseInboxTaskSource(s string) (InboxTaskSource, error) {
	return ParseEnum("inbox task source", s, AllInboxTaskSources)
}

func ParseRelationship(s string) (PersonRelationship, error) {
	return ParseEnum("relationship", s, AllRelationships)
}

func ParsePushKind(s string) (PushKind, error) { return ParseEnum("push kind", s, AllPushKinds) }

// EnumNames renders enum values as select option names
func EnumNames[E ~string](all []E) []string {
	out := make([]string, 0, len(all))
	for _, v := range all {
		out = append(out, string(v))
	}
	return out
}
