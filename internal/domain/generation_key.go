package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// TemplateKind names what produced a generated inbox task
type TemplateKind string

const (
	TemplateHabit    TemplateKind = "habit"
	TemplateChore    TemplateKind = "chore"
	TemplateMetric   TemplateKind = "metric"
	TemplateCatchUp  TemplateKind = "catch-up"
	TemplateBirthday TemplateKind = "birthday"
)

// GenerationKey is the idempotence key of a generated inbox task.
// Serialized as kind:template-id:period:timeline:repeat-index, for
// example habit:7:weekly:2022:W20:0.
type GenerationKey struct {
	TemplateKind  TemplateKind
	TemplateRefID EntityID
	Period        Period
	Timeline      string
	RepeatIndex   int
}

// NewGenerationKey builds the key for one repeat of a period instance
func NewGenerationKey(kind TemplateKind, template EntityID, inst PeriodInstance, repeat int) GenerationKey {
	return GenerationKey{
		TemplateKind:  kind,
		TemplateRefID: template,
		Period:        inst.Period,
		Timeline:      inst.Timeline(),
		RepeatIndex:   repeat,
	}
}

func (k GenerationKey) String() string {
	return fmt.Sprintf("%s:%d:%s:%s:%d", k.TemplateKind, k.TemplateRefID, k.Period, k.Timeline, k.RepeatIndex)
}

// ParseGenerationKey reverses GenerationKey.String
func ParseGenerationKey(s string) (GenerationKey, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 5 {
		return GenerationKey{}, fmt.Errorf("invalid generation key %q", s)
	}
	id, err := ParseEntityID(parts[1])
	if err != nil {
		return GenerationKey{}, fmt.Errorf("invalid generation key %q: %w", s, err)
	}
	period, err := ParsePeriod(parts[2])
	if err != nil {
		return GenerationKey{}, fmt.Errorf("invalid generation key %q: %w", s, err)
	}
	repeat, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || repeat < 0 {
		return GenerationKey{}, fmt.Errorf("invalid generation key %q: bad repeat index", s)
	}
	return GenerationKey{
		TemplateKind:  TemplateKind(parts[0]),
		TemplateRefID: id,
		Period:        period,
		Timeline:      strings.Join(parts[3:len(parts)-1], ":"),
		RepeatIndex:   repeat,
	}, nil
}

// PushTaskKey is the natural key of the inbox task generated for a push task
func PushTaskKey(pushTask EntityID) string {
	return "push:" + pushTask.String()
}
