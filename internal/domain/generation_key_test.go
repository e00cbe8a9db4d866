package domain

import (
	"testing"
	"time"
)

func TestGenerationKeyString(t *testing.T) {
	inst := InstanceAt(PeriodWeekly, time.Date(2022, time.May, 20, 0, 0, 0, 0, time.UTC), time.UTC)
	key := NewGenerationKey(TemplateHabit, 7, inst, 0)

	if got := key.String(); got != "habit:7:weekly:2022:W20:0" {
		t.Fatalf("String() = %q", got)
	}

	parsed, err := ParseGenerationKey(key.String())
	if err != nil {
		t.Fatalf("ParseGenerationKey() error = %v", err)
	}
	if parsed != key {
		t.Errorf("ParseGenerationKey() = %+v, expected %+v", parsed, key)
	}
}

func TestParseGenerationKeyDailyTimeline(t *testing.T) {
	key, err := ParseGenerationKey("chore:12:daily:2022:M05:D20:1")
	if err != nil {
		t.Fatalf("ParseGenerationKey() error = %v", err)
	}
	if key.Timeline != "2022:M05:D20" || key.RepeatIndex != 1 || key.TemplateRefID != 12 {
		t.Errorf("unexpected key %+v", key)
	}
}

func TestParseGenerationKeyInvalid(t *testing.T) {
	for _, raw := range []string{"", "habit:7", "habit:x:weekly:2022:W20:0", "habit:7:hourly:2022:0", "habit:7:weekly:2022:W20:-1"} {
		if _, err := ParseGenerationKey(raw); err == nil {
			t.Errorf("ParseGenerationKey(%q) expected error", raw)
		}
	}
}
