package domain

import "testing"

func TestSkipRule(t *testing.T) {
	tests := []struct {
		rule    string
		index   int
		skipped bool
	}{
		{"", 4, false},
		{"none", 3, false},
		{"even", 4, true},
		{"even", 5, false},
		{"odd", 5, true},
		{"odd", 4, false},
		{"every 3", 6, false},
		{"every 3", 7, true},
		{"every 3 offset 1", 7, false},
		{"every 3 offset 1", 6, true},
		{"in 2,4", 4, true},
		{"in 2, 4", 2, true},
		{"in 2,4", 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			rule, err := ParseSkipRule(tt.rule)
			if err != nil {
				t.Fatalf("ParseSkipRule(%q) error = %v", tt.rule, err)
			}
			got := rule.Skips(PeriodInstance{Period: PeriodWeekly, Index: tt.index})
			if got != tt.skipped {
				t.Errorf("Skips(%d) = %v, expected %v", tt.index, got, tt.skipped)
			}
		})
	}
}

func TestParseSkipRuleInvalid(t *testing.T) {
	for _, raw := range []string{"sometimes", "every", "every 0", "every 2 after 1", "in", "in a,b", "even 2"} {
		t.Run(raw, func(t *testing.T) {
			if _, err := ParseSkipRule(raw); err == nil {
				t.Errorf("ParseSkipRule(%q) expected error", raw)
			}
		})
	}
}
