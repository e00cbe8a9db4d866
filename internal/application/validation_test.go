package application

import (
	"errors"
	"testing"
	"time"

	"jupiter/internal/domain"
)

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		value     string
		wantErr   bool
	}{
		{
			name:      "valid value",
			fieldName: "name",
			value:     "Hit the gym",
			wantErr:   false,
		},
		{
			name:      "empty string",
			fieldName: "name",
			value:     "",
			wantErr:   true,
		},
		{
			name:      "whitespace only",
			fieldName: "timezone",
			value:     "   ",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired(tt.fieldName, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequired() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil {
				var valErr *ValidationError
				if !errors.As(err, &valErr) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				if valErr.Field != tt.fieldName {
					t.Errorf("expected field %s, got %s", tt.fieldName, valErr.Field)
				}
			}
		})
	}
}

func TestValidateRefID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    domain.EntityID
		wantErr string
	}{
		{name: "valid id", value: "42", want: 42},
		{name: "surrounding space", value: " 7 ", want: 7},
		{name: "empty", value: "", wantErr: "ref ID is required"},
		{name: "not a number", value: "abc", wantErr: "expected ref ID, got: abc"},
		{name: "zero", value: "0", wantErr: "expected ref ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateRefID("refID", tt.value)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if !contains(err.Error(), tt.wantErr) {
					t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ValidateRefID() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidateDate(t *testing.T) {
	got, err := ValidateDate("dueDate", "2022-05-22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2022, time.May, 22, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("ValidateDate() = %v, want %v", got, want)
	}

	if got, err := ValidateDate("dueDate", ""); err != nil || got != nil {
		t.Errorf("ValidateDate(\"\") = %v, %v, want nil, nil", got, err)
	}

	_, err = ValidateDate("dueDate", "22/05/2022")
	var valErr *ValidationError
	if !errors.As(err, &valErr) || valErr.Field != "dueDate" {
		t.Errorf("expected ValidationError on dueDate, got %v", err)
	}
}

func TestValidateEnum(t *testing.T) {
	tests := []struct {
		value   string
		want    domain.Eisen
		wantErr bool
	}{
		{value: "important-and-urgent", want: domain.EisenImportantAndUrgent},
		{value: "Regular", want: domain.EisenRegular},
		{value: "URGENT", want: domain.EisenUrgent},
		{value: "whenever", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ValidateEnum("eisen", tt.value, domain.AllEisens)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateEnum() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateEnum() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTargets(t *testing.T) {
	allowed := []domain.Family{domain.FamilyHabit, domain.FamilyChore}

	got, err := ParseTargets(nil, allowed)
	if err != nil || len(got) != 2 {
		t.Fatalf("ParseTargets(nil) = %v, %v", got, err)
	}

	got, err = ParseTargets([]string{"chores", "chores"}, allowed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != domain.FamilyChore {
		t.Errorf("ParseTargets() = %v, want [chores]", got)
	}

	_, err = ParseTargets([]string{"vacations"}, allowed)
	if err == nil || !contains(err.Error(), "unsupported target") {
		t.Errorf("expected unsupported target error, got %v", err)
	}
}

func TestParsePeriods(t *testing.T) {
	got, err := ParsePeriods([]string{"weekly", "Yearly"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != domain.PeriodWeekly || got[1] != domain.PeriodYearly {
		t.Errorf("ParsePeriods() = %v", got)
	}
	if _, err := ParsePeriods([]string{"hourly"}); err == nil {
		t.Error("expected error for hourly")
	}
}

func TestArchiveErrorMatchesSentinel(t *testing.T) {
	err := error(&ArchiveError{ID: "3", Reason: "projects are labels"})
	if !errors.Is(err, ErrCannotArchive) {
		t.Error("ArchiveError should match ErrCannotArchive")
	}
	err = &NotFoundError{Kind: "habit", ID: "9"}
	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
