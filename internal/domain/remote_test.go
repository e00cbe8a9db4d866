package domain

import (
	"testing"
	"time"
)

func TestPropValueEqual(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("timezone database unavailable")
	}
	due := time.Date(2022, time.May, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		a, b     PropValue
		expected bool
	}{
		{"same title", TitleValue("A"), TitleValue("A"), true},
		{"different title", TitleValue("A"), TitleValue("B"), false},
		{"nil numbers", NumberValue(nil), NumberValue(nil), true},
		{"number vs nil", NumberOf(1), NumberValue(nil), false},
		{"multi select ignores order", MultiSelectValue([]string{"a", "b"}), MultiSelectValue([]string{"b", "a"}), true},
		{"date only", DateOnlyValue(&due), DateOnlyValue(&due), true},
		{
			name:     "date time on same civil day in workspace timezone",
			a:        DateOnlyValue(&due),
			b:        DateTimeValue(time.Date(2022, time.May, 21, 2, 0, 0, 0, time.UTC)),
			expected: true,
		},
		{
			name:     "date time on next civil day",
			a:        DateOnlyValue(&due),
			b:        DateTimeValue(time.Date(2022, time.May, 21, 5, 0, 0, 0, time.UTC)),
			expected: false,
		},
		{"empty select vs missing", SelectValue(""), PropValue{}, true},
		{"checkbox", CheckboxValue(true), CheckboxValue(false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b, ny); got != tt.expected {
				t.Errorf("Equal() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestPropertiesDiff(t *testing.T) {
	current := Properties{
		PropName:   TitleValue("Take kitty to the vet"),
		"Status":   SelectValue("Accepted"),
		PropRefID:  RefIDValue(3),
		"Archived": CheckboxValue(false),
	}
	want := Properties{
		PropName:  TitleValue("Take kitty to the vet"),
		"Status":  SelectValue("Done"),
		PropRefID: RefIDValue(3),
	}

	diff := current.Diff(want, time.UTC)
	if len(diff) != 1 {
		t.Fatalf("Diff() = %v, expected one changed property", diff)
	}
	if diff["Status"].Select != "Done" {
		t.Errorf("Diff()[Status] = %q, expected Done", diff["Status"].Select)
	}
}

func TestRemoteItemRefID(t *testing.T) {
	tests := []struct {
		text  string
		found bool
		id    EntityID
	}{
		{"12", true, 12},
		{" 7 ", true, 7},
		{"", false, 0},
		{"abc", false, 0},
		{"-3", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			item := RemoteItem{Properties: Properties{PropRefID: TextValue(tt.text)}}
			id, found := item.RefID().Get()
			if found != tt.found || id != tt.id {
				t.Errorf("RefID() = (%d, %v), expected (%d, %v)", id, found, tt.id, tt.found)
			}
		})
	}
}
