package launcher

import (
	"testing"

	"jupiter/internal/domain"
)

func TestItemURL(t *testing.T) {
	tests := []struct {
		name   string
		webURL string
		id     domain.RemoteID
		want   string
	}{
		{
			name:   "dashes stripped",
			webURL: "https://www.notion.so",
			id:     "0b7e1c2a-4d5f-4a6b-8c9d-0e1f2a3b4c5d",
			want:   "https://www.notion.so/0b7e1c2a4d5f4a6b8c9d0e1f2a3b4c5d",
		},
		{
			name:   "trailing slash on base",
			webURL: "https://notes.example.com/",
			id:     "abc",
			want:   "https://notes.example.com/abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewOpener(tt.webURL).ItemURL(tt.id); got != tt.want {
				t.Errorf("ItemURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpen_RejectsEmptyID(t *testing.T) {
	if err := NewOpener("https://www.notion.so").Open(""); err == nil {
		t.Error("expected an error for an empty id")
	}
}
