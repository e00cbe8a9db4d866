package editor

import (
	"os"
	"testing"
)

func TestCommand_UsesEditorWithArguments(t *testing.T) {
	t.Setenv("EDITOR", "code --wait")

	cmd, err := NewOpener().Command("/tmp/notes.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"code", "--wait", "/tmp/notes.md"}
	if len(cmd.Args) != len(want) {
		t.Fatalf("args = %v, want %v", cmd.Args, want)
	}
	for i := range want {
		if cmd.Args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, cmd.Args[i], want[i])
		}
	}
}

func TestDraft(t *testing.T) {
	tests := []struct {
		name        string
		original    string
		edited      string
		wantText    string
		wantChanged bool
	}{
		{"untouched", "call back", "call back", "call back", false},
		{"editor adds newline", "call back", "call back\n", "call back", false},
		{"rewritten", "call back", "call back on Monday\n\n", "call back on Monday", true},
		{"cleared", "call back", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDraft(tt.original)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer d.Remove()

			if err := os.WriteFile(d.Path, []byte(tt.edited), 0o600); err != nil {
				t.Fatal(err)
			}
			text, changed, err := d.Read()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if text != tt.wantText || changed != tt.wantChanged {
				t.Errorf("Read() = %q, %v; want %q, %v", text, changed, tt.wantText, tt.wantChanged)
			}
		})
	}
}

func TestDraft_RemoveIsIdempotent(t *testing.T) {
	d, err := NewDraft("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.Remove(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.Remove(); err != nil {
		t.Errorf("second remove failed: %v", err)
	}
	if _, err := os.Stat(d.Path); !os.IsNotExist(err) {
		t.Error("expected the draft to be gone")
	}
}
